// internal/plugin/plugin.go
package plugin

import (
	"github.com/bethropolis/tidemark/internal/blocks"
	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/event"
	"github.com/bethropolis/tidemark/internal/slash"
)

// EditorAPI defines the methods plugins can use to interact with the editor.
// Plugins never see the document tree; they extend the editor through block
// types and slash commands and react to events.
type EditorAPI interface {
	// --- Document ---
	NoteID() string
	Metadata() dom.Metadata
	HTML() string
	InsertCustomBlock(blockType string, p blocks.Payload) error
	InsertLink(text, href string) error
	SaveNote() error
	// FlushPending runs debounced work (normalization, autosave) now.
	FlushPending()

	// --- Extension points ---
	RegisterBlock(d blocks.Descriptor) error
	UnregisterBlock(blockType string)
	RegisterCommand(cmd slash.Command) error
	UnregisterCommand(id string)

	// --- Event Bus Interaction ---
	DispatchEvent(eventType event.Type, data interface{})
	SubscribeEvent(eventType event.Type, handler event.Handler) event.SubscriptionID
	UnsubscribeEvent(id event.SubscriptionID)

	// --- Host ---
	// Post runs fn on the editor goroutine. Timers and background work
	// must go through it before touching the editor.
	Post(fn func())
	SetStatusMessage(format string, args ...interface{})
	// SetStatusSegment shows persistent text in the status bar under key;
	// empty text removes the segment.
	SetStatusSegment(key, text string)
	GetPluginConfigValue(pluginName, key string) (interface{}, bool)
}

// Plugin defines the interface that all plugins must implement.
type Plugin interface {
	// Name returns the unique identifier name of the plugin.
	Name() string

	// Initialize is called once when the plugin is loaded. Plugins register
	// block types and commands and subscribe to events here.
	Initialize(api EditorAPI) error

	// Shutdown is called once when the editor is closing.
	Shutdown() error
}
