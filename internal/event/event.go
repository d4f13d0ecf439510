// internal/event/event.go
package event

import (
	"github.com/gdamore/tcell/v2"

	"github.com/bethropolis/tidemark/internal/dom"
)

// Type identifies the kind of event.
type Type int

// Define specific event types.
const (
	TypeUnknown Type = iota

	// Document events
	TypeDocumentChanged  // Fired after an operation mutated the document
	TypeDocumentLoaded   // Fired after a note was loaded into the engine
	TypeDocumentSaved    // Fired after the persistence collaborator accepted a save
	TypeSelectionChanged // Fired when the caret or selection moved
	TypeBlockInserted    // Fired when a custom block, divider or table was inserted

	// Input events
	TypeKeyPressed // Raw key press forwarded by the terminal host

	// Application lifecycle
	TypeAppReady
	TypeAppQuit

	TypeThemeChanged
)

var typeNames = map[Type]string{
	TypeUnknown:          "unknown",
	TypeDocumentChanged:  "document-changed",
	TypeDocumentLoaded:   "document-loaded",
	TypeDocumentSaved:    "document-saved",
	TypeSelectionChanged: "selection-changed",
	TypeBlockInserted:    "block-inserted",
	TypeKeyPressed:       "key-pressed",
	TypeAppReady:         "app-ready",
	TypeAppQuit:          "app-quit",
	TypeThemeChanged:     "theme-changed",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unknown"
}

// Event is the structure passed through the event bus.
type Event struct {
	Type Type
	Data interface{}
}

// DocumentChangedData describes a settled mutation.
type DocumentChangedData struct {
	NoteID string
	// Op names the engine operation, e.g. "type", "enter", "undo".
	Op string
}

// DocumentLoadedData names the loaded note.
type DocumentLoadedData struct {
	NoteID string
}

// DocumentSavedData carries what was persisted.
type DocumentSavedData struct {
	NoteID   string
	Metadata dom.Metadata
}

// SelectionChangedData describes the caret after a move.
type SelectionChangedData struct {
	Kind      dom.Kind
	Offset    int
	Collapsed bool
}

// BlockInsertedData names the inserted block type, "divider", "table" or a
// custom block type.
type BlockInsertedData struct {
	BlockType string
}

// KeyPressedData contains the raw tcell key event.
type KeyPressedData struct {
	KeyEvent *tcell.EventKey
}

// ThemeChangedData names the new theme.
type ThemeChangedData struct {
	Name string
}
