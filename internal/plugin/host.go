package plugin

import (
	"context"
	"fmt"

	"github.com/bethropolis/tidemark/internal/blocks"
	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/editor"
	"github.com/bethropolis/tidemark/internal/event"
	"github.com/bethropolis/tidemark/internal/logger"
	"github.com/bethropolis/tidemark/internal/slash"
)

// Ensure Host implements the EditorAPI interface.
var _ EditorAPI = (*Host)(nil)

// StatusSink receives status bar output from plugins.
type StatusSink interface {
	SetTemporaryMessage(format string, args ...interface{})
	SetSegment(key, text string)
}

// HostOptions wires a Host.
type HostOptions struct {
	Engine *editor.Engine
	Status StatusSink
	// Config holds the [plugins.<name>] tables.
	Config map[string]map[string]interface{}
	// Post hands work to the editor goroutine; nil runs it inline.
	Post func(func())
	// Redraw is called after a plugin changed something visible.
	Redraw func()
}

// Host is the EditorAPI implementation backed by an editing engine.
type Host struct {
	engine *editor.Engine
	status StatusSink
	config map[string]map[string]interface{}
	post   func(func())
	redraw func()
}

// NewHost creates the API adapter handed to plugins.
func NewHost(opts HostOptions) *Host {
	h := &Host{
		engine: opts.Engine,
		status: opts.Status,
		config: opts.Config,
		post:   opts.Post,
		redraw: opts.Redraw,
	}
	if h.post == nil {
		h.post = func(fn func()) { fn() }
	}
	if h.redraw == nil {
		h.redraw = func() {}
	}
	return h
}

// --- Document ---

func (h *Host) NoteID() string         { return h.engine.NoteID() }
func (h *Host) Metadata() dom.Metadata { return h.engine.Metadata() }
func (h *Host) HTML() string           { return h.engine.HTML() }

func (h *Host) InsertCustomBlock(blockType string, p blocks.Payload) error {
	err := h.engine.InsertCustomBlock(blockType, p)
	if err == nil {
		h.redraw()
	}
	return err
}

func (h *Host) InsertLink(text, href string) error {
	err := h.engine.InsertLink(text, href)
	if err == nil {
		h.redraw()
	}
	return err
}

// SaveNote saves the current note. Scratch documents have nowhere to go.
func (h *Host) SaveNote() error {
	if h.engine.NoteID() == "" {
		return fmt.Errorf("save: note has no id")
	}
	return h.engine.Save(context.Background())
}

func (h *Host) FlushPending() { h.engine.Flush() }

// --- Extension points ---

func (h *Host) RegisterBlock(d blocks.Descriptor) error {
	return h.engine.BlockRegistry().Register(d)
}

func (h *Host) UnregisterBlock(blockType string) {
	h.engine.BlockRegistry().Unregister(blockType)
}

func (h *Host) RegisterCommand(cmd slash.Command) error {
	return h.engine.CommandRegistry().Register(cmd)
}

func (h *Host) UnregisterCommand(id string) {
	h.engine.CommandRegistry().Unregister(id)
}

// --- Event Bus Interaction ---

func (h *Host) DispatchEvent(eventType event.Type, data interface{}) {
	h.engine.Events().Dispatch(eventType, data)
}

func (h *Host) SubscribeEvent(eventType event.Type, handler event.Handler) event.SubscriptionID {
	return h.engine.Events().Subscribe(eventType, handler)
}

func (h *Host) UnsubscribeEvent(id event.SubscriptionID) {
	h.engine.Events().Unsubscribe(id)
}

// --- Host ---

func (h *Host) Post(fn func()) { h.post(fn) }

func (h *Host) SetStatusMessage(format string, args ...interface{}) {
	if h.status == nil {
		logger.Infof(format, args...)
		return
	}
	h.status.SetTemporaryMessage(format, args...)
	h.redraw()
}

func (h *Host) SetStatusSegment(key, text string) {
	if h.status == nil {
		return
	}
	h.status.SetSegment(key, text)
	h.redraw()
}

func (h *Host) GetPluginConfigValue(pluginName, key string) (interface{}, bool) {
	table, ok := h.config[pluginName]
	if !ok {
		return nil, false
	}
	v, ok := table[key]
	return v, ok
}
