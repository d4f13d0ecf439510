// Package plugintest provides an engine-backed plugin host for plugin tests.
package plugintest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bethropolis/tidemark/internal/config"
	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/editor"
	"github.com/bethropolis/tidemark/internal/plugin"
)

// Status records what plugins show in the status bar.
type Status struct {
	Messages []string
	Segments map[string]string
}

func (s *Status) SetTemporaryMessage(format string, args ...interface{}) {
	s.Messages = append(s.Messages, fmt.Sprintf(format, args...))
}

func (s *Status) SetSegment(key, text string) {
	if s.Segments == nil {
		s.Segments = map[string]string{}
	}
	if text == "" {
		delete(s.Segments, key)
		return
	}
	s.Segments[key] = text
}

// LastMessage returns the newest temporary message, or "".
func (s *Status) LastMessage() string {
	if len(s.Messages) == 0 {
		return ""
	}
	return s.Messages[len(s.Messages)-1]
}

// Dialogs captures the last dialog request.
type Dialogs struct {
	Req    editor.DialogRequest
	Insert editor.InsertFunc
}

func (d *Dialogs) Open(req editor.DialogRequest, insert editor.InsertFunc) {
	d.Req, d.Insert = req, insert
}

// Store is an in-memory note store.
type Store struct {
	Notes map[string]string
	Meta  map[string]dom.Metadata
	Saves int
}

func (s *Store) Load(_ context.Context, id string) (string, error) {
	raw, ok := s.Notes[id]
	if !ok {
		return "", errors.New("no such note")
	}
	return raw, nil
}

func (s *Store) Save(_ context.Context, id, serialized string, meta dom.Metadata) error {
	s.Notes[id] = serialized
	s.Meta[id] = meta
	s.Saves++
	return nil
}

// Fixture bundles a host with the collaborators behind it.
type Fixture struct {
	Host    *plugin.Host
	Engine  *editor.Engine
	Status  *Status
	Dialogs *Dialogs
	Store   *Store
	// Posted collects work plugins hand to Post; Drain runs it.
	Posted []func()
}

// Drain runs posted work in order.
func (f *Fixture) Drain() {
	for len(f.Posted) > 0 {
		fn := f.Posted[0]
		f.Posted = f.Posted[1:]
		fn()
	}
}

// New builds a fixture. Debounced work only runs on Engine.Flush.
func New(t *testing.T, pluginConfig map[string]map[string]interface{}) *Fixture {
	t.Helper()
	cfg := config.NewDefaultConfig().Editor
	cfg.SaveDebounce = config.Duration(time.Hour)
	cfg.RenormalizeDebounce = config.Duration(time.Hour)

	f := &Fixture{
		Status:  &Status{},
		Dialogs: &Dialogs{},
		Store:   &Store{Notes: map[string]string{}, Meta: map[string]dom.Metadata{}},
	}
	f.Engine = editor.New(editor.Options{
		Config:      cfg,
		Persistence: f.Store,
		Dialogs:     f.Dialogs,
		Now:         func() time.Time { return time.UnixMilli(1700000000000) },
	})
	t.Cleanup(f.Engine.Close)
	f.Host = plugin.NewHost(plugin.HostOptions{
		Engine: f.Engine,
		Status: f.Status,
		Config: pluginConfig,
		Post:   func(fn func()) { f.Posted = append(f.Posted, fn) },
	})
	return f
}
