// Package slash implements the slash command palette: a registry of commands,
// fuzzy filtering and the open/typing/select session around the caret.
package slash

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bethropolis/tidemark/internal/blocks"
	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/logger"
)

// ErrDuplicate is returned when a command id is registered twice.
var ErrDuplicate = errors.New("slash command already registered")

// Editor is what commands act on. The editing engine implements it.
type Editor interface {
	SetBlock(kind dom.Kind) bool
	InsertText(s string) bool
	InsertDivider() bool
	InsertTable(rows, cols int) bool
	InsertCustomBlock(typ string, p blocks.Payload) error
	InsertLink(text, href string) error
}

// Dialog marks a command that needs input gathered by a dialog collaborator
// before it can run.
type Dialog struct {
	Kind  string
	Title string
	// Complete runs with the payload the dialog produced, with the caret
	// already back where the command was invoked.
	Complete func(ed Editor, p blocks.Payload) error
}

// DialogRequest is what the dialog collaborator receives.
type DialogRequest struct {
	CommandID string
	Kind      string
	Title     string
}

// Command is one palette entry.
type Command struct {
	ID          string
	Label       string
	Category    string
	Description string
	Keywords    []string
	// Run executes a command that needs no further input.
	Run    func(ed Editor) error
	Dialog *Dialog
}

// NeedsInput reports whether the command defers to a dialog.
func (c *Command) NeedsInput() bool { return c.Dialog != nil }

// Registry holds the palette commands in registration order.
type Registry struct {
	mu    sync.RWMutex
	cmds  []*Command
	index map[string]*Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]*Command)}
}

// Register adds cmd. A command needs an id, a label and exactly one of Run
// or Dialog.
func (r *Registry) Register(cmd Command) error {
	if cmd.ID == "" || cmd.Label == "" {
		return fmt.Errorf("register slash command %q: id and label are required", cmd.ID)
	}
	if (cmd.Run == nil) == (cmd.Dialog == nil) {
		return fmt.Errorf("register slash command %q: needs exactly one of Run or Dialog", cmd.ID)
	}
	if cmd.Dialog != nil && cmd.Dialog.Complete == nil {
		return fmt.Errorf("register slash command %q: dialog without Complete", cmd.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.index[cmd.ID]; exists {
		return fmt.Errorf("register slash command %q: %w", cmd.ID, ErrDuplicate)
	}
	c := cmd
	r.cmds = append(r.cmds, &c)
	r.index[c.ID] = &c
	logger.DebugTagf("slash", "Registered slash command %q", c.ID)
	return nil
}

// Unregister removes a command.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.index[id]; !ok {
		return
	}
	delete(r.index, id)
	for i, c := range r.cmds {
		if c.ID == id {
			r.cmds = append(r.cmds[:i], r.cmds[i+1:]...)
			break
		}
	}
}

// Get returns the command with id.
func (r *Registry) Get(id string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.index[id]
	return c, ok
}

// All returns the commands in registration order.
func (r *Registry) All() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Command(nil), r.cmds...)
}

// Categories returns the distinct categories, sorted.
func (r *Registry) Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range r.All() {
		if c.Category != "" && !seen[c.Category] {
			seen[c.Category] = true
			out = append(out, c.Category)
		}
	}
	sort.Strings(out)
	return out
}
