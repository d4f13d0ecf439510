// Package history provides undo/redo over whole-document snapshots.
package history

import (
	"sync"

	"github.com/bethropolis/tidemark/internal/core/cursor"
	"github.com/bethropolis/tidemark/internal/logger"
)

const DefaultMaxHistory = 200

// Entry is one recorded document state: the serialized root content and the
// caret as it was when the state was recorded.
type Entry struct {
	HTML   string
	Cursor *cursor.Snapshot
}

// Manager keeps two bounded stacks. The top of the undo stack is always the
// current document state, so Undo needs at least two entries.
type Manager struct {
	undo       []Entry
	redo       []Entry
	maxHistory int
	mutex      sync.Mutex
}

// NewManager creates a history manager.
func NewManager(maxHistory int) *Manager {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Manager{
		undo:       make([]Entry, 0, maxHistory),
		maxHistory: maxHistory,
	}
}

// Push records a new state and discards any redo entries.
func (m *Manager) Push(e Entry) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if n := len(m.undo); n > 0 && m.undo[n-1].HTML == e.HTML {
		// Same document, newer caret.
		m.undo[n-1] = e
		m.redo = m.redo[:0]
		return
	}

	m.redo = m.redo[:0]
	m.undo = append(m.undo, e)

	// Limit history size
	if len(m.undo) > m.maxHistory {
		m.undo = m.undo[len(m.undo)-m.maxHistory:]
	}

	logger.DebugTagf("history", "History: Recorded entry. Undo: %d, Redo: %d", len(m.undo), len(m.redo))
}

// ReplaceTop overwrites the current state without growing the stack. It is
// how a run of typed characters coalesces into one undo step. With an empty
// stack it behaves like Push.
func (m *Manager) ReplaceTop(e Entry) {
	m.mutex.Lock()
	if len(m.undo) == 0 {
		m.mutex.Unlock()
		m.Push(e)
		return
	}
	defer m.mutex.Unlock()
	m.undo[len(m.undo)-1] = e
	m.redo = m.redo[:0]
}

// Undo moves the current state onto the redo stack and returns the state to
// apply, or nil when only the base state is left.
func (m *Manager) Undo() *Entry {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if len(m.undo) < 2 {
		logger.DebugTagf("history", "History: Nothing to undo.")
		return nil
	}
	current := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, current)

	target := m.undo[len(m.undo)-1]
	logger.DebugTagf("history", "History: Undo. Undo: %d, Redo: %d", len(m.undo), len(m.redo))
	return &target
}

// Redo mirrors Undo.
func (m *Manager) Redo() *Entry {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if len(m.redo) == 0 {
		logger.DebugTagf("history", "History: Nothing to redo.")
		return nil
	}
	target := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, target)

	logger.DebugTagf("history", "History: Redo. Undo: %d, Redo: %d", len(m.undo), len(m.redo))
	return &target
}

// Current returns the state on top of the undo stack.
func (m *Manager) Current() (Entry, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if len(m.undo) == 0 {
		return Entry{}, false
	}
	return m.undo[len(m.undo)-1], true
}

// Clear drops both stacks.
func (m *Manager) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.undo = m.undo[:0]
	m.redo = m.redo[:0]
	logger.DebugTagf("history", "History: Cleared.")
}

// CanUndo reports whether Undo would return an entry.
func (m *Manager) CanUndo() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.undo) > 1
}

// CanRedo reports whether Redo would return an entry.
func (m *Manager) CanRedo() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.redo) > 0
}

// Len returns the sizes of the undo and redo stacks.
func (m *Manager) Len() (undo, redo int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.undo), len(m.redo)
}
