package cursor

import (
	"github.com/bethropolis/tidemark/internal/dom"
)

// MoveLeft moves the focus one grapheme back, crossing into the previous
// block at a block start. Without extend a selection collapses to its start.
func (m *Manager) MoveLeft(extend bool) {
	if !extend && !m.Collapsed() {
		m.collapseTo(true)
		return
	}
	block, off, ok := m.Current()
	if !ok {
		m.Fallback(nil)
		return
	}
	if off > 0 {
		m.place(block, off-1, extend)
		return
	}
	if prev := dom.PrevBlock(m.root, block); prev != nil {
		m.place(prev, caretLength(prev), extend)
	}
}

// MoveRight mirrors MoveLeft.
func (m *Manager) MoveRight(extend bool) {
	if !extend && !m.Collapsed() {
		m.collapseTo(false)
		return
	}
	block, off, ok := m.Current()
	if !ok {
		m.Fallback(nil)
		return
	}
	if off < caretLength(block) {
		m.place(block, off+1, extend)
		return
	}
	if next := dom.NextBlock(m.root, block); next != nil {
		m.place(next, 0, extend)
	}
}

// MoveUp moves to the same offset in the previous block, clamped.
func (m *Manager) MoveUp(extend bool) {
	block, off, ok := m.Current()
	if !ok {
		return
	}
	if prev := dom.PrevBlock(m.root, block); prev != nil {
		m.place(prev, off, extend)
		return
	}
	m.place(block, 0, extend)
}

// MoveDown moves to the same offset in the next block, clamped.
func (m *Manager) MoveDown(extend bool) {
	block, off, ok := m.Current()
	if !ok {
		return
	}
	if next := dom.NextBlock(m.root, block); next != nil {
		m.place(next, off, extend)
		return
	}
	m.place(block, caretLength(block), extend)
}

// MoveHome goes to the start of the current block.
func (m *Manager) MoveHome(extend bool) {
	if block, _, ok := m.Current(); ok {
		m.place(block, 0, extend)
	}
}

// MoveEnd goes to the end of the current block.
func (m *Manager) MoveEnd(extend bool) {
	if block, _, ok := m.Current(); ok {
		m.place(block, caretLength(block), extend)
	}
}

// SelectAll selects from the start of the first block to the end of the last.
func (m *Manager) SelectAll() {
	blocks := dom.Blocks(m.root)
	if len(blocks) == 0 {
		return
	}
	last := blocks[len(blocks)-1]
	m.place(blocks[0], 0, false)
	m.place(last, caretLength(last), true)
}

func (m *Manager) collapseTo(start bool) {
	spans := m.Spans()
	if len(spans) == 0 {
		m.Fallback(nil)
		return
	}
	if start {
		m.place(spans[0].Block, spans[0].From, false)
		return
	}
	last := spans[len(spans)-1]
	m.place(last.Block, last.To, false)
}
