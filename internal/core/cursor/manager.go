// Package cursor keeps the caret and selection of the editing surface alive
// across structural mutations of the document tree.
package cursor

import (
	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/logger"
	"github.com/bethropolis/tidemark/internal/settle"
)

// Point is a DOM position. For text nodes Offset is a byte offset, for
// elements it is a child index.
type Point struct {
	Node   *html.Node
	Offset int
}

// Selection is an anchor and a focus. The focus is where the caret blinks.
type Selection struct {
	Anchor Point
	Focus  Point
}

// Collapsed reports whether the selection is a plain caret.
func (s Selection) Collapsed() bool { return s.Anchor == s.Focus }

// Edge picks a side of an element for PositionAt.
type Edge int

const (
	EdgeStart Edge = iota
	EdgeEnd
)

// Span is the part of a selection that falls inside one block, in grapheme
// offsets.
type Span struct {
	Block    *html.Node
	From, To int
}

// Manager handles caret placement against one document root.
type Manager struct {
	root    *html.Node
	sel     Selection
	hasSel  bool
	sched   settle.Scheduler
	maxWalk int
}

// NewManager creates a cursor manager. maxWalk bounds every ancestor walk.
func NewManager(root *html.Node, sched settle.Scheduler, maxWalk int) *Manager {
	if sched == nil {
		sched = settle.Sync{}
	}
	if maxWalk <= 0 {
		maxWalk = 32
	}
	m := &Manager{root: root, sched: sched, maxWalk: maxWalk}
	m.Reset()
	return m
}

// Root returns the document root the manager works against.
func (m *Manager) Root() *html.Node { return m.root }

// MaxWalk returns the ancestor walk bound.
func (m *Manager) MaxWalk() int { return m.maxWalk }

// Reset puts the caret at the start of the document.
func (m *Manager) Reset() {
	blocks := dom.Blocks(m.root)
	if len(blocks) == 0 {
		m.Collapse(Point{Node: m.root, Offset: 0})
		return
	}
	m.place(blocks[0], 0, false)
}

// Selection returns the current selection. ok is false when there is none or
// it points at detached nodes.
func (m *Manager) Selection() (Selection, bool) {
	if !m.hasSel || !dom.Attached(m.root, m.sel.Anchor.Node) || !dom.Attached(m.root, m.sel.Focus.Node) {
		return Selection{}, false
	}
	return m.sel, true
}

// Select replaces the selection without validating it.
func (m *Manager) Select(sel Selection) {
	m.sel = sel
	m.hasSel = true
}

// Collapse puts a plain caret at p.
func (m *Manager) Collapse(p Point) {
	m.Select(Selection{Anchor: p, Focus: p})
}

// Collapsed reports whether the current selection is a caret.
func (m *Manager) Collapsed() bool {
	return !m.hasSel || m.sel.Collapsed()
}

// Current returns the block holding the caret and the caret's grapheme offset
// within it.
func (m *Manager) Current() (*html.Node, int, bool) {
	sel, ok := m.Selection()
	if !ok {
		return nil, 0, false
	}
	return m.resolve(sel.Focus)
}

// AnchorPosition returns the block and offset of the selection anchor.
func (m *Manager) AnchorPosition() (*html.Node, int, bool) {
	sel, ok := m.Selection()
	if !ok {
		return nil, 0, false
	}
	return m.resolve(sel.Anchor)
}

// resolve maps a DOM point to a block and offset.
func (m *Manager) resolve(p Point) (*html.Node, int, bool) {
	if p.Node == m.root {
		blocks := dom.Blocks(m.root)
		if len(blocks) == 0 {
			return nil, 0, false
		}
		child := dom.ChildAt(m.root, p.Offset)
		if child == nil {
			last := blocks[len(blocks)-1]
			return last, caretLength(last), true
		}
		for _, b := range blocks {
			if dom.Contains(child, b) {
				return b, 0, true
			}
		}
		return blocks[0], 0, true
	}
	block := dom.BlockOf(m.root, p.Node, m.maxWalk)
	if block == nil {
		return nil, 0, false
	}
	if caretLength(block) == 0 {
		return block, 0, true
	}
	return block, dom.OffsetOf(block, p.Node, p.Offset), true
}

// Spans splits the selection into per-block ranges in document order.
func (m *Manager) Spans() []Span {
	ab, ao, ok1 := m.AnchorPosition()
	fb, fo, ok2 := m.Current()
	if !ok1 || !ok2 {
		return nil
	}
	if ab == fb {
		if ao > fo {
			ao, fo = fo, ao
		}
		return []Span{{Block: ab, From: ao, To: fo}}
	}

	blocks := dom.Blocks(m.root)
	ai, fi := -1, -1
	for i, b := range blocks {
		switch b {
		case ab:
			ai = i
		case fb:
			fi = i
		}
	}
	if ai < 0 || fi < 0 {
		return nil
	}
	startOff, endOff := ao, fo
	if ai > fi {
		ai, fi = fi, ai
		startOff, endOff = fo, ao
	}
	var spans []Span
	for i := ai; i <= fi; i++ {
		b := blocks[i]
		from, to := 0, caretLength(b)
		if i == ai {
			from = startOff
		}
		if i == fi {
			to = endOff
		}
		spans = append(spans, Span{Block: b, From: from, To: to})
	}
	return spans
}

// TextOffsetWithinBlock returns the caret's flat grapheme offset inside block,
// or -1 when the caret is elsewhere.
func (m *Manager) TextOffsetWithinBlock(block *html.Node) int {
	b, off, ok := m.Current()
	if !ok || b != block {
		return -1
	}
	return off
}

// RestoreTextOffsetWithinBlock collapses the caret at offset inside block,
// clamped to the block's length. It fails when block is detached.
func (m *Manager) RestoreTextOffsetWithinBlock(block *html.Node, offset int) bool {
	if block == nil || !dom.Attached(m.root, block) {
		logger.DebugTagf("cursor", "RestoreTextOffsetWithinBlock: block detached")
		return false
	}
	m.place(block, offset, false)
	return true
}

// PositionAt collapses the caret at an edge of el one frame from now. A
// detached element at run time falls back to the end of the document.
func (m *Manager) PositionAt(el *html.Node, edge Edge) {
	m.sched.Defer(settle.TierFrame, func() {
		if !dom.Attached(m.root, el) {
			logger.DebugTagf("cursor", "PositionAt: element detached before frame")
			m.Fallback(nil)
			return
		}
		m.PlaceAt(el, edge)
	})
}

// PlaceAt collapses the caret at an edge of el immediately.
func (m *Manager) PlaceAt(el *html.Node, edge Edge) {
	if edge == EdgeStart {
		m.place(el, 0, false)
		return
	}
	m.place(el, caretLength(el), false)
}

// Fallback puts the caret at the end of block when it is still attached, else
// at the end of the document.
func (m *Manager) Fallback(block *html.Node) {
	if block != nil && dom.Attached(m.root, block) && block != m.root {
		m.place(block, caretLength(block), false)
		return
	}
	blocks := dom.Blocks(m.root)
	if len(blocks) == 0 {
		m.Collapse(Point{Node: m.root, Offset: dom.ChildCount(m.root)})
		return
	}
	last := blocks[len(blocks)-1]
	m.place(last, caretLength(last), false)
}

// Place moves the focus to offset inside block. With extend the anchor stays.
func (m *Manager) Place(block *html.Node, offset int, extend bool) {
	m.place(block, offset, extend)
}

func (m *Manager) place(block *html.Node, offset int, extend bool) {
	if offset < 0 {
		offset = 0
	}
	var p Point
	if caretLength(block) == 0 && !dom.KindOf(block).IsTextual() {
		p = Point{Node: block, Offset: 0}
	} else {
		node, o := dom.PointAt(block, offset)
		p = Point{Node: node, Offset: o}
	}
	if extend && m.hasSel {
		m.sel.Focus = p
		return
	}
	m.Collapse(p)
}

// caretLength is the number of caret stops inside block. Dividers and custom
// blocks have none.
func caretLength(block *html.Node) int {
	switch dom.KindOf(block) {
	case dom.KindDivider, dom.KindCustom:
		return 0
	}
	return dom.BlockLength(block)
}
