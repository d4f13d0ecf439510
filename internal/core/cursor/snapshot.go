package cursor

import (
	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/logger"
)

// Kind tells which strategy a Snapshot uses to find its way back.
type Kind int

const (
	// KindRange holds raw DOM points; valid only while those nodes live.
	KindRange Kind = iota
	// KindBlockOffset holds block paths and grapheme offsets; survives block
	// replacement and whole-document reloads.
	KindBlockOffset
	// KindMarker refers to a marker element left in the tree.
	KindMarker
)

// Position is a DOM-independent caret location.
type Position struct {
	Path   []int
	Offset int
}

// Snapshot describes a caret or selection so it can be restored after a
// mutation. Snapshots are immutable once taken.
type Snapshot struct {
	Kind     Kind
	Range    Selection
	Anchor   Position
	Focus    Position
	MarkerID string
}

// Marker is a handle to a zero-width anchor element inserted at the caret.
type Marker struct {
	ID string
}

// Valid reports whether the marker was actually placed.
func (m Marker) Valid() bool { return m.ID != "" }

// Save clones the current selection. It returns nil when there is none.
func (m *Manager) Save() *Snapshot {
	sel, ok := m.Selection()
	if !ok {
		return nil
	}
	return &Snapshot{Kind: KindRange, Range: sel}
}

// SaveBlockOffset captures the selection as block paths plus offsets.
func (m *Manager) SaveBlockOffset() *Snapshot {
	ab, ao, ok1 := m.AnchorPosition()
	fb, fo, ok2 := m.Current()
	if !ok1 || !ok2 {
		return nil
	}
	return &Snapshot{
		Kind:   KindBlockOffset,
		Anchor: Position{Path: dom.Path(m.root, ab), Offset: ao},
		Focus:  Position{Path: dom.Path(m.root, fb), Offset: fo},
	}
}

// Restore applies a snapshot. It returns false when the snapshot no longer
// matches the tree; the caller decides the fallback.
func (m *Manager) Restore(s *Snapshot) bool {
	if s == nil {
		return false
	}
	switch s.Kind {
	case KindRange:
		return m.restoreRange(s.Range)
	case KindBlockOffset:
		return m.restoreBlockOffset(s.Anchor, s.Focus)
	case KindMarker:
		return m.RestoreToMarker(Marker{ID: s.MarkerID})
	}
	return false
}

func (m *Manager) restoreRange(sel Selection) bool {
	if !dom.Attached(m.root, sel.Anchor.Node) || !dom.Attached(m.root, sel.Focus.Node) {
		logger.DebugTagf("cursor", "Restore: range container detached")
		return false
	}
	m.Select(Selection{Anchor: clampPoint(sel.Anchor), Focus: clampPoint(sel.Focus)})
	return true
}

func (m *Manager) restoreBlockOffset(anchor, focus Position) bool {
	fb := dom.NodeAt(m.root, focus.Path)
	if fb == nil || fb == m.root {
		logger.DebugTagf("cursor", "Restore: no block at path %v", focus.Path)
		return false
	}
	ab := dom.NodeAt(m.root, anchor.Path)
	if ab == nil || ab == m.root {
		ab, anchor = fb, focus
	}
	m.place(ab, anchor.Offset, false)
	m.place(fb, focus.Offset, true)
	return true
}

func clampPoint(p Point) Point {
	limit := dom.ChildCount(p.Node)
	if p.Node.Type == html.TextNode {
		limit = len(p.Node.Data)
	}
	if p.Offset > limit {
		p.Offset = limit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// CreateMarker inserts an empty marker element at the caret and returns its
// handle. A non-collapsed selection is collapsed to its focus first. The
// returned marker is invalid when there is no caret.
func (m *Manager) CreateMarker() Marker {
	sel, ok := m.Selection()
	if !ok {
		logger.DebugTagf("cursor", "CreateMarker: no selection")
		return Marker{}
	}
	id := uuid.NewString()
	marker := dom.Element("span", html.Attribute{Key: dom.AttrMarker, Val: id})
	focus := clampPoint(sel.Focus)
	dom.InsertAtPoint(focus.Node, focus.Offset, marker)
	m.Collapse(Point{Node: marker.Parent, Offset: dom.Index(marker)})
	logger.DebugTagf("cursor", "Created marker %s", id)
	return Marker{ID: id}
}

// RestoreToMarker moves the caret to the marker and removes it. It returns
// false when the marker is gone.
func (m *Manager) RestoreToMarker(mk Marker) bool {
	if !mk.Valid() {
		return false
	}
	el := m.findMarker(mk.ID)
	if el == nil {
		logger.DebugTagf("cursor", "RestoreToMarker: marker %s not found", mk.ID)
		return false
	}
	block := dom.BlockOf(m.root, el, m.maxWalk)
	if block == nil {
		parent, idx := el.Parent, dom.Index(el)
		dom.Detach(el)
		m.Collapse(Point{Node: parent, Offset: idx})
		return true
	}
	off := dom.OffsetOf(block, el.Parent, dom.Index(el))
	dom.Detach(el)
	m.place(block, off, false)
	return true
}

// DropMarker removes a marker without moving the caret.
func (m *Manager) DropMarker(mk Marker) {
	if el := m.findMarker(mk.ID); el != nil {
		dom.Detach(el)
	}
}

// RemoveMarkers strips every marker from the tree and returns how many were
// removed.
func (m *Manager) RemoveMarkers() int {
	var found []*html.Node
	dom.Walk(m.root, func(n *html.Node) bool {
		if dom.IsMarker(n) {
			found = append(found, n)
			return false
		}
		return true
	})
	for _, n := range found {
		dom.Detach(n)
	}
	return len(found)
}

func (m *Manager) findMarker(id string) *html.Node {
	if id == "" {
		return nil
	}
	return dom.Find(m.root, func(n *html.Node) bool {
		return dom.IsMarker(n) && dom.AttrOr(n, dom.AttrMarker, "") == id
	})
}
