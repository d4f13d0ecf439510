package cursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/settle"
)

func newDoc(t *testing.T, fragment string) (*html.Node, *Manager) {
	t.Helper()
	root := dom.NewRoot()
	require.NoError(t, dom.SetInnerHTML(root, fragment))
	return root, NewManager(root, settle.Sync{}, 32)
}

func TestResetPlacesCaretAtDocumentStart(t *testing.T) {
	root, m := newDoc(t, `<p>hello</p><p>world</p>`)
	block, off, ok := m.Current()
	require.True(t, ok)
	assert.Same(t, root.FirstChild, block)
	assert.Equal(t, 0, off)
}

func TestTextOffsetSurvivesBlockReplacement(t *testing.T) {
	root, m := newDoc(t, `<p>ab<strong>cd</strong>ef</p>`)
	p := root.FirstChild
	require.True(t, m.RestoreTextOffsetWithinBlock(p, 3))
	assert.Equal(t, 3, m.TextOffsetWithinBlock(p))

	h := dom.Element("h1")
	dom.MoveChildren(h, p)
	dom.ReplaceWith(p, h)

	assert.False(t, m.RestoreTextOffsetWithinBlock(p, 3), "old block is detached")
	require.True(t, m.RestoreTextOffsetWithinBlock(h, 3))
	assert.Equal(t, 3, m.TextOffsetWithinBlock(h))
	assert.Equal(t, -1, m.TextOffsetWithinBlock(p))

	require.True(t, m.RestoreTextOffsetWithinBlock(h, 50))
	assert.Equal(t, 6, m.TextOffsetWithinBlock(h), "clamped to length")
}

func TestRangeSnapshotFailsWhenDetached(t *testing.T) {
	root, m := newDoc(t, `<p>one</p><p>two</p>`)
	m.Place(root.LastChild, 2, false)
	snap := m.Save()
	require.NotNil(t, snap)

	dom.Detach(root.LastChild)
	assert.False(t, m.Restore(snap))

	m.Fallback(nil)
	block, off, ok := m.Current()
	require.True(t, ok)
	assert.Same(t, root.FirstChild, block)
	assert.Equal(t, 3, off)
}

func TestBlockOffsetSnapshotSurvivesReload(t *testing.T) {
	root, m := newDoc(t, `<p>one</p><ul><li>two</li><li>three</li></ul>`)
	li := dom.Blocks(root)[2]
	m.Place(li, 1, false)
	m.Place(li, 4, true)
	snap := m.SaveBlockOffset()
	require.NotNil(t, snap)

	serialized := dom.InnerHTML(root)
	require.NoError(t, dom.SetInnerHTML(root, serialized))

	require.True(t, m.Restore(snap))
	spans := m.Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, "three", dom.TextContent(spans[0].Block))
	assert.Equal(t, 1, spans[0].From)
	assert.Equal(t, 4, spans[0].To)
}

func TestMarkerRoundTrip(t *testing.T) {
	root, m := newDoc(t, `<p>hello world</p>`)
	p := root.FirstChild
	m.Place(p, 5, false)

	mk := m.CreateMarker()
	require.True(t, mk.Valid())
	assert.Equal(t, "hello world", dom.TextContent(p), "marker adds no text")
	assert.NotNil(t, dom.Find(root, dom.IsMarker))

	m.Reset()
	require.True(t, m.RestoreToMarker(mk))
	assert.Nil(t, dom.Find(root, dom.IsMarker), "marker removed after use")
	assert.Equal(t, 5, m.TextOffsetWithinBlock(p))

	assert.False(t, m.RestoreToMarker(mk), "a marker restores once")
}

func TestPositionAtWaitsOneFrame(t *testing.T) {
	root := dom.NewRoot()
	require.NoError(t, dom.SetInnerHTML(root, `<p>abc</p><h2>title</h2>`))
	sched := settle.NewManual(settle.Strategy{Frame: 16})
	m := NewManager(root, sched, 32)

	h2 := root.LastChild
	m.PositionAt(h2, EdgeEnd)
	block, _, _ := m.Current()
	assert.Same(t, root.FirstChild, block, "nothing moves before the frame")

	sched.Flush()
	block, off, ok := m.Current()
	require.True(t, ok)
	assert.Same(t, h2, block)
	assert.Equal(t, 5, off)
}

func TestPositionAtDetachedFallsBack(t *testing.T) {
	root := dom.NewRoot()
	require.NoError(t, dom.SetInnerHTML(root, `<p>abc</p><p>last</p>`))
	sched := settle.NewManual(settle.Zero())
	m := NewManager(root, sched, 32)

	gone := root.FirstChild
	m.PositionAt(gone, EdgeStart)
	dom.Detach(gone)
	sched.Flush()

	block, off, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "last", dom.TextContent(block))
	assert.Equal(t, 4, off)
}

func TestMovementCrossesBlocks(t *testing.T) {
	root, m := newDoc(t, `<p>ab</p><hr><p>cd</p>`)
	m.Place(root.FirstChild, 2, false)

	m.MoveRight(false)
	block, _, _ := m.Current()
	assert.Equal(t, dom.KindDivider, dom.KindOf(block))

	m.MoveRight(false)
	block, off, _ := m.Current()
	assert.Same(t, root.LastChild, block)
	assert.Equal(t, 0, off)

	m.MoveLeft(false)
	m.MoveLeft(false)
	block, off, _ = m.Current()
	assert.Same(t, root.FirstChild, block)
	assert.Equal(t, 2, off)
}

func TestSelectionSpansAcrossBlocks(t *testing.T) {
	root, m := newDoc(t, `<p>abc</p><p>defg</p><p>hi</p>`)
	m.Place(root.LastChild, 1, false)
	m.Place(root.FirstChild, 1, true)

	spans := m.Spans()
	require.Len(t, spans, 3)
	assert.Equal(t, Span{Block: root.FirstChild, From: 1, To: 3}, spans[0])
	assert.Equal(t, 0, spans[1].From)
	assert.Equal(t, 4, spans[1].To)
	assert.Equal(t, Span{Block: root.LastChild, From: 0, To: 1}, spans[2])

	m.MoveRight(false)
	block, off, _ := m.Current()
	assert.Same(t, root.LastChild, block)
	assert.Equal(t, 1, off)
	assert.True(t, m.Collapsed())
}

func TestAtomsCountAsOneStop(t *testing.T) {
	root, m := newDoc(t, `<p>a<br>b</p>`)
	p := root.FirstChild
	m.Place(p, 0, false)
	m.MoveRight(false)
	m.MoveRight(false)
	assert.Equal(t, 2, m.TextOffsetWithinBlock(p))
	m.MoveEnd(false)
	assert.Equal(t, 3, m.TextOffsetWithinBlock(p))
}
