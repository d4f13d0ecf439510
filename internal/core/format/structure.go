package format

import (
	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/logger"
	"github.com/bethropolis/tidemark/internal/utils"
)

// InsertText inserts s at the caret, inheriting the formatting around it.
func (d *Dispatcher) InsertText(s string) bool {
	block, off, ok := d.cur.Current()
	if !ok || s == "" {
		return false
	}
	node, o := dom.PointAt(block, off)
	if node.Type == html.TextNode {
		node.Data = node.Data[:o] + s + node.Data[o:]
	} else {
		dom.InsertAtPoint(node, o, dom.Text(s))
	}
	d.cur.Place(block, off+utils.GraphemeCount(s), false)
	return true
}

// InsertMarkedText inserts s at the caret carrying exactly marks, whatever
// surrounds it. Links around the caret are kept.
func (d *Dispatcher) InsertMarkedText(s string, marks Mark) bool {
	block, off, ok := d.cur.Current()
	if !ok || s == "" {
		return false
	}
	left, right := splitRuns(flatten(block), off)
	r := run{text: s, marks: marks &^ Link}
	if n := len(left); n > 0 && left[n-1].marks&Link != 0 {
		r.marks |= Link
		r.href = left[n-1].href
	}
	rebuild(block, append(append(left, r), right...))
	d.norm.Subtree(block)
	d.cur.Place(block, off+utils.GraphemeCount(s), false)
	return true
}

// InsertInline inserts an atom at the caret and puts the caret after it.
func (d *Dispatcher) InsertInline(n *html.Node) bool {
	block, off, ok := d.cur.Current()
	if !ok {
		return false
	}
	if !dom.KindOf(block).IsTextual() && dom.KindOf(block) != dom.KindTable {
		return false
	}
	node, o := dom.PointAt(block, off)
	dom.InsertAtPoint(node, o, n)
	d.cur.Place(block, off+1, false)
	return true
}

// InsertInlineFrom inserts the inline content of src at the caret, keeping
// its formatting, and puts the caret after it. src is left empty.
func (d *Dispatcher) InsertInlineFrom(src *html.Node) bool {
	block, off, ok := d.cur.Current()
	if !ok {
		return false
	}
	if !dom.KindOf(block).IsTextual() && dom.KindOf(block) != dom.KindTable {
		return false
	}
	mid := flatten(src)
	if len(mid) == 0 {
		return false
	}
	left, right := splitRuns(flatten(block), off)
	rebuild(block, append(append(left, mid...), right...))
	d.norm.Subtree(block)
	d.cur.Place(block, off+runsLength(mid), false)
	return true
}

// CutRange removes [from,to) from block, leaves the caret at from and tidies
// the block.
func (d *Dispatcher) CutRange(block *html.Node, from, to int) {
	dom.CutRange(block, from, to)
	d.norm.Subtree(block)
	d.cur.Place(block, from, false)
}

// DeleteSelection removes the selected content. Blocks fully inside the
// selection go away and the last partial block joins the first.
func (d *Dispatcher) DeleteSelection() bool {
	if d.cur.Collapsed() {
		return false
	}
	spans := d.cur.Spans()
	if len(spans) == 0 {
		return false
	}
	first, last := spans[0], spans[len(spans)-1]
	if len(spans) == 1 {
		d.CutRange(first.Block, first.From, first.To)
		return true
	}

	root := d.root()
	dom.CutRange(first.Block, first.From, dom.BlockLength(first.Block))
	dom.CutRange(last.Block, 0, last.To)
	for _, s := range spans[1 : len(spans)-1] {
		d.removeBlock(s.Block)
	}

	firstKind, lastKind := dom.KindOf(first.Block), dom.KindOf(last.Block)
	switch {
	case firstKind.IsTextual() && lastKind.IsTextual():
		runs := append(flatten(first.Block), flatten(last.Block)...)
		rebuild(first.Block, runs)
		d.removeBlock(last.Block)
	case !firstKind.IsTextual() && firstKind != dom.KindTable:
		d.removeBlock(first.Block)
	}
	d.norm.Normalize(root)
	if dom.Attached(root, first.Block) {
		d.cur.Place(first.Block, first.From, false)
	} else {
		d.cur.Fallback(nil)
	}
	logger.DebugTagf("format", "DeleteSelection: removed across %d block(s)", len(spans))
	return true
}

// removeBlock detaches a block unit. Table cells are emptied instead so the
// table keeps its shape.
func (d *Dispatcher) removeBlock(b *html.Node) {
	switch {
	case dom.IsElement(b, "td", "th"):
		dom.RemoveChildren(b)
	case dom.IsElement(b, "li"):
		list := b.Parent
		dom.Detach(b)
		if list != nil && list.FirstChild == nil {
			dom.Detach(list)
		}
	default:
		dom.Detach(b)
	}
}

// SplitBlock splits block at off. The content after off moves into a new
// block of kind placed right after it; KindUnknown keeps block's own kind.
// List items stay in their list.
func (d *Dispatcher) SplitBlock(block *html.Node, off int, kind dom.Kind) *html.Node {
	left, right := splitRuns(flatten(block), off)
	rebuild(block, left)

	from := dom.KindOf(block)
	if kind == dom.KindUnknown {
		kind = from
	}
	var fresh *html.Node
	if from.IsListItem() {
		fresh = dom.Element("li")
		if from == dom.KindChecklist {
			dom.SetAttr(fresh, dom.AttrChecked, "false")
		}
		dom.InsertAfter(block, fresh)
	} else {
		fresh = dom.Element(kind.Tag())
		dom.InsertAfter(dom.TopLevel(d.root(), block), fresh)
	}
	rebuild(fresh, right)

	d.norm.Subtree(block)
	d.norm.Subtree(fresh)
	if dom.KindOf(block).IsHeading() {
		d.RefreshHeadingID(block)
	}
	if dom.KindOf(fresh).IsHeading() {
		d.RefreshHeadingID(fresh)
	}
	d.cur.Place(fresh, 0, false)
	return fresh
}

// MergeBackward joins block onto the block before it and puts the caret at
// the seam. A divider or custom block before it is removed instead. It
// reports false when there is nothing to merge with.
func (d *Dispatcher) MergeBackward(block *html.Node) bool {
	root := d.root()
	prev := dom.PrevBlock(root, block)
	if prev == nil {
		return false
	}
	switch dom.KindOf(prev) {
	case dom.KindDivider, dom.KindCustom:
		d.removeBlock(prev)
		d.norm.Normalize(root)
		d.cur.Place(block, 0, false)
		return true
	case dom.KindTable:
		return false
	}
	if dom.KindOf(block) == dom.KindTable {
		return false
	}

	seam := dom.BlockLength(prev)
	rebuild(prev, append(flatten(prev), flatten(block)...))
	d.removeBlock(block)
	d.norm.Normalize(root)
	if dom.KindOf(prev).IsHeading() {
		d.RefreshHeadingID(prev)
	}
	d.cur.Place(prev, seam, false)
	return true
}
