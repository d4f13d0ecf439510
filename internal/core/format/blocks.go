package format

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/core/cursor"
	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/logger"
	"github.com/bethropolis/tidemark/internal/settle"
)

// CurrentBlock returns the block holding the caret, found by a bounded walk.
func (d *Dispatcher) CurrentBlock() *html.Node {
	block, _, ok := d.cur.Current()
	if !ok {
		return nil
	}
	return block
}

// SetBlock converts the block containing the caret to kind. It returns the
// new block, or nil when there was nothing to convert.
func (d *Dispatcher) SetBlock(kind dom.Kind) *html.Node {
	return d.SetBlockOf(d.CurrentBlock(), kind)
}

// SetBlockOf converts block to kind. Inline content moves over unchanged and
// the caret keeps its text offset. Only textual kinds are targets; dividers,
// tables and custom blocks are inserted, not converted to.
func (d *Dispatcher) SetBlockOf(block *html.Node, kind dom.Kind) *html.Node {
	if block == nil || !dom.Attached(d.root(), block) {
		logger.DebugTagf("format", "SetBlock(%s): no block at caret", kind)
		return nil
	}
	from := dom.KindOf(block)
	if !kind.IsTextual() || !from.IsTextual() {
		logger.DebugTagf("format", "SetBlock(%s): cannot convert %s", kind, from)
		return nil
	}

	off := d.cur.TextOffsetWithinBlock(block)
	if off < 0 {
		off = 0
	}

	var fresh *html.Node
	if from == kind {
		if kind.IsHeading() {
			d.RefreshHeadingID(block)
		}
		fresh = block
	} else {
		fresh = d.replaceBlock(block, kind)
	}
	d.norm.Normalize(d.root())

	if d.focus != nil {
		d.focus()
	}
	d.settleCaret(settle.TierLong, fresh, off)
	logger.DebugTagf("format", "SetBlock: %s -> %s at offset %d", from, kind, off)
	return fresh
}

// CycleHeading steps paragraph -> h1 -> h2 -> h3 -> paragraph. Any other
// kind enters the cycle at h1.
func (d *Dispatcher) CycleHeading() *html.Node {
	block := d.CurrentBlock()
	if block == nil {
		return nil
	}
	return d.SetBlockOf(block, NextHeading(dom.KindOf(block)))
}

// NextHeading returns the successor of k in the heading cycle.
func NextHeading(k dom.Kind) dom.Kind {
	switch k {
	case dom.KindHeading1:
		return dom.KindHeading2
	case dom.KindHeading2:
		return dom.KindHeading3
	case dom.KindHeading3:
		return dom.KindParagraph
	}
	return dom.KindHeading1
}

// replaceBlock builds a new element of kind, moves block's inline content
// into it and puts it where block was.
func (d *Dispatcher) replaceBlock(block *html.Node, kind dom.Kind) *html.Node {
	root := d.root()
	fresh := dom.Element(kind.Tag())
	dom.MoveChildren(fresh, block)
	if kind == dom.KindChecklist {
		dom.SetAttr(fresh, dom.AttrChecked, "false")
	}

	from := dom.KindOf(block)
	switch {
	case from.IsListItem():
		ref := liftItem(root, block)
		if kind.IsListItem() {
			fresh = wrapInList(fresh, kind)
		}
		root.InsertBefore(topOf(fresh), ref)
	case kind.IsListItem():
		dom.ReplaceWith(block, wrapInList(fresh, kind).Parent)
	default:
		dom.ReplaceWith(block, fresh)
	}

	if kind.IsHeading() {
		d.RefreshHeadingID(fresh)
	}
	return fresh
}

func topOf(n *html.Node) *html.Node {
	if n.Parent != nil {
		return n.Parent
	}
	return n
}

// wrapInList puts li into a new list container for kind and returns li.
func wrapInList(li *html.Node, kind dom.Kind) *html.Node {
	var list *html.Node
	switch kind {
	case dom.KindNumbered:
		list = dom.Element("ol")
	case dom.KindChecklist:
		list = dom.Element("ul", html.Attribute{Key: dom.AttrChecklist, Val: "true"})
	default:
		list = dom.Element("ul")
	}
	list.AppendChild(li)
	return li
}

// liftItem takes li out of its list. Items after it move into a new list of
// the same kind so the list splits around the hole. It returns the root
// child before which a replacement belongs, nil meaning the end.
func liftItem(root, li *html.Node) *html.Node {
	list := li.Parent
	if li.NextSibling != nil {
		tail := dom.Element(list.Data, list.Attr...)
		for c := li.NextSibling; c != nil; {
			next := c.NextSibling
			dom.Append(tail, c)
			c = next
		}
		dom.InsertAfter(list, tail)
	}
	dom.Detach(li)
	ref := list.NextSibling
	if list.FirstChild == nil {
		dom.Detach(list)
	}
	if ref != nil && ref.Parent != root {
		ref = nil
	}
	return ref
}

// RefreshHeadingID recomputes the id of a heading from its text.
func (d *Dispatcher) RefreshHeadingID(h *html.Node) {
	if !dom.KindOf(h).IsHeading() {
		return
	}
	dom.SetAttr(h, "id", d.headingID(h))
}

func (d *Dispatcher) headingID(h *html.Node) string {
	base := dom.Slug(dom.TextContent(h))
	if base == "" {
		if cur := dom.AttrOr(h, "id", ""); len(cur) > len("heading-") && cur[:len("heading-")] == "heading-" {
			return cur
		}
		return fmt.Sprintf("heading-%d", d.now().UnixMilli())
	}

	taken := map[string]bool{}
	for _, b := range dom.Blocks(d.root()) {
		if b != h && dom.KindOf(b).IsHeading() {
			taken[dom.AttrOr(b, "id", "")] = true
		}
	}
	id := base
	for i := 2; taken[id]; i++ {
		id = fmt.Sprintf("%s-%d", base, i)
	}
	return id
}

// ToggleChecked flips the checked state of the checklist item at the caret.
func (d *Dispatcher) ToggleChecked() bool {
	block := d.CurrentBlock()
	if dom.KindOf(block) != dom.KindChecklist {
		return false
	}
	if dom.AttrOr(block, dom.AttrChecked, "false") == "true" {
		dom.SetAttr(block, dom.AttrChecked, "false")
	} else {
		dom.SetAttr(block, dom.AttrChecked, "true")
	}
	return true
}

// InsertDivider puts a divider after the block at the caret, or in its place
// when that block is an empty paragraph, followed by an empty paragraph that
// receives the caret.
func (d *Dispatcher) InsertDivider() *html.Node {
	hr := dom.Element("hr")
	if !d.insertBlock(hr) {
		return nil
	}
	p := dom.Element("p")
	dom.InsertAfter(hr, p)
	d.norm.Normalize(d.root())
	d.cur.PlaceAt(p, cursor.EdgeStart)
	d.cur.PositionAt(p, cursor.EdgeStart)
	return hr
}

// InsertTable inserts a rows x cols table and moves the caret into its first
// cell.
func (d *Dispatcher) InsertTable(rows, cols int) *html.Node {
	if rows <= 0 || cols <= 0 {
		return nil
	}
	table := dom.Element("table")
	tbody := dom.Element("tbody")
	table.AppendChild(tbody)
	for r := 0; r < rows; r++ {
		tr := dom.Element("tr")
		for c := 0; c < cols; c++ {
			tr.AppendChild(dom.Element("td"))
		}
		tbody.AppendChild(tr)
	}
	if !d.insertBlock(table) {
		return nil
	}
	if table.NextSibling == nil {
		dom.InsertAfter(table, dom.Element("p"))
	}
	d.norm.Normalize(d.root())
	first := dom.Find(table, func(n *html.Node) bool { return dom.IsElement(n, "td") })
	d.cur.PlaceAt(first, cursor.EdgeStart)
	d.cur.PositionAt(first, cursor.EdgeStart)
	return table
}

// InsertBlockNode inserts a prepared block-level element the same way
// dividers are inserted. It is used for custom blocks.
func (d *Dispatcher) InsertBlockNode(el *html.Node) bool {
	if !d.insertBlock(el) {
		return false
	}
	if el.NextSibling == nil {
		dom.InsertAfter(el, dom.Element("p"))
	}
	d.norm.Normalize(d.root())
	return true
}

// insertBlock places el at root level after the caret's block, replacing it
// when it is an empty paragraph. A list item is split out of its list first.
func (d *Dispatcher) insertBlock(el *html.Node) bool {
	root := d.root()
	block := d.CurrentBlock()
	if block == nil {
		dom.Append(root, el)
		return true
	}
	kind := dom.KindOf(block)
	switch {
	case kind == dom.KindParagraph && dom.IsEmptyBlock(block) && block.Parent == root:
		dom.ReplaceWith(block, el)
	case kind.IsListItem():
		if dom.IsEmptyBlock(block) {
			root.InsertBefore(el, liftItem(root, block))
			return true
		}
		list := block.Parent
		if block.NextSibling != nil {
			tail := dom.Element(list.Data, list.Attr...)
			for c := block.NextSibling; c != nil; {
				next := c.NextSibling
				dom.Append(tail, c)
				c = next
			}
			dom.InsertAfter(list, tail)
		}
		dom.InsertAfter(list, el)
	default:
		top := dom.TopLevel(root, block)
		if top == nil {
			return false
		}
		dom.InsertAfter(top, el)
	}
	return true
}
