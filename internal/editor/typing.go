package editor

import (
	"github.com/rivo/uniseg"
	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/core/cursor"
	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/logger"
)

// TypeText inserts typed text at the caret one grapheme cluster at a time,
// running autoformat and the slash palette as each one lands. A selection is
// replaced.
func (e *Engine) TypeText(s string) bool {
	if s == "" {
		return false
	}
	changed := false
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		cluster := gr.Str()
		if e.mutate(opType, true, func() bool { return e.typeCluster(cluster) }) {
			changed = true
		}
	}
	return changed
}

func (e *Engine) typeCluster(s string) bool {
	if !e.cur.Collapsed() {
		e.disp.DeleteSelection()
	}
	block, off, ok := e.caret()
	if !ok {
		return false
	}
	kind := dom.KindOf(block)
	if kind == dom.KindDivider || kind == dom.KindCustom {
		block = e.paragraphAfter(block)
		off = 0
	}

	opens := e.palette.ShouldOpen(block, off, s)
	if e.pending != nil {
		e.disp.InsertMarkedText(s, *e.pending)
	} else if !e.disp.InsertText(s) {
		return false
	}

	boundary := s == " "
	switch {
	case opens:
		e.palette.Open(block, off)
	case e.palette.Active():
		e.palette.Update(block, off+1)
	}
	if boundary && !e.palette.Active() && e.auto.AfterSpace() {
		e.pending = nil
	}

	if cur, _, ok := e.cur.Current(); ok && dom.KindOf(cur).IsHeading() {
		e.disp.RefreshHeadingID(cur)
	}
	// A word boundary ends the undo step.
	e.wordBreak = boundary
	return true
}

// caret returns the caret block, placing the caret at the end of the
// document when there is none.
func (e *Engine) caret() (*html.Node, int, bool) {
	block, off, ok := e.cur.Current()
	if ok {
		return block, off, true
	}
	e.cur.Fallback(nil)
	return e.cur.Current()
}

// paragraphAfter inserts an empty paragraph after the top-level block holding
// n and moves the caret into it.
func (e *Engine) paragraphAfter(n *html.Node) *html.Node {
	p := dom.Element("p")
	top := dom.TopLevel(e.root, n)
	if top == nil {
		dom.Append(e.root, p)
	} else {
		dom.InsertAfter(top, p)
	}
	e.cur.PlaceAt(p, cursor.EdgeStart)
	return p
}

// Enter splits the block at the caret. In a list an empty item leaves the
// list, at the end of a heading a paragraph follows, in a table cell a line
// break is inserted. With the slash palette open it runs the selected
// command instead.
func (e *Engine) Enter() bool {
	if e.palette.Active() {
		return e.AcceptSlash()
	}
	return e.mutate(opEnter, true, func() bool {
		if !e.cur.Collapsed() {
			e.disp.DeleteSelection()
		}
		if e.auto.OnEnter() {
			return true
		}
		block, off, ok := e.caret()
		if !ok {
			return false
		}
		e.pending = nil
		kind := dom.KindOf(block)
		switch {
		case kind == dom.KindTable:
			return e.disp.InsertInline(dom.Element("br"))
		case kind == dom.KindDivider || kind == dom.KindCustom:
			e.paragraphAfter(block)
			return true
		case (kind.IsListItem() || kind == dom.KindQuote) && dom.IsEmptyBlock(block):
			return e.disp.SetBlockOf(block, dom.KindParagraph) != nil
		case kind.IsHeading() && off >= dom.BlockLength(block):
			return e.disp.SplitBlock(block, off, dom.KindParagraph) != nil
		}
		return e.disp.SplitBlock(block, off, dom.KindUnknown) != nil
	})
}

// Backspace deletes the selection or the grapheme before the caret. At the
// start of a non-paragraph block the block becomes a paragraph; at the start
// of a paragraph it joins the block before.
func (e *Engine) Backspace() bool {
	return e.mutate(opBackspace, true, func() bool {
		e.pending = nil
		if !e.cur.Collapsed() {
			return e.disp.DeleteSelection()
		}
		block, off, ok := e.caret()
		if !ok {
			return false
		}
		kind := dom.KindOf(block)
		switch {
		case kind == dom.KindDivider || kind == dom.KindCustom:
			e.removeBlock(block)
			return true
		case off > 0:
			e.disp.CutRange(block, off-1, off)
			if kind.IsHeading() {
				e.disp.RefreshHeadingID(block)
			}
			if e.palette.Active() {
				e.palette.Update(block, off-1)
			}
			return true
		case kind.IsTextual() && kind != dom.KindParagraph:
			return e.disp.SetBlockOf(block, dom.KindParagraph) != nil
		case kind == dom.KindParagraph:
			return e.disp.MergeBackward(block)
		}
		return false
	})
}

// Delete deletes the selection or the grapheme after the caret, joining the
// next block when the caret is at the end.
func (e *Engine) Delete() bool {
	return e.mutate(opDelete, true, func() bool {
		e.pending = nil
		if !e.cur.Collapsed() {
			return e.disp.DeleteSelection()
		}
		block, off, ok := e.caret()
		if !ok {
			return false
		}
		kind := dom.KindOf(block)
		if kind == dom.KindDivider || kind == dom.KindCustom {
			e.removeBlock(block)
			return true
		}
		if off < dom.BlockLength(block) {
			e.disp.CutRange(block, off, off+1)
			if kind.IsHeading() {
				e.disp.RefreshHeadingID(block)
			}
			return true
		}
		next := dom.NextBlock(e.root, block)
		if next == nil || kind == dom.KindTable {
			return false
		}
		switch dom.KindOf(next) {
		case dom.KindDivider, dom.KindCustom:
			dom.Detach(next)
			e.cur.Place(block, off, false)
			return true
		case dom.KindTable:
			return false
		}
		return e.disp.MergeBackward(next)
	})
}

// removeBlock deletes an atomic block and moves the caret to its neighbour.
func (e *Engine) removeBlock(block *html.Node) {
	prev := dom.PrevBlock(e.root, block)
	next := dom.NextBlock(e.root, block)
	dom.Detach(block)
	switch {
	case prev != nil:
		e.cur.PlaceAt(prev, cursor.EdgeEnd)
	case next != nil:
		e.cur.PlaceAt(next, cursor.EdgeStart)
	default:
		e.norm.Normalize(e.root)
		e.cur.Fallback(nil)
	}
	logger.DebugTagf("editor", "Removed atomic block")
}

// Moves. They never touch the document or history.

func (e *Engine) MoveLeft(extend bool)  { e.move(func() { e.cur.MoveLeft(extend) }) }
func (e *Engine) MoveRight(extend bool) { e.move(func() { e.cur.MoveRight(extend) }) }
func (e *Engine) MoveUp(extend bool)    { e.move(func() { e.cur.MoveUp(extend) }) }
func (e *Engine) MoveDown(extend bool)  { e.move(func() { e.cur.MoveDown(extend) }) }
func (e *Engine) MoveHome(extend bool)  { e.move(func() { e.cur.MoveHome(extend) }) }
func (e *Engine) MoveEnd(extend bool)   { e.move(func() { e.cur.MoveEnd(extend) }) }
func (e *Engine) SelectAll()            { e.move(e.cur.SelectAll) }

// PlaceCaret moves the caret to offset inside block, e.g. after a click.
func (e *Engine) PlaceCaret(block *html.Node, offset int, extend bool) {
	if block == nil || !dom.Attached(e.root, block) {
		return
	}
	e.move(func() { e.cur.Place(block, offset, extend) })
}

func (e *Engine) move(fn func()) {
	fn()
	e.pending = nil
	e.coalesce = false
	if e.palette.Active() {
		block, off, ok := e.cur.Current()
		if !ok || !e.cur.Collapsed() {
			e.palette.Close()
		} else {
			e.palette.Update(block, off)
		}
	}
	e.selectionChanged()
}
