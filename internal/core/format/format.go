// Package format applies named formatting operations to the document: inline
// marks over a selection, block conversions, and the structural edits the
// editing engine builds Enter and Backspace from.
package format

import (
	"fmt"
	"time"

	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/core/cursor"
	"github.com/bethropolis/tidemark/internal/core/normalize"
	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/logger"
	"github.com/bethropolis/tidemark/internal/sanitize"
	"github.com/bethropolis/tidemark/internal/settle"
)

// Options wires a Dispatcher to the engine's collaborators.
type Options struct {
	Cursor     *cursor.Manager
	Normalizer *normalize.Normalizer
	Scheduler  settle.Scheduler
	// Focus reasserts input focus on the editing surface after a block has
	// been replaced. It may be nil.
	Focus func()
	// Now supplies the clock for fallback heading ids.
	Now func() time.Time
}

// Dispatcher applies formatting commands.
type Dispatcher struct {
	cur   *cursor.Manager
	norm  *normalize.Normalizer
	sched settle.Scheduler
	focus func()
	now   func() time.Time
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(opts Options) *Dispatcher {
	d := &Dispatcher{
		cur:   opts.Cursor,
		norm:  opts.Normalizer,
		sched: opts.Scheduler,
		focus: opts.Focus,
		now:   opts.Now,
	}
	if d.norm == nil {
		d.norm = normalize.New(0)
	}
	if d.sched == nil {
		d.sched = settle.Sync{}
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d
}

func (d *Dispatcher) root() *html.Node { return d.cur.Root() }

// ToggleInline toggles mark over the current selection: removed when every
// selected character already carries it, applied otherwise. It reports
// whether anything changed. A collapsed selection changes nothing; the
// engine keeps pending marks for that case.
func (d *Dispatcher) ToggleInline(mark Mark) bool {
	spans := d.textSpans()
	if len(spans) == 0 {
		logger.DebugTagf("format", "ToggleInline(%s): nothing selected", mark)
		return false
	}

	all := true
	for _, s := range spans {
		_, mid, _ := sliceRuns(flatten(s.Block), s.From, s.To)
		if !hasMark(mid, mark) {
			all = false
			break
		}
	}
	d.applyMark(spans, mark, "", !all)
	logger.DebugTagf("format", "ToggleInline(%s): removed=%v over %d block(s)", mark, all, len(spans))
	return true
}

// SetLink links the selection to href, or unlinks it when href is empty.
// Unsafe targets are rejected.
func (d *Dispatcher) SetLink(href string) error {
	if href != "" {
		if err := sanitize.CheckLink(href); err != nil {
			return fmt.Errorf("set link: %w", err)
		}
	}
	spans := d.textSpans()
	if len(spans) == 0 {
		return nil
	}
	d.applyMark(spans, Link, href, href != "")
	return nil
}

// ApplyMarkRange sets or clears mark over [from,to) of block without touching
// the selection. Autoformat uses it to style a just-consumed pattern.
func (d *Dispatcher) ApplyMarkRange(block *html.Node, from, to int, mark Mark, on bool) {
	runs := flatten(block)
	before, mid, after := sliceRuns(runs, from, to)
	for i := range mid {
		if on {
			mid[i].marks |= mark
		} else {
			mid[i].marks &^= mark
		}
	}
	rebuild(block, append(append(before, mid...), after...))
	d.norm.Subtree(block)
}

func (d *Dispatcher) applyMark(spans []cursor.Span, mark Mark, href string, on bool) {
	snap := d.cur.SaveBlockOffset()
	for _, s := range spans {
		runs := flatten(s.Block)
		before, mid, after := sliceRuns(runs, s.From, s.To)
		for i := range mid {
			if on {
				mid[i].marks |= mark
				if mark == Link {
					mid[i].href = href
				}
			} else {
				mid[i].marks &^= mark
				if mark == Link {
					mid[i].href = ""
				}
			}
		}
		rebuild(s.Block, append(append(before, mid...), after...))
		d.norm.Subtree(s.Block)
	}
	if !d.cur.Restore(snap) {
		d.cur.Fallback(spans[len(spans)-1].Block)
	}
}

// textSpans returns the non-empty selection spans inside textual blocks and
// table cells.
func (d *Dispatcher) textSpans() []cursor.Span {
	var out []cursor.Span
	for _, s := range d.cur.Spans() {
		k := dom.KindOf(s.Block)
		if s.From >= s.To || !(k.IsTextual() || k == dom.KindTable) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// ActiveMarks returns the marks carried by the whole selection, or the marks
// at the caret when collapsed.
func (d *Dispatcher) ActiveMarks() Mark {
	spans := d.textSpans()
	if len(spans) == 0 {
		block, off, ok := d.cur.Current()
		if !ok {
			return 0
		}
		return MarksAt(block, off)
	}
	var active Mark
	for _, m := range markOrder {
		all := true
		for _, s := range spans {
			_, mid, _ := sliceRuns(flatten(s.Block), s.From, s.To)
			if !hasMark(mid, m) {
				all = false
				break
			}
		}
		if all {
			active |= m
		}
	}
	return active
}

// settleCaret puts the caret at off inside block now, then again once the
// tier has elapsed, unless the block was removed or the caret moved since.
func (d *Dispatcher) settleCaret(tier settle.Tier, block *html.Node, off int) {
	d.cur.RestoreTextOffsetWithinBlock(block, off)
	want, _ := d.cur.Selection()
	d.sched.Defer(tier, func() {
		if !dom.Attached(d.root(), block) {
			logger.DebugTagf("format", "Settled block was removed before restore; skipping")
			return
		}
		if got, ok := d.cur.Selection(); ok && got != want {
			return
		}
		d.cur.RestoreTextOffsetWithinBlock(block, off)
	})
}
