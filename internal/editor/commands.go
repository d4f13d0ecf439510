package editor

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/blocks"
	"github.com/bethropolis/tidemark/internal/core/cursor"
	"github.com/bethropolis/tidemark/internal/core/format"
	"github.com/bethropolis/tidemark/internal/core/history"
	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/event"
	"github.com/bethropolis/tidemark/internal/logger"
	"github.com/bethropolis/tidemark/internal/sanitize"
	"github.com/bethropolis/tidemark/internal/settle"
	"github.com/bethropolis/tidemark/internal/slash"
	"github.com/bethropolis/tidemark/internal/utils"
)

// ToggleInline toggles mark over the selection. With a bare caret the mark
// is toggled for the next typed text instead.
func (e *Engine) ToggleInline(mark format.Mark) bool {
	if e.cur.Collapsed() {
		marks := e.ActiveMarks()
		marks ^= mark
		e.pending = &marks
		return true
	}
	return e.mutate(opFormat, true, func() bool { return e.disp.ToggleInline(mark) })
}

// ActiveMarks returns the marks the next typed text would carry, or the
// marks shared by the whole selection.
func (e *Engine) ActiveMarks() format.Mark {
	if e.pending != nil && e.cur.Collapsed() {
		return *e.pending
	}
	return e.disp.ActiveMarks()
}

// SetLink links the selection to href; an empty href unlinks it.
func (e *Engine) SetLink(href string) error {
	var err error
	e.mutate(opFormat, true, func() bool {
		err = e.disp.SetLink(href)
		return err == nil
	})
	return err
}

// InsertLink inserts text linked to href at the caret.
func (e *Engine) InsertLink(text, href string) error {
	if err := sanitize.CheckLink(href); err != nil {
		return fmt.Errorf("insert link: %w", err)
	}
	if text == "" {
		text = href
	}
	var err error
	e.mutate(opInsert, true, func() bool {
		if !e.cur.Collapsed() {
			e.disp.DeleteSelection()
		}
		block, off, ok := e.caret()
		if !ok || !e.disp.InsertMarkedText(text, e.disp.ActiveMarks()&^format.Link) {
			return false
		}
		end := off + utils.GraphemeCount(text)
		e.cur.Place(block, off, false)
		e.cur.Place(block, end, true)
		err = e.disp.SetLink(href)
		e.cur.Place(block, end, false)
		return true
	})
	return err
}

// SetBlock converts the block at the caret to kind.
func (e *Engine) SetBlock(kind dom.Kind) bool {
	return e.mutate(opBlock, true, func() bool { return e.disp.SetBlock(kind) != nil })
}

// CycleHeading steps the caret block through paragraph, h1, h2 and h3.
func (e *Engine) CycleHeading() bool {
	return e.mutate(opBlock, true, func() bool { return e.disp.CycleHeading() != nil })
}

// ToggleChecked flips the checklist item at the caret.
func (e *Engine) ToggleChecked() bool {
	return e.mutate(opBlock, true, e.disp.ToggleChecked)
}

// CurrentKind returns the kind of the caret block.
func (e *Engine) CurrentKind() dom.Kind {
	return dom.KindOf(e.disp.CurrentBlock())
}

// InsertText inserts s at the caret without autoformat or the palette.
func (e *Engine) InsertText(s string) bool {
	return e.mutate(opInsert, true, func() bool {
		if !e.cur.Collapsed() {
			e.disp.DeleteSelection()
		}
		if _, _, ok := e.caret(); !ok {
			return false
		}
		return e.disp.InsertText(s)
	})
}

// InsertDivider inserts a divider after the caret block.
func (e *Engine) InsertDivider() bool {
	return e.mutate(opInsert, true, func() bool {
		if e.disp.InsertDivider() == nil {
			return false
		}
		e.events.Dispatch(event.TypeBlockInserted, event.BlockInsertedData{BlockType: "divider"})
		return true
	})
}

// InsertTable inserts a rows x cols table after the caret block.
func (e *Engine) InsertTable(rows, cols int) bool {
	return e.mutate(opInsert, true, func() bool {
		if e.disp.InsertTable(rows, cols) == nil {
			return false
		}
		e.events.Dispatch(event.TypeBlockInserted, event.BlockInsertedData{BlockType: "table"})
		return true
	})
}

// InsertCustomBlock renders a registered block type and inserts it: inline
// widgets at the caret, block widgets after the caret block. Markup whose
// flow marker disagrees with the descriptor is refused.
func (e *Engine) InsertCustomBlock(typ string, p blocks.Payload) error {
	el, err := e.blocks.Build(typ, p)
	if err != nil {
		logger.WarnTagf("blocks", "Refusing to insert %q: %v", typ, err)
		return fmt.Errorf("insert custom block: %w", err)
	}
	d, _ := e.blocks.Get(typ)

	e.syncAllowList()
	nodes, err := dom.Parse(e.san.Sanitize(dom.OuterHTML(el)))
	if err != nil || len(nodes) != 1 || !dom.IsCustom(nodes[0]) || dom.IsInlineCustom(nodes[0]) != d.Inline {
		logger.WarnTagf("blocks", "Sanitized markup for %q lost its custom block markers", typ)
		return fmt.Errorf("insert custom block %q: %w", typ, blocks.ErrMalformed)
	}
	widget := nodes[0]

	inserted := e.mutate(opInsert, true, func() bool {
		if !e.cur.Collapsed() {
			e.disp.DeleteSelection()
		}
		if _, _, ok := e.caret(); !ok {
			return false
		}
		if d.Inline {
			return e.disp.InsertInline(widget)
		}
		if !e.disp.InsertBlockNode(widget) {
			return false
		}
		if next := widget.NextSibling; next != nil {
			e.cur.PlaceAt(next, cursor.EdgeStart)
		}
		return true
	})
	if !inserted {
		return fmt.Errorf("insert custom block %q: no place to insert at the caret", typ)
	}
	e.events.Dispatch(event.TypeBlockInserted, event.BlockInsertedData{BlockType: typ})
	return nil
}

// CustomBlockAt returns the payload of the custom block or inline widget
// holding n.
func (e *Engine) CustomBlockAt(n *html.Node) (blocks.Descriptor, blocks.Payload, bool) {
	for c := n; c != nil && c != e.root; c = c.Parent {
		if dom.IsCustom(c) {
			return e.blocks.Read(c)
		}
	}
	return blocks.Descriptor{}, nil, false
}

// Undo restores the previous recorded state.
func (e *Engine) Undo() bool {
	return e.mutate(opUndo, false, func() bool {
		entry := e.hist.Undo()
		if entry == nil {
			return false
		}
		e.apply(entry)
		return true
	})
}

// Redo re-applies the last undone state.
func (e *Engine) Redo() bool {
	return e.mutate(opRedo, false, func() bool {
		entry := e.hist.Redo()
		if entry == nil {
			return false
		}
		e.apply(entry)
		return true
	})
}

// apply replaces the document with a history entry and restores its caret,
// once now and again at the extra-long tier unless the caret moved since.
func (e *Engine) apply(entry *history.Entry) {
	if err := dom.SetInnerHTML(e.root, entry.HTML); err != nil {
		logger.Errorf("editor: history entry did not parse: %v", err)
		return
	}
	e.cancelDialog()
	e.palette.Close()
	e.pending = nil
	e.cur.Reset()

	snap := entry.Cursor
	if !e.cur.Restore(snap) {
		e.cur.Fallback(nil)
	}
	want, _ := e.cur.Selection()
	e.sched.Defer(settle.TierExtraLong, func() {
		if got, ok := e.cur.Selection(); ok && got != want {
			return
		}
		if !e.cur.Restore(snap) {
			e.cur.Fallback(nil)
		}
	})
}

// SlashActive reports whether the palette is open.
func (e *Engine) SlashActive() bool { return e.palette.Active() }

// SlashQuery returns the text typed after the trigger.
func (e *Engine) SlashQuery() string { return e.palette.Query() }

// SlashResults returns the palette rows and the highlighted index.
func (e *Engine) SlashResults() ([]slash.Result, int) {
	return e.palette.Results(), e.palette.SelectedIndex()
}

// SlashMove moves the palette highlight.
func (e *Engine) SlashMove(delta int) { e.palette.Move(delta) }

// CancelSlash closes the palette and leaves the typed text.
func (e *Engine) CancelSlash() { e.palette.Close() }

// AcceptSlash removes the trigger and query, then runs the highlighted
// command or hands it to the dialog collaborator with a marker at the caret.
func (e *Engine) AcceptSlash() bool {
	cmd, ok := e.palette.Selected()
	if !ok {
		e.palette.Close()
		return false
	}
	block, from, to := e.palette.Span()
	e.palette.Close()

	return e.mutate(opSlash, true, func() bool {
		if !dom.Attached(e.root, block) {
			return false
		}
		e.disp.CutRange(block, from, to)
		logger.DebugTagf("slash", "Running %q", cmd.ID)
		if !cmd.NeedsInput() {
			if err := cmd.Run(e); err != nil {
				logger.WarnTagf("slash", "Command %q: %v", cmd.ID, err)
			}
			return true
		}
		e.openDialog(cmd)
		return true
	})
}

// RunCommand runs a slash command by id at the caret, as if it had been
// picked from the palette.
func (e *Engine) RunCommand(id string) error {
	cmd, ok := e.commands.Get(id)
	if !ok {
		return fmt.Errorf("run command %q: unknown command", id)
	}
	if cmd.NeedsInput() {
		e.mutate(opSlash, false, func() bool {
			e.openDialog(cmd)
			return false
		})
		return nil
	}
	var err error
	e.mutate(opSlash, true, func() bool {
		err = cmd.Run(e)
		return true
	})
	return err
}

func (e *Engine) openDialog(cmd *slash.Command) {
	e.cancelDialog()
	if e.dialogs == nil {
		logger.WarnTagf("slash", "Command %q needs a dialog but none is configured", cmd.ID)
		return
	}
	marker := e.cur.CreateMarker()
	pd := &pendingDialog{cmd: cmd, marker: marker}
	e.dialog = pd
	e.dialogs.Open(DialogRequest{CommandID: cmd.ID, Kind: cmd.Dialog.Kind, Title: cmd.Dialog.Title},
		func(p blocks.Payload) error { return e.completeDialog(pd, p) })
}

// completeDialog returns the caret to the marker saved when the dialog was
// opened and runs the command with the gathered payload.
func (e *Engine) completeDialog(pd *pendingDialog, p blocks.Payload) error {
	if e.dialog != pd {
		return fmt.Errorf("complete %q: dialog is no longer pending", pd.cmd.ID)
	}
	e.dialog = nil
	if p == nil {
		if !e.cur.RestoreToMarker(pd.marker) {
			e.cur.RemoveMarkers()
		}
		return nil
	}
	var err error
	e.mutate(opDialog, true, func() bool {
		if !e.cur.RestoreToMarker(pd.marker) {
			logger.DebugTagf("slash", "Marker for %q is gone; inserting at the end", pd.cmd.ID)
			e.cur.Fallback(nil)
		}
		err = pd.cmd.Dialog.Complete(e, p)
		return true
	})
	if err != nil {
		return fmt.Errorf("complete %q: %w", pd.cmd.ID, err)
	}
	return nil
}

// DialogPending reports whether a dialog is waiting for input.
func (e *Engine) DialogPending() bool { return e.dialog != nil }

func (e *Engine) cancelDialog() {
	if e.dialog == nil {
		return
	}
	e.cur.DropMarker(e.dialog.marker)
	e.dialog = nil
}

var _ slash.Editor = (*Engine)(nil)
