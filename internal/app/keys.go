package app

import (
	"github.com/gdamore/tcell/v2"

	"github.com/bethropolis/tidemark/internal/blocks"
	"github.com/bethropolis/tidemark/internal/core/format"
	"github.com/bethropolis/tidemark/internal/event"
	"github.com/bethropolis/tidemark/internal/input"
	"github.com/bethropolis/tidemark/internal/logger"
	"github.com/bethropolis/tidemark/internal/tui"
)

// handleEvent processes one terminal event and reports whether the screen
// needs a redraw.
func (a *App) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.tuiManager.Sync()
		return true
	case *tcell.EventPaste:
		return a.handlePaste(ev)
	case *tcell.EventKey:
		if a.pasting {
			a.collectPaste(ev)
			return false
		}
		return a.handleKey(ev)
	case *tcell.EventMouse:
		return a.handleMouse(ev)
	}
	return false
}

func (a *App) handleKey(ev *tcell.EventKey) bool {
	if a.prompt.Active() {
		a.prompt.HandleKey(ev)
		return true
	}
	a.eventManager.Dispatch(event.TypeKeyPressed, event.KeyPressedData{KeyEvent: ev})

	action := a.inputProcessor.ProcessEvent(ev)
	if a.engine.SlashActive() {
		switch action.Action {
		case input.ActionMoveUp:
			a.engine.SlashMove(-1)
			return true
		case input.ActionMoveDown:
			a.engine.SlashMove(1)
			return true
		case input.ActionEscape:
			a.engine.CancelSlash()
			return true
		}
	}
	return a.handleAction(action)
}

func (a *App) handleAction(action input.ActionEvent) bool {
	e := a.engine
	switch action.Action {
	case input.ActionQuit:
		a.requestQuit()
		return false
	case input.ActionSave:
		a.saveNote()
	case input.ActionNewNote:
		a.newNote()
	case input.ActionCycleTheme:
		a.cycleTheme()

	case input.ActionMoveUp:
		e.MoveUp(action.Extend)
	case input.ActionMoveDown:
		e.MoveDown(action.Extend)
	case input.ActionMoveLeft:
		e.MoveLeft(action.Extend)
	case input.ActionMoveRight:
		e.MoveRight(action.Extend)
	case input.ActionMoveHome:
		e.MoveHome(action.Extend)
	case input.ActionMoveEnd:
		e.MoveEnd(action.Extend)
	case input.ActionMovePageUp:
		for i := 0; i < a.pageRows(); i++ {
			e.MoveUp(action.Extend)
		}
	case input.ActionMovePageDown:
		for i := 0; i < a.pageRows(); i++ {
			e.MoveDown(action.Extend)
		}
	case input.ActionSelectAll:
		e.SelectAll()

	case input.ActionInsertRune:
		e.TypeText(string(action.Rune))
	case input.ActionInsertNewLine:
		e.Enter()
	case input.ActionDeleteCharBackward:
		e.Backspace()
	case input.ActionDeleteCharForward:
		e.Delete()
	case input.ActionUndo:
		if !e.Undo() {
			a.statusBar.SetTemporaryMessage("Nothing to undo")
		}
	case input.ActionRedo:
		if !e.Redo() {
			a.statusBar.SetTemporaryMessage("Nothing to redo")
		}
	case input.ActionCopy:
		a.copySelection(false)
	case input.ActionCut:
		a.copySelection(true)
	case input.ActionPaste:
		text, err := a.clipboard.ReadAll()
		if err != nil {
			a.statusBar.SetTemporaryMessage("Paste failed: %v", err)
			return true
		}
		e.Paste(text, "")

	case input.ActionBold:
		e.ToggleInline(format.Bold)
	case input.ActionItalic:
		e.ToggleInline(format.Italic)
	case input.ActionUnderline:
		e.ToggleInline(format.Underline)
	case input.ActionStrike:
		e.ToggleInline(format.Strike)
	case input.ActionCode:
		e.ToggleInline(format.Code)
	case input.ActionLink:
		a.link()
	case input.ActionCycleHeading:
		e.CycleHeading()
	case input.ActionToggleChecked:
		if !e.ToggleChecked() {
			a.statusBar.SetTemporaryMessage("Not a to-do item")
		}
	case input.ActionSlash:
		e.TypeText(a.cfg.Editor.SlashTrigger)
	case input.ActionEscape:
		return false
	default:
		return false
	}
	return true
}

func (a *App) pageRows() int {
	_, height := a.tuiManager.Size()
	if h := tui.TextHeight(height, false); h > 1 {
		return h - 1
	}
	return 1
}

func (a *App) copySelection(cut bool) {
	var text string
	if cut {
		text = a.engine.Cut()
	} else {
		text = a.engine.SelectedText()
	}
	if text == "" {
		return
	}
	if err := a.clipboard.WriteAll(text); err != nil {
		a.statusBar.SetTemporaryMessage("Copy failed: %v", err)
	}
}

// link asks for a URL: over a selection the selection is linked, otherwise
// the link command inserts new linked text.
func (a *App) link() {
	if a.engine.Cursor().Collapsed() {
		if err := a.engine.RunCommand("link"); err != nil {
			a.statusBar.SetTemporaryMessage("Error: %v", err)
		}
		return
	}
	a.prompt.Open(linkSelectionRequest, func(p blocks.Payload) error {
		if p == nil {
			return nil
		}
		return a.engine.SetLink(p["href"])
	})
}

// --- Paste and mouse ---

func (a *App) handlePaste(ev *tcell.EventPaste) bool {
	if ev.Start() {
		a.pasting = true
		a.pasteBuf = a.pasteBuf[:0]
		return false
	}
	a.pasting = false
	text := string(a.pasteBuf)
	a.pasteBuf = a.pasteBuf[:0]
	if a.prompt.Active() {
		a.prompt.AddText(text)
		return true
	}
	logger.DebugTagf("app", "Bracketed paste of %d bytes", len(text))
	a.engine.Paste(text, "")
	return true
}

func (a *App) collectPaste(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyRune:
		a.pasteBuf = append(a.pasteBuf, ev.Rune())
	case tcell.KeyEnter:
		a.pasteBuf = append(a.pasteBuf, '\n')
	case tcell.KeyTab:
		a.pasteBuf = append(a.pasteBuf, '\t')
	}
}

func (a *App) handleMouse(ev *tcell.EventMouse) bool {
	buttons := ev.Buttons()
	switch {
	case buttons&tcell.WheelUp != 0:
		a.engine.MoveUp(false)
		return true
	case buttons&tcell.WheelDown != 0:
		a.engine.MoveDown(false)
		return true
	case buttons&tcell.Button1 != 0:
		x, y := ev.Position()
		block, off, ok := a.view.Hit(x, y)
		if !ok {
			return false
		}
		a.engine.PlaceCaret(block, off, a.mouseDown)
		a.mouseDown = true
		return true
	default:
		a.mouseDown = false
	}
	return false
}
