// internal/input/keymap.go
package input

import (
	"github.com/gdamore/tcell/v2"
)

// Keymap maps special keys to actions.
type Keymap map[tcell.Key]Action

// RuneKeymap maps runes to actions.
type RuneKeymap map[rune]Action

// InputProcessor translates tcell key events into ActionEvents.
type InputProcessor struct {
	keymap     Keymap
	ctrlKeymap Keymap     // KeyCtrlA..KeyCtrlZ, with or without ModCtrl reported
	altKeymap  RuneKeymap // Alt+rune
}

// NewInputProcessor creates a processor with the default bindings.
func NewInputProcessor() *InputProcessor {
	p := &InputProcessor{
		keymap:     make(Keymap),
		ctrlKeymap: make(Keymap),
		altKeymap:  make(RuneKeymap),
	}
	p.loadDefaultBindings()
	return p
}

func (p *InputProcessor) loadDefaultBindings() {
	// --- Simple Keys ---
	p.keymap[tcell.KeyUp] = ActionMoveUp
	p.keymap[tcell.KeyDown] = ActionMoveDown
	p.keymap[tcell.KeyLeft] = ActionMoveLeft
	p.keymap[tcell.KeyRight] = ActionMoveRight
	p.keymap[tcell.KeyPgUp] = ActionMovePageUp
	p.keymap[tcell.KeyPgDn] = ActionMovePageDown
	p.keymap[tcell.KeyHome] = ActionMoveHome
	p.keymap[tcell.KeyEnd] = ActionMoveEnd
	p.keymap[tcell.KeyEnter] = ActionInsertNewLine
	p.keymap[tcell.KeyBackspace] = ActionDeleteCharBackward
	p.keymap[tcell.KeyBackspace2] = ActionDeleteCharBackward
	p.keymap[tcell.KeyDelete] = ActionDeleteCharForward
	p.keymap[tcell.KeyEscape] = ActionEscape

	// --- Ctrl ---
	p.ctrlKeymap[tcell.KeyCtrlS] = ActionSave
	p.ctrlKeymap[tcell.KeyCtrlQ] = ActionQuit
	p.ctrlKeymap[tcell.KeyCtrlN] = ActionNewNote
	p.ctrlKeymap[tcell.KeyCtrlT] = ActionCycleTheme
	p.ctrlKeymap[tcell.KeyCtrlZ] = ActionUndo
	p.ctrlKeymap[tcell.KeyCtrlY] = ActionRedo
	p.ctrlKeymap[tcell.KeyCtrlA] = ActionSelectAll
	p.ctrlKeymap[tcell.KeyCtrlC] = ActionCopy
	p.ctrlKeymap[tcell.KeyCtrlX] = ActionCut
	p.ctrlKeymap[tcell.KeyCtrlV] = ActionPaste
	p.ctrlKeymap[tcell.KeyCtrlB] = ActionBold
	p.ctrlKeymap[tcell.KeyCtrlK] = ActionLink
	p.ctrlKeymap[tcell.KeyCtrlG] = ActionCycleHeading
	p.ctrlKeymap[tcell.KeyCtrlD] = ActionToggleChecked
	p.ctrlKeymap[tcell.KeyCtrlP] = ActionSlash

	// --- Alt ---
	p.altKeymap['i'] = ActionItalic
	p.altKeymap['u'] = ActionUnderline
	p.altKeymap['s'] = ActionStrike
	p.altKeymap['c'] = ActionCode
}

// ProcessEvent maps a key event to an action. Plain runes become
// ActionInsertRune.
func (p *InputProcessor) ProcessEvent(ev *tcell.EventKey) ActionEvent {
	key := ev.Key()
	mod := ev.Modifiers()

	if key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ {
		if action, ok := p.ctrlKeymap[key]; ok {
			return ActionEvent{Action: action}
		}
	}

	if key == tcell.KeyRune {
		if mod&tcell.ModAlt != 0 {
			if action, ok := p.altKeymap[ev.Rune()]; ok {
				return ActionEvent{Action: action}
			}
			return ActionEvent{Action: ActionUnknown}
		}
		if mod&tcell.ModCtrl != 0 {
			return ActionEvent{Action: ActionUnknown}
		}
		return ActionEvent{Action: ActionInsertRune, Rune: ev.Rune()}
	}

	if action, ok := p.keymap[key]; ok {
		return ActionEvent{Action: action, Extend: mod&tcell.ModShift != 0 && isMove(action)}
	}
	return ActionEvent{Action: ActionUnknown}
}

func isMove(a Action) bool {
	return a >= ActionMoveUp && a <= ActionMoveEnd
}
