// internal/input/action.go
package input

// Action is an editor operation bound to a key.
type Action int

const (
	// --- Meta Actions ---
	ActionUnknown Action = iota
	ActionQuit
	ActionSave
	ActionNewNote
	ActionCycleTheme
	ActionEscape

	// --- Caret Movement ---
	ActionMoveUp
	ActionMoveDown
	ActionMoveLeft
	ActionMoveRight
	ActionMovePageUp
	ActionMovePageDown
	ActionMoveHome
	ActionMoveEnd
	ActionSelectAll

	// --- Text Manipulation ---
	ActionInsertRune
	ActionInsertNewLine
	ActionDeleteCharForward
	ActionDeleteCharBackward
	ActionUndo
	ActionRedo
	ActionCopy
	ActionCut
	ActionPaste

	// --- Formatting ---
	ActionBold
	ActionItalic
	ActionUnderline
	ActionStrike
	ActionCode
	ActionLink
	ActionCycleHeading
	ActionToggleChecked
	ActionSlash
)

var actionNames = map[Action]string{
	ActionQuit:               "quit",
	ActionSave:               "save",
	ActionNewNote:            "new-note",
	ActionCycleTheme:         "cycle-theme",
	ActionEscape:             "escape",
	ActionMoveUp:             "move-up",
	ActionMoveDown:           "move-down",
	ActionMoveLeft:           "move-left",
	ActionMoveRight:          "move-right",
	ActionMovePageUp:         "page-up",
	ActionMovePageDown:       "page-down",
	ActionMoveHome:           "move-home",
	ActionMoveEnd:            "move-end",
	ActionSelectAll:          "select-all",
	ActionInsertRune:         "insert-rune",
	ActionInsertNewLine:      "newline",
	ActionDeleteCharForward:  "delete",
	ActionDeleteCharBackward: "backspace",
	ActionUndo:               "undo",
	ActionRedo:               "redo",
	ActionCopy:               "copy",
	ActionCut:                "cut",
	ActionPaste:              "paste",
	ActionBold:               "bold",
	ActionItalic:             "italic",
	ActionUnderline:          "underline",
	ActionStrike:             "strike",
	ActionCode:               "code",
	ActionLink:               "link",
	ActionCycleHeading:       "cycle-heading",
	ActionToggleChecked:      "toggle-checked",
	ActionSlash:              "slash",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "unknown"
}

// ActionEvent is a decoded key press.
type ActionEvent struct {
	Action Action
	Rune   rune // ActionInsertRune
	Extend bool // movement with Shift grows the selection
}
