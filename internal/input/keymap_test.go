package input

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
)

func TestProcessEvent(t *testing.T) {
	p := NewInputProcessor()

	tests := []struct {
		name string
		ev   *tcell.EventKey
		want ActionEvent
	}{
		{"ctrl s", tcell.NewEventKey(tcell.KeyCtrlS, 0, tcell.ModCtrl), ActionEvent{Action: ActionSave}},
		{"ctrl z without mod", tcell.NewEventKey(tcell.KeyCtrlZ, 0, tcell.ModNone), ActionEvent{Action: ActionUndo}},
		{"alt i", tcell.NewEventKey(tcell.KeyRune, 'i', tcell.ModAlt), ActionEvent{Action: ActionItalic}},
		{"alt unbound", tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModAlt), ActionEvent{Action: ActionUnknown}},
		{"rune", tcell.NewEventKey(tcell.KeyRune, 'é', tcell.ModNone), ActionEvent{Action: ActionInsertRune, Rune: 'é'}},
		{"shifted rune", tcell.NewEventKey(tcell.KeyRune, 'A', tcell.ModShift), ActionEvent{Action: ActionInsertRune, Rune: 'A'}},
		{"shift left", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModShift), ActionEvent{Action: ActionMoveLeft, Extend: true}},
		{"left", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), ActionEvent{Action: ActionMoveLeft}},
		{"shift enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModShift), ActionEvent{Action: ActionInsertNewLine}},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), ActionEvent{Action: ActionEscape}},
		{"unbound", tcell.NewEventKey(tcell.KeyF5, 0, tcell.ModNone), ActionEvent{Action: ActionUnknown}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ProcessEvent(tt.ev))
		})
	}
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "cycle-heading", ActionCycleHeading.String())
	assert.Equal(t, "unknown", Action(999).String())
}
