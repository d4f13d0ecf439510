package app

import (
	"errors"

	"github.com/bethropolis/tidemark/internal/blocks"
	"github.com/bethropolis/tidemark/internal/editor"
	"github.com/bethropolis/tidemark/internal/logger"
	"github.com/bethropolis/tidemark/internal/slash"
)

// Dialog kinds handled by the terminal host itself.
const (
	openNoteKind      = "open-note"
	themeKind         = "theme"
	linkSelectionKind = "link-selection"
)

var linkSelectionRequest = editor.DialogRequest{CommandID: "link-selection", Kind: linkSelectionKind, Title: "Link selection"}

var errNoNote = errors.New("no matching note")

// registerAppCommands adds note and view commands to the slash palette. They
// run after the palette operation finishes, since they replace the document.
func registerAppCommands(a *App) {
	cmds := []slash.Command{
		{ID: "save-note", Label: "Save note", Category: "Note", Description: "Write the note to disk now",
			Keywords: []string{"write"},
			Run: func(slash.Editor) error {
				a.post(a.saveNote)
				return nil
			}},
		{ID: "new-note", Label: "New note", Category: "Note", Description: "Start an empty note",
			Keywords: []string{"create"},
			Run: func(slash.Editor) error {
				a.post(a.newNote)
				return nil
			}},
		{ID: "open-note", Label: "Open note", Category: "Note", Description: "Switch to another note by title",
			Keywords: []string{"switch", "go"},
			Dialog: &slash.Dialog{Kind: openNoteKind, Title: "Open note", Complete: func(_ slash.Editor, p blocks.Payload) error {
				n, ok := a.findNote(p["ref"])
				if !ok {
					return errNoNote
				}
				a.post(func() { a.openNote(n.ID) })
				return nil
			}}},
		{ID: "next-theme", Label: "Next theme", Category: "View", Description: "Cycle through the loaded themes",
			Keywords: []string{"color", "colour"},
			Run: func(slash.Editor) error {
				a.post(func() {
					a.cycleTheme()
					a.requestRedraw()
				})
				return nil
			}},
		{ID: "theme", Label: "Set theme", Category: "View", Description: "Pick a theme by name",
			Keywords: []string{"color", "colour"},
			Dialog: &slash.Dialog{Kind: themeKind, Title: "Theme", Complete: func(_ slash.Editor, p blocks.Payload) error {
				name := p["value"]
				a.post(func() {
					if err := a.setTheme(name); err != nil {
						a.statusBar.SetTemporaryMessage("Error: %v", err)
					}
					a.requestRedraw()
				})
				return nil
			}}},
	}

	reg := a.engine.CommandRegistry()
	for _, cmd := range cmds {
		if err := reg.Register(cmd); err != nil {
			logger.Warnf("Failed to register %q command: %v", cmd.ID, err)
		}
	}
}
