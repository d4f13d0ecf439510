package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bethropolis/tidemark/internal/blocks"
	"github.com/bethropolis/tidemark/internal/event"
	"github.com/bethropolis/tidemark/internal/logger"
	"github.com/bethropolis/tidemark/internal/store"
	"github.com/bethropolis/tidemark/plugins/notelink"
)

// openInitialNote loads id, or the most recently updated note when id is
// empty. A missing note starts empty under that id.
func (a *App) openInitialNote(id string) error {
	if id == "" {
		notes, err := a.notes.List()
		if err != nil {
			return err
		}
		if len(notes) == 0 {
			a.engine.LoadHTML(store.NewID(), "")
			return nil
		}
		id = notes[0].ID
	}
	err := a.engine.Load(context.Background(), id)
	if errors.Is(err, store.ErrNotFound) {
		logger.Infof("Note %q does not exist yet, starting empty", id)
		a.engine.LoadHTML(id, "")
		return nil
	}
	return err
}

// saveNote writes the note now.
func (a *App) saveNote() {
	if err := a.engine.Save(context.Background()); err != nil {
		logger.Errorf("Save failed: %v", err)
		a.statusBar.SetTemporaryMessage("Save failed: %v", err)
		return
	}
	a.statusBar.SetTemporaryMessage("Saved %q", store.Title(a.engine.Metadata()))
}

// leaveNote writes pending work before another note replaces this one.
func (a *App) leaveNote() {
	a.engine.Flush()
	if a.modified() {
		a.saveNote()
	}
}

func (a *App) newNote() {
	a.leaveNote()
	a.engine.LoadHTML(store.NewID(), "")
	a.statusBar.SetTemporaryMessage("New note")
}

func (a *App) openNote(id string) {
	if id == a.engine.NoteID() {
		return
	}
	a.leaveNote()
	if err := a.engine.Load(context.Background(), id); err != nil {
		a.statusBar.SetTemporaryMessage("Open failed: %v", err)
		return
	}
	a.statusBar.SetTemporaryMessage("Opened %q", store.Title(a.engine.Metadata()))
}

// findNote matches query against note ids, then titles, then title prefixes,
// ignoring case.
func (a *App) findNote(query string) (store.Note, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return store.Note{}, false
	}
	notes, err := a.notes.List()
	if err != nil {
		logger.Warnf("Listing notes: %v", err)
		return store.Note{}, false
	}
	for _, n := range notes {
		if n.ID == query {
			return n, true
		}
	}
	for _, n := range notes {
		if strings.EqualFold(n.Title, query) {
			return n, true
		}
	}
	lower := strings.ToLower(query)
	for _, n := range notes {
		if strings.HasPrefix(strings.ToLower(n.Title), lower) {
			return n, true
		}
	}
	return store.Note{}, false
}

// resolveNoteRef turns a typed note title into its id before a note link or
// open-note dialog completes.
func (a *App) resolveNoteRef(kind string, p blocks.Payload) {
	if kind != notelink.DialogKind && kind != openNoteKind {
		return
	}
	n, ok := a.findNote(p["ref"])
	if !ok {
		return
	}
	p["ref"] = n.ID
	if p["title"] == "" {
		p["title"] = n.Title
	}
}

// onStoreChange runs on the watcher goroutine.
func (a *App) onStoreChange(c store.Change) {
	a.post(func() {
		if c.ID != a.engine.NoteID() {
			return
		}
		if c.Removed {
			a.statusBar.SetTemporaryMessage("This note was deleted on disk; saving will recreate it")
			a.requestRedraw()
			return
		}
		if a.modified() {
			a.statusBar.SetTemporaryMessage("Note changed on disk; Ctrl+S keeps your version")
			a.requestRedraw()
			return
		}
		if err := a.engine.Load(context.Background(), c.ID); err != nil {
			a.statusBar.SetTemporaryMessage("Reload failed: %v", err)
		} else {
			a.statusBar.SetTemporaryMessage("Reloaded after an external change")
		}
		a.requestRedraw()
	})
}

func (a *App) cycleTheme() {
	th := a.themeManager.Next()
	a.tuiManager.SetStyle(th.GetStyle("Default"))
	a.eventManager.Dispatch(event.TypeThemeChanged, event.ThemeChangedData{Name: th.Name})
	a.statusBar.SetTemporaryMessage("Theme: %s", th.Name)
}

// setTheme activates a theme by name.
func (a *App) setTheme(name string) error {
	if err := a.themeManager.SetTheme(name); err != nil {
		return fmt.Errorf("%w (available: %s)", err, strings.Join(a.themeManager.ListThemes(), ", "))
	}
	th := a.themeManager.Current()
	a.tuiManager.SetStyle(th.GetStyle("Default"))
	a.eventManager.Dispatch(event.TypeThemeChanged, event.ThemeChangedData{Name: th.Name})
	return nil
}
