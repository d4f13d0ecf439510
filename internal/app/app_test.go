package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/tidemark/internal/config"
	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/input"
	"github.com/bethropolis/tidemark/internal/store"
)

type harness struct {
	app    *App
	screen tcell.SimulationScreen
	notes  *store.FileStore
	clip   *memoryClipboard
}

func newHarness(t *testing.T, noteID string, seed func(*store.FileStore)) *harness {
	t.Helper()
	dir := t.TempDir()
	notes, err := store.New(dir)
	require.NoError(t, err)
	if seed != nil {
		seed(notes)
	}

	cfg := config.NewDefaultConfig()
	cfg.Store.Dir = dir
	cfg.Settle.Synchronous = true
	cfg.Editor.SaveDebounce = config.Duration(time.Hour)
	cfg.Editor.RenormalizeDebounce = config.Duration(time.Hour)
	cfg.Plugins = map[string]map[string]interface{}{"autosave": {"interval": "0s"}}

	s := tcell.NewSimulationScreen("UTF-8")
	clip := &memoryClipboard{}
	a, err := NewApp(Options{Config: cfg, NoteID: noteID, Screen: s, Clipboard: clip, ThemesDir: "-"})
	require.NoError(t, err)
	s.SetSize(60, 12)
	t.Cleanup(a.Close)
	return &harness{app: a, screen: s, notes: notes, clip: clip}
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.app.handleEvent(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}
}

func (h *harness) key(k tcell.Key, mod tcell.ModMask) {
	h.app.handleEvent(tcell.NewEventKey(k, 0, mod))
}

func (h *harness) row(y int) string {
	cells, w, _ := h.screen.GetContents()
	var sb strings.Builder
	for x := 0; x < w; x++ {
		c := cells[y*w+x]
		if len(c.Runes) == 0 {
			sb.WriteRune(' ')
			continue
		}
		sb.WriteString(string(c.Runes))
	}
	return strings.TrimRight(sb.String(), " ")
}

func saveNote(t *testing.T, s *store.FileStore, id, body, title string) {
	t.Helper()
	meta := dom.Metadata{Headings: []dom.Heading{{Level: 1, Text: title}}}
	require.NoError(t, s.Save(context.Background(), id, body, meta))
}

func TestTypingSavingAndDrawing(t *testing.T) {
	h := newHarness(t, "draft", nil)
	h.typeText("hi there")
	assert.Equal(t, "<p>hi there</p>", h.app.Engine().HTML())
	assert.True(t, h.app.modified())

	h.key(tcell.KeyCtrlS, tcell.ModCtrl)
	raw, err := h.notes.Load(context.Background(), "draft")
	require.NoError(t, err)
	assert.Equal(t, "<p>hi there</p>", raw)
	assert.False(t, h.app.modified())

	h.app.statusBar.ResetTemporaryMessage()
	h.app.draw()
	assert.Equal(t, "hi there", h.row(0))
	assert.Contains(t, h.row(11), "Untitled")
	assert.Contains(t, h.row(11), "2 words")
}

func TestOpensMostRecentNote(t *testing.T) {
	h := newHarness(t, "", func(s *store.FileStore) {
		saveNote(t, s, "older", "<h1>Old</h1>", "Old")
		time.Sleep(10 * time.Millisecond)
		saveNote(t, s, "newer", "<h1>New</h1>", "New")
	})
	assert.Equal(t, "newer", h.app.Engine().NoteID())
}

func TestMissingNoteStartsEmpty(t *testing.T) {
	h := newHarness(t, "fresh", nil)
	assert.Equal(t, "fresh", h.app.Engine().NoteID())
	assert.Equal(t, "<p></p>", h.app.Engine().HTML())
}

func TestSlashPaletteFromKeyboard(t *testing.T) {
	h := newHarness(t, "n", nil)
	h.typeText("/head")
	require.True(t, h.app.Engine().SlashActive())

	h.app.draw()
	assert.Contains(t, h.row(1), "Heading 1")

	h.key(tcell.KeyDown, tcell.ModNone)
	h.key(tcell.KeyEnter, tcell.ModNone)
	assert.False(t, h.app.Engine().SlashActive())
	assert.Equal(t, "heading2", h.app.Engine().CurrentKind().String())
}

func TestEscapeClosesPalette(t *testing.T) {
	h := newHarness(t, "n", nil)
	h.typeText("/he")
	h.key(tcell.KeyEscape, tcell.ModNone)
	assert.False(t, h.app.Engine().SlashActive())
	assert.Equal(t, "<p>/he</p>", h.app.Engine().HTML())
}

func TestLinkPromptInsertsLink(t *testing.T) {
	h := newHarness(t, "n", nil)
	h.key(tcell.KeyCtrlK, tcell.ModCtrl)
	require.True(t, h.app.prompt.Active())
	assert.Equal(t, "Insert link - URL", h.app.prompt.View().Label)

	h.typeText("https://go.dev")
	h.key(tcell.KeyEnter, tcell.ModNone)
	h.typeText("Go")
	h.key(tcell.KeyEnter, tcell.ModNone)

	assert.False(t, h.app.prompt.Active())
	out := h.app.Engine().HTML()
	assert.Contains(t, out, `href="https://go.dev"`)
	assert.Contains(t, out, ">Go</a>")
}

func TestLinkSelection(t *testing.T) {
	h := newHarness(t, "n", nil)
	h.typeText("docs")
	h.key(tcell.KeyCtrlA, tcell.ModCtrl)
	h.key(tcell.KeyCtrlK, tcell.ModCtrl)
	assert.Equal(t, "Link selection - URL", h.app.prompt.View().Label)
	h.typeText("https://example.com")
	h.key(tcell.KeyEnter, tcell.ModNone)
	assert.Contains(t, h.app.Engine().HTML(), `href="https://example.com"`)
}

func TestEscapeCancelsPrompt(t *testing.T) {
	h := newHarness(t, "n", nil)
	h.key(tcell.KeyCtrlK, tcell.ModCtrl)
	require.True(t, h.app.Engine().DialogPending())
	h.key(tcell.KeyEscape, tcell.ModNone)
	assert.False(t, h.app.prompt.Active())
	assert.False(t, h.app.Engine().DialogPending())
}

func TestCopyCutAndPaste(t *testing.T) {
	h := newHarness(t, "n", nil)
	h.typeText("abc")
	h.key(tcell.KeyCtrlA, tcell.ModCtrl)
	h.key(tcell.KeyCtrlC, tcell.ModCtrl)
	assert.Equal(t, "abc", h.clip.text)

	h.key(tcell.KeyCtrlX, tcell.ModCtrl)
	assert.Equal(t, "<p></p>", h.app.Engine().HTML())

	h.key(tcell.KeyCtrlV, tcell.ModCtrl)
	assert.Equal(t, "<p>abc</p>", h.app.Engine().HTML())
}

func TestBracketedPaste(t *testing.T) {
	h := newHarness(t, "n", nil)
	h.app.handleEvent(tcell.NewEventPaste(true))
	h.typeText("one")
	h.key(tcell.KeyEnter, tcell.ModNone)
	h.typeText("two")
	h.app.handleEvent(tcell.NewEventPaste(false))
	assert.Equal(t, "<p>one</p><p>two</p>", h.app.Engine().HTML())
}

func TestNoteLinkResolvesTitle(t *testing.T) {
	h := newHarness(t, "n", func(s *store.FileStore) {
		saveNote(t, s, "ideas-id", "<h1>Ideas</h1>", "Ideas")
	})
	require.NoError(t, h.app.Engine().RunCommand("note-link"))
	h.typeText("ideas")
	h.key(tcell.KeyEnter, tcell.ModNone)
	h.key(tcell.KeyEnter, tcell.ModNone)

	out := h.app.Engine().HTML()
	assert.Contains(t, out, `data-ref="ideas-id"`)
	assert.Contains(t, out, "[[Ideas]]")
}

func TestOpenNoteCommand(t *testing.T) {
	h := newHarness(t, "n", func(s *store.FileStore) {
		saveNote(t, s, "plans-id", "<h1>Plans</h1>", "Plans")
	})
	h.typeText("draft")
	require.NoError(t, h.app.Engine().RunCommand("open-note"))
	h.typeText("pla")
	h.key(tcell.KeyEnter, tcell.ModNone)
	h.app.runPending()

	assert.Equal(t, "plans-id", h.app.Engine().NoteID())
	raw, err := h.notes.Load(context.Background(), "n")
	require.NoError(t, err)
	assert.Equal(t, "<p>draft</p>", raw, "the note being left is saved")
}

func TestNewNote(t *testing.T) {
	h := newHarness(t, "n", nil)
	h.app.handleAction(input.ActionEvent{Action: input.ActionNewNote})
	assert.NotEqual(t, "n", h.app.Engine().NoteID())
	assert.Equal(t, "<p></p>", h.app.Engine().HTML())
}

func TestCycleTheme(t *testing.T) {
	h := newHarness(t, "n", nil)
	h.key(tcell.KeyCtrlT, tcell.ModCtrl)
	assert.Equal(t, "Tidemark Light", h.app.themeManager.Current().Name)
}

func TestExternalChangeReloads(t *testing.T) {
	h := newHarness(t, "n", func(s *store.FileStore) {
		saveNote(t, s, "n", "<p>v1</p>", "")
	})
	saveNote(t, h.notes, "n", "<p>v2</p>", "")
	h.app.onStoreChange(store.Change{ID: "n"})
	h.app.runPending()
	assert.Equal(t, "<p>v2</p>", h.app.Engine().HTML())

	h.typeText("!")
	saveNote(t, h.notes, "n", "<p>v3</p>", "")
	h.app.onStoreChange(store.Change{ID: "n"})
	h.app.runPending()
	assert.Contains(t, h.app.Engine().HTML(), "!", "local edits are kept")
}

func TestMouseClickPlacesCaret(t *testing.T) {
	h := newHarness(t, "n", func(s *store.FileStore) {
		saveNote(t, s, "n", "<p>hello</p><p>world</p>", "")
	})
	h.app.draw()
	h.app.handleEvent(tcell.NewEventMouse(3, 1, tcell.Button1, tcell.ModNone))
	h.app.handleEvent(tcell.NewEventMouse(3, 1, tcell.ButtonNone, tcell.ModNone))

	block, off, ok := h.app.Engine().Cursor().Current()
	require.True(t, ok)
	assert.Equal(t, "world", dom.TextContent(block))
	assert.Equal(t, 3, off)
}

func TestQuitClosesLoop(t *testing.T) {
	h := newHarness(t, "n", nil)
	h.key(tcell.KeyCtrlQ, tcell.ModCtrl)
	select {
	case <-h.app.quit:
	default:
		t.Fatal("quit was not requested")
	}
}
