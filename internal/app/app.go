// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/bethropolis/tidemark/internal/config"
	"github.com/bethropolis/tidemark/internal/editor"
	"github.com/bethropolis/tidemark/internal/event"
	"github.com/bethropolis/tidemark/internal/input"
	"github.com/bethropolis/tidemark/internal/logger"
	"github.com/bethropolis/tidemark/internal/plugin"
	"github.com/bethropolis/tidemark/internal/settle"
	"github.com/bethropolis/tidemark/internal/slash"
	"github.com/bethropolis/tidemark/internal/statusbar"
	"github.com/bethropolis/tidemark/internal/store"
	"github.com/bethropolis/tidemark/internal/theme"
	"github.com/bethropolis/tidemark/internal/tui"
)

const placeholder = "Type / for commands"

// Options configures NewApp.
type Options struct {
	Config *config.Config
	// NoteID opens a specific note; empty opens the most recent one.
	NoteID string
	// Screen replaces the terminal, e.g. with a tcell.SimulationScreen.
	Screen tcell.Screen
	// Clipboard replaces the clipboard chosen from the config.
	Clipboard Clipboard
	// ThemesDir overrides the user themes directory; "-" disables it.
	ThemesDir string
}

// App wires the editing engine to the terminal. Everything that touches the
// engine runs on the goroutine inside Run.
type App struct {
	cfg            *config.Config
	tuiManager     *tui.TUI
	view           *tui.View
	engine         *editor.Engine
	notes          *store.FileStore
	statusBar      *statusbar.StatusBar
	eventManager   *event.Manager
	pluginManager  *plugin.Manager
	host           *plugin.Host
	themeManager   *theme.Manager
	inputProcessor *input.InputProcessor
	prompt         *Prompt
	clipboard      Clipboard

	// Channels managed by the App
	tasks         chan func()
	events        chan tcell.Event
	quit          chan struct{}
	quitOnce      sync.Once
	redrawRequest chan struct{}

	pasting   bool
	pasteBuf  []rune
	mouseDown bool
}

// NewApp creates the application and opens a note.
func NewApp(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	var (
		tuiManager *tui.TUI
		err        error
	)
	if opts.Screen != nil {
		tuiManager, err = tui.NewWithScreen(opts.Screen)
	} else {
		tuiManager, err = tui.New()
	}
	if err != nil {
		return nil, fmt.Errorf("TUI initialization failed: %w", err)
	}

	dir := cfg.Store.Dir
	if dir == "" {
		dir = store.DefaultDir()
	}
	notes, err := store.New(dir)
	if err != nil {
		tuiManager.Close()
		return nil, fmt.Errorf("note store: %w", err)
	}

	a := &App{
		cfg:            cfg,
		tuiManager:     tuiManager,
		view:           tui.NewView(),
		notes:          notes,
		statusBar:      statusbar.New(statusbar.DefaultConfig()),
		pluginManager:  plugin.NewManager(),
		inputProcessor: input.NewInputProcessor(),
		clipboard:      opts.Clipboard,
		tasks:          make(chan func(), 64),
		events:         make(chan tcell.Event),
		quit:           make(chan struct{}),
		redrawRequest:  make(chan struct{}, 1),
	}
	if a.clipboard == nil {
		a.clipboard = newClipboard(cfg.Editor.SystemClipboard)
	}

	themesDir := opts.ThemesDir
	switch themesDir {
	case "":
		themesDir = theme.DefaultThemesDir()
	case "-":
		themesDir = ""
	}
	a.themeManager = theme.NewManager(themesDir)
	if cfg.Theme != "" {
		if err := a.themeManager.SetTheme(cfg.Theme); err != nil {
			logger.Warnf("Config theme: %v", err)
		}
	}
	tuiManager.SetStyle(a.themeManager.Current().GetStyle("Default"))

	a.eventManager = event.NewManager(a.post)
	var sched settle.Scheduler = settle.Sync{}
	if strategy := settle.FromConfig(cfg.Settle); !strategy.IsZero() {
		sched = settle.NewTimed(strategy, a.post)
	}

	commands := slash.NewRegistry()
	if err := slash.RegisterBuiltins(commands); err != nil {
		logger.Errorf("Registering built-in slash commands: %v", err)
	}

	a.prompt = NewPrompt(a.resolveNoteRef, func(err error) {
		a.statusBar.SetTemporaryMessage("Error: %v", err)
	})
	a.engine = editor.New(editor.Options{
		Config:      cfg.Editor,
		Scheduler:   sched,
		Events:      a.eventManager,
		Commands:    commands,
		Persistence: notes,
		Dialogs:     a.prompt,
		Focus:       a.requestRedraw,
	})
	registerAppCommands(a)

	a.host = plugin.NewHost(plugin.HostOptions{
		Engine: a.engine,
		Status: a.statusBar,
		Config: cfg.Plugins,
		Post:   a.post,
		Redraw: a.requestRedraw,
	})
	if err := registerPlugins(a.pluginManager); err != nil {
		logger.Warnf("Plugin registration: %v", err)
	}

	a.eventManager.Subscribe(event.TypeDocumentChanged, a.handleDocumentEventForStatus)
	a.eventManager.Subscribe(event.TypeDocumentLoaded, a.handleDocumentEventForStatus)
	a.eventManager.Subscribe(event.TypeDocumentSaved, a.handleDocumentEventForStatus)
	a.eventManager.Subscribe(event.TypeSelectionChanged, a.handleSelectionChangedForStatus)

	if err := a.pluginManager.InitializePlugins(a.host); err != nil {
		logger.Warnf("Plugin initialization: %v", err)
	}

	if err := a.openInitialNote(opts.NoteID); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Engine exposes the editing engine.
func (a *App) Engine() *editor.Engine { return a.engine }

// Close shuts plugins down and restores the terminal. Run calls it on exit.
func (a *App) Close() {
	a.pluginManager.ShutdownPlugins()
	a.engine.Close()
	a.tuiManager.Close()
}

// Run starts the main loop and returns after a quit.
func (a *App) Run() error {
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if a.cfg.Store.Watch {
		go func() {
			if err := a.notes.Watch(ctx, store.DefaultWatchDebounce, a.onStoreChange); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warnf("Watching %s: %v", a.notes.Dir(), err)
			}
		}()
	}
	go a.pollEvents(ctx)

	a.eventManager.Dispatch(event.TypeAppReady, nil)
	a.statusBar.SetTemporaryMessage("Tidemark - / commands | Ctrl+S Save | Ctrl+Q Quit")
	a.requestRedraw()

	for {
		select {
		case <-a.quit:
			a.shutdown()
			return nil
		case fn := <-a.tasks:
			fn()
		case ev := <-a.events:
			if a.handleEvent(ev) {
				a.requestRedraw()
			}
		case <-a.redrawRequest:
			a.draw()
		}
	}
}

// shutdown lets plugins react to the quit and writes pending work out.
func (a *App) shutdown() {
	a.eventManager.Dispatch(event.TypeAppQuit, nil)
	a.engine.Flush()
	logger.Infof("Exiting application.")
}

func (a *App) pollEvents(ctx context.Context) {
	for {
		ev := a.tuiManager.PollEvent()
		if ev == nil {
			return
		}
		select {
		case a.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// post queues fn for the main loop. It never blocks the caller.
func (a *App) post(fn func()) {
	select {
	case a.tasks <- fn:
	default:
		go func() { a.tasks <- fn }()
	}
}

// runPending runs queued tasks until none are left.
func (a *App) runPending() {
	for {
		select {
		case fn := <-a.tasks:
			fn()
		default:
			return
		}
	}
}

func (a *App) requestQuit() {
	a.quitOnce.Do(func() { close(a.quit) })
}

// requestRedraw sends a redraw signal non-blockingly.
func (a *App) requestRedraw() {
	select {
	case a.redrawRequest <- struct{}{}:
	default:
	}
}

// --- Drawing ---

func (a *App) draw() {
	th := a.themeManager.Current()
	width, height := a.tuiManager.Size()

	a.updateStatusBarContent()
	a.tuiManager.Clear()
	a.view.Draw(a.tuiManager, a.frame(), th)
	a.statusBar.Draw(a.tuiManager.GetScreen(), width, height, th)
	a.tuiManager.Show()
}

func (a *App) frame() tui.Frame {
	block, off, ok := a.engine.Cursor().Current()
	f := tui.Frame{
		Root:        a.engine.Root(),
		CaretBlock:  block,
		CaretOffset: off,
		HasCaret:    ok,
		Prompt:      a.prompt.View(),
		Placeholder: placeholder,
	}
	if !a.engine.Cursor().Collapsed() {
		f.Spans = a.engine.Cursor().Spans()
	}
	if a.engine.SlashActive() {
		results, selected := a.engine.SlashResults()
		f.Palette = &tui.Palette{Query: a.engine.SlashQuery(), Results: results, Selected: selected}
	}
	return f
}

// --- Status ---

func (a *App) updateStatusBarContent() {
	a.statusBar.SetNoteInfo(store.Title(a.engine.Metadata()), a.modified())
	a.statusBar.SetBlockKind(a.engine.CurrentKind().String())
}

// modified asks the autosave plugin, which tracks unsaved changes.
func (a *App) modified() bool {
	p, ok := a.pluginManager.GetPlugin("autosave")
	if !ok {
		return false
	}
	d, ok := p.(interface{ Dirty() bool })
	return ok && d.Dirty()
}

func (a *App) handleDocumentEventForStatus(event.Event) bool {
	a.requestRedraw()
	return false
}

func (a *App) handleSelectionChangedForStatus(e event.Event) bool {
	if data, ok := e.Data.(event.SelectionChangedData); ok {
		a.statusBar.SetBlockKind(data.Kind.String())
	}
	a.requestRedraw()
	return false
}
