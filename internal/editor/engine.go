// Package editor is the editing engine: it owns one note's document tree and
// turns input events into cursor-safe, normalized, undoable mutations.
package editor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/blocks"
	"github.com/bethropolis/tidemark/internal/config"
	"github.com/bethropolis/tidemark/internal/core/autoformat"
	"github.com/bethropolis/tidemark/internal/core/cursor"
	"github.com/bethropolis/tidemark/internal/core/format"
	"github.com/bethropolis/tidemark/internal/core/history"
	"github.com/bethropolis/tidemark/internal/core/normalize"
	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/event"
	"github.com/bethropolis/tidemark/internal/logger"
	"github.com/bethropolis/tidemark/internal/markdown"
	"github.com/bethropolis/tidemark/internal/sanitize"
	"github.com/bethropolis/tidemark/internal/settle"
	"github.com/bethropolis/tidemark/internal/slash"
)

// ErrNoPersistence is returned by Load and Save when no Persistence was
// configured.
var ErrNoPersistence = errors.New("no persistence configured")

// Persistence loads and saves notes as serialized HTML.
type Persistence interface {
	Load(ctx context.Context, id string) (string, error)
	Save(ctx context.Context, id, html string, meta dom.Metadata) error
}

// DialogRequest is handed to the dialog collaborator.
type DialogRequest = slash.DialogRequest

// InsertFunc completes a deferred command with the payload a dialog
// gathered. A nil payload cancels the command.
type InsertFunc func(p blocks.Payload) error

// Dialogs gathers input for commands that need it. Open must not block; the
// collaborator calls insert later, on the engine's goroutine.
type Dialogs interface {
	Open(req DialogRequest, insert InsertFunc)
}

// Options wires an Engine. Zero values get working defaults.
type Options struct {
	Config      config.EditorConfig
	Scheduler   settle.Scheduler
	Events      *event.Manager
	Blocks      *blocks.Registry
	Commands    *slash.Registry
	Sanitizer   *sanitize.Sanitizer
	Markdown    *markdown.Converter
	Persistence Persistence
	Dialogs     Dialogs
	// Focus reasserts input focus on the host surface after structural
	// changes.
	Focus func()
	Now   func() time.Time
}

// Operation names reported in DocumentChangedData.
const (
	opType      = "type"
	opInsert    = "insert"
	opEnter     = "enter"
	opBackspace = "backspace"
	opDelete    = "delete"
	opFormat    = "format"
	opBlock     = "block"
	opUndo      = "undo"
	opRedo      = "redo"
	opPaste     = "paste"
	opLoad      = "load"
	opSlash     = "slash"
	opDialog    = "dialog"
)

// Engine edits one note at a time. It is not safe for concurrent use; hosts
// serialize every call on one goroutine.
type Engine struct {
	cfg  config.EditorConfig
	root *html.Node

	cur     *cursor.Manager
	norm    *normalize.Normalizer
	hist    *history.Manager
	disp    *format.Dispatcher
	auto    *autoformat.Formatter
	palette *slash.Palette

	blocks   *blocks.Registry
	commands *slash.Registry
	san      *sanitize.Sanitizer
	md       *markdown.Converter
	events   *event.Manager
	store    Persistence
	dialogs  Dialogs
	sched    settle.Scheduler

	noteID string
	busy   bool
	// coalesce folds the next typed character into the top history entry;
	// wordBreak ends the run after the current one.
	coalesce  bool
	wordBreak bool
	pending   *format.Mark
	dialog    *pendingDialog
	subs      []event.SubscriptionID
}

type pendingDialog struct {
	cmd    *slash.Command
	marker cursor.Marker
}

// New creates an engine holding an empty document.
func New(opts Options) *Engine {
	cfg := opts.Config
	if cfg.HistoryCapacity == 0 && cfg.NormalizeMaxPasses == 0 && cfg.MaxAncestorWalk == 0 {
		cfg = config.NewDefaultConfig().Editor
	}
	e := &Engine{
		cfg:      cfg,
		root:     dom.NewRoot(),
		blocks:   opts.Blocks,
		commands: opts.Commands,
		san:      opts.Sanitizer,
		md:       opts.Markdown,
		events:   opts.Events,
		store:    opts.Persistence,
		dialogs:  opts.Dialogs,
		sched:    opts.Scheduler,
	}
	if e.sched == nil {
		e.sched = settle.Sync{}
	}
	if e.blocks == nil {
		e.blocks = blocks.NewRegistry()
	}
	if e.commands == nil {
		e.commands = slash.NewRegistry()
		if err := slash.RegisterBuiltins(e.commands); err != nil {
			logger.Errorf("editor: registering built-in slash commands: %v", err)
		}
	}
	if e.san == nil {
		e.san = sanitize.New()
	}
	if e.md == nil {
		e.md = markdown.NewConverter()
	}
	if e.events == nil {
		e.events = event.NewManager(nil)
	}

	e.cur = cursor.NewManager(e.root, e.sched, cfg.MaxAncestorWalk)
	e.norm = normalize.New(cfg.NormalizeMaxPasses)
	e.hist = history.NewManager(cfg.HistoryCapacity)
	e.disp = format.NewDispatcher(format.Options{
		Cursor:     e.cur,
		Normalizer: e.norm,
		Scheduler:  e.sched,
		Focus:      opts.Focus,
		Now:        opts.Now,
	})
	e.auto = autoformat.New(e.cur, e.disp, cfg.Autoformat)
	e.palette = slash.NewPalette(e.commands, cfg.SlashTrigger, 0)

	e.norm.Normalize(e.root)
	e.cur.PlaceAt(dom.Blocks(e.root)[0], cursor.EdgeStart)
	e.hist.Push(e.entry())

	e.subs = append(e.subs, e.events.SubscribeDebounced(event.TypeDocumentChanged, cfg.RenormalizeDebounce.Std(),
		func(event.Event) bool {
			e.renormalize()
			return false
		}))
	if e.store != nil {
		e.subs = append(e.subs, e.events.SubscribeDebounced(event.TypeDocumentChanged, cfg.SaveDebounce.Std(),
			func(event.Event) bool {
				if e.noteID == "" {
					return false
				}
				if err := e.Save(context.Background()); err != nil {
					logger.Warnf("editor: autosave of %q failed: %v", e.noteID, err)
				}
				return false
			}))
	}
	return e
}

// Close drops the engine's event subscriptions.
func (e *Engine) Close() {
	for _, id := range e.subs {
		e.events.Unsubscribe(id)
	}
	e.subs = nil
}

// Root returns the live document root. Callers must not mutate it outside
// engine operations.
func (e *Engine) Root() *html.Node { return e.root }

// Cursor exposes the caret for hosts that render it.
func (e *Engine) Cursor() *cursor.Manager { return e.cur }

// Events returns the engine's event bus.
func (e *Engine) Events() *event.Manager { return e.events }

// BlockRegistry returns the custom block registry.
func (e *Engine) BlockRegistry() *blocks.Registry { return e.blocks }

// CommandRegistry returns the slash command registry.
func (e *Engine) CommandRegistry() *slash.Registry { return e.commands }

// NoteID returns the id of the loaded note, "" for a scratch document.
func (e *Engine) NoteID() string { return e.noteID }

// HTML serializes the document without transient caret markers.
func (e *Engine) HTML() string { return e.serialize() }

// Metadata derives word counts and the heading outline.
func (e *Engine) Metadata() dom.Metadata { return dom.Collect(e.root) }

// CanUndo reports whether Undo would do anything.
func (e *Engine) CanUndo() bool { return e.hist.CanUndo() }

// CanRedo reports whether Redo would do anything.
func (e *Engine) CanRedo() bool { return e.hist.CanRedo() }

// Load fetches a note from persistence and replaces the document with it.
func (e *Engine) Load(ctx context.Context, id string) error {
	if e.store == nil {
		return ErrNoPersistence
	}
	raw, err := e.store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("load note %q: %w", id, err)
	}
	e.LoadHTML(id, raw)
	return nil
}

// LoadHTML replaces the document with raw, sanitized, and resets history.
func (e *Engine) LoadHTML(id, raw string) {
	e.events.Flush()
	e.cancelDialog()
	e.palette.Close()
	e.pending = nil

	e.syncAllowList()
	clean := e.san.Sanitize(raw)
	if err := dom.SetInnerHTML(e.root, clean); err != nil {
		logger.Warnf("editor: note %q did not parse, starting empty: %v", id, err)
		dom.RemoveChildren(e.root)
	}
	e.norm.Normalize(e.root)
	e.ensureHeadingIDs()

	e.noteID = id
	e.cur.Reset()
	if blocks := dom.Blocks(e.root); len(blocks) > 0 {
		e.cur.PlaceAt(blocks[0], cursor.EdgeStart)
	}
	e.hist.Clear()
	e.hist.Push(e.entry())
	e.coalesce = false
	logger.Infof("editor: loaded note %q (%d blocks)", id, len(dom.Blocks(e.root)))
	e.events.Dispatch(event.TypeDocumentLoaded, event.DocumentLoadedData{NoteID: id})
}

// Save hands the current document and its metadata to persistence.
func (e *Engine) Save(ctx context.Context) error {
	if e.store == nil {
		return ErrNoPersistence
	}
	serialized := e.serialize()
	meta := e.Metadata()
	if err := e.store.Save(ctx, e.noteID, serialized, meta); err != nil {
		return fmt.Errorf("save note %q: %w", e.noteID, err)
	}
	logger.DebugTagf("editor", "Saved note %q (%d words)", e.noteID, meta.Words)
	e.events.Dispatch(event.TypeDocumentSaved, event.DocumentSavedData{NoteID: e.noteID, Metadata: meta})
	return nil
}

// Flush runs pending debounced work (re-normalization, autosave) now.
func (e *Engine) Flush() {
	e.events.Flush()
}

// mutate is the operation boundary. fn reports whether it changed the
// document; changes are normalized, recorded in history when record is set
// and announced. A panic inside fn restores the document as it was before
// the operation.
func (e *Engine) mutate(op string, record bool, fn func() bool) (changed bool) {
	if e.busy {
		return fn()
	}
	e.busy = true
	before := dom.InnerHTML(e.root)
	beforeCaret := e.cur.SaveBlockOffset()
	defer func() {
		e.busy = false
		if r := recover(); r != nil {
			logger.Errorf("editor: operation %q failed, document restored: %v", op, r)
			if err := dom.SetInnerHTML(e.root, before); err != nil {
				logger.Errorf("editor: restoring document after %q: %v", op, err)
			}
			e.cur.Reset()
			if !e.cur.Restore(beforeCaret) {
				e.cur.Fallback(nil)
			}
			e.palette.Close()
			changed = false
		}
	}()

	changed = fn()
	if changed {
		e.commit(op, record)
	}
	return changed
}

func (e *Engine) commit(op string, record bool) {
	e.normalizeKeepingCaret()
	if record {
		if op == opType && e.coalesce {
			e.hist.ReplaceTop(e.entry())
		} else {
			e.hist.Push(e.entry())
		}
	}
	e.coalesce = op == opType && !e.wordBreak
	e.events.Dispatch(event.TypeDocumentChanged, event.DocumentChangedData{NoteID: e.noteID, Op: op})
}

func (e *Engine) entry() history.Entry {
	return history.Entry{HTML: e.serialize(), Cursor: e.cur.SaveBlockOffset()}
}

// serialize renders the document with caret markers left out.
func (e *Engine) serialize() string {
	hasMarker := dom.Find(e.root, dom.IsMarker) != nil
	if !hasMarker {
		return dom.InnerHTML(e.root)
	}
	clone := dom.Clone(e.root)
	var markers []*html.Node
	dom.Walk(clone, func(n *html.Node) bool {
		if dom.IsMarker(n) {
			markers = append(markers, n)
			return false
		}
		return true
	})
	for _, m := range markers {
		dom.Detach(m)
	}
	return dom.InnerHTML(clone)
}

// normalizeKeepingCaret runs the normalizer and puts the caret back at the
// same block offsets.
func (e *Engine) normalizeKeepingCaret() int {
	fb, fo, okF := e.cur.Current()
	ab, ao, okA := e.cur.AnchorPosition()
	changes := e.norm.Normalize(e.root)
	if changes == 0 || !okF {
		return changes
	}
	if !dom.Attached(e.root, fb) {
		e.cur.Fallback(nil)
		return changes
	}
	if okA && dom.Attached(e.root, ab) {
		e.cur.Place(ab, ao, false)
		e.cur.Place(fb, fo, true)
	} else {
		e.cur.Place(fb, fo, false)
	}
	return changes
}

// renormalize is the debounced pass over the whole tree. It catches content
// that was mutated outside an engine operation.
func (e *Engine) renormalize() {
	if e.busy {
		return
	}
	if e.normalizeKeepingCaret() > 0 {
		logger.DebugTagf("editor", "Deferred normalization tidied the document")
		e.hist.ReplaceTop(e.entry())
	}
}

// syncAllowList lets the payload attributes of registered block types
// through the sanitizer.
func (e *Engine) syncAllowList() {
	e.san.Allow(e.blocks.Attrs()...)
}

func (e *Engine) ensureHeadingIDs() {
	seen := map[string]bool{}
	for _, b := range dom.Blocks(e.root) {
		if !dom.KindOf(b).IsHeading() {
			continue
		}
		id := dom.AttrOr(b, "id", "")
		if id == "" || seen[id] {
			e.disp.RefreshHeadingID(b)
			id = dom.AttrOr(b, "id", "")
		}
		seen[id] = true
	}
}

func (e *Engine) selectionChanged() {
	block, off, ok := e.cur.Current()
	if !ok {
		return
	}
	e.events.Dispatch(event.TypeSelectionChanged, event.SelectionChangedData{
		Kind:      dom.KindOf(block),
		Offset:    off,
		Collapsed: e.cur.Collapsed(),
	})
}
