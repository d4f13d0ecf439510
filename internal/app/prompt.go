package app

import (
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/bethropolis/tidemark/internal/blocks"
	"github.com/bethropolis/tidemark/internal/editor"
	"github.com/bethropolis/tidemark/internal/slash"
	"github.com/bethropolis/tidemark/internal/tui"
	"github.com/bethropolis/tidemark/internal/utils"
	"github.com/bethropolis/tidemark/plugins/callout"
	"github.com/bethropolis/tidemark/plugins/notelink"
)

// promptField is one value a dialog asks for.
type promptField struct {
	key   string
	label string
}

// dialogFields lists the fields gathered per dialog kind. Unknown kinds ask
// for a single "value".
var dialogFields = map[string][]promptField{
	slash.DialogLink:    {{"href", "URL"}, {"text", "Text"}},
	notelink.DialogKind: {{"ref", "Note"}, {"title", "Title"}},
	callout.DialogKind:  {{"text", "Text"}},
	openNoteKind:        {{"ref", "Note"}},
	themeKind:           {{"value", "Name"}},
	linkSelectionKind:   {{"href", "URL"}},
}

// Prompt gathers dialog input on the line above the status bar. It is the
// engine's dialog collaborator.
type Prompt struct {
	req     editor.DialogRequest
	insert  editor.InsertFunc
	fields  []promptField
	step    int
	values  blocks.Payload
	input   string
	active  bool
	resolve func(kind string, p blocks.Payload)
	onError func(err error)
}

// NewPrompt creates an idle prompt. resolve may rewrite a gathered payload
// before it is inserted; onError reports failed completions.
func NewPrompt(resolve func(kind string, p blocks.Payload), onError func(err error)) *Prompt {
	if resolve == nil {
		resolve = func(string, blocks.Payload) {}
	}
	if onError == nil {
		onError = func(error) {}
	}
	return &Prompt{resolve: resolve, onError: onError}
}

var _ editor.Dialogs = (*Prompt)(nil)

// Open starts gathering input for req. A prompt that is still open is
// cancelled first.
func (p *Prompt) Open(req editor.DialogRequest, insert editor.InsertFunc) {
	if p.active {
		p.Cancel()
	}
	fields, ok := dialogFields[req.Kind]
	if !ok {
		fields = []promptField{{"value", "Value"}}
	}
	p.req, p.insert, p.fields = req, insert, fields
	p.step, p.input = 0, ""
	p.values = blocks.Payload{}
	p.active = true
}

// Active reports whether the prompt is taking input.
func (p *Prompt) Active() bool { return p.active }

// View returns what the renderer shows, or nil when idle.
func (p *Prompt) View() *tui.Prompt {
	if !p.active {
		return nil
	}
	label := p.fields[p.step].label
	if p.req.Title != "" {
		label = p.req.Title + " - " + label
	}
	return &tui.Prompt{Label: label, Input: p.input}
}

// Cancel closes the prompt and tells the engine nothing will be inserted.
func (p *Prompt) Cancel() {
	if !p.active {
		return
	}
	insert := p.insert
	p.reset()
	if err := insert(nil); err != nil {
		p.onError(err)
	}
}

func (p *Prompt) reset() {
	p.active = false
	p.insert = nil
	p.values = nil
	p.input = ""
}

// HandleKey edits the input. Enter moves to the next field and completes on
// the last; Escape cancels.
func (p *Prompt) HandleKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		p.Cancel()
	case tcell.KeyEnter:
		p.values[p.fields[p.step].key] = strings.TrimSpace(p.input)
		p.input = ""
		p.step++
		if p.step < len(p.fields) {
			return
		}
		kind, values, insert := p.req.Kind, p.values, p.insert
		p.reset()
		p.resolve(kind, values)
		if err := insert(values); err != nil {
			p.onError(err)
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if p.input != "" {
			p.input = p.input[:utils.PrevGraphemeBoundary(p.input, len(p.input))]
		}
	case tcell.KeyRune:
		p.input += string(ev.Rune())
	}
}

// AddText appends pasted text, dropping line breaks.
func (p *Prompt) AddText(s string) {
	p.input += strings.Join(strings.Fields(s), " ")
}
