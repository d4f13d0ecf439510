package slash

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/utils"
)

// DefaultTrigger opens the palette.
const DefaultTrigger = "/"

// DefaultLimit caps the rows the palette shows.
const DefaultLimit = 8

// Palette tracks one slash session: the block it was opened in, the offset
// of the trigger and the query typed after it.
type Palette struct {
	reg     *Registry
	filter  *Filter
	trigger string
	limit   int

	active   bool
	block    *html.Node
	start    int
	query    string
	results  []Result
	selected int
}

// NewPalette creates a palette over reg. An empty trigger uses
// DefaultTrigger; limit <= 0 uses DefaultLimit.
func NewPalette(reg *Registry, trigger string, limit int) *Palette {
	if trigger == "" {
		trigger = DefaultTrigger
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Palette{reg: reg, filter: NewFilter(), trigger: trigger, limit: limit}
}

// Trigger returns the text that opens the palette.
func (p *Palette) Trigger() string { return p.trigger }

// ShouldOpen reports whether typing s at offset off of block should open
// the palette: s is the trigger and the caret sits at the block start or
// after whitespace.
func (p *Palette) ShouldOpen(block *html.Node, off int, s string) bool {
	if s != p.trigger || block == nil || !dom.KindOf(block).IsTextual() {
		return false
	}
	return AtWordBoundary(dom.FlatText(block), off)
}

// AtWordBoundary reports whether grapheme offset off of text starts a word.
func AtWordBoundary(text string, off int) bool {
	if off <= 0 {
		return true
	}
	byteOff := utils.GraphemeToByteOffset(text, off)
	prevStart := utils.PrevGraphemeBoundary(text, byteOff)
	prev := []rune(text[prevStart:byteOff])
	return len(prev) > 0 && unicode.IsSpace(prev[0])
}

// Open starts a session for a trigger that now sits at offset start of
// block.
func (p *Palette) Open(block *html.Node, start int) {
	p.active = true
	p.block = block
	p.start = start
	p.query = ""
	p.selected = 0
	p.results = p.filter.Search(p.reg.All(), "", p.limit)
}

// Update re-reads the query between the trigger and caret. The session
// closes when the caret leaves the block, moves before the trigger, the
// trigger is gone or the query contains whitespace. It reports whether the
// session is still open.
func (p *Palette) Update(block *html.Node, caret int) bool {
	if !p.active {
		return false
	}
	if block != p.block || caret <= p.start {
		p.Close()
		return false
	}
	text := dom.FlatText(block)
	if utils.GraphemeCount(text) < caret {
		p.Close()
		return false
	}
	from := utils.GraphemeToByteOffset(text, p.start)
	to := utils.GraphemeToByteOffset(text, caret)
	typed := text[from:to]
	if !strings.HasPrefix(typed, p.trigger) {
		p.Close()
		return false
	}
	query := strings.TrimPrefix(typed, p.trigger)
	if strings.IndexFunc(query, unicode.IsSpace) >= 0 {
		p.Close()
		return false
	}
	if query != p.query || p.results == nil {
		p.query = query
		p.selected = 0
		p.results = p.filter.Search(p.reg.All(), query, p.limit)
	}
	return true
}

// Close ends the session.
func (p *Palette) Close() {
	p.active = false
	p.block = nil
	p.query = ""
	p.results = nil
	p.selected = 0
}

// Active reports whether a session is open.
func (p *Palette) Active() bool { return p.active }

// Query returns the text typed after the trigger.
func (p *Palette) Query() string { return p.query }

// Results returns the current matches.
func (p *Palette) Results() []Result { return p.results }

// SelectedIndex returns the highlighted row.
func (p *Palette) SelectedIndex() int { return p.selected }

// Move shifts the highlighted row by delta, wrapping around.
func (p *Palette) Move(delta int) {
	n := len(p.results)
	if n == 0 {
		return
	}
	p.selected = ((p.selected+delta)%n + n) % n
}

// Selected returns the highlighted command.
func (p *Palette) Selected() (*Command, bool) {
	if !p.active || len(p.results) == 0 {
		return nil, false
	}
	return p.results[p.selected].Command, true
}

// Span returns the block and the grapheme range holding the trigger and
// query, which the engine removes before running a command.
func (p *Palette) Span() (block *html.Node, from, to int) {
	return p.block, p.start, p.start + utils.GraphemeCount(p.trigger) + utils.GraphemeCount(p.query)
}
