// Package autoformat turns markdown-like shorthand into formatting as it is
// typed: line-start prefixes convert the block, paired delimiters style the
// text between them.
package autoformat

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/core/cursor"
	"github.com/bethropolis/tidemark/internal/core/format"
	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/logger"
	"github.com/bethropolis/tidemark/internal/utils"
)

// BlockRule converts a block whose whole text is Prefix.
type BlockRule struct {
	Prefix  string
	Kind    dom.Kind
	Checked bool
}

// InlineRule styles the text between a pair of delimiters.
type InlineRule struct {
	Delim string
	Mark  format.Mark
	re    *regexp.Regexp
}

// DividerPattern becomes a divider when Enter is pressed on it.
const DividerPattern = "---"

// BlockRules is the line-start trigger table.
var BlockRules = []BlockRule{
	{Prefix: "# ", Kind: dom.KindHeading1},
	{Prefix: "## ", Kind: dom.KindHeading2},
	{Prefix: "### ", Kind: dom.KindHeading3},
	{Prefix: "- ", Kind: dom.KindBullet},
	{Prefix: "* ", Kind: dom.KindBullet},
	{Prefix: "1. ", Kind: dom.KindNumbered},
	{Prefix: "[ ] ", Kind: dom.KindChecklist},
	{Prefix: "[x] ", Kind: dom.KindChecklist, Checked: true},
	{Prefix: "> ", Kind: dom.KindQuote},
}

// InlineRules are tried in order; longer delimiters come first so "**"
// is never read as two "*".
var InlineRules = []InlineRule{
	inline("**", format.Bold),
	inline("__", format.Underline),
	inline("~~", format.Strike),
	inline("`", format.Code),
	inline("*", format.Italic),
}

// inline builds the rule for a delimiter pair ending at the end of the
// scanned text. A single-character delimiter uses a pattern whose content
// holds no delimiter character and which must not be doubled on the left.
// Longer delimiters are matched in find, so their content may hold the
// delimiter's characters, just not the whole delimiter.
func inline(delim string, mark format.Mark) InlineRule {
	rule := InlineRule{Delim: delim, Mark: mark}
	if len(delim) > 1 {
		return rule
	}
	c := regexp.QuoteMeta(delim)
	body := `([^` + c + `\s\x{FFFC}](?:[^` + c + `\x{FFFC}]*[^` + c + `\s\x{FFFC}])?)`
	lead := `(?:^|[^` + c + `])`
	rule.re = regexp.MustCompile(lead + `(` + c + body + c + `)$`)
	return rule
}

// find locates a closed pair at the end of scan. It returns the byte offset
// of the opening delimiter and the content between the pair.
func (r InlineRule) find(scan string) (int, string, bool) {
	if r.re != nil {
		m := r.re.FindStringSubmatchIndex(scan)
		if m == nil {
			return 0, "", false
		}
		return m[2], scan[m[4]:m[5]], true
	}

	if !strings.HasSuffix(scan, r.Delim) {
		return 0, "", false
	}
	inner := scan[:len(scan)-len(r.Delim)]
	open := strings.LastIndex(inner, r.Delim)
	if open < 0 {
		return 0, "", false
	}
	content := inner[open+len(r.Delim):]
	if content == "" || strings.ContainsRune(content, dom.AtomRune) {
		return 0, "", false
	}
	first, _ := utf8.DecodeRuneInString(content)
	last, _ := utf8.DecodeLastRuneInString(content)
	if unicode.IsSpace(first) || unicode.IsSpace(last) {
		return 0, "", false
	}
	if open > 0 && inner[open-1] == r.Delim[0] {
		return 0, "", false
	}
	return open, content, true
}

// Formatter applies the trigger table through a format dispatcher.
type Formatter struct {
	cur     *cursor.Manager
	disp    *format.Dispatcher
	enabled bool
}

// New creates a formatter. A disabled formatter never fires.
func New(cur *cursor.Manager, disp *format.Dispatcher, enabled bool) *Formatter {
	return &Formatter{cur: cur, disp: disp, enabled: enabled}
}

// Enabled reports whether the formatter fires.
func (f *Formatter) Enabled() bool { return f.enabled }

// SetEnabled switches the formatter on or off.
func (f *Formatter) SetEnabled(on bool) { f.enabled = on }

// AfterSpace runs once a space has been inserted at the caret. It reports
// whether a pattern fired.
func (f *Formatter) AfterSpace() bool {
	if !f.enabled {
		return false
	}
	block, off, ok := f.cur.Current()
	if !ok || !f.cur.Collapsed() {
		return false
	}
	if f.blockPattern(block, off) {
		return true
	}
	return f.inlinePattern(block, off)
}

// OnEnter runs before Enter splits the block. A closed inline pair ending at
// the caret is styled first. It reports whether the divider pattern consumed
// the keystroke; otherwise Enter goes on to split the block.
func (f *Formatter) OnEnter() bool {
	if !f.enabled {
		return false
	}
	block, off, ok := f.cur.Current()
	if !ok || !f.cur.Collapsed() {
		return false
	}
	if dom.KindOf(block) == dom.KindParagraph && dom.FlatText(block) == DividerPattern {
		f.disp.CutRange(block, 0, utils.GraphemeCount(DividerPattern))
		if f.disp.InsertDivider() == nil {
			return false
		}
		logger.DebugTagf("autoformat", "Divider pattern converted")
		return true
	}
	f.inlineAt(block, off, false)
	return false
}

func (f *Formatter) blockPattern(block *html.Node, off int) bool {
	kind := dom.KindOf(block)
	if !kind.IsTextual() {
		return false
	}
	text := dom.FlatText(block)
	for _, rule := range BlockRules {
		if text != rule.Prefix || off != utils.GraphemeCount(rule.Prefix) {
			continue
		}
		if kind == rule.Kind && !rule.Checked {
			return false
		}
		f.disp.CutRange(block, 0, off)
		fresh := f.disp.SetBlockOf(block, rule.Kind)
		if fresh == nil {
			return false
		}
		if rule.Checked {
			dom.SetAttr(fresh, dom.AttrChecked, "true")
		}
		logger.DebugTagf("autoformat", "Block pattern %q -> %s", rule.Prefix, rule.Kind)
		return true
	}
	return false
}

func (f *Formatter) inlinePattern(block *html.Node, off int) bool {
	return f.inlineAt(block, off, true)
}

// inlineAt styles a closed pair ending at the caret. With afterSpace the
// grapheme before the caret must be the space just typed; it is left after
// the styled text.
func (f *Formatter) inlineAt(block *html.Node, off int, afterSpace bool) bool {
	kind := dom.KindOf(block)
	if !kind.IsTextual() && kind != dom.KindTable {
		return false
	}
	text := dom.FlatText(block)
	end := utils.GraphemeToByteOffset(text, off)
	if end == 0 {
		return false
	}
	trail := 0
	if afterSpace {
		if text[end-1] != ' ' {
			return false
		}
		end--
		trail = 1
	}
	scan := text[:end]
	for _, rule := range InlineRules {
		open, content, ok := rule.find(scan)
		if !ok || strings.TrimSpace(content) == "" {
			continue
		}
		from := utils.ByteToGraphemeOffset(text, open)
		width := utils.GraphemeCount(rule.Delim)
		inner := utils.GraphemeCount(content)

		closeAt := from + width + inner
		f.disp.CutRange(block, closeAt, closeAt+width)
		f.disp.CutRange(block, from, from+width)
		f.disp.ApplyMarkRange(block, from, from+inner, rule.Mark, true)
		f.cur.Place(block, from+inner+trail, false)
		logger.DebugTagf("autoformat", "Inline pattern %q -> %s over %q", rule.Delim, rule.Mark, content)
		return true
	}
	return false
}
