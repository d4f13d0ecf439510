// internal/tui/layout.go
package tui

import (
	"fmt"

	"github.com/rivo/uniseg"
	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/core/format"
	"github.com/bethropolis/tidemark/internal/dom"
)

// Cell is one grapheme cluster on screen.
type Cell struct {
	Text  string
	Width int
	Role  string // theme style name
	Marks format.Mark
	Block *html.Node
	// Offset is the grapheme offset inside Block, or -1 for decoration.
	Offset int
}

// Stop is a caret position on a row.
type Stop struct {
	X      int
	Block  *html.Node
	Offset int
}

// Row is one screen line of the document.
type Row struct {
	Cells []Cell
	Stops []Stop
}

type position struct{ row, x int }

// Layout is the document wrapped to a width.
type Layout struct {
	Rows  []Row
	Width int

	caret map[*html.Node][]position
}

const (
	bulletPrefix    = "• "
	uncheckedPrefix = "☐ "
	checkedPrefix   = "☑ "
	quotePrefix     = "▌ "
	cellSeparator   = " │ "
	widgetPrefix    = "▣ "
	imageLabel      = "[image]"
)

// Build lays out the blocks of root for a screen width columns wide.
func Build(root *html.Node, width int) *Layout {
	if width < 1 {
		width = 1
	}
	l := &Layout{Width: width, caret: make(map[*html.Node][]position)}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case dom.IsList(c):
			n := 0
			for li := c.FirstChild; li != nil; li = li.NextSibling {
				if !dom.IsElement(li, "li") {
					continue
				}
				n++
				l.textBlock(li, listPrefix(li, n), roleOf(li))
			}
		case dom.IsElement(c, "table"):
			l.table(c)
		case dom.IsElement(c, "hr"):
			l.divider(c)
		case dom.IsCustom(c):
			l.widgetBlock(c)
		case dom.IsElement(c):
			prefix := ""
			if dom.KindOf(c) == dom.KindQuote {
				prefix = quotePrefix
			}
			l.textBlock(c, prefix, roleOf(c))
		}
	}
	return l
}

func listPrefix(li *html.Node, n int) string {
	switch dom.KindOf(li) {
	case dom.KindNumbered:
		return fmt.Sprintf("%d. ", n)
	case dom.KindChecklist:
		if dom.AttrOr(li, dom.AttrChecked, "") == "true" {
			return checkedPrefix
		}
		return uncheckedPrefix
	}
	return bulletPrefix
}

func roleOf(block *html.Node) string {
	switch dom.KindOf(block) {
	case dom.KindHeading1:
		return "Heading1"
	case dom.KindHeading2:
		return "Heading2"
	case dom.KindHeading3:
		return "Heading3"
	case dom.KindQuote:
		return "Quote"
	case dom.KindChecklist:
		if dom.AttrOr(block, dom.AttrChecked, "") == "true" {
			return "Checked"
		}
	}
	return "Default"
}

// line accumulates cells for one logical line and wraps it.
type line struct {
	l      *Layout
	row    int
	x      int
	indent int
}

func (l *Layout) newLine(indent int) *line {
	l.Rows = append(l.Rows, Row{})
	if indent >= l.Width {
		indent = 0
	}
	return &line{l: l, row: len(l.Rows) - 1, indent: indent}
}

func (ln *line) wrap() {
	ln.l.Rows = append(ln.l.Rows, Row{})
	ln.row = len(ln.l.Rows) - 1
	ln.x = 0
	for ln.x < ln.indent {
		ln.put(Cell{Text: " ", Width: 1, Role: "Default", Offset: -1})
	}
}

func (ln *line) put(c Cell) {
	if ln.x > ln.indent && ln.x+c.Width > ln.l.Width {
		ln.wrap()
	}
	ln.l.Rows[ln.row].Cells = append(ln.l.Rows[ln.row].Cells, c)
	ln.x += c.Width
}

func (ln *line) decorate(s, role string) {
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		ln.put(Cell{Text: gr.Str(), Width: clusterWidth(gr.Width()), Role: role, Offset: -1})
	}
}

// stop records the caret position for offset before the next cell lands.
func (ln *line) stop(block *html.Node, off, nextWidth int) {
	if ln.x > ln.indent && ln.x+nextWidth > ln.l.Width {
		ln.wrap()
	}
	ln.l.Rows[ln.row].Stops = append(ln.l.Rows[ln.row].Stops, Stop{X: ln.x, Block: block, Offset: off})
	ln.l.caret[block] = append(ln.l.caret[block], position{row: ln.row, x: ln.x})
}

func clusterWidth(w int) int {
	if w < 1 {
		return 1
	}
	return w
}

func (l *Layout) textBlock(block *html.Node, prefix, role string) {
	ln := l.newLine(uniseg.StringWidth(prefix))
	if prefix != "" {
		ln.decorate(prefix, prefixRole(block))
	}
	l.inline(ln, block, role)
}

func prefixRole(block *html.Node) string {
	if dom.KindOf(block) == dom.KindQuote {
		return "Quote"
	}
	return "ListMarker"
}

// inline lays out the units of block on ln, recording a stop for every
// offset including the end.
func (l *Layout) inline(ln *line, block *html.Node, role string) {
	for _, u := range dom.Units(block) {
		if u.Node.Type == html.TextNode {
			marks := format.MarksOf(u.Node, block)
			off := u.Start
			gr := uniseg.NewGraphemes(u.Node.Data)
			for gr.Next() {
				text, w := gr.Str(), clusterWidth(gr.Width())
				if text == "\t" {
					text, w = " ", 1
				}
				ln.stop(block, off, w)
				ln.put(Cell{Text: text, Width: w, Role: role, Marks: marks, Block: block, Offset: off})
				off++
			}
			continue
		}

		switch {
		case dom.IsElement(u.Node, "br"):
			ln.stop(block, u.Start, 0)
			ln.wrap()
		default:
			label, atomRole := atomLabel(u.Node)
			ln.stop(block, u.Start, uniseg.StringWidth(label))
			gr := uniseg.NewGraphemes(label)
			for gr.Next() {
				ln.put(Cell{Text: gr.Str(), Width: clusterWidth(gr.Width()), Role: atomRole, Block: block, Offset: u.Start})
			}
		}
	}
	ln.stop(block, dom.BlockLength(block), 0)
}

func atomLabel(n *html.Node) (string, string) {
	if dom.IsInlineCustom(n) {
		label := dom.TextContent(n)
		if label == "" {
			label = "[" + dom.AttrOr(n, dom.AttrBlockType, "widget") + "]"
		}
		return label, "Widget"
	}
	if dom.IsElement(n, "img") {
		if alt := dom.AttrOr(n, "alt", ""); alt != "" {
			return "[" + alt + "]", "Widget"
		}
		return imageLabel, "Widget"
	}
	return "?", "Widget"
}

// table puts the cells of each table row on one line.
func (l *Layout) table(t *html.Node) {
	dom.Walk(t, func(n *html.Node) bool {
		if !dom.IsElement(n, "tr") {
			return true
		}
		ln := l.newLine(0)
		first := true
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !dom.IsElement(c, "td", "th") {
				continue
			}
			if !first {
				ln.decorate(cellSeparator, "Table")
			}
			first = false
			role := "Default"
			if dom.IsElement(c, "th") {
				role = "Heading3"
			}
			l.inline(ln, c, role)
		}
		return false
	})
}

func (l *Layout) divider(hr *html.Node) {
	ln := l.newLine(0)
	ln.stop(hr, 0, 0)
	for i := 0; i < l.Width; i++ {
		ln.put(Cell{Text: "─", Width: 1, Role: "Divider", Offset: -1})
	}
}

func (l *Layout) widgetBlock(div *html.Node) {
	ln := l.newLine(uniseg.StringWidth(widgetPrefix))
	ln.stop(div, 0, 0)
	label := dom.TextContent(div)
	if label == "" {
		label = dom.AttrOr(div, dom.AttrBlockType, "block")
	}
	ln.decorate(widgetPrefix, "Widget.block")
	ln.decorate(label, "Widget.block")
}

// Locate returns the screen position of the caret at off inside block.
func (l *Layout) Locate(block *html.Node, off int) (row, x int, ok bool) {
	stops := l.caret[block]
	if len(stops) == 0 {
		return 0, 0, false
	}
	if off < 0 {
		off = 0
	}
	if off >= len(stops) {
		off = len(stops) - 1
	}
	p := stops[off]
	return p.row, p.x, true
}

// Hit maps a screen position to the closest caret stop on that row.
func (l *Layout) Hit(row, x int) (*html.Node, int, bool) {
	if row < 0 || row >= len(l.Rows) {
		return nil, 0, false
	}
	stops := l.Rows[row].Stops
	if len(stops) == 0 {
		return nil, 0, false
	}
	best := stops[0]
	for _, s := range stops[1:] {
		if s.X > x {
			break
		}
		best = s
	}
	return best.Block, best.Offset, true
}
