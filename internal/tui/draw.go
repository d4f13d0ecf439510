// internal/tui/draw.go
package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/config"
	"github.com/bethropolis/tidemark/internal/core/cursor"
	"github.com/bethropolis/tidemark/internal/core/format"
	"github.com/bethropolis/tidemark/internal/slash"
	"github.com/bethropolis/tidemark/internal/theme"
)

// Palette is the open slash palette.
type Palette struct {
	Query    string
	Results  []slash.Result
	Selected int
}

// Prompt is a one-line input shown above the status bar.
type Prompt struct {
	Label string
	Input string
}

// Frame is everything one redraw needs.
type Frame struct {
	Root        *html.Node
	Spans       []cursor.Span
	CaretBlock  *html.Node
	CaretOffset int
	HasCaret    bool
	Palette     *Palette
	Prompt      *Prompt
	Placeholder string
}

// View draws frames and remembers the scroll position.
type View struct {
	top    int
	layout *Layout
}

// NewView creates a view scrolled to the top.
func NewView() *View {
	return &View{}
}

// Top returns the first document row on screen.
func (v *View) Top() int { return v.top }

// TextHeight is the number of screen rows available to the document.
func TextHeight(height int, prompt bool) int {
	h := height - config.StatusBarHeight
	if prompt {
		h--
	}
	if h < 0 {
		return 0
	}
	return h
}

// Draw renders f. The status bar row is left alone.
func (v *View) Draw(t *TUI, f Frame, th *theme.Theme) {
	screen := t.screen
	width, height := t.Size()
	textHeight := TextHeight(height, f.Prompt != nil)
	defaultStyle := th.GetStyle("Default")

	for y := 0; y < textHeight; y++ {
		for x := 0; x < width; x++ {
			screen.SetContent(x, y, ' ', nil, defaultStyle)
		}
	}
	if width <= 0 || textHeight <= 0 {
		screen.HideCursor()
		return
	}

	v.layout = Build(f.Root, width)
	caretRow, caretX, caretOK := 0, 0, false
	if f.HasCaret {
		caretRow, caretX, caretOK = v.layout.Locate(f.CaretBlock, f.CaretOffset)
	}
	if caretOK {
		v.scrollTo(caretRow, textHeight)
	}
	if last := len(v.layout.Rows) - textHeight; v.top > last {
		v.top = last
	}
	if v.top < 0 {
		v.top = 0
	}

	for y := 0; y < textHeight; y++ {
		r := v.top + y
		if r >= len(v.layout.Rows) {
			break
		}
		x := 0
		for _, c := range v.layout.Rows[r].Cells {
			if x >= width {
				break
			}
			style := cellStyle(th, c)
			if selected(f.Spans, c) {
				style = th.GetStyle("Selection")
			}
			drawCluster(screen, x, y, c.Text, c.Width, width, style)
			x += c.Width
		}
	}

	if f.Placeholder != "" && isBlank(f.Root) && caretOK && caretRow-v.top < textHeight {
		drawText(screen, caretX, caretRow-v.top, width, f.Placeholder, th.GetStyle("Placeholder"))
	}

	if f.Prompt != nil {
		v.drawPrompt(t, f.Prompt, th, height-config.StatusBarHeight-1)
		return
	}

	if !caretOK {
		screen.HideCursor()
		return
	}
	y := caretRow - v.top
	if caretX >= width {
		caretX = width - 1
	}
	if f.Palette != nil {
		drawPalette(screen, f.Palette, th, caretX, y, width, textHeight)
	}
	screen.ShowCursor(caretX, y)
}

func (v *View) scrollTo(row, textHeight int) {
	if row < v.top {
		v.top = row
	}
	if row >= v.top+textHeight {
		v.top = row - textHeight + 1
	}
}

// Hit maps a click on screen to a caret position in the last drawn layout.
func (v *View) Hit(x, y int) (*html.Node, int, bool) {
	if v.layout == nil {
		return nil, 0, false
	}
	return v.layout.Hit(v.top+y, x)
}

// Layout returns the last drawn layout.
func (v *View) Layout() *Layout { return v.layout }

func isBlank(root *html.Node) bool {
	if root == nil || root.FirstChild == nil {
		return true
	}
	only := root.FirstChild
	return only.NextSibling == nil && only.FirstChild == nil && only.Data == "p"
}

var markOrder = []format.Mark{format.Bold, format.Italic, format.Underline, format.Strike, format.Code, format.Link}

// cellStyle starts from the cell's role and layers the styles of its marks.
func cellStyle(th *theme.Theme, c Cell) tcell.Style {
	style := th.GetStyle(c.Role)
	if c.Marks == 0 {
		return style
	}
	defFg, _, _ := th.GetStyle("Default").Decompose()
	for _, m := range markOrder {
		if c.Marks&m == 0 {
			continue
		}
		fg, _, attrs := th.GetStyle("Mark." + m.String()).Decompose()
		if fg != defFg {
			style = style.Foreground(fg)
		}
		_, _, current := style.Decompose()
		style = style.Attributes(current | attrs)
	}
	return style
}

func selected(spans []cursor.Span, c Cell) bool {
	if c.Block == nil || c.Offset < 0 {
		return false
	}
	for _, s := range spans {
		if s.Block == c.Block && c.Offset >= s.From && c.Offset < s.To {
			return true
		}
	}
	return false
}

// drawCluster draws one grapheme cluster and pads wide clusters.
func drawCluster(screen tcell.Screen, x, y int, text string, w, width int, style tcell.Style) {
	runes := []rune(text)
	if len(runes) == 0 {
		return
	}
	if x+w > width {
		screen.SetContent(x, y, ' ', nil, style)
		return
	}
	screen.SetContent(x, y, runes[0], runes[1:], style)
	for cw := 1; cw < w; cw++ {
		screen.SetContent(x+cw, y, ' ', nil, style)
	}
}

// drawText draws s from x, clipped at width, and returns the next column.
func drawText(screen tcell.Screen, x, y, width int, s string, style tcell.Style) int {
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		w := clusterWidth(gr.Width())
		if x+w > width {
			break
		}
		drawCluster(screen, x, y, gr.Str(), w, width, style)
		x += w
	}
	return x
}

const noMatches = "No matching commands"

// drawPalette draws the command list under the caret, or above it when there
// is no room below.
func drawPalette(screen tcell.Screen, p *Palette, th *theme.Theme, caretX, caretY, width, textHeight int) {
	rows := len(p.Results)
	if rows > config.PaletteMaxRows {
		rows = config.PaletteMaxRows
	}
	if rows == 0 {
		rows = 1
	}

	boxWidth := uniseg.StringWidth(noMatches) + 2
	for _, r := range p.Results[:min(len(p.Results), rows)] {
		w := uniseg.StringWidth(r.Command.Label) + uniseg.StringWidth(r.Command.Category) + 4
		if w > boxWidth {
			boxWidth = w
		}
	}
	if boxWidth > width {
		boxWidth = width
	}
	x0 := caretX
	if x0+boxWidth > width {
		x0 = width - boxWidth
	}
	y0 := caretY + 1
	if y0+rows > textHeight {
		y0 = caretY - rows
	}
	if y0 < 0 {
		y0 = 0
	}

	base := th.GetStyle("Palette")
	if len(p.Results) == 0 {
		fillRow(screen, x0, y0, boxWidth, base)
		drawText(screen, x0+1, y0, x0+boxWidth, noMatches, th.GetStyle("PaletteCategory"))
		return
	}

	first := 0
	if p.Selected >= rows {
		first = p.Selected - rows + 1
	}
	for i := 0; i < rows && first+i < len(p.Results); i++ {
		r := p.Results[first+i]
		y := y0 + i
		style := base
		if first+i == p.Selected {
			style = th.GetStyle("PaletteSelected")
		}
		fillRow(screen, x0, y, boxWidth, style)
		drawLabel(screen, x0+1, y, x0+boxWidth, r, style, th.GetStyle("PaletteMatch"))
		cat := r.Command.Category
		if cat != "" {
			cx := x0 + boxWidth - uniseg.StringWidth(cat) - 1
			catStyle := th.GetStyle("PaletteCategory")
			if first+i == p.Selected {
				catStyle = style
			}
			drawText(screen, cx, y, x0+boxWidth, cat, catStyle)
		}
	}
}

// drawLabel draws a command label with its matched bytes highlighted.
func drawLabel(screen tcell.Screen, x, y, limit int, r slash.Result, style, match tcell.Style) {
	matched := make(map[int]bool, len(r.Matches))
	for _, i := range r.Matches {
		matched[i] = true
	}
	label := r.Command.Label
	pos := 0
	gr := uniseg.NewGraphemes(label)
	for gr.Next() {
		w := clusterWidth(gr.Width())
		if x+w > limit {
			return
		}
		st := style
		if matched[pos] {
			st = match
		}
		drawCluster(screen, x, y, gr.Str(), w, limit, st)
		x += w
		pos += len(gr.Str())
	}
}

func fillRow(screen tcell.Screen, x, y, w int, style tcell.Style) {
	for i := 0; i < w; i++ {
		screen.SetContent(x+i, y, ' ', nil, style)
	}
}

func (v *View) drawPrompt(t *TUI, p *Prompt, th *theme.Theme, y int) {
	if y < 0 {
		return
	}
	width, _ := t.Size()
	fillRow(t.screen, 0, y, width, th.GetStyle("DialogInput"))
	x := drawText(t.screen, 0, y, width, p.Label+": ", th.GetStyle("Dialog"))
	x = drawText(t.screen, x, y, width, p.Input, th.GetStyle("DialogInput"))
	if x >= width {
		x = width - 1
	}
	t.screen.ShowCursor(x, y)
}
