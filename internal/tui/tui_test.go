package tui

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/core/cursor"
	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/slash"
	"github.com/bethropolis/tidemark/internal/theme"
)

func parse(t *testing.T, fragment string) *html.Node {
	t.Helper()
	root := dom.NewRoot()
	require.NoError(t, dom.SetInnerHTML(root, fragment))
	return root
}

func rowText(r Row) string {
	var sb strings.Builder
	for _, c := range r.Cells {
		sb.WriteString(c.Text)
	}
	return sb.String()
}

func TestBuildPrefixesBlocks(t *testing.T) {
	root := parse(t, `<h1 id="hi">Hi</h1><ul><li>one</li></ul><ol><li>a</li><li>b</li></ol><blockquote>q</blockquote>`)
	l := Build(root, 20)
	require.Len(t, l.Rows, 5)
	assert.Equal(t, "Hi", rowText(l.Rows[0]))
	assert.Equal(t, "Heading1", l.Rows[0].Cells[0].Role)
	assert.Equal(t, "• one", rowText(l.Rows[1]))
	assert.Equal(t, "1. a", rowText(l.Rows[2]))
	assert.Equal(t, "2. b", rowText(l.Rows[3]))
	assert.Equal(t, "▌ q", rowText(l.Rows[4]))
}

func TestBuildWrapsAndLocates(t *testing.T) {
	root := parse(t, `<p>abcdefgh</p>`)
	p := root.FirstChild
	l := Build(root, 5)
	require.Len(t, l.Rows, 2)
	assert.Equal(t, "abcde", rowText(l.Rows[0]))
	assert.Equal(t, "fgh", rowText(l.Rows[1]))

	row, x, ok := l.Locate(p, 5)
	require.True(t, ok)
	assert.Equal(t, 1, row)
	assert.Equal(t, 0, x)

	row, x, _ = l.Locate(p, 8)
	assert.Equal(t, 1, row)
	assert.Equal(t, 3, x)
}

func TestBuildWrapsUnderPrefix(t *testing.T) {
	root := parse(t, `<blockquote>abcdef</blockquote>`)
	l := Build(root, 5)
	require.Len(t, l.Rows, 2)
	assert.Equal(t, "▌ abc", rowText(l.Rows[0]))
	assert.Equal(t, "  def", rowText(l.Rows[1]))
}

func TestBuildInlineWidgetIsOneOffset(t *testing.T) {
	root := parse(t, `<p>see <span data-custom-block="true" data-inline="true" data-block-type="note-link">[[Ideas]]</span> now</p>`)
	p := root.FirstChild
	l := Build(root, 40)
	require.Len(t, l.Rows, 1)
	assert.Equal(t, "see [[Ideas]] now", rowText(l.Rows[0]))

	_, x, _ := l.Locate(p, 5)
	assert.Equal(t, 13, x)

	block, off, ok := l.Hit(0, 8)
	require.True(t, ok)
	assert.Equal(t, p, block)
	assert.Equal(t, 4, off)
}

func TestBuildImageIsOneOffset(t *testing.T) {
	root := parse(t, `<p>a<img src="x.png" alt="cat">b</p><p><img src="y.png">c</p>`)
	first := root.FirstChild
	l := Build(root, 40)
	require.Len(t, l.Rows, 2)
	assert.Equal(t, "a[cat]b", rowText(l.Rows[0]))
	assert.Equal(t, "[image]c", rowText(l.Rows[1]))

	_, x, ok := l.Locate(first, 2)
	require.True(t, ok)
	assert.Equal(t, 6, x)
}

func TestBuildLineBreaksTablesAndDividers(t *testing.T) {
	root := parse(t, `<p>ab<br>cd</p><table><tbody><tr><td>a</td><td>b</td></tr></tbody></table><hr>`)
	l := Build(root, 6)
	require.Len(t, l.Rows, 4)
	assert.Equal(t, "ab", rowText(l.Rows[0]))
	assert.Equal(t, "cd", rowText(l.Rows[1]))
	assert.Equal(t, "a │ b", rowText(l.Rows[2]))
	assert.Equal(t, "──────", rowText(l.Rows[3]))

	p := root.FirstChild
	row, x, _ := l.Locate(p, 3)
	assert.Equal(t, 1, row)
	assert.Equal(t, 0, x)

	hr := root.LastChild
	row, _, ok := l.Locate(hr, 0)
	require.True(t, ok)
	assert.Equal(t, 3, row)
}

func TestHitOutsideRows(t *testing.T) {
	l := Build(parse(t, `<p>x</p>`), 10)
	_, _, ok := l.Hit(3, 0)
	assert.False(t, ok)
}

func newSimTUI(t *testing.T, w, h int) (*TUI, tcell.SimulationScreen) {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	tm, err := NewWithScreen(s)
	require.NoError(t, err)
	s.SetSize(w, h)
	t.Cleanup(tm.Close)
	return tm, s
}

func screenRow(s tcell.SimulationScreen, y int) string {
	cells, w, _ := s.GetContents()
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

func TestDrawShowsTextAndCaret(t *testing.T) {
	tm, s := newSimTUI(t, 20, 6)
	root := parse(t, `<p>hello</p>`)
	th := theme.TidemarkDark

	v := NewView()
	v.Draw(tm, Frame{Root: root, CaretBlock: root.FirstChild, CaretOffset: 5, HasCaret: true}, &th)
	tm.Show()

	assert.Equal(t, "hello", screenRow(s, 0))
	x, y, visible := s.GetCursor()
	assert.True(t, visible)
	assert.Equal(t, 5, x)
	assert.Equal(t, 0, y)
}

func TestDrawHighlightsSelection(t *testing.T) {
	tm, s := newSimTUI(t, 20, 4)
	root := parse(t, `<p>hello</p>`)
	p := root.FirstChild
	th := theme.TidemarkDark

	NewView().Draw(tm, Frame{
		Root:  root,
		Spans: []cursor.Span{{Block: p, From: 1, To: 3}},
	}, &th)
	tm.Show()

	cells, w, _ := s.GetContents()
	_, _, first := cells[0].Style.Decompose()
	_, _, second := cells[1].Style.Decompose()
	_, _, fourth := cells[3].Style.Decompose()
	assert.Zero(t, first&tcell.AttrReverse)
	assert.NotZero(t, second&tcell.AttrReverse)
	assert.Zero(t, fourth&tcell.AttrReverse)
	assert.Equal(t, 20, w)
}

func TestDrawPlaceholderOnBlankDocument(t *testing.T) {
	tm, s := newSimTUI(t, 30, 4)
	root := parse(t, `<p></p>`)
	th := theme.TidemarkDark

	NewView().Draw(tm, Frame{Root: root, CaretBlock: root.FirstChild, HasCaret: true, Placeholder: "Type / for commands"}, &th)
	tm.Show()
	assert.Equal(t, "Type / for commands", screenRow(s, 0))
}

func TestDrawPaletteBelowCaret(t *testing.T) {
	tm, s := newSimTUI(t, 40, 8)
	root := parse(t, `<p>/he</p>`)
	th := theme.TidemarkDark
	results := []slash.Result{
		{Command: &slash.Command{ID: "h1", Label: "Heading 1", Category: "Basic"}, Matches: []int{0, 1}},
		{Command: &slash.Command{ID: "h2", Label: "Heading 2", Category: "Basic"}},
	}

	NewView().Draw(tm, Frame{
		Root: root, CaretBlock: root.FirstChild, CaretOffset: 3, HasCaret: true,
		Palette: &Palette{Query: "he", Results: results, Selected: 1},
	}, &th)
	tm.Show()

	assert.Contains(t, screenRow(s, 1), "Heading 1")
	assert.Contains(t, screenRow(s, 1), "Basic")
	assert.Contains(t, screenRow(s, 2), "Heading 2")

	cells, w, _ := s.GetContents()
	_, _, attrs := cells[2*w+4].Style.Decompose()
	assert.NotZero(t, attrs&tcell.AttrReverse, "selected row is highlighted")
}

func TestDrawPaletteWithoutMatches(t *testing.T) {
	tm, s := newSimTUI(t, 40, 8)
	root := parse(t, `<p>/zz</p>`)
	th := theme.TidemarkDark

	NewView().Draw(tm, Frame{
		Root: root, CaretBlock: root.FirstChild, CaretOffset: 3, HasCaret: true,
		Palette: &Palette{Query: "zz"},
	}, &th)
	tm.Show()
	assert.Contains(t, screenRow(s, 1), noMatches)
}

func TestDrawPromptTakesCursor(t *testing.T) {
	tm, s := newSimTUI(t, 30, 5)
	root := parse(t, `<p>x</p>`)
	th := theme.TidemarkDark

	NewView().Draw(tm, Frame{Root: root, HasCaret: true, CaretBlock: root.FirstChild, Prompt: &Prompt{Label: "Link", Input: "http"}}, &th)
	tm.Show()

	assert.Equal(t, "Link: http", screenRow(s, 3))
	x, y, _ := s.GetCursor()
	assert.Equal(t, 10, x)
	assert.Equal(t, 3, y)
}

func TestDrawScrollsToCaret(t *testing.T) {
	tm, s := newSimTUI(t, 20, 6)
	var sb strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&sb, "<p>line %d</p>", i)
	}
	root := parse(t, sb.String())
	target := dom.Blocks(root)[20]
	th := theme.TidemarkDark

	v := NewView()
	v.Draw(tm, Frame{Root: root, CaretBlock: target, HasCaret: true}, &th)
	tm.Show()

	assert.Equal(t, 16, v.Top())
	assert.Equal(t, "line 20", screenRow(s, 4))

	block, off, ok := v.Hit(2, 4)
	require.True(t, ok)
	assert.Equal(t, target, block)
	assert.Equal(t, 2, off)
}
