package slash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/blocks"
	"github.com/bethropolis/tidemark/internal/dom"
)

type recordingEditor struct {
	kinds []dom.Kind
	text  string
	href  string
	table [2]int
}

func (e *recordingEditor) SetBlock(kind dom.Kind) bool { e.kinds = append(e.kinds, kind); return true }
func (e *recordingEditor) InsertText(s string) bool    { e.text += s; return true }
func (e *recordingEditor) InsertDivider() bool         { return true }
func (e *recordingEditor) InsertTable(rows, cols int) bool {
	e.table = [2]int{rows, cols}
	return true
}
func (e *recordingEditor) InsertCustomBlock(string, blocks.Payload) error { return nil }
func (e *recordingEditor) InsertLink(text, href string) error {
	e.text, e.href = text, href
	return nil
}

func builtinRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, RegisterBuiltins(r))
	return r
}

func paragraph(t *testing.T, inner string) *html.Node {
	t.Helper()
	root := dom.NewRoot()
	require.NoError(t, dom.SetInnerHTML(root, "<p>"+inner+"</p>"))
	return root.FirstChild
}

func TestRegistryRejectsDuplicatesAndIncompleteCommands(t *testing.T) {
	r := builtinRegistry(t)
	err := r.Register(Command{ID: "text", Label: "Again", Run: func(Editor) error { return nil }})
	assert.ErrorIs(t, err, ErrDuplicate)

	assert.Error(t, r.Register(Command{ID: "x", Label: "X"}))
	assert.Error(t, r.Register(Command{ID: "y", Label: "Y", Dialog: &Dialog{Kind: "k"}}))

	r.Unregister("text")
	_, ok := r.Get("text")
	assert.False(t, ok)
	assert.Contains(t, r.Categories(), "Lists")
}

func TestFilterRanksLabelMatchesFirst(t *testing.T) {
	r := builtinRegistry(t)
	results := NewFilter().Search(r.All(), "head", 0)
	require.Len(t, results, 3)
	for _, res := range results {
		assert.Contains(t, res.Command.Label, "Heading")
	}

	results = NewFilter().Search(r.All(), "todo", 0)
	require.NotEmpty(t, results)
	assert.Equal(t, "checklist", results[0].Command.ID)

	assert.Empty(t, NewFilter().Search(r.All(), "zzzz", 0))
	assert.Len(t, NewFilter().Search(r.All(), "", 4), 4)
}

func TestAtWordBoundary(t *testing.T) {
	assert.True(t, AtWordBoundary("", 0))
	assert.True(t, AtWordBoundary("ab cd", 3))
	assert.False(t, AtWordBoundary("ab cd", 2))
	assert.False(t, AtWordBoundary("http:", 5))
}

func TestPaletteSession(t *testing.T) {
	r := builtinRegistry(t)
	p := NewPalette(r, "", 0)
	block := paragraph(t, "go ")

	require.True(t, p.ShouldOpen(block, 3, "/"))
	assert.False(t, p.ShouldOpen(block, 2, "/"))
	assert.False(t, p.ShouldOpen(block, 3, "x"))

	block.FirstChild.Data = "go /"
	p.Open(block, 3)
	require.True(t, p.Active())
	assert.Len(t, p.Results(), DefaultLimit)

	block.FirstChild.Data = "go /quo"
	require.True(t, p.Update(block, 7))
	assert.Equal(t, "quo", p.Query())
	cmd, ok := p.Selected()
	require.True(t, ok)
	assert.Equal(t, "quote", cmd.ID)

	b, from, to := p.Span()
	assert.Same(t, block, b)
	assert.Equal(t, 3, from)
	assert.Equal(t, 7, to)

	block.FirstChild.Data = "go /quo "
	assert.False(t, p.Update(block, 8))
	assert.False(t, p.Active())
}

func TestPaletteClosesWhenCaretLeaves(t *testing.T) {
	p := NewPalette(builtinRegistry(t), "/", 0)
	block := paragraph(t, "/h")
	p.Open(block, 0)
	require.True(t, p.Update(block, 2))
	assert.False(t, p.Update(block, 0))

	p.Open(block, 0)
	assert.False(t, p.Update(paragraph(t, "/h"), 2))
}

func TestPaletteMoveWraps(t *testing.T) {
	p := NewPalette(builtinRegistry(t), "/", 3)
	p.Open(paragraph(t, "/"), 0)
	p.Move(-1)
	assert.Equal(t, 2, p.SelectedIndex())
	p.Move(2)
	assert.Equal(t, 1, p.SelectedIndex())
}

func TestBuiltinsDriveTheEditor(t *testing.T) {
	r := builtinRegistry(t)
	ed := &recordingEditor{}

	h2, _ := r.Get("heading2")
	require.NoError(t, h2.Run(ed))
	assert.Equal(t, []dom.Kind{dom.KindHeading2}, ed.kinds)

	tbl, _ := r.Get("table")
	require.NoError(t, tbl.Run(ed))
	assert.Equal(t, [2]int{3, 3}, ed.table)

	link, _ := r.Get("link")
	require.True(t, link.NeedsInput())
	require.NoError(t, link.Dialog.Complete(ed, blocks.Payload{"href": "https://go.dev"}))
	assert.Equal(t, "https://go.dev", ed.text)
	assert.Equal(t, "https://go.dev", ed.href)
}
