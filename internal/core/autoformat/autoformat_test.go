package autoformat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/core/cursor"
	"github.com/bethropolis/tidemark/internal/core/format"
	"github.com/bethropolis/tidemark/internal/core/normalize"
	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/settle"
)

type fixture struct {
	root *html.Node
	cur  *cursor.Manager
	disp *format.Dispatcher
	af   *Formatter
}

func setup(t *testing.T, fragment string) *fixture {
	t.Helper()
	root := dom.NewRoot()
	require.NoError(t, dom.SetInnerHTML(root, fragment))
	cur := cursor.NewManager(root, settle.Sync{}, 32)
	disp := format.NewDispatcher(format.Options{
		Cursor:     cur,
		Normalizer: normalize.New(0),
		Scheduler:  settle.Sync{},
		Now:        func() time.Time { return time.UnixMilli(1700000000000) },
	})
	cur.PlaceAt(root.FirstChild, cursor.EdgeEnd)
	return &fixture{root: root, cur: cur, disp: disp, af: New(cur, disp, true)}
}

// typeText inserts s one character at a time, running the formatter after
// each space like the engine does.
func (f *fixture) typeText(s string) {
	for _, r := range s {
		f.disp.InsertText(string(r))
		if r == ' ' {
			f.af.AfterSpace()
		}
	}
}

func (f *fixture) html() string { return dom.InnerHTML(f.root) }

func TestClosedBoldBecomesOneSpan(t *testing.T) {
	f := setup(t, `<p></p>`)
	f.typeText("**bold** ")
	assert.Equal(t, `<p><strong>bold</strong> </p>`, f.html())

	block, off, ok := f.cur.Current()
	require.True(t, ok)
	assert.Same(t, f.root.FirstChild, block)
	assert.Equal(t, 5, off)
}

func TestUnclosedDelimiterStaysLiteral(t *testing.T) {
	f := setup(t, `<p></p>`)
	f.typeText("**bold ")
	assert.Equal(t, `<p>**bold </p>`, f.html())

	f = setup(t, `<p></p>`)
	f.typeText("**** ")
	assert.Equal(t, `<p>**** </p>`, f.html())

	f = setup(t, `<p></p>`)
	f.typeText("** x** ")
	assert.Equal(t, `<p>** x** </p>`, f.html())
}

func TestInlinePatterns(t *testing.T) {
	cases := map[string]string{
		"see *this* ":     `<p>see <em>this</em> </p>`,
		"~~gone~~ ":       `<p><s>gone</s> </p>`,
		"run `ls -la` ":   `<p>run <code>ls -la</code> </p>`,
		"__under__ ":      `<p><u>under</u> </p>`,
		"**two words** ":  `<p><strong>two words</strong> </p>`,
		"__snake_case__ ": `<p><u>snake_case</u> </p>`,
		"**a*b** ":        `<p><strong>a*b</strong> </p>`,
	}
	for typed, want := range cases {
		f := setup(t, `<p></p>`)
		f.typeText(typed)
		assert.Equal(t, want, f.html(), typed)
	}
}

func TestBlockPatterns(t *testing.T) {
	cases := []struct {
		typed string
		kind  dom.Kind
	}{
		{"# ", dom.KindHeading1},
		{"## ", dom.KindHeading2},
		{"### ", dom.KindHeading3},
		{"- ", dom.KindBullet},
		{"* ", dom.KindBullet},
		{"1. ", dom.KindNumbered},
		{"[ ] ", dom.KindChecklist},
		{"> ", dom.KindQuote},
	}
	for _, tc := range cases {
		f := setup(t, `<p></p>`)
		f.typeText(tc.typed)
		block, off, ok := f.cur.Current()
		require.True(t, ok, tc.typed)
		assert.Equal(t, tc.kind, dom.KindOf(block), tc.typed)
		assert.Equal(t, "", dom.FlatText(block), tc.typed)
		assert.Equal(t, 0, off, tc.typed)
	}
}

func TestCheckedChecklistPattern(t *testing.T) {
	f := setup(t, `<p></p>`)
	f.typeText("[x] done")
	block, _, ok := f.cur.Current()
	require.True(t, ok)
	assert.Equal(t, dom.KindChecklist, dom.KindOf(block))
	assert.Equal(t, "true", dom.AttrOr(block, dom.AttrChecked, ""))
	assert.Equal(t, "done", dom.FlatText(block))
}

func TestBlockPatternNeedsOtherwiseEmptyBlock(t *testing.T) {
	f := setup(t, `<p>tail</p>`)
	f.cur.Place(f.root.FirstChild, 0, false)
	f.typeText("# ")
	assert.Equal(t, `<p># tail</p>`, f.html())
}

func TestDividerOnEnter(t *testing.T) {
	f := setup(t, `<p></p>`)
	f.typeText("---")
	require.True(t, f.af.OnEnter())
	assert.Equal(t, `<hr/><p></p>`, f.html())

	f = setup(t, `<p>--</p>`)
	assert.False(t, f.af.OnEnter())
}

func TestInlinePatternBeforeEnter(t *testing.T) {
	f := setup(t, `<p></p>`)
	f.typeText("**bold**")
	assert.False(t, f.af.OnEnter(), "Enter still splits the block")
	assert.Equal(t, `<p><strong>bold</strong></p>`, f.html())

	block, off, ok := f.cur.Current()
	require.True(t, ok)
	assert.Equal(t, 4, off)
	f.disp.SplitBlock(block, off, dom.KindUnknown)
	assert.Equal(t, `<p><strong>bold</strong></p><p></p>`, f.html())

	f = setup(t, `<p></p>`)
	f.typeText("**bold")
	assert.False(t, f.af.OnEnter())
	assert.Equal(t, `<p>**bold</p>`, f.html())
}

func TestDisabledFormatterNeverFires(t *testing.T) {
	f := setup(t, `<p></p>`)
	f.af.SetEnabled(false)
	f.typeText("# **x** ")
	assert.Equal(t, `<p># **x** </p>`, f.html())
	f.typeText("---")
	assert.False(t, f.af.OnEnter())
}
