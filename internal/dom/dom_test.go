package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func rootOf(t *testing.T, fragment string) *html.Node {
	t.Helper()
	root := NewRoot()
	require.NoError(t, SetInnerHTML(root, fragment))
	return root
}

func TestKindsAndBlocks(t *testing.T) {
	root := rootOf(t, `<h1 id="a">A</h1><p>b</p><ul><li>c</li><li>d</li></ul>`+
		`<ul data-checklist="true"><li data-checked="false">e</li></ul><ol><li>f</li></ol>`+
		`<hr><table><tbody><tr><td>g</td><td>h</td></tr></tbody></table>`+
		`<div data-custom-block="true" data-inline="false" data-block-type="callout">i</div>`)

	var kinds []Kind
	for _, b := range Blocks(root) {
		kinds = append(kinds, KindOf(b))
	}
	assert.Equal(t, []Kind{
		KindHeading1, KindParagraph, KindBullet, KindBullet, KindChecklist, KindNumbered,
		KindDivider, KindTable, KindTable, KindCustom,
	}, kinds)
}

func TestBlockOfIsBounded(t *testing.T) {
	root := rootOf(t, `<p><strong><em><u>deep</u></em></strong></p>`)
	text := root.FirstChild.FirstChild.FirstChild.FirstChild.FirstChild
	require.True(t, IsText(text))

	assert.Equal(t, root.FirstChild, BlockOf(root, text, 8))
	assert.Nil(t, BlockOf(root, text, 2), "walk gives up past the bound")
	assert.Nil(t, BlockOf(root, Text("detached"), 8))
}

func TestOffsetsRoundTrip(t *testing.T) {
	root := rootOf(t, `<p>ab<strong>cd</strong><span data-custom-block="true" data-inline="true">W</span>ef</p>`)
	p := root.FirstChild

	assert.Equal(t, 7, BlockLength(p), "ab cd atom ef")
	assert.Equal(t, "abcd\uFFFCef", FlatText(p))

	for off := 0; off <= 7; off++ {
		node, o := PointAt(p, off)
		assert.Equal(t, off, OffsetOf(p, node, o), "offset %d", off)
	}

	node, o := PointAt(p, 99)
	assert.Equal(t, 7, OffsetOf(p, node, o), "clamped to end")
}

func TestOffsetOfElementPoints(t *testing.T) {
	root := rootOf(t, `<p>ab<strong>cd</strong></p>`)
	p := root.FirstChild
	assert.Equal(t, 0, OffsetOf(p, p, 0))
	assert.Equal(t, 2, OffsetOf(p, p, 1))
	assert.Equal(t, 4, OffsetOf(p, p, 2))
}

func TestCutRangeAcrossFormatting(t *testing.T) {
	root := rootOf(t, `<p>hello <strong>big</strong> world</p>`)
	p := root.FirstChild
	CutRange(p, 3, 11)
	assert.Equal(t, "helorld", TextContent(p))
}

func TestInsertAtPointSplitsText(t *testing.T) {
	root := rootOf(t, `<p>abcd</p>`)
	p := root.FirstChild
	node, o := PointAt(p, 2)
	InsertAtPoint(node, o, Element("br"))
	assert.Equal(t, `<p>ab<br/>cd</p>`, OuterHTML(p))
}

func TestPathAndNodeAt(t *testing.T) {
	root := rootOf(t, `<p>a</p><ul><li>b</li><li>c</li></ul>`)
	li := Blocks(root)[2]
	path := Path(root, li)
	assert.Equal(t, []int{1, 1}, path)
	assert.Same(t, li, NodeAt(root, path))
	assert.Nil(t, NodeAt(root, []int{5}))
}

func TestCollectMetadata(t *testing.T) {
	root := rootOf(t, `<h1 id="intro">Intro</h1><p>one two three</p><h2 id="next">Next step</h2>`)
	meta := Collect(root)
	assert.Equal(t, 6, meta.Words)
	assert.Equal(t, 3, meta.Blocks)
	assert.Equal(t, []Heading{
		{Level: 1, Text: "Intro", ID: "intro"},
		{Level: 2, Text: "Next step", ID: "next"},
	}, meta.Headings)
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Title":             "title",
		"Hello, World!":     "hello-world",
		"  spaced   out  ":  "spaced-out",
		"C++ & Go_lang":     "c-go-lang",
		"!!!":               "",
		"Ünïcode Heading 2": "ünïcode-heading-2",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slug(in), in)
	}
}
