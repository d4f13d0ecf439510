package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/dom"
)

func parse(t *testing.T, fragment string) *html.Node {
	t.Helper()
	root := dom.NewRoot()
	require.NoError(t, dom.SetInnerHTML(root, fragment))
	return root
}

func normalized(t *testing.T, fragment string) string {
	t.Helper()
	root := parse(t, fragment)
	New(0).Normalize(root)
	return dom.InnerHTML(root)
}

func TestMergeAdjacentIdenticalInline(t *testing.T) {
	for _, n := range []int{2, 3, 7} {
		var sb strings.Builder
		sb.WriteString("<p>")
		want := ""
		for i := 0; i < n; i++ {
			sb.WriteString("<strong>x</strong>")
			want += "x"
		}
		sb.WriteString("</p>")

		root := parse(t, sb.String())
		New(0).Normalize(root)

		p := root.FirstChild
		require.Equal(t, 1, dom.ChildCount(p), "n=%d", n)
		assert.Equal(t, "strong", p.FirstChild.Data)
		assert.Equal(t, 1, dom.ChildCount(p.FirstChild), "text merged")
		assert.Equal(t, want, dom.TextContent(p))
	}
}

func TestDifferentAttributesNeverMerge(t *testing.T) {
	got := normalized(t, `<p><a href="https://a.example">a</a><a href="https://b.example">b</a></p>`)
	assert.Equal(t, `<p><a href="https://a.example">a</a><a href="https://b.example">b</a></p>`, got)
}

func TestRemovesEmptyInline(t *testing.T) {
	assert.Equal(t, `<p>ab</p>`, normalized(t, `<p>a<em></em><strong><u></u></strong>b</p>`))
	assert.Equal(t, `<p>a b</p>`, normalized(t, `<p>a<strong> </strong>b</p>`))
}

func TestKeepsAtomsAndMarkers(t *testing.T) {
	in := `<p>a<strong><span data-caret-marker="m1"></span></strong><span data-custom-block="true" data-inline="true"></span><br/></p>`
	assert.Equal(t, in, normalized(t, in))
}

func TestInlineWidgetsDoNotMerge(t *testing.T) {
	in := `<p><span data-custom-block="true" data-inline="true">A</span><span data-custom-block="true" data-inline="true">A</span></p>`
	assert.Equal(t, in, normalized(t, in))
}

func TestUnwrapsRedundantNesting(t *testing.T) {
	assert.Equal(t, `<p><em>deep</em></p>`, normalized(t, `<p><em><em><em>deep</em></em></em></p>`))
	assert.Equal(t, `<blockquote>q</blockquote>`, normalized(t, `<blockquote><blockquote>q</blockquote></blockquote>`))
}

func TestWrapsStrayRootContent(t *testing.T) {
	assert.Equal(t, `<p>loose <strong>bold</strong></p><h1>h</h1><p>x</p><p>tail</p>`,
		normalized(t, "loose <strong>bold</strong><h1>h</h1>\n  <p>x</p>tail"))
}

func TestMergesAdjacentListsOfSameKind(t *testing.T) {
	got := normalized(t, `<ul><li>a</li></ul><ul><li>b</li></ul><ol><li>c</li></ol><ul data-checklist="true"><li>d</li></ul>`)
	assert.Equal(t, `<ul><li>a</li><li>b</li></ul><ol><li>c</li></ol><ul data-checklist="true"><li>d</li></ul>`, got)
}

func TestEmptyRootGetsParagraph(t *testing.T) {
	assert.Equal(t, `<p></p>`, normalized(t, ""))
	assert.Equal(t, `<p></p>`, normalized(t, "   "))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		`<p>a<strong>b</strong><strong>c</strong><em></em></p>`,
		`text<ul><li>x</li></ul><ul><li><s><s>y</s></s></li></ul>`,
		`<h2 id="t">T<code></code></h2><table><tbody><tr><td>a<u>b</u><u>c</u></td></tr></tbody></table>`,
		`<p><strong>a<em>b</em></strong><strong><em>c</em>d</strong></p>`,
		``,
	}
	for _, in := range inputs {
		root := parse(t, in)
		z := New(0)
		z.Normalize(root)
		once := dom.InnerHTML(root)
		assert.Equal(t, 0, z.Normalize(root), "second run changes nothing: %s", in)
		assert.Equal(t, once, dom.InnerHTML(root))
	}
}

func TestPassCeiling(t *testing.T) {
	root := parse(t, `<p><em><em><em><em>x</em></em></em></em></p>`)
	assert.LessOrEqual(t, New(1).Normalize(root), 1)
}
