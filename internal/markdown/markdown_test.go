package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadingsAndInline(t *testing.T) {
	c := NewConverter()
	out, err := c.ToHTML("# Title\n\nsome **bold** and ~~gone~~ text\n\n##### deep\n")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<del>gone</del>")
	assert.Contains(t, out, "<h3>deep</h3>")
}

func TestTaskListBecomesChecklist(t *testing.T) {
	c := NewConverter()
	out, err := c.ToHTML("- [ ] open\n- [x] done\n")
	require.NoError(t, err)
	assert.Contains(t, out, `<ul data-checklist="true">`)
	assert.Contains(t, out, `<li data-checked="false">open</li>`)
	assert.Contains(t, out, `<li data-checked="true">done</li>`)
	assert.NotContains(t, out, "input")
}

func TestLooseListItemsFlatten(t *testing.T) {
	c := NewConverter()
	out, err := c.ToHTML("- one\n\n- two\n")
	require.NoError(t, err)
	assert.NotContains(t, out, "<p>")
	assert.Contains(t, out, "<li>one</li>")
}

func TestTable(t *testing.T) {
	c := NewConverter()
	out, err := c.ToHTML("| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>1</td>")
}

func TestLooksLikeMarkdown(t *testing.T) {
	for _, s := range []string{"# Heading", "- item", "1. first", "> quote", "a **b** c", "[x](https://e.com)", "```\ncode\n```"} {
		assert.True(t, LooksLikeMarkdown(s), s)
	}
	for _, s := range []string{"plain sentence.", "price is 5 * 3", "#hashtag"} {
		assert.False(t, LooksLikeMarkdown(s), s)
	}
}
