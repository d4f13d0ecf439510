package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStyleFallsBackToBaseName(t *testing.T) {
	th := TidemarkDark
	assert.Equal(t, th.Styles["Widget"], th.GetStyle("Widget.inline"))
	assert.Equal(t, th.Styles["Default"], th.GetStyle("NoSuchStyle"))

	empty := Theme{Name: "empty"}
	assert.Equal(t, tcell.StyleDefault, empty.GetStyle("Default"))
}

func TestParseThemeInheritsDefault(t *testing.T) {
	th, err := ParseTheme(`
name = "Paper"
is_dark = false

[styles.Default]
fg = "#111111"
bg = "white"

[styles.Heading1]
bold = true
strikethrough = false
`)
	require.NoError(t, err)
	assert.Equal(t, "Paper", th.Name)
	assert.False(t, th.IsDark)

	fg, bg, attrs := th.GetStyle("Heading1").Decompose()
	assert.Equal(t, tcell.NewHexColor(0x111111), fg)
	assert.Equal(t, tcell.ColorWhite, bg)
	assert.NotZero(t, attrs&tcell.AttrBold)
}

func TestParseThemeSkipsBadStyles(t *testing.T) {
	th, err := ParseTheme(`
[styles.Link]
fg = "#12"
`)
	require.NoError(t, err)
	_, ok := th.Styles["Link"]
	assert.False(t, ok)
}

func TestParseThemeRejectsBrokenToml(t *testing.T) {
	_, err := ParseTheme(`name = `)
	assert.Error(t, err)
}

func TestManagerLoadsDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sepia.toml"), []byte(`
[styles.Default]
fg = "#704214"
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	m := NewManager(dir)
	assert.Equal(t, []string{"Tidemark Dark", "Tidemark Light", "sepia"}, m.ListThemes())
	assert.Equal(t, "Tidemark Dark", m.Current().Name)

	require.NoError(t, m.SetTheme("SEPIA"))
	assert.Equal(t, "sepia", m.Current().Name)
	assert.Error(t, m.SetTheme("missing"))
}

func TestManagerNextCycles(t *testing.T) {
	m := NewManager("")
	assert.Equal(t, "Tidemark Light", m.Next().Name)
	assert.Equal(t, "Tidemark Dark", m.Next().Name)
}

func TestManagerMissingDirectory(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "absent"))
	assert.Len(t, m.ListThemes(), 2)
}
