package statusbar

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/tidemark/internal/theme"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func lastRow(t *testing.T, s tcell.SimulationScreen) string {
	t.Helper()
	cells, w, h := s.GetContents()
	var sb strings.Builder
	for x := 0; x < w; x++ {
		c := cells[(h-1)*w+x]
		if len(c.Runes) == 0 {
			sb.WriteRune(' ')
			continue
		}
		sb.WriteString(string(c.Runes))
	}
	return strings.TrimRight(sb.String(), " ")
}

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	s.SetSize(40, 3)
	t.Cleanup(s.Fini)
	return s
}

func TestDrawShowsTitleKindAndSegments(t *testing.T) {
	s := newScreen(t)
	th := theme.TidemarkDark
	sb := New(DefaultConfig())
	sb.SetNoteInfo("Ideas", true)
	sb.SetBlockKind("heading1")
	sb.SetSegment("words", "3 words")
	sb.SetSegment("save", "modified")

	sb.Draw(s, 40, 3, &th)
	s.Show()

	row := lastRow(t, s)
	assert.True(t, strings.HasPrefix(row, "Ideas [Modified] -- heading1"))
	assert.True(t, strings.HasSuffix(row, "modified | 3 words"))

	sb.SetSegment("save", "")
	sb.Draw(s, 40, 3, &th)
	s.Show()
	assert.True(t, strings.HasSuffix(lastRow(t, s), " 3 words"))
}

func TestTemporaryMessageExpires(t *testing.T) {
	c := &clock{t: time.Unix(100, 0)}
	sb := New(Config{MessageTimeout: time.Second, Now: c.now})

	sb.SetTemporaryMessage("Saved %s", "Ideas")
	msg, ok := sb.Message()
	assert.True(t, ok)
	assert.Equal(t, "Saved Ideas", msg)

	c.t = c.t.Add(2 * time.Second)
	_, ok = sb.Message()
	assert.False(t, ok)
}

func TestMessageReplacesLine(t *testing.T) {
	s := newScreen(t)
	th := theme.TidemarkDark
	sb := New(DefaultConfig())
	sb.SetNoteInfo("", false)
	sb.Draw(s, 40, 3, &th)
	s.Show()
	assert.Equal(t, "[Untitled]", lastRow(t, s))

	sb.SetTemporaryMessage("hello")
	sb.Draw(s, 40, 3, &th)
	s.Show()
	assert.Equal(t, "hello", lastRow(t, s))

	sb.ResetTemporaryMessage()
	sb.Draw(s, 40, 3, &th)
	s.Show()
	assert.Equal(t, "[Untitled]", lastRow(t, s))
}
