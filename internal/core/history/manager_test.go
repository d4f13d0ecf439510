package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(s string) Entry { return Entry{HTML: s} }

func TestUndoRedoInvariants(t *testing.T) {
	m := NewManager(10)
	m.Push(entry("a"))
	m.Push(entry("b"))

	got := m.Undo()
	require.NotNil(t, got)
	assert.Equal(t, "a", got.HTML)

	assert.Nil(t, m.Undo(), "base state cannot be undone")

	got = m.Redo()
	require.NotNil(t, got)
	assert.Equal(t, "b", got.HTML)
	assert.Nil(t, m.Redo())
}

func TestPushAfterUndoDiscardsRedo(t *testing.T) {
	m := NewManager(10)
	for _, s := range []string{"a", "b", "c"} {
		m.Push(entry(s))
	}
	m.Undo()
	m.Undo()
	assert.True(t, m.CanRedo())

	m.Push(entry("d"))
	assert.False(t, m.CanRedo())
	assert.Nil(t, m.Redo())

	got := m.Undo()
	require.NotNil(t, got)
	assert.Equal(t, "a", got.HTML)
}

func TestCapacityDropsOldest(t *testing.T) {
	m := NewManager(3)
	for i := 0; i < 5; i++ {
		m.Push(entry(fmt.Sprint(i)))
	}
	undo, _ := m.Len()
	assert.Equal(t, 3, undo)

	assert.Equal(t, "3", m.Undo().HTML)
	assert.Equal(t, "2", m.Undo().HTML)
	assert.Nil(t, m.Undo())
}

func TestReplaceTopCoalesces(t *testing.T) {
	m := NewManager(10)
	m.Push(entry("a"))
	m.Push(entry("ab"))
	m.ReplaceTop(entry("abc"))
	m.ReplaceTop(entry("abcd"))

	cur, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "abcd", cur.HTML)
	assert.Equal(t, "a", m.Undo().HTML)
}

func TestPushSameHTMLKeepsOneEntry(t *testing.T) {
	m := NewManager(10)
	m.Push(entry("a"))
	m.Push(entry("a"))
	undo, _ := m.Len()
	assert.Equal(t, 1, undo)
	assert.False(t, m.CanUndo())
}

func TestClear(t *testing.T) {
	m := NewManager(0)
	m.Push(entry("a"))
	m.Push(entry("b"))
	m.Undo()
	m.Clear()
	undo, redo := m.Len()
	assert.Zero(t, undo)
	assert.Zero(t, redo)
	_, ok := m.Current()
	assert.False(t, ok)
}
