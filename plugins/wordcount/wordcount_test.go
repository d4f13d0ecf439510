package wordcount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/plugin/plugintest"
)

func TestSegmentFollowsTyping(t *testing.T) {
	f := plugintest.New(t, nil)
	p := New()
	require.NoError(t, p.Initialize(f.Host))
	assert.Equal(t, "0 words", f.Status.Segments[segmentKey])

	f.Engine.TypeText("one")
	assert.Equal(t, "1 word", f.Status.Segments[segmentKey])
	f.Engine.TypeText(" two three")
	assert.Equal(t, "3 words", f.Status.Segments[segmentKey])

	require.NoError(t, p.Shutdown())
	_, shown := f.Status.Segments[segmentKey]
	assert.False(t, shown)
}

func TestWordCountCommand(t *testing.T) {
	f := plugintest.New(t, nil)
	require.NoError(t, New().Initialize(f.Host))
	f.Engine.LoadHTML("n1", "<h1>Plan</h1><p>ship it</p>")

	require.NoError(t, f.Engine.RunCommand("word-count"))
	assert.Equal(t, "Words: 3, Characters: 11, Blocks: 2, Headings: 1", f.Status.LastMessage())
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "1 word", Summary(dom.Metadata{Words: 1}))
	assert.Equal(t, "0 words", Summary(dom.Metadata{}))
}
