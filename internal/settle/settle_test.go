package settle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/tidemark/internal/config"
)

func defaultStrategy() Strategy {
	return FromConfig(config.NewDefaultConfig().Settle)
}

func TestStrategyDelaysIncludeFrame(t *testing.T) {
	s := defaultStrategy()
	assert.Equal(t, config.DefaultFrameDelay, s.Delay(TierFrame))
	assert.Equal(t, config.DefaultFrameDelay+config.DefaultLongDelay, s.Delay(TierLong))
	assert.Greater(t, s.Delay(TierExtraLong), s.Delay(TierLong))
	assert.Greater(t, s.Delay(TierMedium), s.Delay(TierShort))
}

func TestSynchronousConfigIsZero(t *testing.T) {
	c := config.NewDefaultConfig().Settle
	c.Synchronous = true
	assert.True(t, FromConfig(c).IsZero())
	assert.Equal(t, time.Duration(0), FromConfig(c).Delay(TierExtraLong))
}

func TestSyncRunsInline(t *testing.T) {
	ran := false
	Sync{}.Defer(TierExtraLong, func() { ran = true })
	assert.True(t, ran)
}

func TestManualRunsInDueOrder(t *testing.T) {
	m := NewManual(defaultStrategy())
	var order []string
	m.Defer(TierExtraLong, func() { order = append(order, "extra") })
	m.Defer(TierShort, func() { order = append(order, "short") })
	m.Defer(TierLong, func() { order = append(order, "long") })

	assert.Equal(t, 0, m.Advance(config.DefaultFrameDelay))
	assert.Equal(t, 1, m.Advance(config.DefaultShortDelay))
	assert.Equal(t, []string{"short"}, order)

	assert.Equal(t, 2, m.Flush())
	assert.Equal(t, []string{"short", "long", "extra"}, order)
	assert.Equal(t, 0, m.Pending())
}

func TestManualPicksUpNestedWork(t *testing.T) {
	m := NewManual(Zero())
	var order []int
	m.Defer(TierFrame, func() {
		order = append(order, 1)
		m.Defer(TierFrame, func() { order = append(order, 2) })
	})
	require.Equal(t, 2, m.Flush())
	assert.Equal(t, []int{1, 2}, order)
}

func TestTimedPostsToLoop(t *testing.T) {
	loop := make(chan func(), 4)
	s := NewTimed(Strategy{Frame: time.Millisecond, Short: time.Millisecond}, func(fn func()) { loop <- fn })

	ran := make(chan struct{})
	s.Defer(TierShort, func() { close(ran) })

	select {
	case fn := <-loop:
		fn()
	case <-time.After(time.Second):
		t.Fatal("timed work never posted")
	}
	<-ran
}
