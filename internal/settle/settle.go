// Package settle sequences work that must run after a structural mutation has
// settled in the host's render pipeline. Hosts that commit selection
// synchronously use a zero strategy; slower hosts use longer tiers so a caret
// restoration does not race the host's own selection machinery.
package settle

import (
	"sort"
	"sync"
	"time"

	"github.com/bethropolis/tidemark/internal/config"
	"github.com/bethropolis/tidemark/internal/logger"
)

// Tier orders deferred work by how invasive the preceding mutation was.
type Tier int

const (
	// TierFrame waits for one render frame only.
	TierFrame Tier = iota
	// TierShort follows light mutations such as inline formatting.
	TierShort
	// TierMedium follows insertions of content.
	TierMedium
	// TierLong follows block replacement.
	TierLong
	// TierExtraLong follows whole-document replacement (undo/redo, load).
	TierExtraLong
)

func (t Tier) String() string {
	switch t {
	case TierFrame:
		return "frame"
	case TierShort:
		return "short"
	case TierMedium:
		return "medium"
	case TierLong:
		return "long"
	case TierExtraLong:
		return "extra-long"
	default:
		return "unknown"
	}
}

// Strategy maps tiers to delays. Every tier except TierFrame also waits the
// frame delay first.
type Strategy struct {
	Frame     time.Duration
	Short     time.Duration
	Medium    time.Duration
	Long      time.Duration
	ExtraLong time.Duration
}

// Zero is the strategy for synchronous hosts.
func Zero() Strategy { return Strategy{} }

// FromConfig builds a strategy from the [settle] config table.
func FromConfig(c config.SettleConfig) Strategy {
	if c.Synchronous {
		return Zero()
	}
	return Strategy{
		Frame:     c.Frame.Std(),
		Short:     c.Short.Std(),
		Medium:    c.Medium.Std(),
		Long:      c.Long.Std(),
		ExtraLong: c.ExtraLong.Std(),
	}
}

// Delay returns the total wait for a tier.
func (s Strategy) Delay(t Tier) time.Duration {
	switch t {
	case TierFrame:
		return s.Frame
	case TierShort:
		return s.Frame + s.Short
	case TierMedium:
		return s.Frame + s.Medium
	case TierLong:
		return s.Frame + s.Long
	case TierExtraLong:
		return s.Frame + s.ExtraLong
	default:
		return s.Frame
	}
}

// IsZero reports whether every tier runs immediately.
func (s Strategy) IsZero() bool { return s == Strategy{} }

// Scheduler defers fn until the tier has elapsed. Implementations must run fn
// on the goroutine that owns the document.
type Scheduler interface {
	Defer(t Tier, fn func())
}

// Sync runs everything immediately. It is the scheduler for synchronous hosts
// and for tests that do not care about ordering.
type Sync struct{}

// Defer runs fn inline.
func (Sync) Defer(_ Tier, fn func()) { fn() }

// Timed waits on real timers and hands due work to the owning loop through
// Post, so fn never runs on a timer goroutine.
type Timed struct {
	strategy Strategy
	post     func(func())
}

// NewTimed creates a timer-backed scheduler. post must enqueue fn on the
// document-owning loop.
func NewTimed(strategy Strategy, post func(func())) *Timed {
	return &Timed{strategy: strategy, post: post}
}

// Defer schedules fn after the tier delay.
func (s *Timed) Defer(t Tier, fn func()) {
	d := s.strategy.Delay(t)
	if d <= 0 {
		s.post(fn)
		return
	}
	logger.DebugTagf("settle", "Deferring work on %s tier (%v)", t, d)
	time.AfterFunc(d, func() { s.post(fn) })
}

// Manual queues work until the host pumps it with Advance or Flush. Hosts
// that own their frame loop call Advance once per frame; tests use it for
// deterministic ordering.
type Manual struct {
	mu       sync.Mutex
	strategy Strategy
	now      time.Duration
	seq      int
	queue    []task
}

type task struct {
	due time.Duration
	seq int
	fn  func()
}

// NewManual creates a manual scheduler using strategy to compute due times.
func NewManual(strategy Strategy) *Manual {
	return &Manual{strategy: strategy}
}

// Defer queues fn.
func (m *Manual) Defer(t Tier, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.queue = append(m.queue, task{due: m.now + m.strategy.Delay(t), seq: m.seq, fn: fn})
}

// Pending returns the number of queued tasks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Advance moves the clock forward by d and runs every task now due, in due
// order. Tasks queued while running are picked up if they are also due.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	m.now += d
	m.mu.Unlock()

	ran := 0
	for {
		m.mu.Lock()
		sort.SliceStable(m.queue, func(i, j int) bool {
			if m.queue[i].due == m.queue[j].due {
				return m.queue[i].seq < m.queue[j].seq
			}
			return m.queue[i].due < m.queue[j].due
		})
		if len(m.queue) == 0 || m.queue[0].due > m.now {
			m.mu.Unlock()
			return ran
		}
		next := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()

		next.fn()
		ran++
	}
}

// Flush runs everything queued regardless of due time.
func (m *Manual) Flush() int {
	ran := 0
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return ran
		}
		var latest time.Duration
		for _, t := range m.queue {
			if t.due > latest {
				latest = t.due
			}
		}
		m.mu.Unlock()
		ran += m.Advance(latest - m.clock())
	}
}

func (m *Manual) clock() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}
