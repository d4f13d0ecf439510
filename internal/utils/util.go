package utils

import (
	"sync"
	"time"

	"github.com/rivo/uniseg"
)

// GraphemeCount returns the number of user-perceived characters in s.
func GraphemeCount(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// GraphemeToByteOffset converts a grapheme index to a byte offset in s.
// Indexes past the end clamp to len(s).
func GraphemeToByteOffset(s string, index int) int {
	if index <= 0 {
		return 0
	}
	gr := uniseg.NewGraphemes(s)
	count := 0
	for gr.Next() {
		if count == index {
			from, _ := gr.Positions()
			return from
		}
		count++
	}
	return len(s)
}

// ByteToGraphemeOffset converts a byte offset to a grapheme index in s.
// An offset inside a cluster counts the cluster as not yet passed.
func ByteToGraphemeOffset(s string, byteOffset int) int {
	if byteOffset <= 0 {
		return 0
	}
	if byteOffset >= len(s) {
		return uniseg.GraphemeClusterCount(s)
	}
	gr := uniseg.NewGraphemes(s)
	count := 0
	for gr.Next() {
		_, to := gr.Positions()
		if to > byteOffset {
			break
		}
		count++
	}
	return count
}

// PrevGraphemeBoundary returns the byte offset of the cluster that ends at or
// before byteOffset, or 0.
func PrevGraphemeBoundary(s string, byteOffset int) int {
	idx := ByteToGraphemeOffset(s, byteOffset)
	if idx == 0 {
		return 0
	}
	return GraphemeToByteOffset(s, idx-1)
}

// NextGraphemeBoundary returns the byte offset just after the cluster that
// starts at or after byteOffset, or len(s).
func NextGraphemeBoundary(s string, byteOffset int) int {
	idx := ByteToGraphemeOffset(s, byteOffset)
	return GraphemeToByteOffset(s, idx+1)
}

// Debouncer provides a way to debounce function calls
type Debouncer struct {
	mutex   sync.Mutex
	timer   *time.Timer
	pending func()
}

// Debounce calls fn after duration, canceling any previous pending call.
func (d *Debouncer) Debounce(duration time.Duration, fn func()) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = fn
	d.timer = time.AfterFunc(duration, func() {
		d.mutex.Lock()
		run := d.pending
		d.pending = nil
		d.timer = nil
		d.mutex.Unlock()
		if run != nil {
			run()
		}
	})
}

// Flush runs the pending call now, if any, and cancels its timer.
func (d *Debouncer) Flush() bool {
	d.mutex.Lock()
	run := d.pending
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mutex.Unlock()
	if run == nil {
		return false
	}
	run()
	return true
}

// Cancel drops the pending call without running it.
func (d *Debouncer) Cancel() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
}
