// internal/statusbar/statusbar.go
package statusbar

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/bethropolis/tidemark/internal/config"
	"github.com/bethropolis/tidemark/internal/theme"
)

// Config defines the behavior of the status bar.
type Config struct {
	MessageTimeout time.Duration
	Now            func() time.Time
}

// DefaultConfig provides sensible defaults.
func DefaultConfig() Config {
	return Config{
		MessageTimeout: config.MessageTimeout,
		Now:            time.Now,
	}
}

// StatusBar is the bottom line: note title, block kind, plugin segments and
// temporary messages.
type StatusBar struct {
	config Config
	mu     sync.RWMutex

	title      string
	isModified bool
	blockKind  string
	segments   map[string]string

	tempMessage     string
	tempMessageTime time.Time
}

// New creates a new StatusBar with the given configuration.
func New(cfg Config) *StatusBar {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &StatusBar{
		config:   cfg,
		segments: make(map[string]string),
	}
}

// SetNoteInfo updates the note title and modified flag.
func (sb *StatusBar) SetNoteInfo(title string, modified bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.title = title
	sb.isModified = modified
}

// SetBlockKind updates the kind of the caret block.
func (sb *StatusBar) SetBlockKind(kind string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.blockKind = kind
}

// SetSegment sets a keyed segment shown on the right; empty text removes it.
func (sb *StatusBar) SetSegment(key, text string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if text == "" {
		delete(sb.segments, key)
		return
	}
	sb.segments[key] = text
}

// SetTemporaryMessage displays a message for the configured duration.
func (sb *StatusBar) SetTemporaryMessage(format string, args ...interface{}) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.tempMessage = fmt.Sprintf(format, args...)
	sb.tempMessageTime = sb.config.Now()
}

// ResetTemporaryMessage clears any temporary message being displayed.
func (sb *StatusBar) ResetTemporaryMessage() {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.tempMessage = ""
	sb.tempMessageTime = time.Time{}
}

// Message returns the active temporary message.
func (sb *StatusBar) Message() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.activeMessage()
}

// activeMessage expires a stale message. Callers hold the write lock.
func (sb *StatusBar) activeMessage() (string, bool) {
	if sb.tempMessageTime.IsZero() {
		return "", false
	}
	if sb.config.Now().Sub(sb.tempMessageTime) > sb.config.MessageTimeout {
		sb.tempMessage = ""
		sb.tempMessageTime = time.Time{}
		return "", false
	}
	return sb.tempMessage, true
}

func (sb *StatusBar) leftText() string {
	title := sb.title
	if title == "" {
		title = "[Untitled]"
	}
	if sb.isModified {
		title += " [Modified]"
	}
	if sb.blockKind != "" {
		title += " -- " + sb.blockKind
	}
	return title
}

func (sb *StatusBar) rightText() string {
	keys := make([]string, 0, len(sb.segments))
	for k := range sb.segments {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, sb.segments[k])
	}
	return strings.Join(parts, " | ")
}

// Draw renders the status bar on the last screen row.
func (sb *StatusBar) Draw(screen tcell.Screen, width, height int, th *theme.Theme) {
	if height <= 0 || width <= 0 {
		return
	}
	y := height - 1

	sb.mu.Lock()
	msg, hasMsg := sb.activeMessage()
	left, right := sb.leftText(), sb.rightText()
	modified := sb.isModified
	sb.mu.Unlock()

	base := th.GetStyle("StatusBar")
	for x := 0; x < width; x++ {
		screen.SetContent(x, y, ' ', nil, base)
	}

	if hasMsg {
		drawString(screen, 0, y, width, msg, th.GetStyle("StatusBarMessage"))
		return
	}

	leftStyle := base
	if modified {
		leftStyle = th.GetStyle("StatusBarModified")
	}
	end := drawString(screen, 0, y, width, left, leftStyle)

	if right == "" {
		return
	}
	rx := width - uniseg.StringWidth(right)
	if rx <= end {
		return
	}
	drawString(screen, rx, y, width, right, th.GetStyle("StatusBarSegment"))
}

func drawString(screen tcell.Screen, x, y, width int, text string, style tcell.Style) int {
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		clusterWidth := gr.Width()
		if x+clusterWidth > width {
			break
		}
		runes := gr.Runes()
		if len(runes) > 0 {
			screen.SetContent(x, y, runes[0], runes[1:], style)
		}
		x += clusterWidth
	}
	return x
}
