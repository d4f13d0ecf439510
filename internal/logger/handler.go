package logger

import (
	"context"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
)

const tagKey = "tag" // The slog attribute key used for filtering tags

// filteringHandler wraps a base slog.Handler to add tag, package and file filtering.
type filteringHandler struct {
	baseHandler slog.Handler
	cfg         *Config
	attrs       []slog.Attr // attrs bound through WithAttrs, searched for the tag
}

func newFilteringHandler(base slog.Handler, cfg *Config) *filteringHandler {
	return &filteringHandler{
		baseHandler: base,
		cfg:         cfg,
	}
}

// Enabled checks if the level is enabled by the base handler.
func (h *filteringHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.baseHandler.Enabled(ctx, level)
}

// allowed applies the enable/disable pair for one dimension.
// A disabled match always wins; an enabled list excludes everything not on it.
func allowed(value string, enabled, disabled map[string]struct{}) bool {
	if value == "" {
		return enabled == nil
	}
	if disabled != nil {
		if _, found := disabled[value]; found {
			return false
		}
	}
	if enabled != nil {
		if _, found := enabled[value]; !found {
			return false
		}
	}
	return true
}

// sourceOf resolves the package directory and file name of a record.
func sourceOf(r slog.Record) (pkg, file string) {
	if r.PC == 0 {
		return "", ""
	}
	frames := runtime.CallersFrames([]uintptr{r.PC})
	frame, _ := frames.Next()
	if frame.File == "" {
		return "", ""
	}
	return strings.ToLower(filepath.Base(filepath.Dir(frame.File))), strings.ToLower(filepath.Base(frame.File))
}

// Handle applies filtering logic before passing the record to the base handler.
func (h *filteringHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg == nil || !h.cfg.hasFilters() {
		return h.baseHandler.Handle(ctx, r)
	}

	pkg, file := sourceOf(r)
	if pkg != "" && !allowed(pkg, h.cfg.enabledPackagesSet, h.cfg.disabledPackagesSet) {
		return nil
	}
	if file != "" && !allowed(file, h.cfg.enabledFilesSet, h.cfg.disabledFilesSet) {
		return nil
	}

	tag := ""
	for _, a := range h.attrs {
		if a.Key == tagKey {
			tag = strings.ToLower(a.Value.String())
		}
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == tagKey {
			tag = strings.ToLower(a.Value.String())
			return false
		}
		return true
	})
	if !allowed(tag, h.cfg.enabledTagsSet, h.cfg.disabledTagsSet) {
		return nil
	}

	return h.baseHandler.Handle(ctx, r)
}

// WithAttrs returns a new handler with attributes added.
func (h *filteringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := newFilteringHandler(h.baseHandler.WithAttrs(attrs), h.cfg)
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return next
}

// WithGroup returns a new handler with a group added.
func (h *filteringHandler) WithGroup(name string) slog.Handler {
	next := newFilteringHandler(h.baseHandler.WithGroup(name), h.cfg)
	next.attrs = h.attrs
	return next
}
