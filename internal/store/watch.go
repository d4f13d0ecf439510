package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bethropolis/tidemark/internal/logger"
	"github.com/bethropolis/tidemark/internal/utils"
)

// DefaultWatchDebounce groups the bursts of events one editor save causes.
const DefaultWatchDebounce = 50 * time.Millisecond

// removedMark stands in for content once a note is deleted.
const removedMark = "\x00removed"

// Change reports a note edited outside this process.
type Change struct {
	ID      string
	Removed bool
}

// Watch reports external changes to notes until ctx is done. Writes made
// through Save are recognised and not reported. onChange runs on the
// watcher goroutine; hosts post it to their own loop.
func (s *FileStore) Watch(ctx context.Context, debounce time.Duration, onChange func(Change)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	go func() {
		defer watcher.Close()
		var mu sync.Mutex
		pending := map[string]*utils.Debouncer{}
		defer func() {
			mu.Lock()
			for _, d := range pending {
				d.Cancel()
			}
			mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				id, ok := s.idFor(ev.Name)
				if !ok || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) {
					continue
				}
				mu.Lock()
				d, exists := pending[id]
				if !exists {
					d = &utils.Debouncer{}
					pending[id] = d
				}
				mu.Unlock()
				d.Debounce(debounce, func() {
					if ctx.Err() != nil {
						return
					}
					if change, external := s.classify(id); external {
						logger.DebugTagf("store", "External change to %q (removed=%v)", id, change.Removed)
						onChange(change)
					}
				})
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.WarnTagf("store", "fsnotify error: %v", werr)
			}
		}
	}()
	return nil
}

// idFor maps a watched path to a note id; sidecars and temp files are not
// notes.
func (s *FileStore) idFor(path string) (string, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, tempPrefix) || !strings.HasSuffix(name, noteExt) {
		return "", false
	}
	id := strings.TrimSuffix(name, noteExt)
	return id, validateID(id) == nil
}

// classify compares the file on disk with what this process last wrote.
func (s *FileStore) classify(id string) (Change, bool) {
	data, err := os.ReadFile(s.notePath(id))
	s.mu.Lock()
	defer s.mu.Unlock()
	last, known := s.written[id]
	if err != nil {
		if !os.IsNotExist(err) {
			logger.WarnTagf("store", "Reading %q after change: %v", id, err)
			return Change{}, false
		}
		s.written[id] = removedMark
		return Change{ID: id, Removed: true}, last != removedMark
	}
	if known && last == string(data) {
		return Change{}, false
	}
	s.written[id] = string(data)
	return Change{ID: id}, true
}
