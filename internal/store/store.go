// Package store keeps notes on disk: one HTML file per note plus a YAML
// sidecar with the metadata derived at save time.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/logger"
)

const (
	noteExt = ".html"
	metaExt = ".meta.yaml"

	// tempPrefix marks in-flight atomic writes; the watcher ignores them.
	tempPrefix = ".tidemark-tmp-"
)

var (
	// ErrNotFound is returned when a note does not exist.
	ErrNotFound = errors.New("note not found")
	// ErrInvalidID is returned for ids that would escape the store directory.
	ErrInvalidID = errors.New("invalid note id")
)

// Sidecar is the YAML document stored next to each note.
type Sidecar struct {
	ID       string       `yaml:"id"`
	Title    string       `yaml:"title"`
	Updated  time.Time    `yaml:"updated"`
	Metadata dom.Metadata `yaml:"metadata"`
}

// Note summarizes a stored note for listings.
type Note struct {
	ID      string
	Title   string
	Updated time.Time
	Words   int
}

// FileStore is a directory of notes. It satisfies editor.Persistence.
type FileStore struct {
	dir string
	now func() time.Time

	mu sync.Mutex
	// written remembers what this process last wrote per note so the
	// watcher can tell its own saves from external edits.
	written map[string]string
}

// New opens (and creates) a store rooted at dir.
func New(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("open store: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("open store %s: %w", dir, err)
	}
	return &FileStore{dir: dir, now: time.Now, written: map[string]string{}}, nil
}

// DefaultDir returns the notes directory under the user data dir.
func DefaultDir() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "tidemark", "notes")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "tidemark", "notes")
	}
	return filepath.Join(home, ".local", "share", "tidemark", "notes")
}

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

// NewID returns a fresh note id.
func NewID() string { return uuid.NewString() }

func validateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, tempPrefix) {
		return fmt.Errorf("%q: %w", id, ErrInvalidID)
	}
	return nil
}

func (s *FileStore) notePath(id string) string { return filepath.Join(s.dir, id+noteExt) }
func (s *FileStore) metaPath(id string) string { return filepath.Join(s.dir, id+metaExt) }

// Load returns the stored HTML of a note.
func (s *FileStore) Load(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateID(id); err != nil {
		return "", fmt.Errorf("load: %w", err)
	}
	data, err := os.ReadFile(s.notePath(id))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("load %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("load %q: %w", id, err)
	}
	return string(data), nil
}

// Save writes the note and its sidecar atomically.
func (s *FileStore) Save(ctx context.Context, id, html string, meta dom.Metadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	side := Sidecar{ID: id, Title: Title(meta), Updated: s.now().UTC(), Metadata: meta}
	out, err := yaml.Marshal(&side)
	if err != nil {
		return fmt.Errorf("save %q: encode metadata: %w", id, err)
	}

	s.mu.Lock()
	s.written[id] = html
	s.mu.Unlock()

	if err := writeFileAtomic(s.notePath(id), []byte(html), 0o644); err != nil {
		return fmt.Errorf("save %q: %w", id, err)
	}
	if err := writeFileAtomic(s.metaPath(id), out, 0o644); err != nil {
		return fmt.Errorf("save %q: %w", id, err)
	}
	logger.DebugTagf("store", "Saved %q (%d bytes, %d words)", id, len(html), meta.Words)
	return nil
}

// LoadSidecar reads the metadata sidecar of a note.
func (s *FileStore) LoadSidecar(id string) (Sidecar, error) {
	if err := validateID(id); err != nil {
		return Sidecar{}, fmt.Errorf("load metadata: %w", err)
	}
	data, err := os.ReadFile(s.metaPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return Sidecar{}, fmt.Errorf("load metadata %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Sidecar{}, fmt.Errorf("load metadata %q: %w", id, err)
	}
	var side Sidecar
	if err := yaml.Unmarshal(data, &side); err != nil {
		return Sidecar{}, fmt.Errorf("load metadata %q: %w", id, err)
	}
	return side, nil
}

// Delete removes a note and its sidecar.
func (s *FileStore) Delete(id string) error {
	if err := validateID(id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	err := os.Remove(s.notePath(id))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete %q: %w", id, err)
	}
	if err := os.Remove(s.metaPath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %q metadata: %w", id, err)
	}
	s.mu.Lock()
	s.written[id] = removedMark
	s.mu.Unlock()
	return nil
}

// List returns every note, most recently updated first. Notes without a
// readable sidecar are listed by id and file time.
func (s *FileStore) List() ([]Note, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}
	var notes []Note
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, noteExt) || strings.HasPrefix(name, tempPrefix) {
			continue
		}
		id := strings.TrimSuffix(name, noteExt)
		note := Note{ID: id, Title: id}
		if side, err := s.LoadSidecar(id); err == nil {
			note.Title = side.Title
			note.Updated = side.Updated
			note.Words = side.Metadata.Words
		} else if info, err := entry.Info(); err == nil {
			note.Updated = info.ModTime()
		}
		notes = append(notes, note)
	}
	sort.SliceStable(notes, func(i, j int) bool {
		if !notes[i].Updated.Equal(notes[j].Updated) {
			return notes[i].Updated.After(notes[j].Updated)
		}
		return notes[i].ID < notes[j].ID
	})
	return notes, nil
}

// Title names a note by its first heading, or "Untitled".
func Title(meta dom.Metadata) string {
	for _, h := range meta.Headings {
		if h.Text != "" {
			return h.Text
		}
	}
	return "Untitled"
}

// writeFileAtomic writes data to a temp file in the same directory and
// renames it over filename.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(filename), tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpFile.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), filename); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", filename, err)
	}
	return nil
}
