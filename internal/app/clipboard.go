package app

import (
	"github.com/atotto/clipboard"

	"github.com/bethropolis/tidemark/internal/logger"
)

// Clipboard reads and writes plain text.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// systemClipboard uses the desktop clipboard.
type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// memoryClipboard keeps copied text inside the process.
type memoryClipboard struct{ text string }

func (m *memoryClipboard) ReadAll() (string, error) { return m.text, nil }

func (m *memoryClipboard) WriteAll(text string) error {
	m.text = text
	return nil
}

// newClipboard picks the system clipboard when asked for and available.
func newClipboard(useSystem bool) Clipboard {
	if !useSystem {
		return &memoryClipboard{}
	}
	if clipboard.Unsupported {
		logger.Warnf("System clipboard is not available, copying inside the editor only")
		return &memoryClipboard{}
	}
	return systemClipboard{}
}
