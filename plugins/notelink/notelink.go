// Package notelink adds inline links to other notes: an atomic widget that
// shows the target's title and carries its id.
package notelink

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/blocks"
	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/plugin"
	"github.com/bethropolis/tidemark/internal/slash"
)

var _ plugin.Plugin = (*NoteLink)(nil)

const (
	// BlockType is the custom block type of a note link.
	BlockType = "note-link"
	// DialogKind asks the host for a target note id and an optional title.
	DialogKind = "note-link"

	commandID = "note-link"
)

// ErrNoTarget is returned when a dialog completes without a note id.
var ErrNoTarget = errors.New("note link needs a target note")

// NoteLink registers the note-link widget and its slash command.
type NoteLink struct {
	api plugin.EditorAPI
}

// New creates the plugin.
func New() plugin.Plugin {
	return &NoteLink{}
}

func (p *NoteLink) Name() string { return "notelink" }

func (p *NoteLink) Initialize(api plugin.EditorAPI) error {
	p.api = api
	if err := api.RegisterBlock(Descriptor()); err != nil {
		return fmt.Errorf("register %s block: %w", BlockType, err)
	}
	if err := api.RegisterCommand(Command()); err != nil {
		api.UnregisterBlock(BlockType)
		return fmt.Errorf("register %s command: %w", commandID, err)
	}
	return nil
}

func (p *NoteLink) Shutdown() error {
	if p.api != nil {
		p.api.UnregisterCommand(commandID)
		p.api.UnregisterBlock(BlockType)
	}
	return nil
}

// Descriptor describes the inline note-link widget. The payload holds "ref",
// the target note id, and "title", the text shown.
func Descriptor() blocks.Descriptor {
	return blocks.Descriptor{
		Type:   BlockType,
		Label:  "Note link",
		Inline: true,
		Render: render,
		Parse:  parse,
	}
}

// Command is the "/note" palette entry. It defers to a dialog for the
// target.
func Command() slash.Command {
	return slash.Command{
		ID:          commandID,
		Label:       "Link to note",
		Category:    "Insert",
		Description: "Embed a link to another note",
		Keywords:    []string{"note", "wiki", "reference", "[["},
		Dialog: &slash.Dialog{
			Kind:  DialogKind,
			Title: "Link to note",
			Complete: func(ed slash.Editor, p blocks.Payload) error {
				ref := strings.TrimSpace(p["ref"])
				if ref == "" {
					return ErrNoTarget
				}
				return ed.InsertCustomBlock(BlockType, blocks.Payload{"ref": ref, "title": p["title"]})
			},
		},
	}
}

func render(p blocks.Payload) string {
	ref := p["ref"]
	title := displayTitle(p)
	return blocks.Markup(BlockType, true, blocks.Payload{"ref": ref, "title": title}, "[["+title+"]]",
		html.Attribute{Key: dom.AttrRef, Val: ref},
		html.Attribute{Key: dom.AttrTitle, Val: title},
	)
}

// parse prefers the JSON payload and falls back to the plain data-ref and
// data-title attributes, so hand-written links still resolve.
func parse(el *html.Node) blocks.Payload {
	p := blocks.DecodePayload(el)
	if p["ref"] == "" {
		p["ref"] = dom.AttrOr(el, dom.AttrRef, "")
	}
	if p["title"] == "" {
		p["title"] = dom.AttrOr(el, dom.AttrTitle, "")
	}
	p["title"] = displayTitle(p)
	return p
}

func displayTitle(p blocks.Payload) string {
	if t := strings.TrimSpace(p["title"]); t != "" {
		return t
	}
	if ref := strings.TrimSpace(p["ref"]); ref != "" {
		return ref
	}
	return "Untitled"
}
