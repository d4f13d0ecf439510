// Package callout adds highlighted callout boxes as block-level widgets.
package callout

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/blocks"
	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/plugin"
	"github.com/bethropolis/tidemark/internal/slash"
)

var _ plugin.Plugin = (*Callout)(nil)

const (
	// BlockType is the custom block type of a callout.
	BlockType = "callout"
	// DialogKind asks the host for the callout text.
	DialogKind = "callout"

	attrTone = "data-tone"
)

// Tones a callout can take. Unknown tones read back as ToneInfo.
const (
	ToneInfo    = "info"
	ToneTip     = "tip"
	ToneWarning = "warning"
)

var tones = []string{ToneInfo, ToneTip, ToneWarning}

// Callout registers the callout widget and one slash command per tone.
type Callout struct {
	api plugin.EditorAPI
	ids []string
}

// New creates the plugin.
func New() plugin.Plugin {
	return &Callout{}
}

func (p *Callout) Name() string { return "callout" }

func (p *Callout) Initialize(api plugin.EditorAPI) error {
	p.api = api
	if err := api.RegisterBlock(Descriptor()); err != nil {
		return fmt.Errorf("register %s block: %w", BlockType, err)
	}
	for _, tone := range tones {
		cmd := Command(tone)
		if err := api.RegisterCommand(cmd); err != nil {
			p.Shutdown()
			return fmt.Errorf("register %s command: %w", cmd.ID, err)
		}
		p.ids = append(p.ids, cmd.ID)
	}
	return nil
}

func (p *Callout) Shutdown() error {
	if p.api == nil {
		return nil
	}
	for _, id := range p.ids {
		p.api.UnregisterCommand(id)
	}
	p.ids = nil
	p.api.UnregisterBlock(BlockType)
	return nil
}

// Descriptor describes the block-level callout. The payload holds "tone"
// and "text".
func Descriptor() blocks.Descriptor {
	return blocks.Descriptor{
		Type:   BlockType,
		Label:  "Callout",
		Attrs:  []string{attrTone},
		Render: render,
		Parse:  parse,
	}
}

// Command returns the palette entry inserting a callout of tone.
func Command(tone string) slash.Command {
	tone = normalizeTone(tone)
	label := "Callout (" + tone + ")"
	return slash.Command{
		ID:          "callout-" + tone,
		Label:       label,
		Category:    "Insert",
		Description: "Highlighted " + tone + " box",
		Keywords:    []string{"callout", "admonition", "note", tone},
		Dialog: &slash.Dialog{
			Kind:  DialogKind,
			Title: label,
			Complete: func(ed slash.Editor, p blocks.Payload) error {
				return ed.InsertCustomBlock(BlockType, blocks.Payload{"tone": tone, "text": p["text"]})
			},
		},
	}
}

func render(p blocks.Payload) string {
	tone := normalizeTone(p["tone"])
	text := strings.TrimSpace(p["text"])
	return blocks.Markup(BlockType, false, blocks.Payload{"tone": tone, "text": text}, text,
		html.Attribute{Key: attrTone, Val: tone})
}

func parse(el *html.Node) blocks.Payload {
	p := blocks.DecodePayload(el)
	if p["tone"] == "" {
		p["tone"] = dom.AttrOr(el, attrTone, "")
	}
	p["tone"] = normalizeTone(p["tone"])
	if _, ok := p["text"]; !ok {
		p["text"] = strings.TrimSpace(dom.TextContent(el))
	}
	return p
}

func normalizeTone(tone string) string {
	tone = strings.ToLower(strings.TrimSpace(tone))
	for _, t := range tones {
		if t == tone {
			return t
		}
	}
	return ToneInfo
}
