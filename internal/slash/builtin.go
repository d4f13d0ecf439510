package slash

import (
	"fmt"

	"github.com/bethropolis/tidemark/internal/blocks"
	"github.com/bethropolis/tidemark/internal/dom"
)

// Dialog kinds the built-in commands request.
const (
	DialogLink = "link"
)

func setBlock(kind dom.Kind) func(Editor) error {
	return func(ed Editor) error {
		if !ed.SetBlock(kind) {
			return fmt.Errorf("cannot convert block to %s", kind)
		}
		return nil
	}
}

// Builtins returns the commands every editor has.
func Builtins() []Command {
	return []Command{
		{ID: "text", Label: "Text", Category: "Basic", Description: "Plain paragraph",
			Keywords: []string{"paragraph", "p"}, Run: setBlock(dom.KindParagraph)},
		{ID: "heading1", Label: "Heading 1", Category: "Basic", Description: "Large section heading",
			Keywords: []string{"h1", "title"}, Run: setBlock(dom.KindHeading1)},
		{ID: "heading2", Label: "Heading 2", Category: "Basic", Description: "Medium section heading",
			Keywords: []string{"h2", "subtitle"}, Run: setBlock(dom.KindHeading2)},
		{ID: "heading3", Label: "Heading 3", Category: "Basic", Description: "Small section heading",
			Keywords: []string{"h3"}, Run: setBlock(dom.KindHeading3)},
		{ID: "bullet-list", Label: "Bulleted list", Category: "Lists", Description: "Simple bulleted list",
			Keywords: []string{"ul", "unordered"}, Run: setBlock(dom.KindBullet)},
		{ID: "numbered-list", Label: "Numbered list", Category: "Lists", Description: "List with numbering",
			Keywords: []string{"ol", "ordered"}, Run: setBlock(dom.KindNumbered)},
		{ID: "checklist", Label: "To-do list", Category: "Lists", Description: "Track tasks with checkboxes",
			Keywords: []string{"todo", "task", "checkbox"}, Run: setBlock(dom.KindChecklist)},
		{ID: "quote", Label: "Quote", Category: "Basic", Description: "Capture a quotation",
			Keywords: []string{"blockquote", "citation"}, Run: setBlock(dom.KindQuote)},
		{ID: "divider", Label: "Divider", Category: "Layout", Description: "Horizontal rule between blocks",
			Keywords: []string{"hr", "rule", "separator"}, Run: func(ed Editor) error {
				if !ed.InsertDivider() {
					return fmt.Errorf("cannot insert divider here")
				}
				return nil
			}},
		{ID: "table", Label: "Table", Category: "Layout", Description: "Three by three grid",
			Keywords: []string{"grid"}, Run: func(ed Editor) error {
				if !ed.InsertTable(3, 3) {
					return fmt.Errorf("cannot insert table here")
				}
				return nil
			}},
		{ID: "link", Label: "Link", Category: "Inline", Description: "Insert a hyperlink",
			Keywords: []string{"url", "href", "a"},
			Dialog: &Dialog{Kind: DialogLink, Title: "Insert link", Complete: func(ed Editor, p blocks.Payload) error {
				text := p["text"]
				if text == "" {
					text = p["href"]
				}
				return ed.InsertLink(text, p["href"])
			}}},
	}
}

// RegisterBuiltins adds Builtins to r.
func RegisterBuiltins(r *Registry) error {
	for _, c := range Builtins() {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
