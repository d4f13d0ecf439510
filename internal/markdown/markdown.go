// Package markdown turns pasted markdown into the document's block grammar.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/dom"
)

// Converter renders markdown with the extensions the grammar can express.
type Converter struct {
	md goldmark.Markdown
}

// NewConverter creates a converter.
func NewConverter() *Converter {
	return &Converter{md: goldmark.New(
		goldmark.WithExtensions(
			extension.Strikethrough,
			extension.Table,
			extension.TaskList,
			extension.Linkify,
			&headingClamp{},
		),
	)}
}

// headingClamp folds h4-h6 into h3, the deepest heading the document has.
type headingClamp struct{}

func (e *headingClamp) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&headingClampTransformer{}, 100),
	))
}

type headingClampTransformer struct{}

func (t *headingClampTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok && h.Level > 3 {
			h.Level = 3
		}
		return ast.WalkContinue, nil
	})
}

// ToHTML converts markdown to a fragment of the block grammar. The result
// still has to pass the sanitizer.
func (c *Converter) ToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	root := dom.NewRoot()
	if err := dom.SetInnerHTML(root, buf.String()); err != nil {
		return "", fmt.Errorf("parse rendered markdown: %w", err)
	}
	fixTaskLists(root)
	unwrapItemParagraphs(root)
	return dom.InnerHTML(root), nil
}

// fixTaskLists replaces the checkbox inputs goldmark emits with the
// checklist attributes.
func fixTaskLists(root *html.Node) {
	var items []*html.Node
	dom.Walk(root, func(n *html.Node) bool {
		if dom.IsElement(n, "li") {
			items = append(items, n)
		}
		return true
	})
	for _, li := range items {
		box := firstCheckbox(li)
		if box == nil {
			continue
		}
		_, checked := dom.Attr(box, "checked")
		if checked {
			dom.SetAttr(li, dom.AttrChecked, "true")
		} else {
			dom.SetAttr(li, dom.AttrChecked, "false")
		}
		if next := box.NextSibling; dom.IsText(next) {
			next.Data = strings.TrimLeft(next.Data, " ")
		}
		dom.Detach(box)
		if dom.IsElement(li.Parent, "ul") {
			dom.SetAttr(li.Parent, dom.AttrChecklist, "true")
		}
	}
}

func firstCheckbox(li *html.Node) *html.Node {
	c := li.FirstChild
	if dom.IsElement(c, "p") {
		c = c.FirstChild
	}
	for ; c != nil; c = c.NextSibling {
		if dom.IsText(c) && strings.TrimSpace(c.Data) == "" {
			continue
		}
		if dom.IsElement(c, "input") && dom.AttrOr(c, "type", "") == "checkbox" {
			return c
		}
		return nil
	}
	return nil
}

// unwrapItemParagraphs flattens loose list items, which goldmark renders with
// paragraphs inside.
func unwrapItemParagraphs(root *html.Node) {
	var paras []*html.Node
	dom.Walk(root, func(n *html.Node) bool {
		if dom.IsElement(n, "p") && dom.IsElement(n.Parent, "li") {
			paras = append(paras, n)
		}
		return true
	})
	items := map[*html.Node]bool{}
	for _, p := range paras {
		items[p.Parent] = true
		if prev := prevElement(p); prev != nil {
			p.Parent.InsertBefore(dom.Element("br"), p)
		}
		dom.Unwrap(p)
	}
	for li := range items {
		for _, c := range dom.Children(li) {
			if dom.IsText(c) && strings.TrimSpace(c.Data) == "" {
				dom.Detach(c)
			}
		}
	}
}

func prevElement(n *html.Node) *html.Node {
	for c := n.PrevSibling; c != nil; c = c.PrevSibling {
		if c.Type == html.ElementNode {
			return c
		}
		if strings.TrimSpace(c.Data) != "" {
			return nil
		}
	}
	return nil
}

var markdownHints = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^#{1,6} \S`),
	regexp.MustCompile(`(?m)^\s*([-*+]|\d+\.) \S`),
	regexp.MustCompile(`(?m)^> `),
	regexp.MustCompile("(?m)^```"),
	regexp.MustCompile(`\*\*[^*\n]+\*\*`),
	regexp.MustCompile(`\[[^\]\n]+\]\([^)\s]+\)`),
	regexp.MustCompile(`(?m)^\|.*\|\s*$`),
	regexp.MustCompile(`~~[^~\n]+~~`),
}

// LooksLikeMarkdown guesses whether pasted plain text was written as
// markdown.
func LooksLikeMarkdown(s string) bool {
	for _, re := range markdownHints {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
