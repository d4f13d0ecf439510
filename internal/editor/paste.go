package editor

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/core/cursor"
	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/logger"
	"github.com/bethropolis/tidemark/internal/markdown"
	"github.com/bethropolis/tidemark/internal/utils"
)

// Paste inserts clipboard content at the caret. rich is HTML from the
// clipboard and wins when present; plain text that looks like markdown is
// converted first. Everything passes the sanitizer.
func (e *Engine) Paste(plain, rich string) bool {
	fragment := rich
	if fragment == "" {
		if plain == "" {
			return false
		}
		fragment = e.plainToHTML(plain)
	}

	e.syncAllowList()
	staging := dom.NewRoot()
	if err := dom.SetInnerHTML(staging, e.san.Sanitize(fragment)); err != nil {
		logger.Warnf("editor: pasted content did not parse: %v", err)
		return false
	}
	e.norm.Normalize(staging)
	pasted := dom.Children(staging)

	return e.mutate(opPaste, true, func() bool {
		if !e.cur.Collapsed() {
			e.disp.DeleteSelection()
		}
		block, off, ok := e.caret()
		if !ok {
			return false
		}
		kind := dom.KindOf(block)
		if len(pasted) == 1 && dom.KindOf(pasted[0]) == dom.KindParagraph {
			return e.disp.InsertInlineFrom(pasted[0])
		}
		if kind == dom.KindTable {
			return e.pasteIntoCell(pasted)
		}
		e.pasteBlocks(block, off, pasted)
		return true
	})
}

func (e *Engine) plainToHTML(plain string) string {
	plain = strings.ReplaceAll(plain, "\r\n", "\n")
	if e.cfg.MarkdownPaste && markdown.LooksLikeMarkdown(plain) {
		converted, err := e.md.ToHTML(plain)
		if err == nil {
			return converted
		}
		logger.Warnf("editor: markdown paste failed, pasting as text: %v", err)
	}
	lines := strings.Split(strings.TrimRight(plain, "\n"), "\n")
	if len(lines) == 1 {
		return html.EscapeString(lines[0])
	}
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString("<p>")
		sb.WriteString(html.EscapeString(line))
		sb.WriteString("</p>")
	}
	return sb.String()
}

// pasteIntoCell flattens pasted blocks into the current cell, one line each.
func (e *Engine) pasteIntoCell(pasted []*html.Node) bool {
	changed := false
	for i, b := range pasted {
		if i > 0 {
			e.disp.InsertInline(dom.Element("br"))
		}
		if e.disp.InsertInlineFrom(b) {
			changed = true
		}
	}
	return changed
}

// pasteBlocks puts pasted blocks at root level around the caret block,
// splitting it when the caret sits inside its text.
func (e *Engine) pasteBlocks(block *html.Node, off int, pasted []*html.Node) {
	kind := dom.KindOf(block)
	var before *html.Node
	switch {
	case kind == dom.KindParagraph && dom.IsEmptyBlock(block) && block.Parent == e.root:
		before = block.NextSibling
		dom.Detach(block)
	case block.Parent == e.root && kind.IsTextual():
		switch {
		case off == 0:
			before = block
		case off >= dom.BlockLength(block):
			before = block.NextSibling
		default:
			before = e.disp.SplitBlock(block, off, dom.KindUnknown)
		}
	default:
		if top := dom.TopLevel(e.root, block); top != nil {
			before = top.NextSibling
		}
	}

	for _, b := range pasted {
		dom.Detach(b)
		e.root.InsertBefore(b, before)
	}
	e.ensureHeadingIDs()

	last := pasted[len(pasted)-1]
	var target *html.Node
	for _, b := range dom.Blocks(e.root) {
		if b == last || dom.Contains(last, b) {
			target = b
		}
	}
	if target == nil {
		e.cur.Fallback(nil)
		return
	}
	e.cur.PlaceAt(target, cursor.EdgeEnd)
	logger.DebugTagf("editor", "Pasted %d block(s)", len(pasted))
}

// SelectedText returns the plain text of the selection, one line per block.
func (e *Engine) SelectedText() string {
	if e.cur.Collapsed() {
		return ""
	}
	var parts []string
	for _, s := range e.cur.Spans() {
		text := dom.FlatText(s.Block)
		from := utils.GraphemeToByteOffset(text, s.From)
		to := utils.GraphemeToByteOffset(text, s.To)
		parts = append(parts, strings.ReplaceAll(text[from:to], string(dom.AtomRune), ""))
	}
	return strings.Join(parts, "\n")
}

// Cut removes the selection and returns its text.
func (e *Engine) Cut() string {
	text := e.SelectedText()
	if text == "" {
		return ""
	}
	e.mutate(opDelete, true, e.disp.DeleteSelection)
	return text
}
