// Package normalize brings a document tree back into canonical form after a
// mutation. It never moves the caret; callers save and restore around it.
package normalize

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/logger"
)

const DefaultMaxPasses = 8

// Normalizer runs the canonicalization passes until nothing changes or the
// pass ceiling is reached.
type Normalizer struct {
	maxPasses int
}

// New creates a normalizer. A non-positive maxPasses uses DefaultMaxPasses.
func New(maxPasses int) *Normalizer {
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}
	return &Normalizer{maxPasses: maxPasses}
}

// Normalize canonicalizes the whole document under root and returns the
// number of rounds that changed something.
func (z *Normalizer) Normalize(root *html.Node) int {
	rounds := 0
	for rounds < z.maxPasses {
		changed := wrapRoot(root)
		changed = mergeLists(root) || changed
		changed = z.inlinePasses(root) || changed
		changed = ensureBlock(root) || changed
		if !changed {
			break
		}
		rounds++
	}
	if rounds == z.maxPasses {
		logger.WarnTagf("normalize", "Normalize: pass ceiling %d reached", z.maxPasses)
	} else if rounds > 0 {
		logger.DebugTagf("normalize", "Normalize: settled after %d round(s)", rounds)
	}
	return rounds
}

// Subtree runs only the inline passes below n. It is used on a single block
// after a local edit.
func (z *Normalizer) Subtree(n *html.Node) int {
	rounds := 0
	for rounds < z.maxPasses && z.inlinePasses(n) {
		rounds++
	}
	return rounds
}

func (z *Normalizer) inlinePasses(n *html.Node) bool {
	changed := mergeText(n)
	changed = mergeInline(n) || changed
	changed = removeEmpty(n) || changed
	changed = unwrapNesting(n) || changed
	return changed
}

// wrapRoot moves stray inline content at root into paragraphs and drops
// whitespace-only text there.
func wrapRoot(root *html.Node) bool {
	changed := false
	var para *html.Node
	for c := root.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" && para == nil:
			dom.Detach(c)
			changed = true
		case c.Type == html.CommentNode:
			dom.Detach(c)
			changed = true
		case c.Type == html.TextNode || (dom.IsElement(c) && !isRootBlock(c)):
			if para == nil {
				para = dom.Element("p")
				root.InsertBefore(para, c)
			}
			dom.Append(para, c)
			changed = true
			c = next
			continue
		}
		para = nil
		c = next
	}
	return changed
}

func isRootBlock(n *html.Node) bool {
	if dom.IsCustom(n) {
		return !dom.IsInlineCustom(n)
	}
	return dom.IsBlockTag(n.Data)
}

// mergeLists joins adjacent root lists of the same kind and drops lists
// without items.
func mergeLists(root *html.Node) bool {
	changed := false
	for c := root.FirstChild; c != nil; {
		next := c.NextSibling
		if dom.IsList(c) && dom.Find(c, func(n *html.Node) bool { return dom.IsElement(n, "li") }) == nil {
			dom.Detach(c)
			changed = true
		}
		c = next
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		for next := c.NextSibling; dom.IsList(c) && next != nil && sameElement(c, next); next = c.NextSibling {
			dom.MoveChildren(c, next)
			dom.Detach(next)
			changed = true
		}
	}
	return changed
}

// mergeText merges adjacent text nodes and drops empty ones.
func mergeText(n *html.Node) bool {
	changed := false
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.TextNode {
			if c.Data == "" || (structural(n) && strings.TrimSpace(c.Data) == "") {
				dom.Detach(c)
				changed = true
				c = next
				continue
			}
			if next != nil && next.Type == html.TextNode {
				c.Data += next.Data
				dom.Detach(next)
				changed = true
				continue
			}
		} else if c.Type == html.ElementNode && !dom.IsAtom(c) {
			changed = mergeText(c) || changed
		}
		c = next
	}
	return changed
}

// mergeInline splices adjacent identical inline siblings together, then
// recurses into the result.
func mergeInline(n *html.Node) bool {
	changed := false
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		for next := c.NextSibling; mergeable(c) && next != nil && sameElement(c, next); next = c.NextSibling {
			dom.MoveChildren(c, next)
			dom.Detach(next)
			changed = true
		}
		if c.Type == html.ElementNode && !dom.IsAtom(c) {
			changed = mergeInline(c) || changed
		}
	}
	return changed
}

// structural elements hold only elements; whitespace between them is noise.
func structural(n *html.Node) bool {
	return dom.IsElement(n, "ul", "ol", "table", "thead", "tbody", "tr")
}

func mergeable(n *html.Node) bool {
	return dom.IsElement(n) && dom.InlineTags[n.Data] && !dom.IsMarker(n) && !dom.IsCustom(n)
}

func sameElement(a, b *html.Node) bool {
	return dom.IsElement(b) && a.Data == b.Data && dom.EqualAttrs(a, b)
}

// removeEmpty deletes inline elements without text, post-order. Atoms and
// markers, and anything holding them, stay. Whitespace-only spans are
// unwrapped so the whitespace survives.
func removeEmpty(n *html.Node) bool {
	changed := false
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && !dom.IsAtom(c) && !dom.IsMarker(c) {
			changed = removeEmpty(c) || changed
			if mergeable(c) && strings.TrimSpace(dom.TextContent(c)) == "" && !holdsAnchor(c) {
				if c.FirstChild == nil {
					dom.Detach(c)
				} else {
					dom.Unwrap(c)
				}
				changed = true
			}
		}
		c = next
	}
	return changed
}

func holdsAnchor(n *html.Node) bool {
	return dom.Find(n, func(c *html.Node) bool {
		return c != n && (dom.IsAtom(c) || dom.IsMarker(c))
	}) != nil
}

// unwrapNesting collapses an element whose only child repeats its tag and
// attributes.
func unwrapNesting(n *html.Node) bool {
	changed := false
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || dom.IsAtom(c) {
			continue
		}
		changed = unwrapNesting(c) || changed
		if !nestable(c) {
			continue
		}
		for only := c.FirstChild; only != nil && only.NextSibling == nil && sameElement(c, only); only = c.FirstChild {
			dom.Unwrap(only)
			changed = true
		}
	}
	return changed
}

func nestable(n *html.Node) bool {
	return mergeable(n) || dom.IsElement(n, "blockquote")
}

// ensureBlock keeps at least one block under root.
func ensureBlock(root *html.Node) bool {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return false
		}
	}
	dom.Append(root, dom.Element("p"))
	return true
}
