package dom

import (
	"golang.org/x/net/html"
)

// KindOf classifies a block unit as returned by Blocks or BlockOf.
func KindOf(n *html.Node) Kind {
	if !IsElement(n) {
		return KindUnknown
	}
	if IsCustom(n) {
		return KindCustom
	}
	switch n.Data {
	case "p", "div", "pre", "h4", "h5", "h6":
		return KindParagraph
	case "h1":
		return KindHeading1
	case "h2":
		return KindHeading2
	case "h3":
		return KindHeading3
	case "blockquote":
		return KindQuote
	case "hr":
		return KindDivider
	case "table", "td", "th":
		return KindTable
	case "li":
		return listKind(n.Parent)
	case "ul", "ol":
		return listKind(n)
	}
	return KindUnknown
}

func listKind(list *html.Node) Kind {
	switch {
	case IsElement(list, "ol"):
		return KindNumbered
	case IsElement(list, "ul") && AttrOr(list, AttrChecklist, "") == "true":
		return KindChecklist
	case IsElement(list, "ul"):
		return KindBullet
	}
	return KindUnknown
}

// IsList reports whether n is a list container.
func IsList(n *html.Node) bool {
	return IsElement(n, "ul", "ol")
}

// isUnit reports whether n is an editable block unit under root.
func isUnit(root, n *html.Node) bool {
	if !IsElement(n) || n.Parent == nil {
		return false
	}
	if n.Parent == root {
		return !IsList(n) && !IsElement(n, "table")
	}
	if IsElement(n, "li") && IsList(n.Parent) && n.Parent.Parent == root {
		return true
	}
	if IsElement(n, "td", "th") {
		for p := n.Parent; p != nil; p = p.Parent {
			if IsElement(p, "table") {
				return p.Parent == root
			}
		}
	}
	return false
}

// Blocks returns the block units of root in document order. Lists expand to
// their items and tables to their cells.
func Blocks(root *html.Node) []*html.Node {
	var out []*html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case IsList(c):
			for li := c.FirstChild; li != nil; li = li.NextSibling {
				if IsElement(li, "li") {
					out = append(out, li)
				}
			}
		case IsElement(c, "table"):
			Walk(c, func(n *html.Node) bool {
				if IsElement(n, "td", "th") {
					out = append(out, n)
					return false
				}
				return true
			})
		case IsElement(c):
			out = append(out, c)
		}
	}
	return out
}

// BlockOf walks up from n (inclusive) to the block unit containing it. The
// walk is bounded by maxDepth steps; nil means no valid block was found.
func BlockOf(root, n *html.Node, maxDepth int) *html.Node {
	steps := 0
	for c := n; c != nil && c != root; c = c.Parent {
		if steps > maxDepth {
			return nil
		}
		if isUnit(root, c) {
			return c
		}
		steps++
	}
	return nil
}

// TopLevel returns the direct child of root that contains n.
func TopLevel(root, n *html.Node) *html.Node {
	for c := n; c != nil; c = c.Parent {
		if c.Parent == root {
			return c
		}
	}
	return nil
}

// PrevBlock returns the block unit before block in document order.
func PrevBlock(root, block *html.Node) *html.Node {
	var prev *html.Node
	for _, b := range Blocks(root) {
		if b == block {
			return prev
		}
		prev = b
	}
	return nil
}

// NextBlock returns the block unit after block in document order.
func NextBlock(root, block *html.Node) *html.Node {
	found := false
	for _, b := range Blocks(root) {
		if found {
			return b
		}
		if b == block {
			found = true
		}
	}
	return nil
}

// IsEmptyBlock reports whether a textual block has no text and no atoms.
func IsEmptyBlock(block *html.Node) bool {
	if !KindOf(block).IsTextual() {
		return false
	}
	return BlockLength(block) == 0
}
