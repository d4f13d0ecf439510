package dom

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/utils"
)

// AtomRune stands in for an atom in flat text.
const AtomRune = '\uFFFC'

// Unit is one measurable piece of a block's inline content: a text node or an
// atom. Start and Len are in grapheme clusters.
type Unit struct {
	Node  *html.Node
	Start int
	Len   int
}

// Units lists the text nodes and atoms of block in document order. Markers
// and the inside of atoms are skipped.
func Units(block *html.Node) []Unit {
	var out []Unit
	pos := 0
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case IsMarker(c):
			case c.Type == html.TextNode:
				l := utils.GraphemeCount(c.Data)
				out = append(out, Unit{Node: c, Start: pos, Len: l})
				pos += l
			case IsAtom(c):
				out = append(out, Unit{Node: c, Start: pos, Len: 1})
				pos++
			case c.Type == html.ElementNode:
				visit(c)
			}
		}
	}
	visit(block)
	return out
}

// BlockLength returns the length of block in grapheme clusters, atoms
// counting as one.
func BlockLength(block *html.Node) int {
	units := Units(block)
	if len(units) == 0 {
		return 0
	}
	last := units[len(units)-1]
	return last.Start + last.Len
}

// FlatText renders block's inline content with atoms as AtomRune, so string
// offsets line up with grapheme offsets.
func FlatText(block *html.Node) string {
	var sb strings.Builder
	for _, u := range Units(block) {
		if u.Node.Type == html.TextNode {
			sb.WriteString(u.Node.Data)
		} else {
			sb.WriteRune(AtomRune)
		}
	}
	return sb.String()
}

// OffsetOf converts a DOM point (node, offset) inside block to a grapheme
// offset. For text nodes offset is a byte offset; for elements it is a child
// index. Points outside block count as the end of block.
func OffsetOf(block, node *html.Node, offset int) int {
	count := 0
	var visit func(n *html.Node) bool
	visit = func(n *html.Node) bool {
		if n == node && n.Type == html.TextNode {
			if offset > len(n.Data) {
				offset = len(n.Data)
			}
			if offset < 0 {
				offset = 0
			}
			count += utils.ByteToGraphemeOffset(n.Data, offset)
			return true
		}
		if IsMarker(n) {
			return n == node
		}
		if n.Type == html.TextNode {
			count += utils.GraphemeCount(n.Data)
			return false
		}
		if n != block && IsAtom(n) {
			count++
			return n == node
		}
		i := 0
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if n == node && i == offset {
				return true
			}
			if visit(c) {
				return true
			}
			i++
		}
		return n == node
	}
	visit(block)
	return count
}

// PointAt converts a grapheme offset within block to a DOM point, preferring
// positions inside text nodes. Offsets past the end clamp to the end.
func PointAt(block *html.Node, offset int) (*html.Node, int) {
	if offset < 0 {
		offset = 0
	}
	remaining := offset
	var lastNode *html.Node
	lastOff := 0
	var foundNode *html.Node
	foundOff := 0

	var visit func(n *html.Node) bool
	visit = func(n *html.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case IsMarker(c):
			case c.Type == html.TextNode:
				l := utils.GraphemeCount(c.Data)
				if remaining <= l {
					foundNode, foundOff = c, utils.GraphemeToByteOffset(c.Data, remaining)
					return true
				}
				remaining -= l
				lastNode, lastOff = c, len(c.Data)
			case IsAtom(c):
				if remaining == 0 {
					foundNode, foundOff = n, Index(c)
					return true
				}
				remaining--
				lastNode, lastOff = n, Index(c)+1
			case c.Type == html.ElementNode:
				if visit(c) {
					return true
				}
			}
		}
		return false
	}
	if visit(block) {
		return foundNode, foundOff
	}
	if lastNode != nil {
		return lastNode, lastOff
	}
	return block, 0
}

// SplitText splits text node t at byte offset off and returns the two halves.
// Either half is nil when off lies on an edge.
func SplitText(t *html.Node, off int) (left, right *html.Node) {
	if off <= 0 {
		return nil, t
	}
	if off >= len(t.Data) {
		return t, nil
	}
	right = Text(t.Data[off:])
	t.Data = t.Data[:off]
	if t.Parent != nil {
		t.Parent.InsertBefore(right, t.NextSibling)
	}
	return t, right
}

// SplitAt makes grapheme offset off in block fall between two nodes by
// splitting the text node it lands in.
func SplitAt(block *html.Node, off int) {
	node, o := PointAt(block, off)
	if node.Type == html.TextNode {
		SplitText(node, o)
	}
}

// InsertAtPoint inserts n at the DOM point (node, offset), splitting a text
// node when needed.
func InsertAtPoint(node *html.Node, offset int, n *html.Node) {
	Detach(n)
	if node.Type == html.TextNode {
		left, right := SplitText(node, offset)
		switch {
		case right != nil:
			right.Parent.InsertBefore(n, right)
		case left != nil:
			left.Parent.InsertBefore(n, left.NextSibling)
		}
		return
	}
	node.InsertBefore(n, ChildAt(node, offset))
}

// CutRange removes the inline content between grapheme offsets from and to.
// Elements emptied by the cut are left for the normalizer.
func CutRange(block *html.Node, from, to int) {
	if to <= from {
		return
	}
	SplitAt(block, to)
	SplitAt(block, from)
	for _, u := range Units(block) {
		if u.Len > 0 && u.Start >= from && u.Start+u.Len <= to {
			Detach(u.Node)
		}
	}
}
