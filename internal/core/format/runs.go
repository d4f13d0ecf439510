package format

import (
	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/utils"
)

// Mark is an inline formatting mark.
type Mark uint8

const (
	Bold Mark = 1 << iota
	Italic
	Underline
	Strike
	Code
	Link
)

// markOrder is the nesting order used when rebuilding, outermost first.
var markOrder = []Mark{Link, Bold, Italic, Underline, Strike, Code}

var markTags = map[Mark]string{
	Bold:      "strong",
	Italic:    "em",
	Underline: "u",
	Strike:    "s",
	Code:      "code",
	Link:      "a",
}

var tagMarks = map[string]Mark{
	"strong": Bold, "b": Bold,
	"em": Italic, "i": Italic,
	"u": Underline,
	"s": Strike, "del": Strike, "strike": Strike,
	"code": Code,
	"a":    Link,
}

func (m Mark) String() string {
	switch m {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case Underline:
		return "underline"
	case Strike:
		return "strike"
	case Code:
		return "code"
	case Link:
		return "link"
	}
	return "none"
}

// ParseMark resolves a mark name as produced by String.
func ParseMark(name string) (Mark, bool) {
	for _, m := range markOrder {
		if m.String() == name {
			return m, true
		}
	}
	return 0, false
}

// Tag returns the canonical element for m.
func (m Mark) Tag() string { return markTags[m] }

// MarksOf collects the marks of the inline elements between n and block.
func MarksOf(n, block *html.Node) Mark {
	var marks Mark
	for c := n; c != nil && c != block; c = c.Parent {
		if c.Type == html.ElementNode {
			marks |= tagMarks[c.Data]
		}
	}
	return marks
}

// run is a stretch of inline content with one mark set. Exactly one of text
// and node is meaningful: node holds an atom or a caret marker.
type run struct {
	text  string
	node  *html.Node
	marks Mark
	href  string
}

func (r run) length() int {
	switch {
	case r.node == nil:
		return utils.GraphemeCount(r.text)
	case dom.IsMarker(r.node):
		return 0
	default:
		return 1
	}
}

func (r run) isText() bool { return r.node == nil }

// flatten turns the inline content of block into runs. Unknown inline
// wrappers are dropped, keeping their content.
func flatten(block *html.Node) []run {
	var out []run
	var visit func(n *html.Node, marks Mark, href string)
	visit = func(n *html.Node, marks Mark, href string) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				if c.Data != "" {
					out = append(out, run{text: c.Data, marks: marks, href: href})
				}
			case dom.IsMarker(c) || dom.IsAtom(c):
				out = append(out, run{node: c, marks: marks, href: href})
			case c.Type == html.ElementNode:
				m, h := marks, href
				if mark, ok := tagMarks[c.Data]; ok {
					m |= mark
					if mark == Link {
						h = dom.AttrOr(c, "href", "")
					}
				}
				visit(c, m, h)
			}
		}
	}
	visit(block, 0, "")
	return out
}

// splitRuns cuts runs at grapheme offset off. Zero-length runs sitting on
// the boundary go left.
func splitRuns(runs []run, off int) (left, right []run) {
	pos := 0
	for i, r := range runs {
		l := r.length()
		switch {
		case pos+l <= off:
			left = append(left, r)
		case pos >= off:
			right = append(right, runs[i:]...)
			return left, right
		default:
			cut := utils.GraphemeToByteOffset(r.text, off-pos)
			a, b := r, r
			a.text, b.text = r.text[:cut], r.text[cut:]
			left = append(left, a)
			right = append(right, b)
			right = append(right, runs[i+1:]...)
			return left, right
		}
		pos += l
	}
	return left, right
}

// sliceRuns splits runs into before, [from,to) and after.
func sliceRuns(runs []run, from, to int) (before, mid, after []run) {
	before, rest := splitRuns(runs, from)
	mid, after = splitRuns(rest, to-from)
	return before, mid, after
}

func runsLength(runs []run) int {
	n := 0
	for _, r := range runs {
		n += r.length()
	}
	return n
}

// rebuild replaces the children of block with canonical markup for runs.
// The caller normalizes afterwards so equal neighbours merge.
func rebuild(block *html.Node, runs []run) {
	dom.RemoveChildren(block)
	for _, r := range runs {
		var leaf *html.Node
		if r.isText() {
			leaf = dom.Text(r.text)
		} else {
			leaf = r.node
			dom.Detach(leaf)
		}
		for i := len(markOrder) - 1; i >= 0; i-- {
			m := markOrder[i]
			if r.marks&m == 0 {
				continue
			}
			el := dom.Element(m.Tag())
			if m == Link {
				el.Attr = append(el.Attr, html.Attribute{Key: "href", Val: r.href})
			}
			el.AppendChild(leaf)
			leaf = el
		}
		block.AppendChild(leaf)
	}
}

// hasMark reports whether every text run carries m. Runs without text do not
// count; a range with no text at all does not carry anything.
func hasMark(runs []run, m Mark) bool {
	seen := false
	for _, r := range runs {
		if !r.isText() || r.text == "" {
			continue
		}
		seen = true
		if r.marks&m == 0 {
			return false
		}
	}
	return seen
}

// MarksAt returns the marks in effect just before grapheme offset off, the
// way a caret inherits formatting from the character to its left.
func MarksAt(block *html.Node, off int) Mark {
	left, right := splitRuns(flatten(block), off)
	for i := len(left) - 1; i >= 0; i-- {
		if left[i].isText() && left[i].text != "" {
			return left[i].marks &^ Link
		}
	}
	for _, r := range right {
		if r.isText() && r.text != "" {
			return r.marks &^ Link
		}
	}
	return 0
}
