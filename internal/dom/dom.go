// Package dom holds the document model of the editing engine: a live
// golang.org/x/net/html tree whose root element owns block-level children.
//
// Block grammar:
//
//	<p>                                   paragraph
//	<h1 id> <h2 id> <h3 id>               headings
//	<blockquote>                          quote
//	<ul><li>                              bullet list item
//	<ol><li>                              numbered list item
//	<ul data-checklist><li data-checked>  checklist item
//	<hr>                                  divider
//	<table><tbody><tr><td>                table
//	<div data-custom-block data-inline="false" data-block-type>   custom block
//
// Inline content uses strong, em, u, s, code and a, plus atomic inline custom
// widgets (<span data-custom-block data-inline="true">) and <br>.
package dom

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attributes understood by the engine. The sanitizer allow-list is built from
// the same names.
const (
	AttrCustomBlock = "data-custom-block"
	AttrBlockType   = "data-block-type"
	AttrInline      = "data-inline"
	AttrPayload     = "data-payload"
	AttrRef         = "data-ref"
	AttrTitle       = "data-title"
	AttrChecklist   = "data-checklist"
	AttrChecked     = "data-checked"
	// AttrMarker tags transient caret markers. It never survives sanitization.
	AttrMarker = "data-caret-marker"
)

// Kind classifies a block.
type Kind int

const (
	KindUnknown Kind = iota
	KindParagraph
	KindHeading1
	KindHeading2
	KindHeading3
	KindQuote
	KindBullet
	KindNumbered
	KindChecklist
	KindDivider
	KindTable
	KindCustom
)

var kindNames = map[Kind]string{
	KindUnknown:   "unknown",
	KindParagraph: "paragraph",
	KindHeading1:  "heading1",
	KindHeading2:  "heading2",
	KindHeading3:  "heading3",
	KindQuote:     "quote",
	KindBullet:    "bullet",
	KindNumbered:  "numbered",
	KindChecklist: "checklist",
	KindDivider:   "divider",
	KindTable:     "table",
	KindCustom:    "custom",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind resolves a kind name as produced by String.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name && k != KindUnknown {
			return k, true
		}
	}
	return KindUnknown, false
}

// IsHeading reports whether k is one of the heading levels.
func (k Kind) IsHeading() bool {
	return k == KindHeading1 || k == KindHeading2 || k == KindHeading3
}

// IsListItem reports whether k lives inside a list element.
func (k Kind) IsListItem() bool {
	return k == KindBullet || k == KindNumbered || k == KindChecklist
}

// IsTextual reports whether k holds editable inline content.
func (k Kind) IsTextual() bool {
	switch k {
	case KindParagraph, KindHeading1, KindHeading2, KindHeading3, KindQuote,
		KindBullet, KindNumbered, KindChecklist:
		return true
	}
	return false
}

// HeadingLevel returns 1..3 for headings and 0 otherwise.
func (k Kind) HeadingLevel() int {
	switch k {
	case KindHeading1:
		return 1
	case KindHeading2:
		return 2
	case KindHeading3:
		return 3
	}
	return 0
}

// Tag returns the element that carries a textual kind (li for list items).
func (k Kind) Tag() string {
	switch k {
	case KindParagraph:
		return "p"
	case KindHeading1:
		return "h1"
	case KindHeading2:
		return "h2"
	case KindHeading3:
		return "h3"
	case KindQuote:
		return "blockquote"
	case KindBullet, KindNumbered, KindChecklist:
		return "li"
	case KindDivider:
		return "hr"
	case KindTable:
		return "table"
	case KindCustom:
		return "div"
	}
	return ""
}

var blockTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "ul": true, "ol": true, "hr": true, "table": true,
	"div": true, "pre": true,
}

// InlineTags is the allow-list of inline formatting elements the normalizer
// may merge.
var InlineTags = map[string]bool{
	"strong": true, "b": true, "em": true, "i": true, "u": true,
	"s": true, "del": true, "strike": true, "code": true, "a": true, "span": true,
}

// IsBlockTag reports whether tag is block-level at the root.
func IsBlockTag(tag string) bool { return blockTags[tag] }

// Element creates a detached element.
func Element(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// Text creates a detached text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// NewRoot creates the editable root element.
func NewRoot() *html.Node {
	return Element("div")
}

// IsElement reports whether n is an element with one of the given tags (any
// element when no tags are given).
func IsElement(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if n.Data == t {
			return true
		}
	}
	return false
}

// IsText reports whether n is a text node.
func IsText(n *html.Node) bool {
	return n != nil && n.Type == html.TextNode
}

// Attr returns the value of key on n.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns the value of key, or def when absent.
func AttrOr(n *html.Node, key, def string) string {
	if v, ok := Attr(n, key); ok {
		return v
	}
	return def
}

// SetAttr sets key on n, replacing any previous value.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes key from n.
func RemoveAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

// EqualAttrs reports whether a and b carry the same attribute set.
func EqualAttrs(a, b *html.Node) bool {
	if len(a.Attr) != len(b.Attr) {
		return false
	}
	for _, x := range a.Attr {
		v, ok := Attr(b, x.Key)
		if !ok || v != x.Val {
			return false
		}
	}
	return true
}

// IsCustom reports whether n is a custom block or inline widget.
func IsCustom(n *html.Node) bool {
	return IsElement(n) && AttrOr(n, AttrCustomBlock, "") == "true"
}

// IsInlineCustom reports whether n is an inline-flow custom widget.
func IsInlineCustom(n *html.Node) bool {
	return IsCustom(n) && AttrOr(n, AttrInline, "") == "true"
}

// IsMarker reports whether n is a transient caret marker.
func IsMarker(n *html.Node) bool {
	_, ok := Attr(n, AttrMarker)
	return ok && IsElement(n)
}

// IsAtom reports whether n is an indivisible inline unit counted as one
// character by text offsets.
func IsAtom(n *html.Node) bool {
	return IsElement(n, "br", "img") || IsInlineCustom(n)
}

// Detach removes n from its parent, if any.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// ReplaceWith puts repl where old is and detaches old.
func ReplaceWith(old, repl *html.Node) {
	if old.Parent == nil {
		return
	}
	Detach(repl)
	old.Parent.InsertBefore(repl, old)
	old.Parent.RemoveChild(old)
}

// InsertAfter inserts n as the next sibling of ref.
func InsertAfter(ref, n *html.Node) {
	Detach(n)
	ref.Parent.InsertBefore(n, ref.NextSibling)
}

// Append moves n to the end of parent's children.
func Append(parent, n *html.Node) {
	Detach(n)
	parent.AppendChild(n)
}

// MoveChildren moves every child of src to the end of dst.
func MoveChildren(dst, src *html.Node) {
	for c := src.FirstChild; c != nil; {
		next := c.NextSibling
		src.RemoveChild(c)
		dst.AppendChild(c)
		c = next
	}
}

// RemoveChildren detaches every child of n.
func RemoveChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

// Unwrap replaces n with its children.
func Unwrap(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
		c = next
	}
	parent.RemoveChild(n)
}

// Children returns a snapshot of n's children.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// ChildCount returns the number of children of n.
func ChildCount(n *html.Node) int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

// ChildAt returns the i-th child of n, or nil.
func ChildAt(n *html.Node, i int) *html.Node {
	if i < 0 {
		return nil
	}
	c := n.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling
	}
	return c
}

// Index returns the position of n among its siblings.
func Index(n *html.Node) int {
	i := 0
	for c := n.PrevSibling; c != nil; c = c.PrevSibling {
		i++
	}
	return i
}

// Attached reports whether n is root or a descendant of root.
func Attached(root, n *html.Node) bool {
	for c := n; c != nil; c = c.Parent {
		if c == root {
			return true
		}
	}
	return false
}

// Contains reports whether n is ancestor or equal to d.
func Contains(n, d *html.Node) bool {
	return n != nil && d != nil && Attached(n, d)
}

// Path returns the child-index path from root to n, or nil when n is detached.
func Path(root, n *html.Node) []int {
	var rev []int
	for c := n; c != root; c = c.Parent {
		if c == nil {
			return nil
		}
		rev = append(rev, Index(c))
	}
	path := make([]int, len(rev))
	for i := range rev {
		path[i] = rev[len(rev)-1-i]
	}
	return path
}

// NodeAt resolves a path produced by Path.
func NodeAt(root *html.Node, path []int) *html.Node {
	n := root
	for _, i := range path {
		n = ChildAt(n, i)
		if n == nil {
			return nil
		}
	}
	return n
}

// Clone deep-copies n. The copy is detached.
func Clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.AppendChild(Clone(ch))
	}
	return c
}

// Walk visits n and its descendants depth-first, pre-order. Returning false
// from fn skips the node's children.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		Walk(c, fn)
		c = next
	}
}

// Find returns the first descendant of n (inclusive) matching pred.
func Find(n *html.Node, pred func(*html.Node) bool) *html.Node {
	var found *html.Node
	Walk(n, func(c *html.Node) bool {
		if found != nil {
			return false
		}
		if pred(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

// TextContent concatenates the text under n, skipping caret markers.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	Walk(n, func(c *html.Node) bool {
		if IsMarker(c) {
			return false
		}
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

var fragmentContext = &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}

// Parse parses an HTML fragment in the context of the root element. The
// returned nodes are detached.
func Parse(fragment string) ([]*html.Node, error) {
	return html.ParseFragment(strings.NewReader(fragment), fragmentContext)
}

// SetInnerHTML replaces the children of n with the parsed fragment.
func SetInnerHTML(n *html.Node, fragment string) error {
	nodes, err := Parse(fragment)
	if err != nil {
		return err
	}
	RemoveChildren(n)
	for _, c := range nodes {
		Append(n, c)
	}
	return nil
}

// InnerHTML serializes the children of n.
func InnerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// OuterHTML serializes n itself.
func OuterHTML(n *html.Node) string {
	var buf bytes.Buffer
	_ = html.Render(&buf, n)
	return buf.String()
}
