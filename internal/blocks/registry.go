// Package blocks holds the registry of custom block types: embedded widgets
// that render from an opaque payload and parse it back from their markup.
package blocks

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/logger"
)

var (
	// ErrDuplicate is returned when a type is registered twice.
	ErrDuplicate = errors.New("block type already registered")
	// ErrUnknownType is returned for types nobody registered.
	ErrUnknownType = errors.New("unknown block type")
	// ErrMalformed is returned when rendered markup does not match its
	// descriptor.
	ErrMalformed = errors.New("malformed custom block markup")
)

// Payload is the opaque record a block type stores in its markup.
type Payload map[string]string

// Descriptor defines one custom block type.
type Descriptor struct {
	Type  string
	Label string
	// Inline selects inline flow (a widget inside text) over block flow.
	// Rendered markup must say the same in its data-inline attribute.
	Inline bool
	// Attrs lists extra data-* attributes the markup carries, so the
	// sanitizer lets them through.
	Attrs  []string
	Render func(Payload) string
	// Parse must never fail; missing or broken attributes yield a default
	// payload.
	Parse func(*html.Node) Payload
}

// Registry maps block types to descriptors.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]Descriptor)}
}

// Register adds a descriptor. Each type registers once.
func (r *Registry) Register(d Descriptor) error {
	if d.Type == "" || d.Render == nil || d.Parse == nil {
		return fmt.Errorf("register block %q: type, render and parse are required", d.Type)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[d.Type]; exists {
		return fmt.Errorf("register block %q: %w", d.Type, ErrDuplicate)
	}
	r.types[d.Type] = d
	logger.DebugTagf("blocks", "Registered block type %q (inline=%v)", d.Type, d.Inline)
	return nil
}

// Unregister removes a type. Plugins call it on shutdown.
func (r *Registry) Unregister(typ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.types, typ)
}

// Get returns the descriptor for typ.
func (r *Registry) Get(typ string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.types[typ]
	return d, ok
}

// Types lists registered types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.types))
	for t := range r.types {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Attrs returns every extra attribute registered descriptors declare.
func (r *Registry) Attrs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for _, d := range r.types {
		for _, a := range d.Attrs {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Build renders payload for typ into a detached element and checks that the
// markup declares the same type and flow as the descriptor.
func (r *Registry) Build(typ string, p Payload) (*html.Node, error) {
	d, ok := r.Get(typ)
	if !ok {
		return nil, fmt.Errorf("build %q: %w", typ, ErrUnknownType)
	}
	nodes, err := dom.Parse(d.Render(p))
	if err != nil {
		return nil, fmt.Errorf("build %q: %w", typ, err)
	}
	var el *html.Node
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			if el != nil {
				return nil, fmt.Errorf("build %q: more than one root element: %w", typ, ErrMalformed)
			}
			el = n
		}
	}
	if el == nil || !dom.IsCustom(el) {
		return nil, fmt.Errorf("build %q: missing %s marker: %w", typ, dom.AttrCustomBlock, ErrMalformed)
	}
	if got := dom.AttrOr(el, dom.AttrBlockType, ""); got != typ {
		return nil, fmt.Errorf("build %q: markup declares type %q: %w", typ, got, ErrMalformed)
	}
	inline, ok := dom.Attr(el, dom.AttrInline)
	if !ok || (inline == "true") != d.Inline {
		return nil, fmt.Errorf("build %q: flow marker %q does not match descriptor (inline=%v): %w",
			typ, inline, d.Inline, ErrMalformed)
	}
	return el, nil
}

// Read parses the payload out of a custom block element. Unknown types and
// failing parsers yield an empty payload.
func (r *Registry) Read(el *html.Node) (d Descriptor, p Payload, ok bool) {
	typ := dom.AttrOr(el, dom.AttrBlockType, "")
	d, ok = r.Get(typ)
	if !ok {
		return Descriptor{}, Payload{}, false
	}
	defer func() {
		if rec := recover(); rec != nil {
			logger.WarnTagf("blocks", "Parse for %q panicked: %v", typ, rec)
			p = Payload{}
		}
	}()
	p = d.Parse(el)
	if p == nil {
		p = Payload{}
	}
	return d, p, true
}

// Markup builds the standard wrapper for a custom block: a span for inline
// flow, a div for block flow, carrying the type, flow marker and the payload
// as JSON. body is escaped text shown inside the widget.
func Markup(typ string, inline bool, p Payload, body string, attrs ...html.Attribute) string {
	tag := "div"
	flow := "false"
	if inline {
		tag, flow = "span", "true"
	}
	el := dom.Element(tag,
		html.Attribute{Key: dom.AttrCustomBlock, Val: "true"},
		html.Attribute{Key: dom.AttrBlockType, Val: typ},
		html.Attribute{Key: dom.AttrInline, Val: flow},
		html.Attribute{Key: dom.AttrPayload, Val: EncodePayload(p)},
	)
	el.Attr = append(el.Attr, attrs...)
	if body != "" {
		el.AppendChild(dom.Text(body))
	}
	return dom.OuterHTML(el)
}

// EncodePayload serializes p for the data-payload attribute.
func EncodePayload(p Payload) string {
	if p == nil {
		p = Payload{}
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// DecodePayload reads the data-payload attribute of el. Anything unreadable
// gives an empty payload.
func DecodePayload(el *html.Node) Payload {
	p := Payload{}
	raw, ok := dom.Attr(el, dom.AttrPayload)
	if !ok || raw == "" {
		return p
	}
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		logger.DebugTagf("blocks", "Ignoring unreadable payload: %v", err)
		return Payload{}
	}
	return p
}
