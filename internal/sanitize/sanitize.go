// Package sanitize is the allow-list boundary every piece of HTML passes
// before it enters the live document.
package sanitize

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/bethropolis/tidemark/internal/dom"
)

// ErrUnsafeLink is returned for link targets with a script-executing or
// otherwise disallowed scheme.
var ErrUnsafeLink = errors.New("unsafe link target")

var allowedSchemes = []string{"http", "https", "mailto"}

var deniedSchemes = map[string]bool{"javascript": true, "data": true, "vbscript": true}

// baseDataAttrs are the data-* attributes custom blocks and checklists may
// carry. The caret marker attribute is never among them.
var baseDataAttrs = []string{
	dom.AttrCustomBlock, dom.AttrBlockType, dom.AttrInline,
	dom.AttrPayload, dom.AttrRef, dom.AttrTitle,
	dom.AttrChecklist, dom.AttrChecked,
}

var dataAttrName = regexp.MustCompile(`^data-[a-z][a-z0-9-]*$`)

// Sanitizer wraps a bluemonday policy built for the document grammar.
type Sanitizer struct {
	mu     sync.Mutex
	extra  map[string]bool
	policy *bluemonday.Policy
}

// New creates a sanitizer. extra lists additional payload attributes.
func New(extra ...string) *Sanitizer {
	s := &Sanitizer{extra: map[string]bool{}}
	s.Allow(extra...)
	return s
}

// Allow adds payload attributes to the allow-list. Names must be lowercase
// data-* attributes; the caret marker attribute is refused.
func (s *Sanitizer) Allow(attrs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range attrs {
		if a == dom.AttrMarker || !dataAttrName.MatchString(a) {
			continue
		}
		s.extra[a] = true
	}
	s.policy = buildPolicy(s.attrs())
}

func (s *Sanitizer) attrs() []string {
	out := append([]string(nil), baseDataAttrs...)
	for a := range s.extra {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func buildPolicy(dataAttrs []string) *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements("p", "h1", "h2", "h3", "blockquote", "pre",
		"ul", "ol", "li", "hr", "br",
		"table", "thead", "tbody", "tr", "td", "th",
		"strong", "b", "em", "i", "u", "s", "del", "strike", "code",
		"div", "span")

	p.AllowAttrs("id").Matching(regexp.MustCompile(`^[\p{L}\p{N}_-]+$`)).OnElements("h1", "h2", "h3")
	p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("td", "th")

	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("src", "alt", "title").OnElements("img")
	p.AllowURLSchemes(allowedSchemes...)
	p.AllowRelativeURLs(true)
	p.RequireParseableURLs(true)

	p.AllowAttrs(dataAttrs...).OnElements("div", "span", "ul", "li")
	return p
}

// Sanitize strips everything outside the allow-list. It never fails; unsafe
// parts simply disappear.
func (s *Sanitizer) Sanitize(fragment string) string {
	s.mu.Lock()
	p := s.policy
	s.mu.Unlock()
	return p.Sanitize(fragment)
}

// CheckLink validates a link target entered by the user. Relative targets
// and http, https and mailto are accepted.
func CheckLink(href string) error {
	cleaned := strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return -1
		}
		return r
	}, href)
	if cleaned == "" {
		return fmt.Errorf("%w: empty", ErrUnsafeLink)
	}
	if i := strings.IndexByte(cleaned, ':'); i > 0 {
		scheme := strings.ToLower(cleaned[:i])
		if deniedSchemes[scheme] {
			return fmt.Errorf("%w: %s scheme", ErrUnsafeLink, scheme)
		}
	}

	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsafeLink, err)
	}
	if u.Scheme == "" {
		return nil
	}
	for _, s := range allowedSchemes {
		if strings.EqualFold(u.Scheme, s) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s scheme", ErrUnsafeLink, u.Scheme)
}
