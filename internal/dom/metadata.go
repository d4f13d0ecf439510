package dom

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/utils"
)

// Heading is one entry of the heading list handed to persistence.
type Heading struct {
	Level int    `yaml:"level"`
	Text  string `yaml:"text"`
	ID    string `yaml:"id"`
}

// Metadata is derived from the document on every save.
type Metadata struct {
	Words      int       `yaml:"words"`
	Characters int       `yaml:"characters"`
	Blocks     int       `yaml:"blocks"`
	Headings   []Heading `yaml:"headings"`
}

// Collect derives metadata from root.
func Collect(root *html.Node) Metadata {
	var meta Metadata
	for _, b := range Blocks(root) {
		meta.Blocks++
		text := TextContent(b)
		meta.Words += len(strings.Fields(text))
		meta.Characters += utils.GraphemeCount(text)
		if level := KindOf(b).HeadingLevel(); level > 0 {
			meta.Headings = append(meta.Headings, Heading{
				Level: level,
				Text:  strings.TrimSpace(text),
				ID:    AttrOr(b, "id", ""),
			})
		}
	}
	return meta
}

// Slug derives a heading id: lowercased, whitespace and separators become
// single hyphens, anything else that is not a letter or digit is dropped.
// It returns "" when nothing usable remains.
func Slug(text string) string {
	var sb strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingDash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingDash = false
			sb.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingDash = true
		}
	}
	return sb.String()
}
