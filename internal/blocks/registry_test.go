package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/bethropolis/tidemark/internal/dom"
)

func badge() Descriptor {
	return Descriptor{
		Type:   "badge",
		Inline: true,
		Render: func(p Payload) string { return Markup("badge", true, p, p["text"]) },
		Parse: func(el *html.Node) Payload {
			p := DecodePayload(el)
			if p["text"] == "" {
				p["text"] = "badge"
			}
			return p
		},
	}
}

func TestRegisterOnce(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(badge()))
	err := r.Register(badge())
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Error(t, r.Register(Descriptor{Type: "broken"}))
	assert.Equal(t, []string{"badge"}, r.Types())
}

func TestBuildAndReadRoundTrip(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(badge()))

	payload := Payload{"text": `a "quoted" <b>`}
	el, err := r.Build("badge", payload)
	require.NoError(t, err)
	assert.True(t, dom.IsInlineCustom(el))

	d, got, ok := r.Read(el)
	require.True(t, ok)
	assert.Equal(t, "badge", d.Type)
	assert.Equal(t, payload, got)
}

func TestFlowMismatchIsRejected(t *testing.T) {
	r := NewRegistry()
	d := badge()
	d.Render = func(p Payload) string { return Markup("badge", false, p, "x") }
	require.NoError(t, r.Register(d))

	_, err := r.Build("badge", Payload{})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestBuildRejectsBadMarkup(t *testing.T) {
	r := NewRegistry()
	for typ, markup := range map[string]string{
		"plain":  `<span>no marker</span>`,
		"wrong":  Markup("other", true, nil, ""),
		"two":    Markup("two", true, nil, "") + Markup("two", true, nil, ""),
		"noflow": `<span data-custom-block="true" data-block-type="noflow"></span>`,
	} {
		markup := markup
		require.NoError(t, r.Register(Descriptor{
			Type: typ, Inline: true,
			Render: func(Payload) string { return markup },
			Parse:  func(*html.Node) Payload { return Payload{} },
		}))
		_, err := r.Build(typ, nil)
		assert.ErrorIs(t, err, ErrMalformed, typ)
	}

	_, err := r.Build("missing", nil)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestReadToleratesBrokenAttributes(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(badge()))
	nodes, err := dom.Parse(`<span data-custom-block="true" data-block-type="badge" data-inline="true" data-payload="{not json">x</span>`)
	require.NoError(t, err)

	_, p, ok := r.Read(nodes[0])
	require.True(t, ok)
	assert.Equal(t, Payload{"text": "badge"}, p)
}

func TestReadRecoversFromPanickingParser(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Descriptor{
		Type:   "boom",
		Render: func(Payload) string { return Markup("boom", false, nil, "") },
		Parse:  func(*html.Node) Payload { panic("bad") },
	}))
	el, err := r.Build("boom", nil)
	require.NoError(t, err)
	_, p, ok := r.Read(el)
	assert.True(t, ok)
	assert.Empty(t, p)
}
