package plugin_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/tidemark/internal/blocks"
	"github.com/bethropolis/tidemark/internal/event"
	"github.com/bethropolis/tidemark/internal/plugin"
	"github.com/bethropolis/tidemark/internal/plugin/plugintest"
	"github.com/bethropolis/tidemark/internal/slash"
)

type fakePlugin struct {
	name    string
	initErr error
	log     *[]string
}

func (p *fakePlugin) Name() string { return p.name }

func (p *fakePlugin) Initialize(plugin.EditorAPI) error {
	*p.log = append(*p.log, "init "+p.name)
	return p.initErr
}

func (p *fakePlugin) Shutdown() error {
	*p.log = append(*p.log, "shutdown "+p.name)
	return nil
}

func TestManagerLifecycleOrder(t *testing.T) {
	var log []string
	m := plugin.NewManager()
	require.NoError(t, m.Register(&fakePlugin{name: "a", log: &log}))
	require.NoError(t, m.Register(&fakePlugin{name: "b", log: &log, initErr: errors.New("boom")}))
	require.NoError(t, m.Register(&fakePlugin{name: "c", log: &log}))

	err := m.InitializePlugins(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'b'")

	m.ShutdownPlugins()
	assert.Equal(t, []string{"init a", "init b", "init c", "shutdown c", "shutdown a"}, log)
	assert.Equal(t, []string{"a", "b", "c"}, m.Names())
}

func TestManagerRejectsDuplicatesAndEmptyNames(t *testing.T) {
	var log []string
	m := plugin.NewManager()
	require.NoError(t, m.Register(&fakePlugin{name: "a", log: &log}))
	assert.Error(t, m.Register(&fakePlugin{name: "a", log: &log}))
	assert.Error(t, m.Register(&fakePlugin{name: "", log: &log}))

	p, ok := m.GetPlugin("a")
	require.True(t, ok)
	assert.Equal(t, "a", p.Name())
}

func TestHostRegistersIntoEngine(t *testing.T) {
	f := plugintest.New(t, map[string]map[string]interface{}{
		"demo": {"answer": int64(42)},
	})

	require.NoError(t, f.Host.RegisterCommand(slash.Command{
		ID:    "shout",
		Label: "Shout",
		Run:   func(ed slash.Editor) error { ed.InsertText("HEY"); return nil },
	}))
	require.NoError(t, f.Engine.RunCommand("shout"))
	assert.Equal(t, "<p>HEY</p>", f.Host.HTML())

	f.Host.UnregisterCommand("shout")
	assert.Error(t, f.Engine.RunCommand("shout"))

	require.NoError(t, f.Host.RegisterBlock(blocks.Descriptor{
		Type:   "chip",
		Inline: true,
		Render: func(p blocks.Payload) string { return blocks.Markup("chip", true, p, "chip") },
		Parse:  blocks.DecodePayload,
	}))
	require.NoError(t, f.Host.InsertCustomBlock("chip", blocks.Payload{"k": "v"}))
	assert.Contains(t, f.Host.HTML(), `data-block-type="chip"`)

	v, ok := f.Host.GetPluginConfigValue("demo", "answer")
	require.True(t, ok)
	assert.Equal(t, int64(42), v)
	_, ok = f.Host.GetPluginConfigValue("other", "answer")
	assert.False(t, ok)
}

func TestHostEventsAndStatus(t *testing.T) {
	f := plugintest.New(t, nil)

	var got []event.Type
	id := f.Host.SubscribeEvent(event.TypeDocumentChanged, func(e event.Event) bool {
		got = append(got, e.Type)
		return false
	})
	f.Engine.TypeText("a")
	f.Host.UnsubscribeEvent(id)
	f.Engine.TypeText("b")
	assert.Equal(t, []event.Type{event.TypeDocumentChanged}, got)

	f.Host.SetStatusMessage("hello %s", "there")
	f.Host.SetStatusSegment("k", "v")
	assert.Equal(t, "hello there", f.Status.LastMessage())
	assert.Equal(t, "v", f.Status.Segments["k"])

	assert.Error(t, f.Host.SaveNote(), "scratch documents have no id")
}
