// plugins/wordcount/wordcount.go
package wordcount

import (
	"fmt"

	"github.com/bethropolis/tidemark/internal/dom"
	"github.com/bethropolis/tidemark/internal/event"
	"github.com/bethropolis/tidemark/internal/plugin"
	"github.com/bethropolis/tidemark/internal/slash"
)

// Ensure WordCount implements plugin.Plugin
var _ plugin.Plugin = (*WordCount)(nil)

// segmentKey is the status bar segment the live count is shown in.
const segmentKey = "words"

// WordCount keeps a live word count in the status bar and offers a
// "/word count" command with the full statistics.
type WordCount struct {
	api  plugin.EditorAPI
	subs []event.SubscriptionID
}

// New creates a new instance of the WordCount plugin.
func New() plugin.Plugin {
	return &WordCount{}
}

// Name returns the unique name of the plugin.
func (p *WordCount) Name() string {
	return "wordcount"
}

// Initialize registers the command and the status refresh.
func (p *WordCount) Initialize(api plugin.EditorAPI) error {
	p.api = api

	err := api.RegisterCommand(slash.Command{
		ID:          "word-count",
		Label:       "Word count",
		Category:    "Info",
		Description: "Show words, characters and headings",
		Keywords:    []string{"stats", "count", "wc"},
		Run:         func(slash.Editor) error { return p.executeWordCount() },
	})
	if err != nil {
		return fmt.Errorf("failed to register 'word-count' command: %w", err)
	}

	refresh := func(event.Event) bool {
		p.refresh()
		return false
	}
	p.subs = append(p.subs,
		api.SubscribeEvent(event.TypeDocumentChanged, refresh),
		api.SubscribeEvent(event.TypeDocumentLoaded, refresh),
	)
	p.refresh()
	return nil
}

// Shutdown drops the subscriptions and the command.
func (p *WordCount) Shutdown() error {
	if p.api == nil {
		return nil
	}
	for _, id := range p.subs {
		p.api.UnsubscribeEvent(id)
	}
	p.subs = nil
	p.api.UnregisterCommand("word-count")
	p.api.SetStatusSegment(segmentKey, "")
	return nil
}

func (p *WordCount) refresh() {
	p.api.SetStatusSegment(segmentKey, Summary(p.api.Metadata()))
}

// executeWordCount shows the full statistics as a status message.
func (p *WordCount) executeWordCount() error {
	if p.api == nil {
		return fmt.Errorf("wordcount plugin not initialized with API")
	}
	meta := p.api.Metadata()
	p.api.SetStatusMessage("Words: %d, Characters: %d, Blocks: %d, Headings: %d",
		meta.Words, meta.Characters, meta.Blocks, len(meta.Headings))
	return nil
}

// Summary renders the short status bar form, e.g. "1 word" or "12 words".
func Summary(meta dom.Metadata) string {
	if meta.Words == 1 {
		return "1 word"
	}
	return fmt.Sprintf("%d words", meta.Words)
}
