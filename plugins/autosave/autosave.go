package autosave

import (
	"sync"
	"time"

	"github.com/bethropolis/tidemark/internal/event"
	"github.com/bethropolis/tidemark/internal/logger"
	"github.com/bethropolis/tidemark/internal/plugin"
)

// Ensure AutoSave implements plugin.Plugin
var _ plugin.Plugin = (*AutoSave)(nil)

const (
	// Default configuration values
	defaultEnabled  = true
	defaultInterval = 1 * time.Minute

	segmentKey = "save"
)

// AutoSave tracks whether the note has unsaved changes, shows that in the
// status bar, saves on a fixed interval as a backstop to the debounced save
// and makes sure nothing is lost on quit.
type AutoSave struct {
	api plugin.EditorAPI

	// Configuration
	mutex    sync.RWMutex // Protects access to config fields below
	enabled  bool
	interval time.Duration

	// Runtime state, only touched on the editor goroutine.
	dirty bool
	subs  []event.SubscriptionID

	stopChan chan struct{}  // Signals the ticker goroutine to stop
	wg       sync.WaitGroup // Waits for the goroutine to finish
}

// New creates a new instance of the AutoSave plugin.
func New() plugin.Plugin {
	return &AutoSave{
		enabled:  defaultEnabled,
		interval: defaultInterval,
	}
}

// Name returns the unique name of the plugin.
func (p *AutoSave) Name() string {
	return "autosave"
}

// Initialize reads configuration, subscribes to document events and starts
// the interval loop if enabled.
func (p *AutoSave) Initialize(api plugin.EditorAPI) error {
	p.api = api
	pluginName := p.Name()

	logger.Debugf("%s: Initializing...", pluginName)

	p.mutex.Lock()
	if enabledVal, ok := api.GetPluginConfigValue(pluginName, "enabled"); ok {
		if boolVal, isBool := enabledVal.(bool); isBool {
			p.enabled = boolVal
		} else {
			logger.Warnf("%s: Invalid type for 'enabled' config (%T), using default (%v)", pluginName, enabledVal, p.enabled)
		}
	}
	if intervalVal, ok := api.GetPluginConfigValue(pluginName, "interval"); ok {
		if strVal, isStr := intervalVal.(string); isStr {
			parsedInterval, err := time.ParseDuration(strVal)
			switch {
			case err != nil:
				logger.Warnf("%s: Invalid format for 'interval' config ('%s'): %v. Using default (%v)", pluginName, strVal, err, p.interval)
			case parsedInterval < 0:
				logger.Warnf("%s: 'interval' config must not be negative ('%s'). Using default (%v)", pluginName, strVal, p.interval)
			default:
				// Zero turns the interval loop off.
				p.interval = parsedInterval
			}
		} else {
			logger.Warnf("%s: Invalid type for 'interval' config (%T), using default (%v)", pluginName, intervalVal, p.interval)
		}
	}
	isEnabled := p.enabled
	interval := p.interval
	p.mutex.Unlock()

	logger.Infof("%s initialized. Enabled: %v, Interval: %v", pluginName, isEnabled, interval)

	p.subs = append(p.subs,
		api.SubscribeEvent(event.TypeDocumentChanged, func(event.Event) bool {
			p.markDirty(true)
			return false
		}),
		api.SubscribeEvent(event.TypeDocumentLoaded, func(event.Event) bool {
			p.markDirty(false)
			return false
		}),
		api.SubscribeEvent(event.TypeDocumentSaved, func(event.Event) bool {
			p.markDirty(false)
			return false
		}),
		api.SubscribeEvent(event.TypeAppQuit, func(event.Event) bool {
			p.saveOnQuit()
			return false
		}),
	)

	if isEnabled && interval > 0 {
		p.stopChan = make(chan struct{})
		p.wg.Add(1)
		go p.saverLoop(interval)
		logger.Debugf("%s: Saver goroutine started.", pluginName)
	}
	return nil
}

// Shutdown signals the saver goroutine to stop and waits for it.
func (p *AutoSave) Shutdown() error {
	if p.stopChan != nil {
		logger.Debugf("%s: Shutting down...", p.Name())
		close(p.stopChan)
		p.wg.Wait()
		p.stopChan = nil
	}
	if p.api != nil {
		for _, id := range p.subs {
			p.api.UnsubscribeEvent(id)
		}
	}
	p.subs = nil
	return nil
}

// Dirty reports whether changes are waiting to be saved.
func (p *AutoSave) Dirty() bool { return p.dirty }

func (p *AutoSave) markDirty(dirty bool) {
	if p.dirty == dirty {
		return
	}
	p.dirty = dirty
	if dirty {
		p.api.SetStatusSegment(segmentKey, "modified")
	} else {
		p.api.SetStatusSegment(segmentKey, "saved")
	}
}

// saverLoop ticks on its own goroutine and posts each save back to the
// editor goroutine.
func (p *AutoSave) saverLoop(interval time.Duration) {
	defer p.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.api.Post(p.saveIfModified)
		case <-p.stopChan:
			logger.Debugf("%s: Received stop signal, exiting saver loop.", p.Name())
			return
		}
	}
}

// saveIfModified saves the note when it has unsaved changes.
func (p *AutoSave) saveIfModified() {
	p.mutex.RLock()
	enabled := p.enabled
	p.mutex.RUnlock()
	if !enabled || !p.dirty {
		return
	}
	if p.api.NoteID() == "" {
		logger.Debugf("%s: Note is modified but has no id, skipping auto-save.", p.Name())
		return
	}

	logger.Infof("%s: Auto-saving note: %s", p.Name(), p.api.NoteID())
	if err := p.api.SaveNote(); err != nil {
		logger.Errorf("%s: Auto-save failed for '%s': %v", p.Name(), p.api.NoteID(), err)
		p.api.SetStatusMessage("Auto-save failed: %v", err)
	}
}

// saveOnQuit runs pending debounced saves and saves whatever is left.
func (p *AutoSave) saveOnQuit() {
	p.api.FlushPending()
	p.saveIfModified()
}
