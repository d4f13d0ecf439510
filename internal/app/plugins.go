package app

import (
	"fmt"

	"github.com/bethropolis/tidemark/internal/logger"
	"github.com/bethropolis/tidemark/internal/plugin"

	"github.com/bethropolis/tidemark/plugins/autosave"
	"github.com/bethropolis/tidemark/plugins/callout"
	"github.com/bethropolis/tidemark/plugins/notelink"
	"github.com/bethropolis/tidemark/plugins/wordcount"
)

// registerPlugins registers every built-in plugin with the manager.
func registerPlugins(pm *plugin.Manager) error {
	if pm == nil {
		return fmt.Errorf("plugin manager is nil")
	}

	pluginConstructors := []func() plugin.Plugin{
		wordcount.New,
		autosave.New,
		notelink.New,
		callout.New,
	}

	var finalErr error
	for _, newPlugin := range pluginConstructors {
		p := newPlugin()
		pluginName := p.Name()

		logger.Debugf("Registering plugin: %s", pluginName)
		if err := pm.Register(p); err != nil {
			wrappedErr := fmt.Errorf("failed to register plugin '%s': %w", pluginName, err)
			logger.Errorf("%v", wrappedErr)
			if finalErr == nil {
				finalErr = wrappedErr
			}
		}
	}
	return finalErr
}
