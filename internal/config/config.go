// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bethropolis/tidemark/internal/logger"
)

// Config holds the application's combined configuration.
type Config struct {
	Logger  logger.Config                     `toml:"logger"`
	Editor  EditorConfig                      `toml:"editor"`
	Settle  SettleConfig                      `toml:"settle"`
	Store   StoreConfig                       `toml:"store"`
	Theme   string                            `toml:"theme"`
	Plugins map[string]map[string]interface{} `toml:"plugins"`
}

// EditorConfig holds editing engine settings.
type EditorConfig struct {
	HistoryCapacity     int      `toml:"history_capacity"`
	NormalizeMaxPasses  int      `toml:"normalize_max_passes"`
	MaxAncestorWalk     int      `toml:"max_ancestor_walk"`
	Autoformat          bool     `toml:"autoformat"`
	MarkdownPaste       bool     `toml:"markdown_paste"`
	SystemClipboard     bool     `toml:"system_clipboard"`
	SlashTrigger        string   `toml:"slash_trigger"`
	SaveDebounce        Duration `toml:"save_debounce"`
	RenormalizeDebounce Duration `toml:"renormalize_debounce"`
}

// SettleConfig holds the deferred-execution tiers used after structural
// mutations. Synchronous hosts set Synchronous and every tier runs inline.
type SettleConfig struct {
	Synchronous bool     `toml:"synchronous"`
	Frame       Duration `toml:"frame"`
	Short       Duration `toml:"short"`
	Medium      Duration `toml:"medium"`
	Long        Duration `toml:"long"`
	ExtraLong   Duration `toml:"extra_long"`
}

// StoreConfig locates persisted notes.
type StoreConfig struct {
	Dir   string `toml:"dir"`
	Watch bool   `toml:"watch"`
}

// Duration decodes TOML strings such as "80ms".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// NewDefaultConfig creates a Config struct with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Logger: logger.NewConfig(),
		Editor: EditorConfig{
			HistoryCapacity:     DefaultHistoryCapacity,
			NormalizeMaxPasses:  DefaultNormalizeMaxPasses,
			MaxAncestorWalk:     DefaultMaxAncestorWalk,
			Autoformat:          true,
			MarkdownPaste:       true,
			SystemClipboard:     true,
			SlashTrigger:        DefaultSlashTrigger,
			SaveDebounce:        Duration(DefaultSaveDebounce),
			RenormalizeDebounce: Duration(DefaultRenormalizeDebounce),
		},
		Settle: SettleConfig{
			Frame:     Duration(DefaultFrameDelay),
			Short:     Duration(DefaultShortDelay),
			Medium:    Duration(DefaultMediumDelay),
			Long:      Duration(DefaultLongDelay),
			ExtraLong: Duration(DefaultExtraLongDelay),
		},
		Store: StoreConfig{
			Watch: true,
		},
		Plugins: map[string]map[string]interface{}{},
	}
}

// DefaultPath returns the config file location under the user config dir,
// or "" when it cannot be determined.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, AppName, DefaultConfigFileName)
}

// DefaultLogPath returns the log file location under the user cache dir,
// or "" when it cannot be determined.
func DefaultLogPath() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(cacheDir, AppName, DefaultLogFileName)
}

// Load reads defaults, overlays the TOML file (a missing file is not an
// error), applies flag overrides and validates the result.
func Load(configFilePath string, flags *Flags) (*Config, error) {
	cfg := NewDefaultConfig()

	effectivePath := configFilePath
	if effectivePath == "" {
		effectivePath = DefaultPath()
	}

	var loadErr error
	if effectivePath != "" {
		loadErr = loadFromFile(effectivePath, cfg)
	}

	if flags != nil {
		flags.ApplyOverrides(cfg)
	}
	cfg.validate()
	return cfg, loadErr
}

// loadFromFile decodes filePath on top of cfg. Keys absent from the file keep
// their current (default) values.
func loadFromFile(filePath string, cfg *Config) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("error checking config file '%s': %w", filePath, err)
	}

	metadata, err := toml.DecodeFile(filePath, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
	}
	if undecoded := metadata.Undecoded(); len(undecoded) > 0 {
		// Plugin tables are free-form; only report keys outside them.
		var unknown []string
		for _, key := range undecoded {
			if len(key) > 0 && key[0] == "plugins" {
				continue
			}
			unknown = append(unknown, key.String())
		}
		if len(unknown) > 0 {
			logger.Warnf("Config file '%s': Unrecognized keys: %v", filePath, unknown)
		}
	}
	return nil
}

// validate checks config values and resets invalid ones to defaults.
func (c *Config) validate() {
	defaults := NewDefaultConfig()

	if c.Editor.HistoryCapacity <= 1 {
		c.Editor.HistoryCapacity = defaults.Editor.HistoryCapacity
	}
	if c.Editor.NormalizeMaxPasses <= 0 {
		c.Editor.NormalizeMaxPasses = defaults.Editor.NormalizeMaxPasses
	}
	if c.Editor.MaxAncestorWalk <= 0 {
		c.Editor.MaxAncestorWalk = defaults.Editor.MaxAncestorWalk
	}
	if c.Editor.SlashTrigger == "" {
		c.Editor.SlashTrigger = defaults.Editor.SlashTrigger
	}
	if c.Editor.SaveDebounce < 0 {
		c.Editor.SaveDebounce = defaults.Editor.SaveDebounce
	}
	if c.Editor.RenormalizeDebounce < 0 {
		c.Editor.RenormalizeDebounce = defaults.Editor.RenormalizeDebounce
	}

	for _, tier := range []struct {
		value *Duration
		def   Duration
	}{
		{&c.Settle.Frame, defaults.Settle.Frame},
		{&c.Settle.Short, defaults.Settle.Short},
		{&c.Settle.Medium, defaults.Settle.Medium},
		{&c.Settle.Long, defaults.Settle.Long},
		{&c.Settle.ExtraLong, defaults.Settle.ExtraLong},
	} {
		if *tier.value < 0 {
			*tier.value = tier.def
		}
	}

	if c.Logger.LogLevel == "" {
		c.Logger.LogLevel = defaults.Logger.LogLevel
	}
	if c.Plugins == nil {
		c.Plugins = map[string]map[string]interface{}{}
	}
}

// PluginValue looks up a value from the [plugins.<name>] table.
func (c *Config) PluginValue(pluginName, key string) (interface{}, bool) {
	table, ok := c.Plugins[pluginName]
	if !ok {
		return nil, false
	}
	v, ok := table[key]
	return v, ok
}
