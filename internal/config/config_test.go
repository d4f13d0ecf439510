package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"), nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultHistoryCapacity, cfg.Editor.HistoryCapacity)
	assert.Equal(t, DefaultLongDelay, cfg.Settle.Long.Std())
	assert.True(t, cfg.Editor.Autoformat)
	assert.Equal(t, "/", cfg.Editor.SlashTrigger)
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
theme = "paper"

[editor]
history_capacity = 50
save_debounce = "2s"

[settle]
long = "120ms"

[plugins.autosave]
interval = "30s"
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Editor.HistoryCapacity)
	assert.Equal(t, 2*time.Second, cfg.Editor.SaveDebounce.Std())
	assert.Equal(t, 120*time.Millisecond, cfg.Settle.Long.Std())
	assert.Equal(t, DefaultShortDelay, cfg.Settle.Short.Std(), "untouched tiers keep defaults")
	assert.Equal(t, "paper", cfg.Theme)

	v, ok := cfg.PluginValue("autosave", "interval")
	require.True(t, ok)
	assert.Equal(t, "30s", v)
}

func TestValidateResetsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
[editor]
history_capacity = -3
normalize_max_passes = 0
slash_trigger = ""
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultHistoryCapacity, cfg.Editor.HistoryCapacity)
	assert.Equal(t, DefaultNormalizeMaxPasses, cfg.Editor.NormalizeMaxPasses)
	assert.Equal(t, DefaultSlashTrigger, cfg.Editor.SlashTrigger)
}

func TestLoadReportsParseErrors(t *testing.T) {
	path := writeConfig(t, "[editor\nhistory_capacity = ")
	cfg, err := Load(path, nil)
	require.Error(t, err)
	require.NotNil(t, cfg, "defaults are still returned")
	assert.Equal(t, DefaultHistoryCapacity, cfg.Editor.HistoryCapacity)
}

func TestFlagOverrides(t *testing.T) {
	var flags Flags
	fs := flag.NewFlagSet("tidemark", flag.ContinueOnError)
	rest, err := flags.ParseFlags(fs, []string{"-loglevel", "debug", "-history", "10", "-sync-settle", "-log-tags", "cursor, history", "-no-autoformat", "note-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"note-1"}, rest)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"), &flags)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.LogLevel)
	assert.Equal(t, 10, cfg.Editor.HistoryCapacity)
	assert.True(t, cfg.Settle.Synchronous)
	assert.False(t, cfg.Editor.Autoformat)
	assert.Equal(t, []string{"cursor", "history"}, cfg.Logger.EnabledTags)
}
