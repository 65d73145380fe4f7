package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajsengine/ajs/internal/core/observability/log"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDecodeOverridesDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
log:
  level: debug
scripts:
  project_root: game
  call_timeout: 1s
time:
  max_delta: 0s
window:
  headless: true
  width: 0
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Encoding, "kept from defaults")
	assert.Equal(t, "game", cfg.Scripts.ProjectRoot)
	assert.Equal(t, time.Second, cfg.Scripts.CallTimeout)
	assert.Zero(t, cfg.Time.MaxDelta)
	assert.Equal(t, time.Second, cfg.Time.FPSWindow)
	assert.True(t, cfg.Window.Headless)
	assert.Equal(t, log.LevelDebug, cfg.LogOptions().Level)
}

func TestDecodeEmpty(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	_, err := Decode(strings.NewReader("assets:\n  rooot: x\n"))
	assert.ErrorContains(t, err, "rooot")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"encoding", func(c *Config) { c.Log.Encoding = "xml" }, "log.encoding"},
		{"both asset sources", func(c *Config) { c.Assets.BaseURL = "http://cdn" }, "assets.root"},
		{"no asset source", func(c *Config) { c.Assets.Root = "" }, "assets.root"},
		{"max delta", func(c *Config) { c.Time.MaxDelta = -time.Second }, "time.max_delta"},
		{"fps window", func(c *Config) { c.Time.FPSWindow = 0 }, "time.fps_window"},
		{"sample rate", func(c *Config) { c.Audio.SampleRate = 0 }, "audio.sample_rate"},
		{"window", func(c *Config) { c.Window.Width = 0 }, "window size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			assert.ErrorContains(t, err, tt.want)
		})
	}

	cfg := Default()
	cfg.Audio.Enabled = false
	cfg.Audio.SampleRate = 0
	assert.NoError(t, cfg.Validate(), "audio settings are ignored when disabled")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player.yaml")
	require.NoError(t, os.WriteFile(path, []byte("assets:\n  root: \"\"\n  base_url: http://localhost:8080/game\n"), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/game", cfg.Assets.BaseURL)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
