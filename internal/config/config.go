// Package config loads the player configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ajsengine/ajs/internal/core/observability/log"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Log     LogConfig     `json:"log" yaml:"log"`
	Scripts ScriptsConfig `json:"scripts" yaml:"scripts"`
	Assets  AssetsConfig  `json:"assets" yaml:"assets"`
	Time    TimeConfig    `json:"time" yaml:"time"`
	Input   InputConfig   `json:"input" yaml:"input"`
	Audio   AudioConfig   `json:"audio" yaml:"audio"`
	Window  WindowConfig  `json:"window" yaml:"window"`
}

type LogConfig struct {
	Level    string   `json:"level" yaml:"level"`
	Encoding string   `json:"encoding" yaml:"encoding"`
	Outputs  []string `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// ScriptsConfig locates user scripts. Paths in the internal namespace are
// served by the built-in behaviors and never touch the disk.
type ScriptsConfig struct {
	ProjectRoot string        `json:"project_root" yaml:"project_root"`
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout"`
}

// AssetsConfig selects where assets come from: Root on disk, or BaseURL
// over HTTP. Exactly one must be set.
type AssetsConfig struct {
	Root        string `json:"root,omitempty" yaml:"root,omitempty"`
	BaseURL     string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Preload     bool   `json:"preload" yaml:"preload"`
	Concurrency int    `json:"concurrency" yaml:"concurrency"`
}

type TimeConfig struct {
	// MaxDelta clamps a single frame's real delta. Zero disables the clamp.
	MaxDelta  time.Duration `json:"max_delta" yaml:"max_delta"`
	FPSWindow time.Duration `json:"fps_window" yaml:"fps_window"`
}

// InputConfig enables the websocket input bridge when WebSocketAddr is set.
type InputConfig struct {
	WebSocketAddr string `json:"websocket_addr,omitempty" yaml:"websocket_addr,omitempty"`
}

type AudioConfig struct {
	Enabled    bool          `json:"enabled" yaml:"enabled"`
	SampleRate int           `json:"sample_rate" yaml:"sample_rate"`
	Buffer     time.Duration `json:"buffer" yaml:"buffer"`
}

type WindowConfig struct {
	Title    string `json:"title" yaml:"title"`
	Width    int    `json:"width" yaml:"width"`
	Height   int    `json:"height" yaml:"height"`
	Headless bool   `json:"headless" yaml:"headless"`
}

// Default is the configuration used for every field a file leaves out.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Encoding: "console"},
		Scripts: ScriptsConfig{
			ProjectRoot: ".",
			CallTimeout: 250 * time.Millisecond,
		},
		Assets: AssetsConfig{Root: ".", Preload: true, Concurrency: 8},
		Time: TimeConfig{
			MaxDelta:  250 * time.Millisecond,
			FPSWindow: time.Second,
		},
		Audio:  AudioConfig{Enabled: true, SampleRate: 44100, Buffer: 100 * time.Millisecond},
		Window: WindowConfig{Title: "AJS", Width: 800, Height: 600},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads YAML over the defaults. Unknown keys are rejected.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error", "silent":
	default:
		check(false, "log.level %q", c.Log.Level)
	}
	check(c.Log.Encoding == "json" || c.Log.Encoding == "console", "log.encoding %q", c.Log.Encoding)

	check(c.Scripts.CallTimeout >= 0, "scripts.call_timeout is negative")
	check((c.Assets.Root == "") != (c.Assets.BaseURL == ""), "exactly one of assets.root and assets.base_url must be set")
	check(c.Assets.Concurrency >= 0, "assets.concurrency is negative")

	check(c.Time.MaxDelta >= 0, "time.max_delta is negative")
	check(c.Time.FPSWindow > 0, "time.fps_window must be positive")

	if c.Audio.Enabled {
		check(c.Audio.SampleRate > 0, "audio.sample_rate must be positive")
		check(c.Audio.Buffer > 0, "audio.buffer must be positive")
	}
	if !c.Window.Headless {
		check(c.Window.Width > 0 && c.Window.Height > 0, "window size %dx%d", c.Window.Width, c.Window.Height)
	}
	return errors.Join(errs...)
}

// LogOptions converts the log section for log.New.
func (c *Config) LogOptions() log.Options {
	return log.Options{
		Level:    log.ParseLevel(c.Log.Level),
		Encoding: c.Log.Encoding,
		Outputs:  c.Log.Outputs,
	}
}
