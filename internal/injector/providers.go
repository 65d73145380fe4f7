// Package injector assembles a player from its configuration.
package injector

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/wire"

	"github.com/ajsengine/ajs/internal/config"
	"github.com/ajsengine/ajs/internal/core/events/bus"
	"github.com/ajsengine/ajs/internal/core/observability/log"
	"github.com/ajsengine/ajs/internal/runtime/assets"
	"github.com/ajsengine/ajs/internal/runtime/audio"
	"github.com/ajsengine/ajs/internal/runtime/engine"
	"github.com/ajsengine/ajs/internal/runtime/extension"
	"github.com/ajsengine/ajs/internal/runtime/extensions"
	"github.com/ajsengine/ajs/internal/runtime/input"
	"github.com/ajsengine/ajs/internal/runtime/input/wsbridge"
	"github.com/ajsengine/ajs/internal/runtime/monitor"
	"github.com/ajsengine/ajs/internal/runtime/script"
	"github.com/ajsengine/ajs/internal/runtime/script/jsloader"
	"github.com/ajsengine/ajs/internal/runtime/scripts/builtin"
	"github.com/ajsengine/ajs/internal/runtime/timing"
)

// App is everything a host needs to run scenes. Mixer and Bridge are nil
// when disabled.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Bus     bus.EventBus
	Monitor *monitor.Monitor
	Runtime *engine.Runtime
	Mixer   *audio.Mixer
	Bridge  *wsbridge.Bridge
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideEventBus,
	ProvideMonitor,
	ProvideClock,
	ProvideInput,
	ProvideFetcher,
	ProvideAssets,
	ProvideMixer,
	ProvideExtensions,
	ProvideScriptLoader,
	ProvideBridge,
	ProvideRuntime,
	wire.Struct(new(App), "*"),
)

func ProvideLogger(cfg *config.Config) (*log.Logger, func(), error) {
	l, err := log.New(cfg.LogOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return l, func() { _ = l.Sync() }, nil
}

func ProvideEventBus(logger *log.Logger) bus.EventBus {
	b := bus.New()
	b.AddObserver(bus.LogObserver{Logger: logger.Named("bus")})
	return b
}

func ProvideMonitor(b bus.EventBus, logger *log.Logger) (*monitor.Monitor, func(), error) {
	m, err := monitor.New(b, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("monitor runtime events: %w", err)
	}
	return m, func() {
		m.Report()
		_ = m.Close()
	}, nil
}

func ProvideClock(cfg *config.Config) *timing.Time {
	return timing.New(timing.SystemClock{},
		timing.WithMaxDelta(cfg.Time.MaxDelta),
		timing.WithFPSWindow(cfg.Time.FPSWindow))
}

func ProvideInput() *input.Manager {
	return input.NewManager()
}

func ProvideFetcher(cfg *config.Config) assets.Fetcher {
	if cfg.Assets.BaseURL != "" {
		return assets.HTTPFetcher{BaseURL: cfg.Assets.BaseURL}
	}
	return assets.NewDirFetcher(cfg.Assets.Root)
}

func ProvideAssets(cfg *config.Config, f assets.Fetcher, l log.Log, b bus.EventBus) *assets.Manager {
	return assets.NewManager(f,
		assets.WithLogger(l),
		assets.WithEventBus(b),
		assets.WithPreloadConcurrency(cfg.Assets.Concurrency))
}

// ProvideMixer starts the speaker. A machine without an audio device runs
// silent rather than failing.
func ProvideMixer(cfg *config.Config, l log.Log) (*audio.Mixer, func()) {
	if !cfg.Audio.Enabled {
		return nil, func() {}
	}
	m := audio.NewMixer(cfg.Audio.SampleRate, l)
	if err := m.Start(cfg.Audio.Buffer); err != nil {
		l.Warn("audio unavailable, running silent", log.Error(err))
		return nil, func() {}
	}
	return m, m.Close
}

func ProvideExtensions(clock *timing.Time) (*extension.Registry, error) {
	reg := extension.NewRegistry()
	if err := extensions.Register(reg, clock); err != nil {
		return nil, fmt.Errorf("register extensions: %w", err)
	}
	return reg, nil
}

// ProvideScriptLoader serves internal paths from the built-in behaviors and
// everything else from JavaScript under the project root.
func ProvideScriptLoader(cfg *config.Config, l log.Log) (script.ModuleLoader, error) {
	internal := script.NewRegistry()
	if err := builtin.Register(internal); err != nil {
		return nil, fmt.Errorf("register built-in scripts: %w", err)
	}
	user, err := jsloader.New(os.DirFS(cfg.Scripts.ProjectRoot),
		jsloader.WithLogger(l),
		jsloader.WithCallTimeout(cfg.Scripts.CallTimeout))
	if err != nil {
		return nil, fmt.Errorf("start script vm: %w", err)
	}
	return script.NamespaceLoader{Internal: internal, User: user}, nil
}

// ProvideBridge starts the websocket input bridge and binds the input
// manager to it when an address is configured.
func ProvideBridge(cfg *config.Config, l log.Log, in *input.Manager) (*wsbridge.Bridge, func(), error) {
	if cfg.Input.WebSocketAddr == "" {
		return nil, func() {}, nil
	}
	b := wsbridge.New(l)
	if err := b.Start(context.Background(), cfg.Input.WebSocketAddr); err != nil {
		return nil, nil, fmt.Errorf("start input bridge: %w", err)
	}
	in.InitWithCanvas(b, b)
	return b, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := b.Stop(ctx); err != nil {
			l.Warn("input bridge shutdown", log.Error(err))
		}
	}, nil
}

func ProvideRuntime(
	cfg *config.Config,
	reg *extension.Registry,
	loader script.ModuleLoader,
	clock *timing.Time,
	in *input.Manager,
	am *assets.Manager,
	mixer *audio.Mixer,
	b bus.EventBus,
	l log.Log,
) (*engine.Runtime, func()) {
	opts := []engine.Option{engine.WithLogger(l), engine.WithEventBus(b)}
	if mixer != nil {
		opts = append(opts, engine.WithAudio(mixer))
	}
	if cfg.Assets.Preload {
		opts = append(opts, engine.WithPreload(nil))
	}
	rt := engine.New(reg, loader, clock, in, am, opts...)
	return rt, rt.Close
}
