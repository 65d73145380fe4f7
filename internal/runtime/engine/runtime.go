// Package engine drives a loaded scene: it owns the frame order and is the
// host both extensions and scripts talk to.
package engine

import (
	"context"

	"github.com/ajsengine/ajs/internal/core/events/bus"
	"github.com/ajsengine/ajs/internal/core/observability/log"
	"github.com/ajsengine/ajs/internal/runtime/assets"
	"github.com/ajsengine/ajs/internal/runtime/audio"
	"github.com/ajsengine/ajs/internal/runtime/extension"
	"github.com/ajsengine/ajs/internal/runtime/fault"
	"github.com/ajsengine/ajs/internal/runtime/input"
	"github.com/ajsengine/ajs/internal/runtime/object"
	"github.com/ajsengine/ajs/internal/runtime/render"
	"github.com/ajsengine/ajs/internal/runtime/scene"
	"github.com/ajsengine/ajs/internal/runtime/script"
	"github.com/ajsengine/ajs/internal/runtime/timing"
)

const eventSource = "engine"

// Option configures a Runtime at construction.
type Option func(*Runtime)

func WithLogger(l log.Log) Option {
	return func(r *Runtime) { r.logger = l }
}

// WithEventBus publishes object, scene and fault notifications on b.
func WithEventBus(b bus.EventBus) Option {
	return func(r *Runtime) { r.bus = b }
}

// WithAudio sets the player handed to extensions and scripts. Without it
// both see a nil player.
func WithAudio(p audio.Player) Option {
	return func(r *Runtime) { r.audio = p }
}

// WithPreload makes LoadScene wait for every referenced asset before
// creating objects. onProgress may be nil.
func WithPreload(onProgress assets.ProgressFunc) Option {
	return func(r *Runtime) {
		r.preload = true
		r.onProgress = onProgress
	}
}

// WithContext sets the parent of every scene context.
func WithContext(ctx context.Context) Option {
	return func(r *Runtime) { r.base = ctx }
}

// Runtime runs one scene at a time. It is driven from a single goroutine;
// only the asset manager and input manager accept calls from elsewhere.
type Runtime struct {
	logger     log.Log
	bus        bus.EventBus
	registry   *extension.Registry
	ext        *extension.Dispatcher
	scripts    *script.Manager
	clock      *timing.Time
	input      *input.Manager
	assets     *assets.Manager
	audio      audio.Player
	preload    bool
	onProgress assets.ProgressFunc

	scene   *scene.Scene
	name    string
	base    context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	running bool

	canvas  render.Canvas
	pending []*object.GameObject
	doomed  map[string]bool

	inFrame bool
	faults  []fault.Fault
	last    []fault.Fault
}

var (
	_ extension.API = (*Runtime)(nil)
	_ script.Host   = (*Runtime)(nil)
)

// New builds a runtime over the given subsystems. Scripts are resolved
// through loader.
func New(
	registry *extension.Registry,
	loader script.ModuleLoader,
	clock *timing.Time,
	in *input.Manager,
	am *assets.Manager,
	opts ...Option,
) *Runtime {
	r := &Runtime{
		logger:   log.NewNop(),
		registry: registry,
		ext:      extension.NewDispatcher(registry),
		clock:    clock,
		input:    in,
		assets:   am,
		scene:    scene.New(),
		base:     context.Background(),
		doomed:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("engine")
	// no scene yet, so the context starts out canceled
	r.ctx, r.cancel = context.WithCancel(r.base)
	r.cancel()
	r.scripts = script.NewManager(loader, r, r.logger)
	return r
}

func (r *Runtime) Registry() *extension.Registry {
	return r.registry
}

func (r *Runtime) Scripts() *script.Manager {
	return r.scripts
}

// Scene is the live object set of the running scene.
func (r *Runtime) Scene() *scene.Scene {
	return r.scene
}

func (r *Runtime) SceneName() string {
	return r.name
}

func (r *Runtime) Running() bool {
	return r.running
}

func (r *Runtime) Clock() *timing.Time {
	return r.clock
}

func (r *Runtime) InputManager() *input.Manager {
	return r.input
}

func (r *Runtime) AssetManager() *assets.Manager {
	return r.assets
}

// LastFaults returns the faults of the most recent frame, scene load or
// stop.
func (r *Runtime) LastFaults() []fault.Fault {
	return r.last
}

// Close stops the scene and releases the asset manager and input listeners.
func (r *Runtime) Close() {
	r.Stop()
	r.assets.Destroy()
	r.input.Destroy()
}
