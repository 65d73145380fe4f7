// Package extension defines the lifecycle contract object-type plugins
// implement and the dispatcher that drives it with per-object fault
// isolation.
package extension

import (
	"context"

	"github.com/ajsengine/ajs/internal/core/observability/log"
	"github.com/ajsengine/ajs/internal/runtime/assets"
	"github.com/ajsengine/ajs/internal/runtime/audio"
	"github.com/ajsengine/ajs/internal/runtime/input"
	"github.com/ajsengine/ajs/internal/runtime/object"
	"github.com/ajsengine/ajs/internal/runtime/render"
	"github.com/ajsengine/ajs/internal/runtime/timing"
)

// Type distinguishes singleton engine services from per-object plugins.
type Type string

const (
	TypeObject Type = ""
	TypeSystem Type = "system"
)

type Manifest struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	Type    Type   `json:"type,omitempty" yaml:"type,omitempty"`
}

// Extension is the only method a plugin must implement. Lifecycle hooks are
// the optional interfaces below.
type Extension interface {
	Manifest() Manifest
}

// Creator runs once per object before its first update. Work that cannot
// finish synchronously may continue in a goroutine and publish into
// obj.Internal; later hooks must tolerate that state being absent.
type Creator interface {
	OnCreated(obj *object.GameObject, api API) error
}

// Updater runs once per frame for active objects. dt is scaled milliseconds.
type Updater interface {
	OnUpdate(obj *object.GameObject, dt float64, api API) error
}

// Renderer draws the object. It must not mutate properties or internal state
// and is only called for visible objects.
type Renderer interface {
	OnRender(obj *object.GameObject, canvas render.Canvas, api API) error
}

// Destroyer releases whatever the object holds in its internal namespace.
type Destroyer interface {
	OnDestroyed(obj *object.GameObject, api API) error
}

// Method is a named extension entry point callable by scripts. It may mutate
// state even while the object is inactive or invisible.
type Method func(obj *object.GameObject, api API, args ...any) (any, error)

type MethodProvider interface {
	Methods() map[string]Method
}

// API is what the runtime hands to every lifecycle call.
type API interface {
	// Context is canceled when the scene stops. Async work started in
	// OnCreated should observe it.
	Context() context.Context
	Time() timing.Reader
	Input() input.Reader
	Mouse() input.MouseReader
	Assets() assets.Loader
	Audio() audio.Player
	ResolveAssetPath(path string) string
	// CallScriptEvent invokes a named event on every script attached to obj.
	CallScriptEvent(obj *object.GameObject, name string, args ...any)
	FindGameObject(nameOrOid string) (*object.GameObject, bool)
	Logger() log.Log
}
