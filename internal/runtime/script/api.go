package script

import (
	"fmt"

	"github.com/ajsengine/ajs/internal/core/observability/log"
	"github.com/ajsengine/ajs/internal/runtime/audio"
	"github.com/ajsengine/ajs/internal/runtime/input"
	"github.com/ajsengine/ajs/internal/runtime/object"
	"github.com/ajsengine/ajs/internal/runtime/render"
	"github.com/ajsengine/ajs/internal/runtime/timing"
)

// Host is the runtime seen from the script manager. The engine implements it.
type Host interface {
	Time() timing.Reader
	Input() input.Reader
	Mouse() input.MouseReader
	Audio() audio.Player
	Canvas() render.Canvas
	ResolveAssetPath(path string) string

	FindGameObject(nameOrOid string) (*object.GameObject, bool)
	FindGameObjectsWithTag(tag string) []*object.GameObject
	// Destroy schedules obj for removal at the end of the frame.
	Destroy(obj *object.GameObject)
	// Removing reports whether obj is scheduled for removal.
	Removing(obj *object.GameObject) bool

	// ExtensionMethods lists the script-callable methods of extension id.
	ExtensionMethods(id string) ([]string, bool)
	// CallExtension invokes method of extension id on behalf of caller.
	CallExtension(id string, caller *object.GameObject, method string, args ...any) (any, error)
}

// API is the capability surface a script receives. A fresh API is built for
// every call and is bound to one object.
type API struct {
	obj    *object.GameObject
	host   Host
	logger log.Log
}

func newAPI(obj *object.GameObject, host Host, logger log.Log) *API {
	return &API{obj: obj, host: host, logger: logger.With(log.Oid(obj.Oid()))}
}

func (a *API) Input() input.Reader {
	return a.host.Input()
}

func (a *API) Mouse() input.MouseReader {
	return a.host.Mouse()
}

func (a *API) Time() timing.Reader {
	return a.host.Time()
}

func (a *API) Audio() audio.Player {
	return a.host.Audio()
}

func (a *API) Canvas() render.Canvas {
	return a.host.Canvas()
}

func (a *API) ResolveAssetPath(path string) string {
	return a.host.ResolveAssetPath(path)
}

func (a *API) FindGameObject(nameOrOid string) (*ObjectRef, bool) {
	obj, ok := a.host.FindGameObject(nameOrOid)
	if !ok {
		return nil, false
	}
	return RefOf(obj), true
}

func (a *API) FindGameObjectsWithTag(tag string) []*ObjectRef {
	return refsOf(a.host.FindGameObjectsWithTag(tag))
}

// Destroy schedules target for removal; nil means the bound object.
func (a *API) Destroy(target *ObjectRef) {
	obj := a.obj
	if target != nil {
		obj = target.obj
	}
	a.host.Destroy(obj)
}

// GetProperty reads a property of the bound object.
func (a *API) GetProperty(key string) (any, bool) {
	return a.obj.Get(key)
}

// SetProperty writes a property of the bound object.
func (a *API) SetProperty(key string, value any) {
	a.obj.Set(key, value)
}

// Oid is the bound object's id.
func (a *API) Oid() string {
	return a.obj.Oid()
}

// GetExtension returns a handle to extension id whose calls act on the
// bound object. It reports false when id is not registered.
func (a *API) GetExtension(id string) (*ExtensionHandle, bool) {
	methods, ok := a.host.ExtensionMethods(id)
	if !ok {
		return nil, false
	}
	return &ExtensionHandle{id: id, obj: a.obj, host: a.host, methods: methods}, true
}

func (a *API) Log(msg string, fields ...log.Field) {
	a.logger.Info(msg, fields...)
}

func (a *API) Warn(msg string, fields ...log.Field) {
	a.logger.Warn(msg, fields...)
}

func (a *API) Error(msg string, fields ...log.Field) {
	a.logger.Error(msg, fields...)
}

// Logger is the object-scoped logger behind Log, Warn and Error.
func (a *API) Logger() log.Log {
	return a.logger
}

// ExtensionHandle calls named extension methods bound to one object.
type ExtensionHandle struct {
	id      string
	obj     *object.GameObject
	host    Host
	methods []string
}

func (h *ExtensionHandle) ID() string {
	return h.id
}

// Methods lists the callable method names.
func (h *ExtensionHandle) Methods() []string {
	return h.methods
}

func (h *ExtensionHandle) Has(method string) bool {
	for _, m := range h.methods {
		if m == method {
			return true
		}
	}
	return false
}

func (h *ExtensionHandle) Call(method string, args ...any) (any, error) {
	out, err := h.host.CallExtension(h.id, h.obj, method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", h.id, method, err)
	}
	return out, nil
}
