package engine

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

// Context is canceled when the scene stops or is replaced. It is already
// canceled while no scene is loaded.
func (r *Runtime) Context() context.Context {
	return r.ctx
}

func (r *Runtime) Time() timing.Reader {
	return r.clock
}

func (r *Runtime) Input() input.Reader {
	return r.input
}

func (r *Runtime) Mouse() input.MouseReader {
	return r.input.Mouse()
}

func (r *Runtime) Assets() assets.Loader {
	return r.assets
}

func (r *Runtime) Audio() audio.Player {
	return r.audio
}

// Canvas is the surface of the frame in progress, nil between frames.
func (r *Runtime) Canvas() render.Canvas {
	return r.canvas
}

func (r *Runtime) ResolveAssetPath(path string) string {
	return r.assets.ResolveAssetPath(path)
}

func (r *Runtime) CallScriptEvent(obj *object.GameObject, name string, args ...any) {
	r.collect(r.scripts.CallScriptEvent(obj, name, args...))
}

func (r *Runtime) FindGameObject(nameOrOid string) (*object.GameObject, bool) {
	obj, ok := r.scene.Find(nameOrOid)
	if !ok || r.doomed[obj.Oid()] {
		return nil, false
	}
	return obj, true
}

func (r *Runtime) FindGameObjectsWithTag(tag string) []*object.GameObject {
	objs := r.scene.FindWithTag(tag)
	out := objs[:0]
	for _, obj := range objs {
		if !r.doomed[obj.Oid()] {
			out = append(out, obj)
		}
	}
	return out
}

func (r *Runtime) ExtensionMethods(id string) ([]string, bool) {
	caps, ok := r.registry.Capabilities(id)
	if !ok {
		return nil, false
	}
	return caps.Methods, true
}

func (r *Runtime) CallExtension(id string, caller *object.GameObject, method string, args ...any) (any, error) {
	return r.ext.CallAs(id, caller, method, r, args...)
}

func (r *Runtime) Logger() log.Log {
	return r.logger
}
