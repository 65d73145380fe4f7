package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ajsengine/ajs/internal/core/events/bus"
	"github.com/ajsengine/ajs/internal/core/observability/log"
	"github.com/ajsengine/ajs/internal/runtime/extension"
	"github.com/ajsengine/ajs/internal/runtime/fault"
	"github.com/ajsengine/ajs/internal/runtime/object"
	"github.com/ajsengine/ajs/internal/runtime/scene"
)

// LoadScene stops the running scene and starts data. Objects are created in
// scene order, then their scripts are initialized. Faults raised on the way
// are reported like frame faults; only invalid scene data, a second instance
// of a system extension or a canceled preload fail the load.
func (r *Runtime) LoadScene(ctx context.Context, data *scene.Data) error {
	if data == nil {
		return ErrNilScene
	}
	if err := data.Validate(); err != nil {
		return fault.Classified(fault.KindConfiguration, err)
	}
	if err := r.checkSystems(data.Objects); err != nil {
		return err
	}
	r.Stop()

	if r.preload {
		if err := r.assets.PreloadSceneAssets(ctx, data, r.progress); err != nil {
			return fmt.Errorf("preload scene %q: %w", data.Name, err)
		}
	}

	r.cancel()
	r.ctx, r.cancel = context.WithCancel(r.base)
	r.name = data.Name
	r.clock.Reset()
	for _, od := range data.Objects {
		if err := r.scene.Add(scene.Instantiate(od)); err != nil {
			r.scene.Clear()
			return fmt.Errorf("load scene %q: %w", data.Name, err)
		}
	}
	r.running = true

	r.begin()
	objs := r.scene.Objects()
	r.collectExt(r.ext.Create(objs, r))
	for _, obj := range objs {
		r.collect(r.scripts.InitializeScriptsForGameObject(ctx, obj))
		r.publish(bus.ObjectCreated, bus.ObjectEvent{Oid: obj.Oid(), Extension: obj.Extension})
	}
	faults := r.end()

	r.logger.Info("scene loaded",
		log.String("scene", data.Name),
		log.Int("objects", len(objs)),
		log.Int("faults", len(faults)))
	r.publish(bus.SceneLoaded, bus.SceneEvent{Name: data.Name, Objects: len(objs)})
	return nil
}

func (r *Runtime) progress(loaded, total int) {
	r.logger.Debug("preload", log.Int("loaded", loaded), log.Int("total", total))
	if r.onProgress != nil {
		r.onProgress(loaded, total)
	}
}

// checkSystems rejects a second object of any system extension.
func (r *Runtime) checkSystems(objs []scene.ObjectData) error {
	owners := make(map[string]string)
	for _, od := range objs {
		if !r.registry.IsSystem(od.Extension) {
			continue
		}
		if first, dup := owners[od.Extension]; dup {
			return fault.Configuration("%w: %s is used by %s and %s",
				extension.ErrDuplicateSystem, od.Extension, first, od.Oid)
		}
		owners[od.Extension] = od.Oid
	}
	return nil
}

// Instantiate adds an object to the running scene and creates it at once:
// its extension's OnCreated and its scripts' onStart run before Instantiate
// returns. An empty oid gets a generated one. The object renders in the
// current frame and updates from the next.
func (r *Runtime) Instantiate(od scene.ObjectData) (*object.GameObject, error) {
	if !r.running {
		return nil, ErrNotRunning
	}
	if od.Extension == "" {
		return nil, ErrNoExtension
	}
	if od.Oid == "" {
		od.Oid = uuid.NewString()
	}
	if r.registry.IsSystem(od.Extension) {
		for _, obj := range r.live() {
			if obj.Extension == od.Extension {
				return nil, fault.Configuration("%w: %s is used by %s",
					extension.ErrDuplicateSystem, od.Extension, obj.Oid())
			}
		}
	}

	obj := scene.Instantiate(od)
	if err := r.scene.Add(obj); err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", od.Oid, err)
	}

	nested := r.inFrame
	if !nested {
		r.begin()
	}
	r.collectExt(r.ext.Create([]*object.GameObject{obj}, r))
	r.collect(r.scripts.InitializeScriptsForGameObject(r.ctx, obj))
	r.publish(bus.ObjectCreated, bus.ObjectEvent{Oid: obj.Oid(), Extension: obj.Extension})
	if !nested {
		r.end()
	}
	return obj, nil
}

// Destroy schedules obj for removal at the end of the current frame (or the
// next one when called between frames). Until then it is neither updated
// again nor rendered. Repeated calls are ignored.
func (r *Runtime) Destroy(obj *object.GameObject) {
	if obj == nil || obj.IsDestroyed() || r.doomed[obj.Oid()] {
		return
	}
	r.doomed[obj.Oid()] = true
	r.pending = append(r.pending, obj)
}

// Removing reports whether obj is scheduled for removal by Destroy.
func (r *Runtime) Removing(obj *object.GameObject) bool {
	return obj != nil && r.doomed[obj.Oid()]
}

// flush destroys everything scheduled, including objects scheduled by the
// destroy hooks themselves.
func (r *Runtime) flush() {
	for len(r.pending) > 0 {
		obj := r.pending[0]
		r.pending = r.pending[1:]

		r.collect(r.scripts.DestroyScriptsForGameObject(obj))
		r.collectExt(r.ext.Destroy([]*object.GameObject{obj}, r))
		r.scene.Remove(obj.Oid())
		delete(r.doomed, obj.Oid())
		r.publish(bus.ObjectDestroyed, bus.ObjectEvent{Oid: obj.Oid(), Extension: obj.Extension})
	}
	r.pending = nil
}

// Stop destroys every object, scripts first, and leaves the runtime ready
// for another LoadScene. Cached assets are kept.
func (r *Runtime) Stop() {
	if !r.running {
		return
	}
	r.begin()
	r.flush()
	r.collect(r.scripts.DestroyAll())
	objs := r.scene.Objects()
	r.collectExt(r.ext.Destroy(objs, r))
	for _, obj := range objs {
		r.publish(bus.ObjectDestroyed, bus.ObjectEvent{Oid: obj.Oid(), Extension: obj.Extension})
	}
	r.end()

	r.scene.Clear()
	r.cancel()
	if r.audio != nil {
		r.audio.StopAll()
	}
	r.clock.Reset()
	r.running = false
	r.logger.Info("scene stopped", log.String("scene", r.name))
	r.publish(bus.SceneStopped, bus.SceneEvent{Name: r.name, Objects: len(objs)})
}
