package extension

import (
	"fmt"

	"github.com/ajsengine/ajs/internal/runtime/fault"
	"github.com/ajsengine/ajs/internal/runtime/object"
	"github.com/ajsengine/ajs/internal/runtime/render"
)

// lifecycleKey is the dispatcher's own slot in the internal namespace.
const lifecycleKey = "lifecycle"

type lifecycle struct {
	created   bool
	destroyed bool
}

// Dispatcher invokes lifecycle hooks over a set of objects. Each invocation
// is isolated: an error or panic becomes a fault.Fault for that object and
// the remaining objects still run.
type Dispatcher struct {
	registry *Registry
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

func state(obj *object.GameObject) *lifecycle {
	return object.EnsureState(obj, lifecycleKey, func() *lifecycle { return &lifecycle{} })
}

// IsCreated reports whether Create has run for obj.
func IsCreated(obj *object.GameObject) bool {
	s, ok := object.State[lifecycle](obj, lifecycleKey)
	return ok && s.created
}

func invoke(phase fault.Phase, obj *object.GameObject, source string, fn func() error) *fault.Fault {
	err := fault.Capture(fn)
	if err == nil {
		return nil
	}
	return &fault.Fault{Kind: fault.KindOf(err), Phase: phase, Oid: obj.Oid(), Source: source, Err: err}
}

// Create runs OnCreated exactly once per object. An object whose extension
// is not registered yields a configuration fault and is still marked created
// so it is not reported again.
func (d *Dispatcher) Create(objs []*object.GameObject, api API) []fault.Fault {
	var faults []fault.Fault
	for _, obj := range objs {
		st := state(obj)
		if st.created || st.destroyed {
			continue
		}
		st.created = true

		e, ok := d.registry.lookup(obj.Extension)
		if !ok {
			faults = append(faults, fault.Fault{
				Kind:   fault.KindConfiguration,
				Phase:  fault.PhaseCreate,
				Oid:    obj.Oid(),
				Source: obj.Extension,
				Err:    fmt.Errorf("%w: %q", ErrUnknownExtension, obj.Extension),
			})
			continue
		}
		if e.creator == nil {
			continue
		}
		if f := invoke(fault.PhaseCreate, obj, e.manifest.ID, func() error {
			return e.creator.OnCreated(obj, api)
		}); f != nil {
			faults = append(faults, *f)
		}
	}
	return faults
}

// Update runs OnUpdate for every created, active object in the given order.
func (d *Dispatcher) Update(objs []*object.GameObject, dt float64, api API) []fault.Fault {
	var faults []fault.Fault
	for _, obj := range objs {
		if !obj.IsActive() || !IsCreated(obj) {
			continue
		}
		e, ok := d.registry.lookup(obj.Extension)
		if !ok || e.updater == nil {
			continue
		}
		if f := invoke(fault.PhaseUpdate, obj, e.manifest.ID, func() error {
			return e.updater.OnUpdate(obj, dt, api)
		}); f != nil {
			faults = append(faults, *f)
		}
	}
	return faults
}

// Render runs OnRender for every created, visible object. Each call is
// bracketed by Save/Restore so transforms never leak between objects.
func (d *Dispatcher) Render(objs []*object.GameObject, canvas render.Canvas, api API) []fault.Fault {
	var faults []fault.Fault
	for _, obj := range objs {
		if !obj.IsVisible() || !IsCreated(obj) {
			continue
		}
		e, ok := d.registry.lookup(obj.Extension)
		if !ok || e.renderer == nil {
			continue
		}
		if f := invoke(fault.PhaseRender, obj, e.manifest.ID, func() error {
			canvas.Save()
			defer canvas.Restore()
			return e.renderer.OnRender(obj, canvas, api)
		}); f != nil {
			faults = append(faults, *f)
		}
	}
	return faults
}

// Destroy runs OnDestroyed exactly once per object that was created, then
// marks the object destroyed.
func (d *Dispatcher) Destroy(objs []*object.GameObject, api API) []fault.Fault {
	var faults []fault.Fault
	for _, obj := range objs {
		st := state(obj)
		if st.destroyed {
			continue
		}
		st.destroyed = true
		created := st.created
		obj.MarkDestroyed()
		if !created {
			continue
		}

		e, ok := d.registry.lookup(obj.Extension)
		if !ok || e.destroyer == nil {
			continue
		}
		if f := invoke(fault.PhaseDestroy, obj, e.manifest.ID, func() error {
			return e.destroyer.OnDestroyed(obj, api)
		}); f != nil {
			faults = append(faults, *f)
		}
	}
	return faults
}

// Call invokes a named method of obj's extension. Panics are returned as
// errors.
func (d *Dispatcher) Call(obj *object.GameObject, method string, api API, args ...any) (any, error) {
	return d.CallAs(obj.Extension, obj, method, api, args...)
}

// CallAs invokes a method of extension id against obj, which need not be
// one of that extension's objects. Scripts use it to reach system
// extensions.
func (d *Dispatcher) CallAs(id string, obj *object.GameObject, method string, api API, args ...any) (any, error) {
	e, ok := d.registry.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExtension, id)
	}
	fn, ok := e.methods[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMethod, id, method)
	}
	var out any
	err := fault.Capture(func() error {
		var err error
		out, err = fn(obj, api, args...)
		return err
	})
	return out, err
}
