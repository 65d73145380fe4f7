// Package script attaches user behavior scripts to game objects and drives
// their lifecycle: onStart once, onUpdate every frame while the object is
// active, onDestroy once. Every invocation is fault-isolated per instance.
package script

import (
	"context"
	"errors"
	"sync"

	"github.com/ajsengine/ajs/internal/core/observability/log"
	"github.com/ajsengine/ajs/internal/runtime/fault"
	"github.com/ajsengine/ajs/internal/runtime/object"
)

type Manager struct {
	loader ModuleLoader
	host   Host
	logger log.Log

	classMu sync.Mutex
	classes map[string]*Class

	instances map[string][]*Instance
	objects   map[string]*object.GameObject
	// order is the sequence objects were first given instances in.
	order []string
}

func NewManager(loader ModuleLoader, host Host, logger log.Log) *Manager {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Manager{
		loader:    loader,
		host:      host,
		logger:    logger.Named("scripts"),
		classes:   make(map[string]*Class),
		instances: make(map[string][]*Instance),
		objects:   make(map[string]*object.GameObject),
	}
}

// LoadScript resolves path to a class. Classes are cached by path; on a miss
// the loader's own entry is invalidated before resolving so edited sources
// are picked up.
func (m *Manager) LoadScript(ctx context.Context, path string) (*Class, error) {
	m.classMu.Lock()
	defer m.classMu.Unlock()

	if c, ok := m.classes[path]; ok {
		return c, nil
	}
	m.loader.Invalidate(path)
	c, err := m.loader.Resolve(ctx, path)
	if err != nil {
		return nil, err
	}
	m.classes[path] = c
	return c, nil
}

// Reload forgets the cached class for path. Instances already attached keep
// running the old class; new attachments load the current source.
func (m *Manager) Reload(path string) {
	m.classMu.Lock()
	delete(m.classes, path)
	m.classMu.Unlock()
	m.loader.Invalidate(path)
}

// CreateScriptAPI builds a fresh API bound to obj.
func (m *Manager) CreateScriptAPI(obj *object.GameObject) *API {
	return newAPI(obj, m.host, m.logger)
}

func (m *Manager) record(faults []fault.Fault, f fault.Fault) []fault.Fault {
	m.logger.Warn("script fault",
		log.String("kind", f.Kind.String()),
		log.String("phase", string(f.Phase)),
		log.ScriptPath(f.Source),
		log.Oid(f.Oid),
		log.Error(f.Err),
	)
	return append(faults, f)
}

func loadKind(err error) fault.Kind {
	if errors.Is(err, ErrScriptNotFound) {
		return fault.KindConfiguration
	}
	return fault.KindOf(err)
}

// InitializeScriptsForGameObject instantiates every enabled script declared
// on obj and runs onStart on each. A failing entry is reported and skipped;
// the others still initialize. Objects that already have instances are left
// alone.
func (m *Manager) InitializeScriptsForGameObject(ctx context.Context, obj *object.GameObject) []fault.Fault {
	oid := obj.Oid()
	if _, ok := m.instances[oid]; ok {
		return nil
	}

	var faults []fault.Fault
	entries, errs := Entries(obj.Properties)
	for _, err := range errs {
		faults = m.record(faults, fault.Fault{Kind: fault.KindConfiguration, Phase: fault.PhaseLoad, Oid: oid, Err: err})
	}

	var attached []*Instance
	for _, entry := range entries {
		if !entry.Enabled {
			m.logger.Debug("script disabled", log.ScriptPath(entry.Path), log.Oid(oid))
			continue
		}

		class, err := m.LoadScript(ctx, entry.Path)
		if err != nil {
			faults = m.record(faults, fault.Fault{Kind: loadKind(err), Phase: fault.PhaseLoad, Oid: oid, Source: entry.Path, Err: err})
			continue
		}

		var b Behavior
		if err := fault.Capture(func() error {
			var err error
			b, err = class.New()
			return err
		}); err != nil {
			faults = m.record(faults, fault.Fault{Kind: fault.KindOf(err), Phase: fault.PhaseLoad, Oid: oid, Source: entry.Path, Err: err})
			continue
		}

		props := MergeProperties(class.Defaults, entry.Properties)
		if h, ok := b.(PropertyHolder); ok {
			h.SetProperties(props)
		}
		attached = append(attached, newInstance(class, entry.Path, obj, b, props))
	}

	if len(attached) == 0 {
		return faults
	}

	m.instances[oid] = attached
	m.objects[oid] = obj
	m.order = append(m.order, oid)
	refs := make([]object.ScriptRef, len(attached))
	for i, inst := range attached {
		refs[i] = inst
	}
	obj.SetScripts(refs)

	for _, inst := range attached {
		if f := m.start(inst); f != nil {
			faults = m.record(faults, *f)
		}
	}
	return faults
}

func (m *Manager) start(inst *Instance) *fault.Fault {
	inst.state = StateInitialized
	if inst.starter == nil {
		return nil
	}
	err := fault.Capture(func() error {
		return inst.starter.OnStart(inst.obj, m.CreateScriptAPI(inst.obj))
	})
	if err == nil {
		return nil
	}
	kind := fault.KindOf(err)
	if kind == fault.KindContract {
		// a missing capability will not appear later; stop updating
		inst.disabled = err
	}
	return &fault.Fault{Kind: kind, Phase: fault.PhaseStart, Oid: inst.obj.Oid(), Source: inst.path, Err: err}
}

// UpdateAllScripts runs onUpdate on every instance of every active object
// not scheduled for removal. Objects run in the order their scripts were
// initialized; an object's instances run in attachment order.
func (m *Manager) UpdateAllScripts(dt float64) []fault.Fault {
	var faults []fault.Fault
	for _, oid := range m.order {
		obj := m.objects[oid]
		if obj == nil || !obj.IsActive() {
			continue
		}
		for _, inst := range m.instances[oid] {
			// an earlier script may have destroyed obj this frame
			if m.host.Removing(obj) {
				break
			}
			if inst.state == StateDestroyed || inst.disabled != nil {
				continue
			}
			inst.state = StateActive
			if inst.updater == nil {
				continue
			}
			err := fault.Capture(func() error {
				return inst.updater.OnUpdate(obj, dt, m.CreateScriptAPI(obj))
			})
			if err != nil {
				f := fault.Fault{Kind: fault.KindOf(err), Phase: fault.PhaseUpdate, Oid: oid, Source: inst.path, Err: err}
				if f.Kind == fault.KindContract {
					inst.disabled = err
				}
				faults = m.record(faults, f)
			}
		}
	}
	return faults
}

// DestroyScriptsForGameObject runs onDestroy on each of obj's instances and
// detaches them.
func (m *Manager) DestroyScriptsForGameObject(obj *object.GameObject) []fault.Fault {
	oid := obj.Oid()
	list, ok := m.instances[oid]
	if !ok {
		return nil
	}
	delete(m.instances, oid)
	delete(m.objects, oid)
	for i, o := range m.order {
		if o == oid {
			m.order = append(m.order[:i:i], m.order[i+1:]...)
			break
		}
	}
	obj.SetScripts(nil)

	var faults []fault.Fault
	for _, inst := range list {
		if inst.state == StateDestroyed {
			continue
		}
		inst.state = StateDestroyed
		if inst.destroyer == nil {
			continue
		}
		err := fault.Capture(func() error {
			return inst.destroyer.OnDestroy(obj, m.CreateScriptAPI(obj))
		})
		if err != nil {
			faults = m.record(faults, fault.Fault{Kind: fault.KindOf(err), Phase: fault.PhaseDestroy, Oid: oid, Source: inst.path, Err: err})
		}
	}
	return faults
}

// CallScriptEvent invokes a custom event on every instance attached to obj
// that declares it.
func (m *Manager) CallScriptEvent(obj *object.GameObject, name string, args ...any) []fault.Fault {
	var faults []fault.Fault
	for _, inst := range m.instances[obj.Oid()] {
		if inst.state == StateDestroyed || inst.receiver == nil || !inst.class.Capabilities.HasEvent(name) {
			continue
		}
		err := fault.Capture(func() error {
			return inst.receiver.OnEvent(name, obj, m.CreateScriptAPI(obj), args...)
		})
		if err != nil {
			faults = m.record(faults, fault.Fault{Kind: fault.KindOf(err), Phase: fault.PhaseEvent, Event: name, Oid: obj.Oid(), Source: inst.path, Err: err})
		}
	}
	return faults
}

// Instances returns obj's instances in attachment order.
func (m *Manager) Instances(oid string) []*Instance {
	return append([]*Instance(nil), m.instances[oid]...)
}

// DestroyAll tears down every instance, in initialization order.
func (m *Manager) DestroyAll() []fault.Fault {
	var faults []fault.Fault
	for _, oid := range append([]string(nil), m.order...) {
		if obj := m.objects[oid]; obj != nil {
			faults = append(faults, m.DestroyScriptsForGameObject(obj)...)
		}
	}
	return faults
}

// ClearCache forgets every cached class.
func (m *Manager) ClearCache() {
	m.classMu.Lock()
	for path := range m.classes {
		m.loader.Invalidate(path)
	}
	m.classes = make(map[string]*Class)
	m.classMu.Unlock()
}
