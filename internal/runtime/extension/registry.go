package extension

import (
	"fmt"
	"slices"
	"sync"
)

// Capabilities is the set of optional hooks an extension implements,
// computed once at registration.
type Capabilities struct {
	OnCreated   bool
	OnUpdate    bool
	OnRender    bool
	OnDestroyed bool
	Methods     []string
}

func (c Capabilities) HasMethod(name string) bool {
	_, found := slices.BinarySearch(c.Methods, name)
	return found
}

func capabilitiesOf(ext Extension, methods map[string]Method) Capabilities {
	_, c := ext.(Creator)
	_, u := ext.(Updater)
	_, r := ext.(Renderer)
	_, d := ext.(Destroyer)
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	slices.Sort(names)
	return Capabilities{OnCreated: c, OnUpdate: u, OnRender: r, OnDestroyed: d, Methods: names}
}

type entry struct {
	ext      Extension
	manifest Manifest
	caps     Capabilities
	methods  map[string]Method

	creator   Creator
	updater   Updater
	renderer  Renderer
	destroyer Destroyer
}

// Registry maps extension ids onto their implementations. Each runtime owns
// its own registry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

func (r *Registry) Register(ext Extension) error {
	m := ext.Manifest()
	if m.ID == "" {
		return ErrInvalidManifest
	}

	var methods map[string]Method
	if mp, ok := ext.(MethodProvider); ok {
		methods = mp.Methods()
	}
	e := &entry{ext: ext, manifest: m, methods: methods, caps: capabilitiesOf(ext, methods)}
	e.creator, _ = ext.(Creator)
	e.updater, _ = ext.(Updater)
	e.renderer, _ = ext.(Renderer)
	e.destroyer, _ = ext.(Destroyer)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.entries[m.ID]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateExtension, m.ID)
	}
	r.entries[m.ID] = e
	r.order = append(r.order, m.ID)
	return nil
}

// MustRegister panics on error. Intended for wiring built-in extensions.
func (r *Registry) MustRegister(exts ...Extension) {
	for _, ext := range exts {
		if err := r.Register(ext); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) lookup(id string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

func (r *Registry) Get(id string) (Extension, bool) {
	e, ok := r.lookup(id)
	if !ok {
		return nil, false
	}
	return e.ext, true
}

func (r *Registry) Manifest(id string) (Manifest, bool) {
	e, ok := r.lookup(id)
	if !ok {
		return Manifest{}, false
	}
	return e.manifest, true
}

func (r *Registry) Capabilities(id string) (Capabilities, bool) {
	e, ok := r.lookup(id)
	if !ok {
		return Capabilities{}, false
	}
	return e.caps, true
}

// IsSystem reports whether id names a singleton system extension.
func (r *Registry) IsSystem(id string) bool {
	m, ok := r.Manifest(id)
	return ok && m.Type == TypeSystem
}

// List returns manifests in registration order.
func (r *Registry) List() []Manifest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Manifest, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].manifest)
	}
	return out
}
