package script

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ModuleLoader resolves a script path to a class. Invalidate drops whatever
// the loader cached for path so the next Resolve sees current source.
type ModuleLoader interface {
	Resolve(ctx context.Context, path string) (*Class, error)
	Invalidate(path string)
}

// Factory constructs a fresh Go behavior.
type Factory func() Behavior

// Registry is a ModuleLoader over compiled Go behaviors registered by name.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

var _ ModuleLoader = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]*Class)}
}

// Register adds a behavior under name. Capabilities come from one probe
// instance built with factory.
func (r *Registry) Register(name string, defaults map[string]any, factory Factory) error {
	name = registryName(name)
	caps := CapabilitiesOf(factory())
	class := NewClass(name, defaults, caps, func() (Behavior, error) {
		return factory(), nil
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.classes[name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateScript, name)
	}
	r.classes[name] = class
	return nil
}

func (r *Registry) MustRegister(name string, defaults map[string]any, factory Factory) {
	if err := r.Register(name, defaults, factory); err != nil {
		panic(err)
	}
}

func (r *Registry) Resolve(_ context.Context, path string) (*Class, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.classes[registryName(path)]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrScriptNotFound, path)
}

// Invalidate is a no-op: compiled behaviors cannot change at run time.
func (r *Registry) Invalidate(string) {}

// Names lists registered behaviors.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.classes))
	for name := range r.classes {
		out = append(out, name)
	}
	return out
}

// registryName accepts "Mover", "Mover.js" and "scripts/Mover.js" for the
// same behavior.
func registryName(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		p = p[i+1:]
	}
	return strings.TrimSuffix(p, ".js")
}

// Internal namespace prefixes.
var internalPrefixes = []string{"internal:", "internal/", "@internal/"}

// SplitNamespace reports whether path is in the internal namespace and
// returns it relative to that namespace's root.
func SplitNamespace(path string) (rest string, internal bool) {
	for _, prefix := range internalPrefixes {
		if strings.HasPrefix(path, prefix) {
			return strings.TrimPrefix(path[len(prefix):], "/"), true
		}
	}
	path = strings.TrimPrefix(path, "res://")
	return strings.TrimLeft(path, "/"), false
}

// NamespaceLoader routes internal paths to the bundled loader and every
// other path to the project's loader.
type NamespaceLoader struct {
	Internal ModuleLoader
	User     ModuleLoader
}

var _ ModuleLoader = NamespaceLoader{}

func (n NamespaceLoader) pick(path string) (ModuleLoader, string, error) {
	rest, internal := SplitNamespace(path)
	l := n.User
	if internal {
		l = n.Internal
	}
	if l == nil {
		return nil, "", fmt.Errorf("%w: no loader for %s", ErrScriptNotFound, path)
	}
	return l, rest, nil
}

func (n NamespaceLoader) Resolve(ctx context.Context, path string) (*Class, error) {
	l, rest, err := n.pick(path)
	if err != nil {
		return nil, err
	}
	return l.Resolve(ctx, rest)
}

func (n NamespaceLoader) Invalidate(path string) {
	if l, rest, err := n.pick(path); err == nil {
		l.Invalidate(rest)
	}
}
