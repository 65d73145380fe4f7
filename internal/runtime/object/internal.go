package object

import "sync"

// Internal is the runtime-owned namespace of a GameObject. Each subsystem
// stores its private state under its own key ("sprite", "button", ...).
type Internal struct {
	mu     sync.RWMutex
	values map[string]any
}

func NewInternal() *Internal {
	return &Internal{values: make(map[string]any)}
}

func (i *Internal) Get(key string) (any, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	v, ok := i.values[key]
	return v, ok
}

func (i *Internal) Set(key string, value any) {
	i.mu.Lock()
	i.values[key] = value
	i.mu.Unlock()
}

func (i *Internal) Delete(key string) {
	i.mu.Lock()
	delete(i.values, key)
	i.mu.Unlock()
}

func (i *Internal) Has(key string) bool {
	_, ok := i.Get(key)
	return ok
}

// Len is mostly useful in tests.
func (i *Internal) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.values)
}

// State returns the value stored under key when it has type *T.
func State[T any](obj *GameObject, key string) (*T, bool) {
	v, ok := obj.Internal.Get(key)
	if !ok {
		return nil, false
	}
	s, ok := v.(*T)
	return s, ok
}

// EnsureState returns the *T under key, creating it with init when absent.
func EnsureState[T any](obj *GameObject, key string, init func() *T) *T {
	obj.Internal.mu.Lock()
	defer obj.Internal.mu.Unlock()
	if v, ok := obj.Internal.values[key].(*T); ok {
		return v
	}
	v := init()
	obj.Internal.values[key] = v
	return v
}
