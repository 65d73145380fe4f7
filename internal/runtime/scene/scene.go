// Package scene holds the serialized scene description and the live set of
// GameObjects built from it.
package scene

import (
	"errors"
	"sort"
	"sync"

	"github.com/ajsengine/ajs/internal/runtime/object"
)

var (
	ErrMissingOid   = errors.New("scene object has no oid")
	ErrDuplicateOid = errors.New("duplicate oid in scene")
	ErrNotFound     = errors.New("game object not found")
)

// Scene is the live, ordered collection of GameObjects. Ordering is by layer
// and then by creation sequence, which is the order extensions update and
// render in.
type Scene struct {
	mu      sync.RWMutex
	objects map[string]*object.GameObject
	ordered []*object.GameObject
	dirty   bool
	nextSeq uint64
}

func New() *Scene {
	return &Scene{objects: make(map[string]*object.GameObject)}
}

// Add registers obj and assigns its creation sequence.
func (s *Scene) Add(obj *object.GameObject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obj.Oid() == "" {
		return ErrMissingOid
	}
	if _, exists := s.objects[obj.Oid()]; exists {
		return ErrDuplicateOid
	}
	s.nextSeq++
	obj.SetSeq(s.nextSeq)
	s.objects[obj.Oid()] = obj
	s.ordered = append(s.ordered, obj)
	s.dirty = true
	return nil
}

// Remove drops the object from the scene and returns it.
func (s *Scene) Remove(oid string) (*object.GameObject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[oid]
	if !ok {
		return nil, false
	}
	delete(s.objects, oid)
	for i, o := range s.ordered {
		if o == obj {
			s.ordered = append(s.ordered[:i], s.ordered[i+1:]...)
			break
		}
	}
	return obj, true
}

func (s *Scene) Get(oid string) (*object.GameObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[oid]
	return obj, ok
}

// Find looks an object up by oid first, then by its "name" property.
func (s *Scene) Find(nameOrOid string) (*object.GameObject, bool) {
	if obj, ok := s.Get(nameOrOid); ok {
		return obj, true
	}
	for _, obj := range s.Objects() {
		if obj.GetString(object.PropName, "") == nameOrOid {
			return obj, true
		}
	}
	return nil, false
}

// FindWithTag returns every object carrying tag, in update order.
func (s *Scene) FindWithTag(tag string) []*object.GameObject {
	var out []*object.GameObject
	for _, obj := range s.Objects() {
		if obj.HasTag(tag) {
			out = append(out, obj)
		}
	}
	return out
}

// Objects returns a snapshot in layer/creation order. Mutating the scene
// while iterating the snapshot is safe.
func (s *Scene) Objects() []*object.GameObject {
	s.mu.Lock()
	if s.dirty {
		sort.SliceStable(s.ordered, func(i, j int) bool {
			a, b := s.ordered[i], s.ordered[j]
			if a.Layer != b.Layer {
				return a.Layer < b.Layer
			}
			return a.Seq() < b.Seq()
		})
		s.dirty = false
	}
	out := make([]*object.GameObject, len(s.ordered))
	copy(out, s.ordered)
	s.mu.Unlock()
	return out
}

// Relayer changes an object's layer and schedules a resort.
func (s *Scene) Relayer(oid string, layer int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[oid]
	if !ok {
		return false
	}
	obj.Layer = layer
	s.dirty = true
	return true
}

func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Clear forgets every object without running any lifecycle.
func (s *Scene) Clear() {
	s.mu.Lock()
	s.objects = make(map[string]*object.GameObject)
	s.ordered = nil
	s.dirty = false
	s.mu.Unlock()
}

// Instantiate builds a GameObject from its serialized form. Properties are
// deep-copied so the scene data can be reused across play sessions.
func Instantiate(od ObjectData) *object.GameObject {
	obj := object.New(od.Oid, od.Extension, CopyMap(od.Properties))
	obj.Layer = od.Layer
	obj.GroupID = od.GroupID
	if len(od.Groups) > 0 {
		obj.Groups = append([]string(nil), od.Groups...)
	}
	return obj
}

// CopyMap deep-copies the map/slice structure produced by JSON or YAML decoding.
func CopyMap(m map[string]any) map[string]any {
	if m == nil {
		return make(map[string]any)
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = copyValue(t[i])
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
