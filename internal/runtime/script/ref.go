package script

import "github.com/ajsengine/ajs/internal/runtime/object"

// ObjectRef is the view of a game object that scripts get from lookups.
// Properties and flags are reachable; the internal namespace, the script
// list and the lifecycle flags owned by the runtime are not.
type ObjectRef struct {
	obj *object.GameObject
}

// RefOf wraps obj. It returns nil for a nil obj.
func RefOf(obj *object.GameObject) *ObjectRef {
	if obj == nil {
		return nil
	}
	return &ObjectRef{obj: obj}
}

func refsOf(objs []*object.GameObject) []*ObjectRef {
	out := make([]*ObjectRef, len(objs))
	for i, obj := range objs {
		out[i] = RefOf(obj)
	}
	return out
}

func (r *ObjectRef) Oid() string { return r.obj.Oid() }
func (r *ObjectRef) Name() string { return r.obj.Name() }
func (r *ObjectRef) Extension() string { return r.obj.Extension }
func (r *ObjectRef) Layer() int { return r.obj.Layer }

// Properties is the live property map.
func (r *ObjectRef) Properties() map[string]any { return r.obj.Properties }

func (r *ObjectRef) Get(key string) (any, bool) { return r.obj.Get(key) }
func (r *ObjectRef) Set(key string, value any) { r.obj.Set(key, value) }

func (r *ObjectRef) GetString(key, def string) string { return r.obj.GetString(key, def) }
func (r *ObjectRef) GetFloat(key string, def float64) float64 { return r.obj.GetFloat(key, def) }
func (r *ObjectRef) GetBool(key string, def bool) bool { return r.obj.GetBool(key, def) }

func (r *ObjectRef) HasTag(tag string) bool { return r.obj.HasTag(tag) }
func (r *ObjectRef) IsActive() bool { return r.obj.IsActive() }
func (r *ObjectRef) IsVisible() bool { return r.obj.IsVisible() }
func (r *ObjectRef) IsDestroyed() bool { return r.obj.IsDestroyed() }
func (r *ObjectRef) SetActive(active bool) { r.obj.SetActive(active) }
func (r *ObjectRef) SetVisible(visible bool) { r.obj.SetVisible(visible) }
