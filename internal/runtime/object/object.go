// Package object defines the GameObject scene entity and its runtime-owned
// internal namespace.
package object

import (
	"fmt"
	"sync"
)

// Well-known property keys.
const (
	PropActive  = "active"
	PropVisible = "visible"
	PropName    = "name"
	PropTag     = "tag"
	PropTags    = "tags"
	PropX       = "x"
	PropY       = "y"
	PropWidth   = "width"
	PropHeight  = "height"
	PropAngle   = "angle"
	PropOpacity = "opacity"
	PropScripts = "scripts"
	PropScript  = "script"
)

// ScriptRef is the minimal view of an attached script instance kept on the
// object for convenience lookups.
type ScriptRef interface {
	Path() string
	Properties() map[string]any
}

// GameObject is a scene entity. Properties are mutated only on the frame
// goroutine; Internal may be written from async work started in OnCreated.
type GameObject struct {
	oid       string
	Extension string
	Layer     int
	GroupID   string
	Groups    []string

	Properties map[string]any
	Internal   *Internal

	scriptsMu sync.RWMutex
	scripts   []ScriptRef

	seq       uint64
	destroyed bool
}

// New creates an object with an empty internal namespace. Properties is
// used as-is; pass a copy when the source must stay untouched.
func New(oid, extension string, properties map[string]any) *GameObject {
	if properties == nil {
		properties = make(map[string]any)
	}
	return &GameObject{
		oid:        oid,
		Extension:  extension,
		Properties: properties,
		Internal:   NewInternal(),
	}
}

func (g *GameObject) Oid() string {
	return g.oid
}

// Seq is the creation sequence number assigned by the scene.
func (g *GameObject) Seq() uint64 {
	return g.seq
}

// SetSeq is called once by the owning scene.
func (g *GameObject) SetSeq(seq uint64) {
	g.seq = seq
}

func (g *GameObject) Name() string {
	return g.GetString(PropName, g.oid)
}

// IsActive reports whether the object takes part in updates.
func (g *GameObject) IsActive() bool {
	return !g.destroyed && g.GetBool(PropActive, true)
}

// IsVisible reports whether the object should be rendered.
func (g *GameObject) IsVisible() bool {
	return !g.destroyed && g.GetBool(PropVisible, true)
}

func (g *GameObject) SetActive(active bool) {
	g.Properties[PropActive] = active
}

func (g *GameObject) SetVisible(visible bool) {
	g.Properties[PropVisible] = visible
}

func (g *GameObject) IsDestroyed() bool {
	return g.destroyed
}

// MarkDestroyed flips the terminal flag. It reports false when the object was
// already destroyed.
func (g *GameObject) MarkDestroyed() bool {
	if g.destroyed {
		return false
	}
	g.destroyed = true
	return true
}

// HasTag matches the single "tag" property and the "tags" list.
func (g *GameObject) HasTag(tag string) bool {
	if s, ok := g.Properties[PropTag].(string); ok && s == tag {
		return true
	}
	switch tags := g.Properties[PropTags].(type) {
	case []string:
		for _, t := range tags {
			if t == tag {
				return true
			}
		}
	case []any:
		for _, t := range tags {
			if s, ok := t.(string); ok && s == tag {
				return true
			}
		}
	}
	return false
}

func (g *GameObject) Get(key string) (any, bool) {
	v, ok := g.Properties[key]
	return v, ok
}

func (g *GameObject) Set(key string, value any) {
	g.Properties[key] = value
}

func (g *GameObject) GetString(key, def string) string {
	if s, ok := g.Properties[key].(string); ok {
		return s
	}
	return def
}

func (g *GameObject) GetBool(key string, def bool) bool {
	if b, ok := g.Properties[key].(bool); ok {
		return b
	}
	return def
}

func (g *GameObject) GetFloat(key string, def float64) float64 {
	if f, ok := ToFloat(g.Properties[key]); ok {
		return f
	}
	return def
}

// Scripts returns the attached script instances in attachment order.
func (g *GameObject) Scripts() []ScriptRef {
	g.scriptsMu.RLock()
	defer g.scriptsMu.RUnlock()
	out := make([]ScriptRef, len(g.scripts))
	copy(out, g.scripts)
	return out
}

func (g *GameObject) SetScripts(scripts []ScriptRef) {
	g.scriptsMu.Lock()
	g.scripts = scripts
	g.scriptsMu.Unlock()
}

func (g *GameObject) GoString() string {
	return fmt.Sprintf("GameObject{oid:%q extension:%q layer:%d}", g.oid, g.Extension, g.Layer)
}

// ToFloat converts the numeric shapes produced by JSON, YAML and JS decoding.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	default:
		return 0, false
	}
}
