// Package builtin holds the Go behaviors served from the internal script
// namespace, e.g. "internal:Mover".
package builtin

import (
	"errors"

	"github.com/ajsengine/ajs/internal/runtime/object"
	"github.com/ajsengine/ajs/internal/runtime/script"
)

// Registered names.
const (
	AnimationControllerName = "AnimationController"
	AnimationSwitcherName   = "AnimationSwitcher"
	MoverName               = "Mover"
)

// Register adds every built-in behavior to reg.
func Register(reg *script.Registry) error {
	return errors.Join(
		reg.Register(AnimationControllerName, map[string]any{
			"animation":     "",
			"idleAnimation": "",
			"moveAnimation": "",
		}, func() script.Behavior { return &AnimationController{} }),
		reg.Register(AnimationSwitcherName, map[string]any{
			"keys": map[string]any{},
		}, func() script.Behavior { return &AnimationSwitcher{} }),
		reg.Register(MoverName, map[string]any{
			"speed":         defaultSpeed,
			"axis":          axisBoth,
			"faceDirection": false,
		}, func() script.Behavior { return &Mover{} }),
	)
}

func propString(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}

func propFloat(props map[string]any, key string, def float64) float64 {
	if f, ok := object.ToFloat(props[key]); ok {
		return f
	}
	return def
}
