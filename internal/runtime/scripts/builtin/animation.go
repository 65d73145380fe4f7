package builtin

import (
	"fmt"
	"slices"

	"github.com/ajsengine/ajs/internal/core/observability/log"
	"github.com/ajsengine/ajs/internal/runtime/extensions"
	"github.com/ajsengine/ajs/internal/runtime/fault"
	"github.com/ajsengine/ajs/internal/runtime/object"
	"github.com/ajsengine/ajs/internal/runtime/script"
)

// spriteLink drives the sprite extension on the script's own object. It is
// established once in OnStart; a missing sprite runtime is a contract fault
// and the manager stops updating the instance.
type spriteLink struct {
	handle  *script.ExtensionHandle
	names   []string
	current string
	warned  map[string]bool
}

func (l *spriteLink) connect(owner string, obj *object.GameObject, api *script.API) error {
	h, ok := api.GetExtension(extensions.SpriteID)
	if !ok || !h.Has("setAnimation") || !h.Has("getAnimationNames") {
		return fault.Contract("%s on %s: sprite runtime %s is not available", owner, obj.Oid(), extensions.SpriteID)
	}
	out, err := h.Call("getAnimationNames")
	if err != nil {
		return fault.Contract("%s on %s: %w", owner, obj.Oid(), err)
	}
	names, _ := out.([]string)
	if len(names) == 0 {
		return fault.Contract("%s on %s: object has no animations", owner, obj.Oid())
	}
	if cur, err := h.Call("getCurrentAnimation"); err == nil {
		l.current, _ = cur.(string)
	}
	l.handle, l.names, l.warned = h, names, make(map[string]bool)
	return nil
}

// apply switches to name. An unknown name is a configuration problem: it is
// reported once and the first animation is used instead.
func (l *spriteLink) apply(name string, api *script.API) error {
	if name == "" {
		return nil
	}
	if !slices.Contains(l.names, name) {
		if !l.warned[name] {
			l.warned[name] = true
			api.Warn("unknown animation, using first",
				log.String("kind", fault.KindConfiguration.String()),
				log.String("animation", name),
				log.String("fallback", l.names[0]))
		}
		name = l.names[0]
	}
	if name == l.current {
		return nil
	}
	if _, err := l.handle.Call("setAnimation", name); err != nil {
		return fmt.Errorf("set animation %q: %w", name, err)
	}
	l.current = name
	return nil
}

// AnimationController keeps the sprite's animation in line with the
// instance properties. With both idleAnimation and moveAnimation set it
// follows the movement axis; otherwise it follows "animation", which other
// scripts may change at any time through the instance.
type AnimationController struct {
	props map[string]any
	link  spriteLink
}

func (c *AnimationController) SetProperties(props map[string]any) {
	c.props = props
}

func (c *AnimationController) OnStart(obj *object.GameObject, api *script.API) error {
	if err := c.link.connect(AnimationControllerName, obj, api); err != nil {
		return err
	}
	return c.link.apply(c.target(api), api)
}

func (c *AnimationController) OnUpdate(_ *object.GameObject, _ float64, api *script.API) error {
	return c.link.apply(c.target(api), api)
}

func (c *AnimationController) target(api *script.API) string {
	idle, move := propString(c.props, "idleAnimation"), propString(c.props, "moveAnimation")
	if idle == "" || move == "" {
		return propString(c.props, "animation")
	}
	in := api.Input()
	if in == nil {
		return idle
	}
	if v := in.GetMovementAxis(); v.X != 0 || v.Y != 0 {
		return move
	}
	return idle
}

// AnimationSwitcher maps keys to animations: {"keys": {"1": "idle", "2": "run"}}.
// Keys are checked in sorted order so a frame with several presses is
// deterministic; the last one wins.
type AnimationSwitcher struct {
	props map[string]any
	link  spriteLink
}

func (s *AnimationSwitcher) SetProperties(props map[string]any) {
	s.props = props
}

func (s *AnimationSwitcher) OnStart(obj *object.GameObject, api *script.API) error {
	return s.link.connect(AnimationSwitcherName, obj, api)
}

func (s *AnimationSwitcher) OnUpdate(_ *object.GameObject, _ float64, api *script.API) error {
	in := api.Input()
	keys, _ := s.props["keys"].(map[string]any)
	if in == nil || len(keys) == 0 {
		return nil
	}
	var next string
	for _, k := range sortedKeys(keys) {
		if name, ok := keys[k].(string); ok && in.IsKeyJustPressed(k) {
			next = name
		}
	}
	return s.link.apply(next, api)
}

func sortedKeys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
