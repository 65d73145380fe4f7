package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajsengine/ajs/internal/core/observability/log"
	"github.com/ajsengine/ajs/internal/runtime/audio"
	"github.com/ajsengine/ajs/internal/runtime/extension"
	"github.com/ajsengine/ajs/internal/runtime/extension/exttest"
	"github.com/ajsengine/ajs/internal/runtime/extensions"
	"github.com/ajsengine/ajs/internal/runtime/fault"
	"github.com/ajsengine/ajs/internal/runtime/input"
	"github.com/ajsengine/ajs/internal/runtime/object"
	"github.com/ajsengine/ajs/internal/runtime/render"
	"github.com/ajsengine/ajs/internal/runtime/script"
	"github.com/ajsengine/ajs/internal/runtime/timing"
)

// host connects the script manager to real extensions.
type host struct {
	reg *extension.Registry
	d   *extension.Dispatcher
	api *exttest.API
}

func (h *host) Time() timing.Reader { return nil }
func (h *host) Input() input.Reader { return h.api.InputMgr }
func (h *host) Mouse() input.MouseReader { return h.api.InputMgr.Mouse() }
func (h *host) Audio() audio.Player { return nil }
func (h *host) Canvas() render.Canvas { return nil }
func (h *host) ResolveAssetPath(p string) string { return p }
func (h *host) Destroy(*object.GameObject) {}

func (h *host) Removing(*object.GameObject) bool { return false }

func (h *host) FindGameObject(nameOrOid string) (*object.GameObject, bool) {
	return h.api.FindGameObject(nameOrOid)
}

func (h *host) FindGameObjectsWithTag(string) []*object.GameObject {
	return nil
}

func (h *host) ExtensionMethods(id string) ([]string, bool) {
	caps, ok := h.reg.Capabilities(id)
	return caps.Methods, ok
}

func (h *host) CallExtension(id string, caller *object.GameObject, method string, args ...any) (any, error) {
	return h.d.CallAs(id, caller, method, h.api, args...)
}

type fixture struct {
	host    *host
	scripts *script.Manager
	logs    *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := extension.NewRegistry()
	require.NoError(t, extensions.Register(reg, nil))
	h := &host{reg: reg, d: extension.NewDispatcher(reg), api: exttest.New()}

	behaviors := script.NewRegistry()
	require.NoError(t, Register(behaviors))

	core, logs := observer.New(zap.DebugLevel)
	m := script.NewManager(script.NamespaceLoader{Internal: behaviors}, h, log.NewFromZap(zap.New(core)))
	return &fixture{host: h, scripts: m, logs: logs}
}

// attach creates obj through its extension and starts its scripts.
func (f *fixture) attach(t *testing.T, obj *object.GameObject) []fault.Fault {
	t.Helper()
	f.host.api.Objects[obj.Oid()] = obj
	require.Empty(t, f.host.d.Create([]*object.GameObject{obj}, f.host.api))
	return f.scripts.InitializeScriptsForGameObject(context.Background(), obj)
}

func (f *fixture) frame(t *testing.T, events ...input.Event) {
	t.Helper()
	in := f.host.api.InputMgr
	for _, ev := range events {
		in.HandleEvent(ev)
	}
	in.Update()
	require.Empty(t, f.scripts.UpdateAllScripts(16))
}

func (f *fixture) animation(t *testing.T, obj *object.GameObject) string {
	t.Helper()
	out, err := f.host.d.Call(obj, "getCurrentAnimation", f.host.api)
	require.NoError(t, err)
	return out.(string)
}

func hero(scripts ...any) *object.GameObject {
	return object.New("hero", extensions.SpriteID, map[string]any{
		"spriteSheet": map[string]any{
			"frameWidth": 16.0, "frameHeight": 16.0,
			"animations": map[string]any{
				"idle": map[string]any{"frames": []any{0.0}},
				"run":  map[string]any{"frames": []any{1.0, 2.0}},
				"walk": map[string]any{"frames": []any{3.0, 4.0}},
			},
		},
		"animation": "walk",
		"scripts":   scripts,
	})
}

func entry(name string, props map[string]any) map[string]any {
	return map[string]any{"path": "internal:" + name, "properties": props}
}

func keyDown(key string) input.Event {
	return input.Event{Type: input.KeyDown, Key: key, Code: key}
}

func keyUp(key string) input.Event {
	return input.Event{Type: input.KeyUp, Key: key, Code: key}
}

func TestRegisterNames(t *testing.T) {
	reg := script.NewRegistry()
	require.NoError(t, Register(reg))
	assert.ElementsMatch(t, []string{AnimationControllerName, AnimationSwitcherName, MoverName}, reg.Names())
	assert.Error(t, Register(reg), "names are taken")
}

func TestAnimationControllerAppliesProperty(t *testing.T) {
	f := newFixture(t)
	obj := hero(entry(AnimationControllerName, map[string]any{"animation": "run"}))
	require.Empty(t, f.attach(t, obj))
	assert.Equal(t, "run", f.animation(t, obj))

	insts := f.scripts.Instances(obj.Oid())
	require.Len(t, insts, 1)
	insts[0].Properties()["animation"] = "idle"
	f.frame(t)
	assert.Equal(t, "idle", f.animation(t, obj))
}

func TestAnimationControllerFallsBackOnUnknownName(t *testing.T) {
	f := newFixture(t)
	obj := hero(entry(AnimationControllerName, map[string]any{"animation": "fly"}))
	require.Empty(t, f.attach(t, obj))
	f.frame(t)
	f.frame(t)

	assert.Equal(t, "idle", f.animation(t, obj))
	warned := f.logs.FilterMessage("unknown animation, using first")
	require.Equal(t, 1, warned.Len(), "reported once")
	ctx := warned.All()[0].ContextMap()
	assert.Equal(t, "fly", ctx["animation"])
	assert.Equal(t, "configuration", ctx["kind"])
}

func TestAnimationControllerWithoutSpriteIsContractFault(t *testing.T) {
	f := newFixture(t)
	obj := object.New("box", extensions.ShapeID, map[string]any{
		"scripts": []any{entry(AnimationControllerName, map[string]any{"animation": "run"})},
	})
	faults := f.attach(t, obj)
	require.Len(t, faults, 1)
	assert.Equal(t, fault.KindContract, faults[0].Kind)
	assert.Equal(t, fault.PhaseStart, faults[0].Phase)

	inst := f.scripts.Instances("box")[0]
	assert.Error(t, inst.Disabled())
	for range 3 {
		f.frame(t)
	}
}

func TestAnimationControllerFollowsMovement(t *testing.T) {
	f := newFixture(t)
	obj := hero(entry(AnimationControllerName, map[string]any{
		"idleAnimation": "idle",
		"moveAnimation": "run",
	}))
	require.Empty(t, f.attach(t, obj))
	assert.Equal(t, "idle", f.animation(t, obj))

	f.frame(t, keyDown("ArrowRight"))
	assert.Equal(t, "run", f.animation(t, obj))
	f.frame(t, keyUp("ArrowRight"))
	assert.Equal(t, "idle", f.animation(t, obj))
}

func TestAnimationSwitcher(t *testing.T) {
	f := newFixture(t)
	obj := hero(entry(AnimationSwitcherName, map[string]any{
		"keys": map[string]any{"1": "idle", "2": "run", "3": "nope"},
	}))
	require.Empty(t, f.attach(t, obj))
	assert.Equal(t, "walk", f.animation(t, obj), "nothing pressed yet")

	f.frame(t, keyDown("2"))
	assert.Equal(t, "run", f.animation(t, obj))
	f.frame(t)
	assert.Equal(t, "run", f.animation(t, obj), "held key does not retrigger")

	f.frame(t, keyUp("2"), keyDown("3"))
	assert.Equal(t, "idle", f.animation(t, obj), "unknown name falls back to first")
}

func TestMover(t *testing.T) {
	f := newFixture(t)
	obj := hero(entry(MoverName, map[string]any{"speed": 100.0, "faceDirection": true}))
	obj.Set(object.PropX, 50.0)
	require.Empty(t, f.attach(t, obj))

	f.host.api.InputMgr.HandleEvent(keyDown("ArrowLeft"))
	f.host.api.InputMgr.Update()
	require.Empty(t, f.scripts.UpdateAllScripts(500))
	assert.InDelta(t, 0.0, obj.GetFloat(object.PropX, 0), 1e-9)
	assert.Equal(t, true, obj.Properties["flipX"])

	f.host.api.InputMgr.HandleEvent(keyUp("ArrowLeft"))
	f.host.api.InputMgr.HandleEvent(keyDown("ArrowDown"))
	f.host.api.InputMgr.Update()
	require.Empty(t, f.scripts.UpdateAllScripts(1000))
	assert.InDelta(t, 100.0, obj.GetFloat(object.PropY, 0), 1e-9)
}

func TestMoverRestrictedAxis(t *testing.T) {
	f := newFixture(t)
	obj := hero(entry(MoverName, map[string]any{"axis": "horizontal"}))
	require.Empty(t, f.attach(t, obj))

	f.host.api.InputMgr.HandleEvent(keyDown("ArrowDown"))
	f.host.api.InputMgr.Update()
	require.Empty(t, f.scripts.UpdateAllScripts(1000))
	assert.Zero(t, obj.GetFloat(object.PropY, 0))
}
