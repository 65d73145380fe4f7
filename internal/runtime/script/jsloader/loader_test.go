package jsloader

import (
	"context"
	"slices"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajsengine/ajs/internal/runtime/audio"
	"github.com/ajsengine/ajs/internal/runtime/input"
	"github.com/ajsengine/ajs/internal/runtime/object"
	"github.com/ajsengine/ajs/internal/runtime/render"
	"github.com/ajsengine/ajs/internal/runtime/script"
	"github.com/ajsengine/ajs/internal/runtime/timing"
)

const mover = `
class Mover {
	constructor() {
		this.properties = { speed: 10, color: "red" };
		this.started = 0;
	}
	onStart(gameObject, api) {
		this.started++;
		gameObject.properties.started = this.started;
	}
	onUpdate(gameObject, dt, api) {
		gameObject.properties.x += this.properties.speed * dt / 1000;
	}
	onClick(gameObject, api, button) {
		gameObject.properties.clicked = button;
	}
}
module.exports = Mover;
`

type stubHost struct {
	in        *input.Manager
	objects   map[string]*object.GameObject
	destroyed []string
	calls     []string
}

func newStubHost() *stubHost {
	return &stubHost{in: input.NewManager(), objects: make(map[string]*object.GameObject)}
}

func (h *stubHost) Time() timing.Reader { return nil }
func (h *stubHost) Input() input.Reader { return h.in }
func (h *stubHost) Mouse() input.MouseReader { return h.in.Mouse() }
func (h *stubHost) Audio() audio.Player { return nil }
func (h *stubHost) Canvas() render.Canvas { return nil }
func (h *stubHost) ResolveAssetPath(p string) string { return "assets/" + p }

func (h *stubHost) FindGameObject(nameOrOid string) (*object.GameObject, bool) {
	obj, ok := h.objects[nameOrOid]
	return obj, ok
}

func (h *stubHost) FindGameObjectsWithTag(tag string) []*object.GameObject {
	var out []*object.GameObject
	for _, obj := range h.objects {
		if obj.HasTag(tag) {
			out = append(out, obj)
		}
	}
	return out
}

func (h *stubHost) Destroy(obj *object.GameObject) {
	h.destroyed = append(h.destroyed, obj.Oid())
}

func (h *stubHost) Removing(obj *object.GameObject) bool {
	return slices.Contains(h.destroyed, obj.Oid())
}

func (h *stubHost) ExtensionMethods(id string) ([]string, bool) {
	if id != "com.ajs.sprite" {
		return nil, false
	}
	return []string{"setAnimation"}, true
}

func (h *stubHost) CallExtension(id string, caller *object.GameObject, method string, args ...any) (any, error) {
	h.calls = append(h.calls, method+":"+caller.Oid())
	if len(args) > 0 && args[0] == "missing" {
		return nil, assert.AnError
	}
	return "ok", nil
}

func newLoader(t *testing.T, files fstest.MapFS, opts ...Option) *Loader {
	t.Helper()
	l, err := New(files, opts...)
	require.NoError(t, err)
	return l
}

func TestResolveReadsClassShape(t *testing.T) {
	l := newLoader(t, fstest.MapFS{"scripts/Mover.js": {Data: []byte(mover)}})

	c, err := l.Resolve(context.Background(), "res://scripts/Mover.js")
	require.NoError(t, err)
	assert.True(t, c.Capabilities.HasOnStart)
	assert.True(t, c.Capabilities.HasOnUpdate)
	assert.False(t, c.Capabilities.HasOnDestroy)
	assert.Equal(t, []string{"onClick"}, c.Capabilities.Events)
	assert.Equal(t, map[string]any{"speed": 10.0, "color": "red"}, c.Defaults)

	// the extension is optional
	again, err := l.Resolve(context.Background(), "scripts/Mover")
	require.NoError(t, err)
	assert.Same(t, c, again)
}

func TestResolveErrors(t *testing.T) {
	l := newLoader(t, fstest.MapFS{
		"plain.js":  {Data: []byte(`module.exports = { speed: 1 };`)},
		"arrow.js":  {Data: []byte(`module.exports = () => 1;`)},
		"broken.js": {Data: []byte(`class {`)},
		"throws.js": {Data: []byte(`throw new Error("boom");`)},
	})
	ctx := context.Background()

	_, err := l.Resolve(ctx, "missing.js")
	assert.ErrorIs(t, err, script.ErrScriptNotFound)
	_, err = l.Resolve(ctx, "plain.js")
	assert.ErrorIs(t, err, script.ErrNotAClass)
	_, err = l.Resolve(ctx, "arrow.js")
	assert.ErrorIs(t, err, script.ErrNotAClass)
	_, err = l.Resolve(ctx, "broken.js")
	assert.ErrorContains(t, err, "compile broken.js")
	_, err = l.Resolve(ctx, "throws.js")
	assert.ErrorContains(t, err, "boom")

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = l.Resolve(canceled, "plain.js")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExportForms(t *testing.T) {
	l := newLoader(t, fstest.MapFS{
		"a.js": {Data: []byte("export default class A { onUpdate() {} }")},
		"b.js": {Data: []byte("exports.default = class B { onDestroy() {} };")},
		"c.js": {Data: []byte("class C { constructor() { this.onHit = () => {}; } }\nC.properties = { hp: 3 };\nmodule.exports = C;")},
	})
	ctx := context.Background()

	a, err := l.Resolve(ctx, "a.js")
	require.NoError(t, err)
	assert.True(t, a.Capabilities.HasOnUpdate)

	b, err := l.Resolve(ctx, "b.js")
	require.NoError(t, err)
	assert.True(t, b.Capabilities.HasOnDestroy)

	c, err := l.Resolve(ctx, "c.js")
	require.NoError(t, err)
	assert.True(t, c.Capabilities.HasEvent("onHit"))
	assert.Equal(t, map[string]any{"hp": 3.0}, c.Defaults)
}

func TestInvalidateRecompilesOnlyChangedSource(t *testing.T) {
	files := fstest.MapFS{"m.js": {Data: []byte(mover)}}
	l := newLoader(t, files)
	ctx := context.Background()

	first, err := l.Resolve(ctx, "m.js")
	require.NoError(t, err)

	l.Invalidate("m.js")
	same, err := l.Resolve(ctx, "m.js")
	require.NoError(t, err)
	assert.Same(t, first, same)

	files["m.js"] = &fstest.MapFile{Data: []byte("module.exports = class { onDestroy() {} };")}
	cached, err := l.Resolve(ctx, "m.js")
	require.NoError(t, err)
	assert.Same(t, first, cached, "not invalidated yet")

	l.Invalidate("m.js")
	fresh, err := l.Resolve(ctx, "m.js")
	require.NoError(t, err)
	assert.NotSame(t, first, fresh)
	assert.True(t, fresh.Capabilities.HasOnDestroy)
}

func setupManager(t *testing.T, files fstest.MapFS, opts ...Option) (*script.Manager, *stubHost) {
	t.Helper()
	host := newStubHost()
	return script.NewManager(newLoader(t, files, opts...), host, nil), host
}

func TestScriptLifecycleThroughManager(t *testing.T) {
	m, host := setupManager(t, fstest.MapFS{"Mover.js": {Data: []byte(mover)}})
	obj := object.New("p1", "com.ajs.shape", map[string]any{
		"x": 0.0,
		"scripts": []any{
			map[string]any{"path": "Mover.js", "properties": map[string]any{"speed": 5.0}},
		},
	})
	host.objects["p1"] = obj

	require.Empty(t, m.InitializeScriptsForGameObject(context.Background(), obj))
	inst := m.Instances("p1")[0]
	assert.Equal(t, map[string]any{"speed": 5.0, "color": "red"}, inst.Properties())
	assert.Equal(t, 1.0, obj.Properties["started"])

	require.Empty(t, m.UpdateAllScripts(1000))
	require.Empty(t, m.UpdateAllScripts(1000))
	assert.Equal(t, 10.0, obj.Properties["x"])

	require.Empty(t, m.CallScriptEvent(obj, "onClick", 2))
	assert.Equal(t, 2.0, obj.Properties["clicked"])
}

func TestThrowingScriptIsIsolated(t *testing.T) {
	m, host := setupManager(t, fstest.MapFS{
		"Boom.js": {Data: []byte(`module.exports = class {
			onUpdate(go) { if (go.oid === "x") { throw new Error("bad frame"); } go.properties.ran = true; }
		};`)},
	})
	ctx := context.Background()
	x := object.New("x", "", map[string]any{"script": "Boom.js"})
	y := object.New("y", "", map[string]any{"script": "Boom.js"})
	host.objects["x"], host.objects["y"] = x, y
	require.Empty(t, m.InitializeScriptsForGameObject(ctx, x))
	require.Empty(t, m.InitializeScriptsForGameObject(ctx, y))

	faults := m.UpdateAllScripts(16)
	require.Len(t, faults, 1)
	assert.Equal(t, "x", faults[0].Oid)
	assert.ErrorContains(t, faults[0], "bad frame")
	assert.Equal(t, true, y.Properties["ran"])
}

func TestScriptAPIBindings(t *testing.T) {
	m, host := setupManager(t, fstest.MapFS{
		"Api.js": {Data: []byte(`module.exports = class {
			onStart(go, api) {
				go.properties.path = api.resolveAssetPath("hero.png");
				go.properties.enemies = api.findGameObjectsWithTag("enemy").length;
				go.properties.target = api.findGameObject("e1").name;
				go.properties.nobody = api.findGameObject("ghost") === null;
				go.properties.held = api.input.isKeyDown("ArrowLeft");
				api.setProperty("hp", api.getProperty("hp") - 1);
				go.properties.hasInternal = go.internal !== undefined;

				const sprite = api.getExtension("com.ajs.sprite");
				go.properties.result = sprite.setAnimation("run");
				go.properties.viaCall = sprite.call("setAnimation", "idle");
				try { sprite.setAnimation("missing"); } catch (e) { go.properties.failed = true; }
				go.properties.noExt = api.getExtension("com.nope") === null;

				api.destroy(api.findGameObject("e1"));
				api.destroy("e2");
				api.destroy();
				console.log("started", go.oid);
			}
		};`)},
	})
	player := object.New("p", "", map[string]any{"script": "Api.js", "hp": 3.0})
	host.objects["p"] = player
	host.objects["e1"] = object.New("e1", "", map[string]any{"tag": "enemy", "name": "Grunt"})
	host.objects["e2"] = object.New("e2", "", map[string]any{"tags": []any{"enemy"}})
	host.in.HandleEvent(input.Event{Type: input.KeyDown, Key: "ArrowLeft"})

	require.Empty(t, m.InitializeScriptsForGameObject(context.Background(), player))
	p := player.Properties
	assert.Equal(t, "assets/hero.png", p["path"])
	assert.Equal(t, 2.0, p["enemies"])
	assert.Equal(t, "Grunt", p["target"])
	assert.Equal(t, true, p["nobody"])
	assert.Equal(t, true, p["held"])
	assert.Equal(t, 2.0, p["hp"])
	assert.Equal(t, false, p["hasInternal"])
	assert.Equal(t, "ok", p["result"])
	assert.Equal(t, "ok", p["viaCall"])
	assert.Equal(t, true, p["failed"])
	assert.Equal(t, true, p["noExt"])
	assert.Equal(t, []string{"setAnimation:p", "setAnimation:p", "setAnimation:p"}, host.calls)
	assert.Equal(t, []string{"e1", "e2", "p"}, host.destroyed)
}

func TestCallTimeoutInterruptsRunawayScript(t *testing.T) {
	m, host := setupManager(t, fstest.MapFS{
		"Spin.js": {Data: []byte(`module.exports = class {
			onUpdate(go) { if (go.properties.spin) { for (;;) {} } go.properties.n = (go.properties.n || 0) + 1; }
		};`)},
	}, WithCallTimeout(50*time.Millisecond))
	obj := object.New("s", "", map[string]any{"script": "Spin.js", "spin": true})
	host.objects["s"] = obj
	require.Empty(t, m.InitializeScriptsForGameObject(context.Background(), obj))

	faults := m.UpdateAllScripts(16)
	require.Len(t, faults, 1)
	assert.ErrorIs(t, faults[0], ErrTimeout)

	// the runtime is usable again afterwards
	obj.Properties["spin"] = false
	require.Empty(t, m.UpdateAllScripts(16))
	assert.Equal(t, 1.0, obj.Properties["n"])
}
