package extension_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajsengine/ajs/internal/runtime/extension"
	"github.com/ajsengine/ajs/internal/runtime/extension/exttest"
	"github.com/ajsengine/ajs/internal/runtime/fault"
	"github.com/ajsengine/ajs/internal/runtime/object"
	"github.com/ajsengine/ajs/internal/runtime/render"
)

// probe records every hook call and can be told to fail for one oid.
type probe struct {
	id      string
	calls   []string
	failOn  string
	panicOn string
}

func (p *probe) Manifest() extension.Manifest {
	return extension.Manifest{ID: p.id, Name: "probe", Version: "1.0.0"}
}

func (p *probe) hook(name string, obj *object.GameObject) error {
	p.calls = append(p.calls, name+":"+obj.Oid())
	if obj.Oid() == p.panicOn {
		panic("kaboom")
	}
	if obj.Oid() == p.failOn {
		return errors.New("broken")
	}
	return nil
}

func (p *probe) OnCreated(obj *object.GameObject, _ extension.API) error {
	return p.hook("create", obj)
}

func (p *probe) OnUpdate(obj *object.GameObject, _ float64, _ extension.API) error {
	return p.hook("update", obj)
}

func (p *probe) OnRender(obj *object.GameObject, c render.Canvas, _ extension.API) error {
	c.Translate(1, 1)
	return p.hook("render", obj)
}

func (p *probe) OnDestroyed(obj *object.GameObject, _ extension.API) error {
	return p.hook("destroy", obj)
}

func (p *probe) Methods() map[string]extension.Method {
	return map[string]extension.Method{
		"echo": func(_ *object.GameObject, _ extension.API, args ...any) (any, error) {
			return args[0], nil
		},
		"explode": func(*object.GameObject, extension.API, ...any) (any, error) {
			panic("method panic")
		},
	}
}

type bare struct{}

func (bare) Manifest() extension.Manifest {
	return extension.Manifest{ID: "com.test.bare", Type: extension.TypeSystem}
}

func setup(t *testing.T) (*extension.Dispatcher, *probe) {
	t.Helper()
	reg := extension.NewRegistry()
	p := &probe{id: "com.test.probe"}
	require.NoError(t, reg.Register(p))
	require.NoError(t, reg.Register(bare{}))
	return extension.NewDispatcher(reg), p
}

func objs(ext string, oids ...string) []*object.GameObject {
	out := make([]*object.GameObject, len(oids))
	for i, oid := range oids {
		out[i] = object.New(oid, ext, nil)
	}
	return out
}

func TestRegistryCapabilities(t *testing.T) {
	d, _ := setup(t)
	reg := d.Registry()

	caps, ok := reg.Capabilities("com.test.probe")
	require.True(t, ok)
	assert.True(t, caps.OnCreated && caps.OnUpdate && caps.OnRender && caps.OnDestroyed)
	assert.Equal(t, []string{"echo", "explode"}, caps.Methods)
	assert.True(t, caps.HasMethod("echo"))
	assert.False(t, caps.HasMethod("missing"))

	caps, _ = reg.Capabilities("com.test.bare")
	assert.False(t, caps.OnUpdate)
	assert.True(t, reg.IsSystem("com.test.bare"))

	assert.ErrorIs(t, reg.Register(&probe{id: "com.test.probe"}), extension.ErrDuplicateExtension)
	assert.ErrorIs(t, reg.Register(&probe{}), extension.ErrInvalidManifest)
	assert.Len(t, reg.List(), 2)
	assert.Equal(t, "com.test.probe", reg.List()[0].ID)
}

func TestFaultInOneObjectDoesNotStopSiblings(t *testing.T) {
	d, p := setup(t)
	p.failOn = "b"
	p.panicOn = "c"
	api := exttest.New()
	list := objs("com.test.probe", "a", "b", "c", "d")

	faults := d.Create(list, api)
	require.Len(t, faults, 2)
	assert.Equal(t, "b", faults[0].Oid)
	assert.Equal(t, fault.PhaseCreate, faults[0].Phase)
	assert.Equal(t, fault.KindPlugin, faults[0].Kind)
	var pe *fault.PanicError
	assert.ErrorAs(t, faults[1], &pe)

	p.calls = nil
	faults = d.Update(list, 16, api)
	assert.Len(t, faults, 2)
	assert.Equal(t, []string{"update:a", "update:b", "update:c", "update:d"}, p.calls)
}

func TestCreateOnceAndSkipsUnknownExtension(t *testing.T) {
	d, p := setup(t)
	api := exttest.New()
	list := append(objs("com.test.probe", "a"), objs("com.nope", "x")...)

	faults := d.Create(list, api)
	require.Len(t, faults, 1)
	assert.Equal(t, fault.KindConfiguration, faults[0].Kind)
	assert.ErrorIs(t, faults[0], extension.ErrUnknownExtension)

	assert.Empty(t, d.Create(list, api))
	assert.Equal(t, []string{"create:a"}, p.calls)
}

func TestUpdateRequiresCreateAndActive(t *testing.T) {
	d, p := setup(t)
	api := exttest.New()
	list := objs("com.test.probe", "a", "b", "c")

	d.Update(list, 16, api)
	assert.Empty(t, p.calls)

	d.Create(list, api)
	list[1].SetActive(false)
	list[2].SetVisible(false)
	p.calls = nil

	d.Update(list, 16, api)
	assert.Equal(t, []string{"update:a", "update:c"}, p.calls)

	p.calls = nil
	rec := render.NewRecorder(100, 100)
	d.Render(list, rec, api)
	assert.Equal(t, []string{"render:a", "render:b"}, p.calls)
	assert.True(t, rec.Balanced())
	assert.Equal(t, 2, rec.Count("save"))
}

func TestRenderRestoresCanvasAfterPanic(t *testing.T) {
	d, p := setup(t)
	api := exttest.New()
	list := objs("com.test.probe", "a")
	d.Create(list, api)
	p.panicOn = "a"

	rec := render.NewRecorder(10, 10)
	faults := d.Render(list, rec, api)
	require.Len(t, faults, 1)
	assert.Equal(t, fault.PhaseRender, faults[0].Phase)
	assert.True(t, rec.Balanced())
}

func TestDestroyExactlyOnce(t *testing.T) {
	d, p := setup(t)
	api := exttest.New()
	list := objs("com.test.probe", "a", "never-created")
	d.Create(list[:1], api)
	p.calls = nil

	d.Destroy(list, api)
	d.Destroy(list, api)
	assert.Equal(t, []string{"destroy:a"}, p.calls)
	assert.True(t, list[0].IsDestroyed())
	assert.False(t, list[0].IsActive())

	// destroyed objects are never created afterwards
	d.Create(list, api)
	assert.Equal(t, []string{"destroy:a"}, p.calls)
}

func TestCall(t *testing.T) {
	d, _ := setup(t)
	api := exttest.New()
	obj := object.New("a", "com.test.probe", nil)

	out, err := d.Call(obj, "echo", api, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, out)

	_, err = d.Call(obj, "nope", api)
	assert.ErrorIs(t, err, extension.ErrUnknownMethod)

	_, err = d.Call(obj, "explode", api)
	var pe *fault.PanicError
	assert.ErrorAs(t, err, &pe)

	_, err = d.CallAs("com.missing", obj, "echo", api, 1)
	assert.ErrorIs(t, err, extension.ErrUnknownExtension)
}
