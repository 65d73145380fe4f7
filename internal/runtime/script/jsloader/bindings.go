package jsloader

import (
	"errors"
	"image/color"
	"slices"

	"github.com/dop251/goja"

	"github.com/ajsengine/ajs/internal/runtime/audio"
	"github.com/ajsengine/ajs/internal/runtime/input"
	"github.com/ajsengine/ajs/internal/runtime/object"
	"github.com/ajsengine/ajs/internal/runtime/render"
	"github.com/ajsengine/ajs/internal/runtime/scene"
	"github.com/ajsengine/ajs/internal/runtime/script"
	"github.com/ajsengine/ajs/internal/runtime/timing"
)

var ErrUnknownObject = errors.New("unknown game object")

// behavior adapts a JavaScript instance to the script lifecycle. Hooks are
// called as onStart(gameObject, api), onUpdate(gameObject, dt, api),
// onDestroy(gameObject, api) and onX(gameObject, api, ...args).
type behavior struct {
	l    *Loader
	this *goja.Object
}

var (
	_ script.Starter        = (*behavior)(nil)
	_ script.Updater        = (*behavior)(nil)
	_ script.Destroyer      = (*behavior)(nil)
	_ script.EventReceiver  = (*behavior)(nil)
	_ script.PropertyHolder = (*behavior)(nil)
)

// SetProperties exposes props as this.properties. Writes from script land in
// the same map.
func (b *behavior) SetProperties(props map[string]any) {
	_ = b.this.Set("properties", b.l.vm.ToValue(props))
}

func (b *behavior) OnStart(obj *object.GameObject, api *script.API) error {
	return b.call("onStart", b.l.objectValue(script.RefOf(obj)), b.l.apiValue(api))
}

func (b *behavior) OnUpdate(obj *object.GameObject, dt float64, api *script.API) error {
	return b.call("onUpdate", b.l.objectValue(script.RefOf(obj)), b.l.vm.ToValue(dt), b.l.apiValue(api))
}

func (b *behavior) OnDestroy(obj *object.GameObject, api *script.API) error {
	return b.call("onDestroy", b.l.objectValue(script.RefOf(obj)), b.l.apiValue(api))
}

func (b *behavior) OnEvent(name string, obj *object.GameObject, api *script.API, args ...any) error {
	vals := make([]goja.Value, 0, len(args)+2)
	vals = append(vals, b.l.objectValue(script.RefOf(obj)), b.l.apiValue(api))
	for _, a := range args {
		vals = append(vals, b.l.vm.ToValue(a))
	}
	return b.call(name, vals...)
}

func (b *behavior) call(name string, args ...goja.Value) error {
	fn, ok := goja.AssertFunction(b.this.Get(name))
	if !ok {
		return nil
	}
	return b.l.guard(func() error {
		_, err := fn(b.this, args...)
		return err
	})
}

// exportValue converts a script value into the shapes scene data uses.
func exportValue(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return scene.Normalize(v.Export())
}

var viewKeys = []string{
	"oid", "name", "extension", "layer", "properties",
	"isActive", "isVisible", "isDestroyed", "setActive", "setVisible", "hasTag",
}

// objectView is the restricted gameObject seen by scripts. The internal
// namespace and script list are not reachable from it.
type objectView struct {
	vm  *goja.Runtime
	obj *script.ObjectRef
}

func (l *Loader) objectValue(ref *script.ObjectRef) goja.Value {
	if ref == nil {
		return goja.Null()
	}
	return l.vm.NewDynamicObject(&objectView{vm: l.vm, obj: ref})
}

func (v *objectView) Get(key string) goja.Value {
	o := v.obj
	switch key {
	case "oid":
		return v.vm.ToValue(o.Oid())
	case "name":
		return v.vm.ToValue(o.Name())
	case "extension":
		return v.vm.ToValue(o.Extension())
	case "layer":
		return v.vm.ToValue(o.Layer())
	case "properties":
		return v.vm.NewDynamicObject(&propsView{vm: v.vm, props: o.Properties()})
	case "isActive":
		return v.vm.ToValue(o.IsActive)
	case "isVisible":
		return v.vm.ToValue(o.IsVisible)
	case "isDestroyed":
		return v.vm.ToValue(o.IsDestroyed)
	case "setActive":
		return v.vm.ToValue(o.SetActive)
	case "setVisible":
		return v.vm.ToValue(o.SetVisible)
	case "hasTag":
		return v.vm.ToValue(o.HasTag)
	}
	return nil
}

func (v *objectView) Set(string, goja.Value) bool { return false }
func (v *objectView) Has(key string) bool { return slices.Contains(viewKeys, key) }
func (v *objectView) Delete(string) bool { return false }
func (v *objectView) Keys() []string { return viewKeys }

// propsView is a live view over an object's properties.
type propsView struct {
	vm    *goja.Runtime
	props map[string]any
}

func (p *propsView) Get(key string) goja.Value {
	v, ok := p.props[key]
	if !ok {
		return nil
	}
	return p.vm.ToValue(v)
}

func (p *propsView) Set(key string, val goja.Value) bool {
	p.props[key] = exportValue(val)
	return true
}

func (p *propsView) Has(key string) bool {
	_, ok := p.props[key]
	return ok
}

func (p *propsView) Delete(key string) bool {
	delete(p.props, key)
	return true
}

func (p *propsView) Keys() []string {
	keys := make([]string, 0, len(p.props))
	for k := range p.props {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

type inputHandle struct{ r input.Reader }

func (h inputHandle) IsKeyDown(key string) bool { return h.r.IsKeyDown(key) }
func (h inputHandle) IsKeyJustPressed(key string) bool { return h.r.IsKeyJustPressed(key) }
func (h inputHandle) IsKeyJustReleased(key string) bool { return h.r.IsKeyJustReleased(key) }
func (h inputHandle) AnyKeyDown() bool { return h.r.AnyKeyDown() }
func (h inputHandle) GetAxis(name string) float64 { return h.r.GetAxis(name) }
func (h inputHandle) GetMovementAxis() input.Vector { return h.r.GetMovementAxis() }
func (h inputHandle) Touches() []input.Touch { return h.r.Touches() }

type mouseHandle struct{ m input.MouseReader }

func (h mouseHandle) Position() input.Vector {
	x, y := h.m.Position()
	return input.Vector{X: x, Y: y}
}

func (h mouseHandle) X() float64 {
	x, _ := h.m.Position()
	return x
}

func (h mouseHandle) Y() float64 {
	_, y := h.m.Position()
	return y
}

func (h mouseHandle) IsButtonDown(b int) bool { return h.m.IsButtonDown(b) }
func (h mouseHandle) IsButtonJustPressed(b int) bool { return h.m.IsButtonJustPressed(b) }
func (h mouseHandle) IsButtonJustReleased(b int) bool { return h.m.IsButtonJustReleased(b) }
func (h mouseHandle) WheelDelta() float64 { return h.m.WheelDelta() }

type timeHandle struct{ t timing.Reader }

func (h timeHandle) DeltaTime() float64 { return h.t.DeltaTime() }
func (h timeHandle) RealDeltaTime() float64 { return h.t.RealDeltaTime() }
func (h timeHandle) TotalTime() float64 { return h.t.TotalTime() }
func (h timeHandle) RealTotalTime() float64 { return h.t.RealTotalTime() }
func (h timeHandle) FrameCount() uint64 { return h.t.FrameCount() }
func (h timeHandle) Fps() int { return h.t.FPS() }
func (h timeHandle) TimeScale() float64 { return h.t.TimeScale() }
func (h timeHandle) IsPaused() bool { return h.t.IsPaused() }

type audioHandle struct{ p audio.Player }

func (h audioHandle) Stop(handle uint64) { h.p.Stop(audio.Handle(handle)) }
func (h audioHandle) StopAll() { h.p.StopAll() }
func (h audioHandle) IsPlaying(handle uint64) bool { return h.p.IsPlaying(audio.Handle(handle)) }
func (h audioHandle) SetMasterVolume(v float64) { h.p.SetMasterVolume(v) }
func (h audioHandle) MasterVolume() float64 { return h.p.MasterVolume() }

// canvasHandle takes CSS-style color strings.
type canvasHandle struct{ c render.Canvas }

func paint(s string) color.Color {
	return render.ParseColor(s, color.Black)
}

func (h canvasHandle) Width() int {
	w, _ := h.c.Size()
	return w
}

func (h canvasHandle) Height() int {
	_, ht := h.c.Size()
	return ht
}

func (h canvasHandle) Save() { h.c.Save() }
func (h canvasHandle) Restore() { h.c.Restore() }
func (h canvasHandle) Translate(x, y float64) { h.c.Translate(x, y) }
func (h canvasHandle) Rotate(rad float64) { h.c.Rotate(rad) }
func (h canvasHandle) Scale(x, y float64) { h.c.Scale(x, y) }
func (h canvasHandle) SetAlpha(a float64) { h.c.SetAlpha(a) }
func (h canvasHandle) Clear(c string) { h.c.Clear(paint(c)) }

func (h canvasHandle) FillRect(x, y, w, ht float64, c string) {
	h.c.FillRect(x, y, w, ht, paint(c))
}

func (h canvasHandle) StrokeRect(x, y, w, ht, lineWidth float64, c string) {
	h.c.StrokeRect(x, y, w, ht, lineWidth, paint(c))
}

func (h canvasHandle) FillCircle(cx, cy, r float64, c string) {
	h.c.FillCircle(cx, cy, r, paint(c))
}

func (h canvasHandle) FillText(text string, x, y, size float64, c string) {
	h.c.FillText(text, x, y, size, paint(c))
}

// apiValue builds the script-facing api object for one call.
func (l *Loader) apiValue(api *script.API) goja.Value {
	vm := l.vm
	o := vm.NewObject()
	set := func(name string, v any) { _ = o.Set(name, v) }
	orNull := func(ok bool, v any) any {
		if !ok {
			return goja.Null()
		}
		return v
	}

	set("oid", api.Oid())
	in := api.Input()
	set("input", orNull(in != nil, inputHandle{in}))
	mouse := api.Mouse()
	set("mouse", orNull(mouse != nil, mouseHandle{mouse}))
	tm := api.Time()
	set("time", orNull(tm != nil, timeHandle{tm}))
	player := api.Audio()
	set("audio", orNull(player != nil, audioHandle{player}))
	set("getCanvas", func() goja.Value {
		c := api.Canvas()
		if c == nil {
			return goja.Null()
		}
		return vm.ToValue(canvasHandle{c})
	})

	set("resolveAssetPath", api.ResolveAssetPath)
	set("findGameObject", func(nameOrOid string) goja.Value {
		obj, ok := api.FindGameObject(nameOrOid)
		if !ok {
			return goja.Null()
		}
		return l.objectValue(obj)
	})
	set("findGameObjectsWithTag", func(tag string) goja.Value {
		objs := api.FindGameObjectsWithTag(tag)
		items := make([]any, len(objs))
		for i, obj := range objs {
			items[i] = l.objectValue(obj)
		}
		return vm.NewArray(items...)
	})
	set("destroy", func(call goja.FunctionCall) goja.Value {
		arg := call.Argument(0)
		if goja.IsUndefined(arg) || goja.IsNull(arg) {
			api.Destroy(nil)
			return goja.Undefined()
		}
		id := arg.String()
		if t, ok := arg.(*goja.Object); ok {
			if oid := t.Get("oid"); oid != nil {
				id = oid.String()
			}
		}
		target, ok := api.FindGameObject(id)
		if !ok {
			panic(vm.NewGoError(ErrUnknownObject))
		}
		api.Destroy(target)
		return goja.Undefined()
	})

	set("getProperty", func(key string) goja.Value {
		v, ok := api.GetProperty(key)
		if !ok {
			return goja.Undefined()
		}
		return vm.ToValue(v)
	})
	set("setProperty", func(key string, v goja.Value) {
		api.SetProperty(key, exportValue(v))
	})
	set("getExtension", func(id string) goja.Value {
		h, ok := api.GetExtension(id)
		if !ok {
			return goja.Null()
		}
		return l.extensionValue(h)
	})

	logFn := func(emit func(string)) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			emit(joinArgs(call.Arguments))
			return goja.Undefined()
		}
	}
	set("log", logFn(func(m string) { api.Log(m) }))
	set("warn", logFn(func(m string) { api.Warn(m) }))
	set("error", logFn(func(m string) { api.Error(m) }))
	return o
}

// extensionValue exposes each extension method as a function plus a generic
// call(name, ...args).
func (l *Loader) extensionValue(h *script.ExtensionHandle) goja.Value {
	vm := l.vm
	o := vm.NewObject()
	invoke := func(method string, args []goja.Value) goja.Value {
		goArgs := make([]any, len(args))
		for i, a := range args {
			goArgs[i] = exportValue(a)
		}
		out, err := h.Call(method, goArgs...)
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return vm.ToValue(out)
	}
	for _, m := range h.Methods() {
		method := m
		_ = o.Set(method, func(call goja.FunctionCall) goja.Value {
			return invoke(method, call.Arguments)
		})
	}
	_ = o.Set("id", h.ID())
	_ = o.Set("methods", h.Methods())
	_ = o.Set("call", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(vm.NewTypeError("call: method name required"))
		}
		return invoke(call.Arguments[0].String(), call.Arguments[1:])
	})
	return o
}
