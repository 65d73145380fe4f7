package extensions

import (
	"image/color"

	"github.com/ajsengine/ajs/internal/runtime/extension"
	"github.com/ajsengine/ajs/internal/runtime/input"
	"github.com/ajsengine/ajs/internal/runtime/object"
	"github.com/ajsengine/ajs/internal/runtime/render"
)

const (
	ButtonID = "com.ajs.button"

	buttonKey = "button"

	// EventClick is delivered to the button's scripts on release inside it.
	EventClick = "onClick"
)

type buttonState struct {
	hovered bool
	pressed bool
}

// Button tracks hover and press against the mouse and fires onClick on the
// object's scripts when a press is released over it.
type Button struct{}

func NewButton() *Button {
	return &Button{}
}

func (*Button) Manifest() extension.Manifest {
	return extension.Manifest{ID: ButtonID, Name: "Button", Version: "1.0.0"}
}

func buttonOf(obj *object.GameObject) *buttonState {
	return object.EnsureState(obj, buttonKey, func() *buttonState { return &buttonState{} })
}

func (*Button) OnCreated(obj *object.GameObject, _ extension.API) error {
	buttonOf(obj)
	return nil
}

func (*Button) OnUpdate(obj *object.GameObject, _ float64, api extension.API) error {
	mouse := api.Mouse()
	if mouse == nil {
		return nil
	}
	st := buttonOf(obj)
	x, y := mouse.Position()
	st.hovered = boundsOf(obj, 100, 40).contains(x, y)

	if st.hovered && mouse.IsButtonJustPressed(input.ButtonLeft) {
		st.pressed = true
	}
	if st.pressed && mouse.IsButtonJustReleased(input.ButtonLeft) {
		st.pressed = false
		if st.hovered {
			api.CallScriptEvent(obj, EventClick)
		}
	}
	return nil
}

func (*Button) OnRender(obj *object.GameObject, c render.Canvas, _ extension.API) error {
	st, _ := object.State[buttonState](obj, buttonKey)
	b := boundsOf(obj, 100, 40)
	applyTransform(c, obj, b)

	key := "color"
	switch {
	case st != nil && st.pressed:
		key = "pressedColor"
	case st != nil && st.hovered:
		key = "hoverColor"
	}
	fill := render.ParseColor(obj.GetString(key, obj.GetString("color", "")), color.Gray{Y: 0x80})
	c.FillRect(-b.W/2, -b.H/2, b.W, b.H, fill)

	if label := obj.GetString("label", ""); label != "" {
		size := obj.GetFloat("fontSize", defaultFontSize)
		c.FillText(label, 0, 0, size, render.ParseColor(obj.GetString("textColor", ""), color.White))
	}
	return nil
}

func (*Button) OnDestroyed(obj *object.GameObject, _ extension.API) error {
	obj.Internal.Delete(buttonKey)
	return nil
}

func (*Button) Methods() map[string]extension.Method {
	return map[string]extension.Method{
		"isHovered": func(obj *object.GameObject, _ extension.API, _ ...any) (any, error) {
			return buttonOf(obj).hovered, nil
		},
		"isPressed": func(obj *object.GameObject, _ extension.API, _ ...any) (any, error) {
			return buttonOf(obj).pressed, nil
		},
		// click fires onClick as if the button had been released over.
		"click": func(obj *object.GameObject, api extension.API, _ ...any) (any, error) {
			api.CallScriptEvent(obj, EventClick)
			return nil, nil
		},
	}
}
