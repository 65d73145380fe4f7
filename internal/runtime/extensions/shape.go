package extensions

import (
	"image/color"

	"github.com/ajsengine/ajs/internal/runtime/extension"
	"github.com/ajsengine/ajs/internal/runtime/object"
	"github.com/ajsengine/ajs/internal/runtime/render"
)

const (
	ShapeID = "com.ajs.shape"
	TextID  = "com.ajs.text"

	defaultFontSize = 16.0
)

// Shape fills and optionally strokes a rectangle or circle. It keeps no
// state of its own.
type Shape struct{}

func NewShape() *Shape {
	return &Shape{}
}

func (*Shape) Manifest() extension.Manifest {
	return extension.Manifest{ID: ShapeID, Name: "Shape", Version: "1.0.0"}
}

func (*Shape) OnRender(obj *object.GameObject, c render.Canvas, _ extension.API) error {
	b := boundsOf(obj, 32, 32)
	applyTransform(c, obj, b)

	fill := render.ParseColor(obj.GetString("color", ""), color.White)
	stroke := obj.GetString("strokeColor", "")
	lineWidth := obj.GetFloat("lineWidth", 1)

	switch obj.GetString("shape", "rect") {
	case "circle":
		c.FillCircle(0, 0, min(b.W, b.H)/2, fill)
	default:
		c.FillRect(-b.W/2, -b.H/2, b.W, b.H, fill)
		if stroke != "" {
			c.StrokeRect(-b.W/2, -b.H/2, b.W, b.H, lineWidth, render.ParseColor(stroke, color.Black))
		}
	}
	return nil
}

// Text draws the "text" property.
type Text struct{}

func NewText() *Text {
	return &Text{}
}

func (*Text) Manifest() extension.Manifest {
	return extension.Manifest{ID: TextID, Name: "Text", Version: "1.0.0"}
}

func (*Text) OnRender(obj *object.GameObject, c render.Canvas, _ extension.API) error {
	text := obj.GetString("text", "")
	if text == "" {
		return nil
	}
	b := boundsOf(obj, 0, 0)
	applyTransform(c, obj, b)
	c.FillText(text, 0, 0, obj.GetFloat("fontSize", defaultFontSize), render.ParseColor(obj.GetString("color", ""), color.White))
	return nil
}

func (*Text) Methods() map[string]extension.Method {
	return map[string]extension.Method{
		"setText": func(obj *object.GameObject, _ extension.API, args ...any) (any, error) {
			s, err := argString(args, 0)
			if err != nil {
				return nil, err
			}
			obj.Set("text", s)
			return nil, nil
		},
		"getText": func(obj *object.GameObject, _ extension.API, _ ...any) (any, error) {
			return obj.GetString("text", ""), nil
		},
	}
}
