package builtin

import (
	"github.com/ajsengine/ajs/internal/runtime/object"
	"github.com/ajsengine/ajs/internal/runtime/script"
)

const (
	defaultSpeed = 200.0

	axisBoth       = "both"
	axisHorizontal = "horizontal"
	axisVertical   = "vertical"
)

// Mover moves its object along the input movement axis at speed pixels per
// second. axis restricts it to "horizontal" or "vertical"; faceDirection
// sets flipX while moving left.
type Mover struct {
	props map[string]any
}

func (m *Mover) SetProperties(props map[string]any) {
	m.props = props
}

func (m *Mover) OnUpdate(obj *object.GameObject, dt float64, api *script.API) error {
	in := api.Input()
	if in == nil {
		return nil
	}
	v := in.GetMovementAxis()
	switch propString(m.props, "axis") {
	case axisHorizontal:
		v.Y = 0
	case axisVertical:
		v.X = 0
	}
	if v.X == 0 && v.Y == 0 {
		return nil
	}

	step := propFloat(m.props, "speed", defaultSpeed) * dt / 1000
	obj.Set(object.PropX, obj.GetFloat(object.PropX, 0)+v.X*step)
	obj.Set(object.PropY, obj.GetFloat(object.PropY, 0)+v.Y*step)
	if v.X != 0 && m.props["faceDirection"] == true {
		obj.Set("flipX", v.X < 0)
	}
	return nil
}
