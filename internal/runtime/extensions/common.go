// Package extensions holds the stock object and system extensions shipped
// with the runtime. Each one is an ordinary consumer of the extension
// contract; scenes may register their own alongside or instead of them.
package extensions

import (
	"errors"
	"fmt"
	"math"

	"github.com/ajsengine/ajs/internal/runtime/extension"
	"github.com/ajsengine/ajs/internal/runtime/object"
	"github.com/ajsengine/ajs/internal/runtime/render"
	"github.com/ajsengine/ajs/internal/runtime/timing"
)

var (
	ErrMissingArgument = errors.New("missing argument")
	ErrBadArgument     = errors.New("bad argument")
	ErrNoAudio         = errors.New("audio is not available")
)

// Register adds every stock extension to reg. clock backs the time control
// system extension, which is left out when clock is nil.
func Register(reg *extension.Registry, clock *timing.Time) error {
	exts := []extension.Extension{NewSprite(), NewShape(), NewText(), NewButton(), NewSound()}
	if clock != nil {
		exts = append(exts, NewTimeControl(clock))
	}
	var errs []error
	for _, e := range exts {
		errs = append(errs, reg.Register(e))
	}
	return errors.Join(errs...)
}

// bounds is an object's layout rectangle.
type bounds struct {
	X, Y, W, H float64
}

func boundsOf(obj *object.GameObject, defW, defH float64) bounds {
	return bounds{
		X: obj.GetFloat(object.PropX, 0),
		Y: obj.GetFloat(object.PropY, 0),
		W: obj.GetFloat(object.PropWidth, defW),
		H: obj.GetFloat(object.PropHeight, defH),
	}
}

func (b bounds) contains(x, y float64) bool {
	return x >= b.X && x < b.X+b.W && y >= b.Y && y < b.Y+b.H
}

// applyTransform moves the origin to the object's center and applies its
// rotation (degrees) and opacity. Callers draw centered on (0, 0); the
// dispatcher's Save/Restore undoes it.
func applyTransform(c render.Canvas, obj *object.GameObject, b bounds) {
	c.Translate(b.X+b.W/2, b.Y+b.H/2)
	if angle := obj.GetFloat(object.PropAngle, 0); angle != 0 {
		c.Rotate(angle * math.Pi / 180)
	}
	if op := obj.GetFloat(object.PropOpacity, 1); op < 1 {
		c.SetAlpha(math.Max(op, 0))
	}
}

func argString(args []any, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%w #%d", ErrMissingArgument, i)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("%w #%d: want string, got %T", ErrBadArgument, i, args[i])
	}
	return s, nil
}

func argFloat(args []any, i int) (float64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("%w #%d", ErrMissingArgument, i)
	}
	f, ok := object.ToFloat(args[i])
	if !ok {
		return 0, fmt.Errorf("%w #%d: want number, got %T", ErrBadArgument, i, args[i])
	}
	return f, nil
}
