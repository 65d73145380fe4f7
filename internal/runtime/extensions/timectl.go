package extensions

import (
	"github.com/ajsengine/ajs/internal/runtime/extension"
	"github.com/ajsengine/ajs/internal/runtime/object"
	"github.com/ajsengine/ajs/internal/runtime/timing"
)

const TimeID = "com.ajs.time"

// TimeControl is the system extension that lets a scene configure the time
// scale and lets scripts change it. At most one per scene.
type TimeControl struct {
	clock *timing.Time
}

func NewTimeControl(clock *timing.Time) *TimeControl {
	return &TimeControl{clock: clock}
}

func (*TimeControl) Manifest() extension.Manifest {
	return extension.Manifest{ID: TimeID, Name: "Time", Version: "1.0.0", Type: extension.TypeSystem}
}

// OnCreated applies the scene's timeScale and paused properties.
func (t *TimeControl) OnCreated(obj *object.GameObject, _ extension.API) error {
	if scale, ok := object.ToFloat(obj.Properties["timeScale"]); ok {
		t.clock.SetTimeScale(scale)
	}
	if obj.GetBool("paused", false) {
		t.clock.Pause()
	}
	return nil
}

func (t *TimeControl) Methods() map[string]extension.Method {
	return map[string]extension.Method{
		"setTimeScale": func(_ *object.GameObject, _ extension.API, args ...any) (any, error) {
			v, err := argFloat(args, 0)
			if err != nil {
				return nil, err
			}
			t.clock.SetTimeScale(v)
			return t.clock.TimeScale(), nil
		},
		"getTimeScale": func(*object.GameObject, extension.API, ...any) (any, error) {
			return t.clock.TimeScale(), nil
		},
		"pause": func(*object.GameObject, extension.API, ...any) (any, error) {
			t.clock.Pause()
			return nil, nil
		},
		"resume": func(*object.GameObject, extension.API, ...any) (any, error) {
			t.clock.Resume()
			return nil, nil
		},
		"isPaused": func(*object.GameObject, extension.API, ...any) (any, error) {
			return t.clock.IsPaused(), nil
		},
		"slowMotion": func(_ *object.GameObject, _ extension.API, args ...any) (any, error) {
			f := timing.DefaultSlowMotion
			if len(args) > 0 {
				v, err := argFloat(args, 0)
				if err != nil {
					return nil, err
				}
				f = v
			}
			t.clock.SlowMotion(f)
			return t.clock.TimeScale(), nil
		},
		"fastForward": func(_ *object.GameObject, _ extension.API, args ...any) (any, error) {
			f := timing.DefaultFastForward
			if len(args) > 0 {
				v, err := argFloat(args, 0)
				if err != nil {
					return nil, err
				}
				f = v
			}
			t.clock.FastForward(f)
			return t.clock.TimeScale(), nil
		},
	}
}
