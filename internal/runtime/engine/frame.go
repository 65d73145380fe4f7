package engine

import (
	"github.com/ajsengine/ajs/internal/core/events/bus"
	"github.com/ajsengine/ajs/internal/core/observability/log"
	"github.com/ajsengine/ajs/internal/runtime/fault"
	"github.com/ajsengine/ajs/internal/runtime/object"
	"github.com/ajsengine/ajs/internal/runtime/render"
)

// Frame advances the running scene by one frame:
//
//	Time.Update, Input.Update, extension OnUpdate (active objects),
//	script onUpdate, extension OnRender (visible objects), deferred destroys.
//
// A nil canvas skips rendering. The faults of the frame are returned after
// being logged and published; none of them stop the frame.
func (r *Runtime) Frame(canvas render.Canvas) []fault.Fault {
	if !r.running {
		return nil
	}
	r.begin()
	r.canvas = canvas

	r.clock.Update()
	r.input.Update()
	dt := r.clock.DeltaTime()

	r.collectExt(r.ext.Update(r.live(), dt, r))
	r.collect(r.scripts.UpdateAllScripts(dt))
	if canvas != nil {
		r.collectExt(r.ext.Render(r.live(), canvas, r))
	}

	r.canvas = nil
	r.flush()
	return r.end()
}

// live is the scene in update order without objects awaiting destruction.
func (r *Runtime) live() []*object.GameObject {
	objs := r.scene.Objects()
	if len(r.doomed) == 0 {
		return objs
	}
	out := objs[:0]
	for _, obj := range objs {
		if !r.doomed[obj.Oid()] {
			out = append(out, obj)
		}
	}
	return out
}

func (r *Runtime) begin() {
	r.inFrame = true
	r.faults = nil
}

func (r *Runtime) end() []fault.Fault {
	faults := r.faults
	r.inFrame = false
	r.faults = nil
	r.last = faults
	for _, f := range faults {
		r.publish(bus.FaultRaised, f)
	}
	return faults
}

// collect keeps faults for the current frame. Outside a frame they are
// published at once.
func (r *Runtime) collect(faults []fault.Fault) {
	if len(faults) == 0 {
		return
	}
	if r.inFrame {
		r.faults = append(r.faults, faults...)
		return
	}
	for _, f := range faults {
		r.publish(bus.FaultRaised, f)
	}
}

// collectExt is collect for dispatcher faults, which are not logged at the
// source.
func (r *Runtime) collectExt(faults []fault.Fault) {
	for _, f := range faults {
		r.logger.Warn("extension fault",
			log.String("kind", f.Kind.String()),
			log.String("phase", string(f.Phase)),
			log.Oid(f.Oid),
			log.ExtensionID(f.Source),
			log.Error(f.Err))
	}
	r.collect(faults)
}

func (r *Runtime) publish(typ string, data any) {
	if r.bus == nil {
		return
	}
	if err := r.bus.Publish(bus.NewEvent(typ, eventSource, data, nil)); err != nil {
		r.logger.Warn("event handler failed", log.String("event", typ), log.Error(err))
	}
}
