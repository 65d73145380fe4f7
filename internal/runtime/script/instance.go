package script

import (
	"github.com/ajsengine/ajs/internal/runtime/object"
)

// State is the lifecycle position of an instance. Transitions only move
// forward; Destroyed is terminal.
type State uint8

const (
	StateUnattached State = iota
	StateInitialized
	StateActive
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUnattached:
		return "unattached"
	case StateInitialized:
		return "initialized"
	case StateActive:
		return "active"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Instance binds one behavior to one object.
type Instance struct {
	class    *Class
	path     string
	obj      *object.GameObject
	behavior Behavior
	props    map[string]any
	state    State
	disabled error

	starter   Starter
	updater   Updater
	destroyer Destroyer
	receiver  EventReceiver
}

var _ object.ScriptRef = (*Instance)(nil)

func newInstance(class *Class, path string, obj *object.GameObject, b Behavior, props map[string]any) *Instance {
	inst := &Instance{class: class, path: path, obj: obj, behavior: b, props: props}
	caps := class.Capabilities
	if caps.HasOnStart {
		inst.starter, _ = b.(Starter)
	}
	if caps.HasOnUpdate {
		inst.updater, _ = b.(Updater)
	}
	if caps.HasOnDestroy {
		inst.destroyer, _ = b.(Destroyer)
	}
	if len(caps.Events) > 0 {
		inst.receiver, _ = b.(EventReceiver)
	}
	return inst
}

// Path is the script path as declared on the object.
func (i *Instance) Path() string {
	return i.path
}

// Properties are the merged properties owned by this instance.
func (i *Instance) Properties() map[string]any {
	return i.props
}

func (i *Instance) GameObject() *object.GameObject {
	return i.obj
}

func (i *Instance) Behavior() Behavior {
	return i.behavior
}

func (i *Instance) Class() *Class {
	return i.class
}

func (i *Instance) State() State {
	return i.state
}

// Disabled reports why the instance stopped updating, if it did.
func (i *Instance) Disabled() error {
	return i.disabled
}
