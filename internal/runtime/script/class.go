package script

import (
	"slices"

	"github.com/ajsengine/ajs/internal/runtime/object"
)

// Behavior is a live script object. What it can do is declared by the
// optional interfaces below and summarized once per class in Capabilities.
type Behavior any

type Starter interface {
	OnStart(obj *object.GameObject, api *API) error
}

type Updater interface {
	OnUpdate(obj *object.GameObject, dt float64, api *API) error
}

type Destroyer interface {
	OnDestroy(obj *object.GameObject, api *API) error
}

// EventReceiver handles custom events such as onClick. It is only invoked
// for names listed in the class capabilities.
type EventReceiver interface {
	OnEvent(name string, obj *object.GameObject, api *API, args ...any) error
}

// EventDeclarer lists the custom events a Go behavior handles.
type EventDeclarer interface {
	Events() []string
}

// PropertyHolder receives the merged instance properties before OnStart.
type PropertyHolder interface {
	SetProperties(props map[string]any)
}

// Capabilities is the exported shape of a script class.
type Capabilities struct {
	HasOnStart   bool
	HasOnUpdate  bool
	HasOnDestroy bool
	// Events is sorted.
	Events []string
}

func (c Capabilities) HasEvent(name string) bool {
	_, ok := slices.BinarySearch(c.Events, name)
	return ok
}

// CapabilitiesOf derives capabilities from a Go behavior's interfaces.
func CapabilitiesOf(b Behavior) Capabilities {
	_, start := b.(Starter)
	_, update := b.(Updater)
	_, destroy := b.(Destroyer)
	caps := Capabilities{HasOnStart: start, HasOnUpdate: update, HasOnDestroy: destroy}
	if d, ok := b.(EventDeclarer); ok {
		if _, ok := b.(EventReceiver); ok {
			caps.Events = slices.Clone(d.Events())
			slices.Sort(caps.Events)
			caps.Events = slices.Compact(caps.Events)
		}
	}
	return caps
}

// Class is a resolved script module: its default properties, its shape and
// a constructor.
type Class struct {
	Path         string
	Defaults     map[string]any
	Capabilities Capabilities

	construct func() (Behavior, error)
}

func NewClass(path string, defaults map[string]any, caps Capabilities, construct func() (Behavior, error)) *Class {
	if defaults == nil {
		defaults = make(map[string]any)
	}
	return &Class{Path: path, Defaults: defaults, Capabilities: caps, construct: construct}
}

// New constructs a fresh behavior.
func (c *Class) New() (Behavior, error) {
	return c.construct()
}
