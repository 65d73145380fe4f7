package input

// EventType mirrors the DOM event names the manager listens to.
type EventType uint8

const (
	KeyDown EventType = iota + 1
	KeyUp
	MouseDown
	MouseUp
	MouseMove
	Wheel
	TouchStart
	TouchMove
	TouchEnd
	TouchCancel
	Blur
)

var eventTypeNames = map[EventType]string{
	KeyDown:     "keydown",
	KeyUp:       "keyup",
	MouseDown:   "mousedown",
	MouseUp:     "mouseup",
	MouseMove:   "mousemove",
	Wheel:       "wheel",
	TouchStart:  "touchstart",
	TouchMove:   "touchmove",
	TouchEnd:    "touchend",
	TouchCancel: "touchcancel",
	Blur:        "blur",
}

func (t EventType) String() string {
	if s, ok := eventTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// ParseEventType maps a DOM event name onto an EventType.
func ParseEventType(name string) (EventType, bool) {
	for t, s := range eventTypeNames {
		if s == name {
			return t, true
		}
	}
	return 0, false
}

// Mouse buttons use DOM numbering.
const (
	ButtonLeft   = 0
	ButtonMiddle = 1
	ButtonRight  = 2
)

// Event is a raw input event in client coordinates.
type Event struct {
	Type EventType `json:"-"`

	// Keyboard: Key is KeyboardEvent.key ("a", "ArrowLeft"), Code is
	// KeyboardEvent.code ("KeyA"). Either may be empty.
	Key    string `json:"key,omitempty"`
	Code   string `json:"code,omitempty"`
	Repeat bool   `json:"repeat,omitempty"`

	Button  int     `json:"button,omitempty"`
	ClientX float64 `json:"clientX,omitempty"`
	ClientY float64 `json:"clientY,omitempty"`

	DeltaX float64 `json:"deltaX,omitempty"`
	DeltaY float64 `json:"deltaY,omitempty"`

	// Touches is the complete current touch list for touch events.
	Touches []Touch `json:"touches,omitempty"`
}

// Touch is one active contact point in surface coordinates.
type Touch struct {
	ID    int     `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Force float64 `json:"force"`
}

// EventSource delivers raw events to a handler until stop is called.
type EventSource interface {
	Listen(handler func(Event)) (stop func())
}

// Rect is the client-space placement of the surface.
type Rect struct {
	X, Y, W, H float64
}

// Surface is the canvas the manager is scoped to.
type Surface interface {
	// ClientRect is where the surface sits in client coordinates.
	ClientRect() Rect
	// Size is the surface's logical pixel size.
	Size() (width, height int)
}

// ChannelSource adapts a channel of events to an EventSource. Hosts that
// poll a windowing library push into the channel; tests use it directly.
type ChannelSource struct {
	C chan Event
}

func NewChannelSource(buffer int) *ChannelSource {
	return &ChannelSource{C: make(chan Event, buffer)}
}

func (s *ChannelSource) Listen(handler func(Event)) func() {
	done := make(chan struct{})
	go func() {
		for {
			select {
			case ev := <-s.C:
				handler(ev)
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}

// FuncSource is an EventSource whose events are pushed synchronously by
// calling Emit. Listeners registered later replace earlier ones.
type FuncSource struct {
	handler func(Event)
}

func (s *FuncSource) Listen(handler func(Event)) func() {
	s.handler = handler
	return func() { s.handler = nil }
}

// Emit delivers ev to the current listener, if any.
func (s *FuncSource) Emit(ev Event) {
	if s.handler != nil {
		s.handler(ev)
	}
}
