// Package input converts raw, asynchronously delivered input events into a
// frame-polled model with edge detection.
package input

import (
	"math"
	"slices"
	"strings"
	"sync"
)

// Reader is the keyboard/touch view given to scripts and extensions.
type Reader interface {
	IsKeyDown(key string) bool
	IsKeyJustPressed(key string) bool
	IsKeyJustReleased(key string) bool
	AnyKeyDown() bool
	GetAxis(name string) float64
	GetMovementAxis() Vector
	Touches() []Touch
}

// MouseReader is the mouse view given to scripts and extensions.
type MouseReader interface {
	Position() (x, y float64)
	IsButtonDown(button int) bool
	IsButtonJustPressed(button int) bool
	IsButtonJustReleased(button int) bool
	WheelDelta() float64
}

// Vector is a 2D direction.
type Vector struct {
	X, Y float64
}

type set map[string]struct{}

type buttonSet map[int]struct{}

type mouseState struct {
	x, y    float64
	buttons map[int]bool

	// accumulated since the last Update
	pressed  buttonSet
	released buttonSet
	wheel    float64

	// visible for the current frame
	framePressed  buttonSet
	frameReleased buttonSet
	frameWheel    float64
}

// Manager holds held state updated immediately by listeners and edge state
// published once per frame by Update.
type Manager struct {
	mu sync.RWMutex

	keys map[string]bool
	// names each physical code was pressed under, so a release reported
	// with a different key value still clears them
	codes map[string][]string

	keysPressed  set
	keysReleased set

	frameKeysPressed  set
	frameKeysReleased set

	mouse   mouseState
	touches []Touch

	surface Surface
	stop    func()
}

var (
	_ Reader      = (*Manager)(nil)
	_ MouseReader = (*mouseView)(nil)
)

func NewManager() *Manager {
	m := &Manager{}
	m.resetLocked()
	return m
}

func (m *Manager) resetLocked() {
	m.keys = make(map[string]bool)
	m.codes = make(map[string][]string)
	m.keysPressed = make(set)
	m.keysReleased = make(set)
	m.frameKeysPressed = make(set)
	m.frameKeysReleased = make(set)
	m.mouse = mouseState{
		buttons:       make(map[int]bool),
		pressed:       make(buttonSet),
		released:      make(buttonSet),
		framePressed:  make(buttonSet),
		frameReleased: make(buttonSet),
	}
	m.touches = nil
}

// InitWithCanvas scopes the manager to surface and starts listening to src.
// A previous binding is detached first.
func (m *Manager) InitWithCanvas(src EventSource, surface Surface) {
	m.Destroy()

	m.mu.Lock()
	m.surface = surface
	m.mu.Unlock()

	if src != nil {
		stop := src.Listen(m.HandleEvent)
		m.mu.Lock()
		m.stop = stop
		m.mu.Unlock()
	}
}

// Destroy detaches from the event source and clears all state.
func (m *Manager) Destroy() {
	m.mu.Lock()
	stop := m.stop
	m.stop = nil
	m.surface = nil
	m.resetLocked()
	m.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// HandleEvent is the listener entry point. It may be called from any
// goroutine at any time relative to the frame.
func (m *Manager) HandleEvent(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch ev.Type {
	case KeyDown:
		names := keyNames(ev)
		for _, k := range names {
			if !m.keys[k] {
				m.keysPressed[k] = struct{}{}
			}
			m.keys[k] = true
		}
		if ev.Code != "" {
			for _, k := range names {
				if !slices.Contains(m.codes[ev.Code], k) {
					m.codes[ev.Code] = append(m.codes[ev.Code], k)
				}
			}
		}
	case KeyUp:
		names := keyNames(ev)
		if ev.Code != "" {
			names = append(names, m.codes[ev.Code]...)
			delete(m.codes, ev.Code)
		}
		for _, k := range names {
			if m.heldByOtherCodeLocked(k) {
				continue
			}
			if m.keys[k] {
				m.keysReleased[k] = struct{}{}
			}
			delete(m.keys, k)
		}
	case MouseDown:
		m.mouse.x, m.mouse.y = m.toSurfaceLocked(ev.ClientX, ev.ClientY)
		if !m.mouse.buttons[ev.Button] {
			m.mouse.pressed[ev.Button] = struct{}{}
		}
		m.mouse.buttons[ev.Button] = true
	case MouseUp:
		m.mouse.x, m.mouse.y = m.toSurfaceLocked(ev.ClientX, ev.ClientY)
		if m.mouse.buttons[ev.Button] {
			m.mouse.released[ev.Button] = struct{}{}
		}
		delete(m.mouse.buttons, ev.Button)
	case MouseMove:
		m.mouse.x, m.mouse.y = m.toSurfaceLocked(ev.ClientX, ev.ClientY)
	case Wheel:
		m.mouse.wheel += ev.DeltaY
	case TouchStart, TouchMove, TouchEnd, TouchCancel:
		touches := make([]Touch, len(ev.Touches))
		for i, t := range ev.Touches {
			x, y := m.toSurfaceLocked(t.X, t.Y)
			touches[i] = Touch{ID: t.ID, X: x, Y: y, Force: t.Force}
		}
		m.touches = touches
	case Blur:
		for k := range m.keys {
			m.keysReleased[k] = struct{}{}
		}
		for b := range m.mouse.buttons {
			m.mouse.released[b] = struct{}{}
		}
		m.keys = make(map[string]bool)
		m.codes = make(map[string][]string)
		m.mouse.buttons = make(map[int]bool)
	}
}

// heldByOtherCodeLocked reports whether name is still held through another
// physical key, as "Shift" is while either shift key is down.
func (m *Manager) heldByOtherCodeLocked(name string) bool {
	for _, names := range m.codes {
		if slices.Contains(names, name) {
			return true
		}
	}
	return false
}

// Update publishes the edges accumulated since the previous call and starts
// a new accumulation window. Call it once per frame, after the Time system.
func (m *Manager) Update() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.frameKeysPressed, m.keysPressed = m.keysPressed, make(set)
	m.frameKeysReleased, m.keysReleased = m.keysReleased, make(set)

	m.mouse.framePressed, m.mouse.pressed = m.mouse.pressed, make(buttonSet)
	m.mouse.frameReleased, m.mouse.released = m.mouse.released, make(buttonSet)
	m.mouse.frameWheel, m.mouse.wheel = m.mouse.wheel, 0
}

func (m *Manager) toSurfaceLocked(cx, cy float64) (float64, float64) {
	if m.surface == nil {
		return cx, cy
	}
	r := m.surface.ClientRect()
	w, h := m.surface.Size()
	x, y := cx-r.X, cy-r.Y
	if r.W > 0 && w > 0 {
		x *= float64(w) / r.W
	}
	if r.H > 0 && h > 0 {
		y *= float64(h) / r.H
	}
	return x, y
}

// keyNames returns every name a key event is tracked under: the key value,
// its lowercase form for single characters, and the physical code.
func keyNames(ev Event) []string {
	names := make([]string, 0, 3)
	if ev.Key != "" {
		names = append(names, ev.Key)
		if len(ev.Key) == 1 {
			if lower := strings.ToLower(ev.Key); lower != ev.Key {
				names = append(names, lower)
			}
		}
	}
	if ev.Code != "" && ev.Code != ev.Key {
		names = append(names, ev.Code)
	}
	return names
}

func (m *Manager) IsKeyDown(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.keys[key]
}

func (m *Manager) IsKeyJustPressed(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.frameKeysPressed[key]
	return ok
}

func (m *Manager) IsKeyJustReleased(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.frameKeysReleased[key]
	return ok
}

func (m *Manager) AnyKeyDown() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys) > 0
}

// Touches returns a copy of the current touch list.
func (m *Manager) Touches() []Touch {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Touch, len(m.touches))
	copy(out, m.touches)
	return out
}

var axisBindings = map[string]struct{ negative, positive []string }{
	"horizontal": {
		negative: []string{"ArrowLeft", "KeyA", "a"},
		positive: []string{"ArrowRight", "KeyD", "d"},
	},
	"vertical": {
		negative: []string{"ArrowUp", "KeyW", "w"},
		positive: []string{"ArrowDown", "KeyS", "s"},
	},
}

// GetAxis returns -1, 0 or 1 for "horizontal" or "vertical" from the held
// keys. Unknown axis names return 0.
func (m *Manager) GetAxis(name string) float64 {
	binding, ok := axisBindings[strings.ToLower(name)]
	if !ok {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var v float64
	if m.anyHeldLocked(binding.negative) {
		v--
	}
	if m.anyHeldLocked(binding.positive) {
		v++
	}
	return v
}

// GetMovementAxis combines both axes and normalizes diagonals to unit length.
func (m *Manager) GetMovementAxis() Vector {
	v := Vector{X: m.GetAxis("horizontal"), Y: m.GetAxis("vertical")}
	if l := math.Hypot(v.X, v.Y); l > 1 {
		v.X /= l
		v.Y /= l
	}
	return v
}

func (m *Manager) anyHeldLocked(keys []string) bool {
	for _, k := range keys {
		if m.keys[k] {
			return true
		}
	}
	return false
}

// Mouse returns the mouse view.
func (m *Manager) Mouse() MouseReader {
	return &mouseView{m: m}
}

type mouseView struct {
	m *Manager
}

func (v *mouseView) Position() (float64, float64) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	return v.m.mouse.x, v.m.mouse.y
}

func (v *mouseView) IsButtonDown(button int) bool {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	return v.m.mouse.buttons[button]
}

func (v *mouseView) IsButtonJustPressed(button int) bool {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	_, ok := v.m.mouse.framePressed[button]
	return ok
}

func (v *mouseView) IsButtonJustReleased(button int) bool {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	_, ok := v.m.mouse.frameReleased[button]
	return ok
}

func (v *mouseView) WheelDelta() float64 {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	return v.m.mouse.frameWheel
}

func (m *Manager) MousePosition() (float64, float64) {
	return m.Mouse().Position()
}

func (m *Manager) IsMouseButtonDown(button int) bool {
	return m.Mouse().IsButtonDown(button)
}

func (m *Manager) IsMouseButtonJustPressed(button int) bool {
	return m.Mouse().IsButtonJustPressed(button)
}

func (m *Manager) IsMouseButtonJustReleased(button int) bool {
	return m.Mouse().IsButtonJustReleased(button)
}

func (m *Manager) WheelDelta() float64 {
	return m.Mouse().WheelDelta()
}
