package ebitenhost

import (
	"slices"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/ajsengine/ajs/internal/runtime/input"
)

// wheelPixels converts one wheel notch into a DOM-style pixel delta.
const wheelPixels = 100

// snapshot is the device state ebiten reports for one tick.
type snapshot struct {
	keys    []string // ebiten key names, sorted
	x, y    float64
	buttons [3]bool // DOM numbering
	wheelX  float64
	wheelY  float64
	touches []input.Touch
	focused bool
}

func readSnapshot() snapshot {
	s := snapshot{focused: ebiten.IsFocused()}
	for _, k := range inpututil.AppendPressedKeys(nil) {
		s.keys = append(s.keys, k.String())
	}
	slices.Sort(s.keys)

	cx, cy := ebiten.CursorPosition()
	s.x, s.y = float64(cx), float64(cy)
	s.buttons[input.ButtonLeft] = ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	s.buttons[input.ButtonMiddle] = ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle)
	s.buttons[input.ButtonRight] = ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	s.wheelX, s.wheelY = ebiten.Wheel()

	for _, id := range ebiten.AppendTouchIDs(nil) {
		tx, ty := ebiten.TouchPosition(id)
		s.touches = append(s.touches, input.Touch{ID: int(id), X: float64(tx), Y: float64(ty), Force: 1})
	}
	return s
}

// domKey turns an ebiten key name into KeyboardEvent code and key values.
func domKey(name string) (code, key string) {
	switch {
	case len(name) == 1 && name[0] >= 'A' && name[0] <= 'Z':
		return "Key" + name, strings.ToLower(name)
	case len(name) == 4 && strings.HasPrefix(name, "Key"):
		return name, strings.ToLower(name[3:])
	case strings.HasPrefix(name, "Digit") && len(name) == 6:
		return name, name[5:]
	case name == "Space":
		return name, " "
	}
	for _, mod := range []string{"Shift", "Control", "Alt", "Meta"} {
		if name == mod+"Left" || name == mod+"Right" {
			return name, mod
		}
	}
	return name, name
}

func keyEvent(typ input.EventType, name string) input.Event {
	code, key := domKey(name)
	return input.Event{Type: typ, Key: key, Code: code}
}

// poller turns successive snapshots into DOM-style events.
type poller struct {
	prev snapshot
}

func newPoller() *poller {
	return &poller{prev: snapshot{focused: true}}
}

func (p *poller) poll(cur snapshot) []input.Event {
	prev := p.prev
	p.prev = cur

	var out []input.Event
	if prev.focused && !cur.focused {
		out = append(out, input.Event{Type: input.Blur})
		prev.keys, prev.buttons = nil, [3]bool{}
	}

	for _, k := range prev.keys {
		if _, held := slices.BinarySearch(cur.keys, k); !held {
			out = append(out, keyEvent(input.KeyUp, k))
		}
	}
	for _, k := range cur.keys {
		if _, was := slices.BinarySearch(prev.keys, k); !was {
			out = append(out, keyEvent(input.KeyDown, k))
		}
	}

	if cur.x != prev.x || cur.y != prev.y {
		out = append(out, input.Event{Type: input.MouseMove, ClientX: cur.x, ClientY: cur.y})
	}
	for b := range cur.buttons {
		switch {
		case cur.buttons[b] && !prev.buttons[b]:
			out = append(out, input.Event{Type: input.MouseDown, Button: b, ClientX: cur.x, ClientY: cur.y})
		case !cur.buttons[b] && prev.buttons[b]:
			out = append(out, input.Event{Type: input.MouseUp, Button: b, ClientX: cur.x, ClientY: cur.y})
		}
	}
	if cur.wheelX != 0 || cur.wheelY != 0 {
		out = append(out, input.Event{Type: input.Wheel, DeltaX: -cur.wheelX * wheelPixels, DeltaY: -cur.wheelY * wheelPixels})
	}

	if ev, ok := touchEvent(prev.touches, cur.touches); ok {
		out = append(out, ev)
	}
	return out
}

// touchEvent reports at most one touch event per tick: starts win over ends,
// which win over moves. Every event carries the full current list.
func touchEvent(prev, cur []input.Touch) (input.Event, bool) {
	ids := func(ts []input.Touch) map[int]input.Touch {
		m := make(map[int]input.Touch, len(ts))
		for _, t := range ts {
			m[t.ID] = t
		}
		return m
	}
	before, after := ids(prev), ids(cur)

	var started, ended, moved bool
	for id, t := range after {
		old, ok := before[id]
		switch {
		case !ok:
			started = true
		case old.X != t.X || old.Y != t.Y:
			moved = true
		}
	}
	for id := range before {
		if _, ok := after[id]; !ok {
			ended = true
		}
	}

	ev := input.Event{Touches: slices.Clone(cur)}
	switch {
	case started:
		ev.Type = input.TouchStart
	case ended:
		ev.Type = input.TouchEnd
	case moved:
		ev.Type = input.TouchMove
	default:
		return input.Event{}, false
	}
	return ev, true
}
