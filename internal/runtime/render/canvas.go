// Package render defines the 2D drawing surface handed to extensions during
// the render phase.
package render

import (
	"image"
	"image/color"
)

// Canvas is the 2D context supplied by the frame driver. Transform and alpha
// calls stack with Save/Restore the way a browser canvas does.
type Canvas interface {
	Size() (width, height int)

	Save()
	Restore()
	Translate(x, y float64)
	Rotate(radians float64)
	Scale(x, y float64)
	SetAlpha(alpha float64)

	Clear(c color.Color)
	FillRect(x, y, w, h float64, c color.Color)
	StrokeRect(x, y, w, h, lineWidth float64, c color.Color)
	FillCircle(cx, cy, r float64, c color.Color)
	DrawImage(img image.Image, src image.Rectangle, dx, dy, dw, dh float64)
	// FillText draws text centered on (x, y). size is the line height.
	FillText(text string, x, y, size float64, c color.Color)
}

// ParseColor accepts "#rgb", "#rrggbb", "#rrggbbaa" and a few CSS names.
// Unknown values yield def.
func ParseColor(s string, def color.Color) color.Color {
	switch s {
	case "black":
		return color.Black
	case "white":
		return color.White
	case "red":
		return color.RGBA{R: 0xff, A: 0xff}
	case "green":
		return color.RGBA{G: 0x80, A: 0xff}
	case "blue":
		return color.RGBA{B: 0xff, A: 0xff}
	case "transparent":
		return color.Transparent
	}
	if len(s) == 0 || s[0] != '#' {
		return def
	}
	hex := s[1:]
	var vals []uint8
	switch len(hex) {
	case 3:
		for i := 0; i < 3; i++ {
			v, ok := hexByte(hex[i], hex[i])
			if !ok {
				return def
			}
			vals = append(vals, v)
		}
		vals = append(vals, 0xff)
	case 6, 8:
		for i := 0; i < len(hex); i += 2 {
			v, ok := hexByte(hex[i], hex[i+1])
			if !ok {
				return def
			}
			vals = append(vals, v)
		}
		if len(vals) == 3 {
			vals = append(vals, 0xff)
		}
	default:
		return def
	}
	return color.NRGBA{R: vals[0], G: vals[1], B: vals[2], A: vals[3]}
}

func hexByte(hi, lo byte) (uint8, bool) {
	h, ok1 := hexNibble(hi)
	l, ok2 := hexNibble(lo)
	return h<<4 | l, ok1 && ok2
}

func hexNibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
