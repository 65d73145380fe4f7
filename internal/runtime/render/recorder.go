package render

import (
	"fmt"
	"image"
	"image/color"
)

var _ Canvas = (*Recorder)(nil)

// Op is one recorded drawing call.
type Op struct {
	Name string
	Args []any
}

// Recorder is a Canvas that records calls instead of drawing. Headless runs
// and tests use it.
type Recorder struct {
	Width, Height int
	Ops           []Op
	depth         int
}

func NewRecorder(width, height int) *Recorder {
	return &Recorder{Width: width, Height: height}
}

func (r *Recorder) record(name string, args ...any) {
	r.Ops = append(r.Ops, Op{Name: name, Args: args})
}

func (r *Recorder) Size() (int, int) { return r.Width, r.Height }

func (r *Recorder) Save() {
	r.depth++
	r.record("save")
}

func (r *Recorder) Restore() {
	if r.depth > 0 {
		r.depth--
	}
	r.record("restore")
}

func (r *Recorder) Translate(x, y float64) { r.record("translate", x, y) }
func (r *Recorder) Rotate(radians float64) { r.record("rotate", radians) }
func (r *Recorder) Scale(x, y float64) { r.record("scale", x, y) }
func (r *Recorder) SetAlpha(alpha float64) { r.record("alpha", alpha) }
func (r *Recorder) Clear(c color.Color) { r.record("clear", c) }
func (r *Recorder) FillText(text string, x, y, size float64, c color.Color) {
	r.record("fillText", text, x, y, size, c)
}

func (r *Recorder) FillRect(x, y, w, h float64, c color.Color) {
	r.record("fillRect", x, y, w, h, c)
}

func (r *Recorder) StrokeRect(x, y, w, h, lineWidth float64, c color.Color) {
	r.record("strokeRect", x, y, w, h, lineWidth, c)
}

func (r *Recorder) FillCircle(cx, cy, r2 float64, c color.Color) {
	r.record("fillCircle", cx, cy, r2, c)
}

func (r *Recorder) DrawImage(img image.Image, src image.Rectangle, dx, dy, dw, dh float64) {
	r.record("drawImage", img, src, dx, dy, dw, dh)
}

// Count returns how many ops with the given name were recorded.
func (r *Recorder) Count(name string) int {
	n := 0
	for _, op := range r.Ops {
		if op.Name == name {
			n++
		}
	}
	return n
}

// Balanced reports whether every Save had a matching Restore.
func (r *Recorder) Balanced() bool {
	return r.depth == 0
}

func (r *Recorder) Reset() {
	r.Ops = r.Ops[:0]
	r.depth = 0
}

func (o Op) String() string {
	return fmt.Sprintf("%s%v", o.Name, o.Args)
}
