package ebitenhost

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/ajsengine/ajs/internal/runtime/render"
)

// discSize is the resolution of the texture circles are scaled from.
const discSize = 128

var _ render.Canvas = (*Canvas)(nil)

type state struct {
	geo   ebiten.GeoM
	alpha float64
}

// Canvas draws onto an ebiten image. Transforms compose like a browser 2D
// context: each call applies to the coordinates of later draws.
type Canvas struct {
	dst   *ebiten.Image
	w, h  int
	cur   state
	stack []state

	pixel  *ebiten.Image
	disc   *ebiten.Image
	images map[image.Image]*ebiten.Image
	face   font.Face
}

func NewCanvas() *Canvas {
	return &Canvas{
		cur:    state{alpha: 1},
		images: make(map[image.Image]*ebiten.Image),
		face:   basicfont.Face7x13,
	}
}

// Begin targets dst for one frame and resets the transform stack.
func (c *Canvas) Begin(dst *ebiten.Image) {
	c.dst = dst
	b := dst.Bounds()
	c.w, c.h = b.Dx(), b.Dy()
	c.cur = state{alpha: 1}
	c.stack = c.stack[:0]
}

// Forget drops cached textures, e.g. after the asset cache was cleared.
func (c *Canvas) Forget() {
	for _, img := range c.images {
		img.Deallocate()
	}
	c.images = make(map[image.Image]*ebiten.Image)
}

func (c *Canvas) Size() (int, int) {
	return c.w, c.h
}

func (c *Canvas) Save() {
	c.stack = append(c.stack, c.cur)
}

func (c *Canvas) Restore() {
	if n := len(c.stack); n > 0 {
		c.cur = c.stack[n-1]
		c.stack = c.stack[:n-1]
	}
}

// local prepends m so it applies before the current transform.
func (c *Canvas) local(m ebiten.GeoM) {
	m.Concat(c.cur.geo)
	c.cur.geo = m
}

func (c *Canvas) Translate(x, y float64) {
	var m ebiten.GeoM
	m.Translate(x, y)
	c.local(m)
}

func (c *Canvas) Rotate(radians float64) {
	var m ebiten.GeoM
	m.Rotate(radians)
	c.local(m)
}

func (c *Canvas) Scale(x, y float64) {
	var m ebiten.GeoM
	m.Scale(x, y)
	c.local(m)
}

func (c *Canvas) SetAlpha(alpha float64) {
	c.cur.alpha = math.Min(math.Max(alpha, 0), 1)
}

func (c *Canvas) Clear(col color.Color) {
	if c.dst != nil {
		c.dst.Fill(col)
	}
}

func (c *Canvas) draw(img *ebiten.Image, m ebiten.GeoM, col color.Color) {
	if c.dst == nil {
		return
	}
	op := &ebiten.DrawImageOptions{GeoM: m, Filter: ebiten.FilterLinear}
	op.GeoM.Concat(c.cur.geo)
	if col != nil {
		op.ColorScale.ScaleWithColor(col)
	}
	op.ColorScale.ScaleAlpha(float32(c.cur.alpha))
	c.dst.DrawImage(img, op)
}

func (c *Canvas) whitePixel() *ebiten.Image {
	if c.pixel == nil {
		c.pixel = ebiten.NewImage(1, 1)
		c.pixel.Fill(color.White)
	}
	return c.pixel
}

func (c *Canvas) FillRect(x, y, w, h float64, col color.Color) {
	var m ebiten.GeoM
	m.Scale(w, h)
	m.Translate(x, y)
	c.draw(c.whitePixel(), m, col)
}

func (c *Canvas) StrokeRect(x, y, w, h, lw float64, col color.Color) {
	c.FillRect(x, y, w, lw, col)
	c.FillRect(x, y+h-lw, w, lw, col)
	c.FillRect(x, y+lw, lw, h-2*lw, col)
	c.FillRect(x+w-lw, y+lw, lw, h-2*lw, col)
}

func (c *Canvas) FillCircle(cx, cy, r float64, col color.Color) {
	if c.disc == nil {
		c.disc = ebiten.NewImage(discSize, discSize)
		vector.DrawFilledCircle(c.disc, discSize/2, discSize/2, discSize/2, color.White, true)
	}
	var m ebiten.GeoM
	m.Scale(2*r/discSize, 2*r/discSize)
	m.Translate(cx-r, cy-r)
	c.draw(c.disc, m, col)
}

func (c *Canvas) texture(img image.Image) *ebiten.Image {
	if e, ok := img.(*ebiten.Image); ok {
		return e
	}
	if e, ok := c.images[img]; ok {
		return e
	}
	e := ebiten.NewImageFromImage(img)
	c.images[img] = e
	return e
}

func (c *Canvas) DrawImage(img image.Image, src image.Rectangle, dx, dy, dw, dh float64) {
	if src.Empty() {
		return
	}
	tex := c.texture(img)
	// textures start at the origin whatever the source bounds were
	sub := tex.SubImage(src.Sub(img.Bounds().Min)).(*ebiten.Image)
	var m ebiten.GeoM
	m.Scale(dw/float64(src.Dx()), dh/float64(src.Dy()))
	m.Translate(dx, dy)
	c.draw(sub, m, nil)
}

func (c *Canvas) FillText(s string, x, y, size float64, col color.Color) {
	if c.dst == nil || s == "" {
		return
	}
	metrics := c.face.Metrics()
	ascent, descent := float64(metrics.Ascent.Ceil()), float64(metrics.Descent.Ceil())
	width := float64(font.MeasureString(c.face, s).Ceil())
	scale := size / (ascent + descent)

	op := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
	op.GeoM.Translate(-width/2, (ascent-descent)/2)
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(x, y)
	op.GeoM.Concat(c.cur.geo)
	op.ColorScale.ScaleWithColor(col)
	op.ColorScale.ScaleAlpha(float32(c.cur.alpha))
	text.DrawWithOptions(c.dst, s, c.face, op)
}
