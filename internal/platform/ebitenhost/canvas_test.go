package ebitenhost

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func apply(c *Canvas, x, y float64) (float64, float64) {
	return c.cur.geo.Apply(x, y)
}

func TestCanvasTransformsComposeLocally(t *testing.T) {
	c := NewCanvas()
	c.Translate(10, 20)
	c.Rotate(math.Pi / 2)

	x, y := apply(c, 1, 0)
	assert.InDelta(t, 10, x, 1e-9)
	assert.InDelta(t, 21, y, 1e-9)

	c.Scale(2, 3)
	x, y = apply(c, 1, 1)
	assert.InDelta(t, 7, x, 1e-9)
	assert.InDelta(t, 22, y, 1e-9)
}

func TestCanvasSaveRestore(t *testing.T) {
	c := NewCanvas()
	c.Translate(5, 5)
	c.Save()
	c.Translate(100, 0)
	c.SetAlpha(0.25)
	c.Restore()

	x, y := apply(c, 0, 0)
	assert.Equal(t, 5.0, x)
	assert.Equal(t, 5.0, y)
	assert.Equal(t, 1.0, c.cur.alpha)

	// unbalanced restores are ignored
	c.Restore()
	c.Restore()
	x, _ = apply(c, 0, 0)
	assert.Equal(t, 5.0, x)
}

func TestCanvasAlphaIsClamped(t *testing.T) {
	c := NewCanvas()
	c.SetAlpha(2)
	assert.Equal(t, 1.0, c.cur.alpha)
	c.SetAlpha(-1)
	assert.Equal(t, 0.0, c.cur.alpha)
	c.SetAlpha(0.5)
	assert.Equal(t, 0.5, c.cur.alpha)
}

func TestCanvasWithoutTarget(t *testing.T) {
	c := NewCanvas()
	w, h := c.Size()
	assert.Zero(t, w)
	assert.Zero(t, h)
	c.FillText("ignored", 0, 0, 16, nil)
}
