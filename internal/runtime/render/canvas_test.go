package render

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseColor(t *testing.T) {
	def := color.Gray{Y: 1}
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff}, ParseColor("#f00", def))
	assert.Equal(t, color.NRGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xff}, ParseColor("#123456", def))
	assert.Equal(t, color.NRGBA{R: 0x12, G: 0x34, B: 0x56, A: 0x80}, ParseColor("#12345680", def))
	assert.Equal(t, color.White, ParseColor("white", def))
	assert.Equal(t, def, ParseColor("#12", def))
	assert.Equal(t, def, ParseColor("#zzzzzz", def))
	assert.Equal(t, def, ParseColor("", def))
}

func TestRecorderBalance(t *testing.T) {
	r := NewRecorder(100, 50)
	r.Save()
	r.Translate(1, 2)
	r.FillRect(0, 0, 10, 10, color.Black)
	assert.False(t, r.Balanced())
	r.Restore()
	assert.True(t, r.Balanced())
	assert.Equal(t, 1, r.Count("fillRect"))

	w, h := r.Size()
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
}
