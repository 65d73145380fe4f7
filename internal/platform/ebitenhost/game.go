// Package ebitenhost runs the engine in a desktop window. It adapts ebiten's
// polled input to the runtime's DOM-style events and implements the canvas
// on ebiten images.
package ebitenhost

import (
	"errors"
	"image/color"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/ajsengine/ajs/internal/config"
	"github.com/ajsengine/ajs/internal/core/observability/log"
	"github.com/ajsengine/ajs/internal/runtime/engine"
	"github.com/ajsengine/ajs/internal/runtime/input"
)

// ErrQuit ends the game loop without error.
var ErrQuit = errors.New("quit")

var (
	_ ebiten.Game   = (*Game)(nil)
	_ input.Surface = (*Game)(nil)
)

// Game drives one runtime frame per ebiten tick.
type Game struct {
	rt     *engine.Runtime
	logger log.Log
	canvas *Canvas
	source *input.FuncSource
	poller *poller

	width, height int
	background    color.Color
	quit          atomic.Bool
}

func NewGame(rt *engine.Runtime, window config.WindowConfig, logger log.Log) *Game {
	g := &Game{
		rt:         rt,
		logger:     logger.Named("window"),
		canvas:     NewCanvas(),
		source:     &input.FuncSource{},
		poller:     newPoller(),
		width:      window.Width,
		height:     window.Height,
		background: color.Black,
	}
	rt.InputManager().InitWithCanvas(g.source, g)
	return g
}

// Quit stops the loop after the current tick. It may be called from any
// goroutine.
func (g *Game) Quit() {
	g.quit.Store(true)
}

func (g *Game) ClientRect() input.Rect {
	return input.Rect{W: float64(g.width), H: float64(g.height)}
}

func (g *Game) Size() (int, int) {
	return g.width, g.height
}

// Update forwards this tick's input. The frame itself runs in Draw so that
// rendering sees the state the update produced.
func (g *Game) Update() error {
	if g.quit.Load() {
		return ErrQuit
	}
	for _, ev := range g.poller.poll(readSnapshot()) {
		g.source.Emit(ev)
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.canvas.Begin(screen)
	g.canvas.Clear(g.background)
	if !g.rt.Running() {
		return
	}
	// faults are logged where they occur and tallied from the event bus
	g.rt.Frame(g.canvas)
}

func (g *Game) Layout(int, int) (int, int) {
	return g.width, g.height
}

// Run opens the window and blocks until it is closed or Quit is called.
func Run(g *Game, window config.WindowConfig) error {
	ebiten.SetWindowTitle(window.Title)
	ebiten.SetWindowSize(window.Width, window.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeDisabled)

	g.logger.Info("window opened", log.String("title", window.Title), log.Int("width", window.Width), log.Int("height", window.Height))
	err := ebiten.RunGame(g)
	if errors.Is(err, ErrQuit) {
		return nil
	}
	return err
}
