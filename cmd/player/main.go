package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ajsengine/ajs/internal/config"
	"github.com/ajsengine/ajs/internal/core/observability/log"
	"github.com/ajsengine/ajs/internal/injector"
	"github.com/ajsengine/ajs/internal/platform/ebitenhost"
	"github.com/ajsengine/ajs/internal/runtime/render"
	"github.com/ajsengine/ajs/internal/runtime/scene"
)

const headlessTick = time.Second / 60

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	scenePath := flag.String("scene", "", "scene file to load (.json or .yaml)")
	flag.Parse()

	if err := run(*configPath, *scenePath); err != nil {
		fmt.Fprintln(os.Stderr, "player:", err)
		os.Exit(1)
	}
}

func run(configPath, scenePath string) error {
	if scenePath == "" {
		return fmt.Errorf("-scene is required")
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	app, cleanup, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	data, err := scene.LoadFile(scenePath)
	if err != nil {
		return fmt.Errorf("load scene %s: %w", scenePath, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = app.Runtime.LoadScene(ctx, data); err != nil {
		return err
	}

	if cfg.Window.Headless {
		return runHeadless(ctx, app)
	}
	if app.Bridge != nil {
		app.Logger.Warn("websocket input is ignored while a window is open", log.String("addr", cfg.Input.WebSocketAddr))
	}
	game := ebitenhost.NewGame(app.Runtime, cfg.Window, app.Logger)
	go func() {
		<-ctx.Done()
		game.Quit()
	}()
	return ebitenhost.Run(game, cfg.Window)
}

// runHeadless steps frames on a timer against a recording canvas until ctx
// is cancelled.
func runHeadless(ctx context.Context, app *injector.App) error {
	canvas := render.NewRecorder(app.Config.Window.Width, app.Config.Window.Height)
	ticker := time.NewTicker(headlessTick)
	defer ticker.Stop()

	app.Logger.Info("running headless", log.String("scene", app.Runtime.SceneName()))
	for {
		select {
		case <-ctx.Done():
			app.Logger.Info("shutting down")
			return nil
		case <-ticker.C:
			canvas.Reset()
			app.Runtime.Frame(canvas)
		}
	}
}
