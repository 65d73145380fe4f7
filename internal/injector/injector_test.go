package injector

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajsengine/ajs/internal/config"
	"github.com/ajsengine/ajs/internal/runtime/extensions"
	"github.com/ajsengine/ajs/internal/runtime/render"
	"github.com/ajsengine/ajs/internal/runtime/scene"
)

func TestInitializeApp(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spin.js"), []byte(`
export default class Spin {
  onUpdate(go, dt) { go.properties.angle = (go.properties.angle || 0) + 1 }
}`), 0o600))

	cfg := config.Default()
	cfg.Log.Level = "silent"
	cfg.Audio.Enabled = false
	cfg.Window.Headless = true
	cfg.Scripts.ProjectRoot = dir
	cfg.Assets.Root = dir

	app, cleanup, err := InitializeApp(cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	assert.Nil(t, app.Mixer)
	assert.Nil(t, app.Bridge)

	err = app.Runtime.LoadScene(context.Background(), &scene.Data{Objects: []scene.ObjectData{
		{Oid: "box", Extension: extensions.ShapeID, Properties: map[string]any{
			"scripts": []any{"spin.js", "internal:Mover"},
		}},
		{Oid: "time", Extension: extensions.TimeID, Properties: map[string]any{"timeScale": 0.5}},
	}})
	require.NoError(t, err)
	require.Empty(t, app.Runtime.LastFaults())
	assert.Equal(t, 0.5, app.Runtime.Clock().TimeScale())

	rec := render.NewRecorder(cfg.Window.Width, cfg.Window.Height)
	require.Empty(t, app.Runtime.Frame(rec))
	box, ok := app.Runtime.FindGameObject("box")
	require.True(t, ok)
	assert.Equal(t, 1.0, box.Properties["angle"])
	assert.Equal(t, 1, rec.Count("fillRect"))

	stats := app.Monitor.Stats()
	assert.Equal(t, 2, stats.Objects)
	assert.Zero(t, stats.TotalFaults())
}
