package assets

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ajsengine/ajs/internal/core/observability/log"
	"github.com/ajsengine/ajs/internal/runtime/scene"
)

// ProgressFunc receives the number of settled loads and the batch size.
type ProgressFunc func(loaded, total int)

// Asset-bearing property fields and the cache each one loads into.
var assetFields = []struct {
	name string
	kind Kind
}{
	{"imagePath", KindImages},
	{"spriteSheet", KindImages},
	{"soundPath", KindSounds},
	{"musicPath", KindSounds},
	{"dataPath", KindData},
}

// Ref is one asset a scene refers to.
type Ref struct {
	Kind Kind
	Path string
}

// SceneRefs lists the unique assets referenced by the scene's objects in
// first-seen order.
func SceneRefs(data *scene.Data) []Ref {
	if data == nil {
		return nil
	}
	seen := make(map[Ref]struct{})
	var refs []Ref
	for _, obj := range data.Objects {
		for _, f := range assetFields {
			p := fieldPath(obj.Properties[f.name])
			if p == "" {
				continue
			}
			ref := Ref{Kind: f.kind, Path: CleanPath(p)}
			if _, dup := seen[ref]; dup {
				continue
			}
			seen[ref] = struct{}{}
			refs = append(refs, ref)
		}
	}
	return refs
}

// fieldPath accepts either a plain path or a sheet descriptor carrying one.
func fieldPath(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		for _, k := range []string{"imagePath", "image", "path"} {
			if s, ok := t[k].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// PreloadSceneAssets loads every asset the scene references concurrently and
// returns once all of them have settled. A failed asset is logged and counted
// toward progress; it never aborts the batch. The only error returned is ctx's.
func (m *Manager) PreloadSceneAssets(ctx context.Context, data *scene.Data, onProgress ProgressFunc) error {
	refs := SceneRefs(data)
	total := len(refs)
	if total == 0 {
		return ctx.Err()
	}

	var (
		mu      sync.Mutex
		settled int
	)
	report := func() {
		mu.Lock()
		defer mu.Unlock()
		settled++
		if onProgress != nil {
			onProgress(settled, total)
		}
	}

	var g errgroup.Group
	if m.preloadLimit > 0 {
		g.SetLimit(m.preloadLimit)
	}
	for _, ref := range refs {
		g.Go(func() error {
			var err error
			switch ref.Kind {
			case KindImages:
				_, err = m.LoadImage(ctx, ref.Path)
			case KindSounds:
				_, err = m.LoadSound(ctx, ref.Path)
			case KindData:
				_, err = m.LoadJSON(ctx, ref.Path)
			}
			if err != nil {
				m.logger.Warn("preload skipped asset", log.AssetPath(ref.Path), log.Error(err))
			}
			report()
			return nil
		})
	}
	_ = g.Wait()

	m.logger.Info("scene assets preloaded", log.Int("total", total), log.Int("failed", m.Stats().Failed))
	return ctx.Err()
}
