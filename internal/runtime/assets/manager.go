// Package assets is the deduplicating, cache-backed loader for images,
// sounds and data files. At most one fetch is in flight per (kind, path);
// concurrent requesters share its result.
package assets

import (
	"context"
	"image"
	"io"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ajsengine/ajs/internal/core/events/bus"
	"github.com/ajsengine/ajs/internal/core/observability/log"
)

// Kind names one of the caches.
type Kind string

const (
	KindImages Kind = "images"
	KindSounds Kind = "sounds"
	KindData   Kind = "data"
	KindAll    Kind = "all"
)

func (k Kind) singular() string {
	switch k {
	case KindImages:
		return "image"
	case KindSounds:
		return "sound"
	case KindData:
		return "data"
	default:
		return string(k)
	}
}

// ParseKind accepts the cache names used by clearCache.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindImages, KindSounds, KindData, KindAll:
		return k, nil
	case "json":
		return KindData, nil
	default:
		return "", ErrUnknownKind
	}
}

// Loader is the loading surface handed to extensions and scripts.
type Loader interface {
	LoadImage(ctx context.Context, path string) (image.Image, error)
	LoadSound(ctx context.Context, path string) (*Sound, error)
	LoadJSON(ctx context.Context, path string) (any, error)
	Image(path string) (image.Image, bool)
	Sound(path string) (*Sound, bool)
	Data(path string) (any, bool)
	ResolveAssetPath(path string) string
}

// Stats are the aggregate counters since the last Reset.
type Stats struct {
	Total   int
	Loaded  int
	Failed  int
	Loading int

	Images int
	Sounds int
	Data   int
}

type decodeFunc func(data []byte, path string) (any, error)

type Option func(*Manager)

func WithLogger(l log.Log) Option {
	return func(m *Manager) { m.logger = l }
}

// WithEventBus publishes AssetLoaded and AssetFailed on b.
func WithEventBus(b bus.EventBus) Option {
	return func(m *Manager) { m.bus = b }
}

// WithPreloadConcurrency bounds the number of loads PreloadSceneAssets runs
// at once. Zero or less means unbounded.
func WithPreloadConcurrency(n int) Option {
	return func(m *Manager) { m.preloadLimit = n }
}

type Manager struct {
	fetcher      Fetcher
	logger       log.Log
	bus          bus.EventBus
	preloadLimit int

	group singleflight.Group

	mu     sync.RWMutex
	caches map[Kind]map[string]any

	loading map[string]struct{}
	loaded  map[string]struct{}
	failed  map[string]struct{}
	stats   Stats

	// generation invalidates in-flight results across Reset.
	generation uint64
	destroyed  bool
}

var _ Loader = (*Manager)(nil)

func NewManager(fetcher Fetcher, opts ...Option) *Manager {
	m := &Manager{
		fetcher: fetcher,
		logger:  log.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.resetLocked()
	return m
}

func (m *Manager) resetLocked() {
	m.caches = map[Kind]map[string]any{
		KindImages: make(map[string]any),
		KindSounds: make(map[string]any),
		KindData:   make(map[string]any),
	}
	m.loading = make(map[string]struct{})
	m.loaded = make(map[string]struct{})
	m.failed = make(map[string]struct{})
	m.stats = Stats{}
}

func trackKey(kind Kind, path string) string {
	return string(kind) + ":" + path
}

// ResolveAssetPath maps a project-relative path onto the cache key form.
func (m *Manager) ResolveAssetPath(path string) string {
	return CleanPath(path)
}

func (m *Manager) LoadImage(ctx context.Context, path string) (image.Image, error) {
	v, err := m.load(ctx, KindImages, path, decodeImage)
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

func (m *Manager) LoadSound(ctx context.Context, path string) (*Sound, error) {
	v, err := m.load(ctx, KindSounds, path, decodeSound)
	if err != nil {
		return nil, err
	}
	return v.(*Sound), nil
}

// LoadJSON loads a data file. YAML is accepted for .yaml/.yml paths and
// decoded into the same shape JSON produces.
func (m *Manager) LoadJSON(ctx context.Context, path string) (any, error) {
	return m.load(ctx, KindData, path, decodeData)
}

func (m *Manager) load(ctx context.Context, kind Kind, path string, decode decodeFunc) (any, error) {
	if path == "" {
		return nil, &LoadError{Kind: kind, Path: path, Err: ErrEmptyPath}
	}
	path = CleanPath(path)

	m.mu.RLock()
	destroyed := m.destroyed
	v, ok := m.caches[kind][path]
	m.mu.RUnlock()
	if destroyed {
		return nil, &LoadError{Kind: kind, Path: path, Err: ErrDestroyed}
	}
	if ok {
		return v, nil
	}

	key := trackKey(kind, path)
	// The shared fetch outlives any one caller; only the wait is cancelable.
	fetchCtx := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (any, error) {
		return m.fetch(fetchCtx, kind, path, key, decode)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) fetch(ctx context.Context, kind Kind, path, key string, decode decodeFunc) (any, error) {
	m.mu.Lock()
	// a flight that finished between the cache check and DoChan
	if v, ok := m.caches[kind][path]; ok {
		m.mu.Unlock()
		return v, nil
	}
	gen := m.generation
	m.loading[key] = struct{}{}
	m.stats.Total++
	m.mu.Unlock()

	v, err := m.read(ctx, path, decode)

	m.mu.Lock()
	current := gen == m.generation
	if current {
		delete(m.loading, key)
		if err != nil {
			m.failed[key] = struct{}{}
			m.stats.Failed++
		} else {
			m.caches[kind][path] = v
			m.loaded[key] = struct{}{}
			m.stats.Loaded++
		}
	}
	m.mu.Unlock()

	if err != nil {
		lerr := &LoadError{Kind: kind, Path: path, Err: err}
		m.logger.Warn("asset load failed", log.AssetPath(path), log.String("kind", string(kind)), log.Error(err))
		m.publish(bus.AssetFailed, kind, path, lerr)
		return nil, lerr
	}
	if current {
		m.logger.Debug("asset loaded", log.AssetPath(path), log.String("kind", string(kind)))
		m.publish(bus.AssetLoaded, kind, path, nil)
	}
	return v, nil
}

func (m *Manager) read(ctx context.Context, path string, decode decodeFunc) (any, error) {
	rc, err := m.fetcher.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return decode(data, path)
}

func (m *Manager) publish(typ string, kind Kind, path string, err error) {
	if m.bus == nil {
		return
	}
	ev := bus.NewEvent(typ, "assets", bus.AssetEvent{Kind: string(kind), Path: path, Err: err}, nil)
	if perr := m.bus.Publish(ev); perr != nil {
		m.logger.Warn("asset event handler failed", log.Error(perr))
	}
}

func (m *Manager) cached(kind Kind, path string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.caches[kind][CleanPath(path)]
	return v, ok
}

// Image returns a cached image without loading.
func (m *Manager) Image(path string) (image.Image, bool) {
	v, ok := m.cached(KindImages, path)
	if !ok {
		return nil, false
	}
	return v.(image.Image), true
}

// Sound returns a cached sound without loading.
func (m *Manager) Sound(path string) (*Sound, bool) {
	v, ok := m.cached(KindSounds, path)
	if !ok {
		return nil, false
	}
	return v.(*Sound), true
}

// Data returns a cached data document without loading.
func (m *Manager) Data(path string) (any, bool) {
	return m.cached(KindData, path)
}

// IsLoading reports whether a load for (kind, path) is in flight.
func (m *Manager) IsLoading(kind Kind, path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.loading[trackKey(kind, CleanPath(path))]
	return ok
}

// HasFailed reports whether the last load of (kind, path) failed.
func (m *Manager) HasFailed(kind Kind, path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.failed[trackKey(kind, CleanPath(path))]
	return ok
}

// ClearCache drops cached values of one kind, or all of them. Tracking sets
// and statistics are kept.
func (m *Manager) ClearCache(kind Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch kind {
	case KindImages, KindSounds, KindData:
		m.caches[kind] = make(map[string]any)
	case KindAll:
		for k := range m.caches {
			m.caches[k] = make(map[string]any)
		}
	default:
		return ErrUnknownKind
	}
	return nil
}

// Reset clears every cache, the tracking sets and the statistics. Loads
// still in flight finish but their results are discarded.
func (m *Manager) Reset() {
	m.mu.Lock()
	for key := range m.loading {
		m.group.Forget(key)
	}
	m.generation++
	m.resetLocked()
	m.mu.Unlock()
}

// Destroy resets the manager and rejects all further loads.
func (m *Manager) Destroy() {
	m.Reset()
	m.mu.Lock()
	m.destroyed = true
	m.mu.Unlock()
}

// IsLoadingComplete reports whether no load is in flight. A load that never
// settles keeps this false forever.
func (m *Manager) IsLoadingComplete() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.loading) == 0
}

// LoadingProgress is the settled fraction of every load started since the
// last Reset, in [0, 1]. It is 1 when nothing was requested.
func (m *Manager) LoadingProgress() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.stats.Total == 0 {
		return 1
	}
	return float64(m.stats.Loaded+m.stats.Failed) / float64(m.stats.Total)
}

func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.stats
	s.Loading = len(m.loading)
	s.Images = len(m.caches[KindImages])
	s.Sounds = len(m.caches[KindSounds])
	s.Data = len(m.caches[KindData])
	return s
}
