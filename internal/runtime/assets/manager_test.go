package assets

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajsengine/ajs/internal/core/events/bus"
	"github.com/ajsengine/ajs/internal/runtime/scene"
)

// countingFetcher counts fetches per path and can hold them until released.
type countingFetcher struct {
	inner Fetcher
	gate  chan struct{}

	mu     sync.Mutex
	counts map[string]int
}

func newCountingFetcher(files fstest.MapFS) *countingFetcher {
	return &countingFetcher{inner: DirFetcher{FS: files}, counts: make(map[string]int)}
}

func (c *countingFetcher) Fetch(ctx context.Context, p string) (io.ReadCloser, error) {
	c.mu.Lock()
	c.counts[p]++
	c.mu.Unlock()
	if c.gate != nil {
		<-c.gate
	}
	return c.inner.Fetch(ctx, p)
}

func (c *countingFetcher) count(p string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[p]
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// wavBytes builds a 16-bit mono PCM clip of n silent samples.
func wavBytes(n int) []byte {
	var buf bytes.Buffer
	w := func(v any) { _ = binary.Write(&buf, binary.LittleEndian, v) }
	dataLen := uint32(n * 2)
	buf.WriteString("RIFF")
	w(uint32(36) + dataLen)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	w(uint32(16))
	w(uint16(1))
	w(uint16(1))
	w(uint32(44100))
	w(uint32(44100 * 2))
	w(uint16(2))
	w(uint16(16))
	buf.WriteString("data")
	w(dataLen)
	buf.Write(make([]byte, dataLen))
	return buf.Bytes()
}

func TestConcurrentLoadsShareOneFetch(t *testing.T) {
	f := newCountingFetcher(fstest.MapFS{"x.png": {Data: pngBytes(t)}})
	f.gate = make(chan struct{})
	m := NewManager(f)

	const n = 16
	results := make([]image.Image, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			img, err := m.LoadImage(context.Background(), "x.png")
			assert.NoError(t, err)
			results[i] = img
		}()
	}

	require.Eventually(t, func() bool { return m.IsLoading(KindImages, "x.png") }, time.Second, time.Millisecond)
	assert.False(t, m.IsLoadingComplete())
	close(f.gate)
	wg.Wait()

	assert.Equal(t, 1, f.count("x.png"))
	for _, img := range results {
		assert.Same(t, results[0], img)
	}

	// cached now
	img, err := m.LoadImage(context.Background(), "./x.png")
	require.NoError(t, err)
	assert.Same(t, results[0], img)
	assert.Equal(t, 1, f.count("x.png"))

	s := m.Stats()
	assert.Equal(t, 1, s.Total)
	assert.Equal(t, 1, s.Loaded)
	assert.Equal(t, 1, s.Images)
	assert.True(t, m.IsLoadingComplete())
}

func TestFailedLoadIsRejectedAndTracked(t *testing.T) {
	m := NewManager(newCountingFetcher(fstest.MapFS{}))

	_, err := m.LoadSound(context.Background(), "missing.wav")
	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, KindSounds, lerr.Kind)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), `load sound "missing.wav"`)

	assert.True(t, m.HasFailed(KindSounds, "missing.wav"))
	_, ok := m.Sound("missing.wav")
	assert.False(t, ok)
	assert.Equal(t, 1, m.Stats().Failed)
	assert.Equal(t, 1.0, m.LoadingProgress())
}

func TestDecodeErrors(t *testing.T) {
	m := NewManager(DirFetcher{FS: fstest.MapFS{
		"notes.txt":  {Data: []byte("hello")},
		"broken.png": {Data: []byte("not an image")},
	}})

	_, err := m.LoadSound(context.Background(), "notes.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = m.LoadImage(context.Background(), "broken.png")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = m.LoadImage(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestLoadSoundAndData(t *testing.T) {
	m := NewManager(DirFetcher{FS: fstest.MapFS{
		"beep.wav":     {Data: wavBytes(441)},
		"level.json":   {Data: []byte(`{"enemies":[{"hp":3}]}`)},
		"level.yaml":   {Data: []byte("enemies:\n  - hp: 3\n")},
		"sub/cfg.json": {Data: []byte(`[1,2]`)},
	}})
	ctx := context.Background()

	snd, err := m.LoadSound(ctx, "beep.wav")
	require.NoError(t, err)
	assert.Equal(t, 441, snd.Len())
	assert.Equal(t, 10*time.Millisecond, snd.Duration())

	fromJSON, err := m.LoadJSON(ctx, "level.json")
	require.NoError(t, err)
	fromYAML, err := m.LoadJSON(ctx, "level.yaml")
	require.NoError(t, err)
	assert.Equal(t, fromJSON, fromYAML)

	_, err = m.LoadJSON(ctx, "res://sub/cfg.json")
	require.NoError(t, err)
	_, ok := m.Data("sub/cfg.json")
	assert.True(t, ok)
}

func TestClearCacheAndReset(t *testing.T) {
	f := newCountingFetcher(fstest.MapFS{"a.png": {Data: pngBytes(t)}, "d.json": {Data: []byte(`{}`)}})
	m := NewManager(f)
	ctx := context.Background()

	_, err := m.LoadImage(ctx, "a.png")
	require.NoError(t, err)
	_, err = m.LoadJSON(ctx, "d.json")
	require.NoError(t, err)

	require.NoError(t, m.ClearCache(KindImages))
	_, ok := m.Image("a.png")
	assert.False(t, ok)
	_, ok = m.Data("d.json")
	assert.True(t, ok)
	assert.Equal(t, 2, m.Stats().Loaded)

	assert.ErrorIs(t, m.ClearCache("textures"), ErrUnknownKind)

	m.Reset()
	assert.Equal(t, Stats{}, m.Stats())
	_, ok = m.Data("d.json")
	assert.False(t, ok)

	_, err = m.LoadImage(ctx, "a.png")
	require.NoError(t, err)
	assert.Equal(t, 2, f.count("a.png"))

	m.Destroy()
	_, err = m.LoadImage(ctx, "a.png")
	assert.ErrorIs(t, err, ErrDestroyed)
}

func TestCanceledWaitDoesNotCancelSharedLoad(t *testing.T) {
	f := newCountingFetcher(fstest.MapFS{"x.png": {Data: pngBytes(t)}})
	f.gate = make(chan struct{})
	m := NewManager(f)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := m.LoadImage(ctx, "x.png")
		errc <- err
	}()
	require.Eventually(t, func() bool { return m.IsLoading(KindImages, "x.png") }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	close(f.gate)
	require.Eventually(t, func() bool { _, ok := m.Image("x.png"); return ok }, time.Second, time.Millisecond)
}

func TestPreloadSceneAssets(t *testing.T) {
	f := newCountingFetcher(fstest.MapFS{"x.png": {Data: pngBytes(t)}})
	events := bus.New()
	var failed []string
	_, err := events.Subscribe(bus.AssetFailed, func(e bus.Event) error {
		failed = append(failed, e.Data().(bus.AssetEvent).Path)
		return nil
	})
	require.NoError(t, err)
	m := NewManager(f, WithEventBus(events))

	data := &scene.Data{Objects: []scene.ObjectData{
		{Oid: "a", Properties: map[string]any{"imagePath": "x.png"}},
		{Oid: "b", Properties: map[string]any{"imagePath": "x.png"}},
		{Oid: "c", Properties: map[string]any{"imagePath": "x.png"}},
		{Oid: "d", Properties: map[string]any{"soundPath": "missing.wav"}},
	}}

	var mu sync.Mutex
	var calls [][2]int
	err = m.PreloadSceneAssets(context.Background(), data, func(loaded, total int) {
		mu.Lock()
		calls = append(calls, [2]int{loaded, total})
		mu.Unlock()
	})
	require.NoError(t, err)

	assert.Equal(t, 1, f.count("x.png"))
	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, calls)
	assert.Equal(t, []string{"missing.wav"}, failed)
	assert.True(t, m.IsLoadingComplete())
	assert.Equal(t, 1.0, m.LoadingProgress())
}

func TestSceneRefs(t *testing.T) {
	data := &scene.Data{Objects: []scene.ObjectData{
		{Oid: "a", Properties: map[string]any{
			"spriteSheet": map[string]any{"image": "hero.png", "frameWidth": 16.0},
			"musicPath":   "theme.mp3",
		}},
		{Oid: "b", Properties: map[string]any{"imagePath": "/hero.png", "dataPath": "lvl.json"}},
	}}
	assert.Equal(t, []Ref{
		{KindImages, "hero.png"},
		{KindSounds, "theme.mp3"},
		{KindData, "lvl.json"},
	}, SceneRefs(data))
}

func TestHTTPFetcher(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/assets/d.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	m := NewManager(HTTPFetcher{BaseURL: srv.URL + "/assets/"})
	v, err := m.LoadJSON(context.Background(), "d.json")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, v)

	_, err = m.LoadJSON(context.Background(), "nope.json")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(2), hits.Load())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("json")
	require.NoError(t, err)
	assert.Equal(t, KindData, k)
	_, err = ParseKind("video")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
