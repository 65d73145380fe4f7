// Package timing implements the Time system: the single source of deltaTime
// for a frame. It must update before every other subsystem.
package timing

import (
	"sync"
	"time"
)

const (
	DefaultFPSWindow   = time.Second
	DefaultSlowMotion  = 0.5
	DefaultFastForward = 2.0
)

// Reader is the read-only view handed to scripts and extensions.
type Reader interface {
	DeltaTime() float64
	RealDeltaTime() float64
	TotalTime() float64
	RealTotalTime() float64
	FrameCount() uint64
	FPS() int
	TimeScale() float64
	IsPaused() bool
}

// Option configures a Time at construction.
type Option func(*Time)

// WithMaxDelta caps realDeltaTime so a long stall (debugger, window drag)
// does not produce one huge step. Zero disables the cap.
func WithMaxDelta(d time.Duration) Option {
	return func(t *Time) { t.maxDelta = d }
}

// WithFPSWindow changes the length of the FPS counting window.
func WithFPSWindow(d time.Duration) Option {
	return func(t *Time) {
		if d > 0 {
			t.fpsWindow = d
		}
	}
}

// Snapshot is a copy of the frame timing values.
type Snapshot struct {
	DeltaTime     float64
	RealDeltaTime float64
	TotalTime     float64
	RealTotalTime float64
	FrameCount    uint64
	FPS           int
	TimeScale     float64
}

// Time tracks frame timing. All durations it reports are milliseconds.
type Time struct {
	mu    sync.RWMutex
	clock Clock

	maxDelta  time.Duration
	fpsWindow time.Duration

	started bool
	last    time.Time

	deltaTime     float64
	realDeltaTime float64
	totalTime     float64
	realTotalTime float64
	frameCount    uint64
	timeScale     float64

	fps          int
	windowStart  time.Time
	windowFrames int
}

var _ Reader = (*Time)(nil)

func New(clock Clock, opts ...Option) *Time {
	if clock == nil {
		clock = SystemClock{}
	}
	t := &Time{
		clock:     clock,
		fpsWindow: DefaultFPSWindow,
		timeScale: 1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Update advances the frame. The first call only establishes the reference
// point and reports a zero delta.
func (t *Time) Update() {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		t.started = true
		t.last = now
		t.windowStart = now
		t.deltaTime = 0
		t.realDeltaTime = 0
		t.frameCount++
		t.windowFrames++
		return
	}

	elapsed := now.Sub(t.last)
	if elapsed < 0 {
		elapsed = 0
	}
	if t.maxDelta > 0 && elapsed > t.maxDelta {
		elapsed = t.maxDelta
	}
	t.last = now

	t.realDeltaTime = float64(elapsed) / float64(time.Millisecond)
	t.deltaTime = t.realDeltaTime * t.timeScale
	t.totalTime += t.deltaTime
	t.realTotalTime += t.realDeltaTime
	t.frameCount++

	t.windowFrames++
	if now.Sub(t.windowStart) >= t.fpsWindow {
		t.fps = t.windowFrames
		t.windowFrames = 0
		t.windowStart = now
	}
}

// SetTimeScale clamps negative scales to zero. Zero pauses game time.
func (t *Time) SetTimeScale(scale float64) {
	if scale < 0 {
		scale = 0
	}
	t.mu.Lock()
	t.timeScale = scale
	t.mu.Unlock()
}

func (t *Time) Pause() {
	t.SetTimeScale(0)
}

func (t *Time) Resume() {
	t.SetTimeScale(1)
}

// SlowMotion sets a scale below one; a non-positive factor uses the default.
func (t *Time) SlowMotion(factor float64) {
	if factor <= 0 {
		factor = DefaultSlowMotion
	}
	t.SetTimeScale(factor)
}

// FastForward sets a scale above one; a non-positive factor uses the default.
func (t *Time) FastForward(factor float64) {
	if factor <= 0 {
		factor = DefaultFastForward
	}
	t.SetTimeScale(factor)
}

// Reset returns to the pre-first-frame state and restores a scale of one.
func (t *Time) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = false
	t.deltaTime, t.realDeltaTime = 0, 0
	t.totalTime, t.realTotalTime = 0, 0
	t.frameCount = 0
	t.timeScale = 1
	t.fps = 0
	t.windowFrames = 0
}

func (t *Time) DeltaTime() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.deltaTime
}

// DeltaSeconds is DeltaTime expressed in seconds.
func (t *Time) DeltaSeconds() float64 {
	return t.DeltaTime() / 1000
}

func (t *Time) RealDeltaTime() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.realDeltaTime
}

func (t *Time) TotalTime() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalTime
}

func (t *Time) RealTotalTime() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.realTotalTime
}

func (t *Time) FrameCount() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.frameCount
}

func (t *Time) FPS() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fps
}

func (t *Time) TimeScale() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.timeScale
}

func (t *Time) IsPaused() bool {
	return t.TimeScale() == 0
}

func (t *Time) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Snapshot{
		DeltaTime:     t.deltaTime,
		RealDeltaTime: t.realDeltaTime,
		TotalTime:     t.totalTime,
		RealTotalTime: t.realTotalTime,
		FrameCount:    t.frameCount,
		FPS:           t.fps,
		TimeScale:     t.timeScale,
	}
}
