package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFirstUpdateHasZeroDelta(t *testing.T) {
	clock := NewManualClock(epoch)
	tm := New(clock)

	tm.Update()
	assert.Zero(t, tm.DeltaTime())
	assert.Equal(t, uint64(1), tm.FrameCount())

	clock.Advance(16 * time.Millisecond)
	tm.Update()
	assert.InDelta(t, 16.0, tm.DeltaTime(), 1e-9)
	assert.InDelta(t, 16.0, tm.TotalTime(), 1e-9)
	assert.InDelta(t, 0.016, tm.DeltaSeconds(), 1e-9)
}

func TestTimeScaleZeroFreezesGameTime(t *testing.T) {
	clock := NewManualClock(epoch)
	tm := New(clock)
	tm.Update()

	tm.SetTimeScale(0)
	clock.Advance(500 * time.Millisecond)
	tm.Update()

	assert.Zero(t, tm.DeltaTime())
	assert.Zero(t, tm.TotalTime())
	assert.InDelta(t, 500.0, tm.RealTotalTime(), 1e-9)
	assert.InDelta(t, 500.0, tm.RealDeltaTime(), 1e-9)
	assert.True(t, tm.IsPaused())
}

func TestScaledDelta(t *testing.T) {
	clock := NewManualClock(epoch)
	tm := New(clock)
	tm.Update()

	tm.SlowMotion(0)
	clock.Advance(100 * time.Millisecond)
	tm.Update()
	assert.InDelta(t, 50.0, tm.DeltaTime(), 1e-9)

	tm.FastForward(3)
	clock.Advance(100 * time.Millisecond)
	tm.Update()
	assert.InDelta(t, 300.0, tm.DeltaTime(), 1e-9)
	assert.InDelta(t, 350.0, tm.TotalTime(), 1e-9)

	tm.Pause()
	assert.True(t, tm.IsPaused())
	tm.Resume()
	assert.Equal(t, 1.0, tm.TimeScale())
}

func TestSetTimeScaleClampsNegative(t *testing.T) {
	tm := New(NewManualClock(epoch))
	tm.SetTimeScale(-2)
	assert.Equal(t, 0.0, tm.TimeScale())
}

func TestFPSPerWindow(t *testing.T) {
	clock := NewManualClock(epoch)
	tm := New(clock)

	tm.Update()
	for i := 0; i < 99; i++ {
		clock.Advance(10 * time.Millisecond)
		tm.Update()
	}
	require.Zero(t, tm.FPS())

	// the boundary frame counts toward the closing window
	clock.Advance(10 * time.Millisecond)
	tm.Update()
	require.Equal(t, 101, tm.FPS())

	for i := 0; i < 50; i++ {
		clock.Advance(20 * time.Millisecond)
		tm.Update()
	}
	assert.Equal(t, 50, tm.FPS())
}

func TestMaxDeltaClamp(t *testing.T) {
	clock := NewManualClock(epoch)
	tm := New(clock, WithMaxDelta(100*time.Millisecond))
	tm.Update()
	clock.Advance(3 * time.Second)
	tm.Update()
	assert.InDelta(t, 100.0, tm.RealDeltaTime(), 1e-9)
}

func TestReset(t *testing.T) {
	clock := NewManualClock(epoch)
	tm := New(clock)
	tm.Update()
	clock.Advance(time.Second)
	tm.SetTimeScale(2)
	tm.Update()

	tm.Reset()
	snap := tm.Snapshot()
	assert.Zero(t, snap.TotalTime)
	assert.Zero(t, snap.FrameCount)
	assert.Equal(t, 1.0, snap.TimeScale)
}
