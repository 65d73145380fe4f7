// Package audio is the system sound service: a beep mixer that plays decoded
// clips from the asset cache and hands back handles so owners can stop them.
package audio

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/ajsengine/ajs/internal/core/observability/log"
	"github.com/ajsengine/ajs/internal/runtime/assets"
)

const DefaultSampleRate = 44100

var ErrNilSound = errors.New("sound is nil")

// Handle identifies one playing voice. The zero Handle is never issued.
type Handle uint64

type PlayOptions struct {
	// Volume is linear gain in [0, 1]; zero plays silently.
	Volume float64
	Loop   bool
}

// Player is the audio surface handed to extensions and scripts.
type Player interface {
	Play(snd *assets.Sound, opts PlayOptions) (Handle, error)
	Stop(h Handle)
	StopAll()
	IsPlaying(h Handle) bool
	SetMasterVolume(v float64)
	MasterVolume() float64
}

type voice struct {
	ctrl *beep.Ctrl
	done atomic.Bool
}

func (v *voice) Stream(samples [][2]float64) (int, bool) {
	n, ok := v.ctrl.Stream(samples)
	// a short read means drained; the mixer drops the voice either way
	if !ok || n < len(samples) {
		v.done.Store(true)
	}
	return n, ok
}

func (v *voice) Err() error {
	return v.ctrl.Err()
}

// Mixer mixes every voice into one stream. It is itself a beep.Streamer so
// it can be played on the speaker or pulled directly in tests.
type Mixer struct {
	logger     log.Log
	sampleRate beep.SampleRate

	mu      sync.Mutex
	mixer   *beep.Mixer
	voices  map[Handle]*voice
	next    Handle
	master  float64
	started bool
}

var (
	_ Player        = (*Mixer)(nil)
	_ beep.Streamer = (*Mixer)(nil)
)

func NewMixer(sampleRate int, logger log.Log) *Mixer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Mixer{
		logger:     logger,
		sampleRate: beep.SampleRate(sampleRate),
		mixer:      &beep.Mixer{},
		voices:     make(map[Handle]*voice),
		master:     1,
	}
}

func (m *Mixer) SampleRate() beep.SampleRate {
	return m.sampleRate
}

// Start opens the speaker and begins playing the mix.
func (m *Mixer) Start(buffer time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}
	if err := speaker.Init(m.sampleRate, m.sampleRate.N(buffer)); err != nil {
		return err
	}
	speaker.Play(m)
	m.started = true
	m.logger.Info("audio output started", log.Int("sampleRate", int(m.sampleRate)))
	return nil
}

// Close stops every voice and detaches from the speaker.
func (m *Mixer) Close() {
	m.StopAll()
	m.mu.Lock()
	started := m.started
	m.started = false
	m.mu.Unlock()
	if started {
		speaker.Clear()
	}
}

func (m *Mixer) Play(snd *assets.Sound, opts PlayOptions) (Handle, error) {
	if snd == nil {
		return 0, ErrNilSound
	}

	var s beep.Streamer = snd.Streamer()
	if opts.Loop {
		s = beep.Loop(-1, snd.Streamer())
	}
	if snd.Format.SampleRate != m.sampleRate {
		s = beep.Resample(4, snd.Format.SampleRate, m.sampleRate, s)
	}
	s = gain(s, opts.Volume)

	v := &voice{ctrl: &beep.Ctrl{Streamer: s}}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked()
	m.next++
	h := m.next
	m.voices[h] = v
	m.mixer.Add(v)
	return h, nil
}

// Stop silences h. Stopping a finished or unknown handle does nothing.
func (m *Mixer) Stop(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.voices[h]; ok {
		v.ctrl.Streamer = nil
		v.done.Store(true)
		delete(m.voices, h)
	}
}

func (m *Mixer) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, v := range m.voices {
		v.ctrl.Streamer = nil
		delete(m.voices, h)
	}
	m.mixer.Clear()
}

func (m *Mixer) IsPlaying(h Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.voices[h]
	return ok && !v.done.Load()
}

// Voices is the number of voices still playing.
func (m *Mixer) Voices() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked()
	return len(m.voices)
}

func (m *Mixer) SetMasterVolume(v float64) {
	m.mu.Lock()
	m.master = math.Max(0, math.Min(1, v))
	m.mu.Unlock()
}

func (m *Mixer) MasterVolume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.master
}

func (m *Mixer) Stream(samples [][2]float64) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := m.mixer.Stream(samples)
	if m.master != 1 {
		for i := range samples[:n] {
			samples[i][0] *= m.master
			samples[i][1] *= m.master
		}
	}
	return n, true
}

func (m *Mixer) Err() error {
	return nil
}

func (m *Mixer) pruneLocked() {
	for h, v := range m.voices {
		if v.done.Load() {
			delete(m.voices, h)
		}
	}
}

// gain maps linear volume onto beep's logarithmic volume effect.
func gain(s beep.Streamer, vol float64) beep.Streamer {
	if vol >= 1 {
		return s
	}
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}
