// Package audio plays short sound cues for gameplay events.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// DefaultSampleRate is the speaker rate; cues at other rates are resampled.
const DefaultSampleRate = beep.SampleRate(44100)

var (
	ErrNotInitialized = errors.New("audio not initialized")
	ErrUnknownCue     = errors.New("unknown cue")
)

// Manager holds decoded cues and mixes them onto the speaker.
type Manager struct {
	mu sync.RWMutex

	initialized bool
	sampleRate  beep.SampleRate

	cues map[string]*beep.Buffer

	// Volume settings (0.0 to 1.0)
	masterVolume float64
	sfxVolLevel  float64

	mixer *beep.Mixer
}

// New creates a manager with full volume and no cues.
func New() *Manager {
	return &Manager{
		sampleRate:   DefaultSampleRate,
		cues:         make(map[string]*beep.Buffer),
		masterVolume: 1.0,
		sfxVolLevel:  1.0,
		mixer:        &beep.Mixer{},
	}
}

// Init opens the speaker. Cues can be loaded before or after.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	if err := speaker.Init(m.sampleRate, m.sampleRate.N(time.Second/30)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	speaker.Play(m.mixer)

	m.initialized = true
	return nil
}

// Close stops playback and releases the speaker.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return
	}
	speaker.Clear()
	speaker.Close()
	m.initialized = false
}

// IsInitialized returns whether the speaker is open.
func (m *Manager) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// SetMasterVolume sets the master volume (0.0 to 1.0).
func (m *Manager) SetMasterVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.masterVolume = clamp(vol, 0, 1)
}

// SetSFXVolume sets the cue volume (0.0 to 1.0).
func (m *Manager) SetSFXVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sfxVolLevel = clamp(vol, 0, 1)
}

// GetMasterVolume returns the master volume.
func (m *Manager) GetMasterVolume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.masterVolume
}

// GetSFXVolume returns the cue volume.
func (m *Manager) GetSFXVolume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sfxVolLevel
}

// Load decodes WAV data and stores it under name, replacing any cue
// already there.
func (m *Manager) Load(name string, data []byte) error {
	streamer, format, err := wav.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	defer streamer.Close()

	buf := beep.NewBuffer(format)
	buf.Append(streamer)

	m.mu.Lock()
	m.cues[name] = buf
	m.mu.Unlock()
	return nil
}

// Has reports whether a cue is loaded under name.
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.cues[name]
	return ok
}

// Duration returns how long the named cue plays, or 0 if it is unknown.
func (m *Manager) Duration(name string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	buf, ok := m.cues[name]
	if !ok {
		return 0
	}
	return buf.Format().SampleRate.D(buf.Len())
}

// Play mixes the named cue in over anything already playing.
func (m *Manager) Play(name string) error {
	m.mu.RLock()
	initialized := m.initialized
	buf, ok := m.cues[name]
	vol := m.masterVolume * m.sfxVolLevel
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCue, name)
	}
	if !initialized {
		return ErrNotInitialized
	}

	var s beep.Streamer = buf.Streamer(0, buf.Len())
	if rate := buf.Format().SampleRate; rate != m.sampleRate {
		s = beep.Resample(4, rate, m.sampleRate, s)
	}

	speaker.Lock()
	m.mixer.Add(&effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   volumeToDb(vol),
		Silent:   vol <= 0,
	})
	speaker.Unlock()
	return nil
}

// volumeToDb converts a 0-1 volume to decibels: 1 is 0dB, 0.5 about -6dB.
func volumeToDb(vol float64) float64 {
	if vol <= 0 {
		return -100
	}
	return 20 * math.Log10(vol)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
