package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"
)

// pcm builds a mono 16-bit WAV of n silent samples.
func pcm(rate, n int) []byte {
	var b bytes.Buffer
	le := binary.LittleEndian
	data := n * 2
	b.WriteString("RIFF")
	binary.Write(&b, le, uint32(36+data))
	b.WriteString("WAVEfmt ")
	binary.Write(&b, le, uint32(16))
	binary.Write(&b, le, uint16(1)) // PCM
	binary.Write(&b, le, uint16(1)) // channels
	binary.Write(&b, le, uint32(rate))
	binary.Write(&b, le, uint32(rate*2))
	binary.Write(&b, le, uint16(2))
	binary.Write(&b, le, uint16(16))
	b.WriteString("data")
	binary.Write(&b, le, uint32(data))
	b.Write(make([]byte, data))
	return b.Bytes()
}

func TestVolumeConversion(t *testing.T) {
	tests := []struct {
		vol float64
		min float64
		max float64
	}{
		{1.0, -1, 1},     // Full volume should be ~0dB
		{0.5, -8, -4},    // Half volume should be around -6dB
		{0.25, -14, -10}, // Quarter volume should be around -12dB
		{0.0, -200, -90}, // Zero volume should be very negative
	}

	for _, tt := range tests {
		db := volumeToDb(tt.vol)
		if db < tt.min || db > tt.max {
			t.Errorf("volumeToDb(%f) = %f, want between %f and %f", tt.vol, db, tt.min, tt.max)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, min, max, want float64
	}{
		{0.5, 0, 1, 0.5},
		{-1, 0, 1, 0},
		{2, 0, 1, 1},
		{0, 0, 1, 0},
		{1, 0, 1, 1},
	}

	for _, tt := range tests {
		got := clamp(tt.v, tt.min, tt.max)
		if got != tt.want {
			t.Errorf("clamp(%f, %f, %f) = %f, want %f", tt.v, tt.min, tt.max, got, tt.want)
		}
	}
}

func TestSetVolume(t *testing.T) {
	m := New()
	if m.GetMasterVolume() != 1.0 || m.GetSFXVolume() != 1.0 {
		t.Fatalf("default volumes = %f, %f", m.GetMasterVolume(), m.GetSFXVolume())
	}

	m.SetMasterVolume(0.5)
	if m.GetMasterVolume() != 0.5 {
		t.Errorf("master volume = %f, want 0.5", m.GetMasterVolume())
	}
	m.SetMasterVolume(2.0)
	if m.GetMasterVolume() != 1.0 {
		t.Errorf("master volume = %f, want 1.0 (clamped)", m.GetMasterVolume())
	}
	m.SetSFXVolume(-1.0)
	if m.GetSFXVolume() != 0.0 {
		t.Errorf("sfx volume = %f, want 0.0 (clamped)", m.GetSFXVolume())
	}
}

func TestLoad(t *testing.T) {
	m := New()
	if err := m.Load("land", pcm(22050, 2205)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !m.Has("land") {
		t.Fatal("cue should be loaded")
	}
	if got := m.Duration("land"); got != 100*time.Millisecond {
		t.Errorf("duration = %v, want 100ms", got)
	}
	if m.Duration("bump") != 0 {
		t.Error("unknown cue should have no duration")
	}

	if err := m.Load("bad", []byte("not a wav")); err == nil {
		t.Error("expected a decode error")
	}
	if m.Has("bad") {
		t.Error("failed load should not store a cue")
	}
}

func TestPlayErrors(t *testing.T) {
	m := New()
	if err := m.Play("land"); !errors.Is(err, ErrUnknownCue) {
		t.Errorf("expected ErrUnknownCue, got %v", err)
	}
	if err := m.Load("land", pcm(44100, 441)); err != nil {
		t.Fatal(err)
	}
	if err := m.Play("land"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}
