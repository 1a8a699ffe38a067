package analysis

import (
	"errors"
	"math"
	"testing"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/icco/wavesynth/internal/synth"
)

func sine(freq, amp float64, frames, channels int) []float32 {
	out := make([]float32, frames*channels)
	for i := 0; i < frames; i++ {
		s := float32(amp * math.Sin(2*math.Pi*freq*float64(i)/synth.DefaultSampleRate))
		for c := 0; c < channels; c++ {
			out[i*channels+c] = s
		}
	}
	return out
}

func TestDominantFrequency(t *testing.T) {
	for _, freq := range []float64{110, 440, 1000, 3520} {
		x := Channel(sine(freq, 0.5, 16384, 1), 1, 0)
		got, err := DominantFrequency(x, synth.DefaultSampleRate)
		if err != nil {
			t.Fatalf("freq=%f: unexpected error %v", freq, err)
		}
		// within half a bin
		if bin := synth.DefaultSampleRate / 16384.0; math.Abs(got-freq) > bin/2 {
			t.Errorf("Expected %f Hz, got %f Hz", freq, got)
		}
	}
}

func TestDominantFrequencyTooShort(t *testing.T) {
	if _, err := DominantFrequency(make([]float64, 10), synth.DefaultSampleRate); !errors.Is(err, ErrTooShort) {
		t.Errorf("Expected ErrTooShort, got %v", err)
	}
}

func TestAnalyzeLevels(t *testing.T) {
	r := Analyze(sine(441, 0.5, 44100, 2), 2, synth.DefaultSampleRate)

	if r.Frames != 44100 {
		t.Errorf("Expected 44100 frames, got %d", r.Frames)
	}
	if !dspcore.NearlyEqual(r.Peak, 0.5, 1e-3) {
		t.Errorf("Expected peak 0.5, got %f", r.Peak)
	}
	if !dspcore.NearlyEqual(r.RMS, 0.5/math.Sqrt2, 1e-3) {
		t.Errorf("Expected rms %f, got %f", 0.5/math.Sqrt2, r.RMS)
	}
	if math.Abs(r.PeakDB-(-6.02)) > 0.05 {
		t.Errorf("Expected peak about -6 dBFS, got %f", r.PeakDB)
	}
	if math.Abs(r.Dominant-441) > 2 {
		t.Errorf("Expected dominant 441 Hz, got %f", r.Dominant)
	}
}

func TestAnalyzeSilence(t *testing.T) {
	r := Analyze(make([]float32, 1024), 2, synth.DefaultSampleRate)
	if r.Peak != 0 || r.RMS != 0 || !math.IsInf(r.PeakDB, -1) {
		t.Errorf("Expected silent report, got %s", r)
	}
}

func TestVoiceOutputPitch(t *testing.T) {
	v, err := synth.New(synth.WithFrequency(440))
	if err != nil {
		t.Fatalf("Error creating voice: %v", err)
	}
	v.NoteOn()

	buf := make([]float32, 2*32768)
	v.Render(buf)

	r := Analyze(buf, 2, v.SampleRate())
	if math.Abs(r.Dominant-440) > 2 {
		t.Errorf("Expected the voice to sound at 440 Hz, got %f", r.Dominant)
	}
}

func TestChannelBounds(t *testing.T) {
	if Channel([]float32{1, 2}, 2, 2) != nil || Channel([]float32{1}, 0, 0) != nil {
		t.Error("Expected nil for out-of-range channel")
	}
	if got := Channel([]float32{1, 2, 3, 4}, 2, 1); got[0] != 2 || got[1] != 4 {
		t.Errorf("Expected [2 4], got %v", got)
	}
}
