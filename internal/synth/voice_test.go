package synth

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/icco/wavesynth/internal/envelope"
	"github.com/icco/wavesynth/internal/oscillator"
)

func mustVoice(t *testing.T, opts ...Option) *Voice {
	t.Helper()
	v, err := New(opts...)
	if err != nil {
		t.Fatalf("Error creating voice: %v", err)
	}
	return v
}

func TestNewDefaults(t *testing.T) {
	v := mustVoice(t)

	if v.SampleRate() != DefaultSampleRate {
		t.Errorf("Expected sample rate %d, got %f", DefaultSampleRate, v.SampleRate())
	}
	if v.Channels() != DefaultChannels {
		t.Errorf("Expected %d channels, got %d", DefaultChannels, v.Channels())
	}
	if v.FramesPerBuffer() != DefaultFramesPerBuffer {
		t.Errorf("Expected %d frames per buffer, got %d", DefaultFramesPerBuffer, v.FramesPerBuffer())
	}
	if v.Active() {
		t.Error("Expected a new voice to be silent")
	}

	p := v.Params()
	if p.Attack != envelope.DefaultAttack || p.Decay != envelope.DefaultDecay ||
		p.Sustain != envelope.DefaultSustain || p.Release != envelope.DefaultRelease {
		t.Errorf("Unexpected default params: %+v", p)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want error
	}{
		{"zero sample rate", []Option{WithSampleRate(0)}, ErrSampleRate},
		{"negative sample rate", []Option{WithSampleRate(-44100)}, ErrSampleRate},
		{"no channels", []Option{WithChannels(0)}, ErrChannels},
		{"odd table", []Option{WithTableSize(1000)}, oscillator.ErrTableSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts...); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestIdleVoiceRendersSilence(t *testing.T) {
	v := mustVoice(t, WithFrequency(440))
	buf := make([]float32, 256)
	for i := range buf {
		buf[i] = 0.5
	}

	if frames := v.Render(buf); frames != 128 {
		t.Errorf("Expected 128 frames, got %d", frames)
	}
	for i, s := range buf {
		if s != 0 {
			t.Fatalf("Expected silence, got %f at %d", s, i)
		}
	}
	if v.Phase() == 0 {
		t.Error("Expected the oscillator to keep running while silent")
	}
}

func TestRenderDuplicatesMonoAcrossChannels(t *testing.T) {
	for _, ch := range []int{1, 2, 6} {
		v := mustVoice(t, WithChannels(ch), WithEnvelope(envelope.WithAttack(0)))
		v.Play(440)

		// a trailing partial frame only exists with more than one channel
		buf := make([]float32, ch*512+ch-1)
		if ch > 1 {
			buf[len(buf)-1] = 1
		}
		frames := v.Render(buf)

		if frames != 512 {
			t.Errorf("channels=%d: expected 512 frames, got %d", ch, frames)
		}
		for f := 0; f < frames; f++ {
			for c := 1; c < ch; c++ {
				if buf[f*ch+c] != buf[f*ch] {
					t.Fatalf("channels=%d: frame %d differs between channels", ch, f)
				}
			}
		}
		if ch > 1 && buf[len(buf)-1] != 0 {
			t.Errorf("channels=%d: expected trailing partial frame to be zeroed", ch)
		}
	}
}

func TestNextIsTableTimesEnvelope(t *testing.T) {
	v := mustVoice(t, WithFrequency(441))
	v.NoteOn()

	// Reproduce the render path by hand with separate components.
	table, _ := oscillator.NewTable(oscillator.DefaultTableSize)
	osc := oscillator.New(table, 441)
	env := envelope.New()
	env.NoteOn()

	for i := 0; i < 5000; i++ {
		want := osc.Lookup()
		osc.Advance(DefaultSampleRate)
		want *= env.Step(DefaultSampleRate)

		if got := v.Next(); !dspcore.NearlyEqual(got, want, 1e-12) {
			t.Fatalf("sample %d: expected %f, got %f", i, want, got)
		}
	}
}

func TestOutputStaysInRange(t *testing.T) {
	v := mustVoice(t, WithEnvelope(envelope.WithAttack(time.Millisecond), envelope.WithDecay(0), envelope.WithSustain(1)))
	v.Play(1000)

	buf := make([]float32, 2*44100)
	v.Render(buf)

	peak := 0.0
	for _, s := range buf {
		if s < -1 || s > 1 || math.IsNaN(float64(s)) {
			t.Fatalf("Sample out of range: %f", s)
		}
		peak = math.Max(peak, math.Abs(float64(s)))
	}
	if peak < 0.99 {
		t.Errorf("Expected full-scale sustain, got peak %f", peak)
	}
}

func TestVoiceScenario(t *testing.T) {
	v := mustVoice(t, WithEnvelope(
		envelope.WithAttack(100*time.Millisecond),
		envelope.WithDecay(200*time.Millisecond),
		envelope.WithSustain(0.7),
		envelope.WithRelease(500*time.Millisecond),
	))
	v.Play(440)

	buf := make([]float32, 2*4410)
	v.Render(buf)
	if v.Stage() != envelope.StageDecay {
		t.Errorf("Expected Decay after 100ms, got %s", v.Stage())
	}

	buf = make([]float32, 2*8820)
	v.Render(buf)
	if v.Stage() != envelope.StageSustain || !dspcore.NearlyEqual(v.Amplitude(), 0.7, 1e-9) {
		t.Errorf("Expected Sustain at 0.7, got %s at %f", v.Stage(), v.Amplitude())
	}

	v.NoteOff()
	buf = make([]float32, 2*22050)
	v.Render(buf)
	if v.Active() || v.Amplitude() != 0 {
		t.Errorf("Expected Idle at 0 after release, got %s at %f", v.Stage(), v.Amplitude())
	}
}

func TestConcurrentRenderAndControl(t *testing.T) {
	v := mustVoice(t)

	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		notes := []float64{110, 220, 440, 880}
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			v.SetFrequency(notes[i%len(notes)])
			switch i % 6 {
			case 0:
				v.NoteOn()
			case 1:
				v.SetSustain(float64(i%7) / 6)
			case 2:
				v.SetAttack(time.Duration(i%3) * time.Millisecond)
			case 3:
				v.SetDecay(time.Duration(i%4) * time.Millisecond)
			case 4:
				v.SetRelease(time.Duration(i%5) * time.Millisecond)
			case 5:
				v.NoteOff()
			}
		}
	}()

	buf := make([]float32, 2*DefaultFramesPerBuffer)
	for n := 0; n < 2000; n++ {
		v.Render(buf)
		for _, s := range buf {
			if s < -1 || s > 1 || math.IsNaN(float64(s)) {
				close(done)
				wg.Wait()
				t.Fatalf("Sample out of range: %f", s)
			}
		}
	}
	close(done)
	wg.Wait()
}

func TestVoicesShareNothing(t *testing.T) {
	a := mustVoice(t)
	b := mustVoice(t)

	a.Play(440)
	a.SetSustain(0.1)
	a.Next()

	if b.Active() || b.Frequency() != 0 || b.Params().Sustain != envelope.DefaultSustain {
		t.Error("Expected changes to one voice to leave another untouched")
	}
}

func BenchmarkRender(b *testing.B) {
	v, _ := New()
	v.Play(440)
	buf := make([]float32, 2*DefaultFramesPerBuffer)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		v.Render(buf)
	}
}
