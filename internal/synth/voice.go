// Package synth provides a single synthesizer voice: a sine wavetable
// oscillator shaped by an ADSR envelope. A Voice is rendered from a
// real-time audio callback while a control goroutine plays notes on it.
package synth

import (
	"errors"
	"fmt"
	"time"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/icco/wavesynth/internal/envelope"
	"github.com/icco/wavesynth/internal/oscillator"
)

const (
	DefaultSampleRate      = 44100
	DefaultChannels        = 2 // stereo
	DefaultFramesPerBuffer = 64
)

var (
	ErrSampleRate = errors.New("sample rate must be positive")
	ErrChannels   = errors.New("channel count must be at least 1")
)

// Config holds the fixed rendering settings of a Voice
type Config struct {
	dspcore.ProcessorConfig // SampleRate, BlockSize (frames per buffer)

	Channels  int
	TableSize int
	Frequency float64
	Envelope  []envelope.Option
}

// Option configures a Voice at construction
type Option func(*Config)

func WithSampleRate(sampleRate float64) Option {
	return func(c *Config) { c.SampleRate = sampleRate }
}

// WithFramesPerBuffer sets the block size transports ask for
func WithFramesPerBuffer(frames int) Option {
	return func(c *Config) { dspcore.WithBlockSize(frames)(&c.ProcessorConfig) }
}

func WithChannels(channels int) Option {
	return func(c *Config) { c.Channels = channels }
}

func WithTableSize(size int) Option {
	return func(c *Config) { c.TableSize = size }
}

// WithFrequency sets the initial oscillator frequency
func WithFrequency(hz float64) Option {
	return func(c *Config) { c.Frequency = hz }
}

func WithEnvelope(opts ...envelope.Option) Option {
	return func(c *Config) { c.Envelope = append(c.Envelope, opts...) }
}

// DefaultConfig is 44.1kHz stereo with 64-frame buffers and a 4096-entry table
func DefaultConfig() Config {
	return Config{
		ProcessorConfig: dspcore.ApplyProcessorOptions(
			dspcore.WithSampleRate(DefaultSampleRate),
			dspcore.WithBlockSize(DefaultFramesPerBuffer),
		),
		Channels:  DefaultChannels,
		TableSize: oscillator.DefaultTableSize,
	}
}

// Voice owns one envelope and one oscillator. The render side calls Next or
// Render; the control side calls the setters. Both may run at the same time.
type Voice struct {
	cfg Config
	env *envelope.Envelope
	osc *oscillator.Oscillator
}

// Params is a snapshot of the envelope settings
type Params struct {
	Attack  time.Duration
	Decay   time.Duration
	Sustain float64
	Release time.Duration
}

// New creates a silent voice
func New(opts ...Option) (*Voice, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrSampleRate, cfg.SampleRate)
	}
	if cfg.Channels < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrChannels, cfg.Channels)
	}

	table, err := oscillator.NewTable(cfg.TableSize)
	if err != nil {
		return nil, fmt.Errorf("error creating wavetable: %w", err)
	}

	return &Voice{
		cfg: cfg,
		env: envelope.New(cfg.Envelope...),
		osc: oscillator.New(table, cfg.Frequency),
	}, nil
}

// Next produces one mono sample: table lookup at the current phase, phase
// advance, envelope step, product.
func (v *Voice) Next() float64 {
	// lookup before advance, so the first sample after a reset reads phase 0
	sample := v.osc.Lookup()
	v.osc.Advance(v.cfg.SampleRate)
	amp := v.env.Step(v.cfg.SampleRate)
	return dspcore.FlushDenormals(dspcore.Clamp(sample*amp, -1, 1))
}

// Render fills out with interleaved frames, the mono sample copied to every
// channel, and returns the number of frames written. A trailing partial
// frame is zeroed.
func (v *Voice) Render(out []float32) int {
	ch := v.cfg.Channels
	frames := len(out) / ch

	for i := 0; i < frames; i++ {
		s := float32(v.Next())
		frame := out[i*ch : i*ch+ch]
		for c := range frame {
			frame[c] = s
		}
	}
	for i := frames * ch; i < len(out); i++ {
		out[i] = 0
	}
	return frames
}

func (v *Voice) SetFrequency(hz float64) { v.osc.SetFrequency(hz) }
func (v *Voice) NoteOn()                 { v.env.NoteOn() }
func (v *Voice) NoteOff()                { v.env.NoteOff() }

// Play retunes the oscillator and retriggers the envelope
func (v *Voice) Play(hz float64) {
	v.osc.SetFrequency(hz)
	v.env.NoteOn()
}

func (v *Voice) SetAttack(d time.Duration)  { v.env.SetAttack(d) }
func (v *Voice) SetDecay(d time.Duration)   { v.env.SetDecay(d) }
func (v *Voice) SetSustain(level float64)   { v.env.SetSustain(level) }
func (v *Voice) SetRelease(d time.Duration) { v.env.SetRelease(d) }

func (v *Voice) Frequency() float64    { return v.osc.Frequency() }
func (v *Voice) Phase() float64        { return v.osc.Phase() }
func (v *Voice) Stage() envelope.Stage { return v.env.Stage() }
func (v *Voice) Amplitude() float64    { return v.env.Amplitude() }
func (v *Voice) Active() bool          { return v.env.Active() }
func (v *Voice) SampleRate() float64   { return v.cfg.SampleRate }
func (v *Voice) Channels() int         { return v.cfg.Channels }
func (v *Voice) FramesPerBuffer() int  { return v.cfg.BlockSize }

// Params returns the current envelope settings. Each field is read
// separately, so a concurrent update may be half visible.
func (v *Voice) Params() Params {
	return Params{
		Attack:  v.env.Attack(),
		Decay:   v.env.Decay(),
		Sustain: v.env.Sustain(),
		Release: v.env.Release(),
	}
}
