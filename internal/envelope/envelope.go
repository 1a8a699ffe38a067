// Package envelope provides a linear ADSR amplitude envelope that can be
// stepped from a real-time audio callback while another goroutine changes
// its parameters and triggers notes.
package envelope

import (
	"math"
	"sync/atomic"
	"time"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// Stage is the current segment of the envelope
type Stage int32

const (
	StageIdle Stage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "Idle"
	case StageAttack:
		return "Attack"
	case StageDecay:
		return "Decay"
	case StageSustain:
		return "Sustain"
	case StageRelease:
		return "Release"
	default:
		return "Unknown"
	}
}

const (
	DefaultAttack  = 100 * time.Millisecond
	DefaultDecay   = 200 * time.Millisecond
	DefaultSustain = 0.7
	DefaultRelease = 500 * time.Millisecond
)

// Envelope is an ADSR generator. Every field shared between the control
// goroutine and the render goroutine is its own atomic scalar; there is no
// cross-field consistency and none is needed.
type Envelope struct {
	attack  atomic.Int64 // time.Duration
	decay   atomic.Int64
	release atomic.Int64
	sustain atomic.Uint64 // float64 bits

	stage        atomic.Int32
	elapsed      atomic.Uint64 // samples spent in the current stage
	amplitude    atomic.Uint64
	releaseStart atomic.Uint64

	// durations captured on stage entry, one slot per timed stage
	attackLen  atomic.Int64
	decayLen   atomic.Int64
	releaseLen atomic.Int64

	snapshot bool
}

// Option configures an Envelope at construction
type Option func(*Envelope)

func WithAttack(d time.Duration) Option  { return func(e *Envelope) { e.SetAttack(d) } }
func WithDecay(d time.Duration) Option   { return func(e *Envelope) { e.SetDecay(d) } }
func WithSustain(level float64) Option   { return func(e *Envelope) { e.SetSustain(level) } }
func WithRelease(d time.Duration) Option { return func(e *Envelope) { e.SetRelease(d) } }

// WithSnapshotDurations makes each stage use the duration that was set when
// the stage began. By default a stage reads the live duration on every step,
// so changing it mid-stage changes the slope of the ramp in progress.
func WithSnapshotDurations(enabled bool) Option {
	return func(e *Envelope) { e.snapshot = enabled }
}

// New creates an idle envelope with the default 100ms/200ms/0.7/500ms shape
func New(opts ...Option) *Envelope {
	e := &Envelope{}
	e.SetAttack(DefaultAttack)
	e.SetDecay(DefaultDecay)
	e.SetSustain(DefaultSustain)
	e.SetRelease(DefaultRelease)
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// SetAttack sets the attack time. Negative values are treated as zero.
func (e *Envelope) SetAttack(d time.Duration) { e.attack.Store(int64(nonNegative(d))) }

// SetDecay sets the decay time. Negative values are treated as zero.
func (e *Envelope) SetDecay(d time.Duration) { e.decay.Store(int64(nonNegative(d))) }

// SetRelease sets the release time. Negative values are treated as zero.
func (e *Envelope) SetRelease(d time.Duration) { e.release.Store(int64(nonNegative(d))) }

// SetSustain sets the sustain level, clamped to [0, 1]. It applies at once,
// including to a decay already in progress.
func (e *Envelope) SetSustain(level float64) {
	if math.IsNaN(level) {
		level = 0
	}
	storeFloat(&e.sustain, dspcore.Clamp(level, 0, 1))
}

func (e *Envelope) Attack() time.Duration  { return time.Duration(e.attack.Load()) }
func (e *Envelope) Decay() time.Duration   { return time.Duration(e.decay.Load()) }
func (e *Envelope) Release() time.Duration { return time.Duration(e.release.Load()) }
func (e *Envelope) Sustain() float64       { return loadFloat(&e.sustain) }

// NoteOn restarts the attack from whatever stage the envelope is in.
// The ramp starts from zero, so retriggering a sounding note jumps.
func (e *Envelope) NoteOn() {
	e.attackLen.Store(int64(e.Attack()))
	e.enter(StageAttack)
}

// NoteOff starts the release from the current amplitude. It does nothing
// while the envelope is idle.
func (e *Envelope) NoteOff() {
	if Stage(e.stage.Load()) == StageIdle {
		return
	}
	storeFloat(&e.releaseStart, e.Amplitude())
	e.releaseLen.Store(int64(e.Release()))
	e.enter(StageRelease)
}

// enter is used by the control side. elapsed is cleared before the stage is
// published so the render side never pairs the new stage with a stale count
// for more than one sample.
func (e *Envelope) enter(s Stage) {
	e.elapsed.Store(0)
	e.stage.Store(int32(s))
}

// advance moves from one stage to the next on the render side. A note event
// that landed since the stage was read wins over the automatic transition.
// Only Attack hands over to a timed stage, and the decay slot it writes is
// never the one a concurrent NoteOn or NoteOff is using.
func (e *Envelope) advance(from, to Stage) {
	if to == StageDecay {
		e.decayLen.Store(int64(e.Decay()))
	}
	if e.stage.CompareAndSwap(int32(from), int32(to)) {
		e.elapsed.Store(0)
	}
}

// Step advances the envelope by one sample period and returns the new
// amplitude. It never blocks or allocates.
func (e *Envelope) Step(sampleRate float64) float64 {
	var amp float64

	switch stage := Stage(e.stage.Load()); stage {
	case StageAttack:
		n := float64(e.elapsed.Add(1))
		length := samples(e.lengthOf(&e.attackLen, e.Attack()), sampleRate)
		amp = n / length
		if amp >= 1 || n >= length {
			amp = 1
			e.advance(StageAttack, StageDecay)
		}

	case StageDecay:
		n := float64(e.elapsed.Add(1))
		length := samples(e.lengthOf(&e.decayLen, e.Decay()), sampleRate)
		sustain := e.Sustain()
		amp = 1 - (1-sustain)*(n/length)
		if amp <= sustain || n >= length {
			amp = sustain
			e.advance(StageDecay, StageSustain)
		}

	case StageSustain:
		amp = e.Sustain()

	case StageRelease:
		n := float64(e.elapsed.Add(1))
		length := samples(e.lengthOf(&e.releaseLen, e.Release()), sampleRate)
		start := loadFloat(&e.releaseStart)
		amp = start - start*(n/length)
		if amp <= 0 || n >= length {
			amp = 0
			e.advance(StageRelease, StageIdle)
		}

	default:
		amp = 0
	}

	amp = dspcore.Clamp(amp, 0, 1)
	storeFloat(&e.amplitude, amp)
	return amp
}

// lengthOf picks the live duration or the one captured at stage entry
func (e *Envelope) lengthOf(captured *atomic.Int64, live time.Duration) time.Duration {
	if e.snapshot {
		return time.Duration(captured.Load())
	}
	return live
}

// Amplitude returns the value produced by the most recent Step
func (e *Envelope) Amplitude() float64 { return loadFloat(&e.amplitude) }

func (e *Envelope) Stage() Stage { return Stage(e.stage.Load()) }

// Active reports whether the envelope is anywhere but Idle
func (e *Envelope) Active() bool { return e.Stage() != StageIdle }

// samples converts a stage duration to a ramp length in samples. A stage is
// never shorter than one sample, which keeps zero durations finite.
func samples(d time.Duration, sampleRate float64) float64 {
	return math.Max(float64(d)*sampleRate/float64(time.Second), 1)
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

func loadFloat(v *atomic.Uint64) float64     { return math.Float64frombits(v.Load()) }
func storeFloat(v *atomic.Uint64, f float64) { v.Store(math.Float64bits(f)) }
