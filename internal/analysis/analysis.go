// Package analysis measures rendered audio: level and dominant frequency
package analysis

import (
	"errors"
	"fmt"
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/ktye/fft"
)

var ErrTooShort = errors.New("signal too short for spectrum")

// minFFTSize is the smallest window DominantFrequency will transform
const minFFTSize = 64

// Report summarises one channel of a rendered buffer
type Report struct {
	Frames   int
	Peak     float64
	PeakDB   float64
	RMS      float64
	RMSDB    float64
	Dominant float64 // Hz, 0 if the signal was too short
}

func (r Report) String() string {
	return fmt.Sprintf("%d frames, peak %.3f (%.1f dBFS), rms %.3f (%.1f dBFS), dominant %.1f Hz",
		r.Frames, r.Peak, r.PeakDB, r.RMS, r.RMSDB, r.Dominant)
}

// Channel extracts channel c from interleaved samples
func Channel(interleaved []float32, channels, c int) []float64 {
	if channels < 1 || c < 0 || c >= channels {
		return nil
	}
	out := make([]float64, len(interleaved)/channels)
	for i := range out {
		out[i] = float64(interleaved[i*channels+c])
	}
	return out
}

// Analyze reports on the first channel of interleaved samples
func Analyze(interleaved []float32, channels int, sampleRate float64) Report {
	x := Channel(interleaved, channels, 0)

	r := Report{Frames: len(x)}
	var sum float64
	for _, v := range x {
		r.Peak = math.Max(r.Peak, math.Abs(v))
		sum += v * v
	}
	if len(x) > 0 {
		r.RMS = math.Sqrt(sum / float64(len(x)))
	}
	r.PeakDB = dspcore.LinearToDB(r.Peak)
	r.RMSDB = dspcore.LinearToDB(r.RMS)

	if f, err := DominantFrequency(x, sampleRate); err == nil {
		r.Dominant = f
	}
	return r
}

// DominantFrequency finds the strongest spectral peak of x. It transforms
// the largest power-of-two prefix under a Hann window and refines the peak
// bin by parabolic interpolation.
func DominantFrequency(x []float64, sampleRate float64) (float64, error) {
	n := 1
	for n*2 <= len(x) {
		n *= 2
	}
	if n < minFFTSize {
		return 0, fmt.Errorf("%w: %d samples", ErrTooShort, len(x))
	}

	f, err := fft.New(n)
	if err != nil {
		return 0, fmt.Errorf("error creating FFT: %w", err)
	}

	buf := make([]complex128, n)
	for i := range buf {
		w := (1 - math.Cos(2*math.Pi*float64(i)/float64(n))) / 2
		buf[i] = complex(x[i]*w, 0)
	}
	buf = f.Transform(buf)

	mag := make([]float64, n/2)
	peak := 1
	for i := 1; i < n/2; i++ {
		re, im := real(buf[i]), imag(buf[i])
		mag[i] = math.Sqrt(re*re + im*im)
		if mag[i] > mag[peak] {
			peak = i
		}
	}

	bin := float64(peak)
	if peak > 1 && peak < n/2-1 {
		a, b, c := mag[peak-1], mag[peak], mag[peak+1]
		if d := a - 2*b + c; d != 0 {
			bin += 0.5 * (a - c) / d
		}
	}
	return bin * sampleRate / float64(n), nil
}
