// Package bounce renders a sequence through a voice offline, with every
// event landing on its exact sample, and writes the result as a WAV file.
package bounce

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"

	"github.com/icco/wavesynth/internal/sequence"
	"github.com/icco/wavesynth/internal/synth"
)

const bitDepth = 16

// Render plays seq onto v and returns interleaved samples covering the
// sequence plus tail, so the last release can ring out.
func Render(v *synth.Voice, seq sequence.Sequence, tail time.Duration) []float32 {
	sr := v.SampleRate()
	ch := v.Channels()
	total := frameAt(seq.Duration()+tail, sr)
	out := make([]float32, total*ch)

	mono := sequence.NewMono(v)
	pos := 0
	for _, ev := range seq.Events {
		at := min(frameAt(ev.At, sr), total)
		if at > pos {
			v.Render(out[pos*ch : at*ch])
			pos = at
		}
		mono.Apply(ev)
	}
	if pos < total {
		v.Render(out[pos*ch:])
	}
	return out
}

func frameAt(d time.Duration, sampleRate float64) int {
	return int(math.Round(d.Seconds() * sampleRate))
}

// WriteWAV encodes interleaved samples as 16-bit PCM
func WriteWAV(path string, samples []float32, sampleRate, channels int) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("error closing output file: %w", cerr)
		}
	}()

	// audioFormat 1 is integer PCM
	encoder := wav.NewEncoder(file, sampleRate, bitDepth, channels, 1)

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}

	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("error writing WAV data: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("error finalizing WAV file: %w", err)
	}
	return nil
}
