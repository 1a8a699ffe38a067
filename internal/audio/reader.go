package audio

import (
	"encoding/binary"
	"math"
)

const bytesPerSample = 4 // float32

// floatReader implements io.Reader for continuous audio generation. It
// renders into a reused buffer and encodes little-endian float32.
type floatReader struct {
	r        Renderer
	channels int
	samples  []float32
}

func newFloatReader(r Renderer, channels, framesPerBuffer int) *floatReader {
	return &floatReader{
		r:        r,
		channels: channels,
		samples:  make([]float32, framesPerBuffer*channels),
	}
}

func (fr *floatReader) Read(buf []byte) (int, error) {
	frameBytes := fr.channels * bytesPerSample
	n := len(buf) / frameBytes * fr.channels

	// Only grows if the player asks for more than it did before.
	if cap(fr.samples) < n {
		fr.samples = make([]float32, n)
	}
	samples := fr.samples[:n]
	fr.r.Render(samples)

	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*bytesPerSample:], math.Float32bits(s))
	}
	clear(buf[n*bytesPerSample:])

	return len(buf), nil
}
