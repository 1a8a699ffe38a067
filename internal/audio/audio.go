// Package audio streams a Renderer to the sound card
package audio

import (
	"errors"
	"fmt"
)

// Renderer fills interleaved float32 frames. It is called from the audio
// callback and must not block.
type Renderer interface {
	Render(out []float32) int
}

// Sink is an open output stream
type Sink interface {
	Start() error
	Close() error
}

// Backend names an audio output implementation
type Backend string

const (
	BackendOto       Backend = "oto"
	BackendPortAudio Backend = "portaudio"
)

var ErrUnknownBackend = errors.New("unknown audio backend")

// Config describes the stream format
type Config struct {
	SampleRate      int
	Channels        int
	FramesPerBuffer int
}

// Backends lists the supported backend names
func Backends() []Backend {
	return []Backend{BackendOto, BackendPortAudio}
}

// ParseBackend validates a backend name
func ParseBackend(s string) (Backend, error) {
	for _, b := range Backends() {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
}

// Open creates a stream on backend that pulls samples from r. The stream
// is not started.
func Open(backend Backend, r Renderer, cfg Config) (Sink, error) {
	var (
		sink Sink
		err  error
	)
	switch backend {
	case BackendOto:
		sink, err = NewOto(r, cfg)
	case BackendPortAudio:
		sink, err = NewPortAudio(r, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
	if err != nil {
		return nil, err
	}
	return sink, nil
}
