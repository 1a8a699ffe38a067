package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// PortAudio plays through the default PortAudio output device. PortAudio
// calls the renderer directly from its real-time callback thread.
type PortAudio struct {
	stream *portaudio.Stream
}

// NewPortAudio initializes PortAudio and opens the default output stream
func NewPortAudio(r Renderer, cfg Config) (*PortAudio, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("error initializing portaudio: %w", err)
	}

	callback := func(out []float32) {
		r.Render(out)
	}

	stream, err := portaudio.OpenDefaultStream(0, cfg.Channels, float64(cfg.SampleRate), cfg.FramesPerBuffer, callback)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("error opening portaudio stream: %w", err)
	}
	return &PortAudio{stream: stream}, nil
}

func (p *PortAudio) Start() error {
	if err := p.stream.Start(); err != nil {
		return fmt.Errorf("error starting portaudio stream: %w", err)
	}
	return nil
}

func (p *PortAudio) Close() error {
	// Stop fails on a stream that was never started; Close still has to run.
	_ = p.stream.Stop()
	if err := p.stream.Close(); err != nil {
		_ = portaudio.Terminate()
		return fmt.Errorf("error closing portaudio stream: %w", err)
	}
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("error terminating portaudio: %w", err)
	}
	return nil
}
