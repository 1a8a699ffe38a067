package audio

import (
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Oto plays through the platform audio API via oto. oto pulls from an
// io.Reader on its own goroutine, which is the render side of the voice.
type Oto struct {
	ctx    *oto.Context
	player *oto.Player
}

// NewOto creates the oto context and a paused player. oto allows one
// context per process.
func NewOto(r Renderer, cfg Config) (*Oto, error) {
	op := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       oto.FormatFloat32LE,
	}
	if cfg.FramesPerBuffer > 0 && cfg.SampleRate > 0 {
		op.BufferSize = time.Duration(cfg.FramesPerBuffer) * time.Second / time.Duration(cfg.SampleRate)
	}

	otoCtx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("error creating oto context: %w", err)
	}
	<-readyChan

	return &Oto{
		ctx:    otoCtx,
		player: otoCtx.NewPlayer(newFloatReader(r, cfg.Channels, cfg.FramesPerBuffer)),
	}, nil
}

func (o *Oto) Start() error {
	o.player.Play()
	return o.player.Err()
}

// Close pauses the player and suspends the context. As of oto v3.4 the
// player needs no explicit close.
func (o *Oto) Close() error {
	o.player.Pause()
	if err := o.ctx.Suspend(); err != nil {
		return fmt.Errorf("error suspending oto context: %w", err)
	}
	return nil
}
