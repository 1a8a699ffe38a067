package sequence

import (
	"context"
	"log/slog"
	"time"
)

// Player sends a sequence to a voice in real time
type Player struct {
	Logger *slog.Logger
}

// Play blocks until every event has been sent or ctx is done. On
// cancellation the voice is released and ctx.Err() is returned.
func (p *Player) Play(ctx context.Context, c Controller, seq Sequence) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mono := NewMono(c)
	start := time.Now()
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for _, ev := range seq.Events {
		if wait := time.Until(start.Add(ev.At)); wait > 0 {
			timer.Reset(wait)
			select {
			case <-ctx.Done():
				mono.AllNotesOff()
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			mono.AllNotesOff()
			return err
		}

		logger.Debug("note event", "kind", ev.Kind, "note", ev.Note, "at", ev.At)
		mono.Apply(ev)
	}
	return nil
}
