package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/icco/wavesynth/internal/pitch"
	"github.com/icco/wavesynth/internal/sequence"
)

// phraseFlags select what the non-interactive commands play: a MIDI file
// or an arpeggio
type phraseFlags struct {
	file      string
	low       string
	high      string
	semitones int
	on        time.Duration
	gap       time.Duration
}

func (p *phraseFlags) register(cmd *cobra.Command, withFile bool) {
	if withFile {
		cmd.Flags().StringVarP(&p.file, "file", "f", "", "Standard MIDI File to play instead of the arpeggio")
	}
	cmd.Flags().StringVar(&p.low, "low", "A2", "Lowest arpeggio note")
	cmd.Flags().StringVar(&p.high, "high", "A7", "Highest arpeggio note")
	cmd.Flags().IntVar(&p.semitones, "step", 3, "Arpeggio interval in semitones")
	cmd.Flags().DurationVar(&p.on, "note", 100*time.Millisecond, "Arpeggio note length")
	cmd.Flags().DurationVar(&p.gap, "gap", 80*time.Millisecond, "Silence between arpeggio notes")
}

func (p *phraseFlags) load() (sequence.Sequence, error) {
	if p.file != "" {
		seq, err := sequence.ReadSMF(p.file)
		if err != nil {
			return sequence.Sequence{}, err
		}
		slog.Debug("loaded MIDI file", "path", p.file, "events", len(seq.Events), "duration", seq.Duration())
		return seq, nil
	}

	low, err := pitch.Parse(p.low)
	if err != nil {
		return sequence.Sequence{}, fmt.Errorf("invalid --low: %w", err)
	}
	high, err := pitch.Parse(p.high)
	if err != nil {
		return sequence.Sequence{}, fmt.Errorf("invalid --high: %w", err)
	}
	if p.semitones <= 0 {
		return sequence.Sequence{}, fmt.Errorf("invalid --step %d: must be positive", p.semitones)
	}

	seq := sequence.Arpeggio(low, high, p.semitones, p.on, p.gap)
	slog.Debug("built arpeggio", "low", low, "high", high, "step", p.semitones, "events", len(seq.Events))
	return seq, nil
}
