package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/icco/wavesynth/internal/sequence"
	"github.com/icco/wavesynth/internal/synth"
)

var playPhrase phraseFlags

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the demo arpeggio or a MIDI file",
	Long: `Play a phrase through the audio output and exit when its last release has faded.

Without --file this is a diminished seventh arpeggio from A2 up to A7 and back.

Example:
  wavesynth play --attack 5ms --release 300ms
  wavesynth play --file song.mid --backend portaudio
`,
	RunE: runPlay,
}

func init() {
	playPhrase.register(playCmd, true)
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	seq, err := playPhrase.load()
	if err != nil {
		return err
	}

	v, err := newVoice()
	if err != nil {
		return err
	}
	sink, err := startOutput(v)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			slog.Error("error closing audio", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("playing", "events", len(seq.Events), "duration", seq.Duration())

	err = perform(ctx, v, seq)
	if errors.Is(err, context.Canceled) {
		slog.Info("interrupted")
		return nil
	}
	return err
}

// perform plays seq, waits for the voice to go idle and reports the voice
// state while it runs
func perform(ctx context.Context, v *synth.Voice, seq sequence.Sequence) error {
	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		player := &sequence.Player{Logger: slog.Default()}
		if err := player.Play(ctx, v, seq); err != nil {
			return err
		}
		return waitIdle(ctx, v)
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				slog.Debug("voice", "stage", v.Stage(), "amplitude", v.Amplitude(), "frequency", v.Frequency())
			}
		}
	})

	return g.Wait()
}

// waitIdle blocks until the release of the last note has finished
func waitIdle(ctx context.Context, v *synth.Voice) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for v.Active() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
