package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/icco/wavesynth/internal/analysis"
	"github.com/icco/wavesynth/internal/bounce"
)

var (
	renderPhrase phraseFlags
	renderOut    string
	renderTail   time.Duration
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Bounce a phrase to a WAV file",
	Long: `Render a phrase offline, with every note landing on its exact sample, and write
it as 16-bit PCM WAV. A short report of the rendered audio is printed afterwards.

Example:
  wavesynth render --out arpeggio.wav
  wavesynth render --file song.mid --out song.wav --release 1s
`,
	RunE: runRender,
}

func init() {
	renderPhrase.register(renderCmd, true)
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "wavesynth.wav", "Output WAV file")
	renderCmd.Flags().DurationVar(&renderTail, "tail", 0, "Silence rendered after the last event (default: the release time)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	seq, err := renderPhrase.load()
	if err != nil {
		return err
	}

	v, err := newVoice()
	if err != nil {
		return err
	}

	tail := renderTail
	if tail <= 0 {
		tail = v.Params().Release
	}

	start := time.Now()
	samples := bounce.Render(v, seq, tail)
	slog.Debug("rendered", "samples", len(samples), "took", time.Since(start))

	if err := bounce.WriteWAV(renderOut, samples, int(v.SampleRate()), v.Channels()); err != nil {
		return err
	}
	slog.Info("wrote WAV", "path", renderOut, "duration", seq.Duration()+tail)

	report := analysis.Analyze(samples, v.Channels(), v.SampleRate())
	fmt.Fprintln(cmd.OutOrStdout(), report)
	return nil
}
