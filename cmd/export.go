package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/icco/wavesynth/internal/sequence"
)

var (
	exportPhrase phraseFlags
	exportOut    string
	exportBPM    float64
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the arpeggio as a Standard MIDI File",
	Long: `Write the arpeggio as a Standard MIDI File with a tempo track and one note track.

Example:
  wavesynth export --out arpeggio.mid --low C3 --high C6 --step 4
`,
	RunE: runExport,
}

func init() {
	exportPhrase.register(exportCmd, false)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "wavesynth.mid", "Output MIDI file")
	exportCmd.Flags().Float64Var(&exportBPM, "bpm", sequence.DefaultBPM, "Tempo written to the file")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	seq, err := exportPhrase.load()
	if err != nil {
		return err
	}
	if err := sequence.WriteSMF(exportOut, seq, exportBPM); err != nil {
		return err
	}
	slog.Info("wrote MIDI file", "path", exportOut, "events", len(seq.Events), "bpm", exportBPM)
	return nil
}
