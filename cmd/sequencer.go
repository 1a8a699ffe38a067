package cmd

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/icco/wavesynth/internal/tui"
)

var sequencerCmd = &cobra.Command{
	Use:   "sequencer [dir]",
	Short: "Start the step sequencer",
	Long: `Start the step sequencer with an interactive TUI interface.

This mode provides a file browser for MIDI patterns and a sixteen step sequencer
that plays them on the synth. Every edit is saved back to the pattern file.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{tuiAnnotation: ""},
	RunE:        runSequencer,
}

func init() {
	rootCmd.AddCommand(sequencerCmd)
}

func runSequencer(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
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

	p := tea.NewProgram(tui.NewApp(v, dir), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
