package cmd

import (
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/icco/wavesynth/internal/tui"
)

var gate time.Duration

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Play the synth from the computer keyboard",
	Long: `Play the synth from the computer keyboard with an interactive TUI.

The home row is a piano keyboard starting at C. Terminals only report key presses,
so each note is held for --gate and then released. The envelope can be edited
while playing.`,
	Annotations: map[string]string{tuiAnnotation: ""},
	RunE:        runLive,
}

func init() {
	liveCmd.Flags().DurationVarP(&gate, "gate", "g", tui.DefaultGate, "How long each key press holds its note")
	rootCmd.AddCommand(liveCmd)
}

func runLive(cmd *cobra.Command, args []string) error {
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

	p := tea.NewProgram(tui.NewKeyboard(v, gate), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
