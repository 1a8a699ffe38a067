package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/icco/wavesynth/internal/tui"
)

var deviceName string

var virtualCmd = &cobra.Command{
	Use:   "virtual",
	Short: "Create a virtual MIDI device with audio output",
	Long: `Create a virtual MIDI input device that can receive MIDI commands from other applications.

The virtual device will show up as a MIDI output destination in other music software.
Notes on every channel play the single voice with last-note priority. Controllers
73, 75, 70 and 72 set attack, decay, sustain and release; pitch bend covers two
semitones either way.

Example:
  wavesynth virtual --name "My Synth"
`,
	Annotations: map[string]string{tuiAnnotation: ""},
	RunE:        runVirtual,
}

func init() {
	virtualCmd.Flags().StringVarP(&deviceName, "name", "n", "Wavesynth Virtual Synth", "Name for the virtual MIDI device")
	rootCmd.AddCommand(virtualCmd)
}

func runVirtual(cmd *cobra.Command, args []string) error {
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

	driver, err := rtmididrv.New()
	if err != nil {
		return fmt.Errorf("failed to initialize MIDI driver: %w", err)
	}
	defer driver.Close()

	// Single virtual MIDI input port that receives all channels
	inPort, err := driver.OpenVirtualIn(deviceName)
	if err != nil {
		return fmt.Errorf("failed to create virtual MIDI port: %w", err)
	}
	defer inPort.Close()

	router := tui.NewRouter(v)
	var (
		stopListening func()
		once          sync.Once
	)
	cleanup := func() {
		once.Do(func() {
			if stopListening != nil {
				stopListening()
			}
			router.AllNotesOff()
		})
	}

	m := tui.NewMonitor(deviceName, inPort.String(), v, cleanup)
	p := tea.NewProgram(m, tea.WithAltScreen())

	stopListening, err = inPort.Listen(func(data []byte, timestamp int32) {
		ev, ok := router.Route(data)
		if !ok {
			return
		}
		slog.Debug("midi", "kind", ev.Kind, "channel", ev.Channel, "note", ev.Note, "velocity", ev.Velocity)
		p.Send(ev)
	}, drivers.ListenConfig{})
	if err != nil {
		return fmt.Errorf("failed to listen to MIDI port: %w", err)
	}
	defer cleanup()
	slog.Info("listening", "port", inPort.String())

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cleanup()
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
