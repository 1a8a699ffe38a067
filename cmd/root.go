package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/icco/wavesynth/internal/audio"
	"github.com/icco/wavesynth/internal/envelope"
	"github.com/icco/wavesynth/internal/synth"
)

// tuiAnnotation marks commands that own the terminal. They log to
// --log-file instead of stderr.
const tuiAnnotation = "tui"

var (
	backend         string
	sampleRate      int
	framesPerBuffer int
	attack          time.Duration
	decay           time.Duration
	sustain         float64
	release         time.Duration
	verbose         bool
	logFile         string

	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "wavesynth",
	Short: "A monophonic wavetable synthesizer",
	Long: `wavesynth is a monophonic synthesizer voice: a sine wavetable oscillator shaped by
a linear ADSR envelope, played in real time through oto or PortAudio.

It can play a demo arpeggio or a MIDI file, be played from the computer keyboard,
act as a virtual MIDI instrument, run a step sequencer, and bounce phrases to WAV.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setupLogging,
	PersistentPostRunE: closeLogging,
}

func init() {
	defaults := synth.DefaultConfig()

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&backend, "backend", "b", string(audio.BackendOto), fmt.Sprintf("Audio backend %v", audio.Backends()))
	flags.IntVar(&sampleRate, "sample-rate", int(defaults.SampleRate), "Output sample rate in Hz")
	flags.IntVar(&framesPerBuffer, "frames", defaults.BlockSize, "Frames per audio buffer")
	flags.DurationVarP(&attack, "attack", "A", envelope.DefaultAttack, "Envelope attack time")
	flags.DurationVarP(&decay, "decay", "D", envelope.DefaultDecay, "Envelope decay time")
	flags.Float64VarP(&sustain, "sustain", "S", envelope.DefaultSustain, "Envelope sustain level (0-1)")
	flags.DurationVarP(&release, "release", "R", envelope.DefaultRelease, "Envelope release time")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&logFile, "log-file", "", "Write logs to this file (interactive commands log nowhere otherwise)")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	if _, ok := cmd.Annotations[tuiAnnotation]; ok {
		w = io.Discard
	}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("error opening log file: %w", err)
		}
		logCloser = f
		w = f
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

func closeLogging(cmd *cobra.Command, args []string) error {
	if logCloser == nil {
		return nil
	}
	return logCloser.Close()
}

// newVoice builds a voice from the global flags
func newVoice() (*synth.Voice, error) {
	v, err := synth.New(
		synth.WithSampleRate(float64(sampleRate)),
		synth.WithFramesPerBuffer(framesPerBuffer),
		synth.WithEnvelope(
			envelope.WithAttack(attack),
			envelope.WithDecay(decay),
			envelope.WithSustain(sustain),
			envelope.WithRelease(release),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating voice: %w", err)
	}

	p := v.Params()
	slog.Debug("voice ready",
		"sample_rate", v.SampleRate(),
		"channels", v.Channels(),
		"frames", v.FramesPerBuffer(),
		"attack", p.Attack,
		"decay", p.Decay,
		"sustain", p.Sustain,
		"release", p.Release,
	)
	return v, nil
}

// startOutput opens the selected backend on v and starts it
func startOutput(v *synth.Voice) (audio.Sink, error) {
	b, err := audio.ParseBackend(backend)
	if err != nil {
		return nil, err
	}

	sink, err := audio.Open(b, v, audio.Config{
		SampleRate:      int(v.SampleRate()),
		Channels:        v.Channels(),
		FramesPerBuffer: v.FramesPerBuffer(),
	})
	if err != nil {
		return nil, err
	}
	if err := sink.Start(); err != nil {
		_ = sink.Close()
		return nil, err
	}

	slog.Debug("audio started", "backend", b)
	return sink, nil
}
