// Package tui provides the bubbletea views of wavesynth: a computer-keyboard
// player, a step sequencer and a MIDI monitor, all driving a single voice.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	dspcore "github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/icco/wavesynth/internal/envelope"
	"github.com/icco/wavesynth/internal/pitch"
	"github.com/icco/wavesynth/internal/synth"
)

// Voice is what the views need from a synth voice
type Voice interface {
	SetFrequency(hz float64)
	NoteOn()
	NoteOff()
	SetAttack(d time.Duration)
	SetDecay(d time.Duration)
	SetSustain(level float64)
	SetRelease(d time.Duration)

	Params() synth.Params
	Stage() envelope.Stage
	Amplitude() float64
	Frequency() float64
}

// frameMsg redraws the meters
type frameMsg time.Time

const frameInterval = 60 * time.Millisecond

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)
)

var stageColors = map[envelope.Stage]string{
	envelope.StageIdle:    "#444444",
	envelope.StageAttack:  "#00FFFF",
	envelope.StageDecay:   "#0080FF",
	envelope.StageSustain: "#00FF00",
	envelope.StageRelease: "#FF00FF",
}

const meterWidth = 40

// renderMeter draws the envelope stage and amplitude as a bar with a dBFS
// readout.
func renderMeter(stage envelope.Stage, amp float64) string {
	filled := int(math.Round(dspcore.Clamp(amp, 0, 1) * meterWidth))

	var bar strings.Builder
	bar.WriteString("[")
	bar.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(stageColors[stage])).Render(strings.Repeat("█", filled)))
	bar.WriteString(strings.Repeat("─", meterWidth-filled))
	bar.WriteString("]")

	db := dspcore.LinearToDB(amp)
	level := "  -inf dB"
	if !math.IsInf(db, -1) && !math.IsNaN(db) {
		level = fmt.Sprintf("%6.1f dB", db)
	}

	return fmt.Sprintf("%-8s %s %s", stage, bar.String(), level)
}

func renderParams(p synth.Params) string {
	return fmt.Sprintf("A %4dms  D %4dms  S %3.0f%%  R %4dms",
		p.Attack.Milliseconds(), p.Decay.Milliseconds(), p.Sustain*100, p.Release.Milliseconds())
}

// renderKeyboard draws two octaves starting at the C of base, lighting the
// keys in active.
func renderKeyboard(base pitch.Note, active map[pitch.Note]bool) string {
	whiteStyle := lipgloss.NewStyle().Background(lipgloss.Color("#FFFFFF")).Foreground(lipgloss.Color("#000000"))
	blackStyle := lipgloss.NewStyle().Background(lipgloss.Color("#000000")).Foreground(lipgloss.Color("#FFFFFF"))
	activeWhite := lipgloss.NewStyle().Background(lipgloss.Color("#00FF00")).Foreground(lipgloss.Color("#000000"))
	activeBlack := lipgloss.NewStyle().Background(lipgloss.Color("#00AA00")).Foreground(lipgloss.Color("#FFFFFF"))

	whiteKeys := []int{0, 2, 4, 5, 7, 9, 11}    // C D E F G A B
	blackKeys := []int{1, 3, -1, 6, 8, 10, -1} // C# D# _ F# G# A# _

	c := int(base) - int(base)%12
	var top, bottom strings.Builder

	for octave := 0; octave < 2; octave++ {
		root := c + octave*12

		for _, offset := range blackKeys {
			switch n := root + offset; {
			case offset < 0 || n > int(pitch.MaxNote):
				top.WriteString(" ")
			case active[pitch.Note(n)]:
				top.WriteString(activeBlack.Render("█"))
			default:
				top.WriteString(blackStyle.Render("█"))
			}
			top.WriteString(" ")
		}

		for _, offset := range whiteKeys {
			switch n := root + offset; {
			case n > int(pitch.MaxNote):
				bottom.WriteString(" ")
			case active[pitch.Note(n)]:
				bottom.WriteString(activeWhite.Render("█"))
			default:
				bottom.WriteString(whiteStyle.Render("█"))
			}
			bottom.WriteString(" ")
		}
	}

	return top.String() + "\n" + bottom.String()
}
