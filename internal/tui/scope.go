package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

const (
	historyLength = 48
	scopeHeight   = 6
)

// scope keeps a scrolling history of envelope levels. The displayed level
// follows the voice through a spring so that fast stage changes stay
// readable at frame rate.
type scope struct {
	spring   harmonica.Spring
	level    float64
	velocity float64
	history  []float64
}

func newScope() *scope {
	return &scope{
		// slower decay, less bouncy
		spring:  harmonica.NewSpring(harmonica.FPS(int(1/frameInterval.Seconds())), 8.0, 0.9),
		history: make([]float64, historyLength),
	}
}

// sample moves the displayed level toward amp and pushes it onto the
// history
func (s *scope) sample(amp float64) {
	s.level, s.velocity = s.spring.Update(s.level, s.velocity, amp)
	s.level = dspcore.Clamp(s.level, 0, 1)

	copy(s.history, s.history[1:])
	s.history[len(s.history)-1] = s.level
}

func (s *scope) render() string {
	colors := []string{"#FF00FF", "#CC00FF", "#8000FF", "#3333FF", "#0080FF", "#00FFFF"}

	var b strings.Builder
	b.WriteString(subtitleStyle.Render("Envelope") + "\n")

	for row := scopeHeight; row > 0; row-- {
		threshold := (float64(row) - 0.5) / scopeHeight
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(colors[(row-1)%len(colors)]))

		b.WriteString("│")
		for _, v := range s.history {
			if v >= threshold {
				b.WriteString(style.Render("█"))
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString("│\n")
	}

	b.WriteString("└" + strings.Repeat("─", len(s.history)) + "┘\n")
	b.WriteString(fmt.Sprintf(" %-*s%s", len(s.history)-3, "past", "now"))
	return b.String()
}
