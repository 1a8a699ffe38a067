package tui

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/icco/wavesynth/internal/pitch"
	"github.com/icco/wavesynth/internal/sequence"
)

const (
	NumSteps   = 16
	minBPM     = 20
	maxBPM     = 300
	bpmStep    = 5
	velocity   = 100
	defaultBPM = sequence.DefaultBPM
)

// Pattern is one bar of sixteenth notes for a single voice
type Pattern struct {
	BPM   int
	Steps [NumSteps]bool       // Which steps are active
	Notes [NumSteps]pitch.Note // Note for each step
}

func NewPattern() Pattern {
	p := Pattern{BPM: defaultBPM}
	for i := range p.Notes {
		p.Notes[i] = pitch.MiddleC
	}
	return p
}

// StepDuration is the length of one sixteenth note
func (p Pattern) StepDuration() time.Duration {
	bpm := p.BPM
	if bpm <= 0 {
		bpm = defaultBPM
	}
	return time.Minute / time.Duration(bpm*4)
}

// Sequence renders the active steps as notes that sound for three quarters
// of a step
func (p Pattern) Sequence() sequence.Sequence {
	var seq sequence.Sequence
	step := p.StepDuration()
	for i, on := range p.Steps {
		if on {
			seq.Note(time.Duration(i)*step, p.Notes[i], velocity, step*3/4)
		}
	}
	return seq
}

// PatternFromSequence quantizes the note starts of seq onto the steps of
// one bar at bpm. Notes past the bar are dropped.
func PatternFromSequence(seq sequence.Sequence, bpm int) Pattern {
	p := NewPattern()
	if bpm > 0 {
		p.BPM = bpm
	}
	step := p.StepDuration()
	for _, ev := range seq.Events {
		if ev.Kind != sequence.NoteOn || ev.Velocity == 0 {
			continue
		}
		i := int((ev.At + step/2) / step)
		if i < NumSteps {
			p.Steps[i] = true
			p.Notes[i] = ev.Note
		}
	}
	return p
}

// LoadPattern reads a pattern from a MIDI file. A missing file yields an
// empty pattern.
func LoadPattern(path string) (Pattern, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return NewPattern(), nil
	}

	bpm, err := sequence.ReadTempo(path)
	if err != nil {
		return Pattern{}, err
	}
	seq, err := sequence.ReadSMF(path)
	if err != nil {
		return Pattern{}, err
	}
	return PatternFromSequence(seq, int(bpm+0.5)), nil
}

// Save writes the pattern as a Standard MIDI File
func (p Pattern) Save(path string) error {
	return sequence.WriteSMF(path, p.Sequence(), float64(p.BPM))
}

// stepMsg advances playback. gen ties it to one run of the transport.
type stepMsg struct{ gen int }

// Steps is a sixteen step sequencer that plays a voice
type Steps struct {
	voice    Voice
	filePath string
	pattern  Pattern

	cursor      int
	isPlaying   bool
	currentStep int
	gen         int
	scope       *scope
	message     string
}

// NewSteps opens the pattern at path. The pattern is saved back on every
// edit.
func NewSteps(voice Voice, path string) (Steps, error) {
	p, err := LoadPattern(path)
	if err != nil {
		return Steps{}, err
	}
	return Steps{
		voice:    voice,
		filePath: path,
		pattern:  p,
		scope:    newScope(),
		message:  fmt.Sprintf("Loaded: %s", path),
	}, nil
}

func (s Steps) Pattern() Pattern { return s.pattern }

func (s Steps) Init() tea.Cmd {
	return frame()
}

func (s *Steps) save() {
	if err := s.pattern.Save(s.filePath); err != nil {
		s.message = fmt.Sprintf("Error saving: %v", err)
		return
	}
	s.message = "MIDI file saved"
}

func (s Steps) tickWithBPM() tea.Cmd {
	gen := s.gen
	return tea.Tick(s.pattern.StepDuration(), func(time.Time) tea.Msg {
		return stepMsg{gen: gen}
	})
}

// sound plays the current step or releases the voice on a rest
func (s *Steps) sound() {
	if s.pattern.Steps[s.currentStep] {
		s.voice.SetFrequency(s.pattern.Notes[s.currentStep].Frequency())
		s.voice.NoteOn()
		return
	}
	s.voice.NoteOff()
}

func (s *Steps) stop() {
	s.isPlaying = false
	s.gen++
	s.voice.NoteOff()
}

func (s Steps) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		s.scope.sample(s.voice.Amplitude())
		return s, frame()

	case stepMsg:
		if !s.isPlaying || msg.gen != s.gen {
			return s, nil
		}
		s.currentStep = (s.currentStep + 1) % NumSteps
		s.sound()
		return s, s.tickWithBPM()

	case tea.KeyMsg:
		return s.updateKeys(msg)
	}
	return s, nil
}

func (s Steps) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := &s.pattern

	switch msg.String() {
	case "ctrl+c", "q", "esc":
		s.stop()
		return s, tea.Quit
	case "left", "h":
		if s.cursor > 0 {
			s.cursor--
		}
	case "right", "l":
		if s.cursor < NumSteps-1 {
			s.cursor++
		}
	case " ":
		p.Steps[s.cursor] = !p.Steps[s.cursor]
		s.save()
	case "+", "=":
		if p.BPM < maxBPM {
			p.BPM += bpmStep
			s.save()
		}
	case "-", "_":
		if p.BPM > minBPM {
			p.BPM -= bpmStep
			s.save()
		}
	case "up", "k", "w":
		if n, ok := p.Notes[s.cursor].Transpose(1); ok {
			p.Notes[s.cursor] = n
			s.save()
		}
	case "down", "j", "s":
		if n, ok := p.Notes[s.cursor].Transpose(-1); ok {
			p.Notes[s.cursor] = n
			s.save()
		}
	case "p":
		if s.isPlaying {
			s.stop()
			return s, nil
		}
		s.isPlaying = true
		s.gen++
		s.currentStep = 0
		s.sound()
		return s, s.tickWithBPM()
	case "c":
		p.Steps = [NumSteps]bool{}
		s.save()
	}

	return s, nil
}

func (s Steps) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("wavesynth sequencer") + "\n\n")
	b.WriteString(fmt.Sprintf("File: %s\n", s.filePath))
	b.WriteString(fmt.Sprintf("BPM: %d (use +/- to adjust)\n\n", s.pattern.BPM))

	b.WriteString(renderClockBar(s.isPlaying, s.currentStep) + "\n\n")

	// 14 chars to match the clock label
	b.WriteString("Step          ")
	hexDigits := "0123456789ABCDEF"
	for i := 0; i < NumSteps; i++ {
		b.WriteString(fmt.Sprintf(" %c ", hexDigits[i]))
	}
	b.WriteString("\n")

	b.WriteString(selectedStyle.Render(fmt.Sprintf("Note %-8s ", s.pattern.Notes[s.cursor])))
	for i := 0; i < NumSteps; i++ {
		cell := " · "
		if s.pattern.Steps[i] {
			cell = " ● "
		}

		cellStyle := lipgloss.NewStyle().Width(3)
		if i == s.cursor {
			cellStyle = cellStyle.Background(lipgloss.Color("#7D56F4"))
		}
		if s.pattern.Steps[i] {
			cellStyle = cellStyle.Foreground(lipgloss.Color("#FFD700"))
		} else {
			cellStyle = cellStyle.Foreground(lipgloss.Color("#666666"))
		}
		if s.isPlaying && i == s.currentStep {
			cellStyle = cellStyle.Foreground(lipgloss.Color("#00FF00")).Bold(true)
		}
		b.WriteString(cellStyle.Render(cell))
	}
	b.WriteString("\n\n")

	b.WriteString(renderMeter(s.voice.Stage(), s.voice.Amplitude()) + "\n")
	b.WriteString(renderParams(s.voice.Params()) + "\n\n")
	b.WriteString(s.scope.render() + "\n")

	if s.message != "" {
		b.WriteString("\n" + errorStyle.Render(s.message) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("←→ or h/l: step • space: toggle step • ↑↓ or w/s: change note"))
	b.WriteString("\n" + helpStyle.Render("+/-: tempo • p: play/stop • c: clear • q: quit"))

	return b.String()
}

func renderClockBar(isPlaying bool, currentStep int) string {
	// Colors for the clock bar - gradient from cyan to magenta
	colors := []string{
		"#00FFFF", "#00E5FF", "#00CCFF", "#00B2FF",
		"#0099FF", "#0080FF", "#0066FF", "#1A4DFF",
		"#3333FF", "#4D1AFF", "#6600FF", "#8000FF",
		"#9900FF", "#B300FF", "#CC00FF", "#FF00FF",
	}

	bar := strings.Builder{}
	bar.WriteString("Clock         ")

	for i := 0; i < NumSteps; i++ {
		var cell string
		var cellStyle lipgloss.Style

		switch {
		case isPlaying && i == currentStep:
			cell = " ▶ "
			cellStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(lipgloss.Color(colors[i])).
				Bold(true)
		case isPlaying && i < currentStep:
			cell = " █ "
			cellStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(colors[i]))
		default:
			cell = " · "
			cellStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#444444"))
		}

		bar.WriteString(cellStyle.Render(cell))
	}

	if isPlaying {
		bar.WriteString(statusStyle.Render(" Playing"))
	} else {
		bar.WriteString(subtitleStyle.Render(" Stopped"))
	}

	return bar.String()
}
