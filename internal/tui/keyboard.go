package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	dspcore "github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/icco/wavesynth/internal/pitch"
)

const (
	// DefaultGate is how long a key press holds a note. Terminals report
	// presses only, so every note is released after the gate.
	DefaultGate = 300 * time.Millisecond

	timeStep    = 10 * time.Millisecond
	maxTime     = 5 * time.Second
	sustainStep = 0.05
	minOctave   = 0
	maxOctave   = 9
)

// pianoKeys maps the home row onto one octave and a fifth, in semitones
// above the base C
var pianoKeys = map[string]int{
	"a": 0, "w": 1, "s": 2, "e": 3, "d": 4, "f": 5, "t": 6, "g": 7,
	"y": 8, "h": 9, "u": 10, "j": 11, "k": 12, "o": 13, "l": 14, "p": 15, ";": 16,
}

// gateMsg releases the note started with the same generation
type gateMsg struct{ gen int }

// Keyboard plays a voice from the computer keyboard
type Keyboard struct {
	voice  Voice
	octave int
	gate   time.Duration

	gen      int
	note     pitch.Note
	sounding bool
	scope    *scope
	message  string
}

// NewKeyboard creates a keyboard on voice starting at octave 4
func NewKeyboard(voice Voice, gate time.Duration) Keyboard {
	if gate <= 0 {
		gate = DefaultGate
	}
	return Keyboard{
		voice:  voice,
		octave: 4,
		gate:   gate,
		note:   pitch.MiddleC,
		scope:  newScope(),
	}
}

func frame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (k Keyboard) Init() tea.Cmd {
	return frame()
}

// base is the C at the bottom of the playable range
func (k Keyboard) base() pitch.Note {
	return pitch.Note((k.octave + 1) * 12)
}

func (k Keyboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		k.scope.sample(k.voice.Amplitude())
		return k, frame()

	case gateMsg:
		if msg.gen == k.gen && k.sounding {
			k.voice.NoteOff()
			k.sounding = false
		}
		return k, nil

	case tea.KeyMsg:
		key := msg.String()
		if offset, ok := pianoKeys[key]; ok {
			return k.play(offset)
		}

		switch key {
		case "ctrl+c", "q", "esc":
			k.voice.NoteOff()
			return k, tea.Quit
		case " ":
			k.voice.NoteOff()
			k.sounding = false
		case "z":
			if k.octave > minOctave {
				k.octave--
			}
		case "x":
			if k.octave < maxOctave {
				k.octave++
			}
		case "1", "2", "3", "4", "5", "6", "7", "8":
			k.adjust(key)
		}
	}

	return k, nil
}

func (k Keyboard) play(offset int) (tea.Model, tea.Cmd) {
	n, ok := k.base().Transpose(offset)
	if !ok {
		k.message = "Note out of range"
		return k, nil
	}

	k.gen++
	k.note = n
	k.sounding = true
	k.message = ""
	k.voice.SetFrequency(n.Frequency())
	k.voice.NoteOn()

	gen := k.gen
	return k, tea.Tick(k.gate, func(time.Time) tea.Msg {
		return gateMsg{gen: gen}
	})
}

// adjust handles the paired -/+ keys for each envelope parameter
func (k *Keyboard) adjust(key string) {
	p := k.voice.Params()
	switch key {
	case "1":
		k.voice.SetAttack(nudge(p.Attack, -timeStep))
	case "2":
		k.voice.SetAttack(nudge(p.Attack, timeStep))
	case "3":
		k.voice.SetDecay(nudge(p.Decay, -timeStep))
	case "4":
		k.voice.SetDecay(nudge(p.Decay, timeStep))
	case "5":
		k.voice.SetSustain(dspcore.Clamp(p.Sustain-sustainStep, 0, 1))
	case "6":
		k.voice.SetSustain(dspcore.Clamp(p.Sustain+sustainStep, 0, 1))
	case "7":
		k.voice.SetRelease(nudge(p.Release, -timeStep))
	case "8":
		k.voice.SetRelease(nudge(p.Release, timeStep))
	}
}

func nudge(d, by time.Duration) time.Duration {
	d += by
	if d < 0 {
		return 0
	}
	if d > maxTime {
		return maxTime
	}
	return d
}

func (k Keyboard) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("wavesynth") + "\n\n")

	state := subtitleStyle.Render("released")
	if k.sounding {
		state = statusStyle.Render("held")
	}
	b.WriteString(fmt.Sprintf("Note: %s  %.2f Hz  %s\n",
		noteStyle.Render(fmt.Sprintf("%-4s", k.note)), k.voice.Frequency(), state))
	b.WriteString(fmt.Sprintf("Octave: %d\n\n", k.octave))

	b.WriteString(renderMeter(k.voice.Stage(), k.voice.Amplitude()) + "\n")
	b.WriteString(renderParams(k.voice.Params()) + "\n\n")

	b.WriteString(k.scope.render() + "\n\n")

	active := map[pitch.Note]bool{}
	if k.sounding {
		active[k.note] = true
	}
	b.WriteString(renderKeyboard(k.base(), active) + "\n")

	if k.message != "" {
		b.WriteString("\n" + errorStyle.Render(k.message) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("a w s e d f t g y h u j k o l p ;: play • space: release • z/x: octave"))
	b.WriteString("\n" + helpStyle.Render("1/2 attack • 3/4 decay • 5/6 sustain • 7/8 release • q: quit"))

	return b.String()
}
