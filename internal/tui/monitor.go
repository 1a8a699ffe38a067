package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gitlab.com/gomidi/midi/v2"

	"github.com/icco/wavesynth/internal/pitch"
	"github.com/icco/wavesynth/internal/sequence"
)

// Controller numbers understood by the Router
const (
	CCSustain     = 70
	CCRelease     = 72
	CCAttack      = 73
	CCDecay       = 75
	CCAllNotesOff = 123

	// MaxControlTime is the envelope time at controller value 127
	MaxControlTime = 2 * time.Second
	// BendRange is the pitch bend range in semitones either way
	BendRange      = 2.0
)

const maxMessageHistory = 20

// EventKind identifies a decoded MIDI message
type EventKind int

const (
	EventNoteOn EventKind = iota
	EventNoteOff
	EventControl
	EventPitchBend
)

// MIDIEventMsg is sent to the Monitor for every message the Router handled
type MIDIEventMsg struct {
	Kind       EventKind
	Channel    uint8
	Note       pitch.Note
	Velocity   uint8
	Controller uint8 // for CC messages
	Value      uint8 // for CC messages
	Bend       int16 // for pitch bend messages
}

// bender scales every frequency it forwards by the current pitch bend
type bender struct {
	Voice
	base  float64
	ratio float64
}

func (b *bender) SetFrequency(hz float64) {
	b.base = hz
	b.Voice.SetFrequency(hz * b.ratio)
}

func (b *bender) bend(rel int16) {
	b.ratio = math.Exp2(float64(rel) / 8192 * BendRange / 12)
	if b.base > 0 {
		b.Voice.SetFrequency(b.base * b.ratio)
	}
}

// Router plays incoming MIDI on a single voice with last-note priority. All
// channels are merged. Route is safe to call from the driver goroutine.
type Router struct {
	mu    sync.Mutex
	voice Voice
	bend  *bender
	mono  *sequence.Mono
}

func NewRouter(voice Voice) *Router {
	b := &bender{Voice: voice, ratio: 1}
	return &Router{voice: voice, bend: b, mono: sequence.NewMono(b)}
}

// controlTime maps a 7-bit controller value onto [0, MaxControlTime]
func controlTime(v uint8) time.Duration {
	return time.Duration(v) * MaxControlTime / 127
}

// Route applies one raw MIDI message. It reports false for messages the
// voice ignores.
func (r *Router) Route(data []byte) (MIDIEventMsg, bool) {
	var ch, key, vel, ctl, val uint8
	var rel int16
	var abs uint16

	r.mu.Lock()
	defer r.mu.Unlock()

	msg := midi.Message(data)
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		r.mono.Apply(sequence.Event{Kind: sequence.NoteOn, Note: pitch.Note(key), Velocity: vel})
		return MIDIEventMsg{Kind: EventNoteOn, Channel: ch, Note: pitch.Note(key), Velocity: vel}, true

	case msg.GetNoteEnd(&ch, &key):
		r.mono.Apply(sequence.Event{Kind: sequence.NoteOff, Note: pitch.Note(key)})
		return MIDIEventMsg{Kind: EventNoteOff, Channel: ch, Note: pitch.Note(key)}, true

	case msg.GetControlChange(&ch, &ctl, &val):
		switch ctl {
		case CCAttack:
			r.voice.SetAttack(controlTime(val))
		case CCDecay:
			r.voice.SetDecay(controlTime(val))
		case CCSustain:
			r.voice.SetSustain(float64(val) / 127)
		case CCRelease:
			r.voice.SetRelease(controlTime(val))
		case CCAllNotesOff:
			r.mono.AllNotesOff()
		}
		return MIDIEventMsg{Kind: EventControl, Channel: ch, Controller: ctl, Value: val}, true

	case msg.GetPitchBend(&ch, &rel, &abs):
		r.bend.bend(rel)
		return MIDIEventMsg{Kind: EventPitchBend, Channel: ch, Bend: rel}, true
	}

	return MIDIEventMsg{}, false
}

// AllNotesOff releases the voice and forgets held notes
func (r *Router) AllNotesOff() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mono.AllNotesOff()
}

type noteDisplay struct {
	channel  uint8
	note     pitch.Note
	velocity uint8
}

// Monitor shows the state of a voice driven by a virtual MIDI input
type Monitor struct {
	deviceName     string
	portName       string
	voice          Voice
	activeNotes    map[string]noteDisplay // channel:note -> display info
	messageHistory []string               // most recent first
	messageCount   int
	scope          *scope
	err            error
	onQuit         func()
}

// NewMonitor creates the monitor. onQuit runs before the program exits and
// should stop the MIDI listener.
func NewMonitor(deviceName, portName string, voice Voice, onQuit func()) *Monitor {
	return &Monitor{
		deviceName:     deviceName,
		portName:       portName,
		voice:          voice,
		activeNotes:    make(map[string]noteDisplay),
		messageHistory: make([]string, 0, maxMessageHistory),
		scope:          newScope(),
		onQuit:         onQuit,
	}
}

func (m *Monitor) Init() tea.Cmd {
	return frame()
}

func (m *Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.scope.sample(m.voice.Amplitude())
		return m, frame()

	case MIDIEventMsg:
		m.handleMIDIEvent(msg)
		m.messageCount++
		return m, nil

	case error:
		m.err = msg
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.onQuit != nil {
				m.onQuit()
			}
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m *Monitor) handleMIDIEvent(msg MIDIEventMsg) {
	key := fmt.Sprintf("%d:%d", msg.Channel, msg.Note)
	var message string

	switch msg.Kind {
	case EventNoteOn:
		m.activeNotes[key] = noteDisplay{channel: msg.Channel, note: msg.Note, velocity: msg.Velocity}
		message = fmt.Sprintf("Note On:  Ch%d %-4s vel:%d", msg.Channel+1, msg.Note, msg.Velocity)
	case EventNoteOff:
		delete(m.activeNotes, key)
		message = fmt.Sprintf("Note Off: Ch%d %-4s", msg.Channel+1, msg.Note)
	case EventControl:
		message = fmt.Sprintf("CC:       Ch%d ctrl:%d val:%d", msg.Channel+1, msg.Controller, msg.Value)
		if msg.Controller == CCAllNotesOff {
			m.activeNotes = make(map[string]noteDisplay)
		}
	case EventPitchBend:
		message = fmt.Sprintf("Bend:     Ch%d %+d", msg.Channel+1, msg.Bend)
	}

	m.messageHistory = append([]string{message}, m.messageHistory...)
	if len(m.messageHistory) > maxMessageHistory {
		m.messageHistory = m.messageHistory[:maxMessageHistory]
	}
}

func (m *Monitor) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("wavesynth virtual MIDI input") + "\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
		b.WriteString(helpStyle.Render("Press Ctrl+C to quit"))
		return b.String()
	}

	b.WriteString(subtitleStyle.Render("Device Name: ") + m.deviceName + "\n")
	b.WriteString(subtitleStyle.Render("MIDI Port: ") + statusStyle.Render(m.portName) + "\n")
	b.WriteString(subtitleStyle.Render("Channels: ") + "1-16 merged onto one voice\n\n")

	b.WriteString(renderMeter(m.voice.Stage(), m.voice.Amplitude()) + "\n")
	b.WriteString(renderParams(m.voice.Params()) + fmt.Sprintf("  %.2f Hz", m.voice.Frequency()) + "\n\n")

	b.WriteString(subtitleStyle.Render("Active Notes:") + "\n")
	notes := m.sortedNotes()
	if len(notes) == 0 {
		b.WriteString("  (no notes playing)\n")
	} else {
		names := make([]string, 0, len(notes))
		for _, nd := range notes {
			names = append(names, fmt.Sprintf("Ch%d:%s", nd.channel+1, nd.note))
		}
		b.WriteString("  " + noteStyle.Render(strings.Join(names, " ")) + "\n")
	}

	b.WriteString("\n" + subtitleStyle.Render(fmt.Sprintf("Message Log: [%d total]", m.messageCount)) + "\n")

	logStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	logHighlightStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))

	if len(m.messageHistory) == 0 {
		b.WriteString("  " + logStyle.Render("(waiting for input)") + "\n")
	}
	for i, msg := range m.messageHistory {
		if i == 10 {
			break
		}
		if i == 0 {
			b.WriteString("  " + logHighlightStyle.Render("▶ "+msg) + "\n")
		} else {
			b.WriteString("  " + logStyle.Render("  "+msg) + "\n")
		}
	}

	b.WriteString("\n" + m.scope.render() + "\n")

	active := make(map[pitch.Note]bool, len(notes))
	for _, nd := range notes {
		active[nd.note] = true
	}
	b.WriteString("\n" + renderKeyboard(pitch.Note(48), active) + "\n")

	b.WriteString("\n" + helpStyle.Render("q/Ctrl+C: quit"))

	return b.String()
}

func (m *Monitor) sortedNotes() []noteDisplay {
	notes := make([]noteDisplay, 0, len(m.activeNotes))
	for _, nd := range m.activeNotes {
		notes = append(notes, nd)
	}
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].note != notes[j].note {
			return notes[i].note < notes[j].note
		}
		return notes[i].channel < notes[j].channel
	})
	return notes
}
