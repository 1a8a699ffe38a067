package sequence

import "github.com/icco/wavesynth/internal/pitch"

// Controller is the control surface of a voice
type Controller interface {
	SetFrequency(hz float64)
	NoteOn()
	NoteOff()
}

// Mono maps overlapping note events onto a single voice with last-note
// priority. Releasing the newest held note glides back to the previous one
// without retriggering. Mono is not safe for concurrent use.
type Mono struct {
	c    Controller
	held []pitch.Note
}

func NewMono(c Controller) *Mono {
	return &Mono{c: c, held: make([]pitch.Note, 0, 16)}
}

// Apply sends ev to the voice. A NoteOn with zero velocity is a NoteOff.
func (m *Mono) Apply(ev Event) {
	if ev.Kind == NoteOn && ev.Velocity > 0 {
		m.remove(ev.Note)
		m.held = append(m.held, ev.Note)
		m.c.SetFrequency(ev.Note.Frequency())
		m.c.NoteOn()
		return
	}

	if len(m.held) == 0 {
		return
	}
	top := m.held[len(m.held)-1]
	m.remove(ev.Note)
	switch {
	case len(m.held) == 0:
		m.c.NoteOff()
	case ev.Note == top:
		m.c.SetFrequency(m.held[len(m.held)-1].Frequency())
	}
}

// AllNotesOff forgets held notes and releases the voice
func (m *Mono) AllNotesOff() {
	m.held = m.held[:0]
	m.c.NoteOff()
}

// Held returns the currently held notes, oldest first
func (m *Mono) Held() []pitch.Note {
	return append([]pitch.Note(nil), m.held...)
}

func (m *Mono) remove(n pitch.Note) {
	for i, h := range m.held {
		if h == n {
			m.held = append(m.held[:i], m.held[i+1:]...)
			return
		}
	}
}
