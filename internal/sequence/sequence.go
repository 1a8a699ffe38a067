// Package sequence describes timed note events and plays them onto a
// monophonic voice.
package sequence

import (
	"sort"
	"time"

	"github.com/icco/wavesynth/internal/pitch"
)

// Kind is the type of a note event
type Kind int

const (
	NoteOn Kind = iota
	NoteOff
)

func (k Kind) String() string {
	if k == NoteOn {
		return "NoteOn"
	}
	return "NoteOff"
}

// Event is a note event at an offset from the start of the sequence
type Event struct {
	At       time.Duration
	Kind     Kind
	Note     pitch.Note
	Velocity uint8
}

// Sequence is a list of events ordered by time
type Sequence struct {
	Events []Event
}

// Add appends an event and keeps the list ordered. Events at the same
// offset keep their insertion order.
func (s *Sequence) Add(ev Event) {
	i := sort.Search(len(s.Events), func(i int) bool { return s.Events[i].At > ev.At })
	s.Events = append(s.Events, Event{})
	copy(s.Events[i+1:], s.Events[i:])
	s.Events[i] = ev
}

// Note adds a NoteOn at start and a NoteOff after length
func (s *Sequence) Note(start time.Duration, n pitch.Note, velocity uint8, length time.Duration) {
	s.Add(Event{At: start, Kind: NoteOn, Note: n, Velocity: velocity})
	s.Add(Event{At: start + length, Kind: NoteOff, Note: n})
}

// Duration is the offset of the last event
func (s Sequence) Duration() time.Duration {
	if len(s.Events) == 0 {
		return 0
	}
	return s.Events[len(s.Events)-1].At
}

// Arpeggio plays from low up to (but not including) high in steps of
// semitones, then from high back down to low. Every note sounds for on and
// is followed by gap of silence.
func Arpeggio(low, high pitch.Note, semitones int, on, gap time.Duration) Sequence {
	var seq Sequence
	if semitones <= 0 {
		return seq
	}

	at := time.Duration(0)
	play := func(n pitch.Note) {
		seq.Note(at, n, 100, on)
		at += on + gap
	}

	for n := int(low); n < int(high); n += semitones {
		play(pitch.Note(n))
	}
	for n := int(high); n >= int(low); n -= semitones {
		play(pitch.Note(n))
	}
	return seq
}

// DiminishedArpeggio is the demo phrase: a diminished seventh arpeggio from
// A2 to A7 and back, 100ms notes with 80ms gaps.
func DiminishedArpeggio() Sequence {
	return Arpeggio(45, 105, 3, 100*time.Millisecond, 80*time.Millisecond)
}
