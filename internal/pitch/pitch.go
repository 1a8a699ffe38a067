// Package pitch converts MIDI note numbers to names and frequencies
package pitch

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	StandardA4     = 440.0 // Hz
	A4        Note = 69
	MiddleC   Note = 60
	MaxNote   Note = 127

	notesPerOctave = 12
)

var ErrNoteName = errors.New("invalid note name")

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Note is a MIDI note number, 0 (C-1) to 127 (G9)
type Note uint8

// Frequency returns the equal-tempered frequency with A4 at 440Hz
func (n Note) Frequency() float64 {
	return StandardA4 * math.Pow(2, (float64(n)-float64(A4))/notesPerOctave)
}

// Octave returns the octave number, with middle C in octave 4
func (n Note) Octave() int { return int(n)/notesPerOctave - 1 }

func (n Note) Name() string { return noteNames[int(n)%notesPerOctave] }

func (n Note) String() string { return fmt.Sprintf("%s%d", n.Name(), n.Octave()) }

// Valid reports whether n is within the MIDI range
func (n Note) Valid() bool { return n <= MaxNote }

// Transpose moves n by semitones. ok is false if the result leaves 0..127.
func (n Note) Transpose(semitones int) (Note, bool) {
	v := int(n) + semitones
	if v < 0 || v > int(MaxNote) {
		return n, false
	}
	return Note(v), true
}

// Parse reads names like "A4", "c#3", "Bb2" or "C-1". A flat is stored as
// the enharmonic sharp.
func Parse(s string) (Note, error) {
	name := strings.TrimSpace(s)
	if name == "" {
		return 0, fmt.Errorf("%w: empty", ErrNoteName)
	}

	letter := strings.ToUpper(name[:1])
	base := -1
	for i, n := range noteNames {
		if n == letter {
			base = i
			break
		}
	}
	if base < 0 {
		return 0, fmt.Errorf("%w: %q", ErrNoteName, s)
	}

	rest := name[1:]
	switch {
	case strings.HasPrefix(rest, "#"):
		base++
		rest = rest[1:]
	case strings.HasPrefix(rest, "b"):
		base--
		rest = rest[1:]
	}

	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNoteName, s)
	}

	v := (octave+1)*notesPerOctave + base
	if v < 0 || v > int(MaxNote) {
		return 0, fmt.Errorf("%w: %q out of MIDI range", ErrNoteName, s)
	}
	return Note(v), nil
}
