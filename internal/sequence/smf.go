package sequence

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/icco/wavesynth/internal/pitch"
)

const (
	ticksPerQuarterNote = 960 // Standard MIDI resolution
	DefaultBPM          = 120
)

var ErrNoPath = errors.New("no file path set")

// ticks converts an offset to MIDI ticks at bpm, clamped to the uint32 range
func ticks(d time.Duration, bpm float64) uint32 {
	if d <= 0 {
		return 0
	}
	quarter := float64(time.Minute) / bpm
	n := math.Round(float64(d) * ticksPerQuarterNote / quarter)
	if n > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(n)
}

// WriteSMF saves seq as a two-track Standard MIDI File: a tempo track and
// one note track on channel 0.
func WriteSMF(path string, seq Sequence, bpm float64) error {
	if path == "" {
		return ErrNoPath
	}
	if bpm <= 0 {
		bpm = DefaultBPM
	}

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(ticksPerQuarterNote)

	var track0 smf.Track
	track0.Add(0, smf.MetaMeter(4, 4))
	track0.Add(0, smf.MetaTempo(bpm))
	track0.Close(0)
	if err := sm.Add(track0); err != nil {
		return fmt.Errorf("error adding tempo track: %w", err)
	}

	var track smf.Track
	var last uint32
	for _, ev := range seq.Events {
		pos := ticks(ev.At, bpm)
		delta := pos - last
		last = pos

		switch ev.Kind {
		case NoteOn:
			track.Add(delta, midi.NoteOn(0, uint8(ev.Note), ev.Velocity))
		case NoteOff:
			track.Add(delta, midi.NoteOff(0, uint8(ev.Note)))
		}
	}
	track.Close(0)
	if err := sm.Add(track); err != nil {
		return fmt.Errorf("error adding note track: %w", err)
	}

	if err := sm.WriteFile(path); err != nil {
		return fmt.Errorf("error writing MIDI file: %w", err)
	}
	return nil
}

// ReadSMF loads the note events of every track and channel of a Standard
// MIDI File, with tempo changes applied.
func ReadSMF(path string) (Sequence, error) {
	var seq Sequence

	rd := smf.ReadTracks(path).Do(func(ev smf.TrackEvent) {
		var ch, key, vel uint8
		at := time.Duration(ev.AbsMicroSeconds) * time.Microsecond
		msg := midi.Message(ev.Message)

		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			seq.Add(Event{At: at, Kind: NoteOn, Note: pitch.Note(key), Velocity: vel})
		case msg.GetNoteEnd(&ch, &key):
			seq.Add(Event{At: at, Kind: NoteOff, Note: pitch.Note(key)})
		}
	})
	if err := rd.Error(); err != nil {
		return Sequence{}, fmt.Errorf("error reading MIDI file: %w", err)
	}
	return seq, nil
}

// ReadTempo returns the first tempo of a Standard MIDI File, or DefaultBPM
// when the file sets none.
func ReadTempo(path string) (float64, error) {
	rd, err := smf.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("error reading MIDI file: %w", err)
	}
	if changes := rd.TempoChanges(); len(changes) > 0 && changes[0].BPM > 0 {
		return changes[0].BPM, nil
	}
	return DefaultBPM, nil
}
