package sequence

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/icco/wavesynth/internal/pitch"
)

// recorder is a Controller that logs every call
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) SetFrequency(hz float64) { r.log(fmt.Sprintf("freq %.2f", hz)) }
func (r *recorder) NoteOn()                 { r.log("on") }
func (r *recorder) NoteOff()                { r.log("off") }

func (r *recorder) log(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func freq(n pitch.Note) string { return fmt.Sprintf("freq %.2f", n.Frequency()) }

func equalCalls(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Expected %d calls %v, got %d calls %v", len(want), want, len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Call %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestAddKeepsOrder(t *testing.T) {
	var s Sequence
	s.Add(Event{At: 30, Note: 3})
	s.Add(Event{At: 10, Note: 1})
	s.Add(Event{At: 20, Note: 2})
	s.Add(Event{At: 10, Note: 4})

	want := []pitch.Note{1, 4, 2, 3}
	for i, ev := range s.Events {
		if ev.Note != want[i] {
			t.Errorf("Event %d: expected note %d, got %d", i, want[i], ev.Note)
		}
	}
	if s.Duration() != 30 {
		t.Errorf("Expected duration 30, got %v", s.Duration())
	}
}

func TestDiminishedArpeggio(t *testing.T) {
	seq := DiminishedArpeggio()

	var notes []pitch.Note
	for _, ev := range seq.Events {
		if ev.Kind == NoteOn {
			notes = append(notes, ev.Note)
		}
	}

	if len(notes) != 41 {
		t.Fatalf("Expected 41 notes, got %d", len(notes))
	}
	if notes[0].String() != "A2" || notes[19] != 102 || notes[20].String() != "A7" || notes[40].String() != "A2" {
		t.Errorf("Unexpected arpeggio shape: %v", notes)
	}
	for i := 1; i < 20; i++ {
		if notes[i]-notes[i-1] != 3 {
			t.Errorf("Expected ascending minor thirds, got %s then %s", notes[i-1], notes[i])
		}
	}
	if want := 40*180*time.Millisecond + 100*time.Millisecond; seq.Duration() != want {
		t.Errorf("Expected duration %v, got %v", want, seq.Duration())
	}
}

func TestArpeggioRejectsNonPositiveStep(t *testing.T) {
	if seq := Arpeggio(45, 105, 0, time.Millisecond, 0); len(seq.Events) != 0 {
		t.Errorf("Expected empty sequence, got %d events", len(seq.Events))
	}
}

func TestMonoLastNotePriority(t *testing.T) {
	r := &recorder{}
	m := NewMono(r)

	c4, e4, g4 := pitch.Note(60), pitch.Note(64), pitch.Note(67)
	m.Apply(Event{Kind: NoteOn, Note: c4, Velocity: 100})
	m.Apply(Event{Kind: NoteOn, Note: e4, Velocity: 100})
	m.Apply(Event{Kind: NoteOn, Note: g4, Velocity: 100})
	m.Apply(Event{Kind: NoteOff, Note: e4}) // not on top, nothing audible
	m.Apply(Event{Kind: NoteOff, Note: g4}) // glide back to C4
	m.Apply(Event{Kind: NoteOn, Note: c4, Velocity: 0})
	m.Apply(Event{Kind: NoteOff, Note: c4}) // nothing held

	equalCalls(t, r.Calls(), []string{
		freq(c4), "on",
		freq(e4), "on",
		freq(g4), "on",
		freq(c4),
		"off",
	})
	if len(m.Held()) != 0 {
		t.Errorf("Expected no held notes, got %v", m.Held())
	}
}

func TestMonoAllNotesOff(t *testing.T) {
	r := &recorder{}
	m := NewMono(r)
	m.Apply(Event{Kind: NoteOn, Note: 60, Velocity: 1})
	m.Apply(Event{Kind: NoteOn, Note: 62, Velocity: 1})
	m.AllNotesOff()

	if len(m.Held()) != 0 {
		t.Errorf("Expected no held notes, got %v", m.Held())
	}
	calls := r.Calls()
	if calls[len(calls)-1] != "off" {
		t.Errorf("Expected final NoteOff, got %v", calls)
	}
}

func TestPlayerSendsEventsInOrder(t *testing.T) {
	seq := Arpeggio(60, 66, 3, 5*time.Millisecond, 2*time.Millisecond)
	r := &recorder{}

	start := time.Now()
	if err := (&Player{}).Play(context.Background(), r, seq); err != nil {
		t.Fatalf("Error playing: %v", err)
	}
	if elapsed := time.Since(start); elapsed < seq.Duration() {
		t.Errorf("Expected playback to take at least %v, took %v", seq.Duration(), elapsed)
	}

	var want []string
	for _, n := range []pitch.Note{60, 63, 66, 63, 60} {
		want = append(want, freq(n), "on", "off")
	}
	equalCalls(t, r.Calls(), want)
}

func TestPlayerStopsOnCancel(t *testing.T) {
	seq := Arpeggio(45, 105, 3, 50*time.Millisecond, 50*time.Millisecond)
	r := &recorder{}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	err := (&Player{}).Play(ctx, r, seq)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline exceeded, got %v", err)
	}
	calls := r.Calls()
	if len(calls) == 0 || calls[len(calls)-1] != "off" {
		t.Errorf("Expected voice released on cancel, got %v", calls)
	}
}

func TestSMFRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arpeggio.mid")
	seq := DiminishedArpeggio()

	if err := WriteSMF(path, seq, DefaultBPM); err != nil {
		t.Fatalf("Error writing MIDI: %v", err)
	}

	got, err := ReadSMF(path)
	if err != nil {
		t.Fatalf("Error reading MIDI: %v", err)
	}
	if len(got.Events) != len(seq.Events) {
		t.Fatalf("Expected %d events, got %d", len(seq.Events), len(got.Events))
	}

	for i, want := range seq.Events {
		ev := got.Events[i]
		if ev.Kind != want.Kind || ev.Note != want.Note {
			t.Errorf("Event %d: expected %s %s, got %s %s", i, want.Kind, want.Note, ev.Kind, ev.Note)
		}
		if diff := ev.At - want.At; diff < -time.Millisecond || diff > time.Millisecond {
			t.Errorf("Event %d: expected at %v, got %v", i, want.At, ev.At)
		}
	}
}

func TestTicks(t *testing.T) {
	tests := []struct {
		name string
		at   time.Duration
		bpm  float64
		want uint32
	}{
		{"start", 0, 120, 0},
		{"negative", -time.Second, 120, 0},
		{"one beat", 500 * time.Millisecond, 120, ticksPerQuarterNote},
		{"rounds", 501 * time.Millisecond, 120, 962},
		{"clamped", 1 << 62, 300, math.MaxUint32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ticks(tt.at, tt.bpm); got != tt.want {
				t.Errorf("Expected %d ticks, got %d", tt.want, got)
			}
		})
	}
}

func TestWriteSMFRequiresPath(t *testing.T) {
	if err := WriteSMF("", Sequence{}, DefaultBPM); !errors.Is(err, ErrNoPath) {
		t.Errorf("Expected ErrNoPath, got %v", err)
	}
}

func TestReadSMFMissingFile(t *testing.T) {
	if _, err := ReadSMF(filepath.Join(t.TempDir(), "missing.mid")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestReadTempo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tempo.mid")
	if err := WriteSMF(path, DiminishedArpeggio(), 90); err != nil {
		t.Fatalf("Error writing MIDI: %v", err)
	}

	bpm, err := ReadTempo(path)
	if err != nil {
		t.Fatalf("Error reading tempo: %v", err)
	}
	if bpm < 89.99 || bpm > 90.01 {
		t.Errorf("Expected 90 BPM, got %f", bpm)
	}

	if _, err := ReadTempo(filepath.Join(t.TempDir(), "missing.mid")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
