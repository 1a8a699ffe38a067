package pitch

import (
	"errors"
	"math"
	"testing"
)

func TestFrequency(t *testing.T) {
	tests := []struct {
		note Note
		want float64
	}{
		{A4, 440},
		{57, 220},
		{81, 880},
		{MiddleC, 261.6256},
		{45, 110},   // A2
		{105, 3520}, // A7
		{0, 8.1758},
	}

	for _, tt := range tests {
		if got := tt.note.Frequency(); math.Abs(got-tt.want) > 1e-3 {
			t.Errorf("%s: expected %.4f Hz, got %.4f Hz", tt.note, tt.want, got)
		}
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		note Note
		want string
	}{
		{0, "C-1"},
		{11, "B-1"},
		{12, "C0"},
		{MiddleC, "C4"},
		{61, "C#4"},
		{A4, "A4"},
		{70, "A#4"},
		{MaxNote, "G9"},
	}

	for _, tt := range tests {
		if got := tt.note.String(); got != tt.want {
			t.Errorf("Note %d: expected %s, got %s", tt.note, tt.want, got)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Note
	}{
		{"A4", A4},
		{"a4", A4},
		{" C4 ", MiddleC},
		{"C#4", 61},
		{"Db4", 61},
		{"Cb4", 59},
		{"C-1", 0},
		{"G9", MaxNote},
		{"A2", 45},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{"", "H4", "A", "A#", "Ax4", "G#9", "Cb-1", "C10"} {
		if _, err := Parse(in); !errors.Is(err, ErrNoteName) {
			t.Errorf("Parse(%q): expected ErrNoteName, got %v", in, err)
		}
	}
}

func TestParseRoundTripsAllNotes(t *testing.T) {
	for n := 0; n <= int(MaxNote); n++ {
		got, err := Parse(Note(n).String())
		if err != nil || got != Note(n) {
			t.Errorf("Note %d: round trip gave %d, %v", n, got, err)
		}
	}
}

func TestTranspose(t *testing.T) {
	if n, ok := A4.Transpose(3); !ok || n != 72 {
		t.Errorf("Expected C5, got %s ok=%v", n, ok)
	}
	if n, ok := Note(2).Transpose(-3); ok || n != 2 {
		t.Errorf("Expected transpose below 0 to fail, got %s ok=%v", n, ok)
	}
	if _, ok := MaxNote.Transpose(1); ok {
		t.Error("Expected transpose above 127 to fail")
	}
}
