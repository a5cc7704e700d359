package notes

import (
	"math"
	"testing"
)

func TestTableMatchesEqualTemperament(t *testing.T) {
	// The table is rounded to cents of a hertz; E5 (659.2551) lands just
	// outside half a cent.
	for _, n := range All() {
		want := EqualTempered(n.MIDI())
		if math.Abs(n.Freq()-want) > 0.01 {
			t.Errorf("%s: table %.2f, equal-tempered %.4f", n, n.Freq(), want)
		}
		if n.Freq() <= 0 {
			t.Errorf("%s: frequency must be positive", n)
		}
	}
	if E5.Freq() != 659.25 {
		t.Errorf("E5 = %v, want 659.25", E5.Freq())
	}
	if A4.Freq() != 440 {
		t.Fatalf("A4 = %v, want 440", A4.Freq())
	}
}

func TestNoteNames(t *testing.T) {
	cases := map[Note]string{
		C3:      "C3",
		CSharp3: "C#3",
		C4:      "C4",
		A4:      "A4",
		ASharp4: "A#4",
		F5:      "F5",
	}
	for n, want := range cases {
		if got := n.String(); got != want {
			t.Errorf("Note(%d).String() = %q, want %q", int(n), got, want)
		}
	}
	if got := Note(99).String(); got != "?" {
		t.Errorf("invalid note String() = %q", got)
	}
	if got := Note(-1).Freq(); got != 0 {
		t.Errorf("invalid note Freq() = %v, want 0", got)
	}
}

func TestNaturals(t *testing.T) {
	nat := Naturals()
	if len(nat) != 18 {
		t.Fatalf("naturals = %d, want 18", len(nat))
	}
	if nat[0] != C3 || nat[len(nat)-1] != F5 {
		t.Fatalf("naturals range = %s..%s", nat[0], nat[len(nat)-1])
	}
	for _, n := range nat {
		if n.IsSharp() {
			t.Errorf("%s reported as natural", n)
		}
	}
}

func TestTwoOctaveLookup(t *testing.T) {
	cases := []struct {
		sym  string
		want Note
		freq float64
	}{
		{"z", C3, 130.81},
		{"q", C4, 261.63},
		{"w", D4, 293.66},
		{"2", CSharp4, 277.18},
		{"y", A4, 440.00},
		{"[", F5, 698.46},
		{"Q", C4, 261.63},
	}
	for _, tc := range cases {
		t.Run(tc.sym, func(t *testing.T) {
			n, ok := Lookup(tc.sym)
			if !ok {
				t.Fatalf("%q not mapped", tc.sym)
			}
			if n != tc.want || n.Freq() != tc.freq {
				t.Fatalf("%q -> %s (%.2f), want %s (%.2f)", tc.sym, n, n.Freq(), tc.want, tc.freq)
			}
		})
	}
	for _, sym := range []string{"", "1", "a", "]", "space", "qq"} {
		if _, ok := Lookup(sym); ok {
			t.Errorf("%q should not be playable", sym)
		}
	}
	if len(TwoOctave.Keys()) != Count {
		t.Fatalf("two-octave layout has %d keys, want %d", len(TwoOctave.Keys()), Count)
	}
}

func TestSingleOctaveLookup(t *testing.T) {
	keys := SingleOctave.Keys()
	if len(keys) != 13 {
		t.Fatalf("single-octave layout has %d keys, want 13", len(keys))
	}
	for i, b := range keys {
		if b.Note != C4+Note(i) {
			t.Errorf("key %d (%q) -> %s, want %s", i, b.Symbol, b.Note, C4+Note(i))
		}
	}
	if _, ok := SingleOctave.Lookup("z"); ok {
		t.Error("z should not be mapped in single-octave layout")
	}
	if sym, ok := SingleOctave.KeyFor(A4); !ok || sym != "h" {
		t.Errorf("KeyFor(A4) = %q, %v", sym, ok)
	}
}

func TestParseLayout(t *testing.T) {
	l, err := ParseLayout(" Single-Octave ")
	if err != nil || l != SingleOctave {
		t.Fatalf("ParseLayout: %v, %v", l, err)
	}
	if _, err := ParseLayout("dvorak"); err == nil {
		t.Fatal("expected error for unknown layout")
	}
	var empty *Layout
	if _, ok := empty.Lookup("q"); ok {
		t.Fatal("nil layout should map nothing")
	}
}
