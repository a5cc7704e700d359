package notes

import "math"

// Note is one key of the playable range, C3 through F5.
type Note int

const (
	C3 Note = iota
	CSharp3
	D3
	DSharp3
	E3
	F3
	FSharp3
	G3
	GSharp3
	A3
	ASharp3
	B3
	C4
	CSharp4
	D4
	DSharp4
	E4
	F4
	FSharp4
	G4
	GSharp4
	A4
	ASharp4
	B4
	C5
	CSharp5
	D5
	DSharp5
	E5
	F5

	Count = int(F5) + 1
)

const midiC3 = 48

// Equal-tempered frequencies (A4 = 440 Hz) rounded to two decimals.
var freqs = [Count]float64{
	130.81, 138.59, 146.83, 155.56, 164.81, 174.61, 185.00, 196.00, 207.65, 220.00, 233.08, 246.94,
	261.63, 277.18, 293.66, 311.13, 329.63, 349.23, 369.99, 392.00, 415.30, 440.00, 466.16, 493.88,
	523.25, 554.37, 587.33, 622.25, 659.25, 698.46,
}

var pitchNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func (n Note) Valid() bool {
	return n >= C3 && n <= F5
}

// Freq returns the note's table frequency in Hz. Invalid notes return 0.
func (n Note) Freq() float64 {
	if !n.Valid() {
		return 0
	}
	return freqs[n]
}

func (n Note) MIDI() int {
	return midiC3 + int(n)
}

func (n Note) Octave() int {
	return n.MIDI()/12 - 1
}

func (n Note) IsSharp() bool {
	switch n.MIDI() % 12 {
	case 1, 3, 6, 8, 10:
		return true
	}
	return false
}

func (n Note) String() string {
	if !n.Valid() {
		return "?"
	}
	m := n.MIDI()
	return pitchNames[m%12] + string(rune('0'+m/12-1))
}

// All returns every note in ascending pitch order.
func All() []Note {
	out := make([]Note, Count)
	for i := range out {
		out[i] = Note(i)
	}
	return out
}

// Naturals returns the white keys in ascending order.
func Naturals() []Note {
	var out []Note
	for _, n := range All() {
		if !n.IsSharp() {
			out = append(out, n)
		}
	}
	return out
}

// EqualTempered returns the unrounded equal-tempered frequency for a MIDI
// note number referenced to A4 = 440 Hz.
func EqualTempered(midi int) float64 {
	return 440 * math.Pow(2, float64(midi-69)/12)
}
