package notes

import (
	"fmt"
	"strings"
)

// Binding ties an input symbol to a note.
type Binding struct {
	Symbol string
	Note   Note
}

// Layout maps keyboard characters to notes. The zero value has no keys.
type Layout struct {
	name     string
	bindings []Binding
	bySymbol map[string]Note
}

func newLayout(name string, bindings []Binding) *Layout {
	l := &Layout{
		name:     name,
		bindings: bindings,
		bySymbol: make(map[string]Note, len(bindings)),
	}
	for _, b := range bindings {
		l.bySymbol[b.Symbol] = b.Note
	}
	return l
}

// TwoOctave is the tracker-style layout: the bottom letter row plays C3-B3,
// the top letter row with the digit row plays C4-F5.
var TwoOctave = newLayout("two-octave", []Binding{
	{"z", C3}, {"s", CSharp3}, {"x", D3}, {"d", DSharp3}, {"c", E3}, {"v", F3},
	{"g", FSharp3}, {"b", G3}, {"h", GSharp3}, {"n", A3}, {"j", ASharp3}, {"m", B3},
	{"q", C4}, {"2", CSharp4}, {"w", D4}, {"3", DSharp4}, {"e", E4}, {"r", F4},
	{"5", FSharp4}, {"t", G4}, {"6", GSharp4}, {"y", A4}, {"7", ASharp4}, {"u", B4},
	{"i", C5}, {"9", CSharp5}, {"o", D5}, {"0", DSharp5}, {"p", E5}, {"[", F5},
})

// SingleOctave plays C4-C5 from the home row, sharps on the row above.
var SingleOctave = newLayout("single-octave", []Binding{
	{"a", C4}, {"w", CSharp4}, {"s", D4}, {"e", DSharp4}, {"d", E4}, {"f", F4},
	{"t", FSharp4}, {"g", G4}, {"y", GSharp4}, {"h", A4}, {"u", ASharp4}, {"j", B4},
	{"k", C5},
})

// Layouts lists the built-in layouts.
func Layouts() []*Layout {
	return []*Layout{TwoOctave, SingleOctave}
}

func ParseLayout(name string) (*Layout, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, l := range Layouts() {
		if l.name == key {
			return l, nil
		}
	}
	return nil, fmt.Errorf("unknown layout %q (expected two-octave|single-octave)", name)
}

func (l *Layout) Name() string { return l.name }

// Lookup resolves a key symbol. Matching ignores case so that a held shift
// key does not change the note.
func (l *Layout) Lookup(symbol string) (Note, bool) {
	if l == nil || l.bySymbol == nil {
		return 0, false
	}
	n, ok := l.bySymbol[strings.ToLower(symbol)]
	return n, ok
}

// KeyFor returns the symbol bound to n, if any.
func (l *Layout) KeyFor(n Note) (string, bool) {
	if l == nil {
		return "", false
	}
	for _, b := range l.bindings {
		if b.Note == n {
			return b.Symbol, true
		}
	}
	return "", false
}

// Keys returns the bindings in ascending note order.
func (l *Layout) Keys() []Binding {
	if l == nil {
		return nil
	}
	out := make([]Binding, len(l.bindings))
	copy(out, l.bindings)
	return out
}

// Lookup resolves symbol through the default two-octave layout.
func Lookup(symbol string) (Note, bool) {
	return TwoOctave.Lookup(symbol)
}
