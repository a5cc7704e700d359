package wave

import (
	"fmt"
	"math"
	"strings"
)

const twoPi = math.Pi * 2

// Shape selects the periodic function used for every sounding voice.
type Shape int

const (
	// Unset means no shape has been chosen yet; it renders as Sine.
	Unset Shape = iota
	Sine
	Triangle
	Sawtooth
	Square
)

// Shapes returns the selectable shapes in control-surface order.
func Shapes() []Shape {
	return []Shape{Sine, Sawtooth, Triangle, Square}
}

func (s Shape) String() string {
	switch s {
	case Unset:
		return "unset"
	case Sine:
		return "sine"
	case Triangle:
		return "triangle"
	case Sawtooth:
		return "saw"
	case Square:
		return "square"
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// Resolve maps Unset (and anything unknown) to Sine.
func (s Shape) Resolve() Shape {
	switch s {
	case Sine, Triangle, Sawtooth, Square:
		return s
	}
	return Sine
}

func ParseShape(name string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sine", "sin":
		return Sine, nil
	case "triangle", "tri":
		return Triangle, nil
	case "saw", "sawtooth":
		return Sawtooth, nil
	case "square", "sqr":
		return Square, nil
	}
	return Unset, fmt.Errorf("invalid shape %q (expected sine|triangle|saw|square)", name)
}

// Sample evaluates shape at clock samples into a tone of freq Hz. The result
// is always in [-1, 1]. No band-limiting is applied, so saw, square and
// triangle alias at high frequencies.
func Sample(clock, freq, sampleRate float64, shape Shape) float64 {
	switch shape.Resolve() {
	case Sawtooth:
		return 2*Phase(clock, freq, sampleRate) - 1
	case Square:
		if Phase(clock, freq, sampleRate) < 0.5 {
			return 1
		}
		return -1
	case Triangle:
		return 4*math.Abs(Phase(clock, freq, sampleRate)-0.5) - 1
	default:
		return math.Sin(twoPi * clock * freq / sampleRate)
	}
}

// Phase returns the cycle position of clock in [0, 1).
func Phase(clock, freq, sampleRate float64) float64 {
	p := math.Mod(clock*freq/sampleRate, 1)
	if p < 0 {
		p++
	}
	if p >= 1 {
		p = 0
	}
	return p
}
