package input

import (
	"fmt"
	"log/slog"

	"github.com/cbegin/stardust-go/internal/notes"
	"github.com/cbegin/stardust-go/internal/synth"
	"github.com/cbegin/stardust-go/internal/wave"
)

type Kind int

const (
	KindNone Kind = iota
	KindKeyPressed
	KindKeyReleased
	KindShapeSelected
	// KindFocusLost is sent when the control surface stops receiving
	// keyboard events; any held notes would otherwise never be released.
	KindFocusLost
)

func (k Kind) String() string {
	switch k {
	case KindKeyPressed:
		return "press"
	case KindKeyReleased:
		return "release"
	case KindShapeSelected:
		return "shape"
	case KindFocusLost:
		return "focus-lost"
	}
	return "none"
}

// Event is one control-surface message.
type Event struct {
	Kind   Kind
	Symbol string
	Shape  wave.Shape
}

func Press(symbol string) Event   { return Event{Kind: KindKeyPressed, Symbol: symbol} }
func Release(symbol string) Event { return Event{Kind: KindKeyReleased, Symbol: symbol} }
func SelectShape(s wave.Shape) Event {
	return Event{Kind: KindShapeSelected, Shape: s}
}
func LoseFocus() Event { return Event{Kind: KindFocusLost} }

func (e Event) String() string {
	switch e.Kind {
	case KindKeyPressed, KindKeyReleased:
		return fmt.Sprintf("%s %s", e.Kind, e.Symbol)
	case KindShapeSelected:
		return fmt.Sprintf("%s %s", e.Kind, e.Shape)
	}
	return e.Kind.String()
}

// Dispatcher applies control events to the shared synth state.
type Dispatcher struct {
	state  *synth.State
	layout *notes.Layout
	logger *slog.Logger
}

func NewDispatcher(state *synth.State, layout *notes.Layout, logger *slog.Logger) *Dispatcher {
	if layout == nil {
		layout = notes.TwoOctave
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{state: state, layout: layout, logger: logger}
}

func (d *Dispatcher) Layout() *notes.Layout { return d.layout }

// Dispatch applies ev and reports whether the audible state changed. Keys the
// layout does not map, repeated presses, releases of notes that are not held
// and shapes outside the selectable set are ignored.
func (d *Dispatcher) Dispatch(ev Event) bool {
	switch ev.Kind {
	case KindKeyPressed:
		n, ok := d.layout.Lookup(ev.Symbol)
		if !ok || !d.state.Press(n) {
			return false
		}
		d.logger.Debug("note on", slog.String("key", ev.Symbol), slog.String("note", n.String()), slog.Float64("hz", n.Freq()))
		return true
	case KindKeyReleased:
		n, ok := d.layout.Lookup(ev.Symbol)
		if !ok || !d.state.Release(n) {
			return false
		}
		d.logger.Debug("note off", slog.String("key", ev.Symbol), slog.String("note", n.String()))
		return true
	case KindShapeSelected:
		// Only the four playable shapes can be selected; Unset is an initial
		// state, not a choice.
		if ev.Shape.Resolve() != ev.Shape {
			d.logger.Debug("ignored shape", slog.String("shape", ev.Shape.String()))
			return false
		}
		if !d.state.SetShape(ev.Shape) {
			return false
		}
		d.logger.Debug("shape selected", slog.String("shape", ev.Shape.String()))
		return true
	case KindFocusLost:
		if !d.state.ReleaseAll() {
			return false
		}
		d.logger.Debug("released all notes")
		return true
	}
	return false
}
