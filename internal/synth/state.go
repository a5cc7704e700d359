package synth

import (
	"slices"
	"sync"

	"github.com/cbegin/stardust-go/internal/notes"
	"github.com/cbegin/stardust-go/internal/wave"
)

// State is the model shared by the control side and the audio callback: the
// set of held notes and the waveform shape applied to all of them. Every
// access goes through one mutex and critical sections never do more than a
// map update or a copy.
type State struct {
	mu     sync.Mutex
	active map[notes.Note]struct{}
	shape  wave.Shape
}

func NewState(shape wave.Shape) *State {
	return &State{
		active: make(map[notes.Note]struct{}, notes.Count),
		shape:  shape,
	}
}

// Press adds n to the active set. It reports false if n was already held.
func (s *State) Press(n notes.Note) bool {
	if !n.Valid() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[n]; ok {
		return false
	}
	s.active[n] = struct{}{}
	return true
}

// Release removes n. Releasing a note that is not held is a no-op.
func (s *State) Release(n notes.Note) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[n]; !ok {
		return false
	}
	delete(s.active, n)
	return true
}

// ReleaseAll empties the active set and reports whether anything was held.
func (s *State) ReleaseAll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.active) == 0 {
		return false
	}
	clear(s.active)
	return true
}

// SetShape selects shape and reports whether it differed from the previous
// selection.
func (s *State) SetShape(shape wave.Shape) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shape == shape {
		return false
	}
	s.shape = shape
	return true
}

func (s *State) Shape() wave.Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shape
}

func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

func (s *State) IsActive(n notes.Note) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[n]
	return ok
}

// Active returns the held notes in ascending pitch order.
func (s *State) Active() []notes.Note {
	out, _ := s.Snapshot(nil)
	return out
}

// Snapshot copies the held notes into buf[:0] and returns them with the
// current shape. The lock is released before the copy is sorted, so callers
// on the audio thread can pass a reused buffer and never allocate once it
// has grown to notes.Count.
func (s *State) Snapshot(buf []notes.Note) ([]notes.Note, wave.Shape) {
	buf = buf[:0]
	s.mu.Lock()
	for n := range s.active {
		buf = append(buf, n)
	}
	shape := s.shape
	s.mu.Unlock()
	slices.Sort(buf)
	return buf, shape
}
