package synth

import (
	"github.com/cbegin/stardust-go/internal/notes"
	"github.com/cbegin/stardust-go/internal/wave"
)

// DefaultGain is the master attenuation applied after averaging the voices.
const DefaultGain = 0.2

type Option func(*Renderer)

// WithChannels sets the number of interleaved output channels. Every channel
// of a frame carries the same value.
func WithChannels(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.channels = n
		}
	}
}

func WithGain(g float64) Option {
	return func(r *Renderer) {
		if g >= 0 {
			r.gain = g
		}
	}
}

// WithContinuousPhase makes the phase ignore the once-per-second clock
// wrap. By default the phase is taken from the wrapped clock, which gives
// each voice a small discontinuity (an audible click) whenever the clock
// resets.
func WithContinuousPhase(enabled bool) Option {
	return func(r *Renderer) {
		r.continuous = enabled
	}
}

// Renderer is the audio callback. Process is called by the backend from its
// own goroutine; the only state it shares with the control side is State.
type Renderer struct {
	state      *State
	sampleRate int
	channels   int
	gain       float64
	continuous bool

	clock int
	wraps int64
	buf   []notes.Note
	freqs []float64
}

func NewRenderer(state *State, sampleRate int, opts ...Option) *Renderer {
	r := &Renderer{
		state:      state,
		sampleRate: sampleRate,
		channels:   1,
		gain:       DefaultGain,
		buf:        make([]notes.Note, 0, notes.Count),
		freqs:      make([]float64, 0, notes.Count),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) SampleRate() int { return r.sampleRate }
func (r *Renderer) Channels() int   { return r.channels }
func (r *Renderer) Gain() float64   { return r.gain }

// Clock returns the position within the current one-second window. It is
// only safe to call from the goroutine that calls Process.
func (r *Renderer) Clock() int { return r.clock }

// Process fills dst with interleaved frames. The voice set and shape are
// read once per call; the lock is not held while samples are computed.
func (r *Renderer) Process(dst []float32) {
	var shape wave.Shape
	r.buf, shape = r.state.Snapshot(r.buf)
	r.freqs = r.freqs[:0]
	for _, n := range r.buf {
		r.freqs = append(r.freqs, n.Freq())
	}

	sr := float64(r.sampleRate)
	voices := float64(len(r.freqs))
	ch := r.channels
	for i := 0; i < len(dst); i += ch {
		var v float32
		if len(r.freqs) > 0 {
			pos := float64(r.clock)
			if r.continuous {
				pos += float64(r.wraps) * sr
			}
			acc := 0.0
			for _, f := range r.freqs {
				acc += wave.Sample(pos, f, sr, shape)
			}
			v = float32(acc / voices * r.gain)
		}
		end := min(i+ch, len(dst))
		for j := i; j < end; j++ {
			dst[j] = v
		}
		r.advance()
	}
}

func (r *Renderer) advance() {
	r.clock++
	if r.clock >= r.sampleRate {
		r.clock = 0
		r.wraps++
	}
}
