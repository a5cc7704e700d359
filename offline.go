package stardust

import (
	"bufio"
	"cmp"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cbegin/stardust-go/internal/input"
	"github.com/cbegin/stardust-go/internal/notes"
	"github.com/cbegin/stardust-go/internal/synth"
	"github.com/cbegin/stardust-go/internal/wave"
)

var ErrBadTimeline = errors.New("bad timeline")

// TimedEvent is a control event scheduled at an offset from the start of an
// offline render.
type TimedEvent struct {
	At    time.Duration
	Event input.Event
}

type Timeline []TimedEvent

// RenderConfig describes an offline render.
type RenderConfig struct {
	SampleRate int
	Channels   int
	Duration   time.Duration
	Layout     *notes.Layout
	Shape      wave.Shape
	// Gain scales the voice average. Zero uses synth.DefaultGain; a render
	// cannot be muted through Gain.
	Gain            float64
	ContinuousPhase bool
	// BlockFrames caps the frames rendered per callback, mirroring a device
	// buffer. Zero uses 512.
	BlockFrames int
}

func (c RenderConfig) withDefaults() RenderConfig {
	if c.Channels <= 0 {
		c.Channels = 1
	}
	if c.Layout == nil {
		c.Layout = notes.TwoOctave
	}
	if c.Gain == 0 {
		c.Gain = synth.DefaultGain
	}
	if c.BlockFrames <= 0 {
		c.BlockFrames = 512
	}
	return c
}

// RenderTimeline plays tl through a fresh synth and returns interleaved
// samples for cfg.Duration. Events are applied between render callbacks;
// blocks are split so that each event lands on its exact frame.
func RenderTimeline(tl Timeline, cfg RenderConfig) ([]float32, error) {
	if cfg.SampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	cfg = cfg.withDefaults()

	state := synth.NewState(cfg.Shape)
	r := synth.NewRenderer(state, cfg.SampleRate,
		synth.WithChannels(cfg.Channels),
		synth.WithGain(cfg.Gain),
		synth.WithContinuousPhase(cfg.ContinuousPhase),
	)
	d := input.NewDispatcher(state, cfg.Layout, nil)

	events := slices.Clone(tl)
	slices.SortStableFunc(events, func(a, b TimedEvent) int {
		return cmp.Compare(a.At, b.At)
	})

	total := framesFor(cfg.Duration, cfg.SampleRate)
	out := make([]float32, total*cfg.Channels)
	next := 0
	for frame := 0; frame < total; {
		for next < len(events) && framesFor(events[next].At, cfg.SampleRate) <= frame {
			d.Dispatch(events[next].Event)
			next++
		}
		n := min(cfg.BlockFrames, total-frame)
		if next < len(events) {
			if at := framesFor(events[next].At, cfg.SampleRate); at > frame && at-frame < n {
				n = at - frame
			}
		}
		r.Process(out[frame*cfg.Channels : (frame+n)*cfg.Channels])
		frame += n
	}
	return out, nil
}

func framesFor(d time.Duration, sampleRate int) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * float64(sampleRate)))
}

// maxTimelineSeconds is the largest offset a time.Duration can hold.
const maxTimelineSeconds = float64(math.MaxInt64) / float64(time.Second)

// ParseTimeline reads one event per line:
//
//	<seconds> press <key>
//	<seconds> release <key>
//	<seconds> shape <sine|triangle|saw|square>
//
// Blank lines and lines starting with # are skipped.
func ParseTimeline(r io.Reader) (Timeline, error) {
	var tl Timeline
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: line %d: expected \"<seconds> <verb> <arg>\", got %q", ErrBadTimeline, line, text)
		}
		secs, err := strconv.ParseFloat(fields[0], 64)
		if err != nil || secs < 0 || math.IsNaN(secs) || secs >= maxTimelineSeconds {
			return nil, fmt.Errorf("%w: line %d: invalid time %q", ErrBadTimeline, line, fields[0])
		}
		at := time.Duration(secs * float64(time.Second))
		var ev input.Event
		switch strings.ToLower(fields[1]) {
		case "press", "down":
			ev = input.Press(fields[2])
		case "release", "up":
			ev = input.Release(fields[2])
		case "shape":
			shape, err := wave.ParseShape(fields[2])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrBadTimeline, line, err)
			}
			ev = input.SelectShape(shape)
		default:
			return nil, fmt.Errorf("%w: line %d: unknown verb %q", ErrBadTimeline, line, fields[1])
		}
		tl = append(tl, TimedEvent{At: at, Event: ev})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read timeline: %w", err)
	}
	return tl, nil
}

// Chord returns a timeline that presses every key at time zero.
func Chord(keys ...string) Timeline {
	tl := make(Timeline, 0, len(keys))
	for _, k := range keys {
		tl = append(tl, TimedEvent{Event: input.Press(k)})
	}
	return tl
}

// WriteWAV encodes interleaved float samples as 16-bit PCM.
func WriteWAV(w io.WriteSeeker, samples []float32, sampleRate, channels int) error {
	if sampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	if channels <= 0 {
		return ErrInvalidChannels
	}
	enc := wav.NewEncoder(w, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		buf.Data[i] = int(math.Round(v * 32767))
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}
