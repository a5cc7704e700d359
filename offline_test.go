package stardust

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-audio/wav"

	"github.com/cbegin/stardust-go/internal/input"
	"github.com/cbegin/stardust-go/internal/notes"
	"github.com/cbegin/stardust-go/internal/synth"
	"github.com/cbegin/stardust-go/internal/wave"
)

func TestRenderChordMatchesGenerator(t *testing.T) {
	out, err := RenderTimeline(Chord("q", "w"), RenderConfig{
		SampleRate: 48000,
		Duration:   100 * time.Millisecond,
		Shape:      wave.Sine,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(out) != 4800 {
		t.Fatalf("rendered %d samples, want 4800", len(out))
	}
	if out[0] != 0 {
		t.Fatalf("first sample = %v, want 0", out[0])
	}
	for i, got := range out {
		a := wave.Sample(float64(i), notes.C4.Freq(), 48000, wave.Sine)
		b := wave.Sample(float64(i), notes.D4.Freq(), 48000, wave.Sine)
		want := (a + b) / 2 * synth.DefaultGain
		if math.Abs(float64(got)-want) > 1e-6 {
			t.Fatalf("sample %d = %v, want %v", i, got, want)
		}
	}
}

func TestRenderZeroGainUsesDefault(t *testing.T) {
	render := func(gain float64) []float32 {
		out, err := RenderTimeline(Chord("q", "e"), RenderConfig{
			SampleRate: 8000,
			Duration:   10 * time.Millisecond,
			Gain:       gain,
		})
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		return out
	}
	zero, def := render(0), render(synth.DefaultGain)
	for i := range def {
		if zero[i] != def[i] {
			t.Fatalf("sample %d = %v with zero gain, want %v", i, zero[i], def[i])
		}
	}
	if half := render(0.1); half[1] == def[1] {
		t.Fatal("explicit gain should be applied")
	}
}

func TestRenderTimelineAppliesEventsOnTime(t *testing.T) {
	tl := Timeline{
		{At: 50 * time.Millisecond, Event: input.Release("q")},
		{At: 0, Event: input.Press("q")},
		{At: 25 * time.Millisecond, Event: input.SelectShape(wave.Square)},
	}
	out, err := RenderTimeline(tl, RenderConfig{
		SampleRate:  1000,
		Channels:    2,
		Duration:    100 * time.Millisecond,
		BlockFrames: 16,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(out) != 200 {
		t.Fatalf("rendered %d samples, want 200", len(out))
	}
	// Square at frame 25: phase 25*261.63/1000 mod 1 = 0.54 -> -1.
	if got := out[25*2]; math.Abs(float64(got)+synth.DefaultGain) > 1e-7 {
		t.Fatalf("frame 25 = %v, want %v", got, -synth.DefaultGain)
	}
	if out[24*2] == out[25*2] {
		t.Fatal("shape change should take effect at frame 25")
	}
	for i := 50 * 2; i < len(out); i++ {
		if out[i] != 0 {
			t.Fatalf("sample %d = %v after release, want silence", i, out[i])
		}
	}
}

func TestRenderTimelineRejectsBadRate(t *testing.T) {
	if _, err := RenderTimeline(nil, RenderConfig{}); !errors.Is(err, ErrInvalidSampleRate) {
		t.Fatalf("error = %v", err)
	}
}

func TestParseTimeline(t *testing.T) {
	src := `# arpeggio
0     press q
0.25  press e
0.5   shape saw

1.0   release q
1.0   up e
`
	tl, err := ParseTimeline(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tl) != 5 {
		t.Fatalf("parsed %d events, want 5", len(tl))
	}
	if tl[1].At != 250*time.Millisecond || tl[1].Event != input.Press("e") {
		t.Fatalf("event 1 = %+v", tl[1])
	}
	if tl[2].Event != input.SelectShape(wave.Sawtooth) {
		t.Fatalf("event 2 = %+v", tl[2])
	}
	if tl[4].Event != input.Release("e") {
		t.Fatalf("event 4 = %+v", tl[4])
	}
}

func TestParseTimelineErrors(t *testing.T) {
	cases := map[string]string{
		"missing field": "0 press",
		"bad time":      "soon press q",
		"negative time": "-1 press q",
		"time overflow": "1e10 press q",
		"infinite time": "+Inf press q",
		"bad verb":      "0 strum q",
		"bad shape":     "0 shape noise",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTimeline(strings.NewReader("# header\n" + src))
			if !errors.Is(err, ErrBadTimeline) {
				t.Fatalf("error = %v, want ErrBadTimeline", err)
			}
			if !strings.Contains(err.Error(), "line 2") {
				t.Fatalf("error %q should name line 2", err)
			}
		})
	}
}

func TestWriteWAVRoundTrip(t *testing.T) {
	samples, err := RenderTimeline(Chord("z", "y"), RenderConfig{
		SampleRate: 22050,
		Channels:   2,
		Duration:   200 * time.Millisecond,
		Shape:      wave.Triangle,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	path := filepath.Join(t.TempDir(), "chord.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteWAV(f, samples, 22050, 2); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	in, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()
	dec := wav.NewDecoder(in)
	if !dec.IsValidFile() {
		t.Fatal("decoder rejected file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec.SampleRate != 22050 || dec.NumChans != 2 || dec.BitDepth != 16 {
		t.Fatalf("header = %d Hz, %d ch, %d bit", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	if len(buf.Data) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), len(samples))
	}
	for i, v := range buf.Data {
		want := int(math.Round(float64(samples[i]) * 32767))
		if v != want {
			t.Fatalf("sample %d = %d, want %d", i, v, want)
		}
	}
}

func TestWriteWAVValidates(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "x.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := WriteWAV(f, nil, 0, 1); !errors.Is(err, ErrInvalidSampleRate) {
		t.Fatalf("error = %v", err)
	}
	if err := WriteWAV(f, nil, 44100, 0); !errors.Is(err, ErrInvalidChannels) {
		t.Fatalf("error = %v", err)
	}
}
