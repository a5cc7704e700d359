package stardust

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/cbegin/stardust-go/internal/notes"
	"github.com/cbegin/stardust-go/internal/wave"
)

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(0); !errors.Is(err, ErrInvalidSampleRate) {
		t.Fatalf("New(0) error = %v", err)
	}
	if _, err := New(48000, WithChannels(0)); !errors.Is(err, ErrInvalidChannels) {
		t.Fatalf("New with 0 channels error = %v", err)
	}
}

func TestSynthControlSurface(t *testing.T) {
	s, err := New(48000, WithLayout(notes.SingleOctave), WithShape(wave.Unset))
	if err != nil {
		t.Fatalf("new synth: %v", err)
	}
	if s.Shape() != wave.Unset {
		t.Fatalf("initial shape = %s, want unset", s.Shape())
	}
	if s.Layout() != notes.SingleOctave || s.Channels() != 2 || s.SampleRate() != 48000 {
		t.Fatal("configuration not applied")
	}
	if !s.Press("a") || s.Press("a") || s.Press("z") {
		t.Fatal("press should be idempotent and ignore unmapped keys")
	}
	s.Press("h")
	got := s.ActiveNotes()
	if len(got) != 2 || got[0] != notes.C4 || got[1] != notes.A4 {
		t.Fatalf("active = %v, want [C4 A4]", got)
	}
	if !s.SelectShape(wave.Triangle) || s.Shape() != wave.Triangle {
		t.Fatalf("shape = %s, want triangle", s.Shape())
	}
	if s.Release("k") {
		t.Fatal("releasing an unheld key should be a no-op")
	}
	if !s.ReleaseAll() || len(s.ActiveNotes()) != 0 {
		t.Fatal("ReleaseAll should clear held notes")
	}
	if s.Playing() {
		t.Fatal("synth should not be playing before Start")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close before start: %v", err)
	}
}

func TestDefaultErrorHandlerLogs(t *testing.T) {
	var logs bytes.Buffer
	s, err := New(48000, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	if err != nil {
		t.Fatal(err)
	}
	s.errorHandler()(errors.New("underrun"))
	out := logs.String()
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "error=underrun") {
		t.Fatalf("log = %q, want error-level entry carrying the fault", out)
	}
}

func TestErrorHandlerOption(t *testing.T) {
	var logs bytes.Buffer
	var got error
	s, err := New(48000,
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		WithErrorHandler(func(err error) { got = err }),
	)
	if err != nil {
		t.Fatal(err)
	}
	fault := errors.New("device lost")
	s.errorHandler()(fault)
	if got != fault {
		t.Fatalf("handler received %v, want %v", got, fault)
	}
	if logs.Len() != 0 {
		t.Fatalf("custom handler should replace logging, got %q", logs.String())
	}
}
