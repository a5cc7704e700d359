package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cbegin/stardust-go"
)

type renderFlags struct {
	script   string
	keys     string
	seconds  float64
	out      string
	channels int
}

func newRenderCmd() *cobra.Command {
	var f renderFlags
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a chord or an event script to a WAV file",
		Long: `Render audio offline through the same state and render callback used
for live playback.

Script format, one event per line:
  <seconds> press <key>
  <seconds> release <key>
  <seconds> shape <sine|triangle|saw|square>

Examples:
  stardust render --keys "q e t" --shape square --seconds 2 -o chord.wav
  stardust render --script melody.txt -o melody.wav`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(f)
		},
	}
	cmd.Flags().StringVar(&f.script, "script", "", "path to an event script")
	cmd.Flags().StringVar(&f.keys, "keys", "", "keys held for the whole render, space separated")
	cmd.Flags().Float64Var(&f.seconds, "seconds", 2, "length of the render in seconds")
	cmd.Flags().StringVarP(&f.out, "out", "o", "stardust.wav", "output WAV path")
	cmd.Flags().IntVar(&f.channels, "channels", 1, "output channel count")
	return cmd
}

func runRender(f renderFlags) error {
	layout, err := resolveLayout()
	if err != nil {
		return err
	}
	shape, err := resolveShape()
	if err != nil {
		return err
	}
	if f.channels <= 0 {
		return fmt.Errorf("--channels must be positive, got %d", f.channels)
	}
	if f.seconds <= 0 {
		return fmt.Errorf("--seconds must be positive, got %v", f.seconds)
	}

	var tl stardust.Timeline
	switch {
	case f.script != "":
		in, err := os.Open(f.script)
		if err != nil {
			return err
		}
		defer in.Close()
		tl, err = stardust.ParseTimeline(in)
		if err != nil {
			return fmt.Errorf("%s: %w", f.script, err)
		}
	case strings.TrimSpace(f.keys) != "":
		tl = stardust.Chord(strings.Fields(f.keys)...)
	default:
		return fmt.Errorf("nothing to render: pass --keys or --script")
	}

	start := time.Now()
	samples, err := stardust.RenderTimeline(tl, stardust.RenderConfig{
		SampleRate:      global.sampleRate,
		Channels:        f.channels,
		Duration:        time.Duration(f.seconds * float64(time.Second)),
		Layout:          layout,
		Shape:           shape,
		ContinuousPhase: global.continuousPhase,
	})
	if err != nil {
		return err
	}

	out, err := os.Create(f.out)
	if err != nil {
		return err
	}
	if err := stardust.WriteWAV(out, samples, global.sampleRate, f.channels); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	slog.Info("rendered",
		slog.String("path", f.out),
		slog.Int("events", len(tl)),
		slog.Int("samples", len(samples)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}
