package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cbegin/stardust-go/internal/notes"
	"github.com/cbegin/stardust-go/internal/wave"
)

var version = "0.1.0"

type globalFlags struct {
	sampleRate      int
	layout          string
	shape           string
	continuousPhase bool
	logLevel        string
}

var global globalFlags

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "stardust",
		Short: "Toy polyphonic keyboard synthesizer",
		Long: `Stardust turns the computer keyboard into a polyphonic synthesizer.
Every held key sounds one note; all notes share one waveform shape.

Layouts:
  two-octave     z s x d c v g b h n j m  (C3-B3)
                 q 2 w 3 e r 5 t 6 y 7 u  (C4-B4)
                 i 9 o 0 p [              (C5-F5)
  single-octave  a w s e d f t g y h u j k (C4-C5)`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogger(global.logLevel)
		},
	}
	pf := root.PersistentFlags()
	pf.IntVar(&global.sampleRate, "sample-rate", 48000, "output sample rate in Hz")
	pf.StringVar(&global.layout, "layout", "two-octave", "keyboard layout: two-octave|single-octave")
	pf.StringVar(&global.shape, "shape", "sine", "initial waveform: sine|triangle|saw|square|unset")
	pf.BoolVar(&global.continuousPhase, "continuous-phase", false, "keep voice phase continuous across the one-second clock wrap")
	pf.StringVar(&global.logLevel, "log-level", "info", "log level: debug|info|warn|error")

	root.AddCommand(newPlayCmd(), newRenderCmd(), newKeysCmd())
	return root
}

func initLogger(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
	return nil
}

func resolveLayout() (*notes.Layout, error) {
	return notes.ParseLayout(global.layout)
}

func resolveShape() (wave.Shape, error) {
	if strings.EqualFold(strings.TrimSpace(global.shape), "unset") {
		return wave.Unset, nil
	}
	return wave.ParseShape(global.shape)
}

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Print the key bindings of the selected layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := resolveLayout()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s layout\n", layout.Name())
			for _, b := range layout.Keys() {
				fmt.Fprintf(out, "  %-2s %-4s %7.2f Hz\n", b.Symbol, b.Note, b.Note.Freq())
			}
			return nil
		},
	}
}
