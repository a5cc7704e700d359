package stardust

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	intaudio "github.com/cbegin/stardust-go/internal/audio"
	"github.com/cbegin/stardust-go/internal/input"
	"github.com/cbegin/stardust-go/internal/notes"
	"github.com/cbegin/stardust-go/internal/synth"
	"github.com/cbegin/stardust-go/internal/wave"
)

var (
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrInvalidChannels   = errors.New("channel count must be positive")
	ErrAlreadyStarted    = errors.New("synth already started")
)

type Option func(*config)

type config struct {
	layout     *notes.Layout
	shape      wave.Shape
	channels   int
	gain       float64
	continuous bool
	bufferSize time.Duration
	logger     *slog.Logger
	onError    func(error)
	sampleTap  func([]float32)
}

func defaultConfig() config {
	return config{
		layout:   notes.TwoOctave,
		shape:    wave.Sine,
		channels: 2,
		gain:     synth.DefaultGain,
	}
}

func WithLayout(l *notes.Layout) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.layout = l
		}
	}
}

// WithShape sets the initial waveform. wave.Unset starts with nothing
// selected; it renders as a sine until a shape is chosen.
func WithShape(s wave.Shape) Option {
	return func(cfg *config) {
		cfg.shape = s
	}
}

func WithChannels(n int) Option {
	return func(cfg *config) {
		cfg.channels = n
	}
}

func WithGain(g float64) Option {
	return func(cfg *config) {
		cfg.gain = g
	}
}

func WithContinuousPhase(enabled bool) Option {
	return func(cfg *config) {
		cfg.continuous = enabled
	}
}

// WithBufferSize sets the device buffer duration. Zero lets the backend pick.
func WithBufferSize(d time.Duration) Option {
	return func(cfg *config) {
		cfg.bufferSize = d
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = l
	}
}

// WithErrorHandler installs the sink for audio stream faults. The default
// logs them at error level.
func WithErrorHandler(fn func(error)) Option {
	return func(cfg *config) {
		cfg.onError = fn
	}
}

// WithSampleTap installs a callback invoked with each rendered buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) Option {
	return func(cfg *config) {
		cfg.sampleTap = tap
	}
}

// Synth owns the shared note state, the render callback that reads it and
// the live output stream.
type Synth struct {
	mu         sync.Mutex
	sampleRate int
	cfg        config
	logger     *slog.Logger
	state      *synth.State
	renderer   *synth.Renderer
	dispatcher *input.Dispatcher
	audio      *intaudio.Player
}

// tappedSource forwards rendered buffers to an observer after filling them.
type tappedSource struct {
	src intaudio.SampleSource
	tap func([]float32)
}

func (t *tappedSource) Process(dst []float32) {
	t.src.Process(dst)
	t.tap(dst)
}

func New(sampleRate int, opts ...Option) (*Synth, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.channels <= 0 {
		return nil, ErrInvalidChannels
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	state := synth.NewState(cfg.shape)
	return &Synth{
		sampleRate: sampleRate,
		cfg:        cfg,
		logger:     logger,
		state:      state,
		renderer: synth.NewRenderer(state, sampleRate,
			synth.WithChannels(cfg.channels),
			synth.WithGain(cfg.gain),
			synth.WithContinuousPhase(cfg.continuous),
		),
		dispatcher: input.NewDispatcher(state, cfg.layout, logger),
	}, nil
}

// Start opens the audio device and begins pulling buffers from the render
// callback. The stream runs until Close.
func (s *Synth) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audio != nil {
		return ErrAlreadyStarted
	}
	var src intaudio.SampleSource = s.renderer
	if s.cfg.sampleTap != nil {
		src = &tappedSource{src: s.renderer, tap: s.cfg.sampleTap}
	}
	backend, err := intaudio.NewPlayer(intaudio.Config{
		SampleRate: s.sampleRate,
		Channels:   s.cfg.channels,
		BufferSize: s.cfg.bufferSize,
		OnError:    s.errorHandler(),
	}, src)
	if err != nil {
		return err
	}
	s.audio = backend
	s.audio.Play()
	s.logger.Info("audio started",
		slog.Int("sample_rate", s.sampleRate),
		slog.Int("channels", s.cfg.channels),
		slog.String("layout", s.cfg.layout.Name()),
	)
	return nil
}

// errorHandler returns the configured stream fault sink, or one that logs at
// error level.
func (s *Synth) errorHandler() func(error) {
	if s.cfg.onError != nil {
		return s.cfg.onError
	}
	return func(err error) {
		s.logger.Error("audio stream error", slog.Any("error", err))
	}
}

func (s *Synth) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audio == nil {
		return nil
	}
	err := s.audio.Close()
	s.audio = nil
	return err
}

func (s *Synth) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audio != nil && s.audio.IsPlaying()
}

// Dispatch applies a control event and reports whether it changed what is
// heard.
func (s *Synth) Dispatch(ev input.Event) bool {
	return s.dispatcher.Dispatch(ev)
}

func (s *Synth) Press(symbol string) bool   { return s.Dispatch(input.Press(symbol)) }
func (s *Synth) Release(symbol string) bool { return s.Dispatch(input.Release(symbol)) }
func (s *Synth) ReleaseAll() bool           { return s.Dispatch(input.LoseFocus()) }
func (s *Synth) SelectShape(shape wave.Shape) bool {
	return s.Dispatch(input.SelectShape(shape))
}

// Shape returns the selected shape, wave.Unset if none has been chosen.
func (s *Synth) Shape() wave.Shape { return s.state.Shape() }

// ActiveNotes returns the held notes in ascending pitch order.
func (s *Synth) ActiveNotes() []notes.Note { return s.state.Active() }

func (s *Synth) Layout() *notes.Layout { return s.cfg.layout }
func (s *Synth) SampleRate() int       { return s.sampleRate }
func (s *Synth) Channels() int         { return s.cfg.channels }
