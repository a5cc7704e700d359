package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// SampleSource fills dst with interleaved float32 frames. It is called from
// the backend's audio goroutine.
type SampleSource interface {
	Process(dst []float32)
}

// StreamReader adapts a SampleSource to the float32 little-endian byte
// stream oto pulls from. Only whole frames are produced.
type StreamReader struct {
	mu       sync.Mutex
	source   SampleSource
	channels int
	buf      []float32
}

func NewStreamReader(source SampleSource, channels int) *StreamReader {
	if channels <= 0 {
		channels = 1
	}
	return &StreamReader{source: source, channels: channels}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frameBytes := 4 * r.channels
	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, nil
	}
	need := frames * r.channels
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i := 0; i < need; i++ {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(r.buf[i]))
	}
	return frames * frameBytes, nil
}

func (r *StreamReader) Close() error { return nil }

// Config describes the output stream.
type Config struct {
	SampleRate int
	Channels   int
	// BufferSize is the device buffer duration; zero lets oto choose.
	BufferSize time.Duration
	// OnError receives stream faults reported by the device. It is called
	// from a monitor goroutine, once per distinct error.
	OnError func(error)
}

type Player struct {
	player *oto.Player
	reader io.ReadCloser
	stop   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

var (
	otoContextOnce sync.Once
	otoContext     *oto.Context
	otoContextErr  error
	otoContextOpts oto.NewContextOptions
)

// sharedContext opens the process-wide oto context. oto supports a single
// context per process, so later calls must ask for the same format.
func sharedContext(cfg Config) (*oto.Context, error) {
	otoContextOnce.Do(func() {
		otoContextOpts = oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: cfg.Channels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   cfg.BufferSize,
		}
		ctx, ready, err := oto.NewContext(&otoContextOpts)
		if err != nil {
			otoContextErr = fmt.Errorf("open audio device: %w", err)
			return
		}
		<-ready
		otoContext = ctx
	})
	if otoContextErr != nil {
		return nil, otoContextErr
	}
	if otoContextOpts.SampleRate != cfg.SampleRate || otoContextOpts.ChannelCount != cfg.Channels {
		return nil, fmt.Errorf("audio context already initialized at %d Hz x%d (requested %d Hz x%d)",
			otoContextOpts.SampleRate, otoContextOpts.ChannelCount, cfg.SampleRate, cfg.Channels)
	}
	return otoContext, nil
}

func NewPlayer(cfg Config, source SampleSource) (*Player, error) {
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	ctx, err := sharedContext(cfg)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source, cfg.Channels)
	p := &Player{
		player: ctx.NewPlayer(reader),
		reader: reader,
		stop:   make(chan struct{}),
	}
	if cfg.OnError != nil {
		p.wg.Add(1)
		go p.monitor(ctx, p.player, monitorInterval, cfg.OnError)
	}
	return p, nil
}

const monitorInterval = 250 * time.Millisecond

// errSource is the sticky error accessor shared by oto.Context and
// oto.Player.
type errSource interface {
	Err() error
}

// monitor polls both error sources every interval and passes each new error
// to onError once. It returns when p.stop is closed.
func (p *Player) monitor(ctx, player errSource, interval time.Duration, onError func(error)) {
	defer p.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var lastCtx, lastPlayer error
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
		}
		if err := ctx.Err(); err != nil && err != lastCtx {
			lastCtx = err
			onError(fmt.Errorf("audio context: %w", err))
		}
		if err := player.Err(); err != nil && err != lastPlayer {
			lastPlayer = err
			onError(fmt.Errorf("audio stream: %w", err))
		}
	}
}

func (p *Player) stopMonitor() {
	close(p.stop)
	p.wg.Wait()
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }
func (p *Player) IsPlaying() bool {
	return p.player.IsPlaying()
}

// Close stops playback and the error monitor. It is safe to call twice.
func (p *Player) Close() error {
	var err error
	p.once.Do(func() {
		p.stopMonitor()
		p.player.Pause()
		err = p.player.Close()
		if cerr := p.reader.Close(); err == nil {
			err = cerr
		}
	})
	return err
}
