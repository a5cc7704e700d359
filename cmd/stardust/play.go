package main

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/spf13/cobra"

	"github.com/cbegin/stardust-go"
	"github.com/cbegin/stardust-go/internal/notes"
	"github.com/cbegin/stardust-go/internal/wave"
)

const (
	windowW = 980
	windowH = 460

	textScale = 2
	charW     = 7 * textScale
	lineH     = 14 * textScale

	scopeRingLen = 16384
	scopeSamples = 1024
)

var (
	bgColor        = color.RGBA{192, 192, 192, 255}
	panelColor     = color.RGBA{192, 192, 192, 255}
	borderColor    = color.RGBA{128, 128, 128, 255}
	highlightColor = color.RGBA{0, 0, 128, 255}
	bevelLight     = color.RGBA{255, 255, 255, 255}
	bevelDarker    = color.RGBA{64, 64, 64, 255}
	sunkenBgColor  = color.RGBA{24, 24, 32, 255}
	waveColor      = color.RGBA{120, 220, 255, 255}
	whiteKeyColor  = color.RGBA{250, 250, 250, 255}
	blackKeyColor  = color.RGBA{20, 20, 20, 255}
	heldKeyColor   = color.RGBA{255, 170, 40, 255}
	keyLabelColor  = color.RGBA{90, 90, 90, 255}
)

type playFlags struct {
	channels int
	buffer   time.Duration
}

func newPlayCmd() *cobra.Command {
	var f playFlags
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Open the keyboard window and play live",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(f)
		},
	}
	cmd.Flags().IntVar(&f.channels, "channels", 2, "output channel count")
	cmd.Flags().DurationVar(&f.buffer, "buffer", 0, "device buffer duration (0 = backend default)")
	return cmd
}

func runPlay(f playFlags) error {
	layout, err := resolveLayout()
	if err != nil {
		return err
	}
	shape, err := resolveShape()
	if err != nil {
		return err
	}
	sc := newScope(f.channels)
	syn, err := stardust.New(global.sampleRate,
		stardust.WithLayout(layout),
		stardust.WithShape(shape),
		stardust.WithChannels(f.channels),
		stardust.WithContinuousPhase(global.continuousPhase),
		stardust.WithBufferSize(f.buffer),
		stardust.WithLogger(slog.Default()),
		stardust.WithSampleTap(sc.Tap),
	)
	if err != nil {
		return err
	}
	if err := syn.Start(); err != nil {
		return err
	}
	defer syn.Close()

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowTitle(fmt.Sprintf("Stardust (%s)", layout.Name()))
	return ebiten.RunGame(newUI(syn, sc))
}

// scope keeps the most recent mono samples for the waveform display.
type scope struct {
	mu       sync.Mutex
	channels int
	ring     []float32
	writePos int
}

func newScope(channels int) *scope {
	if channels <= 0 {
		channels = 1
	}
	return &scope{channels: channels, ring: make([]float32, scopeRingLen)}
}

// Tap is called from the audio thread. Keep it minimal: just copy into ring.
func (s *scope) Tap(samples []float32) {
	s.mu.Lock()
	for i := 0; i+s.channels <= len(samples); i += s.channels {
		s.ring[s.writePos] = samples[i]
		s.writePos = (s.writePos + 1) % scopeRingLen
	}
	s.mu.Unlock()
}

// Snapshot copies the last n samples in time order.
func (s *scope) Snapshot(n int) []float32 {
	n = min(n, scopeRingLen)
	out := make([]float32, n)
	s.mu.Lock()
	start := (s.writePos - n + scopeRingLen) % scopeRingLen
	for i := range out {
		out[i] = s.ring[(start+i)%scopeRingLen]
	}
	s.mu.Unlock()
	return out
}

type pianoKey struct {
	note  notes.Note
	rect  image.Rectangle
	black bool
}

type ui struct {
	synth  *stardust.Synth
	scope  *scope
	layout *notes.Layout

	keysBuf  []ebiten.Key
	focused  bool
	mouseKey string // symbol held down with the mouse

	textCache map[string]*ebiten.Image
}

func newUI(syn *stardust.Synth, sc *scope) *ui {
	return &ui{
		synth:     syn,
		scope:     sc,
		layout:    syn.Layout(),
		focused:   true,
		textCache: make(map[string]*ebiten.Image, 128),
	}
}

func (u *ui) Update() error {
	focused := ebiten.IsFocused()
	if u.focused && !focused {
		u.synth.ReleaseAll()
		u.mouseKey = ""
	}
	u.focused = focused

	u.keysBuf = inpututil.AppendJustPressedKeys(u.keysBuf[:0])
	for _, k := range u.keysBuf {
		if sym, ok := keySymbol(k); ok {
			u.synth.Press(sym)
		}
	}
	u.keysBuf = inpututil.AppendJustReleasedKeys(u.keysBuf[:0])
	for _, k := range u.keysBuf {
		if sym, ok := keySymbol(k); ok {
			u.synth.Release(sym)
		}
	}
	u.handleMouse()
	return nil
}

func (u *ui) handleMouse() {
	mx, my := ebiten.CursorPosition()
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		for i, shape := range wave.Shapes() {
			if pointInRect(mx, my, shapeButtonRect(i)) {
				u.synth.SelectShape(shape)
				return
			}
		}
		if k, ok := u.keyAt(mx, my); ok {
			if sym, ok := u.layout.KeyFor(k.note); ok {
				u.mouseDown(sym)
			}
		}
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		u.mouseUp()
	}
}

// mouseDown presses sym on behalf of the mouse. A note the keyboard already
// holds stays owned by the keyboard.
func (u *ui) mouseDown(sym string) {
	if u.synth.Press(sym) {
		u.mouseKey = sym
	}
}

func (u *ui) mouseUp() {
	if u.mouseKey == "" {
		return
	}
	u.synth.Release(u.mouseKey)
	u.mouseKey = ""
}

func (u *ui) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)

	u.drawText(screen, "STARDUST", 20, 16)
	selected := u.synth.Shape()
	for i, shape := range wave.Shapes() {
		u.drawButton(screen, shapeButtonRect(i), shape.String(), shape == selected)
	}

	scopeRect := image.Rect(560, 16, windowW-20, 110)
	drawSunkenPanel(screen, scopeRect)
	drawWaveform(screen, scopeRect, u.scope.Snapshot(scopeSamples))

	u.drawPiano(screen)

	held := u.synth.ActiveNotes()
	status := fmt.Sprintf("shape: %s   voices: %d", selected, len(held))
	if len(held) > 0 {
		status += "  "
		for _, n := range held {
			status += " " + n.String()
		}
	}
	u.drawText(screen, status, 20, windowH-44)
}

func (u *ui) Layout(outsideW, outsideH int) (int, int) {
	return windowW, windowH
}

func shapeButtonRect(i int) image.Rectangle {
	x := 20 + i*130
	return image.Rect(x, 60, x+120, 104)
}

const (
	pianoTop    = 130
	pianoLeft   = 20
	pianoHeight = 230
)

// pianoKeys lays out every note of the two-octave range. Black keys come
// last so they are hit-tested and drawn on top.
func pianoKeys() []pianoKey {
	naturals := notes.Naturals()
	whiteW := (windowW - 2*pianoLeft) / len(naturals)
	blackW := whiteW * 6 / 10
	blackH := pianoHeight * 6 / 10

	var white, black []pianoKey
	col := 0
	for _, n := range notes.All() {
		if n.IsSharp() {
			x := pianoLeft + col*whiteW - blackW/2
			black = append(black, pianoKey{note: n, black: true, rect: image.Rect(x, pianoTop, x+blackW, pianoTop+blackH)})
			continue
		}
		x := pianoLeft + col*whiteW
		white = append(white, pianoKey{note: n, rect: image.Rect(x, pianoTop, x+whiteW, pianoTop+pianoHeight)})
		col++
	}
	return append(white, black...)
}

func (u *ui) keyAt(x, y int) (pianoKey, bool) {
	keys := pianoKeys()
	for i := len(keys) - 1; i >= 0; i-- {
		if pointInRect(x, y, keys[i].rect) {
			return keys[i], true
		}
	}
	return pianoKey{}, false
}

func (u *ui) drawPiano(screen *ebiten.Image) {
	held := make(map[notes.Note]bool)
	for _, n := range u.synth.ActiveNotes() {
		held[n] = true
	}
	for _, k := range pianoKeys() {
		r := k.rect
		fill := whiteKeyColor
		if k.black {
			fill = blackKeyColor
		}
		if held[k.note] {
			fill = heldKeyColor
		}
		ebitenutil.DrawRect(screen, float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()), fill)
		drawSunkenBorder(screen, r)
		if sym, ok := u.layout.KeyFor(k.note); ok {
			u.drawText(screen, sym, r.Min.X+(r.Dx()-charW)/2, r.Max.Y-lineH-6)
		} else if !k.black {
			ebitenutil.DrawRect(screen, float64(r.Min.X+r.Dx()/2-1), float64(r.Max.Y-14), 2, 2, keyLabelColor)
		}
	}
}

func drawWaveform(dst *ebiten.Image, rect image.Rectangle, samples []float32) {
	if len(samples) < 2 {
		return
	}
	midY := float64(rect.Min.Y + rect.Dy()/2)
	half := float64(rect.Dy()/2 - 4)
	w := rect.Dx() - 8
	// The render gain keeps samples within +-0.2; scale that to the panel.
	scale := half / 0.25
	prevX, prevY := 0.0, 0.0
	for px := 0; px < w; px++ {
		s := samples[px*len(samples)/w]
		x := float64(rect.Min.X + 4 + px)
		y := midY - float64(s)*scale
		if px > 0 {
			ebitenutil.DrawLine(dst, prevX, prevY, x, y, waveColor)
		}
		prevX, prevY = x, y
	}
}

func (u *ui) drawButton(screen *ebiten.Image, rect image.Rectangle, label string, selected bool) {
	fill := color.Color(panelColor)
	if selected {
		fill = highlightColor
	}
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), fill)
	if selected {
		drawSunkenBorder(screen, rect)
	} else {
		drawBorder(screen, rect)
	}
	tx := rect.Min.X + (rect.Dx()-len(label)*charW)/2
	ty := rect.Min.Y + (rect.Dy()-lineH)/2 + 4
	u.drawText(screen, label, tx, ty)
}

func drawSunkenPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), sunkenBgColor)
	drawSunkenBorder(screen, rect)
}

func drawBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, bevelLight)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, bevelLight)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelDarker)
	ebitenutil.DrawRect(screen, x+1, y+h-2, w-3, 1, borderColor)
	ebitenutil.DrawRect(screen, x+w-2, y+1, 1, h-3, borderColor)
}

func drawSunkenBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, borderColor)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, borderColor)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelLight)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelLight)
}

func (u *ui) drawText(screen *ebiten.Image, msg string, x int, y int) {
	img, ok := u.textCache[msg]
	if !ok {
		w := len(msg)*7 + 2
		img = ebiten.NewImage(w, 14)
		ebitenutil.DebugPrintAt(img, msg, 0, 0)
		if len(u.textCache) > 512 {
			u.textCache = make(map[string]*ebiten.Image, 128)
		}
		u.textCache[msg] = img
	}
	// Embossed shadow (dark offset behind text).
	opS := &ebiten.DrawImageOptions{}
	opS.GeoM.Scale(textScale, textScale)
	opS.GeoM.Translate(float64(x+2), float64(y+2))
	opS.ColorScale.Scale(0, 0, 0, 1)
	screen.DrawImage(img, opS)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(textScale, textScale)
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(img, op)
}

func pointInRect(x, y int, rect image.Rectangle) bool {
	return x >= rect.Min.X && x < rect.Max.X && y >= rect.Min.Y && y < rect.Max.Y
}
