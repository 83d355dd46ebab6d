package video

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
)

// PatternOptions configure a synthetic test pattern.
type PatternOptions struct {
	Width  int
	Height int
	FPS    float64
	Label  string

	// Preroll is how long the pattern reports HaveMetadata before it starts playing.
	Preroll time.Duration
}

// Pattern is a synthetic source of scrolling colour bars with a label and timecode.
type Pattern struct {
	clock *Clock
	opts  PatternOptions
	start time.Duration

	img   *image.RGBA
	drawn int64
}

var bars = [...]color.RGBA{
	{0xC0, 0xC0, 0xC0, 0xFF},
	{0xC0, 0xC0, 0x00, 0xFF},
	{0x00, 0xC0, 0xC0, 0xFF},
	{0x00, 0xC0, 0x00, 0xFF},
	{0xC0, 0x00, 0xC0, 0xFF},
	{0xC0, 0x00, 0x00, 0xFF},
	{0x00, 0x00, 0xC0, 0xFF},
}

// NewPattern creates a pattern that starts playing on clock after opts.Preroll.
func NewPattern(clock *Clock, opts PatternOptions) *Pattern {
	if opts.Width <= 0 {
		opts.Width = 256
	}
	if opts.Height <= 0 {
		opts.Height = 256
	}
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if clock == nil {
		clock = NewClock()
	}
	return &Pattern{
		clock: clock,
		opts:  opts,
		start: clock.Now(),
		img:   image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height)),
		drawn: -1,
	}
}

func (p *Pattern) elapsed() time.Duration {
	return p.clock.Now() - p.start - p.opts.Preroll
}

func (p *Pattern) ReadyState() ReadyState {
	if p.elapsed() < 0 {
		return HaveMetadata
	}
	return HaveEnoughData
}

// CurrentTime is quantized to frame boundaries so it only changes on a new frame.
func (p *Pattern) CurrentTime() float64 {
	return float64(frameIndex(p.elapsed(), p.opts.FPS)) / p.opts.FPS
}

func (p *Pattern) Frame() image.Image {
	idx := frameIndex(p.elapsed(), p.opts.FPS)
	if idx != p.drawn {
		p.render(idx)
		p.drawn = idx
	}
	return p.img
}

// Label returns the text drawn on every frame.
func (p *Pattern) Label() string { return p.opts.Label }

func (p *Pattern) render(idx int64) {
	w, h := p.opts.Width, p.opts.Height
	barW := (w + len(bars) - 1) / len(bars)
	shift := int(idx % int64(w))
	for y := 0; y < h; y++ {
		row := y * p.img.Stride
		for x := 0; x < w; x++ {
			c := bars[((x+shift)%w)/barW]
			off := row + x*4
			p.img.Pix[off+0] = c.R
			p.img.Pix[off+1] = c.G
			p.img.Pix[off+2] = c.B
			p.img.Pix[off+3] = c.A
		}
	}

	// Sweep line marks the frame position independently of the text.
	sweep := int(idx % int64(h))
	for x := 0; x < w; x++ {
		p.img.SetRGBA(x, sweep, color.RGBA{0xFF, 0xFF, 0xFF, 0xFF})
	}

	d := &frameDisplay{img: p.img}
	font := &freemono.Bold12pt7b
	fg := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	bg := color.RGBA{A: 0xFF}

	lines := []string{p.opts.Label, timecode(idx, p.opts.FPS)}
	y := int16(h/2) - 12
	for _, s := range lines {
		if s == "" {
			continue
		}
		_, tw := tinyfont.LineWidth(font, s)
		x := int16(w/2) - int16(tw/2)
		d.fillRect(int(x)-4, int(y)-18, int(tw)+8, 24, bg)
		tinyfont.WriteLine(d, font, x, y, s, fg)
		y += 28
	}
}

func timecode(idx int64, fps float64) string {
	secs := int64(float64(idx) / fps)
	frame := idx - int64(float64(secs)*fps)
	return fmt.Sprintf("%02d:%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60, frame)
}

// frameDisplay lets tinyfont draw into an RGBA frame.
type frameDisplay struct {
	img *image.RGBA
}

var _ drivers.Displayer = (*frameDisplay)(nil)

func (d *frameDisplay) Size() (x, y int16) {
	b := d.img.Bounds()
	return int16(b.Dx()), int16(b.Dy())
}

func (d *frameDisplay) SetPixel(x, y int16, c color.RGBA) {
	if !(image.Point{X: int(x), Y: int(y)}.In(d.img.Bounds())) {
		return
	}
	d.img.SetRGBA(int(x), int(y), c)
}

func (d *frameDisplay) Display() error { return nil }

func (d *frameDisplay) SetRotation(rotation drivers.Rotation) error {
	_ = rotation
	return nil
}

func (d *frameDisplay) fillRect(x, y, w, h int, c color.RGBA) {
	r := image.Rect(x, y, x+w, y+h).Intersect(d.img.Bounds())
	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			d.img.SetRGBA(px, py, c)
		}
	}
}
