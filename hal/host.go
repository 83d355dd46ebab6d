package hal

import (
	"image"
	"io"
	"log/slog"
	"os"
	"sync"
)

type hostHAL struct {
	cfg     Config
	sink    *hostLogger
	log     *slog.Logger
	display *hostDisplay
	t       *hostTime
}

// New returns a host HAL logging to stdout.
func New(cfg Config) HAL {
	return newHost(cfg, os.Stdout)
}

func newHost(cfg Config, w io.Writer) *hostHAL {
	cfg = cfg.withDefaults()
	sink := &hostLogger{w: w}
	return &hostHAL{
		cfg:     cfg,
		sink:    sink,
		log:     slog.New(slog.NewTextHandler(sink, &slog.HandlerOptions{Level: cfg.LogLevel})),
		display: &hostDisplay{},
		t:       &hostTime{},
	}
}

func (h *hostHAL) Logger() *slog.Logger { return h.log }
func (h *hostHAL) Display() Display     { return h.display }
func (h *hostHAL) Viewport() (int, int) { return h.cfg.Width, h.cfg.Height }
func (h *hostHAL) Time() Time           { return h.t }

// hostLogger serializes writes from every logger sharing the sink.
type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

type hostDisplay struct {
	mu  sync.Mutex
	img *image.RGBA
}

func (d *hostDisplay) Attach(img *image.RGBA) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.img = img
}

func (d *hostDisplay) Surface() *image.RGBA {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.img
}

// snapshot copies the attached surface into dst, reallocating it when the size changed.
// It returns nil when nothing is attached.
func (d *hostDisplay) snapshot(dst *image.RGBA) *image.RGBA {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.img == nil {
		return nil
	}
	b := d.img.Bounds()
	if dst == nil || dst.Bounds().Dx() != b.Dx() || dst.Bounds().Dy() != b.Dy() {
		dst = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	rowBytes := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		so := d.img.PixOffset(b.Min.X, b.Min.Y+y)
		do := y * dst.Stride
		copy(dst.Pix[do:do+rowBytes], d.img.Pix[so:so+rowBytes])
	}
	return dst
}
