// Package hal is the contact point between the carousel and the host: a display the
// render surface is attached to, the viewport size, a playback clock and logging.
package hal

import (
	"image"
	"log/slog"
	"time"
)

// Display shows an attached RGBA surface. The surface is read on every present, so the
// owner keeps drawing into the same image.
type Display interface {
	Attach(img *image.RGBA)
	Surface() *image.RGBA
}

// Time reports host time as seen by the tick loop.
type Time interface {
	// Now is the time elapsed since the first tick.
	Now() time.Duration
	// Delta is the step taken by the most recent tick.
	Delta() time.Duration
}

// HAL provides the only contact point between the app and the outside world.
type HAL interface {
	Logger() *slog.Logger
	Display() Display
	// Viewport is the host display size. It is read once at startup.
	Viewport() (w, h int)
	Time() Time
}

// Config describes the host window or headless surface.
type Config struct {
	Width    int
	Height   int
	LogLevel slog.Level
}

func (c Config) withDefaults() Config {
	if c.Width <= 0 {
		c.Width = 960
	}
	if c.Height <= 0 {
		c.Height = 540
	}
	return c
}

// NewApp builds the app against h and returns its per-tick step and a release func
// the runner calls once the loop ends. Either may be nil.
type NewApp func(h HAL) (step func() error, release func() error, err error)
