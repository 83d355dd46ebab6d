// Package app wires the configured video sources into a carousel on a host HAL.
package app

import (
	"errors"
	"fmt"

	"carousel/carousel"
	"carousel/hal"
	"carousel/internal/buildinfo"
	"carousel/internal/config"
	"carousel/video"
)

// New opens every configured source on a shared clock, builds the carousel and attaches
// it to the host display. The returned step advances the clock by the host delta and
// animates one tick. The returned release closes every source.
func New(h hal.HAL, cfg config.Config) (step, release func() error, err error) {
	log := h.Logger()
	clock := video.NewClock()

	sources := make([]video.Source, 0, len(cfg.Videos))
	for _, spec := range cfg.Videos {
		src, err := video.Open(clock, spec, cfg.VideoOptions())
		if err != nil {
			return nil, nil, errors.Join(fmt.Errorf("app: open %q: %w", spec, err), closeAll(sources))
		}
		log.Debug("app: source opened", "spec", spec, "type", fmt.Sprintf("%T", src))
		sources = append(sources, src)
	}

	w, hh := h.Viewport()
	c, err := carousel.New(sources, carousel.Viewport{Width: w, Height: hh},
		carousel.WithLogger(log),
		carousel.WithConfig(cfg.Carousel()),
	)
	if err != nil {
		return nil, nil, errors.Join(err, closeAll(sources))
	}
	if err := c.SetupScene(h.Display()); err != nil {
		return nil, nil, errors.Join(err, closeAll(sources))
	}

	log.Info("carousel started",
		buildinfo.Attr(),
		"videos", len(sources),
		"faces", c.FaceCount(),
		"headless", cfg.Headless)

	t := h.Time()
	step = guard(h, func() error {
		clock.Advance(t.Delta())
		c.Animate()
		return nil
	})
	release = func() error {
		log.Info("carousel stopped", "frames", c.Frames())
		return closeAll(sources)
	}
	return step, release, nil
}

func closeAll(sources []video.Source) error {
	var errs []error
	for _, src := range sources {
		errs = append(errs, video.Close(src))
	}
	return errors.Join(errs...)
}
