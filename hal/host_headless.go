package hal

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Enabled bool
	Hz      int
	Ticks   uint64
	// Snapshot, when set, is a PNG path the attached surface is written to on exit.
	Snapshot string
}

// RunHeadless drives the app from a ticker without opening a window. Time advances by
// exactly 1/Hz per tick.
func RunHeadless(ctx context.Context, cfg Config, hc HeadlessConfig, newApp NewApp) error {
	return runHeadless(ctx, newHost(cfg, os.Stdout), hc, newApp)
}

func runHeadless(ctx context.Context, h *hostHAL, cfg HeadlessConfig, newApp NewApp) (err error) {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	step, release, err := newApp(h)
	if err != nil {
		return err
	}
	if release != nil {
		defer func() {
			if rerr := release(); rerr != nil && err == nil {
				err = rerr
			}
		}()
	}

	if cfg.Snapshot != "" {
		defer func() {
			if serr := writeSnapshot(h.display, cfg.Snapshot); serr != nil && err == nil {
				err = serr
			}
		}()
	}

	t := time.NewTicker(d)
	defer t.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			h.log.Info("headless: stopped", "ticks", tick)
			return ctx.Err()
		case <-t.C:
			h.t.step(d)
			if step != nil {
				if err := step(); err != nil {
					return err
				}
			}
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				h.log.Info("headless: tick limit reached", "ticks", tick)
				return nil
			}
		}
	}
}

func writeSnapshot(d *hostDisplay, path string) error {
	img := d.snapshot(nil)
	if img == nil {
		return fmt.Errorf("snapshot %s: no surface attached", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("snapshot %s: %w", path, err)
	}
	return f.Close()
}
