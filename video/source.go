// Package video provides playable frame sources for the carousel.
//
// A Source is polled once per animation tick: ReadyState says whether a frame can be
// presented, CurrentTime is the playback position in seconds and Frame returns the
// image at that position. Sources never block the caller.
package video

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strings"
	"time"
)

// ReadyState mirrors the readiness levels of a media element.
type ReadyState uint8

const (
	HaveNothing ReadyState = iota
	HaveMetadata
	HaveCurrentData
	HaveFutureData
	HaveEnoughData
)

func (s ReadyState) String() string {
	switch s {
	case HaveNothing:
		return "HAVE_NOTHING"
	case HaveMetadata:
		return "HAVE_METADATA"
	case HaveCurrentData:
		return "HAVE_CURRENT_DATA"
	case HaveFutureData:
		return "HAVE_FUTURE_DATA"
	case HaveEnoughData:
		return "HAVE_ENOUGH_DATA"
	default:
		return fmt.Sprintf("ReadyState(%d)", uint8(s))
	}
}

// Source is a streaming video handle. The caller owns its lifecycle.
type Source interface {
	ReadyState() ReadyState
	CurrentTime() float64
	Frame() image.Image
}

// Clock is the shared playback clock. The host advances it once per tick.
type Clock struct {
	now time.Duration
}

func NewClock() *Clock { return &Clock{} }

// Advance moves the clock forward; non-positive steps are ignored.
func (c *Clock) Advance(d time.Duration) {
	if d > 0 {
		c.now += d
	}
}

// Now returns the time elapsed since the clock was created.
func (c *Clock) Now() time.Duration { return c.now }

var (
	// ErrUnsupported is returned for sources that cannot be opened in this build.
	ErrUnsupported = errors.New("video: unsupported source")
	// ErrNoFrames is returned when a frame directory holds no decodable images.
	ErrNoFrames = errors.New("video: no frames")
)

// Options configure sources opened with Open.
type Options struct {
	// FPS is the frame rate of patterns and still-frame sequences.
	FPS float64
	// Preroll delays pattern readiness.
	Preroll time.Duration
	// Loop restarts sequences after the last frame.
	Loop bool
}

func (o Options) withDefaults() Options {
	if o.FPS <= 0 {
		o.FPS = 30
	}
	return o
}

// Open opens a source from a spec string:
//
//	pattern:<label>   synthetic test pattern
//	dir:<path>        still-frame directory
//	live:<path>       still-frame directory that keeps receiving frames
//	file:<path>       container file
//
// A bare path opens a directory as a sequence and anything else as a file.
func Open(clock *Clock, spec string, opts Options) (Source, error) {
	opts = opts.withDefaults()
	kind, arg, ok := strings.Cut(spec, ":")
	if !ok || !knownKind(kind) {
		kind, arg = "", spec
	}
	if arg == "" && kind != "pattern" {
		return nil, fmt.Errorf("video: empty source spec %q", spec)
	}

	if kind == "" {
		fi, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("video: %w", err)
		}
		kind = "file"
		if fi.IsDir() {
			kind = "dir"
		}
	}

	switch kind {
	case "pattern":
		return NewPattern(clock, PatternOptions{Label: arg, FPS: opts.FPS, Preroll: opts.Preroll}), nil
	case "dir", "live":
		s, err := OpenSequence(clock, arg, SequenceOptions{FPS: opts.FPS, Loop: opts.Loop, Live: kind == "live"})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		f, err := OpenFile(clock, arg)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
}

func knownKind(kind string) bool {
	switch kind {
	case "pattern", "dir", "live", "file":
		return true
	}
	return false
}

// Close releases resources held by src, if it holds any.
func Close(src Source) error {
	if c, ok := src.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func frameIndex(elapsed time.Duration, fps float64) int64 {
	if elapsed <= 0 || fps <= 0 {
		return 0
	}
	return int64(elapsed.Seconds() * fps)
}
