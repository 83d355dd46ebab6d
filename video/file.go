//go:build cgo

package video

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/cogentcore/reisen"
)

const (
	fileFrameBuffer = 32
	fileEnoughAhead = 8
)

type decodedFrame struct {
	img *image.RGBA
	pts time.Duration
}

// File plays the first video stream of a container file decoded through ffmpeg.
//
// A decoder goroutine fills a bounded frame buffer; readiness reflects how much of it
// is filled. Frames are presented once the clock passes their presentation offset.
type File struct {
	clock *Clock
	start time.Duration
	fps   float64

	media  *reisen.Media
	stream *reisen.VideoStream

	frames chan decodedFrame
	done   chan struct{}

	// release frees the decoder once the decode goroutine has stopped.
	release   func() error
	closeOnce sync.Once
	closeErr  error

	mu    sync.Mutex
	err   error
	ended bool

	cur  decodedFrame
	next *decodedFrame
}

// OpenFile opens path and starts decoding its first video stream.
func OpenFile(clock *Clock, path string) (*File, error) {
	if clock == nil {
		clock = NewClock()
	}
	media, err := reisen.NewMedia(path)
	if err != nil {
		return nil, fmt.Errorf("video: open %s: %w", path, err)
	}
	streams := media.VideoStreams()
	if len(streams) == 0 {
		media.Close()
		return nil, fmt.Errorf("video: %s: %w", path, ErrNoFrames)
	}
	if err := media.OpenDecode(); err != nil {
		media.Close()
		return nil, fmt.Errorf("video: decode %s: %w", path, err)
	}
	stream := streams[0]
	if err := stream.Open(); err != nil {
		media.CloseDecode()
		media.Close()
		return nil, fmt.Errorf("video: open stream %s: %w", path, err)
	}

	num, den := stream.FrameRate()
	fps := 30.0
	if num > 0 && den > 0 {
		fps = float64(num) / float64(den)
	}

	f := &File{
		clock:  clock,
		start:  clock.Now(),
		fps:    fps,
		media:  media,
		stream: stream,
		frames: make(chan decodedFrame, fileFrameBuffer),
		done:   make(chan struct{}),
	}
	f.release = func() error {
		return errors.Join(stream.Close(), media.CloseDecode(), closeMedia(media))
	}
	go f.decode()
	return f, nil
}

func (f *File) decode() {
	defer close(f.frames)
	var n int64
	for {
		packet, gotPacket, err := f.media.ReadPacket()
		if err != nil {
			f.fail(err)
			return
		}
		if !gotPacket {
			return
		}
		if packet.Type() != reisen.StreamVideo {
			continue
		}
		s, ok := f.media.Streams()[packet.StreamIndex()].(*reisen.VideoStream)
		if !ok || s != f.stream {
			continue
		}
		frame, gotFrame, err := s.ReadVideoFrame()
		if err != nil {
			f.fail(err)
			return
		}
		if !gotFrame || frame == nil {
			continue
		}
		pts, err := frame.PresentationOffset()
		if err != nil {
			pts = time.Duration(float64(n) / f.fps * float64(time.Second))
		}
		n++

		select {
		case f.frames <- decodedFrame{img: frame.Image(), pts: pts}:
		case <-f.done:
			return
		}
	}
}

func (f *File) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err == nil {
		f.err = err
	}
}

// advance presents every buffered frame due at the current clock time.
func (f *File) advance() {
	pos := f.clock.Now() - f.start
	for {
		if f.next == nil {
			select {
			case fr, ok := <-f.frames:
				if !ok {
					f.ended = true
					return
				}
				f.next = &fr
			default:
				return
			}
		}
		if f.cur.img != nil && f.next.pts > pos {
			return
		}
		f.cur = *f.next
		f.next = nil
	}
}

func (f *File) ReadyState() ReadyState {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advance()
	if f.cur.img == nil {
		if f.err != nil || f.ended {
			return HaveNothing
		}
		return HaveMetadata
	}
	if f.ended {
		return HaveEnoughData
	}
	ahead := len(f.frames)
	if f.next != nil {
		ahead++
	}
	switch {
	case ahead >= fileEnoughAhead:
		return HaveEnoughData
	case ahead > 0:
		return HaveFutureData
	default:
		return HaveCurrentData
	}
}

// CurrentTime is the presentation offset of the frame on display.
func (f *File) CurrentTime() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advance()
	return f.cur.pts.Seconds()
}

func (f *File) Frame() image.Image {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advance()
	if f.cur.img == nil {
		return nil
	}
	return f.cur.img
}

// Err returns the first decode error.
func (f *File) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Close stops decoding and releases the media. Later calls return the first result.
func (f *File) Close() error {
	f.closeOnce.Do(func() {
		close(f.done)
		for range f.frames {
		}
		if f.release != nil {
			f.closeErr = f.release()
		}
	})
	return f.closeErr
}

func closeMedia(m *reisen.Media) error {
	m.Close()
	return nil
}
