package video

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var frameExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// IsFrameFile reports whether name has a still-image extension Sequence can decode.
func IsFrameFile(name string) bool {
	return frameExts[strings.ToLower(filepath.Ext(name))]
}

// SequenceOptions configure a still-frame sequence.
type SequenceOptions struct {
	FPS  float64
	Loop bool

	// Live watches the directory and appends frames as they are created.
	Live bool
	// Ahead is how many frames a live sequence must hold past the playhead to
	// report HaveEnoughData.
	Ahead int
}

// Sequence plays a directory of still frames in name order.
type Sequence struct {
	clock *Clock
	opts  SequenceOptions
	start time.Duration
	dir   string

	mu      sync.Mutex
	files   []string
	watcher *fsnotify.Watcher

	// curPath names the file frame was decoded from. Live inserts shift indices,
	// so the cache is keyed by path.
	curPath string
	frame   image.Image
	err     error
}

// OpenSequence lists the frames in dir. A non-live sequence without frames fails
// with ErrNoFrames.
func OpenSequence(clock *Clock, dir string, opts SequenceOptions) (*Sequence, error) {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.Ahead <= 0 {
		opts.Ahead = 2
	}
	if clock == nil {
		clock = NewClock()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("video: open sequence: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsFrameFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 && !opts.Live {
		return nil, fmt.Errorf("%w in %s", ErrNoFrames, dir)
	}

	s := &Sequence{
		clock: clock,
		opts:  opts,
		start: clock.Now(),
		dir:   dir,
		files: files,
	}
	if opts.Live {
		if err := s.watch(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Sequence) watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("video: watch %s: %w", s.dir, err)
	}
	if err := w.Add(s.dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("video: watch %s: %w", s.dir, err)
	}
	s.watcher = w

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					s.addFile(ev.Name)
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}

func (s *Sequence) addFile(path string) {
	if !IsFrameFile(path) {
		return
	}
	if fi, err := os.Stat(path); err != nil || fi.IsDir() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := sort.SearchStrings(s.files, path)
	if i < len(s.files) && s.files[i] == path {
		return
	}
	s.files = append(s.files, "")
	copy(s.files[i+1:], s.files[i:])
	s.files[i] = path
}

// Close stops watching a live directory.
func (s *Sequence) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}

// Len returns the number of known frames.
func (s *Sequence) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// position returns the frame to present and how many known frames lie past the
// unclamped playhead. Callers hold s.mu.
func (s *Sequence) position() (idx int, ahead int) {
	n := len(s.files)
	if n == 0 {
		return -1, 0
	}
	raw := int(frameIndex(s.clock.Now()-s.start, s.opts.FPS))
	ahead = n - 1 - raw
	switch {
	case s.opts.Loop && !s.opts.Live:
		return raw % n, n
	case raw >= n:
		return n - 1, ahead
	default:
		return raw, ahead
	}
}

// load decodes the frame at idx unless it is already cached and reports whether
// frame now holds it.
func (s *Sequence) load(idx int) bool {
	if idx < 0 {
		return false
	}
	path := s.files[idx]
	if path == s.curPath {
		return true
	}
	f, err := os.Open(path)
	if err != nil {
		s.err = err
		return false
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		s.err = fmt.Errorf("video: decode %s: %w", path, err)
		return false
	}
	s.frame, s.curPath, s.err = img, path, nil
	return true
}

func (s *Sequence) ReadyState() ReadyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ahead := s.position()
	if idx < 0 {
		return HaveMetadata
	}
	if !s.load(idx) {
		return HaveMetadata
	}
	if !s.opts.Live {
		return HaveEnoughData
	}
	switch {
	case ahead >= s.opts.Ahead:
		return HaveEnoughData
	case ahead > 0:
		return HaveFutureData
	default:
		return HaveCurrentData
	}
}

func (s *Sequence) CurrentTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, _ := s.position()
	if idx < 0 {
		return 0
	}
	return float64(idx) / s.opts.FPS
}

func (s *Sequence) Frame() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, _ := s.position()
	s.load(idx)
	return s.frame
}

// Err returns the last decode error, if any.
func (s *Sequence) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
