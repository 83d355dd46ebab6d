package video

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

func frameDir(t *testing.T, colors ...color.RGBA) string {
	t.Helper()
	dir := t.TempDir()
	for i, c := range colors {
		writeFrame(t, filepath.Join(dir, frameName(i)), c)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	return dir
}

func frameName(i int) string {
	return string(rune('a'+i)) + ".png"
}

func pixel(t *testing.T, img image.Image) color.RGBA {
	t.Helper()
	require.NotNil(t, img)
	r, g, b, a := img.At(0, 0).RGBA()
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

func TestOpenSequenceWithoutFrames(t *testing.T) {
	_, err := OpenSequence(NewClock(), t.TempDir(), SequenceOptions{})
	assert.ErrorIs(t, err, ErrNoFrames)
}

func TestSequencePlaysInNameOrderAndHoldsLastFrame(t *testing.T) {
	clock := NewClock()
	s, err := OpenSequence(clock, frameDir(t, red, green, blue), SequenceOptions{FPS: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())

	assert.Equal(t, HaveEnoughData, s.ReadyState())
	assert.Equal(t, red, pixel(t, s.Frame()))

	clock.Advance(150 * time.Millisecond)
	assert.InDelta(t, 0.1, s.CurrentTime(), 1e-9)
	assert.Equal(t, green, pixel(t, s.Frame()))

	clock.Advance(time.Second)
	assert.InDelta(t, 0.2, s.CurrentTime(), 1e-9)
	assert.Equal(t, blue, pixel(t, s.Frame()))
}

func TestSequenceLoops(t *testing.T) {
	clock := NewClock()
	s, err := OpenSequence(clock, frameDir(t, red, green), SequenceOptions{FPS: 10, Loop: true})
	require.NoError(t, err)

	clock.Advance(250 * time.Millisecond)
	assert.Equal(t, 0.0, s.CurrentTime())
	assert.Equal(t, red, pixel(t, s.Frame()))
}

func TestSequenceDecodeFailureIsNotReady(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("not a png"), 0o644))
	s, err := OpenSequence(NewClock(), dir, SequenceOptions{})
	require.NoError(t, err)

	assert.Equal(t, HaveMetadata, s.ReadyState())
	assert.Error(t, s.Err())
	assert.Nil(t, s.Frame())
}

func TestLiveSequenceReadinessTracksBufferedFrames(t *testing.T) {
	clock := NewClock()
	dir := t.TempDir()
	s, err := OpenSequence(clock, dir, SequenceOptions{FPS: 10, Live: true, Ahead: 2})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, HaveMetadata, s.ReadyState())

	for i, c := range []color.RGBA{red, green, blue} {
		p := filepath.Join(dir, frameName(i))
		writeFrame(t, p, c)
		s.addFile(p)
	}
	assert.Equal(t, HaveEnoughData, s.ReadyState())

	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, HaveFutureData, s.ReadyState())

	clock.Advance(time.Second)
	assert.Equal(t, HaveCurrentData, s.ReadyState())
	assert.Equal(t, blue, pixel(t, s.Frame()))
}

func TestLiveSequenceEarlierInsertReplacesCachedFrame(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenSequence(NewClock(), dir, SequenceOptions{FPS: 10, Live: true})
	require.NoError(t, err)
	defer s.Close()

	for i, c := range []color.RGBA{green, blue} {
		p := filepath.Join(dir, frameName(i+1))
		writeFrame(t, p, c)
		s.addFile(p)
	}
	assert.Equal(t, green, pixel(t, s.Frame()))

	p := filepath.Join(dir, frameName(0))
	writeFrame(t, p, red)
	s.addFile(p)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, red, pixel(t, s.Frame()), "index 0 now names a different file")
	assert.NotEqual(t, HaveMetadata, s.ReadyState())
}

func TestLiveSequenceWatchesDirectory(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenSequence(NewClock(), dir, SequenceOptions{Live: true})
	require.NoError(t, err)
	defer s.Close()

	writeFrame(t, filepath.Join(dir, "a.png"), red)
	require.Eventually(t, func() bool { return s.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestIsFrameFile(t *testing.T) {
	for _, name := range []string{"a.png", "b.JPG", "c.webp", "d.tiff", "e.bmp"} {
		assert.True(t, IsFrameFile(name), name)
	}
	assert.False(t, IsFrameFile("notes.txt"))
	assert.False(t, IsFrameFile("movie.mp4"))
}
