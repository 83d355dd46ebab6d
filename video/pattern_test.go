package video

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternPreroll(t *testing.T) {
	clock := NewClock()
	p := NewPattern(clock, PatternOptions{FPS: 10, Preroll: 500 * time.Millisecond})

	assert.Equal(t, HaveMetadata, p.ReadyState())
	clock.Advance(499 * time.Millisecond)
	assert.Equal(t, HaveMetadata, p.ReadyState())
	clock.Advance(time.Millisecond)
	assert.Equal(t, HaveEnoughData, p.ReadyState())
	assert.Equal(t, 0.0, p.CurrentTime())
}

func TestPatternTimeIsQuantizedToFrames(t *testing.T) {
	clock := NewClock()
	p := NewPattern(clock, PatternOptions{FPS: 10})

	clock.Advance(50 * time.Millisecond)
	assert.Equal(t, 0.0, p.CurrentTime())
	clock.Advance(60 * time.Millisecond)
	assert.InDelta(t, 0.1, p.CurrentTime(), 1e-9)
	clock.Advance(time.Second)
	assert.InDelta(t, 1.1, p.CurrentTime(), 1e-9)
}

func TestPatternRendersNewFramesInPlace(t *testing.T) {
	clock := NewClock()
	p := NewPattern(clock, PatternOptions{Width: 64, Height: 48, FPS: 10, Label: "A"})

	first, ok := p.Frame().(*image.RGBA)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 64, 48), first.Bounds())
	before := append([]byte(nil), first.Pix...)

	assert.Same(t, first, p.Frame())
	assert.Equal(t, before, first.Pix, "same frame index does not repaint")

	clock.Advance(100 * time.Millisecond)
	second := p.Frame().(*image.RGBA)
	assert.Same(t, first, second)
	assert.NotEqual(t, before, second.Pix)
}

func TestTimecode(t *testing.T) {
	assert.Equal(t, "00:00:00:00", timecode(0, 30))
	assert.Equal(t, "00:00:01:05", timecode(35, 30))
	assert.Equal(t, "01:01:01:00", timecode(3661*25, 25))
}
