package hal

import (
	"bytes"
	"image"
	"image/color"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostDefaults(t *testing.T) {
	h := newHost(Config{}, &bytes.Buffer{})
	w, hh := h.Viewport()
	assert.Equal(t, 960, w)
	assert.Equal(t, 540, hh)
	assert.Nil(t, h.Display().Surface())
}

func TestHostLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	h := newHost(Config{LogLevel: slog.LevelWarn}, &buf)

	h.Logger().Info("hidden")
	h.Logger().Warn("shown", "pane", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "pane=3")
}

func TestDisplaySnapshot(t *testing.T) {
	var d hostDisplay
	assert.Nil(t, d.snapshot(nil))

	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.SetRGBA(2, 1, color.RGBA{R: 9, G: 8, B: 7, A: 255})
	d.Attach(src)
	assert.Same(t, src, d.Surface())

	snap := d.snapshot(nil)
	require.NotNil(t, snap)
	assert.NotSame(t, src, snap)
	assert.Equal(t, src.Pix, snap.Pix)

	src.SetRGBA(0, 0, color.RGBA{R: 1, A: 255})
	again := d.snapshot(snap)
	assert.Same(t, snap, again, "same size reuses the buffer")
	assert.Equal(t, color.RGBA{R: 1, A: 255}, again.RGBAAt(0, 0))

	d.Attach(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	assert.NotSame(t, snap, d.snapshot(snap))
}

func TestHostTimeWallSteps(t *testing.T) {
	var ht hostTime
	t0 := time.Unix(100, 0)

	ht.stepWall(t0)
	assert.Equal(t, time.Duration(0), ht.Now())
	assert.Equal(t, time.Duration(0), ht.Delta())

	ht.stepWall(t0.Add(16 * time.Millisecond))
	assert.Equal(t, 16*time.Millisecond, ht.Now())
	assert.Equal(t, 16*time.Millisecond, ht.Delta())

	ht.stepWall(t0.Add(10 * time.Second))
	assert.Equal(t, maxStep, ht.Delta())
	assert.Equal(t, 16*time.Millisecond+maxStep, ht.Now())
}
