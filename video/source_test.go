package video

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadyStateString(t *testing.T) {
	assert.Equal(t, "HAVE_ENOUGH_DATA", HaveEnoughData.String())
	assert.Equal(t, "HAVE_NOTHING", HaveNothing.String())
	assert.Equal(t, "ReadyState(9)", ReadyState(9).String())
}

func TestClockIgnoresNegativeSteps(t *testing.T) {
	c := NewClock()
	c.Advance(time.Second)
	c.Advance(-time.Second)
	assert.Equal(t, time.Second, c.Now())
}

func writeFrame(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestOpenParsesSpecs(t *testing.T) {
	clock := NewClock()

	src, err := Open(clock, "pattern:Lobby", Options{})
	require.NoError(t, err)
	p, ok := src.(*Pattern)
	require.True(t, ok)
	assert.Equal(t, "Lobby", p.Label())

	dir := t.TempDir()
	writeFrame(t, filepath.Join(dir, "0001.png"), color.RGBA{R: 255, A: 255})
	src, err = Open(clock, dir, Options{})
	require.NoError(t, err)
	assert.IsType(t, &Sequence{}, src)

	src, err = Open(clock, "dir:"+dir, Options{})
	require.NoError(t, err)
	assert.IsType(t, &Sequence{}, src)

	_, err = Open(clock, "", Options{})
	assert.Error(t, err)
	_, err = Open(clock, filepath.Join(dir, "missing"), Options{})
	assert.Error(t, err)
	_, err = Open(clock, "file:"+filepath.Join(dir, "missing.mp4"), Options{})
	assert.Error(t, err)
}

func TestCloseIgnoresSourcesWithoutResources(t *testing.T) {
	assert.NoError(t, Close(NewPattern(nil, PatternOptions{})))
}
