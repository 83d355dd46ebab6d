package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carousel/video"
)

func TestRenderFramesPlaysBack(t *testing.T) {
	for _, format := range []string{"png", "bmp", "tiff"} {
		t.Run(format, func(t *testing.T) {
			dir := t.TempDir()
			n, err := renderFrames(options{out: dir, count: 3, fps: 10, width: 32, height: 24, label: "T", format: format})
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			require.Len(t, entries, 3)
			assert.Equal(t, "frame_00000."+map[string]string{"png": "png", "bmp": "bmp", "tiff": "tiff"}[format], entries[0].Name())

			clock := video.NewClock()
			s, err := video.OpenSequence(clock, dir, video.SequenceOptions{FPS: 10})
			require.NoError(t, err)
			assert.Equal(t, 3, s.Len())
			assert.Equal(t, video.HaveEnoughData, s.ReadyState())

			first := s.Frame()
			require.NotNil(t, first)
			assert.Equal(t, 32, first.Bounds().Dx())
			clock.Advance(150 * time.Millisecond)
			assert.NotEqual(t, first, s.Frame())
		})
	}
}

func TestRenderFramesRejectsBadOptions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	_, err := renderFrames(options{out: dir, count: 0, fps: 10, format: "png"})
	assert.Error(t, err)
	_, err = renderFrames(options{out: dir, count: 1, fps: 10, format: "gif"})
	assert.Error(t, err)
	_, err = renderFrames(options{out: dir, count: 1, fps: 0, format: "png"})
	assert.Error(t, err)
}
