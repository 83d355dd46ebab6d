package hal

import (
	"bytes"
	"context"
	"errors"
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

func TestRunHeadlessStopsAfterTicks(t *testing.T) {
	h := newHost(Config{Width: 4, Height: 4}, &bytes.Buffer{})
	var calls int
	err := runHeadless(context.Background(), h, HeadlessConfig{Hz: 1000, Ticks: 5}, func(HAL) (func() error, func() error, error) {
		return func() error {
			calls++
			return nil
		}, nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, calls)
	assert.Equal(t, 5*time.Millisecond, h.Time().Now())
	assert.Equal(t, time.Millisecond, h.Time().Delta())
}

func TestRunHeadlessPropagatesErrors(t *testing.T) {
	h := newHost(Config{}, &bytes.Buffer{})
	boom := errors.New("boom")

	err := runHeadless(context.Background(), h, HeadlessConfig{Hz: 1000}, func(HAL) (func() error, func() error, error) {
		return nil, nil, boom
	})
	assert.ErrorIs(t, err, boom)

	err = runHeadless(context.Background(), h, HeadlessConfig{Hz: 1000}, func(HAL) (func() error, func() error, error) {
		return func() error { return boom }, nil, nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestRunHeadlessCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := newHost(Config{}, &bytes.Buffer{})
	err := runHeadless(ctx, h, HeadlessConfig{Hz: 1}, func(HAL) (func() error, func() error, error) {
		return func() error { return nil }, nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunHeadlessWritesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	h := newHost(Config{}, &bytes.Buffer{})

	err := runHeadless(context.Background(), h, HeadlessConfig{Hz: 1000, Ticks: 1, Snapshot: path}, func(h HAL) (func() error, func() error, error) {
		img := image.NewRGBA(image.Rect(0, 0, 2, 2))
		h.Display().Attach(img)
		return func() error {
			img.SetRGBA(1, 1, color.RGBA{G: 200, A: 255})
			return nil
		}, nil, nil
	})
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	r, g, b, a := img.At(1, 1).RGBA()
	assert.Equal(t, []uint32{0, 200, 0, 255}, []uint32{r >> 8, g >> 8, b >> 8, a >> 8})
}

func TestRunHeadlessSnapshotNeedsSurface(t *testing.T) {
	h := newHost(Config{}, &bytes.Buffer{})
	err := runHeadless(context.Background(), h, HeadlessConfig{Hz: 1000, Ticks: 1, Snapshot: filepath.Join(t.TempDir(), "x.png")}, func(HAL) (func() error, func() error, error) {
		return nil, nil, nil
	})
	assert.Error(t, err)
}

func TestRunHeadlessReleasesApp(t *testing.T) {
	h := newHost(Config{}, &bytes.Buffer{})
	boom := errors.New("boom")
	var steps, releases int
	newApp := func(HAL) (func() error, func() error, error) {
		step := func() error {
			steps++
			return nil
		}
		release := func() error {
			releases++
			assert.Equal(t, 3, steps, "released after the last tick")
			return nil
		}
		return step, release, nil
	}

	require.NoError(t, runHeadless(context.Background(), h, HeadlessConfig{Hz: 1000, Ticks: 3}, newApp))
	assert.Equal(t, 1, releases)

	err := runHeadless(context.Background(), h, HeadlessConfig{Hz: 1000, Ticks: 1}, func(HAL) (func() error, func() error, error) {
		return nil, func() error { return boom }, nil
	})
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	releases = 0
	err = runHeadless(ctx, h, HeadlessConfig{Hz: 1}, func(HAL) (func() error, func() error, error) {
		return nil, func() error {
			releases++
			return nil
		}, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, releases, "released on cancel")
}
