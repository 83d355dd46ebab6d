// Command mkframes renders a test pattern into a numbered still-frame directory that the
// carousel can play with dir:<path> or live:<path>.
package main

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"carousel/video"
)

type options struct {
	out    string
	count  int
	fps    float64
	width  int
	height int
	label  string
	format string
	delay  time.Duration
}

func main() {
	var o options
	pflag.StringVar(&o.out, "out", "", "Output directory (created if missing).")
	pflag.IntVar(&o.count, "count", 90, "Number of frames.")
	pflag.Float64Var(&o.fps, "fps", 30, "Pattern frame rate.")
	pflag.IntVar(&o.width, "width", 256, "Frame width.")
	pflag.IntVar(&o.height, "height", 256, "Frame height.")
	pflag.StringVar(&o.label, "label", "", "Text drawn on every frame.")
	pflag.StringVar(&o.format, "format", "png", "png|bmp|tiff.")
	pflag.DurationVar(&o.delay, "delay", 0, "Pause between frames, to feed a live directory.")
	pflag.Parse()

	if o.out == "" {
		fatalf("usage: mkframes --out dir [--count 90] [--fps 30] [--label text] [--format png|bmp|tiff] [--delay 33ms]")
	}
	n, err := renderFrames(o)
	if err != nil {
		fatalf("mkframes: %v", err)
	}
	fmt.Printf("wrote %d frames to %s\n", n, o.out)
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}

type encodeFunc func(io.Writer, image.Image) error

func encoder(format string) (encodeFunc, string, error) {
	switch strings.ToLower(format) {
	case "png":
		return png.Encode, ".png", nil
	case "bmp":
		return bmp.Encode, ".bmp", nil
	case "tiff", "tif":
		return func(w io.Writer, m image.Image) error { return tiff.Encode(w, m, nil) }, ".tiff", nil
	default:
		return nil, "", fmt.Errorf("unknown format: %s", format)
	}
}

func renderFrames(o options) (int, error) {
	if o.count <= 0 {
		return 0, fmt.Errorf("count out of range: %d", o.count)
	}
	if o.fps <= 0 {
		return 0, fmt.Errorf("fps out of range: %v", o.fps)
	}
	enc, ext, err := encoder(o.format)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(o.out, 0o755); err != nil {
		return 0, err
	}

	clock := video.NewClock()
	p := video.NewPattern(clock, video.PatternOptions{Width: o.width, Height: o.height, FPS: o.fps, Label: o.label})
	step := time.Duration(float64(time.Second) / o.fps)

	// Sample mid-frame so rounding never repeats a frame.
	clock.Advance(step / 2)
	for i := 0; i < o.count; i++ {
		name := filepath.Join(o.out, fmt.Sprintf("frame_%05d%s", i, ext))
		if err := writeFrame(name, p.Frame(), enc); err != nil {
			return i, err
		}
		clock.Advance(step)
		if o.delay > 0 && i+1 < o.count {
			time.Sleep(o.delay)
		}
	}
	return o.count, nil
}

// writeFrame renames a finished temp file into place so a live reader never sees a
// partial frame.
func writeFrame(name string, img image.Image, enc encodeFunc) error {
	tmp := name + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := enc(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, name)
}
