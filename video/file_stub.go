//go:build !cgo

package video

import (
	"fmt"
	"image"
)

// File is unavailable without cgo.
type File struct{}

// OpenFile always fails: decoding container files requires cgo (ffmpeg).
func OpenFile(_ *Clock, path string) (*File, error) {
	return nil, fmt.Errorf("%w: %s (container decoding requires cgo)", ErrUnsupported, path)
}

func (f *File) ReadyState() ReadyState { return HaveNothing }
func (f *File) CurrentTime() float64   { return 0 }
func (f *File) Frame() image.Image     { return nil }
func (f *File) Err() error             { return nil }
func (f *File) Close() error           { return nil }
