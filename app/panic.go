package app

import (
	"fmt"
	"image"
	"image/color"
	"runtime/debug"
	"strings"
	"unicode/utf8"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"

	"carousel/hal"
)

// guard turns a panic inside step into an error. The panic and its stack are logged and
// painted over the attached surface so the last frame shows what went wrong.
func guard(h hal.HAL, step func() error) func() error {
	return func() (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			stack := debug.Stack()
			h.Logger().Error("carousel panic", "panic", r, "stack", string(stack))
			if d := h.Display(); d != nil {
				paintPanic(d.Surface(), r, stack)
			}
			err = fmt.Errorf("app: panic: %v", r)
		}()
		return step()
	}
}

func paintPanic(img *image.RGBA, value any, stack []byte) {
	if img == nil {
		return
	}
	d := panicDisplay{img: img}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
		}
	}

	font := &freemono.Regular9pt7b
	lineHeight := int16(font.GetYAdvance())
	_, outboxWidth := tinyfont.LineWidth(font, "0")
	fontWidth := int16(outboxWidth)
	if fontWidth <= 0 || lineHeight <= 0 {
		return
	}

	lines := []string{"Carousel panic:", fmt.Sprintf("panic: %v", value)}
	if len(stack) > 0 {
		lines = append(lines, "stack:")
		for _, line := range strings.Split(string(stack), "\n") {
			if line != "" {
				lines = append(lines, line)
			}
		}
	}

	fg := color.RGBA{A: 0xFF}
	cols := int16(b.Dx()) / fontWidth
	if cols <= 0 {
		cols = 1
	}
	y := lineHeight
	for _, line := range lines {
		for len(line) > 0 {
			if y > int16(b.Dy()) {
				return
			}
			chunk, rest := takeRunes(line, cols)
			tinyfont.WriteLine(d, font, 0, y, chunk, fg)
			y += lineHeight
			line = strings.TrimLeft(rest, " \t")
		}
	}
}

type panicDisplay struct {
	img *image.RGBA
}

var _ drivers.Displayer = panicDisplay{}

func (d panicDisplay) Size() (x, y int16) {
	b := d.img.Bounds()
	return int16(b.Dx()), int16(b.Dy())
}

func (d panicDisplay) SetPixel(x, y int16, c color.RGBA) {
	p := image.Point{X: int(x), Y: int(y)}.Add(d.img.Bounds().Min)
	if !p.In(d.img.Bounds()) {
		return
	}
	d.img.SetRGBA(p.X, p.Y, c)
}

func (d panicDisplay) Display() error { return nil }

func (d panicDisplay) SetRotation(rotation drivers.Rotation) error {
	_ = rotation
	return nil
}

func takeRunes(s string, n int16) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	if int64(len(s)) <= int64(n) {
		return s, ""
	}
	var i int
	var count int16
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		if size <= 0 {
			break
		}
		i += size
		count++
	}
	if i >= len(s) {
		return s, ""
	}
	return s[:i], s[i:]
}
