// Package canvas provides an offscreen RGBA drawing surface with a 2D context.
//
// The context keeps an affine transform like an HTML canvas: Translate and Scale
// compose onto the current matrix, and every fill or image draw goes through it.
package canvas

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// ErrInvalidSize is returned for surfaces without pixels.
var ErrInvalidSize = errors.New("canvas: invalid surface size")

// Surface is an RGBA raster of fixed size.
type Surface struct {
	img     *image.RGBA
	ctx     *Context
	version uint64
}

// NewSurface allocates a transparent surface of w x h pixels.
func NewSurface(w, h int) (*Surface, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, w, h)
	}
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, w, h))}, nil
}

func (s *Surface) Width() int  { return s.img.Bounds().Dx() }
func (s *Surface) Height() int { return s.img.Bounds().Dy() }

// Image returns the backing raster. It stays the same for the life of the surface.
func (s *Surface) Image() *image.RGBA { return s.img }

// Version counts paint operations applied through the surface context.
func (s *Surface) Version() uint64 { return s.version }

// Context returns the 2D context bound to the surface. Repeated calls return the same
// context, so transform state persists between callers.
func (s *Surface) Context() *Context {
	if s.ctx == nil {
		s.ctx = &Context{
			s:            s,
			xform:        identity,
			fill:         color.Black,
			Interpolator: xdraw.BiLinear,
		}
	}
	return s.ctx
}

var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

// Context draws into a Surface.
type Context struct {
	s     *Surface
	xform f64.Aff3
	fill  color.Color

	// Interpolator resamples images in DrawImage.
	Interpolator xdraw.Interpolator
}

// Surface returns the surface the context draws into.
func (c *Context) Surface() *Surface { return c.s }

// Transform returns the current user-to-surface matrix.
func (c *Context) Transform() f64.Aff3 { return c.xform }

// SetTransform replaces the current matrix.
func (c *Context) SetTransform(m f64.Aff3) { c.xform = m }

// ResetTransform restores the identity matrix.
func (c *Context) ResetTransform() { c.xform = identity }

// Translate moves the origin by (x, y) in user space.
func (c *Context) Translate(x, y float64) {
	c.xform = mul(c.xform, f64.Aff3{1, 0, x, 0, 1, y})
}

// Scale scales user space; a negative factor mirrors that axis.
func (c *Context) Scale(sx, sy float64) {
	c.xform = mul(c.xform, f64.Aff3{sx, 0, 0, 0, sy, 0})
}

// SetFillStyle sets the color used by FillRect.
func (c *Context) SetFillStyle(col color.Color) { c.fill = col }

// FillStyle returns the current fill color.
func (c *Context) FillStyle() color.Color { return c.fill }

// FillRect fills the user-space rectangle (x, y, w, h) with the fill style.
func (c *Context) FillRect(x, y, w, h float64) {
	if w <= 0 || h <= 0 {
		return
	}
	m := mul(c.xform, f64.Aff3{w, 0, x, 0, h, y})
	xdraw.NearestNeighbor.Transform(c.s.img, m, image.NewUniform(c.fill), image.Rect(0, 0, 1, 1), xdraw.Over, nil)
	c.s.version++
}

// DrawImage scales all of src into the user-space rectangle (dx, dy, dw, dh).
func (c *Context) DrawImage(src image.Image, dx, dy, dw, dh float64) {
	if src == nil || dw <= 0 || dh <= 0 {
		return
	}
	sr := src.Bounds()
	if sr.Empty() {
		return
	}
	kx := dw / float64(sr.Dx())
	ky := dh / float64(sr.Dy())
	s2d := mul(c.xform, f64.Aff3{
		kx, 0, dx - float64(sr.Min.X)*kx,
		0, ky, dy - float64(sr.Min.Y)*ky,
	})

	interp := c.Interpolator
	if interp == nil {
		interp = xdraw.BiLinear
	}
	interp.Transform(c.s.img, s2d, src, sr, xdraw.Over, nil)
	c.s.version++
}

func mul(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3],
		a[0]*b[1] + a[1]*b[4],
		a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3],
		a[3]*b[1] + a[4]*b[4],
		a[3]*b[2] + a[4]*b[5] + a[5],
	}
}
