package quarkgl

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// Filter selects how texels are combined when sampling.
type Filter uint8

const (
	FilterNearest Filter = iota
	FilterLinear
)

// Wrap selects how texture coordinates outside [0,1] are mapped.
type Wrap uint8

const (
	WrapClampToEdge Wrap = iota
	WrapRepeat
	WrapMirroredRepeat
)

// Texture is an image sampler backed by a source image.
//
// Sampling reads a private texel copy of Source. The copy is refreshed by the renderer
// only after SetNeedsUpdate, so callers repainting Source must flag the texture before
// the next render.
type Texture struct {
	Source image.Image

	MinFilter Filter
	MagFilter Filter
	WrapS     Wrap
	WrapT     Wrap

	// Repeat scales texture coordinates before wrapping; Offset is added after scaling.
	Repeat Vec2
	Offset Vec2

	// FlipY maps v=0 to the bottom row of Source.
	FlipY bool

	needsUpdate bool
	version     uint64

	texels *image.RGBA
}

// NewTexture creates a texture over src with linear filtering, edge clamping, unit
// repeat and FlipY set. It starts flagged for upload.
func NewTexture(src image.Image) *Texture {
	return &Texture{
		Source:      src,
		MinFilter:   FilterLinear,
		MagFilter:   FilterLinear,
		WrapS:       WrapClampToEdge,
		WrapT:       WrapClampToEdge,
		Repeat:      V2(1, 1),
		FlipY:       true,
		needsUpdate: true,
	}
}

// SetNeedsUpdate flags the texel copy as stale.
func (t *Texture) SetNeedsUpdate() {
	if t == nil {
		return
	}
	t.needsUpdate = true
}

// NeedsUpdate reports whether the next render will re-upload Source.
func (t *Texture) NeedsUpdate() bool {
	return t != nil && t.needsUpdate
}

// Version counts completed uploads.
func (t *Texture) Version() uint64 {
	if t == nil {
		return 0
	}
	return t.version
}

// Size returns the dimensions of the current texel copy.
func (t *Texture) Size() (w, h int) {
	if t == nil || t.texels == nil {
		return 0, 0
	}
	b := t.texels.Bounds()
	return b.Dx(), b.Dy()
}

// Upload copies Source into the texel copy if the texture is flagged.
// It reports whether a copy happened.
func (t *Texture) Upload() bool {
	if t == nil || !t.needsUpdate {
		return false
	}
	t.needsUpdate = false
	if t.Source == nil {
		t.texels = nil
		t.version++
		return true
	}

	sb := t.Source.Bounds()
	if t.texels == nil || t.texels.Bounds().Dx() != sb.Dx() || t.texels.Bounds().Dy() != sb.Dy() {
		t.texels = image.NewRGBA(image.Rect(0, 0, sb.Dx(), sb.Dy()))
	}
	if src, ok := t.Source.(*image.RGBA); ok {
		rowBytes := sb.Dx() * 4
		for y := 0; y < sb.Dy(); y++ {
			so := src.PixOffset(sb.Min.X, sb.Min.Y+y)
			do := y * t.texels.Stride
			copy(t.texels.Pix[do:do+rowBytes], src.Pix[so:so+rowBytes])
		}
	} else {
		xdraw.Copy(t.texels, image.Point{}, t.Source, sb, xdraw.Src, nil)
	}
	t.version++
	return true
}

// Sample returns the filtered texel at (u, v) after applying Repeat, Offset and wrapping.
// A texture that was never uploaded samples as opaque black.
func (t *Texture) Sample(u, v Scalar, f Filter) Color {
	if t == nil || t.texels == nil {
		return RGB(0, 0, 0)
	}
	w, h := t.Size()
	if w == 0 || h == 0 {
		return RGB(0, 0, 0)
	}

	s := u*t.Repeat.X + t.Offset.X
	tc := v*t.Repeat.Y + t.Offset.Y
	if t.FlipY {
		tc = 1 - tc
	}

	fx := s * Scalar(w)
	fy := tc * Scalar(h)

	if f == FilterNearest {
		x := wrapIndex(int(floor(fx)), w, t.WrapS)
		y := wrapIndex(int(floor(fy)), h, t.WrapT)
		return t.texel(x, y)
	}

	fx -= 0.5
	fy -= 0.5
	x0f := floor(fx)
	y0f := floor(fy)
	ax := fx - x0f
	ay := fy - y0f
	x0 := wrapIndex(int(x0f), w, t.WrapS)
	x1 := wrapIndex(int(x0f)+1, w, t.WrapS)
	y0 := wrapIndex(int(y0f), h, t.WrapT)
	y1 := wrapIndex(int(y0f)+1, h, t.WrapT)

	c00 := t.texel(x0, y0)
	c10 := t.texel(x1, y0)
	c01 := t.texel(x0, y1)
	c11 := t.texel(x1, y1)

	lerp := func(a, b, c, d uint8) uint8 {
		top := float32(a) + (float32(b)-float32(a))*ax
		bot := float32(c) + (float32(d)-float32(c))*ax
		return uint8(clampF32(top+(bot-top)*ay+0.5, 0, 255))
	}
	return Color{
		R: lerp(c00.R, c10.R, c01.R, c11.R),
		G: lerp(c00.G, c10.G, c01.G, c11.G),
		B: lerp(c00.B, c10.B, c01.B, c11.B),
		A: lerp(c00.A, c10.A, c01.A, c11.A),
	}
}

func (t *Texture) texel(x, y int) Color {
	off := y*t.texels.Stride + x*4
	p := t.texels.Pix[off : off+4 : off+4]
	return Color{R: p[0], G: p[1], B: p[2], A: p[3]}
}

func wrapIndex(i, n int, mode Wrap) int {
	switch mode {
	case WrapRepeat:
		i %= n
		if i < 0 {
			i += n
		}
		return i
	case WrapMirroredRepeat:
		period := 2 * n
		i %= period
		if i < 0 {
			i += period
		}
		if i >= n {
			i = period - 1 - i
		}
		return i
	default:
		if i < 0 {
			return 0
		}
		if i >= n {
			return n - 1
		}
		return i
	}
}

func floor(v Scalar) Scalar {
	return Scalar(math.Floor(float64(v)))
}
