package quarkgl

// Renderer is a fixed-pipeline software renderer.
//
// Create it once and reuse it to avoid allocations.
type Renderer struct {
	Mode       RenderMode
	Depth      bool
	ClearColor Color

	depthBuf []float32
	frames   uint64
}

// NewRenderer creates a renderer for a given maximum target size.
//
// If enableDepth is true, a depth buffer of size w*h is allocated.
func NewRenderer(w, h int, enableDepth bool) *Renderer {
	r := &Renderer{
		Mode:       RenderSolidFlat,
		Depth:      enableDepth,
		ClearColor: RGB(0, 0, 0),
	}
	if enableDepth && w > 0 && h > 0 {
		r.depthBuf = make([]float32, w*h)
	}
	return r
}

// SetRenderMode selects how triangles are filled on the next Render.
func (r *Renderer) SetRenderMode(m RenderMode) { r.Mode = m }

// Frames returns the number of completed Render calls.
func (r *Renderer) Frames() uint64 { return r.frames }

// resizeDepth grows the depth buffer to a w*h target, reusing its storage.
func (r *Renderer) resizeDepth(w, h int) {
	if cap(r.depthBuf) < w*h {
		r.depthBuf = make([]float32, w*h)
	} else {
		r.depthBuf = r.depthBuf[:w*h]
	}
}

func (r *Renderer) clearDepth() {
	for i := range r.depthBuf {
		r.depthBuf[i] = 1e9
	}
}

// Render renders a scene into the target.
func (r *Renderer) Render(t Target, s *Scene) {
	if r == nil || t == nil || s == nil {
		return
	}
	w, h := t.Size()
	if w <= 0 || h <= 0 {
		return
	}
	t.Clear(r.ClearColor)

	if r.Depth {
		r.resizeDepth(w, h)
		r.clearDepth()
	}

	s.eachMesh(uploadTextures)

	aspect := Scalar(1)
	if h != 0 {
		aspect = Scalar(float32(w) / float32(h))
	}
	view := s.Camera.View()
	proj := s.Camera.Projection(aspect)

	s.eachMesh(func(m *Mesh) {
		if m == nil {
			return
		}
		r.renderMesh(t, w, h, proj, view, m)
	})
	r.frames++
}

func uploadTextures(m *Mesh) {
	if m == nil {
		return
	}
	m.Material.Map.Upload()
	for i := range m.Materials {
		m.Materials[i].Map.Upload()
	}
}

func (r *Renderer) renderMesh(t Target, w, h int, proj, view Mat4, m *Mesh) {
	if len(m.Vertices) == 0 || len(m.Indices) < 3 {
		return
	}
	model := m.Transform
	if model == (Mat4{}) {
		model = Mat4Identity()
	}
	mvp := Mat4Mul(proj, Mat4Mul(view, model))

	if len(m.Faces) == 0 || len(m.Materials) == 0 {
		r.renderTriangles(t, w, h, mvp, m, 0, m.TriangleCount(), m.Material)
		return
	}
	for _, f := range m.Faces {
		if f.Material < 0 || f.Material >= len(m.Materials) {
			continue
		}
		r.renderTriangles(t, w, h, mvp, m, f.First, f.Count, m.Materials[f.Material])
	}
}

type screenVertex struct {
	x, y int
	ndc  ndcPoint
	invW float32
	uw   float32 // u/w
	vw   float32 // v/w
	c    Color
}

// Vertices further than this from the view centre in NDC are dropped with their
// triangle to keep edge arithmetic bounded.
const guardBand = 16

func (r *Renderer) renderTriangles(t Target, w, h int, mvp Mat4, m *Mesh, first, count int, mat Material) {
	if mat.Opacity == 0 {
		return
	}
	if first < 0 {
		first = 0
	}
	end := first + count
	if n := m.TriangleCount(); end > n {
		end = n
	}
	for tri := first; tri < end; tri++ {
		i := tri * 3
		i0 := int(m.Indices[i+0])
		i1 := int(m.Indices[i+1])
		i2 := int(m.Indices[i+2])
		if i0 >= len(m.Vertices) || i1 >= len(m.Vertices) || i2 >= len(m.Vertices) {
			continue
		}
		v0 := m.Vertices[i0]
		v1 := m.Vertices[i1]
		v2 := m.Vertices[i2]

		s0, ok0 := project(mvp, v0, w, h)
		s1, ok1 := project(mvp, v1, w, h)
		s2, ok2 := project(mvp, v2, w, h)
		if !ok0 || !ok1 || !ok2 {
			continue
		}

		// Counter-clockwise in NDC is front facing.
		area := (s1.ndc.X-s0.ndc.X)*(s2.ndc.Y-s0.ndc.Y) - (s2.ndc.X-s0.ndc.X)*(s1.ndc.Y-s0.ndc.Y)
		if area == 0 {
			continue
		}
		switch mat.Side {
		case SideFront:
			if area < 0 {
				continue
			}
		case SideBack:
			if area > 0 {
				continue
			}
		}

		base := mat.BaseColor
		switch {
		case r.Mode == RenderWireframe:
			r.drawLine(t, s0.x, s0.y, s1.x, s1.y, base)
			r.drawLine(t, s1.x, s1.y, s2.x, s2.y, base)
			r.drawLine(t, s2.x, s2.y, s0.x, s0.y, base)
		case r.Mode == RenderSolidTextured && mat.Map != nil:
			r.fillTriangleTextured(t, w, h, s0, s1, s2, mat.Map, base)
		case r.Mode == RenderSolidVertexColor:
			s0.c, s1.c, s2.c = v0.Color, v1.Color, v2.Color
			r.fillTriangle(t, w, h, s0, s1, s2)
		default:
			r.fillTriangleFlat(t, w, h, s0, s1, s2, base)
		}
	}
}

type ndcPoint struct {
	X, Y, Z float32
}

func project(mvp Mat4, v Vertex, w, h int) (screenVertex, bool) {
	p := Mat4MulV4(mvp, Vec4{X: v.Pos.X, Y: v.Pos.Y, Z: v.Pos.Z, W: 1})
	// Trivial clip: anything on or behind the eye plane is dropped.
	if p.W <= 1e-6 {
		return screenVertex{}, false
	}
	ndc, ok := clipToNDC(p)
	if !ok || ndc.X < -guardBand || ndc.X > guardBand || ndc.Y < -guardBand || ndc.Y > guardBand {
		return screenVertex{}, false
	}
	x, y := ndcToScreen(ndc, w, h)
	invW := 1 / p.W
	return screenVertex{
		x:    x,
		y:    y,
		ndc:  ndc,
		invW: invW,
		uw:   v.UV.X * invW,
		vw:   v.UV.Y * invW,
	}, true
}

func clipToNDC(p Vec4) (ndcPoint, bool) {
	if p.W == 0 {
		return ndcPoint{}, false
	}
	invW := 1.0 / p.W
	return ndcPoint{
		X: p.X * invW,
		Y: p.Y * invW,
		Z: p.Z * invW,
	}, true
}

func ndcToScreen(p ndcPoint, w, h int) (x, y int) {
	sx := (p.X*0.5 + 0.5) * float32(w-1)
	sy := (1 - (p.Y*0.5 + 0.5)) * float32(h-1)
	return int(sx + 0.5), int(sy + 0.5)
}

func (r *Renderer) depthTest(w int, x, y int, z float32) bool {
	if !r.Depth || r.depthBuf == nil {
		return true
	}
	if x < 0 || y < 0 || x >= w {
		return false
	}
	idx := y*w + x
	if idx < 0 || idx >= len(r.depthBuf) {
		return false
	}
	// NDC z is typically in [-1,1]. Map to [0,1].
	d := (z*0.5 + 0.5)
	if d < 0 {
		d = 0
	}
	if d > 1 {
		d = 1
	}
	if d >= r.depthBuf[idx] {
		return false
	}
	r.depthBuf[idx] = d
	return true
}

func (r *Renderer) drawLine(t Target, x0, y0, x1, y1 int, c Color) {
	dx := absInt(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -absInt(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		t.SetPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// triangleSpan walks the clipped bounding box of a triangle and calls fn with the
// barycentric weights of every covered pixel. Either winding is accepted.
func triangleSpan(w, h int, s0, s1, s2 screenVertex, fn func(x, y int, a0, a1, a2 float32)) {
	minX, maxX := min3(s0.x, s1.x, s2.x), max3(s0.x, s1.x, s2.x)
	minY, maxY := min3(s0.y, s1.y, s2.y), max3(s0.y, s1.y, s2.y)
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX >= w {
		maxX = w - 1
	}
	if maxY >= h {
		maxY = h - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	area := edgeFn(s0.x, s0.y, s1.x, s1.y, s2.x, s2.y)
	if area == 0 {
		return
	}
	sign := 1
	if area < 0 {
		sign = -1
	}
	invArea := 1.0 / float32(area)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			w0 := edgeFn(s1.x, s1.y, s2.x, s2.y, x, y)
			w1 := edgeFn(s2.x, s2.y, s0.x, s0.y, x, y)
			w2 := edgeFn(s0.x, s0.y, s1.x, s1.y, x, y)
			if w0*sign < 0 || w1*sign < 0 || w2*sign < 0 {
				continue
			}
			fn(x, y, float32(w0)*invArea, float32(w1)*invArea, float32(w2)*invArea)
		}
	}
}

func (r *Renderer) fillTriangleFlat(t Target, w, h int, s0, s1, s2 screenVertex, c Color) {
	triangleSpan(w, h, s0, s1, s2, func(x, y int, a0, a1, a2 float32) {
		z := a0*s0.ndc.Z + a1*s1.ndc.Z + a2*s2.ndc.Z
		if !r.depthTest(w, x, y, z) {
			return
		}
		t.SetPixel(x, y, c)
	})
}

func (r *Renderer) fillTriangle(t Target, w, h int, s0, s1, s2 screenVertex) {
	r0, g0, b0 := float32(s0.c.R), float32(s0.c.G), float32(s0.c.B)
	r1, g1, b1 := float32(s1.c.R), float32(s1.c.G), float32(s1.c.B)
	r2, g2, b2 := float32(s2.c.R), float32(s2.c.G), float32(s2.c.B)

	triangleSpan(w, h, s0, s1, s2, func(x, y int, a0, a1, a2 float32) {
		z := a0*s0.ndc.Z + a1*s1.ndc.Z + a2*s2.ndc.Z
		if !r.depthTest(w, x, y, z) {
			return
		}
		rr := uint8(clampF32(a0*r0+a1*r1+a2*r2, 0, 255))
		gg := uint8(clampF32(a0*g0+a1*g1+a2*g2, 0, 255))
		bb := uint8(clampF32(a0*b0+a1*b1+a2*b2, 0, 255))
		t.SetPixel(x, y, Color{R: rr, G: gg, B: bb, A: 0xFF})
	})
}

func (r *Renderer) fillTriangleTextured(t Target, w, h int, s0, s1, s2 screenVertex, tex *Texture, tint Color) {
	filter := textureFilter(tex, s0, s1, s2)
	modulate := tint != White

	triangleSpan(w, h, s0, s1, s2, func(x, y int, a0, a1, a2 float32) {
		z := a0*s0.ndc.Z + a1*s1.ndc.Z + a2*s2.ndc.Z
		if !r.depthTest(w, x, y, z) {
			return
		}
		invW := a0*s0.invW + a1*s1.invW + a2*s2.invW
		if invW == 0 {
			return
		}
		u := (a0*s0.uw + a1*s1.uw + a2*s2.uw) / invW
		v := (a0*s0.vw + a1*s1.vw + a2*s2.vw) / invW
		c := tex.Sample(u, v, filter)
		if modulate {
			c = c.Modulate(tint)
		}
		t.SetPixel(x, y, c)
	})
}

// textureFilter picks MinFilter when the triangle covers more texels than pixels.
func textureFilter(tex *Texture, s0, s1, s2 screenVertex) Filter {
	tw, th := tex.Size()
	pix := absF32(float32(edgeFn(s0.x, s0.y, s1.x, s1.y, s2.x, s2.y)))

	u0, v0 := s0.uw/s0.invW, s0.vw/s0.invW
	u1, v1 := s1.uw/s1.invW, s1.vw/s1.invW
	u2, v2 := s2.uw/s2.invW, s2.vw/s2.invW
	sx := float32(tw) * tex.Repeat.X
	sy := float32(th) * tex.Repeat.Y
	texels := absF32(((u1-u0)*(v2-v0) - (u2-u0)*(v1-v0)) * sx * sy)

	if texels > pix {
		return tex.MinFilter
	}
	return tex.MagFilter
}

func edgeFn(x0, y0, x1, y1, x, y int) int {
	return (x-x0)*(y1-y0) - (y-y0)*(x1-x0)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func absF32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func min3(a, b, c int) int {
	if a > b {
		a = b
	}
	if a > c {
		a = c
	}
	return a
}

func max3(a, b, c int) int {
	if a < b {
		a = b
	}
	if a < c {
		a = c
	}
	return a
}

func clampF32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
