package quarkgl

import "math"

// NewSphereGeometry builds a UV sphere centred on the origin.
//
// Vertices form a (widthSegments+1) x (heightSegments+1) grid from the north pole
// (v=1) to the south pole (v=0). Each grid cell is one Face of two triangles, so the
// mesh has widthSegments*heightSegments faces, face index row*widthSegments+col.
// Triangles wind counter-clockwise seen from outside; the collapsed triangle of each
// pole cell has zero area and is never rasterized.
//
// Vertex colors encode the texture coordinate (red u, green v) for the
// vertex-color render mode. All faces start on material 0.
func NewSphereGeometry(radius Scalar, widthSegments, heightSegments int) Mesh {
	if widthSegments < 3 {
		widthSegments = 3
	}
	if heightSegments < 2 {
		heightSegments = 2
	}

	cols := widthSegments + 1
	verts := make([]Vertex, 0, cols*(heightSegments+1))
	for iy := 0; iy <= heightSegments; iy++ {
		v := float64(iy) / float64(heightSegments)
		theta := v * math.Pi
		st, ct := math.Sin(theta), math.Cos(theta)
		for ix := 0; ix <= widthSegments; ix++ {
			u := float64(ix) / float64(widthSegments)
			phi := u * 2 * math.Pi
			sp, cp := math.Sin(phi), math.Cos(phi)

			n := V3(Scalar(-cp*st), Scalar(ct), Scalar(sp*st))
			verts = append(verts, Vertex{
				Pos:    n.Mul(radius),
				Normal: n,
				Color:  uvColor(u, 1-v),
				UV:     V2(Scalar(u), Scalar(1-v)),
			})
		}
	}

	idx := func(row, col int) uint32 {
		return uint32(row*cols + col)
	}

	faces := make([]Face, 0, widthSegments*heightSegments)
	indices := make([]uint32, 0, widthSegments*heightSegments*6)
	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := idx(iy, ix+1)
			b := idx(iy, ix)
			c := idx(iy+1, ix)
			d := idx(iy+1, ix+1)

			faces = append(faces, Face{First: len(indices) / 3, Count: 2})
			indices = append(indices, a, b, d)
			indices = append(indices, b, c, d)
		}
	}

	return Mesh{
		Vertices: verts,
		Indices:  indices,
		Faces:    faces,
	}
}

func uvColor(u, v float64) Color {
	return RGB(uint8(u*255+0.5), uint8(v*255+0.5), 0x80)
}

// AssignRoundRobin binds face i to material i mod n.
func (m *Mesh) AssignRoundRobin(n int) {
	if m == nil || n <= 0 {
		return
	}
	for i := range m.Faces {
		m.Faces[i].Material = i % n
	}
}
