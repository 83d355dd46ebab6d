package quarkgl

// Side selects which triangle facing a material is drawn for.
type Side uint8

const (
	SideFront Side = iota
	SideBack
	SideDouble
)

// Material is a minimal surface description.
type Material struct {
	BaseColor Color
	Opacity   uint8 // 0..255. 255 means opaque.

	// Map is sampled in RenderSolidTextured mode and modulated by BaseColor.
	Map *Texture

	Side Side
}

// Camera is a perspective camera.
type Camera struct {
	Position Vec3
	Target   Vec3
	Up       Vec3

	FOVYRad Scalar
	// Aspect overrides the target aspect when non-zero.
	Aspect Scalar

	Near Scalar
	Far  Scalar
}

// View returns the camera view matrix.
func (c Camera) View() Mat4 {
	up := c.Up
	if up == (Vec3{}) {
		up = V3(0, 1, 0)
	}
	return Mat4LookAt(c.Position, c.Target, up)
}

// Projection returns the projection matrix for a target aspect.
func (c Camera) Projection(aspect Scalar) Mat4 {
	if c.Aspect != 0 {
		aspect = c.Aspect
	}
	fov := c.FOVYRad
	if fov == 0 {
		fov = Scalar(1.0)
	}
	return Mat4Perspective(fov, aspect, c.Near, c.Far)
}

// Vertex is a mesh vertex.
type Vertex struct {
	Pos    Vec3
	Normal Vec3
	Color  Color
	UV     Vec2
}

// Face is a run of Count triangles starting at triangle First, bound to one material.
type Face struct {
	First    int
	Count    int
	Material int
}

// Mesh is a triangle mesh with an object transform.
//
// A mesh with Materials set is multi-material: each Face selects its material by index.
// Otherwise every triangle uses Material.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32 // triangle list

	Faces     []Face
	Materials []Material

	Transform Mat4
	Material  Material
}

// TriangleCount returns the number of triangles in the index list.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// FaceMaterial returns the material bound to face i.
func (m *Mesh) FaceMaterial(i int) (Material, bool) {
	if m == nil || i < 0 || i >= len(m.Faces) {
		return Material{}, false
	}
	idx := m.Faces[i].Material
	if len(m.Materials) == 0 {
		return m.Material, true
	}
	if idx < 0 || idx >= len(m.Materials) {
		return Material{}, false
	}
	return m.Materials[idx], true
}

// Scene is a collection of objects to render.
type Scene struct {
	Camera Camera

	meshes []Mesh
	alive  []bool
}

// CreateScene allocates a scene with a fixed mesh capacity.
func CreateScene(maxMeshes int) *Scene {
	if maxMeshes < 0 {
		maxMeshes = 0
	}
	return &Scene{
		Camera: Camera{
			Position: V3(0, 0, 3),
			Target:   V3(0, 0, 0),
			Up:       V3(0, 1, 0),
			FOVYRad:  Scalar(1.0),
			Near:     Scalar(0.05),
			Far:      Scalar(100),
		},
		meshes: make([]Mesh, maxMeshes),
		alive:  make([]bool, maxMeshes),
	}
}

// AddMesh adds a mesh to the scene and returns its id or -1 if full.
func (s *Scene) AddMesh(m Mesh) int {
	if s == nil {
		return -1
	}
	for i := range s.meshes {
		if s.alive[i] {
			continue
		}
		if m.Transform == (Mat4{}) {
			m.Transform = Mat4Identity()
		}
		m.Material = withMaterialDefaults(m.Material)
		m.Materials = append([]Material(nil), m.Materials...)
		for j := range m.Materials {
			m.Materials[j] = withMaterialDefaults(m.Materials[j])
		}
		s.meshes[i] = m
		s.alive[i] = true
		return i
	}
	return -1
}

func withMaterialDefaults(mt Material) Material {
	if mt.Opacity == 0 {
		mt.Opacity = 0xFF
	}
	if mt.BaseColor == (Color{}) {
		if mt.Map != nil {
			mt.BaseColor = White
		} else {
			mt.BaseColor = RGB(0xCC, 0xCC, 0xCC)
		}
	}
	return mt
}

// RemoveMesh removes a mesh by id.
func (s *Scene) RemoveMesh(id int) {
	if s == nil || id < 0 || id >= len(s.meshes) {
		return
	}
	s.alive[id] = false
	s.meshes[id] = Mesh{}
}

// UpdateMeshTransform updates a mesh transform by id.
func (s *Scene) UpdateMeshTransform(id int, m Mat4) {
	if s == nil || id < 0 || id >= len(s.meshes) || !s.alive[id] {
		return
	}
	s.meshes[id].Transform = m
}

// Mesh returns the live mesh with the given id.
func (s *Scene) Mesh(id int) (*Mesh, bool) {
	if s == nil || id < 0 || id >= len(s.meshes) || !s.alive[id] {
		return nil, false
	}
	return &s.meshes[id], true
}

// MeshCount returns the number of live meshes.
func (s *Scene) MeshCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, ok := range s.alive {
		if ok {
			n++
		}
	}
	return n
}

func (s *Scene) eachMesh(fn func(m *Mesh)) {
	for i := range s.meshes {
		if !s.alive[i] {
			continue
		}
		fn(&s.meshes[i])
	}
}
