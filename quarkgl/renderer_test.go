package quarkgl

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insideSphereScene(t *testing.T, side Side) (*Scene, *Texture) {
	t.Helper()
	tex := NewTexture(solidRGBA(4, 4, color.RGBA{R: 255, A: 255}))
	tex.WrapS, tex.WrapT = WrapRepeat, WrapRepeat

	s := CreateScene(1)
	s.Camera.Position = V3(0, 0, 0)
	s.Camera.Target = V3(0, 0, -1)
	s.Camera.FOVYRad = DegToRad(45)
	s.Camera.Near = 0.1
	s.Camera.Far = 100

	mesh := NewSphereGeometry(10, 16, 16)
	mesh.Materials = []Material{{Map: tex, Side: side}}
	id := s.AddMesh(mesh)
	require.GreaterOrEqual(t, id, 0)
	return s, tex
}

func renderScene(s *Scene) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	r := NewRenderer(64, 48, true)
	r.Mode = RenderSolidTextured
	r.Render(NewRGBATarget(img), s)
	return img
}

func TestRenderBackSideIsVisibleFromInside(t *testing.T) {
	s, tex := insideSphereScene(t, SideBack)
	img := renderScene(s)

	assert.Equal(t, color.RGBA{R: 255, A: 255}, img.RGBAAt(32, 24))
	assert.False(t, tex.NeedsUpdate(), "render uploads dirty textures")
	assert.Equal(t, uint64(1), tex.Version())
}

func TestRenderFrontSideIsCulledFromInside(t *testing.T) {
	s, _ := insideSphereScene(t, SideFront)
	img := renderScene(s)

	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(32, 24))
}

func TestRenderSkipsUploadWhenClean(t *testing.T) {
	s, tex := insideSphereScene(t, SideBack)
	r := NewRenderer(64, 48, true)
	r.Mode = RenderSolidTextured
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))

	r.Render(NewRGBATarget(img), s)
	r.Render(NewRGBATarget(img), s)
	assert.Equal(t, uint64(1), tex.Version())

	tex.SetNeedsUpdate()
	r.Render(NewRGBATarget(img), s)
	assert.Equal(t, uint64(2), tex.Version())
	assert.Equal(t, uint64(3), r.Frames())
}

func TestRenderFlatWithoutMapUsesBaseColor(t *testing.T) {
	s := CreateScene(1)
	s.Camera.Position = V3(0, 0, 0)
	s.Camera.Target = V3(0, 0, -1)
	s.Camera.FOVYRad = DegToRad(45)
	s.Camera.Near = 0.1
	s.Camera.Far = 100
	mesh := NewSphereGeometry(10, 16, 16)
	mesh.Material = Material{BaseColor: RGB(0, 0x80, 0), Side: SideDouble}
	s.AddMesh(mesh)

	img := renderScene(s)
	assert.Equal(t, color.RGBA{G: 0x80, A: 255}, img.RGBAAt(32, 24))
}

func TestSceneMeshLifecycle(t *testing.T) {
	s := CreateScene(1)
	id := s.AddMesh(Mesh{})
	require.Equal(t, 0, id)
	assert.Equal(t, -1, s.AddMesh(Mesh{}), "scene is full")
	assert.Equal(t, 1, s.MeshCount())

	m, ok := s.Mesh(id)
	require.True(t, ok)
	assert.Equal(t, Mat4Identity(), m.Transform)
	assert.Equal(t, uint8(0xFF), m.Material.Opacity)

	s.UpdateMeshTransform(id, Mat4Translate(V3(1, 2, 3)))
	assert.Equal(t, Mat4Translate(V3(1, 2, 3)), m.Transform)

	s.RemoveMesh(id)
	assert.Equal(t, 0, s.MeshCount())
	_, ok = s.Mesh(id)
	assert.False(t, ok)
}

func TestAddMeshDoesNotAliasMaterials(t *testing.T) {
	mats := []Material{{}}
	s := CreateScene(1)
	s.AddMesh(Mesh{Materials: mats})
	assert.Equal(t, Material{}, mats[0])
}

func triangleScene(t *testing.T) (*Scene, [3]Vec3) {
	t.Helper()
	pts := [3]Vec3{V3(-1, -1, 0), V3(1, -1, 0), V3(0, 1, 0)}
	s := CreateScene(1)
	id := s.AddMesh(Mesh{
		Vertices: []Vertex{
			{Pos: pts[0], Color: RGB(255, 0, 0)},
			{Pos: pts[1], Color: RGB(0, 255, 0)},
			{Pos: pts[2], Color: RGB(0, 0, 255)},
		},
		Indices:  []uint32{0, 1, 2},
		Material: Material{BaseColor: White, Side: SideDouble},
	})
	require.Equal(t, 0, id)
	return s, pts
}

func renderMode(s *Scene, mode RenderMode) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	r := NewRenderer(64, 48, true)
	r.SetRenderMode(mode)
	r.Render(NewRGBATarget(img), s)
	return img
}

// screenAt projects a world point with the scene camera onto a 64x48 target.
func screenAt(t *testing.T, s *Scene, p Vec3) (int, int) {
	t.Helper()
	mvp := Mat4Mul(s.Camera.Projection(Scalar(64.0/48.0)), s.Camera.View())
	sv, ok := project(mvp, Vertex{Pos: p}, 64, 48)
	require.True(t, ok)
	return sv.x, sv.y
}

func TestRenderWireframeDrawsEdgesOnly(t *testing.T) {
	s, pts := triangleScene(t)
	img := renderMode(s, RenderWireframe)

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for _, p := range pts {
		x, y := screenAt(t, s, p)
		assert.Equal(t, white, img.RGBAAt(x, y), "corner %v", p)
	}
	x, y := screenAt(t, s, V3(0, -1, 0))
	assert.Equal(t, white, img.RGBAAt(x, y), "bottom edge")

	cx, cy := screenAt(t, s, V3(0, -1.0/3, 0))
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(cx, cy), "interior stays clear")
}

func TestRenderFlatFillsInterior(t *testing.T) {
	s, _ := triangleScene(t)
	img := renderMode(s, RenderSolidFlat)

	cx, cy := screenAt(t, s, V3(0, -1.0/3, 0))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, img.RGBAAt(cx, cy))
}

func TestRenderFlatIgnoresMap(t *testing.T) {
	s, tex := insideSphereScene(t, SideBack)
	img := renderMode(s, RenderSolidFlat)

	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, img.RGBAAt(32, 24))
	assert.Equal(t, uint64(1), tex.Version(), "maps are still uploaded")
}

func TestRenderVertexColorInterpolates(t *testing.T) {
	s, pts := triangleScene(t)
	img := renderMode(s, RenderSolidVertexColor)

	cx, cy := screenAt(t, s, V3(0, -1.0/3, 0))
	c := img.RGBAAt(cx, cy)
	assert.InDelta(t, 85, int(c.R), 20)
	assert.InDelta(t, 85, int(c.G), 20)
	assert.InDelta(t, 85, int(c.B), 20)

	x, y := screenAt(t, s, pts[2])
	top := img.RGBAAt(x, y)
	assert.Greater(t, top.B, top.R, "apex is blue dominated")
	assert.Greater(t, top.B, top.G)
}
