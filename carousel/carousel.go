// Package carousel textures the inside of a sphere with video panes and spins it slowly
// in front of a perspective camera.
package carousel

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"

	"github.com/go-playground/validator/v10"

	"carousel/canvas"
	"carousel/quarkgl"
	"carousel/video"
)

const (
	DefaultPaneWidth      = 1024
	DefaultPaneHeight     = 1024
	DefaultSphereDepth    = 6000
	DefaultSegmentsWidth  = 50
	DefaultSegmentsHeight = 50
	DefaultCameraDistance = 1500
	DefaultFOV            = 45
	DefaultRotationStep   = 0.0002
)

var (
	ErrNoVideos      = errors.New("carousel: no videos")
	ErrRenderSurface = errors.New("carousel: cannot create render surface")
	ErrAlreadySetup  = errors.New("carousel: scene already set up")
	ErrInvalidConfig = errors.New("carousel: invalid config")
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Config holds the carousel geometry and render mode.
type Config struct {
	PaneWidth      int                `validate:"gt=0"`
	PaneHeight     int                `validate:"gt=0"`
	SphereDepth    float64            `validate:"gt=0"`
	SegmentsWidth  int                `validate:"gte=3"`
	SegmentsHeight int                `validate:"gte=2"`
	CameraDistance float64            `validate:"gte=0,ltfield=SphereDepth"`
	FOV            float64            `validate:"gt=0,lt=180"` // degrees
	RotationStep   float64            // radians per tick
	RenderMode     quarkgl.RenderMode `validate:"lte=3"`
}

var validate = validator.New()

// Validate reports the first constraint cfg breaks, wrapped in ErrInvalidConfig.
func (cfg Config) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func DefaultConfig() Config {
	return Config{
		PaneWidth:      DefaultPaneWidth,
		PaneHeight:     DefaultPaneHeight,
		SphereDepth:    DefaultSphereDepth,
		SegmentsWidth:  DefaultSegmentsWidth,
		SegmentsHeight: DefaultSegmentsHeight,
		CameraDistance: DefaultCameraDistance,
		FOV:            DefaultFOV,
		RotationStep:   DefaultRotationStep,
		RenderMode:     quarkgl.RenderSolidTextured,
	}
}

// Viewport is the host display size, read once at construction.
type Viewport struct {
	Width  int
	Height int
}

// Display is where the render surface is shown.
type Display interface {
	Attach(img *image.RGBA)
}

type Option func(*Carousel)

func WithLogger(l *slog.Logger) Option {
	return func(c *Carousel) {
		if l != nil {
			c.log = l
		}
	}
}

func WithConfig(cfg Config) Option {
	return func(c *Carousel) { c.cfg = cfg }
}

// Carousel owns the scene, the camera, the sphere and one pane per video.
type Carousel struct {
	cfg Config
	log *slog.Logger

	surface  *canvas.Surface
	target   *quarkgl.RGBATarget
	scene    *quarkgl.Scene
	renderer *quarkgl.Renderer

	panes     []*VideoPane
	materials []quarkgl.Material

	sphere   quarkgl.Mesh
	sphereID int
	position quarkgl.Vec3
	rotation float64
}

// New builds a carousel over videos in order. Face i of the sphere shows
// videos[i mod len(videos)].
func New(videos []video.Source, vp Viewport, opts ...Option) (*Carousel, error) {
	if len(videos) == 0 {
		return nil, ErrNoVideos
	}

	c := &Carousel{
		cfg:      DefaultConfig(),
		log:      discardLogger,
		sphereID: -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	cfg := c.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	surface, err := canvas.NewSurface(vp.Width, vp.Height)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderSurface, err)
	}
	c.surface = surface
	c.target = quarkgl.NewRGBATarget(surface.Image())

	c.scene = quarkgl.CreateScene(1)
	c.scene.Camera = quarkgl.Camera{
		Position: quarkgl.V3(0, 0, quarkgl.Scalar(cfg.CameraDistance)),
		Target:   quarkgl.V3(0, 0, 0),
		Up:       quarkgl.V3(0, 1, 0),
		FOVYRad:  quarkgl.DegToRad(quarkgl.Scalar(cfg.FOV)),
		Aspect:   quarkgl.Scalar(vp.Width) / quarkgl.Scalar(vp.Height),
		Near:     1,
		Far:      quarkgl.Scalar(cfg.SphereDepth),
	}

	c.renderer = quarkgl.NewRenderer(vp.Width, vp.Height, true)
	c.renderer.SetRenderMode(cfg.RenderMode)

	c.panes = make([]*VideoPane, 0, len(videos))
	for i, v := range videos {
		p, err := NewVideoPane(v, cfg.PaneWidth, cfg.PaneHeight, cfg.SegmentsWidth, cfg.SegmentsHeight)
		if err != nil {
			return nil, fmt.Errorf("carousel: pane %d: %w", i, err)
		}
		p.log = c.log
		c.panes = append(c.panes, p)
		c.log.Debug("carousel: pane created", "index", i, "pane", p.id)
	}

	c.materials = make([]quarkgl.Material, len(c.panes))
	for i, p := range c.panes {
		c.materials[i] = p.material
	}

	c.sphere = quarkgl.NewSphereGeometry(quarkgl.Scalar(cfg.SphereDepth/2), cfg.SegmentsWidth, cfg.SegmentsHeight)
	c.sphere.Materials = c.materials
	c.sphere.AssignRoundRobin(len(c.materials))

	c.log.Info("carousel: built",
		"panes", len(c.panes),
		"faces", len(c.sphere.Faces),
		"viewport", fmt.Sprintf("%dx%d", vp.Width, vp.Height))
	return c, nil
}

// SetupScene places the sphere in front of the camera, adds it to the scene and attaches
// the render surface to d. It may run once.
func (c *Carousel) SetupScene(d Display) error {
	if c.sphereID >= 0 {
		return ErrAlreadySetup
	}
	c.position = quarkgl.V3(0, 0, quarkgl.Scalar(c.cfg.SphereDepth/2))
	c.sphere.Transform = c.transform()
	id := c.scene.AddMesh(c.sphere)
	if id < 0 {
		return errors.New("carousel: scene is full")
	}
	c.sphereID = id
	if d != nil {
		d.Attach(c.surface.Image())
	}
	c.log.Info("carousel: scene ready", "sphere", id)
	return nil
}

// Animate runs one tick: refresh every pane, turn the sphere and render.
func (c *Carousel) Animate() {
	for _, p := range c.panes {
		p.Update()
	}
	c.rotation -= c.cfg.RotationStep
	if c.sphereID >= 0 {
		c.scene.UpdateMeshTransform(c.sphereID, c.transform())
	}
	c.renderer.Render(c.target, c.scene)
}

func (c *Carousel) transform() quarkgl.Mat4 {
	rot := quarkgl.V3(0, quarkgl.Scalar(math.Mod(c.rotation, 2*math.Pi)), 0)
	return quarkgl.Mat4Compose(c.position, rot, quarkgl.V3(1, 1, 1))
}

func (c *Carousel) mesh() *quarkgl.Mesh {
	if m, ok := c.scene.Mesh(c.sphereID); ok {
		return m
	}
	return &c.sphere
}

// Panes returns the panes in input order.
func (c *Carousel) Panes() []*VideoPane {
	return append([]*VideoPane(nil), c.panes...)
}

// Materials returns the pane materials in input order.
func (c *Carousel) Materials() []quarkgl.Material {
	return append([]quarkgl.Material(nil), c.materials...)
}

func (c *Carousel) FaceCount() int { return len(c.mesh().Faces) }

// FaceMaterial returns the material index bound to face i.
func (c *Carousel) FaceMaterial(i int) (int, bool) {
	m := c.mesh()
	if i < 0 || i >= len(m.Faces) {
		return 0, false
	}
	return m.Faces[i].Material, true
}

// Rotation is the sphere angle about the vertical axis in radians.
func (c *Carousel) Rotation() float64 { return c.rotation }

func (c *Carousel) Position() quarkgl.Vec3   { return c.position }
func (c *Carousel) Surface() *canvas.Surface { return c.surface }
func (c *Carousel) Camera() quarkgl.Camera   { return c.scene.Camera }
func (c *Carousel) Config() Config           { return c.cfg }
func (c *Carousel) Frames() uint64           { return c.renderer.Frames() }
