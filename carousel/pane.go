package carousel

import (
	"fmt"
	"image/color"
	"log/slog"

	"github.com/google/uuid"

	"carousel/canvas"
	"carousel/quarkgl"
	"carousel/video"
)

// VideoPane renders one video source into a mirrored canvas that backs a texture.
type VideoPane struct {
	id    uuid.UUID
	video video.Source
	log   *slog.Logger

	width  int
	height int

	surface  *canvas.Surface
	ctx      *canvas.Context
	texture  *quarkgl.Texture
	material quarkgl.Material

	lastDrawTime float64
}

// NewVideoPane builds the pane surface, texture and material for v. The texture repeats
// segW x segH times so every sphere face shows the whole frame.
func NewVideoPane(v video.Source, width, height, segW, segH int) (*VideoPane, error) {
	surface, err := canvas.NewSurface(width, height)
	if err != nil {
		return nil, fmt.Errorf("carousel: pane surface: %w", err)
	}

	// The sphere is seen from inside, which mirrors the frame horizontally.
	ctx := surface.Context()
	ctx.Translate(float64(width), 0)
	ctx.Scale(-1, 1)
	ctx.SetFillStyle(color.Black)
	ctx.FillRect(0, 0, float64(width), float64(height))

	tex := quarkgl.NewTexture(surface.Image())
	tex.MinFilter = quarkgl.FilterLinear
	tex.MagFilter = quarkgl.FilterLinear
	tex.WrapS = quarkgl.WrapRepeat
	tex.WrapT = quarkgl.WrapRepeat
	tex.Repeat = quarkgl.V2(quarkgl.Scalar(segW), quarkgl.Scalar(segH))

	return &VideoPane{
		id:      uuid.New(),
		video:   v,
		log:     discardLogger,
		width:   width,
		height:  height,
		surface: surface,
		ctx:     ctx,
		texture: tex,
		material: quarkgl.Material{
			BaseColor: quarkgl.White,
			Map:       tex,
			Side:      quarkgl.SideBack,
		},
		lastDrawTime: -1,
	}, nil
}

// Update copies the current video frame into the surface when the video has enough
// data and its playback time moved. The texture is flagged for upload on every call.
func (p *VideoPane) Update() {
	if p.video != nil && p.video.ReadyState() == video.HaveEnoughData {
		if t := p.video.CurrentTime(); t != p.lastDrawTime {
			if frame := p.video.Frame(); frame != nil {
				p.ctx.DrawImage(frame, 0, 0, float64(p.width), float64(p.height))
				p.lastDrawTime = t
				p.log.Debug("pane: frame drawn", "pane", p.id, "time", t)
			}
		}
	}
	p.texture.SetNeedsUpdate()
}

func (p *VideoPane) ID() uuid.UUID              { return p.id }
func (p *VideoPane) Video() video.Source        { return p.video }
func (p *VideoPane) Surface() *canvas.Surface   { return p.surface }
func (p *VideoPane) Texture() *quarkgl.Texture  { return p.texture }
func (p *VideoPane) Material() quarkgl.Material { return p.material }

// LastDrawTime is the playback time of the last copied frame, or -1 before the first.
func (p *VideoPane) LastDrawTime() float64 { return p.lastDrawTime }
