//go:build cgo

package hal

import (
	"errors"
	"image"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"carousel/internal/buildinfo"
)

// RunWindow opens a desktop window sized to the viewport and calls the app step once per
// frame. It blocks until the window closes or Escape is pressed.
func RunWindow(cfg Config, newApp NewApp) (err error) {
	h := newHost(cfg, os.Stdout)
	step, release, err := newApp(h)
	if err != nil {
		return err
	}
	if release != nil {
		defer func() {
			if rerr := release(); rerr != nil && err == nil {
				err = rerr
			}
		}()
	}

	g := &hostGame{h: h, step: step}
	ebiten.SetWindowTitle("Carousel (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(h.cfg.Width, h.cfg.Height)
	ebiten.SetTPS(60)
	err = ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

type hostGame struct {
	h     *hostHAL
	img   *image.RGBA
	fbImg *ebiten.Image
	step  func() error
}

func (g *hostGame) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	g.h.t.stepWall(time.Now())
	if g.step != nil {
		if err := g.step(); err != nil {
			return err
		}
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	img := g.h.display.snapshot(g.img)
	if img == nil {
		return
	}
	if img != g.img {
		g.img = img
		if g.fbImg != nil {
			g.fbImg.Deallocate()
		}
		g.fbImg = ebiten.NewImage(img.Bounds().Dx(), img.Bounds().Dy())
	}
	g.fbImg.WritePixels(g.img.Pix)
	screen.DrawImage(g.fbImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.h.cfg.Width, g.h.cfg.Height
}
