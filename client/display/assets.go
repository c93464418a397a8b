package display

import (
	_ "embed"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

//go:embed assets/version.txt
var version string

// Version is the build version shipped in assets/version.txt.
func Version() string {
	return strings.TrimSpace(version)
}

var (
	backgroundColor = color.RGBA{164, 178, 191, 255}
	radarColor      = color.RGBA{32, 40, 48, 200}
	localColor      = color.RGBA{218, 212, 94, 255}
	peerColor       = color.RGBA{208, 70, 72, 255}
	deadColor       = color.RGBA{96, 96, 96, 255}
	flashColor      = color.RGBA{255, 240, 160, 255}
	damageColor     = color.RGBA{200, 0, 0, 96}
)

// Assets holds the sprites the renderer draws. They are generated rather
// than loaded so the client ships as a single binary.
type Assets struct {
	images map[string]*ebiten.Image
}

func (a *Assets) Image(name string) *ebiten.Image {
	return a.images[name]
}

func LoadAssets() *Assets {
	a := &Assets{images: make(map[string]*ebiten.Image)}
	a.images["player"] = marker(localColor)
	a.images["enemy"] = marker(peerColor)
	a.images["dead"] = marker(deadColor)
	return a
}

func marker(c color.Color) *ebiten.Image {
	image := ebiten.NewImage(markerSize, markerSize)
	vector.DrawFilledCircle(image, markerSize/2, markerSize/2, markerSize/2, c, true)
	return image
}

const markerSize = 12
