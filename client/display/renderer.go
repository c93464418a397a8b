package display

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"skirmish/client"
	"skirmish/world"
)

const (
	fieldOfView = math.Pi / 3
	nearPlane   = 0.1
	farPlane    = 200.0

	radarRadius = 80.0
	// radarRange is how many world units fit between the radar center and its edge.
	radarRange = 30.0
)

type Renderer struct {
	*Assets
}

func NewRenderer(assets *Assets) *Renderer {
	return &Renderer{Assets: assets}
}

// DrawView projects every peer into the local player's first person view.
func (r *Renderer) DrawView(screen *ebiten.Image, local client.PlayerView, peers []client.PlayerView) {
	bounds := screen.Bounds()
	w, h := float64(bounds.Dx()), float64(bounds.Dy())

	view := world.ViewMatrix(local.Position, local.Rotation)
	projection := world.Perspective(fieldOfView, w/h, nearPlane, farPlane)
	viewProjection := world.Multiply(projection, view)

	for _, p := range peers {
		eye := view.TransformPoint(p.Position)
		if eye.Z > -nearPlane || -eye.Z > farPlane {
			continue
		}
		ndc := viewProjection.TransformPoint(p.Position)
		x := (ndc.X + 1) / 2 * w
		y := (1 - ndc.Y) / 2 * h
		scale := math.Max(0.5, math.Min(6, 20 / -eye.Z))

		image := r.Image("enemy")
		if !p.Alive {
			image = r.Image("dead")
		}
		options := &ebiten.DrawImageOptions{}
		options.GeoM.Translate(-markerSize/2, -markerSize/2)
		options.GeoM.Scale(scale, scale)
		options.GeoM.Translate(x, y)
		options.Filter = ebiten.FilterLinear
		screen.DrawImage(image, options)
		ebitenutil.DebugPrintAt(screen, p.Name, int(x)+int(markerSize*scale/2), int(y))
	}

	// Crosshair.
	cx, cy := float32(w/2), float32(h/2)
	vector.StrokeLine(screen, cx-6, cy, cx+6, cy, 1, localColor, false)
	vector.StrokeLine(screen, cx, cy-6, cx, cy+6, 1, localColor, false)
}

// DrawRadar draws a top-down map that turns with the local player, so
// straight ahead is always up.
func (r *Renderer) DrawRadar(screen *ebiten.Image, local client.PlayerView, peers []client.PlayerView) {
	bounds := screen.Bounds()
	cx := float64(bounds.Dx()) - radarRadius - 16
	cy := float64(bounds.Dy()) - radarRadius - 16
	vector.DrawFilledCircle(screen, float32(cx), float32(cy), radarRadius, radarColor, true)

	heading := world.ViewMatrix(local.Position, world.Vector3{Y: local.Rotation.Y})
	scale := radarRadius / radarRange
	for _, p := range peers {
		v := heading.TransformPoint(p.Position)
		x, y := v.X*scale, v.Z*scale
		if math.Hypot(x, y) > radarRadius {
			continue
		}
		c := peerColor
		if !p.Alive {
			c = deadColor
		}
		vector.DrawFilledCircle(screen, float32(cx+x), float32(cy+y), 3, c, true)
	}
	vector.DrawFilledCircle(screen, float32(cx), float32(cy), 4, localColor, true)
	vector.StrokeLine(screen, float32(cx), float32(cy), float32(cx), float32(cy-12), 2, localColor, true)
}

// DrawEffects overlays the short-lived cues.
func (r *Renderer) DrawEffects(screen *ebiten.Image, feed *client.Feed) {
	bounds := screen.Bounds()
	w, h := float32(bounds.Dx()), float32(bounds.Dy())
	if feed.Active(client.EffectDamageFlash) {
		vector.DrawFilledRect(screen, 0, 0, w, h, damageColor, false)
	}
	if feed.Active(client.EffectMuzzleFlash) {
		vector.DrawFilledCircle(screen, w/2, h/2+24, 8, flashColor, true)
	}
	if feed.Active(client.EffectHitConfirm) {
		vector.StrokeLine(screen, w/2-10, h/2-10, w/2+10, h/2+10, 2, flashColor, true)
		vector.StrokeLine(screen, w/2-10, h/2+10, w/2+10, h/2-10, 2, flashColor, true)
	}
}

// DrawHUD prints the status line, health, the notification feed and, when
// asked, the scoreboard.
func (r *Renderer) DrawHUD(screen *ebiten.Image, hud HUD) {
	lines := []string{
		fmt.Sprintf("Version: %s, TPS: %0.02f, FPS: %0.02f", Version(), ebiten.ActualTPS(), ebiten.ActualFPS()),
		fmt.Sprintf("%s  |  Health: %.0f%%  |  K/D: %d/%d", hud.Status, hud.Health, hud.Local.Kills, hud.Local.Deaths),
	}
	if hud.Respawn > 0 {
		lines = append(lines, fmt.Sprintf("Respawning in %.1fs", hud.Respawn.Seconds()))
	}
	for _, n := range hud.Notices {
		lines = append(lines, n.Text)
	}
	ebitenutil.DebugPrint(screen, strings.Join(lines, "\n"))

	if !hud.ShowScores {
		return
	}
	board := []string{"Scoreboard", fmt.Sprintf("    %-16s %3s %3s %5s", "Name", "K", "D", "K/D")}
	for i, p := range hud.Scoreboard {
		board = append(board, fmt.Sprintf("%2d. %-16s %3d %3d %5.2f", i+1, p.Name, p.Kills, p.Deaths, p.KD))
	}
	ebitenutil.DebugPrintAt(screen, strings.Join(board, "\n"), screen.Bounds().Dx()/2-100, 80)
}

// HUD is what DrawHUD needs from the controller for one frame.
type HUD struct {
	Status     string
	Health     float64
	Local      client.PlayerView
	Respawn    time.Duration
	Notices    []client.Notification
	Scoreboard []client.PlayerView
	ShowScores bool
}
