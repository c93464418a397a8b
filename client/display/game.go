package display

import (
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"skirmish/client"
	"skirmish/world"
)

const (
	mouseSensitivity = 0.003
	turnSpeed        = 2.5 // radians per second for the arrow keys
	maxPitch         = math.Pi/2 - 0.01
)

// Game adapts the controller to ebiten. Input becomes a ControlInput once
// per update; everything drawn comes from the controller's read-only views.
type Game struct {
	controller *client.Controller
	feed       *client.Feed
	renderer   *Renderer

	yaw, pitch     float64
	lastX, lastY   int
	cursorCaptured bool
}

// NewGame wires a controller built with feed as its sink.
func NewGame(controller *client.Controller, feed *client.Feed, assets *Assets) *Game {
	return &Game{
		controller: controller,
		feed:       feed,
		renderer:   NewRenderer(assets),
	}
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		g.controller.Disconnect()
		return ebiten.Termination
	}

	dt := 1 / float64(ebiten.TPS())
	in := g.readInput(dt)
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) || ebiten.IsKeyPressed(ebiten.KeyF) {
		g.controller.Shoot()
	}
	g.controller.Tick(dt, in)
	g.feed.Expire(time.Now())
	return nil
}

func (g *Game) readInput(dt float64) world.ControlInput {
	if !g.cursorCaptured {
		ebiten.SetCursorMode(ebiten.CursorModeCaptured)
		g.lastX, g.lastY = ebiten.CursorPosition()
		g.cursorCaptured = true
	}
	x, y := ebiten.CursorPosition()
	g.yaw += float64(x-g.lastX) * mouseSensitivity
	g.pitch -= float64(y-g.lastY) * mouseSensitivity
	g.lastX, g.lastY = x, y

	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		g.yaw -= turnSpeed * dt
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		g.yaw += turnSpeed * dt
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		g.pitch += turnSpeed * dt
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		g.pitch -= turnSpeed * dt
	}
	g.pitch = math.Max(-maxPitch, math.Min(maxPitch, g.pitch))

	return world.ControlInput{
		Forward: ebiten.IsKeyPressed(ebiten.KeyW),
		Back:    ebiten.IsKeyPressed(ebiten.KeyS),
		Left:    ebiten.IsKeyPressed(ebiten.KeyA),
		Right:   ebiten.IsKeyPressed(ebiten.KeyD),
		Jump:    ebiten.IsKeyPressed(ebiten.KeySpace),
		Pitch:   g.pitch,
		Yaw:     g.yaw,
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	local := g.controller.Local()
	var peers []client.PlayerView
	for _, p := range g.controller.Roster() {
		if !p.Local {
			peers = append(peers, p)
		}
	}

	g.renderer.DrawView(screen, local, peers)
	g.renderer.DrawRadar(screen, local, peers)
	g.renderer.DrawEffects(screen, g.feed)
	g.renderer.DrawHUD(screen, HUD{
		Status:     g.controller.Status(),
		Health:     g.controller.HealthPercent(),
		Local:      local,
		Respawn:    g.controller.RespawnRemaining(),
		Notices:    g.feed.Notices(),
		Scoreboard: g.controller.Scoreboard(),
		ShowScores: ebiten.IsKeyPressed(ebiten.KeyTab),
	})
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return outsideWidth, outsideHeight
}
