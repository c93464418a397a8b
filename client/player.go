package client

import (
	"cmp"
	"slices"
	"time"

	"skirmish/network"
	"skirmish/world"
)

// PlayerView is a read-only copy of a roster entry.
type PlayerView struct {
	ID        string
	Name      string
	Local     bool
	Position  world.Vector3
	Rotation  world.Vector3
	Health    float64
	MaxHealth float64
	Kills     int
	Deaths    int
	KD        float64
	Team      int
	Alive     bool
}

func viewOf(p *world.Player) PlayerView {
	return PlayerView{
		ID:        p.ID,
		Name:      p.Name,
		Local:     p.IsLocal(),
		Position:  p.Position,
		Rotation:  p.Rotation,
		Health:    p.Health,
		MaxHealth: p.MaxHealth,
		Kills:     p.Kills,
		Deaths:    p.Deaths,
		KD:        p.KDRatio(),
		Team:      p.Team,
		Alive:     p.Alive,
	}
}

func (v PlayerView) HealthPercent() float64 {
	if v.MaxHealth <= 0 {
		return 0
	}
	return max(0, min(100, v.Health/v.MaxHealth*100))
}

func (c *Controller) Local() PlayerView {
	return viewOf(c.local)
}

func (c *Controller) LocalID() string {
	return c.local.ID
}

func (c *Controller) HealthPercent() float64 {
	return c.local.HealthPercent()
}

func (c *Controller) State() network.State {
	return c.link.State()
}

// Status is the connection line shown on the HUD.
func (c *Controller) Status() string {
	return c.link.State().String()
}

// RespawnRemaining is zero unless a respawn countdown is running.
func (c *Controller) RespawnRemaining() time.Duration {
	return c.respawn.Remaining(c.opts.Now())
}

// Peer returns a copy of a remote entry.
func (c *Controller) Peer(ID string) (PlayerView, bool) {
	p := c.peer(ID)
	if p == nil {
		return PlayerView{}, false
	}
	return viewOf(p), true
}

// Roster lists the local player first and everyone else by name.
func (c *Controller) Roster() []PlayerView {
	views := c.peerViews()
	slices.SortFunc(views, c.byName)
	return append([]PlayerView{viewOf(c.local)}, views...)
}

// Scoreboard orders everyone by kills, then fewest deaths, then name.
func (c *Controller) Scoreboard() []PlayerView {
	views := append(c.peerViews(), viewOf(c.local))
	slices.SortFunc(views, func(a, b PlayerView) int {
		if n := cmp.Compare(b.Kills, a.Kills); n != 0 {
			return n
		}
		if n := cmp.Compare(a.Deaths, b.Deaths); n != 0 {
			return n
		}
		return c.byName(a, b)
	})
	return views
}

func (c *Controller) peerViews() []PlayerView {
	var views []PlayerView
	c.players.ForEach(func(ID string, p *world.Player) {
		if ID != c.local.ID {
			views = append(views, viewOf(p))
		}
	})
	return views
}

func (c *Controller) byName(a, b PlayerView) int {
	if n := c.collator.CompareString(a.Name, b.Name); n != 0 {
		return n
	}
	return cmp.Compare(a.ID, b.ID)
}
