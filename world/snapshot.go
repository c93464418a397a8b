package world

import "math"

// Snapshot is the wire form of a player. Nil fields are absent from the
// message and leave the receiving player untouched.
type Snapshot struct {
	ID       string   `json:"id,omitempty"`
	Name     string   `json:"name,omitempty"`
	Position *Vector3 `json:"position,omitempty"`
	Rotation *Vector3 `json:"rotation,omitempty"`
	Velocity *Vector3 `json:"velocity,omitempty"`
	Health   *float64 `json:"health,omitempty"`
	Kills    *int     `json:"kills,omitempty"`
	Deaths   *int     `json:"deaths,omitempty"`
	Team     *int     `json:"team,omitempty"`
	IsAlive  *bool    `json:"isAlive,omitempty"`
}

func (p *Player) Serialize() Snapshot {
	position, rotation, velocity := p.Position, p.Rotation, p.Velocity
	health, kills, deaths, team, alive := p.Health, p.Kills, p.Deaths, p.Team, p.Alive
	return Snapshot{
		ID:       p.ID,
		Name:     p.Name,
		Position: &position,
		Rotation: &rotation,
		Velocity: &velocity,
		Health:   &health,
		Kills:    &kills,
		Deaths:   &deaths,
		Team:     &team,
		IsAlive:  &alive,
	}
}

// ApplySnapshot overwrites only the fields present in s. Identity is never
// taken from a snapshot except an empty name being filled in. Death does not
// count towards Deaths here; the counters come from the snapshot.
func (p *Player) ApplySnapshot(s Snapshot) {
	if p.Name == "" && s.Name != "" {
		p.Name = s.Name
	}
	if s.Position != nil {
		p.Position = *s.Position
	}
	if s.Rotation != nil {
		p.Rotation = *s.Rotation
	}
	if s.Velocity != nil {
		p.Velocity = *s.Velocity
	}
	if s.Health != nil {
		p.Health = math.Max(0, math.Min(p.MaxHealth, *s.Health))
	}
	if s.Kills != nil {
		p.Kills = *s.Kills
	}
	if s.Deaths != nil {
		p.Deaths = *s.Deaths
	}
	if s.Team != nil {
		p.Team = *s.Team
	}
	if s.IsAlive != nil {
		p.Alive = *s.IsAlive
		if p.Alive && s.Health == nil && p.Health == 0 {
			p.Health = p.MaxHealth
		}
	}
	// A dead player has no health, and a player with no health is dead.
	if !p.Alive || p.Health == 0 {
		p.Alive = false
		p.Health = 0
	}
}
