package world

import (
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

const (
	MaxHealth     = 100
	ShootCooldown = 100 * time.Millisecond

	MoveSpeed    = 10.0
	JumpSpeed    = 8.0
	Gravity      = 25.0
	GroundHeight = 1.8
	// WorldSize is the half-extent of the playable square on the X/Z plane.
	WorldSize = 50.0
	// SpawnSize is the half-extent of the square random respawns land in.
	SpawnSize = 20.0
)

var (
	ErrNotLocal  = errors.New("player is not locally authoritative")
	ErrNotRemote = errors.New("player is not remotely authoritative")
)

// Authority says where a player's true state originates.
type Authority int

const (
	// Remote players are driven by network snapshots only.
	Remote Authority = iota
	// Local players are stepped from input and pushed to the network.
	Local
)

func (a Authority) String() string {
	if a == Local {
		return "local"
	}
	return "remote"
}

// DefaultPosition is where a freshly constructed player stands.
var DefaultPosition = Vector3{X: 0, Y: GroundHeight, Z: 5}

type Player struct {
	ID       string
	Name     string
	Position Vector3
	// Rotation holds pitch in X and yaw in Y. Z is unused.
	Rotation Vector3
	Velocity Vector3
	PlayerState
	authority Authority
}

type PlayerState struct {
	Health    float64
	MaxHealth float64
	Kills     int
	Deaths    int
	Team      int
	Alive     bool
	OnGround  bool
	LastShot  time.Time
}

func NewPlayer(ID, name string, authority Authority) *Player {
	return &Player{
		ID:       ID,
		Name:     name,
		Position: DefaultPosition,
		PlayerState: PlayerState{
			Health:    MaxHealth,
			MaxHealth: MaxHealth,
			Alive:     true,
			OnGround:  true,
		},
		authority: authority,
	}
}

// NewRemotePlayer builds a remotely authoritative player from a wire snapshot.
func NewRemotePlayer(s Snapshot) *Player {
	p := NewPlayer(s.ID, s.Name, Remote)
	p.ApplySnapshot(s)
	return p
}

func (p *Player) Authority() Authority {
	return p.authority
}

func (p *Player) IsLocal() bool {
	return p.authority == Local
}

// Rekey adopts the server-assigned identity, keeping all other state.
func (p *Player) Rekey(ID, name string) {
	p.ID = ID
	if name != "" {
		p.Name = name
	}
}

// Step advances the local simulation by dt seconds. Dead players do not move.
func (p *Player) Step(dt float64, in ControlInput) error {
	if p.authority != Local {
		return ErrNotLocal
	}
	if !p.Alive {
		return nil
	}
	stepPlayer(p, dt, in)
	return nil
}

// TryShoot records now as the last shot when the player is alive and the
// cooldown has elapsed. It changes nothing when it returns false.
func (p *Player) TryShoot(now time.Time) bool {
	if !p.Alive || now.Sub(p.LastShot) < ShootCooldown {
		return false
	}
	p.LastShot = now
	return true
}

// ApplyDamage lowers health, never below zero, and reports whether this
// call killed the player.
func (p *Player) ApplyDamage(amount float64) bool {
	if !p.Alive {
		return false
	}
	p.Health = math.Max(0, p.Health-amount)
	if p.Health > 0 {
		return false
	}
	return p.Die()
}

// Die transitions a living player to dead. It reports false if the player
// was already dead.
func (p *Player) Die() bool {
	if !p.Alive {
		return false
	}
	p.Alive = false
	p.Health = 0
	p.Deaths++
	p.Velocity = Vector3{}
	return true
}

// Respawn brings the player back at full health. A nil position picks a
// random point inside the spawn square. Kills and deaths are kept.
func (p *Player) Respawn(position *Vector3) {
	p.Alive = true
	p.Health = p.MaxHealth
	if position != nil {
		p.Position = *position
	} else {
		p.Position = RandomSpawn()
	}
	p.Velocity = Vector3{}
	p.OnGround = true
}

// RandomSpawn picks a point in the spawn square at ground height.
func RandomSpawn() Vector3 {
	return Vector3{
		X: (rand.Float64() - 0.5) * 2 * SpawnSize,
		Y: GroundHeight,
		Z: (rand.Float64() - 0.5) * 2 * SpawnSize,
	}
}

func (p *Player) AddKill() {
	p.Kills++
}

func (p *Player) KDRatio() float64 {
	if p.Deaths == 0 {
		return float64(p.Kills)
	}
	return float64(p.Kills) / float64(p.Deaths)
}

// ShootDirection is the unit vector the player is aiming along.
func (p *Player) ShootDirection() Vector3 {
	pitch, yaw := p.Rotation.X, p.Rotation.Y
	return Vector3{
		X: math.Sin(yaw) * math.Cos(pitch),
		Y: math.Sin(pitch),
		Z: -math.Cos(yaw) * math.Cos(pitch),
	}.Normalize()
}

// HealthPercent is health as a share of max health in [0, 100].
func (p *Player) HealthPercent() float64 {
	if p.MaxHealth <= 0 {
		return 0
	}
	return math.Max(0, math.Min(100, p.Health/p.MaxHealth*100))
}

// SmoothTowards moves position, pitch and yaw a fraction of the way to the
// snapshot. factor is clamped to [0, 1]; 1 snaps.
func (p *Player) SmoothTowards(target Snapshot, factor float64) error {
	if p.authority != Remote {
		return ErrNotRemote
	}
	factor = math.Max(0, math.Min(1, factor))
	if target.Position != nil {
		p.Position = lerpVector(p.Position, *target.Position, factor)
	}
	if target.Rotation != nil {
		p.Rotation.X = lerp(p.Rotation.X, target.Rotation.X, factor)
		p.Rotation.Y = lerp(p.Rotation.Y, target.Rotation.Y, factor)
	}
	return nil
}

func lerp(v0, v1, t float64) float64 {
	if t == 1 {
		return v1
	}
	return v0 + (v1-v0)*t
}

func lerpVector(a, b Vector3, t float64) Vector3 {
	return Vector3{
		X: lerp(a.X, b.X, t),
		Y: lerp(a.Y, b.Y, t),
		Z: lerp(a.Z, b.Z, t),
	}
}
