package world

import "math"

// ControlInput is one tick of player intent: discrete movement keys plus
// the absolute look angles in radians.
type ControlInput struct {
	Forward, Back, Left, Right bool
	Jump                       bool
	Pitch, Yaw                 float64
}

func stepPlayer(p *Player, dt float64, in ControlInput) {
	p.Rotation.X = in.Pitch
	p.Rotation.Y = in.Yaw

	forward := Vector3{X: math.Sin(p.Rotation.Y), Z: -math.Cos(p.Rotation.Y)}
	right := Vector3{X: math.Cos(p.Rotation.Y), Z: math.Sin(p.Rotation.Y)}

	var direction Vector3
	if in.Forward {
		direction = direction.Add(forward)
	}
	if in.Back {
		direction = direction.Sub(forward)
	}
	if in.Left {
		direction = direction.Sub(right)
	}
	if in.Right {
		direction = direction.Add(right)
	}

	// Opposing keys cancel out to the zero vector, which normalizes to zero.
	move := direction.Normalize().Scale(MoveSpeed)
	p.Velocity.X = move.X
	p.Velocity.Z = move.Z

	if in.Jump && p.OnGround {
		p.Velocity.Y = JumpSpeed
		p.OnGround = false
	}

	p.Velocity.Y -= Gravity * dt
	p.Position = p.Position.Add(p.Velocity.Scale(dt))

	if p.Position.Y <= GroundHeight {
		p.Position.Y = GroundHeight
		p.Velocity.Y = 0
		p.OnGround = true
	}

	p.Position.X = clamp(p.Position.X, -WorldSize, WorldSize)
	p.Position.Z = clamp(p.Position.Z, -WorldSize, WorldSize)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// InBounds reports whether v lies inside the playable square at or above the ground.
func InBounds(v Vector3) bool {
	return math.Abs(v.X) <= WorldSize && math.Abs(v.Z) <= WorldSize && v.Y >= GroundHeight
}
