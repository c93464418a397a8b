package world

import (
	"encoding/json"
	"fmt"
	"math"
)

// Vector3 is an immutable 3-component vector. Every operation returns a new value.
type Vector3 struct {
	X, Y, Z float64
}

func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vector3) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns the unit vector in the direction of v. The zero vector
// normalizes to itself.
func (v Vector3) Normalize() Vector3 {
	mag := v.Magnitude()
	if mag == 0 {
		return Vector3{}
	}
	return Vector3{X: v.X / mag, Y: v.Y / mag, Z: v.Z / mag}
}

func (v Vector3) ToArray() [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func Vector3FromArray(a [3]float64) Vector3 {
	return Vector3{X: a[0], Y: a[1], Z: a[2]}
}

// MarshalJSON encodes the vector as [x, y, z].
func (v Vector3) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToArray())
}

// UnmarshalJSON accepts an array of up to three numbers. Missing components are zero.
func (v *Vector3) UnmarshalJSON(b []byte) error {
	var components []float64
	if err := json.Unmarshal(b, &components); err != nil {
		return fmt.Errorf("vector: %w", err)
	}
	if len(components) > 3 {
		return fmt.Errorf("vector: %d components, want at most 3", len(components))
	}
	var a [3]float64
	copy(a[:], components)
	*v = Vector3FromArray(a)
	return nil
}

func (v Vector3) String() string {
	return fmt.Sprintf("(%0.2f,%0.2f,%0.2f)", v.X, v.Y, v.Z)
}
