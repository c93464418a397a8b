package world

import "math"

// Mat4 is a column-major homogeneous transform. Element (row r, column c)
// lives at index c*4+r, so the translation occupies indices 12, 13 and 14.
type Mat4 [16]float64

func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Multiply returns a·b. Applying the result to a point is the same as
// applying b first and then a.
func Multiply(a, b Mat4) Mat4 {
	var c Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			c[col*4+row] = sum
		}
	}
	return c
}

// Translate post-multiplies m by a translation in place.
func (m *Mat4) Translate(x, y, z float64) *Mat4 {
	m[12] += m[0]*x + m[4]*y + m[8]*z
	m[13] += m[1]*x + m[5]*y + m[9]*z
	m[14] += m[2]*x + m[6]*y + m[10]*z
	m[15] += m[3]*x + m[7]*y + m[11]*z
	return m
}

// RotateX post-multiplies m by a rotation of rad radians about the X axis.
func (m *Mat4) RotateX(rad float64) *Mat4 {
	s, c := math.Sincos(rad)
	for r := 0; r < 4; r++ {
		y, z := m[4+r], m[8+r]
		m[4+r] = y*c + z*s
		m[8+r] = z*c - y*s
	}
	return m
}

// RotateY post-multiplies m by a rotation of rad radians about the Y axis.
func (m *Mat4) RotateY(rad float64) *Mat4 {
	s, c := math.Sincos(rad)
	for r := 0; r < 4; r++ {
		x, z := m[r], m[8+r]
		m[r] = x*c - z*s
		m[8+r] = x*s + z*c
	}
	return m
}

// TransformPoint applies m to p with w = 1 and divides by the resulting w
// when it is not 1.
func (m Mat4) TransformPoint(p Vector3) Vector3 {
	x := m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12]
	y := m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13]
	z := m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14]
	w := m[3]*p.X + m[7]*p.Y + m[11]*p.Z + m[15]
	if w != 0 && w != 1 {
		return Vector3{X: x / w, Y: y / w, Z: z / w}
	}
	return Vector3{X: x, Y: y, Z: z}
}

// Perspective builds a right-handed projection with a vertical field of view of fovy radians.
func Perspective(fovy, aspect, near, far float64) Mat4 {
	f := 1 / math.Tan(fovy/2)
	nf := 1 / (near - far)
	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) * nf, -1,
		0, 0, 2 * far * near * nf, 0,
	}
}

// ViewMatrix builds the first-person camera for an eye at position looking
// along rotation (X = pitch, Y = yaw). The look direction maps onto -Z.
func ViewMatrix(position, rotation Vector3) Mat4 {
	view := Identity()
	view.RotateX(-rotation.X)
	view.RotateY(rotation.Y)
	view.Translate(-position.X, -position.Y, -position.Z)
	return view
}
