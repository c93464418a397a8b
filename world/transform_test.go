package world

import (
	"math"
	"testing"

	"skirmish/utils"
)

func vectorsAlmostEqual(a, b Vector3) bool {
	return utils.AlmostEqual(a.X, b.X, 1e-9) &&
		utils.AlmostEqual(a.Y, b.Y, 1e-9) &&
		utils.AlmostEqual(a.Z, b.Z, 1e-9)
}

func TestIdentityLeavesPointsAlone(t *testing.T) {
	p := Vector3{X: 1, Y: -2, Z: 3}
	if got := Identity().TransformPoint(p); got != p {
		t.Fatalf("identity moved %v to %v", p, got)
	}
}

func TestTranslate(t *testing.T) {
	m := Identity()
	m.Translate(1, 2, 3)
	got := m.TransformPoint(Vector3{X: 1, Y: 1, Z: 1})
	if want := (Vector3{X: 2, Y: 3, Z: 4}); got != want {
		t.Fatalf("translated point = %v, want %v", got, want)
	}
}

// Multiply(a, b) must apply b first. Translating then rotating differs from
// rotating then translating, which pins the convention down.
func TestMultiplyAppliesRightOperandFirst(t *testing.T) {
	translate := Identity()
	translate.Translate(1, 0, 0)
	rotate := Identity()
	rotate.RotateY(math.Pi / 2)

	p := Vector3{}

	// Translate to (1,0,0), then rotate 90° about Y onto (0,0,-1).
	got := Multiply(rotate, translate).TransformPoint(p)
	if want := (Vector3{X: 0, Y: 0, Z: -1}); !vectorsAlmostEqual(got, want) {
		t.Fatalf("rotate·translate applied to origin = %v, want %v", got, want)
	}

	// Rotating the origin does nothing, then translate to (1,0,0).
	got = Multiply(translate, rotate).TransformPoint(p)
	if want := (Vector3{X: 1}); !vectorsAlmostEqual(got, want) {
		t.Fatalf("translate·rotate applied to origin = %v, want %v", got, want)
	}
}

func TestInPlaceOperationsPostMultiply(t *testing.T) {
	chained := Identity()
	chained.Translate(0, 2, 0)
	chained.RotateX(math.Pi / 2)

	translate := Identity()
	translate.Translate(0, 2, 0)
	rotate := Identity()
	rotate.RotateX(math.Pi / 2)
	composed := Multiply(translate, rotate)

	p := Vector3{X: 1, Y: 1, Z: 0}
	if got, want := chained.TransformPoint(p), composed.TransformPoint(p); !vectorsAlmostEqual(got, want) {
		t.Fatalf("chained = %v, composed = %v", got, want)
	}
}

func TestMultiplyIsAssociative(t *testing.T) {
	a := Identity()
	a.Translate(1, 2, 3)
	b := Identity()
	b.RotateX(0.3)
	c := Identity()
	c.RotateY(-1.1)
	c.Translate(-4, 0, 2)

	left := Multiply(Multiply(a, b), c)
	right := Multiply(a, Multiply(b, c))
	for i := range left {
		if !utils.AlmostEqual(left[i], right[i], 1e-9) {
			t.Fatalf("element %d: (ab)c = %v, a(bc) = %v", i, left[i], right[i])
		}
	}
}

func TestViewMatrixLooksDownNegativeZ(t *testing.T) {
	p := NewPlayer("p1", "p1", Local)
	p.Position = Vector3{X: 3, Y: GroundHeight, Z: -7}
	p.Rotation = Vector3{X: 0.4, Y: 1.2}

	view := ViewMatrix(p.Position, p.Rotation)
	if got := view.TransformPoint(p.Position); !vectorsAlmostEqual(got, Vector3{}) {
		t.Fatalf("eye maps to %v, want origin", got)
	}
	ahead := p.Position.Add(p.ShootDirection())
	if got, want := view.TransformPoint(ahead), (Vector3{Z: -1}); !vectorsAlmostEqual(got, want) {
		t.Fatalf("point ahead maps to %v, want %v", got, want)
	}
}
