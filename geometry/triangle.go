package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Triangle is a triangle geometry
type Triangle struct {
	A mgl64.Vec3 `json:"a"`
	B mgl64.Vec3 `json:"b"`
	C mgl64.Vec3 `json:"c"`
}

// Bounds returns the bounding box of the triangle
func (t Triangle) Bounds() AABB {
	return FromPoints(t.A, t.B, t.C)
}

// Normal returns the unit normal of the triangle, or the zero vector when degenerate.
func (t Triangle) Normal() mgl64.Vec3 {
	n := t.B.Sub(t.A).Cross(t.C.Sub(t.A))
	l := n.Len()
	if l < 1e-12 {
		return mgl64.Vec3{}
	}
	return n.Mul(1 / l)
}

// Area returns the surface area of the triangle.
func (t Triangle) Area() float64 {
	return 0.5 * t.B.Sub(t.A).Cross(t.C.Sub(t.A)).Len()
}

// IsDegenerate reports whether the triangle has (almost) no area.
func (t Triangle) IsDegenerate() bool {
	return t.Area() < 1e-12
}

// IsFinite reports whether all vertices are finite.
func (t Triangle) IsFinite() bool {
	for _, v := range [3]mgl64.Vec3{t.A, t.B, t.C} {
		for _, c := range v {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return false
			}
		}
	}
	return true
}

// IntersectsAABB checks if the triangle intersects with an AABB using the separating axis test.
func (t Triangle) IntersectsAABB(aabb AABB) bool {
	return TriangleBox(t.A, t.B, t.C, aabb.Center(), aabb.Extents())
}

// Transform returns the triangle with every vertex multiplied by m.
func (t Triangle) Transform(m mgl64.Mat4) Triangle {
	return Triangle{
		A: mgl64.TransformCoordinate(t.A, m),
		B: mgl64.TransformCoordinate(t.B, m),
		C: mgl64.TransformCoordinate(t.C, m),
	}
}
