package geometry

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/o0olele/octree-voxel/mathutil"
)

// ClosestPointOnSegment returns the point of segment [a, b] nearest to p.
func ClosestPointOnSegment(p, a, b mgl64.Vec3) mgl64.Vec3 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 < 1e-24 {
		return a
	}
	t := mathutil.Clamp(p.Sub(a).Dot(ab)/l2, 0, 1)
	return a.Add(ab.Mul(t))
}

// PointSegmentDistance returns the distance from p to segment [a, b].
func PointSegmentDistance(p, a, b mgl64.Vec3) float64 {
	return p.Sub(ClosestPointOnSegment(p, a, b)).Len()
}

// ClosestPointOnTriangle returns the point of the triangle nearest to p.
// Degenerate triangles fall back to their nearest edge.
func ClosestPointOnTriangle(p mgl64.Vec3, t Triangle) mgl64.Vec3 {
	if t.IsDegenerate() {
		best := ClosestPointOnSegment(p, t.A, t.B)
		bestDist := p.Sub(best).Len()
		for _, e := range [2][2]mgl64.Vec3{{t.B, t.C}, {t.C, t.A}} {
			q := ClosestPointOnSegment(p, e[0], e[1])
			if d := p.Sub(q).Len(); d < bestDist {
				best, bestDist = q, d
			}
		}
		return best
	}

	// Voronoi region walk, Ericson, Real-Time Collision Detection 5.1.5
	ab := t.B.Sub(t.A)
	ac := t.C.Sub(t.A)
	ap := p.Sub(t.A)
	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return t.A
	}

	bp := p.Sub(t.B)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return t.B
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return t.A.Add(ab.Mul(d1 / (d1 - d3)))
	}

	cp := p.Sub(t.C)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return t.C
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return t.A.Add(ac.Mul(d2 / (d2 - d6)))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		return t.B.Add(t.C.Sub(t.B).Mul((d4 - d3) / ((d4 - d3) + (d5 - d6))))
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return t.A.Add(ab.Mul(v)).Add(ac.Mul(w))
}

// PointTriangleDistance returns the distance from p to the triangle.
func PointTriangleDistance(p mgl64.Vec3, t Triangle) float64 {
	return p.Sub(ClosestPointOnTriangle(p, t)).Len()
}
