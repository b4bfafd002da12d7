package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	rayEpsilon = 1e-6
	// segmentEpsilon replaces zero direction components in SegmentAABB.
	segmentEpsilon = 1e-4
)

// RayTriangle checks if the ray intersects with the triangle (based on Möller–Trumbore).
// dir need not be normalized, t is in units of dir. Barycentric bounds are half-open
// (u in [0,1), v >= 0, u+v < 1) so a ray through an edge shared by two triangles hits once.
func RayTriangle(origin, dir, v0, v1, v2 mgl64.Vec3) (bool, float64) {
	e1 := v1.Sub(v0)
	e2 := v2.Sub(v0)
	pvec := dir.Cross(e2)
	det := e1.Dot(pvec)
	if math.Abs(det) < rayEpsilon {
		return false, 0
	}
	invDet := 1.0 / det
	tvec := origin.Sub(v0)
	u := tvec.Dot(pvec) * invDet
	if u < 0 || u >= 1 {
		return false, 0
	}
	qvec := tvec.Cross(e1)
	v := dir.Dot(qvec) * invDet
	if v < 0 || u+v >= 1 {
		return false, 0
	}
	t := e2.Dot(qvec) * invDet
	if t <= rayEpsilon {
		return false, 0
	}
	return true, t
}

// RayAABB checks if the ray intersects with the AABB (slab method), returns [tmin, tmax] and whether it intersects.
// tmin is clamped to 0 when the origin is inside the box.
func RayAABB(origin, dir mgl64.Vec3, aabb AABB) (float64, float64, bool) {
	tmin := math.Inf(-1)
	tmax := math.Inf(1)

	for axis := 0; axis < 3; axis++ {
		if math.Abs(dir[axis]) < rayEpsilon {
			if origin[axis] < aabb.Min[axis] || origin[axis] > aabb.Max[axis] {
				return 0, 0, false
			}
			continue
		}
		t1 := (aabb.Min[axis] - origin[axis]) / dir[axis]
		t2 := (aabb.Max[axis] - origin[axis]) / dir[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, 0, false
		}
	}

	if tmax < 0 {
		return 0, 0, false
	}
	if tmin < 0 {
		tmin = 0
	}
	return tmin, tmax, true
}

// SegmentAABB checks if the segment from p to q crosses the box.
// Zero direction components are replaced by a small epsilon so the slab divisions stay finite.
func SegmentAABB(p, q mgl64.Vec3, box AABB) bool {
	dir := q.Sub(p)
	tmin, tmax := 0.0, 1.0
	for axis := 0; axis < 3; axis++ {
		d := dir[axis]
		if d == 0 {
			d = segmentEpsilon
		}
		inv := 1 / d
		t1 := (box.Min[axis] - p[axis]) * inv
		t2 := (box.Max[axis] - p[axis]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return false
		}
	}
	return true
}
