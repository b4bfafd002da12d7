package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/o0olele/octree-voxel/mathutil"
)

// minAxisLength is the shortest cross-product axis still worth testing.
const minAxisLength = 1e-5

// TriangleBox reports whether the triangle (v0, v1, v2) overlaps the box given by center and
// half extents. Intervals are closed, a triangle touching a face counts as overlapping.
func TriangleBox(v0, v1, v2, center, extents mgl64.Vec3) bool {
	// move the box to the origin
	a := v0.Sub(center)
	b := v1.Sub(center)
	c := v2.Sub(center)

	f0 := b.Sub(a)
	f1 := c.Sub(b)
	f2 := a.Sub(c)

	// plane of the triangle against the box
	normal := f0.Cross(f1)
	if normal.Len() > 1e-12 {
		r := extents[0]*math.Abs(normal[0]) + extents[1]*math.Abs(normal[1]) + extents[2]*math.Abs(normal[2])
		if math.Abs(normal.Dot(a)) > r {
			return false
		}
	}

	// triangle bounds against the box faces
	for axis := 0; axis < 3; axis++ {
		lo := mathutil.Min3(a[axis], b[axis], c[axis])
		hi := mathutil.Max3(a[axis], b[axis], c[axis])
		if lo > extents[axis] || hi < -extents[axis] {
			return false
		}
	}

	// box axes crossed with triangle edges
	for _, f := range [3]mgl64.Vec3{f0, f1, f2} {
		axes := [3]mgl64.Vec3{
			{0, -f[2], f[1]},
			{f[2], 0, -f[0]},
			{-f[1], f[0], 0},
		}
		for _, axis := range axes {
			if axis.Len() < minAxisLength {
				continue
			}
			if separated(axis, a, b, c, extents) {
				return false
			}
		}
	}

	return true
}

// separated checks if the projections of the triangle and the box on axis are disjoint.
func separated(axis, a, b, c, extents mgl64.Vec3) bool {
	p0 := a.Dot(axis)
	p1 := b.Dot(axis)
	p2 := c.Dot(axis)
	r := extents[0]*math.Abs(axis[0]) + extents[1]*math.Abs(axis[1]) + extents[2]*math.Abs(axis[2])
	return mathutil.Min3(p0, p1, p2) > r || mathutil.Max3(p0, p1, p2) < -r
}

// TriangleBoxCoarse is the cheaper test: any vertex inside the box, or any edge crossing it.
// It misses large triangles that cover a box without an edge passing through it.
func TriangleBoxCoarse(v0, v1, v2 mgl64.Vec3, box AABB) bool {
	if box.Contains(v0) || box.Contains(v1) || box.Contains(v2) {
		return true
	}
	return SegmentAABB(v0, v1, box) || SegmentAABB(v1, v2, box) || SegmentAABB(v2, v0, box)
}
