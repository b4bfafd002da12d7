package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/o0olele/octree-voxel/mathutil"
)

// AABB is axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3 `json:"min"`
	Max mgl64.Vec3 `json:"max"`
}

// FromCenterSize builds a box from its center and full edge lengths.
func FromCenterSize(center, size mgl64.Vec3) AABB {
	half := size.Mul(0.5)
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

// FromPoints returns the smallest box enclosing all points.
func FromPoints(points ...mgl64.Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	box := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box = box.Encapsulate(p)
	}
	return box
}

// Contains checks if the point is inside the AABB, faces included.
func (aabb AABB) Contains(point mgl64.Vec3) bool {
	return point[0] >= aabb.Min[0] && point[0] <= aabb.Max[0] &&
		point[1] >= aabb.Min[1] && point[1] <= aabb.Max[1] &&
		point[2] >= aabb.Min[2] && point[2] <= aabb.Max[2]
}

// ContainsBox checks if other lies entirely inside the AABB.
func (aabb AABB) ContainsBox(other AABB) bool {
	return aabb.Contains(other.Min) && aabb.Contains(other.Max)
}

// Center returns the center of the AABB
func (aabb AABB) Center() mgl64.Vec3 {
	return aabb.Min.Add(aabb.Max).Mul(0.5)
}

// Size returns the edge lengths of the AABB
func (aabb AABB) Size() mgl64.Vec3 {
	return aabb.Max.Sub(aabb.Min)
}

// Extents returns the half edge lengths of the AABB
func (aabb AABB) Extents() mgl64.Vec3 {
	return aabb.Size().Mul(0.5)
}

// Intersects checks if the AABB intersects with another AABB. Touching faces count.
func (aabb AABB) Intersects(other AABB) bool {
	return aabb.Min[0] <= other.Max[0] && aabb.Max[0] >= other.Min[0] &&
		aabb.Min[1] <= other.Max[1] && aabb.Max[1] >= other.Min[1] &&
		aabb.Min[2] <= other.Max[2] && aabb.Max[2] >= other.Min[2]
}

// IsEmpty checks if the AABB is empty (invalid)
func (aabb AABB) IsEmpty() bool {
	return aabb.Min[0] >= aabb.Max[0] || aabb.Min[1] >= aabb.Max[1] || aabb.Min[2] >= aabb.Max[2]
}

// IsZero reports whether the box is the zero value.
func (aabb AABB) IsZero() bool {
	return aabb.Min == mgl64.Vec3{} && aabb.Max == mgl64.Vec3{}
}

// IsFinite reports whether every coordinate is finite.
func (aabb AABB) IsFinite() bool {
	for i := 0; i < 3; i++ {
		if !mathutil.IsFinite(aabb.Min[i]) || !mathutil.IsFinite(aabb.Max[i]) {
			return false
		}
	}
	return true
}

// Encapsulate grows the box to include point.
func (aabb AABB) Encapsulate(point mgl64.Vec3) AABB {
	for i := 0; i < 3; i++ {
		aabb.Min[i] = math.Min(aabb.Min[i], point[i])
		aabb.Max[i] = math.Max(aabb.Max[i], point[i])
	}
	return aabb
}

// Union returns the smallest box containing both boxes.
func (aabb AABB) Union(other AABB) AABB {
	return aabb.Encapsulate(other.Min).Encapsulate(other.Max)
}

// Expand grows the box by amount on every side.
func (aabb AABB) Expand(amount float64) AABB {
	d := mgl64.Vec3{amount, amount, amount}
	return AABB{Min: aabb.Min.Sub(d), Max: aabb.Max.Add(d)}
}

// Cube returns the smallest cube sharing the center whose edge is the largest extent.
func (aabb AABB) Cube() AABB {
	size := aabb.Size()
	edge := mathutil.Max3(size[0], size[1], size[2])
	return FromCenterSize(aabb.Center(), mgl64.Vec3{edge, edge, edge})
}

// Octant returns the child index of point relative to the box center.
// bit0 is set for x >= center.x, bit1 for y, bit2 for z.
func (aabb AABB) Octant(point mgl64.Vec3) int {
	c := aabb.Center()
	idx := 0
	if point[0] >= c[0] {
		idx |= 1
	}
	if point[1] >= c[1] {
		idx |= 2
	}
	if point[2] >= c[2] {
		idx |= 4
	}
	return idx
}

// ChildBounds returns the bounds of octant i.
func (aabb AABB) ChildBounds(i int) AABB {
	c := aabb.Center()
	child := AABB{Min: aabb.Min, Max: c}
	for axis := 0; axis < 3; axis++ {
		if i&(1<<axis) != 0 {
			child.Min[axis] = c[axis]
			child.Max[axis] = aabb.Max[axis]
		}
	}
	return child
}

// Corners returns the 8 corners, indexed like octants.
func (aabb AABB) Corners() [8]mgl64.Vec3 {
	var corners [8]mgl64.Vec3
	for i := range corners {
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				corners[i][axis] = aabb.Max[axis]
			} else {
				corners[i][axis] = aabb.Min[axis]
			}
		}
	}
	return corners
}

// EdgeMidpoints returns the midpoints of the 12 box edges.
func (aabb AABB) EdgeMidpoints() [12]mgl64.Vec3 {
	var mids [12]mgl64.Vec3
	c := aabb.Center()
	n := 0
	for axis := 0; axis < 3; axis++ {
		u, v := (axis+1)%3, (axis+2)%3
		for _, a := range [2]float64{aabb.Min[u], aabb.Max[u]} {
			for _, b := range [2]float64{aabb.Min[v], aabb.Max[v]} {
				var p mgl64.Vec3
				p[axis] = c[axis]
				p[u] = a
				p[v] = b
				mids[n] = p
				n++
			}
		}
	}
	return mids
}
