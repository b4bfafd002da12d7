package query

import (
	"container/heap"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/o0olele/octree-voxel/geometry"
	"github.com/o0olele/octree-voxel/octree"
)

// Hit is the first occupied leaf along a ray.
type Hit struct {
	Point    mgl64.Vec3        `json:"point"`
	Distance float64           `json:"distance"`
	State    octree.VoxelState `json:"state"`
	Bounds   geometry.AABB     `json:"bounds"`
}

// Raycast returns the first occupied leaf hit by the ray within maxDist.
// dir does not need to be normalized. A non-positive maxDist means no limit.
func (q *VoxelQuery) Raycast(origin, dir mgl64.Vec3, maxDist float64) (Hit, bool) {
	instrumentQuery(kindRaycast)

	length := dir.Len()
	if length == 0 || math.IsNaN(length) {
		return Hit{}, false
	}
	dir = dir.Mul(1 / length)
	if maxDist <= 0 {
		maxDist = math.Inf(1)
	}
	return q.raycast(origin, dir, maxDist)
}

// raycast visits nodes in order of entry distance, so the first occupied leaf
// popped is the nearest one.
func (q *VoxelQuery) raycast(origin, dir mgl64.Vec3, maxDist float64) (Hit, bool) {
	tmin, _, ok := geometry.RayAABB(origin, dir, q.tree.Root.Bounds)
	if !ok || tmin > maxDist {
		return Hit{}, false
	}

	open := &nodeHeap{}
	defer open.Clear()
	heap.Push(open, newHeapNode(q.tree.Root, tmin))

	for open.Len() > 0 {
		item := heap.Pop(open).(*heapNode)
		node, t := item.node, item.tmin
		releaseHeapNode(item)

		if t > maxDist {
			return Hit{}, false
		}

		if node.IsLeaf() {
			if !node.State.IsOccupied() {
				continue
			}
			return Hit{
				Point:    origin.Add(dir.Mul(t)),
				Distance: t,
				State:    node.State,
				Bounds:   node.Bounds,
			}, true
		}

		for i := range node.Children {
			child := &node.Children[i]
			if tmin, _, ok := geometry.RayAABB(origin, dir, child.Bounds); ok && tmin <= maxDist {
				heap.Push(open, newHeapNode(child, tmin))
			}
		}
	}
	return Hit{}, false
}

// LineOfSight reports whether the segment from a to b crosses no occupied leaf.
// Both endpoints are included.
func (q *VoxelQuery) LineOfSight(a, b mgl64.Vec3) bool {
	instrumentQuery(kindLineOfSight)

	dir := b.Sub(a)
	dist := dir.Len()
	if dist < 1e-9 {
		return !q.tree.Classify(a).IsOccupied()
	}
	_, hit := q.raycast(a, dir.Mul(1/dist), dist)
	return !hit
}
