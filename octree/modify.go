package octree

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/o0olele/octree-voxel/geometry"
)

// Paint sets every leaf covered by the sphere to state and returns the number of leaves written.
// Partly covered leaves are split down to the finest size, where the leaf center decides.
// Touched branches are merged back when their children agree.
func (t *Tree) Paint(center mgl64.Vec3, radius float64, state VoxelState) int {
	if t.Root == nil || radius <= 0 {
		return 0
	}

	minSize := t.FinestSize()
	if minSize <= 0 {
		minSize = t.Root.Bounds.Size()[0] / math.Exp2(MaxStreamDepth)
	}
	return paint(t.Root, center, radius, state, minSize*(1+1e-9))
}

// Carve empties the sphere.
func (t *Tree) Carve(center mgl64.Vec3, radius float64) int {
	return t.Paint(center, radius, Empty)
}

func paint(node *Node, center mgl64.Vec3, radius float64, state VoxelState, minSize float64) int {
	if !sphereTouchesBox(center, radius, node.Bounds) {
		return 0
	}

	if sphereContainsBox(center, radius, node.Bounds) {
		node.Merge(state)
		return 1
	}

	if node.IsLeaf() {
		if node.Bounds.Size()[0] <= minSize {
			if node.Bounds.Center().Sub(center).Len() <= radius {
				node.State = state
				return 1
			}
			return 0
		}
		node.Split()
	}

	painted := 0
	for i := range node.Children {
		painted += paint(&node.Children[i], center, radius, state, minSize)
	}
	node.MergeIfHomogeneous()
	return painted
}

func sphereTouchesBox(center mgl64.Vec3, radius float64, box geometry.AABB) bool {
	var d2 float64
	for i := 0; i < 3; i++ {
		v := math.Max(box.Min[i]-center[i], math.Max(0, center[i]-box.Max[i]))
		d2 += v * v
	}
	return d2 <= radius*radius
}

func sphereContainsBox(center mgl64.Vec3, radius float64, box geometry.AABB) bool {
	var d2 float64
	for i := 0; i < 3; i++ {
		v := math.Max(math.Abs(box.Min[i]-center[i]), math.Abs(box.Max[i]-center[i]))
		d2 += v * v
	}
	return d2 <= radius*radius
}
