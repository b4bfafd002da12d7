// Package octree holds the sparse voxel octree: node states, structure edits
// and point classification.
package octree

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/o0olele/octree-voxel/geometry"
)

// Tree is a sparse voxel octree over a cubic region.
// MaxDepth is 0 when unknown. Built trees keep the edge of a leaf at MaxDepth as VoxelSize.
type Tree struct {
	Root      *Node   `json:"root"`
	VoxelSize float64 `json:"voxel_size"`
	MaxDepth  int     `json:"max_depth"`
}

// New returns a tree with a single Empty leaf covering the cube around bounds.
func New(bounds geometry.AABB, voxelSize float64, maxDepth int) *Tree {
	return &Tree{
		Root:      NewNode(bounds.Cube()),
		VoxelSize: voxelSize,
		MaxDepth:  maxDepth,
	}
}

func (t *Tree) Bounds() geometry.AABB {
	return t.Root.Bounds
}

// Classify returns the state of the leaf containing point, Empty outside the root.
func (t *Tree) Classify(point mgl64.Vec3) VoxelState {
	leaf, _ := t.Leaf(point)
	if leaf == nil {
		return Empty
	}
	return leaf.State
}

// IsOccupied reports whether point falls in a non-Empty leaf.
func (t *Tree) IsOccupied(point mgl64.Vec3) bool {
	return t.Classify(point).IsOccupied()
}

// Leaf returns the leaf containing point and its depth, or nil outside the root.
func (t *Tree) Leaf(point mgl64.Vec3) (*Node, int) {
	if t.Root == nil || !t.Root.Bounds.Contains(point) {
		return nil, 0
	}
	return t.Root.Locate(point)
}

func (t *Tree) Optimize() {
	if t.Root != nil {
		t.Root.Optimize()
	}
}

// Walk visits every node in pre-order.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	if t.Root != nil {
		t.Root.Walk(fn)
	}
}

// Leaves visits every leaf.
func (t *Tree) Leaves(fn func(n *Node, depth int)) {
	t.Walk(func(n *Node, depth int) bool {
		if n.IsLeaf() {
			fn(n, depth)
		}
		return true
	})
}

// FinestSize is the edge of a leaf at MaxDepth, or VoxelSize when the depth is unknown.
func (t *Tree) FinestSize() float64 {
	if t.MaxDepth <= 0 {
		return t.VoxelSize
	}
	return t.Root.Bounds.Size()[0] / math.Exp2(float64(t.MaxDepth))
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	c := *t
	if t.Root != nil {
		c.Root = t.Root.Clone()
	}
	return &c
}
