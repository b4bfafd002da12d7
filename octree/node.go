package octree

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/o0olele/octree-voxel/geometry"
)

// Node is an octree node. A node is a leaf exactly when Children is nil.
// The State of a branch is not authoritative, queries only read leaf states.
type Node struct {
	Bounds   geometry.AABB `json:"bounds"`
	State    VoxelState    `json:"state"`
	Children *[8]Node      `json:"children,omitempty"`
}

func NewNode(bounds geometry.AABB) *Node {
	return &Node{Bounds: bounds}
}

func (node *Node) IsLeaf() bool {
	return node.Children == nil
}

// Child returns octant i, or nil for a leaf.
func (node *Node) Child(i int) *Node {
	if node.Children == nil {
		return nil
	}
	return &node.Children[i]
}

// Split turns a leaf into a branch with 8 half-size children.
// Each child starts with the node's current state. Splitting a branch is a no-op.
func (node *Node) Split() {
	if node.Children != nil {
		return
	}

	var children [8]Node
	for i := range children {
		children[i] = Node{
			Bounds: node.Bounds.ChildBounds(i),
			State:  node.State,
		}
	}
	node.Children = &children
}

// Merge drops the children and makes the node a leaf of the given state.
func (node *Node) Merge(state VoxelState) {
	node.Children = nil
	node.State = state
}

// Homogeneous reports whether all children are leaves sharing one state.
func (node *Node) Homogeneous() (VoxelState, bool) {
	if node.Children == nil {
		return node.State, false
	}

	first := node.Children[0].State
	for i := range node.Children {
		child := &node.Children[i]
		if !child.IsLeaf() || child.State != first {
			return Empty, false
		}
	}
	return first, true
}

// MergeIfHomogeneous collapses the node when its children agree.
func (node *Node) MergeIfHomogeneous() bool {
	state, ok := node.Homogeneous()
	if ok {
		node.Merge(state)
	}
	return ok
}

// Optimize merges homogeneous siblings bottom-up.
func (node *Node) Optimize() {
	if node.IsLeaf() {
		return
	}
	for i := range node.Children {
		node.Children[i].Optimize()
	}
	node.MergeIfHomogeneous()
}

// Locate descends by octant to the leaf containing point and returns it with its depth.
// The point is assumed to be inside the node's bounds.
func (node *Node) Locate(point mgl64.Vec3) (*Node, int) {
	current := node
	depth := 0
	for !current.IsLeaf() {
		current = &current.Children[current.Bounds.Octant(point)]
		depth++
	}
	return current, depth
}

// Walk visits the subtree in pre-order. Returning false from fn skips the children of that node.
func (node *Node) Walk(fn func(n *Node, depth int) bool) {
	node.walk(fn, 0)
}

func (node *Node) walk(fn func(n *Node, depth int) bool, depth int) {
	if !fn(node, depth) || node.IsLeaf() {
		return
	}
	for i := range node.Children {
		node.Children[i].walk(fn, depth+1)
	}
}

// Clone returns a deep copy of the subtree.
func (node *Node) Clone() *Node {
	c := &Node{Bounds: node.Bounds, State: node.State}
	if node.Children != nil {
		var children [8]Node
		for i := range node.Children {
			children[i] = *node.Children[i].Clone()
		}
		c.Children = &children
	}
	return c
}

// SameShape reports whether both subtrees have the same branching and leaf states.
// Bounds are not compared.
func (node *Node) SameShape(other *Node) bool {
	if node.IsLeaf() != other.IsLeaf() {
		return false
	}
	if node.IsLeaf() {
		return node.State == other.State
	}
	for i := range node.Children {
		if !node.Children[i].SameShape(&other.Children[i]) {
			return false
		}
	}
	return true
}
