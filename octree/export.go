package octree

import (
	"github.com/o0olele/octree-voxel/geometry"
	"github.com/segmentio/encoding/json"
)

// MaxStreamDepth bounds the nesting accepted when decoding a tree.
const MaxStreamDepth = 32

// TreeExport is the JSON form of a tree.
type TreeExport struct {
	Root      *NodeExport `json:"root"`
	VoxelSize float64     `json:"voxel_size"`
	MaxDepth  int         `json:"max_depth"`
	Stats     Stats       `json:"stats"`
}

type NodeExport struct {
	Bounds   geometry.AABB `json:"bounds"`
	State    VoxelState    `json:"state"`
	IsLeaf   bool          `json:"is_leaf"`
	Depth    int           `json:"depth"`
	Children []*NodeExport `json:"children,omitempty"`
}

// Export converts the tree for JSON output.
func (t *Tree) Export() *TreeExport {
	return &TreeExport{
		Root:      nodeToExport(t.Root, 0),
		VoxelSize: t.VoxelSize,
		MaxDepth:  t.MaxDepth,
		Stats:     t.Stats(),
	}
}

// ToJSON exports the tree as JSON.
func (t *Tree) ToJSON() ([]byte, error) {
	return json.Marshal(t.Export())
}

func nodeToExport(node *Node, depth int) *NodeExport {
	if node == nil {
		return nil
	}

	export := &NodeExport{
		Bounds: node.Bounds,
		IsLeaf: node.IsLeaf(),
		Depth:  depth,
	}
	if node.IsLeaf() {
		export.State = node.State
		return export
	}

	export.Children = make([]*NodeExport, 0, 8)
	for i := range node.Children {
		export.Children = append(export.Children, nodeToExport(&node.Children[i], depth+1))
	}
	return export
}
