package voxel

import (
	"context"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/o0olele/octree-voxel/mesh"
	"github.com/o0olele/octree-voxel/octree"
)

// Voxelizer inserts meshes into a tree depth-first, one mesh at a time.
type Voxelizer struct {
	Classifier *Classifier
	MaxDepth   int

	// Progress, when set, is called after each mesh.
	Progress func(done, total int)
}

func NewVoxelizer(classifier *Classifier, maxDepth int) *Voxelizer {
	if classifier == nil {
		classifier = DefaultClassifier()
	}
	return &Voxelizer{
		Classifier: classifier,
		MaxDepth:   maxDepth,
	}
}

// Voxelize inserts every world into the tree and optimizes it.
// States only move towards higher precedence, so the mesh order does not matter.
func (v *Voxelizer) Voxelize(ctx context.Context, tree *octree.Tree, worlds ...*mesh.World) error {
	if v.MaxDepth < 1 {
		return errors.New("max depth must be at least 1").
			WithType(ErrTypeInvalidConfig).
			WithTag("max_depth", v.MaxDepth)
	}

	for i, w := range worlds {
		if err := ctx.Err(); err != nil {
			return errors.New("voxelization canceled").
				WithTag("mesh_index", i).
				Wrap(err)
		}

		if w != nil && !w.IsEmpty() {
			v.insert(tree.Root, w, 0)
		}
		if v.Progress != nil {
			v.Progress(i+1, len(worlds))
		}
	}

	tree.Optimize()
	return nil
}

func (v *Voxelizer) insert(node *octree.Node, w *mesh.World, depth int) {
	if depth >= v.MaxDepth {
		return
	}
	if !node.Bounds.Intersects(w.Bounds.Expand(v.Classifier.Reach())) {
		return
	}

	if node.IsLeaf() {
		prior := node.State
		// nothing can outrank Solid
		if prior == octree.Solid {
			return
		}

		s := v.Classifier.Classify(node.Bounds, w)
		if s == octree.Empty {
			return
		}

		node.Split()
		node.State = octree.Combine(prior, s)
	}

	v.insertChildren(node, w, depth)
	node.MergeIfHomogeneous()
}

// insertChildren classifies the children of the last splittable level directly,
// recursing would stop at MaxDepth and leave them untouched.
func (v *Voxelizer) insertChildren(node *octree.Node, w *mesh.World, depth int) {
	if depth == v.MaxDepth-1 {
		for i := range node.Children {
			child := &node.Children[i]
			if child.State == octree.Solid || !child.IsLeaf() {
				continue
			}
			child.State = octree.Combine(child.State, v.Classifier.Classify(child.Bounds, w))
		}
		return
	}
	for i := range node.Children {
		v.insert(&node.Children[i], w, depth+1)
	}
}
