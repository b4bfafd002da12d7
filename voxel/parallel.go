package voxel

import (
	"context"
	"math"
	"runtime"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/o0olele/octree-voxel/geometry"
	"github.com/o0olele/octree-voxel/mathutil"
	"github.com/o0olele/octree-voxel/mesh"
	"github.com/o0olele/octree-voxel/octree"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize = 256

	// leavesPerTask is how many leaves one classification task handles.
	leavesPerTask = 64
)

// ParallelVoxelizer splits the triangle list into batches, finds the finest cells each
// triangle overlaps concurrently, then refines and classifies the tree.
type ParallelVoxelizer struct {
	Classifier *Classifier
	MaxDepth   int
	Workers    int
	BatchSize  int
}

func NewParallelVoxelizer(classifier *Classifier, maxDepth int) *ParallelVoxelizer {
	if classifier == nil {
		classifier = DefaultClassifier()
	}
	return &ParallelVoxelizer{
		Classifier: classifier,
		MaxDepth:   maxDepth,
		Workers:    runtime.NumCPU(),
		BatchSize:  DefaultBatchSize,
	}
}

type batch struct {
	mesh       int
	start, end int
}

// grid maps world positions to finest-level cells of the tree.
type grid struct {
	origin mgl64.Vec3
	cell   float64
	n      int32
}

func (g grid) coord(p mgl64.Vec3) mathutil.Vector3i {
	c := func(axis int) int32 {
		i := mathutil.FloorToInt((p[axis] - g.origin[axis]) / g.cell)
		return int32(mathutil.Clamp(i, 0, int(g.n)-1))
	}
	return mathutil.Vector3i{X: c(0), Y: c(1), Z: c(2)}
}

func (g grid) bounds(key mathutil.Vector3i) geometry.AABB {
	min := g.origin.Add(mgl64.Vec3{float64(key.X), float64(key.Y), float64(key.Z)}.Mul(g.cell))
	return geometry.AABB{Min: min, Max: min.Add(mgl64.Vec3{g.cell, g.cell, g.cell})}
}

// Voxelize inserts every world into the tree and optimizes it.
// The first failing or canceled worker aborts the build.
func (v *ParallelVoxelizer) Voxelize(ctx context.Context, tree *octree.Tree, worlds ...*mesh.World) error {
	if v.MaxDepth < 1 {
		return errors.New("max depth must be at least 1").
			WithType(ErrTypeInvalidConfig).
			WithTag("max_depth", v.MaxDepth)
	}

	g := grid{
		origin: tree.Root.Bounds.Min,
		cell:   tree.Root.Bounds.Size()[0] / math.Exp2(float64(v.MaxDepth)),
		n:      int32(1) << v.MaxDepth,
	}

	cells, err := v.nominate(ctx, g, worlds)
	if err != nil {
		return err
	}

	for _, key := range cells.Keys() {
		refine(tree.Root, g.bounds(key).Center(), v.MaxDepth)
	}

	if err := v.classifyLeaves(ctx, tree, worlds); err != nil {
		return err
	}

	tree.Optimize()
	return nil
}

// nominate collects the finest cells overlapped by a triangle, keyed to the meshes that overlap them.
func (v *ParallelVoxelizer) nominate(ctx context.Context, g grid, worlds []*mesh.World) (*CellMap, error) {
	batchSize := v.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var batches []batch
	for i, w := range worlds {
		if w == nil {
			continue
		}
		for start := 0; start < len(w.Triangles); start += batchSize {
			batches = append(batches, batch{
				mesh:  i,
				start: start,
				end:   mathutil.Min(start+batchSize, len(w.Triangles)),
			})
		}
	}

	// cells are inflated so triangles lying exactly on a cell face reach both neighbors
	inflate := math.Max(g.cell*1e-3, v.Classifier.Reach())
	cells := NewCellMap(0)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(v.workers())
	for _, b := range batches {
		eg.Go(func() error {
			w := worlds[b.mesh]
			for _, t := range w.Triangles[b.start:b.end] {
				if err := ctx.Err(); err != nil {
					return err
				}

				bounds := t.Bounds()
				lo := g.coord(bounds.Min).Sub(mathutil.Vector3i{X: 1, Y: 1, Z: 1})
				hi := g.coord(bounds.Max).Add(mathutil.Vector3i{X: 1, Y: 1, Z: 1})
				lo = lo.Max(mathutil.Vector3i{})
				hi = hi.Min(mathutil.Vector3i{X: g.n - 1, Y: g.n - 1, Z: g.n - 1})

				for z := lo.Z; z <= hi.Z; z++ {
					for y := lo.Y; y <= hi.Y; y++ {
						for x := lo.X; x <= hi.X; x++ {
							key := mathutil.Vector3i{X: x, Y: y, Z: z}
							box := g.bounds(key).Expand(inflate)
							if geometry.TriangleBox(t.A, t.B, t.C, box.Center(), box.Extents()) {
								cells.Add(key, b.mesh)
							}
						}
					}
				}
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, errors.New("nominating cells failed").
			WithTag("batches", len(batches)).
			Wrap(err)
	}
	return cells, nil
}

// refine splits the tree down to the finest cell containing point.
func refine(node *octree.Node, point mgl64.Vec3, maxDepth int) {
	for depth := 0; depth < maxDepth; depth++ {
		node.Split()
		node = &node.Children[node.Bounds.Octant(point)]
	}
}

// classifyLeaves classifies every leaf against each mesh near it. Results are written
// to a slice by the workers and applied once they are all done.
func (v *ParallelVoxelizer) classifyLeaves(ctx context.Context, tree *octree.Tree, worlds []*mesh.World) error {
	var leaves []*octree.Node
	tree.Leaves(func(n *octree.Node, depth int) {
		leaves = append(leaves, n)
	})

	reach := v.Classifier.Reach()
	results := make([]octree.VoxelState, len(leaves))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(v.workers())
	for start := 0; start < len(leaves); start += leavesPerTask {
		end := mathutil.Min(start+leavesPerTask, len(leaves))
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				state := octree.Empty
				for _, w := range worlds {
					if w == nil || w.IsEmpty() || !leaves[i].Bounds.Intersects(w.Bounds.Expand(reach)) {
						continue
					}
					state = octree.Combine(state, v.Classifier.Classify(leaves[i].Bounds, w))
					if state == octree.Solid {
						break
					}
				}
				results[i] = state
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return errors.New("classifying leaves failed").
			WithTag("leaves", len(leaves)).
			Wrap(err)
	}

	for i, leaf := range leaves {
		leaf.State = octree.Combine(leaf.State, results[i])
	}
	return nil
}

func (v *ParallelVoxelizer) workers() int {
	if v.Workers <= 0 {
		return runtime.NumCPU()
	}
	return v.Workers
}
