// Package query answers point, ray and segment queries against a built octree.
package query

import (
	"context"
	"runtime"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/o0olele/octree-voxel/builder"
	"github.com/o0olele/octree-voxel/geometry"
	"github.com/o0olele/octree-voxel/octree"
	"golang.org/x/sync/errgroup"
)

// minBatchChunk is the smallest number of points classified by one goroutine.
const minBatchChunk = 1024

// VoxelQuery runs read-only queries on a tree. The tree must not be modified
// while queries are running.
type VoxelQuery struct {
	tree *octree.Tree
}

func NewVoxelQuery(tree *octree.Tree) (*VoxelQuery, error) {
	if tree == nil || tree.Root == nil {
		return nil, errors.New("nil tree").WithType(builder.ErrTypeInvalidConfig)
	}
	return &VoxelQuery{tree: tree}, nil
}

func (q *VoxelQuery) Tree() *octree.Tree {
	return q.tree
}

// Classify returns the state at point, Empty outside the tree.
func (q *VoxelQuery) Classify(point mgl64.Vec3) octree.VoxelState {
	instrumentQuery(kindClassify)
	return q.tree.Classify(point)
}

func (q *VoxelQuery) IsOccupied(point mgl64.Vec3) bool {
	return q.Classify(point).IsOccupied()
}

// ClassifyBatch classifies points concurrently. Results are in input order.
func (q *VoxelQuery) ClassifyBatch(ctx context.Context, points []mgl64.Vec3) ([]octree.VoxelState, error) {
	start := time.Now()
	states := make([]octree.VoxelState, len(points))

	workers := runtime.NumCPU()
	chunk := (len(points) + workers - 1) / workers
	if chunk < minBatchChunk {
		chunk = minBatchChunk
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < len(points); lo += chunk {
		lo, hi := lo, min(lo+chunk, len(points))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				states[i] = q.tree.Classify(points[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.New("batch classification canceled").
			WithTag("points", len(points)).
			Wrap(err)
	}

	instrumentBatch(len(points), start)
	return states, nil
}

// Stats describes the queried tree.
type Stats struct {
	Bounds    geometry.AABB `json:"bounds"`
	VoxelSize float64       `json:"voxel_size"`
	MaxDepth  int           `json:"max_depth"`
	Tree      octree.Stats  `json:"tree"`
}

func (q *VoxelQuery) Stats() Stats {
	return Stats{
		Bounds:    q.tree.Bounds(),
		VoxelSize: q.tree.VoxelSize,
		MaxDepth:  q.tree.MaxDepth,
		Tree:      q.tree.Stats(),
	}
}
