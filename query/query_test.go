package query

import (
	"context"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/o0olele/octree-voxel/builder"
	"github.com/o0olele/octree-voxel/geometry"
	"github.com/o0olele/octree-voxel/octree"
	"github.com/stretchr/testify/require"
)

func cube(half float64) geometry.AABB {
	return geometry.AABB{
		Min: mgl64.Vec3{-half, -half, -half},
		Max: mgl64.Vec3{half, half, half},
	}
}

// blockTree returns a tree over [-2,2] whose +x+y+z octant is Solid.
func blockTree() *octree.Tree {
	tree := octree.New(cube(2), 0.5, 3)
	tree.Root.Split()
	tree.Root.Children[7].State = octree.Solid
	return tree
}

func newQuery(t *testing.T, tree *octree.Tree) *VoxelQuery {
	q, err := NewVoxelQuery(tree)
	require.NoError(t, err)
	return q
}

func randomTree(r *rand.Rand) *octree.Tree {
	tree := octree.New(cube(8), 0.5, 5)
	states := []octree.VoxelState{octree.Solid, octree.Intersecting, octree.Touching}
	for i := 0; i < 5; i++ {
		center := mgl64.Vec3{r.Float64()*16 - 8, r.Float64()*16 - 8, r.Float64()*16 - 8}
		tree.Paint(center, 0.5+r.Float64()*2, states[r.Intn(len(states))])
	}
	return tree
}

func TestNewVoxelQuery(t *testing.T) {
	_, err := NewVoxelQuery(nil)
	require.Equal(t, builder.ErrTypeInvalidConfig, errors.Type(err))

	_, err = NewVoxelQuery(&octree.Tree{})
	require.Error(t, err)
}

func TestClassify(t *testing.T) {
	q := newQuery(t, blockTree())

	tests := []struct {
		name     string
		point    mgl64.Vec3
		expected octree.VoxelState
	}{
		{name: "solid octant", point: mgl64.Vec3{1, 1, 1}, expected: octree.Solid},
		{name: "octant corner", point: mgl64.Vec3{0, 0, 0}, expected: octree.Solid},
		{name: "empty octant", point: mgl64.Vec3{-1, -1, -1}, expected: octree.Empty},
		{name: "outside", point: mgl64.Vec3{5, 0, 0}, expected: octree.Empty},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, q.Classify(test.point))
			require.Equal(t, test.expected.IsOccupied(), q.IsOccupied(test.point))
		})
	}
}

func TestRaycast(t *testing.T) {
	tree := blockTree()
	tree.Root.Children[6].State = octree.Intersecting
	q := newQuery(t, tree)

	tests := []struct {
		name     string
		origin   mgl64.Vec3
		dir      mgl64.Vec3
		maxDist  float64
		hit      bool
		distance float64
		state    octree.VoxelState
	}{
		{
			name:   "nearest leaf first",
			origin: mgl64.Vec3{-3, 1, 1}, dir: mgl64.Vec3{1, 0, 0},
			hit: true, distance: 1, state: octree.Intersecting,
		},
		{
			name:   "unnormalized direction",
			origin: mgl64.Vec3{1, 1, 3}, dir: mgl64.Vec3{0, 0, -4},
			hit: true, distance: 1, state: octree.Solid,
		},
		{
			name:   "inside occupied leaf",
			origin: mgl64.Vec3{1, 1, 1}, dir: mgl64.Vec3{0, 1, 0},
			hit: true, distance: 0, state: octree.Solid,
		},
		{
			name:   "through empty space",
			origin: mgl64.Vec3{-1, -1, -3}, dir: mgl64.Vec3{0, 0, 1},
		},
		{
			name:   "beyond max distance",
			origin: mgl64.Vec3{-3, 1, 1}, dir: mgl64.Vec3{1, 0, 0}, maxDist: 0.5,
		},
		{
			name:   "pointing away",
			origin: mgl64.Vec3{3, 1, 1}, dir: mgl64.Vec3{1, 0, 0},
		},
		{
			name:   "zero direction",
			origin: mgl64.Vec3{1, 1, 1},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			hit, ok := q.Raycast(test.origin, test.dir, test.maxDist)
			require.Equal(t, test.hit, ok)
			if !test.hit {
				return
			}
			require.InDelta(t, test.distance, hit.Distance, 1e-9)
			require.Equal(t, test.state, hit.State)
			require.True(t, hit.Bounds.Contains(hit.Point))
		})
	}
}

func TestRaycastMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(5))

	for i := 0; i < 10; i++ {
		tree := randomTree(r)
		q := newQuery(t, tree)

		for j := 0; j < 50; j++ {
			origin := mgl64.Vec3{r.Float64()*24 - 12, r.Float64()*24 - 12, r.Float64()*24 - 12}
			dir := mgl64.Vec3{r.NormFloat64(), r.NormFloat64(), r.NormFloat64()}.Normalize()

			expected := math.Inf(1)
			tree.Leaves(func(n *octree.Node, _ int) {
				if !n.State.IsOccupied() {
					return
				}
				if tmin, _, ok := geometry.RayAABB(origin, dir, n.Bounds); ok && tmin < expected {
					expected = tmin
				}
			})

			hit, ok := q.Raycast(origin, dir, 0)
			require.Equal(t, !math.IsInf(expected, 1), ok)
			if ok {
				require.InDelta(t, expected, hit.Distance, 1e-9)
			}
		}
	}
}

func TestLineOfSight(t *testing.T) {
	q := newQuery(t, blockTree())

	require.True(t, q.LineOfSight(mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{-1, 1, -1}))
	require.True(t, q.LineOfSight(mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{-1, -1, -1}))
	require.False(t, q.LineOfSight(mgl64.Vec3{-1, 1, 1}, mgl64.Vec3{1.5, 1, 1}))
	require.False(t, q.LineOfSight(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{1, 1, 1}))
	require.False(t, q.LineOfSight(mgl64.Vec3{-3, 1, 1}, mgl64.Vec3{3, 1, 1}))
}

func TestSmoothPath(t *testing.T) {
	q := newQuery(t, blockTree())

	path := []mgl64.Vec3{
		{-1, 1.5, 1},
		{-1, -1, 1},
		{1, -1, 1},
		{1, -1, 0.5},
	}
	require.Equal(t, []mgl64.Vec3{path[0], path[1], path[3]}, q.SmoothPath(path))

	open := []mgl64.Vec3{{-1, -1, -1}, {-1.5, -1, -1}, {-1, -1.5, -1}, {-0.5, -0.5, -0.5}}
	require.Equal(t, []mgl64.Vec3{open[0], open[3]}, q.SmoothPath(open))

	require.Len(t, q.SmoothPath(path[:1]), 1)
}

func TestClassifyBatch(t *testing.T) {
	r := rand.New(rand.NewSource(9))
	q := newQuery(t, randomTree(r))

	points := make([]mgl64.Vec3, 5000)
	for i := range points {
		points[i] = mgl64.Vec3{r.Float64()*20 - 10, r.Float64()*20 - 10, r.Float64()*20 - 10}
	}

	states, err := q.ClassifyBatch(context.Background(), points)
	require.NoError(t, err)
	require.Len(t, states, len(points))
	for i, p := range points {
		require.Equal(t, q.Classify(p), states[i])
	}

	states, err = q.ClassifyBatch(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, states)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = q.ClassifyBatch(ctx, points)
	require.Error(t, err)
}

func TestLoadAndQuery(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "block.voxo")
	require.NoError(t, builder.Save(blockTree(), filename))

	q, err := LoadAndQuery(filename)
	require.NoError(t, err)
	require.Equal(t, octree.Solid, q.Classify(mgl64.Vec3{1, 1, 1}))

	stats := q.Stats()
	require.Equal(t, 8, stats.Tree.Leaves)
	require.Equal(t, 0.5, stats.VoxelSize)
	require.Equal(t, cube(2), stats.Bounds)

	_, err = LoadAndQuery(filepath.Join(dir, "missing.voxo"))
	require.Equal(t, builder.ErrTypeNotFound, errors.Type(err))
}
