package voxel

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/o0olele/octree-voxel/geometry"
	"github.com/o0olele/octree-voxel/mathutil"
	"github.com/o0olele/octree-voxel/octree"
	"github.com/stretchr/testify/require"
)

func TestSample(t *testing.T) {
	tree := octree.New(rootBounds(2), 0.5, 3)
	tree.Root.Split()
	tree.Root.Children[7].State = octree.Solid

	g, err := Sample(tree, rootBounds(2), 1)
	require.NoError(t, err)
	require.Equal(t, mathutil.Vector3i{X: 4, Y: 4, Z: 4}, g.Size)
	require.Len(t, g.States, 64)
	require.Equal(t, 8, g.Count())
	require.Equal(t, rootBounds(2), g.Bounds())

	require.Equal(t, octree.Solid, g.State(mathutil.Vector3i{X: 3, Y: 2, Z: 3}))
	require.Equal(t, octree.Empty, g.State(mathutil.Vector3i{X: 1, Y: 2, Z: 3}))
	require.Equal(t, octree.Empty, g.State(mathutil.Vector3i{X: 4, Y: 0, Z: 0}))

	bitmap := g.ToBitmap()
	require.Equal(t, 8, bitmap.Count())
	bitmap.Range(func(i int) bool {
		c := g.Coordinate(i)
		require.GreaterOrEqual(t, c.X, int32(2))
		require.GreaterOrEqual(t, c.Y, int32(2))
		require.GreaterOrEqual(t, c.Z, int32(2))
		return true
	})
}

func TestSampleErrors(t *testing.T) {
	tree := octree.New(rootBounds(2), 0.5, 3)

	tests := []struct {
		name   string
		region geometry.AABB
		step   float64
	}{
		{name: "zero step", region: rootBounds(2), step: 0},
		{name: "empty region", region: geometry.AABB{}, step: 1},
		{name: "too many cells", region: rootBounds(2), step: 1e-4},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Sample(tree, test.region, test.step)
			require.Error(t, err)
			require.Equal(t, ErrTypeInvalidConfig, errors.Type(err))
		})
	}
}

func TestVoxelGridCoordinates(t *testing.T) {
	g := NewVoxelGrid(mathutil.Vector3i{X: 3, Y: 4, Z: 5}, 0.5, mgl64.Vec3{1, 0, 0})

	for i := range g.States {
		require.Equal(t, i, g.Index(g.Coordinate(i)))
	}
	require.Equal(t, -1, g.Index(mathutil.Vector3i{X: 3}))
	require.Equal(t, mathutil.Vector3i{X: -1, Y: -1, Z: -1}, g.Coordinate(len(g.States)))

	c := mathutil.Vector3i{X: 2, Y: 1, Z: 4}
	require.Equal(t, c, g.WorldToVoxel(g.VoxelToWorld(c)))
	require.Equal(t, mathutil.Vector3i{X: -2, Y: 0, Z: 0}, g.WorldToVoxel(mgl64.Vec3{0.1, 0.1, 0.1}))
}
