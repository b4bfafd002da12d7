package voxel

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/o0olele/octree-voxel/geometry"
	"github.com/o0olele/octree-voxel/mesh"
	"github.com/stretchr/testify/require"
)

// boxMesh returns a closed box. Every face is split along its min-to-max diagonal.
func boxMesh(name string, min, max mgl64.Vec3) *mesh.Mesh {
	var vertices []mgl64.Vec3
	var indices []uint32

	quad := func(a, b, c, d mgl64.Vec3) {
		base := uint32(len(vertices))
		vertices = append(vertices, a, b, c, d)
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}

	for axis := 0; axis < 3; axis++ {
		u, v := (axis+1)%3, (axis+2)%3
		for _, side := range [2]float64{min[axis], max[axis]} {
			corner := func(cu, cv float64) mgl64.Vec3 {
				var p mgl64.Vec3
				p[axis] = side
				p[u] = cu
				p[v] = cv
				return p
			}
			quad(
				corner(min[u], min[v]),
				corner(max[u], min[v]),
				corner(max[u], max[v]),
				corner(min[u], max[v]),
			)
		}
	}
	return mesh.New(name, vertices, indices)
}

// octahedronMesh returns a closed octahedron.
func octahedronMesh(name string, center mgl64.Vec3, r float64) *mesh.Mesh {
	vertices := []mgl64.Vec3{
		center.Add(mgl64.Vec3{r, 0, 0}),
		center.Add(mgl64.Vec3{-r, 0, 0}),
		center.Add(mgl64.Vec3{0, r, 0}),
		center.Add(mgl64.Vec3{0, -r, 0}),
		center.Add(mgl64.Vec3{0, 0, r}),
		center.Add(mgl64.Vec3{0, 0, -r}),
	}
	indices := []uint32{
		0, 2, 4, 2, 1, 4, 1, 3, 4, 3, 0, 4,
		2, 0, 5, 1, 2, 5, 3, 1, 5, 0, 3, 5,
	}
	return mesh.New(name, vertices, indices)
}

func world(t *testing.T, m *mesh.Mesh) *mesh.World {
	w, err := m.World()
	require.NoError(t, err)
	return w
}

func unitCube(t *testing.T) *mesh.World {
	return world(t, boxMesh("cube", mgl64.Vec3{-0.5, -0.5, -0.5}, mgl64.Vec3{0.5, 0.5, 0.5}))
}

func rootBounds(half float64) geometry.AABB {
	return geometry.AABB{
		Min: mgl64.Vec3{-half, -half, -half},
		Max: mgl64.Vec3{half, half, half},
	}
}
