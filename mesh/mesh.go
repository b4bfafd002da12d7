// Package mesh holds the build input: indexed triangle meshes with a world transform,
// their prepared world-space form and an OBJ reader.
package mesh

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/o0olele/octree-voxel/geometry"
	"github.com/o0olele/octree-voxel/mathutil"
)

const (
	ErrTypeInvalidMesh = "invalid_mesh"
)

// Mesh is an indexed triangle list in local space.
// A zero Transform is treated as the identity.
type Mesh struct {
	Name      string       `json:"name"`
	Vertices  []mgl64.Vec3 `json:"vertices"`
	Indices   []uint32     `json:"indices"`
	Transform mgl64.Mat4   `json:"transform"`
}

// New returns a mesh with an identity transform.
func New(name string, vertices []mgl64.Vec3, indices []uint32) *Mesh {
	return &Mesh{
		Name:      name,
		Vertices:  vertices,
		Indices:   indices,
		Transform: mgl64.Ident4(),
	}
}

// TriangleCount returns the number of triangles described by the index list.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Validate checks the index list and vertex values.
func (m *Mesh) Validate() error {
	if len(m.Indices)%3 != 0 {
		return errors.New("index count is not a multiple of 3").
			WithType(ErrTypeInvalidMesh).
			WithTag("mesh", m.Name).
			WithTag("indices", len(m.Indices))
	}

	for i, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			return errors.New("index out of range").
				WithType(ErrTypeInvalidMesh).
				WithTag("mesh", m.Name).
				WithTag("position", i).
				WithTag("index", idx).
				WithTag("vertices", len(m.Vertices))
		}
	}

	for i, v := range m.Vertices {
		if !mathutil.IsFinite(v[0]) || !mathutil.IsFinite(v[1]) || !mathutil.IsFinite(v[2]) {
			return errors.New("vertex is not finite").
				WithType(ErrTypeInvalidMesh).
				WithTag("mesh", m.Name).
				WithTag("vertex", i)
		}
	}

	return nil
}

func (m *Mesh) transform() mgl64.Mat4 {
	if m.Transform == (mgl64.Mat4{}) {
		return mgl64.Ident4()
	}
	return m.Transform
}

// World validates the mesh and bakes its transform into a world-space triangle soup.
func (m *Mesh) World() (*World, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	transform := m.transform()
	world := make([]mgl64.Vec3, len(m.Vertices))
	for i, v := range m.Vertices {
		world[i] = mgl64.TransformCoordinate(v, transform)
		if !mathutil.IsFinite(world[i][0]) || !mathutil.IsFinite(world[i][1]) || !mathutil.IsFinite(world[i][2]) {
			return nil, errors.New("transformed vertex is not finite").
				WithType(ErrTypeInvalidMesh).
				WithTag("mesh", m.Name).
				WithTag("vertex", i)
		}
	}

	triangles := make([]geometry.Triangle, 0, m.TriangleCount())
	for i := 0; i+2 < len(m.Indices); i += 3 {
		triangles = append(triangles, geometry.Triangle{
			A: world[m.Indices[i]],
			B: world[m.Indices[i+1]],
			C: world[m.Indices[i+2]],
		})
	}

	return NewWorld(m.Name, triangles), nil
}
