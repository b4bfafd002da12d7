package mesh

import (
	"github.com/o0olele/octree-voxel/geometry"
)

// World is a mesh prepared for voxelization: world-space triangles and their bounds.
// It is immutable once built and safe to share between goroutines.
type World struct {
	Name      string
	Triangles []geometry.Triangle
	Bounds    geometry.AABB
}

// NewWorld wraps world-space triangles and computes their bounds.
func NewWorld(name string, triangles []geometry.Triangle) *World {
	w := &World{
		Name:      name,
		Triangles: triangles,
	}
	for i, t := range triangles {
		if i == 0 {
			w.Bounds = t.Bounds()
			continue
		}
		w.Bounds = w.Bounds.Union(t.Bounds())
	}
	return w
}

// IsEmpty reports whether the world has no triangles.
func (w *World) IsEmpty() bool {
	return len(w.Triangles) == 0
}

// TriangleCount returns the number of triangles.
func (w *World) TriangleCount() int {
	return len(w.Triangles)
}

// Bounds returns the union of the bounds of all worlds, and false when none has triangles.
func Bounds(worlds ...*World) (geometry.AABB, bool) {
	var (
		box   geometry.AABB
		found bool
	)
	for _, w := range worlds {
		if w == nil || w.IsEmpty() {
			continue
		}
		if !found {
			box = w.Bounds
			found = true
			continue
		}
		box = box.Union(w.Bounds)
	}
	return box, found
}
