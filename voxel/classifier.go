// Package voxel classifies octree cells against meshes and drives the
// sequential and parallel voxelizers.
package voxel

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/o0olele/octree-voxel/geometry"
	"github.com/o0olele/octree-voxel/mathutil"
	"github.com/o0olele/octree-voxel/mesh"
	"github.com/o0olele/octree-voxel/octree"
)

const (
	ErrTypeInvalidConfig = "invalid_config"

	DefaultTouchDistance = 0.01
)

// DefaultDirections are the rays cast by the inside test: up, down, left, right, forward.
var DefaultDirections = []mgl64.Vec3{
	{0, 1, 0},
	{0, -1, 0},
	{-1, 0, 0},
	{1, 0, 0},
	{0, 0, 1},
}

// Classifier decides the state of a box against one prepared mesh.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	directions    []mgl64.Vec3
	touchDistance float64
	touching      bool
	coarse        bool
}

type ClassifierOption func(*Classifier)

// WithDirections sets the rays used by the inside test. The count must be odd and at least 3.
func WithDirections(dirs ...mgl64.Vec3) ClassifierOption {
	return func(c *Classifier) {
		c.directions = append([]mgl64.Vec3(nil), dirs...)
	}
}

// WithTouchDistance sets how close a box sample point must be to a triangle to count as Touching.
func WithTouchDistance(d float64) ClassifierOption {
	return func(c *Classifier) {
		c.touchDistance = d
	}
}

// WithTouching enables or disables the Touching state.
func WithTouching(enabled bool) ClassifierOption {
	return func(c *Classifier) {
		c.touching = enabled
	}
}

// WithCoarse selects the vertex-and-edge overlap test instead of the separating axis test.
func WithCoarse(enabled bool) ClassifierOption {
	return func(c *Classifier) {
		c.coarse = enabled
	}
}

func NewClassifier(opts ...ClassifierOption) (*Classifier, error) {
	c := &Classifier{
		directions:    DefaultDirections,
		touchDistance: DefaultTouchDistance,
		touching:      true,
	}
	for _, opt := range opts {
		opt(c)
	}

	if n := len(c.directions); n < 3 || n%2 == 0 {
		return nil, errors.New("ray count must be odd and at least 3").
			WithType(ErrTypeInvalidConfig).
			WithTag("rays", n)
	}
	for i, d := range c.directions {
		if d.Len() == 0 || !mathutil.IsFinite(d.Len()) {
			return nil, errors.New("invalid ray direction").
				WithType(ErrTypeInvalidConfig).
				WithTag("ray", i)
		}
	}
	if c.touchDistance < 0 || !mathutil.IsFinite(c.touchDistance) {
		return nil, errors.New("invalid touch distance").
			WithType(ErrTypeInvalidConfig).
			WithTag("touch_distance", c.touchDistance)
	}
	return c, nil
}

// DefaultClassifier returns a classifier with the default settings.
func DefaultClassifier() *Classifier {
	c, _ := NewClassifier()
	return c
}

// Touching reports whether the Touching state is produced.
func (c *Classifier) Touching() bool {
	return c.touching
}

// Reach is how far outside a mesh's bounds a box can be and still be classified non-Empty.
func (c *Classifier) Reach() float64 {
	if c.touching {
		return c.touchDistance
	}
	return 0
}

// Classify returns the state of bounds against world. The first matching rule wins:
// Solid when the center is inside, Intersecting when a triangle overlaps the box,
// Touching when a corner or edge midpoint is within the touch distance, else Empty.
func (c *Classifier) Classify(bounds geometry.AABB, world *mesh.World) octree.VoxelState {
	if world == nil || world.IsEmpty() {
		return octree.Empty
	}
	if c.IsInside(bounds.Center(), world) {
		return octree.Solid
	}
	if c.Intersects(bounds, world) {
		return octree.Intersecting
	}
	if c.touching && c.IsTouching(bounds, world) {
		return octree.Touching
	}
	return octree.Empty
}

// IsInside casts one ray per direction from a slightly perturbed copy of point and
// counts crossings. An odd count is a vote for inside, a strict majority decides.
func (c *Classifier) IsInside(point mgl64.Vec3, world *mesh.World) bool {
	if !world.Bounds.Contains(point) {
		return false
	}

	votes := 0
	for i, dir := range c.directions {
		origin := point.Add(perturbation(i))
		hits := 0
		for _, t := range world.Triangles {
			if ok, _ := geometry.RayTriangle(origin, dir, t.A, t.B, t.C); ok {
				hits++
			}
		}
		if hits%2 == 1 {
			votes++
		}
	}
	return votes*2 > len(c.directions)
}

// perturbation offsets ray i so that no two rays share an origin.
func perturbation(i int) mgl64.Vec3 {
	return mgl64.Vec3{
		float64((i*11)%7) - 3.5,
		float64((i*13)%7) - 3.5,
		float64((i*17)%7) - 3.5,
	}.Mul(1e-7)
}

// Intersects reports whether any triangle overlaps the box.
func (c *Classifier) Intersects(bounds geometry.AABB, world *mesh.World) bool {
	if !bounds.Intersects(world.Bounds) {
		return false
	}

	center := bounds.Center()
	extents := bounds.Extents()
	for _, t := range world.Triangles {
		if !t.Bounds().Intersects(bounds) {
			continue
		}
		if c.coarse {
			if geometry.TriangleBoxCoarse(t.A, t.B, t.C, bounds) {
				return true
			}
			continue
		}
		if geometry.TriangleBox(t.A, t.B, t.C, center, extents) {
			return true
		}
	}
	return false
}

// IsTouching reports whether any box corner or edge midpoint lies within the touch distance of a triangle.
func (c *Classifier) IsTouching(bounds geometry.AABB, world *mesh.World) bool {
	reach := bounds.Expand(c.touchDistance)
	if !reach.Intersects(world.Bounds) {
		return false
	}

	corners := bounds.Corners()
	mids := bounds.EdgeMidpoints()
	samples := append(corners[:], mids[:]...)

	for _, t := range world.Triangles {
		if !t.Bounds().Intersects(reach) {
			continue
		}
		for _, p := range samples {
			if geometry.PointTriangleDistance(p, t) <= c.touchDistance {
				return true
			}
		}
	}
	return false
}
