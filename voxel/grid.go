package voxel

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/o0olele/octree-voxel/geometry"
	"github.com/o0olele/octree-voxel/mathutil"
	"github.com/o0olele/octree-voxel/octree"
	"golang.org/x/sync/errgroup"
)

// MaxGridCells caps the number of samples Sample will allocate.
const MaxGridCells = 1 << 26

// VoxelGrid is a dense regular sampling of a tree.
type VoxelGrid struct {
	Size   mathutil.Vector3i   `json:"size"`
	Step   float64             `json:"step"`
	Origin mgl64.Vec3          `json:"origin"`
	States []octree.VoxelState `json:"states"`
}

func NewVoxelGrid(size mathutil.Vector3i, step float64, origin mgl64.Vec3) *VoxelGrid {
	return &VoxelGrid{
		Size:   size,
		Step:   step,
		Origin: origin,
		States: make([]octree.VoxelState, int(size.X)*int(size.Y)*int(size.Z)),
	}
}

// Sample classifies the center of every step-sized cell of region.
func Sample(tree *octree.Tree, region geometry.AABB, step float64) (*VoxelGrid, error) {
	if step <= 0 || !mathutil.IsFinite(step) {
		return nil, errors.New("sample step must be positive").
			WithType(ErrTypeInvalidConfig).
			WithTag("step", step)
	}
	if region.IsEmpty() || !region.IsFinite() {
		return nil, errors.New("sample region is empty").
			WithType(ErrTypeInvalidConfig)
	}

	dims := region.Size().Mul(1 / step)
	cells := dims[0] * dims[1] * dims[2]
	if cells > MaxGridCells {
		return nil, errors.New("sample grid too large").
			WithType(ErrTypeInvalidConfig).
			WithTag("cells", cells).
			WithTag("max", MaxGridCells)
	}

	size := mathutil.Vector3i{
		X: int32(math.Max(1, math.Ceil(dims[0]))),
		Y: int32(math.Max(1, math.Ceil(dims[1]))),
		Z: int32(math.Max(1, math.Ceil(dims[2]))),
	}
	g := NewVoxelGrid(size, step, region.Min)

	// slices along z are independent
	var eg errgroup.Group
	for z := int32(0); z < size.Z; z++ {
		eg.Go(func() error {
			for y := int32(0); y < size.Y; y++ {
				for x := int32(0); x < size.X; x++ {
					coord := mathutil.Vector3i{X: x, Y: y, Z: z}
					g.States[g.Index(coord)] = tree.Classify(g.VoxelToWorld(coord))
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return g, nil
}

// Index converts 3D coordinates to the flat index, or -1 outside the grid.
func (g *VoxelGrid) Index(coord mathutil.Vector3i) int {
	if !g.IsValidCoordinate(coord) {
		return -1
	}
	return int(coord.Z)*int(g.Size.X)*int(g.Size.Y) + int(coord.Y)*int(g.Size.X) + int(coord.X)
}

// Coordinate converts a flat index back to 3D coordinates.
func (g *VoxelGrid) Coordinate(index int) mathutil.Vector3i {
	if index < 0 || index >= len(g.States) {
		return mathutil.Vector3i{X: -1, Y: -1, Z: -1}
	}

	layer := int(g.Size.X) * int(g.Size.Y)
	z := index / layer
	rem := index % layer
	return mathutil.Vector3i{
		X: int32(rem % int(g.Size.X)),
		Y: int32(rem / int(g.Size.X)),
		Z: int32(z),
	}
}

func (g *VoxelGrid) IsValidCoordinate(coord mathutil.Vector3i) bool {
	return coord.X >= 0 && coord.X < g.Size.X &&
		coord.Y >= 0 && coord.Y < g.Size.Y &&
		coord.Z >= 0 && coord.Z < g.Size.Z
}

// State returns the sample at coord, Empty outside the grid.
func (g *VoxelGrid) State(coord mathutil.Vector3i) octree.VoxelState {
	i := g.Index(coord)
	if i < 0 {
		return octree.Empty
	}
	return g.States[i]
}

// WorldToVoxel converts a world position to the coordinate of the cell containing it.
func (g *VoxelGrid) WorldToVoxel(p mgl64.Vec3) mathutil.Vector3i {
	local := p.Sub(g.Origin).Mul(1 / g.Step)
	return mathutil.Vector3i{
		X: int32(mathutil.FloorToInt(local[0])),
		Y: int32(mathutil.FloorToInt(local[1])),
		Z: int32(mathutil.FloorToInt(local[2])),
	}
}

// VoxelToWorld returns the center of a cell.
func (g *VoxelGrid) VoxelToWorld(coord mathutil.Vector3i) mgl64.Vec3 {
	return g.Origin.Add(mgl64.Vec3{
		float64(coord.X) + 0.5,
		float64(coord.Y) + 0.5,
		float64(coord.Z) + 0.5,
	}.Mul(g.Step))
}

func (g *VoxelGrid) Bounds() geometry.AABB {
	return geometry.AABB{
		Min: g.Origin,
		Max: g.Origin.Add(mgl64.Vec3{float64(g.Size.X), float64(g.Size.Y), float64(g.Size.Z)}.Mul(g.Step)),
	}
}

// Count returns the number of occupied samples.
func (g *VoxelGrid) Count() int {
	n := 0
	for _, s := range g.States {
		if s.IsOccupied() {
			n++
		}
	}
	return n
}

// ToBitmap marks the flat index of every occupied sample.
func (g *VoxelGrid) ToBitmap() mathutil.Bitmap {
	bitmap := mathutil.Bitmap{}
	for i, s := range g.States {
		if s.IsOccupied() {
			bitmap.Set(i)
		}
	}
	return bitmap
}
