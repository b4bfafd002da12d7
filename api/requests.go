package api

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/o0olele/octree-voxel/geometry"
	"github.com/o0olele/octree-voxel/mesh"
	"github.com/o0olele/octree-voxel/octree"
	"github.com/o0olele/octree-voxel/query"
)

// BuildRequest describes a build. Bounds may be omitted to fit the meshes.
type BuildRequest struct {
	Name          string        `json:"name"`
	Bounds        geometry.AABB `json:"bounds"`
	VoxelSize     float64       `json:"voxel_size"`
	MaxDepth      int           `json:"max_depth"`
	Parallel      bool          `json:"parallel"`
	Workers       int           `json:"workers,omitempty"`
	Touching      *bool         `json:"touching,omitempty"`
	TouchDistance float64       `json:"touch_distance,omitempty"`
	Coarse        bool          `json:"coarse,omitempty"`
	Meshes        []*mesh.Mesh  `json:"meshes"`
	OBJ           []OBJSource   `json:"obj,omitempty"`
}

// OBJSource is an inline Wavefront OBJ document.
type OBJSource struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

type ClassifyResponse struct {
	Point mgl64.Vec3        `json:"point"`
	State octree.VoxelState `json:"state"`
}

type ClassifyBatchRequest struct {
	Points []mgl64.Vec3 `json:"points"`
}

type ClassifyBatchResponse struct {
	States []octree.VoxelState `json:"states"`
}

type RaycastRequest struct {
	Origin      mgl64.Vec3 `json:"origin"`
	Direction   mgl64.Vec3 `json:"direction"`
	MaxDistance float64    `json:"max_distance,omitempty"`
}

type RaycastResponse struct {
	Hit bool       `json:"hit"`
	Ray *query.Hit `json:"ray,omitempty"`
}

// CarveRequest empties a sphere, or paints it when State is set.
type CarveRequest struct {
	Center mgl64.Vec3         `json:"center"`
	Radius float64            `json:"radius"`
	State  *octree.VoxelState `json:"state,omitempty"`
}

type CarveResponse struct {
	Changed int          `json:"changed"`
	Stats   octree.Stats `json:"stats"`
}

type SaveRequest struct {
	Filename string `json:"filename"`
}

type LoadRequest struct {
	Filename string `json:"filename"`
	Name     string `json:"name,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}
