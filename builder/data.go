package builder

import (
	"time"

	"github.com/o0olele/octree-voxel/geometry"
	"github.com/o0olele/octree-voxel/octree"
)

const (
	// FileMagic is "VOXO" read as a little-endian uint32.
	FileMagic   uint32 = 0x4F584F56
	FileVersion uint32 = 1
)

// FileHeader prefixes a saved tree. Files without it hold a bare stream.
type FileHeader struct {
	Magic   uint32
	Version uint32
}

// streamHeader is the fixed prefix of an encoded tree.
type streamHeader struct {
	VoxelSize float32
	CenterX   float32
	CenterY   float32
	CenterZ   float32
	CubeSize  float32
}

// FileInfo describes a saved tree.
type FileInfo struct {
	Filename  string        `json:"filename"`
	FileSize  int64         `json:"file_size"`
	Version   uint32        `json:"version"`
	VoxelSize float64       `json:"voxel_size"`
	Bounds    geometry.AABB `json:"bounds"`
	Stats     octree.Stats  `json:"stats"`
	ModTime   time.Time     `json:"mod_time"`
}

// BuildStats summarizes a finished build.
type BuildStats struct {
	BuildID    string        `json:"build_id"`
	Mode       string        `json:"mode"`
	Meshes     int           `json:"meshes"`
	Triangles  int           `json:"triangles"`
	Duration   time.Duration `json:"duration"`
	Tree       octree.Stats  `json:"tree"`
	HeapAlloc  uint64        `json:"heap_alloc"`
	TotalAlloc uint64        `json:"total_alloc"`
}
