package builder

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/o0olele/octree-voxel/mesh"
	"github.com/o0olele/octree-voxel/voxel"
)

const (
	ErrTypeInvalidConfig   = voxel.ErrTypeInvalidConfig
	ErrTypeInvalidMesh     = mesh.ErrTypeInvalidMesh
	ErrTypeCorruptData     = "corrupt_data"
	ErrTypeTruncatedStream = "truncated_stream"
	ErrTypeCorruptHeader   = "corrupt_header"
	ErrTypeNotFound        = "not_found"
)

// IsCorruptData reports whether err comes from decoding a malformed stream.
func IsCorruptData(err error) bool {
	switch errors.Type(err) {
	case ErrTypeCorruptData, ErrTypeTruncatedStream, ErrTypeCorruptHeader:
		return true
	default:
		return false
	}
}
