package query

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/o0olele/octree-voxel/builder"
)

// LoadAndQuery loads a saved tree and wraps it in a VoxelQuery.
func LoadAndQuery(filename string) (*VoxelQuery, error) {
	tree, err := builder.Load(filename)
	if err != nil {
		return nil, errors.New("loading tree failed").
			WithType(errors.Type(err)).
			WithTag("filename", filename).
			Wrap(err)
	}
	return NewVoxelQuery(tree)
}
