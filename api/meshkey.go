package api

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/o0olele/octree-voxel/mesh"
)

// withContentKey renames m after its content so the mesh cache never serves a
// stale world for a re-uploaded name. Unnamed meshes are left uncached.
func withContentKey(m *mesh.Mesh) *mesh.Mesh {
	if m.Name == "" {
		return m
	}

	h := xxhash.New()
	var buf [8]byte
	writeFloat := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		h.Write(buf[:])
	}

	for _, v := range m.Vertices {
		writeFloat(v[0])
		writeFloat(v[1])
		writeFloat(v[2])
	}
	for _, i := range m.Indices {
		binary.LittleEndian.PutUint32(buf[:4], i)
		h.Write(buf[:4])
	}
	for _, f := range m.Transform {
		writeFloat(f)
	}

	keyed := *m
	keyed.Name = m.Name + "#" + strconv.FormatUint(h.Sum64(), 16)
	return &keyed
}
