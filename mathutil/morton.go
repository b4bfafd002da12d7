package mathutil

// EncodeMorton3D interleaves the low 21 bits of x, y and z, x lowest.
// Sorting cells by code visits them in octree depth-first octant order.
func EncodeMorton3D(x, y, z uint32) uint64 {
	return splitBy3(x) | splitBy3(y)<<1 | splitBy3(z)<<2
}

// DecodeMorton3D is the inverse of EncodeMorton3D.
func DecodeMorton3D(code uint64) (uint32, uint32, uint32) {
	return uint32(compact1By2(code)), uint32(compact1By2(code >> 1)), uint32(compact1By2(code >> 2))
}

// splitBy3 inserts two zero bits after each of the low 21 bits of v.
func splitBy3(v uint32) uint64 {
	x := uint64(v) & 0x1fffff
	x = (x | x<<32) & 0x1f00000000ffff
	x = (x | x<<16) & 0x1f0000ff0000ff
	x = (x | x<<8) & 0x100f00f00f00f00f
	x = (x | x<<4) & 0x10c30c30c30c30c3
	x = (x | x<<2) & 0x1249249249249249
	return x
}

func compact1By2(x uint64) uint64 {
	x &= 0x1249249249249249
	x = (x ^ (x >> 2)) & 0x10c30c30c30c30c3
	x = (x ^ (x >> 4)) & 0x100f00f00f00f00f
	x = (x ^ (x >> 8)) & 0x1f0000ff0000ff
	x = (x ^ (x >> 16)) & 0x1f00000000ffff
	x = (x ^ (x >> 32)) & 0x1fffff
	return x
}

// Morton returns the Morton code of a non-negative cell coordinate.
func (v Vector3i) Morton() uint64 {
	return EncodeMorton3D(uint32(v.X), uint32(v.Y), uint32(v.Z))
}
