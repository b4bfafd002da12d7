package mathutil

import "fmt"

// Vector3i is an integer cell coordinate on a regular grid.
type Vector3i struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
	Z int32 `json:"z"`
}

func (v Vector3i) Add(other Vector3i) Vector3i {
	return Vector3i{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

func (v Vector3i) Sub(other Vector3i) Vector3i {
	return Vector3i{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

func (v Vector3i) Max(other Vector3i) Vector3i {
	return Vector3i{Max(v.X, other.X), Max(v.Y, other.Y), Max(v.Z, other.Z)}
}

func (v Vector3i) Min(other Vector3i) Vector3i {
	return Vector3i{Min(v.X, other.X), Min(v.Y, other.Y), Min(v.Z, other.Z)}
}

// Hash mixes the three components into a single value, used for sharding.
func (v Vector3i) Hash() uint64 {
	h := uint64(uint32(v.X))*73856093 ^ uint64(uint32(v.Y))*19349663 ^ uint64(uint32(v.Z))*83492791
	return h
}

func (v Vector3i) String() string {
	return fmt.Sprintf("[%d,%d,%d]", v.X, v.Y, v.Z)
}
