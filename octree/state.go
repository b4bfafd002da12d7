package octree

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
)

const (
	ErrTypeInvalidState = "invalid_state"
)

// VoxelState classifies the space covered by a leaf.
type VoxelState uint8

const (
	Empty VoxelState = iota
	Solid
	Intersecting
	Touching
)

var stateNames = [...]string{
	Empty:        "empty",
	Solid:        "solid",
	Intersecting: "intersecting",
	Touching:     "touching",
}

// Valid reports whether s is one of the known states.
func (s VoxelState) Valid() bool {
	return s <= Touching
}

// IsOccupied is true for every state but Empty.
func (s VoxelState) IsOccupied() bool {
	return s != Empty
}

// Precedence ranks states: Solid > Intersecting > Touching > Empty.
func (s VoxelState) Precedence() int {
	switch s {
	case Solid:
		return 3
	case Intersecting:
		return 2
	case Touching:
		return 1
	default:
		return 0
	}
}

// Combine returns whichever state has the higher precedence.
func Combine(a, b VoxelState) VoxelState {
	if b.Precedence() > a.Precedence() {
		return b
	}
	return a
}

func (s VoxelState) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return stateNames[s]
}

// ParseState is the inverse of String.
func ParseState(name string) (VoxelState, error) {
	for i, n := range stateNames {
		if n == name {
			return VoxelState(i), nil
		}
	}
	return Empty, errors.New("unknown voxel state").
		WithType(ErrTypeInvalidState).
		WithTag("state", name)
}

func (s VoxelState) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, errors.New("unknown voxel state").
			WithType(ErrTypeInvalidState).
			WithTag("state", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *VoxelState) UnmarshalText(text []byte) error {
	state, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = state
	return nil
}
