package mathutil

import "math"

// Number is the set of scalar types the helpers accept.
type Number interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// Min returns the minimum of two values.
func Min[T Number](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Max returns the maximum of two values.
func Max[T Number](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Min3 returns the minimum of three values.
func Min3[T Number](a, b, c T) T {
	return Min(Min(a, b), c)
}

// Max3 returns the maximum of three values.
func Max3[T Number](a, b, c T) T {
	return Max(Max(a, b), c)
}

// Clamp limits v to [lo, hi].
func Clamp[T Number](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FloorToInt returns the floor of a as an int.
func FloorToInt(a float64) int {
	return int(math.Floor(a))
}

// IsFinite reports whether a is neither NaN nor infinite.
func IsFinite(a float64) bool {
	return !math.IsNaN(a) && !math.IsInf(a, 0)
}
