package mathutil

import "math/bits"

// Bitmap is a growable set of non-negative integers, one bit per value.
type Bitmap []uint64

// Set adds x to the bitmap, growing it when needed.
func (b *Bitmap) Set(x int) {
	blk := x >> 6
	b.grow(blk)
	(*b)[blk] |= 1 << uint(x&63)
}

// Remove clears x. The bitmap never shrinks.
func (b *Bitmap) Remove(x int) {
	if blk := x >> 6; blk < len(*b) {
		(*b)[blk] &^= 1 << uint(x&63)
	}
}

// Contains reports whether x is set.
func (b Bitmap) Contains(x int) bool {
	blk := x >> 6
	if x < 0 || blk >= len(b) {
		return false
	}
	return b[blk]&(1<<uint(x&63)) != 0
}

// Count returns the number of set bits.
func (b Bitmap) Count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

// Range calls fn for every set value in ascending order until fn returns false.
func (b Bitmap) Range(fn func(x int) bool) {
	for blk, w := range b {
		for w != 0 {
			bit := bits.TrailingZeros64(w)
			if !fn(blk<<6 + bit) {
				return
			}
			w &^= 1 << uint(bit)
		}
	}
}

func (b *Bitmap) grow(blk int) {
	if blk < len(*b) {
		return
	}
	if blk < cap(*b) {
		*b = (*b)[:blk+1]
		return
	}

	capacity := cap(*b) * 2
	if capacity < blk+1 {
		capacity = blk + 1
	}
	grown := make(Bitmap, blk+1, capacity)
	copy(grown, *b)
	*b = grown
}
