// Package utils implements various helper functions.
package utils

import (
	"math/bits"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// IsPowerOfTwo returns true if x is a positive power of two.
func IsPowerOfTwo[V constraints.Integer](x V) bool {
	return x > 0 && x&(x-1) == 0
}

// Log2 returns floor(log2(x)) for x > 0.
func Log2[V constraints.Integer](x V) int {
	return bits.Len64(uint64(x)) - 1
}

// BitReverse64 returns the bit-reverse value of the input value, within a context of 2^bitLen.
func BitReverse64(index, bitLen uint64) uint64 {
	return bits.Reverse64(index) >> (64 - bitLen)
}

// Alias1D returns true if the memory spanned by the elements of x overlaps the
// memory spanned by the elements of y. Empty slices alias nothing.
func Alias1D[V any](x, y []V) bool {
	if len(x) == 0 || len(y) == 0 {
		return false
	}
	var v V
	size := unsafe.Sizeof(v)
	/* #nosec G103 -- addresses are only compared */
	x0, y0 := uintptr(unsafe.Pointer(&x[0])), uintptr(unsafe.Pointer(&y[0]))
	x1, y1 := x0+uintptr(len(x))*size, y0+uintptr(len(y))*size
	return x0 < y1 && y0 < x1
}
