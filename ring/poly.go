package ring

import (
	"fmt"
	"slices"

	"github.com/tuneinsight/pbs/utils"
)

// Poly is a polynomial of Z/2^b[X]/(X^N+1) with N a power of two.
// The coefficients are interpreted as elements of the discretized torus.
//
// A Poly either owns its coefficients (see [NewPoly]) or borrows them from a
// larger buffer (see [PolyView]); in the latter case the Poly must not outlive
// the buffer and callees never retain it.
type Poly[T Torus] struct {
	Coeffs []T
}

// NewPoly allocates a new [Poly] of N zero coefficients.
func NewPoly[T Torus](N int) Poly[T] {
	return Poly[T]{Coeffs: make([]T, N)}
}

// PolyView returns a [Poly] borrowing buf.
func PolyView[T Torus](buf []T) Poly[T] {
	return Poly[T]{Coeffs: buf}
}

// NewPolyFromCoeffs returns a [Poly] owning a copy of coeffs.
// It returns an error if len(coeffs) is not a power of two.
func NewPolyFromCoeffs[T Torus](coeffs []T) (Poly[T], error) {
	if !utils.IsPowerOfTwo(len(coeffs)) {
		return Poly[T]{}, fmt.Errorf("ring.NewPolyFromCoeffs: invalid polynomial size: %d is not a power of two", len(coeffs))
	}
	return Poly[T]{Coeffs: slices.Clone(coeffs)}, nil
}

// N returns the number of coefficients of the polynomial.
func (p Poly[T]) N() int {
	return len(p.Coeffs)
}

// Zero sets all coefficients to zero.
func (p Poly[T]) Zero() {
	clear(p.Coeffs)
}

// CopyNew returns a deep copy of the receiver.
func (p Poly[T]) CopyNew() Poly[T] {
	return Poly[T]{Coeffs: slices.Clone(p.Coeffs)}
}

// Copy copies the coefficients of other on the receiver.
func (p Poly[T]) Copy(other Poly[T]) {
	copy(p.Coeffs, other.Coeffs)
}

// Equal returns true if both polynomials have the same coefficients.
func (p Poly[T]) Equal(other Poly[T]) bool {
	return slices.Equal(p.Coeffs, other.Coeffs)
}

// Add evaluates out = p0 + p1 with wrapping arithmetic.
func Add[T Torus](p0, p1, out Poly[T]) {
	a, b, c := p0.Coeffs, p1.Coeffs, out.Coeffs
	for i := range c {
		c[i] = a[i] + b[i]
	}
}

// Sub evaluates out = p0 - p1 with wrapping arithmetic.
func Sub[T Torus](p0, p1, out Poly[T]) {
	a, b, c := p0.Coeffs, p1.Coeffs, out.Coeffs
	for i := range c {
		c[i] = a[i] - b[i]
	}
}

// Neg evaluates out = -p0.
func Neg[T Torus](p0, out Poly[T]) {
	a, c := p0.Coeffs, out.Coeffs
	for i := range c {
		c[i] = -a[i]
	}
}

// MulScalar evaluates out = p0 * c.
func MulScalar[T Torus](p0 Poly[T], c T, out Poly[T]) {
	a, b := p0.Coeffs, out.Coeffs
	for i := range b {
		b[i] = a[i] * c
	}
}

// ShiftLeft evaluates out = p0 << s coefficient-wise.
func ShiftLeft[T Torus](p0 Poly[T], s int, out Poly[T]) {
	a, b := p0.Coeffs, out.Coeffs
	for i := range b {
		b[i] = a[i] << s
	}
}
