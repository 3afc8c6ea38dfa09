// Package ggsw implements GGSW ciphertexts, their Fourier domain representation
// and the external product GLWE x GGSW -> GLWE, along with the CMUX gate built on it.
//
// A GGSW ciphertext of a scalar m under a GLWE key of dimension k is a matrix of
// Level x (k+1) GLWE ciphertexts. The row r of level j encrypts zero with
// m * 2^(b - j*BaseLog) added to the constant coefficient of its r-th polynomial.
package ggsw

import (
	"slices"

	"github.com/tuneinsight/pbs/core/glwe"
	"github.com/tuneinsight/pbs/ring"
)

// Ciphertext is a GGSW ciphertext in the coefficient domain, with contiguous
// level-major storage.
type Ciphertext[T ring.Torus] struct {
	ring.DecompositionParameters
	Buff  []T
	Value [][]*glwe.Ciphertext[T]
}

// NewCiphertext allocates a new zero [Ciphertext] of GLWE dimension k and polynomial size N.
func NewCiphertext[T ring.Torus](k, N int, params ring.DecompositionParameters) *Ciphertext[T] {
	return CiphertextView(make([]T, params.Level*(k+1)*(k+1)*N), k, N, params)
}

// CiphertextView returns a [Ciphertext] borrowing buf, of length Level*(k+1)*(k+1)*N.
func CiphertextView[T ring.Torus](buf []T, k, N int, params ring.DecompositionParameters) *Ciphertext[T] {
	rowSize := (k + 1) * N
	value := make([][]*glwe.Ciphertext[T], params.Level)
	for j := range value {
		value[j] = make([]*glwe.Ciphertext[T], k+1)
		for r := range value[j] {
			offset := (j*(k+1) + r) * rowSize
			value[j][r] = glwe.CiphertextView(buf[offset:offset+rowSize], N)
		}
	}
	return &Ciphertext[T]{DecompositionParameters: params, Buff: buf, Value: value}
}

// GLWEDimension returns k.
func (ct Ciphertext[T]) GLWEDimension() int {
	return len(ct.Value[0]) - 1
}

// PolynomialSize returns N.
func (ct Ciphertext[T]) PolynomialSize() int {
	return ct.Value[0][0].PolynomialSize()
}

// Row returns the row r of the level j, for j in [1, Level] and r in [0, k].
func (ct Ciphertext[T]) Row(j, r int) *glwe.Ciphertext[T] {
	return ct.Value[j-1][r]
}

// CopyNew returns a deep copy of the receiver.
func (ct Ciphertext[T]) CopyNew() *Ciphertext[T] {
	return CiphertextView(slices.Clone(ct.Buff), ct.GLWEDimension(), ct.PolynomialSize(), ct.DecompositionParameters)
}

// Equal returns true if both ciphertexts are identical.
func (ct Ciphertext[T]) Equal(other *Ciphertext[T]) bool {
	return ct.DecompositionParameters == other.DecompositionParameters &&
		ct.GLWEDimension() == other.GLWEDimension() &&
		ct.PolynomialSize() == other.PolynomialSize() &&
		slices.Equal(ct.Buff, other.Buff)
}
