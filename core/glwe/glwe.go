// Package glwe implements GLWE ciphertexts over Z/2^b[X]/(X^N+1): k mask
// polynomials and one body polynomial, their encryption and decryption, and
// the sample extraction of LWE ciphertexts.
package glwe

import (
	"slices"

	"github.com/tuneinsight/pbs/ring"
)

// Ciphertext is a GLWE ciphertext (A_0, ..., A_{k-1}, B) with contiguous storage.
// Its phase under a secret key (S_0, ..., S_{k-1}) is B - sum A_i * S_i.
type Ciphertext[T ring.Torus] struct {
	Buff  []T
	Value []ring.Poly[T]
}

// NewCiphertext allocates a new zero [Ciphertext] of GLWE dimension k and polynomial size N.
func NewCiphertext[T ring.Torus](k, N int) *Ciphertext[T] {
	return CiphertextView(make([]T, (k+1)*N), N)
}

// CiphertextView returns a [Ciphertext] of polynomial size N borrowing buf, whose
// length must be a multiple of N.
func CiphertextView[T ring.Torus](buf []T, N int) *Ciphertext[T] {
	value := make([]ring.Poly[T], len(buf)/N)
	for i := range value {
		value[i] = ring.PolyView(buf[i*N : (i+1)*N])
	}
	return &Ciphertext[T]{Buff: buf, Value: value}
}

// GLWEDimension returns the number k of mask polynomials.
func (ct Ciphertext[T]) GLWEDimension() int {
	return len(ct.Value) - 1
}

// PolynomialSize returns the size N of the polynomials.
func (ct Ciphertext[T]) PolynomialSize() int {
	return ct.Value[0].N()
}

// Mask returns the i-th mask polynomial.
func (ct Ciphertext[T]) Mask(i int) ring.Poly[T] {
	return ct.Value[i]
}

// Body returns the body polynomial.
func (ct Ciphertext[T]) Body() ring.Poly[T] {
	return ct.Value[len(ct.Value)-1]
}

// Zero sets all coefficients to zero.
func (ct *Ciphertext[T]) Zero() {
	clear(ct.Buff)
}

// Copy copies other on the receiver.
func (ct *Ciphertext[T]) Copy(other *Ciphertext[T]) {
	copy(ct.Buff, other.Buff)
}

// CopyNew returns a deep copy of the receiver.
func (ct Ciphertext[T]) CopyNew() *Ciphertext[T] {
	return CiphertextView(slices.Clone(ct.Buff), ct.PolynomialSize())
}

// Equal returns true if both ciphertexts are identical.
func (ct Ciphertext[T]) Equal(other *Ciphertext[T]) bool {
	return ct.PolynomialSize() == other.PolynomialSize() && slices.Equal(ct.Buff, other.Buff)
}

// Add evaluates out = ct0 + ct1.
func Add[T ring.Torus](ct0, ct1, out *Ciphertext[T]) {
	a, b, c := ct0.Buff, ct1.Buff, out.Buff
	for i := range c {
		c[i] = a[i] + b[i]
	}
}

// Sub evaluates out = ct0 - ct1.
func Sub[T ring.Torus](ct0, ct1, out *Ciphertext[T]) {
	a, b, c := ct0.Buff, ct1.Buff, out.Buff
	for i := range c {
		c[i] = a[i] - b[i]
	}
}

// MulByMonomial evaluates out = ct * X^d for d in [0, 2N). ct and out must not alias.
func MulByMonomial[T ring.Torus](ct *Ciphertext[T], d int, out *Ciphertext[T]) {
	for i := range out.Value {
		ring.MulByMonomial(ct.Value[i], d, out.Value[i])
	}
}

// DivByMonomialInPlace evaluates ct = ct * X^-d for d in [0, 2N).
func DivByMonomialInPlace[T ring.Torus](ct *Ciphertext[T], d int) {
	for i := range ct.Value {
		ring.DivByMonomialInPlace(ct.Value[i], d)
	}
}

// TrivialEncrypt sets ct to the noiseless encryption (0, ..., 0, pt).
func TrivialEncrypt[T ring.Torus](pt ring.Poly[T], ct *Ciphertext[T]) {
	ct.Zero()
	ct.Body().Copy(pt)
}
