// Package lwe implements LWE ciphertexts over the discretized torus, their
// encryption and decryption, and the LWE keyswitch.
package lwe

import (
	"slices"

	"github.com/tuneinsight/pbs/ring"
)

// Ciphertext is an LWE ciphertext: n mask values followed by the body.
// Its phase under a secret key s is body - <mask, s>.
type Ciphertext[T ring.Torus] struct {
	Value []T
}

// NewCiphertext allocates a new zero [Ciphertext] of dimension n.
func NewCiphertext[T ring.Torus](n int) *Ciphertext[T] {
	return &Ciphertext[T]{Value: make([]T, n+1)}
}

// CiphertextView returns a [Ciphertext] borrowing buf, of dimension len(buf)-1.
func CiphertextView[T ring.Torus](buf []T) *Ciphertext[T] {
	return &Ciphertext[T]{Value: buf}
}

// Dimension returns the dimension n of the mask.
func (ct Ciphertext[T]) Dimension() int {
	return len(ct.Value) - 1
}

// Mask returns the mask of the ciphertext.
func (ct Ciphertext[T]) Mask() []T {
	return ct.Value[:len(ct.Value)-1]
}

// Body returns the body of the ciphertext.
func (ct Ciphertext[T]) Body() T {
	return ct.Value[len(ct.Value)-1]
}

// SetBody sets the body of the ciphertext.
func (ct *Ciphertext[T]) SetBody(b T) {
	ct.Value[len(ct.Value)-1] = b
}

// CopyNew returns a deep copy of the receiver.
func (ct Ciphertext[T]) CopyNew() *Ciphertext[T] {
	return &Ciphertext[T]{Value: slices.Clone(ct.Value)}
}

// Copy copies other on the receiver.
func (ct *Ciphertext[T]) Copy(other *Ciphertext[T]) {
	copy(ct.Value, other.Value)
}

// Equal returns true if both ciphertexts are identical.
func (ct Ciphertext[T]) Equal(other *Ciphertext[T]) bool {
	return slices.Equal(ct.Value, other.Value)
}

// Add evaluates out = ct0 + ct1.
func Add[T ring.Torus](ct0, ct1, out *Ciphertext[T]) {
	a, b, c := ct0.Value, ct1.Value, out.Value
	for i := range c {
		c[i] = a[i] + b[i]
	}
}

// Sub evaluates out = ct0 - ct1.
func Sub[T ring.Torus](ct0, ct1, out *Ciphertext[T]) {
	a, b, c := ct0.Value, ct1.Value, out.Value
	for i := range c {
		c[i] = a[i] - b[i]
	}
}

// AddPlaintext adds pt to the body of ct.
func AddPlaintext[T ring.Torus](ct *Ciphertext[T], pt T) {
	ct.Value[len(ct.Value)-1] += pt
}

// ShiftLeft evaluates out = ct << s, i.e. multiplies ct by 2^s.
func ShiftLeft[T ring.Torus](ct *Ciphertext[T], s int, out *Ciphertext[T]) {
	a, b := ct.Value, out.Value
	for i := range b {
		b[i] = a[i] << s
	}
}
