package lwe

import (
	"slices"

	"github.com/tuneinsight/pbs/ring"
	"github.com/tuneinsight/pbs/utils/sampling"
)

// SecretKey is a binary LWE secret key.
type SecretKey[T ring.Torus] struct {
	Value []T
}

// NewSecretKey allocates a new zero [SecretKey] of dimension n.
func NewSecretKey[T ring.Torus](n int) *SecretKey[T] {
	return &SecretKey[T]{Value: make([]T, n)}
}

// GenSecretKey samples a new uniform binary [SecretKey] of dimension n.
func GenSecretKey[T ring.Torus](n int, prng sampling.PRNG) (sk *SecretKey[T]) {
	sk = NewSecretKey[T](n)
	ring.NewBinarySampler[T](prng).Read(sk.Value)
	return
}

// Dimension returns the dimension of the key.
func (sk SecretKey[T]) Dimension() int {
	return len(sk.Value)
}

// CopyNew returns a deep copy of the receiver.
func (sk SecretKey[T]) CopyNew() *SecretKey[T] {
	return &SecretKey[T]{Value: slices.Clone(sk.Value)}
}
