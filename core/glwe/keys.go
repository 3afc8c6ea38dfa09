package glwe

import (
	"github.com/tuneinsight/pbs/core/lwe"
	"github.com/tuneinsight/pbs/ring"
	"github.com/tuneinsight/pbs/utils/sampling"
)

// SecretKey is a GLWE secret key of k binary polynomials with contiguous storage.
type SecretKey[T ring.Torus] struct {
	Buff  []T
	Value []ring.Poly[T]
}

// NewSecretKey allocates a new zero [SecretKey].
func NewSecretKey[T ring.Torus](k, N int) *SecretKey[T] {
	buf := make([]T, k*N)
	value := make([]ring.Poly[T], k)
	for i := range value {
		value[i] = ring.PolyView(buf[i*N : (i+1)*N])
	}
	return &SecretKey[T]{Buff: buf, Value: value}
}

// GenSecretKey samples a new uniform binary [SecretKey].
func GenSecretKey[T ring.Torus](k, N int, prng sampling.PRNG) (sk *SecretKey[T]) {
	sk = NewSecretKey[T](k, N)
	ring.NewBinarySampler[T](prng).Read(sk.Buff)
	return
}

// GLWEDimension returns k.
func (sk SecretKey[T]) GLWEDimension() int {
	return len(sk.Value)
}

// PolynomialSize returns N.
func (sk SecretKey[T]) PolynomialSize() int {
	return sk.Value[0].N()
}

// AsLWEKey returns the LWE key of dimension k*N under which the samples
// extracted from ciphertexts encrypted under sk decrypt. The returned key
// shares its backing array with sk.
func (sk SecretKey[T]) AsLWEKey() *lwe.SecretKey[T] {
	return &lwe.SecretKey[T]{Value: sk.Buff}
}
