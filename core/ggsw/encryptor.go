package ggsw

import (
	"fmt"

	"github.com/tuneinsight/pbs/core/errs"
	"github.com/tuneinsight/pbs/core/glwe"
	"github.com/tuneinsight/pbs/ring"
	"github.com/tuneinsight/pbs/utils/sampling"
)

// Encryptor encrypts scalars into GGSW ciphertexts.
// An Encryptor must not be used concurrently.
type Encryptor[T ring.Torus] struct {
	*glwe.Encryptor[T]
	k, N int
}

// NewEncryptor returns a new [Encryptor] under sk adding gaussian noise of
// standard deviation std, given as a fraction of the torus.
func NewEncryptor[T ring.Torus](sk *glwe.SecretKey[T], std float64, prng sampling.PRNG) (*Encryptor[T], error) {
	enc, err := glwe.NewEncryptor(sk, std, prng)
	if err != nil {
		return nil, fmt.Errorf("ggsw.NewEncryptor: %w", err)
	}
	return &Encryptor[T]{Encryptor: enc, k: sk.GLWEDimension(), N: sk.PolynomialSize()}, nil
}

// EncryptScalar sets ct to a fresh encryption of m.
func (enc *Encryptor[T]) EncryptScalar(m T, ct *Ciphertext[T]) (err error) {

	if err = errs.CheckEqual("ggsw.EncryptScalar", errs.GLWEDimension, enc.k, ct.GLWEDimension()); err != nil {
		return
	}

	if err = errs.CheckEqual("ggsw.EncryptScalar", errs.PolynomialSize, enc.N, ct.PolynomialSize()); err != nil {
		return
	}

	if err = ring.Validate[T](ct.DecompositionParameters); err != nil {
		return fmt.Errorf("ggsw.EncryptScalar: %w", err)
	}

	enc.EncryptScalarUnchecked(m, ct)

	return
}

// EncryptScalarUnchecked is [Encryptor.EncryptScalar] without validation.
func (enc *Encryptor[T]) EncryptScalarUnchecked(m T, ct *Ciphertext[T]) {
	b := ring.Bits[T]()
	for j := 1; j <= ct.Level; j++ {
		g := m << (b - j*ct.BaseLog)
		for r, row := range ct.Value[j-1] {
			enc.EncryptZeroUnchecked(row)
			row.Value[r].Coeffs[0] += g
		}
	}
}
