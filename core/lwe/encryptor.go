package lwe

import (
	"fmt"

	"github.com/tuneinsight/pbs/core/errs"
	"github.com/tuneinsight/pbs/ring"
	"github.com/tuneinsight/pbs/utils/sampling"
)

// Encryptor encrypts torus plaintexts into LWE ciphertexts.
// An Encryptor must not be used concurrently.
type Encryptor[T ring.Torus] struct {
	sk       *SecretKey[T]
	uniform  *ring.UniformSampler[T]
	gaussian *ring.GaussianSampler[T]
}

// NewEncryptor returns a new [Encryptor] under sk adding gaussian noise of standard
// deviation std, given as a fraction of the torus. Masks are read from prng.
func NewEncryptor[T ring.Torus](sk *SecretKey[T], std float64, prng sampling.PRNG) *Encryptor[T] {
	return &Encryptor[T]{
		sk:       sk,
		uniform:  ring.NewUniformSampler[T](prng),
		gaussian: ring.NewGaussianSampler[T](prng, std),
	}
}

// Encrypt encrypts pt on ct.
func (enc *Encryptor[T]) Encrypt(pt T, ct *Ciphertext[T]) (err error) {
	if err = errs.CheckEqual("lwe.Encrypt", errs.LWEDimension, enc.sk.Dimension(), ct.Dimension()); err != nil {
		return
	}
	enc.EncryptUnchecked(pt, ct)
	return
}

// EncryptUnchecked is [Encryptor.Encrypt] without validation.
func (enc *Encryptor[T]) EncryptUnchecked(pt T, ct *Ciphertext[T]) {
	mask := ct.Mask()
	enc.uniform.Read(mask)

	var body T
	for i, s := range enc.sk.Value {
		body += mask[i] * s
	}

	var e [1]T
	enc.gaussian.Read(e[:])

	ct.SetBody(body + pt + e[0])
}

// EncryptNew encrypts pt on a new ciphertext.
func (enc *Encryptor[T]) EncryptNew(pt T) (ct *Ciphertext[T]) {
	ct = NewCiphertext[T](enc.sk.Dimension())
	enc.EncryptUnchecked(pt, ct)
	return
}

// Decryptor decrypts LWE ciphertexts.
type Decryptor[T ring.Torus] struct {
	sk *SecretKey[T]
}

// NewDecryptor returns a new [Decryptor] under sk.
func NewDecryptor[T ring.Torus](sk *SecretKey[T]) *Decryptor[T] {
	return &Decryptor[T]{sk: sk}
}

// Phase returns body - <mask, sk>.
func (dec *Decryptor[T]) Phase(ct *Ciphertext[T]) (phase T, err error) {
	if err = errs.CheckEqual("lwe.Phase", errs.LWEDimension, dec.sk.Dimension(), ct.Dimension()); err != nil {
		return 0, fmt.Errorf("cannot decrypt: %w", err)
	}
	return dec.PhaseUnchecked(ct), nil
}

// PhaseUnchecked is [Decryptor.Phase] without validation.
func (dec *Decryptor[T]) PhaseUnchecked(ct *Ciphertext[T]) (phase T) {
	phase = ct.Body()
	for i, a := range ct.Mask() {
		phase -= a * dec.sk.Value[i]
	}
	return
}

// Decrypt returns the phase of ct rounded to the message space Z_p.
func (dec *Decryptor[T]) Decrypt(ct *Ciphertext[T], p uint64) (m uint64, err error) {
	var phase T
	if phase, err = dec.Phase(ct); err != nil {
		return
	}
	return ring.Decode(phase, p), nil
}
