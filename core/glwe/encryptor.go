package glwe

import (
	"fmt"

	"github.com/tuneinsight/pbs/core/errs"
	"github.com/tuneinsight/pbs/ring"
	"github.com/tuneinsight/pbs/utils/sampling"
	"github.com/tuneinsight/pbs/utils/scratch"
)

// keyProduct computes sum_i A_i * S_i through the FFT, S being read as an
// integer polynomial and kept in the Fourier domain.
type keyProduct[T ring.Torus] struct {
	fft   *ring.FFT[T]
	key   []ring.FourierPoly
	buff  ring.FourierPoly
	acc   ring.FourierPoly
	stack *scratch.Stack
}

func newKeyProduct[T ring.Torus](sk *SecretKey[T]) (kp *keyProduct[T], err error) {

	N := sk.PolynomialSize()

	kp = &keyProduct[T]{
		key:  make([]ring.FourierPoly, sk.GLWEDimension()),
		buff: ring.NewFourierPoly(N),
		acc:  ring.NewFourierPoly(N),
	}

	if kp.fft, err = ring.NewFFT[T](N); err != nil {
		return nil, err
	}

	var req scratch.Req
	if req, err = kp.fft.BackwardScratch(); err != nil {
		return nil, err
	}

	kp.stack = scratch.NewStack(req)

	for i, s := range sk.Value {
		kp.key[i] = ring.NewFourierPoly(N)
		kp.fft.ForwardAsInteger(kp.key[i], s, kp.stack)
	}

	return
}

// addTo evaluates out = out + sum_i A_i * S_i, or out - sum_i A_i * S_i if negate is set.
func (kp *keyProduct[T]) addTo(ct *Ciphertext[T], out ring.Poly[T], negate bool) {
	kp.acc.Zero()
	for i, s := range kp.key {
		kp.fft.ForwardAsTorus(kp.buff, ct.Mask(i), kp.stack)
		ring.MulAdd(kp.buff, s, kp.acc)
	}
	if negate {
		for i := range kp.acc.Coeffs {
			kp.acc.Coeffs[i] = -kp.acc.Coeffs[i]
		}
	}
	kp.fft.AddBackwardAsTorus(out, kp.acc, kp.stack)
}

// Encryptor encrypts plaintext polynomials into GLWE ciphertexts.
// An Encryptor must not be used concurrently.
type Encryptor[T ring.Torus] struct {
	sk       *SecretKey[T]
	kp       *keyProduct[T]
	uniform  *ring.UniformSampler[T]
	gaussian *ring.GaussianSampler[T]
}

// NewEncryptor returns a new [Encryptor] under sk adding gaussian noise of standard
// deviation std, given as a fraction of the torus. Masks are read from prng.
func NewEncryptor[T ring.Torus](sk *SecretKey[T], std float64, prng sampling.PRNG) (enc *Encryptor[T], err error) {

	enc = &Encryptor[T]{
		sk:       sk,
		uniform:  ring.NewUniformSampler[T](prng),
		gaussian: ring.NewGaussianSampler[T](prng, std),
	}

	if enc.kp, err = newKeyProduct(sk); err != nil {
		return nil, fmt.Errorf("glwe.NewEncryptor: %w", err)
	}

	return
}

func (enc *Encryptor[T]) check(op string, ct *Ciphertext[T]) (err error) {
	if err = errs.CheckEqual(op, errs.GLWEDimension, enc.sk.GLWEDimension(), ct.GLWEDimension()); err != nil {
		return
	}
	return errs.CheckEqual(op, errs.PolynomialSize, enc.sk.PolynomialSize(), ct.PolynomialSize())
}

// EncryptZero sets ct to a fresh encryption of zero.
func (enc *Encryptor[T]) EncryptZero(ct *Ciphertext[T]) (err error) {
	if err = enc.check("glwe.EncryptZero", ct); err != nil {
		return
	}
	enc.EncryptZeroUnchecked(ct)
	return
}

// EncryptZeroUnchecked is [Encryptor.EncryptZero] without validation.
func (enc *Encryptor[T]) EncryptZeroUnchecked(ct *Ciphertext[T]) {
	k := ct.GLWEDimension()
	enc.uniform.Read(ct.Buff[:k*ct.PolynomialSize()])
	body := ct.Body()
	enc.gaussian.Read(body.Coeffs)
	enc.kp.addTo(ct, body, false)
}

// Encrypt sets ct to a fresh encryption of pt.
func (enc *Encryptor[T]) Encrypt(pt ring.Poly[T], ct *Ciphertext[T]) (err error) {
	if err = enc.check("glwe.Encrypt", ct); err != nil {
		return
	}
	if err = errs.CheckEqual("glwe.Encrypt", errs.PolynomialSize, ct.PolynomialSize(), pt.N()); err != nil {
		return
	}
	enc.EncryptZeroUnchecked(ct)
	ring.Add(ct.Body(), pt, ct.Body())
	return
}

// EncryptNew returns a fresh encryption of pt.
func (enc *Encryptor[T]) EncryptNew(pt ring.Poly[T]) (ct *Ciphertext[T], err error) {
	ct = NewCiphertext[T](enc.sk.GLWEDimension(), enc.sk.PolynomialSize())
	return ct, enc.Encrypt(pt, ct)
}

// Decryptor decrypts GLWE ciphertexts.
// A Decryptor must not be used concurrently.
type Decryptor[T ring.Torus] struct {
	sk *SecretKey[T]
	kp *keyProduct[T]
}

// NewDecryptor returns a new [Decryptor] under sk.
func NewDecryptor[T ring.Torus](sk *SecretKey[T]) (dec *Decryptor[T], err error) {
	dec = &Decryptor[T]{sk: sk}
	if dec.kp, err = newKeyProduct(sk); err != nil {
		return nil, fmt.Errorf("glwe.NewDecryptor: %w", err)
	}
	return
}

// Phase writes B - sum A_i * S_i on out.
func (dec *Decryptor[T]) Phase(ct *Ciphertext[T], out ring.Poly[T]) (err error) {
	if err = errs.CheckEqual("glwe.Phase", errs.GLWEDimension, dec.sk.GLWEDimension(), ct.GLWEDimension()); err != nil {
		return
	}
	if err = errs.CheckEqual("glwe.Phase", errs.PolynomialSize, dec.sk.PolynomialSize(), ct.PolynomialSize()); err != nil {
		return
	}
	if err = errs.CheckEqual("glwe.Phase", errs.PolynomialSize, ct.PolynomialSize(), out.N()); err != nil {
		return
	}
	out.Copy(ct.Body())
	dec.kp.addTo(ct, out, true)
	return
}

// Decrypt returns the phase of ct rounded coefficient-wise to the message space Z_p.
func (dec *Decryptor[T]) Decrypt(ct *Ciphertext[T], p uint64) (m []uint64, err error) {
	phase := ring.NewPoly[T](ct.PolynomialSize())
	if err = dec.Phase(ct, phase); err != nil {
		return
	}
	m = make([]uint64, phase.N())
	for i, c := range phase.Coeffs {
		m[i] = ring.Decode(c, p)
	}
	return
}
