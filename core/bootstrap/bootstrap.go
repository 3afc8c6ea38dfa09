package bootstrap

import (
	"fmt"

	"github.com/tuneinsight/pbs/core/errs"
	"github.com/tuneinsight/pbs/core/glwe"
	"github.com/tuneinsight/pbs/core/lwe"
	"github.com/tuneinsight/pbs/ring"
	"github.com/tuneinsight/pbs/utils/scratch"
)

// BootstrapScratch returns the scratch requirement of [Bootstrap].
func BootstrapScratch[T ring.Torus](k int, params ring.DecompositionParameters, fft *ring.FFT[T]) (req scratch.Req, err error) {

	var acc, br scratch.Req

	if acc, err = scratch.New[T]((k+1)*fft.PolynomialSize(), scratch.CacheLine); err != nil {
		return
	}

	if br, err = BlindRotateScratch(k, params, fft); err != nil {
		return
	}

	return scratch.AllOf(acc, br)
}

// Bootstrap evaluates the programmable bootstrap of in: a copy of testVector is
// blind rotated by the phase of in and its constant coefficient is extracted on out.
// out is of dimension k*N and decrypts under the flattened GLWE key of key.
// testVector is left untouched.
func Bootstrap[T ring.Torus](out, in *lwe.Ciphertext[T], testVector *glwe.Ciphertext[T], key *FourierBootstrapKey, fft *ring.FFT[T], stack *scratch.Stack) (err error) {

	if err = checkBlindRotate("bootstrap.Bootstrap", testVector, in, key, fft); err != nil {
		return
	}

	if err = errs.CheckEqual("bootstrap.Bootstrap", errs.LWEDimension, key.OutputDimension(), out.Dimension()); err != nil {
		return
	}

	var req scratch.Req
	if req, err = BootstrapScratch(key.GLWEDimension, key.DecompositionParameters, fft); err != nil {
		return fmt.Errorf("bootstrap.Bootstrap: %w", err)
	}

	if !stack.Satisfies(req) {
		return fmt.Errorf("bootstrap.Bootstrap: %w", errs.ErrScratchTooSmall)
	}

	BootstrapUnchecked(out, in, testVector, key, fft, stack)

	return
}

// BootstrapUnchecked is [Bootstrap] without validation.
func BootstrapUnchecked[T ring.Torus](out, in *lwe.Ciphertext[T], testVector *glwe.Ciphertext[T], key *FourierBootstrapKey, fft *ring.FFT[T], stack *scratch.Stack) {

	defer stack.Release(stack.Mark())

	N := key.PolynomialSize

	acc := glwe.CiphertextView(scratch.Take[T](stack, len(testVector.Buff), scratch.CacheLine), N)
	acc.Copy(testVector)

	BlindRotateUnchecked(acc, in, key, fft, stack)

	glwe.SampleExtractUnchecked(out, acc, 0)
}

// NewTestVector returns the accumulator, trivially encrypted, of the lookup
// table f over the messages of Z_p encoded with one bit of padding, i.e. m
// encoded as m/(2p). The bootstrap of an encryption of m with this test vector
// is an encryption of f(m) mod p with the same encoding.
func NewTestVector[T ring.Torus](k, N int, p uint64, f func(m uint64) uint64) (tv *glwe.Ciphertext[T], err error) {
	tv = glwe.NewCiphertext[T](k, N)
	if err = GenTestVector(tv, p, f); err != nil {
		return nil, err
	}
	return
}

// GenTestVector writes on tv the test vector of [NewTestVector].
func GenTestVector[T ring.Torus](tv *glwe.Ciphertext[T], p uint64, f func(m uint64) uint64) (err error) {

	N := tv.PolynomialSize()

	if p < 2 || p > uint64(N) {
		return fmt.Errorf("bootstrap.GenTestVector: %w", &errs.DegenerateError{Param: "p", Value: int(min(p, uint64(1<<31))), Reason: fmt.Sprintf("message space must be in [2, %d]", N)})
	}

	tv.Zero()

	// The phase m/(2p) switches to the coefficient index m*N/p. Each message owns
	// the box of N/p indexes centered on it. The box of 0 wraps around negacyclically.
	box := uint64(N) / p
	body := tv.Body().Coeffs
	for j := range body {
		m := (uint64(j) + box/2) / box
		if m < p {
			body[j] = ring.Encode[T](f(m)%p, 2*p)
		} else {
			body[j] = -ring.Encode[T](f(0)%p, 2*p)
		}
	}

	return
}
