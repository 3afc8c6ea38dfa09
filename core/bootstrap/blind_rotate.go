package bootstrap

import (
	"fmt"

	"github.com/tuneinsight/pbs/core/errs"
	"github.com/tuneinsight/pbs/core/ggsw"
	"github.com/tuneinsight/pbs/core/glwe"
	"github.com/tuneinsight/pbs/core/lwe"
	"github.com/tuneinsight/pbs/ring"
	"github.com/tuneinsight/pbs/utils"
	"github.com/tuneinsight/pbs/utils/scratch"
)

// BlindRotateScratch returns the scratch requirement of [BlindRotate].
func BlindRotateScratch[T ring.Torus](k int, params ring.DecompositionParameters, fft *ring.FFT[T]) (req scratch.Req, err error) {

	var rotated, cmux scratch.Req

	if rotated, err = scratch.New[T]((k+1)*fft.PolynomialSize(), scratch.CacheLine); err != nil {
		return
	}

	if cmux, err = ggsw.CMuxScratch(k, params, fft); err != nil {
		return
	}

	return scratch.AllOf(rotated, cmux)
}

// BlindRotate rotates the accumulator acc by X^-phase(in), with phase(in) modulus
// switched to [0, 2N): acc is first divided by X^b' for the switched body b',
// then, for each non-zero mask coefficient a_i, acc is replaced by the CMUX
// between acc and acc * X^a'_i selected by the i-th GGSW of key.
//
// The GGSW of key must encrypt the bits of the key of in, in the same order.
func BlindRotate[T ring.Torus](acc *glwe.Ciphertext[T], in *lwe.Ciphertext[T], key *FourierBootstrapKey, fft *ring.FFT[T], stack *scratch.Stack) (err error) {

	if err = checkBlindRotate("bootstrap.BlindRotate", acc, in, key, fft); err != nil {
		return
	}

	var req scratch.Req
	if req, err = BlindRotateScratch(key.GLWEDimension, key.DecompositionParameters, fft); err != nil {
		return fmt.Errorf("bootstrap.BlindRotate: %w", err)
	}

	if !stack.Satisfies(req) {
		return fmt.Errorf("bootstrap.BlindRotate: %w", errs.ErrScratchTooSmall)
	}

	BlindRotateUnchecked(acc, in, key, fft, stack)

	return
}

func checkBlindRotate[T ring.Torus](op string, acc *glwe.Ciphertext[T], in *lwe.Ciphertext[T], key *FourierBootstrapKey, fft *ring.FFT[T]) (err error) {

	checks := []struct {
		q          errs.Quantity
		want, have int
	}{
		{errs.LWEDimension, key.InputDimension, in.Dimension()},
		{errs.GLWEDimension, key.GLWEDimension, acc.GLWEDimension()},
		{errs.PolynomialSize, key.PolynomialSize, acc.PolynomialSize()},
		{errs.PolynomialSize, key.PolynomialSize, fft.PolynomialSize()},
	}

	for _, c := range checks {
		if err = errs.CheckEqual(op, c.q, c.want, c.have); err != nil {
			return
		}
	}

	if err = checkFourierKey[T](op, key); err != nil {
		return
	}

	if logN := utils.Log2(key.PolynomialSize); logN+2 > ring.Bits[T]() {
		return fmt.Errorf("%s: %w", op, &errs.DegenerateError{Param: "LogN", Value: logN, Reason: "polynomial size too large for the torus"})
	}

	return
}

// BlindRotateUnchecked is [BlindRotate] without validation.
func BlindRotateUnchecked[T ring.Torus](acc *glwe.Ciphertext[T], in *lwe.Ciphertext[T], key *FourierBootstrapKey, fft *ring.FFT[T], stack *scratch.Stack) {
	blindRotate(acc, in, key, 0, fft, stack)
}

// blindRotate is [BlindRotateUnchecked] with the phase of in switched to a
// multiple of 2^lutCountLog.
func blindRotate[T ring.Torus](acc *glwe.Ciphertext[T], in *lwe.Ciphertext[T], key *FourierBootstrapKey, lutCountLog int, fft *ring.FFT[T], stack *scratch.Stack) {

	defer stack.Release(stack.Mark())

	k1, N := key.GLWEDimension+1, key.PolynomialSize
	logN := utils.Log2(N)

	rotated := glwe.CiphertextView(scratch.Take[T](stack, k1*N, scratch.CacheLine), N)

	glwe.DivByMonomialInPlace(acc, ModulusSwitchUnchecked(in.Body(), logN, 0, lutCountLog))

	for i, a := range in.Mask() {

		if a == 0 {
			continue
		}

		glwe.MulByMonomial(acc, ModulusSwitchUnchecked(a, logN, 0, lutCountLog), rotated)

		ggsw.CMuxUnchecked(acc, rotated, key.Value[i], fft, stack)
	}
}
