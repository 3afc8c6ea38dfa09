package ggsw

import (
	"fmt"

	"github.com/tuneinsight/pbs/core/errs"
	"github.com/tuneinsight/pbs/core/glwe"
	"github.com/tuneinsight/pbs/ring"
	"github.com/tuneinsight/pbs/utils"
	"github.com/tuneinsight/pbs/utils/scratch"
)

// maxLevel is the largest decomposition level count accepted by [ring.Validate].
const maxLevel = 64

// ExternalProductScratch returns the scratch requirement of [ExternalProductAdd]
// and [ExternalProduct] for a GLWE dimension k.
func ExternalProductScratch[T ring.Torus](k int, params ring.DecompositionParameters, fft *ring.FFT[T]) (req scratch.Req, err error) {

	N := fft.PolynomialSize()

	var digits, fourier, acc, backward scratch.Req

	if digits, err = scratch.New[T](params.Level*N, scratch.CacheLine); err != nil {
		return
	}

	if fourier, err = scratch.New[complex128](N>>1, scratch.CacheLine); err != nil {
		return
	}

	if acc, err = scratch.New[complex128](N>>1, scratch.CacheLine); err != nil {
		return
	}

	if acc, err = acc.Array(k + 1); err != nil {
		return
	}

	if backward, err = fft.BackwardScratch(); err != nil {
		return
	}

	return scratch.AllOf(digits, fourier, acc, backward)
}

// CMuxScratch returns the scratch requirement of [CMux].
func CMuxScratch[T ring.Torus](k int, params ring.DecompositionParameters, fft *ring.FFT[T]) (scratch.Req, error) {
	return ExternalProductScratch(k, params, fft)
}

func checkExternalProduct[T ring.Torus](op string, out, in *glwe.Ciphertext[T], ggsw *FourierCiphertext, fft *ring.FFT[T], stack *scratch.Stack) (err error) {

	k, N := ggsw.GLWEDimension, ggsw.PolynomialSize

	checks := []struct {
		q          errs.Quantity
		want, have int
	}{
		{errs.GLWEDimension, k, in.GLWEDimension()},
		{errs.GLWEDimension, k, out.GLWEDimension()},
		{errs.PolynomialSize, N, in.PolynomialSize()},
		{errs.PolynomialSize, N, out.PolynomialSize()},
		{errs.PolynomialSize, N, fft.PolynomialSize()},
		{errs.BufferLength, ggsw.Level * (k + 1) * (k + 1) * (N >> 1), len(ggsw.Buff)},
	}

	for _, c := range checks {
		if err = errs.CheckEqual(op, c.q, c.want, c.have); err != nil {
			return
		}
	}

	if err = ring.Validate[T](ggsw.DecompositionParameters); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if utils.Alias1D(out.Buff, in.Buff) {
		return fmt.Errorf("%s: %w", op, errs.ErrAliasing)
	}

	var req scratch.Req
	if req, err = ExternalProductScratch(k, ggsw.DecompositionParameters, fft); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !stack.Satisfies(req) {
		return fmt.Errorf("%s: %w", op, errs.ErrScratchTooSmall)
	}

	return
}

// ExternalProduct evaluates out = ggsw x in. out and in must not alias.
func ExternalProduct[T ring.Torus](out *glwe.Ciphertext[T], ggsw *FourierCiphertext, in *glwe.Ciphertext[T], fft *ring.FFT[T], stack *scratch.Stack) (err error) {
	if err = checkExternalProduct("ggsw.ExternalProduct", out, in, ggsw, fft, stack); err != nil {
		return
	}
	ExternalProductUnchecked(out, ggsw, in, fft, stack)
	return
}

// ExternalProductUnchecked is [ExternalProduct] without validation.
func ExternalProductUnchecked[T ring.Torus](out *glwe.Ciphertext[T], ggsw *FourierCiphertext, in *glwe.Ciphertext[T], fft *ring.FFT[T], stack *scratch.Stack) {
	out.Zero()
	ExternalProductAddUnchecked(out, ggsw, in, fft, stack)
}

// ExternalProductAdd evaluates out = out + ggsw x in. out and in must not alias.
func ExternalProductAdd[T ring.Torus](out *glwe.Ciphertext[T], ggsw *FourierCiphertext, in *glwe.Ciphertext[T], fft *ring.FFT[T], stack *scratch.Stack) (err error) {
	if err = checkExternalProduct("ggsw.ExternalProductAdd", out, in, ggsw, fft, stack); err != nil {
		return
	}
	ExternalProductAddUnchecked(out, ggsw, in, fft, stack)
	return
}

// ExternalProductAddUnchecked is [ExternalProductAdd] without validation.
//
// Each polynomial of in is decomposed into Level digit polynomials, which are
// multiplied in the Fourier domain with the matching rows of ggsw:
//
//	out += sum_{r=0}^{k} sum_{j=1}^{Level} FFT(digit_j(in[r])) * ggsw[j][r]
func ExternalProductAddUnchecked[T ring.Torus](out *glwe.Ciphertext[T], ggsw *FourierCiphertext, in *glwe.Ciphertext[T], fft *ring.FFT[T], stack *scratch.Stack) {

	defer stack.Release(stack.Mark())

	k1, N, level := ggsw.GLWEDimension+1, ggsw.PolynomialSize, ggsw.Level
	n := N >> 1

	var digits [maxLevel]ring.Poly[T]
	digitsBuf := scratch.Take[T](stack, level*N, scratch.CacheLine)
	for j := range digits[:level] {
		digits[j] = ring.PolyView(digitsBuf[j*N : (j+1)*N])
	}

	fourier := ring.FourierPolyView(scratch.Take[complex128](stack, n, scratch.CacheLine))
	accBuf := scratch.TakeZero[complex128](stack, k1*n, scratch.CacheLine)

	decomposer := ring.NewDecomposer[T](ggsw.DecompositionParameters)

	for r, p := range in.Value {

		decomposer.DecomposePoly(p, digits[:level])

		for j := 1; j <= level; j++ {
			fft.ForwardAsInteger(fourier, digits[j-1], stack)
			for c := 0; c < k1; c++ {
				ring.MulAdd(fourier, ggsw.Poly(j, r, c), ring.FourierPolyView(accBuf[c*n:(c+1)*n]))
			}
		}
	}

	for c := 0; c < k1; c++ {
		fft.AddBackwardAsTorus(out.Value[c], ring.FourierPolyView(accBuf[c*n:(c+1)*n]), stack)
	}
}

// CMux evaluates ct0 = ct0 + ggsw x (ct1 - ct0), that is ct0 if ggsw encrypts 0
// and ct1 if it encrypts 1. ct1 is used as scratch and its content is lost.
func CMux[T ring.Torus](ct0, ct1 *glwe.Ciphertext[T], ggsw *FourierCiphertext, fft *ring.FFT[T], stack *scratch.Stack) (err error) {
	if err = checkExternalProduct("ggsw.CMux", ct0, ct1, ggsw, fft, stack); err != nil {
		return
	}
	CMuxUnchecked(ct0, ct1, ggsw, fft, stack)
	return
}

// CMuxUnchecked is [CMux] without validation.
func CMuxUnchecked[T ring.Torus](ct0, ct1 *glwe.Ciphertext[T], ggsw *FourierCiphertext, fft *ring.FFT[T], stack *scratch.Stack) {
	glwe.Sub(ct1, ct0, ct1)
	ExternalProductAddUnchecked(ct0, ggsw, ct1, fft, stack)
}
