package ggsw

import (
	"fmt"

	"github.com/tuneinsight/pbs/core/errs"
	"github.com/tuneinsight/pbs/ring"
	"github.com/tuneinsight/pbs/utils/scratch"
)

// FourierCiphertext is a GGSW ciphertext whose polynomials are stored in the
// Fourier domain. It is the form consumed by the external product.
//
// The polynomial c of the row r of level j is stored at the offset
// (((j-1)*(k+1)+r)*(k+1)+c)*N/2 of Buff.
type FourierCiphertext struct {
	ring.DecompositionParameters
	GLWEDimension  int
	PolynomialSize int
	Buff           []complex128
}

// NewFourierCiphertext allocates a new zero [FourierCiphertext].
func NewFourierCiphertext(k, N int, params ring.DecompositionParameters) *FourierCiphertext {
	return FourierCiphertextView(make([]complex128, params.Level*(k+1)*(k+1)*(N>>1)), k, N, params)
}

// FourierCiphertextView returns a [FourierCiphertext] borrowing buf,
// of length Level*(k+1)*(k+1)*N/2.
func FourierCiphertextView(buf []complex128, k, N int, params ring.DecompositionParameters) *FourierCiphertext {
	return &FourierCiphertext{
		DecompositionParameters: params,
		GLWEDimension:           k,
		PolynomialSize:          N,
		Buff:                    buf,
	}
}

// Poly returns a view of the polynomial c of the row r of level j, for j in [1, Level].
func (ct FourierCiphertext) Poly(j, r, c int) ring.FourierPoly {
	k1, n := ct.GLWEDimension+1, ct.PolynomialSize>>1
	offset := (((j-1)*k1+r)*k1 + c) * n
	return ring.FourierPolyView(ct.Buff[offset : offset+n])
}

// ConvertToFourier writes the Fourier transform of every polynomial of in on out,
// preserving the level and row order.
func ConvertToFourier[T ring.Torus](out *FourierCiphertext, in *Ciphertext[T], fft *ring.FFT[T]) (err error) {

	k, N := in.GLWEDimension(), in.PolynomialSize()

	checks := []struct {
		q          errs.Quantity
		want, have int
	}{
		{errs.GLWEDimension, k, out.GLWEDimension},
		{errs.PolynomialSize, N, out.PolynomialSize},
		{errs.PolynomialSize, N, fft.PolynomialSize()},
		{errs.DecompositionBaseLog, in.BaseLog, out.BaseLog},
		{errs.DecompositionLevel, in.Level, out.Level},
		{errs.BufferLength, in.Level * (k + 1) * (k + 1) * N, len(in.Buff)},
		{errs.BufferLength, out.Level * (k + 1) * (k + 1) * (N >> 1), len(out.Buff)},
	}

	for _, c := range checks {
		if err = errs.CheckEqual("ggsw.ConvertToFourier", c.q, c.want, c.have); err != nil {
			return
		}
	}

	if err = ring.Validate[T](in.DecompositionParameters); err != nil {
		return fmt.Errorf("ggsw.ConvertToFourier: %w", err)
	}

	ConvertToFourierUnchecked(out, in, fft)

	return
}

// ConvertToFourierUnchecked is [ConvertToFourier] without validation.
func ConvertToFourierUnchecked[T ring.Torus](out *FourierCiphertext, in *Ciphertext[T], fft *ring.FFT[T]) {
	for j := 1; j <= in.Level; j++ {
		for r := range in.Value[j-1] {
			ConvertRowToFourierUnchecked(out, in, j, r, fft)
		}
	}
}

// ConvertRowToFourierUnchecked converts the row r of the level j only.
// Distinct rows can be converted concurrently.
func ConvertRowToFourierUnchecked[T ring.Torus](out *FourierCiphertext, in *Ciphertext[T], j, r int, fft *ring.FFT[T]) {
	// The forward transforms take nothing from the stack.
	var stack scratch.Stack
	for c, p := range in.Row(j, r).Value {
		fft.ForwardAsTorus(out.Poly(j, r, c), p, &stack)
	}
}
