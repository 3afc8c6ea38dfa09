package bootstrap

import (
	"fmt"

	"github.com/tuneinsight/pbs/core/errs"
	"github.com/tuneinsight/pbs/core/glwe"
	"github.com/tuneinsight/pbs/core/lwe"
	"github.com/tuneinsight/pbs/ring"
	"github.com/tuneinsight/pbs/utils/scratch"
)

// BitExtractionBias holds the re-centering constant of [ExtractBits].
//
// Before each bootstrap, the keyswitched ciphertext, whose phase is the
// extracted bit on the most significant position plus noise, is biased by
// 2^(b-LogRecentering) so that both values of the bit land in the middle of
// a half of the torus.
type BitExtractionBias struct {
	LogRecentering int
}

// DefaultBitExtractionBias biases the keyswitched ciphertexts by a quarter of the torus.
var DefaultBitExtractionBias = BitExtractionBias{LogRecentering: 2}

// ExtractBitsScratch returns the scratch requirement of [ExtractBits] for an
// input of dimension k*N and outputs of dimension n.
func ExtractBitsScratch[T ring.Torus](n, k int, params ring.DecompositionParameters, fft *ring.FFT[T]) (req scratch.Req, err error) {

	kN := k * fft.PolynomialSize()

	var work, keySwitched, testVector, pbs scratch.Req

	// working copy of the input, shifted copy and bootstrap output
	if work, err = scratch.New[T](kN+1, scratch.CacheLine); err != nil {
		return
	}

	if work, err = work.Array(3); err != nil {
		return
	}

	if keySwitched, err = scratch.New[T](n+1, scratch.CacheLine); err != nil {
		return
	}

	if testVector, err = scratch.New[T]((k+1)*fft.PolynomialSize(), scratch.CacheLine); err != nil {
		return
	}

	if pbs, err = BootstrapScratch(k, params, fft); err != nil {
		return
	}

	return scratch.AllOf(work, keySwitched, testVector, pbs)
}

// ExtractBits extracts the len(outs) bits of the message m of in, encrypted as
// m * 2^deltaLog under the flattened GLWE key of key. The bit of weight
// 2^(len(outs)-1-i) of m is written on outs[i], encrypted as bit * 2^(b-1) under
// the input key of key.
//
// The bits are peeled from the least significant one: each bit is shifted on the
// most significant position, keyswitched on its output, then bootstrapped and
// subtracted from the working ciphertext.
//
// ksk must switch from the flattened GLWE key of key to its input key.
func ExtractBits[T ring.Torus](outs []*lwe.Ciphertext[T], in *lwe.Ciphertext[T], ksk *lwe.KeySwitchKey[T], key *FourierBootstrapKey, deltaLog int, bias BitExtractionBias, fft *ring.FFT[T], stack *scratch.Stack) (err error) {

	const op = "bootstrap.ExtractBits"

	b := ring.Bits[T]()

	if len(outs) == 0 {
		return fmt.Errorf("%s: %w", op, &errs.DegenerateError{Param: "len(outs)", Value: 0, Reason: "at least one bit must be extracted"})
	}

	if deltaLog < 1 || deltaLog+len(outs) > b {
		return fmt.Errorf("%s: %w", op, &errs.DegenerateError{Param: "deltaLog", Value: deltaLog, Reason: fmt.Sprintf("must be in [1, %d] to extract %d bits", b-len(outs), len(outs))})
	}

	if bias.LogRecentering < 1 || bias.LogRecentering > b {
		return fmt.Errorf("%s: %w", op, &errs.DegenerateError{Param: "LogRecentering", Value: bias.LogRecentering, Reason: fmt.Sprintf("must be in [1, %d]", b)})
	}

	if err = checkFourierKey[T](op, key); err != nil {
		return
	}

	checks := []struct {
		q          errs.Quantity
		want, have int
	}{
		{errs.LWEDimension, key.OutputDimension(), in.Dimension()},
		{errs.LWEDimension, key.OutputDimension(), ksk.InputDimension},
		{errs.LWEDimension, key.InputDimension, ksk.OutputDimension},
		{errs.PolynomialSize, key.PolynomialSize, fft.PolynomialSize()},
		{errs.BufferLength, ksk.InputDimension * ksk.Level * (ksk.OutputDimension + 1), len(ksk.Value)},
	}

	for _, c := range checks {
		if err = errs.CheckEqual(op, c.q, c.want, c.have); err != nil {
			return
		}
	}

	for _, out := range outs {
		if err = errs.CheckEqual(op, errs.LWEDimension, key.InputDimension, out.Dimension()); err != nil {
			return
		}
	}

	if err = ring.Validate[T](ksk.DecompositionParameters); err != nil {
		return fmt.Errorf("%s: keyswitch key: %w", op, err)
	}

	var req scratch.Req
	if req, err = ExtractBitsScratch(key.InputDimension, key.GLWEDimension, key.DecompositionParameters, fft); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !stack.Satisfies(req) {
		return fmt.Errorf("%s: %w", op, errs.ErrScratchTooSmall)
	}

	ExtractBitsUnchecked(outs, in, ksk, key, deltaLog, bias, fft, stack)

	return
}

// ExtractBitsUnchecked is [ExtractBits] without validation.
func ExtractBitsUnchecked[T ring.Torus](outs []*lwe.Ciphertext[T], in *lwe.Ciphertext[T], ksk *lwe.KeySwitchKey[T], key *FourierBootstrapKey, deltaLog int, bias BitExtractionBias, fft *ring.FFT[T], stack *scratch.Stack) {

	defer stack.Release(stack.Mark())

	b := ring.Bits[T]()
	kN, n, N := key.OutputDimension(), key.InputDimension, key.PolynomialSize
	t := len(outs)

	work := lwe.CiphertextView(scratch.Take[T](stack, kN+1, scratch.CacheLine))
	work.Copy(in)

	shifted := lwe.CiphertextView(scratch.Take[T](stack, kN+1, scratch.CacheLine))
	pbsOut := lwe.CiphertextView(scratch.Take[T](stack, kN+1, scratch.CacheLine))
	keySwitched := lwe.CiphertextView(scratch.Take[T](stack, n+1, scratch.CacheLine))

	testVector := glwe.CiphertextView(scratch.TakeZero[T](stack, (key.GLWEDimension+1)*N, scratch.CacheLine), N)

	for i := 0; i < t; i++ {

		// moves the bit of weight 2^(deltaLog+i) on the most significant position
		lwe.ShiftLeft(work, b-deltaLog-i-1, shifted)

		lwe.KeySwitchUnchecked(keySwitched, shifted, ksk)
		outs[t-1-i].Copy(keySwitched)

		if i == t-1 {
			break
		}

		lwe.AddPlaintext(keySwitched, T(1)<<(b-bias.LogRecentering))

		// The negacyclic constant test vector -alpha maps the upper half of the
		// torus to +alpha: the bootstrap returns -alpha or +alpha depending on the bit.
		alpha := T(1) << (deltaLog - 1 + i)
		body := testVector.Body().Coeffs
		for j := range body {
			body[j] = -alpha
		}

		BootstrapUnchecked(pbsOut, keySwitched, testVector, key, fft, stack)

		lwe.AddPlaintext(pbsOut, alpha)

		lwe.Sub(work, pbsOut, work)
	}
}
