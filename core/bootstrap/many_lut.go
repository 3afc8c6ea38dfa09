package bootstrap

import (
	"fmt"

	"github.com/tuneinsight/pbs/core/errs"
	"github.com/tuneinsight/pbs/core/glwe"
	"github.com/tuneinsight/pbs/core/lwe"
	"github.com/tuneinsight/pbs/ring"
	"github.com/tuneinsight/pbs/utils"
	"github.com/tuneinsight/pbs/utils/scratch"
)

// NewManyLUTTestVector returns the accumulator, trivially encrypted, packing the
// len(fs) lookup tables fs over the messages of Z_p encoded as m/(2p). The
// number of tables must be a power of two and p*len(fs) must not exceed N.
//
// The coefficient j of the body holds fs[j mod len(fs)] evaluated on the message
// whose box contains j - (j mod len(fs)).
func NewManyLUTTestVector[T ring.Torus](k, N int, p uint64, fs []func(m uint64) uint64) (tv *glwe.Ciphertext[T], err error) {
	tv = glwe.NewCiphertext[T](k, N)
	if err = GenManyLUTTestVector(tv, p, fs); err != nil {
		return nil, err
	}
	return
}

// GenManyLUTTestVector writes on tv the test vector of [NewManyLUTTestVector].
func GenManyLUTTestVector[T ring.Torus](tv *glwe.Ciphertext[T], p uint64, fs []func(m uint64) uint64) (err error) {

	N := tv.PolynomialSize()
	L := len(fs)

	if L == 0 || !utils.IsPowerOfTwo(L) || L > N {
		return fmt.Errorf("bootstrap.GenManyLUTTestVector: %w", &errs.DegenerateError{Param: "lutCount", Value: L, Reason: fmt.Sprintf("must be a power of two in [1, %d]", N)})
	}

	if p < 2 || p > uint64(N/L) {
		return fmt.Errorf("bootstrap.GenManyLUTTestVector: %w", &errs.DegenerateError{Param: "p", Value: int(min(p, uint64(1<<31))), Reason: fmt.Sprintf("message space must be in [2, %d] for %d lookup tables", N/L, L)})
	}

	tv.Zero()

	box := uint64(N) / p
	body := tv.Body().Coeffs
	for j := range body {
		t := j & (L - 1)
		m := (uint64(j-t) + box/2) / box
		if m < p {
			body[j] = ring.Encode[T](fs[t](m)%p, 2*p)
		} else {
			body[j] = -ring.Encode[T](fs[t](0)%p, 2*p)
		}
	}

	return
}

// BootstrapManyLUT evaluates with a single blind rotation the len(outs) lookup
// tables packed in testVector by [NewManyLUTTestVector]: the phase of in is
// switched to a multiple of len(outs) and outs[t] receives the coefficient t of
// the rotated accumulator, an encryption of fs[t](m).
//
// The scratch requirement is the one of [Bootstrap].
func BootstrapManyLUT[T ring.Torus](outs []*lwe.Ciphertext[T], in *lwe.Ciphertext[T], testVector *glwe.Ciphertext[T], key *FourierBootstrapKey, fft *ring.FFT[T], stack *scratch.Stack) (err error) {

	const op = "bootstrap.BootstrapManyLUT"

	if err = checkBlindRotate(op, testVector, in, key, fft); err != nil {
		return
	}

	if L := len(outs); L == 0 || !utils.IsPowerOfTwo(L) || L > key.PolynomialSize {
		return fmt.Errorf("%s: %w", op, &errs.DegenerateError{Param: "lutCount", Value: L, Reason: fmt.Sprintf("must be a power of two in [1, %d]", key.PolynomialSize)})
	}

	for _, out := range outs {
		if err = errs.CheckEqual(op, errs.LWEDimension, key.OutputDimension(), out.Dimension()); err != nil {
			return
		}
	}

	var req scratch.Req
	if req, err = BootstrapScratch(key.GLWEDimension, key.DecompositionParameters, fft); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !stack.Satisfies(req) {
		return fmt.Errorf("%s: %w", op, errs.ErrScratchTooSmall)
	}

	BootstrapManyLUTUnchecked(outs, in, testVector, key, fft, stack)

	return
}

// BootstrapManyLUTUnchecked is [BootstrapManyLUT] without validation.
func BootstrapManyLUTUnchecked[T ring.Torus](outs []*lwe.Ciphertext[T], in *lwe.Ciphertext[T], testVector *glwe.Ciphertext[T], key *FourierBootstrapKey, fft *ring.FFT[T], stack *scratch.Stack) {

	defer stack.Release(stack.Mark())

	N := key.PolynomialSize

	acc := glwe.CiphertextView(scratch.Take[T](stack, len(testVector.Buff), scratch.CacheLine), N)
	acc.Copy(testVector)

	blindRotate(acc, in, key, utils.Log2(len(outs)), fft, stack)

	for t, out := range outs {
		glwe.SampleExtractUnchecked(out, acc, t)
	}
}
