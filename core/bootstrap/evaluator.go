package bootstrap

import (
	"fmt"

	"github.com/tuneinsight/pbs/core/glwe"
	"github.com/tuneinsight/pbs/core/lwe"
	"github.com/tuneinsight/pbs/ring"
	"github.com/tuneinsight/pbs/utils/scratch"
)

// Evaluator evaluates blind rotations, programmable bootstraps and bit
// extractions for a given parameter set. It owns the FFT plan and a scratch
// stack sized for all its operations, so that its methods never allocate
// temporary polynomials.
//
// An Evaluator must not be used concurrently: see [Evaluator.ShallowCopy].
type Evaluator[T ring.Torus] struct {
	params Parameters
	fft    *ring.FFT[T]
	stack  *scratch.Stack
	req    scratch.Req
	bias   BitExtractionBias
}

// NewEvaluator instantiates a new [Evaluator].
func NewEvaluator[T ring.Torus](params Parameters) (eval *Evaluator[T], err error) {

	if err = checkTorus[T]("bootstrap.NewEvaluator", params); err != nil {
		return
	}

	eval = &Evaluator[T]{params: params, bias: DefaultBitExtractionBias}

	if eval.fft, err = ring.NewFFT[T](params.N()); err != nil {
		return nil, fmt.Errorf("bootstrap.NewEvaluator: %w", err)
	}

	var pbs, bits scratch.Req

	if pbs, err = BootstrapScratch(params.GLWEDimension(), params.BootstrapDecomposition(), eval.fft); err != nil {
		return nil, fmt.Errorf("bootstrap.NewEvaluator: %w", err)
	}

	if bits, err = ExtractBitsScratch(params.LWEDimension(), params.GLWEDimension(), params.BootstrapDecomposition(), eval.fft); err != nil {
		return nil, fmt.Errorf("bootstrap.NewEvaluator: %w", err)
	}

	if eval.req, err = scratch.AnyOf(pbs, bits); err != nil {
		return nil, fmt.Errorf("bootstrap.NewEvaluator: %w", err)
	}

	eval.stack = scratch.NewStack(eval.req)

	return
}

// ShallowCopy creates a shallow copy of this [Evaluator] in which all the read-only data-structures are
// shared with the receiver and the scratch stack is reallocated. The receiver and the returned
// Evaluators can be used concurrently.
func (eval Evaluator[T]) ShallowCopy() *Evaluator[T] {
	return &Evaluator[T]{
		params: eval.params,
		fft:    eval.fft,
		stack:  scratch.NewStack(eval.req),
		req:    eval.req,
		bias:   eval.bias,
	}
}

// WithBitExtractionBias returns a shallow copy of the receiver using bias in
// [Evaluator.ExtractBits]. The scratch stack is shared: the receiver and the
// returned Evaluators cannot be used concurrently.
func (eval Evaluator[T]) WithBitExtractionBias(bias BitExtractionBias) *Evaluator[T] {
	eval.bias = bias
	return &eval
}

// Parameters returns the parameters of the Evaluator.
func (eval Evaluator[T]) Parameters() Parameters {
	return eval.params
}

// FFT returns the FFT of the Evaluator.
func (eval Evaluator[T]) FFT() *ring.FFT[T] {
	return eval.fft
}

// ConvertKeyNew returns the Fourier domain conversion of bsk.
func (eval Evaluator[T]) ConvertKeyNew(bsk *BootstrapKey[T]) (key *FourierBootstrapKey, err error) {
	key = NewFourierBootstrapKey(bsk.InputDimension, bsk.GLWEDimension, bsk.PolynomialSize, bsk.DecompositionParameters)
	if err = ConvertToFourier(key, bsk, eval.fft); err != nil {
		return nil, err
	}
	return
}

// NewTestVector returns the test vector of the lookup table f over Z_p, see [NewTestVector].
func (eval Evaluator[T]) NewTestVector(p uint64, f func(m uint64) uint64) (*glwe.Ciphertext[T], error) {
	return NewTestVector[T](eval.params.GLWEDimension(), eval.params.N(), p, f)
}

// BlindRotate rotates acc by the phase of in, see [BlindRotate].
func (eval Evaluator[T]) BlindRotate(acc *glwe.Ciphertext[T], in *lwe.Ciphertext[T], key *FourierBootstrapKey) error {
	return BlindRotate(acc, in, key, eval.fft, eval.stack)
}

// Bootstrap evaluates the programmable bootstrap of in with testVector on out, see [Bootstrap].
func (eval Evaluator[T]) Bootstrap(out, in *lwe.Ciphertext[T], testVector *glwe.Ciphertext[T], key *FourierBootstrapKey) error {
	return Bootstrap(out, in, testVector, key, eval.fft, eval.stack)
}

// BootstrapNew evaluates the programmable bootstrap of in with testVector on a new ciphertext.
func (eval Evaluator[T]) BootstrapNew(in *lwe.Ciphertext[T], testVector *glwe.Ciphertext[T], key *FourierBootstrapKey) (out *lwe.Ciphertext[T], err error) {
	out = lwe.NewCiphertext[T](key.OutputDimension())
	if err = eval.Bootstrap(out, in, testVector, key); err != nil {
		return nil, err
	}
	return
}

// NewManyLUTTestVector returns the test vector packing the lookup tables fs over Z_p, see [NewManyLUTTestVector].
func (eval Evaluator[T]) NewManyLUTTestVector(p uint64, fs []func(m uint64) uint64) (*glwe.Ciphertext[T], error) {
	return NewManyLUTTestVector[T](eval.params.GLWEDimension(), eval.params.N(), p, fs)
}

// BootstrapManyLUT evaluates the len(outs) lookup tables packed in testVector on in, see [BootstrapManyLUT].
func (eval Evaluator[T]) BootstrapManyLUT(outs []*lwe.Ciphertext[T], in *lwe.Ciphertext[T], testVector *glwe.Ciphertext[T], key *FourierBootstrapKey) error {
	return BootstrapManyLUT(outs, in, testVector, key, eval.fft, eval.stack)
}

// BootstrapManyLUTNew evaluates the lutCount lookup tables packed in testVector on new ciphertexts.
func (eval Evaluator[T]) BootstrapManyLUTNew(in *lwe.Ciphertext[T], testVector *glwe.Ciphertext[T], key *FourierBootstrapKey, lutCount int) (outs []*lwe.Ciphertext[T], err error) {
	outs = make([]*lwe.Ciphertext[T], lutCount)
	for i := range outs {
		outs[i] = lwe.NewCiphertext[T](key.OutputDimension())
	}
	if err = eval.BootstrapManyLUT(outs, in, testVector, key); err != nil {
		return nil, err
	}
	return
}

// ExtractBits extracts len(outs) bits of the message of in, see [ExtractBits].
func (eval Evaluator[T]) ExtractBits(outs []*lwe.Ciphertext[T], in *lwe.Ciphertext[T], ksk *lwe.KeySwitchKey[T], key *FourierBootstrapKey, deltaLog int) error {
	return ExtractBits(outs, in, ksk, key, deltaLog, eval.bias, eval.fft, eval.stack)
}

// ExtractBitsNew extracts t bits of the message of in on new ciphertexts, see [ExtractBits].
func (eval Evaluator[T]) ExtractBitsNew(in *lwe.Ciphertext[T], ksk *lwe.KeySwitchKey[T], key *FourierBootstrapKey, deltaLog, t int) (outs []*lwe.Ciphertext[T], err error) {
	outs = make([]*lwe.Ciphertext[T], t)
	for i := range outs {
		outs[i] = lwe.NewCiphertext[T](key.InputDimension)
	}
	if err = eval.ExtractBits(outs, in, ksk, key, deltaLog); err != nil {
		return nil, err
	}
	return
}
