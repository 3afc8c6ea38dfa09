package bootstrap

import (
	"context"
	"fmt"

	"github.com/tuneinsight/pbs/core/errs"
	"github.com/tuneinsight/pbs/core/ggsw"
	"github.com/tuneinsight/pbs/core/glwe"
	"github.com/tuneinsight/pbs/core/lwe"
	"github.com/tuneinsight/pbs/ring"
	"github.com/tuneinsight/pbs/utils/concurrency"
	"github.com/tuneinsight/pbs/utils/sampling"
)

// BootstrapKey is a bootstrap key in the coefficient domain: the GGSW
// encryptions, under a GLWE key, of the InputDimension bits of an LWE key.
// It is the canonical form of the key, from which [FourierBootstrapKey] is derived.
type BootstrapKey[T ring.Torus] struct {
	ring.DecompositionParameters
	InputDimension int
	GLWEDimension  int
	PolynomialSize int
	Buff           []T
	Value          []*ggsw.Ciphertext[T]
}

// NewBootstrapKey allocates a new zero [BootstrapKey] with contiguous storage.
func NewBootstrapKey[T ring.Torus](n, k, N int, params ring.DecompositionParameters) *BootstrapKey[T] {
	size := params.Level * (k + 1) * (k + 1) * N
	buf := make([]T, n*size)
	value := make([]*ggsw.Ciphertext[T], n)
	for i := range value {
		value[i] = ggsw.CiphertextView(buf[i*size:(i+1)*size], k, N, params)
	}
	return &BootstrapKey[T]{
		DecompositionParameters: params,
		InputDimension:          n,
		GLWEDimension:           k,
		PolynomialSize:          N,
		Buff:                    buf,
		Value:                   value,
	}
}

// OutputDimension returns k*N.
func (bsk BootstrapKey[T]) OutputDimension() int {
	return bsk.GLWEDimension * bsk.PolynomialSize
}

// FourierBootstrapKey is a [BootstrapKey] with its polynomials in the Fourier domain.
// It is read-only once converted and can be shared by concurrent evaluators.
type FourierBootstrapKey struct {
	ring.DecompositionParameters
	InputDimension int
	GLWEDimension  int
	PolynomialSize int
	Buff           []complex128
	Value          []*ggsw.FourierCiphertext
}

// NewFourierBootstrapKey allocates a new zero [FourierBootstrapKey] with contiguous storage.
func NewFourierBootstrapKey(n, k, N int, params ring.DecompositionParameters) *FourierBootstrapKey {
	size := params.Level * (k + 1) * (k + 1) * (N >> 1)
	buf := make([]complex128, n*size)
	value := make([]*ggsw.FourierCiphertext, n)
	for i := range value {
		value[i] = ggsw.FourierCiphertextView(buf[i*size:(i+1)*size], k, N, params)
	}
	return &FourierBootstrapKey{
		DecompositionParameters: params,
		InputDimension:          n,
		GLWEDimension:           k,
		PolynomialSize:          N,
		Buff:                    buf,
		Value:                   value,
	}
}

// OutputDimension returns k*N.
func (bsk FourierBootstrapKey) OutputDimension() int {
	return bsk.GLWEDimension * bsk.PolynomialSize
}

func checkFourierKey[T ring.Torus](op string, key *FourierBootstrapKey) (err error) {

	k, N := key.GLWEDimension, key.PolynomialSize

	if err = errs.CheckEqual(op, errs.KeyCount, key.InputDimension, len(key.Value)); err != nil {
		return
	}

	if err = errs.CheckEqual(op, errs.BufferLength, key.InputDimension*key.Level*(k+1)*(k+1)*(N>>1), len(key.Buff)); err != nil {
		return
	}

	if err = ring.Validate[T](key.DecompositionParameters); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return
}

// ConvertToFourier writes the Fourier transform of every polynomial of in on out.
func ConvertToFourier[T ring.Torus](out *FourierBootstrapKey, in *BootstrapKey[T], fft *ring.FFT[T]) (err error) {
	if err = checkConvert("bootstrap.ConvertToFourier", out, in, fft); err != nil {
		return
	}
	ConvertToFourierUnchecked(out, in, fft)
	return
}

// ConvertToFourierUnchecked is [ConvertToFourier] without validation.
func ConvertToFourierUnchecked[T ring.Torus](out *FourierBootstrapKey, in *BootstrapKey[T], fft *ring.FFT[T]) {
	for i := range in.Value {
		ggsw.ConvertToFourierUnchecked(out.Value[i], in.Value[i], fft)
	}
}

// ConvertToFourierParallel is [ConvertToFourier] spreading the rows of all the
// GGSW ciphertexts of the key over workers goroutines.
// ctx is only checked before each row is scheduled.
func ConvertToFourierParallel[T ring.Torus](ctx context.Context, out *FourierBootstrapKey, in *BootstrapKey[T], fft *ring.FFT[T], workers int) (err error) {

	if err = checkConvert("bootstrap.ConvertToFourierParallel", out, in, fft); err != nil {
		return
	}

	if workers < 1 {
		return fmt.Errorf("bootstrap.ConvertToFourierParallel: %w", &errs.DegenerateError{Param: "workers", Value: workers, Reason: "must be positive"})
	}

	// The FFT is stateless, every worker shares it.
	rm := concurrency.NewResourceManager(ctx, make([]struct{}, workers))

	for i := range in.Value {
		for j := 1; j <= in.Level; j++ {
			for r := 0; r <= in.GLWEDimension; r++ {
				i, j, r := i, j, r
				rm.Run(func(struct{}) error {
					ggsw.ConvertRowToFourierUnchecked(out.Value[i], in.Value[i], j, r, fft)
					return nil
				})
			}
		}
	}

	if err = rm.Wait(); err != nil {
		return fmt.Errorf("bootstrap.ConvertToFourierParallel: %w", err)
	}

	return
}

func checkConvert[T ring.Torus](op string, out *FourierBootstrapKey, in *BootstrapKey[T], fft *ring.FFT[T]) (err error) {

	checks := []struct {
		q          errs.Quantity
		want, have int
	}{
		{errs.KeyCount, in.InputDimension, out.InputDimension},
		{errs.KeyCount, in.InputDimension, len(in.Value)},
		{errs.GLWEDimension, in.GLWEDimension, out.GLWEDimension},
		{errs.PolynomialSize, in.PolynomialSize, out.PolynomialSize},
		{errs.PolynomialSize, in.PolynomialSize, fft.PolynomialSize()},
		{errs.DecompositionBaseLog, in.BaseLog, out.BaseLog},
		{errs.DecompositionLevel, in.Level, out.Level},
		{errs.BufferLength, in.InputDimension * in.Level * (in.GLWEDimension + 1) * (in.GLWEDimension + 1) * in.PolynomialSize, len(in.Buff)},
	}

	for _, c := range checks {
		if err = errs.CheckEqual(op, c.q, c.want, c.have); err != nil {
			return
		}
	}

	return checkFourierKey[T](op, out)
}

// KeyGenerator generates the secret keys, bootstrap keys and keyswitch keys of
// a parameter set. All the keys are derived deterministically from a master seed:
// each key, and each GGSW of a bootstrap key, reads from its own [sampling.KeyedPRNG]
// keyed by [sampling.DeriveKey], so that the generation can be spread over
// goroutines without changing its result.
type KeyGenerator[T ring.Torus] struct {
	params Parameters
	seed   []byte
}

// NewKeyGenerator returns a new [KeyGenerator]. If seed is nil, a fresh random
// seed is drawn from the system's random source.
func NewKeyGenerator[T ring.Torus](params Parameters, seed []byte) (*KeyGenerator[T], error) {
	if err := checkTorus[T]("bootstrap.NewKeyGenerator", params); err != nil {
		return nil, err
	}
	if seed == nil {
		seed = sampling.NewKey()
	}
	return &KeyGenerator[T]{params: params, seed: append([]byte{}, seed...)}, nil
}

func (kgen *KeyGenerator[T]) prng(context string, index uint64) *sampling.KeyedPRNG {
	prng, err := sampling.NewKeyedPRNG(sampling.DeriveKey(kgen.seed, context, index))
	if err != nil {
		// Sanity check, derived keys are always 32 bytes long.
		panic(err)
	}
	return prng
}

// GenLWESecretKeyNew generates the LWE secret key of dimension n of the bootstrapped ciphertexts.
func (kgen *KeyGenerator[T]) GenLWESecretKeyNew() *lwe.SecretKey[T] {
	return lwe.GenSecretKey[T](kgen.params.LWEDimension(), kgen.prng("pbs lwe secret key", 0))
}

// GenGLWESecretKeyNew generates the GLWE secret key of the accumulator. The
// bootstrapped ciphertexts decrypt under its flattening [glwe.SecretKey.AsLWEKey].
func (kgen *KeyGenerator[T]) GenGLWESecretKeyNew() *glwe.SecretKey[T] {
	return glwe.GenSecretKey[T](kgen.params.GLWEDimension(), kgen.params.N(), kgen.prng("pbs glwe secret key", 0))
}

// GenBootstrapKeyNew generates the bootstrap key from skIn to skOut, encrypting
// the key bits over workers goroutines.
func (kgen *KeyGenerator[T]) GenBootstrapKeyNew(ctx context.Context, skIn *lwe.SecretKey[T], skOut *glwe.SecretKey[T], workers int) (bsk *BootstrapKey[T], err error) {

	p := kgen.params

	if err = errs.CheckEqual("bootstrap.GenBootstrapKeyNew", errs.LWEDimension, p.LWEDimension(), skIn.Dimension()); err != nil {
		return
	}

	if err = errs.CheckEqual("bootstrap.GenBootstrapKeyNew", errs.GLWEDimension, p.GLWEDimension(), skOut.GLWEDimension()); err != nil {
		return
	}

	if err = errs.CheckEqual("bootstrap.GenBootstrapKeyNew", errs.PolynomialSize, p.N(), skOut.PolynomialSize()); err != nil {
		return
	}

	if workers < 1 {
		return nil, fmt.Errorf("bootstrap.GenBootstrapKeyNew: %w", &errs.DegenerateError{Param: "workers", Value: workers, Reason: "must be positive"})
	}

	bsk = NewBootstrapKey[T](p.LWEDimension(), p.GLWEDimension(), p.N(), p.BootstrapDecomposition())

	rm := concurrency.NewResourceManager(ctx, make([]struct{}, workers))

	for i, s := range skIn.Value {
		i, s := i, s
		rm.Run(func(struct{}) error {
			enc, err := ggsw.NewEncryptor(skOut, p.GLWEStd(), kgen.prng("pbs bootstrap key", uint64(i)))
			if err != nil {
				return err
			}
			enc.EncryptScalarUnchecked(s, bsk.Value[i])
			return nil
		})
	}

	if err = rm.Wait(); err != nil {
		return nil, fmt.Errorf("bootstrap.GenBootstrapKeyNew: %w", err)
	}

	return
}

// GenKeySwitchKeyNew generates the keyswitch key from the flattened GLWE key
// skIn to the LWE key skOut, bringing bootstrapped ciphertexts back to the
// input dimension n.
func (kgen *KeyGenerator[T]) GenKeySwitchKeyNew(skIn *glwe.SecretKey[T], skOut *lwe.SecretKey[T]) (ksk *lwe.KeySwitchKey[T], err error) {

	p := kgen.params

	if p.KeySwitchDecomposition() == (ring.DecompositionParameters{}) {
		return nil, fmt.Errorf("bootstrap.GenKeySwitchKeyNew: %w", &errs.DegenerateError{Param: "KeySwitchLevel", Value: 0, Reason: "keyswitch decomposition is unset"})
	}

	if err = errs.CheckEqual("bootstrap.GenKeySwitchKeyNew", errs.LWEDimension, p.OutputDimension(), skIn.GLWEDimension()*skIn.PolynomialSize()); err != nil {
		return
	}

	if err = errs.CheckEqual("bootstrap.GenKeySwitchKeyNew", errs.LWEDimension, p.LWEDimension(), skOut.Dimension()); err != nil {
		return
	}

	if ksk, err = lwe.GenKeySwitchKey(skIn.AsLWEKey(), skOut, p.KeySwitchDecomposition(), p.LWEStd(), kgen.prng("pbs keyswitch key", 0)); err != nil {
		return nil, fmt.Errorf("bootstrap.GenKeySwitchKeyNew: %w", err)
	}

	return
}
