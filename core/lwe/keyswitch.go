package lwe

import (
	"fmt"

	"github.com/tuneinsight/pbs/core/errs"
	"github.com/tuneinsight/pbs/ring"
	"github.com/tuneinsight/pbs/utils/sampling"
)

// maxLevel bounds the decomposition level count of a keyswitch, which lets the
// digits of a scalar live on the stack of [KeySwitchUnchecked].
const maxLevel = 64

// KeySwitchKey switches LWE ciphertexts from an input key of dimension InputDimension
// to an output key of dimension OutputDimension.
//
// It stores InputDimension x Level LWE encryptions under the output key: the
// ciphertext (i, j) encrypts s_in[i] * 2^(b - (j+1)*BaseLog).
type KeySwitchKey[T ring.Torus] struct {
	ring.DecompositionParameters
	InputDimension  int
	OutputDimension int
	Value           []T
}

// NewKeySwitchKey allocates a new zero [KeySwitchKey].
func NewKeySwitchKey[T ring.Torus](inputDimension, outputDimension int, params ring.DecompositionParameters) *KeySwitchKey[T] {
	return &KeySwitchKey[T]{
		DecompositionParameters: params,
		InputDimension:          inputDimension,
		OutputDimension:         outputDimension,
		Value:                   make([]T, inputDimension*params.Level*(outputDimension+1)),
	}
}

// Ciphertext returns a view of the ciphertext of input index i and level j+1.
func (ksk KeySwitchKey[T]) Ciphertext(i, j int) *Ciphertext[T] {
	size := ksk.OutputDimension + 1
	offset := (i*ksk.Level + j) * size
	return CiphertextView(ksk.Value[offset : offset+size])
}

// GenKeySwitchKey generates a new [KeySwitchKey] from skIn to skOut with noise of standard deviation std.
func GenKeySwitchKey[T ring.Torus](skIn, skOut *SecretKey[T], params ring.DecompositionParameters, std float64, prng sampling.PRNG) (ksk *KeySwitchKey[T], err error) {

	if err = ring.Validate[T](params); err != nil {
		return nil, fmt.Errorf("lwe.GenKeySwitchKey: %w", err)
	}

	if params.Level > maxLevel {
		return nil, fmt.Errorf("lwe.GenKeySwitchKey: %w", &errs.DegenerateError{Param: "Level", Value: params.Level, Reason: fmt.Sprintf("keyswitch level count must be at most %d", maxLevel)})
	}

	ksk = NewKeySwitchKey[T](skIn.Dimension(), skOut.Dimension(), params)

	enc := NewEncryptor(skOut, std, prng)

	b := ring.Bits[T]()

	for i, s := range skIn.Value {
		for j := 0; j < params.Level; j++ {
			enc.EncryptUnchecked(s<<(b-(j+1)*params.BaseLog), ksk.Ciphertext(i, j))
		}
	}

	return
}

// KeySwitch switches in, encrypted under the input key of ksk, to out, encrypted under its output key.
func KeySwitch[T ring.Torus](out, in *Ciphertext[T], ksk *KeySwitchKey[T]) (err error) {

	if err = errs.CheckEqual("lwe.KeySwitch", errs.LWEDimension, ksk.InputDimension, in.Dimension()); err != nil {
		return
	}

	if err = errs.CheckEqual("lwe.KeySwitch", errs.LWEDimension, ksk.OutputDimension, out.Dimension()); err != nil {
		return
	}

	if err = errs.CheckEqual("lwe.KeySwitch", errs.BufferLength, ksk.InputDimension*ksk.Level*(ksk.OutputDimension+1), len(ksk.Value)); err != nil {
		return
	}

	if err = ring.Validate[T](ksk.DecompositionParameters); err != nil {
		return fmt.Errorf("lwe.KeySwitch: %w", err)
	}

	if ksk.Level > maxLevel {
		return fmt.Errorf("lwe.KeySwitch: %w", &errs.DegenerateError{Param: "Level", Value: ksk.Level, Reason: fmt.Sprintf("keyswitch level count must be at most %d", maxLevel)})
	}

	KeySwitchUnchecked(out, in, ksk)

	return
}

// KeySwitchUnchecked is [KeySwitch] without validation.
func KeySwitchUnchecked[T ring.Torus](out, in *Ciphertext[T], ksk *KeySwitchKey[T]) {

	clear(out.Value)
	out.SetBody(in.Body())

	decomposer := ring.NewDecomposer[T](ksk.DecompositionParameters)

	var buf [maxLevel]T
	digits := buf[:ksk.Level]

	res := out.Value

	for i, a := range in.Mask() {

		if a == 0 {
			continue
		}

		decomposer.Decompose(a, digits)

		for j, d := range digits {

			if d == 0 {
				continue
			}

			for k, c := range ksk.Ciphertext(i, j).Value {
				res[k] -= d * c
			}
		}
	}
}
