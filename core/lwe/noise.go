package lwe

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"github.com/tuneinsight/pbs/ring"
	"github.com/tuneinsight/pbs/utils/bignum"
)

// NoiseStats summarizes the distribution of decryption errors, expressed as
// fractions of the torus.
type NoiseStats struct {
	Mean    float64
	Std     float64
	MaxAbs  float64
	Log2Std float64
}

func (s NoiseStats) String() string {
	return fmt.Sprintf("mean=%.3e std=%.3e (2^%.2f) max=%.3e", s.Mean, s.Std, s.Log2Std, s.MaxAbs)
}

// NoiseError returns the signed distance between the phase of ct and pt, as a fraction of the torus.
func (dec *Decryptor[T]) NoiseError(ct *Ciphertext[T], pt T) (e float64, err error) {
	var phase T
	if phase, err = dec.Phase(ct); err != nil {
		return
	}
	return ring.ToFloat64(phase - pt), nil
}

// NewNoiseStats computes the [NoiseStats] of a sample of errors.
func NewNoiseStats(errors []float64) (s NoiseStats, err error) {

	data := stats.Float64Data(errors)

	if s.Mean, err = data.Mean(); err != nil {
		return s, fmt.Errorf("lwe.NewNoiseStats: %w", err)
	}

	if s.Std, err = data.StandardDeviationSample(); err != nil {
		return s, fmt.Errorf("lwe.NewNoiseStats: %w", err)
	}

	var min, max float64
	if min, err = data.Min(); err != nil {
		return s, fmt.Errorf("lwe.NewNoiseStats: %w", err)
	}
	if max, err = data.Max(); err != nil {
		return s, fmt.Errorf("lwe.NewNoiseStats: %w", err)
	}
	s.MaxAbs = math.Max(-min, max)

	if s.Std > 0 {
		s.Log2Std, _ = bignum.Log2(bignum.NewFloat(s.Std, 64)).Float64()
	} else {
		s.Log2Std = math.Inf(-1)
	}

	return
}
