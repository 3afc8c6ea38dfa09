package ring

import (
	"github.com/tuneinsight/pbs/core/errs"
)

// DecompositionParameters are the parameters of a signed gadget decomposition
// in base 2^BaseLog over Level levels.
type DecompositionParameters struct {
	BaseLog int
	Level   int
}

// Validate returns a [*errs.DegenerateError] if the decomposition is not defined
// for the torus T, i.e. if BaseLog or Level is not positive or if BaseLog*Level
// exceeds the bit-width of T.
func Validate[T Torus](p DecompositionParameters) error {
	if p.BaseLog <= 0 {
		return &errs.DegenerateError{Param: "BaseLog", Value: p.BaseLog, Reason: "decomposition base log must be positive"}
	}
	if p.Level <= 0 {
		return &errs.DegenerateError{Param: "Level", Value: p.Level, Reason: "decomposition level count must be positive"}
	}
	if p.BaseLog*p.Level > Bits[T]() {
		return &errs.DegenerateError{Param: "BaseLog*Level", Value: p.BaseLog * p.Level, Reason: "decomposition precision exceeds the torus bit-width"}
	}
	return nil
}

// Decomposer is a signed gadget decomposer.
//
// A value is first rounded to its closest representable value on the top
// BaseLog*Level bits, then written as sum_{j=1}^{Level} d_j * 2^(b - j*BaseLog)
// with balanced digits d_j in [-B/2, B/2], B = 2^BaseLog. Digits are returned as
// torus elements, i.e. a negative digit d is stored as 2^b + d.
type Decomposer[T Torus] struct {
	DecompositionParameters
	nonRepBits int
	mask       T
}

// NewDecomposer returns a new [Decomposer]. The caller must have validated the parameters.
func NewDecomposer[T Torus](params DecompositionParameters) *Decomposer[T] {
	return &Decomposer[T]{
		DecompositionParameters: params,
		nonRepBits:              Bits[T]() - params.BaseLog*params.Level,
		mask:                    T(1)<<params.BaseLog - 1,
	}
}

// ClosestRepresentable rounds x to the nearest multiple of 2^(b - BaseLog*Level).
func (d *Decomposer[T]) ClosestRepresentable(x T) T {
	if d.nonRepBits == 0 {
		return x
	}
	msb := (x >> (d.nonRepBits - 1)) & 1
	return ((x >> d.nonRepBits) + msb) << d.nonRepBits
}

// Decompose writes the Level digits of x on digits, digits[j-1] being the
// digit of level j, the level of weight 2^(b - j*BaseLog).
func (d *Decomposer[T]) Decompose(x T, digits []T) {
	baseLog := d.BaseLog
	state := d.ClosestRepresentable(x) >> d.nonRepBits
	for j := d.Level - 1; j >= 0; j-- {
		res := state & d.mask
		state >>= baseLog
		carry := (((res - 1) | state) & res) >> (baseLog - 1)
		state += carry
		digits[j] = res - carry<<baseLog
	}
}

// DecomposePoly decomposes each coefficient of p and writes the digit
// polynomial of level j on out[j-1].
func (d *Decomposer[T]) DecomposePoly(p Poly[T], out []Poly[T]) {
	baseLog := d.BaseLog
	for i, x := range p.Coeffs {
		state := d.ClosestRepresentable(x) >> d.nonRepBits
		for j := d.Level - 1; j >= 0; j-- {
			res := state & d.mask
			state >>= baseLog
			carry := (((res - 1) | state) & res) >> (baseLog - 1)
			state += carry
			out[j].Coeffs[i] = res - carry<<baseLog
		}
	}
}

// Recompose returns sum_{j=1}^{Level} digits[j-1] * 2^(b - j*BaseLog).
func (d *Decomposer[T]) Recompose(digits []T) (x T) {
	b := Bits[T]()
	for j, digit := range digits[:d.Level] {
		x += digit << (b - (j+1)*d.BaseLog)
	}
	return
}
