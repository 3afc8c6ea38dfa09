package ring

import (
	"math"
	"math/bits"
)

// Torus is the set of scalar types used to represent elements of the discretized torus Z/2^b.
type Torus interface {
	uint32 | uint64
}

// Bits returns the bit-width of T.
func Bits[T Torus]() int {
	return bits.OnesCount64(uint64(^T(0)))
}

// Signed returns the two's complement signed interpretation of x.
func Signed[T Torus](x T) int64 {
	shift := 64 - Bits[T]()
	return int64(uint64(x)<<shift) >> shift
}

// FromSigned returns the torus element congruent to x modulo 2^Bits[T].
func FromSigned[T Torus](x int64) T {
	return T(uint64(x))
}

// Scale returns 2^Bits[T] as a float64.
func Scale[T Torus]() float64 {
	return math.Ldexp(1, Bits[T]())
}

// ToFloat64 returns the signed representative of x scaled by 2^-Bits[T], in [-0.5, 0.5).
func ToFloat64[T Torus](x T) float64 {
	return math.Ldexp(float64(Signed(x)), -Bits[T]())
}

// FromFloat64 maps a real number to the closest torus element of x mod 1.
func FromFloat64[T Torus](x float64) T {
	scale := Scale[T]()
	frac := x - math.Floor(x)
	v := math.Round(frac * scale)
	if v >= scale {
		return 0
	}
	return T(uint64(v))
}

// Encode returns round(m * 2^Bits[T] / p) as a torus element, i.e. m/p placed on the torus.
func Encode[T Torus](m, p uint64) T {
	return FromFloat64[T](float64(m) / float64(p))
}

// Decode returns round(x * p / 2^Bits[T]) mod p.
func Decode[T Torus](x T, p uint64) uint64 {
	v := math.Round(math.Ldexp(float64(x), -Bits[T]()) * float64(p))
	return uint64(v) % p
}
