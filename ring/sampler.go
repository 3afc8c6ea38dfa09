package ring

import (
	"encoding/binary"
	"math"

	"github.com/tuneinsight/pbs/utils/sampling"
)

// Sampler is an interface for random torus samplers.
// Read populates values according to the Sampler's distribution and
// ReadAndAdd adds a fresh sample to each of them.
type Sampler[T Torus] interface {
	Read(values []T)
	ReadAndAdd(values []T)
}

// bytesSource buffers the output of a [sampling.PRNG].
type bytesSource struct {
	prng sampling.PRNG
	buf  [1024]byte
	ptr  int
}

func newBytesSource(prng sampling.PRNG) *bytesSource {
	return &bytesSource{prng: prng, ptr: 1024}
}

func (s *bytesSource) uint64() uint64 {
	if s.ptr+8 > len(s.buf) {
		if _, err := s.prng.Read(s.buf[:]); err != nil {
			// Sanity check, this error should not happen.
			panic(err)
		}
		s.ptr = 0
	}
	v := binary.LittleEndian.Uint64(s.buf[s.ptr:])
	s.ptr += 8
	return v
}

// float64 returns a uniform value in (0, 1].
func (s *bytesSource) float64() float64 {
	return float64((s.uint64()>>11)+1) / (1 << 53)
}

// UniformSampler samples uniform torus elements.
type UniformSampler[T Torus] struct {
	src *bytesSource
}

// NewUniformSampler returns a new [UniformSampler] reading from prng.
func NewUniformSampler[T Torus](prng sampling.PRNG) *UniformSampler[T] {
	return &UniformSampler[T]{src: newBytesSource(prng)}
}

// Read populates values with uniform torus elements.
func (s *UniformSampler[T]) Read(values []T) {
	for i := range values {
		values[i] = T(s.src.uint64())
	}
}

// ReadAndAdd adds uniform torus elements to values.
func (s *UniformSampler[T]) ReadAndAdd(values []T) {
	for i := range values {
		values[i] += T(s.src.uint64())
	}
}

// BinarySampler samples uniform values in {0, 1}, e.g. for secret keys.
type BinarySampler[T Torus] struct {
	src  *bytesSource
	bits uint64
	left int
}

// NewBinarySampler returns a new [BinarySampler] reading from prng.
func NewBinarySampler[T Torus](prng sampling.PRNG) *BinarySampler[T] {
	return &BinarySampler[T]{src: newBytesSource(prng)}
}

func (s *BinarySampler[T]) bit() T {
	if s.left == 0 {
		s.bits = s.src.uint64()
		s.left = 64
	}
	b := T(s.bits & 1)
	s.bits >>= 1
	s.left--
	return b
}

// Read populates values with uniform bits.
func (s *BinarySampler[T]) Read(values []T) {
	for i := range values {
		values[i] = s.bit()
	}
}

// ReadAndAdd adds uniform bits to values.
func (s *BinarySampler[T]) ReadAndAdd(values []T) {
	for i := range values {
		values[i] += s.bit()
	}
}

// GaussianSampler samples rounded centered gaussian torus elements.
// The standard deviation is expressed as a fraction of the torus, i.e.
// a sample is round(2^b * x) with x ~ N(0, Std^2).
type GaussianSampler[T Torus] struct {
	src   *bytesSource
	Std   float64
	spare float64
	has   bool
}

// NewGaussianSampler returns a new [GaussianSampler] reading from prng.
func NewGaussianSampler[T Torus](prng sampling.PRNG, std float64) *GaussianSampler[T] {
	return &GaussianSampler[T]{src: newBytesSource(prng), Std: std}
}

// normFloat64 returns a standard normal value using the Box-Muller transform.
func (s *GaussianSampler[T]) normFloat64() float64 {
	if s.has {
		s.has = false
		return s.spare
	}
	r := math.Sqrt(-2 * math.Log(s.src.float64()))
	sin, cos := math.Sincos(2 * math.Pi * s.src.float64())
	s.spare, s.has = r*sin, true
	return r * cos
}

func (s *GaussianSampler[T]) sample() T {
	if s.Std == 0 {
		return 0
	}
	return FromSigned[T](int64(math.Round(math.Ldexp(s.normFloat64()*s.Std, Bits[T]()))))
}

// Read populates values with gaussian torus elements.
func (s *GaussianSampler[T]) Read(values []T) {
	for i := range values {
		values[i] = s.sample()
	}
}

// ReadAndAdd adds gaussian torus elements to values.
func (s *GaussianSampler[T]) ReadAndAdd(values []T) {
	for i := range values {
		values[i] += s.sample()
	}
}
