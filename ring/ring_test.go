package ring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuneinsight/pbs/utils/sampling"
	"github.com/tuneinsight/pbs/utils/scratch"
)

func testString[T Torus](opname string, N int) string {
	return fmt.Sprintf("%s/Torus=%d/N=%d", opname, Bits[T](), N)
}

// distance returns |a - b| on the torus.
func distance[T Torus](a, b T) uint64 {
	d := a - b
	if Signed(d) < 0 {
		d = -d
	}
	return uint64(d)
}

func newTestPRNG(t *testing.T) sampling.PRNG {
	prng, err := sampling.NewKeyedPRNG([]byte{'r', 'i', 'n', 'g'})
	require.NoError(t, err)
	return prng
}

func TestRing(t *testing.T) {
	for _, testSet := range []func(t *testing.T){
		testTorus[uint32],
		testTorus[uint64],
		testMonomial[uint32],
		testMonomial[uint64],
		testFFTRoundTrip[uint32],
		testFFTRoundTrip[uint64],
		testFFTProduct[uint32],
		testFFTProduct[uint64],
	} {
		testSet(t)
	}
}

func testTorus[T Torus](t *testing.T) {
	t.Run(testString[T]("Torus", 0), func(t *testing.T) {
		require.Equal(t, int64(-1), Signed(^T(0)))
		require.Equal(t, ^T(0), FromSigned[T](-1))
		require.Equal(t, T(1)<<(Bits[T]()-1), FromFloat64[T](0.5))
		require.Equal(t, T(1)<<(Bits[T]()-2), FromFloat64[T](-0.75))
		require.Equal(t, -0.25, ToFloat64(T(3)<<(Bits[T]()-2)))

		for m := uint64(0); m < 16; m++ {
			require.Equal(t, m, Decode(Encode[T](m, 16), 16))
			require.Equal(t, m, Decode(Encode[T](m, 16)+T(1)<<(Bits[T]()-6), 16))
			require.Equal(t, m, Decode(Encode[T](m, 16)-T(1)<<(Bits[T]()-6), 16))
		}
	})
}

func testMonomial[T Torus](t *testing.T) {

	N := 16

	sampler := NewUniformSampler[T](newTestPRNG(t))

	p := NewPoly[T](N)
	sampler.Read(p.Coeffs)

	monomial := NewPoly[T](N)
	want := NewPoly[T](N)
	have := NewPoly[T](N)

	t.Run(testString[T]("MulByMonomial", N), func(t *testing.T) {
		for d := 0; d < 2*N; d++ {
			monomial.Zero()
			if d < N {
				monomial.Coeffs[d] = 1
			} else {
				monomial.Coeffs[d-N] = ^T(0)
			}

			MulNaive(p, monomial, want)
			MulByMonomial(p, d, have)
			require.True(t, want.Equal(have), d)

			inplace := p.CopyNew()
			MulByMonomialInPlace(inplace, d)
			require.True(t, want.Equal(inplace), d)
		}
	})

	t.Run(testString[T]("DivByMonomial", N), func(t *testing.T) {
		for d := 0; d < 2*N; d++ {
			MulByMonomial(p, d, have)
			DivByMonomial(have, d, want)
			require.True(t, p.Equal(want), d)

			DivByMonomialInPlace(have, d)
			require.True(t, p.Equal(have), d)
		}
	})

	t.Run(testString[T]("MulByMonomial/2N", N), func(t *testing.T) {
		MulByMonomial(p, 2*N, have)
		require.True(t, p.Equal(have))
	})
}

func testFFTRoundTrip[T Torus](t *testing.T) {

	sampler := NewUniformSampler[T](newTestPRNG(t))

	for logN := 2; logN <= 10; logN++ {

		N := 1 << logN

		t.Run(testString[T]("FFT/RoundTrip", N), func(t *testing.T) {

			fft, err := NewFFT[T](N)
			require.NoError(t, err)

			req, err := fft.ForwardScratch()
			require.NoError(t, err)
			backward, err := fft.BackwardScratch()
			require.NoError(t, err)
			req, err = req.And(backward)
			require.NoError(t, err)

			stack := scratch.NewStack(req)

			poly := NewPoly[T](N)
			roundtrip := NewPoly[T](N)
			fourier := NewFourierPoly(N)

			sampler.Read(poly.Coeffs)

			fft.ForwardAsTorus(fourier, poly, stack)
			fft.BackwardAsTorus(roundtrip, fourier, stack)

			bound := uint64(1) << (Bits[T]() - 10)
			for i := range poly.Coeffs {
				require.Less(t, distance(poly.Coeffs[i], roundtrip.Coeffs[i]), bound)
			}

			require.Equal(t, 0, stack.Mark())
		})
	}
}

func testFFTProduct[T Torus](t *testing.T) {

	sampler := NewUniformSampler[T](newTestPRNG(t))

	shift := Bits[T]() >> 1

	for logN := 1; logN <= 10; logN++ {

		N := 1 << logN

		t.Run(testString[T]("FFT/Product", N), func(t *testing.T) {

			fft, err := NewFFT[T](N)
			require.NoError(t, err)

			req, err := fft.BackwardScratch()
			require.NoError(t, err)

			stack := scratch.NewStack(req)

			poly0 := NewPoly[T](N)
			poly1 := NewPoly[T](N)
			fromFFT := NewPoly[T](N)
			fromNaive := NewPoly[T](N)
			fourier0 := NewFourierPoly(N)
			fourier1 := NewFourierPoly(N)

			bound := uint64(1) << (Bits[T]() - 5)

			for k := 0; k < 100; k++ {

				sampler.Read(poly0.Coeffs)
				sampler.Read(poly1.Coeffs)

				for i := range poly0.Coeffs {
					poly0.Coeffs[i] >>= shift
					poly1.Coeffs[i] >>= shift
				}

				fft.ForwardAsTorus(fourier0, poly0, stack)
				fft.ForwardAsInteger(fourier1, poly1, stack)
				Mul(fourier0, fourier1, fourier0)
				fft.BackwardAsTorus(fromFFT, fourier0, stack)

				MulNaive(poly0, poly1, fromNaive)

				for i := range fromNaive.Coeffs {
					require.Less(t, distance(fromNaive.Coeffs[i], fromFFT.Coeffs[i]), bound)
				}
			}
		})
	}

	t.Run(testString[T]("FFT/AddBackward", 64), func(t *testing.T) {

		N := 64

		fft, err := NewFFT[T](N)
		require.NoError(t, err)

		req, err := fft.BackwardScratch()
		require.NoError(t, err)

		stack := scratch.NewStack(req)

		poly := NewPoly[T](N)
		acc := NewPoly[T](N)
		fourier := NewFourierPoly(N)

		sampler.Read(poly.Coeffs)
		sampler.Read(acc.Coeffs)

		want := NewPoly[T](N)
		Add(acc, poly, want)

		fft.ForwardAsTorus(fourier, poly, stack)
		fft.AddBackwardAsTorus(acc, fourier, stack)

		bound := uint64(1) << (Bits[T]() - 10)
		for i := range want.Coeffs {
			require.Less(t, distance(want.Coeffs[i], acc.Coeffs[i]), bound)
		}
	})
}

func TestNewFFT(t *testing.T) {
	_, err := NewFFT[uint64](0)
	require.Error(t, err)
	_, err = NewFFT[uint64](1)
	require.Error(t, err)
	_, err = NewFFT[uint64](24)
	require.Error(t, err)

	fft0, err := NewFFT[uint64](64)
	require.NoError(t, err)
	fft1, err := NewFFT[uint32](64)
	require.NoError(t, err)
	require.True(t, fft0.plan == fft1.plan)
	require.Equal(t, 64, fft0.PolynomialSize())
}

func TestSampler(t *testing.T) {

	prng := newTestPRNG(t)

	t.Run("Binary", func(t *testing.T) {
		values := make([]uint64, 1024)
		NewBinarySampler[uint64](prng).Read(values)
		var ones int
		for _, v := range values {
			require.LessOrEqual(t, v, uint64(1))
			ones += int(v)
		}
		require.Greater(t, ones, 384)
		require.Less(t, ones, 640)
	})

	t.Run("Gaussian", func(t *testing.T) {
		values := make([]uint32, 4096)
		NewGaussianSampler[uint32](prng, 1.0/(1<<20)).Read(values)
		for _, v := range values {
			require.Less(t, distance(v, 0), uint64(1)<<(32-20+4))
		}
	})

	t.Run("Gaussian/Zero", func(t *testing.T) {
		values := []uint64{1, 2, 3}
		NewGaussianSampler[uint64](prng, 0).ReadAndAdd(values)
		require.Equal(t, []uint64{1, 2, 3}, values)
	})
}

func TestDecomposer(t *testing.T) {
	testDecomposer[uint32](t, DecompositionParameters{BaseLog: 4, Level: 3})
	testDecomposer[uint32](t, DecompositionParameters{BaseLog: 8, Level: 4})
	testDecomposer[uint64](t, DecompositionParameters{BaseLog: 7, Level: 3})
	testDecomposer[uint64](t, DecompositionParameters{BaseLog: 1, Level: 10})
	testDecomposer[uint64](t, DecompositionParameters{BaseLog: 16, Level: 4})
}

func testDecomposer[T Torus](t *testing.T, params DecompositionParameters) {

	t.Run(fmt.Sprintf("Decomposer/Torus=%d/BaseLog=%d/Level=%d", Bits[T](), params.BaseLog, params.Level), func(t *testing.T) {

		require.NoError(t, Validate[T](params))

		decomposer := NewDecomposer[T](params)

		sampler := NewUniformSampler[T](newTestPRNG(t))

		values := make([]T, 1024)
		sampler.Read(values)
		values = append(values, 0, ^T(0), T(1)<<(Bits[T]()-1))

		digits := make([]T, params.Level)

		halfBase := int64(1) << (params.BaseLog - 1)
		halfStep := uint64(1) << (Bits[T]() - params.BaseLog*params.Level) >> 1

		for _, x := range values {
			decomposer.Decompose(x, digits)

			for _, d := range digits {
				require.LessOrEqual(t, Signed(d), halfBase)
				require.GreaterOrEqual(t, Signed(d), -halfBase)
			}

			closest := decomposer.ClosestRepresentable(x)
			require.Equal(t, closest, decomposer.Recompose(digits))
			require.LessOrEqual(t, distance(x, closest), halfStep)
		}

		N := 16
		p := NewPoly[T](N)
		copy(p.Coeffs, values)

		out := make([]Poly[T], params.Level)
		for i := range out {
			out[i] = NewPoly[T](N)
		}

		decomposer.DecomposePoly(p, out)

		for i, x := range p.Coeffs {
			decomposer.Decompose(x, digits)
			for j := range digits {
				require.Equal(t, digits[j], out[j].Coeffs[i])
			}
		}
	})
}

func TestDecompositionParametersValidate(t *testing.T) {
	require.Error(t, Validate[uint64](DecompositionParameters{BaseLog: 0, Level: 3}))
	require.Error(t, Validate[uint64](DecompositionParameters{BaseLog: 7, Level: 0}))
	require.Error(t, Validate[uint32](DecompositionParameters{BaseLog: 11, Level: 3}))
	require.NoError(t, Validate[uint64](DecompositionParameters{BaseLog: 11, Level: 3}))
}
