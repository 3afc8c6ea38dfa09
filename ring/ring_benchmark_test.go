package ring

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuneinsight/pbs/utils/scratch"
	"github.com/tuneinsight/pbs/utils/sampling"
)

func BenchmarkFFT(b *testing.B) {
	for _, N := range []int{512, 1024, 2048} {
		benchFFT[uint32](b, N)
		benchFFT[uint64](b, N)
	}
}

func benchFFT[T Torus](b *testing.B, N int) {

	fft, err := NewFFT[T](N)
	require.NoError(b, err)

	prng, err := sampling.NewKeyedPRNG([]byte("fft benchmark"))
	require.NoError(b, err)

	p := NewPoly[T](N)
	NewUniformSampler[T](prng).Read(p.Coeffs)

	fp := NewFourierPoly(N)

	req, err := fft.BackwardScratch()
	require.NoError(b, err)
	stack := scratch.NewStack(req)

	b.Run(testString[T]("Forward", N), func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			fft.ForwardAsTorus(fp, p, stack)
		}
	})

	b.Run(testString[T]("Backward", N), func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			fft.BackwardAsTorus(p, fp, stack)
		}
	})

	b.Run(testString[T]("Decompose", N), func(b *testing.B) {
		d := NewDecomposer[T](DecompositionParameters{BaseLog: 7, Level: 3})
		digits := []Poly[T]{NewPoly[T](N), NewPoly[T](N), NewPoly[T](N)}
		for i := 0; i < b.N; i++ {
			d.DecomposePoly(p, digits)
		}
	})
}
