package ring

import (
	"math/big"

	"github.com/tuneinsight/pbs/utils/bignum"
)

// rootsPrecision is the precision, in bits, at which the roots of unity are
// evaluated before being rounded to complex128.
const rootsPrecision = 128

// getTwisties returns e^{i*pi*j/N} for 0 <= j < N/2, i.e. the first quadrant of
// the 2N-th roots of unity, evaluated with rootsPrecision bits of precision.
func getTwisties(N int) (twisties []complex128) {

	half := N >> 1

	// cos(pi*j/N) for 0 <= j <= N/2
	cos := make([]float64, half+1)

	Pi := bignum.Pi(rootsPrecision)

	unit := new(big.Float).SetPrec(rootsPrecision).Quo(Pi, bignum.NewFloat(float64(N), rootsPrecision))

	angle := new(big.Float).SetPrec(rootsPrecision)

	cos[0] = 1
	for j := 1; j < half; j++ {
		angle.Mul(unit, bignum.NewFloat(float64(j), rootsPrecision))
		cos[j], _ = bignum.Cos(angle).Float64()
	}
	cos[half] = 0

	twisties = make([]complex128, half)
	for j := range twisties {
		// sin(pi*j/N) = cos(pi*(N/2-j)/N)
		twisties[j] = complex(cos[j], cos[half-j])
	}

	return
}

// getRoots returns e^{-2*pi*i*k/n} for 0 <= k < n/2 with n = N/2, derived from the twisties.
func getRoots(N int, twisties []complex128) (roots []complex128) {

	n := N >> 1

	roots = make([]complex128, n>>1)

	for k := range roots {
		// e^{-2*pi*i*k/n} = e^{-i*pi*4k/N}
		if j := k << 2; j < n {
			roots[k] = conj(twisties[j])
		} else {
			// e^{-i*pi*j/N} = -i * e^{-i*pi*(j-N/2)/N}
			roots[k] = -1i * conj(twisties[j-n])
		}
	}

	return
}

func conj(x complex128) complex128 {
	return complex(real(x), -imag(x))
}
