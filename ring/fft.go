package ring

import (
	"fmt"
	"math/bits"
	"sync"

	"github.com/tuneinsight/pbs/utils"
	"github.com/tuneinsight/pbs/utils/scratch"
)

// FourierPoly is the image of a [Poly] of size N by the negacyclic FFT.
// It stores N/2 complex coefficients: the spectrum of a real polynomial
// being conjugate-symmetric, the other half is implicit.
type FourierPoly struct {
	Coeffs []complex128
}

// NewFourierPoly allocates a new [FourierPoly] for polynomials of size N.
func NewFourierPoly(N int) FourierPoly {
	return FourierPoly{Coeffs: make([]complex128, N>>1)}
}

// FourierPolyView returns a [FourierPoly] borrowing buf.
func FourierPolyView(buf []complex128) FourierPoly {
	return FourierPoly{Coeffs: buf}
}

// Zero sets all coefficients to zero.
func (p FourierPoly) Zero() {
	clear(p.Coeffs)
}

// Copy copies the coefficients of other on the receiver.
func (p FourierPoly) Copy(other FourierPoly) {
	copy(p.Coeffs, other.Coeffs)
}

// MulAdd evaluates acc = acc + p0 * p1 coefficient-wise.
func MulAdd(p0, p1, acc FourierPoly) {
	a, b, c := p0.Coeffs, p1.Coeffs, acc.Coeffs
	for i := range c {
		c[i] += a[i] * b[i]
	}
}

// Mul evaluates out = p0 * p1 coefficient-wise.
func Mul(p0, p1, out FourierPoly) {
	a, b, c := p0.Coeffs, p1.Coeffs, out.Coeffs
	for i := range c {
		c[i] = a[i] * b[i]
	}
}

// plan stores the precomputed tables of the negacyclic FFT of polynomials of size N.
// A plan is read-only once created and is shared by all the [FFT] of the same size.
type plan struct {
	N        int
	n        int
	logn     int
	twisties []complex128
	roots    []complex128
}

var plans = struct {
	sync.RWMutex
	m map[int]*plan
}{m: map[int]*plan{}}

// getPlan returns the cached plan of size N, creating it if needed.
func getPlan(N int) *plan {

	plans.RLock()
	p, ok := plans.m[N]
	plans.RUnlock()

	if ok {
		return p
	}

	plans.Lock()
	defer plans.Unlock()

	if p, ok = plans.m[N]; ok {
		return p
	}

	twisties := getTwisties(N)

	p = &plan{
		N:        N,
		n:        N >> 1,
		logn:     bits.Len(uint(N>>1)) - 1,
		twisties: twisties,
		roots:    getRoots(N, twisties),
	}

	plans.m[N] = p

	return p
}

// FFT is the negacyclic Fourier transform of polynomials of Z/2^b[X]/(X^N+1).
//
// A polynomial p is folded into the N/2 complex values p[j] + i*p[j+N/2],
// twisted by the 2N-th roots of unity e^{i*pi*j/N} and transformed with a
// complex FFT of size N/2. The k-th output is p evaluated at e^{i*pi*(1-4k)/N},
// hence the coefficient-wise product of two transforms is the transform of the
// negacyclic product.
//
// An FFT is safe for concurrent use: it holds no mutable state and all
// temporary memory is taken from the caller's [scratch.Stack].
type FFT[T Torus] struct {
	*plan
}

// NewFFT returns the [FFT] of polynomials of size N, which must be a power of two
// greater or equal to 2. Tables are computed once per N and cached.
func NewFFT[T Torus](N int) (*FFT[T], error) {
	if N < 2 || !utils.IsPowerOfTwo(N) {
		return nil, fmt.Errorf("ring.NewFFT: invalid polynomial size: %d is not a power of two greater or equal to 2", N)
	}
	return &FFT[T]{plan: getPlan(N)}, nil
}

// PolynomialSize returns N.
func (fft FFT[T]) PolynomialSize() int {
	return fft.N
}

// ForwardScratch returns the scratch requirement of [FFT.ForwardAsTorus] and [FFT.ForwardAsInteger].
func (fft FFT[T]) ForwardScratch() (scratch.Req, error) {
	return scratch.Empty, nil
}

// BackwardScratch returns the scratch requirement of [FFT.BackwardAsTorus] and [FFT.AddBackwardAsTorus].
func (fft FFT[T]) BackwardScratch() (scratch.Req, error) {
	return scratch.New[complex128](fft.n, scratch.CacheLine)
}

// ForwardAsTorus evaluates out = FFT(in), reading the coefficients of in as
// signed torus elements normalized by 2^-b. The forward transform runs in place
// in out and takes nothing from stack.
func (fft FFT[T]) ForwardAsTorus(out FourierPoly, in Poly[T], stack *scratch.Stack) {
	n := fft.n
	re, im := in.Coeffs[:n], in.Coeffs[n:]
	values := out.Coeffs[:n]
	for j, tw := range fft.twisties {
		values[j] = complex(ToFloat64(re[j]), ToFloat64(im[j])) * tw
	}
	fft.forward(values)
}

// ForwardAsInteger evaluates out = FFT(in), reading the coefficients of in as
// signed integers. It is used for small values such as decomposition digits.
// The forward transform runs in place in out and takes nothing from stack.
func (fft FFT[T]) ForwardAsInteger(out FourierPoly, in Poly[T], stack *scratch.Stack) {
	n := fft.n
	re, im := in.Coeffs[:n], in.Coeffs[n:]
	values := out.Coeffs[:n]
	for j, tw := range fft.twisties {
		values[j] = complex(float64(Signed(re[j])), float64(Signed(im[j]))) * tw
	}
	fft.forward(values)
}

// BackwardAsTorus evaluates out = FFT^-1(in) rounded to the torus. in is left untouched.
func (fft FFT[T]) BackwardAsTorus(out Poly[T], in FourierPoly, stack *scratch.Stack) {
	defer stack.Release(stack.Mark())

	values := fft.backward(in, stack)

	n := fft.n
	re, im := out.Coeffs[:n], out.Coeffs[n:]
	for j, v := range values {
		re[j] = FromFloat64[T](real(v))
		im[j] = FromFloat64[T](imag(v))
	}
}

// AddBackwardAsTorus evaluates out = out + FFT^-1(in) rounded to the torus. in is left untouched.
func (fft FFT[T]) AddBackwardAsTorus(out Poly[T], in FourierPoly, stack *scratch.Stack) {
	defer stack.Release(stack.Mark())

	values := fft.backward(in, stack)

	n := fft.n
	re, im := out.Coeffs[:n], out.Coeffs[n:]
	for j, v := range values {
		re[j] += FromFloat64[T](real(v))
		im[j] += FromFloat64[T](imag(v))
	}
}

// backward copies in on a buffer taken from stack, applies the inverse transform
// and removes the twist. The returned buffer is valid until stack is released.
func (fft FFT[T]) backward(in FourierPoly, stack *scratch.Stack) (values []complex128) {
	values = scratch.Take[complex128](stack, fft.n, scratch.CacheLine)
	copy(values, in.Coeffs)

	fft.inverse(values)

	scale := complex(1/float64(fft.n), 0)
	for j, tw := range fft.twisties {
		values[j] *= conj(tw) * scale
	}
	return
}

// forward is the in-place iterative radix-2 FFT with e^{-2*pi*i/n}, natural order in and out.
func (p *plan) forward(values []complex128) {
	n := p.n
	utils.BitReverseInPlaceSlice(values, n)
	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		step := n / size
		for start := 0; start < n; start += size {
			for j, k := 0, 0; j < half; j, k = j+1, k+step {
				u := values[start+j]
				v := values[start+j+half] * p.roots[k]
				values[start+j], values[start+j+half] = u+v, u-v
			}
		}
	}
}

// inverse is the in-place iterative radix-2 FFT with e^{2*pi*i/n}, without the 1/n normalization.
func (p *plan) inverse(values []complex128) {
	n := p.n
	utils.BitReverseInPlaceSlice(values, n)
	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		step := n / size
		for start := 0; start < n; start += size {
			for j, k := 0, 0; j < half; j, k = j+1, k+step {
				u := values[start+j]
				v := values[start+j+half] * conj(p.roots[k])
				values[start+j], values[start+j+half] = u+v, u-v
			}
		}
	}
}
