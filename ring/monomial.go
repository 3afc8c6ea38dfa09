package ring

import "slices"

// MulByMonomial evaluates out = p * X^d mod (X^N+1) for d in [0, 2N).
// p and out must not alias.
func MulByMonomial[T Torus](p Poly[T], d int, out Poly[T]) {
	in, res := p.Coeffs, out.Coeffs
	N := len(in)

	d &= (N << 1) - 1

	if d < N {
		for j := 0; j < d; j++ {
			res[j] = -in[j-d+N]
		}
		copy(res[d:], in[:N-d])
		return
	}

	d -= N
	for j := 0; j < d; j++ {
		res[j] = in[j-d+N]
	}
	for j := d; j < N; j++ {
		res[j] = -in[j-d]
	}
}

// DivByMonomial evaluates out = p * X^-d mod (X^N+1) for d in [0, 2N).
// p and out must not alias.
func DivByMonomial[T Torus](p Poly[T], d int, out Poly[T]) {
	N := p.N()
	MulByMonomial(p, ((N<<1)-(d&((N<<1)-1)))&((N<<1)-1), out)
}

// MulByMonomialInPlace evaluates p = p * X^d mod (X^N+1) for d in [0, 2N)
// without buffer, by cyclic rotation followed by a negation of the wrapped coefficients.
func MulByMonomialInPlace[T Torus](p Poly[T], d int) {
	c := p.Coeffs
	N := len(c)

	d &= (N << 1) - 1

	if d >= N {
		for i := range c {
			c[i] = -c[i]
		}
		d -= N
	}

	if d == 0 {
		return
	}

	slices.Reverse(c[:N-d])
	slices.Reverse(c[N-d:])
	slices.Reverse(c)

	for j := 0; j < d; j++ {
		c[j] = -c[j]
	}
}

// DivByMonomialInPlace evaluates p = p * X^-d mod (X^N+1) for d in [0, 2N).
func DivByMonomialInPlace[T Torus](p Poly[T], d int) {
	N := p.N()
	MulByMonomialInPlace(p, ((N<<1)-(d&((N<<1)-1)))&((N<<1)-1))
}

// MulNaive evaluates out = p0 * p1 mod (X^N+1) with the schoolbook algorithm
// and wrapping arithmetic. out must not alias p0 or p1.
func MulNaive[T Torus](p0, p1, out Poly[T]) {
	a, b, c := p0.Coeffs, p1.Coeffs, out.Coeffs
	N := len(c)

	clear(c)

	for i := 0; i < N; i++ {
		ai := a[i]
		for j := 0; j < N-i; j++ {
			c[i+j] += ai * b[j]
		}
		for j := N - i; j < N; j++ {
			c[i+j-N] -= ai * b[j]
		}
	}
}
