package bignum

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFloat(t *testing.T) {
	testFunc1("Cos", 1.4142135623730951, math.Cos, Cos, 1e-15, t)
	testFunc1("Log", 1.4142135623730951, math.Log, Log, 1e-15, t)
	testFunc1("Log2", 1.4142135623730951, math.Log2, Log2, 1e-15, t)

	t.Run("Pi", func(t *testing.T) {
		pi, _ := Pi(128).Float64()
		require.Equal(t, math.Pi, pi)
	})
}

func testFunc1(name string, x float64, f func(x float64) (y float64), g func(x *big.Float) (y *big.Float), delta float64, t *testing.T) {
	t.Run(name, func(t *testing.T) {
		y, _ := g(NewFloat(x, 53)).Float64()
		require.InDelta(t, f(x), y, delta)
	})
}
