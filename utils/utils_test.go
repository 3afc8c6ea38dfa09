package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsPowerOfTwo(t *testing.T) {
	require.False(t, IsPowerOfTwo(0))
	require.True(t, IsPowerOfTwo(1))
	require.True(t, IsPowerOfTwo(uint64(1<<63)))
	require.False(t, IsPowerOfTwo(-4))
	require.False(t, IsPowerOfTwo(12))
}

func TestLog2(t *testing.T) {
	require.Equal(t, 0, Log2(1))
	require.Equal(t, 10, Log2(1024))
	require.Equal(t, 10, Log2(uint32(2047)))
}

func TestAlias1D(t *testing.T) {
	s := make([]int, 8)
	require.True(t, Alias1D(s, s[2:4]))
	require.True(t, Alias1D(s[:3:3], s[2:6]))
	require.True(t, Alias1D(s[4:], s[:5]))
	require.False(t, Alias1D(s[:4], s[4:]))
	require.False(t, Alias1D(s[:4:4], s[4:6]))
	require.False(t, Alias1D(s, make([]int, 8)))
	require.False(t, Alias1D(s[:0], s))
}
