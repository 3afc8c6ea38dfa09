package sampling_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuneinsight/pbs/utils/sampling"
)

func Test_PRNG(t *testing.T) {

	key := []byte{0x49, 0x0a, 0x42, 0x3d, 0x97, 0x9d, 0xc1, 0x07, 0xa1, 0xd7, 0xe9, 0x7b, 0x3b, 0xce, 0xa1, 0xdb,
		0x42, 0xf3, 0xa6, 0xd5, 0x75, 0xd2, 0x0c, 0x92, 0xb7, 0x35, 0xce, 0x0c, 0xee, 0x09, 0x7c, 0x98}

	t.Run("PRNG", func(t *testing.T) {

		Ha, err := sampling.NewKeyedPRNG(key)
		require.NoError(t, err)
		Hb, err := sampling.NewKeyedPRNG(key)
		require.NoError(t, err)

		sum0 := make([]byte, 512)
		sum1 := make([]byte, 512)

		for i := 0; i < 128; i++ {
			_, err = Hb.Read(sum1)
			require.NoError(t, err)
		}

		Hb.Reset()

		_, err = Ha.Read(sum0)
		require.NoError(t, err)
		_, err = Hb.Read(sum1)
		require.NoError(t, err)

		require.Equal(t, sum0, sum1)
		require.Equal(t, key, Ha.Key())
	})

	t.Run("DeriveKey", func(t *testing.T) {
		k0 := sampling.DeriveKey(key, "test", 0)
		k1 := sampling.DeriveKey(key, "test", 1)

		require.Len(t, k0, sampling.KeySize)
		require.Equal(t, k0, sampling.DeriveKey(key, "test", 0))
		require.NotEqual(t, k0, k1)
		require.NotEqual(t, k0, sampling.DeriveKey(key, "other", 0))

		_, err := sampling.NewKeyedPRNG(k0)
		require.NoError(t, err)
	})
}
