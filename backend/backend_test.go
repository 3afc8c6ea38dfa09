package backend

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuneinsight/pbs/core/bootstrap"
	"github.com/tuneinsight/pbs/core/glwe"
	"github.com/tuneinsight/pbs/core/lwe"
	"github.com/tuneinsight/pbs/ring"
	"github.com/tuneinsight/pbs/utils/sampling"
)

var testParameters = bootstrap.ParametersLiteral{
	TorusBits:     32,
	LWEDimension:  64,
	GLWEDimension: 1,
	LogN:          8,
	BaseLog:       6,
	Level:         3,
	LWEStd:        math.Exp2(-18),
	GLWEStd:       math.Exp2(-25),
}

func testString(opname, backend string) string {
	return fmt.Sprintf("%s/Backend=%s", opname, backend)
}

func TestRegistry(t *testing.T) {

	require.Contains(t, Names(), CPU)
	require.Contains(t, Names(), Multithread)

	params, err := bootstrap.NewParametersFromLiteral(testParameters)
	require.NoError(t, err)

	_, err = New[uint32]("unknown", params, Options{})
	require.Error(t, err)

	// The parameters are for a 32-bit torus.
	_, err = New[uint64](CPU, params, Options{})
	require.Error(t, err)

	require.Error(t, Register[uint32](CPU, NewCPU[uint32]))

	name := fmt.Sprintf("test-registry-%p", t)
	require.NoError(t, Register[uint32](name, NewCPU[uint32]))
	b, err := New[uint32](name, params, Options{})
	require.NoError(t, err)
	require.Equal(t, CPU, b.Name())
}

func TestBackends(t *testing.T) {

	params, err := bootstrap.NewParametersFromLiteral(testParameters)
	require.NoError(t, err)

	kgen, err := bootstrap.NewKeyGenerator[uint32](params, []byte("backend test seed"))
	require.NoError(t, err)

	skLWE := kgen.GenLWESecretKeyNew()
	skGLWE := kgen.GenGLWESecretKeyNew()

	bsk, err := kgen.GenBootstrapKeyNew(context.Background(), skLWE, skGLWE, 2)
	require.NoError(t, err)

	prng, err := sampling.NewKeyedPRNG([]byte("backend test encryptions"))
	require.NoError(t, err)

	enc := lwe.NewEncryptor(skLWE, params.LWEStd(), prng)
	dec := lwe.NewDecryptor(skGLWE.AsLWEKey())

	p := uint64(4)

	tv, err := bootstrap.NewTestVector[uint32](params.GLWEDimension(), params.N(), p, func(m uint64) uint64 { return (m + 1) % p })
	require.NoError(t, err)

	var reference *bootstrap.FourierBootstrapKey

	for _, name := range []string{CPU, Multithread} {

		b, err := New[uint32](name, params, Options{Workers: 3})
		require.NoError(t, err)
		require.Equal(t, name, b.Name())
		require.True(t, params.Equal(ptr(b.Parameters())))

		key, err := b.ConvertKey(context.Background(), bsk)
		require.NoError(t, err)

		// Both backends compute the same transforms.
		if reference == nil {
			reference = key
		} else {
			require.Equal(t, reference.Buff, key.Buff)
		}

		t.Run(testString("Bootstrap", name), func(t *testing.T) {
			for m := uint64(0); m < p; m++ {
				out := lwe.NewCiphertext[uint32](params.OutputDimension())
				require.NoError(t, b.Bootstrap(out, enc.EncryptNew(ring.Encode[uint32](m, 2*p)), tv, key))
				have, err := dec.Decrypt(out, 2*p)
				require.NoError(t, err)
				require.Equal(t, (m+1)%p, have)
			}
		})

		if name == Multithread {
			t.Run(testString("Bootstrap/Concurrent", name), func(t *testing.T) {
				ins := make([]*lwe.Ciphertext[uint32], 8)
				outs := make([]*lwe.Ciphertext[uint32], len(ins))
				for i := range ins {
					ins[i] = enc.EncryptNew(ring.Encode[uint32](uint64(i)%p, 2*p))
					outs[i] = lwe.NewCiphertext[uint32](params.OutputDimension())
				}

				var wg sync.WaitGroup
				errs := make([]error, len(ins))
				for i := range ins {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						errs[i] = b.Bootstrap(outs[i], ins[i], tv, key)
					}(i)
				}
				wg.Wait()

				for i, out := range outs {
					require.NoError(t, errs[i])
					have, err := dec.Decrypt(out, 2*p)
					require.NoError(t, err)
					require.Equal(t, (uint64(i)+1)%p, have)
				}
			})
		}

		t.Run(testString("BlindRotate", name), func(t *testing.T) {
			in := lwe.NewCiphertext[uint32](params.LWEDimension())
			acc := tv.CopyNew()
			require.NoError(t, b.BlindRotate(acc, in, key))
			require.True(t, acc.Equal(tv))

			require.Error(t, b.BlindRotate(glwe.NewCiphertext[uint32](params.GLWEDimension()+1, params.N()), in, key))
		})

		t.Run(testString("BootstrapBatch", name), func(t *testing.T) {
			ins := make([]*lwe.Ciphertext[uint32], 10)
			outs := make([]*lwe.Ciphertext[uint32], len(ins))
			for i := range ins {
				ins[i] = enc.EncryptNew(ring.Encode[uint32](uint64(i)%p, 2*p))
				outs[i] = lwe.NewCiphertext[uint32](params.OutputDimension())
			}

			require.NoError(t, b.BootstrapBatch(context.Background(), outs, ins, tv, key))

			for i, out := range outs {
				have, err := dec.Decrypt(out, 2*p)
				require.NoError(t, err)
				require.Equal(t, (uint64(i)+1)%p, have)
			}

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			require.ErrorIs(t, b.BootstrapBatch(ctx, outs, ins, tv, key), context.Canceled)

			require.Error(t, b.BootstrapBatch(context.Background(), outs[:1], ins, tv, key))
		})
	}
}

func ptr[V any](v V) *V {
	return &v
}
