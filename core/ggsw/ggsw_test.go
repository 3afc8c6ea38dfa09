package ggsw

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuneinsight/pbs/core/errs"
	"github.com/tuneinsight/pbs/core/glwe"
	"github.com/tuneinsight/pbs/ring"
	"github.com/tuneinsight/pbs/utils/sampling"
	"github.com/tuneinsight/pbs/utils/scratch"
)

func testString[T ring.Torus](opname string, k, N int, params ring.DecompositionParameters) string {
	return fmt.Sprintf("%s/Torus=%d/k=%d/N=%d/BaseLog=%d/Level=%d", opname, ring.Bits[T](), k, N, params.BaseLog, params.Level)
}

type testContext[T ring.Torus] struct {
	k, N    int
	p       uint64
	params  ring.DecompositionParameters
	sk      *glwe.SecretKey[T]
	enc     *glwe.Encryptor[T]
	dec     *glwe.Decryptor[T]
	encGGSW *Encryptor[T]
	fft     *ring.FFT[T]
	stack   *scratch.Stack
}

func newTestContext[T ring.Torus](t *testing.T, k, N int) (tc *testContext[T]) {

	prng, err := sampling.NewKeyedPRNG([]byte("ggsw"))
	require.NoError(t, err)

	tc = &testContext[T]{k: k, N: N, p: 16}

	var std float64
	switch ring.Bits[T]() {
	case 32:
		tc.params = ring.DecompositionParameters{BaseLog: 8, Level: 2}
		std = 1.0 / (1 << 30)
	default:
		tc.params = ring.DecompositionParameters{BaseLog: 7, Level: 3}
		std = 1.0 / (1 << 40)
	}

	tc.sk = glwe.GenSecretKey[T](k, N, prng)

	tc.enc, err = glwe.NewEncryptor(tc.sk, std, prng)
	require.NoError(t, err)

	tc.dec, err = glwe.NewDecryptor(tc.sk)
	require.NoError(t, err)

	tc.encGGSW, err = NewEncryptor(tc.sk, std, prng)
	require.NoError(t, err)

	tc.fft, err = ring.NewFFT[T](N)
	require.NoError(t, err)

	req, err := CMuxScratch(k, tc.params, tc.fft)
	require.NoError(t, err)
	tc.stack = scratch.NewStack(req)

	return
}

func (tc *testContext[T]) encryptMessage(t *testing.T, seed int) (ct *glwe.Ciphertext[T], m []uint64) {
	pt := ring.NewPoly[T](tc.N)
	m = make([]uint64, tc.N)
	for i := range m {
		m[i] = uint64(i*seed+3) % tc.p
		pt.Coeffs[i] = ring.Encode[T](m[i], tc.p)
	}
	ct, err := tc.enc.EncryptNew(pt)
	require.NoError(t, err)
	return
}

func (tc *testContext[T]) encryptFourierGGSW(t *testing.T, m T) *FourierCiphertext {
	ct := NewCiphertext[T](tc.k, tc.N, tc.params)
	require.NoError(t, tc.encGGSW.EncryptScalar(m, ct))
	out := NewFourierCiphertext(tc.k, tc.N, tc.params)
	require.NoError(t, ConvertToFourier(out, ct, tc.fft))
	return out
}

func TestGGSW(t *testing.T) {
	for _, testSet := range []func(t *testing.T){
		testGGSW[uint32],
		testGGSW[uint64],
	} {
		testSet(t)
	}
}

func testGGSW[T ring.Torus](t *testing.T) {

	for _, kN := range [][2]int{{1, 256}, {2, 128}} {

		tc := newTestContext[T](t, kN[0], kN[1])

		t.Run(testString[T]("Layout", tc.k, tc.N, tc.params), func(t *testing.T) {
			ct := NewCiphertext[T](tc.k, tc.N, tc.params)
			require.Equal(t, tc.k, ct.GLWEDimension())
			require.Equal(t, tc.N, ct.PolynomialSize())
			require.Len(t, ct.Buff, tc.params.Level*(tc.k+1)*(tc.k+1)*tc.N)

			// Rows are contiguous and level-major.
			ct.Row(2, 1).Body().Coeffs[0] = 1
			offset := ((1*(tc.k+1)+1)*(tc.k+1) + tc.k) * tc.N
			require.Equal(t, T(1), ct.Buff[offset])

			ctFourier := NewFourierCiphertext(tc.k, tc.N, tc.params)
			require.Len(t, ctFourier.Buff, tc.params.Level*(tc.k+1)*(tc.k+1)*tc.N/2)
			require.Len(t, ctFourier.Poly(tc.params.Level, tc.k, tc.k).Coeffs, tc.N/2)

			require.True(t, ct.Equal(ct.CopyNew()))
		})

		t.Run(testString[T]("EncryptScalar", tc.k, tc.N, tc.params), func(t *testing.T) {
			ct := NewCiphertext[T](tc.k, tc.N, tc.params)
			require.NoError(t, tc.encGGSW.EncryptScalar(1, ct))

			// The body row of level j decrypts to 2^(b - j*BaseLog) on its constant coefficient.
			phase := ring.NewPoly[T](tc.N)
			b := ring.Bits[T]()
			for j := 1; j <= tc.params.Level; j++ {
				require.NoError(t, tc.dec.Phase(ct.Row(j, tc.k), phase))
				e := ring.ToFloat64(phase.Coeffs[0] - T(1)<<(b-j*tc.params.BaseLog))
				require.Less(t, math.Abs(e), 1.0/(1<<16))
			}
		})

		t.Run(testString[T]("ExternalProduct", tc.k, tc.N, tc.params), func(t *testing.T) {
			for _, m := range []T{0, 1, 3} {
				ggsw := tc.encryptFourierGGSW(t, m)
				in, msg := tc.encryptMessage(t, 7)
				out := glwe.NewCiphertext[T](tc.k, tc.N)
				require.NoError(t, ExternalProduct(out, ggsw, in, tc.fft, tc.stack))

				have, err := tc.dec.Decrypt(out, tc.p)
				require.NoError(t, err)
				for i := range msg {
					require.Equal(t, (uint64(m)*msg[i])%tc.p, have[i])
				}
			}
		})

		t.Run(testString[T]("ExternalProductAdd", tc.k, tc.N, tc.params), func(t *testing.T) {
			ggsw := tc.encryptFourierGGSW(t, 1)
			in, msg0 := tc.encryptMessage(t, 5)
			out, msg1 := tc.encryptMessage(t, 11)
			require.NoError(t, ExternalProductAdd(out, ggsw, in, tc.fft, tc.stack))

			have, err := tc.dec.Decrypt(out, tc.p)
			require.NoError(t, err)
			for i := range msg0 {
				require.Equal(t, (msg0[i]+msg1[i])%tc.p, have[i])
			}
		})

		t.Run(testString[T]("CMux", tc.k, tc.N, tc.params), func(t *testing.T) {
			for _, bit := range []T{0, 1} {
				ggsw := tc.encryptFourierGGSW(t, bit)
				ct0, msg0 := tc.encryptMessage(t, 3)
				ct1, msg1 := tc.encryptMessage(t, 13)

				require.NoError(t, CMux(ct0, ct1, ggsw, tc.fft, tc.stack))

				want := msg0
				if bit == 1 {
					want = msg1
				}

				have, err := tc.dec.Decrypt(ct0, tc.p)
				require.NoError(t, err)
				require.Equal(t, want, have)
			}
		})

		t.Run(testString[T]("CMux/Chain", tc.k, tc.N, tc.params), func(t *testing.T) {
			bits := []T{1, 0, 0, 1, 1, 0, 1, 0}
			acc, msg := tc.encryptMessage(t, 1)
			for _, bit := range bits {
				ggsw := tc.encryptFourierGGSW(t, bit)
				ct1, m1 := tc.encryptMessage(t, 2*int(bit)+9)
				require.NoError(t, CMux(acc, ct1, ggsw, tc.fft, tc.stack))
				if bit == 1 {
					msg = m1
				}
			}
			have, err := tc.dec.Decrypt(acc, tc.p)
			require.NoError(t, err)
			require.Equal(t, msg, have)
		})

		t.Run(testString[T]("Errors", tc.k, tc.N, tc.params), func(t *testing.T) {
			ggsw := tc.encryptFourierGGSW(t, 1)
			in, _ := tc.encryptMessage(t, 7)

			var mismatch *errs.MismatchError

			wrongN := glwe.NewCiphertext[T](tc.k, tc.N/2)
			err := ExternalProduct(wrongN, ggsw, in, tc.fft, tc.stack)
			require.True(t, errors.As(err, &mismatch))
			require.Equal(t, errs.PolynomialSize, mismatch.Quantity)

			wrongK := glwe.NewCiphertext[T](tc.k+1, tc.N)
			err = ExternalProduct(wrongK, ggsw, in, tc.fft, tc.stack)
			require.True(t, errors.As(err, &mismatch))
			require.Equal(t, errs.GLWEDimension, mismatch.Quantity)

			err = ExternalProduct(in, ggsw, in, tc.fft, tc.stack)
			require.ErrorIs(t, err, errs.ErrAliasing)

			// Disjoint ciphertexts cut from a single buffer.
			size := (tc.k + 1) * tc.N
			buf := make([]T, 2*size)
			copy(buf[size:], in.Buff)
			require.NoError(t, CMux(glwe.CiphertextView(buf[:size], tc.N), glwe.CiphertextView(buf[size:], tc.N), ggsw, tc.fft, tc.stack))
			require.NoError(t, ExternalProduct(glwe.CiphertextView(buf[:size:size], tc.N), ggsw, glwe.CiphertextView(buf[size:], tc.N), tc.fft, tc.stack))

			// Overlapping ciphertexts with distinct capacities.
			err = ExternalProduct(glwe.CiphertextView(buf[:size:size], tc.N), ggsw, glwe.CiphertextView(buf[tc.N:tc.N+size], tc.N), tc.fft, tc.stack)
			require.ErrorIs(t, err, errs.ErrAliasing)
			err = CMux(glwe.CiphertextView(buf[tc.N:tc.N+size], tc.N), glwe.CiphertextView(buf[:size], tc.N), ggsw, tc.fft, tc.stack)
			require.ErrorIs(t, err, errs.ErrAliasing)

			out := glwe.NewCiphertext[T](tc.k, tc.N)
			err = ExternalProduct(out, ggsw, in, tc.fft, scratch.NewStack(scratch.Empty))
			require.ErrorIs(t, err, errs.ErrScratchTooSmall)
			err = ExternalProduct(out, ggsw, in, tc.fft, nil)
			require.ErrorIs(t, err, errs.ErrScratchTooSmall)
			err = CMux(out, in.CopyNew(), ggsw, tc.fft, nil)
			require.ErrorIs(t, err, errs.ErrScratchTooSmall)

			degenerate := *ggsw
			degenerate.BaseLog = 0
			var degenerateErr *errs.DegenerateError
			err = CMux(out, in, &degenerate, tc.fft, tc.stack)
			require.True(t, errors.As(err, &degenerateErr))

			ct := NewCiphertext[T](tc.k, tc.N, tc.params)
			wrongLevel := NewFourierCiphertext(tc.k, tc.N, ring.DecompositionParameters{BaseLog: tc.params.BaseLog, Level: tc.params.Level + 1})
			err = ConvertToFourier(wrongLevel, ct, tc.fft)
			require.True(t, errors.As(err, &mismatch))
			require.Equal(t, errs.DecompositionLevel, mismatch.Quantity)
		})
	}
}

func TestExternalProductScratch(t *testing.T) {
	fft, err := ring.NewFFT[uint64](1024)
	require.NoError(t, err)

	_, err = ExternalProductScratch(1<<60, ring.DecompositionParameters{BaseLog: 7, Level: 3}, fft)
	require.ErrorIs(t, err, errs.ErrScratchOverflow)

	req, err := ExternalProductScratch(1, ring.DecompositionParameters{BaseLog: 7, Level: 3}, fft)
	require.NoError(t, err)
	require.GreaterOrEqual(t, req.Size, 3*1024*8+512*16+2*512*16+512*16)
}
