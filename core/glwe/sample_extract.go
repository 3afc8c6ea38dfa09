package glwe

import (
	"fmt"

	"github.com/tuneinsight/pbs/core/errs"
	"github.com/tuneinsight/pbs/core/lwe"
	"github.com/tuneinsight/pbs/ring"
)

// SampleExtract extracts from in the LWE encryption, of dimension k*N, of the
// index-th coefficient of its plaintext. The result decrypts under
// [SecretKey.AsLWEKey].
func SampleExtract[T ring.Torus](out *lwe.Ciphertext[T], in *Ciphertext[T], index int) (err error) {

	k, N := in.GLWEDimension(), in.PolynomialSize()

	if err = errs.CheckEqual("glwe.SampleExtract", errs.LWEDimension, k*N, out.Dimension()); err != nil {
		return
	}

	if index < 0 || index >= N {
		return fmt.Errorf("glwe.SampleExtract: %w", &errs.DegenerateError{Param: "index", Value: index, Reason: fmt.Sprintf("must be in [0, %d)", N)})
	}

	SampleExtractUnchecked(out, in, index)

	return
}

// SampleExtractUnchecked is [SampleExtract] without validation.
func SampleExtractUnchecked[T ring.Torus](out *lwe.Ciphertext[T], in *Ciphertext[T], index int) {

	k, N := in.GLWEDimension(), in.PolynomialSize()

	mask := out.Mask()

	for i := 0; i < k; i++ {

		a := in.Mask(i).Coeffs
		m := mask[i*N : (i+1)*N]

		// coefficient index of A_i * S_i is sum_{j<=index} a[index-j]*s[j] - sum_{j>index} a[N+index-j]*s[j]
		for j := 0; j <= index; j++ {
			m[j] = a[index-j]
		}
		for j := index + 1; j < N; j++ {
			m[j] = -a[N+index-j]
		}
	}

	out.SetBody(in.Body().Coeffs[index])
}
