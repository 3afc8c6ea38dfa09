package backend

import (
	"context"

	"github.com/tuneinsight/pbs/core/bootstrap"
	"github.com/tuneinsight/pbs/core/errs"
	"github.com/tuneinsight/pbs/core/glwe"
	"github.com/tuneinsight/pbs/core/lwe"
	"github.com/tuneinsight/pbs/ring"
)

// CPU is the name of the single-threaded backend.
const CPU = "cpu"

// cpu evaluates every primitive on the calling goroutine with a single
// [bootstrap.Evaluator]. It must not be used concurrently.
type cpu[T ring.Torus] struct {
	eval *bootstrap.Evaluator[T]
}

// NewCPU returns the single-threaded [Backend]. opts are ignored.
func NewCPU[T ring.Torus](params bootstrap.Parameters, _ Options) (Backend[T], error) {
	eval, err := bootstrap.NewEvaluator[T](params)
	if err != nil {
		return nil, err
	}
	return &cpu[T]{eval: eval}, nil
}

func (b *cpu[T]) Name() string {
	return CPU
}

func (b *cpu[T]) Parameters() bootstrap.Parameters {
	return b.eval.Parameters()
}

func (b *cpu[T]) ConvertKey(ctx context.Context, bsk *bootstrap.BootstrapKey[T]) (*bootstrap.FourierBootstrapKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.eval.ConvertKeyNew(bsk)
}

func (b *cpu[T]) BlindRotate(acc *glwe.Ciphertext[T], in *lwe.Ciphertext[T], key *bootstrap.FourierBootstrapKey) error {
	return b.eval.BlindRotate(acc, in, key)
}

func (b *cpu[T]) Bootstrap(out, in *lwe.Ciphertext[T], testVector *glwe.Ciphertext[T], key *bootstrap.FourierBootstrapKey) error {
	return b.eval.Bootstrap(out, in, testVector, key)
}

// BootstrapBatch bootstraps the ciphertexts in order, checking ctx between them.
func (b *cpu[T]) BootstrapBatch(ctx context.Context, outs, ins []*lwe.Ciphertext[T], testVector *glwe.Ciphertext[T], key *bootstrap.FourierBootstrapKey) (err error) {

	if err = errs.CheckEqual("backend.BootstrapBatch", errs.CiphertextCount, len(ins), len(outs)); err != nil {
		return
	}

	for i := range ins {

		if err = ctx.Err(); err != nil {
			return
		}

		if err = b.eval.Bootstrap(outs[i], ins[i], testVector, key); err != nil {
			return
		}
	}

	return
}
