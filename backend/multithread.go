package backend

import (
	"context"
	"runtime"

	"github.com/tuneinsight/pbs/core/bootstrap"
	"github.com/tuneinsight/pbs/core/glwe"
	"github.com/tuneinsight/pbs/core/lwe"
	"github.com/tuneinsight/pbs/ring"
	"github.com/tuneinsight/pbs/utils/structs"
)

// Multithread is the name of the backend spreading work over goroutines.
const Multithread = "multithread"

// multithread converts keys row by row and bootstraps batches one ciphertext
// per worker, each worker owning a shallow copy of the evaluator. Single calls
// take a shallow copy from a pool, so that the backend is safe for concurrent use.
type multithread[T ring.Torus] struct {
	eval    *bootstrap.Evaluator[T]
	pool    *structs.SyncPool[*bootstrap.Evaluator[T]]
	workers int
}

// NewMultithread returns the multithreaded [Backend] using opts.Workers goroutines.
func NewMultithread[T ring.Torus](params bootstrap.Parameters, opts Options) (Backend[T], error) {
	eval, err := bootstrap.NewEvaluator[T](params)
	if err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &multithread[T]{
		eval:    eval,
		pool:    structs.NewSyncPool(eval.ShallowCopy),
		workers: workers,
	}, nil
}

func (b *multithread[T]) Name() string {
	return Multithread
}

func (b *multithread[T]) Parameters() bootstrap.Parameters {
	return b.eval.Parameters()
}

func (b *multithread[T]) ConvertKey(ctx context.Context, bsk *bootstrap.BootstrapKey[T]) (key *bootstrap.FourierBootstrapKey, err error) {
	key = bootstrap.NewFourierBootstrapKey(bsk.InputDimension, bsk.GLWEDimension, bsk.PolynomialSize, bsk.DecompositionParameters)
	if err = bootstrap.ConvertToFourierParallel(ctx, key, bsk, b.eval.FFT(), b.workers); err != nil {
		return nil, err
	}
	return
}

func (b *multithread[T]) BlindRotate(acc *glwe.Ciphertext[T], in *lwe.Ciphertext[T], key *bootstrap.FourierBootstrapKey) error {
	eval := b.pool.Get()
	defer b.pool.Put(eval)
	return eval.BlindRotate(acc, in, key)
}

func (b *multithread[T]) Bootstrap(out, in *lwe.Ciphertext[T], testVector *glwe.Ciphertext[T], key *bootstrap.FourierBootstrapKey) error {
	eval := b.pool.Get()
	defer b.pool.Put(eval)
	return eval.Bootstrap(out, in, testVector, key)
}

func (b *multithread[T]) BootstrapBatch(ctx context.Context, outs, ins []*lwe.Ciphertext[T], testVector *glwe.Ciphertext[T], key *bootstrap.FourierBootstrapKey) error {
	return b.eval.BootstrapBatch(ctx, outs, ins, testVector, key, b.workers)
}
