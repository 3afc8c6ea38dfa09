package bootstrap

import (
	"context"
	"fmt"

	"github.com/tuneinsight/pbs/core/errs"
	"github.com/tuneinsight/pbs/core/glwe"
	"github.com/tuneinsight/pbs/core/lwe"
	"github.com/tuneinsight/pbs/utils/concurrency"
)

// BootstrapBatch bootstraps ins[i] on outs[i] for every i, spreading the
// ciphertexts over workers goroutines. Each worker holds a shallow copy of the
// receiver; key and testVector are shared read-only.
//
// ctx is only checked before each ciphertext is scheduled: a bootstrap that
// has started runs to completion. The ciphertexts are processed in no
// particular order.
func (eval Evaluator[T]) BootstrapBatch(ctx context.Context, outs, ins []*lwe.Ciphertext[T], testVector *glwe.Ciphertext[T], key *FourierBootstrapKey, workers int) (err error) {

	if err = errs.CheckEqual("bootstrap.BootstrapBatch", errs.CiphertextCount, len(ins), len(outs)); err != nil {
		return
	}

	if workers < 1 {
		return fmt.Errorf("bootstrap.BootstrapBatch: %w", &errs.DegenerateError{Param: "workers", Value: workers, Reason: "must be positive"})
	}

	workers = min(workers, len(ins))

	if workers == 0 {
		return
	}

	evaluators := make([]*Evaluator[T], workers)
	for i := range evaluators {
		evaluators[i] = eval.ShallowCopy()
	}

	rm := concurrency.NewResourceManager(ctx, evaluators)

	for i := range ins {
		i := i
		rm.Run(func(eval *Evaluator[T]) error {
			return eval.Bootstrap(outs[i], ins[i], testVector, key)
		})
	}

	if err = rm.Wait(); err != nil {
		return fmt.Errorf("bootstrap.BootstrapBatch: %w", err)
	}

	return
}
