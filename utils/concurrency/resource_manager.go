// Package concurrency implements a simple channel based resource manager for concurrent operations.
package concurrency

import (
	"context"
	"sync"
	"sync/atomic"
)

// ResourceManager stores a channel of resources (e.g. an evaluator with its
// scratch stack) meant to be used by one task at a time, and records the
// first error returned by the tasks it runs.
type ResourceManager[T any] struct {
	wg        sync.WaitGroup
	ctx       context.Context
	resources chan T
	failed    atomic.Bool
	once      sync.Once
	err       error
}

// NewResourceManager instantiates a new [ResourceManager] over the given resources.
// At most len(resources) tasks run at the same time.
// Tasks that have not yet started when ctx is done are skipped.
func NewResourceManager[T any](ctx context.Context, resources []T) *ResourceManager[T] {
	ch := make(chan T, len(resources))
	for i := range resources {
		ch <- resources[i]
	}
	return &ResourceManager[T]{
		ctx:       ctx,
		resources: ch,
	}
}

// Task is a function taking as input a resource that it holds exclusively
// for the duration of the call.
type Task[T any] func(resource T) (err error)

// Run runs a [Task] concurrently.
// If a previous task failed or the context is done, the task is skipped.
// A task that has started always runs to completion.
func (r *ResourceManager[T]) Run(f Task[T]) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		var resource T
		select {
		case <-r.ctx.Done():
			r.fail(r.ctx.Err())
			return
		case resource = <-r.resources:
		}

		defer func() { r.resources <- resource }()

		if r.failed.Load() {
			return
		}

		if err := r.ctx.Err(); err != nil {
			r.fail(err)
			return
		}

		if err := f(resource); err != nil {
			r.fail(err)
		}
	}()
}

func (r *ResourceManager[T]) fail(err error) {
	r.once.Do(func() {
		r.err = err
		r.failed.Store(true)
	})
}

// Wait waits until all the [Task] given to [ResourceManager.Run] have returned
// or have been skipped, and returns the first encountered error, if any.
func (r *ResourceManager[T]) Wait() error {
	r.wg.Wait()
	return r.err
}
