package concurrency

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConcurrency(t *testing.T) {

	t.Run("NoError", func(t *testing.T) {

		acc := make([]int, 8)

		rm := NewResourceManager(context.Background(), make([]bool, 4))

		for i := range acc {
			i := i
			rm.Run(func(r bool) (err error) {
				acc[i]++
				return
			})
		}

		require.NoError(t, rm.Wait())

		for i := range acc {
			require.Equal(t, acc[i], 1)
		}
	})

	t.Run("WithError", func(t *testing.T) {

		acc := make([]int, 8)

		rm := NewResourceManager(context.Background(), make([]bool, 4))

		for i := range acc {
			i := i
			rm.Run(func(r bool) (err error) {
				acc[i]++
				if i == 2 {
					return fmt.Errorf("something bad happened")
				}
				return
			})
		}

		require.EqualError(t, rm.Wait(), "something bad happened")
	})

	t.Run("ExclusiveResources", func(t *testing.T) {

		resources := make([]*atomic.Int32, 3)
		for i := range resources {
			resources[i] = new(atomic.Int32)
		}

		rm := NewResourceManager(context.Background(), resources)

		for i := 0; i < 64; i++ {
			rm.Run(func(r *atomic.Int32) (err error) {
				if r.Add(1) != 1 {
					err = fmt.Errorf("resource used concurrently")
				}
				r.Add(-1)
				return
			})
		}

		require.NoError(t, rm.Wait())
	})

	t.Run("Canceled", func(t *testing.T) {

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var count atomic.Int32

		rm := NewResourceManager(ctx, make([]bool, 2))

		for i := 0; i < 8; i++ {
			rm.Run(func(r bool) (err error) {
				count.Add(1)
				return
			})
		}

		require.ErrorIs(t, rm.Wait(), context.Canceled)
		require.Equal(t, int32(0), count.Load())
	})
}
