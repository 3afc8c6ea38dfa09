package structs

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSyncPool(t *testing.T) {

	var created atomic.Int32

	pool := NewSyncPool(func() *[]uint64 {
		created.Add(1)
		buf := make([]uint64, 16)
		return &buf
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := pool.Get()
			require.Len(t, *buf, 16)
			pool.Put(buf)
		}()
	}
	wg.Wait()

	require.GreaterOrEqual(t, created.Load(), int32(1))
	require.LessOrEqual(t, created.Load(), int32(8))
}
