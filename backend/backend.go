// Package backend defines the capability interface through which bootstraps are
// evaluated, and a registry of the available implementations.
//
// A backend is selected by name when it is constructed and is then used for
// all calls. The package registers a single-threaded "cpu" backend and a
// "multithread" backend spreading key conversions and batches over goroutines.
// Other implementations, such as accelerators, can be registered by plugins
// with [Register] without any change to the bootstrapping code.
package backend

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tuneinsight/pbs/core/bootstrap"
	"github.com/tuneinsight/pbs/core/glwe"
	"github.com/tuneinsight/pbs/core/lwe"
	"github.com/tuneinsight/pbs/ring"
)

// Backend evaluates the bootstrapping primitives for a parameter set.
// All the implementations honor the same arithmetic: their results decrypt
// identically, although they may differ in their noise.
type Backend[T ring.Torus] interface {
	// Name returns the name under which the backend is registered.
	Name() string

	// Parameters returns the parameters of the backend.
	Parameters() bootstrap.Parameters

	// ConvertKey returns the Fourier domain conversion of bsk.
	ConvertKey(ctx context.Context, bsk *bootstrap.BootstrapKey[T]) (*bootstrap.FourierBootstrapKey, error)

	// BlindRotate rotates acc by the phase of in.
	BlindRotate(acc *glwe.Ciphertext[T], in *lwe.Ciphertext[T], key *bootstrap.FourierBootstrapKey) error

	// Bootstrap evaluates the programmable bootstrap of in with testVector on out.
	Bootstrap(out, in *lwe.Ciphertext[T], testVector *glwe.Ciphertext[T], key *bootstrap.FourierBootstrapKey) error

	// BootstrapBatch bootstraps ins[i] on outs[i] for every i.
	BootstrapBatch(ctx context.Context, outs, ins []*lwe.Ciphertext[T], testVector *glwe.Ciphertext[T], key *bootstrap.FourierBootstrapKey) error
}

// Options are the construction options of a backend.
type Options struct {
	// Workers is the number of goroutines of parallel backends.
	// If left unset, it defaults to runtime.NumCPU().
	Workers int
}

// Factory instantiates a [Backend] for a parameter set.
type Factory[T ring.Torus] func(params bootstrap.Parameters, opts Options) (Backend[T], error)

var registry = struct {
	sync.RWMutex
	factories map[string]map[int]any
}{factories: map[string]map[int]any{}}

// Register makes the backend factory available under name for the torus T.
// It returns an error if a factory is already registered under the same name for T.
func Register[T ring.Torus](name string, factory Factory[T]) error {

	registry.Lock()
	defer registry.Unlock()

	byBits, ok := registry.factories[name]
	if !ok {
		byBits = map[int]any{}
		registry.factories[name] = byBits
	}

	if _, ok := byBits[ring.Bits[T]()]; ok {
		return fmt.Errorf("backend.Register: backend %q already registered for %d-bit torus", name, ring.Bits[T]())
	}

	byBits[ring.Bits[T]()] = factory

	return nil
}

// New instantiates the backend registered under name.
func New[T ring.Torus](name string, params bootstrap.Parameters, opts Options) (Backend[T], error) {

	registry.RLock()
	factory, ok := registry.factories[name][ring.Bits[T]()]
	registry.RUnlock()

	if !ok {
		return nil, fmt.Errorf("backend.New: no backend %q registered for %d-bit torus", name, ring.Bits[T]())
	}

	b, err := factory.(Factory[T])(params, opts)
	if err != nil {
		return nil, fmt.Errorf("backend.New: %s: %w", name, err)
	}

	return b, nil
}

// Names returns the sorted names of the registered backends.
func Names() (names []string) {
	registry.RLock()
	defer registry.RUnlock()
	for name := range registry.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

func mustRegister[T ring.Torus](name string, factory Factory[T]) {
	if err := Register(name, factory); err != nil {
		panic(err)
	}
}

func init() {
	mustRegister[uint32](CPU, NewCPU[uint32])
	mustRegister[uint64](CPU, NewCPU[uint64])
	mustRegister[uint32](Multithread, NewMultithread[uint32])
	mustRegister[uint64](Multithread, NewMultithread[uint64])
}
