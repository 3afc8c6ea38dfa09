// Package scratch implements scratch-space requirements and the bump arena they size.
//
// Every primitive that needs temporary memory exposes a sizing query returning a
// [Req]. The caller allocates a [Stack] large enough for the requirement once and
// hands it to the primitive on each call, so that hot paths never allocate.
package scratch

import (
	"math"
	"unsafe"

	"github.com/tuneinsight/pbs/core/errs"
)

// CacheLine is the default alignment of the buffers taken from a [Stack].
const CacheLine = 64

// word is the alignment of the backing array of a [Stack].
const word = 8

// Element is the set of types that can be taken from a [Stack].
type Element interface {
	~uint32 | ~uint64 | ~int64 | ~float64 | ~complex128
}

// Req is a scratch requirement: a size and an alignment, both in bytes.
type Req struct {
	Size  int
	Align int
}

// Empty is the requirement of a primitive that needs no scratch space.
var Empty = Req{Size: 0, Align: 1}

// New returns the requirement for n values of type E aligned on align bytes.
// The returned size accounts for the worst-case padding needed to honor the
// alignment when the buffer is taken from a [Stack].
func New[E Element](n, align int) (Req, error) {
	if n < 0 || align <= 0 || align&(align-1) != 0 {
		return Req{}, errs.ErrScratchOverflow
	}

	var e E
	size := int(unsafe.Sizeof(e))

	if n > math.MaxInt/size {
		return Req{}, errs.ErrScratchOverflow
	}

	bytes := roundUp(n*size, word)

	pad := 0
	if align > word {
		pad = align - word
	}

	if bytes > math.MaxInt-pad {
		return Req{}, errs.ErrScratchOverflow
	}

	return Req{Size: bytes + pad, Align: max(align, word)}, nil
}

// And returns the requirement of holding r and other simultaneously.
func (r Req) And(other Req) (Req, error) {
	if r.Size > math.MaxInt-other.Size {
		return Req{}, errs.ErrScratchOverflow
	}
	return Req{Size: r.Size + other.Size, Align: max(r.Align, other.Align)}, nil
}

// Or returns the requirement of holding either r or other, but not both at once.
func (r Req) Or(other Req) (Req, error) {
	return Req{Size: max(r.Size, other.Size), Align: max(r.Align, other.Align)}, nil
}

// Array returns the requirement of holding n copies of r simultaneously.
func (r Req) Array(n int) (Req, error) {
	if n < 0 || (n > 0 && r.Size > math.MaxInt/n) {
		return Req{}, errs.ErrScratchOverflow
	}
	return Req{Size: r.Size * n, Align: r.Align}, nil
}

// AllOf chains [Req.And] over reqs, propagating the first error.
func AllOf(reqs ...Req) (req Req, err error) {
	req = Empty
	for _, r := range reqs {
		if req, err = req.And(r); err != nil {
			return
		}
	}
	return
}

// AnyOf chains [Req.Or] over reqs.
func AnyOf(reqs ...Req) (req Req, err error) {
	req = Empty
	for _, r := range reqs {
		if req, err = req.Or(r); err != nil {
			return
		}
	}
	return
}

// Stack is a bump allocator over a fixed backing array.
// Buffers taken from a Stack are valid until the Stack is released below the
// mark at which they were taken. A Stack must not be used concurrently.
type Stack struct {
	buf []uint64
	off int
}

// NewStack allocates a [Stack] satisfying req.
func NewStack(req Req) *Stack {
	return &Stack{buf: make([]uint64, (req.Size+word-1)/word)}
}

// NewStackFromBuffer returns a [Stack] borrowing buf. The Stack never retains buf
// beyond the lifetime of the caller's ownership.
func NewStackFromBuffer(buf []uint64) *Stack {
	return &Stack{buf: buf}
}

// Size returns the capacity of the Stack in bytes.
func (s *Stack) Size() int {
	return len(s.buf) * word
}

// Available returns the number of bytes that can still be taken.
func (s *Stack) Available() int {
	return s.Size() - s.off
}

// Satisfies returns true if the Stack can serve req from its current offset.
// A nil Stack satisfies no requirement.
func (s *Stack) Satisfies(req Req) bool {
	return s != nil && s.Available() >= req.Size
}

// Mark returns the current offset of the Stack, to be given to [Stack.Release].
func (s *Stack) Mark() int {
	return s.off
}

// Release frees every buffer taken after mark.
func (s *Stack) Release(mark int) {
	s.off = mark
}

// Take returns an uninitialized slice of n values of type E aligned on align bytes.
// It panics if the Stack is exhausted: the sizing queries must be used to allocate
// a large enough Stack.
func Take[E Element](s *Stack, n, align int) []E {
	if n == 0 {
		return []E{}
	}

	var e E
	size := int(unsafe.Sizeof(e))

	/* #nosec G103 -- the backing array is pointer-free and outlives the returned slice */
	base := uintptr(unsafe.Pointer(unsafe.SliceData(s.buf)))

	start := s.off
	if align > word {
		start += int(uintptr(-(int(base) + start)) & uintptr(align-1))
	}

	end := start + roundUp(n*size, word)

	if end > s.Size() {
		panic("scratch: stack exhausted")
	}

	s.off = end

	/* #nosec G103 -- see above */
	return unsafe.Slice((*E)(unsafe.Add(unsafe.Pointer(unsafe.SliceData(s.buf)), start)), n)
}

// TakeZero is [Take] with the returned slice set to zero.
func TakeZero[E Element](s *Stack, n, align int) (v []E) {
	v = Take[E](s, n, align)
	clear(v)
	return
}

func roundUp(x, a int) int {
	return (x + a - 1) &^ (a - 1)
}
