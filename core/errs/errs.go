// Package errs implements the typed errors returned by the checked entry points
// of the bootstrapping primitives.
package errs

import (
	"errors"
	"fmt"
)

// Quantity enumerates the dimensions compared by the checked entry points.
type Quantity int

const (
	LWEDimension = Quantity(iota)
	GLWEDimension
	PolynomialSize
	DecompositionBaseLog
	DecompositionLevel
	CiphertextCount
	KeyCount
	BufferLength
)

func (q Quantity) String() string {
	switch q {
	case LWEDimension:
		return "LWE dimension"
	case GLWEDimension:
		return "GLWE dimension"
	case PolynomialSize:
		return "polynomial size"
	case DecompositionBaseLog:
		return "decomposition base log"
	case DecompositionLevel:
		return "decomposition level count"
	case CiphertextCount:
		return "ciphertext count"
	case KeyCount:
		return "key count"
	case BufferLength:
		return "buffer length"
	default:
		return fmt.Sprintf("Quantity(%d)", int(q))
	}
}

// MismatchError reports two operands whose shapes are incompatible.
type MismatchError struct {
	Op       string
	Quantity Quantity
	Want     int
	Have     int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: %s mismatch: want %d but have %d", e.Op, e.Quantity, e.Want, e.Have)
}

// CheckEqual returns a [*MismatchError] if want != have.
func CheckEqual(op string, q Quantity, want, have int) error {
	if want != have {
		return &MismatchError{Op: op, Quantity: q, Want: want, Have: have}
	}
	return nil
}

// DegenerateError reports a parameter for which the primitives are not defined,
// e.g. a zero decomposition base log or a precision exceeding the scalar width.
type DegenerateError struct {
	Param  string
	Value  int
	Reason string
}

func (e *DegenerateError) Error() string {
	return fmt.Sprintf("degenerate parameter %s=%d: %s", e.Param, e.Value, e.Reason)
}

// ErrScratchOverflow is returned by the scratch sizing queries when the
// required size does not fit in an int.
var ErrScratchOverflow = errors.New("scratch size overflow")

// ErrAliasing is returned when an output operand shares memory with an input
// operand that it must not overlap.
var ErrAliasing = errors.New("aliased operands")

// ErrScratchTooSmall is returned when the scratch stack given to a checked entry
// cannot satisfy the requirement of the operation.
var ErrScratchTooSmall = errors.New("scratch stack too small")
