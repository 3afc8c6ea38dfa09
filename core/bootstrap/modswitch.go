package bootstrap

import (
	"fmt"

	"github.com/tuneinsight/pbs/core/errs"
	"github.com/tuneinsight/pbs/ring"
)

// ModulusSwitch maps the torus element value to the closest multiple of
// 2^lutCountLog in [0, 2N), N = 2^logN, discarding first its offset most
// significant bits.
//
// The result is monotonic in value up to one wraparound: values rounding up
// to 2N are mapped to 0.
func ModulusSwitch[T ring.Torus](value T, logN, offset, lutCountLog int) (int, error) {

	b := ring.Bits[T]()

	if logN < 1 || logN+2 > b {
		return 0, fmt.Errorf("bootstrap.ModulusSwitch: %w", &errs.DegenerateError{Param: "logN", Value: logN, Reason: fmt.Sprintf("must be in [1, %d]", b-2)})
	}

	if offset < 0 || offset+logN+2 > b {
		return 0, fmt.Errorf("bootstrap.ModulusSwitch: %w", &errs.DegenerateError{Param: "offset", Value: offset, Reason: fmt.Sprintf("must be in [0, %d]", b-logN-2)})
	}

	if lutCountLog < 0 || lutCountLog > logN {
		return 0, fmt.Errorf("bootstrap.ModulusSwitch: %w", &errs.DegenerateError{Param: "lutCountLog", Value: lutCountLog, Reason: fmt.Sprintf("must be in [0, %d]", logN)})
	}

	return ModulusSwitchUnchecked(value, logN, offset, lutCountLog), nil
}

// ModulusSwitchUnchecked is [ModulusSwitch] without validation.
func ModulusSwitchUnchecked[T ring.Torus](value T, logN, offset, lutCountLog int) int {
	out := value << offset
	out >>= ring.Bits[T]() - logN - 2 + lutCountLog
	out += out & 1
	out >>= 1
	out <<= lutCountLog
	return int(out) & (2<<logN - 1)
}
