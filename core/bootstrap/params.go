// Package bootstrap implements the programmable bootstrapping of LWE ciphertexts:
// modulus switching, blind rotation of a test vector by the phase of an LWE
// ciphertext using a bootstrap key of GGSW encryptions of its key bits, sample
// extraction, and the extraction of the bits of a message by iterated bootstraps.
package bootstrap

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/go-cmp/cmp"
	"github.com/tuneinsight/pbs/core/errs"
	"github.com/tuneinsight/pbs/ring"
	"github.com/zeebo/blake3"
)

// ParametersLiteral is a literal representation of bootstrapping parameters.
// It has public fields and is used to express unchecked user-defined parameters
// literally into Go programs. The [NewParametersFromLiteral] function is used
// to generate the actual checked parameters from the literal representation.
//
// Noise standard deviations are given as fractions of the torus.
// If TorusBits is left unset, the default value is 64.
type ParametersLiteral struct {
	TorusBits        int     `json:",omitempty"`
	LWEDimension     int     // n: dimension of the input LWE key
	GLWEDimension    int     // k: number of mask polynomials of the accumulator
	LogN             int     // log2 of the polynomial size N
	BaseLog          int     // bootstrap key decomposition base log
	Level            int     // bootstrap key decomposition level count
	KeySwitchBaseLog int     `json:",omitempty"`
	KeySwitchLevel   int     `json:",omitempty"`
	LWEStd           float64 `json:",omitempty"`
	GLWEStd          float64 `json:",omitempty"`
}

// ExampleParameters is a 64-bit parameter set with n=630, k=1, N=1024 and a
// bootstrap key decomposed in 3 levels of base 2^7.
var ExampleParameters = ParametersLiteral{
	TorusBits:        64,
	LWEDimension:     630,
	GLWEDimension:    1,
	LogN:             10,
	BaseLog:          7,
	Level:            3,
	KeySwitchBaseLog: 4,
	KeySwitchLevel:   5,
	LWEStd:           math.Exp2(-25),
	GLWEStd:          math.Exp2(-40),
}

// Parameters is an immutable, validated set of bootstrapping parameters.
type Parameters struct {
	torusBits     int
	lweDimension  int
	glweDimension int
	logN          int
	pbs           ring.DecompositionParameters
	ks            ring.DecompositionParameters
	lweStd        float64
	glweStd       float64
}

// NewParametersFromLiteral validates and converts a [ParametersLiteral] into [Parameters].
// Inconsistent values are reported as [*errs.DegenerateError].
func NewParametersFromLiteral(pl ParametersLiteral) (params Parameters, err error) {

	if pl.TorusBits == 0 {
		pl.TorusBits = 64
	}

	degenerate := func(param string, value int, reason string) error {
		return fmt.Errorf("bootstrap.NewParametersFromLiteral: %w", &errs.DegenerateError{Param: param, Value: value, Reason: reason})
	}

	if pl.TorusBits != 32 && pl.TorusBits != 64 {
		return Parameters{}, degenerate("TorusBits", pl.TorusBits, "torus bit-width must be 32 or 64")
	}

	if pl.LWEDimension <= 0 {
		return Parameters{}, degenerate("LWEDimension", pl.LWEDimension, "LWE dimension must be positive")
	}

	if pl.GLWEDimension <= 0 {
		return Parameters{}, degenerate("GLWEDimension", pl.GLWEDimension, "GLWE dimension must be positive")
	}

	// The modulus switch maps the torus on 2N = 2^(LogN+1) values and rounds on one extra bit.
	if pl.LogN < 1 || pl.LogN+2 > pl.TorusBits {
		return Parameters{}, degenerate("LogN", pl.LogN, fmt.Sprintf("LogN must be in [1, %d]", pl.TorusBits-2))
	}

	pbs := ring.DecompositionParameters{BaseLog: pl.BaseLog, Level: pl.Level}
	if err = validate(pbs, pl.TorusBits); err != nil {
		return Parameters{}, fmt.Errorf("bootstrap.NewParametersFromLiteral: bootstrap key: %w", err)
	}

	ks := ring.DecompositionParameters{BaseLog: pl.KeySwitchBaseLog, Level: pl.KeySwitchLevel}
	if ks != (ring.DecompositionParameters{}) {
		if err = validate(ks, pl.TorusBits); err != nil {
			return Parameters{}, fmt.Errorf("bootstrap.NewParametersFromLiteral: keyswitch key: %w", err)
		}
	}

	if pl.LWEStd < 0 || pl.GLWEStd < 0 || math.IsNaN(pl.LWEStd) || math.IsNaN(pl.GLWEStd) {
		return Parameters{}, fmt.Errorf("bootstrap.NewParametersFromLiteral: noise standard deviations must be non-negative")
	}

	return Parameters{
		torusBits:     pl.TorusBits,
		lweDimension:  pl.LWEDimension,
		glweDimension: pl.GLWEDimension,
		logN:          pl.LogN,
		pbs:           pbs,
		ks:            ks,
		lweStd:        pl.LWEStd,
		glweStd:       pl.GLWEStd,
	}, nil
}

func validate(p ring.DecompositionParameters, bits int) error {
	if bits == 32 {
		return ring.Validate[uint32](p)
	}
	return ring.Validate[uint64](p)
}

// ParametersLiteral returns the [ParametersLiteral] of the target [Parameters].
func (p Parameters) ParametersLiteral() ParametersLiteral {
	return ParametersLiteral{
		TorusBits:        p.torusBits,
		LWEDimension:     p.lweDimension,
		GLWEDimension:    p.glweDimension,
		LogN:             p.logN,
		BaseLog:          p.pbs.BaseLog,
		Level:            p.pbs.Level,
		KeySwitchBaseLog: p.ks.BaseLog,
		KeySwitchLevel:   p.ks.Level,
		LWEStd:           p.lweStd,
		GLWEStd:          p.glweStd,
	}
}

// TorusBits returns the bit-width b of the torus scalars.
func (p Parameters) TorusBits() int {
	return p.torusBits
}

// LWEDimension returns the dimension n of the LWE key of the bootstrapped ciphertexts.
func (p Parameters) LWEDimension() int {
	return p.lweDimension
}

// GLWEDimension returns the number k of mask polynomials of the accumulator.
func (p Parameters) GLWEDimension() int {
	return p.glweDimension
}

// LogN returns log2(N).
func (p Parameters) LogN() int {
	return p.logN
}

// N returns the polynomial size.
func (p Parameters) N() int {
	return 1 << p.logN
}

// OutputDimension returns k*N, the LWE dimension of the bootstrapped ciphertexts.
func (p Parameters) OutputDimension() int {
	return p.glweDimension << p.logN
}

// BootstrapDecomposition returns the decomposition parameters of the bootstrap key.
func (p Parameters) BootstrapDecomposition() ring.DecompositionParameters {
	return p.pbs
}

// KeySwitchDecomposition returns the decomposition parameters of the keyswitch key,
// which are zero if unset.
func (p Parameters) KeySwitchDecomposition() ring.DecompositionParameters {
	return p.ks
}

// LWEStd returns the standard deviation of the noise of encryptions under the LWE key.
func (p Parameters) LWEStd() float64 {
	return p.lweStd
}

// GLWEStd returns the standard deviation of the noise of encryptions under the GLWE key.
func (p Parameters) GLWEStd() float64 {
	return p.glweStd
}

// Equal checks two [Parameters] for equality.
func (p Parameters) Equal(other *Parameters) bool {
	return cmp.Equal(p.ParametersLiteral(), other.ParametersLiteral())
}

// Fingerprint returns a digest identifying the parameter set. Keys generated
// under equal parameters share the same fingerprint.
func (p Parameters) Fingerprint() (digest [32]byte) {
	data, err := json.Marshal(p.ParametersLiteral())
	if err != nil {
		// Sanity check, a literal of plain numbers always marshals.
		panic(err)
	}
	h := blake3.New()
	_, _ = h.Write(data)
	copy(digest[:], h.Sum(nil))
	return
}

// MarshalJSON returns a JSON representation of this parameter set. See Marshal from the [encoding/json] package.
func (p Parameters) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ParametersLiteral())
}

// UnmarshalJSON reads a JSON representation of a parameter set into the receiver Parameter. See Unmarshal from the [encoding/json] package.
func (p *Parameters) UnmarshalJSON(data []byte) (err error) {
	var pl ParametersLiteral
	if err = json.Unmarshal(data, &pl); err != nil {
		return err
	}
	*p, err = NewParametersFromLiteral(pl)
	return
}

// checkTorus returns an error if the bit-width of T differs from the parameters.
func checkTorus[T ring.Torus](op string, p Parameters) error {
	if ring.Bits[T]() != p.torusBits {
		return fmt.Errorf("%s: %w", op, &errs.DegenerateError{Param: "TorusBits", Value: p.torusBits, Reason: fmt.Sprintf("parameters do not match a %d-bit torus", ring.Bits[T]())})
	}
	return nil
}
