package quad

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

const (
	// DefaultDigits is the significant-digit precision of the parallel path.
	DefaultDigits = 8

	// MaxPrecisionDigits bounds NewPrecision.
	MaxPrecisionDigits = 1000
)

// Precision is the fixed-precision configuration for decimal arithmetic:
// digits of significance and half-even rounding.
//
// Precision is an immutable value. It is passed explicitly into every
// decimal operation, so concurrent workers share it read-only and nothing
// can change the rounding of a call while it runs. The zero value is unset
// and every operation on it fails with a precision error.
type Precision struct {
	ctx *apd.Context
}

// NewPrecision creates a Precision with the given significant digits.
func NewPrecision(digits uint32) (Precision, error) {
	if digits == 0 {
		return Precision{}, newPrecisionError("precision must be at least 1 digit")
	}
	if digits > MaxPrecisionDigits {
		return Precision{}, newPrecisionError(fmt.Sprintf("precision %d exceeds maximum %d", digits, MaxPrecisionDigits))
	}
	c := apd.BaseContext.WithPrecision(digits)
	c.Rounding = apd.RoundHalfEven
	return Precision{ctx: c}, nil
}

// MustPrecision is like NewPrecision but panics on an invalid digit count.
// Use it for constants known at compile time.
func MustPrecision(digits uint32) Precision {
	p, err := NewPrecision(digits)
	if err != nil {
		panic(err)
	}
	return p
}

// DefaultPrecision returns the 8-digit precision of the parallel path.
func DefaultPrecision() Precision {
	return MustPrecision(DefaultDigits)
}

// IsSet reports whether p was created by NewPrecision.
func (p Precision) IsSet() bool {
	return p.ctx != nil
}

// Digits returns the number of significant digits (0 if unset).
func (p Precision) Digits() uint32 {
	if p.ctx == nil {
		return 0
	}
	return p.ctx.Precision
}

// Context returns a copy of the underlying apd context.
// Mutating the copy does not affect p.
func (p Precision) Context() (*apd.Context, error) {
	if p.ctx == nil {
		return nil, newPrecisionError("precision is not set")
	}
	c := *p.ctx
	return &c, nil
}

// String implements fmt.Stringer.
func (p Precision) String() string {
	if p.ctx == nil {
		return "unset"
	}
	return fmt.Sprintf("%d digits", p.ctx.Precision)
}
