package quad

import (
	"errors"
	"fmt"
)

// Error represents a failure of an integration call.
//
// Errors include:
//   - Domain: the interval is empty or reversed (b <= a)
//   - Integrand: the supplied function failed or returned a non-finite value
//   - Precision: fixed-precision arithmetic without a usable Precision
//   - Invalid argument: sample count or worker count out of range
//   - Arithmetic: a decimal operation overflowed or underflowed
//
// Error wraps the underlying cause (if any), so errors.Is and errors.As
// reach an error returned by the integrand unchanged.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// X is the sample point being evaluated (integrand errors only).
	X *float64

	// Err is the underlying cause.
	Err error
}

// ErrorCode categorizes integration errors.
type ErrorCode string

const (
	// ErrCodeDomain indicates b <= a or non-finite bounds.
	ErrCodeDomain ErrorCode = "DOMAIN"

	// ErrCodeIntegrand indicates the integrand failed at a sample point.
	ErrCodeIntegrand ErrorCode = "INTEGRAND"

	// ErrCodePrecision indicates an unset or invalid precision.
	ErrCodePrecision ErrorCode = "PRECISION"

	// ErrCodeInvalidArgument indicates an out-of-range request parameter.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeArithmetic indicates a trapped decimal condition.
	ErrCodeArithmetic ErrorCode = "ARITHMETIC"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its Code.
var (
	ErrDomain          = errors.New("domain error")
	ErrIntegrand       = errors.New("integrand error")
	ErrPrecision       = errors.New("precision configuration error")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrArithmetic      = errors.New("arithmetic error")
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.X != nil {
		msg = fmt.Sprintf("%s (x=%g)", msg, *e.X)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's code.
func (e *Error) Is(target error) bool {
	switch e.Code {
	case ErrCodeDomain:
		return target == ErrDomain
	case ErrCodeIntegrand:
		return target == ErrIntegrand
	case ErrCodePrecision:
		return target == ErrPrecision
	case ErrCodeInvalidArgument:
		return target == ErrInvalidArgument
	case ErrCodeArithmetic:
		return target == ErrArithmetic
	}
	return false
}

// IsDomainError returns true if err is (or wraps) a domain error.
func IsDomainError(err error) bool {
	return hasCode(err, ErrCodeDomain)
}

// IsIntegrandError returns true if err is (or wraps) an integrand error.
func IsIntegrandError(err error) bool {
	return hasCode(err, ErrCodeIntegrand)
}

// IsPrecisionError returns true if err is (or wraps) a precision error.
func IsPrecisionError(err error) bool {
	return hasCode(err, ErrCodePrecision)
}

func hasCode(err error, code ErrorCode) bool {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Code == code
	}
	return false
}

// NewDomainError creates an Error for an empty or reversed interval.
func NewDomainError(a, b float64) *Error {
	return &Error{
		Code:    ErrCodeDomain,
		Message: fmt.Sprintf("upper bound must exceed lower bound (a=%g, b=%g)", a, b),
	}
}

// NewIntegrandError creates an Error for a failure of the integrand at x.
func NewIntegrandError(x float64, err error) *Error {
	return &Error{
		Code:    ErrCodeIntegrand,
		Message: "integrand evaluation failed",
		X:       &x,
		Err:     err,
	}
}

func newPrecisionError(message string) *Error {
	return &Error{Code: ErrCodePrecision, Message: message}
}

func newInvalidArgument(format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func newArithmeticError(op string, err error) *Error {
	return &Error{Code: ErrCodeArithmetic, Message: op, Err: err}
}
