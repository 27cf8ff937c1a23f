package quad

import (
	"errors"

	"github.com/cockroachdb/apd/v3"
)

// Integrand is a real function of one real variable.
//
// Callers guarantee that Eval is safe to invoke from several goroutines at
// once and has no side effects the result depends on. The type system does
// not enforce this; the executor relies on it.
type Integrand interface {
	Eval(x float64) (float64, error)
}

// DecimalIntegrand is implemented by integrands that can evaluate directly
// in decimal arithmetic. DecimalArith prefers it over Eval.
type DecimalIntegrand interface {
	Integrand
	EvalDecimal(p Precision, x *apd.Decimal) (*apd.Decimal, error)
}

// Func adapts an infallible function such as math.Sin.
type Func func(x float64) float64

// Eval implements Integrand.
func (f Func) Eval(x float64) (float64, error) {
	return f(x), nil
}

// FallibleFunc adapts a function that can reject a sample point.
type FallibleFunc func(x float64) (float64, error)

// Eval implements Integrand.
func (f FallibleFunc) Eval(x float64) (float64, error) {
	return f(x)
}

// Sample evaluates f at x under ar.
//
// Any failure of f comes back as an integrand error wrapping the original
// error unchanged. Precision and arithmetic errors pass through as they are.
func Sample[T any](ar Arith[T], f Integrand, x T) (T, error) {
	v, err := ar.Eval(f, x)
	if err == nil {
		return v, nil
	}

	var zero T
	var qe *Error
	if errors.As(err, &qe) && (qe.Code == ErrCodePrecision || qe.Code == ErrCodeArithmetic) {
		return zero, err
	}
	return zero, NewIntegrandError(ar.Float(x), err)
}
