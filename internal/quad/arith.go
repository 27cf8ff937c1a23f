package quad

import (
	"errors"
	"math"

	"github.com/cockroachdb/apd/v3"
)

// Arith is the number system one integration call runs on.
//
// The planner is arithmetic-free; the grid, the range sums and the combiner
// are written once against Arith so the sequential and the partitioned paths
// perform exactly the same operations when given the same Arith.
//
// Implementations must be safe for concurrent use by the executor's workers.
type Arith[T any] interface {
	// Name identifies the arithmetic in logs and metrics.
	Name() string

	FromFloat(x float64) (T, error)
	// Exact converts x without rounding it to the working precision.
	Exact(x float64) (T, error)
	FromInt(n int) T
	Float(v T) float64
	Zero() T

	Add(x, y T) (T, error)
	Sub(x, y T) (T, error)
	Mul(x, y T) (T, error)
	Quo(x, y T) (T, error)
	Cmp(x, y T) int

	// Eval evaluates f at x. Non-finite results are reported as errNonFinite.
	Eval(f Integrand, x T) (T, error)

	// Decimal converts v for presentation.
	Decimal(v T) (*apd.Decimal, error)
}

var errNonFinite = errors.New("non-finite result")

// Float64Arith is native float64 arithmetic.
type Float64Arith struct{}

var _ Arith[float64] = Float64Arith{}

func (Float64Arith) Name() string { return "float64" }

func (Float64Arith) FromFloat(x float64) (float64, error) { return x, nil }

func (Float64Arith) Exact(x float64) (float64, error) { return x, nil }

func (Float64Arith) FromInt(n int) float64 { return float64(n) }

func (Float64Arith) Float(v float64) float64 { return v }

func (Float64Arith) Zero() float64 { return 0 }

func (Float64Arith) Add(x, y float64) (float64, error) { return x + y, nil }

func (Float64Arith) Sub(x, y float64) (float64, error) { return x - y, nil }

func (Float64Arith) Mul(x, y float64) (float64, error) { return x * y, nil }

func (Float64Arith) Quo(x, y float64) (float64, error) {
	if y == 0 {
		return 0, newArithmeticError("quo", errors.New("division by zero"))
	}
	return x / y, nil
}

func (Float64Arith) Cmp(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func (Float64Arith) Eval(f Integrand, x float64) (float64, error) {
	y, err := f.Eval(x)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, errNonFinite
	}
	return y, nil
}

func (Float64Arith) Decimal(v float64) (*apd.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, newArithmeticError("convert", errNonFinite)
	}
	d, err := new(apd.Decimal).SetFloat64(v)
	if err != nil {
		return nil, newArithmeticError("convert", err)
	}
	return d, nil
}

// DecimalArith is fixed-precision decimal arithmetic. Every operation result
// is rounded to the digits of the Precision it was created with.
type DecimalArith struct {
	prec Precision
	ctx  *apd.Context
}

var _ Arith[*apd.Decimal] = DecimalArith{}

// NewDecimalArith creates decimal arithmetic bound to p.
func NewDecimalArith(p Precision) (DecimalArith, error) {
	ctx, err := p.Context()
	if err != nil {
		return DecimalArith{}, err
	}
	return DecimalArith{prec: p, ctx: ctx}, nil
}

// Precision returns the precision the arithmetic rounds to.
func (ar DecimalArith) Precision() Precision { return ar.prec }

func (ar DecimalArith) Name() string { return "decimal" }

func (ar DecimalArith) FromFloat(x float64) (*apd.Decimal, error) {
	if ar.ctx == nil {
		return nil, newPrecisionError("precision is not set")
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil, newArithmeticError("convert", errNonFinite)
	}
	d, err := ar.Exact(x)
	if err != nil {
		return nil, err
	}
	if _, err := ar.ctx.Round(d, d); err != nil {
		return nil, newArithmeticError("round", err)
	}
	return d, nil
}

// Exact returns the shortest decimal that round-trips to x, with no
// rounding to the precision.
func (ar DecimalArith) Exact(x float64) (*apd.Decimal, error) {
	if ar.ctx == nil {
		return nil, newPrecisionError("precision is not set")
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil, newArithmeticError("convert", errNonFinite)
	}
	d, err := new(apd.Decimal).SetFloat64(x)
	if err != nil {
		return nil, newArithmeticError("convert", err)
	}
	return d, nil
}

func (DecimalArith) FromInt(n int) *apd.Decimal {
	return apd.New(int64(n), 0)
}

func (DecimalArith) Float(v *apd.Decimal) float64 {
	f, err := v.Float64()
	if err != nil {
		return math.NaN()
	}
	return f
}

func (DecimalArith) Zero() *apd.Decimal {
	return apd.New(0, 0)
}

func (ar DecimalArith) Add(x, y *apd.Decimal) (*apd.Decimal, error) {
	if ar.ctx == nil {
		return nil, newPrecisionError("precision is not set")
	}
	return apply("add", ar.ctx.Add, x, y)
}

func (ar DecimalArith) Sub(x, y *apd.Decimal) (*apd.Decimal, error) {
	if ar.ctx == nil {
		return nil, newPrecisionError("precision is not set")
	}
	return apply("sub", ar.ctx.Sub, x, y)
}

func (ar DecimalArith) Mul(x, y *apd.Decimal) (*apd.Decimal, error) {
	if ar.ctx == nil {
		return nil, newPrecisionError("precision is not set")
	}
	return apply("mul", ar.ctx.Mul, x, y)
}

func (ar DecimalArith) Quo(x, y *apd.Decimal) (*apd.Decimal, error) {
	if ar.ctx == nil {
		return nil, newPrecisionError("precision is not set")
	}
	return apply("quo", ar.ctx.Quo, x, y)
}

func (DecimalArith) Cmp(x, y *apd.Decimal) int {
	return x.Cmp(y)
}

// Eval evaluates natively in decimal when f implements DecimalIntegrand,
// otherwise through float64.
func (ar DecimalArith) Eval(f Integrand, x *apd.Decimal) (*apd.Decimal, error) {
	if ar.ctx == nil {
		return nil, newPrecisionError("precision is not set")
	}
	if df, ok := f.(DecimalIntegrand); ok {
		y, err := df.EvalDecimal(ar.prec, x)
		if err != nil {
			return nil, err
		}
		if y == nil || y.Form != apd.Finite {
			return nil, errNonFinite
		}
		z := new(apd.Decimal)
		if _, err := ar.ctx.Round(z, y); err != nil {
			return nil, newArithmeticError("round", err)
		}
		return z, nil
	}

	y, err := f.Eval(ar.Float(x))
	if err != nil {
		return nil, err
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return nil, errNonFinite
	}
	return ar.FromFloat(y)
}

func (DecimalArith) Decimal(v *apd.Decimal) (*apd.Decimal, error) {
	return new(apd.Decimal).Set(v), nil
}

func apply(op string, fn func(z, x, y *apd.Decimal) (apd.Condition, error), x, y *apd.Decimal) (*apd.Decimal, error) {
	z := new(apd.Decimal)
	if _, err := fn(z, x, y); err != nil {
		return nil, newArithmeticError(op, err)
	}
	return z, nil
}
