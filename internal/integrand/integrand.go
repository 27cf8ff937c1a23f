// Package integrand provides the named integrands available to the CLI and
// to jobs files.
package integrand

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/parabola/internal/quad"
)

// ErrUnknown is returned by Lookup for a name that is not registered.
var ErrUnknown = errors.New("unknown integrand")

// ErrOutsideDomain is returned by an integrand evaluated outside the set
// where it is defined.
var ErrOutsideDomain = errors.New("outside the integrand's domain")

// Entry describes one registered integrand.
type Entry struct {
	Name      string         `json:"name"`
	Formula   string         `json:"formula"`
	Decimal   bool           `json:"decimal"`
	Integrand quad.Integrand `json:"-"`
}

var registry = map[string]Entry{
	"sin":     {Name: "sin", Formula: "sin(x)", Integrand: quad.Func(math.Sin)},
	"cos":     {Name: "cos", Formula: "cos(x)", Integrand: quad.Func(math.Cos)},
	"exp":     {Name: "exp", Formula: "e^x", Integrand: quad.Func(math.Exp)},
	"square":  {Name: "square", Formula: "x^2", Integrand: quad.Func(func(x float64) float64 { return x * x })},
	"sqrt":    {Name: "sqrt", Formula: "sqrt(x)", Integrand: quad.FallibleFunc(sqrt)},
	"recip":   {Name: "recip", Formula: "1/x", Integrand: quad.FallibleFunc(recip)},
	"radical": {Name: "radical", Formula: "sqrt(2x^2+0.7)/(1.5+sqrt(0.8x+1))", Decimal: true, Integrand: Radical{}},
}

// Lookup returns the integrand registered under name.
func Lookup(name string) (quad.Integrand, error) {
	e, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknown, name, Names())
	}
	return e.Integrand, nil
}

// Names returns the registered names in sorted order.
func Names() []string {
	return slices.Sorted(maps.Keys(registry))
}

// Entries returns every registered integrand sorted by name.
func Entries() []Entry {
	out := make([]Entry, 0, len(registry))
	for _, name := range Names() {
		out = append(out, registry[name])
	}
	return out
}

func sqrt(x float64) (float64, error) {
	if x < 0 {
		return 0, fmt.Errorf("sqrt of %g: %w", x, ErrOutsideDomain)
	}
	return math.Sqrt(x), nil
}

func recip(x float64) (float64, error) {
	if x == 0 {
		return 0, fmt.Errorf("1/x at 0: %w", ErrOutsideDomain)
	}
	return 1 / x, nil
}

// Radical is sqrt(2x²+0.7) / (1.5 + sqrt(0.8x+1)).
//
// It evaluates natively in decimal when the call runs in fixed precision,
// carrying guardDigits extra digits through the intermediate steps.
type Radical struct{}

var _ quad.DecimalIntegrand = Radical{}

const guardDigits = 4

// Eval implements quad.Integrand.
func (Radical) Eval(x float64) (float64, error) {
	inner := 0.8*x + 1
	if inner < 0 {
		return 0, fmt.Errorf("sqrt(0.8x+1) at x=%g: %w", x, ErrOutsideDomain)
	}
	return math.Sqrt(2*x*x+0.7) / (1.5 + math.Sqrt(inner)), nil
}

// EvalDecimal implements quad.DecimalIntegrand.
func (Radical) EvalDecimal(p quad.Precision, x *apd.Decimal) (*apd.Decimal, error) {
	ctx, err := p.Context()
	if err != nil {
		return nil, err
	}
	ctx.Precision += guardDigits

	var (
		ed     = apd.MakeErrDecimal(ctx)
		x2     = new(apd.Decimal)
		top    = new(apd.Decimal)
		inner  = new(apd.Decimal)
		bottom = new(apd.Decimal)
		z      = new(apd.Decimal)
	)

	// sqrt(2x² + 0.7)
	ed.Mul(x2, x, x)
	ed.Mul(top, apd.New(2, 0), x2)
	ed.Add(top, top, apd.New(7, -1))
	ed.Sqrt(top, top)

	// 1.5 + sqrt(0.8x + 1)
	ed.Mul(inner, apd.New(8, -1), x)
	ed.Add(inner, inner, apd.New(1, 0))
	if inner.Negative && !inner.IsZero() {
		return nil, fmt.Errorf("sqrt(0.8x+1) at x=%s: %w", x, ErrOutsideDomain)
	}
	ed.Sqrt(bottom, inner)
	ed.Add(bottom, bottom, apd.New(15, -1))

	ed.Quo(z, top, bottom)
	if err := ed.Err(); err != nil {
		return nil, err
	}
	return z, nil
}
