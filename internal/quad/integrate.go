package quad

import (
	"context"
	"log/slog"
	"math"
	"runtime"
	"time"

	"github.com/cockroachdb/apd/v3"
)

const (
	// DefaultIterations is the sample count used when none is given.
	DefaultIterations = 1000

	// SequentialFractionDigits is the number of fractional digits the
	// sequential result is rounded to.
	SequentialFractionDigits = 8
)

// Mode selects how the plan is executed.
type Mode string

const (
	// ModeSequential sums the two reference passes on the calling goroutine.
	ModeSequential Mode = "sequential"
	// ModeParallel sums the tier's plan entries on concurrent workers.
	ModeParallel Mode = "parallel"
)

// Option configures an integration call.
type Option func(*settings)

type settings struct {
	iterations int
	workers    int
	precision  Precision
	logger     *slog.Logger
	observer   Observer
}

func newSettings(opts []Option) *settings {
	s := &settings{
		iterations: DefaultIterations,
		precision:  DefaultPrecision(),
		logger:     discardLogger(),
		observer:   NopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithIterations sets the sample count n_iter (default 1000).
// Odd counts are rounded up to the next even number.
func WithIterations(n int) Option {
	return func(s *settings) {
		s.iterations = n
	}
}

// WithWorkers sets the worker count that selects the tier.
// A count <= 0 means the host CPU count (the default).
func WithWorkers(n int) Option {
	return func(s *settings) {
		s.workers = n
	}
}

// WithPrecision sets the precision of the decimal path (default 8 digits).
func WithPrecision(p Precision) Option {
	return func(s *settings) {
		s.precision = p
	}
}

// WithLogger sets the logger for debug output. Nil keeps the default,
// which discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver sets the receiver of timing reports.
func WithObserver(o Observer) Option {
	return func(s *settings) {
		if o != nil {
			s.observer = o
		}
	}
}

func (s *settings) resolvedWorkers() int {
	return ResolveWorkers(s.workers)
}

// ResolveWorkers returns the worker count a call with WithWorkers(n) uses.
func ResolveWorkers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// Estimate is the outcome of one integration call together with the
// intermediate values it was combined from.
type Estimate[T any] struct {
	Value    T
	Odd      T
	Even     T
	Boundary T
	Grid     Grid[T]
	Plan     Plan
	Partials []T
}

// Integrate computes the Simpson estimate of f over [a, b] under ar.
//
// ModeSequential always uses the two-entry reference plan and sums it on
// the calling goroutine. ModeParallel uses the plan of the configured
// worker count and runs it through Execute. Given the same ar, the Tier2
// plan performs exactly the operations of the sequential path.
func Integrate[T any](ctx context.Context, ar Arith[T], f Integrand, a, b float64, mode Mode, opts ...Option) (Estimate[T], error) {
	s := newSettings(opts)
	start := time.Now()
	est, err := integrate(ctx, ar, f, a, b, mode, s)
	elapsed := time.Since(start)

	s.observer.ObserveIntegration(string(mode), est.Plan.Tier, elapsed, err)
	if err != nil {
		s.logger.Debug("integration failed", "mode", string(mode), "arith", ar.Name(), "error", err)
		return Estimate[T]{}, err
	}
	s.logger.Debug("integration done",
		"mode", string(mode), "arith", ar.Name(), "tier", int(est.Plan.Tier),
		"panels", est.Plan.Panels, "elapsed", elapsed)
	return est, nil
}

func integrate[T any](ctx context.Context, ar Arith[T], f Integrand, a, b float64, mode Mode, s *settings) (Estimate[T], error) {
	var est Estimate[T]

	workers := 2
	switch mode {
	case ModeSequential:
	case ModeParallel:
		workers = s.resolvedWorkers()
	default:
		return est, newInvalidArgument("unknown mode %q", mode)
	}

	plan, err := NewPlan(Request{A: a, B: b, Iterations: s.iterations, Workers: workers})
	if err != nil {
		return est, err
	}
	if f == nil {
		return est, newInvalidArgument("integrand is nil")
	}
	est.Plan = plan

	grid, err := NewGrid(ar, a, b, plan.Panels)
	if err != nil {
		return est, err
	}
	est.Grid = grid

	s.logger.Debug("plan ready", "mode", string(mode), "tier", int(plan.Tier), "panels", plan.Panels, "entries", plan.Len())

	var partials []T
	if mode == ModeSequential {
		partials, err = executeInline(ctx, ar, f, grid, plan, s)
	} else {
		partials, err = execute(ctx, ar, f, grid, plan, s)
	}
	if err != nil {
		return est, err
	}
	est.Partials = partials

	if est.Boundary, err = Boundary(ar, f, grid); err != nil {
		return est, err
	}
	if est.Odd, est.Even, err = Reduce(ar, plan, partials); err != nil {
		return est, err
	}
	if est.Value, err = Combine(ar, est.Odd, est.Even, est.Boundary, grid.H); err != nil {
		return est, err
	}
	return est, nil
}

// Sequential integrates f over [a, b] in float64 on the calling goroutine
// and returns the result rounded to 8 fractional digits.
//
// It fails with a domain error when b <= a. Only WithIterations, WithLogger
// and WithObserver affect it.
func Sequential(f Integrand, a, b float64, opts ...Option) (*apd.Decimal, error) {
	return SequentialContext(context.Background(), f, a, b, opts...)
}

// SequentialContext is Sequential with a context. The summation stops with
// ctx.Err() once ctx is done.
func SequentialContext(ctx context.Context, f Integrand, a, b float64, opts ...Option) (*apd.Decimal, error) {
	est, err := Integrate[float64](ctx, Float64Arith{}, f, a, b, ModeSequential, opts...)
	if err != nil {
		return nil, err
	}
	return RoundFraction(est.Value, SequentialFractionDigits)
}

// Parallel integrates f over [a, b] in decimal arithmetic, partitioning the
// sum across 2, 4 or 6 workers chosen from the worker count.
//
// The precision (8 significant digits unless WithPrecision says otherwise)
// is fixed before any worker starts and holds for the whole call. It fails
// with a domain error when b <= a, with a precision error when the
// precision is unset, and with the first integrand error any worker hits.
func Parallel(ctx context.Context, f Integrand, a, b float64, opts ...Option) (*apd.Decimal, error) {
	ar, err := NewDecimalArith(newSettings(opts).precision)
	if err != nil {
		return nil, err
	}
	est, err := Integrate[*apd.Decimal](ctx, ar, f, a, b, ModeParallel, opts...)
	if err != nil {
		return nil, err
	}
	return est.Value, nil
}

// roundingContext is wide enough to quantize any finite float64 to
// SequentialFractionDigits.
var roundingContext = func() *apd.Context {
	c := apd.BaseContext.WithPrecision(400)
	c.Rounding = apd.RoundHalfEven
	return c
}()

// RoundFraction converts v to a decimal rounded half-even to the given
// number of fractional digits.
func RoundFraction(v float64, digits int32) (*apd.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, newArithmeticError("convert", errNonFinite)
	}
	d, err := new(apd.Decimal).SetFloat64(v)
	if err != nil {
		return nil, newArithmeticError("convert", err)
	}
	if _, err := roundingContext.Quantize(d, d, -digits); err != nil {
		return nil, newArithmeticError("quantize", err)
	}
	return d, nil
}
