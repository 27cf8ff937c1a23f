package quad

import "context"

// SpanStride is the index distance between consecutive samples of a span:
// each pass of the Simpson sum visits every other grid point (step 2h).
const SpanStride = 2

// cancelCheckEvery is how many samples a worker takes between context checks.
const cancelCheckEvery = 1024

// Interval is one sub-range of the domain, given by its first and last
// sample points. Lower <= Upper.
type Interval[T any] struct {
	Lower, Upper T
}

// Span is Count samples at grid indices First, First+2, First+4, ...
// A span with Count == 0 is empty and sums to zero.
type Span struct {
	First int `json:"first"`
	Count int `json:"count"`
}

// Last returns the index of the final sample. For an empty span it is
// First-SpanStride.
func (s Span) Last() int {
	return s.First + SpanStride*(s.Count-1)
}

// Empty reports whether the span has no samples.
func (s Span) Empty() bool {
	return s.Count == 0
}

// Interval returns the sample points bounding s on g.
// Empty spans have no interval.
func (g Grid[T]) Interval(ar Arith[T], s Span) (Interval[T], error) {
	var iv Interval[T]
	if s.Empty() {
		return iv, newInvalidArgument("empty span at index %d has no interval", s.First)
	}
	if err := g.check(s); err != nil {
		return iv, err
	}
	lower, err := g.Point(ar, s.First)
	if err != nil {
		return iv, err
	}
	upper, err := g.Point(ar, s.Last())
	if err != nil {
		return iv, err
	}
	return Interval[T]{Lower: lower, Upper: upper}, nil
}

func (g Grid[T]) check(s Span) error {
	if s.Count < 0 {
		return newInvalidArgument("span count %d is negative", s.Count)
	}
	if s.Empty() {
		return nil
	}
	if s.First < 0 || s.Last() > g.N {
		return newInvalidArgument("span [%d..%d] outside grid [0..%d]", s.First, s.Last(), g.N)
	}
	return nil
}

// SumSpan sums f over the samples of s in index order.
//
// The result depends only on (ar, f, g, s): the same span gives the same
// sum whether it is summed inline or inside a worker. ctx is checked every
// cancelCheckEvery samples so a failed sibling stops the remaining work.
func SumSpan[T any](ctx context.Context, ar Arith[T], f Integrand, g Grid[T], s Span) (T, error) {
	sum := ar.Zero()
	if err := g.check(s); err != nil {
		return sum, err
	}

	for i := 0; i < s.Count; i++ {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
		}

		x, err := g.Point(ar, s.First+SpanStride*i)
		if err != nil {
			return sum, err
		}
		y, err := Sample(ar, f, x)
		if err != nil {
			return sum, err
		}
		if sum, err = ar.Add(sum, y); err != nil {
			return sum, err
		}
	}

	return sum, nil
}

// SumRange sums f at lower, lower+step, lower+2*step, ... while the sample
// point is <= upper. Points are computed as lower + i*step rather than by
// repeated addition, so the sequence does not drift.
//
// SumRange is the interval-level form of the summation; integration calls
// use SumSpan, which addresses samples by grid index.
func SumRange[T any](ar Arith[T], f Integrand, lower, upper, step T) (T, error) {
	sum := ar.Zero()
	if ar.Cmp(step, ar.Zero()) <= 0 {
		return sum, newInvalidArgument("step must be positive")
	}

	for i := 0; ; i++ {
		offset, err := ar.Mul(ar.FromInt(i), step)
		if err != nil {
			return sum, err
		}
		x, err := ar.Add(lower, offset)
		if err != nil {
			return sum, err
		}
		if ar.Cmp(x, upper) > 0 {
			return sum, nil
		}
		y, err := Sample(ar, f, x)
		if err != nil {
			return sum, err
		}
		if sum, err = ar.Add(sum, y); err != nil {
			return sum, err
		}
	}
}
