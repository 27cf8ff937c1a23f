package quad

// Combine applies Simpson's weights:
//
//	h/3 * (4*odd + 2*even + boundary)
//
// where boundary is f(a) + f(b). Every term goes through ar, so the result
// is rounded exactly like the partial sums it combines.
func Combine[T any](ar Arith[T], odd, even, boundary, h T) (T, error) {
	var zero T

	weightedOdd, err := ar.Mul(ar.FromInt(Odd.Weight()), odd)
	if err != nil {
		return zero, err
	}
	weightedEven, err := ar.Mul(ar.FromInt(Even.Weight()), even)
	if err != nil {
		return zero, err
	}
	g, err := ar.Add(weightedOdd, weightedEven)
	if err != nil {
		return zero, err
	}
	total, err := ar.Add(g, boundary)
	if err != nil {
		return zero, err
	}
	third, err := ar.Quo(h, ar.FromInt(3))
	if err != nil {
		return zero, err
	}
	return ar.Mul(third, total)
}

// Reduce folds partials into the odd and even pass sums. partials[i] belongs
// to plan entry i; the fold runs in plan order, never in completion order,
// so the rounding of the result does not depend on scheduling.
func Reduce[T any](ar Arith[T], p Plan, partials []T) (odd, even T, err error) {
	if len(partials) != p.Len() {
		return odd, even, newInvalidArgument("got %d partial results for %d plan entries", len(partials), p.Len())
	}

	odd, even = ar.Zero(), ar.Zero()
	for i, e := range p.entries {
		switch e.Class {
		case Odd:
			odd, err = ar.Add(odd, partials[i])
		case Even:
			even, err = ar.Add(even, partials[i])
		default:
			err = newInvalidArgument("entry %d has unknown class %d", i, int(e.Class))
		}
		if err != nil {
			return odd, even, err
		}
	}
	return odd, even, nil
}

// Boundary returns f(a) + f(b).
func Boundary[T any](ar Arith[T], f Integrand, g Grid[T]) (T, error) {
	var zero T
	fa, err := Sample(ar, f, g.A)
	if err != nil {
		return zero, err
	}
	fb, err := Sample(ar, f, g.B)
	if err != nil {
		return zero, err
	}
	return ar.Add(fa, fb)
}
