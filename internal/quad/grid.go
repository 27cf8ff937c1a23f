package quad

import (
	"errors"
	"math"
)

// Grid is the sample grid of one integration call: N panels of width H
// between A and B. Every sample point of the call, in every worker, comes
// from Point, which keeps partitioned sub-ranges on the same grid as the
// unpartitioned passes.
type Grid[T any] struct {
	A, B, H T
	N       int
}

var errZeroStep = errors.New("grid step is zero at this precision")

// NewGrid builds the grid for [a, b] with n panels under ar.
//
// The bounds are taken unrounded so that b - a keeps the digits a and b
// differ in; only the width and the step are rounded. A step that still
// comes out as zero is an arithmetic error.
func NewGrid[T any](ar Arith[T], a, b float64, n int) (Grid[T], error) {
	var g Grid[T]
	if n < 2 || n%2 != 0 {
		return g, newInvalidArgument("panel count must be a positive even number, got %d", n)
	}

	A, err := ar.Exact(a)
	if err != nil {
		return g, err
	}
	B, err := ar.Exact(b)
	if err != nil {
		return g, err
	}
	width, err := ar.Sub(B, A)
	if err != nil {
		return g, err
	}
	H, err := ar.Quo(width, ar.FromInt(n))
	if err != nil {
		return g, err
	}
	if ar.Cmp(H, ar.Zero()) <= 0 {
		return g, newArithmeticError("step", errZeroStep)
	}

	return Grid[T]{A: A, B: B, H: H, N: n}, nil
}

// Point returns the k-th grid point, A + k*H. The end points are returned
// exactly.
func (g Grid[T]) Point(ar Arith[T], k int) (T, error) {
	switch k {
	case 0:
		return g.A, nil
	case g.N:
		return g.B, nil
	}
	offset, err := ar.Mul(ar.FromInt(k), g.H)
	if err != nil {
		var zero T
		return zero, err
	}
	return ar.Add(g.A, offset)
}

// Panels normalizes a requested sample count to a Simpson panel count:
// odd counts are rounded up to the next even number.
func Panels(iterations int) (int, error) {
	if iterations <= 0 {
		return 0, newInvalidArgument("iterations must be positive, got %d", iterations)
	}
	if iterations >= math.MaxInt32 {
		return 0, newInvalidArgument("iterations %d exceeds limit", iterations)
	}
	if iterations%2 != 0 {
		iterations++
	}
	return iterations, nil
}
