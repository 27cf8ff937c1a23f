// Package quad computes definite integrals with the composite Simpson
// (parabolic) rule, sequentially or partitioned across concurrent workers.
//
// # Simpson's rule on a grid
//
// For N panels (N even) of width h = (b-a)/N with points x_k = a + k*h:
//
//	∫f ≈ h/3 * (f(a) + f(b) + 4*Σ f(x_odd) + 2*Σ f(x_even))
//
// where x_odd runs over k = 1, 3, ..., N-1 and x_even over k = 2, 4, ..., N-2.
// Each sum is a pass over every other grid point (step 2h).
//
// # Components
//
//   - Sample: evaluate the integrand at one point under an Arith
//   - SumSpan / SumRange: sum samples over a grid-aligned sub-range
//   - StrategyFor / PlanFor: split both passes for a worker tier (2, 4, 6)
//   - Execute: run plan entries on concurrent workers, results by position
//   - Reduce / Combine: fold partials and apply the Simpson weights
//
// # Grid alignment
//
// The planner never works with coordinates. Spans are runs of grid indices
// with stride 2, so a sub-range always starts exactly 2h after the previous
// one ends, and Plan.Verify checks every plan against the two reference
// passes before it is used. The Tier2 plan is the reference itself.
//
// # Precision
//
// Sequential runs in float64 and rounds the result to 8 fractional digits.
// Parallel runs in decimal (github.com/cockroachdb/apd/v3) rounded to a
// Precision, 8 significant digits by default. Precision is a value passed
// into the arithmetic, never process-wide state, so workers cannot observe
// a change of rounding mid-call.
//
// # Errors
//
// All failures are *Error values: DOMAIN for b <= a (raised before any
// partitioning or sampling), INTEGRAND wrapping the integrand's own error,
// PRECISION for an unset or invalid Precision. Nothing is retried.
package quad
