package testutil

import (
	"sort"
	"sync"
	"time"
)

// CountingIntegrand wraps a function and records every point it is
// evaluated at.
//
// Thread-safety: Eval is safe for concurrent use via internal mutex.
type CountingIntegrand struct {
	F func(x float64) float64

	mu     sync.Mutex
	points []float64
}

// NewCountingIntegrand creates a counting wrapper around f.
func NewCountingIntegrand(f func(x float64) float64) *CountingIntegrand {
	return &CountingIntegrand{F: f}
}

// Eval records x and returns F(x).
func (c *CountingIntegrand) Eval(x float64) (float64, error) {
	c.mu.Lock()
	c.points = append(c.points, x)
	c.mu.Unlock()
	return c.F(x), nil
}

// Calls returns the number of evaluations so far.
func (c *CountingIntegrand) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.points)
}

// Points returns the evaluated points in ascending order.
func (c *CountingIntegrand) Points() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]float64, len(c.points))
	copy(out, c.points)
	sort.Float64s(out)
	return out
}

// FailAbove returns an integrand that evaluates f but fails with err for
// every x > threshold.
func FailAbove(threshold float64, err error, f func(x float64) float64) func(x float64) (float64, error) {
	return func(x float64) (float64, error) {
		if x > threshold {
			return 0, err
		}
		return f(x), nil
	}
}

// DelayBelow returns an integrand that sleeps for delay before evaluating
// f at every x < threshold. It makes the workers holding the left part of
// the domain finish last.
func DelayBelow(threshold float64, delay time.Duration, f func(x float64) float64) func(x float64) (float64, error) {
	return func(x float64) (float64, error) {
		if x < threshold {
			time.Sleep(delay)
		}
		return f(x), nil
	}
}
