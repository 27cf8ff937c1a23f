package testutil

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountingIntegrand_RecordsPoints(t *testing.T) {
	c := NewCountingIntegrand(func(x float64) float64 { return 2 * x })

	y, err := c.Eval(3)
	require.NoError(t, err)
	assert.Equal(t, 6.0, y)

	_, _ = c.Eval(1)
	assert.Equal(t, 2, c.Calls())
	assert.Equal(t, []float64{1, 3}, c.Points())
}

func TestCountingIntegrand_ConcurrentEval(t *testing.T) {
	c := NewCountingIntegrand(func(x float64) float64 { return x })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = c.Eval(float64(i*100 + j))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 800, c.Calls())
}

func TestFailAbove(t *testing.T) {
	errBoom := errors.New("boom")
	f := FailAbove(1, errBoom, func(x float64) float64 { return x })

	y, err := f(1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, y)

	_, err = f(1.5)
	assert.ErrorIs(t, err, errBoom)
}
