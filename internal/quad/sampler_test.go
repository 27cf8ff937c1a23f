package quad

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSample(t *testing.T) {
	y, err := Sample[float64](Float64Arith{}, Func(math.Sqrt), 4)
	require.NoError(t, err)
	assert.Equal(t, 2.0, y)
}

// TestSample_WrapsIntegrandError tests that the caller's error survives
// wrapping and the failing point is recorded.
func TestSample_WrapsIntegrandError(t *testing.T) {
	errNegative := errors.New("negative input")
	f := FallibleFunc(func(x float64) (float64, error) {
		if x < 0 {
			return 0, errNegative
		}
		return math.Sqrt(x), nil
	})

	_, err := Sample[float64](Float64Arith{}, f, -1)
	require.Error(t, err)
	assert.True(t, IsIntegrandError(err))
	assert.ErrorIs(t, err, errNegative)
	assert.ErrorIs(t, err, ErrIntegrand)

	var qe *Error
	require.ErrorAs(t, err, &qe)
	require.NotNil(t, qe.X)
	assert.Equal(t, -1.0, *qe.X)
	assert.Equal(t, "INTEGRAND: integrand evaluation failed (x=-1): negative input", err.Error())
}

func TestSample_NonFiniteIsIntegrandError(t *testing.T) {
	_, err := Sample[float64](Float64Arith{}, Func(math.Log), 0)
	assert.True(t, IsIntegrandError(err))
	assert.ErrorIs(t, err, errNonFinite)
}

// TestSample_NestedDomainErrorIsWrapped tests that an integrand which itself
// integrates, and fails with a domain error, is reported as an integrand
// failure of the outer call.
func TestSample_NestedDomainErrorIsWrapped(t *testing.T) {
	f := FallibleFunc(func(x float64) (float64, error) {
		return 0, NewDomainError(x, x)
	})

	_, err := Sample[float64](Float64Arith{}, f, 1)
	assert.True(t, IsIntegrandError(err))
	assert.ErrorIs(t, err, ErrDomain)
}

func TestSample_PrecisionErrorPassesThrough(t *testing.T) {
	var ar DecimalArith
	_, err := Sample(ar, Func(math.Sin), ar.FromInt(1))
	assert.True(t, IsPrecisionError(err))
	assert.False(t, IsIntegrandError(err))
}
