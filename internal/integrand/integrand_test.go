package integrand

import (
	"context"
	"math"
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/parabola/internal/quad"
)

func TestNames_Sorted(t *testing.T) {
	assert.Equal(t, []string{"cos", "exp", "radical", "recip", "sin", "sqrt", "square"}, Names())
}

func TestEntries_MatchNames(t *testing.T) {
	entries := Entries()
	require.Len(t, entries, len(Names()))
	for i, name := range Names() {
		assert.Equal(t, name, entries[i].Name)
		assert.NotEmpty(t, entries[i].Formula)
		assert.NotNil(t, entries[i].Integrand)
	}
}

func TestLookup(t *testing.T) {
	f, err := Lookup("square")
	require.NoError(t, err)

	y, err := f.Eval(3)
	require.NoError(t, err)
	assert.Equal(t, 9.0, y)
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("tan")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknown)
	assert.Contains(t, err.Error(), "radical")
}

func TestSqrt_RejectsNegative(t *testing.T) {
	f, err := Lookup("sqrt")
	require.NoError(t, err)

	_, err = f.Eval(-1)
	assert.ErrorIs(t, err, ErrOutsideDomain)

	// Through an integration call it surfaces as an integrand error.
	_, err = quad.Sequential(f, -1, 1)
	assert.True(t, quad.IsIntegrandError(err))
	assert.ErrorIs(t, err, ErrOutsideDomain)
}

func TestRecip_RejectsZero(t *testing.T) {
	f, err := Lookup("recip")
	require.NoError(t, err)

	_, err = quad.Parallel(context.Background(), f, 0, 1, quad.WithWorkers(4))
	assert.True(t, quad.IsIntegrandError(err))
	assert.ErrorIs(t, err, ErrOutsideDomain)

	v, err := quad.Parallel(context.Background(), f, 1, math.E, quad.WithWorkers(4), quad.WithIterations(2000))
	require.NoError(t, err)
	got, err := v.Float64()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-5)
}

func TestRadical_DecimalMatchesFloat(t *testing.T) {
	p := quad.MustPrecision(16)

	for _, x := range []float64{1.2, 1.5, 2, 2.75, 3} {
		want, err := Radical{}.Eval(x)
		require.NoError(t, err)

		dx, err := new(apd.Decimal).SetFloat64(x)
		require.NoError(t, err)
		got, err := Radical{}.EvalDecimal(p, dx)
		require.NoError(t, err)

		f, err := got.Float64()
		require.NoError(t, err)
		assert.InDelta(t, want, f, 1e-13, "x=%g", x)
	}
}

func TestRadical_UnsetPrecision(t *testing.T) {
	_, err := Radical{}.EvalDecimal(quad.Precision{}, apd.New(1, 0))
	assert.True(t, quad.IsPrecisionError(err))
}

func TestRadical_OutsideDomain(t *testing.T) {
	_, err := Radical{}.Eval(-2)
	assert.ErrorIs(t, err, ErrOutsideDomain)

	_, err = Radical{}.EvalDecimal(quad.DefaultPrecision(), apd.New(-2, 0))
	assert.ErrorIs(t, err, ErrOutsideDomain)
}

// TestRadical_Integral checks both paths against a high-resolution float64
// reference value.
func TestRadical_Integral(t *testing.T) {
	est, err := quad.Integrate[float64](context.Background(), quad.Float64Arith{}, Radical{}, 1.2, 3,
		quad.ModeSequential, quad.WithIterations(200000))
	require.NoError(t, err)
	ref := est.Value

	seq, err := quad.Sequential(Radical{}, 1.2, 3, quad.WithIterations(10000))
	require.NoError(t, err)
	s, err := seq.Float64()
	require.NoError(t, err)
	assert.InDelta(t, ref, s, 1e-8)

	for _, workers := range []int{2, 4, 6} {
		par, err := quad.Parallel(context.Background(), Radical{}, 1.2, 3,
			quad.WithIterations(10000), quad.WithWorkers(workers))
		require.NoError(t, err)
		v, err := par.Float64()
		require.NoError(t, err)
		assert.InDelta(t, ref, v, 0.001, "workers=%d", workers)
	}
}
