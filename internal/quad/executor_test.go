package quad

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/parabola/internal/testutil"
)

// recordingObserver collects reports for assertions.
type recordingObserver struct {
	mu           sync.Mutex
	spans        map[WeightClass]int
	samples      int
	spanErrors   int
	integrations []string
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{spans: map[WeightClass]int{}}
}

func (o *recordingObserver) ObserveSpan(class WeightClass, samples int, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.spans[class]++
	o.samples += samples
	if err != nil {
		o.spanErrors++
	}
}

func (o *recordingObserver) ObserveIntegration(mode string, _ Tier, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	o.integrations = append(o.integrations, mode+"/"+outcome)
}

// TestExecute_ResultsFollowPlanOrder tests that partials are matched to
// entries by position even when the leftmost workers finish last.
func TestExecute_ResultsFollowPlanOrder(t *testing.T) {
	ar := Float64Arith{}
	g, err := NewGrid[float64](ar, 0, 1, 24)
	require.NoError(t, err)
	p, err := PlanFor(24, Tier6)
	require.NoError(t, err)

	slow := FallibleFunc(testutil.DelayBelow(0.3, 2*time.Millisecond, math.Exp))

	partials, err := Execute(context.Background(), ar, slow, g, p)
	require.NoError(t, err)
	require.Len(t, partials, p.Len())

	for i, e := range p.Entries() {
		want, err := SumSpan(context.Background(), ar, Func(math.Exp), g, e.Span)
		require.NoError(t, err)
		assert.Equal(t, want, partials[i], "entry %d", i)
	}
}

// TestExecute_VisitsEveryInteriorPointOnce tests the executor against the
// grid: the union of all spans is exactly the interior points 1..N-1.
func TestExecute_VisitsEveryInteriorPointOnce(t *testing.T) {
	for _, tier := range []Tier{Tier2, Tier4, Tier6} {
		ar := Float64Arith{}
		g, err := NewGrid[float64](ar, 0, 60, 60)
		require.NoError(t, err)
		p, err := PlanFor(60, tier)
		require.NoError(t, err)

		f := testutil.NewCountingIntegrand(identity)
		_, err = Execute(context.Background(), ar, f, g, p)
		require.NoError(t, err)

		points := f.Points()
		require.Len(t, points, 59, "tier %d", tier)
		for i, x := range points {
			assert.Equal(t, float64(i+1), x, "tier %d", tier)
		}
	}
}

func TestExecute_FirstErrorFailsCall(t *testing.T) {
	errBoom := errors.New("boom")
	ar := Float64Arith{}
	g, err := NewGrid[float64](ar, 0, 1, 100)
	require.NoError(t, err)
	p, err := PlanFor(100, Tier4)
	require.NoError(t, err)

	obs := newRecordingObserver()
	f := FallibleFunc(testutil.FailAbove(0.9, errBoom, math.Sin))

	partials, err := Execute(context.Background(), ar, f, g, p, WithObserver(obs))
	require.Error(t, err)
	assert.Nil(t, partials)
	assert.ErrorIs(t, err, errBoom)
	assert.True(t, IsIntegrandError(err))
	assert.GreaterOrEqual(t, obs.spanErrors, 1)
}

func TestExecute_Canceled(t *testing.T) {
	ar := Float64Arith{}
	g, err := NewGrid[float64](ar, 0, 1, 10)
	require.NoError(t, err)
	p, err := PlanFor(10, Tier2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Execute(ctx, ar, Func(math.Sin), g, p)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecute_ReportsEverySpan(t *testing.T) {
	ar := Float64Arith{}
	g, err := NewGrid[float64](ar, 0, 1, 1000)
	require.NoError(t, err)
	p, err := PlanFor(1000, Tier6)
	require.NoError(t, err)

	obs := newRecordingObserver()
	_, err = Execute(context.Background(), ar, Func(math.Sin), g, p, WithObserver(obs))
	require.NoError(t, err)

	assert.Equal(t, 3, obs.spans[Odd])
	assert.Equal(t, 3, obs.spans[Even])
	assert.Equal(t, 999, obs.samples)
	assert.Zero(t, obs.spanErrors)
}
