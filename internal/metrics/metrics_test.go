package metrics

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/parabola/internal/quad"
)

func TestCollector_ObserveSpan(t *testing.T) {
	c := NewCollector()

	c.ObserveSpan(quad.Odd, 250, time.Millisecond, nil)
	c.ObserveSpan(quad.Odd, 250, time.Millisecond, nil)
	c.ObserveSpan(quad.Even, 249, time.Millisecond, nil)
	c.ObserveSpan(quad.Even, 100, time.Millisecond, errors.New("failed"))

	assert.Equal(t, 500.0, testutil.ToFloat64(c.spanSamples.WithLabelValues("odd")))
	assert.Equal(t, 249.0, testutil.ToFloat64(c.spanSamples.WithLabelValues("even")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.spanDuration))
}

func TestCollector_ObserveIntegration(t *testing.T) {
	c := NewCollector()

	c.ObserveIntegration("parallel", quad.Tier4, time.Millisecond, nil)
	c.ObserveIntegration("parallel", quad.Tier4, time.Millisecond, quad.NewDomainError(1, 0))
	c.ObserveIntegration("sequential", quad.Tier2, time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.integrations.WithLabelValues("parallel", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.integrations.WithLabelValues("parallel", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.integrations.WithLabelValues("sequential", "ok")))
}

// TestCollector_AsObserver wires the collector into a real call.
func TestCollector_AsObserver(t *testing.T) {
	c := NewCollector()

	_, err := quad.Parallel(context.Background(), quad.Func(math.Sin), 0, 1,
		quad.WithIterations(1000), quad.WithWorkers(6), quad.WithObserver(c))
	require.NoError(t, err)

	// 500 odd and 499 even interior samples.
	assert.Equal(t, 500.0, testutil.ToFloat64(c.spanSamples.WithLabelValues("odd")))
	assert.Equal(t, 499.0, testutil.ToFloat64(c.spanSamples.WithLabelValues("even")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.integrations.WithLabelValues("parallel", "ok")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.ObserveIntegration("sequential", quad.Tier2, time.Millisecond, nil)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `parabola_integrations_total{mode="sequential",outcome="ok"} 1`)
	assert.Contains(t, string(body), "parabola_integration_duration_seconds_bucket")
}

// TestNewCollector_Independent tests that collectors do not share state, so
// two can coexist in one process.
func TestNewCollector_Independent(t *testing.T) {
	a, b := NewCollector(), NewCollector()
	a.ObserveIntegration("parallel", quad.Tier6, time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.integrations.WithLabelValues("parallel", "ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.integrations.WithLabelValues("parallel", "ok")))
	assert.NotSame(t, a.Registry(), b.Registry())
}

func TestServer_ServesMetrics(t *testing.T) {
	c := NewCollector()
	c.ObserveIntegration("parallel", quad.Tier6, time.Millisecond, nil)

	srv, err := c.Listen("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `parabola_integrations_total{mode="parallel",outcome="ok"} 1`)
}

func TestServer_Shutdown(t *testing.T) {
	srv, err := NewCollector().Listen("127.0.0.1:0")
	require.NoError(t, err)

	require.NoError(t, srv.Shutdown(context.Background()))

	_, err = http.Get("http://" + srv.Addr() + "/metrics")
	assert.Error(t, err)
}

func TestListen_InvalidAddress(t *testing.T) {
	_, err := NewCollector().Listen("not-an-address")
	assert.Error(t, err)
}
