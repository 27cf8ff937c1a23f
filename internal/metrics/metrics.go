// Package metrics exposes integration timings as Prometheus metrics.
package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/parabola/internal/quad"
)

const namespace = "parabola"

// Collector records span and call timings on its own registry.
// It implements quad.Observer and is safe for concurrent use.
type Collector struct {
	registry *prometheus.Registry

	// spanDuration measures one worker's span sum.
	// Labels: class (odd, even)
	spanDuration *prometheus.HistogramVec

	// spanSamples counts integrand evaluations by pass.
	// Labels: class
	spanSamples *prometheus.CounterVec

	// integrations counts finished calls.
	// Labels: mode (sequential, parallel), outcome (ok, error)
	integrations *prometheus.CounterVec

	// integrationDuration measures whole calls.
	// Labels: mode
	integrationDuration *prometheus.HistogramVec
}

var _ quad.Observer = (*Collector)(nil)

// NewCollector creates a Collector with a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		spanDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "span_duration_seconds",
			Help:      "Time to sum one plan span in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"class"}),
		spanSamples: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "span_samples_total",
			Help:      "Integrand samples taken by plan spans",
		}, []string{"class"}),
		integrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "integrations_total",
			Help:      "Finished integration calls by mode and outcome",
		}, []string{"mode", "outcome"}),
		integrationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "integration_duration_seconds",
			Help:      "Wall time of integration calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"mode"}),
	}
}

// ObserveSpan implements quad.Observer. Samples of a failed span are not
// counted.
func (c *Collector) ObserveSpan(class quad.WeightClass, samples int, elapsed time.Duration, err error) {
	label := class.String()
	c.spanDuration.WithLabelValues(label).Observe(elapsed.Seconds())
	if err == nil {
		c.spanSamples.WithLabelValues(label).Add(float64(samples))
	}
}

// ObserveIntegration implements quad.Observer.
func (c *Collector) ObserveIntegration(mode string, _ quad.Tier, elapsed time.Duration, err error) {
	c.integrations.WithLabelValues(mode, outcome(err)).Inc()
	c.integrationDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// Registry returns the registry the metrics live on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Server serves a Collector at /metrics.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Listen starts serving c on addr ("127.0.0.1:0" picks a free port).
func (c *Collector) Listen(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	s := &Server{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
	}
	// Serve returns http.ErrServerClosed after Shutdown.
	go func() { _ = s.srv.Serve(ln) }()
	return s, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Shutdown stops the server, waiting for in-flight scrapes until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
