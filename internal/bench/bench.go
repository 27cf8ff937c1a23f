// Package bench times the sequential path against each parallel tier and
// checks that every tier agrees with the sequential result.
package bench

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/parabola/internal/quad"
)

// DefaultRepeat is the number of timed runs per case.
const DefaultRepeat = 5

// DefaultTolerance is the largest accepted |parallel - sequential|.
const DefaultTolerance = 0.001

// Target is the integral being benchmarked.
type Target struct {
	Name      string
	Integrand quad.Integrand
	A, B      float64
}

// Config controls a benchmark run. The zero value is usable.
type Config struct {
	Repeat     int
	Iterations int
	Tolerance  float64
	Precision  quad.Precision

	// Tiers lists the parallel tiers to time (default 2, 4, 6).
	Tiers []quad.Tier

	// Observer receives the timing reports of every call.
	Observer quad.Observer

	// Now is the clock the runs are timed with (default time.Now).
	Now func() time.Time

	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Repeat <= 0 {
		c.Repeat = DefaultRepeat
	}
	if c.Iterations <= 0 {
		c.Iterations = quad.DefaultIterations
	}
	if c.Tolerance <= 0 {
		c.Tolerance = DefaultTolerance
	}
	if !c.Precision.IsSet() {
		c.Precision = quad.DefaultPrecision()
	}
	if len(c.Tiers) == 0 {
		c.Tiers = []quad.Tier{quad.Tier2, quad.Tier4, quad.Tier6}
	}
	if c.Observer == nil {
		c.Observer = quad.NopObserver{}
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Case is the timing of one mode/tier combination.
type Case struct {
	Mode    quad.Mode       `json:"mode"`
	Tier    quad.Tier       `json:"tier"`
	Value   *apd.Decimal    `json:"value"`
	Timings []time.Duration `json:"timings_ns"`
	Min     time.Duration   `json:"min_ns"`
	Median  time.Duration   `json:"median_ns"`
	Mean    time.Duration   `json:"mean_ns"`

	// Deviation is |Value - sequential value| (zero for the sequential case).
	Deviation float64 `json:"deviation"`

	// Flagged is set when Deviation exceeds the tolerance.
	Flagged bool `json:"flagged"`
}

// Report is the outcome of Run. Cases[0] is always the sequential case.
type Report struct {
	Target     string  `json:"target"`
	Iterations int     `json:"iterations"`
	Repeat     int     `json:"repeat"`
	Tolerance  float64 `json:"tolerance"`
	Cases      []Case  `json:"cases"`
}

// Flagged returns the cases whose deviation exceeds the tolerance.
func (r Report) Flagged() []Case {
	var out []Case
	for _, c := range r.Cases {
		if c.Flagged {
			out = append(out, c)
		}
	}
	return out
}

// Run times target sequentially and on each tier, cfg.Repeat times each.
//
// Runs happen one after another so cases do not compete for CPUs. The
// first failing call aborts the benchmark.
func Run(ctx context.Context, target Target, cfg Config) (Report, error) {
	cfg = cfg.withDefaults()
	report := Report{
		Target:     target.Name,
		Iterations: cfg.Iterations,
		Repeat:     cfg.Repeat,
		Tolerance:  cfg.Tolerance,
	}

	seq, err := timeCase(ctx, cfg, quad.ModeSequential, quad.Tier2, func() (*apd.Decimal, error) {
		return quad.SequentialContext(ctx, target.Integrand, target.A, target.B,
			quad.WithIterations(cfg.Iterations), quad.WithObserver(cfg.Observer))
	})
	if err != nil {
		return Report{}, fmt.Errorf("bench %s sequential: %w", target.Name, err)
	}
	report.Cases = append(report.Cases, seq)

	for _, tier := range cfg.Tiers {
		c, err := timeCase(ctx, cfg, quad.ModeParallel, tier, func() (*apd.Decimal, error) {
			return quad.Parallel(ctx, target.Integrand, target.A, target.B,
				quad.WithIterations(cfg.Iterations),
				quad.WithWorkers(tier.Workers()),
				quad.WithPrecision(cfg.Precision),
				quad.WithObserver(cfg.Observer),
				quad.WithLogger(cfg.Logger))
		})
		if err != nil {
			return Report{}, fmt.Errorf("bench %s tier %d: %w", target.Name, tier, err)
		}

		c.Deviation, err = deviation(c.Value, seq.Value)
		if err != nil {
			return Report{}, fmt.Errorf("bench %s tier %d: %w", target.Name, tier, err)
		}
		c.Flagged = c.Deviation > cfg.Tolerance
		if c.Flagged {
			cfg.Logger.Warn("tier deviates from sequential result",
				"target", target.Name, "tier", int(tier),
				"deviation", c.Deviation, "tolerance", cfg.Tolerance)
		}
		report.Cases = append(report.Cases, c)
	}

	return report, nil
}

func timeCase(ctx context.Context, cfg Config, mode quad.Mode, tier quad.Tier, call func() (*apd.Decimal, error)) (Case, error) {
	c := Case{Mode: mode, Tier: tier, Timings: make([]time.Duration, 0, cfg.Repeat)}

	for i := 0; i < cfg.Repeat; i++ {
		if err := ctx.Err(); err != nil {
			return Case{}, err
		}
		start := cfg.Now()
		v, err := call()
		elapsed := cfg.Now().Sub(start)
		if err != nil {
			return Case{}, err
		}
		c.Value = v
		c.Timings = append(c.Timings, elapsed)
		cfg.Logger.Debug("bench run", "mode", string(mode), "tier", int(tier), "run", i, "elapsed", elapsed)
	}

	c.Min, c.Median, c.Mean = stats(c.Timings)
	return c, nil
}

// stats returns the minimum, median and mean of ds. ds must not be empty.
func stats(ds []time.Duration) (lo, median, mean time.Duration) {
	sorted := slices.Clone(ds)
	slices.Sort(sorted)

	var total time.Duration
	for _, d := range sorted {
		total += d
	}

	n := len(sorted)
	median = sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[0], median, total / time.Duration(n)
}

// deviationContext is wide enough for the difference of two results of any
// supported precision.
var deviationContext = apd.BaseContext.WithPrecision(quad.MaxPrecisionDigits + 2)

func deviation(v, ref *apd.Decimal) (float64, error) {
	d := new(apd.Decimal)
	if _, err := deviationContext.Sub(d, v, ref); err != nil {
		return 0, err
	}
	d.Abs(d)
	return d.Float64()
}
