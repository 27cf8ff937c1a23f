package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/parabola/internal/bench"
	"github.com/roach88/parabola/internal/metrics"
	"github.com/roach88/parabola/internal/quad"
	"github.com/roach88/parabola/internal/store"
)

// BenchOptions holds flags for the bench command.
type BenchOptions struct {
	*RootOptions
	callFlags
	Repeat        int
	Tolerance     float64
	MetricsAddr   string
	MetricsLinger time.Duration
}

// BenchResult is the output of the bench command.
type BenchResult struct {
	bench.Report
	Lower float64  `json:"lower"`
	Upper float64  `json:"upper"`
	Runs  []string `json:"run_ids,omitempty"`
}

// RenderText implements TextRenderer.
func (r BenchResult) RenderText(w io.Writer, p *message.Printer) error {
	fmt.Fprintf(w, "%s on [%g, %g]\n", r.Target, r.Lower, r.Upper)
	p.Fprintf(w, "%d iterations, %d runs per case", r.Iterations, r.Repeat)
	fmt.Fprintf(w, ", tolerance %g\n", r.Tolerance)
	fmt.Fprintf(w, "%-10s %4s %-14s %12s %12s %12s %10s\n", "mode", "tier", "value", "min", "median", "mean", "deviation")
	for _, c := range r.Cases {
		tier := "-"
		if c.Mode == quad.ModeParallel {
			tier = fmt.Sprint(int(c.Tier))
		}
		flag := ""
		if c.Flagged {
			flag = "  !"
		}
		fmt.Fprintf(w, "%-10s %4s %-14s %12s %12s %12s %10.2e%s\n",
			c.Mode, tier, c.Value.String(), c.Min, c.Median, c.Mean, c.Deviation, flag)
	}
	return nil
}

// NewBenchCommand creates the bench command.
func NewBenchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BenchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bench <integrand> <a> <b>",
		Short: "Time the sequential path against every parallel tier",
		Long: `Time the sequential path and the 2, 4 and 6 worker tiers.

Each case runs --repeat times. Every tier's value is compared with the
sequential value; a deviation above --tolerance is flagged and makes the
command exit with status 1.

With --metrics-addr, span and call timings are served in the Prometheus
format at /metrics while the benchmark runs (and for --metrics-linger
afterwards).

Example:
  parabola bench radical 1.2 3 --iterations 10000 --repeat 10
  parabola bench sin 0 1.5707963267948966 --metrics-addr :9090 --metrics-linger 1m`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(opts, args, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Repeat, "repeat", bench.DefaultRepeat, "timed runs per case")
	cmd.Flags().Float64Var(&opts.Tolerance, "tolerance", bench.DefaultTolerance, "largest accepted |parallel - sequential|")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().DurationVar(&opts.MetricsLinger, "metrics-linger", 0, "keep serving metrics this long after the benchmark")
	opts.addIterations(cmd)
	opts.addPrecision(cmd)
	opts.addDatabase(cmd)

	return cmd
}

func runBench(opts *BenchOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	opts.fill(cmd, opts.cfg)
	ctx := cmd.Context()

	t, err := parseTarget(args)
	if err != nil {
		return formatter.Fail(ExitCommandError, usageCode(err), "invalid arguments", err)
	}
	if opts.Repeat <= 0 {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, "invalid arguments",
			fmt.Errorf("--repeat must be positive, got %d", opts.Repeat))
	}
	if opts.Tolerance <= 0 {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, "invalid arguments",
			fmt.Errorf("--tolerance must be positive, got %g", opts.Tolerance))
	}
	prec, err := quad.NewPrecision(opts.Precision)
	if err != nil {
		return formatter.FailIntegration("invalid precision", err)
	}

	collector := metrics.NewCollector()
	if opts.MetricsAddr != "" {
		srv, err := collector.Listen(opts.MetricsAddr)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeUsage, "failed to serve metrics", err)
		}
		opts.logger.Info("serving metrics", "addr", "http://"+srv.Addr()+"/metrics")
		defer func() {
			linger(ctx, opts.MetricsLinger)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	report, err := bench.Run(ctx, bench.Target{
		Name:      t.Name,
		Integrand: t.Integrand,
		A:         t.Lower,
		B:         t.Upper,
	}, bench.Config{
		Repeat:     opts.Repeat,
		Iterations: opts.Iterations,
		Tolerance:  opts.Tolerance,
		Precision:  prec,
		Observer:   collector,
		Logger:     opts.logger,
	})
	if err != nil {
		return formatter.FailIntegration("benchmark failed", err)
	}

	result := BenchResult{Report: report, Lower: t.Lower, Upper: t.Upper}
	err = withStore(opts.Database, func(st *store.Store) error {
		for _, c := range report.Cases {
			run, err := st.WriteRun(ctx, benchRun(t, report, c, opts.Precision))
			if err != nil {
				return err
			}
			result.Runs = append(result.Runs, run.ID)
		}
		return nil
	})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to record runs", err)
	}

	var failure *CLIError
	if flagged := report.Flagged(); len(flagged) > 0 {
		failure = &CLIError{
			Code:    ErrCodeMismatch,
			Message: fmt.Sprintf("%d tier(s) deviate from the sequential result by more than %g", len(flagged), report.Tolerance),
		}
	}
	return formatter.Result(result, failure)
}

// benchRun records a benchmark case with its median time.
func benchRun(t target, report bench.Report, c bench.Case, digits uint32) store.Run {
	// bench.Run succeeded, so the count is valid.
	panels, _ := quad.Panels(report.Iterations)
	run := store.Run{
		Integrand:  t.Name,
		Lower:      t.Lower,
		Upper:      t.Upper,
		Iterations: panels,
		Mode:       string(c.Mode),
		Workers:    c.Tier.Workers(),
		Tier:       int(c.Tier),
		Value:      c.Value.String(),
		Duration:   c.Median,
	}
	if c.Mode == quad.ModeSequential {
		run.Workers = 1
	} else {
		run.Precision = digits
	}
	return run
}

// linger blocks for d or until ctx is done.
func linger(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
