package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/parabola/internal/quad"
	"github.com/roach88/parabola/internal/store"
)

// IntegrateOptions holds flags for the integrate command.
type IntegrateOptions struct {
	*RootOptions
	callFlags
	Mode string
}

// IntegrateResult is the outcome of one integration.
type IntegrateResult struct {
	Integrand string  `json:"integrand"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	Mode      string  `json:"mode"`

	// Iterations is the panel count actually used (odd requests round up).
	Iterations int `json:"iterations"`

	Workers   int           `json:"workers"`
	Tier      int           `json:"tier"`
	Precision uint32        `json:"precision,omitempty"`
	Value     string        `json:"value"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	RunID     string        `json:"run_id,omitempty"`
}

// RenderText implements TextRenderer.
func (r IntegrateResult) RenderText(w io.Writer, p *message.Printer) error {
	fmt.Fprintf(w, "%s on [%g, %g]: %s\n", r.Integrand, r.Lower, r.Upper, r.Value)
	p.Fprintf(w, "  mode=%s tier=%d iterations=%d", r.Mode, r.Tier, r.Iterations)
	if r.Precision > 0 {
		p.Fprintf(w, " precision=%d", r.Precision)
	}
	fmt.Fprintf(w, " elapsed=%s\n", r.Elapsed)
	if r.RunID != "" {
		fmt.Fprintf(w, "  run=%s\n", r.RunID)
	}
	return nil
}

// Run converts r into a run history record.
func (r IntegrateResult) Run() store.Run {
	return store.Run{
		Integrand:  r.Integrand,
		Lower:      r.Lower,
		Upper:      r.Upper,
		Iterations: r.Iterations,
		Mode:       r.Mode,
		Workers:    r.Workers,
		Tier:       r.Tier,
		Precision:  r.Precision,
		Value:      r.Value,
		Duration:   r.Elapsed,
	}
}

// NewIntegrateCommand creates the integrate command.
func NewIntegrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IntegrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "integrate <integrand> <a> <b>",
		Short: "Integrate a named function over [a, b]",
		Long: `Integrate a named function over [a, b] with the composite Simpson rule.

Sequential mode sums in float64 on one goroutine and rounds the result to 8
fractional digits. Parallel mode sums in decimal arithmetic at the given
precision, split across 2, 4 or 6 workers depending on --workers.

Example:
  parabola integrate sin 0 1.5707963267948966 --iterations 100000
  parabola integrate radical 1.2 3 --mode parallel --workers 6 --db runs.db`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntegrate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Mode, "mode", string(quad.ModeParallel), "integration mode (sequential|parallel)")
	opts.addIterations(cmd)
	opts.addWorkers(cmd)
	opts.addPrecision(cmd)
	opts.addDatabase(cmd)

	return cmd
}

func runIntegrate(opts *IntegrateOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	opts.fill(cmd, opts.cfg)

	t, err := parseTarget(args)
	if err != nil {
		return formatter.Fail(ExitCommandError, usageCode(err), "invalid arguments", err)
	}
	mode, err := parseMode(opts.Mode)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, "invalid arguments", err)
	}

	result, err := integrateOnce(cmd.Context(), opts.logger, integration{
		target:     t,
		Mode:       mode,
		Iterations: opts.Iterations,
		Workers:    opts.Workers,
		Precision:  opts.Precision,
	})
	if err != nil {
		return formatter.FailIntegration("integration failed", err)
	}

	err = withStore(opts.Database, func(st *store.Store) error {
		run, err := st.WriteRun(cmd.Context(), result.Run())
		if err != nil {
			return err
		}
		result.RunID = run.ID
		opts.logger.Debug("run recorded", "id", run.ID, "seq", run.Seq, "db", opts.Database)
		return nil
	})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to record run", err)
	}

	return formatter.Success(result)
}

// integration is one fully resolved integration request.
type integration struct {
	target
	Mode       quad.Mode
	Iterations int
	Workers    int
	Precision  uint32
}

func parseMode(s string) (quad.Mode, error) {
	switch m := quad.Mode(s); m {
	case quad.ModeSequential, quad.ModeParallel:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q (want sequential or parallel)", s)
}

// integrateOnce runs req and times it.
func integrateOnce(ctx context.Context, logger *slog.Logger, req integration) (IntegrateResult, error) {
	res := IntegrateResult{
		Integrand: req.Name,
		Lower:     req.Lower,
		Upper:     req.Upper,
		Mode:      string(req.Mode),
	}
	opts := []quad.Option{quad.WithIterations(req.Iterations), quad.WithLogger(logger)}

	var (
		value *apd.Decimal
		err   error
	)
	start := time.Now()
	switch req.Mode {
	case quad.ModeSequential:
		res.Workers, res.Tier = 1, int(quad.Tier2)
		value, err = quad.SequentialContext(ctx, req.Integrand, req.Lower, req.Upper, opts...)
	default:
		prec, perr := quad.NewPrecision(req.Precision)
		if perr != nil {
			return IntegrateResult{}, perr
		}
		res.Workers = quad.ResolveWorkers(req.Workers)
		res.Tier = int(quad.TierFor(res.Workers))
		res.Precision = req.Precision
		opts = append(opts, quad.WithWorkers(res.Workers), quad.WithPrecision(prec))
		value, err = quad.Parallel(ctx, req.Integrand, req.Lower, req.Upper, opts...)
	}
	res.Elapsed = time.Since(start)
	if err != nil {
		return IntegrateResult{}, err
	}

	if res.Iterations, err = quad.Panels(req.Iterations); err != nil {
		return IntegrateResult{}, err
	}
	res.Value = value.String()
	return res, nil
}
