package cli

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/parabola/internal/config"
	"github.com/roach88/parabola/internal/integrand"
	"github.com/roach88/parabola/internal/quad"
	"github.com/roach88/parabola/internal/store"
)

// JobsOptions holds flags for the jobs command.
type JobsOptions struct {
	*RootOptions
	callFlags
}

// JobResult is the outcome of one job.
type JobResult struct {
	Name   string           `json:"name"`
	Result *IntegrateResult `json:"result,omitempty"`
	Expect *float64         `json:"expect,omitempty"`

	// Deviation is |value - expect| (zero without an expectation).
	Deviation float64 `json:"deviation"`
	Tolerance float64 `json:"tolerance"`
	Passed    bool    `json:"passed"`
	Error     string  `json:"error,omitempty"`
}

// JobsResult is the output of the jobs command.
type JobsResult struct {
	File   string      `json:"file"`
	Jobs   []JobResult `json:"jobs"`
	Passed int         `json:"passed"`
	Failed int         `json:"failed"`
}

// RenderText implements TextRenderer.
func (r JobsResult) RenderText(w io.Writer, p *message.Printer) error {
	for _, j := range r.Jobs {
		mark := "ok  "
		if !j.Passed {
			mark = "FAIL"
		}
		switch {
		case j.Error != "":
			fmt.Fprintf(w, "%s %s: %s\n", mark, j.Name, j.Error)
		case j.Expect != nil:
			fmt.Fprintf(w, "%s %s: %s (expect %g, deviation %.2e, tolerance %g)\n",
				mark, j.Name, j.Result.Value, *j.Expect, j.Deviation, j.Tolerance)
		default:
			fmt.Fprintf(w, "%s %s: %s\n", mark, j.Name, j.Result.Value)
		}
	}
	p.Fprintf(w, "\n%d passed, %d failed, %d total\n", r.Passed, r.Failed, len(r.Jobs))
	return nil
}

// NewJobsCommand creates the jobs command.
func NewJobsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JobsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "jobs <file>",
		Short: "Run the integrations listed in a jobs file",
		Long: `Run the integrations listed in a YAML (.yaml, .yml) or CUE (.cue) jobs file.

Jobs run one after another. A job with an expect value passes when its result
is within tolerance of it; a job that fails to integrate fails. The command
exits with status 1 if any job fails.

Example jobs.yaml:
  jobs:
    - name: sin-quarter
      integrand: sin
      lower: 0
      upper: 1.5707963267948966
      iterations: 100000
      expect: 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobs(opts, args[0], cmd)
		},
	}

	opts.addPrecision(cmd)
	opts.addDatabase(cmd)

	return cmd
}

func runJobs(opts *JobsOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	opts.fill(cmd, opts.cfg)
	ctx := cmd.Context()

	jobs, err := config.LoadJobs(path)
	if err != nil {
		code := ErrCodeConfig
		if errors.Is(err, os.ErrNotExist) {
			code = ErrCodeUsage
		}
		return formatter.Fail(ExitCommandError, code, "failed to load jobs", err)
	}
	formatter.VerboseLog("Loaded %d job(s) from %s", len(jobs), path)

	out := JobsResult{File: path, Jobs: make([]JobResult, 0, len(jobs))}
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return formatter.FailIntegration("jobs interrupted", err)
		}
		jr := runJob(cmd, opts, job)
		if jr.Passed {
			out.Passed++
		} else {
			out.Failed++
		}
		out.Jobs = append(out.Jobs, jr)
	}

	err = withStore(opts.Database, func(st *store.Store) error {
		for i := range out.Jobs {
			res := out.Jobs[i].Result
			if res == nil {
				continue
			}
			run, err := st.WriteRun(ctx, res.Run())
			if err != nil {
				return err
			}
			res.RunID = run.ID
		}
		return nil
	})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to record runs", err)
	}

	var failure *CLIError
	if out.Failed > 0 {
		failure = &CLIError{
			Code:    ErrCodeMismatch,
			Message: fmt.Sprintf("%d job(s) failed", out.Failed),
		}
	}
	return formatter.Result(out, failure)
}

func runJob(cmd *cobra.Command, opts *JobsOptions, job config.Job) JobResult {
	jr := JobResult{Name: job.Name, Expect: job.Expect, Tolerance: job.Tolerance}
	logger := opts.logger.With("job", job.Name)

	f, err := integrand.Lookup(job.Integrand)
	if err != nil {
		jr.Error = err.Error()
		return jr
	}

	res, err := integrateOnce(cmd.Context(), logger, integration{
		target:     target{Name: job.Integrand, Integrand: f, Lower: job.Lower, Upper: job.Upper},
		Mode:       quad.Mode(job.Mode),
		Iterations: job.Iterations,
		Workers:    job.Workers,
		Precision:  opts.Precision,
	})
	if err != nil {
		logger.Warn("job failed", "error", err)
		jr.Error = err.Error()
		return jr
	}
	jr.Result = &res

	if job.Expect == nil {
		jr.Passed = true
		return jr
	}
	value, err := strconv.ParseFloat(res.Value, 64)
	if err != nil {
		jr.Error = fmt.Sprintf("parse value %q: %v", res.Value, err)
		return jr
	}
	jr.Deviation = math.Abs(value - *job.Expect)
	jr.Passed = jr.Deviation <= job.Tolerance
	if !jr.Passed {
		logger.Warn("job outside tolerance", "value", res.Value, "expect", *job.Expect, "deviation", jr.Deviation)
	}
	return jr
}
