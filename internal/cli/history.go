package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/parabola/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	callFlags
	Integrand string
	Limit     int
	Summary   bool
	Check     bool
}

// HistoryResult is the output of the history command.
type HistoryResult struct {
	Runs      []store.Run      `json:"runs"`
	Summaries []store.Summary  `json:"summaries,omitempty"`
	Conflicts []store.Conflict `json:"conflicts,omitempty"`
}

// RenderText implements TextRenderer.
func (r HistoryResult) RenderText(w io.Writer, p *message.Printer) error {
	if len(r.Runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
	}
	for _, run := range r.Runs {
		p.Fprintf(w, "%4d %-10s %-10s", run.Seq, run.Integrand, run.Mode)
		p.Fprintf(w, " tier=%d iterations=%d", run.Tier, run.Iterations)
		fmt.Fprintf(w, " [%g, %g] %s %s\n", run.Lower, run.Upper, run.Value, run.Duration)
	}

	if len(r.Summaries) > 0 {
		fmt.Fprintln(w)
		for _, s := range r.Summaries {
			p.Fprintf(w, "%-10s %-10s tier=%d runs=%d", s.Integrand, s.Mode, s.Tier, s.Runs)
			fmt.Fprintf(w, " min=%s mean=%s last=%s\n", s.MinDuration, s.MeanDuration, s.LastValue)
		}
	}

	for _, c := range r.Conflicts {
		fmt.Fprintf(w, "conflict %s %s tier=%d request=%s: %s\n",
			c.Integrand, c.Mode, c.Tier, shortHash(c.Request), strings.Join(c.Values, " != "))
	}
	return nil
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List the runs recorded by integrate, bench and jobs with --db.

Runs are listed oldest first. --summary adds per mode and tier aggregates
for --integrand. --check looks for identical requests recorded with
different values (the quadrature is deterministic, so any such pair is a
regression) and exits with status 1 if it finds one.

Example:
  parabola history --db runs.db --integrand radical --summary
  parabola history --db runs.db --check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	opts.addDatabase(cmd)
	cmd.Flags().StringVar(&opts.Integrand, "integrand", "", "only list runs of this integrand")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "only list the most recent runs (0 = all)")
	cmd.Flags().BoolVar(&opts.Summary, "summary", false, "aggregate runs of --integrand per mode and tier")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "fail if identical requests have different values")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	opts.fill(cmd, opts.cfg)
	ctx := cmd.Context()

	if opts.Database == "" {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, "invalid arguments", errors.New("--db is required"))
	}
	if opts.Summary && opts.Integrand == "" {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, "invalid arguments", errors.New("--summary needs --integrand"))
	}
	if opts.Limit < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, "invalid arguments",
			fmt.Errorf("--limit must not be negative, got %d", opts.Limit))
	}
	// Listing must not create a database as a side effect.
	if _, err := os.Stat(opts.Database); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "database not found", err)
	}

	var result HistoryResult
	err := withStore(opts.Database, func(st *store.Store) error {
		var err error
		result.Runs, err = st.ListRuns(ctx, store.RunFilter{Integrand: opts.Integrand, Limit: opts.Limit})
		if err != nil {
			return err
		}
		if opts.Summary {
			if result.Summaries, err = st.Summaries(ctx, opts.Integrand); err != nil {
				return err
			}
		}
		if opts.Check {
			if result.Conflicts, err = st.Conflicts(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to read history", err)
	}

	var failure *CLIError
	if len(result.Conflicts) > 0 {
		failure = &CLIError{
			Code:    ErrCodeMismatch,
			Message: fmt.Sprintf("%d request(s) recorded with different values", len(result.Conflicts)),
		}
	}
	return formatter.Result(result, failure)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
