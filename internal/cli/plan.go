package cli

import (
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/parabola/internal/quad"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	callFlags
}

// PlanView is the JSON form of a partition plan.
type PlanView struct {
	Tier    int             `json:"tier"`
	Panels  int             `json:"panels"`
	Entries []PlanEntryView `json:"entries"`

	plan quad.Plan
}

// PlanEntryView is one span of a PlanView. First and Last are sample
// indices on the grid; an empty span has Count 0 and no indices.
type PlanEntryView struct {
	Class string `json:"class"`
	First int    `json:"first,omitempty"`
	Last  int    `json:"last,omitempty"`
	Count int    `json:"count"`
}

func newPlanView(p quad.Plan) PlanView {
	v := PlanView{Tier: int(p.Tier), Panels: p.Panels, plan: p}
	for _, e := range p.Entries() {
		ev := PlanEntryView{Class: e.Class.String(), Count: e.Span.Count}
		if !e.Span.Empty() {
			ev.First, ev.Last = e.Span.First, e.Span.Last()
		}
		v.Entries = append(v.Entries, ev)
	}
	return v
}

// RenderText implements TextRenderer.
func (v PlanView) RenderText(w io.Writer, _ *message.Printer) error {
	_, err := io.WriteString(w, v.plan.String())
	return err
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show how the Simpson passes are split across workers",
		Long: `Show the partition plan for a sample count and worker count.

Each line is one plan entry: the pass it belongs to (odd samples weigh 4,
even samples weigh 2) and the first and last grid index it sums. The plan
is verified against the unpartitioned passes before it is printed.

Example:
  parabola plan --iterations 12 --workers 6`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, cmd)
		},
	}

	opts.addIterations(cmd)
	opts.addWorkers(cmd)

	return cmd
}

func runPlan(opts *PlanOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	opts.fill(cmd, opts.cfg)

	n, err := quad.Panels(opts.Iterations)
	if err != nil {
		return formatter.FailIntegration("invalid plan request", err)
	}
	plan, err := quad.PlanFor(n, quad.TierFor(quad.ResolveWorkers(opts.Workers)))
	if err != nil {
		return formatter.FailIntegration("invalid plan", err)
	}

	return formatter.Success(newPlanView(plan))
}
