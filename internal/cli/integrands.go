package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/parabola/internal/integrand"
)

// IntegrandsResult lists the registry.
type IntegrandsResult struct {
	Integrands []integrand.Entry `json:"integrands"`
}

// RenderText implements TextRenderer.
func (r IntegrandsResult) RenderText(w io.Writer, _ *message.Printer) error {
	for _, e := range r.Integrands {
		arith := ""
		if e.Decimal {
			arith = "  (decimal)"
		}
		fmt.Fprintf(w, "%-8s %s%s\n", e.Name, e.Formula, arith)
	}
	return nil
}

// NewIntegrandsCommand creates the integrands command.
func NewIntegrandsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "integrands",
		Short: "List the functions that can be integrated by name",
		Long: `List the functions that can be integrated by name.

Integrands marked (decimal) are evaluated in decimal arithmetic at the
call's precision on the parallel path; the others are evaluated in float64
and converted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.formatter(cmd).Success(IntegrandsResult{Integrands: integrand.Entries()})
		},
	}
}
