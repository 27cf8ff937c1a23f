package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/roach88/parabola/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string
	NoColor bool

	// Resolved by the root command before any subcommand runs.
	cfg    config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the parabola CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "parabola",
		Short: "parabola - parallel Simpson quadrature",
		Long: `Numerical integration with the composite Simpson rule.

Integrals are computed either sequentially in float64, or in fixed-precision
decimal arithmetic with the sample sums split across 2, 4 or 6 workers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.resolve(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored log output")

	cmd.AddCommand(NewIntegrateCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewBenchCommand(opts))
	cmd.AddCommand(NewJobsCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewIntegrandsCommand(opts))

	return cmd
}

// resolve loads the config file and installs the logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	o.cfg = config.Defaults()
	if o.Config != "" {
		cfg, err := config.Load(o.Config)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		o.cfg = cfg
	}

	level := o.cfg.SlogLevel()
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(tint.NewHandler(cmd.ErrOrStderr(), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
		NoColor:    o.NoColor,
	}))
	return nil
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // keeps diagnostics out of JSON output
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
