package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/parabola/internal/config"
	"github.com/roach88/parabola/internal/integrand"
	"github.com/roach88/parabola/internal/quad"
	"github.com/roach88/parabola/internal/store"
)

// callFlags are the integration settings shared by several commands.
// Flags the user does not set fall back to the config file.
type callFlags struct {
	Iterations int
	Workers    int
	Precision  uint32
	Database   string
}

func (f *callFlags) addIterations(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.Iterations, "iterations", quad.DefaultIterations, "number of samples (odd counts round up)")
}

func (f *callFlags) addWorkers(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.Workers, "workers", 0, "worker count selecting the 2/4/6 tier (0 = CPU count)")
}

func (f *callFlags) addPrecision(cmd *cobra.Command) {
	cmd.Flags().Uint32Var(&f.Precision, "precision", quad.DefaultDigits, "significant digits of the parallel path")
}

func (f *callFlags) addDatabase(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Database, "db", "", "record runs in this SQLite database")
}

// fill copies config values into the flags registered on cmd but not set
// on the command line.
func (f *callFlags) fill(cmd *cobra.Command, cfg config.Config) {
	unset := func(name string) bool {
		return cmd.Flags().Lookup(name) != nil && !cmd.Flags().Changed(name)
	}
	if unset("iterations") {
		f.Iterations = cfg.Iterations
	}
	if unset("workers") {
		f.Workers = cfg.Workers
	}
	if unset("precision") {
		f.Precision = cfg.Precision
	}
	if unset("db") {
		f.Database = cfg.Database
	}
}

// target is a named integrand over a parsed interval.
type target struct {
	Name      string
	Integrand quad.Integrand
	Lower     float64
	Upper     float64
}

// parseTarget parses "<integrand> <a> <b>". The interval itself is not
// checked here; b <= a is a domain error reported by the integration.
func parseTarget(args []string) (target, error) {
	if len(args) != 3 {
		return target{}, fmt.Errorf("expected <integrand> <a> <b>, got %d argument(s)", len(args))
	}
	f, err := integrand.Lookup(args[0])
	if err != nil {
		return target{}, err
	}
	a, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return target{}, fmt.Errorf("lower bound: %w", err)
	}
	b, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return target{}, fmt.Errorf("upper bound: %w", err)
	}
	return target{Name: args[0], Integrand: f, Lower: a, Upper: b}, nil
}

// usageCode classifies argument errors.
func usageCode(err error) string {
	if errors.Is(err, integrand.ErrUnknown) {
		return "UNKNOWN_INTEGRAND"
	}
	return ErrCodeUsage
}

// withStore opens path, runs fn and closes the store. An empty path means
// recording is disabled and fn is not called.
func withStore(path string, fn func(*store.Store) error) error {
	if path == "" {
		return nil
	}
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}
