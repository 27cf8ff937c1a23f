// Package config loads parabola's configuration and jobs files.
//
// YAML input is decoded strictly (unknown keys are errors) and then
// validated against the embedded CUE schema, which also supplies defaults
// for jobs. Jobs may also be written directly in CUE.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/parabola/internal/quad"
)

//go:embed schema.cue
var schemaCUE string

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the settings shared by all commands. Command-line flags
// override these values.
type Config struct {
	// Iterations is the default sample count.
	Iterations int `yaml:"iterations" json:"iterations"`

	// Workers is the default worker count (0 means the host CPU count).
	Workers int `yaml:"workers" json:"workers"`

	// Precision is the significant digits of the parallel path.
	Precision uint32 `yaml:"precision" json:"precision"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Database is the run history path (empty disables recording).
	Database string `yaml:"database" json:"database"`
}

// Defaults returns the configuration used when no file is given.
func Defaults() Config {
	return Config{
		Iterations: quad.DefaultIterations,
		Workers:    0,
		Precision:  quad.DefaultDigits,
		LogLevel:   "info",
	}
}

// Load reads a YAML configuration file. Keys missing from the file keep
// their Defaults value; unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML configuration.
func Parse(data []byte) (Config, error) {
	cfg := Defaults()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg against the #Config schema.
func (c Config) Validate() error {
	s, err := newSchema()
	if err != nil {
		return err
	}
	_, err = s.check("#Config", s.ctx.Encode(c))
	return err
}

// SlogLevel returns the slog level named by LogLevel.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// schema is the compiled CUE schema bound to its context.
type schema struct {
	ctx   *cue.Context
	value cue.Value
}

func newSchema() (*schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &schema{ctx: ctx, value: v}, nil
}

// check unifies v with the named definition and requires a concrete,
// error-free result.
func (s *schema) check(def string, v cue.Value) (cue.Value, error) {
	if err := v.Err(); err != nil {
		return cue.Value{}, invalid(err)
	}
	u := s.value.LookupPath(cue.ParsePath(def)).Unify(v)
	if err := u.Validate(cue.Concrete(true)); err != nil {
		return cue.Value{}, invalid(err)
	}
	return u, nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %s", ErrInvalid, cueerrors.Details(err, nil))
}
