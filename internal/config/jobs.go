package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"gopkg.in/yaml.v3"
)

// Job is one integration to run, with schema defaults applied.
type Job struct {
	Name       string   `json:"name"`
	Integrand  string   `json:"integrand"`
	Lower      float64  `json:"lower"`
	Upper      float64  `json:"upper"`
	Iterations int      `json:"iterations"`
	Workers    int      `json:"workers"`
	Mode       string   `json:"mode"`
	Expect     *float64 `json:"expect,omitempty"`
	Tolerance  float64  `json:"tolerance"`
}

// jobSpec is a job as written in YAML. Pointer fields distinguish a
// missing key (schema default or error) from an explicit zero.
type jobSpec struct {
	Name       string   `yaml:"name" json:"name"`
	Integrand  string   `yaml:"integrand" json:"integrand"`
	Lower      *float64 `yaml:"lower" json:"lower,omitempty"`
	Upper      *float64 `yaml:"upper" json:"upper,omitempty"`
	Iterations *int     `yaml:"iterations" json:"iterations,omitempty"`
	Workers    *int     `yaml:"workers" json:"workers,omitempty"`
	Mode       string   `yaml:"mode" json:"mode,omitempty"`
	Expect     *float64 `yaml:"expect" json:"expect,omitempty"`
	Tolerance  *float64 `yaml:"tolerance" json:"tolerance,omitempty"`
}

type jobsSpec struct {
	Jobs []jobSpec `yaml:"jobs" json:"jobs"`
}

type jobsFile struct {
	Jobs []Job `json:"jobs"`
}

// LoadJobs reads a jobs file. The format follows the extension: .yaml and
// .yml are decoded strictly as YAML, .cue is evaluated as CUE (so bounds
// may be expressions such as math.Pi / 2).
func LoadJobs(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs file: %w", err)
	}

	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		return ParseJobsYAML(data)
	case ".cue":
		return ParseJobsCUE(data, path)
	default:
		return nil, fmt.Errorf("%w: unsupported jobs file extension %q", ErrInvalid, ext)
	}
}

// ParseJobsYAML decodes YAML jobs and validates them against #Jobs.
func ParseJobsYAML(data []byte) ([]Job, error) {
	var spec jobsSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	s, err := newSchema()
	if err != nil {
		return nil, err
	}
	return s.jobs(s.ctx.Encode(spec))
}

// ParseJobsCUE evaluates CUE source and validates it against #Jobs.
// filename is used in error positions.
func ParseJobsCUE(data []byte, filename string) ([]Job, error) {
	s, err := newSchema()
	if err != nil {
		return nil, err
	}
	return s.jobs(s.ctx.CompileBytes(data, cue.Filename(filename)))
}

func (s *schema) jobs(v cue.Value) ([]Job, error) {
	u, err := s.check("#Jobs", v)
	if err != nil {
		return nil, err
	}

	var file jobsFile
	if err := u.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}
	return file.Jobs, nil
}
