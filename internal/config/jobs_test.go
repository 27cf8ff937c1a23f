package config

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestLoadJobs_YAMLAppliesDefaults(t *testing.T) {
	jobs, err := LoadJobs("testdata/jobs.yaml")
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	assert.Equal(t, Job{
		Name:       "sin-quarter",
		Integrand:  "sin",
		Lower:      0,
		Upper:      1.5707963267948966,
		Iterations: 1000,
		Workers:    0,
		Mode:       "parallel",
		Expect:     ptr(1.0),
		Tolerance:  0.001,
	}, jobs[0])

	assert.Equal(t, "sequential", jobs[1].Mode)
	assert.Equal(t, 10000, jobs[1].Iterations)
	assert.Nil(t, jobs[1].Expect)

	assert.Equal(t, 6, jobs[2].Workers)
	assert.InDelta(t, 0.0001, jobs[2].Tolerance, 1e-15)
	require.NotNil(t, jobs[2].Expect)
	assert.InDelta(t, 1.718281828, *jobs[2].Expect, 1e-12)
}

func TestLoadJobs_CUE(t *testing.T) {
	jobs, err := LoadJobs("testdata/jobs.cue")
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.InDelta(t, math.Pi/2, jobs[0].Upper, 1e-15)
	assert.Equal(t, "parallel", jobs[0].Mode)
	assert.Equal(t, 1000, jobs[0].Iterations)

	assert.Equal(t, "recip-e", jobs[1].Name)
	assert.InDelta(t, math.E, jobs[1].Upper, 1e-15)
	assert.Equal(t, 5000, jobs[1].Iterations)
	assert.Equal(t, "sequential", jobs[1].Mode)
}

func TestLoadJobs_Invalid(t *testing.T) {
	tests := []struct {
		file  string
		field string
	}{
		{"testdata/jobs_reversed.yaml", "upper"},
		{"testdata/jobs_missing_bound.yaml", "upper"},
		{"testdata/jobs_bad_mode.yaml", "mode"},
		{"testdata/jobs_empty.yaml", "jobs"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			_, err := LoadJobs(tt.file)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoadJobs_UnsupportedExtension(t *testing.T) {
	_, err := LoadJobs("config.go")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseJobsYAML_UnknownKey(t *testing.T) {
	_, err := ParseJobsYAML([]byte("jobs:\n  - name: x\n    integrand: sin\n    lower: 0\n    upper: 1\n    speed: 9\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "speed")
}

func TestParseJobsYAML_ExplicitZeroUpper(t *testing.T) {
	jobs, err := ParseJobsYAML([]byte("jobs:\n  - name: x\n    integrand: sin\n    lower: -1\n    upper: 0\n"))
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, -1.0, jobs[0].Lower)
	assert.Equal(t, 0.0, jobs[0].Upper)
}

func TestParseJobsCUE_SyntaxError(t *testing.T) {
	_, err := ParseJobsCUE([]byte("jobs: [{"), "broken.cue")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}
