package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/parabola/internal/testutil"
)

// createTestStore creates a new store in a temp dir with deterministic IDs
// ("run-0001", "run-0002", ...).
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path, WithIDGenerator(testutil.NewSequentialIDGenerator("run")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a run with minimal required fields.
func createTestRun(integrand, mode string, tier int) Run {
	return Run{
		Integrand:  integrand,
		Lower:      0,
		Upper:      1,
		Iterations: 1000,
		Mode:       mode,
		Workers:    tier,
		Tier:       tier,
		Value:      "0.45969769",
		Duration:   time.Millisecond,
	}
}
