package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and returns what it wrote
// to stdout and stderr.
func executeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	err = cmd.ExecuteContext(t.Context())
	return out.String(), errOut.String(), err
}

// response is a CLIResponse with typed data.
type response[T any] struct {
	Status string    `json:"status"`
	Data   T         `json:"data"`
	Error  *CLIError `json:"error"`
}

func decodeResponse[T any](t *testing.T, stdout string) response[T] {
	t.Helper()
	var resp response[T]
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), "stdout: %s", stdout)
	return resp
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "parabola", cmd.Use)
	assert.Contains(t, cmd.Long, "Simpson")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"integrate", "plan", "bench", "jobs", "history", "integrands"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("no-color"))
}

func TestIntegrateCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	integrateCmd, _, err := cmd.Find([]string{"integrate"})
	require.NoError(t, err)

	for flag, def := range map[string]string{
		"mode":       "parallel",
		"iterations": "1000",
		"workers":    "0",
		"precision":  "8",
		"db":         "",
	} {
		f := integrateCmd.Flags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Equal(t, def, f.DefValue, flag)
	}
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	_, _, err := executeCommand(t, "--format", "invalid", "integrands")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConfigFile_AppliesDefaults(t *testing.T) {
	cfg := writeFile(t, "parabola.yaml", "precision: 12\niterations: 2000\nworkers: 4\n")

	stdout, _, err := executeCommand(t, "--config", cfg, "--format", "json", "integrate", "exp", "0", "1")
	require.NoError(t, err)

	resp := decodeResponse[IntegrateResult](t, stdout)
	assert.Equal(t, uint32(12), resp.Data.Precision)
	assert.Equal(t, 2000, resp.Data.Iterations)
	assert.Equal(t, 4, resp.Data.Tier)
}

func TestConfigFile_FlagsOverride(t *testing.T) {
	cfg := writeFile(t, "parabola.yaml", "precision: 12\n")

	stdout, _, err := executeCommand(t, "--config", cfg, "--format", "json", "integrate", "exp", "0", "1", "--precision", "6")
	require.NoError(t, err)

	resp := decodeResponse[IntegrateResult](t, stdout)
	assert.Equal(t, uint32(6), resp.Data.Precision)
}

func TestConfigFile_Invalid(t *testing.T) {
	cfg := writeFile(t, "parabola.yaml", "precision: 0\n")

	_, _, err := executeCommand(t, "--config", cfg, "integrands")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestVerboseLogsToStderr(t *testing.T) {
	stdout, stderr, err := executeCommand(t, "-v", "--no-color", "--format", "json",
		"integrate", "sin", "0", "1", "--workers", "2")
	require.NoError(t, err)

	assert.Contains(t, stderr, "integration done")
	assert.Equal(t, "ok", decodeResponse[IntegrateResult](t, stdout).Status)
}
