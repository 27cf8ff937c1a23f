package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegrands_Text(t *testing.T) {
	stdout, _, err := executeCommand(t, "integrands")
	require.NoError(t, err)

	assert.Contains(t, stdout, "sin      sin(x)\n")
	assert.Contains(t, stdout, "radical  sqrt(2x^2+0.7)/(1.5+sqrt(0.8x+1))  (decimal)\n")
}

func TestIntegrands_JSON(t *testing.T) {
	stdout, _, err := executeCommand(t, "--format", "json", "integrands")
	require.NoError(t, err)

	resp := decodeResponse[IntegrandsResult](t, stdout)
	require.Len(t, resp.Data.Integrands, 7)
	assert.Equal(t, "cos", resp.Data.Integrands[0].Name)

	decimal := 0
	for _, e := range resp.Data.Integrands {
		if e.Decimal {
			decimal++
			assert.Equal(t, "radical", e.Name)
		}
	}
	assert.Equal(t, 1, decimal)
}

func TestIntegrands_RejectsArgs(t *testing.T) {
	_, _, err := executeCommand(t, "integrands", "sin")
	require.Error(t, err)
}
