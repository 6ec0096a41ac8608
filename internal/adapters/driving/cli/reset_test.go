package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetCmd_Use(t *testing.T) {
	assert.Equal(t, "reset", resetCmd.Use)
}

func TestResetCmd_Force(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	path := writeTestFile(t, "notes.txt", "Content that will be wiped.")
	_, err := execute("ingest", path)
	require.NoError(t, err)

	out, err := execute("reset", "--force")
	defer func() { resetForce = false }()

	require.NoError(t, err)
	assert.Contains(t, out, "All documents removed")

	out, err = execute("stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Documents: 0")
}

func TestResetCmd_AbortsWithoutConfirmation(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("n\n"))
	defer rootCmd.SetIn(nil)

	out, err := execute("reset")

	require.NoError(t, err)
	assert.Contains(t, out, "Aborted")
}
