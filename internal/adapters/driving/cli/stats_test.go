package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsCmd_Use(t *testing.T) {
	assert.Equal(t, "stats", statsCmd.Use)
}

func TestStatsCmd_EmptyEngine(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	out, err := execute("stats")

	require.NoError(t, err)
	assert.Contains(t, out, "Documents: 0")
	assert.Contains(t, out, "Chunks: 0")
	assert.Contains(t, out, "feature-hashing")
}

func TestStatsCmd_AfterIngest(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	path := writeTestFile(t, "notes.txt", "Some content to push the counters up.")
	_, err := execute("ingest", path)
	require.NoError(t, err)

	out, err := execute("stats")

	require.NoError(t, err)
	assert.Contains(t, out, "Documents: 1")
}

func TestStatsCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	out, err := execute("stats", "--json")
	defer func() { statsJSON = false }()

	require.NoError(t, err)
	assert.Contains(t, out, "\"total_documents\"")
	assert.Contains(t, out, "\"embedding_model\"")
}
