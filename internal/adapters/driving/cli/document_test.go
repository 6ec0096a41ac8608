package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentCmd_Use(t *testing.T) {
	assert.Equal(t, "document", documentCmd.Use)
}

func TestDocumentCmd_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, sub := range documentCmd.Commands() {
		names[sub.Name()] = true
	}

	assert.True(t, names["list"])
	assert.True(t, names["get"])
	assert.True(t, names["delete"])
}

func TestDocumentList_Empty(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	out, err := execute("document", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents indexed")
}

func TestDocumentList_ShowsIngestedDocuments(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	path := writeTestFile(t, "notes.txt", "Indexable content for listing.")
	_, err := execute("ingest", "--id", "doc-list-test", path)
	require.NoError(t, err)
	ingestID = ""

	out, err := execute("document", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "doc-list-test")
	assert.Contains(t, out, "notes.txt")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "Total: 1 documents")
}

func TestDocumentGet(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	path := writeTestFile(t, "notes.txt", "Indexable content for get.")
	_, err := execute("ingest", "--id", "doc-get-test", path)
	require.NoError(t, err)
	ingestID = ""

	out, err := execute("document", "get", "doc-get-test")

	require.NoError(t, err)
	assert.Contains(t, out, "doc-get-test")
	assert.Contains(t, out, "notes.txt")
	assert.Contains(t, out, "completed")
}

func TestDocumentGet_NotFound(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	_, err := execute("document", "get", "missing-id")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "document not found")
}

func TestDocumentDelete(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	path := writeTestFile(t, "notes.txt", "Indexable content for delete.")
	_, err := execute("ingest", "--id", "doc-del-test", path)
	require.NoError(t, err)
	ingestID = ""

	out, err := execute("document", "delete", "doc-del-test")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted document doc-del-test")

	// It is gone now.
	_, err = execute("document", "get", "doc-del-test")
	assert.Error(t, err)
}

func TestDocumentDelete_NothingIndexed(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	out, err := execute("document", "delete", "never-existed")

	require.NoError(t, err)
	assert.Contains(t, out, "No indexed chunks found")
}
