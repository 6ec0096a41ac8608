package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask [question]", askCmd.Use)
}

func TestAskCmd_HasChunksFlag(t *testing.T) {
	flag := askCmd.Flags().Lookup("chunks")
	require.NotNil(t, flag, "chunks flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
}

func TestAskCmd_RequiresExactlyOneArg(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	_, err := execute("ask")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestAskCmd_EmptyCorpus(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	out, err := execute("ask", "what is this about?")

	require.NoError(t, err)
	assert.Contains(t, out, "couldn't find any relevant information")
	assert.Contains(t, out, "Confidence: 0.00")
}

func TestAskCmd_AnswersFromIndexedDocument(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	path := writeTestFile(t, "resume.txt", "Skilled in Python, Docker and AWS deployments at scale.")
	_, err := execute("ingest", path)
	require.NoError(t, err)

	out, err := execute("ask", "what technical skills are listed?")

	require.NoError(t, err)
	assert.Contains(t, out, "Python")
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "resume.txt")
}

func TestAskCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	path := writeTestFile(t, "resume.txt", "Some content about distributed systems engineering.")
	_, err := execute("ingest", path)
	require.NoError(t, err)

	out, err := execute("ask", "--json", "what is this about?")
	defer func() { askJSON = false }()

	require.NoError(t, err)
	assert.Contains(t, out, "\"answer\"")
	assert.Contains(t, out, "\"confidence\"")
	assert.Contains(t, out, "\"sources\"")
}

func TestAskCmd_BlankQuestion(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	_, err := execute("ask", "   ")

	assert.Error(t, err)
}

func TestAskCmd_ServiceNotConfigured(t *testing.T) {
	oldEngine := engineService
	oldExtractor := extractorService
	SetServices(nil, nil)
	defer SetServices(oldEngine, oldExtractor)

	_, err := execute("ask", "anything")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
