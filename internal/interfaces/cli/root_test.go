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

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTempText(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "draft.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootRegistersSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["analyze"])
	assert.True(t, names["watch"])
	assert.True(t, names["export"])
}

func TestAnalyzeRendersJSON(t *testing.T) {
	path := writeTempText(t, "The quick brown fox jumps over the lazy dog near the river each morning.")

	out, err := execute(t, "analyze", path, "--format", "json")
	require.NoError(t, err)

	var doc struct {
		Text        string          `json:"text"`
		Annotations json.RawMessage `json:"annotations"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc.Text, "quick brown fox")
}

func TestAnalyzeWritesOutputFile(t *testing.T) {
	path := writeTempText(t, "Short draft.")
	outPath := filepath.Join(t.TempDir(), "report.html")

	_, err := execute(t, "analyze", path, "--format", "html", "--out", outPath)
	require.NoError(t, err)

	rendered, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(rendered), "<html")
}

func TestAnalyzeRejectsUnknownFormat(t *testing.T) {
	path := writeTempText(t, "Short draft.")

	_, err := execute(t, "analyze", path, "--format", "pdf")
	assert.Error(t, err)
}

func TestAnalyzeRejectsUnknownPolicy(t *testing.T) {
	path := writeTempText(t, "Short draft.")

	_, err := execute(t, "analyze", path, "--policy", "lenient")
	assert.Error(t, err)
}

func TestAnalyzeMissingFile(t *testing.T) {
	_, err := execute(t, "analyze", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
