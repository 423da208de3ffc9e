package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/bianoble/modsync/internal/engine"
	"github.com/bianoble/modsync/pkg/modsync"
)

// runCLI executes the root command with args and fresh global flags.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, repoRoot, envFile = "", ".", ""
	verbosity, quiet, noColor, logJSON, metricsFile = 0, false, true, false, ""
	reconcileContentFile, reconcileOutput, reconcileResultFile = "", formatText, ""
	reconcileTidy, reconcileDocker, initForce = false, false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{2684354560, "2.5 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, humanSize(tt.bytes), "humanSize(%d)", tt.bytes)
	}
}

func sampleOutcomes() []modsync.Outcome {
	return []modsync.Outcome{
		engine.WriteOutcome("go.sum", []byte("h1:abc\n")),
		engine.DeleteOutcome("vendor/old/old.go"),
	}
}

func TestRenderOutcomesJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderOutcomes(&buf, formatJSON, sampleOutcomes()))

	var got []outcomeView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, outcomeView{Op: "write", Path: "go.sum", Contents: "h1:abc\n"}, got[0])
	assert.Equal(t, outcomeView{Op: "delete", Path: "vendor/old/old.go"}, got[1])
}

func TestRenderOutcomesYAML(t *testing.T) {
	var buf bytes.Buffer
	outcomes := []modsync.Outcome{{ArtifactError: &modsync.ArtifactError{ArtifactPath: "go.sum", Message: "go: boom\n"}}}
	require.NoError(t, renderOutcomes(&buf, formatYAML, outcomes))

	var got []outcomeView
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "go.sum", got[0].Path)
	assert.Equal(t, "go: boom\n", got[0].Error)
}

func TestRenderOutcomesText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderOutcomes(&buf, formatText, sampleOutcomes()))
	assert.Contains(t, buf.String(), "write  go.sum (7 B)")
	assert.Contains(t, buf.String(), "delete vendor/old/old.go")

	buf.Reset()
	require.NoError(t, renderOutcomes(&buf, formatText, nil))
	assert.Contains(t, buf.String(), "No changes.")
}

func TestRenderOutcomesUnknownFormat(t *testing.T) {
	err := renderOutcomes(&bytes.Buffer{}, "xml", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestResultFormat(t *testing.T) {
	assert.Equal(t, formatYAML, resultFormat("out.yml"))
	assert.Equal(t, formatYAML, resultFormat("OUT.YAML"))
	assert.Equal(t, formatJSON, resultFormat("out.json"))
	assert.Equal(t, formatJSON, resultFormat("out"))
}

func TestColorDisabledForBuffers(t *testing.T) {
	assert.False(t, isTerminal(&bytes.Buffer{}))
	assert.False(t, colorEnabled(&bytes.Buffer{}))
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "modsync dev")
}
