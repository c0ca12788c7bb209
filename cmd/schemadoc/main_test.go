package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/schemadoc/internal/cli/config"
)

func testdata(name string) string {
	return filepath.Join("..", "..", "testdata", name)
}

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	config.ResetConfig()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestVersionCommand(t *testing.T) {
	code, out, _ := execute(t, "version")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "schemadoc v")
}

func TestHelpCommand(t *testing.T) {
	code, out, _ := execute(t, "--help")
	assert.Equal(t, exitOK, code)
	for _, expected := range []string{"validate", "export", "groups", "watch", "history", "completion"} {
		assert.Contains(t, out, expected)
	}
}

func TestValidate_Clean(t *testing.T) {
	code, out, stderr := execute(t,
		"--schema", testdata("schema.sql"),
		"--docs", testdata("projects.md")+","+testdata("users.md"),
		"--output", "markdown",
	)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, out, "# Schema validation")
	assert.Contains(t, out, "- **Tables compared**: 2")
	assert.Contains(t, out, "No schema violations detected.")
}

func TestValidate_Violations(t *testing.T) {
	code, out, stderr := execute(t, "validate",
		"--schema", testdata("schema.sql"),
		"--docs", testdata("invalid.md"),
		"--output", "json",
	)
	require.Equal(t, exitViolations, code, stderr)
	assert.NotContains(t, stderr, "Error:")

	var result struct {
		Report struct {
			Violations []struct {
				Kind    string `json:"kind"`
				Message string `json:"message"`
			} `json:"violations"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))

	var messages []string
	for _, v := range result.Report.Violations {
		messages = append(messages, v.Message)
	}
	assert.Contains(t, messages, "Missing table user")
	assert.Contains(t, messages, "Missing field name for table project")
	assert.Contains(t, messages, "Superfluous field title for table project")
	assert.Contains(t, messages, "type of field id in table project does not match: BIGINT vs. INTEGER")
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		errSubstr string
	}{
		{
			name:      "no schema",
			args:      []string{"validate", "--docs", testdata("projects.md")},
			errSubstr: "schema is required",
		},
		{
			name:      "missing file",
			args:      []string{"validate", "--schema", testdata("missing.sql"), "--docs", testdata("projects.md")},
			errSubstr: "missing.sql",
		},
		{
			name:      "bad output",
			args:      []string{"validate", "--output", "csv"},
			errSubstr: "invalid output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := execute(t, tt.args...)
			assert.Equal(t, exitError, code)
			assert.Contains(t, stderr, "Error: ")
			assert.Contains(t, stderr, tt.errSubstr)
		})
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	code, _, stderr := execute(t, "export",
		"--schema", testdata("schema.sql"),
		"--docs", testdata("projects.md"),
		"--export-dir", dir,
		"--export-format", "yaml",
		"--output", "json",
	)
	require.Equal(t, exitOK, code, stderr)
	assert.FileExists(t, filepath.Join(dir, "tables-schema.yaml"))
	assert.FileExists(t, filepath.Join(dir, "tables-documentation.yaml"))
}

func TestExport_Sources(t *testing.T) {
	code, out, stderr := execute(t, "export", testdata("users.md"))
	require.Equal(t, exitOK, code, stderr)

	var tree map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &tree))
	assert.Contains(t, tree, "table")
	assert.Contains(t, tree, "group")
}

func TestGroups(t *testing.T) {
	code, out, stderr := execute(t, "groups",
		"--docs", testdata("projects.md")+","+testdata("users.md"),
		"--output", "json",
	)
	require.Equal(t, exitOK, code, stderr)

	var groups []struct {
		Title  string   `json:"title"`
		Short  string   `json:"short"`
		Color  string   `json:"color"`
		Tables []string `json:"tables"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &groups))
	require.Len(t, groups, 2)
	assert.Equal(t, "Projects (shared)", groups[0].Title)
	assert.Equal(t, "#e69f00", groups[0].Color)
	assert.Equal(t, "ur", groups[1].Short)
	assert.Equal(t, []string{"user"}, groups[1].Tables)
}

func TestHistory(t *testing.T) {
	historyPath := filepath.Join(t.TempDir(), "runs", "history.db")

	code, _, stderr := execute(t, "validate",
		"--schema", testdata("schema.sql"),
		"--docs", testdata("invalid.md"),
		"--history", historyPath,
		"--output", "markdown",
	)
	require.Equal(t, exitViolations, code, stderr)
	_, err := os.Stat(historyPath)
	require.NoError(t, err)

	code, out, stderr := execute(t, "history", "list", "--history", historyPath, "--output", "json")
	require.Equal(t, exitOK, code, stderr)

	var runs []struct {
		ID         string `json:"id"`
		Violations int    `json:"violations"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Positive(t, runs[0].Violations)

	code, out, stderr = execute(t, "history", "show", runs[0].ID[:8], "--history", historyPath, "--output", "markdown")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, out, "# Run "+runs[0].ID)
	assert.Contains(t, out, "Missing table user")

	code, _, stderr = execute(t, "history", "list")
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "history is disabled")
}
