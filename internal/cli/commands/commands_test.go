package commands

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/schemadoc/internal/cli/output"
	"github.com/leapstack-labs/schemadoc/internal/cli/testutil"
	"github.com/leapstack-labs/schemadoc/internal/history"
	"github.com/leapstack-labs/schemadoc/pkg/compare"
)

func TestNewValidateCommand(t *testing.T) {
	cmd := NewValidateCommand()

	assert.Equal(t, "validate", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
	assert.Error(t, cmd.Args(cmd, []string{"extra"}))
}

func TestNewExportCommand(t *testing.T) {
	cmd := NewExportCommand()

	assert.Equal(t, "export [source...]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
}

func TestNewGroupsCommand(t *testing.T) {
	cmd := NewGroupsCommand()

	assert.Equal(t, "groups", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
}

func TestNewWatchCommand(t *testing.T) {
	cmd := NewWatchCommand()

	assert.Equal(t, "watch", cmd.Use)
	flag := cmd.Flags().Lookup("debounce")
	require.NotNil(t, flag, "flag debounce should exist")
	assert.Equal(t, "200ms", flag.DefValue)
}

func TestNewHistoryCommand(t *testing.T) {
	cmd := NewHistoryCommand()

	assert.Equal(t, "history", cmd.Use)

	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"list", "show"}, names)

	list, _, err := cmd.Find([]string{"list"})
	require.NoError(t, err)
	limit := list.Flags().Lookup("limit")
	require.NotNil(t, limit, "flag limit should exist")
	assert.Equal(t, "n", limit.Shorthand)
	assert.Equal(t, "20", limit.DefValue)

	show, _, err := cmd.Find([]string{"show"})
	require.NoError(t, err)
	assert.Error(t, show.Args(show, nil))
	assert.NoError(t, show.Args(show, []string{"abc"}))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0190a3b2", shortID("0190a3b2-7c1d-7e4f-8a9b-0c1d2e3f4a5b"))
	assert.Equal(t, "abc", shortID("abc"))
	assert.Empty(t, shortID(""))
}

func sampleOutput() *ValidateOutput {
	return &ValidateOutput{
		Schema:        "schema.sql",
		Documentation: []string{"DATA.md", "EXTRA.md"},
		Report: &compare.Report{
			Tables: 2,
			Violations: []compare.Violation{
				{Kind: compare.KindMissing, Table: "user", Message: "Missing table user"},
				{Kind: compare.KindPrimaryKey, Table: "project", Field: "id", Message: "Missing primary_key of field id in table project"},
			},
		},
		Run: &history.Run{ID: "0190a3b2-7c1d", StartedAt: time.Now()},
	}
}

func TestValidateMarkdown(t *testing.T) {
	tr := testutil.NewTestRendererMarkdown()
	out := sampleOutput()

	validateMarkdown(tr.Renderer, out)

	got := tr.Output()
	testutil.AssertOutputMode(t, tr, output.ModeMarkdown)
	assert.Contains(t, got, "# Schema validation")
	assert.Contains(t, got, "- **Documentation**: DATA.md, EXTRA.md")
	assert.Contains(t, got, "- **Run**: 0190a3b2-7c1d")
	assert.Contains(t, got, "## Violations (2)")
	assert.Contains(t, got, "| Kind")
	assert.Contains(t, got, "Missing table user")
}

func TestValidateMarkdown_Clean(t *testing.T) {
	tr := testutil.NewTestRendererMarkdown()
	out := sampleOutput()
	out.Report.Violations = nil
	out.Run = nil

	validateMarkdown(tr.Renderer, out)

	assert.Contains(t, tr.Output(), "No schema violations detected.")
	assert.NotContains(t, tr.Output(), "Violations")
	assert.NotContains(t, tr.Output(), "**Run**")
}

func TestValidateText(t *testing.T) {
	tr := testutil.NewTestRendererText()
	out := sampleOutput()
	out.Exported = []string{"out/tables-schema.json"}

	validateText(tr.Renderer, out)

	got := tr.Output()
	testutil.AssertNoANSI(t, got)
	assert.Contains(t, got, "Schema validation")
	assert.Contains(t, got, "Tables compared: 2")
	assert.Contains(t, got, "✗ 2 schema violations")
	assert.Contains(t, got, "Missing: 1")
	assert.Contains(t, got, "Primary Key: 1")
	assert.Contains(t, got, "Exported out/tables-schema.json")
	assert.Contains(t, got, "Recorded run 0190a3b2-7c1d")
}

func TestValidateOutput_JSON(t *testing.T) {
	tr := testutil.NewTestRendererJSON()
	require.NoError(t, tr.JSON(sampleOutput()))
	testutil.AssertOutputMode(t, tr, output.ModeJSON)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &decoded))
	assert.Equal(t, "schema.sql", decoded["schema"])
	assert.Contains(t, decoded, "report")
	assert.Contains(t, decoded, "run")
	assert.NotContains(t, decoded, "exported")
}

func TestViolationRows(t *testing.T) {
	rows := violationRows(sampleOutput().Report)

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"missing", "user", "", "Missing table user"}, rows[0])
	assert.Equal(t, "id", rows[1][2])
	assert.Len(t, rows[1], len(violationHeader))
}
