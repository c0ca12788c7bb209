package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schemadoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// TestExpandEnvVars tests the expandEnvVars function.
func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR_ONE", "value_one")
	t.Setenv("TEST_VAR_TWO", "value_two")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "single variable", input: "${TEST_VAR_ONE}", expected: "value_one"},
		{name: "multiple variables", input: "${TEST_VAR_ONE}:${TEST_VAR_TWO}", expected: "value_one:value_two"},
		{name: "unset variable stays as-is", input: "${UNSET_VARIABLE}", expected: "${UNSET_VARIABLE}"},
		{name: "no variables", input: "plain string", expected: "plain string"},
		{name: "empty string", input: "", expected: ""},
		{name: "mixed set and unset", input: "${TEST_VAR_ONE}:${UNSET_VAR}", expected: "value_one:${UNSET_VAR}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "single", input: "DATA.md", expected: []string{"DATA.md"}},
		{name: "several", input: "one.md,two.md", expected: []string{"one.md", "two.md"}},
		{name: "spaces and empty items", input: " one.md , ,two.md,", expected: []string{"one.md", "two.md"}},
		{name: "empty", input: "", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, splitList(tt.input))
		})
	}
}

func TestLoadConfig_EnvDocsList(t *testing.T) {
	ResetConfig()
	t.Setenv("SCHEMADOC_DOCS", "docs/DATA.md, https://wiki.example.com/{branch}/Data")
	t.Setenv("SCHEMADOC_URL", "https://wiki.example.com/Extra")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"docs/DATA.md", "https://wiki.example.com/{branch}/Data"}, cfg.Docs)
	assert.Equal(t, "https://wiki.example.com/Extra", cfg.URL, "only list keys are split")
	assert.Len(t, cfg.DocumentationSources(), 3)
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultVerify, cfg.Verify)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, uint64(2), cfg.Retries)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultExportFormat, cfg.ExportFormat)
	assert.Equal(t, DefaultExportDir, cfg.ExportDir)
	assert.Empty(t, cfg.History)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	t.Setenv("TEST_WIKI_PASSWORD", "secret123")

	cfgPath := writeConfig(t, `schema: https://ci.example.com/{branch}/schema.zip
docs:
  - docs/DATA.md
  - docs/TYPES.md
url: https://wiki.example.com/Data_model
branch: develop
verify: false
username: bot
password: ${TEST_WIKI_PASSWORD}
timeout: 10s
retries: 5
export: true
export_format: yaml
history: .schemadoc/history.db
`)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Equal(t, "https://ci.example.com/{branch}/schema.zip", cfg.Schema)
	assert.Equal(t, []string{"docs/DATA.md", "docs/TYPES.md", "https://wiki.example.com/Data_model"},
		cfg.DocumentationSources())
	assert.Equal(t, "0", cfg.Verify, "yaml false disables verification")
	assert.Equal(t, "secret123", cfg.Password)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.True(t, cfg.Export)
	assert.Equal(t, "yaml", cfg.ExportFormat)
	assert.Equal(t, ".schemadoc/history.db", cfg.History)

	src := cfg.SourceConfig()
	assert.Equal(t, "develop", src.Branch)
	assert.Equal(t, "bot", src.Username)
	assert.Equal(t, uint64(5), src.Retries)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

// TestLoadConfig_FlagPrecedence tests that flags override env vars and config file.
func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "schema: from_file.sql\n")
	t.Setenv("SCHEMADOC_SCHEMA", "from_env.sql")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("schema", "", "schema source")
	flags.StringSlice("docs", nil, "documentation sources")
	flags.String("export-dir", "", "export directory")
	require.NoError(t, flags.Set("schema", "from_flag.sql"))
	require.NoError(t, flags.Set("docs", "a.md,b.md"))
	require.NoError(t, flags.Set("export-dir", "out"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "from_flag.sql", cfg.Schema, "flag value should override config file and env var")
	assert.Equal(t, []string{"a.md", "b.md"}, cfg.Docs)
	assert.Equal(t, "out", cfg.ExportDir, "kebab-case flags map to snake_case keys")
}

// TestLoadConfig_EnvPrecedenceOverFile tests that env vars override config file.
func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "schema: from_file.sql\nexport_dir: file_dir\n")
	t.Setenv("SCHEMADOC_SCHEMA", "from_env.sql")
	t.Setenv("SCHEMADOC_DOCS", "one.md,two.md")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "from_env.sql", cfg.Schema, "env var should override config file")
	assert.Equal(t, []string{"one.md", "two.md"}, cfg.Docs)
	assert.Equal(t, "file_dir", cfg.ExportDir)
}

// TestLoadConfig_FlagNotSetUsesEnv tests that unset flags fall back to env vars.
func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()
	t.Setenv("SCHEMADOC_SCHEMA", "from_env.sql")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("schema", "default.sql", "schema source")

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, "from_env.sql", cfg.Schema)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{name: "output", content: "output: csv\n", errSubstr: "invalid output"},
		{name: "export format", content: "export_format: xml\n", errSubstr: "invalid export_format"},
		{name: "log level", content: "log_level: loud\n", errSubstr: "invalid log_level"},
		{name: "timeout", content: "timeout: soon\n", errSubstr: "unable to decode config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			_, err := LoadConfig(writeConfig(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_ValidateSources(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		errSubstr string
	}{
		{name: "complete", cfg: Config{Schema: "schema.sql", Docs: []string{"DATA.md"}}},
		{name: "url only", cfg: Config{Schema: "schema.sql", URL: "https://wiki.example.com/Data"}},
		{name: "no schema", cfg: Config{Docs: []string{"DATA.md"}}, errSubstr: "schema is required"},
		{name: "no documentation", cfg: Config{Schema: "schema.sql", Docs: []string{""}}, errSubstr: "documentation is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateSources()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_Level(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want slog.Level
	}{
		{name: "default", cfg: Config{}, want: slog.LevelWarn},
		{name: "info", cfg: Config{LogLevel: "info"}, want: slog.LevelInfo},
		{name: "upper case", cfg: Config{LogLevel: "ERROR"}, want: slog.LevelError},
		{name: "verbose wins", cfg: Config{LogLevel: "error", Verbose: true}, want: slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.Level()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_NewLogger(t *testing.T) {
	cfg := &Config{LogLevel: "info"}
	var buf bytes.Buffer
	logger, err := cfg.NewLogger(&buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("Checking table project")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "Checking table project")
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()), "falls back to a discard logger")

	logger := slog.New(slog.DiscardHandler)
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}
