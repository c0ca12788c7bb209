package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/schemadoc/internal/cli/config"
	"github.com/leapstack-labs/schemadoc/internal/cli/output"
	"github.com/leapstack-labs/schemadoc/internal/engine"
	"github.com/leapstack-labs/schemadoc/internal/history"
	"github.com/leapstack-labs/schemadoc/pkg/schema"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// NewEngine creates an engine from the configuration, opening the history
// database when one is configured. The cleanup function must be called
// (typically via defer).
func (cc *CommandContext) NewEngine(ctx context.Context) (*engine.Engine, func(), error) {
	store, err := cc.OpenHistory(ctx, false)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if store != nil {
			_ = store.Close()
		}
	}

	encoding, err := schema.ParseEncoding(cc.Cfg.ExportFormat)
	if err != nil {
		encoding = schema.EncodingJSON
	}

	eng, err := engine.New(engine.Config{
		Schema:         cc.Cfg.Schema,
		Documentation:  cc.Cfg.DocumentationSources(),
		Source:         cc.Cfg.SourceConfig(),
		Export:         cc.Cfg.Export,
		ExportDir:      cc.Cfg.ExportDir,
		ExportEncoding: encoding,
		History:        store,
		Logger:         cc.Logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return eng, cleanup, nil
}

// OpenHistory opens the configured history database. It returns nil when
// history is disabled, unless required is set.
func (cc *CommandContext) OpenHistory(ctx context.Context, required bool) (*history.Store, error) {
	path := cc.Cfg.History
	if path == "" {
		if required {
			return nil, fmt.Errorf("history is disabled\nHint: set history in schemadoc.yaml or use --history")
		}
		return nil, nil
	}

	// Ensure history directory exists
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	return history.Open(ctx, path, cc.Logger)
}

// getConfig returns the current configuration, or defaults when none was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		Verify:       config.DefaultVerify,
		OutputFormat: config.DefaultOutput,
		ExportDir:    config.DefaultExportDir,
		ExportFormat: config.DefaultExportFormat,
	}
}
