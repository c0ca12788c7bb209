// Package engine orchestrates a validation run.
// It acquires the schema and documentation sources, extracts their trees,
// compares them and records the outcome.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/schemadoc/internal/history"
	"github.com/leapstack-labs/schemadoc/internal/source"
	"github.com/leapstack-labs/schemadoc/pkg/compare"
	"github.com/leapstack-labs/schemadoc/pkg/schema"
)

// Export file names, without extension.
const (
	SchemaExportName        = "tables-schema"
	DocumentationExportName = "tables-documentation"
)

var (
	// ErrNoSchema is returned when no schema source is configured.
	ErrNoSchema = errors.New("no schema source configured")
	// ErrNoDocumentation is returned when no documentation source is configured.
	ErrNoDocumentation = errors.New("no documentation source configured")
)

// Engine validates documentation against a schema.
type Engine struct {
	loader *source.Loader
	store  *history.Store
	logger *slog.Logger

	schemaSource string
	docSources   []string

	export         bool
	exportDir      string
	exportEncoding schema.Encoding
}

// Config holds engine configuration.
type Config struct {
	// Schema is the path or URL of the actual database schema
	Schema string
	// Documentation lists documentation paths or URLs, merged in order
	Documentation []string
	// Source configures file and HTTP acquisition
	Source source.Config
	// Export writes both extracted trees to ExportDir on every run
	Export bool
	// ExportDir is the directory for exported trees (default: working directory)
	ExportDir string
	// ExportEncoding is the encoding of exported trees (default: json)
	ExportEncoding schema.Encoding
	// History records runs when set (optional)
	History *history.Store
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Trees holds the extracted document trees of one run.
type Trees struct {
	Schema        *schema.Map
	Documentation *schema.Map
}

// Result is the outcome of Run.
type Result struct {
	Report *compare.Report
	Trees  *Trees
	// Run is the recorded history entry, nil when history is disabled
	Run *history.Run
	// Exported lists the files written by the export step
	Exported []string
}

// New creates a new engine.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	logger.Debug("initializing engine",
		slog.String("schema", cfg.Schema),
		slog.Int("documentation_sources", len(cfg.Documentation)))

	srcCfg := cfg.Source
	if srcCfg.Logger == nil {
		srcCfg.Logger = logger
	}
	loader, err := source.NewLoader(srcCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create loader: %w", err)
	}

	encoding := cfg.ExportEncoding
	if encoding == "" {
		encoding = schema.EncodingJSON
	}

	return &Engine{
		loader:         loader,
		store:          cfg.History,
		logger:         logger,
		schemaSource:   cfg.Schema,
		docSources:     cfg.Documentation,
		export:         cfg.Export,
		exportDir:      cfg.ExportDir,
		exportEncoding: encoding,
	}, nil
}

// Sources returns the schema source followed by the documentation sources.
func (e *Engine) Sources() []string {
	return append([]string{e.schemaSource}, e.docSources...)
}

// Extract acquires one source and runs the grammar engine for its format.
func (e *Engine) Extract(ctx context.Context, location string) (*schema.Map, error) {
	doc, err := e.loader.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("extracting",
		slog.String("source", location),
		slog.String("format", string(doc.Format)))
	return source.Extract(doc, e.logger)
}

// Load extracts the schema and every documentation source concurrently.
// Documentation trees are merged in configuration order.
func (e *Engine) Load(ctx context.Context) (*Trees, error) {
	if e.schemaSource == "" {
		return nil, ErrNoSchema
	}
	if len(e.docSources) == 0 {
		return nil, ErrNoDocumentation
	}

	trees, err := e.extractAll(ctx, e.Sources())
	if err != nil {
		return nil, err
	}
	return &Trees{Schema: trees[0], Documentation: merge(trees[1:])}, nil
}

// LoadDocumentation extracts and merges the documentation sources only.
func (e *Engine) LoadDocumentation(ctx context.Context) (*schema.Map, error) {
	if len(e.docSources) == 0 {
		return nil, ErrNoDocumentation
	}
	trees, err := e.extractAll(ctx, e.docSources)
	if err != nil {
		return nil, err
	}
	return merge(trees), nil
}

func (e *Engine) extractAll(ctx context.Context, sources []string) ([]*schema.Map, error) {
	trees := make([]*schema.Map, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, location := range sources {
		g.Go(func() error {
			tree, err := e.Extract(gctx, location)
			if err != nil {
				return err
			}
			trees[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return trees, nil
}

func merge(trees []*schema.Map) *schema.Map {
	merged := schema.NewMap()
	for _, tree := range trees {
		schema.Merge(merged, tree)
	}
	return merged
}

// Export writes both trees to the export directory and returns the paths.
func (e *Engine) Export(trees *Trees) ([]string, error) {
	dir := e.exportDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	outputs := []struct {
		name string
		tree *schema.Map
	}{
		{SchemaExportName, trees.Schema},
		{DocumentationExportName, trees.Documentation},
	}

	paths := make([]string, 0, len(outputs))
	for _, out := range outputs {
		path := filepath.Join(dir, out.name+e.exportEncoding.Extension())
		if err := writeTree(path, out.tree, e.exportEncoding); err != nil {
			return paths, err
		}
		e.logger.Info("exported tree", slog.String("path", path))
		paths = append(paths, path)
	}
	return paths, nil
}

func writeTree(path string, tree *schema.Map, enc schema.Encoding) (err error) {
	f, err := os.Create(path) //nolint:gosec // G304: path is built from configuration
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	if err := schema.Encode(f, tree, enc); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Run performs one validation: load, optionally export, compare and record.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	started := time.Now()

	trees, err := e.Load(ctx)
	if err != nil {
		return nil, err
	}
	result := &Result{Trees: trees}

	if e.export {
		result.Exported, err = e.Export(trees)
		if err != nil {
			return nil, err
		}
	}

	actual, err := schema.FromTree(trees.Schema)
	if err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", e.schemaSource, err)
	}
	documented, err := schema.FromTree(trees.Documentation)
	if err != nil {
		return nil, fmt.Errorf("invalid documentation: %w", err)
	}

	result.Report = compare.Compare(actual, documented, compare.Config{Logger: e.logger})
	if result.Report.OK() {
		e.logger.Info("No schema violations detected")
	} else {
		e.logger.Info("Found schema violations", slog.Int("count", result.Report.Count()))
	}

	if e.store != nil {
		result.Run, err = e.store.Record(ctx, history.Record{
			StartedAt:     started,
			Schema:        e.schemaSource,
			Documentation: e.docSources,
			Report:        result.Report,
		})
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}
