package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/schemadoc/internal/cli/output"
	"github.com/leapstack-labs/schemadoc/internal/engine"
	"github.com/leapstack-labs/schemadoc/pkg/schema"
)

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export [source...]",
		Short: "Write extracted document trees",
		Long: `Extract document trees without comparing them.

Without arguments the configured schema and documentation are extracted and
written to tables-schema.<ext> and tables-documentation.<ext> in the export
directory. With arguments each source is extracted, the trees are merged in
order and the result is printed.

The encoding follows --export-format (json or yaml).`,
		Example: `  # Write both trees as YAML into ./out
  schemadoc export --schema schema.sql --docs DATA.md --export-dir out --export-format yaml

  # Print the tree of one source
  schemadoc export model.mwb`,
		RunE: runExport,
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	cc := NewCommandContext(cmd)
	if len(args) == 0 {
		if err := cc.Cfg.ValidateSources(); err != nil {
			return err
		}
	}

	encoding, err := schema.ParseEncoding(cc.Cfg.ExportFormat)
	if err != nil {
		return err
	}

	eng, cleanup, err := cc.NewEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	if len(args) > 0 {
		return printTrees(cmd, eng, encoding, args)
	}

	trees, err := eng.Load(cmd.Context())
	if err != nil {
		return err
	}
	paths, err := eng.Export(trees)
	if err != nil {
		return err
	}

	r := cc.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(map[string][]string{"exported": paths})
	case output.ModeMarkdown:
		for _, p := range paths {
			r.Printf("- %s\n", p)
		}
	default:
		for _, p := range paths {
			r.Success("Exported " + p)
		}
	}
	return nil
}

func printTrees(cmd *cobra.Command, eng *engine.Engine, encoding schema.Encoding, sources []string) error {
	merged := schema.NewMap()
	for _, location := range sources {
		tree, err := eng.Extract(cmd.Context(), location)
		if err != nil {
			return err
		}
		schema.Merge(merged, tree)
	}
	return schema.Encode(cmd.OutOrStdout(), merged, encoding)
}
