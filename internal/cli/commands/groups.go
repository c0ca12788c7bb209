package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/schemadoc/internal/cli/output"
	"github.com/leapstack-labs/schemadoc/internal/engine"
	"github.com/leapstack-labs/schemadoc/pkg/schema"
)

// NewGroupsCommand creates the groups command.
func NewGroupsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List documentation groups and their diagram colours",
		Long: `List the table groups of the documentation with the colour and short
name assigned to each, as used when colouring schema diagrams.`,
		Args: cobra.NoArgs,
		RunE: runGroups,
	}
}

func runGroups(cmd *cobra.Command, _ []string) error {
	cc := NewCommandContext(cmd)
	if len(cc.Cfg.DocumentationSources()) == 0 {
		return fmt.Errorf("documentation is required\nHint: set docs or url in schemadoc.yaml or use --docs")
	}

	eng, cleanup, err := cc.NewEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	tree, err := eng.LoadDocumentation(cmd.Context())
	if err != nil {
		return err
	}
	doc, err := schema.FromTree(tree)
	if err != nil {
		return fmt.Errorf("invalid documentation: %w", err)
	}
	groups := engine.Groups(doc)

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(groups)
	}

	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{g.Title, g.Short, g.Color, strings.Join(g.Tables, ", ")})
	}

	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatHeader(1, fmt.Sprintf("Groups (%d)", len(groups))))
		r.Println("")
	} else {
		r.Header(1, fmt.Sprintf("Groups (%d)", len(groups)))
	}
	r.Table([]string{"Group", "Short", "Colour", "Tables"}, rows)
	return nil
}
