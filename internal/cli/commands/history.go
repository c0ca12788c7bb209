package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/schemadoc/internal/cli/output"
	"github.com/leapstack-labs/schemadoc/internal/history"
	"github.com/leapstack-labs/schemadoc/pkg/compare"
)

// RunDetail is the JSON form of one recorded run.
type RunDetail struct {
	*history.Run
	Details []compare.Violation `json:"details"`
}

// NewHistoryCommand creates the history command with its subcommands.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded validation runs",
		Long: `Inspect validation runs recorded in the history database.

Runs are recorded when history is set in schemadoc.yaml or with --history.`,
	}
	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryShowCommand())
	return cmd
}

func newHistoryListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return runHistoryList(cmd, limit)
		},
	}
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of runs")
	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the violations of one run",
		Long:  `Show one run and its violations. Any unambiguous prefix of a run id is accepted.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd, args[0])
		},
	}
}

func runHistoryList(cmd *cobra.Command, limit int) error {
	cc := NewCommandContext(cmd)
	store, err := cc.OpenHistory(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.Runs(cmd.Context(), limit)
	if err != nil {
		return err
	}

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		if runs == nil {
			runs = []*history.Run{}
		}
		return r.JSON(runs)
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			run.StartedAt.Local().Format(time.DateTime),
			run.Schema,
			strconv.Itoa(run.Tables),
			strconv.Itoa(run.Violations),
		})
	}

	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatHeader(1, "Runs"))
		r.Println("")
	} else {
		r.Header(1, "Runs")
	}
	r.Table([]string{"Run", "Started", "Schema", "Tables", "Violations"}, rows)
	return nil
}

func runHistoryShow(cmd *cobra.Command, id string) error {
	cc := NewCommandContext(cmd)
	store, err := cc.OpenHistory(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := store.Run(cmd.Context(), id)
	if err != nil {
		return err
	}
	violations, err := store.Violations(cmd.Context(), run.ID)
	if err != nil {
		return err
	}
	if violations == nil {
		violations = []compare.Violation{}
	}

	r := cc.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(RunDetail{Run: run, Details: violations})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Run "+run.ID))
		r.Println("")
		r.Printf("- **Started**: %s\n", run.StartedAt.Format(time.RFC3339))
		r.Printf("- **Schema**: %s\n", run.Schema)
		r.Printf("- **Documentation**: %s\n", strings.Join(run.Documentation, ", "))
		r.Printf("- **Tables compared**: %d\n", run.Tables)
		r.Println("")
	default:
		styles := r.Styles()
		r.Header(1, "Run "+run.ID)
		r.Println(styles.Muted.Render("   Started: " + run.StartedAt.Local().Format(time.DateTime)))
		r.Println(styles.Muted.Render("   Schema: " + run.Schema))
		r.Println(styles.Muted.Render("   Documentation: " + strings.Join(run.Documentation, ", ")))
		r.Printf("   Tables compared: %d\n", run.Tables)
		r.Println("")
	}

	if len(violations) == 0 {
		r.Println("No schema violations detected.")
		return nil
	}
	r.Println(fmt.Sprintf("%d schema violations", len(violations)))
	r.Println("")
	rows := make([][]string, 0, len(violations))
	for _, v := range violations {
		rows = append(rows, []string{string(v.Kind), v.Table, v.Field, v.Message})
	}
	r.Table(violationHeader, rows)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
