package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/schemadoc/internal/cli/output"
	"github.com/leapstack-labs/schemadoc/internal/engine"
	"github.com/leapstack-labs/schemadoc/internal/history"
	"github.com/leapstack-labs/schemadoc/pkg/compare"
)

// ErrViolations is returned when documentation and schema disagree.
var ErrViolations = errors.New("schema violations found")

// ValidateOutput is the JSON form of a validation.
type ValidateOutput struct {
	Schema        string          `json:"schema"`
	Documentation []string        `json:"documentation"`
	Report        *compare.Report `json:"report"`
	Run           *history.Run    `json:"run,omitempty"`
	Exported      []string        `json:"exported,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check documentation against the database schema",
		Long: `Extract the database schema and the documentation, compare them and
report every inconsistency.

The schema may be an SQL dump, a MySQL Workbench model (.mwb) or a JSON
tree. Documentation may be Markdown, MediaWiki markup, an HTML wiki page or
a JSON tree; several documentation sources are merged in order.

Exits with status 2 when violations are found.`,
		Example: `  # Validate local files
  schemadoc validate --schema schema.sql --docs docs/DATA.md

  # Validate against a wiki page of a branch
  schemadoc validate --schema model.mwb --url 'https://wiki.example.com/{branch}/Data' --branch main`,
		Args: cobra.NoArgs,
		RunE: RunValidate,
	}
}

// RunValidate runs one validation and renders its report.
func RunValidate(cmd *cobra.Command, _ []string) error {
	cc := NewCommandContext(cmd)
	if err := cc.Cfg.ValidateSources(); err != nil {
		return err
	}

	eng, cleanup, err := cc.NewEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	return cc.validate(cmd, eng)
}

func (cc *CommandContext) validate(cmd *cobra.Command, eng *engine.Engine) error {
	result, err := eng.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := ValidateOutput{
		Schema:        cc.Cfg.Schema,
		Documentation: cc.Cfg.DocumentationSources(),
		Report:        result.Report,
		Run:           result.Run,
		Exported:      result.Exported,
	}
	if out.Report.Violations == nil {
		out.Report.Violations = []compare.Violation{}
	}

	r := cc.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := r.JSON(out); err != nil {
			return err
		}
	case output.ModeMarkdown:
		validateMarkdown(r, &out)
	default:
		validateText(r, &out)
	}

	if !result.Report.OK() {
		return fmt.Errorf("%w: %d", ErrViolations, result.Report.Count())
	}
	return nil
}

func violationRows(report *compare.Report) [][]string {
	rows := make([][]string, 0, report.Count())
	for _, v := range report.Violations {
		rows = append(rows, []string{string(v.Kind), v.Table, v.Field, v.Message})
	}
	return rows
}

var violationHeader = []string{"Kind", "Table", "Field", "Message"}

func validateText(r *output.Renderer, out *ValidateOutput) {
	styles := r.Styles()

	r.Println(styles.Header1.Render("Schema validation"))
	r.Println(styles.Muted.Render("   Schema: " + out.Schema))
	r.Println(styles.Muted.Render("   Documentation: " + strings.Join(out.Documentation, ", ")))
	r.Printf("   Tables compared: %d\n", out.Report.Tables)
	r.Println("")

	if out.Report.OK() {
		r.Success("No schema violations detected")
	} else {
		r.Error(fmt.Sprintf("%d schema violations", out.Report.Count()))
		r.Println("")
		r.Table(violationHeader, violationRows(out.Report))
		r.Println("")

		titleCaser := cases.Title(language.English)
		for _, kc := range out.Report.ByKind() {
			label := titleCaser.String(strings.ReplaceAll(string(kc.Kind), "_", " "))
			r.Printf("   %s: %s\n", styles.Bold.Render(label), strconv.Itoa(kc.Count))
		}
	}

	for _, path := range out.Exported {
		r.Muted("Exported " + path)
	}
	if out.Run != nil {
		r.Muted("Recorded run " + out.Run.ID)
	}
}

func validateMarkdown(r *output.Renderer, out *ValidateOutput) {
	r.Println(output.FormatHeader(1, "Schema validation"))
	r.Println("")
	r.Printf("- **Schema**: %s\n", out.Schema)
	r.Printf("- **Documentation**: %s\n", strings.Join(out.Documentation, ", "))
	r.Printf("- **Tables compared**: %d\n", out.Report.Tables)
	if out.Run != nil {
		r.Printf("- **Run**: %s\n", out.Run.ID)
	}
	for _, path := range out.Exported {
		r.Printf("- **Exported**: %s\n", path)
	}
	r.Println("")

	if out.Report.OK() {
		r.Println("No schema violations detected.")
		return
	}

	r.Println(output.FormatHeader(2, fmt.Sprintf("Violations (%d)", out.Report.Count())))
	r.Println("")
	r.Table(violationHeader, violationRows(out.Report))
}
