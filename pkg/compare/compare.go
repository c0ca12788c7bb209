// Package compare checks a documented schema against the actual one and
// reports every disagreement as a violation.
package compare

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/leapstack-labs/schemadoc/pkg/schema"
)

// BuiltinAliases are type aliases that are always known, whatever the
// documentation declares.
var BuiltinAliases = map[string]*schema.SpecialType{
	"INT":  {Type: "INTEGER"},
	"BOOL": {Type: "BOOLEAN"},
}

// Config configures a comparison.
type Config struct {
	// Logger receives one warning per violation (optional, uses discard if nil)
	Logger *slog.Logger
}

type comparator struct {
	logger  *slog.Logger
	report  *Report
	aliases map[string]*schema.SpecialType
}

// Compare checks documentation against the actual schema. Neither input is
// modified.
func Compare(actual, documented *schema.Schema, cfg Config) *Report {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &comparator{logger: logger, report: &Report{}}

	existing(c, actual.Tables, documented.Tables, schema.KeyTable, "", "")
	if actual.Tables == nil || documented.Tables == nil {
		return c.report
	}

	if documented.SpecialTypes == nil {
		c.add(Violation{Kind: KindSection, Message: "Missing special types in documentation"})
		return c.report
	}
	c.aliases = make(map[string]*schema.SpecialType, len(documented.SpecialTypes)+len(BuiltinAliases))
	maps.Copy(c.aliases, documented.SpecialTypes)
	maps.Copy(c.aliases, BuiltinAliases)

	for _, name := range actual.TableNames() {
		doc, ok := documented.Tables[name]
		if !ok {
			continue
		}
		c.logger.Info("checking table", slog.String("table", name))
		c.report.Tables++
		c.table(actual.Tables[name], doc, documented)
	}

	return c.report
}

func (c *comparator) add(v Violation) {
	attrs := []any{slog.String("kind", string(v.Kind))}
	if v.Table != "" {
		attrs = append(attrs, slog.String("table", v.Table))
	}
	if v.Field != "" {
		attrs = append(attrs, slog.String("field", v.Field))
	}
	c.logger.Warn(v.Message, attrs...)
	c.report.Violations = append(c.report.Violations, v)
}

// existing reports names present on only one side. A nil map means the
// whole section is missing on that side.
func existing[V any](c *comparator, actual, documented map[string]V, key, table, suffix string) {
	if actual == nil || documented == nil {
		c.add(Violation{Kind: KindSection, Table: table, Message: fmt.Sprintf("Missing %s%s", key, suffix)})
		return
	}

	named := func(kind Kind, name, msg string) Violation {
		v := Violation{Kind: kind, Table: table, Message: msg}
		if key == schema.KeyField {
			v.Field = name
		} else {
			v.Table = name
		}
		return v
	}

	for _, name := range slices.Sorted(maps.Keys(actual)) {
		if _, ok := documented[name]; !ok {
			c.add(named(KindMissing, name, fmt.Sprintf("Missing %s %s%s", key, name, suffix)))
		}
	}
	for _, name := range slices.Sorted(maps.Keys(documented)) {
		if _, ok := actual[name]; !ok {
			c.add(named(KindSuperfluous, name, fmt.Sprintf("Superfluous %s %s%s", key, name, suffix)))
		}
	}
}

func (c *comparator) table(actual, doc *schema.Table, documented *schema.Schema) {
	name := actual.Name
	suffix := " for table " + name

	if doc.PrimaryKeyCombined != nil {
		switch {
		case actual.PrimaryKeyCombined == nil:
			c.add(Violation{Kind: KindMissing, Table: name,
				Message: fmt.Sprintf("Missing %s%s", schema.KeyPrimaryKey, suffix)})
		case !slices.Equal(doc.PrimaryKeyCombined, actual.PrimaryKeyCombined):
			c.add(Violation{Kind: KindMismatch, Table: name,
				Message: fmt.Sprintf("%s%s does not match: %s vs. %s", schema.KeyPrimaryKey, suffix,
					tuple(doc.PrimaryKeyCombined), tuple(actual.PrimaryKeyCombined))})
		}
	}

	existing(c, actual.Fields, doc.Fields, schema.KeyField, name, suffix)
	if actual.Fields == nil || doc.Fields == nil {
		return
	}

	for _, fieldName := range actual.FieldNames() {
		docField, ok := doc.Fields[fieldName]
		if !ok {
			continue
		}
		c.field(actual, doc, actual.Fields[fieldName], docField, documented)
	}
}

func (c *comparator) field(table, docTable *schema.Table, actual, doc *schema.Field, documented *schema.Schema) {
	at := fieldAt{table: table.Name, field: actual.Name}

	c.checkType(at, actual, doc)

	// The reverse direction only runs when the forward one agrees, so a
	// field documented with the wrong nullability is reported once.
	if c.equalFlag(at, "null", actual.Null, doc.Null) {
		c.equalFlag(at, "null", doc.Null, actual.Null)
	}

	c.equalFlag(at, "primary_key", actual.PrimaryKey, doc.PrimaryKey)

	switch {
	case doc.PrimaryKey != nil:
		if actual.PrimaryKey == nil && !table.InCombinedKey(actual.Name) {
			c.add(at.violation(KindPrimaryKey,
				fmt.Sprintf("Table %s does not have primary key %s", table.Name, actual.Name)))
		}
	case table.InCombinedKey(actual.Name) && !docTable.InCombinedKey(actual.Name):
		c.add(at.violation(KindPrimaryKey,
			fmt.Sprintf("Table %s should have primary key %s", table.Name, actual.Name)))
	}

	c.checkReferences(at, table, doc, documented)
}

// equalFlag reports a flag set on one but missing or different on two. It
// returns false when a violation was recorded.
func (c *comparator) equalFlag(at fieldAt, key string, one, two *bool) bool {
	if one == nil {
		return true
	}
	if two == nil {
		c.add(at.violation(KindMissing, fmt.Sprintf("Missing %s%s", key, at)))
		return false
	}
	if *one != *two {
		c.add(at.violation(KindMismatch, fmt.Sprintf("%s%s does not match: %t vs. %t", key, at, *one, *two)))
		return false
	}
	return true
}

func (c *comparator) checkType(at fieldAt, actual, doc *schema.Field) {
	if doc.Type == "" {
		return
	}
	if actual.Type == "" {
		c.add(at.violation(KindMissing, fmt.Sprintf("Missing type%s", at)))
		return
	}

	got := withSize(actual.Type, actual)

	want, ok := c.resolve(at, doc.Type)
	if !ok {
		return
	}
	want = withSize(want, doc)
	if want != got {
		c.add(at.violation(KindMismatch, fmt.Sprintf("type%s does not match: %s vs. %s", at, want, got)))
	}
}

// withSize appends the length, or precision and scale, of f to typ.
func withSize(typ string, f *schema.Field) string {
	switch {
	case f.Limit != "":
		return fmt.Sprintf("%s(%s)", typ, f.Limit)
	case f.Precision != "" && f.Scale != "":
		return fmt.Sprintf("%s(%s,%s)", typ, f.Precision, f.Scale)
	}
	return typ
}

// resolve follows the alias chain of a documented type. A chain that revisits
// a type or ends in an alias without a type is reported and yields false.
func (c *comparator) resolve(at fieldAt, name string) (string, bool) {
	seen := make(map[string]bool)
	for {
		alias, ok := c.aliases[name]
		if !ok {
			return name, true
		}
		if seen[name] {
			c.add(at.violation(KindAlias, fmt.Sprintf("Cyclic special type %s used as type%s", name, at)))
			return "", false
		}
		seen[name] = true
		if alias.Type == "" {
			c.add(at.violation(KindAlias, fmt.Sprintf("Special type %s has no type, used as type%s", name, at)))
			return "", false
		}
		next := alias.Expand()
		if next == name {
			return name, true
		}
		name = next
	}
}

func (c *comparator) checkReferences(at fieldAt, table *schema.Table, doc *schema.Field, documented *schema.Schema) {
	from := table.Name + "." + doc.Name
	targets := make(map[string]bool)

	for _, ref := range doc.References {
		refTable, ok := documented.Tables[ref.Table]
		if !ok || refTable.Fields == nil {
			c.add(at.violation(KindReference, fmt.Sprintf("Invalid table reference %s%s", ref.Table, at)))
			return
		}
		target, ok := refTable.Fields[ref.Field]
		if !ok {
			c.add(at.violation(KindReference, fmt.Sprintf("Invalid field reference %s%s", ref, at)))
			return
		}
		if doc.Type != "" && target.Type != "" && doc.Type != target.Type {
			c.add(at.violation(KindReference, fmt.Sprintf(
				"Referenced field %s with type %s does not match type %s%s", ref, target.Type, doc.Type, at)))
			return
		}
		if table.References != nil {
			targets[ref.String()] = true
			if !declares(table.References, from, ref.String()) {
				c.add(at.violation(KindReference, fmt.Sprintf("Superfluous reference to %s%s", ref, at)))
				return
			}
		}
	}

	var declared []schema.Relationship
	if docTable, ok := documented.Tables[table.Name]; ok {
		declared = docTable.References
	}
	for _, rel := range table.References {
		idx := slices.Index(rel.From, from)
		if idx < 0 {
			continue
		}

		// Composite keys pair columns by position.
		documentedAt := slices.IndexFunc(rel.To, func(to string) bool { return targets[to] })
		if documentedAt >= 0 && documentedAt < len(rel.From) && rel.From[documentedAt] == from {
			continue
		}
		if idx < len(rel.To) && !declares(declared, from, rel.To[idx]) {
			c.add(at.violation(KindReference, fmt.Sprintf("Missing reference to %s%s", rel.To[idx], at)))
			return
		}
	}
}

// declares reports whether some relationship leads from from to to.
func declares(rels []schema.Relationship, from, to string) bool {
	for _, rel := range rels {
		if slices.Contains(rel.From, from) && slices.Contains(rel.To, to) {
			return true
		}
	}
	return false
}

type fieldAt struct {
	table string
	field string
}

func (f fieldAt) String() string {
	return fmt.Sprintf(" of field %s in table %s", f.field, f.table)
}

func (f fieldAt) violation(kind Kind, msg string) Violation {
	return Violation{Kind: kind, Table: f.table, Field: f.field, Message: msg}
}

func tuple(items []string) string {
	return "(" + strings.Join(items, ", ") + ")"
}
