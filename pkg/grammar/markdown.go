package grammar

import "sync"

// fieldLine builds the field-level patterns shared by the documentation
// grammars. Each pattern looks at the last field entry of the buffered text:
// it skips everything before it and refuses to match when another field
// entry follows.
func fieldLine(field, body string) *Pattern {
	return MustPattern(`(?:(?!^`+field+`).+)?^`+field+body+`(?!.+^`+field+`)`, Multiline, DotAll)
}

// docGrammar holds the syntax of one documentation markup.
type docGrammar struct {
	specialType string // opens a special type entry, capturing e.g. VARCHAR(url)
	baseType    string // captures the base type of a special type entry
	group       string // captures the title of a group heading
	table       string // opens a table entry, capturing its name
	tableHead   string // the same, anchored for use inside lookaheads
	field       string // a field entry without capture, used in lookaheads
	fieldName   string // captures the name of the last field entry
	fieldType   string // the type after the field name, e.g. ` - VARCHAR(50)`
}

const docTypeArgs = `\([A-Za-z0-9, ]+\)`

func (g docGrammar) rules() *RuleSet {
	special := MustRuleSet(
		&Rule{Name: "type", Pattern: MustPattern(g.baseType)},
		&Rule{
			Name:    "limit",
			Pattern: MustPattern(`.*?\s+maximum\s+length\s+limitation\s+is\s+(\d+)`, DotAll),
		},
	)

	header := MustRuleSet(
		&Rule{
			Name:    "continuation",
			Marker:  true,
			Pattern: MustPattern(g.tableHead+`(?!.+^`+g.field+`)`, Multiline, DotAll),
		},
		&Rule{
			Name:    "primary_key_combined",
			Pattern: MustPattern(`.*\s+Primary\s+key\s+(?:is|consists\s+of)\s+\(([a-z_]+)(?:,\s+([a-z_]+))*\)`, DotAll),
		},
	)

	attributes := MustRuleSet(
		&Rule{Name: "type", Pattern: fieldLine(g.field, g.fieldType)},
		&Rule{Name: "primary_key", Pattern: fieldLine(g.field, `\s+-\s+[^:]*primary\s+key[:-]`)},
		&Rule{
			Name:    "reference",
			Pattern: fieldLine(g.field, `\s+-\s+[^:]*reference\s+to\s+([a-z_]+)\.([a-z_]+)(?:\s+or\s+([a-z_]+)\.([a-z_]+))*:`),
		},
		&Rule{Name: "null", Pattern: fieldLine(g.field, `[^:]*:\s+.+\s+NULL`)},
	)

	fields := MustRuleSet(&Rule{
		Name:      "field",
		Pattern:   MustPattern(g.fieldName, Multiline, DotAll),
		Multiline: true,
		Line:      attributes,
		End:       MustPattern(`.*^`+g.field+`.*^`+g.field+`|.*\n\n`, Multiline, DotAll),
	})

	return MustRuleSet(
		&Rule{
			Name:      "special_type",
			Pattern:   MustPattern(g.specialType),
			Multiline: true,
			Line:      special,
			End:       MustPattern(g.specialType),
		},
		&Rule{Name: "group", Pattern: MustPattern(g.group), Gobble: "table"},
		&Rule{
			Name:      "table",
			Pattern:   MustPattern(g.table),
			Multiline: true,
			Line:      header,
			Within:    fields,
			End:       MustPattern(`.*\n\n|^\n?$`, DotAll),
		},
	)
}

var markdownRules = sync.OnceValue(func() *RuleSet {
	const field = `\s+-\s+\*\*[a-z_]+\*\*`
	return docGrammar{
		specialType: `^- +\*\*([A-Z]+` + docTypeArgs + `)`,
		baseType:    `^- +\*\*([A-Z]+)` + docTypeArgs,
		group:       `^## (.+ \(.+\))$`,
		table:       `^- +\*\*([a-z_]+)\*\*`,
		tableHead:   `^-\s+\*\*([a-z_]+)\*\*`,
		field:       field,
		fieldName:   `.*^ +- +\*\*([a-z_]+)\*\*`,
		fieldType:   `\s+-\s+([A-Z]+(?:` + docTypeArgs + `)?)`,
	}.rules()
})

// Markdown returns the grammar for Markdown data model documentation:
//
//	## Projects (shared)
//
//	- **project**: A project. Primary key is (id).
//	  - **id** - INTEGER - primary key: Identifier.
//	  - **name** - VARCHAR(100): Name of the project, may be NULL.
//	  - **owner_id** - INTEGER - reference to user.id: Owner.
//
//	- **VARCHAR(url)**: A URL. The maximum length limitation is 255.
//
// Entries end at a blank line. Documents parsed with it must be run in
// multi-line mode.
func Markdown() *RuleSet {
	return markdownRules()
}
