package grammar

import "sync"

var wikiRules = sync.OnceValue(func() *RuleSet {
	const field = `\*\*\s*'''[a-z_]+'''`
	return docGrammar{
		specialType: `^\*\s*'''([A-Z]+` + docTypeArgs + `)'''`,
		baseType:    `^\*\s*'''([A-Z]+)` + docTypeArgs,
		group:       `^==\s*(.+ \(.+\))\s*==\s*$`,
		table:       `^\*\s*'''([a-z_]+)'''`,
		tableHead:   `^\*\s*'''([a-z_]+)'''`,
		field:       field,
		fieldName:   `.*^\*\*\s*'''([a-z_]+)'''`,
		fieldType:   `\s+-\s+([A-Z]+(?:` + docTypeArgs + `)?)`,
	}.rules()
})

// Wiki returns the grammar for the same documentation written in MediaWiki
// markup:
//
//	== Projects (shared) ==
//
//	* '''project''': A project. Primary key is (id).
//	** '''id''' - INTEGER - primary key: Identifier.
//
//	* '''VARCHAR(url)''': A URL. The maximum length limitation is 255.
func Wiki() *RuleSet {
	return wikiRules()
}
