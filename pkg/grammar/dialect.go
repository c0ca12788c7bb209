package grammar

import "fmt"

// Dialect names a built-in line grammar.
type Dialect string

const (
	DialectSQL      Dialect = "sql"
	DialectMarkdown Dialect = "markdown"
	DialectWiki     Dialect = "wiki"
)

// Rules returns the dialect's grammar.
func (d Dialect) Rules() (*RuleSet, error) {
	switch d {
	case DialectSQL:
		return SQL(), nil
	case DialectMarkdown:
		return Markdown(), nil
	case DialectWiki:
		return Wiki(), nil
	default:
		return nil, fmt.Errorf("unknown grammar dialect %q", string(d))
	}
}

// SingleLine reports whether documents in the dialect are parsed one line at
// a time, never buffering text across lines.
func (d Dialect) SingleLine() bool {
	return d == DialectSQL
}
