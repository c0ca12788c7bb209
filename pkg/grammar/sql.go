package grammar

import "sync"

const (
	sqlIdent     = `[a-z_]+`
	sqlIdentList = `\("(` + sqlIdent + `)"(?:,\s*"(` + sqlIdent + `)")*\)`
	sqlField     = `^\s*"` + sqlIdent + `"`
	sqlFieldType = sqlField + `\s+[A-Z]+(?:\([0-9,]+\))?`
)

var sqlRules = sync.OnceValue(func() *RuleSet {
	columns := MustRuleSet(
		&Rule{Name: "type", Pattern: MustPattern(sqlField + `\s+([A-Z]+(?:\([0-9,]+\))?)`)},
		&Rule{Name: "null", Pattern: MustPattern(sqlFieldType + `\s*NULL`)},
		&Rule{Name: "primary_key", Pattern: MustPattern(sqlFieldType + `.*\sAUTO_INCREMENT`)},
	)

	body := MustRuleSet(
		&Rule{Name: "field", Pattern: MustPattern(`^\s*"(` + sqlIdent + `)"`), Line: columns},
		&Rule{
			Name:    "primary_key_combined",
			Pattern: MustPattern(`^\s*CONSTRAINT\s"` + sqlIdent + `"\sPRIMARY\sKEY\s*` + sqlIdentList),
		},
	)

	return MustRuleSet(&Rule{
		Name:    "table",
		Pattern: MustPattern(`^CREATE TABLE "` + sqlIdent + `"\."(` + sqlIdent + `)" \(`),
		Within:  body,
		End:     MustPattern(`^\);`),
	})
})

// SQL returns the grammar for PostgreSQL-style DDL dumps with one column
// definition per line:
//
//	CREATE TABLE "public"."project" (
//	  "id" INTEGER NOT NULL AUTO_INCREMENT,
//	  "name" VARCHAR(100) NULL,
//	  CONSTRAINT "pk" PRIMARY KEY ("id")
//	);
//
// Only nullable columns store a null flag. A NOT NULL column stores none,
// which compares the same as null false.
//
// Documents parsed with it should be run in single-line mode.
func SQL() *RuleSet {
	return sqlRules()
}
