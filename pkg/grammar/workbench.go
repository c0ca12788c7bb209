package grammar

import (
	"sync"

	"github.com/leapstack-labs/schemadoc/pkg/schema"
)

// WorkbenchTypes maps MySQL Workbench simple type identifiers to SQL types.
var WorkbenchTypes = map[string]string{
	"com.mysql.rdbms.mysql.datatype.date":        "DATE",
	"com.mysql.rdbms.mysql.datatype.decimal":     "DECIMAL",
	"com.mysql.rdbms.mysql.datatype.float":       "FLOAT",
	"com.mysql.rdbms.mysql.datatype.int":         "INTEGER",
	"com.mysql.rdbms.mysql.datatype.text":        "TEXT",
	"com.mysql.rdbms.mysql.datatype.timestamp_f": "TIMESTAMP",
	"com.mysql.rdbms.mysql.datatype.tinyint":     "BOOLEAN",
	"com.mysql.rdbms.mysql.datatype.varchar":     "VARCHAR",
}

var workbenchRules = sync.OnceValue(func() []ElementRule {
	types := make(map[string]schema.Node, len(WorkbenchTypes))
	for id, name := range WorkbenchTypes {
		types[id] = schema.String(name)
	}

	linked := []ValueRule{{
		Name:     "reference",
		Selector: Selector{{Name: "type", Value: "object"}},
		Refs:     true,
	}}

	column := ElementRule{
		Name:     "field",
		Selector: StructName("db.mysql.Column"),
		Values: []ValueRule{
			{Name: "name", Selector: Key("name")},
			{
				Name:     "primary_key",
				Selector: Key("autoIncrement"),
				Equals:   "1",
				Mapping:  map[string]schema.Node{"1": schema.Bool(true), "0": schema.Bool(false)},
			},
			{Name: "type", Selector: Key("simpleType"), Mapping: types},
			{Name: "limit", Selector: Key("length")},
			{Name: "precision", Selector: Key("precision")},
			{Name: "scale", Selector: Key("scale")},
			{
				Name:     "null",
				Selector: Key("isNotNull"),
				Equals:   "0",
				Mapping:  map[string]schema.Node{"1": schema.Bool(false), "0": schema.Bool(true)},
			},
		},
	}

	primaryKey := ElementRule{
		Name:     "primary_key_combined",
		Selector: StructName("db.mysql.Index"),
		Filter:   Selector{{Name: "key", Value: "indexType"}, {Name: ".", Value: "PRIMARY"}},
		Unroll:   UnrollRewrite,
		Children: []ElementRule{{
			Name:     "index",
			Selector: StructName("db.mysql.IndexColumn"),
			Values:   []ValueRule{{Name: "reference", Selector: Key("referencedColumn"), Refs: true}},
		}},
	}

	foreignKey := ElementRule{
		Name:     "reference",
		Selector: StructName("db.mysql.ForeignKey"),
		Children: []ElementRule{
			{Name: "from", Selector: Key("columns"), Unroll: UnrollFlatten, Values: linked},
			{Name: "to", Selector: Key("referencedColumns"), Unroll: UnrollFlatten, Values: linked},
		},
	}

	return []ElementRule{{
		Name:     "table",
		Selector: StructName("db.mysql.Table"),
		Values:   []ValueRule{{Name: "name", Selector: Key("name")}},
		Children: []ElementRule{column, primaryKey, foreignKey},
	}}
})

// Workbench returns the tree grammar for the XML document inside a MySQL
// Workbench model. Element ids are linked to qualified names
// (table.column), so foreign keys come out as lists of names.
func Workbench() []ElementRule {
	return workbenchRules()
}
