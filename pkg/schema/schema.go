package schema

import (
	"slices"
	"sort"
)

// Schema is the typed view of a document tree. A nil map or slice means the
// section was absent from the document; an empty one means it was present
// but empty.
type Schema struct {
	Tables       map[string]*Table
	SpecialTypes map[string]*SpecialType
	Groups       map[string][]string
}

// TableNames returns the table names in sorted order.
func (s *Schema) TableNames() []string {
	return sortedKeys(s.Tables)
}

// GroupNames returns the group titles in sorted order.
func (s *Schema) GroupNames() []string {
	return sortedKeys(s.Groups)
}

// Table is one documented or actual table.
type Table struct {
	Name               string
	Fields             map[string]*Field
	PrimaryKeyCombined []string
	References         []Relationship
}

// FieldNames returns the field names in sorted order.
func (t *Table) FieldNames() []string {
	return sortedKeys(t.Fields)
}

// InCombinedKey reports whether field is part of the combined primary key.
func (t *Table) InCombinedKey(field string) bool {
	return slices.Contains(t.PrimaryKeyCombined, field)
}

// Field is one column.
type Field struct {
	Name       string     `mapstructure:"name"`
	Type       string     `mapstructure:"type"`
	Null       *bool      `mapstructure:"null"`
	PrimaryKey *bool      `mapstructure:"primary_key"`
	Limit      string     `mapstructure:"limit"`
	Precision  string     `mapstructure:"precision"`
	Scale      string     `mapstructure:"scale"`
	References []FieldRef `mapstructure:"reference"`
}

// FieldRef names a referenced field.
type FieldRef struct {
	Table string `mapstructure:"table"`
	Field string `mapstructure:"field"`
}

func (r FieldRef) String() string {
	return r.Table + "." + r.Field
}

// Relationship is a declared foreign key. From and To are parallel lists of
// qualified field names.
type Relationship struct {
	From []string
	To   []string
}

// SpecialType is a named alias for a concrete type, e.g. VARCHAR(url)
// standing for VARCHAR(255).
type SpecialType struct {
	Type  string `mapstructure:"type"`
	Limit string `mapstructure:"limit"`
}

// Expand returns the type the alias stands for.
func (s *SpecialType) Expand() string {
	if s.Limit != "" {
		return s.Type + "(" + s.Limit + ")"
	}
	return s.Type
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
