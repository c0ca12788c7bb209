package schema

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

// Section keys of a document tree.
const (
	KeyTable       = "table"
	KeySpecialType = "special_type"
	KeyGroup       = "group"
	KeyField       = "field"
	KeyPrimaryKey  = "primary_key_combined"
	KeyReference   = "reference"
)

// FromTree builds the typed view of a document tree.
func FromTree(root *Map) (*Schema, error) {
	s := &Schema{}

	if n, ok := root.Get(KeyTable); ok {
		s.Tables = make(map[string]*Table)
		if tables, ok := n.(*Map); ok {
			var err error
			tables.Range(func(name string, v Node) bool {
				var t *Table
				t, err = tableFrom(name, v)
				if err != nil {
					return false
				}
				s.Tables[name] = t
				return true
			})
			if err != nil {
				return nil, err
			}
		}
	}

	if n, ok := root.Get(KeySpecialType); ok {
		s.SpecialTypes = make(map[string]*SpecialType)
		if types, ok := n.(*Map); ok {
			var err error
			types.Range(func(name string, v Node) bool {
				st := &SpecialType{}
				if m, ok := v.(*Map); ok {
					if err = decode(m.Plain(), st); err != nil {
						err = fmt.Errorf("special type %s: %w", name, err)
						return false
					}
				}
				s.SpecialTypes[name] = st
				return true
			})
			if err != nil {
				return nil, err
			}
		}
	}

	if n, ok := root.Get(KeyGroup); ok {
		s.Groups = make(map[string][]string)
		if groups, ok := n.(*Map); ok {
			groups.Range(func(title string, v Node) bool {
				names := []string{}
				if l, ok := v.(*List); ok {
					names = l.Strings()
				}
				s.Groups[title] = names
				return true
			})
		}
	}

	return s, nil
}

func tableFrom(name string, n Node) (*Table, error) {
	t := &Table{Name: name}
	m, ok := n.(*Map)
	if !ok {
		return t, nil
	}

	if v, ok := m.Get(KeyField); ok {
		t.Fields = make(map[string]*Field)
		if fields, ok := v.(*Map); ok {
			var err error
			fields.Range(func(fieldName string, fv Node) bool {
				f := &Field{}
				if fm, ok := fv.(*Map); ok {
					if err = decode(fm.Plain(), f); err != nil {
						err = fmt.Errorf("field %s.%s: %w", name, fieldName, err)
						return false
					}
				}
				f.Name = fieldName
				t.Fields[fieldName] = f
				return true
			})
			if err != nil {
				return nil, err
			}
		}
	}

	if v, ok := m.Get(KeyPrimaryKey); ok {
		switch pk := v.(type) {
		case *List:
			t.PrimaryKeyCombined = pk.Strings()
		default:
			if text := Text(pk); text != "" {
				t.PrimaryKeyCombined = []string{text}
			} else {
				t.PrimaryKeyCombined = []string{}
			}
		}
	}

	if v, ok := m.Get(KeyReference); ok {
		t.References = []Relationship{}
		if rels, ok := v.(*List); ok {
			for _, it := range rels.Items {
				rel, ok := it.(*Map)
				if !ok {
					continue
				}
				t.References = append(t.References, Relationship{
					From: stringsOf(rel, "from"),
					To:   stringsOf(rel, "to"),
				})
			}
		}
	}

	return t, nil
}

func stringsOf(m *Map, key string) []string {
	if l, ok := m.values[key].(*List); ok {
		return l.Strings()
	}
	return nil
}

func decode(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncType(fieldRefHook),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

var fieldRefsType = reflect.TypeOf([]FieldRef{})

// fieldRefHook turns the flat [table, field, table, field, ...] capture list
// of a documented reference into FieldRef pairs.
func fieldRefHook(from, to reflect.Type, data any) (any, error) {
	if to != fieldRefsType {
		return data, nil
	}

	var values []string
	switch v := data.(type) {
	case []any:
		for _, it := range v {
			if s, ok := it.(string); ok {
				values = append(values, s)
			}
		}
	case []string:
		values = v
	default:
		return data, nil
	}

	refs := make([]map[string]any, 0, len(values)/2)
	for i := 0; i+1 < len(values); i += 2 {
		refs = append(refs, map[string]any{"table": values[i], "field": values[i+1]})
	}
	return refs, nil
}
