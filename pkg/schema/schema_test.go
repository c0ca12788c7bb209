package schema

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMap_Order(t *testing.T) {
	m := NewMap()
	m.Set("table", String("a"))
	m.Set("group", String("b"))
	m.Set("table", String("c"))

	assert.Equal(t, []string{"table", "group"}, m.Keys())
	v, ok := m.Get("table")
	require.True(t, ok)
	assert.Equal(t, String("c"), v)

	m.Delete("table")
	assert.Equal(t, []string{"group"}, m.Keys())
	assert.False(t, m.Has("table"))
	assert.Equal(t, 1, m.Len())
}

func TestMap_Child(t *testing.T) {
	m := NewMap()
	child := m.Child("table").Child("project")
	child.Set("name", String("project"))

	again := m.Child("table").Child("project")
	assert.Same(t, child, again, "existing maps are reused")

	m.Set("flag", Bool(true))
	replaced := m.Child("flag")
	assert.Equal(t, 0, replaced.Len(), "scalar values are replaced by a fresh map")
}

func TestMerge(t *testing.T) {
	dst := NewMap()
	dst.Child("table").Child("a").Set("type", String("x"))
	dst.Set("group", NewList(String("g")))

	src := NewMap()
	src.Child("table").Child("b").Set("type", String("y"))
	src.Child("special_type").Child("VARCHAR(url)").Set("type", String("VARCHAR"))
	src.Set("group", NewList(String("h")))

	Merge(dst, src)

	assert.Equal(t, map[string]any{
		"table": map[string]any{
			"a": map[string]any{"type": "x"},
			"b": map[string]any{"type": "y"},
		},
		"group": []any{"h"},
		"special_type": map[string]any{
			"VARCHAR(url)": map[string]any{"type": "VARCHAR"},
		},
	}, dst.Plain())
}

func TestSymbolicRef_LateResolution(t *testing.T) {
	names := NewNameTable()
	ref := NewRef("{col-1}", names)
	assert.Equal(t, "{col-1}", ref.String(), "unknown ids resolve to themselves")

	names.Register("{col-1}", "project.id")
	assert.Equal(t, "project.id", ref.String())

	other := NewRef("{col-2}", names)
	names.Register("{col-2}", "user.id")
	assert.True(t, ref.Less(other))
	assert.False(t, ref.Equal(other))
	assert.True(t, ref.Equal(NewRef("{col-1}", names)))
}

func TestEncode(t *testing.T) {
	names := NewNameTable()
	names.Register("c1", "user.id")

	m := NewMap()
	table := m.Child("table").Child("project")
	table.Set("primary_key_combined", NewList(String("id")))
	field := table.Child("field").Child("id")
	field.Set("type", String("INTEGER"))
	field.Set("primary_key", Bool(true))
	table.Set("reference", NewList(NewRef("c1", names)))

	t.Run("json keeps insertion order", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, m, EncodingJSON))
		want := `{
  "table": {
    "project": {
      "primary_key_combined": [
        "id"
      ],
      "field": {
        "id": {
          "type": "INTEGER",
          "primary_key": true
        }
      },
      "reference": [
        "user.id"
      ]
    }
  }
}
`
		assert.Equal(t, want, buf.String())
	})

	t.Run("yaml keeps insertion order", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, m, EncodingYAML))

		var doc yaml.Node
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
		project := doc.Content[0].Content[1].Content[1]
		var keys []string
		for i := 0; i < len(project.Content); i += 2 {
			keys = append(keys, project.Content[i].Value)
		}
		assert.Equal(t, []string{"primary_key_combined", "field", "reference"}, keys)

		var decoded map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, m.Plain(), decoded)
	})

	t.Run("empty list", func(t *testing.T) {
		data, err := NewMap().MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, "{}", string(data))

		data, err = NewList().MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
	})
}

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		in      string
		want    Encoding
		wantErr bool
	}{
		{in: "json", want: EncodingJSON},
		{in: "yaml", want: EncodingYAML},
		{in: "yml", want: EncodingYAML},
		{in: "toml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEncoding(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, ".yaml", EncodingYAML.Extension())
}

func TestDecodeJSON(t *testing.T) {
	m, err := DecodeJSON([]byte(`{"table": {"user": {"field": {"id": {"type": "INTEGER", "null": false, "limit": 11, "skip": null}}}}}`))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"table": map[string]any{
			"user": map[string]any{
				"field": map[string]any{
					"id": map[string]any{"type": "INTEGER", "null": false, "limit": "11"},
				},
			},
		},
	}, m.Plain())

	_, err = DecodeJSON([]byte(`[1, 2]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an object")

	_, err = DecodeJSON([]byte(`{`))
	require.Error(t, err)
}

func TestFromTree(t *testing.T) {
	root := NewMap()
	tables := root.Child(KeyTable)

	project := tables.Child("project")
	project.Set(KeyPrimaryKey, NewList(String("id")))
	id := project.Child(KeyField).Child("id")
	id.Set("type", String("INTEGER"))
	id.Set("primary_key", Bool(true))
	owner := project.Child(KeyField).Child("owner_id")
	owner.Set("type", String("INTEGER"))
	owner.Set("null", Bool(true))
	owner.Set("reference", NewList(String("user"), String("id"), String("team"), String("id")))
	rel := NewMap()
	rel.Set("from", NewList(String("project.owner_id")))
	rel.Set("to", NewList(String("user.id")))
	project.Set(KeyReference, NewList(rel))

	user := tables.Child("user")
	user.Set(KeyField, NewList())
	user.Set(KeyPrimaryKey, String("id"))

	root.Child(KeySpecialType).Child("VARCHAR(url)").Set("limit", String("255"))
	root.Child(KeySpecialType).Child("VARCHAR(url)").Set("type", String("VARCHAR"))
	root.Child(KeyGroup).Set("Projects (shared)", NewList(String("project"), String("user")))

	s, err := FromTree(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"project", "user"}, s.TableNames())
	p := s.Tables["project"]
	assert.Equal(t, []string{"id", "owner_id"}, p.FieldNames())
	assert.Equal(t, []string{"id"}, p.PrimaryKeyCombined)
	assert.True(t, p.InCombinedKey("id"))
	assert.Equal(t, []Relationship{{From: []string{"project.owner_id"}, To: []string{"user.id"}}}, p.References)

	f := p.Fields["owner_id"]
	assert.Equal(t, "owner_id", f.Name)
	assert.Equal(t, "INTEGER", f.Type)
	require.NotNil(t, f.Null)
	assert.True(t, *f.Null)
	assert.Nil(t, f.PrimaryKey)
	assert.Equal(t, []FieldRef{{Table: "user", Field: "id"}, {Table: "team", Field: "id"}}, f.References)
	assert.Equal(t, "user.id", f.References[0].String())

	require.NotNil(t, p.Fields["id"].PrimaryKey)
	assert.True(t, *p.Fields["id"].PrimaryKey)

	u := s.Tables["user"]
	assert.NotNil(t, u.Fields, "a field list is a present, empty section")
	assert.Empty(t, u.Fields)
	assert.Equal(t, []string{"id"}, u.PrimaryKeyCombined)
	assert.Nil(t, u.References)

	require.Contains(t, s.SpecialTypes, "VARCHAR(url)")
	assert.Equal(t, "VARCHAR(255)", s.SpecialTypes["VARCHAR(url)"].Expand())
	assert.Equal(t, map[string][]string{"Projects (shared)": {"project", "user"}}, s.Groups)
}

func TestFromTree_AbsentSections(t *testing.T) {
	s, err := FromTree(NewMap())
	require.NoError(t, err)
	assert.Nil(t, s.Tables)
	assert.Nil(t, s.SpecialTypes)
	assert.Nil(t, s.Groups)
}
