package treeparser

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/schemadoc/internal/testutil"
	"github.com/leapstack-labs/schemadoc/pkg/grammar"
	"github.com/leapstack-labs/schemadoc/pkg/schema"
)

func parseModel(t *testing.T) (*Parser, *schema.Map) {
	t.Helper()
	f, err := os.Open("testdata/model.xml")
	require.NoError(t, err)
	defer f.Close()

	p := New(grammar.Workbench(), Config{Logger: testutil.NewTestLogger(t)})
	tree, err := p.Parse(f)
	require.NoError(t, err)
	return p, tree
}

func TestParse_Workbench(t *testing.T) {
	p, tree := parseModel(t)

	assert.Equal(t, map[string]any{
		"table": map[string]any{
			"project": map[string]any{
				"name": "project",
				"field": map[string]any{
					"id":       map[string]any{"name": "id", "primary_key": true, "type": "INTEGER"},
					"name":     map[string]any{"name": "name", "type": "VARCHAR", "limit": "100", "null": true},
					"owner_id": map[string]any{"name": "owner_id", "type": "INTEGER"},
					"budget":   map[string]any{"name": "budget", "type": "DECIMAL", "precision": "10", "scale": "2"},
				},
				"primary_key_combined": []any{"id"},
				"reference": []any{
					map[string]any{
						"from": []any{"project.owner_id"},
						"to":   []any{"user.id"},
					},
				},
			},
			"user": map[string]any{
				"name": "user",
				"field": map[string]any{
					"id":     map[string]any{"name": "id", "primary_key": true, "type": "INTEGER"},
					"avatar": map[string]any{"name": "avatar"},
				},
				"primary_key_combined": []any{"id"},
				"reference":            []any{},
			},
		},
	}, tree.Plain())

	assert.Equal(t, 8, p.Names().Len(), "tables and columns are registered")
	name, ok := p.Names().Resolve("c4")
	require.True(t, ok)
	assert.Equal(t, "user.id", name)
}

func TestParse_ReferencesResolveLate(t *testing.T) {
	_, tree := parseModel(t)

	tables, _ := tree.Get("table")
	project, _ := tables.(*schema.Map).Get("project")
	refs, _ := project.(*schema.Map).Get("reference")
	fk := refs.(*schema.List).Items[0].(*schema.Map)
	to, _ := fk.Get("to")

	ref, ok := to.(*schema.List).Items[0].(*schema.SymbolicRef)
	require.True(t, ok, "foreign key targets stay symbolic")
	assert.Equal(t, "c4", ref.ID)
	assert.Equal(t, "user.id", ref.String(), "a column registered after the reference still resolves")
}

func TestParse_ToSchema(t *testing.T) {
	_, tree := parseModel(t)

	s, err := schema.FromTree(tree)
	require.NoError(t, err)

	project := s.Tables["project"]
	require.NotNil(t, project)
	assert.Equal(t, []schema.Relationship{{From: []string{"project.owner_id"}, To: []string{"user.id"}}}, project.References)
	assert.Equal(t, "100", project.Fields["name"].Limit)
	require.NotNil(t, project.Fields["name"].Null)
	assert.True(t, *project.Fields["name"].Null)
	assert.NotNil(t, s.Tables["user"].References, "an empty foreign key list is present")
}

func TestParse_ValueRules(t *testing.T) {
	doc := `<data>
  <value struct-name="item" id="a">
    <value key="name">alpha</value>
    <value key="state">on</value>
    <value key="size">-1</value>
    <tag type="label">x</tag>
    <tag type="label">y</tag>
  </value>
  <value struct-name="item" id="b">
    <value key="name">beta</value>
    <value key="state">off</value>
    <value key="size">3</value>
  </value>
</data>`

	rules := []grammar.ElementRule{{
		Name:     "item",
		Selector: grammar.StructName("item"),
		Values: []grammar.ValueRule{
			{Name: "name", Selector: grammar.Key("name")},
			{Name: "enabled", Selector: grammar.Key("state"), Equals: "on",
				Mapping: map[string]schema.Node{"on": schema.Bool(true)}},
			{Name: "size", Selector: grammar.Key("size")},
			{Name: "labels", Selector: grammar.Selector{{Name: "type", Value: "label"}}},
		},
	}}
	require.NoError(t, grammar.ValidateElements(rules))

	tree, err := New(rules, Config{}).Parse(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"item": map[string]any{
			"alpha": map[string]any{"name": "alpha", "enabled": true, "labels": []any{"x", "y"}},
			"beta":  map[string]any{"name": "beta", "size": "3"},
		},
	}, tree.Plain())
}

func TestParse_Unnamed(t *testing.T) {
	doc := `<data><value struct-name="item"><value key="size">1</value></value></data>`
	rules := []grammar.ElementRule{{
		Name:     "item",
		Selector: grammar.StructName("item"),
		Values:   []grammar.ValueRule{{Name: "size", Selector: grammar.Key("size")}},
	}}

	tree, err := New(rules, Config{}).Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"item": []any{map[string]any{"size": "1"}}}, tree.Plain())
}

func TestParse_InvalidXML(t *testing.T) {
	_, err := New(grammar.Workbench(), Config{}).Parse(strings.NewReader("<data><value"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse XML document")
}
