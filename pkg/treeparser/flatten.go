package treeparser

import (
	"strings"

	"github.com/leapstack-labs/schemadoc/pkg/grammar"
	"github.com/leapstack-labs/schemadoc/pkg/schema"
)

// unroll replaces collected results with the list of their leaf values.
func unroll(items *schema.List, rule grammar.ElementRule) *schema.List {
	out := schema.NewList()
	flatten(items, rule, out)
	return out
}

func flatten(n schema.Node, rule grammar.ElementRule, out *schema.List) {
	switch v := n.(type) {
	case *schema.List:
		for _, it := range v.Items {
			flatten(it, rule, out)
		}
	case *schema.Map:
		v.Range(func(_ string, child schema.Node) bool {
			flatten(child, rule, out)
			return true
		})
	default:
		if rule.Unroll == grammar.UnrollRewrite {
			text := schema.Text(v)
			out.Append(schema.String(rule.Prefix + text[strings.IndexByte(text, '.')+1:]))
			return
		}
		out.Append(v)
	}
}

// byName keys collected results by their name value. Results without a name
// are dropped.
func byName(items *schema.List) *schema.Map {
	out := schema.NewMap()
	for _, it := range items.Items {
		m, ok := it.(*schema.Map)
		if !ok {
			continue
		}
		name, ok := m.Get("name")
		if !ok {
			continue
		}
		out.Set(schema.Text(name), m)
	}
	return out
}
