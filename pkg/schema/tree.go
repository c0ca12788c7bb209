// Package schema holds the document tree produced by the extraction engines
// and the typed schema view the comparator works on.
package schema

import (
	"strconv"
)

// Node is a value in an extracted document tree: a String, a Bool, a *List,
// a *Map or a *SymbolicRef.
type Node interface {
	node()
}

// String is a scalar text value.
type String string

// Bool is a flag value.
type Bool bool

func (String) node()       {}
func (Bool) node()         {}
func (*List) node()        {}
func (*Map) node()         {}
func (*SymbolicRef) node() {}

// Text returns the textual form of a scalar node, resolving references.
// Containers yield the empty string.
func Text(n Node) string {
	switch v := n.(type) {
	case String:
		return string(v)
	case Bool:
		return strconv.FormatBool(bool(v))
	case *SymbolicRef:
		return v.String()
	default:
		return ""
	}
}

// List is an ordered sequence of nodes.
type List struct {
	Items []Node
}

// NewList returns a list holding items.
func NewList(items ...Node) *List {
	return &List{Items: items}
}

// Append adds n to the end of the list.
func (l *List) Append(n Node) {
	l.Items = append(l.Items, n)
}

// Len returns the number of items.
func (l *List) Len() int {
	return len(l.Items)
}

// Strings returns the text of every scalar item.
func (l *List) Strings() []string {
	out := make([]string, 0, len(l.Items))
	for _, it := range l.Items {
		switch it.(type) {
		case String, Bool, *SymbolicRef:
			out = append(out, Text(it))
		}
	}
	return out
}

// Map is a string-keyed node that remembers insertion order.
type Map struct {
	keys   []string
	values map[string]Node
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{values: make(map[string]Node)}
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Node, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Set stores v under key, keeping the key's original position when it
// already exists.
func (m *Map) Set(key string, v Node) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Delete removes key.
func (m *Map) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Child returns the map stored under key, creating it (or replacing a
// non-map value) when needed.
func (m *Map) Child(key string) *Map {
	if v, ok := m.values[key]; ok {
		if child, ok := v.(*Map); ok {
			return child
		}
	}
	child := NewMap()
	m.Set(key, child)
	return child
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// Range calls fn for each entry in insertion order until fn returns false.
func (m *Map) Range(fn func(key string, v Node) bool) {
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// Plain converts the map to nested Go values: map[string]any, []any, string
// and bool. References are resolved.
func (m *Map) Plain() map[string]any {
	out := make(map[string]any, len(m.keys))
	for _, k := range m.keys {
		out[k] = plain(m.values[k])
	}
	return out
}

func plain(n Node) any {
	switch v := n.(type) {
	case *Map:
		return v.Plain()
	case *List:
		items := make([]any, len(v.Items))
		for i, it := range v.Items {
			items[i] = plain(it)
		}
		return items
	case Bool:
		return bool(v)
	default:
		return Text(v)
	}
}
