package grammar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/schemadoc/pkg/schema"
)

// Attr is one attribute constraint of a Selector. The special name "."
// constrains the element's text instead of an attribute.
type Attr struct {
	Name  string
	Value string
}

// Selector is a conjunction of attribute constraints.
type Selector []Attr

// Key selects elements whose key attribute equals name.
func Key(name string) Selector {
	return Selector{{Name: "key", Value: name}}
}

// StructName selects elements whose struct-name attribute equals name.
func StructName(name string) Selector {
	return Selector{{Name: "struct-name", Value: name}}
}

// HasKey reports whether the selector constrains the key attribute.
func (s Selector) HasKey() bool {
	for _, a := range s {
		if a.Name == "key" {
			return true
		}
	}
	return false
}

// Path renders the selector as an XPath step, e.g. Path(".//", "value").
func (s Selector) Path(axis, tag string) string {
	var b strings.Builder
	b.WriteString(axis)
	b.WriteString(tag)
	for _, a := range s {
		if a.Name == "." {
			fmt.Fprintf(&b, "[text()=%s]", quote(a.Value))
		} else {
			fmt.Fprintf(&b, "[@%s=%s]", a.Name, quote(a.Value))
		}
	}
	return b.String()
}

func quote(v string) string {
	if strings.Contains(v, "'") {
		return `"` + v + `"`
	}
	return "'" + v + "'"
}

// Unroll controls how an element rule's collected results are flattened.
type Unroll int

const (
	// UnrollNone keeps results as a list, or a map keyed by name when the
	// elements carry names.
	UnrollNone Unroll = iota
	// UnrollFlatten replaces the results with the list of their leaf values.
	UnrollFlatten
	// UnrollRewrite flattens like UnrollFlatten and then replaces the
	// qualifying prefix of each leaf (up to the first dot) with Prefix.
	UnrollRewrite
)

// ElementRule extracts a repeated structure from a tree document.
type ElementRule struct {
	Name string
	// Selector locates matching descendants of the current element.
	Selector Selector
	// Filter drops matched elements that have no descendant satisfying it.
	Filter   Selector
	Values   []ValueRule
	Children []ElementRule
	Unroll   Unroll
	Prefix   string
}

// ValueRule extracts a scalar (or a list of references) from the direct
// children of a matched element.
type ValueRule struct {
	Name     string
	Selector Selector
	// Equals keeps the value only when the child's text equals it.
	Equals string
	// Mapping translates the child's text. Unmapped text stores nothing.
	Mapping map[string]schema.Node
	// Refs stores the text of every selected child as a symbolic reference.
	Refs bool
}

// ValidateElements checks a tree grammar for structural errors.
func ValidateElements(rules []ElementRule) error {
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if r.Name == "" {
			return errors.New("element rule has no name")
		}
		if seen[r.Name] {
			return fmt.Errorf("duplicate element rule name %s", r.Name)
		}
		seen[r.Name] = true
		if len(r.Selector) == 0 {
			return fmt.Errorf("element rule %s has no selector", r.Name)
		}
		if r.Unroll != UnrollRewrite && r.Prefix != "" {
			return fmt.Errorf("element rule %s has a prefix but does not rewrite", r.Name)
		}

		values := make(map[string]bool, len(r.Values))
		for _, v := range r.Values {
			if v.Name == "" || len(v.Selector) == 0 {
				return fmt.Errorf("value rule in %s needs a name and a selector", r.Name)
			}
			if values[v.Name] {
				return fmt.Errorf("duplicate value rule %s in %s", v.Name, r.Name)
			}
			values[v.Name] = true
			if v.Refs && (v.Equals != "" || v.Mapping != nil) {
				return fmt.Errorf("reference rule %s in %s cannot filter or map", v.Name, r.Name)
			}
		}

		if err := ValidateElements(r.Children); err != nil {
			return fmt.Errorf("%s: %w", r.Name, err)
		}
	}
	return nil
}
