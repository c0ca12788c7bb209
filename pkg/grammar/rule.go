// Package grammar defines the declarative rule sets that drive document
// extraction, and the built-in grammars for SQL DDL, Markdown, MediaWiki
// markup and MySQL Workbench models.
//
// A line grammar is an ordered RuleSet. Each Rule names a field of the
// output tree, carries a Pattern, and may open nested rule sets:
//
//   - Line: a one-shot scope entered when the rule first matches.
//   - Within: a persistent scope entered after Line is done (or immediately
//     when there is no Line), kept open until the rule's End pattern matches.
//
// Order inside a RuleSet is significant; the engine tries rules top to bottom
// (or bottom to top while it is closing a scope).
package grammar

import (
	"errors"
	"fmt"
)

// Kind classifies what a Rule contributes to the output tree.
type Kind int

const (
	// KindValue stores a scalar, a flag or a list under the rule's name.
	KindValue Kind = iota
	// KindScoped creates a child node keyed by the captured text and opens
	// a nested scope.
	KindScoped
	// KindGroup creates an empty list keyed by the captured text and starts
	// collecting names matched by the gobbled rule into it.
	KindGroup
	// KindMarker records nothing. It only tells the engine that the text
	// still continues its enclosing construct.
	KindMarker
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindScoped:
		return "scoped"
	case KindGroup:
		return "group"
	case KindMarker:
		return "marker"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Rule is a named extraction rule of a line grammar.
type Rule struct {
	// Name is the key under which results are stored.
	Name string
	// Pattern is tested against the start of the buffered text.
	Pattern *Pattern
	// Line is a one-shot nested scope.
	Line *RuleSet
	// Within is a persistent nested scope.
	Within *RuleSet
	// End closes the scope opened by this rule.
	End *Pattern
	// Multiline makes the engine buffer further lines after the rule opens
	// a scope, instead of matching the nested scope against the same line.
	Multiline bool
	// Gobble names the rule whose matches are collected by a KindGroup rule.
	Gobble string
	// Marker turns the rule into a KindMarker rule.
	Marker bool
}

// Kind returns the rule's kind.
func (r *Rule) Kind() Kind {
	switch {
	case r.Marker:
		return KindMarker
	case r.Scoped():
		return KindScoped
	case r.Gobble != "":
		return KindGroup
	default:
		return KindValue
	}
}

// Scoped reports whether the rule opens nested scopes.
func (r *Rule) Scoped() bool {
	return r.Line != nil || r.Within != nil
}

func (r *Rule) validate() error {
	if r.Name == "" {
		return errors.New("rule has no name")
	}
	if r.Pattern == nil {
		return fmt.Errorf("rule %s has no pattern", r.Name)
	}
	if r.Marker && (r.Scoped() || r.Gobble != "") {
		return fmt.Errorf("marker rule %s cannot open scopes or gobble", r.Name)
	}
	if r.Gobble != "" && r.Scoped() {
		return fmt.Errorf("group rule %s cannot open scopes", r.Name)
	}
	if (r.Scoped() || r.Gobble != "") && r.Pattern.Groups() != 1 {
		return fmt.Errorf("%s rule %s needs exactly one capture group, has %d", r.Kind(), r.Name, r.Pattern.Groups())
	}
	if r.End != nil && !r.Scoped() {
		return fmt.Errorf("rule %s has an end pattern but opens no scope", r.Name)
	}
	return nil
}

// RuleSet is an ordered, immutable collection of rules with unique names.
type RuleSet struct {
	rules []*Rule
	index map[string]int
}

// NewRuleSet validates rules and returns them as a RuleSet.
func NewRuleSet(rules ...*Rule) (*RuleSet, error) {
	set := &RuleSet{
		rules: make([]*Rule, 0, len(rules)),
		index: make(map[string]int, len(rules)),
	}

	for _, r := range rules {
		if r == nil {
			return nil, errors.New("nil rule")
		}
		if err := r.validate(); err != nil {
			return nil, err
		}
		if _, dup := set.index[r.Name]; dup {
			return nil, fmt.Errorf("duplicate rule name %s", r.Name)
		}
		set.index[r.Name] = len(set.rules)
		set.rules = append(set.rules, r)
	}

	return set, nil
}

// MustRuleSet is like NewRuleSet but panics on error.
func MustRuleSet(rules ...*Rule) *RuleSet {
	set, err := NewRuleSet(rules...)
	if err != nil {
		panic(err)
	}
	return set
}

// Len returns the number of rules.
func (s *RuleSet) Len() int {
	return len(s.rules)
}

// At returns the i-th rule.
func (s *RuleSet) At(i int) *Rule {
	return s.rules[i]
}

// Lookup returns the rule with the given name.
func (s *RuleSet) Lookup(name string) (*Rule, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.rules[i], true
}

// Names returns the rule names in order.
func (s *RuleSet) Names() []string {
	names := make([]string, len(s.rules))
	for i, r := range s.rules {
		names[i] = r.Name
	}
	return names
}
