package grammar

import (
	"fmt"
	"sort"
	"time"

	"github.com/dlclark/regexp2"
)

// Flag adjusts how a Pattern is compiled.
type Flag int

const (
	// Multiline makes ^ and $ match at line boundaries.
	Multiline Flag = 1 << iota
	// DotAll makes . match newlines.
	DotAll
)

// matchTimeout bounds a single match attempt. A timeout counts as no match.
const matchTimeout = time.Second

// Capture is the text captured by one capture group.
type Capture struct {
	Value   string
	Present bool

	index int
}

// Pattern is a regular expression anchored at the start of the tested text.
//
// Patterns use .NET-style syntax (lookahead, repeated group captures), which
// the grammars need and RE2 cannot express.
type Pattern struct {
	source string
	re     *regexp2.Regexp
	groups int
}

// CompilePattern compiles expr with the given flags.
func CompilePattern(expr string, flags ...Flag) (*Pattern, error) {
	var opts regexp2.RegexOptions
	for _, f := range flags {
		if f&Multiline != 0 {
			opts |= regexp2.Multiline
		}
		if f&DotAll != 0 {
			opts |= regexp2.Singleline
		}
	}

	re, err := regexp2.Compile(`\A(?:`+expr+`)`, opts)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	re.MatchTimeout = matchTimeout

	return &Pattern{
		source: expr,
		re:     re,
		groups: len(re.GetGroupNumbers()) - 1,
	}, nil
}

// MustPattern is like CompilePattern but panics on error.
func MustPattern(expr string, flags ...Flag) *Pattern {
	p, err := CompilePattern(expr, flags...)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the expression the pattern was compiled from.
func (p *Pattern) String() string {
	return p.source
}

// Groups returns the number of capture groups in the expression.
func (p *Pattern) Groups() int {
	return p.groups
}

// MatchString reports whether the pattern matches at the start of text.
func (p *Pattern) MatchString(text string) bool {
	ok, err := p.re.MatchString(text)
	return err == nil && ok
}

// Match tests the pattern against the start of text and returns its captures.
//
// Every capture group contributes at least one entry: groups that did not
// participate yield a Capture with Present unset, and groups that matched
// repeatedly yield one entry per repetition. Present captures are ordered by
// their position in text, so alternating repeated groups such as
// `t.f (or t.f)*` come out as consecutive pairs.
func (p *Pattern) Match(text string) ([]Capture, bool) {
	m, err := p.re.FindStringMatch(text)
	if err != nil || m == nil {
		return nil, false
	}

	groups := m.Groups()
	var present, absent []Capture
	for _, g := range groups[1:] {
		if len(g.Captures) == 0 {
			absent = append(absent, Capture{})
			continue
		}
		for _, c := range g.Captures {
			present = append(present, Capture{Value: c.String(), Present: true, index: c.Index})
		}
	}

	sort.SliceStable(present, func(i, j int) bool {
		return present[i].index < present[j].index
	})
	return append(present, absent...), true
}
