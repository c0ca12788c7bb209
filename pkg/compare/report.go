package compare

import "sort"

// Kind classifies a violation.
type Kind string

const (
	// KindSection is a whole section missing on one side.
	KindSection Kind = "section"
	// KindMissing is something present in the schema but not documented.
	KindMissing Kind = "missing"
	// KindSuperfluous is something documented but absent from the schema.
	KindSuperfluous Kind = "superfluous"
	// KindMismatch is a value that differs between both sides.
	KindMismatch Kind = "mismatch"
	// KindPrimaryKey is a primary key that disagrees with the combined key.
	KindPrimaryKey Kind = "primary_key"
	// KindReference is an invalid or undeclared reference.
	KindReference Kind = "reference"
	// KindAlias is a special type that cannot be resolved.
	KindAlias Kind = "alias"
)

// Violation is one disagreement between documentation and schema.
type Violation struct {
	Kind    Kind   `json:"kind"`
	Table   string `json:"table,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Report is the result of a comparison.
type Report struct {
	Violations []Violation `json:"violations"`
	// Tables is the number of tables present on both sides.
	Tables int `json:"tables"`
}

// Count returns the number of violations.
func (r *Report) Count() int {
	return len(r.Violations)
}

// OK reports whether the comparison found nothing.
func (r *Report) OK() bool {
	return len(r.Violations) == 0
}

// Messages returns the violation messages in the order they were found.
func (r *Report) Messages() []string {
	out := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		out[i] = v.Message
	}
	return out
}

// KindCount is the number of violations of one kind.
type KindCount struct {
	Kind  Kind
	Count int
}

// ByKind counts violations per kind, most frequent first.
func (r *Report) ByKind() []KindCount {
	counts := make(map[Kind]int)
	for _, v := range r.Violations {
		counts[v.Kind]++
	}
	out := make([]KindCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, KindCount{Kind: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}
