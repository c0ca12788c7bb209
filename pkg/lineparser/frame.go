package lineparser

import (
	"github.com/leapstack-labs/schemadoc/pkg/grammar"
	"github.com/leapstack-labs/schemadoc/pkg/schema"
)

// consumption tracks which nested scopes of a scoped rule have been entered
// since the rule last opened.
type consumption struct {
	line   bool
	within bool
}

func (c consumption) fresh() bool {
	return !c.line && !c.within
}

// frame is one level of the scope stack. The root frame has no owner.
type frame struct {
	rules *grammar.RuleSet
	// owner is the rule of the outer frame that opened this one.
	owner *grammar.Rule
	outer *frame
	// restore is the output node that was active before owner matched.
	restore *schema.Map
	// consumed records scope progress for the scoped rules of this frame.
	consumed map[*grammar.Rule]consumption
}

func newFrame(rules *grammar.RuleSet, owner *grammar.Rule, outer *frame, restore *schema.Map) *frame {
	return &frame{
		rules:    rules,
		owner:    owner,
		outer:    outer,
		restore:  restore,
		consumed: make(map[*grammar.Rule]consumption),
	}
}

// end returns the pattern that closes this frame, if any.
func (f *frame) end() *grammar.Pattern {
	if f.owner == nil {
		return nil
	}
	return f.owner.End
}

// depth returns the number of frames above the root.
func (f *frame) depth() int {
	n := 0
	for cur := f; cur.outer != nil; cur = cur.outer {
		n++
	}
	return n
}
