// Package lineparser runs a line grammar over a text document and builds the
// document tree.
//
// The parser feeds one line at a time (trailing newline included) through a
// stack of scope frames. A multi-line rule makes the parser buffer lines
// until the scope's end pattern matches, so patterns see the whole entry
// gathered so far. While a scope is being closed the rules of a frame are
// tried in reverse order, which lets the most specific rule of an entry win.
package lineparser

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/schemadoc/pkg/grammar"
	"github.com/leapstack-labs/schemadoc/pkg/schema"
)

// maxPasses bounds the matching passes spent on a single line. A grammar
// that keeps reopening scopes without consuming the line is abandoned for
// that line.
const maxPasses = 16

// state of the per-line loop.
type state int

const (
	stateMatching state = iota
	stateClosingScope
	stateRetrying
	stateDone
)

// mode is the outcome of the last matching pass.
type mode int

const (
	// modeUnresolved means no nested scope was entered.
	modeUnresolved mode = iota
	// modeDescend means a scope was entered and the same line must be
	// matched against it.
	modeDescend
	// modeBuffer means a multi-line scope was entered or extended; the line
	// is kept in the buffer and the parser waits for the next one.
	modeBuffer
)

// closing is the verdict of closeScope.
type closing int

const (
	closeRetry closing = iota
	closeStop
	closeContinue
)

// pass summarizes a matching pass over one frame.
type pass struct {
	matched      int
	closed       bool
	continuation bool
}

func (p pass) any() bool {
	return p.matched > 0 || p.closed || p.continuation
}

type gobble struct {
	rule string
	list *schema.List
}

// Config configures a Parser.
type Config struct {
	// SingleLine disables buffering across lines.
	SingleLine bool
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Parser extracts a document tree with a line grammar. A Parser is not safe
// for concurrent use; create one per document.
type Parser struct {
	rules      *grammar.RuleSet
	singleLine bool
	logger     *slog.Logger

	root     *schema.Map
	parent   *schema.Map
	frame    *frame
	previous string
	reverse  bool
	mode     mode
	gobble   *gobble
	lineNo   int
}

// New creates a parser for rules.
func New(rules *grammar.RuleSet, cfg Config) *Parser {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Parser{
		rules:      rules,
		singleLine: cfg.SingleLine,
		logger:     logger,
	}
}

// Parse consumes lines and returns the document tree. Each line should keep
// its trailing newline.
func (p *Parser) Parse(lines iter.Seq[string]) *schema.Map {
	p.reset()
	for line := range lines {
		p.lineNo++
		p.consume(line)
	}
	// A buffered entry at the end of input is closed as if a blank line
	// followed it.
	if p.mode == modeBuffer && p.previous != "" {
		p.consume("\n")
	}
	p.logger.Debug("parsed document",
		slog.Int("lines", p.lineNo),
		slog.Int("open_scopes", p.frame.depth()))
	return p.root
}

// ParseString parses text.
func (p *Parser) ParseString(text string) *schema.Map {
	return p.Parse(Lines(text))
}

// ParseReader parses everything read from r.
func (p *Parser) ParseReader(r io.Reader) (*schema.Map, error) {
	var readErr error
	br := bufio.NewReader(r)
	tree := p.Parse(func(yield func(string) bool) {
		for {
			line, err := br.ReadString('\n')
			if line != "" && !yield(line) {
				return
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr = err
				}
				return
			}
		}
	})
	if readErr != nil {
		return nil, readErr
	}
	return tree, nil
}

// Lines splits text into lines that keep their trailing newline.
func Lines(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for text != "" {
			i := strings.IndexByte(text, '\n')
			if i < 0 {
				yield(text)
				return
			}
			if !yield(text[:i+1]) {
				return
			}
			text = text[i+1:]
		}
	}
}

func (p *Parser) reset() {
	p.root = schema.NewMap()
	p.parent = p.root
	p.frame = newFrame(p.rules, nil, nil, nil)
	p.previous = ""
	p.reverse = false
	p.mode = modeUnresolved
	p.gobble = nil
	p.lineNo = 0
}

func (p *Parser) consume(line string) {
	var last pass
	passes := 0

	for st := stateMatching; st != stateDone; {
		switch st {
		case stateMatching:
			if passes++; passes > maxPasses {
				p.abandon()
				st = stateDone
				continue
			}

			last = p.match(line)
			if p.mode == modeBuffer && p.reverse {
				p.mode = modeDescend
			}

			switch {
			case p.mode == modeUnresolved && p.frame.outer != nil:
				st = stateClosingScope
			case p.mode == modeUnresolved:
				p.parent = p.root
				st = stateDone
			case p.mode == modeBuffer:
				p.previous += line
				st = stateDone
			}

		case stateClosingScope:
			switch p.closeScope(line, last) {
			case closeRetry:
				st = stateRetrying
			case closeStop:
				st = stateDone
			case closeContinue:
				st = stateMatching
			}

		case stateRetrying:
			if p.mode == modeBuffer {
				st = stateDone
			} else {
				st = stateMatching
			}
		}
	}

	if p.mode != modeBuffer {
		p.previous = ""
	}
}

// match tries the active frame's rules, followed by the frame's end pattern
// (or the other way round while reversing), against the buffered text.
func (p *Parser) match(line string) pass {
	var res pass
	f := p.frame
	text := p.previous + line
	n := f.rules.Len()

	for i := 0; i <= n; i++ {
		idx := i
		if p.reverse {
			idx = n - i
		}

		if idx == n {
			if end := f.end(); end != nil && end.MatchString(text) {
				res.closed = true
				p.close()
				p.mode = modeUnresolved
				return res
			}
			continue
		}

		rule := f.rules.At(idx)
		caps, ok := rule.Pattern.Match(text)
		if !ok {
			continue
		}
		if rule.Marker {
			res.continuation = true
			continue
		}
		res.matched++
		if p.apply(rule, caps) {
			return res
		}
	}

	p.mode = modeUnresolved
	return res
}

// apply records a match and enters the rule's next nested scope. It reports
// whether a scope was entered.
func (p *Parser) apply(rule *grammar.Rule, caps []grammar.Capture) bool {
	f := p.frame
	used := f.consumed[rule]
	fresh := used.fresh()

	var key string
	var keyed bool
	if fresh {
		key, keyed = p.store(rule, caps)
	} else if len(caps) == 1 && caps[0].Present {
		key, keyed = caps[0].Value, true
	}

	var nested *grammar.RuleSet
	switch {
	case rule.Line != nil && !used.line:
		nested = rule.Line
		used.line = true
	case rule.Within != nil && !used.within:
		nested = rule.Within
		used.within = true
	default:
		return false
	}

	f.consumed[rule] = used
	p.frame = newFrame(nested, rule, f, p.parent)
	if keyed && (p.singleLine || fresh) {
		p.parent = p.parent.Child(rule.Name).Child(key)
	}

	if rule.Multiline {
		p.mode = modeBuffer
	} else {
		p.mode = modeDescend
	}
	return true
}

// store writes the captured values of a freshly matched rule into the active
// output node. It returns the key of the child node for scoped and group
// rules.
func (p *Parser) store(rule *grammar.Rule, caps []grammar.Capture) (string, bool) {
	switch {
	case len(caps) > 1:
		values := schema.NewList()
		for _, c := range caps {
			if c.Present {
				values.Append(schema.String(c.Value))
			}
		}
		p.parent.Set(rule.Name, values)
		return "", false
	case len(caps) == 0:
		p.parent.Set(rule.Name, schema.Bool(true))
		return "", false
	case !caps[0].Present:
		return "", false
	}

	key := caps[0].Value
	switch {
	case rule.Scoped():
		p.parent.Child(rule.Name).Child(key)
		if p.gobble != nil && p.gobble.rule == rule.Name {
			p.gobble.list.Append(schema.String(key))
		}
	case rule.Gobble != "":
		members := schema.NewList()
		p.parent.Child(rule.Name).Set(key, members)
		p.gobble = &gobble{rule: rule.Gobble, list: members}
	default:
		p.parent.Set(rule.Name, schema.String(key))
	}
	return key, true
}

// close pops the active frame and restores the output node that was active
// when it opened.
func (p *Parser) close() {
	f := p.frame
	p.frame = f.outer
	delete(p.frame.consumed, f.owner)
	p.parent = f.restore
}

// closeScope decides what happens to the active frame after a pass that
// entered no scope.
func (p *Parser) closeScope(line string, last pass) closing {
	p.reverse = true

	f := p.frame
	owner := f.owner
	used := f.outer.consumed[owner]
	text := p.previous + line

	// The owner still has its persistent scope to enter: hand the line back
	// to the outer frame.
	if !last.continuation && owner.Within != nil && !used.within {
		p.frame = f.outer
		return closeRetry
	}

	if last.any() && owner.End != nil && !owner.End.MatchString(text) {
		if p.singleLine {
			return closeStop
		}
		if last.closed {
			p.previous = ""
		} else {
			p.mode = modeBuffer
			p.previous = trimBuffer(p.previous, line, owner) + line
		}
		return closeRetry
	}

	if owner.Within != nil && used.within && owner.End != nil && !owner.End.MatchString(text) {
		if owner.Multiline {
			p.previous = ""
		}
		return closeStop
	}

	p.close()
	if p.singleLine {
		return closeStop
	}
	p.previous = ""
	p.reverse = false
	if !last.any() {
		return closeStop
	}
	return closeContinue
}

// trimBuffer drops leading lines from the buffer until it no longer closes
// the owner's scope and the owner's pattern still matches.
func trimBuffer(previous, line string, owner *grammar.Rule) string {
	for previous != "" && (owner.End.MatchString(previous+line) || !owner.Pattern.MatchString(previous+line)) {
		if i := strings.IndexByte(previous, '\n'); i >= 0 {
			previous = previous[i+1:]
		} else {
			previous = ""
		}
	}
	return previous
}

// abandon leaves the active scope after the grammar stopped making progress
// on a line.
func (p *Parser) abandon() {
	p.logger.Debug("grammar made no progress, leaving scope",
		slog.Int("line", p.lineNo),
		slog.Int("depth", p.frame.depth()))
	if p.frame.outer != nil {
		p.close()
	} else {
		p.parent = p.root
	}
	p.previous = ""
	p.mode = modeUnresolved
}
