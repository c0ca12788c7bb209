// Package treeparser runs a tree grammar over an XML document and builds the
// document tree.
package treeparser

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/leapstack-labs/schemadoc/pkg/grammar"
	"github.com/leapstack-labs/schemadoc/pkg/schema"
)

// Config configures a Parser.
type Config struct {
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Parser extracts a document tree with a tree grammar.
type Parser struct {
	rules  []grammar.ElementRule
	names  *schema.NameTable
	logger *slog.Logger
}

// New creates a parser for rules.
func New(rules []grammar.ElementRule, cfg Config) *Parser {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Parser{
		rules:  rules,
		names:  schema.NewNameTable(),
		logger: logger,
	}
}

// Names returns the id to name table filled by the last parse. References in
// the returned tree resolve through it.
func (p *Parser) Names() *schema.NameTable {
	return p.names
}

// Parse reads an XML document from r and extracts its tree.
func (p *Parser) Parse(r io.Reader) (*schema.Map, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse XML document: %w", err)
	}
	return p.ParseNode(doc), nil
}

// ParseNode extracts the tree below root.
func (p *Parser) ParseNode(root *xmlquery.Node) *schema.Map {
	p.names = schema.NewNameTable()
	out := schema.NewMap()
	p.nested(root, p.rules, out, "")
	p.logger.Debug("parsed tree document", slog.Int("names", p.names.Len()))
	return out
}

// nested applies element rules below elem. Named elements are registered
// under prefix; top-level names become the prefix of their descendants.
func (p *Parser) nested(elem *xmlquery.Node, rules []grammar.ElementRule, out *schema.Map, prefix string) {
	for _, rule := range rules {
		matches, err := xmlquery.QueryAll(elem, rule.Selector.Path(".//", "value"))
		if err != nil {
			p.logger.Warn("invalid selector", slog.String("rule", rule.Name), slog.Any("error", err))
			continue
		}

		var filter string
		if len(rule.Filter) > 0 {
			filter = rule.Filter.Path(".//", "value")
		}

		items := schema.NewList()
		named := false
		for _, child := range matches {
			if filter != "" {
				hit, err := xmlquery.Query(child, filter)
				if err != nil || hit == nil {
					continue
				}
			}

			node := schema.NewMap()
			items.Append(node)
			p.values(child, rule.Values, node)

			childPrefix := ""
			if name, ok := node.Get("name"); ok {
				if id := child.SelectAttr("id"); id != "" {
					named = true
					p.names.Register(id, prefix+schema.Text(name))
					if prefix == "" {
						childPrefix = schema.Text(name) + "."
					}
				}
			}

			if len(rule.Children) > 0 {
				p.nested(child, rule.Children, node, childPrefix)
			}
		}

		switch {
		case rule.Unroll != grammar.UnrollNone:
			out.Set(rule.Name, unroll(items, rule))
		case named:
			out.Set(rule.Name, byName(items))
		default:
			out.Set(rule.Name, items)
		}
	}
}

// values applies value rules to the direct children of elem.
func (p *Parser) values(elem *xmlquery.Node, rules []grammar.ValueRule, out *schema.Map) {
	for _, rule := range rules {
		children, err := xmlquery.QueryAll(elem, rule.Selector.Path("./", "*"))
		if err != nil {
			p.logger.Warn("invalid selector", slog.String("rule", rule.Name), slog.Any("error", err))
			continue
		}
		if len(children) == 0 {
			continue
		}

		if rule.Refs {
			refs := schema.NewList()
			for _, c := range children {
				refs.Append(schema.NewRef(strings.TrimSpace(c.InnerText()), p.names))
			}
			out.Set(rule.Name, refs)
			continue
		}

		if !rule.Selector.HasKey() {
			texts := schema.NewList()
			for _, c := range children {
				texts.Append(schema.String(strings.TrimSpace(c.InnerText())))
			}
			out.Set(rule.Name, texts)
			continue
		}

		value := strings.TrimSpace(children[0].InnerText())
		if rule.Equals != "" && value != rule.Equals {
			continue
		}
		if rule.Mapping != nil {
			mapped, ok := rule.Mapping[value]
			if !ok {
				p.logger.Debug("unmapped value", slog.String("rule", rule.Name), slog.String("value", value))
				continue
			}
			out.Set(rule.Name, mapped)
			continue
		}
		if value != "-1" {
			out.Set(rule.Name, schema.String(value))
		}
	}
}
