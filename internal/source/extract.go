package source

import (
	"archive/zip"
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/schemadoc/pkg/grammar"
	"github.com/leapstack-labs/schemadoc/pkg/lineparser"
	"github.com/leapstack-labs/schemadoc/pkg/schema"
	"github.com/leapstack-labs/schemadoc/pkg/treeparser"
)

// WorkbenchEntry is the model document inside a .mwb archive.
const WorkbenchEntry = "document.mwb.xml"

// Extract runs the grammar engine that fits the document format. JSON
// documents are taken verbatim.
func Extract(doc *Document, logger *slog.Logger) (*schema.Map, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With(slog.String("source", doc.Location))

	switch doc.Format {
	case FormatSQL:
		return extractLines(doc, grammar.DialectSQL, string(doc.Data), logger)
	case FormatMarkdown:
		return extractLines(doc, grammar.DialectMarkdown, string(doc.Data), logger)
	case FormatWiki:
		return extractLines(doc, grammar.DialectWiki, string(doc.Data), logger)
	case FormatHTML:
		md, err := HTMLToMarkdown(doc.Data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", doc.Location, err)
		}
		return extractLines(doc, grammar.DialectMarkdown, md, logger)
	case FormatWorkbench:
		return extractWorkbench(doc, logger)
	case FormatJSON:
		tree, err := schema.DecodeJSON(doc.Data)
		if err != nil {
			return nil, fmt.Errorf("JSON document at %s was invalid: %w", doc.Location, err)
		}
		return tree, nil
	}
	return nil, fmt.Errorf("%w: format %q of %s", ErrUnsupportedContent, doc.Format, doc.Location)
}

func extractLines(doc *Document, d grammar.Dialect, text string, logger *slog.Logger) (*schema.Map, error) {
	rules, err := d.Rules()
	if err != nil {
		return nil, err
	}
	p := lineparser.New(rules, lineparser.Config{SingleLine: d.SingleLine(), Logger: logger})
	tree, err := p.ParseReader(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", doc.Location, err)
	}
	return tree, nil
}

func extractWorkbench(doc *Document, logger *slog.Logger) (*schema.Map, error) {
	p := treeparser.New(grammar.Workbench(), treeparser.Config{Logger: logger})
	if !doc.IsZip() {
		return p.Parse(bytes.NewReader(doc.Data))
	}

	archive, err := zip.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open model archive %s: %w", doc.Location, err)
	}
	f, err := archive.Open(WorkbenchEntry)
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no %s", ErrUnsupportedContent, doc.Location, WorkbenchEntry)
	}
	defer func() { _ = f.Close() }()
	return p.Parse(f)
}
