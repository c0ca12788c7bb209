// Package source acquires schema and documentation documents from files and
// URLs and turns them into extracted trees.
package source

import (
	"bytes"
	"fmt"
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Format identifies how a document is extracted.
type Format string

const (
	// FormatSQL is a CREATE TABLE dump.
	FormatSQL Format = "sql"
	// FormatMarkdown is Markdown documentation.
	FormatMarkdown Format = "markdown"
	// FormatWiki is MediaWiki documentation.
	FormatWiki Format = "wiki"
	// FormatHTML is a rendered documentation page, converted to Markdown.
	FormatHTML Format = "html"
	// FormatWorkbench is a MySQL Workbench model, zipped or bare XML.
	FormatWorkbench Format = "workbench"
	// FormatJSON is a pre-extracted tree.
	FormatJSON Format = "json"
)

// zipMagic starts every zip archive, including .mwb models.
var zipMagic = []byte("PK\x03\x04")

// Document is an acquired, not yet extracted, source.
type Document struct {
	// Location is the path or URL the document came from.
	Location string
	Format   Format
	Data     []byte
}

// IsZip reports whether the document is a zip archive.
func (d *Document) IsZip() bool {
	return bytes.HasPrefix(d.Data, zipMagic)
}

// IsURL reports whether location is an absolute URL rather than a path.
func IsURL(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// FormatForPath picks a format from a file name extension.
func FormatForPath(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".sql":
		return FormatSQL, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".wiki", ".mediawiki":
		return FormatWiki, nil
	case ".html", ".htm":
		return FormatHTML, nil
	case ".mwb", ".xml":
		return FormatWorkbench, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: no grammar for %q", ErrUnsupportedContent, name)
}

// FormatForContentType picks a format from an HTTP Content-Type header. Plain
// text falls back to the extension of the URL path.
func FormatForContentType(contentType, location string) (Format, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: invalid content type %q of %s", ErrUnsupportedContent, contentType, location)
	}

	switch mediaType {
	case "application/json":
		return FormatJSON, nil
	case "text/html", "application/xhtml+xml":
		return FormatHTML, nil
	case "text/markdown", "text/x-markdown":
		return FormatMarkdown, nil
	case "text/x-wiki":
		return FormatWiki, nil
	case "application/zip", "application/xml", "text/xml":
		return FormatWorkbench, nil
	case "text/plain", "application/octet-stream":
		p := location
		if u, err := url.Parse(location); err == nil {
			p = u.Path
		}
		if f, err := FormatForPath(path.Base(p)); err == nil {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: content type of %s is %s", ErrUnsupportedContent, location, contentType)
}
