package engine

import (
	"strings"

	"github.com/leapstack-labs/schemadoc/pkg/schema"
)

// Palette holds the diagram colours assigned to documentation groups.
var Palette = []string{
	"#e69f00", "#009e73", "#d55e00", "#0072b2", "#cc79a7", "#f0e442",
	"#8c8c8c", "#56b4e9", "#8f34eb", "#9df07a", "#ffffff", "#d2d2d2",
}

// Group is a documentation group with its diagram colour.
type Group struct {
	Title  string   `json:"title"`
	Short  string   `json:"short"`
	Color  string   `json:"color"`
	Tables []string `json:"tables"`
}

// Groups lists the documentation groups in title order. Colours are assigned
// by position and repeat once the palette is exhausted.
func Groups(doc *schema.Schema) []Group {
	titles := doc.GroupNames()
	groups := make([]Group, 0, len(titles))
	for i, title := range titles {
		tables := doc.Groups[title]
		if tables == nil {
			tables = []string{}
		}
		groups = append(groups, Group{
			Title:  title,
			Short:  ShortName(title),
			Color:  Palette[i%len(Palette)],
			Tables: tables,
		})
	}
	return groups
}

// ShortName returns the abbreviation in parentheses of a group title with
// slashes removed, e.g. "Users (u/r)" gives "ur". Titles without one are
// returned unchanged.
func ShortName(title string) string {
	open := strings.LastIndexByte(title, '(')
	if open < 0 {
		return title
	}
	end := strings.IndexByte(title[open:], ')')
	if end < 0 {
		return title
	}
	return strings.ReplaceAll(title[open+1:open+end], "/", "")
}
