package source

import (
	"bytes"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// contentIDs name the elements that hold the page body on common wiki
// engines, most specific first.
var contentIDs = []string{"mw-content-text", "wiki-content", "content"}

// HTMLToMarkdown converts a rendered documentation page to Markdown. Only
// the main content element is converted when the page has one.
func HTMLToMarkdown(data []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	root := contentElement(doc)
	var sb strings.Builder
	if err := html.Render(&sb, root); err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}

	md, err := htmltomarkdown.ConvertString(sb.String())
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	// The line grammar closes entries on blank lines; make sure the last
	// entry is followed by one.
	return strings.TrimRight(md, "\n") + "\n\n", nil
}

func contentElement(doc *html.Node) *html.Node {
	for _, id := range contentIDs {
		if n := findElement(doc, func(n *html.Node) bool { return getAttr(n, "id") == id }); n != nil {
			return n
		}
	}
	for _, tag := range []string{"main", "article", "body"} {
		if n := findElement(doc, func(n *html.Node) bool { return n.Data == tag }); n != nil {
			return n
		}
	}
	return doc
}

// findElement finds the first element, depth first, that satisfies match.
func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

// getAttr returns the value of an attribute, or empty string if not found.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
