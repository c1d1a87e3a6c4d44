// Package htmltext flattens provider HTML (job descriptions, alert emails)
// into plain text while keeping paragraph and list structure readable.
package htmltext

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var newlineRuns = regexp.MustCompile(`\n{3,}`)

// Strip converts markup to plain text: paragraphs and breaks become newlines,
// list items become "- " bullets, entities are decoded, and runs of 3+ blank
// lines collapse to one blank line. Plain text input passes through cleaned.
func Strip(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return Collapse(markup)
	}

	var b strings.Builder
	for _, n := range doc.Selection.Nodes {
		walk(&b, n)
	}
	return Collapse(b.String())
}

func walk(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "template", "head":
			return
		case "br":
			b.WriteString("\n")
			return
		case "li":
			b.WriteString("\n- ")
		case "p", "div", "ul", "ol", "table", "tr", "blockquote",
			"section", "article", "h1", "h2", "h3", "h4", "h5", "h6":
			b.WriteString("\n\n")
		}
	}
	if n.Type == html.TextNode {
		writeText(b, n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(b, c)
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "ul", "ol", "table", "tr", "blockquote",
			"section", "article", "h1", "h2", "h3", "h4", "h5", "h6":
			b.WriteString("\n")
		}
	}
}

func writeText(b *strings.Builder, raw string) {
	raw = strings.ReplaceAll(raw, "\u00a0", " ")
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return
	}
	s := b.String()
	if s != "" && !strings.HasSuffix(s, "\n") && !strings.HasSuffix(s, " ") {
		b.WriteString(" ")
	}
	b.WriteString(strings.Join(fields, " "))
}

// Collapse trims per-line whitespace and squeezes newline runs down to at
// most one blank line.
func Collapse(s string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	s = strings.Join(lines, "\n")
	s = newlineRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
