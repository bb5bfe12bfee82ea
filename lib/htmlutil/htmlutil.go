package htmlutil

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("banks-etl.lib.htmlutil")

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// TablesWithClass returns every <table> carrying the given class, in
// document order.
func TablesWithClass(ctx context.Context, doc *goquery.Document, class string) *goquery.Selection {
	_, span := tracer.Start(ctx, "TablesWithClass")
	defer span.End()

	tables := doc.Find("table").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.HasClass(class)
	})
	span.SetAttributes(
		attribute.String("class", class),
		attribute.Int("count", tables.Length()),
	)
	return tables
}

// CellTexts returns the text of every <td> within the row, with the
// surrounding whitespace of each cell trimmed.
func CellTexts(row *goquery.Selection) []string {
	cells := row.Find("td")
	out := make([]string, 0, cells.Length())
	for _, n := range cells.Nodes {
		out = append(out, strings.TrimSpace(GetText(n)))
	}
	return out
}
