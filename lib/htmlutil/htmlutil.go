// Package htmlutil picks links, images and text out of scraped documents.
// It knows nothing about any particular site, callers bring their own
// selectors and url parsing.
package htmlutil

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("scrapekit.lib.htmlutil")

// Parse reads a document the way page.Content() hands it over.
func Parse(content string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(content))
}

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

// Anchor is one link as scraped: its visible text cleaned up and its href
// resolved.
type Anchor struct {
	Name string
	Href string
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// whitespace collapses before the non-printable strip so line breaks
// inside a title become separators instead of vanishing
func cleanText(s string) string {
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = removeNonPrintable(s)
	return strings.TrimSpace(s)
}

// GetAnchors collects the links under sel. Relative hrefs resolve against
// base when base is non-nil, unparseable ones are recorded on the span and
// skipped.
func GetAnchors(ctx context.Context, sel *goquery.Selection, base *url.URL) []Anchor {
	_, span := tracer.Start(ctx, "GetAnchors")
	defer span.End()

	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href := attrValue(n, "href")
		if href == "" {
			continue
		}

		link, err := url.Parse(href)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "got error while parsing url")
			continue
		}
		if base != nil {
			link = base.ResolveReference(link)
		}

		name := cleanText(GetText(n))
		linkStr := link.String()
		anchors = append(anchors, Anchor{
			Name: name,
			Href: linkStr,
		})
		span.AddEvent("anchor", trace.WithAttributes(
			attribute.String("name", name),
			attribute.String("url", linkStr),
		))
	}

	return anchors
}

// GetImages collects img sources under sel, resolved against base when
// base is non-nil. Duplicates are kept, callers that care dedupe on their
// own key.
func GetImages(ctx context.Context, sel *goquery.Selection, base *url.URL) []string {
	_, span := tracer.Start(ctx, "GetImages")
	defer span.End()

	images := []string{}
	for _, n := range sel.Nodes {
		src := attrValue(n, "src")
		if src == "" {
			src = attrValue(n, "data-src")
		}
		if src == "" {
			continue
		}

		link, err := url.Parse(src)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "got error while parsing url")
			continue
		}
		if base != nil {
			link = base.ResolveReference(link)
		}
		images = append(images, link.String())
	}

	span.SetAttributes(attribute.Int("count", len(images)))
	return images
}

// GetTexts collects the cleaned text of every node under sel, in document
// order. Nodes with no text still produce an entry so positions line up
// with the matched set.
func GetTexts(ctx context.Context, sel *goquery.Selection) []string {
	_, span := tracer.Start(ctx, "GetTexts")
	defer span.End()

	texts := []string{}
	for _, n := range sel.Nodes {
		texts = append(texts, cleanText(GetText(n)))
	}

	span.SetAttributes(attribute.Int("count", len(texts)))
	return texts
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
