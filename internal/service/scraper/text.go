package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLToText reduces a page to its visible text: script, style and noscript
// content is dropped, tags become word breaks and whitespace runs collapse to
// a single space.
func HTMLToText(page string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript, template").Remove()

	var b strings.Builder
	collectText(doc.Selection, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

func collectText(s *goquery.Selection, b *strings.Builder) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			b.WriteString(c.Text())
			b.WriteByte(' ')
		case "#comment":
		default:
			collectText(c, b)
		}
	})
}
