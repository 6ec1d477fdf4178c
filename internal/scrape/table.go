// Package scrape extracts rendered HTML results tables into rows of named
// cells, the only markup traversal the locator needs.
package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Row is one data row of a results table, keyed by the header labels.
type Row struct {
	Fields map[string]string

	// Href is the first link in the row, empty if the row has none.
	Href string
}

// Table locates the first table carrying the given class and zips each data
// row against the header row's labels. The second return value reports
// whether such a table was present at all.
func Table(doc *goquery.Document, class string) ([]Row, bool) {
	table := doc.Find("table." + class).First()
	if table.Length() == 0 {
		return nil, false
	}

	trs := table.Find("tr")

	var labels []string
	trs.First().Find("th").Each(func(_ int, th *goquery.Selection) {
		labels = append(labels, cellText(th))
	})

	var rows []Row
	trs.Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return // header row
		}
		tds := tr.Find("td")
		if tds.Length() == 0 {
			return // no data cells, skip
		}

		fields := make(map[string]string, len(labels))
		tds.Each(func(j int, td *goquery.Selection) {
			if j < len(labels) {
				fields[labels[j]] = cellText(td)
			}
		})

		href, _ := tr.Find("a").First().Attr("href")
		rows = append(rows, Row{Fields: fields, Href: href})
	})
	return rows, true
}

// cellText extracts a cell's text with <br> rendered as a single space, so
// multi-line address and unit cells don't end up with words run together.
func cellText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, node := range sel.Nodes {
		writeText(&b, node)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func writeText(b *strings.Builder, n *html.Node) {
	switch {
	case n.Type == html.TextNode:
		b.WriteString(n.Data)
	case n.Type == html.ElementNode && n.Data == "br":
		b.WriteString(" ")
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeText(b, c)
		}
	}
}
