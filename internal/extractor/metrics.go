package extractor

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/magic42/sitescraper/pkg/types"
)

// extractMetrics computes word count of visible text, total image count,
// and internal vs external link counts for the combined audit.
func (e *Extractor) extractMetrics(doc *goquery.Document, base *url.URL, body []byte) *types.ContentMetrics {
	metrics := &types.ContentMetrics{
		WordCount:  visibleWordCount(body),
		ImageCount: doc.Find("img").Length(),
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		u, err := base.Parse(href)
		if err != nil {
			return
		}
		if u.Hostname() != "" && !e.sameSite(u.Hostname()) {
			metrics.ExternalLinkCount++
		} else {
			metrics.InternalLinkCount++
		}
	})

	return metrics
}

// invisibleTags hold content that never renders as page text.
var invisibleTags = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"iframe":   {},
	"template": {},
	"head":     {},
}

// visibleWordCount walks the parsed node tree counting whitespace-delimited
// words in text nodes, skipping subtrees that never render.
func visibleWordCount(body []byte) int {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return 0
	}

	count := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, skip := invisibleTags[strings.ToLower(n.Data)]; skip {
				return
			}
		}
		if n.Type == html.TextNode {
			count += len(strings.Fields(n.Data))
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return count
}
