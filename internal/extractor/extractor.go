// Package extractor parses one fetched page into image records, optional
// product/SEO/content-metric records, and outbound link candidates for the
// frontier. Extractors are stateless; a malformed field degrades to an
// absent value rather than failing the page.
package extractor

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/magic42/sitescraper/pkg/types"
)

// Options controls image filtering and link discovery.
type Options struct {
	// Domain is the registrable site domain; links outside it are not
	// offered to the frontier.
	Domain          string
	MinImageWidth   int
	MinImageHeight  int
	MaxLinksPerPage int
}

// Extractor turns raw HTML into a PageResult.
type Extractor struct {
	opts Options
}

// New creates an extractor for one crawl run.
func New(opts Options) *Extractor {
	if opts.MinImageWidth <= 0 {
		opts.MinImageWidth = 50
	}
	if opts.MinImageHeight <= 0 {
		opts.MinImageHeight = 50
	}
	if opts.MaxLinksPerPage <= 0 {
		opts.MaxLinksPerPage = 200
	}
	opts.Domain = strings.TrimPrefix(strings.ToLower(opts.Domain), "www.")
	return &Extractor{opts: opts}
}

// Extract parses the document and assembles the page's result. When full
// is set (the combined audit), product attributes, SEO fields, and content
// metrics are populated alongside the image records.
func (e *Extractor) Extract(pageURL *url.URL, body []byte, pt types.PageType, status int, full bool) (types.PageResult, error) {
	result := types.PageResult{
		URL:    pageURL.String(),
		Type:   pt,
		Status: status,
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return result, fmt.Errorf("parse html: %w", err)
	}

	result.Title = e.title(doc)
	result.Images = e.extractImages(doc, pageURL)
	result.Links = e.extractLinks(doc, pageURL)

	if full {
		result.SEO = e.extractSEO(doc)
		result.Metrics = e.extractMetrics(doc, pageURL, body)
		product, hasSchema, schemaTypes := e.extractStructured(doc)
		result.Product = product
		result.HasSchema = hasSchema
		result.SchemaTypes = schemaTypes
	}

	return result, nil
}

func (e *Extractor) title(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		return strings.TrimSpace(og)
	}
	return ""
}

// extractLinks collects outbound anchors, resolves them against the page
// URL, and filters to same-site http(s) candidates.
func (e *Extractor) extractLinks(doc *goquery.Document, base *url.URL) []*url.URL {
	seen := make(map[string]struct{})
	links := make([]*url.URL, 0, 32)

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return true
		}
		if strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
			return true
		}

		u, err := base.Parse(href)
		if err != nil {
			return true
		}
		u.Fragment = ""
		scheme := strings.ToLower(u.Scheme)
		if scheme != "http" && scheme != "https" {
			return true
		}
		if !e.sameSite(u.Hostname()) {
			return true
		}

		key := u.String()
		if _, exists := seen[key]; exists {
			return true
		}
		seen[key] = struct{}{}
		links = append(links, u)
		return len(links) < e.opts.MaxLinksPerPage
	})

	return links
}

// sameSite treats www and bare hosts as the same site and admits
// subdomains of the configured domain.
func (e *Extractor) sameSite(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	if host == "" || e.opts.Domain == "" {
		return false
	}
	return host == e.opts.Domain || strings.HasSuffix(host, "."+e.opts.Domain)
}
