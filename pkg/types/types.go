package types

import (
	"net/url"
	"time"
)

// Target selects which page types a crawl follows and extracts.
type Target string

const (
	TargetCategory Target = "category"
	TargetProduct  Target = "product"
	TargetBlog     Target = "blog"
	TargetAll      Target = "all"
	// TargetFullMonty follows category and product pages and extracts the
	// full data set (SEO, product attributes, content metrics) from each.
	TargetFullMonty Target = "fullmonty"
)

// Valid reports whether the target is one of the supported crawl types.
func (t Target) Valid() bool {
	switch t {
	case TargetCategory, TargetProduct, TargetBlog, TargetAll, TargetFullMonty:
		return true
	}
	return false
}

// FullData reports whether pages crawled under this target get the full
// extraction pass (structured data, SEO fields, content metrics).
func (t Target) FullData() bool {
	return t == TargetFullMonty
}

// PageType labels a fetched page by its URL shape.
type PageType string

const (
	PageCategory PageType = "category"
	PageProduct  PageType = "product"
	PageBlog     PageType = "blog"
	PageOther    PageType = "other"
)

// ErrorKind classifies a per-URL crawl failure. Failures are recorded in
// the report and never abort the run.
type ErrorKind string

const (
	ErrKindTimeout       ErrorKind = "timeout"
	ErrKindHTTPError     ErrorKind = "http_error"
	ErrKindNetworkError  ErrorKind = "network_error"
	ErrKindRobotsBlocked ErrorKind = "robots_blocked"
	ErrKindParseError    ErrorKind = "parse_error"
)

// CrawlError records a single failed page attempt.
type CrawlError struct {
	URL    string    `json:"url"`
	Kind   ErrorKind `json:"kind"`
	Status int       `json:"status,omitempty"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

// CrawlRequest models a work item taken from the frontier.
type CrawlRequest struct {
	URL        *url.URL
	Key        string
	Depth      int
	Type       PageType
	EnqueuedAt time.Time
}

// Page represents the raw fetched content.
type Page struct {
	URL             *url.URL
	FinalURL        *url.URL
	Body            []byte
	ContentType     string
	StatusCode      int
	FetchedAt       time.Time
	ResponseLatency time.Duration
}

// ImageRecord is one usable image reference found on a page.
type ImageRecord struct {
	Src    string `json:"src"`
	Alt    string `json:"alt"`
	Page   string `json:"page"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// ProductRecord carries product attributes read from structured data or
// markup conventions. Empty fields mean "not found".
type ProductRecord struct {
	Name         string `json:"name"`
	Price        string `json:"price"`
	Currency     string `json:"currency"`
	SKU          string `json:"sku"`
	Brand        string `json:"brand"`
	Availability string `json:"availability"`
	Description  string `json:"description"`
}

// SEORecord carries the on-page SEO fields.
type SEORecord struct {
	MetaTitle       string `json:"meta_title"`
	MetaDescription string `json:"meta_description"`
	H1              string `json:"h1"`
	CanonicalURL    string `json:"canonical_url"`
	OGTitle         string `json:"og_title"`
	OGDescription   string `json:"og_description"`
	OGImage         string `json:"og_image"`
}

// ContentMetrics summarises page content volume.
type ContentMetrics struct {
	WordCount         int `json:"word_count"`
	ImageCount        int `json:"image_count"`
	InternalLinkCount int `json:"internal_link_count"`
	ExternalLinkCount int `json:"external_link_count"`
}

// PageResult is the extraction outcome for one successfully fetched page.
// It is produced once by the extractor, consumed once by the aggregator,
// and never mutated afterwards.
type PageResult struct {
	URL       string          `json:"url"`
	Type      PageType        `json:"type"`
	Status    int             `json:"status"`
	Title     string          `json:"title"`
	Images    []ImageRecord   `json:"images"`
	Product   *ProductRecord  `json:"product,omitempty"`
	SEO       *SEORecord      `json:"seo,omitempty"`
	Metrics   *ContentMetrics `json:"metrics,omitempty"`
	HasSchema bool            `json:"has_schema_markup"`
	// SchemaTypes lists the schema.org @type values seen in JSON-LD blocks.
	SchemaTypes []string   `json:"schema_types,omitempty"`
	Links       []*url.URL `json:"-"`
	FetchedAt   time.Time  `json:"fetched_at"`
}

// UniqueImage is one row of the cross-page unique-image table.
// PagesFoundOn holds distinct page URLs in completion order;
// PageCount always equals len(PagesFoundOn).
type UniqueImage struct {
	Src          string   `json:"src"`
	Alt          string   `json:"alt"`
	PagesFoundOn []string `json:"pages_found_on"`
	PageCount    int      `json:"page_count"`
}

// CrawlReport is the terminal aggregate handed to report writers once the
// coordinator declares the crawl complete.
type CrawlReport struct {
	Domain         string           `json:"domain"`
	Target         Target           `json:"target"`
	PagesAttempted int              `json:"pages_attempted"`
	PagesSucceeded int              `json:"pages_succeeded"`
	PagesErrored   int              `json:"pages_errored"`
	PageTypeCounts map[PageType]int `json:"page_type_counts"`
	Pages          []PageResult     `json:"pages"`
	UniqueImages   []UniqueImage    `json:"unique_images"`
	Errors         []CrawlError     `json:"errors"`
	StartedAt      time.Time        `json:"started_at"`
	FinishedAt     time.Time        `json:"finished_at"`
}

// PagesOfType returns the page results labelled with the given type,
// preserving completion order.
func (r *CrawlReport) PagesOfType(pt PageType) []PageResult {
	var out []PageResult
	for _, p := range r.Pages {
		if p.Type == pt {
			out = append(out, p)
		}
	}
	return out
}
