// Package aggregate folds per-page extraction results into the
// campaign-wide report: the unique-image table keyed by normalized source,
// per-type page counts, and the error list. All mutation is serialized;
// finalization is a pure snapshot read.
package aggregate

import (
	"sync"
	"time"

	"github.com/magic42/sitescraper/internal/frontier"
	"github.com/magic42/sitescraper/pkg/types"
)

type imageEntry struct {
	src          string
	alt          string
	pagesFoundOn []string
	pageSeen     map[string]struct{}
}

// Aggregator accumulates crawl results for one run.
type Aggregator struct {
	domain string
	target types.Target

	mu         sync.Mutex
	images     map[string]*imageEntry
	imageOrder []string
	pages      []types.PageResult
	ingested   map[string]struct{}
	typeCounts map[types.PageType]int
	errors     []types.CrawlError
	succeeded  int
	errored    int
	startedAt  time.Time
}

// New creates an aggregator for a crawl of the given domain and target.
func New(domain string, target types.Target) *Aggregator {
	return &Aggregator{
		domain:     domain,
		target:     target,
		images:     make(map[string]*imageEntry),
		ingested:   make(map[string]struct{}),
		typeCounts: make(map[types.PageType]int),
		startedAt:  time.Now(),
	}
}

// Ingest folds one page's extraction result into the aggregate. Results
// arrive in fetch-completion order, so pages_found_on sequences reflect
// completion order. Re-ingesting a page already seen is a no-op.
func (a *Aggregator) Ingest(result types.PageResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, done := a.ingested[result.URL]; done {
		return
	}
	a.ingested[result.URL] = struct{}{}

	a.succeeded++
	a.typeCounts[result.Type]++
	a.pages = append(a.pages, result)

	for _, img := range result.Images {
		key := frontier.NormalizeImage(img.Src)
		entry, ok := a.images[key]
		if !ok {
			// First sighting fixes the alt text for this source.
			entry = &imageEntry{
				src:      img.Src,
				alt:      img.Alt,
				pageSeen: make(map[string]struct{}),
			}
			a.images[key] = entry
			a.imageOrder = append(a.imageOrder, key)
		}
		if _, dup := entry.pageSeen[result.URL]; dup {
			continue
		}
		entry.pageSeen[result.URL] = struct{}{}
		entry.pagesFoundOn = append(entry.pagesFoundOn, result.URL)
	}
}

// RecordError notes a failed page attempt with its error kind.
func (a *Aggregator) RecordError(pageURL string, kind types.ErrorKind, status int, detail string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.errored++
	a.errors = append(a.errors, types.CrawlError{
		URL:    pageURL,
		Kind:   kind,
		Status: status,
		Detail: detail,
		At:     time.Now(),
	})
}

// Succeeded returns the number of pages ingested so far.
func (a *Aggregator) Succeeded() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.succeeded
}

// Snapshot assembles the final report. The coordinator calls it once, after
// all workers have drained; the returned report shares no mutable state
// with the aggregator.
func (a *Aggregator) Snapshot() *types.CrawlReport {
	a.mu.Lock()
	defer a.mu.Unlock()

	report := &types.CrawlReport{
		Domain:         a.domain,
		Target:         a.target,
		PagesAttempted: a.succeeded + a.errored,
		PagesSucceeded: a.succeeded,
		PagesErrored:   a.errored,
		PageTypeCounts: make(map[types.PageType]int, len(a.typeCounts)),
		Pages:          append([]types.PageResult(nil), a.pages...),
		UniqueImages:   make([]types.UniqueImage, 0, len(a.imageOrder)),
		Errors:         append([]types.CrawlError(nil), a.errors...),
		StartedAt:      a.startedAt,
		FinishedAt:     time.Now(),
	}
	for pt, n := range a.typeCounts {
		report.PageTypeCounts[pt] = n
	}
	for _, key := range a.imageOrder {
		entry := a.images[key]
		report.UniqueImages = append(report.UniqueImages, types.UniqueImage{
			Src:          entry.src,
			Alt:          entry.alt,
			PagesFoundOn: append([]string(nil), entry.pagesFoundOn...),
			PageCount:    len(entry.pagesFoundOn),
		})
	}
	return report
}
