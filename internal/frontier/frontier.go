// Package frontier owns the set of URLs to visit and the record of URLs
// ever admitted. Admission is at-most-once per normalized URL and dispatch
// order is breadth-first, so a fixed seed set over a fixed site graph
// produces a reproducible traversal.
package frontier

import (
	"net/url"
	"sync"
	"time"

	"github.com/magic42/sitescraper/internal/classifier"
	"github.com/magic42/sitescraper/pkg/types"
)

// Frontier is a FIFO queue plus a seen-set keyed by normalized URL.
// All operations are serialized; it is safe for concurrent use by crawl
// workers.
type Frontier struct {
	target   types.Target
	maxPages int
	known    *classifier.KnownURLs

	mu       sync.Mutex
	queue    []types.CrawlRequest
	seen     map[string]struct{}
	admitted int
}

// New creates a frontier for the given target. maxPages <= 0 means
// unbounded admission; known may be nil.
func New(target types.Target, maxPages int, known *classifier.KnownURLs) *Frontier {
	return &Frontier{
		target:   target,
		maxPages: maxPages,
		known:    known,
		seen:     make(map[string]struct{}),
	}
}

// Offer normalizes the URL and admits it if the classifier includes it
// under the active target, it has not been seen, and the admission cap has
// not been reached. It reports whether the entry was newly admitted.
func (f *Frontier) Offer(u *url.URL, depth int) bool {
	if u == nil {
		return false
	}
	decision := classifier.Classify(u, f.target, f.known)
	if !decision.Include {
		return false
	}
	return f.admit(u, depth, decision.Type)
}

// OfferSeed admits a seed URL, bypassing pattern rules. Seeds still dedupe
// against the seen-set and count toward the admission cap.
func (f *Frontier) OfferSeed(u *url.URL) bool {
	if u == nil {
		return false
	}
	return f.admit(u, 0, classifier.PageTypeOf(u, f.known))
}

func (f *Frontier) admit(u *url.URL, depth int, pt types.PageType) bool {
	key := Normalize(u)
	if key == "" {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.seen[key]; ok {
		return false
	}
	if f.maxPages > 0 && f.admitted >= f.maxPages {
		return false
	}
	f.seen[key] = struct{}{}
	f.admitted++
	f.queue = append(f.queue, types.CrawlRequest{
		URL:        u,
		Key:        key,
		Depth:      depth,
		Type:       pt,
		EnqueuedAt: time.Now(),
	})
	return true
}

// Take removes and returns the oldest admitted entry. The second return
// value is false when the queue is empty.
func (f *Frontier) Take() (types.CrawlRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return types.CrawlRequest{}, false
	}
	entry := f.queue[0]
	f.queue = f.queue[1:]
	return entry, true
}

// Size returns the number of queued, not-yet-taken entries.
func (f *Frontier) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Admitted returns the cumulative count of admitted entries.
func (f *Frontier) Admitted() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.admitted
}
