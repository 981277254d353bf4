package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magic42/sitescraper/internal/config"
	"github.com/magic42/sitescraper/pkg/types"
)

// crawlSite serves a static path->HTML site and records how often each
// path is requested.
type crawlSite struct {
	pages  map[string]string
	robots string

	mu   sync.Mutex
	hits map[string]int
}

func newCrawlSite(pages map[string]string) *crawlSite {
	return &crawlSite{pages: pages, hits: make(map[string]int)}
}

func (s *crawlSite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/robots.txt" {
		if s.robots == "" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(s.robots))
		return
	}

	s.mu.Lock()
	s.hits[r.URL.Path]++
	s.mu.Unlock()

	body, ok := s.pages[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

func (s *crawlSite) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *crawlSite) totalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.hits {
		total += n
	}
	return total
}

func testConfig(serverURL string, target types.Target) config.Config {
	cfg := config.Default()
	cfg.Crawl.Domain = serverURL
	cfg.Crawl.Target = target
	cfg.Crawl.Delay = config.DurationFrom(0)
	cfg.Crawl.Concurrency = 2
	cfg.Crawl.RequestTimeout = config.DurationFrom(5 * time.Second)
	cfg.Logging.Level = "error"
	return cfg
}

func runEngine(t *testing.T, cfg config.Config) (*types.CrawlReport, error) {
	t.Helper()
	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return engine.Run(ctx)
}

func TestRunFollowsOnlyTargetPatterns(t *testing.T) {
	site := newCrawlSite(map[string]string{
		"/": `<html><body>
			<a href="/category/widgets/">widgets</a>
			<a href="/category/gadgets/">gadgets</a>
			<a href="/product/item-1">item</a>
			<a href="/cart/">cart</a>
		</body></html>`,
		"/category/widgets/": `<html><body><img src="/img/w.jpg" alt="w"></body></html>`,
		"/category/gadgets/": `<html><body><img src="/img/g.jpg" alt="g"></body></html>`,
		"/product/item-1":    `<html><body>should not be fetched</body></html>`,
		"/cart/":             `<html><body>should not be fetched</body></html>`,
	})
	server := httptest.NewServer(site)
	defer server.Close()

	report, err := runEngine(t, testConfig(server.URL, types.TargetCategory))
	require.NoError(t, err)

	assert.Equal(t, 3, report.PagesSucceeded) // homepage + two category pages
	assert.Equal(t, 2, report.PageTypeCounts[types.PageCategory])
	assert.Equal(t, 0, site.hitCount("/product/item-1"))
	assert.Equal(t, 0, site.hitCount("/cart/"))
	assert.Len(t, report.UniqueImages, 2)
}

func TestRunHonoursRobots(t *testing.T) {
	site := newCrawlSite(map[string]string{
		"/": `<html><body>
			<a href="/category/open/">open</a>
			<a href="/category/secret/">secret</a>
		</body></html>`,
		"/category/open/":   `<html><body>open</body></html>`,
		"/category/secret/": `<html><body>secret</body></html>`,
	})
	site.robots = "User-agent: *\nDisallow: /category/secret/\n"
	server := httptest.NewServer(site)
	defer server.Close()

	report, err := runEngine(t, testConfig(server.URL, types.TargetCategory))
	require.NoError(t, err)

	assert.Equal(t, 0, site.hitCount("/category/secret/"))
	assert.Equal(t, 2, report.PagesSucceeded)

	var blocked []string
	for _, crawlErr := range report.Errors {
		if crawlErr.Kind == types.ErrKindRobotsBlocked {
			blocked = append(blocked, crawlErr.URL)
		}
	}
	require.Len(t, blocked, 1)
	assert.True(t, strings.HasSuffix(blocked[0], "/category/secret/"))
}

func TestRunStopsAtMaxPages(t *testing.T) {
	pages := map[string]string{}
	var links strings.Builder
	for i := 0; i < 50; i++ {
		path := fmt.Sprintf("/page-%d", i)
		fmt.Fprintf(&links, `<a href="%s">p</a>`, path)
		pages[path] = `<html><body>leaf</body></html>`
	}
	pages["/"] = `<html><body>` + links.String() + `</body></html>`

	site := newCrawlSite(pages)
	server := httptest.NewServer(site)
	defer server.Close()

	cfg := testConfig(server.URL, types.TargetAll)
	cfg.Crawl.MaxPages = 5

	report, err := runEngine(t, cfg)
	require.NoError(t, err)

	// The cap counts admissions, homepage included: exactly 5 fetch
	// attempts regardless of the 50 reachable pages.
	assert.Equal(t, 5, site.totalHits())
	assert.Equal(t, 5, report.PagesAttempted)
}

func TestRunFetchesEachURLOnce(t *testing.T) {
	site := newCrawlSite(map[string]string{
		"/": `<html><body>
			<a href="/a">a</a>
			<a href="/a/">a again</a>
			<a href="/a?utm_source=x">a tracked</a>
			<a href="/b">b</a>
		</body></html>`,
		"/a": `<html><body><a href="/">home</a><a href="/b">b</a></body></html>`,
		"/b": `<html><body><a href="/a">a</a></body></html>`,
	})
	server := httptest.NewServer(site)
	defer server.Close()

	report, err := runEngine(t, testConfig(server.URL, types.TargetAll))
	require.NoError(t, err)

	assert.Equal(t, 3, report.PagesSucceeded)
	for _, path := range []string{"/", "/a", "/b"} {
		assert.Equal(t, 1, site.hitCount(path), "path %s fetched more than once", path)
	}
}

func TestRunDrainsLinkChainCompletely(t *testing.T) {
	// A linear chain keeps hitting the moment where the queue is empty
	// while the last fetch is still in flight; the dispatcher must re-check
	// the queue after that fetch finishes rather than shutting down over
	// its freshly offered link.
	const depth = 6
	pages := map[string]string{}
	for i := 0; i < depth; i++ {
		next := ""
		if i+1 < depth {
			next = fmt.Sprintf(`<a href="/page-%d">next</a>`, i+1)
		}
		pages[fmt.Sprintf("/page-%d", i)] = "<html><body>" + next + "</body></html>"
	}
	pages["/"] = `<html><body><a href="/page-0">start</a></body></html>`

	site := newCrawlSite(pages)
	server := httptest.NewServer(site)
	defer server.Close()

	for run := 0; run < 25; run++ {
		cfg := testConfig(server.URL, types.TargetAll)
		cfg.Crawl.Concurrency = 4
		report, err := runEngine(t, cfg)
		require.NoError(t, err)
		require.Equal(t, depth+1, report.PagesSucceeded, "run %d abandoned queued pages", run)
	}
}

func TestRunFollowsKnownURLs(t *testing.T) {
	site := newCrawlSite(map[string]string{
		"/": `<html><body>
			<a href="/weird-widget">widget</a>
			<a href="/other-oddity">oddity</a>
		</body></html>`,
		"/weird-widget": `<html><head><title>Weird Widget</title></head><body></body></html>`,
		"/other-oddity": `<html><body>should not be fetched</body></html>`,
	})
	server := httptest.NewServer(site)
	defer server.Close()

	cfg := testConfig(server.URL, types.TargetProduct)
	cfg.Crawl.KnownProductURLs = []string{server.URL + "/weird-widget"}

	report, err := runEngine(t, cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, site.hitCount("/weird-widget"))
	assert.Equal(t, 0, site.hitCount("/other-oddity"))
	assert.Equal(t, 1, report.PageTypeCounts[types.PageProduct])
}

func TestRunRecordsHTTPErrors(t *testing.T) {
	site := newCrawlSite(map[string]string{
		"/": `<html><body><a href="/category/missing/">missing</a></body></html>`,
	})
	server := httptest.NewServer(site)
	defer server.Close()

	report, err := runEngine(t, testConfig(server.URL, types.TargetCategory))
	require.NoError(t, err)

	assert.Equal(t, 1, report.PagesSucceeded)
	assert.Equal(t, 1, report.PagesErrored)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, types.ErrKindHTTPError, report.Errors[0].Kind)
	assert.Equal(t, 404, report.Errors[0].Status)
}

func TestRunSeedUnreachable(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1", types.TargetAll)
	report, err := runEngine(t, cfg)

	require.ErrorIs(t, err, ErrSeedUnreachable)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.PagesSucceeded)
	assert.NotEmpty(t, report.Errors)
}

func TestRunCrawlConvenience(t *testing.T) {
	site := newCrawlSite(map[string]string{
		"/": `<html><body><a href="/product/p-1">p</a></body></html>`,
		"/product/p-1": `<html><head><title>P1</title></head>
			<body><img src="/img/p.jpg" alt="p"></body></html>`,
	})
	server := httptest.NewServer(site)
	defer server.Close()

	report, err := RunCrawl(context.Background(), []string{server.URL}, types.TargetProduct, 0, 0, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, report.PagesSucceeded)
	assert.Equal(t, 1, report.PageTypeCounts[types.PageProduct])
}
