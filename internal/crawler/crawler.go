// Package crawler orchestrates the crawl: it drives the frontier to
// exhaustion or the page cap across a bounded worker pool, enforcing the
// politeness budget and robots.txt compliance, and hands every page to the
// extractor and aggregator.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/magic42/sitescraper/internal/aggregate"
	"github.com/magic42/sitescraper/internal/classifier"
	"github.com/magic42/sitescraper/internal/config"
	"github.com/magic42/sitescraper/internal/extractor"
	"github.com/magic42/sitescraper/internal/fetcher"
	"github.com/magic42/sitescraper/internal/frontier"
	robotsclient "github.com/magic42/sitescraper/internal/robots"
	"github.com/magic42/sitescraper/pkg/types"
)

// ErrSeedUnreachable is returned when a run finishes without a single
// successful page fetch. Per-page failures are recorded in the report and
// never surface here.
var ErrSeedUnreachable = errors.New("no pages could be fetched from the seed domain")

// Engine owns the frontier and aggregate state for one crawl run. Workers
// are stateless; all shared mutation goes through the frontier and the
// aggregator, whose operations are serialized.
type Engine struct {
	cfg      config.Config
	logger   *slog.Logger
	fetcher  *fetcher.HTTPFetcher
	robots   *robotsclient.Agent
	gate     *PolitenessGate
	frontier *frontier.Frontier
	agg      *aggregate.Aggregator
	extract  *extractor.Extractor

	inflight atomic.Int64
	notify   chan struct{}
}

// NewEngine builds a crawl engine from configuration.
func NewEngine(cfg config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	httpFetcher := fetcher.New(fetcher.Options{
		UserAgent:    cfg.Crawl.UserAgent,
		Timeout:      cfg.Crawl.RequestTimeout.Duration,
		MaxBodyBytes: cfg.Crawl.MaxBodyBytes,
	})

	domain := cfg.Crawl.Domain
	if u, err := url.Parse(cfg.HomepageURL()); err == nil && u.Hostname() != "" {
		domain = u.Hostname()
	}

	known := classifier.NewKnownURLs(cfg.Crawl.KnownProductURLs, cfg.Crawl.KnownCategoryURLs)

	return &Engine{
		cfg:     cfg,
		logger:  logger,
		fetcher: httpFetcher,
		robots:  robotsclient.NewAgent(cfg.Crawl.UserAgent, httpFetcher.Client()),
		gate: NewPolitenessGate(cfg.Crawl.Delay.Duration, RateLimiterSettings{
			Requests: cfg.Crawl.RateLimit.Requests,
			Window:   cfg.Crawl.RateLimit.Window.Duration,
		}),
		frontier: frontier.New(cfg.Crawl.Target, cfg.Crawl.MaxPages, known),
		agg:      aggregate.New(domain, cfg.Crawl.Target),
		extract: extractor.New(extractor.Options{
			Domain:          domain,
			MinImageWidth:   cfg.Crawl.MinImageWidth,
			MinImageHeight:  cfg.Crawl.MinImageHeight,
			MaxLinksPerPage: cfg.Crawl.MaxLinksPerPage,
		}),
		notify: make(chan struct{}, 1),
	}, nil
}

// Run executes the crawl to completion and returns the final report. The
// run ends when the frontier is exhausted or the page cap is reached;
// in-flight fetches always finish before the snapshot is taken.
func (e *Engine) Run(ctx context.Context) (*types.CrawlReport, error) {
	if err := e.seed(); err != nil {
		return nil, err
	}

	e.logger.Info("crawl started",
		"domain", e.cfg.Crawl.Domain,
		"target", string(e.cfg.Crawl.Target),
		"max_pages", e.cfg.Crawl.MaxPages,
		"concurrency", e.cfg.Crawl.Concurrency,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Crawl.Concurrency)

dispatch:
	for gctx.Err() == nil {
		req, ok := e.frontier.Take()
		if !ok {
			if e.inflight.Load() == 0 {
				// A finishing worker offers its links before the
				// in-flight counter drops, so one more Take after
				// observing zero is conclusive.
				if req, ok = e.frontier.Take(); !ok {
					break
				}
			} else {
				select {
				case <-e.notify:
					continue
				case <-gctx.Done():
					break dispatch
				}
			}
		}
		e.inflight.Add(1)
		g.Go(func() error {
			defer func() {
				e.inflight.Add(-1)
				e.ping()
			}()
			e.process(gctx, req)
			return nil
		})
	}

	// Draining: no new dispatches, in-flight fetches finish.
	_ = g.Wait()

	report := e.agg.Snapshot()
	e.logger.Info("crawl finished",
		"attempted", report.PagesAttempted,
		"succeeded", report.PagesSucceeded,
		"errored", report.PagesErrored,
		"unique_images", len(report.UniqueImages),
	)

	if ctx.Err() != nil {
		return report, ctx.Err()
	}
	if report.PagesSucceeded == 0 {
		return report, ErrSeedUnreachable
	}
	return report, nil
}

// seed admits the homepage plus any externally supplied seed URLs.
func (e *Engine) seed() error {
	seeds := append([]string{e.cfg.HomepageURL()}, e.cfg.Crawl.Seeds...)
	admitted := 0
	for _, raw := range seeds {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parsed, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parse seed %q: %w", raw, err)
		}
		if parsed.Scheme == "" {
			parsed.Scheme = "https"
		}
		if parsed.Host == "" {
			return fmt.Errorf("seed %q missing host", raw)
		}
		if e.frontier.OfferSeed(parsed) {
			admitted++
		}
	}
	if admitted == 0 {
		return errors.New("no seed URLs admitted")
	}
	return nil
}

func (e *Engine) process(ctx context.Context, req types.CrawlRequest) {
	if ctx.Err() != nil {
		return
	}
	pageURL := req.URL.String()

	if err := e.gate.Wait(ctx, req.URL.Hostname()); err != nil {
		return
	}

	if !e.robots.Allowed(ctx, req.URL) {
		e.logger.Debug("blocked by robots", "url", pageURL)
		e.agg.RecordError(pageURL, types.ErrKindRobotsBlocked, 0, "disallowed by robots.txt")
		return
	}

	page, err := e.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		kind := types.ErrKindNetworkError
		var ferr *fetcher.Error
		if errors.As(err, &ferr) {
			kind = ferr.Kind
		}
		e.logger.Warn("fetch failed", "url", pageURL, "kind", string(kind), "error", err)
		e.agg.RecordError(pageURL, kind, 0, err.Error())
		return
	}

	if page.StatusCode >= 400 {
		e.logger.Warn("http error", "url", pageURL, "status", page.StatusCode)
		e.agg.RecordError(pageURL, types.ErrKindHTTPError, page.StatusCode, http.StatusText(page.StatusCode))
		return
	}

	result, err := e.extract.Extract(req.URL, page.Body, req.Type, page.StatusCode, e.cfg.Crawl.Target.FullData())
	if err != nil {
		e.logger.Warn("parse failed", "url", pageURL, "error", err)
		e.agg.RecordError(pageURL, types.ErrKindParseError, page.StatusCode, err.Error())
		return
	}
	result.FetchedAt = page.FetchedAt

	e.agg.Ingest(result)
	e.logger.Info("crawled", "url", pageURL, "type", string(result.Type), "images", len(result.Images), "links", len(result.Links))

	for _, link := range result.Links {
		e.frontier.Offer(link, req.Depth+1)
	}
}

func (e *Engine) ping() {
	select {
	case e.notify <- struct{}{}:
	default:
	}
}

// RunCrawl is the one-call crawl surface: it crawls the seed list under
// the given target and politeness budget and returns the final report.
// The first seed's host becomes the crawl domain.
func RunCrawl(ctx context.Context, seedURLs []string, target types.Target, maxPages int, delay time.Duration, concurrency int) (*types.CrawlReport, error) {
	if len(seedURLs) == 0 {
		return nil, errors.New("at least one seed URL is required")
	}
	first := seedURLs[0]
	if !strings.Contains(first, "://") {
		first = "https://" + first
	}
	if _, err := url.Parse(first); err != nil {
		return nil, fmt.Errorf("parse seed %q: %w", seedURLs[0], err)
	}

	cfg := config.Default()
	// Keeping scheme and port intact matters for sites not on 443.
	cfg.Crawl.Domain = first
	cfg.Crawl.Target = target
	cfg.Crawl.MaxPages = maxPages
	cfg.Crawl.Delay = config.DurationFrom(delay)
	cfg.Crawl.Concurrency = concurrency
	cfg.Crawl.Seeds = seedURLs[1:]

	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return engine.Run(ctx)
}

func buildLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unsupported log level %q", cfg.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Structured {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler), nil
}
