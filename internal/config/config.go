// Package config loads and validates crawler configuration from YAML,
// with defaults matching the politeness settings the crawler shipped with.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/magic42/sitescraper/pkg/types"
)

// Config captures everything required to initialise the crawl engine.
type Config struct {
	Crawl   CrawlConfig   `yaml:"crawl"`
	Logging LoggingConfig `yaml:"logging"`
	Output  OutputConfig  `yaml:"output"`
}

// CrawlConfig controls the frontier, politeness budget, and extraction
// scope of one crawl run.
type CrawlConfig struct {
	// Domain is the site root to crawl, with or without scheme.
	Domain string `yaml:"domain"`
	// Target selects which page types are followed and extracted.
	Target types.Target `yaml:"target"`
	// Seeds are extra URLs admitted verbatim alongside the homepage, for
	// example from a sitemap or a rendered-navigation collector.
	Seeds []string `yaml:"seeds"`
	// SeedFile points to a file with one seed URL per line.
	SeedFile string `yaml:"seed_file"`
	// KnownProductURLs and KnownCategoryURLs classify the listed URLs by
	// lookup before any pattern matching, for sites whose product or
	// category URLs carry no recognisable path prefix.
	KnownProductURLs  []string `yaml:"known_product_urls"`
	KnownCategoryURLs []string `yaml:"known_category_urls"`
	// MaxPages caps frontier admissions; 0 means unbounded.
	MaxPages int `yaml:"max_pages"`
	// Delay is the minimum gap between any two requests, shared across all
	// workers.
	Delay Duration `yaml:"delay"`
	// Concurrency bounds simultaneous in-flight requests.
	Concurrency    int             `yaml:"concurrency"`
	RequestTimeout Duration        `yaml:"request_timeout"`
	UserAgent      string          `yaml:"user_agent"`
	MaxBodyBytes   int64           `yaml:"max_body_bytes"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	// MinImageWidth/MinImageHeight filter out images whose declared
	// dimensions fall below the threshold.
	MinImageWidth  int `yaml:"min_image_width"`
	MinImageHeight int `yaml:"min_image_height"`
	// MaxLinksPerPage bounds link discovery per page.
	MaxLinksPerPage int `yaml:"max_links_per_page"`
}

// RateLimitConfig applies an optional token bucket on top of the fixed
// inter-request delay.
type RateLimitConfig struct {
	Requests int      `yaml:"requests"`
	Window   Duration `yaml:"window"`
}

// LoggingConfig selects log level and output encoding.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Structured bool   `yaml:"structured"`
}

// OutputConfig controls where report files are written.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns a configuration mirroring the crawler's shipped
// politeness defaults: 1s delay, 2 concurrent requests, 30s per-request
// timeout.
func Default() Config {
	return Config{
		Crawl: CrawlConfig{
			Target:          types.TargetCategory,
			MaxPages:        0,
			Delay:           DurationFrom(time.Second),
			Concurrency:     2,
			RequestTimeout:  DurationFrom(30 * time.Second),
			UserAgent:       defaultUserAgent,
			MaxBodyBytes:    6 * 1024 * 1024,
			MinImageWidth:   50,
			MinImageHeight:  50,
			MaxLinksPerPage: 200,
		},
		Logging: LoggingConfig{Level: "info"},
		Output:  OutputConfig{Dir: "scraped-sites"},
	}
}

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 " +
	"(sitescraper/1.0)"

// Load reads, decodes, and validates a YAML configuration file. Missing
// values fall back to Default().
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse decodes a YAML configuration from a reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalizes and checks the configuration.
func (c *Config) Validate() error {
	c.Crawl.Domain = strings.TrimSpace(c.Crawl.Domain)
	if c.Crawl.Domain == "" {
		return fmt.Errorf("crawl.domain is required")
	}
	if !c.Crawl.Target.Valid() {
		return fmt.Errorf("crawl.target %q is not one of category, product, blog, all, fullmonty", c.Crawl.Target)
	}
	if c.Crawl.Concurrency <= 0 {
		c.Crawl.Concurrency = 2
	}
	if c.Crawl.RequestTimeout.Duration <= 0 {
		c.Crawl.RequestTimeout = DurationFrom(30 * time.Second)
	}
	if c.Crawl.Delay.Duration < 0 {
		return fmt.Errorf("crawl.delay must not be negative")
	}
	if c.Crawl.MaxPages < 0 {
		return fmt.Errorf("crawl.max_pages must not be negative")
	}
	if c.Crawl.UserAgent == "" {
		c.Crawl.UserAgent = defaultUserAgent
	}
	if c.Crawl.MaxBodyBytes <= 0 {
		c.Crawl.MaxBodyBytes = 6 * 1024 * 1024
	}
	if c.Crawl.MaxLinksPerPage <= 0 {
		c.Crawl.MaxLinksPerPage = 200
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unsupported log level %q", c.Logging.Level)
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "scraped-sites"
	}
	return nil
}

// HomepageURL returns the canonical seed for the configured domain.
func (c *Config) HomepageURL() string {
	domain := c.Crawl.Domain
	if strings.Contains(domain, "://") {
		return domain
	}
	return "https://" + domain + "/"
}
