package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/magic42/sitescraper/internal/config"
	"github.com/magic42/sitescraper/internal/crawler"
	"github.com/magic42/sitescraper/internal/report"
	"github.com/magic42/sitescraper/pkg/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sitescraper: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "", "path to YAML configuration file")
	domain := flag.String("url", "", "domain to crawl, e.g. www.example.com")
	target := flag.String("type", "", "crawl type: category, product, blog, all, fullmonty")
	maxPages := flag.Int("max-pages", -1, "maximum pages to crawl (0 = unlimited)")
	delay := flag.Float64("delay", -1, "delay between requests in seconds")
	concurrent := flag.Int("concurrent", 0, "concurrent requests")
	seedFile := flag.String("seed-file", "", "file with extra seed URLs, one per line")
	productURLs := flag.String("product-urls", "", "file with known product URLs for page classification, one per line")
	categoryURLs := flag.String("category-urls", "", "file with known category URLs for page classification, one per line")
	outputDir := flag.String("output", "", "report output directory")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			return err
		}
		cfg = *loaded
	}

	// Flags override config file values.
	if *domain != "" {
		cfg.Crawl.Domain = *domain
	}
	if *target != "" {
		cfg.Crawl.Target = types.Target(*target)
	}
	if *maxPages >= 0 {
		cfg.Crawl.MaxPages = *maxPages
	}
	if *delay >= 0 {
		cfg.Crawl.Delay = config.DurationFrom(time.Duration(*delay * float64(time.Second)))
	}
	if *concurrent > 0 {
		cfg.Crawl.Concurrency = *concurrent
	}
	if *seedFile != "" {
		cfg.Crawl.SeedFile = *seedFile
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}

	if cfg.Crawl.SeedFile != "" {
		seeds, err := readURLFile(cfg.Crawl.SeedFile)
		if err != nil {
			return err
		}
		cfg.Crawl.Seeds = append(cfg.Crawl.Seeds, seeds...)
	}
	if *productURLs != "" {
		known, err := readURLFile(*productURLs)
		if err != nil {
			return err
		}
		cfg.Crawl.KnownProductURLs = append(cfg.Crawl.KnownProductURLs, known...)
	}
	if *categoryURLs != "" {
		known, err := readURLFile(*categoryURLs)
		if err != nil {
			return err
		}
		cfg.Crawl.KnownCategoryURLs = append(cfg.Crawl.KnownCategoryURLs, known...)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	engine, err := crawler.NewEngine(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := engine.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	writer := report.NewWriter(cfg.Output.Dir)
	paths, werr := writer.Write(result)
	if werr != nil {
		return werr
	}
	report.WriteSummary(os.Stdout, result, paths)
	return err
}

// readURLFile reads one URL per line, ignoring blanks and # comments.
func readURLFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url file: %w", err)
	}
	defer file.Close()

	var seeds []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			seeds = append(seeds, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url file: %w", err)
	}
	return seeds, nil
}
