package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/magic42/sitescraper/pkg/types"
)

// WriteSummary prints the end-of-run summary block to w.
func WriteSummary(w io.Writer, report *types.CrawlReport, paths []string) {
	line := strings.Repeat("=", 60)
	thin := strings.Repeat("-", 60)

	fmt.Fprintln(w)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "SCRAPE COMPLETE")
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "Domain:            %s\n", report.Domain)
	fmt.Fprintf(w, "Scrape type:       %s\n", report.Target)
	fmt.Fprintf(w, "Pages attempted:   %d\n", report.PagesAttempted)
	fmt.Fprintf(w, "Pages succeeded:   %d\n", report.PagesSucceeded)
	fmt.Fprintf(w, "Unique images:     %d\n", len(report.UniqueImages))
	fmt.Fprintf(w, "Errors:            %d\n", report.PagesErrored)
	fmt.Fprintln(w, thin)
	fmt.Fprintln(w, "Output files:")
	for _, path := range paths {
		fmt.Fprintf(w, "  %s\n", path)
	}
	fmt.Fprintln(w, line)

	if len(report.Errors) == 0 {
		return
	}
	fmt.Fprintln(w, "\nErrors encountered (first 5):")
	for i, crawlErr := range report.Errors {
		if i == 5 {
			break
		}
		detail := crawlErr.Detail
		if crawlErr.Status != 0 {
			detail = fmt.Sprintf("status %d", crawlErr.Status)
		}
		fmt.Fprintf(w, "  - %s: %s (%s)\n", crawlErr.URL, detail, crawlErr.Kind)
	}
}
