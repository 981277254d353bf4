package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/magic42/sitescraper/pkg/types"
)

// writePageCSV writes one row per image with the page columns filled only
// on the page's first row, matching the spreadsheet layout reviewers work
// with.
func writePageCSV(path string, report *types.CrawlReport) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create page csv: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"page_url", "page_title", "image_url", "image_alt"}); err != nil {
		return err
	}
	for _, page := range report.Pages {
		if len(page.Images) == 0 {
			continue
		}
		for i, img := range page.Images {
			row := []string{"", "", img.Src, img.Alt}
			if i == 0 {
				row[0] = page.URL
				row[1] = page.Title
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

// writeUniqueCSV writes the deduplicated cross-page image table, sorted by
// source URL. pages_found_on is serialized as a JSON array.
func writeUniqueCSV(path string, report *types.CrawlReport) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create unique csv: %w", err)
	}
	defer file.Close()

	images := append([]types.UniqueImage(nil), report.UniqueImages...)
	sort.Slice(images, func(i, j int) bool { return images[i].Src < images[j].Src })

	w := csv.NewWriter(file)
	if err := w.Write([]string{"src", "alt", "pages_found_on", "page_count"}); err != nil {
		return err
	}
	for _, img := range images {
		pages, err := json.Marshal(img.PagesFoundOn)
		if err != nil {
			return err
		}
		row := []string{img.Src, img.Alt, string(pages), strconv.Itoa(img.PageCount)}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
