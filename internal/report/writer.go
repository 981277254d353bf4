// Package report renders a finished CrawlReport to files: per-page and
// unique-image CSVs for single-type runs, and a multi-sheet workbook for
// the combined audit. It only reads the snapshot; crawl state never leaks
// here.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/magic42/sitescraper/pkg/types"
)

// Writer places report files under a per-domain folder inside the output
// directory, with timestamped file names.
type Writer struct {
	outputDir string
	now       func() time.Time
}

// NewWriter creates a report writer rooted at outputDir.
func NewWriter(outputDir string) *Writer {
	return &Writer{outputDir: outputDir, now: time.Now}
}

// Write renders the report. Single-type runs produce two CSVs (page rows
// and the unique-image table); the combined audit produces an XLSX
// workbook plus the unique-image CSV. It returns the paths written.
func (w *Writer) Write(report *types.CrawlReport) ([]string, error) {
	base, err := w.outputBase(report)
	if err != nil {
		return nil, err
	}

	var paths []string
	if report.Target == types.TargetFullMonty {
		workbook := base + ".xlsx"
		if err := writeWorkbook(workbook, report); err != nil {
			return nil, err
		}
		paths = append(paths, workbook)
	} else {
		pageFile := base + ".csv"
		if err := writePageCSV(pageFile, report); err != nil {
			return nil, err
		}
		paths = append(paths, pageFile)
	}

	uniqueFile := base + "_unique.csv"
	if err := writeUniqueCSV(uniqueFile, report); err != nil {
		return nil, err
	}
	return append(paths, uniqueFile), nil
}

// outputBase builds {dir}/{clean-domain}/{clean-domain}-{type}-{timestamp}
// and ensures the domain folder exists.
func (w *Writer) outputBase(report *types.CrawlReport) (string, error) {
	clean := strings.TrimPrefix(report.Domain, "www.")
	clean = strings.ReplaceAll(clean, ".", "-")

	folder := filepath.Join(w.outputDir, clean)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	stamp := w.now().Format("20060102-150405")
	name := fmt.Sprintf("%s-%s-%s", clean, report.Target, stamp)
	return filepath.Join(folder, name), nil
}
