package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/magic42/sitescraper/pkg/types"
)

type column struct {
	header string
	width  float64
	value  func(p types.PageResult) any
}

var seoColumns = []column{
	{"Page URL", 60, func(p types.PageResult) any { return p.URL }},
	{"Meta Title", 45, func(p types.PageResult) any { return seo(p).MetaTitle }},
	{"Meta Description", 55, func(p types.PageResult) any { return seo(p).MetaDescription }},
	{"H1", 40, func(p types.PageResult) any { return seo(p).H1 }},
	{"Canonical URL", 60, func(p types.PageResult) any { return seo(p).CanonicalURL }},
	{"Word Count", 12, func(p types.PageResult) any { return metrics(p).WordCount }},
	{"Image Count", 12, func(p types.PageResult) any { return metrics(p).ImageCount }},
	{"Internal Links", 14, func(p types.PageResult) any { return metrics(p).InternalLinkCount }},
	{"External Links", 14, func(p types.PageResult) any { return metrics(p).ExternalLinkCount }},
	{"OG Image", 50, func(p types.PageResult) any { return seo(p).OGImage }},
	{"Has Schema", 12, func(p types.PageResult) any { return p.HasSchema }},
	{"Schema Types", 30, func(p types.PageResult) any { return strings.Join(p.SchemaTypes, ", ") }},
}

var productColumns = append([]column{
	{"Page URL", 60, func(p types.PageResult) any { return p.URL }},
	{"Product Name", 40, func(p types.PageResult) any { return product(p).Name }},
	{"Price", 12, func(p types.PageResult) any { return product(p).Price }},
	{"Currency", 10, func(p types.PageResult) any { return product(p).Currency }},
	{"SKU", 18, func(p types.PageResult) any { return product(p).SKU }},
	{"Brand", 20, func(p types.PageResult) any { return product(p).Brand }},
	{"Availability", 16, func(p types.PageResult) any { return product(p).Availability }},
}, seoColumns[1:]...)

// writeWorkbook renders the combined audit as a multi-sheet workbook:
// Summary, Category Pages, Product Pages, Other Pages, Unique Images,
// Errors.
func writeWorkbook(path string, report *types.CrawlReport) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", WrapText: true},
	})
	if err != nil {
		return fmt.Errorf("workbook style: %w", err)
	}

	if err := writeSummarySheet(f, report, headerStyle); err != nil {
		return err
	}
	if err := writePageSheet(f, "Category Pages", report.PagesOfType(types.PageCategory), seoColumns, headerStyle); err != nil {
		return err
	}
	if err := writePageSheet(f, "Product Pages", report.PagesOfType(types.PageProduct), productColumns, headerStyle); err != nil {
		return err
	}
	if err := writePageSheet(f, "Other Pages", report.PagesOfType(types.PageOther), seoColumns, headerStyle); err != nil {
		return err
	}
	if err := writeImageSheet(f, report, headerStyle); err != nil {
		return err
	}
	if err := writeErrorSheet(f, report, headerStyle); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, report *types.CrawlReport, style int) error {
	const sheet = "Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	rows := [][]any{
		{"Domain", report.Domain},
		{"Crawl Type", string(report.Target)},
		{"Pages Attempted", report.PagesAttempted},
		{"Pages Succeeded", report.PagesSucceeded},
		{"Pages Errored", report.PagesErrored},
		{"Category Pages", report.PageTypeCounts[types.PageCategory]},
		{"Product Pages", report.PageTypeCounts[types.PageProduct]},
		{"Other Pages", report.PageTypeCounts[types.PageOther]},
		{"Unique Images", len(report.UniqueImages)},
		{"Started", report.StartedAt.Format("2006-01-02 15:04:05")},
		{"Finished", report.FinishedAt.Format("2006-01-02 15:04:05")},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 22); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 50); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(1, len(rows))
	return f.SetCellStyle(sheet, "A1", last, style)
}

func writePageSheet(f *excelize.File, sheet string, pages []types.PageResult, columns []column, style int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := make([]any, len(columns))
	for i, col := range columns {
		headers[i] = col.header
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, col.width); err != nil {
			return err
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}

	for r, page := range pages {
		row := make([]any, len(columns))
		for i, col := range columns {
			row[i] = col.value(page)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}

func writeImageSheet(f *excelize.File, report *types.CrawlReport, style int) error {
	const sheet = "Unique Images"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []any{"Image URL", "Alt Text", "Page Count", "Pages Found On"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	for r, img := range report.UniqueImages {
		row := []any{img.Src, img.Alt, img.PageCount, strings.Join(img.PagesFoundOn, "\n")}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	widths := []float64{70, 35, 12, 70}
	for i, width := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}

func writeErrorSheet(f *excelize.File, report *types.CrawlReport, style int) error {
	const sheet = "Errors"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []any{"URL", "Kind", "Status", "Detail"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	for r, crawlErr := range report.Errors {
		row := []any{crawlErr.URL, string(crawlErr.Kind), crawlErr.Status, crawlErr.Detail}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	widths := []float64{70, 18, 10, 50}
	for i, width := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}

func seo(p types.PageResult) types.SEORecord {
	if p.SEO == nil {
		return types.SEORecord{}
	}
	return *p.SEO
}

func metrics(p types.PageResult) types.ContentMetrics {
	if p.Metrics == nil {
		return types.ContentMetrics{}
	}
	return *p.Metrics
}

func product(p types.PageResult) types.ProductRecord {
	if p.Product == nil {
		return types.ProductRecord{}
	}
	return *p.Product
}
