package extractor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/magic42/sitescraper/pkg/types"
)

// Product field extraction runs an ordered sequence of independent
// strategies per field: schema.org JSON-LD first, then microdata
// attributes, then common markup conventions. The first strategy to yield
// a value wins; a malformed source is skipped, never fatal.

var pricePattern = regexp.MustCompile(`[\d][\d,.]*`)

// priceSelectors are common CSS class conventions for a displayed price,
// tried only after structured data and microdata come up empty.
var priceSelectors = []string{
	".price",
	".product-price",
	".current-price",
	"[data-price]",
	".woocommerce-Price-amount",
}

func (e *Extractor) extractStructured(doc *goquery.Document) (*types.ProductRecord, bool, []string) {
	product := &types.ProductRecord{}
	hasSchema := false
	var schemaTypes []string

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return
		}
		for _, item := range asList(data) {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if applySchemaItem(obj, product, &schemaTypes) {
				hasSchema = true
			}
			for _, graphItem := range asList(obj["@graph"]) {
				graphObj, ok := graphItem.(map[string]any)
				if !ok {
					continue
				}
				if applySchemaItem(graphObj, product, &schemaTypes) {
					hasSchema = true
				}
			}
		}
	})

	// Microdata fallbacks for fields JSON-LD did not provide.
	if product.Name == "" {
		product.Name = strings.TrimSpace(doc.Find(`[itemprop="name"]`).First().Text())
	}
	if product.Price == "" {
		product.Price = microdataValue(doc, "price")
	}
	if product.SKU == "" {
		product.SKU = microdataValue(doc, "sku")
	}
	if product.Brand == "" {
		product.Brand = strings.TrimSpace(doc.Find(`[itemprop="brand"]`).First().Text())
	}

	if product.Price == "" {
		product.Price = displayedPrice(doc)
	}

	return product, hasSchema, schemaTypes
}

// applySchemaItem folds one schema.org item into the product record and
// reports whether the item carried a usable @type.
func applySchemaItem(item map[string]any, product *types.ProductRecord, schemaTypes *[]string) bool {
	itemType := schemaType(item["@type"])
	if itemType == "" {
		return false
	}
	*schemaTypes = append(*schemaTypes, itemType)

	if itemType != "Product" {
		return true
	}

	setIfEmpty(&product.Name, stringValue(item["name"]))
	setIfEmpty(&product.Description, stringValue(item["description"]))
	setIfEmpty(&product.SKU, stringValue(item["sku"]))

	switch brand := item["brand"].(type) {
	case map[string]any:
		setIfEmpty(&product.Brand, stringValue(brand["name"]))
	case string:
		setIfEmpty(&product.Brand, brand)
	}

	offers := item["offers"]
	if list := asListOnly(offers); len(list) > 0 {
		offers = list[0]
	}
	if offer, ok := offers.(map[string]any); ok {
		setIfEmpty(&product.Price, stringValue(offer["price"]))
		setIfEmpty(&product.Currency, stringValue(offer["priceCurrency"]))
		availability := stringValue(offer["availability"])
		availability = strings.TrimPrefix(availability, "https://schema.org/")
		availability = strings.TrimPrefix(availability, "http://schema.org/")
		setIfEmpty(&product.Availability, availability)
	}
	return true
}

func (e *Extractor) extractSEO(doc *goquery.Document) *types.SEORecord {
	return &types.SEORecord{
		MetaTitle:       strings.TrimSpace(doc.Find("title").First().Text()),
		MetaDescription: metaContent(doc, `meta[name="description"]`),
		H1:              strings.TrimSpace(doc.Find("h1").First().Text()),
		CanonicalURL:    strings.TrimSpace(doc.Find(`link[rel="canonical"]`).First().AttrOr("href", "")),
		OGTitle:         metaContent(doc, `meta[property="og:title"]`),
		OGDescription:   metaContent(doc, `meta[property="og:description"]`),
		OGImage:         metaContent(doc, `meta[property="og:image"]`),
	}
}

func metaContent(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().AttrOr("content", ""))
}

func microdataValue(doc *goquery.Document, prop string) string {
	sel := doc.Find(`[itemprop="` + prop + `"]`).First()
	if content, ok := sel.Attr("content"); ok {
		return strings.TrimSpace(content)
	}
	return strings.TrimSpace(sel.Text())
}

func displayedPrice(doc *goquery.Document) string {
	for _, selector := range priceSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text == "" {
			continue
		}
		if match := pricePattern.FindString(text); match != "" {
			return match
		}
	}
	return ""
}

// schemaType extracts the @type value, which may be a string or a list.
func schemaType(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				return s
			}
		}
	}
	return ""
}

func asList(v any) []any {
	if v == nil {
		return nil
	}
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

// asListOnly returns v when it already is a list, nil otherwise.
func asListOnly(v any) []any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	return list
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%g", s)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", s))
	}
}

func setIfEmpty(dst *string, value string) {
	if *dst == "" && value != "" {
		*dst = value
	}
}
