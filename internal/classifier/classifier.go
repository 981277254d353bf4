// Package classifier maps URL paths to page-type labels using ordered
// pattern rules, and decides whether a discovered URL should be followed
// under the active crawl target.
package classifier

import (
	"net/url"
	"strings"

	"github.com/magic42/sitescraper/pkg/types"
)

// Pattern tables are ordered; the first match wins. They operate on the
// lowercased URL path.
var (
	categoryPatterns = []string{
		"/category/",
		"/categories/",
		"/cat/",
		"/c/",
		"/collections/",
		"/shop/",
		"/browse/",
	}

	productPatterns = []string{
		"/product/",
		"/products/",
		"/p/",
		"/item/",
		"/items/",
		"/dp/",
		"/pd/",
	}

	blogPatterns = []string{
		"/blog/",
		"/news/",
		"/articles/",
		"/posts/",
		"/journal/",
	}
)

// denyPatterns are functional paths excluded at all times regardless of
// target: carts, checkouts, accounts, admin surfaces.
var denyPatterns = []string{
	"/cart/",
	"/checkout/",
	"/account/",
	"/login/",
	"/register/",
	"/my-account/",
	"/admin/",
	"/wp-admin/",
	"/wp-login",
	"/wishlist/",
	"/compare/",
}

// denyQueryPatterns match against the raw query string.
var denyQueryPatterns = []string{
	"add-to-cart=",
	"remove_item=",
}

// genericPaths are informational pages excluded when the crawl is scoped
// to category or product pages only.
var genericPaths = []string{
	"/about",
	"/about-us",
	"/contact",
	"/contact-us",
	"/terms",
	"/privacy",
	"/delivery",
	"/returns",
	"/faq",
}

// assetExtensions never belong in the frontier.
var assetExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".ico", ".bmp",
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
	".mp3", ".mp4", ".avi", ".mov", ".wmv", ".flv",
	".zip", ".rar", ".tar", ".gz", ".7z",
	".css", ".js", ".woff", ".woff2", ".ttf", ".eot",
}

// KnownURLs holds operator-supplied product and category URL lists that
// classify by lookup before any pattern matching, for sites whose URL
// shapes carry no usable prefix.
type KnownURLs struct {
	products   map[string]struct{}
	categories map[string]struct{}
}

// NewKnownURLs builds the lookup sets. Entries may carry a scheme or
// start at the host; case and trailing slashes are ignored. Returns nil
// when both lists are empty, and a nil *KnownURLs looks up nothing.
func NewKnownURLs(productURLs, categoryURLs []string) *KnownURLs {
	if len(productURLs) == 0 && len(categoryURLs) == 0 {
		return nil
	}
	return &KnownURLs{
		products:   knownSet(productURLs),
		categories: knownSet(categoryURLs),
	}
}

func knownSet(raws []string) map[string]struct{} {
	set := make(map[string]struct{}, len(raws))
	for _, raw := range raws {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "://") {
			raw = "https://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil || u.Hostname() == "" {
			continue
		}
		set[knownKey(u)] = struct{}{}
	}
	return set
}

func knownKey(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	p := strings.TrimSuffix(strings.ToLower(u.EscapedPath()), "/")
	return host + p
}

// Lookup reports the explicit classification for a URL, if any. Product
// entries win when a URL appears in both lists.
func (k *KnownURLs) Lookup(u *url.URL) (types.PageType, bool) {
	if k == nil || u == nil {
		return types.PageOther, false
	}
	key := knownKey(u)
	if _, ok := k.products[key]; ok {
		return types.PageProduct, true
	}
	if _, ok := k.categories[key]; ok {
		return types.PageCategory, true
	}
	return types.PageOther, false
}

// Decision is the outcome of classifying a URL under a target.
type Decision struct {
	Include bool
	Type    types.PageType
}

// Classify decides whether a URL is followed under the given target and
// what page type it carries: deny rules first, then known-URL lookup,
// then the ordered pattern rules. It is a pure function of its inputs.
func Classify(u *url.URL, target types.Target, known *KnownURLs) Decision {
	if u == nil {
		return Decision{}
	}
	path := strings.ToLower(u.EscapedPath())
	if path == "" {
		path = "/"
	}

	if denied(path, u.RawQuery) {
		return Decision{}
	}

	if pt, ok := known.Lookup(u); ok {
		if followsType(target, pt) {
			return Decision{Include: true, Type: pt}
		}
		return Decision{}
	}

	pt := PageTypeOf(u, nil)

	switch target {
	case types.TargetAll:
		return Decision{Include: true, Type: pt}
	case types.TargetCategory:
		if generic(path) {
			return Decision{}
		}
		if matchAny(path, categoryPatterns) {
			return Decision{Include: true, Type: types.PageCategory}
		}
	case types.TargetProduct:
		if generic(path) {
			return Decision{}
		}
		if matchAny(path, productPatterns) {
			return Decision{Include: true, Type: types.PageProduct}
		}
	case types.TargetBlog:
		if matchAny(path, blogPatterns) {
			return Decision{Include: true, Type: types.PageBlog}
		}
	case types.TargetFullMonty:
		if matchAny(path, productPatterns) {
			return Decision{Include: true, Type: types.PageProduct}
		}
		if matchAny(path, categoryPatterns) {
			return Decision{Include: true, Type: types.PageCategory}
		}
	}
	return Decision{}
}

// followsType reports whether pages of the given type are followed under
// the target.
func followsType(target types.Target, pt types.PageType) bool {
	switch target {
	case types.TargetAll:
		return true
	case types.TargetCategory:
		return pt == types.PageCategory
	case types.TargetProduct:
		return pt == types.PageProduct
	case types.TargetBlog:
		return pt == types.PageBlog
	case types.TargetFullMonty:
		return pt == types.PageCategory || pt == types.PageProduct
	}
	return false
}

// PageTypeOf labels a URL, ignoring the crawl target: known-URL lookup
// first, then path shape. Product patterns take priority over category
// patterns, matching the common case of product URLs nested under
// category prefixes.
func PageTypeOf(u *url.URL, known *KnownURLs) types.PageType {
	if u == nil {
		return types.PageOther
	}
	if pt, ok := known.Lookup(u); ok {
		return pt
	}
	path := strings.ToLower(u.EscapedPath())
	switch {
	case matchAny(path, productPatterns):
		return types.PageProduct
	case matchAny(path, categoryPatterns):
		return types.PageCategory
	case matchAny(path, blogPatterns):
		return types.PageBlog
	default:
		return types.PageOther
	}
}

func denied(path, rawQuery string) bool {
	if matchAny(path, denyPatterns) {
		return true
	}
	q := strings.ToLower(rawQuery)
	for _, pat := range denyQueryPatterns {
		if strings.Contains(q, pat) {
			return true
		}
	}
	for _, ext := range assetExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func generic(path string) bool {
	if path == "/" || path == "" {
		return true
	}
	trimmed := strings.TrimSuffix(path, "/")
	for _, g := range genericPaths {
		if trimmed == g {
			return true
		}
	}
	return false
}

func matchAny(path string, patterns []string) bool {
	for _, pat := range patterns {
		if strings.Contains(path, pat) {
			return true
		}
	}
	return false
}
