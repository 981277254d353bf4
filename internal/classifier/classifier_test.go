package classifier

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magic42/sitescraper/pkg/types"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestClassifyCategoryTarget(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		include bool
	}{
		{"category path", "https://example.com/category/widgets/", true},
		{"collections path", "https://example.com/collections/summer", true},
		{"shop path", "https://example.com/shop/tools/", true},
		{"product path excluded", "https://example.com/product/widget-1/", false},
		{"blog excluded", "https://example.com/blog/post-1/", false},
		{"site root excluded", "https://example.com/", false},
		{"about page excluded", "https://example.com/about/", false},
		{"contact page excluded", "https://example.com/contact", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Classify(mustURL(t, tt.url), types.TargetCategory, nil)
			assert.Equal(t, tt.include, decision.Include)
			if tt.include {
				assert.Equal(t, types.PageCategory, decision.Type)
			}
		})
	}
}

func TestClassifyDenylistAlwaysWins(t *testing.T) {
	denied := []string{
		"https://example.com/cart/",
		"https://example.com/checkout/",
		"https://example.com/my-account/orders/",
		"https://example.com/wp-admin/options.php",
		"https://example.com/shop/widget?add-to-cart=42",
	}
	targets := []types.Target{
		types.TargetCategory, types.TargetProduct, types.TargetBlog,
		types.TargetAll, types.TargetFullMonty,
	}
	for _, raw := range denied {
		for _, target := range targets {
			decision := Classify(mustURL(t, raw), target, nil)
			assert.False(t, decision.Include, "%s should be denied under %s", raw, target)
		}
	}
}

func TestClassifyAllTargetIncludesEverything(t *testing.T) {
	decision := Classify(mustURL(t, "https://example.com/some/random/page"), types.TargetAll, nil)
	assert.True(t, decision.Include)
	assert.Equal(t, types.PageOther, decision.Type)

	decision = Classify(mustURL(t, "https://example.com/product/widget"), types.TargetAll, nil)
	assert.True(t, decision.Include)
	assert.Equal(t, types.PageProduct, decision.Type)
}

func TestClassifyFullMonty(t *testing.T) {
	product := Classify(mustURL(t, "https://example.com/product/widget"), types.TargetFullMonty, nil)
	assert.True(t, product.Include)
	assert.Equal(t, types.PageProduct, product.Type)

	category := Classify(mustURL(t, "https://example.com/category/widgets/"), types.TargetFullMonty, nil)
	assert.True(t, category.Include)
	assert.Equal(t, types.PageCategory, category.Type)

	other := Classify(mustURL(t, "https://example.com/delivery-info"), types.TargetFullMonty, nil)
	assert.False(t, other.Include)
}

func TestClassifyAssetExtensionsExcluded(t *testing.T) {
	assets := []string{
		"https://example.com/category/banner.jpg",
		"https://example.com/product/manual.pdf",
		"https://example.com/shop/styles.css",
	}
	for _, raw := range assets {
		decision := Classify(mustURL(t, raw), types.TargetAll, nil)
		assert.False(t, decision.Include, raw)
	}
}

func TestPageTypeOf(t *testing.T) {
	tests := []struct {
		url  string
		want types.PageType
	}{
		{"https://example.com/product/widget", types.PageProduct},
		{"https://example.com/category/widgets/", types.PageCategory},
		{"https://example.com/blog/hello", types.PageBlog},
		{"https://example.com/", types.PageOther},
		// Product patterns take priority over category prefixes.
		{"https://example.com/shop/products/widget", types.PageProduct},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PageTypeOf(mustURL(t, tt.url), nil), tt.url)
	}
}

func TestKnownURLsOverridePatterns(t *testing.T) {
	known := NewKnownURLs(
		[]string{"https://example.com/weird-widget", "example.com/ranges/deluxe/"},
		[]string{"https://example.com/springtime-picks"},
	)

	tests := []struct {
		name string
		url  string
		want types.PageType
	}{
		{"known product, no pattern", "https://example.com/weird-widget", types.PageProduct},
		{"known product without scheme in list", "https://example.com/ranges/deluxe", types.PageProduct},
		{"known category, no pattern", "https://example.com/springtime-picks", types.PageCategory},
		{"trailing slash ignored", "https://example.com/weird-widget/", types.PageProduct},
		{"case ignored", "https://EXAMPLE.com/Weird-Widget", types.PageProduct},
		{"unlisted falls back to patterns", "https://example.com/product/widget", types.PageProduct},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PageTypeOf(mustURL(t, tt.url), known))
		})
	}
}

func TestClassifyKnownURLLookupPriority(t *testing.T) {
	known := NewKnownURLs(
		[]string{"https://example.com/weird-widget"},
		[]string{"https://example.com/springtime-picks"},
	)

	// A product target follows a known product URL no pattern would admit.
	decision := Classify(mustURL(t, "https://example.com/weird-widget"), types.TargetProduct, known)
	assert.True(t, decision.Include)
	assert.Equal(t, types.PageProduct, decision.Type)

	// Fullmonty follows both known lists.
	decision = Classify(mustURL(t, "https://example.com/springtime-picks"), types.TargetFullMonty, known)
	assert.True(t, decision.Include)
	assert.Equal(t, types.PageCategory, decision.Type)

	// A known product is not followed under a category-only crawl.
	decision = Classify(mustURL(t, "https://example.com/weird-widget"), types.TargetCategory, known)
	assert.False(t, decision.Include)

	// The lookup classifies but never overrides the deny rules.
	denyListed := NewKnownURLs([]string{"https://example.com/cart/checkout-widget"}, nil)
	decision = Classify(mustURL(t, "https://example.com/cart/checkout-widget"), types.TargetProduct, denyListed)
	assert.False(t, decision.Include)
}

func TestNewKnownURLsEmptyIsNil(t *testing.T) {
	assert.Nil(t, NewKnownURLs(nil, nil))

	var known *KnownURLs
	_, ok := known.Lookup(mustURL(t, "https://example.com/weird-widget"))
	assert.False(t, ok)
}

func TestClassifyIsPure(t *testing.T) {
	u := mustURL(t, "https://example.com/category/widgets/")
	first := Classify(u, types.TargetCategory, nil)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(u, types.TargetCategory, nil))
	}
}
