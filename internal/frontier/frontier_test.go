package frontier

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magic42/sitescraper/internal/classifier"
	"github.com/magic42/sitescraper/pkg/types"
)

func TestOfferAdmitsOnce(t *testing.T) {
	f := New(types.TargetAll, 0, nil)

	assert.True(t, f.Offer(parse(t, "https://example.com/page"), 1))
	// Equivalent spellings of the same URL are rejected as duplicates.
	assert.False(t, f.Offer(parse(t, "https://example.com/page/"), 1))
	assert.False(t, f.Offer(parse(t, "https://example.com/page#frag"), 2))
	assert.False(t, f.Offer(parse(t, "https://example.com/page?utm_source=x"), 1))

	assert.Equal(t, 1, f.Size())
	assert.Equal(t, 1, f.Admitted())
}

func TestOfferRespectsClassifier(t *testing.T) {
	f := New(types.TargetCategory, 0, nil)

	assert.True(t, f.Offer(parse(t, "https://example.com/category/widgets/"), 1))
	assert.False(t, f.Offer(parse(t, "https://example.com/product/widget-1"), 1))
	assert.False(t, f.Offer(parse(t, "https://example.com/cart/"), 1))

	entry, ok := f.Take()
	require.True(t, ok)
	assert.Equal(t, types.PageCategory, entry.Type)
}

func TestOfferSeedBypassesPatterns(t *testing.T) {
	f := New(types.TargetCategory, 0, nil)

	// The homepage never matches the category patterns but is always a
	// valid seed.
	assert.True(t, f.OfferSeed(parse(t, "https://example.com/")))
	entry, ok := f.Take()
	require.True(t, ok)
	assert.Equal(t, types.PageOther, entry.Type)
	assert.Equal(t, 0, entry.Depth)
}

func TestOfferAdmitsKnownURLs(t *testing.T) {
	known := classifier.NewKnownURLs(
		[]string{"https://example.com/weird-widget"},
		nil,
	)
	f := New(types.TargetProduct, 0, known)

	// No product pattern matches, but the operator listed it.
	assert.True(t, f.Offer(parse(t, "https://example.com/weird-widget"), 1))
	assert.False(t, f.Offer(parse(t, "https://example.com/other-oddity"), 1))

	entry, ok := f.Take()
	require.True(t, ok)
	assert.Equal(t, types.PageProduct, entry.Type)
}

func TestTakeIsBreadthFirst(t *testing.T) {
	f := New(types.TargetAll, 0, nil)
	var want []string
	for i := 0; i < 10; i++ {
		raw := fmt.Sprintf("https://example.com/page-%d", i)
		require.True(t, f.Offer(parse(t, raw), 1))
		want = append(want, raw)
	}

	var got []string
	for {
		entry, ok := f.Take()
		if !ok {
			break
		}
		got = append(got, entry.URL.String())
	}
	assert.Equal(t, want, got)
}

func TestMaxPagesCapsAdmissions(t *testing.T) {
	f := New(types.TargetAll, 5, nil)
	admitted := 0
	for i := 0; i < 50; i++ {
		if f.Offer(parse(t, fmt.Sprintf("https://example.com/page-%d", i)), 1) {
			admitted++
		}
	}
	assert.Equal(t, 5, admitted)
	assert.Equal(t, 5, f.Admitted())

	// Queued work still drains after the cap is reached.
	drained := 0
	for {
		if _, ok := f.Take(); !ok {
			break
		}
		drained++
	}
	assert.Equal(t, 5, drained)
}

func TestNoURLDispatchedTwice(t *testing.T) {
	f := New(types.TargetAll, 0, nil)
	urls := []string{
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/a/",
		"https://example.com/b#x",
		"https://example.com/c",
	}
	for _, raw := range urls {
		f.Offer(parse(t, raw), 1)
	}

	seen := make(map[string]struct{})
	for {
		entry, ok := f.Take()
		if !ok {
			break
		}
		_, dup := seen[entry.Key]
		assert.False(t, dup, "URL %s dispatched twice", entry.Key)
		seen[entry.Key] = struct{}{}
	}
	assert.Len(t, seen, 3)
}
