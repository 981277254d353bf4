package extractor

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/magic42/sitescraper/pkg/types"
)

// noiseFragments mark image sources that are tracking pixels, placeholder
// assets, plugin decorations, or third-party avatars. Matching is by
// lowercased substring.
var noiseFragments = []string{
	"placeholder",
	"loading",
	"spinner",
	"icon",
	"pixel",
	"tracking",
	"spacer",
	"blank",
	"1x1",
	"transparent",
	"/wp-includes/",
	"/wp-content/plugins/",
	"gravatar.com",
}

// lazySrcAttrs are the src fallbacks used by common lazy-loading schemes,
// in lookup order.
var lazySrcAttrs = []string{"src", "data-src", "data-lazy-src", "data-original"}

var backgroundURLPattern = regexp.MustCompile(`url\(["']?([^"')\s]+)["']?\)`)

// extractImages collects <img> tags and inline background-image
// declarations, resolves sources against the page URL, and filters noise
// and undersized images. Each resolved source appears at most once per
// page.
func (e *Extractor) extractImages(doc *goquery.Document, base *url.URL) []types.ImageRecord {
	var images []types.ImageRecord
	seen := make(map[string]struct{})

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src := firstAttr(s, lazySrcAttrs)
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}

		resolved, ok := e.resolveImage(base, src, seen)
		if !ok {
			return
		}

		width := intAttr(s, "width")
		height := intAttr(s, "height")
		if width > 0 && width < e.opts.MinImageWidth {
			return
		}
		if height > 0 && height < e.opts.MinImageHeight {
			return
		}

		images = append(images, types.ImageRecord{
			Src:    resolved,
			Alt:    strings.TrimSpace(s.AttrOr("alt", "")),
			Page:   base.String(),
			Width:  width,
			Height: height,
		})
	})

	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		style := s.AttrOr("style", "")
		match := backgroundURLPattern.FindStringSubmatch(style)
		if match == nil {
			return
		}
		resolved, ok := e.resolveImage(base, match[1], seen)
		if !ok {
			return
		}
		images = append(images, types.ImageRecord{
			Src:  resolved,
			Alt:  "(background image)",
			Page: base.String(),
		})
	})

	return images
}

func (e *Extractor) resolveImage(base *url.URL, src string, seen map[string]struct{}) (string, bool) {
	u, err := base.Parse(src)
	if err != nil {
		return "", false
	}
	resolved := u.String()
	if _, dup := seen[resolved]; dup {
		return "", false
	}
	seen[resolved] = struct{}{}
	if noisyImage(resolved) {
		return "", false
	}
	return resolved, true
}

func noisyImage(src string) bool {
	lower := strings.ToLower(src)
	for _, fragment := range noiseFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

func firstAttr(s *goquery.Selection, names []string) string {
	for _, name := range names {
		if v, ok := s.Attr(name); ok {
			v = strings.TrimSpace(v)
			if v != "" {
				return v
			}
		}
	}
	return ""
}

func intAttr(s *goquery.Selection, name string) int {
	raw, ok := s.Attr(name)
	if !ok {
		return 0
	}
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "px")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
