package frontier

import (
	"net/url"
	"path"
	"sort"
	"strings"
)

// trackingParams are login/analytics query parameters stripped during URL
// normalization so that tracked and untracked links dedupe to one entry.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_content":  {},
	"utm_term":     {},
	"fbclid":       {},
	"gclid":        {},
	"ref":          {},
	"source":       {},
	"sessionid":    {},
	"sid":          {},
}

// cacheBusterParams are version/cache query parameters stripped when
// normalizing image sources, so /img/a.jpg?v=2 and /img/a.jpg?v=3 count as
// the same unique image. They are kept for page URLs.
var cacheBusterParams = map[string]struct{}{
	"v":         {},
	"ver":       {},
	"version":   {},
	"cb":        {},
	"cache":     {},
	"nocache":   {},
	"ts":        {},
	"timestamp": {},
	"rev":       {},
}

// Normalize returns the canonical frontier key for a URL: lowercased
// scheme and host, default port removed, fragment dropped, path cleaned
// with the trailing slash canonicalized, tracking parameters stripped and
// the remaining query sorted.
func Normalize(u *url.URL) string {
	return canonical(u, trackingParams)
}

// NormalizeImage returns the uniqueness key for an image source. The query
// string is preserved except for known cache-buster parameters.
func NormalizeImage(src string) string {
	u, err := url.Parse(src)
	if err != nil {
		return src
	}
	drop := make(map[string]struct{}, len(trackingParams)+len(cacheBusterParams))
	for k := range trackingParams {
		drop[k] = struct{}{}
	}
	for k := range cacheBusterParams {
		drop[k] = struct{}{}
	}
	return canonical(u, drop)
}

func canonical(u *url.URL, dropParams map[string]struct{}) string {
	if u == nil {
		return ""
	}
	c := *u

	scheme := strings.ToLower(c.Scheme)
	if scheme == "" {
		scheme = "https"
	}
	host := strings.ToLower(c.Hostname())
	if port := c.Port(); port != "" && port != defaultPort(scheme) {
		host += ":" + port
	}

	p := c.EscapedPath()
	if p == "" {
		p = "/"
	} else {
		p = path.Clean(p)
	}
	// Canonical trailing slash: directories and the root keep "/", cleaned
	// paths never carry one elsewhere. path.Clean already trims it.
	if p == "." {
		p = "/"
	}

	key := scheme + "://" + host + p
	if q := filteredQuery(c.RawQuery, dropParams); q != "" {
		key += "?" + q
	}
	return key
}

func filteredQuery(rawQuery string, drop map[string]struct{}) string {
	if rawQuery == "" {
		return ""
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return rawQuery
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		if _, skip := drop[strings.ToLower(k)]; skip {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kept := url.Values{}
	for _, k := range keys {
		for _, v := range values[k] {
			if v == "" {
				continue
			}
			kept.Add(k, v)
		}
	}
	return kept.Encode()
}

func defaultPort(scheme string) string {
	switch scheme {
	case "http":
		return "80"
	case "https":
		return "443"
	default:
		return ""
	}
}
