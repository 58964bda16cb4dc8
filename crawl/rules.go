// URL rules: recognising post links and naming pages on disk.

package crawl

import (
	"net/url"
	"strings"
)

// DefaultPostMarker identifies post URLs on the target site.
const DefaultPostMarker = "patreon.com/posts/"

// IsPostLink checks if an href contains the post marker.
// The comparison is a plain substring match on the raw attribute value.
func IsPostLink(href string, marker string) bool {
	if href == "" || marker == "" {
		return false
	}
	return strings.Contains(href, marker)
}

// PageName returns the final path segment of a URL, used to name the debug
// dump of a fetched page. Trailing slashes are ignored; a URL without any
// path segment yields "index".
func PageName(rawURL string) string {
	p := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Host != "" {
		p = parsed.Path
	}
	p = strings.TrimRight(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	if p == "" {
		return "index"
	}
	return p
}
