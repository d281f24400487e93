// Package links tells real, navigable links apart from placeholders.
package links

import (
	"net/url"
	"strings"
)

// placeholderBase resolves relative input; a result that still points at
// this host was never an absolute URL.
var placeholderBase = &url.URL{Scheme: "https", Host: "placeholder.local"}

var sentinels = map[string]struct{}{
	"TBD":         {},
	"TBA":         {},
	"COMING SOON": {},
}

// IsMeaningfulURL reports whether raw is an absolute http(s) URL rather than
// a placeholder such as "TBD", an empty string or a relative path. It never
// panics; malformed input is simply not meaningful.
func IsMeaningfulURL(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false
	}
	if _, ok := sentinels[strings.ToUpper(trimmed)]; ok {
		return false
	}

	ref, err := url.Parse(trimmed)
	if err != nil {
		return false
	}
	resolved := placeholderBase.ResolveReference(ref)

	if resolved.Host == "" || strings.EqualFold(resolved.Host, placeholderBase.Host) {
		return false
	}

	switch strings.ToLower(resolved.Scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}
