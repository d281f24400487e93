// Package slug derives URL-safe identifiers from display names. Slugs are
// embedded in page fragments and API paths, so the output for a given name
// must never change between runs or releases.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonAlnum matches any run of characters outside [a-z0-9].
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

	// asciiFold decomposes accented characters and drops the combining
	// marks, so "Café" folds to "Cafe".
	asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Slugify converts a free-text name into a lowercase, hyphenated identifier.
//
//	Slugify("Dripping Springs Songwriters Festival") // "dripping-springs-songwriters-festival"
//	Slugify("A & B!!")                               // "a-and-b"
func Slugify(name string) string {
	if name == "" {
		return ""
	}

	folded, _, err := transform.String(asciiFold, name)
	if err != nil {
		folded = name
	}

	s := strings.ToLower(folded)
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "&", "and")
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// IsSlug reports whether s is already in slug form, i.e. Slugify(s) == s and
// s is non-empty.
func IsSlug(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' || s[len(s)-1] == '-' || strings.Contains(s, "--") {
		return false
	}
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}
	return true
}
