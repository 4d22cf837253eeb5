package csvimport

import (
	"strings"

	"golang.org/x/text/cases"
)

// fold lower-cases s for case-insensitive comparison.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

var compactReplacer = strings.NewReplacer("_", "", " ", "", "-", "", ".", "")

// compact strips the separators ignored by header comparison.
func compact(s string) string {
	return compactReplacer.Replace(fold(s))
}

type matchTier int

const (
	noMatch matchTier = iota
	substringMatch
	compactMatch
	exactMatch
)

// matchHeader grades how well a header names a custom field. Substring
// containment in either direction counts, so short names match loosely.
func matchHeader(header, fieldName string) matchTier {
	h, f := fold(header), fold(fieldName)
	if h == "" || f == "" {
		return noMatch
	}
	if h == f {
		return exactMatch
	}
	if ch, cf := compact(h), compact(f); ch != "" && ch == cf {
		return compactMatch
	}
	if strings.Contains(h, f) || strings.Contains(f, h) {
		return substringMatch
	}
	return noMatch
}

// bestHeader returns the index of the strongest matching header not in skip.
// Ties go to the earliest header.
func bestHeader(headers []string, fieldName string, skip func(int) bool) int {
	best, bestTier := -1, noMatch
	for i, h := range headers {
		if skip(i) {
			continue
		}
		if tier := matchHeader(h, fieldName); tier > bestTier {
			best, bestTier = i, tier
		}
	}
	return best
}
