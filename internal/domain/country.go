package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// CountrySlug normalises a country tag to its slug: lowercase letters and
// digits, with every run of other characters collapsed into one hyphen.
// "South  Korea!" becomes "south-korea".
func CountrySlug(name string) (string, error) {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: country tag %q is empty", ErrValidation, name)
	}
	return b.String(), nil
}

// NormalizeCountries slugs every tag and drops duplicates, keeping the
// first occurrence order.
func NormalizeCountries(names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		slug, err := CountrySlug(n)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, slug)
	}
	return out, nil
}
