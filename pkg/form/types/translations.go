package types

import "strings"

// Translations maps locale codes (e.g. "en", "fr") to a translated string.
type Translations map[string]string

// Resolve returns the first non-empty translation following the preferred
// locale order, falling back to any available translation.
func (t Translations) Resolve(preferredLocales []string) string {
	for _, locale := range preferredLocales {
		if v, ok := t[locale]; ok && v != "" {
			return v
		}
	}
	for _, v := range t {
		if v != "" {
			return v
		}
	}
	return ""
}

// Matches reports whether any locale's translation equals the given term,
// case-insensitively.
func (t Translations) Matches(term string) bool {
	for _, v := range t {
		if strings.EqualFold(v, term) {
			return true
		}
	}
	return false
}
