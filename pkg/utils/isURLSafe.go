package utils

import "regexp"

var urlSafePattern = regexp.MustCompile(`^[a-zA-Z0-9-_]+$`)

// IsURLSafe reports whether a value can be used as a single URL path
// segment, e.g. a media object id requested back from storage. Anything
// outside [a-zA-Z0-9-_] (dots and slashes included) fails.
func IsURLSafe(value string) bool {
	if value == "" {
		return false
	}
	return urlSafePattern.MatchString(value)
}
