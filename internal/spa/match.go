package spa

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// matchesAny reports whether name matches any of the glob patterns. Patterns
// without a slash are also tried against the base name, so "*.map" matches
// at any depth.
func matchesAny(name string, patterns []string) bool {
	base := path.Base(name)
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
		if strings.Contains(pattern, "/") {
			continue
		}
		if ok, err := doublestar.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

// ValidatePatterns reports the first malformed glob pattern.
func ValidatePatterns(patterns []string) (string, bool) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return p, false
		}
	}
	return "", true
}
