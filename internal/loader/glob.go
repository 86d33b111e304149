package loader

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Match reports whether the slash-separated name matches pattern.
// A "**" segment matches zero or more whole segments. A malformed pattern
// matches nothing.
func Match(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if Match(p, name) {
			return true
		}
	}
	return false
}

// prunedBy reports whether an exclude pattern covers the whole tree under dir.
func prunedBy(patterns []string, dir string) bool {
	for _, p := range patterns {
		if prefix, ok := strings.CutSuffix(p, "/**"); ok && Match(prefix, dir) {
			return true
		}
	}
	return false
}
