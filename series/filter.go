package series

import (
	"path/filepath"
	"strings"
)

// Filter selects item ids by name. A pattern matches as a substring, a glob
// (filepath.Match) or an exact base name; empty and '#' patterns are skipped.
type Filter struct {
	// Include keeps only ids matching at least one pattern, when set.
	Include []string
	// Exclude drops ids matching any pattern.
	Exclude []string
}

// Match reports whether id passes the filter.
func (f *Filter) Match(id string) bool {
	if f == nil {
		return true
	}
	id = filepath.ToSlash(id)
	if len(f.Include) > 0 && !matchAny(id, f.Include) {
		return false
	}
	return !matchAny(id, f.Exclude)
}

func matchAny(id string, patterns []string) bool {
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" || strings.HasPrefix(pattern, "#") {
			continue
		}
		if matchPattern(id, pattern) {
			return true
		}
	}
	return false
}

func matchPattern(id, pattern string) bool {
	if strings.Contains(id, pattern) {
		return true
	}
	clean := strings.TrimPrefix(pattern, "/")
	if matched, _ := filepath.Match(clean, id); matched {
		return true
	}
	if matched, _ := filepath.Match(clean, filepath.Base(id)); matched {
		return true
	}
	return pattern == filepath.Base(id)
}
