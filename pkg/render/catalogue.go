package render

import (
	"fmt"
	"io/fs"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultTemplatePatterns selects the files listed by List when no patterns are given.
var DefaultTemplatePatterns = []string{"**/*.tex", "**/*.tex.*"}

// List returns the sorted, de-duplicated regular files in fsys matching patterns.
func List(fsys fs.FS, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultTemplatePatterns
	}

	var matches []string
	for _, pattern := range patterns {
		m, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		matches = append(matches, m...)
	}
	slices.Sort(matches)
	matches = slices.Compact(matches)

	result := make([]string, 0, len(matches))
	for _, f := range matches {
		info, err := fs.Stat(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", f, err)
		}
		if info.IsDir() {
			continue
		}
		result = append(result, f)
	}
	return result, nil
}
