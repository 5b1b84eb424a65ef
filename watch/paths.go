package watch

import (
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover expands include patterns to the rune documents below root.
// Patterns are rooted at root and support recursive wildcards (**).
// Results are deduplicated and sorted so repeated discovery over an
// unchanged tree yields identical output.
func Discover(root string, include []string) ([]string, error) {
	fsys := os.DirFS(root)
	seen := make(map[string]bool)
	var docs []string

	for _, pattern := range include {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("resolve pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			info, err := fs.Stat(fsys, match)
			if err != nil || info.IsDir() {
				continue
			}
			if !seen[match] {
				seen[match] = true
				docs = append(docs, match)
			}
		}
	}

	sort.Strings(docs)
	return docs, nil
}
