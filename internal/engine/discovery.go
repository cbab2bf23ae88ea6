package engine

// discovery.go - finding the files a run should lint

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/metalint/pkg/config"
	"github.com/leapstack-labs/metalint/pkg/glob"
)

// Discover walks each of paths with the patterns of every checker and
// returns the union of the selected files, relative to root, sorted and
// without duplicates. Directories are not returned. With no paths, root
// itself is walked.
func (e *Engine) Discover(ctx context.Context, checkers []config.Checker, root string, paths ...string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	seen := make(map[string]struct{})
	for i, c := range checkers {
		g, err := glob.New(c.Patterns, glob.Options{Cwd: root, Root: root})
		if err != nil {
			return nil, fmt.Errorf("checker %d: %w", i, err)
		}
		for _, p := range paths {
			found, err := g.Walk(ctx, p)
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				if strings.HasSuffix(f, "/") {
					continue
				}
				seen[f] = struct{}{}
			}
		}
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	slices.Sort(files)

	e.logger.Debug("discovered files", "count", len(files), "files", describe(files))
	return files, nil
}
