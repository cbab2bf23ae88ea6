// Package glob matches root-relative paths against an ordered list of signed
// patterns and walks directory trees, pruning excluded subtrees without
// reading them.
//
// Patterns use a gitignore-like syntax:
//
//	/build/**    the build directory at the root and everything below it
//	*.css        any .css file, at any depth
//	src/**/*.go  any .go file below any src directory
//	!*.min.js    exclude minified files
//
// A negative pattern ending in "/**" is a deep negative: a directory it
// matches is pruned, so Walk never lists it.
package glob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrInvalidPattern is returned (wrapped) by New for malformed patterns.
var ErrInvalidPattern = errors.New("invalid pattern")

// Decision is the outcome of classifying a path.
type Decision int

const (
	// Prune excludes the path and, for a directory, everything below it.
	Prune Decision = iota
	// Exclude rejects the path itself; a directory may still hold selected paths.
	Exclude
	// Select accepts the path.
	Select
)

// String returns the name of the decision.
func (d Decision) String() string {
	switch d {
	case Prune:
		return "prune"
	case Exclude:
		return "exclude"
	case Select:
		return "select"
	default:
		return "unknown"
	}
}

// Options locates the paths handed to a Glob.
type Options struct {
	// Cwd is the directory relative paths are resolved from. Defaults to
	// the process working directory.
	Cwd string
	// Root is the directory patterns are anchored at. Defaults to Cwd.
	Root string
}

// Glob is a compiled pattern list. It is immutable and safe for concurrent use.
type Glob struct {
	cwd  string
	root string

	positives     []*regexp.Regexp
	negatives     []*regexp.Regexp
	deepNegatives []*regexp.Regexp
}

// New compiles patterns. A pattern followed later in the list by an identical
// pattern, or by its exact negation, is dropped before compilation.
func New(patterns []string, opts Options) (*Glob, error) {
	cwd, err := filepath.Abs(opts.Cwd)
	if err != nil {
		return nil, fmt.Errorf("resolving cwd: %w", err)
	}
	root := cwd
	if opts.Root != "" {
		if root, err = filepath.Abs(opts.Root); err != nil {
			return nil, fmt.Errorf("resolving root: %w", err)
		}
	}

	g := &Glob{cwd: cwd, root: root}
	for _, p := range resolve(patterns) {
		negative := strings.HasPrefix(p, "!")
		body := strings.TrimPrefix(p, "!")

		re, err := compile(body)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, p, err)
		}

		switch {
		case !negative:
			g.positives = append(g.positives, re)
		case strings.HasSuffix(body, "/**"):
			g.deepNegatives = append(g.deepNegatives, re)
		default:
			g.negatives = append(g.negatives, re)
		}
	}
	return g, nil
}

// MustNew is like New but panics on a malformed pattern.
func MustNew(patterns []string, opts Options) *Glob {
	g, err := New(patterns, opts)
	if err != nil {
		panic(err)
	}
	return g
}

// resolve drops every pattern superseded by a later identical pattern or by
// a later exact negation of it. The comparison is textual.
func resolve(patterns []string) []string {
	kept := make([]string, 0, len(patterns))
	for i, p := range patterns {
		negation := negate(p)
		superseded := false
		for _, later := range patterns[i+1:] {
			if later == p || later == negation {
				superseded = true
				break
			}
		}
		if !superseded {
			kept = append(kept, p)
		}
	}
	return kept
}

func negate(pattern string) string {
	if strings.HasPrefix(pattern, "!") {
		return pattern[1:]
	}
	return "!" + pattern
}

// Classify decides what to do with path. Paths are relative to the Glob's
// cwd (or absolute); a trailing slash marks a directory.
func (g *Glob) Classify(path string) Decision {
	if len(g.positives) == 0 {
		return Prune
	}

	normalized := g.normalize(path)
	for _, re := range g.deepNegatives {
		if re.MatchString(normalized) {
			return Prune
		}
	}
	for _, re := range g.negatives {
		if re.MatchString(normalized) {
			return Exclude
		}
	}
	for _, re := range g.positives {
		if re.MatchString(normalized) {
			return Select
		}
	}
	return Exclude
}

// Test reports whether path is selected.
func (g *Glob) Test(path string) bool {
	return g.Classify(path) == Select
}

// Walk lists base and, when base is a directory, every path below it that
// the Glob selects. Directories are listed with a trailing slash. A pruned
// path is never read: neither stat-ed nor, for a directory, listed.
func (g *Glob) Walk(ctx context.Context, base string) ([]string, error) {
	if base == "" {
		base = "."
	}
	var found []string
	if err := g.walk(ctx, base, &found); err != nil {
		return nil, err
	}
	return found, nil
}

func (g *Glob) walk(ctx context.Context, path string, found *[]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	decision := g.Classify(path)
	if decision == Prune {
		return nil
	}

	isDir := strings.HasSuffix(path, "/")
	if !isDir {
		info, err := os.Lstat(g.abs(path))
		if err != nil {
			return fmt.Errorf("walking %s: %w", path, err)
		}
		if info.IsDir() {
			path += "/"
			isDir = true
			if decision = g.Classify(path); decision == Prune {
				return nil
			}
		}
	}

	if decision == Select {
		*found = append(*found, path)
	}
	if !isDir {
		return nil
	}

	entries, err := os.ReadDir(g.abs(path))
	if err != nil {
		return fmt.Errorf("walking %s: %w", path, err)
	}

	prefix := path
	if prefix == "./" {
		prefix = ""
	}
	for _, entry := range entries {
		child := prefix + entry.Name()
		if entry.IsDir() {
			child += "/"
		}
		if err := g.walk(ctx, child, found); err != nil {
			return err
		}
	}
	return nil
}

func (g *Glob) abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(g.cwd, path)
}

// normalize turns path into the form patterns are compiled against: relative
// to the root, slash separated, starting with "/" and keeping the trailing
// slash of a directory. The root itself is "/".
func (g *Glob) normalize(path string) string {
	isDir := strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator))

	rel, err := filepath.Rel(g.root, g.abs(path))
	if err != nil {
		rel = g.abs(path)
	}
	if rel == "." {
		return "/"
	}

	normalized := "/" + strings.TrimPrefix(filepath.ToSlash(rel), "/")
	if isDir {
		normalized += "/"
	}
	return normalized
}
