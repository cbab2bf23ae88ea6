package lint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/leapstack-labs/metalint/pkg/core"
)

// =============================================================================
// Notices
// =============================================================================

// Location is a position in a file. A zero Column means the notice only has
// line granularity; EndLine and EndColumn are optional.
type Location struct {
	Line      int `json:"line"`
	Column    int `json:"column,omitempty"`
	EndLine   int `json:"endLine,omitempty"`
	EndColumn int `json:"endColumn,omitempty"`
}

// Notice is one normalized diagnostic.
//
// Adapters may leave Rule, Severity and Locations unset; Results.Add fills in
// SeverityError and an empty location list. Rule stays empty when the
// underlying tool has no rule identifiers.
type Notice struct {
	File      string        `json:"file"`
	Linter    string        `json:"linter"`
	Rule      string        `json:"rule,omitempty"`
	Severity  core.Severity `json:"severity"`
	Message   string        `json:"message"`
	Locations []Location    `json:"locations"`
}

// Fatal builds the notice an adapter returns when it cannot analyze file.
func Fatal(file, linter string, err error, locations ...Location) Notice {
	return Notice{
		File:      file,
		Linter:    linter,
		Severity:  core.SeverityFatal,
		Message:   err.Error(),
		Locations: locations,
	}
}

// =============================================================================
// Adapter contract
// =============================================================================

// Context is what an adapter is constructed with.
type Context struct {
	// Level is the threshold; notices above it must not be returned.
	Level core.Level
	// Fix allows the adapter to rewrite the file it analyzes.
	Fix bool
	// Root is the project root directory.
	Root string
	// Files lists every file of the run. Adapters must not modify it.
	Files []string
	// Logger is never nil once the engine hands the context out.
	Logger *slog.Logger
}

// Allows reports whether a notice of severity s may be returned.
func (c Context) Allows(s core.Severity) bool {
	return c.Level.Allows(s)
}

// Path resolves a file of the run against Root for opening.
func (c Context) Path(file string) string {
	if filepath.IsAbs(file) || c.Root == "" {
		return file
	}
	return filepath.Join(c.Root, file)
}

// Adapter runs one third-party analyzer. Lint is called once per file and
// may be called many times on the same instance. It must not fail: problems
// opening or parsing the file are reported as SeverityFatal notices.
type Adapter interface {
	Lint(ctx context.Context, file string) []Notice
}

// AdapterFunc adapts a plain function to the Adapter interface.
type AdapterFunc func(ctx context.Context, file string) []Notice

// Lint calls f.
func (f AdapterFunc) Lint(ctx context.Context, file string) []Notice {
	return f(ctx, file)
}

// Factory builds an adapter for one resolved configuration. Construction
// may be expensive; the engine reuses instances across files.
type Factory func(lctx Context, options map[string]any) (Adapter, error)

// Definition describes an adapter registered under a stable identity.
type Definition struct {
	// Name is the identity configuration refers to, e.g. "json".
	Name string
	// Description is shown by `metalint linters`.
	Description string
	// Configurable is true when the adapter accepts options.
	Configurable bool
	// New builds an instance.
	New Factory
}

// Validate checks that the definition can be registered.
func (d Definition) Validate() error {
	if d.Name == "" {
		return errors.New("linter definition has no name")
	}
	if d.New == nil {
		return fmt.Errorf("linter %q has no factory", d.Name)
	}
	return nil
}

// Filter drops the notices level does not allow. Notices without a severity
// count as SeverityError.
func Filter(level core.Level, notices []Notice) []Notice {
	kept := notices[:0:0]
	for _, n := range notices {
		sev := n.Severity
		if sev == 0 {
			sev = core.SeverityError
		}
		if level.Allows(sev) {
			kept = append(kept, n)
		}
	}
	return kept
}
