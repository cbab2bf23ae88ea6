// Package config resolves metalint's cascading configuration.
//
// Settings cascade through three scopes: the global configuration, each
// checker, and the overrides nested in a checker. Flatten resolves the first
// two once, before any file is processed. Checker.ResolveLinters folds in the
// overrides matching a given file at analysis time.
//
// Each setting has one combinator:
//
//	fix, level  replace-if-present: a set child value wins, nil inherits
//	patterns    concatenate: parent patterns first
//	options     deep merge: later keys win, nested objects merge
//
// Linter lists are merged by linter identity.
package config

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/metalint/pkg/core"
)

// DefaultLevel is the level used when no scope sets one.
const DefaultLevel = core.LevelInfo

// ErrUnknownLinter is returned when configuration names an adapter nobody
// registered.
var ErrUnknownLinter = errors.New("unknown linter")

// =============================================================================
// Input model
// =============================================================================

// Root is the typed, partially specified configuration produced by the
// loader. Nil Fix and Level mean "not set in this scope".
type Root struct {
	Patterns []string
	Fix      *bool
	Level    *core.Level
	Checkers []CheckerSpec
}

// CheckerSpec binds file patterns to linters.
type CheckerSpec struct {
	Patterns  []string
	Fix       *bool
	Level     *core.Level
	Linters   []LinterSpec
	Overrides []OverrideSpec
}

// OverrideSpec is a more specific binding nested in a checker.
type OverrideSpec struct {
	Patterns []string
	Fix      *bool
	Level    *core.Level
	Linters  []LinterSpec
}

// LinterSpec is a linter entry as written in configuration. Options is an
// ordered list of objects merged outermost first.
type LinterSpec struct {
	Linter  string
	Fix     *bool
	Level   *core.Level
	Options []map[string]any
}

// =============================================================================
// Resolved model
// =============================================================================

// LinterConfig binds one adapter identity to its settings. In a checker's
// resolved list Fix and Level are always set; in an override they stay nil
// when the override inherits them.
type LinterConfig struct {
	Linter  string
	Fix     *bool
	Level   *core.Level
	Options map[string]any
}

// Clone returns a deep copy.
func (l LinterConfig) Clone() LinterConfig {
	return LinterConfig{
		Linter:  l.Linter,
		Fix:     ReplaceIfPresent[bool](nil, l.Fix),
		Level:   ReplaceIfPresent[core.Level](nil, l.Level),
		Options: CloneOptions(l.Options),
	}
}

// FixEnabled reports whether the linter may rewrite files.
func (l LinterConfig) FixEnabled() bool {
	return l.Fix != nil && *l.Fix
}

// Threshold returns the configured level, DefaultLevel when unset.
func (l LinterConfig) Threshold() core.Level {
	if l.Level == nil {
		return DefaultLevel
	}
	return *l.Level
}

// Checker is a flattened checker: global and checker scopes are resolved,
// overrides are not folded in yet.
type Checker struct {
	Patterns  []string
	Fix       bool
	Level     core.Level
	Linters   []LinterConfig
	Overrides []Override
}

// Override is a flattened override. Its patterns are evaluated on their own,
// against files the checker already selected.
type Override struct {
	Patterns []string
	Linters  []LinterConfig
}

// =============================================================================
// Stage A: flatten
// =============================================================================

// Flatten resolves the global and checker scopes of root.
func Flatten(root Root) ([]Checker, error) {
	fix := ReplaceIfPresent(ptr(false), root.Fix)
	level := ReplaceIfPresent(ptr(DefaultLevel), root.Level)
	if !level.Valid() {
		return nil, fmt.Errorf("invalid level %d", int(*level))
	}

	checkers := make([]Checker, 0, len(root.Checkers))
	for i, spec := range root.Checkers {
		c, err := flattenChecker(spec, root.Patterns, fix, level)
		if err != nil {
			return nil, fmt.Errorf("checker %d: %w", i, err)
		}
		checkers = append(checkers, c)
	}
	return checkers, nil
}

func flattenChecker(spec CheckerSpec, patterns []string, fix *bool, level *core.Level) (Checker, error) {
	fix = ReplaceIfPresent(fix, spec.Fix)
	level = ReplaceIfPresent(level, spec.Level)
	if !level.Valid() {
		return Checker{}, fmt.Errorf("invalid level %d", int(*level))
	}

	linters, err := flattenLinters(spec.Linters, fix, level)
	if err != nil {
		return Checker{}, err
	}

	overrides := make([]Override, 0, len(spec.Overrides))
	for i, o := range spec.Overrides {
		if o.Level != nil && !o.Level.Valid() {
			return Checker{}, fmt.Errorf("override %d: invalid level %d", i, int(*o.Level))
		}
		olinters, err := flattenLinters(o.Linters, o.Fix, o.Level)
		if err != nil {
			return Checker{}, fmt.Errorf("override %d: %w", i, err)
		}
		overrides = append(overrides, Override{
			Patterns: Concat(nil, o.Patterns),
			Linters:  olinters,
		})
	}

	return Checker{
		Patterns:  Concat(patterns, spec.Patterns),
		Fix:       *fix,
		Level:     *level,
		Linters:   linters,
		Overrides: overrides,
	}, nil
}

// flattenLinters merges entries by identity first, so an entry without a
// level does not reset a level set by an earlier entry for the same linter,
// then fills unset fields from the enclosing scope.
func flattenLinters(specs []LinterSpec, fix *bool, level *core.Level) ([]LinterConfig, error) {
	entries := make([]LinterConfig, 0, len(specs))
	for i, s := range specs {
		if s.Linter == "" {
			return nil, fmt.Errorf("linter %d has no name", i)
		}
		if s.Level != nil && !s.Level.Valid() {
			return nil, fmt.Errorf("linter %q: invalid level %d", s.Linter, int(*s.Level))
		}
		entries = append(entries, LinterConfig{
			Linter:  s.Linter,
			Fix:     s.Fix,
			Level:   s.Level,
			Options: MergeOptions(s.Options...),
		})
	}

	merged := MergeLinters(nil, entries)
	for i := range merged {
		merged[i].Fix = ReplaceIfPresent(fix, merged[i].Fix)
		merged[i].Level = ReplaceIfPresent(level, merged[i].Level)
	}
	return merged, nil
}

// =============================================================================
// Stage B: overrides
// =============================================================================

// ResolveLinters folds the linters of each override, in order, into the
// checker's own. Each override merges on top of the previous result. Linters
// that only an override names inherit the checker's fix and level.
func (c Checker) ResolveLinters(overrides ...Override) []LinterConfig {
	linters := MergeLinters(nil, c.Linters)
	for _, o := range overrides {
		linters = MergeLinters(linters, o.Linters)
	}
	for i := range linters {
		linters[i].Fix = ReplaceIfPresent(&c.Fix, linters[i].Fix)
		linters[i].Level = ReplaceIfPresent(&c.Level, linters[i].Level)
	}
	return linters
}

// Validate checks every linter identity of checkers against known.
func Validate(checkers []Checker, known func(name string) bool) error {
	check := func(linters []LinterConfig) error {
		for _, l := range linters {
			if !known(l.Linter) {
				return fmt.Errorf("%w %q", ErrUnknownLinter, l.Linter)
			}
		}
		return nil
	}
	for i, c := range checkers {
		if err := check(c.Linters); err != nil {
			return fmt.Errorf("checker %d: %w", i, err)
		}
		for j, o := range c.Overrides {
			if err := check(o.Linters); err != nil {
				return fmt.Errorf("checker %d override %d: %w", i, j, err)
			}
		}
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
