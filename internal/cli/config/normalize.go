package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/go-viper/mapstructure/v2"

	lintconfig "github.com/leapstack-labs/metalint/pkg/config"
	"github.com/leapstack-labs/metalint/pkg/core"
)

// Normalize converts the raw configuration into the typed model. known
// reports whether a linter identity is registered; unknown identities are
// rejected with lintconfig.ErrUnknownLinter.
//
// A linters list accepts three entry forms:
//
//	- json                              identity only
//	- {linter: json, level: WARN, ...}  identity with settings
//	- {json: {indent: 4}, yaml: null}   identities mapped to options
func (c *Config) Normalize(known func(name string) bool) (lintconfig.Root, error) {
	var root lintconfig.Root
	var err error

	root.Patterns = slices.Clone(c.Patterns)
	root.Fix = c.Fix
	if root.Level, err = levelPtr(c.Level); err != nil {
		return root, err
	}

	for i, cc := range c.Checkers {
		spec, err := cc.normalize(known)
		if err != nil {
			return root, fmt.Errorf("checkers[%d]: %w", i, err)
		}
		root.Checkers = append(root.Checkers, spec)
	}
	return root, nil
}

func (cc CheckerConfig) normalize(known func(string) bool) (lintconfig.CheckerSpec, error) {
	spec := lintconfig.CheckerSpec{Patterns: cc.Patterns, Fix: cc.Fix}
	var err error
	if spec.Level, err = levelPtr(cc.Level); err != nil {
		return spec, err
	}
	if spec.Linters, err = linters(cc.Linters, known); err != nil {
		return spec, err
	}

	for i, oc := range cc.Overrides {
		o := lintconfig.OverrideSpec{Patterns: oc.Patterns, Fix: oc.Fix}
		if o.Level, err = levelPtr(oc.Level); err != nil {
			return spec, fmt.Errorf("overrides[%d]: %w", i, err)
		}
		if o.Linters, err = linters(oc.Linters, known); err != nil {
			return spec, fmt.Errorf("overrides[%d]: %w", i, err)
		}
		spec.Overrides = append(spec.Overrides, o)
	}
	return spec, nil
}

func levelPtr(v any) (*core.Level, error) {
	if v == nil {
		return nil, nil
	}
	l, err := core.LevelOf(v)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// =============================================================================
// Linter shorthands
// =============================================================================

type linterEntry struct {
	Linter  string `mapstructure:"linter"`
	Fix     *bool  `mapstructure:"fix"`
	Level   any    `mapstructure:"level"`
	Options any    `mapstructure:"options"`
}

func linters(raw []any, known func(string) bool) ([]lintconfig.LinterSpec, error) {
	var specs []lintconfig.LinterSpec
	for i, item := range raw {
		entries, err := linterSpecs(item)
		if err != nil {
			return nil, fmt.Errorf("linters[%d]: %w", i, err)
		}
		for _, s := range entries {
			if known != nil && !known(s.Linter) {
				return nil, fmt.Errorf("linters[%d]: %w %q", i, lintconfig.ErrUnknownLinter, s.Linter)
			}
		}
		specs = append(specs, entries...)
	}
	return specs, nil
}

func linterSpecs(item any) ([]lintconfig.LinterSpec, error) {
	switch v := item.(type) {
	case string:
		if v == "" {
			return nil, errors.New("empty linter name")
		}
		return []lintconfig.LinterSpec{{Linter: v}}, nil

	case map[string]any:
		if _, ok := v["linter"]; ok {
			s, err := linterEntrySpec(v)
			if err != nil {
				return nil, err
			}
			return []lintconfig.LinterSpec{s}, nil
		}
		specs := make([]lintconfig.LinterSpec, 0, len(v))
		for _, name := range slices.Sorted(maps.Keys(v)) {
			opts, err := optionList(v[name])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			specs = append(specs, lintconfig.LinterSpec{Linter: name, Options: opts})
		}
		return specs, nil
	}
	return nil, fmt.Errorf("want a name or a mapping, got %T", item)
}

func linterEntrySpec(raw map[string]any) (lintconfig.LinterSpec, error) {
	var e linterEntry
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &e,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return lintconfig.LinterSpec{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return lintconfig.LinterSpec{}, err
	}
	if e.Linter == "" {
		return lintconfig.LinterSpec{}, errors.New("empty linter name")
	}

	spec := lintconfig.LinterSpec{Linter: e.Linter, Fix: e.Fix}
	if spec.Level, err = levelPtr(e.Level); err != nil {
		return spec, fmt.Errorf("%s: %w", e.Linter, err)
	}
	if spec.Options, err = optionList(e.Options); err != nil {
		return spec, fmt.Errorf("%s: %w", e.Linter, err)
	}
	return spec, nil
}

// optionList accepts nothing, one options mapping or a list of mappings
// merged in order.
func optionList(v any) ([]map[string]any, error) {
	switch opts := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return []map[string]any{opts}, nil
	case []any:
		out := make([]map[string]any, 0, len(opts))
		for i, o := range opts {
			m, ok := o.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("options[%d]: want a mapping, got %T", i, o)
			}
			out = append(out, m)
		}
		return out, nil
	}
	return nil, fmt.Errorf("options: want a mapping or a list of mappings, got %T", v)
}

// =============================================================================
// Reporters
// =============================================================================

type reporterEntry struct {
	Formatter string `mapstructure:"formatter"`
	Level     any    `mapstructure:"level"`
	Output    string `mapstructure:"output"`
}

// ReporterList returns the configured reporters. A formatter chosen on the
// command line replaces them with one reporter on stdout. Reporters default
// to the INFO level.
func (c *Config) ReporterList(formatterFlag bool) ([]Reporter, error) {
	if formatterFlag || len(c.Reporters) == 0 {
		return []Reporter{{Formatter: c.Formatter, Level: core.LevelInfo}}, nil
	}

	reporters := make([]Reporter, 0, len(c.Reporters))
	for i, item := range c.Reporters {
		var e reporterEntry
		switch v := item.(type) {
		case string:
			e.Formatter = v
		case map[string]any:
			dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: &e, ErrorUnused: true})
			if err != nil {
				return nil, err
			}
			if err := dec.Decode(v); err != nil {
				return nil, fmt.Errorf("reporters[%d]: %w", i, err)
			}
		default:
			return nil, fmt.Errorf("reporters[%d]: want a name or a mapping, got %T", i, item)
		}
		if e.Formatter == "" {
			return nil, fmt.Errorf("reporters[%d]: formatter is required", i)
		}

		r := Reporter{Formatter: e.Formatter, Level: core.LevelInfo, Output: e.Output}
		if e.Level != nil {
			l, err := core.LevelOf(e.Level)
			if err != nil {
				return nil, fmt.Errorf("reporters[%d]: %w", i, err)
			}
			r.Level = l
		}
		reporters = append(reporters, r)
	}
	return reporters, nil
}
