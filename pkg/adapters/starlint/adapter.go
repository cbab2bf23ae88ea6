package starlint

import (
	"context"
	"errors"
	"fmt"

	"github.com/leapstack-labs/metalint/internal/starlark"
	"github.com/leapstack-labs/metalint/pkg/adapter"
	"github.com/leapstack-labs/metalint/pkg/core"
	"github.com/leapstack-labs/metalint/pkg/lint"
)

// Name is the identity the adapter is registered under.
const Name = "starlark"

// Options configures the adapter.
type Options struct {
	// Script is the path of the script, relative to the root.
	Script string `mapstructure:"script"`
	// Args is exposed to the script as the options global.
	Args map[string]any `mapstructure:"args"`
	// MaxSteps bounds the computation of one call. Zero means no bound.
	MaxSteps uint64 `mapstructure:"max_steps"`
	// Threads is the number of idle interpreter threads kept for reuse.
	Threads int `mapstructure:"threads"`
}

// Adapter runs a Starlark script per file.
type Adapter struct {
	adapter.Base
	script *starlark.Script
}

// New loads and executes the script once. Its functions are then shared by
// every file the instance lints.
func New(lctx lint.Context, options map[string]any) (lint.Adapter, error) {
	var opts Options
	if err := lint.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	if opts.Script == "" {
		return nil, errors.New("script is required")
	}

	base := adapter.NewBase(Name, lctx)
	env := starlark.Env{
		Options: opts.Args,
		Root:    lctx.Root,
		Level:   lctx.Level.String(),
		Fix:     lctx.Fix,
	}
	predeclared, err := env.Predeclared()
	if err != nil {
		return nil, fmt.Errorf("args: %w", err)
	}

	pool := starlark.NewThreadPool(opts.Threads, opts.MaxSteps, base.Logger)
	script, err := starlark.Load(lctx.Path(opts.Script), nil, predeclared, pool)
	if err != nil {
		return nil, err
	}
	if !script.Has("lint") {
		return nil, fmt.Errorf("%s does not define lint(path, content)", opts.Script)
	}

	return &Adapter{Base: base, script: script}, nil
}

// Lint runs the script on file.
func (a *Adapter) Lint(ctx context.Context, file string) []lint.Notice {
	if a.Idle() {
		return nil
	}

	content, err := a.ReadFile(file)
	if err != nil {
		return a.Fatal(file, err)
	}

	if a.Ctx.Fix && a.script.Has("fix") {
		fixed, err := a.script.Call(ctx, "fix", file, string(content))
		if err != nil {
			return a.Fatal(file, err)
		}
		if s, ok := fixed.(string); ok {
			if _, err := a.WriteFix(file, content, []byte(s)); err != nil {
				return a.Fatal(file, err)
			}
			content = []byte(s)
		}
	}

	result, err := a.script.Call(ctx, "lint", file, string(content))
	if err != nil {
		return a.Fatal(file, err)
	}
	return a.notices(file, result)
}

// notices converts what lint returned. A malformed finding is reported as
// a fatal notice in its place.
func (a *Adapter) notices(file string, result any) []lint.Notice {
	if result == nil {
		return nil
	}
	items, ok := result.([]any)
	if !ok {
		return a.Fatal(file, fmt.Errorf("lint returned %T, want a list", result))
	}

	c := a.Collect(file)
	for i, item := range items {
		f, err := decodeFinding(item)
		if err != nil {
			c.Add(core.SeverityFatal, "", fmt.Sprintf("finding %d: %v", i, err))
			continue
		}
		target := file
		if f.File != "" {
			target = f.File
		}
		var locations []lint.Location
		if f.Line > 0 {
			locations = []lint.Location{{Line: f.Line, Column: f.Column}}
		}
		c.AddFor(target, f.severity, f.Rule, f.Message, locations...)
	}
	return c.Notices()
}

type finding struct {
	Message  string `mapstructure:"message"`
	Line     int    `mapstructure:"line"`
	Column   int    `mapstructure:"column"`
	Severity string `mapstructure:"severity"`
	Rule     string `mapstructure:"rule"`
	File     string `mapstructure:"file"`

	severity core.Severity
}

func decodeFinding(item any) (finding, error) {
	f := finding{severity: core.SeverityError}
	switch v := item.(type) {
	case string:
		f.Message = v
	case map[string]any:
		if err := lint.DecodeOptions(v, &f); err != nil {
			return f, err
		}
		if f.Severity != "" {
			s, err := core.ParseSeverity(f.Severity)
			if err != nil {
				return f, err
			}
			f.severity = s
		}
	default:
		return f, fmt.Errorf("want a notice, dict or string, got %T", item)
	}
	if f.Message == "" {
		return f, errors.New("message is empty")
	}
	return f, nil
}
