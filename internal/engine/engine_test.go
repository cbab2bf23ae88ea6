package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/metalint/internal/testutil"
	"github.com/leapstack-labs/metalint/pkg/config"
	"github.com/leapstack-labs/metalint/pkg/core"
	"github.com/leapstack-labs/metalint/pkg/glob"
	"github.com/leapstack-labs/metalint/pkg/lint"
)

func newTestEngine(t *testing.T, linters ...lint.Definition) *Engine {
	t.Helper()
	registry := lint.NewRegistry()
	for _, def := range linters {
		registry.Register(def)
	}
	return New(Config{Registry: registry, Logger: testutil.NewTestLogger(t), Concurrency: 4})
}

func flatten(t *testing.T, root config.Root) []config.Checker {
	t.Helper()
	checkers, err := config.Flatten(root)
	require.NoError(t, err)
	return checkers
}

func lvl(l core.Level) *core.Level { return &l }

func TestRunUnmatchedFilesStayNil(t *testing.T) {
	fake := &testutil.FakeLinter{Name: "fake"}
	e := newTestEngine(t, fake.Definition())

	checkers := flatten(t, config.Root{Checkers: []config.CheckerSpec{{
		Patterns: []string{"a.js"},
		Linters:  []config.LinterSpec{{Linter: "fake"}},
	}}})

	got, err := e.Run(context.Background(), []string{"a.js", "b.js"}, checkers, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, map[string][]lint.Notice{"a.js": {}, "b.js": nil}, got)
	assert.NotNil(t, got["a.js"])
	assert.Equal(t, 1, fake.Calls("a.js"))
	assert.Equal(t, 0, fake.Calls("b.js"))
}

func TestRunKeysNoticesByTheirOwnFile(t *testing.T) {
	fake := &testutil.FakeLinter{
		Name: "zip",
		Respond: func(_ lint.Context, _ map[string]any, file string) []lint.Notice {
			return []lint.Notice{{File: file + "/inner.json", Message: "bad json"}}
		},
	}
	e := newTestEngine(t, fake.Definition())

	checkers := flatten(t, config.Root{Checkers: []config.CheckerSpec{{
		Patterns: []string{"*.zip"},
		Linters:  []config.LinterSpec{{Linter: "zip"}},
	}}})

	got, err := e.Run(context.Background(), []string{"pkg.zip"}, checkers, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, []lint.Notice{}, got["pkg.zip"])
	require.Len(t, got["pkg.zip/inner.json"], 1)

	n := got["pkg.zip/inner.json"][0]
	assert.Equal(t, "zip", n.Linter, "linter defaults to the configured identity")
	assert.Equal(t, core.SeverityError, n.Severity)
	assert.Equal(t, []lint.Location{}, n.Locations)
}

func TestRunOverrideLevelSuppressesOutput(t *testing.T) {
	fake := &testutil.FakeLinter{
		Name: "stylelint",
		Respond: func(lctx lint.Context, _ map[string]any, file string) []lint.Notice {
			if !lctx.Allows(core.SeverityWarn) {
				return nil
			}
			return []lint.Notice{{Message: "color", Severity: core.SeverityWarn}}
		},
	}
	e := newTestEngine(t, fake.Definition())

	checkers := flatten(t, config.Root{Checkers: []config.CheckerSpec{{
		Patterns: []string{"*.css"},
		Level:    lvl(core.LevelWarn),
		Linters:  []config.LinterSpec{{Linter: "stylelint"}},
		Overrides: []config.OverrideSpec{{
			Patterns: []string{"legacy/**"},
			Linters:  []config.LinterSpec{{Linter: "stylelint", Level: lvl(core.LevelOff)}},
		}},
	}}})

	got, err := e.Run(context.Background(), []string{"legacy/app.css", "other/app.css"}, checkers, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, []lint.Notice{}, got["legacy/app.css"])
	require.Len(t, got["other/app.css"], 1)
	assert.Equal(t, "color", got["other/app.css"][0].Message)

	levels := map[core.Level]int{}
	for _, lctx := range fake.Instances() {
		levels[lctx.Level]++
	}
	assert.Equal(t, map[core.Level]int{core.LevelWarn: 1, core.LevelOff: 1}, levels)
}

func TestRunFiltersAboveLevel(t *testing.T) {
	fake := &testutil.FakeLinter{
		Name: "chatty",
		Respond: func(lint.Context, map[string]any, string) []lint.Notice {
			return []lint.Notice{
				{Message: "info", Severity: core.SeverityInfo},
				{Message: "warn", Severity: core.SeverityWarn},
				{Message: "error"},
			}
		},
	}
	e := newTestEngine(t, fake.Definition())

	checkers := flatten(t, config.Root{
		Level: lvl(core.LevelError),
		Checkers: []config.CheckerSpec{{
			Patterns: []string{"**"},
			Linters:  []config.LinterSpec{{Linter: "chatty"}},
		}},
	})

	got, err := e.Run(context.Background(), []string{"x.txt"}, checkers, t.TempDir())
	require.NoError(t, err)
	require.Len(t, got["x.txt"], 1)
	assert.Equal(t, "error", got["x.txt"][0].Message)
}

func TestRunReusesAdapterInstances(t *testing.T) {
	fake := &testutil.FakeLinter{Name: "fake"}
	e := newTestEngine(t, fake.Definition())

	checkers := flatten(t, config.Root{Checkers: []config.CheckerSpec{{
		Patterns: []string{"*.json"},
		Linters:  []config.LinterSpec{{Linter: "fake", Options: []map[string]any{{"indent": 2}}}},
		Overrides: []config.OverrideSpec{{
			Patterns: []string{"/fixtures/**"},
			Linters:  []config.LinterSpec{{Linter: "fake", Options: []map[string]any{{"indent": 4}}}},
		}},
	}}})

	files := []string{"a.json", "b.json", "src/c.json", "fixtures/d.json", "fixtures/e.json"}
	_, err := e.Run(context.Background(), files, checkers, t.TempDir())
	require.NoError(t, err)

	assert.Len(t, fake.Instances(), 2, "one instance per resolved configuration")
	assert.ElementsMatch(t, []map[string]any{{"indent": 2}, {"indent": 4}}, fake.Options())
	for _, f := range files {
		assert.Equal(t, 1, fake.Calls(f), f)
	}
}

func TestRunPassesContextToAdapters(t *testing.T) {
	fake := &testutil.FakeLinter{Name: "fake"}
	e := newTestEngine(t, fake.Definition())
	root := t.TempDir()

	checkers := flatten(t, config.Root{
		Fix: func() *bool { b := true; return &b }(),
		Checkers: []config.CheckerSpec{{
			Patterns: []string{"*"},
			Linters:  []config.LinterSpec{{Linter: "fake"}},
		}},
	})

	files := []string{"a", "b"}
	_, err := e.Run(context.Background(), files, checkers, root)
	require.NoError(t, err)

	require.Len(t, fake.Instances(), 1)
	lctx := fake.Instances()[0]
	assert.True(t, lctx.Fix)
	assert.Equal(t, config.DefaultLevel, lctx.Level)
	assert.Equal(t, root, lctx.Root)
	assert.Equal(t, files, lctx.Files)
	assert.NotNil(t, lctx.Logger)
}

func TestRunSeveralCheckersOnOneFile(t *testing.T) {
	first := &testutil.FakeLinter{Name: "first", Respond: func(_ lint.Context, _ map[string]any, _ string) []lint.Notice {
		return []lint.Notice{{Message: "late", Locations: []lint.Location{{Line: 9}}}}
	}}
	second := &testutil.FakeLinter{Name: "second", Respond: func(_ lint.Context, _ map[string]any, _ string) []lint.Notice {
		return []lint.Notice{{Message: "early", Locations: []lint.Location{{Line: 1, Column: 3}}}}
	}}
	e := newTestEngine(t, first.Definition(), second.Definition())

	checkers := flatten(t, config.Root{Checkers: []config.CheckerSpec{
		{Patterns: []string{"*.ts"}, Linters: []config.LinterSpec{{Linter: "first"}}},
		{Patterns: []string{"src/**"}, Linters: []config.LinterSpec{{Linter: "second"}}},
	}})

	got, err := e.Run(context.Background(), []string{"src/index.ts"}, checkers, t.TempDir())
	require.NoError(t, err)

	notices := got["src/index.ts"]
	require.Len(t, notices, 2)
	assert.Equal(t, "early", notices[0].Message)
	assert.Equal(t, "second", notices[0].Linter)
	assert.Equal(t, "late", notices[1].Message)
}

func TestRunAdapterPanicBecomesFatal(t *testing.T) {
	fake := &testutil.FakeLinter{Name: "crashy", Respond: func(_ lint.Context, _ map[string]any, file string) []lint.Notice {
		if file == "bad.txt" {
			panic("boom")
		}
		return nil
	}}
	e := newTestEngine(t, fake.Definition())

	checkers := flatten(t, config.Root{Checkers: []config.CheckerSpec{{
		Patterns: []string{"*.txt"},
		Linters:  []config.LinterSpec{{Linter: "crashy"}},
	}}})

	got, err := e.Run(context.Background(), []string{"bad.txt", "good.txt"}, checkers, t.TempDir())
	require.NoError(t, err)

	require.Len(t, got["bad.txt"], 1)
	assert.Equal(t, core.SeverityFatal, got["bad.txt"][0].Severity)
	assert.Contains(t, got["bad.txt"][0].Message, "boom")
	assert.Equal(t, []lint.Notice{}, got["good.txt"])
}

func TestRunDirectoryOverrideMatchesOnlyTheDirectory(t *testing.T) {
	fake := &testutil.FakeLinter{
		Name: "stylelint",
		Respond: func(lctx lint.Context, _ map[string]any, file string) []lint.Notice {
			if !lctx.Allows(core.SeverityWarn) {
				return nil
			}
			return []lint.Notice{{Message: "color", Severity: core.SeverityWarn}}
		},
	}
	e := newTestEngine(t, fake.Definition())

	checkers := flatten(t, config.Root{Checkers: []config.CheckerSpec{{
		Patterns: []string{"*.css"},
		Level:    lvl(core.LevelWarn),
		Linters:  []config.LinterSpec{{Linter: "stylelint"}},
		Overrides: []config.OverrideSpec{{
			Patterns: []string{"legacy/"},
			Linters:  []config.LinterSpec{{Linter: "stylelint", Level: lvl(core.LevelOff)}},
		}},
	}}})

	got, err := e.Run(context.Background(), []string{"legacy/app.css"}, checkers, t.TempDir())
	require.NoError(t, err)

	require.Len(t, got["legacy/app.css"], 1, `"legacy/" selects the directory entry, not its files`)
	assert.Equal(t, "color", got["legacy/app.css"][0].Message)
}

func TestRunConstructionErrorBecomesFatal(t *testing.T) {
	registry := lint.NewRegistry()
	registry.Register(lint.Definition{
		Name:         "broken",
		Configurable: true,
		New: func(lint.Context, map[string]any) (lint.Adapter, error) {
			return nil, errors.New("schema does not compile")
		},
	})
	registry.Register(lint.Definition{
		Name: "plain",
		New: func(lint.Context, map[string]any) (lint.Adapter, error) {
			return lint.AdapterFunc(func(context.Context, string) []lint.Notice { return nil }), nil
		},
	})
	e := New(Config{Registry: registry, Logger: testutil.NewTestLogger(t)})

	checkers := flatten(t, config.Root{Checkers: []config.CheckerSpec{{
		Patterns: []string{"*"},
		Linters: []config.LinterSpec{
			{Linter: "broken"},
			{Linter: "plain", Options: []map[string]any{{"x": 1}}},
		},
	}}})

	got, err := e.Run(context.Background(), []string{"a", "b"}, checkers, t.TempDir())
	require.NoError(t, err)

	for _, f := range []string{"a", "b"} {
		require.Len(t, got[f], 2, f)
		assert.Equal(t, core.SeverityFatal, got[f][0].Severity)
		assert.Equal(t, core.SeverityFatal, got[f][1].Severity)
		assert.Contains(t, got[f][0].Message+got[f][1].Message, "schema does not compile")
		assert.Contains(t, got[f][0].Message+got[f][1].Message, "takes no options")
	}

	silenced := flatten(t, config.Root{Checkers: []config.CheckerSpec{{
		Patterns: []string{"*"},
		Linters:  []config.LinterSpec{{Linter: "broken", Level: lvl(core.LevelOff)}},
	}}})
	got, err = e.Run(context.Background(), []string{"a"}, silenced, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, []lint.Notice{}, got["a"])
}

func TestRunSetupErrors(t *testing.T) {
	fake := &testutil.FakeLinter{Name: "fake"}
	e := newTestEngine(t, fake.Definition())

	t.Run("unknown linter", func(t *testing.T) {
		checkers := flatten(t, config.Root{Checkers: []config.CheckerSpec{{
			Patterns:  []string{"*"},
			Linters:   []config.LinterSpec{{Linter: "fake"}},
			Overrides: []config.OverrideSpec{{Patterns: []string{"x"}, Linters: []config.LinterSpec{{Linter: "eslint"}}}},
		}}})
		_, err := e.Run(context.Background(), []string{"a"}, checkers, t.TempDir())
		assert.ErrorIs(t, err, config.ErrUnknownLinter)
	})

	t.Run("malformed pattern", func(t *testing.T) {
		checkers := flatten(t, config.Root{Checkers: []config.CheckerSpec{{
			Patterns: []string{"src/a**b"},
			Linters:  []config.LinterSpec{{Linter: "fake"}},
		}}})
		_, err := e.Run(context.Background(), []string{"a"}, checkers, t.TempDir())
		assert.ErrorIs(t, err, glob.ErrInvalidPattern)
	})

	assert.Empty(t, fake.Instances(), "no adapter is built when setup fails")
}

func TestRunIsDeterministic(t *testing.T) {
	fake := &testutil.FakeLinter{Name: "fake", Respond: func(_ lint.Context, _ map[string]any, file string) []lint.Notice {
		return []lint.Notice{
			{Message: file + " b", Locations: []lint.Location{{Line: 2}}},
			{Message: file + " a", Locations: []lint.Location{{Line: 1, Column: 1}}},
		}
	}}

	files := []string{"a.go", "b.go", "c.go", "d.go", "e.go", "f.go"}
	checkers := flatten(t, config.Root{Checkers: []config.CheckerSpec{{
		Patterns: []string{"*.go"},
		Linters:  []config.LinterSpec{{Linter: "fake"}},
	}}})

	registry := lint.NewRegistry()
	registry.Register(fake.Definition())

	serial, err := New(Config{Registry: registry, Concurrency: 1}).Run(context.Background(), files, checkers, t.TempDir())
	require.NoError(t, err)
	parallel, err := New(Config{Registry: registry, Concurrency: 8}).Run(context.Background(), files, checkers, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
	assert.Equal(t, "a.go a", serial["a.go"][0].Message)
}

func TestRunCancelled(t *testing.T) {
	fake := &testutil.FakeLinter{Name: "fake"}
	e := newTestEngine(t, fake.Definition())
	checkers := flatten(t, config.Root{Checkers: []config.CheckerSpec{{
		Patterns: []string{"*"},
		Linters:  []config.LinterSpec{{Linter: "fake"}},
	}}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx, []string{"a", "b"}, checkers, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFingerprint(t *testing.T) {
	base := config.LinterConfig{
		Linter:  "json",
		Level:   lvl(core.LevelWarn),
		Options: map[string]any{"a": 1, "b": map[string]any{"c": []any{1, 2}}},
	}
	same := base.Clone()

	assert.Equal(t, fingerprint(0, nil, base), fingerprint(0, nil, same))
	assert.NotEqual(t, fingerprint(0, nil, base), fingerprint(1, nil, base))
	assert.NotEqual(t, fingerprint(0, nil, base), fingerprint(0, []int{0}, base))

	other := base.Clone()
	other.Options["a"] = 2
	assert.NotEqual(t, fingerprint(0, nil, base), fingerprint(0, nil, other))

	empty := config.LinterConfig{Linter: "json", Options: map[string]any{}}
	unset := config.LinterConfig{Linter: "json"}
	assert.Equal(t, fingerprint(0, nil, empty), fingerprint(0, nil, unset))
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	for _, f := range []string{"a.json", "b.yaml", "src/c.json", "node_modules/d.json", "README.md"} {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	}

	e := newTestEngine(t)
	checkers := flatten(t, config.Root{
		Patterns: []string{"!/node_modules/**"},
		Checkers: []config.CheckerSpec{
			{Patterns: []string{"*.json"}},
			{Patterns: []string{"*.yaml", "/src/**"}},
		},
	})

	files, err := e.Discover(context.Background(), checkers, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.yaml", "src/c.json"}, files)

	files, err = e.Discover(context.Background(), checkers, root, "src")
	require.NoError(t, err)
	assert.Equal(t, []string{"src/c.json"}, files)
}
