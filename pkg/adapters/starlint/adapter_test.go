package starlint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/metalint/internal/testutil"
	"github.com/leapstack-labs/metalint/pkg/core"
	"github.com/leapstack-labs/metalint/pkg/lint"
)

const markerScript = `
def lint(path, content):
    found = []
    for i, line in enumerate(content.split("\n")):
        col = line.find(options["word"])
        if col >= 0:
            found.append(notice("%s marker" % options["word"], line = i + 1, column = col + 1, severity = "WARN", rule = "marker"))
    if len(content) > options.get("max_len", 1000):
        found.append({"message": "file too long", "severity": "info"})
    return found

def fix(path, content):
    return content.replace("\t", "    ")
`

func setup(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return root
}

func newAdapter(t *testing.T, root string, level core.Level, fix bool, options map[string]any) lint.Adapter {
	t.Helper()
	a, err := New(lint.Context{Level: level, Fix: fix, Root: root, Logger: testutil.NewTestLogger(t)}, options)
	require.NoError(t, err)
	return a
}

func TestLint(t *testing.T) {
	root := setup(t, map[string]string{
		"checks/marker.star": markerScript,
		"a.txt":              "ok\n  FIXME later\n",
	})
	a := newAdapter(t, root, core.LevelInfo, false, map[string]any{
		"script": "checks/marker.star",
		"args":   map[string]any{"word": "FIXME", "max_len": 5},
	})

	got := a.Lint(context.Background(), "a.txt")
	assert.Equal(t, []lint.Notice{
		{
			File: "a.txt", Linter: Name, Rule: "marker", Severity: core.SeverityWarn,
			Message: "FIXME marker", Locations: []lint.Location{{Line: 2, Column: 3}},
		},
		{File: "a.txt", Linter: Name, Severity: core.SeverityInfo, Message: "file too long"},
	}, got)
}

func TestLintFiltersByLevel(t *testing.T) {
	root := setup(t, map[string]string{
		"marker.star": markerScript,
		"a.txt":       "FIXME\n",
	})
	a := newAdapter(t, root, core.LevelError, false, map[string]any{
		"script": "marker.star",
		"args":   map[string]any{"word": "FIXME"},
	})
	assert.Empty(t, a.Lint(context.Background(), "a.txt"))
}

func TestLintFix(t *testing.T) {
	root := setup(t, map[string]string{
		"marker.star": markerScript,
		"a.txt":       "\tTODO\n",
	})
	a := newAdapter(t, root, core.LevelInfo, true, map[string]any{
		"script": "marker.star",
		"args":   map[string]any{"word": "TODO"},
	})

	got := a.Lint(context.Background(), "a.txt")
	require.Len(t, got, 1)
	assert.Equal(t, []lint.Location{{Line: 1, Column: 5}}, got[0].Locations, "lint sees the fixed content")

	data, err := os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "    TODO\n", string(data))
}

func TestLintMalformedFindings(t *testing.T) {
	root := setup(t, map[string]string{
		"bad.star": `
def lint(path, content):
    return ["plain message", {"line": 1}, {"message": "x", "severity": "loud"}, 42, notice("member", file = path + "/inner")]
`,
		"a.txt": "",
	})
	a := newAdapter(t, root, core.LevelInfo, false, map[string]any{"script": "bad.star"})

	got := a.Lint(context.Background(), "a.txt")
	require.Len(t, got, 5)
	assert.Equal(t, "plain message", got[0].Message)
	assert.Equal(t, core.SeverityError, got[0].Severity)
	for _, n := range got[1:4] {
		assert.Equal(t, core.SeverityFatal, n.Severity, n.Message)
	}
	assert.Equal(t, "a.txt/inner", got[4].File)
}

func TestLintScriptFailure(t *testing.T) {
	root := setup(t, map[string]string{
		"fail.star": "def lint(path, content):\n    fail(\"cannot check \" + path)\n",
		"none.star": "def lint(path, content):\n    pass\n",
		"a.txt":     "",
	})

	got := newAdapter(t, root, core.LevelInfo, false, map[string]any{"script": "fail.star"}).Lint(context.Background(), "a.txt")
	require.Len(t, got, 1)
	assert.Equal(t, core.SeverityFatal, got[0].Severity)
	assert.Contains(t, got[0].Message, "cannot check a.txt")

	got = newAdapter(t, root, core.LevelInfo, false, map[string]any{"script": "none.star"}).Lint(context.Background(), "a.txt")
	assert.Empty(t, got)
}

func TestNewErrors(t *testing.T) {
	root := setup(t, map[string]string{
		"nolint.star": "x = 1\n",
		"broken.star": "def lint(:\n",
	})
	lctx := lint.Context{Root: root}

	_, err := New(lctx, nil)
	assert.ErrorContains(t, err, "script is required")

	_, err = New(lctx, map[string]any{"script": "nolint.star"})
	assert.ErrorContains(t, err, "does not define lint")

	_, err = New(lctx, map[string]any{"script": "broken.star"})
	assert.ErrorContains(t, err, "broken.star")

	_, err = New(lctx, map[string]any{"script": "missing.star"})
	assert.Error(t, err)
}
