package command

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/metalint/internal/testutil"
	"github.com/leapstack-labs/metalint/pkg/core"
	"github.com/leapstack-labs/metalint/pkg/lint"
)

func newShellAdapter(t *testing.T, root string, fix bool, options map[string]any) lint.Adapter {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	a, err := New(lint.Context{Level: core.LevelInfo, Fix: fix, Root: root, Logger: testutil.NewTestLogger(t)}, options)
	require.NoError(t, err)
	return a
}

func TestLintParsesOutput(t *testing.T) {
	a := newShellAdapter(t, t.TempDir(), false, map[string]any{
		"command": []any{"sh", "-c", `echo "$1:2:3: warning: from tool"; echo "$1:4: info: fyi" >&2; exit 1`, "sh"},
	})

	got := a.Lint(context.Background(), "f.txt")
	assert.Equal(t, []lint.Notice{
		{File: "f.txt", Linter: Name, Severity: core.SeverityWarn, Message: "from tool", Locations: []lint.Location{{Line: 2, Column: 3}}},
		{File: "f.txt", Linter: Name, Severity: core.SeverityInfo, Message: "fyi", Locations: []lint.Location{{Line: 4}}},
	}, got)
}

func TestLintFiltersByLevel(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	a, err := New(lint.Context{Level: core.LevelError, Root: t.TempDir()}, map[string]any{
		"command": []any{"sh", "-c", `echo "$1:1: warning: minor"; echo "$1:2: error: major"`, "sh"},
	})
	require.NoError(t, err)

	got := a.Lint(context.Background(), "f.txt")
	require.Len(t, got, 1)
	assert.Equal(t, "major", got[0].Message)
}

func TestLintUnexpectedExitStatus(t *testing.T) {
	a := newShellAdapter(t, t.TempDir(), false, map[string]any{
		"command": []any{"sh", "-c", `echo "config not found" >&2; exit 2`},
	})

	got := a.Lint(context.Background(), "f.txt")
	require.Len(t, got, 1)
	assert.Equal(t, core.SeverityFatal, got[0].Severity)
	assert.Contains(t, got[0].Message, "status 2")
	assert.Contains(t, got[0].Message, "config not found")
}

func TestLintTimeout(t *testing.T) {
	a := newShellAdapter(t, t.TempDir(), false, map[string]any{
		"command": []any{"sh", "-c", "sleep 5"},
		"timeout": "50ms",
	})

	got := a.Lint(context.Background(), "f.txt")
	require.Len(t, got, 1)
	assert.Equal(t, core.SeverityFatal, got[0].Severity)
	assert.Contains(t, got[0].Message, "deadline exceeded")
}

func TestLintPlaceholderAndFixArgs(t *testing.T) {
	root := t.TempDir()
	a := newShellAdapter(t, root, true, map[string]any{
		"command":  []any{"sh", "-c", `echo "$@" > args.txt`, "sh", "--input={file}"},
		"fix_args": []any{"--fix"},
		"env":      map[string]any{"METALINT_TEST": "1"},
	})

	assert.Empty(t, a.Lint(context.Background(), "src/a.txt"))

	data, err := os.ReadFile(filepath.Join(root, "args.txt"))
	require.NoError(t, err)
	assert.Equal(t, "--input=src/a.txt --fix\n", string(data))
}

func TestNewErrors(t *testing.T) {
	_, err := New(lint.Context{}, nil)
	assert.ErrorContains(t, err, "command is required")

	_, err = New(lint.Context{}, map[string]any{"command": []any{"metalint-no-such-program"}})
	assert.ErrorContains(t, err, "metalint-no-such-program")

	_, err = New(lint.Context{}, map[string]any{"command": []any{"sh"}, "default_severity": "loud"})
	assert.ErrorContains(t, err, "default_severity")
}
