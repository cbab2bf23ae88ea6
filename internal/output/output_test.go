package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/metalint/pkg/core"
	"github.com/leapstack-labs/metalint/pkg/lint"
)

func sampleResults() map[string][]lint.Notice {
	return map[string][]lint.Notice{
		"b.yaml": {
			{File: "b.yaml", Linter: "yaml", Rule: "duplicate-key", Severity: core.SeverityError, Message: "key \"a\" already defined", Locations: []lint.Location{{Line: 4}}},
		},
		"a.json": {
			{File: "a.json", Linter: "json", Rule: "syntax", Severity: core.SeverityFatal, Message: "unexpected end of JSON input", Locations: []lint.Location{{Line: 3, Column: 1}}},
			{File: "a.json", Linter: "json", Rule: "format", Severity: core.SeverityWarn, Message: "not formatted", Locations: []lint.Location{}},
		},
		"c.toml":  {},
		"skip.md": nil,
	}
}

func render(t *testing.T, name string, opts Options) string {
	t.Helper()
	var buf bytes.Buffer
	r, err := New(name, &buf, opts)
	require.NoError(t, err)
	require.NoError(t, Report(r, sampleResults()))
	return buf.String()
}

func TestNewUnknown(t *testing.T) {
	_, err := New("xml", &bytes.Buffer{}, Options{})
	assert.ErrorIs(t, err, ErrUnknownFormatter)
	assert.Equal(t, []string{"github", "json", "table", "text"}, Names())
}

func TestSummary(t *testing.T) {
	s := Summarize(sampleResults())
	assert.Equal(t, Summary{Fatal: 1, Errors: 1, Warning: 1, Files: 2}, s)
	assert.Equal(t, 3, s.Total())
	assert.True(t, s.Failed())
	assert.Equal(t, "3 problems in 2 files (1 fatal, 1 error, 1 warning, 0 infos)", s.String())

	assert.False(t, Summary{Warning: 2}.Failed())
	assert.Equal(t, "No problems found.", Summary{}.String())
}

func TestText(t *testing.T) {
	out := render(t, "text", Options{Level: core.LevelInfo, Color: ColorNever})

	assert.NotContains(t, out, "\x1b[")
	assert.NotContains(t, out, "c.toml", "files without notices are not listed")
	assert.Less(t, strings.Index(out, "a.json"), strings.Index(out, "b.yaml"))
	assert.Contains(t, out, "3:1")
	assert.Contains(t, out, "FATAL")
	assert.Contains(t, out, "unexpected end of JSON input")
	assert.Contains(t, out, "json/syntax")
	assert.Contains(t, out, "yaml/duplicate-key")
	assert.True(t, strings.HasSuffix(out, "3 problems in 2 files (1 fatal, 1 error, 1 warning, 0 infos)\n"))
}

func TestTextColor(t *testing.T) {
	out := render(t, "text", Options{Level: core.LevelInfo, Color: ColorAlways})
	assert.Contains(t, out, "\x1b[")
}

func TestLevelFiltersPerReporter(t *testing.T) {
	out := render(t, "text", Options{Level: core.LevelError, Color: ColorNever})
	assert.NotContains(t, out, "not formatted")
	assert.Contains(t, out, "2 problems in 2 files")
}

func TestJSON(t *testing.T) {
	out := render(t, "json", Options{Level: core.LevelInfo})

	var got struct {
		Files []struct {
			File    string `json:"file"`
			Notices []struct {
				Severity  string          `json:"severity"`
				Message   string          `json:"message"`
				Locations []lint.Location `json:"locations"`
			} `json:"notices"`
		} `json:"files"`
		Summary Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	require.Len(t, got.Files, 3, "unmatched files are left out")
	assert.Equal(t, "a.json", got.Files[0].File)
	assert.Equal(t, "FATAL", got.Files[0].Notices[0].Severity)
	assert.Equal(t, []lint.Location{{Line: 3, Column: 1}}, got.Files[0].Notices[0].Locations)
	assert.Equal(t, "c.toml", got.Files[2].File)
	assert.NotNil(t, got.Files[2].Notices)
	assert.Equal(t, 3, got.Summary.Fatal+got.Summary.Errors+got.Summary.Warning)
}

func TestTable(t *testing.T) {
	out := render(t, "table", Options{Level: core.LevelInfo})
	for _, want := range []string{"FILE", "a.json", "3:1", "WARN", "yaml/duplicate-key", "3 problems"} {
		assert.Contains(t, out, want)
	}

	var buf bytes.Buffer
	r, err := New("table", &buf, Options{Level: core.LevelInfo})
	require.NoError(t, err)
	require.NoError(t, Report(r, map[string][]lint.Notice{"a": {}}))
	assert.Equal(t, "No problems found.\n", buf.String())
}

func TestGitHub(t *testing.T) {
	out := render(t, "github", Options{Level: core.LevelInfo})
	assert.Equal(t, strings.Join([]string{
		"::error file=a.json,line=3,col=1,title=json/syntax::unexpected end of JSON input",
		"::warning file=a.json,title=json/format::not formatted",
		"::error file=b.yaml,line=4,title=yaml/duplicate-key::key \"a\" already defined",
		"",
	}, "\n"), out)
}

func TestGitHubEscaping(t *testing.T) {
	var buf bytes.Buffer
	r, err := New("github", &buf, Options{Level: core.LevelInfo})
	require.NoError(t, err)
	require.NoError(t, r.Notify("x", []lint.Notice{{
		File: "a,b:c.zip/m.json", Linter: "archive", Severity: core.SeverityInfo,
		Message: "100% done\nnext", Locations: []lint.Location{{Line: 1, Column: 2, EndLine: 1, EndColumn: 5}},
	}}))
	assert.Equal(t, "::notice file=a%2Cb%3Ac.zip/m.json,line=1,col=2,endLine=1,endColumn=5,title=archive::100%25 done%0Anext\n", buf.String())
}

type recorder struct {
	files     []string
	finalized bool
	err       error
}

func (r *recorder) Notify(file string, _ []lint.Notice) error {
	r.files = append(r.files, file)
	return r.err
}

func (r *recorder) Finalize() error {
	r.finalized = true
	return nil
}

func TestMultiAndReport(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	require.NoError(t, Report(Multi{a, b}, sampleResults()))

	want := []string{"a.json", "b.yaml", "c.toml", "skip.md"}
	assert.Equal(t, want, a.files)
	assert.Equal(t, want, b.files)
	assert.True(t, a.finalized)
	assert.True(t, b.finalized)

	failing := &recorder{err: errors.New("disk full")}
	err := Report(Multi{a, failing}, sampleResults())
	assert.ErrorContains(t, err, "disk full")
	assert.False(t, failing.finalized)
}

func TestParseColorMode(t *testing.T) {
	for in, want := range map[string]ColorMode{"": ColorAuto, "AUTO": ColorAuto, "always": ColorAlways, " never ": ColorNever} {
		got, err := ParseColorMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseColorMode("sometimes")
	assert.Error(t, err)
}
