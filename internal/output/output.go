// Package output renders lint results. A Reporter is notified once per
// linted file, in sorted file order, and finalized once at the end of a run.
package output

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/leapstack-labs/metalint/pkg/core"
	"github.com/leapstack-labs/metalint/pkg/lint"
)

// ErrUnknownFormatter is returned for a formatter name nobody registered.
var ErrUnknownFormatter = errors.New("unknown formatter")

// Reporter receives the notices of a run.
type Reporter interface {
	// Notify is called once per file. notices is nil when no linter ran on
	// the file.
	Notify(file string, notices []lint.Notice) error
	// Finalize is called once after the last Notify.
	Finalize() error
}

// Options configures a formatter.
type Options struct {
	// Level drops notices less severe than it. The zero value is LevelOff,
	// so callers set it explicitly.
	Level core.Level
	// Color selects styled output for formatters that support it.
	Color ColorMode
}

type factory func(w io.Writer, opts Options) Reporter

var formatters = map[string]factory{
	"text":   newText,
	"json":   newJSON,
	"table":  newTable,
	"github": newGitHub,
}

// Names lists the formatters New accepts, sorted.
func Names() []string {
	return slices.Sorted(maps.Keys(formatters))
}

// New builds the formatter called name writing to w.
func New(name string, w io.Writer, opts Options) (Reporter, error) {
	f, ok := formatters[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (want one of %v)", ErrUnknownFormatter, name, Names())
	}
	return &leveled{Reporter: f(w, opts), level: opts.Level}, nil
}

// leveled filters notices before they reach the wrapped reporter.
type leveled struct {
	Reporter
	level core.Level
}

func (l *leveled) Notify(file string, notices []lint.Notice) error {
	if notices == nil {
		return l.Reporter.Notify(file, nil)
	}
	return l.Reporter.Notify(file, lint.Filter(l.level, notices))
}

// Multi fans a run out to several reporters.
type Multi []Reporter

// Notify forwards to every reporter.
func (m Multi) Notify(file string, notices []lint.Notice) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Notify(file, notices))
	}
	return errors.Join(errs...)
}

// Finalize finalizes every reporter.
func (m Multi) Finalize() error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Finalize())
	}
	return errors.Join(errs...)
}

// Report notifies r of every file in results, sorted by path, then
// finalizes it.
func Report(r Reporter, results map[string][]lint.Notice) error {
	for _, file := range slices.Sorted(maps.Keys(results)) {
		if err := r.Notify(file, results[file]); err != nil {
			return fmt.Errorf("reporting %s: %w", file, err)
		}
	}
	return r.Finalize()
}

// =============================================================================
// Summary
// =============================================================================

// Summary counts notices by severity.
type Summary struct {
	Fatal   int `json:"fatal"`
	Errors  int `json:"errors"`
	Warning int `json:"warnings"`
	Info    int `json:"infos"`
	// Files is the number of files with at least one notice.
	Files int `json:"files"`
}

// Add counts the notices of one file.
func (s *Summary) Add(notices []lint.Notice) {
	if len(notices) > 0 {
		s.Files++
	}
	for _, n := range notices {
		switch n.Severity {
		case core.SeverityFatal:
			s.Fatal++
		case core.SeverityWarn:
			s.Warning++
		case core.SeverityInfo:
			s.Info++
		default:
			s.Errors++
		}
	}
}

// Total is the number of notices counted.
func (s Summary) Total() int {
	return s.Fatal + s.Errors + s.Warning + s.Info
}

// Failed reports whether any FATAL or ERROR notice was counted.
func (s Summary) Failed() bool {
	return s.Fatal+s.Errors > 0
}

// Summarize counts every notice in results.
func Summarize(results map[string][]lint.Notice) Summary {
	var s Summary
	for _, notices := range results {
		s.Add(notices)
	}
	return s
}

func (s Summary) String() string {
	if s.Total() == 0 {
		return "No problems found."
	}
	return fmt.Sprintf("%s in %s (%d fatal, %s, %s, %s)",
		plural(s.Total(), "problem"), plural(s.Files, "file"),
		s.Fatal, plural(s.Errors, "error"), plural(s.Warning, "warning"), plural(s.Info, "info"))
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// position renders the first location of n as line:column, or "-".
func position(n lint.Notice) string {
	if len(n.Locations) == 0 {
		return "-"
	}
	l := n.Locations[0]
	if l.Column == 0 {
		return fmt.Sprintf("%d", l.Line)
	}
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// source renders the linter and rule of n as linter/rule.
func source(n lint.Notice) string {
	if n.Rule == "" {
		return n.Linter
	}
	return n.Linter + "/" + n.Rule
}
