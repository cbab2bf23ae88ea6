// Package adapter provides shared plumbing for lint adapters: reading the
// file under analysis, writing fixes back, building notices at the
// configured level and turning byte offsets into positions.
package adapter

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/metalint/pkg/core"
	"github.com/leapstack-labs/metalint/pkg/lint"
)

// Base carries the construction context of an adapter. Embed it in concrete
// adapters.
type Base struct {
	Name   string
	Ctx    lint.Context
	Logger *slog.Logger
}

// NewBase builds a Base for the adapter registered as name.
func NewBase(name string, lctx lint.Context) Base {
	logger := lctx.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return Base{Name: name, Ctx: lctx, Logger: logger}
}

// Silent reports whether the level forbids every notice.
func (b Base) Silent() bool {
	return b.Ctx.Level == core.LevelOff
}

// Idle reports whether linting a file can have no observable effect.
func (b Base) Idle() bool {
	return b.Silent() && !b.Ctx.Fix
}

// ReadFile reads a file of the run.
func (b Base) ReadFile(file string) ([]byte, error) {
	data, err := os.ReadFile(b.Ctx.Path(file))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	return data, nil
}

// WriteFix replaces file with fixed when fixing is enabled and the content
// changed. It reports whether the file was written.
func (b Base) WriteFix(file string, original, fixed []byte) (bool, error) {
	if !b.Ctx.Fix || bytes.Equal(original, fixed) {
		return false, nil
	}
	path := b.Ctx.Path(file)
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, fixed, mode); err != nil {
		return false, fmt.Errorf("writing fix to %s: %w", file, err)
	}
	b.Logger.Debug("fixed file", "file", file)
	return true, nil
}

// Fatal returns the notice list reporting that file could not be analyzed.
func (b Base) Fatal(file string, err error, locations ...lint.Location) []lint.Notice {
	if !b.Ctx.Allows(core.SeverityFatal) {
		return nil
	}
	return []lint.Notice{lint.Fatal(file, b.Name, err, locations...)}
}

// Collector accumulates the notices an adapter reports for one file,
// dropping those the level does not allow.
type Collector struct {
	base    Base
	file    string
	notices []lint.Notice
}

// Collect starts collecting notices for file.
func (b Base) Collect(file string) *Collector {
	return &Collector{base: b, file: file}
}

// Add records a notice for the collected file.
func (c *Collector) Add(severity core.Severity, rule, message string, locations ...lint.Location) {
	c.AddFor(c.file, severity, rule, message, locations...)
}

// AddFor records a notice for another path, such as an archive member.
func (c *Collector) AddFor(file string, severity core.Severity, rule, message string, locations ...lint.Location) {
	if !c.base.Ctx.Allows(severity) {
		return
	}
	c.notices = append(c.notices, lint.Notice{
		File:      file,
		Linter:    c.base.Name,
		Rule:      rule,
		Severity:  severity,
		Message:   message,
		Locations: locations,
	})
}

// Notices returns everything recorded so far.
func (c *Collector) Notices() []lint.Notice {
	return c.notices
}

// LocationAt converts a byte offset into content to a 1-based line and
// column. Columns count bytes. Offsets past the end point after the last byte.
func LocationAt(content []byte, offset int64) lint.Location {
	offset = max(0, min(offset, int64(len(content))))
	prefix := content[:offset]
	line := bytes.Count(prefix, []byte("\n")) + 1
	column := len(prefix) - (bytes.LastIndexByte(prefix, '\n') + 1) + 1
	return lint.Location{Line: line, Column: column}
}
