package command

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/leapstack-labs/metalint/pkg/core"
	"github.com/leapstack-labs/metalint/pkg/lint"
)

// DefaultPattern matches the "file:line[:column]: [severity:] message" lines
// most compilers and linters print.
const DefaultPattern = `^(?P<file>[^:\s][^:]*):(?P<line>\d+)(?::(?P<column>\d+))?:\s*(?:(?P<severity>[A-Za-z]+):\s+)?(?P<message>.+)$`

// Parser extracts findings from tool output line by line.
type Parser struct {
	re         *regexp.Regexp
	severities map[string]core.Severity
	fallback   core.Severity
}

// NewParser compiles pattern. It must have a "message" group; "file",
// "line", "column", "severity", "rule", "end_line" and "end_column" are
// optional. severities maps the tool's own labels, case-insensitively, to
// canonical severities; labels it does not list are parsed as severity
// names, and unknown ones get fallback.
func NewParser(pattern string, severities map[string]string, fallback core.Severity) (*Parser, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	if re.SubexpIndex("message") < 0 {
		return nil, fmt.Errorf("pattern has no (?P<message>...) group")
	}

	p := &Parser{re: re, severities: make(map[string]core.Severity, len(severities)), fallback: fallback}
	for label, name := range severities {
		s, err := core.ParseSeverity(name)
		if err != nil {
			return nil, fmt.Errorf("severity for %q: %w", label, err)
		}
		p.severities[strings.ToLower(label)] = s
	}
	return p, nil
}

// Parse returns a notice for every line of output the pattern matches.
// Notices without a file group, or whose file is the one linted, are keyed
// by file; other paths are made relative to root.
func (p *Parser) Parse(output []byte, file, root string) []lint.Notice {
	var notices []lint.Notice
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if n, ok := p.parseLine(line, file, root); ok {
			notices = append(notices, n)
		}
	}
	return notices
}

func (p *Parser) parseLine(line, file, root string) (lint.Notice, bool) {
	m := p.re.FindStringSubmatch(line)
	if m == nil {
		return lint.Notice{}, false
	}

	group := func(name string) string {
		if i := p.re.SubexpIndex(name); i >= 0 {
			return strings.TrimSpace(m[i])
		}
		return ""
	}
	number := func(name string) int {
		n, _ := strconv.Atoi(group(name))
		return n
	}

	n := lint.Notice{
		File:     p.resolveFile(group("file"), file, root),
		Rule:     group("rule"),
		Severity: p.severity(group("severity")),
		Message:  group("message"),
	}
	if l := number("line"); l > 0 {
		n.Locations = []lint.Location{{
			Line:      l,
			Column:    number("column"),
			EndLine:   number("end_line"),
			EndColumn: number("end_column"),
		}}
	}
	return n, n.Message != ""
}

func (p *Parser) severity(label string) core.Severity {
	if label == "" {
		return p.fallback
	}
	if s, ok := p.severities[strings.ToLower(label)]; ok {
		return s
	}
	if s, err := core.ParseSeverity(label); err == nil {
		return s
	}
	return p.fallback
}

func (p *Parser) resolveFile(reported, file, root string) string {
	if reported == "" {
		return file
	}
	clean := filepath.Clean(reported)
	if clean == filepath.Clean(file) {
		return file
	}
	if filepath.IsAbs(clean) && root != "" {
		if rel, err := filepath.Rel(root, clean); err == nil && !strings.HasPrefix(rel, "..") {
			clean = rel
		}
	}
	return filepath.ToSlash(clean)
}
