package yamllint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/metalint/pkg/adapter"
	"github.com/leapstack-labs/metalint/pkg/core"
	"github.com/leapstack-labs/metalint/pkg/lint"
)

// Name is the identity the adapter is registered under.
const Name = "yaml"

// Options configures the adapter.
type Options struct {
	// Indent is the number of spaces per level a formatted file uses.
	Indent int `mapstructure:"indent"`
	// Format reports files that differ from their formatted form.
	Format bool `mapstructure:"format"`
}

// Adapter checks YAML files.
type Adapter struct {
	adapter.Base
	opts Options
}

// New builds the adapter.
func New(lctx lint.Context, options map[string]any) (lint.Adapter, error) {
	opts := Options{Indent: 2}
	if err := lint.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	if opts.Indent < 2 || opts.Indent > 9 {
		return nil, fmt.Errorf("indent must be between 2 and 9, got %d", opts.Indent)
	}
	return &Adapter{Base: adapter.NewBase(Name, lctx), opts: opts}, nil
}

// Lint checks file.
func (a *Adapter) Lint(_ context.Context, file string) []lint.Notice {
	if a.Idle() {
		return nil
	}

	content, err := a.ReadFile(file)
	if err != nil {
		return a.Fatal(file, err)
	}
	problems, err := Check(content)
	if err != nil {
		return a.Fatal(file, err, adapter.Positions(err)...)
	}

	c := a.Collect(file)
	for _, p := range problems {
		c.Add(core.SeverityError, p.Rule, p.Message, p.Locations()...)
	}
	if len(problems) > 0 || !(a.Ctx.Fix || a.opts.Format) {
		return c.Notices()
	}

	formatted, err := Format(content, a.opts.Indent)
	if err != nil {
		return a.Fatal(file, err)
	}
	if bytes.Equal(formatted, content) {
		return c.Notices()
	}
	if a.Ctx.Fix {
		if _, err := a.WriteFix(file, content, formatted); err != nil {
			return a.Fatal(file, err)
		}
		return c.Notices()
	}
	c.Add(core.SeverityWarn, "format", fmt.Sprintf("not formatted with %d-space indentation", a.opts.Indent))
	return c.Notices()
}

var (
	syntaxLine = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)
	typeLine   = regexp.MustCompile(`^line (\d+): (.*)$`)
)

// Check parses every document of content. Duplicate keys and values that do
// not fit their tag are problems; anything else that stops parsing is an
// error.
func Check(content []byte) ([]adapter.Problem, error) {
	dec := yaml.NewDecoder(bytes.NewReader(content))

	var problems []adapter.Problem
	for {
		var v any
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			return problems, nil
		}

		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			for _, msg := range typeErr.Errors {
				problems = append(problems, problemOf(msg))
			}
			continue
		}
		if err != nil {
			return nil, positionError(err)
		}
	}
}

func problemOf(msg string) adapter.Problem {
	p := adapter.Problem{Rule: "type", Message: msg}
	if m := typeLine.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		p.Message = m[2]
		p.Location = lint.Location{Line: line}
	}
	if strings.Contains(p.Message, "already defined") {
		p.Rule = "duplicate-key"
	}
	return p
}

func positionError(err error) error {
	if m := syntaxLine.FindStringSubmatch(err.Error()); m != nil {
		line, _ := strconv.Atoi(m[1])
		return &adapter.PositionError{Err: errors.New(m[2]), Location: lint.Location{Line: line}}
	}
	return &adapter.PositionError{Err: errors.New(strings.TrimPrefix(err.Error(), "yaml: "))}
}

// Format re-encodes every document of content with indent spaces per level.
// Comments are kept; quoting and flow style follow the encoder. Content
// holding no document is returned unchanged.
func Format(content []byte, indent int) ([]byte, error) {
	dec := yaml.NewDecoder(bytes.NewReader(content))

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)

	documents := 0
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := enc.Encode(&node); err != nil {
			return nil, fmt.Errorf("encoding: %w", err)
		}
		documents++
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding: %w", err)
	}
	if documents == 0 {
		return content, nil
	}
	return buf.Bytes(), nil
}
