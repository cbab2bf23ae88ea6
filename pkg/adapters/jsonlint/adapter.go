package jsonlint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/metalint/pkg/adapter"
	"github.com/leapstack-labs/metalint/pkg/core"
	"github.com/leapstack-labs/metalint/pkg/lint"
)

// Name is the identity the adapter is registered under.
const Name = "json"

// Options configures the adapter.
type Options struct {
	// Indent is the number of spaces per level a formatted file uses.
	Indent int `mapstructure:"indent"`
	// Format reports files that differ from their formatted form.
	Format bool `mapstructure:"format"`
}

// Adapter checks JSON files.
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
	if opts.Indent < 0 || opts.Indent > 16 {
		return nil, fmt.Errorf("indent must be between 0 and 16, got %d", opts.Indent)
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
	if _, err := Check(content); err != nil {
		return a.Fatal(file, err, adapter.Positions(err)...)
	}

	formatted := Format(content, a.opts.Indent)
	if bytes.Equal(formatted, content) {
		return nil
	}
	if a.Ctx.Fix {
		if _, err := a.WriteFix(file, content, formatted); err != nil {
			return a.Fatal(file, err)
		}
		return nil
	}

	c := a.Collect(file)
	if a.opts.Format {
		c.Add(core.SeverityWarn, "format", fmt.Sprintf("not formatted with %d-space indentation", a.opts.Indent))
	}
	return c.Notices()
}

// Check parses content as a single JSON document.
func Check(content []byte) ([]adapter.Problem, error) {
	dec := json.NewDecoder(bytes.NewReader(content))

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, positionError(content, err)
	}

	end := dec.InputOffset()
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, &adapter.PositionError{
			Err:      errors.New("unexpected data after top-level value"),
			Location: adapter.LocationAt(content, skipSpace(content, end)),
		}
	}
	return nil, nil
}

func positionError(content []byte, err error) error {
	var syntaxErr *json.SyntaxError
	switch {
	case errors.Is(err, io.EOF):
		return &adapter.PositionError{Err: errors.New("empty document")}
	case errors.Is(err, io.ErrUnexpectedEOF):
		return &adapter.PositionError{
			Err:      errors.New("unexpected end of JSON input"),
			Location: adapter.LocationAt(content, int64(len(content))),
		}
	case errors.As(err, &syntaxErr):
		// Offset counts the offending byte.
		return &adapter.PositionError{Err: err, Location: adapter.LocationAt(content, syntaxErr.Offset-1)}
	default:
		return &adapter.PositionError{Err: err}
	}
}

func skipSpace(content []byte, offset int64) int64 {
	for offset < int64(len(content)) && strings.ContainsRune(" \t\r\n", rune(content[offset])) {
		offset++
	}
	return offset
}

// Format reindents valid JSON with indent spaces per level and a trailing
// newline. Key order and values are kept as written.
func Format(content []byte, indent int) []byte {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(content), "", strings.Repeat(" ", indent)); err != nil {
		return content
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}
