package tomllint

import (
	"context"
	"errors"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/leapstack-labs/metalint/pkg/adapter"
	"github.com/leapstack-labs/metalint/pkg/lint"
)

// Name is the identity the adapter is registered under.
const Name = "toml"

// Adapter checks TOML files.
type Adapter struct {
	adapter.Base
}

// New builds the adapter. It takes no options.
func New(lctx lint.Context, _ map[string]any) (lint.Adapter, error) {
	return &Adapter{Base: adapter.NewBase(Name, lctx)}, nil
}

// Lint checks file.
func (a *Adapter) Lint(_ context.Context, file string) []lint.Notice {
	if a.Silent() {
		return nil
	}
	content, err := a.ReadFile(file)
	if err != nil {
		return a.Fatal(file, err)
	}
	if _, err := Check(content); err != nil {
		return a.Fatal(file, err, adapter.Positions(err)...)
	}
	return nil
}

// Check decodes content as a TOML document. Redefined keys and tables are
// errors like any other syntax error.
func Check(content []byte) ([]adapter.Problem, error) {
	var doc map[string]any
	err := toml.Unmarshal(content, &doc)
	if err == nil {
		return nil, nil
	}

	message := errors.New(strings.TrimPrefix(err.Error(), "toml: "))
	var decodeErr *toml.DecodeError
	if errors.As(err, &decodeErr) {
		row, column := decodeErr.Position()
		return nil, &adapter.PositionError{Err: message, Location: lint.Location{Line: row, Column: column}}
	}
	return nil, &adapter.PositionError{Err: message}
}
