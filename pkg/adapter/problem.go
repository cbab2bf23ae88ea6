package adapter

import (
	"errors"

	"github.com/leapstack-labs/metalint/pkg/lint"
)

// Problem is a finding a format check reports about content it could parse.
type Problem struct {
	Rule     string
	Message  string
	Location lint.Location
}

// Locations returns the location as a list, empty when unknown.
func (p Problem) Locations() []lint.Location {
	return locations(p.Location)
}

// PositionError is a failure to parse content, positioned when the parser
// says where.
type PositionError struct {
	Err      error
	Location lint.Location
}

func (e *PositionError) Error() string {
	return e.Err.Error()
}

func (e *PositionError) Unwrap() error {
	return e.Err
}

// Locations returns the location as a list, empty when unknown.
func (e *PositionError) Locations() []lint.Location {
	return locations(e.Location)
}

func locations(l lint.Location) []lint.Location {
	if l.Line == 0 {
		return nil
	}
	return []lint.Location{l}
}

// CheckFunc parses content of one format. A returned error means content
// could not be parsed at all; it is a *PositionError when the position is
// known.
type CheckFunc func(content []byte) ([]Problem, error)

// Positions returns the location of err when it is a *PositionError.
func Positions(err error) []lint.Location {
	var pe *PositionError
	if errors.As(err, &pe) {
		return pe.Locations()
	}
	return nil
}
