// Package jsonlint checks JSON files with encoding/json and, when fixing,
// rewrites them with consistent indentation.
//
// This file registers the adapter with the lint registry.
// Import this package with a blank identifier to register it:
//
//	import _ "github.com/leapstack-labs/metalint/pkg/adapters/jsonlint"
package jsonlint

import "github.com/leapstack-labs/metalint/pkg/lint"

func init() {
	lint.Register(lint.Definition{
		Name:         Name,
		Description:  "JSON syntax check; fix reindents",
		Configurable: true,
		New:          New,
	})
}
