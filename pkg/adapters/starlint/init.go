// Package starlint runs lint checks written in Starlark.
//
// A script defines lint(path, content) returning a list of findings, each
// built with notice(message, line=, column=, severity=, rule=, file=) or given
// as a dict with the same keys, or as a plain message string. When fixing is
// enabled and the script defines fix(path, content), its string result
// replaces the file before lint runs. Scripts see the adapter's args as the
// global options, plus root, level and fix.
//
//	import _ "github.com/leapstack-labs/metalint/pkg/adapters/starlint"
package starlint

import "github.com/leapstack-labs/metalint/pkg/lint"

func init() {
	lint.Register(lint.Definition{
		Name:         Name,
		Description:  "runs checks written as Starlark scripts",
		Configurable: true,
		New:          New,
	})
}
