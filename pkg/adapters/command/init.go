// Package command runs an external analyzer and turns its output into
// notices with a regular expression whose named groups pick out the file,
// line, column, severity, rule and message of each finding.
//
//	import _ "github.com/leapstack-labs/metalint/pkg/adapters/command"
package command

import "github.com/leapstack-labs/metalint/pkg/lint"

func init() {
	lint.Register(lint.Definition{
		Name:         Name,
		Description:  "runs an external tool and parses its output",
		Configurable: true,
		New:          New,
	})
}
