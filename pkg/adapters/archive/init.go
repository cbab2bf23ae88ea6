// Package archive checks the members of zip archives with the JSON, YAML and
// TOML checks of the other adapters. Notices name the member as
// "<archive>/<member>".
//
//	import _ "github.com/leapstack-labs/metalint/pkg/adapters/archive"
package archive

import "github.com/leapstack-labs/metalint/pkg/lint"

func init() {
	lint.Register(lint.Definition{
		Name:         Name,
		Description:  "checks JSON, YAML and TOML members of zip archives",
		Configurable: true,
		New:          New,
	})
}
