// Package tomllint checks TOML files with github.com/pelletier/go-toml/v2.
//
//	import _ "github.com/leapstack-labs/metalint/pkg/adapters/tomllint"
package tomllint

import "github.com/leapstack-labs/metalint/pkg/lint"

func init() {
	lint.Register(lint.Definition{
		Name:        Name,
		Description: "TOML syntax check",
		New:         New,
	})
}
