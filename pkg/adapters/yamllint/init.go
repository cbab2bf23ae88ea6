// Package yamllint checks YAML files with gopkg.in/yaml.v3: syntax errors,
// duplicate mapping keys and, optionally, formatting.
//
//	import _ "github.com/leapstack-labs/metalint/pkg/adapters/yamllint"
package yamllint

import "github.com/leapstack-labs/metalint/pkg/lint"

func init() {
	lint.Register(lint.Definition{
		Name:         Name,
		Description:  "YAML syntax and duplicate key check; fix reformats",
		Configurable: true,
		New:          New,
	})
}
