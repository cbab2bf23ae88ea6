// Package config loads the metalint command-line configuration.
//
// The raw document is layered with koanf (defaults, the YAML file, METALINT_
// environment variables, then flags) and decoded into the loosely typed
// Config. Normalize turns it into the typed model pkg/config consumes.
package config

import "github.com/leapstack-labs/metalint/pkg/core"

// Config is the configuration as written by the user. Levels may be names
// or numbers and linter entries may use any of the shorthand forms.
type Config struct {
	Patterns    []string        `koanf:"patterns"`
	Fix         *bool           `koanf:"fix"`
	Level       any             `koanf:"level"`
	Checkers    []CheckerConfig `koanf:"checkers"`
	Reporters   []any           `koanf:"reporters"`
	Formatter   string          `koanf:"formatter"`
	Color       string          `koanf:"color"`
	Concurrency int             `koanf:"concurrency"`
	Verbose     bool            `koanf:"verbose"`

	// Root is the directory files are resolved against: the directory of
	// the configuration file, or the working directory without one.
	Root string `koanf:"-"`
	// File is the configuration file that was read, empty if none.
	File string `koanf:"-"`
}

// CheckerConfig binds patterns to linters.
type CheckerConfig struct {
	Patterns  []string         `koanf:"patterns"`
	Fix       *bool            `koanf:"fix"`
	Level     any              `koanf:"level"`
	Linters   []any            `koanf:"linters"`
	Overrides []OverrideConfig `koanf:"overrides"`
}

// OverrideConfig refines a checker for a subset of its files.
type OverrideConfig struct {
	Patterns []string `koanf:"patterns"`
	Fix      *bool    `koanf:"fix"`
	Level    any      `koanf:"level"`
	Linters  []any    `koanf:"linters"`
}

// Reporter is a normalized reporters entry.
type Reporter struct {
	Formatter string
	Level     core.Level
	// Output is the file the report is written to. Empty means stdout.
	Output string
}

// Default configuration values.
const (
	DefaultFile      = ".metalint.yaml"
	DefaultFormatter = "text"
	DefaultColor     = "auto"
	EnvPrefix        = "METALINT_"
)

// DefaultPatterns keep version control metadata and dependency trees out of
// every checker unless the configuration sets its own global patterns.
var DefaultPatterns = []string{"!**/.git/**", "!**/node_modules/**"}
