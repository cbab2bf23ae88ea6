// Package lint defines the contract between the metalint engine and the
// adapters that run third-party analyzers, plus the result set the engine
// fills in.
//
// # Adapters
//
// An adapter is registered under a stable identity, usually from an init()
// function in its package:
//
//	func init() {
//		lint.Register(lint.Definition{
//			Name:         "json",
//			Description:  "Checks JSON syntax",
//			Configurable: true,
//			New:          New,
//		})
//	}
//
// Configuration refers to adapters by that identity, never by Go type, so
// linter entries can be merged by name. The engine constructs one instance
// per resolved configuration and calls Lint for every file landing on it.
//
// Lint never fails. When the adapter cannot read or parse a file it returns
// a SeverityFatal notice built with Fatal. Adapters should drop notices their
// Context.Level does not allow, and skip work entirely when the level is
// core.LevelOff.
//
// # Results
//
// Results keeps one slot per file. Map reports nil for files no linter looked
// at and a possibly empty slice for the others, sorted by location.
package lint
