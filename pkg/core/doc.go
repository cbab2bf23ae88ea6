// Package core holds the small value types shared by every metalint package:
// the Severity of a notice and the Level threshold configured for a linter.
//
// Severities are ordered from most to least severe:
//
//	FATAL (1) < ERROR (2) < WARN (3) < INFO (4)
//
// A Level is a Severity or OFF (0). A notice is reported when its severity is
// numerically lower than or equal to the level:
//
//	core.LevelWarn.Allows(core.SeverityError) // true
//	core.LevelWarn.Allows(core.SeverityInfo)  // false
//	core.LevelOff.Allows(core.SeverityFatal)  // false
package core
