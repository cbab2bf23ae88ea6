package core

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// Severity
// =============================================================================

// Severity classifies a single notice. Lower values are more severe.
type Severity int

// Severity levels for notices.
const (
	// SeverityFatal reports that the linter could not analyze the file at all.
	SeverityFatal Severity = iota + 1
	// SeverityError indicates a problem that should be fixed.
	SeverityError
	// SeverityWarn indicates a potential issue that should be reviewed.
	SeverityWarn
	// SeverityInfo indicates informational feedback.
	SeverityInfo
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityFatal:
		return "FATAL"
	case SeverityError:
		return "ERROR"
	case SeverityWarn:
		return "WARN"
	case SeverityInfo:
		return "INFO"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether s is one of the four defined severities.
func (s Severity) Valid() bool {
	return s >= SeverityFatal && s <= SeverityInfo
}

// MarshalText encodes the severity by name so JSON output stays readable.
func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name or number. OFF is rejected.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity is ParseLevel without OFF.
func ParseSeverity(s string) (Severity, error) {
	l, err := ParseLevel(s)
	if err != nil {
		return 0, err
	}
	if l == LevelOff {
		return 0, fmt.Errorf("severity cannot be %s", LevelOff)
	}
	return Severity(l), nil
}

// =============================================================================
// Level
// =============================================================================

// Level is a configured severity threshold. It extends Severity with OFF.
type Level int

// Threshold levels. Each one except LevelOff mirrors the Severity of the same name.
const (
	LevelOff   Level = 0
	LevelFatal       = Level(SeverityFatal)
	LevelError       = Level(SeverityError)
	LevelWarn        = Level(SeverityWarn)
	LevelInfo        = Level(SeverityInfo)
)

// String returns the string representation of the level.
func (l Level) String() string {
	if l == LevelOff {
		return "OFF"
	}
	return Severity(l).String()
}

// Valid reports whether l is OFF or one of the four severities.
func (l Level) Valid() bool {
	return l >= LevelOff && l <= LevelInfo
}

// Allows reports whether a notice of severity s passes the threshold.
func (l Level) Allows(s Severity) bool {
	return int(s) <= int(l)
}

// MarshalText encodes the level by name.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid level %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText decodes a level name or number.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel converts "OFF", "FATAL", "ERROR", "WARN", "INFO" (any case) or
// their numeric values 0-4 into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OFF":
		return LevelOff, nil
	case "FATAL":
		return LevelFatal, nil
	case "ERROR":
		return LevelError, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "INFO":
		return LevelInfo, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !Level(n).Valid() {
		return LevelOff, fmt.Errorf("unknown level %q (want OFF, FATAL, ERROR, WARN, INFO or 0-4)", s)
	}
	return Level(n), nil
}

// LevelOf converts a raw configuration value (string, int or float from a
// decoded YAML/JSON document) into a Level.
func LevelOf(v any) (Level, error) {
	switch val := v.(type) {
	case Level:
		if !val.Valid() {
			return LevelOff, fmt.Errorf("unknown level %d", int(val))
		}
		return val, nil
	case string:
		return ParseLevel(val)
	case int:
		return ParseLevel(strconv.Itoa(val))
	case int64:
		return ParseLevel(strconv.FormatInt(val, 10))
	case float64:
		if val != float64(int(val)) {
			return LevelOff, fmt.Errorf("unknown level %v", val)
		}
		return ParseLevel(strconv.Itoa(int(val)))
	default:
		return LevelOff, fmt.Errorf("level must be a string or a number, got %T", v)
	}
}
