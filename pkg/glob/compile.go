package glob

import (
	"errors"
	"regexp"
	"strings"
)

const (
	// anySegments matches zero or more whole path segments, each with its
	// trailing slash.
	anySegments = "(?:[^/]+/)*"
)

// compile translates a pattern, without its "!" prefix, into a regexp over
// normalized paths ("/src/app.js", "/docs/").
func compile(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, errors.New("empty pattern")
	}

	var sb strings.Builder
	sb.WriteString("^")
	if !strings.HasPrefix(pattern, "/") {
		sb.WriteString("/" + anySegments)
	}

	n := len(pattern)
	// segment is set when the next token starts a whole path segment.
	segment := true
	for i := 0; i < n; {
		rest := pattern[i:]
		starts := segment
		segment = false
		switch {
		case strings.HasPrefix(rest, "/**/"):
			sb.WriteString("/" + anySegments)
			i += 4
			segment = true

		case rest == "/**":
			sb.WriteString("/.*")
			i += 3

		case starts && strings.HasPrefix(rest, "**/"):
			sb.WriteString(anySegments)
			i += 3
			segment = true

		case starts && strings.HasPrefix(rest, "**") && (i == 0 || rest == "**"):
			sb.WriteString(".*")
			i += 2

		case strings.HasPrefix(rest, "**"):
			return nil, errors.New(`"**" must be the first token or a whole segment after "/"`)

		case rest[0] == '*':
			sb.WriteString("[^/]*")
			i++

		case rest[0] == '?':
			sb.WriteString("[^/]")
			i++

		case rest[0] == '[':
			end, err := compileClass(&sb, pattern, i)
			if err != nil {
				return nil, err
			}
			i = end + 1

		case rest[0] == '{':
			end, err := compileAlternation(&sb, pattern, i)
			if err != nil {
				return nil, err
			}
			i = end + 1

		default:
			sb.WriteString(regexp.QuoteMeta(rest[:1]))
			i++
		}
	}
	sb.WriteString("$")

	return regexp.Compile(sb.String())
}

// compileClass writes the character class opening at pattern[start] and
// returns the index of its closing bracket.
func compileClass(sb *strings.Builder, pattern string, start int) (int, error) {
	i := start + 1
	negated := false
	if i < len(pattern) && (pattern[i] == '!' || pattern[i] == '^') {
		negated = true
		i++
	}
	bodyStart := i
	// A "]" right after the opening bracket is a literal member.
	if i < len(pattern) && pattern[i] == ']' {
		i++
	}
	for i < len(pattern) && pattern[i] != ']' {
		i++
	}
	if i >= len(pattern) {
		return 0, errors.New("unterminated character class")
	}

	sb.WriteByte('[')
	if negated {
		sb.WriteString("^/")
	}
	for _, c := range []byte(pattern[bodyStart:i]) {
		switch c {
		case '\\', '[', ']', '^':
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	sb.WriteByte(']')
	return i, nil
}

// compileAlternation writes the "{a,b,c}" group opening at pattern[start]
// and returns the index of its closing brace.
func compileAlternation(sb *strings.Builder, pattern string, start int) (int, error) {
	end := strings.IndexByte(pattern[start:], '}')
	if end < 0 {
		return 0, errors.New("unterminated alternation")
	}
	end += start

	alternatives := strings.Split(pattern[start+1:end], ",")
	for i, alt := range alternatives {
		alternatives[i] = regexp.QuoteMeta(alt)
	}
	sb.WriteString("(?:" + strings.Join(alternatives, "|") + ")")
	return end, nil
}
