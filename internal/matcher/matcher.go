// Package matcher matches browser origins against configured patterns.
// A pattern is an exact origin, a glob such as "https://*.example.org",
// a regular expression wrapped in ^...$, or "*" for any origin.
package matcher

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternType represents the type of pattern matching to use.
type PatternType int

const (
	// Exact compares the normalized origin for equality.
	Exact PatternType = iota
	// Glob lets * stand for any run of characters other than "/".
	Glob
	// Regex uses an anchored regular expression.
	Regex
	// Auto detects the type from the pattern text.
	Auto
)

// String returns a string representation of the PatternType.
func (pt PatternType) String() string {
	switch pt {
	case Exact:
		return "exact"
	case Glob:
		return "glob"
	case Regex:
		return "regex"
	case Auto:
		return "auto"
	default:
		return "unknown"
	}
}

// Matcher matches one origin pattern.
type Matcher interface {
	// Match reports whether origin matches the pattern.
	Match(origin string) bool
	// Pattern returns the original pattern string.
	Pattern() string
	// Type returns the pattern type being used.
	Type() PatternType
}

type matcher struct {
	pattern     string
	patternType PatternType
	exact       string
	compiled    *regexp.Regexp
}

// New creates a Matcher for pattern. Auto picks Regex for ^...$ patterns,
// Glob when the pattern contains *, and Exact otherwise.
func New(patternType PatternType, pattern string) (Matcher, error) {
	m := &matcher{pattern: pattern, patternType: patternType}
	if patternType == Auto {
		m.patternType = detectPatternType(pattern)
	}

	switch m.patternType {
	case Exact:
		m.exact = Normalize(pattern)
	case Glob:
		m.compiled = regexp.MustCompile(globToRegex(Normalize(pattern)))
	case Regex:
		compiled, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid origin pattern %q: %w", pattern, err)
		}
		m.compiled = compiled
	default:
		return nil, fmt.Errorf("unsupported pattern type: %v", m.patternType)
	}
	return m, nil
}

// Match reports whether origin matches the pattern.
func (m *matcher) Match(origin string) bool {
	if m.patternType == Exact {
		return Normalize(origin) == m.exact
	}
	return m.compiled.MatchString(Normalize(origin))
}

// Pattern returns the original pattern string.
func (m *matcher) Pattern() string {
	return m.pattern
}

// Type returns the pattern type being used.
func (m *matcher) Type() PatternType {
	return m.patternType
}

// Normalize lower-cases an origin and drops a trailing slash. Scheme and
// host are case-insensitive in origins.
func Normalize(origin string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(origin)), "/")
}

func detectPatternType(pattern string) PatternType {
	switch {
	case strings.HasPrefix(pattern, "^") && strings.HasSuffix(pattern, "$"):
		return Regex
	case strings.Contains(pattern, "*"):
		return Glob
	default:
		return Exact
	}
}

// globToRegex converts a glob with * wildcards into an anchored regular
// expression. * does not cross a "/" so a wildcard cannot swallow the scheme
// separator or a path.
func globToRegex(glob string) string {
	var b strings.Builder
	b.WriteString("^")
	for i, part := range strings.Split(glob, "*") {
		if i > 0 {
			b.WriteString("[^/]+")
		}
		b.WriteString(regexp.QuoteMeta(part))
	}
	b.WriteString("$")
	return b.String()
}

// Set matches an origin against several patterns. An empty Set, or one
// containing "*", allows every origin.
type Set struct {
	matchers []Matcher
	any      bool
}

// NewSet compiles patterns with Auto detection.
func NewSet(patterns []string) (*Set, error) {
	s := &Set{any: len(patterns) == 0}
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if pattern == "*" {
			s.any = true
			continue
		}
		m, err := New(Auto, pattern)
		if err != nil {
			return nil, err
		}
		s.matchers = append(s.matchers, m)
	}
	return s, nil
}

// AllowsAll reports whether every origin is allowed.
func (s *Set) AllowsAll() bool {
	return s.any
}

// Match reports whether origin matches any pattern in the set.
func (s *Set) Match(origin string) bool {
	if s.any {
		return true
	}
	for _, m := range s.matchers {
		if m.Match(origin) {
			return true
		}
	}
	return false
}
