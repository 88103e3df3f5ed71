package routemock

import (
	"fmt"
	"regexp"
	"strings"
)

// Glob is a compiled URL glob using the browser automation layer's syntax:
//
//	**      any number of path segments, when it stands between '/' or the
//	        ends of the pattern; elsewhere it is the same as *
//	*       any characters except '/'
//	{a,b}   alternation
//	\x      the character x
//
// Every other character, '?' included, matches itself. A glob must match the
// whole URL.
type Glob struct {
	pattern string
	re      *regexp.Regexp
}

// CompileGlob parses a URL glob.
func CompileGlob(pattern string) (*Glob, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("routemock: empty URL pattern")
	}

	var b strings.Builder
	b.WriteString("^")
	inGroup := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '\\':
			if i+1 < len(pattern) {
				i++
				c = pattern[i]
			}
			b.WriteString(regexp.QuoteMeta(string(c)))
		case '*':
			start := i
			for i+1 < len(pattern) && pattern[i+1] == '*' {
				i++
			}
			deep := i > start &&
				(start == 0 || pattern[start-1] == '/') &&
				(i+1 == len(pattern) || pattern[i+1] == '/')
			if deep {
				// Swallows the following '/' so "**/x" also matches "x".
				b.WriteString("(?:[^/]*(?:/|$))*")
				i++
			} else {
				b.WriteString("[^/]*")
			}
		case '{':
			if inGroup {
				return nil, fmt.Errorf("routemock: nested '{' in pattern %q", pattern)
			}
			inGroup = true
			b.WriteString("(?:")
		case '}':
			if !inGroup {
				return nil, fmt.Errorf("routemock: unbalanced '}' in pattern %q", pattern)
			}
			inGroup = false
			b.WriteString(")")
		case ',':
			if inGroup {
				b.WriteString("|")
			} else {
				b.WriteString(",")
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	if inGroup {
		return nil, fmt.Errorf("routemock: unclosed '{' in pattern %q", pattern)
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("routemock: compile pattern %q: %w", pattern, err)
	}
	return &Glob{pattern: pattern, re: re}, nil
}

// MustCompileGlob is CompileGlob for patterns known at compile time.
func MustCompileGlob(pattern string) *Glob {
	g, err := CompileGlob(pattern)
	if err != nil {
		panic(err)
	}
	return g
}

// Match reports whether the full URL matches the glob.
func (g *Glob) Match(url string) bool {
	return g.re.MatchString(url)
}

// String returns the source pattern.
func (g *Glob) String() string {
	return g.pattern
}

// probeURL returns a concrete URL the glob matches, built by collapsing
// wildcards and taking the first alternative of each group. Globs starting
// with a "**" segment get an origin so the probe looks like a real request URL.
func (g *Glob) probeURL() string {
	var b strings.Builder
	p := g.pattern
	if p == "**" || strings.HasPrefix(p, "**/") {
		b.WriteString("http://probe.invalid")
		p = strings.TrimLeft(p, "*")
	}
	skipping := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c == '\\' && !skipping:
			if i+1 < len(p) {
				i++
				b.WriteByte(p[i])
			}
		case c == '*':
		case c == '{':
			skipping = false
		case c == '}':
			skipping = false
		case c == ',' && strings.LastIndex(p[:i], "{") > strings.LastIndex(p[:i], "}"):
			skipping = true
		case skipping:
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
