package builder

import (
	"bufio"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Rule is one compiled ignore pattern.
type Rule struct {
	Raw     string
	Pattern string

	Negate   bool
	DirOnly  bool
	Anchored bool
	// Literal is set when Pattern is not a valid glob and is compared verbatim.
	Literal bool
	Builtin bool
}

// ParseRule compiles a single pattern line. It reports false for blank lines and comments.
func ParseRule(line string) (Rule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Rule{}, false
	}

	r := Rule{Raw: line}
	p := line
	switch {
	case strings.HasPrefix(p, "!"):
		r.Negate = true
		p = p[1:]
	case strings.HasPrefix(p, `\!`), strings.HasPrefix(p, `\#`):
		p = p[1:]
	}

	if strings.HasSuffix(p, "/") {
		r.DirOnly = true
		p = strings.TrimRight(p, "/")
	}
	if strings.HasPrefix(p, "/") {
		r.Anchored = true
		p = strings.TrimLeft(p, "/")
	} else if strings.Contains(p, "/") {
		r.Anchored = true
	}
	if p == "" {
		return Rule{}, false
	}

	r.Pattern = p
	r.Literal = !doublestar.ValidatePattern(p)
	return r, true
}

// Match reports whether the rule selects rel. Negation is not applied here.
func (r Rule) Match(rel string, isDir bool) bool {
	if r.DirOnly && !isDir {
		return false
	}
	target := rel
	if !r.Anchored {
		target = path.Base(rel)
	}
	if r.Literal {
		return target == r.Pattern
	}
	ok, err := doublestar.Match(r.Pattern, target)
	return err == nil && ok
}

// RuleSet evaluates compiled rules in declaration order, last match wins.
// Builtin rules are evaluated first and cannot be undone by project negations.
type RuleSet struct {
	builtin []Rule
	rules   []Rule
}

// Compile builds a rule set from project pattern lines.
func Compile(lines []string) *RuleSet {
	return CompileLayered(nil, lines)
}

// CompileLayered builds a rule set where builtin patterns are protected.
func CompileLayered(builtin, user []string) *RuleSet {
	s := &RuleSet{}
	for _, line := range builtin {
		if r, ok := ParseRule(line); ok {
			r.Builtin = true
			s.builtin = append(s.builtin, r)
		}
	}
	for _, line := range user {
		if r, ok := ParseRule(line); ok {
			s.rules = append(s.rules, r)
		}
	}
	return s
}

// Rules returns every compiled rule, builtin rules first.
func (s *RuleSet) Rules() []Rule {
	out := make([]Rule, 0, len(s.builtin)+len(s.rules))
	out = append(out, s.builtin...)
	return append(out, s.rules...)
}

// IsIgnored reports whether relPath is excluded. A path below an ignored
// directory is always ignored.
func (s *RuleSet) IsIgnored(relPath string, isDir bool) bool {
	rel := normalizeRel(relPath)
	if rel == "" {
		return false
	}
	parts := strings.Split(rel, "/")
	for i := 1; i < len(parts); i++ {
		if s.excludes(strings.Join(parts[:i], "/"), true) {
			return true
		}
	}
	return s.excludes(rel, isDir)
}

// excludes evaluates rel alone, assuming its parents are not ignored.
func (s *RuleSet) excludes(rel string, isDir bool) bool {
	if s == nil {
		return false
	}
	if lastMatch(s.builtin, rel, isDir) {
		return true
	}
	return lastMatch(s.rules, rel, isDir)
}

func lastMatch(rules []Rule, rel string, isDir bool) bool {
	ignored := false
	for _, r := range rules {
		if r.Match(rel, isDir) {
			ignored = !r.Negate
		}
	}
	return ignored
}

func normalizeRel(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	p = strings.Trim(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// ReadPatterns returns the non-blank, non-comment lines of an ignore file.
func ReadPatterns(r io.Reader) ([]string, error) {
	var patterns []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, scanner.Err()
}
