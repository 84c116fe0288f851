// Package pattern evaluates filename-only heuristics that suggest a
// file is probably a log. Rules never look at content; the matcher is
// a heuristic layer, not a validator.
package pattern

import (
	"strings"

	"github.com/varlog/logsift/internal/errx"
	"github.com/varlog/logsift/pkg/api"
)

// rule is one compiled heuristic. Compilation validates shapes up
// front so a malformed rule can never fail during classification.
type rule struct {
	typ   api.RuleType
	value string // lowercased for exact/contains; shape spec for date-suffix
}

// Matcher holds a compiled rule set. Rules are unioned: any match
// yields "probable log".
type Matcher struct {
	exact    []rule
	contains []rule
	suffixes []rule
}

// NewMatcher compiles the built-in rule set.
func NewMatcher() *Matcher {
	m, err := NewMatcherWith(api.DefaultRules())
	if err != nil {
		// built-in rules are validated by tests
		panic(err)
	}
	return m
}

// NewMatcherWith compiles an explicit rule set. Invalid date-suffix
// shapes and unknown rule types are rejected here, at registration
// time, never at per-file classification time.
func NewMatcherWith(rules []api.PatternRule) (*Matcher, error) {
	m := &Matcher{}
	for _, r := range rules {
		if r.Value == "" {
			return nil, errx.With(ErrEmptyRule, ": type %s", r.Type)
		}
		switch r.Type {
		case api.RuleExactName:
			m.exact = append(m.exact, rule{typ: r.Type, value: strings.ToLower(r.Value)})
		case api.RuleContains:
			m.contains = append(m.contains, rule{typ: r.Type, value: strings.ToLower(r.Value)})
		case api.RuleDateSuffix:
			if err := validateShape(r.Value); err != nil {
				return nil, err
			}
			m.suffixes = append(m.suffixes, rule{typ: r.Type, value: r.Value})
		default:
			return nil, errx.With(api.ErrUnknownRuleType, ": %q", r.Type)
		}
	}
	return m, nil
}

// Match reports whether the filename matches any rule, and describes
// the first rule that hit. Matching is case-insensitive. Exact names
// are checked before substring scans; the boolean result does not
// depend on the order.
func (m *Matcher) Match(filename string) (string, bool) {
	name := strings.ToLower(filename)

	for _, r := range m.exact {
		if name == r.value {
			return "exact name " + r.value, true
		}
	}
	for _, r := range m.contains {
		if strings.Contains(name, r.value) {
			return "contains " + r.value, true
		}
	}

	if dot := strings.LastIndexByte(name, '.'); dot >= 0 && dot < len(name)-1 {
		suffix := name[dot+1:]
		for _, r := range m.suffixes {
			if matchShape(r.value, suffix) {
				return "date suffix " + r.value, true
			}
		}
	}

	return "", false
}

// validateShape accepts shapes built from the placeholders Y, M, D
// (one digit each), literal digits, and '-' separators. A shape with
// no placeholders is a prefix literal, e.g. "20" for decade-of-century
// suffixes like 2024-01-01 or 20250103.
func validateShape(shape string) error {
	if shape == "" {
		return errx.With(api.ErrInvalidPatternShape, ": empty shape")
	}
	for i := 0; i < len(shape); i++ {
		switch c := shape[i]; {
		case c == 'Y' || c == 'M' || c == 'D':
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return errx.With(api.ErrInvalidPatternShape, ": %q at position %d", shape, i)
		}
	}
	return nil
}

// matchShape tests a dot-separated suffix against a shape. Placeholder
// characters match any single digit; literals match byte-for-byte.
// This is structural matching only: 2024-13-99 still matches
// YYYY-MM-DD. Shapes without placeholders match as prefixes.
func matchShape(shape, suffix string) bool {
	literal := true
	for i := 0; i < len(shape); i++ {
		if c := shape[i]; c == 'Y' || c == 'M' || c == 'D' {
			literal = false
			break
		}
	}
	if literal {
		return strings.HasPrefix(suffix, shape)
	}

	if len(suffix) != len(shape) {
		return false
	}
	for i := 0; i < len(shape); i++ {
		switch c := shape[i]; c {
		case 'Y', 'M', 'D':
			if suffix[i] < '0' || suffix[i] > '9' {
				return false
			}
		default:
			if suffix[i] != c {
				return false
			}
		}
	}
	return true
}

// Len reports the number of compiled rules.
func (m *Matcher) Len() int {
	return len(m.exact) + len(m.contains) + len(m.suffixes)
}
