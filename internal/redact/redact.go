// Package redact implements the Redaction Pipeline: masking of sensitive
// values in failure artifacts and, depending on Mode, in recorded media
// regions.
package redact

import (
	"regexp"
	"sort"
	"strings"
)

// Placeholder is the fixed replacement span for every redacted value.
// Redaction never partially masks a value and never varies the placeholder
// by value length, so a redacted string leaks no information about what it
// replaced.
const Placeholder = "[REDACTED]"

// Mode selects how aggressively the pipeline masks recorded media, in
// addition to the always-on failure-artifact redaction.
type Mode string

const (
	// ModeOff disables input-line masking. Failure artifacts are still
	// redacted unconditionally.
	ModeOff Mode = "off"
	// ModeInputLine masks the screen region corresponding to the most
	// recent Input/Command action for its visible lifetime.
	ModeInputLine Mode = "input_line"
	// ModeAuto enables ModeInputLine when the variable-name heuristic marks
	// the screenplay sensitive.
	ModeAuto Mode = "auto"
)

// defaultPatterns is the conservative token-like variable-name heuristic
// named in SPEC_FULL.md §4.3. internal/config may override this set.
var defaultPatterns = []string{`_API_KEY$`, `_TOKEN$`, `_SECRET$`}

// Set is a compiled, idempotent redactor built from a collection of literal
// sensitive values. Values are masked longest-first so a value that is a
// substring of another is never left partially exposed.
type Set struct {
	values []string
}

// NewSet builds a Set from literal sensitive values. Empty and
// already-placeholder values are dropped so redaction cannot mask itself
// into an infinite regress or mask nothing.
func NewSet(values ...string) *Set {
	s := &Set{}
	seen := make(map[string]bool)
	for _, v := range values {
		if v == "" || v == Placeholder || seen[v] {
			continue
		}
		seen[v] = true
		s.values = append(s.values, v)
	}
	sort.Slice(s.values, func(i, j int) bool { return len(s.values[i]) > len(s.values[j]) })
	return s
}

// Empty reports whether the set has nothing to redact.
func (s *Set) Empty() bool { return s == nil || len(s.values) == 0 }

// Redact replaces every occurrence of every value in text with Placeholder
// in one left-to-right pass. Redact is idempotent: Redact(Redact(x)) ==
// Redact(x), since Placeholder itself is excluded from the value set,
// existing Placeholder spans are passed over, and masking never re-scans its
// own output. The one exception is a value ending in a prefix of
// Placeholder (such as "x["), which can match across the start of an
// earlier Placeholder.
func (s *Set) Redact(text string) string {
	if s.Empty() {
		return text
	}
	pairs := make([]string, 0, 2*len(s.values)+2)
	pairs = append(pairs, Placeholder, Placeholder)
	for _, v := range s.values {
		pairs = append(pairs, v, Placeholder)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// FromVariables scans a variables map (as built by internal/model) for
// names matching patterns (token-like suffixes such as *_API_KEY) and
// returns a Set containing their values. An empty patterns list falls back
// to defaultPatterns.
func FromVariables(vars map[string]string, patterns []string) *Set {
	if len(patterns) == 0 {
		patterns = defaultPatterns
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			compiled = append(compiled, re)
		}
	}

	var values []string
	for name, v := range vars {
		upper := strings.ToUpper(name)
		for _, re := range compiled {
			if re.MatchString(upper) {
				values = append(values, v)
				break
			}
		}
	}
	return NewSet(values...)
}

// ShouldMaskInputLine reports whether the Input/Command region should be
// masked for the given mode and the auto-heuristic's own verdict (the run
// command passes true when FromVariables produced a non-empty set).
func ShouldMaskInputLine(mode Mode, heuristicSensitive bool) bool {
	switch mode {
	case ModeInputLine:
		return true
	case ModeAuto:
		return heuristicSensitive
	default:
		return false
	}
}
