// Package evaluator implements the shared wait/assert predicate engine: the
// Condition combinators, the two snapshot surfaces (screen, stream tail),
// and the bounded-cadence sampling loop every lane runtime polls through.
package evaluator

import (
	"regexp"
	"strings"
)

// Condition reports whether a snapshot of terminal content satisfies some
// criteria. It never performs I/O and never blocks — Await/Expect own the
// polling loop around it.
type Condition func(snapshot string) bool

// All builds a Condition requiring every given Condition to hold.
func All(conds ...Condition) Condition {
	return func(s string) bool {
		for _, c := range conds {
			if !c(s) {
				return false
			}
		}
		return true
	}
}

// Any builds a Condition requiring at least one given Condition to hold.
func Any(conds ...Condition) Condition {
	return func(s string) bool {
		for _, c := range conds {
			if c(s) {
				return true
			}
		}
		return false
	}
}

// Not negates a Condition.
func Not(cond Condition) Condition {
	return func(s string) bool { return !cond(s) }
}

// Contains builds a Condition matching substr against the snapshot, trying
// the raw text first and falling back to ANSI-normalized and
// whitespace-collapsed comparisons so a target string written across
// multiple escape-laden writes still matches.
func Contains(substr string) Condition {
	return func(s string) bool {
		if strings.Contains(s, substr) {
			return true
		}
		norm := NormalizeANSI(s)
		if strings.Contains(norm, substr) {
			return true
		}
		return strings.Contains(collapseWhitespace(norm), collapseWhitespace(substr))
	}
}

// ContainsRaw builds a Condition matching substr against the unmodified
// snapshot, useful for matching literal escape sequences.
func ContainsRaw(substr string) Condition {
	return func(s string) bool { return strings.Contains(s, substr) }
}

// Matches builds a Condition requiring re to match the ANSI-normalized
// snapshot. Matching is always multiline, per SPEC_FULL.md §4.2: re is
// recompiled with the (?m) flag so ^ and $ anchor at line boundaries.
func Matches(re *regexp.Regexp) Condition {
	ml := regexp.MustCompile("(?m)" + re.String())
	return func(s string) bool { return ml.MatchString(NormalizeANSI(s)) }
}

// LastLineEquals builds a Condition requiring the snapshot's final
// non-empty line (as produced by screen.Model.LastNonEmptyLine) to equal
// text exactly, the wait_mode=line surface.
func LastLineEquals(text string) Condition {
	return func(s string) bool { return s == text }
}

func collapseWhitespace(s string) string {
	if !strings.ContainsAny(s, "\t\n\r ") && !strings.Contains(s, "  ") {
		return s
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.Join(fields, " ")
}

// NormalizeANSI strips carriage returns and escape sequences from s using a
// byte-level state machine, mirroring the screen model's own escape
// handling so stream-tail matching and screen matching treat control
// sequences the same way.
func NormalizeANSI(s string) string {
	if !strings.ContainsAny(s, "\x1b\r") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\r' {
			continue
		}
		if c != 0x1b {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			break
		}
		switch s[i+1] {
		case '[':
			i += 2
			for i < len(s) {
				ch := s[i]
				if ch >= 0x40 && ch <= 0x7e {
					break
				}
				i++
			}
		case ']':
			i += 2
			for i < len(s) {
				if s[i] == 0x07 {
					break
				}
				if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '\\' {
					i++
					break
				}
				i++
			}
		case '(', ')', '*', '+':
			i += 2
		default:
			i++
		}
	}

	return b.String()
}
