package model

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// durationPattern enforces the grammar required by SPEC_FULL.md §8:
// ^\d+(ms|s)$ — exactly one integer magnitude and one unit, nothing else.
var durationPattern = regexp.MustCompile(`^(\d+)(ms|s)$`)

// ParseDuration parses a "<N>ms" or "<N>s" literal into a monotonic
// nanosecond duration. It never returns a negative value: the grammar has
// no sign, so a negative Duration can only arise from misuse of the Go
// value directly, never from parsing.
func ParseDuration(s string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("duration %q does not match grammar ^\\d+(ms|s)$", s)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("duration %q: %w", s, err)
	}
	switch m[2] {
	case "ms":
		return time.Duration(n) * time.Millisecond, nil
	case "s":
		return time.Duration(n) * time.Second, nil
	default:
		return 0, fmt.Errorf("duration %q: unknown unit %q", s, m[2])
	}
}
