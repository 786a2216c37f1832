// Package duration parses the human-readable wait and budget strings
// that appear in retry policies and cache version-tag lifetimes:
// "50ms", "2s", "1h30m", "3 days", "1w". It accepts the number-and-unit
// forms time.ParseDuration accepts plus day and week units and spelled-
// out unit words, which Go's parser stops short of.
package duration

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	// Day is 24 hours.
	Day = 24 * time.Hour
	// Week is 7 days.
	Week = 7 * Day
)

// unitFor maps a lower-cased unit token to its duration. Singular and
// plural word forms are accepted alongside the short suffixes.
func unitFor(tok string) (time.Duration, bool) {
	switch tok {
	case "ns", "nanosecond", "nanoseconds":
		return time.Nanosecond, true
	case "us", "µs", "microsecond", "microseconds":
		return time.Microsecond, true
	case "ms", "millisecond", "milliseconds":
		return time.Millisecond, true
	case "s", "sec", "secs", "second", "seconds":
		return time.Second, true
	case "m", "min", "mins", "minute", "minutes":
		return time.Minute, true
	case "h", "hr", "hrs", "hour", "hours":
		return time.Hour, true
	case "d", "day", "days":
		return Day, true
	case "w", "wk", "wks", "week", "weeks":
		return Week, true
	}
	return 0, false
}

// Parse converts s into a time.Duration. The input is a sequence of
// number/unit pairs ("1w2d12h", "90 seconds"); whitespace between
// pairs and between a number and its unit is ignored. A bare number
// without a unit is rejected rather than guessed at.
func Parse(s string) (time.Duration, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("duration: empty string")
	}

	neg := false
	if trimmed[0] == '+' || trimmed[0] == '-' {
		neg = trimmed[0] == '-'
		trimmed = trimmed[1:]
	}

	var total time.Duration
	rest := trimmed
	for rest != "" {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		if rest == "" {
			break
		}

		numEnd := 0
		for numEnd < len(rest) && (isDigit(rest[numEnd]) || rest[numEnd] == '.') {
			numEnd++
		}
		if numEnd == 0 {
			return 0, fmt.Errorf("duration: expected number at %q in %q", rest, s)
		}
		value, err := strconv.ParseFloat(rest[:numEnd], 64)
		if err != nil {
			return 0, fmt.Errorf("duration: bad number %q in %q", rest[:numEnd], s)
		}

		rest = strings.TrimLeftFunc(rest[numEnd:], unicode.IsSpace)
		unitEnd := 0
		for unitEnd < len(rest) && !isDigit(rest[unitEnd]) && !unicode.IsSpace(rune(rest[unitEnd])) && rest[unitEnd] != '.' {
			unitEnd++
		}
		if unitEnd == 0 {
			return 0, fmt.Errorf("duration: missing unit after %v in %q", value, s)
		}
		unit, ok := unitFor(strings.ToLower(rest[:unitEnd]))
		if !ok {
			return 0, fmt.Errorf("duration: unknown unit %q in %q", rest[:unitEnd], s)
		}
		rest = rest[unitEnd:]

		total += time.Duration(value * float64(unit))
	}

	if neg {
		total = -total
	}
	return total, nil
}

// ParseNonNegative is Parse restricted to zero-or-positive results,
// for wait bounds and lifetimes where a negative value is never
// meaningful.
func ParseNonNegative(s string) (time.Duration, error) {
	d, err := Parse(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration: negative duration %q", s)
	}
	return d, nil
}

// Format renders d using the largest units that divide it evenly,
// preferring "2w" over "336h". Sub-day durations fall through to the
// standard library rendering.
func Format(d time.Duration) string {
	if d != 0 && d%Week == 0 {
		return strconv.FormatInt(int64(d/Week), 10) + "w"
	}
	if d != 0 && d%Day == 0 {
		return strconv.FormatInt(int64(d/Day), 10) + "d"
	}
	return d.String()
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
