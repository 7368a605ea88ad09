// Package interval holds the minutes-of-day arithmetic every conflict
// check in the booking engine is built on.
package interval

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	minutesPerHour = 60
	hoursPerDay    = 24
)

// ToMinutes parses a wall-clock time in strict "HH:mm" form (00:00 to
// 23:59) and returns it as minutes since midnight.
func ToMinutes(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 || !isDigits(parts[0]) || !isDigits(parts[1]) {
		return 0, fmt.Errorf("invalid time %q, expected HH:mm", clock)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:mm", clock)
	}

	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:mm", clock)
	}

	if hours < 0 || hours >= hoursPerDay || minutes < 0 || minutes >= minutesPerHour {
		return 0, fmt.Errorf("time %q out of range, hours must be 00-23 and minutes 00-59", clock)
	}

	return hours*minutesPerHour + minutes, nil
}

// isDigits guards against strconv.Atoi accepting signed components
// such as "+1" or "-0".
func isDigits(s string) bool {
	if len(s) != 2 {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

// FormatMinutes renders minutes since midnight back to "HH:mm".
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/minutesPerHour, minutes%minutesPerHour)
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share at least one instant. Intervals that merely touch
// at a boundary do not overlap.
//
// This is the reference predicate for the conflict rule. The booking
// repository evaluates the same condition in SQL
// (start_time < :end_time AND end_time > :start_time); any change here
// must be mirrored there.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}
