// Package schedule implements the recurring availability engine: weekday
// convention translation, timezone conversion, rule expansion, conflict
// detection, edit-scope resolution and legacy payload normalization. Every
// function is a pure computation over its inputs; persistence and transport
// live elsewhere.
package schedule

import (
	"fmt"
	"strings"

	appErrors "github.com/tutorhive/availability-api/pkg/errors"
)

// Weekdays are indexed Sunday-first (0=Sunday .. 6=Saturday) everywhere inside
// this codebase, matching time.Weekday. The legacy persistence format counts
// Monday-first (0=Monday .. 6=Sunday); translation happens only at that
// boundary. Both directions are bijections over {0..6} and an out-of-range
// index is a programming error, never silently clamped.

// ToSundayFirst converts a Monday-first weekday index to Sunday-first.
func ToSundayFirst(mondayFirst int) (int, error) {
	if err := CheckWeekday(mondayFirst); err != nil {
		return 0, err
	}
	return (mondayFirst + 1) % 7, nil
}

// ToMondayFirst converts a Sunday-first weekday index to Monday-first.
func ToMondayFirst(sundayFirst int) (int, error) {
	if err := CheckWeekday(sundayFirst); err != nil {
		return 0, err
	}
	return (sundayFirst + 6) % 7, nil
}

// CheckWeekday validates that the index is a weekday in {0..6}.
func CheckWeekday(day int) error {
	if day < 0 || day > 6 {
		return appErrors.Clone(appErrors.ErrInvalidWeekday, fmt.Sprintf("weekday index %d out of range [0,6]", day))
	}
	return nil
}

var weekdayNames = map[string]int{
	"sunday":    0,
	"monday":    1,
	"tuesday":   2,
	"wednesday": 3,
	"thursday":  4,
	"friday":    5,
	"saturday":  6,
	"sun":       0,
	"mon":       1,
	"tue":       2,
	"tues":      2,
	"wed":       3,
	"thu":       4,
	"thur":      4,
	"thurs":     4,
	"fri":       5,
	"sat":       6,
}

// WeekdayFromName resolves an English weekday name or abbreviation to its
// Sunday-first index.
func WeekdayFromName(name string) (int, error) {
	day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, appErrors.Clone(appErrors.ErrInvalidWeekday, fmt.Sprintf("unknown weekday name %q", name))
	}
	return day, nil
}

// IsWeekdayName reports whether the string names a weekday.
func IsWeekdayName(name string) bool {
	_, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	return ok
}
