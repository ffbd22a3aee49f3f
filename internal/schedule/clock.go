package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/tutorhive/availability-api/pkg/errors"
)

// minutesPerDay bounds a time-of-day clock.
const minutesPerDay = 24 * 60

// parseClock turns an HH:MM clock into minutes since midnight.
func parseClock(clock string) (int, error) {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("malformed time of day %q", clock))
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("malformed time of day %q", clock))
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("malformed time of day %q", clock))
	}
	return hour*60 + minute, nil
}

// formatClock renders minutes since midnight as HH:MM, wrapping past midnight.
func formatClock(minutes int) string {
	minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// NormalizeClock canonicalizes clock spellings like "9:00" or "09:00:00" into
// the HH:MM storage format.
func NormalizeClock(clock string) (string, error) {
	minutes, err := parseClock(clock)
	if err != nil {
		return "", err
	}
	return formatClock(minutes), nil
}

// DateOnly strips the time component, pinning the date to midnight UTC so that
// calendar arithmetic is never affected by the clock or zone of the input.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// At combines a calendar date with a UTC time-of-day clock into an absolute
// instant.
func At(date time.Time, clock string) (time.Time, error) {
	minutes, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return DateOnly(date).Add(time.Duration(minutes) * time.Minute), nil
}
