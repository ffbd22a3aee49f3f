package schedule

import (
	"fmt"

	"github.com/tutorhive/availability-api/internal/models"
	appErrors "github.com/tutorhive/availability-api/pkg/errors"
)

// MinSlotMinutes is the shortest bookable slot.
const MinSlotMinutes = 60

// ValidateRule checks the structural invariants every stored rule must hold.
// Canonical clocks may wrap past midnight (a late local evening stored in UTC),
// so duration is measured modulo 24h rather than requiring start < end.
func ValidateRule(rule models.AvailabilityRule) error {
	if rule.TutorID == "" {
		return appErrors.Clone(appErrors.ErrInvalidAvailability, "rule is missing a tutor")
	}
	if rule.SeriesStart.IsZero() || rule.SeriesEnd.IsZero() {
		return appErrors.Clone(appErrors.ErrInvalidAvailability, "rule is missing its series dates")
	}
	if DateOnly(rule.SeriesStart).After(DateOnly(rule.SeriesEnd)) {
		return appErrors.Clone(appErrors.ErrInvalidAvailability, "series start date is after the end date")
	}
	if err := validateSlotTimes(rule.StartTime, rule.EndTime); err != nil {
		return err
	}
	if rule.IsRecurring {
		if len(rule.Weekdays) == 0 {
			return appErrors.Clone(appErrors.ErrInvalidAvailability, "recurring rule has an empty weekday set")
		}
		for _, day := range rule.Weekdays {
			if err := CheckWeekday(day); err != nil {
				return err
			}
		}
	}
	for date, override := range rule.Overrides {
		if err := validateSlotTimes(override.StartTime, override.EndTime); err != nil {
			return appErrors.Clone(appErrors.ErrInvalidAvailability, fmt.Sprintf("override for %s: %s", date, appErrors.FromError(err).Message))
		}
	}
	return nil
}

func validateSlotTimes(start, end string) error {
	startMin, err := parseClock(start)
	if err != nil {
		return err
	}
	endMin, err := parseClock(end)
	if err != nil {
		return err
	}
	duration := endMin - startMin
	if duration <= 0 {
		duration += minutesPerDay
	}
	if duration < MinSlotMinutes {
		return appErrors.Clone(appErrors.ErrInvalidAvailability, fmt.Sprintf("slot duration %d minutes is below the %d minute minimum", duration, MinSlotMinutes))
	}
	return nil
}
