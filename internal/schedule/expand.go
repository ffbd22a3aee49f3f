package schedule

import (
	"time"

	"github.com/tutorhive/availability-api/internal/models"
)

// Expand materializes the concrete date instances a rule covers inside the
// requested window, in ascending date order. It is a pure function of its
// inputs: calling it twice with the same rule and window yields the same
// sequence. The iteration walks whole calendar dates, never 24-hour timestamp
// increments, so daylight saving transitions cannot skip or duplicate a day.
func Expand(rule models.AvailabilityRule, windowStart, windowEnd time.Time) ([]models.AvailabilityInstance, error) {
	if err := ValidateRule(rule); err != nil {
		return nil, err
	}

	start := laterDate(DateOnly(rule.SeriesStart), DateOnly(windowStart))
	end := earlierDate(DateOnly(rule.SeriesEnd), DateOnly(windowEnd))
	if start.After(end) {
		return []models.AvailabilityInstance{}, nil
	}

	if !rule.IsRecurring {
		date := DateOnly(rule.SeriesStart)
		if date.Before(start) || date.After(end) || rule.HasException(date.Format(models.DateLayout)) {
			return []models.AvailabilityInstance{}, nil
		}
		return []models.AvailabilityInstance{instanceFor(rule, date)}, nil
	}

	member := make(map[int]bool, len(rule.Weekdays))
	for _, day := range rule.Weekdays {
		member[day] = true
	}

	var instances []models.AvailabilityInstance
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		// time.Weekday is Sunday-first, the same convention used here.
		if !member[int(date.Weekday())] {
			continue
		}
		if rule.HasException(date.Format(models.DateLayout)) {
			continue
		}
		instances = append(instances, instanceFor(rule, date))
	}
	if instances == nil {
		instances = []models.AvailabilityInstance{}
	}
	return instances, nil
}

// instanceFor builds the single instance a rule yields on a date, substituting
// the per-date override when one exists. At most one instance exists per rule
// per date. Every instance carries its rule's ID so exclusion checks can match
// it; IsVirtual alone distinguishes derived views from persisted state.
func instanceFor(rule models.AvailabilityRule, date time.Time) models.AvailabilityInstance {
	inst := models.AvailabilityInstance{
		Date:             date,
		DayOfWeek:        int(date.Weekday()),
		StartTime:        rule.StartTime,
		EndTime:          rule.EndTime,
		TutorID:          rule.TutorID,
		CourseID:         rule.CourseID,
		SourceRuleID:     rule.ID,
		OriginalTimezone: rule.OriginalTimezone,
		IsVirtual:        rule.IsRecurring,
	}
	if override, ok := rule.Overrides[date.Format(models.DateLayout)]; ok {
		if override.StartTime != "" {
			inst.StartTime = override.StartTime
		}
		if override.EndTime != "" {
			inst.EndTime = override.EndTime
		}
		if override.CourseID != nil {
			inst.CourseID = override.CourseID
		}
		// A materialized override is persisted state, not a derived view.
		inst.IsVirtual = false
	}
	return inst
}

func laterDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
