package models

import "time"

// SlotOverride is a per-date modification of a recurring slot. A nil field
// inherits the parent rule's value.
type SlotOverride struct {
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	CourseID  *string `json:"course_id,omitempty"`
}

// AvailabilityRule is the series root for a tutor's recurring availability.
// Weekdays use the Sunday-first convention (0=Sunday .. 6=Saturday), times of
// day are canonical UTC HH:MM clocks and dates are inclusive calendar dates.
// The rule owns its exceptions and overrides; expanded instances are derived
// views with no identity of their own.
type AvailabilityRule struct {
	ID               string                  `json:"id"`
	TutorID          string                  `json:"tutor_id"`
	CourseID         *string                 `json:"course_id,omitempty"`
	IsRecurring      bool                    `json:"is_recurring"`
	Weekdays         []int                   `json:"recurrence_days"`
	StartTime        string                  `json:"start_time"`
	EndTime          string                  `json:"end_time"`
	OriginalTimezone string                  `json:"original_timezone"`
	SeriesStart      time.Time               `json:"series_start"`
	SeriesEnd        time.Time               `json:"series_end"`
	Exceptions       []string                `json:"exceptions,omitempty"`
	Overrides        map[string]SlotOverride `json:"overrides,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// Clone returns a deep copy so resolvers can stay pure.
func (r AvailabilityRule) Clone() AvailabilityRule {
	cp := r
	if r.CourseID != nil {
		course := *r.CourseID
		cp.CourseID = &course
	}
	cp.Weekdays = append([]int(nil), r.Weekdays...)
	cp.Exceptions = append([]string(nil), r.Exceptions...)
	if r.Overrides != nil {
		cp.Overrides = make(map[string]SlotOverride, len(r.Overrides))
		for date, ov := range r.Overrides {
			if ov.CourseID != nil {
				course := *ov.CourseID
				ov.CourseID = &course
			}
			cp.Overrides[date] = ov
		}
	}
	return cp
}

// HasException reports whether the date is excluded from expansion.
func (r AvailabilityRule) HasException(date string) bool {
	for _, d := range r.Exceptions {
		if d == date {
			return true
		}
	}
	return false
}

// AvailabilityInstance is one concrete bookable slot on one calendar date.
// Virtual instances come straight out of rule expansion; they become persisted
// overrides or exceptions only when an edit-scope operation materializes them.
type AvailabilityInstance struct {
	Date             time.Time `json:"date"`
	DayOfWeek        int       `json:"day_of_week"`
	StartTime        string    `json:"start_time"`
	EndTime          string    `json:"end_time"`
	TutorID          string    `json:"tutor_id"`
	CourseID         *string   `json:"course_id,omitempty"`
	SourceRuleID     string    `json:"source_rule_id,omitempty"`
	OriginalTimezone string    `json:"original_timezone,omitempty"`
	IsVirtual        bool      `json:"is_virtual"`
}

// CalendarFilter bounds a calendar expansion request.
type CalendarFilter struct {
	TutorID  string
	From     time.Time
	To       time.Time
	Timezone string
}
