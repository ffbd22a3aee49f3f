package schedule

import (
	"time"

	"github.com/tutorhive/availability-api/internal/models"
)

// Candidate is a slot being validated against existing data. Clocks are
// canonical UTC; ExcludeID removes a rule or session with that identity from
// comparison so an edit does not conflict with itself.
type Candidate struct {
	TutorID   string
	Date      time.Time
	StartTime string
	EndTime   string
	ExcludeID string
}

// DetectConflicts checks the candidate interval against other availability
// slots and against booked sessions for the same tutor. Overlap is half-open:
// [10:00,11:00) and [11:00,12:00) touch but do not conflict. The scan is O(n)
// over the comparison items.
func DetectConflicts(cand Candidate, slots []models.AvailabilityInstance, sessions []models.BookedSession) (models.ConflictResult, error) {
	result := models.ConflictResult{}

	candStart, candEnd, err := candidateInterval(cand.Date, cand.StartTime, cand.EndTime)
	if err != nil {
		return result, err
	}

	for _, slot := range slots {
		if slot.TutorID != cand.TutorID {
			continue
		}
		if cand.ExcludeID != "" && slot.SourceRuleID == cand.ExcludeID {
			continue
		}
		slotStart, slotEnd, err := candidateInterval(slot.Date, slot.StartTime, slot.EndTime)
		if err != nil {
			return models.ConflictResult{}, err
		}
		if overlaps(candStart, candEnd, slotStart, slotEnd) {
			result.ConflictingSlots = append(result.ConflictingSlots, slot)
		}
	}

	for _, session := range sessions {
		if session.TutorID != cand.TutorID {
			continue
		}
		if cand.ExcludeID != "" && session.ID == cand.ExcludeID {
			continue
		}
		if overlaps(candStart, candEnd, session.Start, session.End) {
			result.ConflictingSessions = append(result.ConflictingSessions, session)
		}
	}

	result.HasConflict = len(result.ConflictingSlots) > 0 || len(result.ConflictingSessions) > 0
	return result, nil
}

// candidateInterval combines a date with UTC clocks into absolute instants.
// An end clock at or before the start clock means the slot crosses midnight
// in UTC (the tutor's local evening), so the end lands on the next day.
func candidateInterval(date time.Time, startClock, endClock string) (time.Time, time.Time, error) {
	start, err := At(date, startClock)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := At(date, endClock)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

// overlaps applies the half-open interval rule: [s1,e1) and [s2,e2) overlap
// iff s1 < e2 && s2 < e1.
func overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && start2.Before(end1)
}
