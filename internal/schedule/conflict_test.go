package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhive/availability-api/internal/models"
)

func candidateAt(start, end string) Candidate {
	return Candidate{
		TutorID:   "tutor-1",
		Date:      date(2024, time.April, 10),
		StartTime: start,
		EndTime:   end,
	}
}

func sessionAt(id, start, end string) models.BookedSession {
	s, _ := At(date(2024, time.April, 10), start)
	e, _ := At(date(2024, time.April, 10), end)
	return models.BookedSession{ID: id, TutorID: "tutor-1", Start: s, End: e}
}

func TestDetectConflictsTouchingBoundaries(t *testing.T) {
	// Half-open semantics: [10:00,11:00) and [11:00,12:00) do not conflict.
	result, err := DetectConflicts(candidateAt("10:00", "11:00"), nil, []models.BookedSession{
		sessionAt("session-1", "11:00", "12:00"),
	})
	require.NoError(t, err)
	assert.False(t, result.HasConflict)
	assert.Empty(t, result.ConflictingSessions)
}

func TestDetectConflictsOverlap(t *testing.T) {
	result, err := DetectConflicts(candidateAt("10:00", "11:00"), nil, []models.BookedSession{
		sessionAt("session-1", "10:30", "11:30"),
	})
	require.NoError(t, err)
	assert.True(t, result.HasConflict)
	require.Len(t, result.ConflictingSessions, 1)
	assert.Equal(t, "session-1", result.ConflictingSessions[0].ID)
}

func TestDetectConflictsAgainstAvailability(t *testing.T) {
	slots := []models.AvailabilityInstance{
		{
			Date:         date(2024, time.April, 10),
			StartTime:    "09:30",
			EndTime:      "10:30",
			TutorID:      "tutor-1",
			SourceRuleID: "rule-2",
		},
	}
	result, err := DetectConflicts(candidateAt("10:00", "11:00"), slots, nil)
	require.NoError(t, err)
	assert.True(t, result.HasConflict)
	require.Len(t, result.ConflictingSlots, 1)
	assert.Empty(t, result.ConflictingSessions)
}

func TestDetectConflictsExcludesSelf(t *testing.T) {
	slots := []models.AvailabilityInstance{
		{
			Date:         date(2024, time.April, 10),
			StartTime:    "10:00",
			EndTime:      "11:00",
			TutorID:      "tutor-1",
			SourceRuleID: "rule-1",
		},
	}
	cand := candidateAt("10:00", "11:00")
	cand.ExcludeID = "rule-1"

	result, err := DetectConflicts(cand, slots, nil)
	require.NoError(t, err)
	assert.False(t, result.HasConflict)
}

func TestDetectConflictsIgnoresOtherTutors(t *testing.T) {
	other := sessionAt("session-1", "10:00", "11:00")
	other.TutorID = "tutor-2"

	result, err := DetectConflicts(candidateAt("10:00", "11:00"), nil, []models.BookedSession{other})
	require.NoError(t, err)
	assert.False(t, result.HasConflict)
}

func TestDetectConflictsMidnightWrap(t *testing.T) {
	// A UTC clock pair of 23:00 → 01:00 is a slot crossing midnight; a
	// session at 00:30 the next day overlaps it.
	s, _ := At(date(2024, time.April, 11), "00:30")
	e, _ := At(date(2024, time.April, 11), "01:30")
	session := models.BookedSession{ID: "session-1", TutorID: "tutor-1", Start: s, End: e}

	result, err := DetectConflicts(candidateAt("23:00", "01:00"), nil, []models.BookedSession{session})
	require.NoError(t, err)
	assert.True(t, result.HasConflict)
}

func TestDetectConflictsMalformedClock(t *testing.T) {
	_, err := DetectConflicts(candidateAt("banana", "11:00"), nil, nil)
	require.Error(t, err)
}
