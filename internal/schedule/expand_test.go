package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhive/availability-api/internal/models"
	appErrors "github.com/tutorhive/availability-api/pkg/errors"
)

func mondayRule() models.AvailabilityRule {
	return models.AvailabilityRule{
		ID:               "rule-1",
		TutorID:          "tutor-1",
		IsRecurring:      true,
		Weekdays:         []int{1}, // Monday
		StartTime:        "09:00",
		EndTime:          "10:00",
		OriginalTimezone: "UTC",
		SeriesStart:      date(2024, time.January, 1),
		SeriesEnd:        date(2024, time.January, 31),
	}
}

func TestExpandJanuaryMondays(t *testing.T) {
	instances, err := Expand(mondayRule(), date(2024, time.January, 1), date(2024, time.January, 31))
	require.NoError(t, err)
	require.Len(t, instances, 5)

	expected := []int{1, 8, 15, 22, 29}
	for i, inst := range instances {
		assert.Equal(t, expected[i], inst.Date.Day())
		assert.Equal(t, 1, inst.DayOfWeek)
		assert.Equal(t, "09:00", inst.StartTime)
		assert.Equal(t, "10:00", inst.EndTime)
		assert.Equal(t, "rule-1", inst.SourceRuleID)
		assert.True(t, inst.IsVirtual)
	}
}

func TestExpandClampsToWindow(t *testing.T) {
	instances, err := Expand(mondayRule(), date(2024, time.January, 10), date(2024, time.January, 25))
	require.NoError(t, err)
	require.Len(t, instances, 2)
	assert.Equal(t, 15, instances[0].Date.Day())
	assert.Equal(t, 22, instances[1].Date.Day())
}

func TestExpandEmptyWindow(t *testing.T) {
	instances, err := Expand(mondayRule(), date(2024, time.March, 1), date(2024, time.March, 31))
	require.NoError(t, err)
	assert.Empty(t, instances)
}

func TestExpandSkipsExceptions(t *testing.T) {
	rule := mondayRule()
	rule.Exceptions = []string{"2024-01-15"}

	instances, err := Expand(rule, date(2024, time.January, 1), date(2024, time.January, 31))
	require.NoError(t, err)
	require.Len(t, instances, 4)
	for _, inst := range instances {
		assert.NotEqual(t, 15, inst.Date.Day())
	}
}

func TestExpandSubstitutesOverrides(t *testing.T) {
	course := "course-7"
	rule := mondayRule()
	rule.Overrides = map[string]models.SlotOverride{
		"2024-01-08": {StartTime: "14:00", EndTime: "15:30", CourseID: &course},
	}

	instances, err := Expand(rule, date(2024, time.January, 1), date(2024, time.January, 31))
	require.NoError(t, err)
	require.Len(t, instances, 5)

	overridden := instances[1]
	assert.Equal(t, 8, overridden.Date.Day())
	assert.Equal(t, "14:00", overridden.StartTime)
	assert.Equal(t, "15:30", overridden.EndTime)
	require.NotNil(t, overridden.CourseID)
	assert.Equal(t, "course-7", *overridden.CourseID)
	assert.False(t, overridden.IsVirtual, "materialized override is not virtual")

	// Other dates keep the rule's own times.
	assert.Equal(t, "09:00", instances[0].StartTime)
	assert.True(t, instances[0].IsVirtual)
}

func TestExpandIsPure(t *testing.T) {
	rule := mondayRule()
	first, err := Expand(rule, date(2024, time.January, 1), date(2024, time.January, 31))
	require.NoError(t, err)
	second, err := Expand(rule, date(2024, time.January, 1), date(2024, time.January, 31))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExpandAcrossDSTBoundary(t *testing.T) {
	// A daily rule spanning the 2024 US spring-forward must emit every date
	// exactly once; calendar-date iteration is immune to the missing hour.
	rule := mondayRule()
	rule.Weekdays = []int{0, 1, 2, 3, 4, 5, 6}
	rule.SeriesStart = date(2024, time.March, 8)
	rule.SeriesEnd = date(2024, time.March, 12)

	instances, err := Expand(rule, date(2024, time.March, 1), date(2024, time.March, 31))
	require.NoError(t, err)
	require.Len(t, instances, 5)
	for i, inst := range instances {
		assert.Equal(t, 8+i, inst.Date.Day())
	}
}

func TestExpandNonRecurringSingleSlot(t *testing.T) {
	rule := models.AvailabilityRule{
		ID:          "slot-1",
		TutorID:     "tutor-1",
		IsRecurring: false,
		StartTime:   "10:00",
		EndTime:     "11:00",
		SeriesStart: date(2024, time.February, 14),
		SeriesEnd:   date(2024, time.February, 14),
	}

	instances, err := Expand(rule, date(2024, time.February, 1), date(2024, time.February, 29))
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, 14, instances[0].Date.Day())
	assert.False(t, instances[0].IsVirtual)
	assert.Equal(t, "slot-1", instances[0].SourceRuleID)

	instances, err = Expand(rule, date(2024, time.March, 1), date(2024, time.March, 31))
	require.NoError(t, err)
	assert.Empty(t, instances)
}

func TestExpandRejectsInvalidRule(t *testing.T) {
	rule := mondayRule()
	rule.Weekdays = nil
	_, err := Expand(rule, date(2024, time.January, 1), date(2024, time.January, 31))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidAvailability))

	rule = mondayRule()
	rule.Weekdays = []int{9}
	_, err = Expand(rule, date(2024, time.January, 1), date(2024, time.January, 31))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidWeekday))

	rule = mondayRule()
	rule.EndTime = "09:30"
	_, err = Expand(rule, date(2024, time.January, 1), date(2024, time.January, 31))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidAvailability))
}
