package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/tutorhive/availability-api/pkg/errors"
)

func TestNormalizeFlatList(t *testing.T) {
	payload := `[
		{"id": "a-1", "tutorId": "tutor-1", "date": "2024-01-08", "startTime": "09:00", "endTime": "10:00", "timezone": "America/Chicago"},
		{"rule_id": "a-2", "tutor_id": "tutor-1", "slot_date": "2024-01-09", "start_time": "14:00:00", "end_time": "15:00:00", "course_id": "course-3"}
	]`

	instances, err := Normalize([]byte(payload))
	require.NoError(t, err)
	require.Len(t, instances, 2)

	first := instances[0]
	assert.Equal(t, "a-1", first.SourceRuleID)
	assert.Equal(t, "tutor-1", first.TutorID)
	assert.Equal(t, date(2024, time.January, 8), first.Date)
	assert.Equal(t, 1, first.DayOfWeek)
	assert.Equal(t, "09:00", first.StartTime)
	assert.Equal(t, "America/Chicago", first.OriginalTimezone)

	second := instances[1]
	assert.Equal(t, "a-2", second.SourceRuleID)
	assert.Equal(t, "14:00", second.StartTime)
	assert.Equal(t, "15:00", second.EndTime)
	require.NotNil(t, second.CourseID)
	assert.Equal(t, "course-3", *second.CourseID)
	assert.Equal(t, 2, second.DayOfWeek) // Tuesday
}

func TestNormalizeLegacyWeekdayGrouped(t *testing.T) {
	payload := `{
		"monday": [{"start": "09:00", "end": "10:30", "tutorId": "tutor-1"}],
		"Friday": [{"from": "13:00", "to": "14:00"}]
	}`

	instances, err := Normalize([]byte(payload))
	require.NoError(t, err)
	require.Len(t, instances, 2)

	byDay := map[int]int{}
	for _, inst := range instances {
		byDay[inst.DayOfWeek]++
		assert.True(t, inst.Date.IsZero())
	}
	assert.Equal(t, 1, byDay[1], "monday slot lands on Sunday-first index 1")
	assert.Equal(t, 1, byDay[5])
}

func TestNormalizeWrappedEnvelope(t *testing.T) {
	payload := `{"data": [{"date": "2024-01-08", "startTime": "09:00", "endTime": "10:00"}]}`

	instances, err := Normalize([]byte(payload))
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, 1, instances[0].DayOfWeek)
}

func TestNormalizeWeekdayFieldSpellings(t *testing.T) {
	payload := `[
		{"dayOfWeek": 3, "startTime": "09:00", "endTime": "10:00"},
		{"weekday": "thursday", "start": "09:00", "end": "10:00"}
	]`

	instances, err := Normalize([]byte(payload))
	require.NoError(t, err)
	require.Len(t, instances, 2)
	assert.Equal(t, 3, instances[0].DayOfWeek)
	assert.Equal(t, 4, instances[1].DayOfWeek)
}

func TestNormalizeEmptyList(t *testing.T) {
	instances, err := Normalize([]byte(`[]`))
	require.NoError(t, err)
	assert.NotNil(t, instances)
	assert.Empty(t, instances)
}

func TestNormalizeUnrecognizedShapes(t *testing.T) {
	cases := map[string]string{
		"scalar root":       `42`,
		"non-weekday keys":  `{"bananas": []}`,
		"invalid json":      `{`,
		"missing times":     `[{"date": "2024-01-08"}]`,
		"no date no day":    `[{"startTime": "09:00", "endTime": "10:00"}]`,
		"weekday range":     `[{"dayOfWeek": 11, "startTime": "09:00", "endTime": "10:00"}]`,
		"unparseable date":  `[{"date": "Jan 8", "startTime": "09:00", "endTime": "10:00"}]`,
		"non-object record": `["slot"]`,
	}

	for name, payload := range cases {
		_, err := Normalize([]byte(payload))
		require.Error(t, err, name)
		appErr := appErrors.FromError(err)
		switch name {
		case "weekday range":
			assert.Equal(t, appErrors.ErrInvalidWeekday.Code, appErr.Code, name)
		default:
			assert.Equal(t, appErrors.ErrUnrecognizedFormat.Code, appErr.Code, name)
		}
	}
}
