package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/tutorhive/availability-api/pkg/errors"
)

func TestWeekdayRoundTrip(t *testing.T) {
	for day := 0; day <= 6; day++ {
		mondayFirst, err := ToMondayFirst(day)
		require.NoError(t, err)
		back, err := ToSundayFirst(mondayFirst)
		require.NoError(t, err)
		assert.Equal(t, day, back, "sunday-first %d should round-trip", day)

		sundayFirst, err := ToSundayFirst(day)
		require.NoError(t, err)
		back, err = ToMondayFirst(sundayFirst)
		require.NoError(t, err)
		assert.Equal(t, day, back, "monday-first %d should round-trip", day)
	}
}

func TestWeekdayTranslationValues(t *testing.T) {
	// Monday is 1 Sunday-first and 0 Monday-first.
	day, err := ToSundayFirst(0)
	require.NoError(t, err)
	assert.Equal(t, 1, day)

	// Sunday is 0 Sunday-first and 6 Monday-first.
	day, err = ToMondayFirst(0)
	require.NoError(t, err)
	assert.Equal(t, 6, day)
}

func TestWeekdayOutOfRange(t *testing.T) {
	for _, bad := range []int{-1, 7, 42} {
		_, err := ToSundayFirst(bad)
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, appErrors.ErrInvalidWeekday))

		_, err = ToMondayFirst(bad)
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, appErrors.ErrInvalidWeekday))
	}
}

func TestWeekdayFromName(t *testing.T) {
	day, err := WeekdayFromName("Monday")
	require.NoError(t, err)
	assert.Equal(t, 1, day)

	day, err = WeekdayFromName("sun")
	require.NoError(t, err)
	assert.Equal(t, 0, day)

	_, err = WeekdayFromName("someday")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidWeekday))
}
