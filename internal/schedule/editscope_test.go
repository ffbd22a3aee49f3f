package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhive/availability-api/internal/models"
	appErrors "github.com/tutorhive/availability-api/pkg/errors"
)

func seriesRule() models.AvailabilityRule {
	return models.AvailabilityRule{
		ID:               "rule-1",
		TutorID:          "tutor-1",
		IsRecurring:      true,
		Weekdays:         []int{1, 3}, // Monday, Wednesday
		StartTime:        "09:00",
		EndTime:          "10:00",
		OriginalTimezone: "America/Chicago",
		SeriesStart:      date(2024, time.January, 1),
		SeriesEnd:        date(2024, time.March, 31),
	}
}

func strPtr(s string) *string { return &s }

func TestSingleUpdateMaterializesOverride(t *testing.T) {
	rule := seriesRule()
	target := date(2024, time.January, 15) // a Monday

	res, err := ResolveUpdate(rule, ScopeSingle, target, RulePatch{StartTime: strPtr("11:00"), EndTime: strPtr("12:00")})
	require.NoError(t, err)
	require.NotNil(t, res.Updated)
	assert.Nil(t, res.Created)
	assert.Empty(t, res.DeletedRuleID)

	override, ok := res.Updated.Overrides["2024-01-15"]
	require.True(t, ok)
	assert.Equal(t, "11:00", override.StartTime)
	assert.Equal(t, "12:00", override.EndTime)

	// Parent rule fields and the input rule itself stay untouched.
	assert.Equal(t, "09:00", res.Updated.StartTime)
	assert.Empty(t, rule.Overrides)
}

func TestSingleDeleteAddsException(t *testing.T) {
	rule := seriesRule()
	rule.Overrides = map[string]models.SlotOverride{"2024-01-15": {StartTime: "11:00", EndTime: "12:00"}}

	res, err := ResolveDelete(rule, ScopeSingle, date(2024, time.January, 15))
	require.NoError(t, err)
	require.NotNil(t, res.Updated)
	assert.Contains(t, res.Updated.Exceptions, "2024-01-15")
	assert.NotContains(t, res.Updated.Overrides, "2024-01-15")
}

func TestSingleUpdateRejectsNonInstanceDate(t *testing.T) {
	// 2024-01-16 is a Tuesday, not in the weekday set.
	_, err := ResolveUpdate(seriesRule(), ScopeSingle, date(2024, time.January, 16), RulePatch{})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidAvailability))
}

func TestFutureSplitPartitionsSeries(t *testing.T) {
	rule := seriesRule()
	rule.Exceptions = []string{"2024-01-08", "2024-02-05"}
	rule.Overrides = map[string]models.SlotOverride{
		"2024-01-10": {StartTime: "13:00", EndTime: "14:00"},
		"2024-02-07": {StartTime: "15:00", EndTime: "16:00"},
	}
	target := date(2024, time.February, 1)

	res, err := ResolveUpdate(rule, ScopeFuture, target, RulePatch{StartTime: strPtr("10:00"), EndTime: strPtr("11:00")})
	require.NoError(t, err)
	require.NotNil(t, res.Updated)
	require.NotNil(t, res.Created)

	// Past half: untouched fields, span ends the day before the target.
	assert.Equal(t, "09:00", res.Updated.StartTime)
	assert.Equal(t, date(2024, time.January, 31), DateOnly(res.Updated.SeriesEnd))
	assert.Equal(t, []string{"2024-01-08"}, res.Updated.Exceptions)
	assert.Contains(t, res.Updated.Overrides, "2024-01-10")
	assert.NotContains(t, res.Updated.Overrides, "2024-02-07")

	// Future half: patched fields, inherits the original end and the
	// exceptions/overrides on or after the target.
	assert.Empty(t, res.Created.ID)
	assert.Equal(t, "10:00", res.Created.StartTime)
	assert.Equal(t, target, DateOnly(res.Created.SeriesStart))
	assert.Equal(t, date(2024, time.March, 31), DateOnly(res.Created.SeriesEnd))
	assert.Equal(t, []string{"2024-02-05"}, res.Created.Exceptions)
	assert.Contains(t, res.Created.Overrides, "2024-02-07")
	assert.NotContains(t, res.Created.Overrides, "2024-01-10")

	// The two spans partition the original exactly at the target date.
	assert.True(t, DateOnly(res.Updated.SeriesEnd).AddDate(0, 0, 1).Equal(DateOnly(res.Created.SeriesStart)))
}

func TestFutureSplitPreservesPastInstances(t *testing.T) {
	rule := seriesRule()
	target := date(2024, time.February, 1)

	before, err := Expand(rule, rule.SeriesStart, target.AddDate(0, 0, -1))
	require.NoError(t, err)

	res, err := ResolveUpdate(rule, ScopeFuture, target, RulePatch{StartTime: strPtr("10:00"), EndTime: strPtr("11:00")})
	require.NoError(t, err)

	after, err := Expand(*res.Updated, rule.SeriesStart, target.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFutureAtSeriesStartCollapsesToSeriesUpdate(t *testing.T) {
	rule := seriesRule()
	res, err := ResolveUpdate(rule, ScopeFuture, rule.SeriesStart, RulePatch{StartTime: strPtr("08:00")})
	require.NoError(t, err)
	require.NotNil(t, res.Updated)
	assert.Nil(t, res.Created)
	assert.Equal(t, "08:00", res.Updated.StartTime)
	assert.Equal(t, rule.ID, res.Updated.ID)
}

func TestFuturePastSeriesEnd(t *testing.T) {
	_, err := ResolveUpdate(seriesRule(), ScopeFuture, date(2024, time.June, 1), RulePatch{})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNoFutureInstances))

	_, err = ResolveDelete(seriesRule(), ScopeFuture, date(2024, time.June, 1))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNoFutureInstances))
}

func TestFutureDeleteTruncates(t *testing.T) {
	rule := seriesRule()
	res, err := ResolveDelete(rule, ScopeFuture, date(2024, time.February, 1))
	require.NoError(t, err)
	require.NotNil(t, res.Updated)
	assert.Equal(t, date(2024, time.January, 31), DateOnly(res.Updated.SeriesEnd))

	res, err = ResolveDelete(rule, ScopeFuture, rule.SeriesStart)
	require.NoError(t, err)
	assert.Equal(t, rule.ID, res.DeletedRuleID)
	assert.Nil(t, res.Updated)
}

func TestSeriesUpdateKeepsOverrides(t *testing.T) {
	rule := seriesRule()
	rule.Overrides = map[string]models.SlotOverride{"2024-01-10": {StartTime: "13:00", EndTime: "14:00"}}

	res, err := ResolveUpdate(rule, ScopeSeries, time.Time{}, RulePatch{Weekdays: []int{2, 4}, StartTime: strPtr("08:00")})
	require.NoError(t, err)
	require.NotNil(t, res.Updated)
	assert.Equal(t, []int{2, 4}, res.Updated.Weekdays)
	assert.Equal(t, "08:00", res.Updated.StartTime)
	assert.Contains(t, res.Updated.Overrides, "2024-01-10")
}

func TestSeriesDelete(t *testing.T) {
	res, err := ResolveDelete(seriesRule(), ScopeSeries, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "rule-1", res.DeletedRuleID)
	assert.Nil(t, res.Updated)
	assert.Nil(t, res.Created)
}

func TestScopeOnNonRecurringSlot(t *testing.T) {
	slot := models.AvailabilityRule{
		ID:          "slot-1",
		TutorID:     "tutor-1",
		IsRecurring: false,
		StartTime:   "10:00",
		EndTime:     "11:00",
		SeriesStart: date(2024, time.February, 14),
		SeriesEnd:   date(2024, time.February, 14),
	}

	for _, scope := range []EditScope{ScopeFuture, ScopeSeries} {
		_, err := ResolveUpdate(slot, scope, slot.SeriesStart, RulePatch{})
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, appErrors.ErrInvalidEditScope))
	}

	// Single scope on a standalone slot edits it directly.
	res, err := ResolveUpdate(slot, ScopeSingle, slot.SeriesStart, RulePatch{StartTime: strPtr("12:00")})
	require.NoError(t, err)
	require.NotNil(t, res.Updated)
	assert.Equal(t, "12:00", res.Updated.StartTime)

	// Single delete on a standalone slot removes it entirely.
	del, err := ResolveDelete(slot, ScopeSingle, slot.SeriesStart)
	require.NoError(t, err)
	assert.Equal(t, "slot-1", del.DeletedRuleID)
}

func TestParseEditScope(t *testing.T) {
	scope, err := ParseEditScope("future")
	require.NoError(t, err)
	assert.Equal(t, ScopeFuture, scope)

	_, err = ParseEditScope("everything")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidEditScope))
}
