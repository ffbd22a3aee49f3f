package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhive/availability-api/internal/models"
)

func newAvailabilityMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAvailabilityRowWeekdayTranslation(t *testing.T) {
	rule := models.AvailabilityRule{
		ID:          "rule-1",
		TutorID:     "tutor-1",
		IsRecurring: true,
		Weekdays:    []int{0, 1, 6}, // Sunday, Monday, Saturday
		StartTime:   "09:00",
		EndTime:     "10:00",
		SeriesStart: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		SeriesEnd:   time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC),
	}

	row, err := rowFromModel(rule)
	require.NoError(t, err)
	// Stored Monday-first: Sunday=6, Monday=0, Saturday=5.
	assert.JSONEq(t, `[6,0,5]`, string(row.Weekdays))

	back, err := row.toModel()
	require.NoError(t, err)
	assert.Equal(t, rule.Weekdays, back.Weekdays)
}

func TestAvailabilityRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newAvailabilityMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectExec("INSERT INTO availability_rules").
		WithArgs(
			sqlmock.AnyArg(), "tutor-1", nil, true, sqlmock.AnyArg(),
			"14:00", "15:00", "America/Chicago", sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rule := &models.AvailabilityRule{
		TutorID:          "tutor-1",
		IsRecurring:      true,
		Weekdays:         []int{2},
		StartTime:        "14:00",
		EndTime:          "15:00",
		OriginalTimezone: "America/Chicago",
		SeriesStart:      time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
		SeriesEnd:        time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), rule))
	assert.NotEmpty(t, rule.ID, "create assigns an id")

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "tutor_id", "course_id", "is_recurring", "weekdays",
		"start_time", "end_time", "original_timezone", "series_start", "series_end",
		"exceptions", "overrides", "created_at", "updated_at",
	}).AddRow(
		"rule-1", "tutor-1", nil, true, `[1]`,
		"14:00", "15:00", "America/Chicago",
		time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC),
		`["2024-02-13"]`, `{"2024-02-20":{"start_time":"16:00","end_time":"17:00"}}`, now, now,
	)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, tutor_id, course_id, is_recurring, weekdays, start_time, end_time, original_timezone, series_start, series_end, exceptions, overrides, created_at, updated_at FROM availability_rules WHERE id = $1")).
		WithArgs("rule-1").
		WillReturnRows(rows)

	found, err := repo.FindByID(context.Background(), "rule-1")
	require.NoError(t, err)
	// Stored Monday-first 1 is Tuesday, Sunday-first index 2.
	assert.Equal(t, []int{2}, found.Weekdays)
	assert.Equal(t, []string{"2024-02-13"}, found.Exceptions)
	require.Contains(t, found.Overrides, "2024-02-20")
	assert.Equal(t, "16:00", found.Overrides["2024-02-20"].StartTime)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryListByTutor(t *testing.T) {
	db, mock, cleanup := newAvailabilityMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "tutor_id", "course_id", "is_recurring", "weekdays",
		"start_time", "end_time", "original_timezone", "series_start", "series_end",
		"exceptions", "overrides", "created_at", "updated_at",
	}).AddRow(
		"rule-1", "tutor-1", nil, true, `[0]`,
		"09:00", "10:00", "UTC",
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
		`[]`, `{}`, now, now,
	)
	mock.ExpectQuery("SELECT .+ FROM availability_rules WHERE tutor_id").
		WithArgs("tutor-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	rules, err := repo.ListByTutor(context.Background(), "tutor-1",
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, []int{1}, rules[0].Weekdays, "stored Monday-first 0 is Monday")
	assert.NoError(t, mock.ExpectationsWereMet())
}
