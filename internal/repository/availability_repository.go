package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/tutorhive/availability-api/internal/models"
	"github.com/tutorhive/availability-api/internal/schedule"
)

// AvailabilityRepository provides persistence for availability rules. The
// stored row format predates this service and counts weekdays Monday-first;
// translation to the Sunday-first convention used everywhere else happens
// here and nowhere else.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository creates a new availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

type availabilityRow struct {
	ID               string         `db:"id"`
	TutorID          string         `db:"tutor_id"`
	CourseID         *string        `db:"course_id"`
	IsRecurring      bool           `db:"is_recurring"`
	Weekdays         types.JSONText `db:"weekdays"`
	StartTime        string         `db:"start_time"`
	EndTime          string         `db:"end_time"`
	OriginalTimezone string         `db:"original_timezone"`
	SeriesStart      time.Time      `db:"series_start"`
	SeriesEnd        time.Time      `db:"series_end"`
	Exceptions       types.JSONText `db:"exceptions"`
	Overrides        types.JSONText `db:"overrides"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

const availabilityColumns = `id, tutor_id, course_id, is_recurring, weekdays, start_time, end_time, original_timezone, series_start, series_end, exceptions, overrides, created_at, updated_at`

// ListByTutor returns every rule whose series span intersects the date range.
func (r *AvailabilityRepository) ListByTutor(ctx context.Context, tutorID string, from, to time.Time) ([]models.AvailabilityRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM availability_rules WHERE tutor_id = $1 AND series_start <= $2 AND series_end >= $3 ORDER BY series_start ASC, start_time ASC`, availabilityColumns)
	var rows []availabilityRow
	if err := r.db.SelectContext(ctx, &rows, query, tutorID, to, from); err != nil {
		return nil, fmt.Errorf("list availability rules: %w", err)
	}

	rules := make([]models.AvailabilityRule, 0, len(rows))
	for _, row := range rows {
		rule, err := row.toModel()
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// FindByID loads a rule by id.
func (r *AvailabilityRepository) FindByID(ctx context.Context, id string) (*models.AvailabilityRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM availability_rules WHERE id = $1`, availabilityColumns)
	var row availabilityRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	rule, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// Create stores a new rule record.
func (r *AvailabilityRepository) Create(ctx context.Context, rule *models.AvailabilityRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	row, err := rowFromModel(*rule)
	if err != nil {
		return err
	}

	const query = `INSERT INTO availability_rules (id, tutor_id, course_id, is_recurring, weekdays, start_time, end_time, original_timezone, series_start, series_end, exceptions, overrides, created_at, updated_at) VALUES (:id, :tutor_id, :course_id, :is_recurring, :weekdays, :start_time, :end_time, :original_timezone, :series_start, :series_end, :exceptions, :overrides, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create availability rule: %w", err)
	}
	return nil
}

// Update modifies a rule record.
func (r *AvailabilityRepository) Update(ctx context.Context, rule *models.AvailabilityRule) error {
	rule.UpdatedAt = time.Now().UTC()

	row, err := rowFromModel(*rule)
	if err != nil {
		return err
	}

	const query = `UPDATE availability_rules SET course_id = :course_id, is_recurring = :is_recurring, weekdays = :weekdays, start_time = :start_time, end_time = :end_time, original_timezone = :original_timezone, series_start = :series_start, series_end = :series_end, exceptions = :exceptions, overrides = :overrides, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("update availability rule: %w", err)
	}
	return nil
}

// Delete removes a rule and everything it owns.
func (r *AvailabilityRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM availability_rules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete availability rule: %w", err)
	}
	return nil
}

func (row availabilityRow) toModel() (models.AvailabilityRule, error) {
	rule := models.AvailabilityRule{
		ID:               row.ID,
		TutorID:          row.TutorID,
		CourseID:         row.CourseID,
		IsRecurring:      row.IsRecurring,
		StartTime:        row.StartTime,
		EndTime:          row.EndTime,
		OriginalTimezone: row.OriginalTimezone,
		SeriesStart:      row.SeriesStart,
		SeriesEnd:        row.SeriesEnd,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}

	var stored []int
	if len(row.Weekdays) > 0 {
		if err := json.Unmarshal(row.Weekdays, &stored); err != nil {
			return rule, fmt.Errorf("decode weekdays for rule %s: %w", row.ID, err)
		}
	}
	for _, day := range stored {
		translated, err := schedule.ToSundayFirst(day)
		if err != nil {
			return rule, fmt.Errorf("rule %s: %w", row.ID, err)
		}
		rule.Weekdays = append(rule.Weekdays, translated)
	}

	if len(row.Exceptions) > 0 {
		if err := json.Unmarshal(row.Exceptions, &rule.Exceptions); err != nil {
			return rule, fmt.Errorf("decode exceptions for rule %s: %w", row.ID, err)
		}
	}
	if len(row.Overrides) > 0 {
		if err := json.Unmarshal(row.Overrides, &rule.Overrides); err != nil {
			return rule, fmt.Errorf("decode overrides for rule %s: %w", row.ID, err)
		}
	}
	return rule, nil
}

func rowFromModel(rule models.AvailabilityRule) (availabilityRow, error) {
	row := availabilityRow{
		ID:               rule.ID,
		TutorID:          rule.TutorID,
		CourseID:         rule.CourseID,
		IsRecurring:      rule.IsRecurring,
		StartTime:        rule.StartTime,
		EndTime:          rule.EndTime,
		OriginalTimezone: rule.OriginalTimezone,
		SeriesStart:      rule.SeriesStart,
		SeriesEnd:        rule.SeriesEnd,
		CreatedAt:        rule.CreatedAt,
		UpdatedAt:        rule.UpdatedAt,
	}

	stored := make([]int, 0, len(rule.Weekdays))
	for _, day := range rule.Weekdays {
		translated, err := schedule.ToMondayFirst(day)
		if err != nil {
			return row, fmt.Errorf("rule %s: %w", rule.ID, err)
		}
		stored = append(stored, translated)
	}

	var err error
	if row.Weekdays, err = json.Marshal(stored); err != nil {
		return row, fmt.Errorf("encode weekdays for rule %s: %w", rule.ID, err)
	}
	exceptions := rule.Exceptions
	if exceptions == nil {
		exceptions = []string{}
	}
	if row.Exceptions, err = json.Marshal(exceptions); err != nil {
		return row, fmt.Errorf("encode exceptions for rule %s: %w", rule.ID, err)
	}
	overrides := rule.Overrides
	if overrides == nil {
		overrides = map[string]models.SlotOverride{}
	}
	if row.Overrides, err = json.Marshal(overrides); err != nil {
		return row, fmt.Errorf("encode overrides for rule %s: %w", rule.ID, err)
	}
	return row, nil
}
