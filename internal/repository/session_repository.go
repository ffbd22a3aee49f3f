package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tutorhive/availability-api/internal/models"
)

// SessionRepository reads booked tutoring sessions. Sessions are owned by the
// booking service; this side never writes them.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// ListByTutor returns the tutor's sessions intersecting the window, ordered
// by start instant so conflict scans see them sorted.
func (r *SessionRepository) ListByTutor(ctx context.Context, tutorID string, from, to time.Time) ([]models.BookedSession, error) {
	const query = `SELECT id, tutor_id, student_id, course_id, start_at, end_at FROM booked_sessions WHERE tutor_id = $1 AND start_at < $2 AND end_at > $3 ORDER BY start_at ASC`
	var sessions []models.BookedSession
	if err := r.db.SelectContext(ctx, &sessions, query, tutorID, to, from); err != nil {
		return nil, fmt.Errorf("list booked sessions: %w", err)
	}
	return sessions, nil
}
