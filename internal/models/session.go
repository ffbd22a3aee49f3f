package models

import "time"

// BookedSession is a confirmed tutoring session. It is owned by the booking
// collaborator and only ever read here as conflict-detection input.
type BookedSession struct {
	ID        string    `db:"id" json:"id"`
	TutorID   string    `db:"tutor_id" json:"tutor_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CourseID  *string   `db:"course_id" json:"course_id,omitempty"`
	Start     time.Time `db:"start_at" json:"start"`
	End       time.Time `db:"end_at" json:"end"`
}

// ConflictResult reports temporal overlap between a candidate slot and
// existing data. Availability overlaps are advisory; session overlaps put real
// bookings at stake and callers must obtain explicit confirmation.
type ConflictResult struct {
	HasConflict         bool                   `json:"has_conflict"`
	ConflictingSessions []BookedSession        `json:"conflicting_sessions,omitempty"`
	ConflictingSlots    []AvailabilityInstance `json:"conflicting_slots,omitempty"`
}
