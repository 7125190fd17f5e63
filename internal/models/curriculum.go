package models

import "time"

// CurriculumStatus tracks chapter completion.
type CurriculumStatus string

const (
	CurriculumPlanned    CurriculumStatus = "PLANNED"
	CurriculumInProgress CurriculumStatus = "IN_PROGRESS"
	CurriculumCompleted  CurriculumStatus = "COMPLETED"
)

// CurriculumEntry is one chapter/topic a teacher plans for a class+subject.
type CurriculumEntry struct {
	ID          string           `db:"id" json:"id"`
	SchoolID    string           `db:"school_id" json:"school_id"`
	TeacherID   string           `db:"teacher_id" json:"teacher_id"`
	Subject     string           `db:"subject" json:"subject"`
	Class       string           `db:"class" json:"class"`
	Chapter     string           `db:"chapter" json:"chapter"`
	Topic       string           `db:"topic" json:"topic"`
	Status      CurriculumStatus `db:"status" json:"status"`
	CompletedAt *time.Time       `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// TeachingLog is a daily class log entry.
type TeachingLog struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Class     string    `db:"class" json:"class"`
	Subject   string    `db:"subject" json:"subject"`
	Topic     string    `db:"topic" json:"topic"`
	Notes     string    `db:"notes" json:"notes"`
	LogDate   time.Time `db:"log_date" json:"log_date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
