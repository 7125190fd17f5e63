package models

import "time"

// LeaveStatus tracks a leave application decision.
type LeaveStatus string

const (
	LeavePending  LeaveStatus = "PENDING"
	LeaveApproved LeaveStatus = "APPROVED"
	LeaveRejected LeaveStatus = "REJECTED"
)

// LeaveApplication is a teacher's leave request reviewed by the school admin.
type LeaveApplication struct {
	ID        string      `db:"id" json:"id"`
	SchoolID  string      `db:"school_id" json:"school_id"`
	TeacherID string      `db:"teacher_id" json:"teacher_id"`
	FromDate  time.Time   `db:"from_date" json:"from_date"`
	ToDate    time.Time   `db:"to_date" json:"to_date"`
	Reason    string      `db:"reason" json:"reason"`
	Status    LeaveStatus `db:"status" json:"status"`
	DecidedBy *string     `db:"decided_by" json:"decided_by,omitempty"`
	DecidedAt *time.Time  `db:"decided_at" json:"decided_at,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// LeaveFilter scopes leave application listings.
type LeaveFilter struct {
	SchoolID  string
	TeacherID string
	Status    LeaveStatus
	Page      int
	PageSize  int
}
