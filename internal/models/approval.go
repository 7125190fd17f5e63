package models

import "time"

// ExamRequestStatus tracks an approval request decision.
type ExamRequestStatus string

const (
	ExamRequestPending  ExamRequestStatus = "PENDING"
	ExamRequestApproved ExamRequestStatus = "APPROVED"
	ExamRequestRejected ExamRequestStatus = "REJECTED"
)

// ExamRequest records that a paper awaits an approver's review. The same
// logical fact is fanned out to a teacher-scoped and a school-scoped table so
// each list view reads its own table; both rows are written in one
// transaction together with the paper status change.
type ExamRequest struct {
	ID         string            `db:"id" json:"id"`
	PaperID    string            `db:"paper_id" json:"paper_id"`
	SchoolID   string            `db:"school_id" json:"school_id"`
	TeacherID  string            `db:"teacher_id" json:"teacher_id"`
	ApproverID string            `db:"approver_id" json:"approver_id"`
	Status     ExamRequestStatus `db:"status" json:"status"`
	Message    string            `db:"message" json:"message"`
	DecidedAt  *time.Time        `db:"decided_at" json:"decided_at,omitempty"`
	CreatedAt  time.Time         `db:"created_at" json:"created_at"`
}
