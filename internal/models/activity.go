package models

import "time"

// Activity action constants recorded on the user trail.
const (
	ActivityLogin         = "LOGIN"
	ActivityPaperSave     = "PAPER_SAVE"
	ActivityPaperApproval = "PAPER_APPROVAL"
	ActivityGeneration    = "GENERATION"
	ActivityLeaveApply    = "LEAVE_APPLY"
	ActivityLeaveDecide   = "LEAVE_DECIDE"
)

// UserActivity is one entry in a user's activity trail.
type UserActivity struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Detail     []byte    `db:"detail" json:"detail,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
