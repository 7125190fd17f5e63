package models

import "time"

// Teacher is a teacher profile under a school. The linked user row carries
// credentials; this row carries roster data.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherSubject maps a teacher to a subject taught in a class.
type TeacherSubject struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Subject   string    `db:"subject" json:"subject"`
	Class     string    `db:"class" json:"class"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TeacherFilter captures list criteria for teachers.
type TeacherFilter struct {
	SchoolID string
	Search   string
	Active   *bool
	Page     int
	PageSize int
}
