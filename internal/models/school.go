package models

import "time"

// School represents a registered school.
type School struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address"`
	City      string    `db:"city" json:"city"`
	Board     string    `db:"board" json:"board"`
	Phone     string    `db:"phone" json:"phone"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Book is one entry in a school's reference book catalogue.
type Book struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	Title     string    `db:"title" json:"title"`
	Author    string    `db:"author" json:"author"`
	Subject   string    `db:"subject" json:"subject"`
	Class     string    `db:"class" json:"class"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
