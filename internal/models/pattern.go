package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PatternSection is one section blueprint inside a paper pattern.
type PatternSection struct {
	Name               string       `json:"name"`
	DeclaredTotalMarks int          `json:"declared_total_marks"`
	QuestionCount      int          `json:"question_count"`
	QuestionType       QuestionType `json:"question_type"`
	MarksPerQuestion   int          `json:"marks_per_question"`
}

// PatternSectionList stores pattern sections as one JSONB document.
type PatternSectionList []PatternSection

// Value implements driver.Valuer.
func (s PatternSectionList) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *PatternSectionList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	}
	return fmt.Errorf("unsupported pattern sections column type %T", src)
}

// PaperPattern is a reusable paper blueprint a teacher instantiates into a
// fresh draft.
type PaperPattern struct {
	ID                 string             `db:"id" json:"id"`
	SchoolID           string             `db:"school_id" json:"school_id"`
	TeacherID          string             `db:"teacher_id" json:"teacher_id"`
	Name               string             `db:"name" json:"name"`
	Class              string             `db:"class" json:"class"`
	Subject            string             `db:"subject" json:"subject"`
	ExamType           string             `db:"exam_type" json:"exam_type"`
	Duration           string             `db:"duration" json:"duration"`
	DeclaredTotalMarks int                `db:"declared_total_marks" json:"declared_total_marks"`
	Sections           PatternSectionList `db:"sections" json:"sections"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
}
