package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// GeneratedKind enumerates AI-generated artifact categories.
type GeneratedKind string

const (
	GeneratedQuiz      GeneratedKind = "QUIZ"
	GeneratedStudyPlan GeneratedKind = "STUDY_PLAN"
	GeneratedMindMap   GeneratedKind = "MIND_MAP"
	GeneratedSummary   GeneratedKind = "SUMMARY"
	GeneratedPaper     GeneratedKind = "PAPER"
)

// GeneratedPayload is the artifact body persisted as JSONB.
type GeneratedPayload json.RawMessage

// Value implements driver.Valuer.
func (p GeneratedPayload) Value() (driver.Value, error) {
	if len(p) == 0 {
		return []byte("{}"), nil
	}
	return []byte(p), nil
}

// Scan implements sql.Scanner.
func (p *GeneratedPayload) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		*p = append((*p)[:0], v...)
		return nil
	case string:
		*p = GeneratedPayload(v)
		return nil
	}
	return fmt.Errorf("unsupported payload column type %T", src)
}

// MarshalJSON renders the payload inline.
func (p GeneratedPayload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return []byte(p), nil
}

// UnmarshalJSON stores the raw bytes.
func (p *GeneratedPayload) UnmarshalJSON(data []byte) error {
	*p = append((*p)[:0], data...)
	return nil
}

// GeneratedContent is one persisted AI-generated artifact.
type GeneratedContent struct {
	ID        string           `db:"id" json:"id"`
	SchoolID  string           `db:"school_id" json:"school_id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Kind      GeneratedKind    `db:"kind" json:"kind"`
	Title     string           `db:"title" json:"title"`
	Payload   GeneratedPayload `db:"payload" json:"payload"`
	Model     string           `db:"model" json:"model"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// QuizQuestion is one generated quiz item.
type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
}

// Quiz is the expected shape of a quiz generation response.
type Quiz struct {
	Topic     string         `json:"topic"`
	Questions []QuizQuestion `json:"questions"`
}

// StudyPlanDay is one day of a generated study plan.
type StudyPlanDay struct {
	Day        int      `json:"day"`
	Focus      string   `json:"focus"`
	Activities []string `json:"activities"`
}

// StudyPlan is the expected shape of a study plan response.
type StudyPlan struct {
	Subject string         `json:"subject"`
	Days    []StudyPlanDay `json:"days"`
}

// MindMapNode is one node of a generated mind map.
type MindMapNode struct {
	Topic    string        `json:"topic"`
	Children []MindMapNode `json:"children,omitempty"`
}

// MindMap wraps the root node of a mind map response.
type MindMap struct {
	Root MindMapNode `json:"root"`
}

// Summary is the expected shape of a document/web summary response.
type Summary struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}
