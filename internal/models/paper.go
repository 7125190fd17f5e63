package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PaperStatus tracks the workflow stage of a question paper.
type PaperStatus string

const (
	PaperStatusDraft           PaperStatus = "DRAFT"
	PaperStatusPendingApproval PaperStatus = "PENDING_APPROVAL"
	PaperStatusSet             PaperStatus = "SET"
	PaperStatusApproved        PaperStatus = "APPROVED"
)

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionMCQ             QuestionType = "MCQ"
	QuestionShortAnswer     QuestionType = "SHORT_ANSWER"
	QuestionLongAnswer      QuestionType = "LONG_ANSWER"
	QuestionCaseStudy       QuestionType = "CASE_STUDY"
	QuestionFillInTheBlanks QuestionType = "FILL_IN_THE_BLANKS"
	QuestionMatchFollowing  QuestionType = "MATCH_THE_FOLLOWING"
)

// NormalizeQuestionType resolves free-form type labels (editor input, AI
// output) into the closed QuestionType set. Unknown labels return false.
func NormalizeQuestionType(raw string) (QuestionType, bool) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	switch key {
	case "MCQ", "MULTIPLE_CHOICE", "MULTIPLE_CHOICE_QUESTION", "OBJECTIVE":
		return QuestionMCQ, true
	case "SHORT_ANSWER", "SHORT", "VERY_SHORT_ANSWER":
		return QuestionShortAnswer, true
	case "LONG_ANSWER", "LONG", "DESCRIPTIVE", "ESSAY":
		return QuestionLongAnswer, true
	case "CASE_STUDY", "CASE_BASED", "SOURCE_BASED":
		return QuestionCaseStudy, true
	case "FILL_IN_THE_BLANKS", "FILL_IN_THE_BLANK", "FILL_BLANKS", "FIB":
		return QuestionFillInTheBlanks, true
	case "MATCH_THE_FOLLOWING", "MATCHING", "MATCH":
		return QuestionMatchFollowing, true
	}
	return "", false
}

// MatchPair is one term/definition row of a match-the-following question.
type MatchPair struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Subpart is the innermost node of the paper tree. Options are only
// populated for MCQ subparts.
type Subpart struct {
	ID      string   `json:"id"`
	Marks   int      `json:"marks"`
	Body    string   `json:"body"`
	Options []string `json:"options,omitempty"`
}

// Question holds one question and its owned subparts or pairs.
type Question struct {
	ID       string       `json:"id"`
	Type     QuestionType `json:"type"`
	Marks    int          `json:"marks"`
	Body     string       `json:"body"`
	Subparts []Subpart    `json:"subparts,omitempty"`
	Pairs    []MatchPair  `json:"pairs,omitempty"`
}

// Section groups questions under a named heading with a declared target.
type Section struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	DeclaredTotalMarks int        `json:"declared_total_marks"`
	Questions          []Question `json:"questions"`
}

// SectionList is the paper tree as stored: a single JSONB document that is
// rewritten in full on every save.
type SectionList []Section

// Value implements driver.Valuer for JSONB storage.
func (s SectionList) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (s *SectionList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	}
	return fmt.Errorf("unsupported sections column type %T", src)
}

// Paper is a full question paper record. Sections are owned inline; the
// store never holds references into the tree.
type Paper struct {
	ID                 string      `db:"id" json:"id"`
	SchoolID           string      `db:"school_id" json:"school_id"`
	TeacherID          string      `db:"teacher_id" json:"teacher_id"`
	Class              string      `db:"class" json:"class"`
	Subject            string      `db:"subject" json:"subject"`
	ExamType           string      `db:"exam_type" json:"exam_type"`
	Duration           string      `db:"duration" json:"duration"`
	DeclaredTotalMarks int         `db:"declared_total_marks" json:"declared_total_marks"`
	Status             PaperStatus `db:"status" json:"status"`
	Version            int         `db:"version" json:"version"`
	Sections           SectionList `db:"sections" json:"sections"`
	CreatedAt          time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at" json:"updated_at"`
}

// Clone returns a deep copy of the paper so that tree operations can hand
// back fresh snapshots without sharing slices with the original.
func (p Paper) Clone() Paper {
	out := p
	out.Sections = make(SectionList, len(p.Sections))
	for i, sec := range p.Sections {
		out.Sections[i] = sec.clone()
	}
	return out
}

func (s Section) clone() Section {
	out := s
	out.Questions = make([]Question, len(s.Questions))
	for i, q := range s.Questions {
		out.Questions[i] = q.clone()
	}
	return out
}

func (q Question) clone() Question {
	out := q
	if q.Subparts != nil {
		out.Subparts = make([]Subpart, len(q.Subparts))
		for i, sp := range q.Subparts {
			out.Subparts[i] = sp.clone()
		}
	}
	if q.Pairs != nil {
		out.Pairs = append([]MatchPair(nil), q.Pairs...)
	}
	return out
}

func (sp Subpart) clone() Subpart {
	out := sp
	if sp.Options != nil {
		out.Options = append([]string(nil), sp.Options...)
	}
	return out
}

// PaperFilter captures list query criteria for papers.
type PaperFilter struct {
	SchoolID  string
	TeacherID string
	Status    PaperStatus
	Class     string
	Subject   string
	Page      int
	PageSize  int
}
