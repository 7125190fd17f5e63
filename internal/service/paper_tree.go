package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/edustack/school-portal-api/internal/models"
)

// Default node values applied by the editor when structure is added.
const (
	defaultQuestionMarks = 2
	defaultSubpartMarks  = 1
)

// Paper tree operations. Every operation returns a fresh deep copy so the
// caller can treat each mutation as an independent snapshot; the input tree
// is never modified. Operations addressing a missing node return the tree
// unchanged (still a copy). Field values are stored as given without
// validation; inconsistencies surface through the marks mismatch check.

func newNodeID() string {
	return uuid.NewString()
}

// sectionName derives the default display name from the positional index:
// "Section A", "Section B", ... wrapping to "AA" style past 26.
func sectionName(index int) string {
	letters := ""
	n := index
	for {
		letters = string(rune('A'+n%26)) + letters
		n = n/26 - 1
		if n < 0 {
			break
		}
	}
	return fmt.Sprintf("Section %s", letters)
}

func defaultSubpart() models.Subpart {
	return models.Subpart{ID: newNodeID(), Marks: defaultSubpartMarks}
}

func defaultQuestion() models.Question {
	return models.Question{ID: newNodeID(), Type: models.QuestionMCQ, Marks: defaultQuestionMarks}
}

func defaultSection(index int) models.Section {
	return models.Section{
		ID:        newNodeID(),
		Name:      sectionName(index),
		Questions: []models.Question{defaultQuestion()},
	}
}

// NewDraftPaper builds the manual editor's starting state: one default
// section holding one default question.
func NewDraftPaper(schoolID, teacherID, class, subject, examType, duration string, declaredTotal int) models.Paper {
	return models.Paper{
		SchoolID:           schoolID,
		TeacherID:          teacherID,
		Class:              class,
		Subject:            subject,
		ExamType:           examType,
		Duration:           duration,
		DeclaredTotalMarks: declaredTotal,
		Status:             models.PaperStatusDraft,
		Sections:           models.SectionList{defaultSection(0)},
	}
}

// AddSection appends a new default section.
func AddSection(p models.Paper) models.Paper {
	out := p.Clone()
	out.Sections = append(out.Sections, defaultSection(len(out.Sections)))
	return out
}

// SectionUpdate is the closed set of section fields the editor may change.
// Nil fields are left untouched.
type SectionUpdate struct {
	Name               *string `json:"name,omitempty"`
	DeclaredTotalMarks *int    `json:"declared_total_marks,omitempty"`
}

// UpdateSection applies the update to the matching section.
func UpdateSection(p models.Paper, sectionID string, upd SectionUpdate) models.Paper {
	out := p.Clone()
	for i := range out.Sections {
		if out.Sections[i].ID != sectionID {
			continue
		}
		if upd.Name != nil {
			out.Sections[i].Name = *upd.Name
		}
		if upd.DeclaredTotalMarks != nil {
			out.Sections[i].DeclaredTotalMarks = *upd.DeclaredTotalMarks
		}
	}
	return out
}

// DeleteSection removes the section and its whole subtree.
func DeleteSection(p models.Paper, sectionID string) models.Paper {
	out := p.Clone()
	kept := out.Sections[:0]
	for _, sec := range out.Sections {
		if sec.ID != sectionID {
			kept = append(kept, sec)
		}
	}
	out.Sections = kept
	return out
}

// AddQuestion appends a default question to the named section.
func AddQuestion(p models.Paper, sectionID string) models.Paper {
	out := p.Clone()
	for i := range out.Sections {
		if out.Sections[i].ID == sectionID {
			out.Sections[i].Questions = append(out.Sections[i].Questions, defaultQuestion())
		}
	}
	return out
}

// QuestionUpdate is the closed set of question fields the editor may change.
type QuestionUpdate struct {
	Type  *models.QuestionType `json:"type,omitempty"`
	Marks *int                 `json:"marks,omitempty"`
	Body  *string              `json:"body,omitempty"`
	Pairs *[]models.MatchPair  `json:"pairs,omitempty"`
}

// UpdateQuestion applies the update to the matching question.
func UpdateQuestion(p models.Paper, sectionID, questionID string, upd QuestionUpdate) models.Paper {
	out := p.Clone()
	q := findQuestion(&out, sectionID, questionID)
	if q == nil {
		return out
	}
	if upd.Type != nil {
		q.Type = *upd.Type
	}
	if upd.Marks != nil {
		q.Marks = *upd.Marks
	}
	if upd.Body != nil {
		q.Body = *upd.Body
	}
	if upd.Pairs != nil {
		q.Pairs = append([]models.MatchPair(nil), (*upd.Pairs)...)
	}
	return out
}

// DeleteQuestion removes the question and its subparts.
func DeleteQuestion(p models.Paper, sectionID, questionID string) models.Paper {
	out := p.Clone()
	for i := range out.Sections {
		if out.Sections[i].ID != sectionID {
			continue
		}
		kept := out.Sections[i].Questions[:0]
		for _, q := range out.Sections[i].Questions {
			if q.ID != questionID {
				kept = append(kept, q)
			}
		}
		out.Sections[i].Questions = kept
	}
	return out
}

// AddSubpart appends a default subpart to the matching question.
func AddSubpart(p models.Paper, sectionID, questionID string) models.Paper {
	out := p.Clone()
	q := findQuestion(&out, sectionID, questionID)
	if q == nil {
		return out
	}
	q.Subparts = append(q.Subparts, defaultSubpart())
	return out
}

// SubpartUpdate is the closed set of subpart fields the editor may change.
type SubpartUpdate struct {
	Marks   *int      `json:"marks,omitempty"`
	Body    *string   `json:"body,omitempty"`
	Options *[]string `json:"options,omitempty"`
}

// UpdateSubpart applies the update to the matching subpart.
func UpdateSubpart(p models.Paper, sectionID, questionID, subpartID string, upd SubpartUpdate) models.Paper {
	out := p.Clone()
	q := findQuestion(&out, sectionID, questionID)
	if q == nil {
		return out
	}
	for i := range q.Subparts {
		if q.Subparts[i].ID != subpartID {
			continue
		}
		if upd.Marks != nil {
			q.Subparts[i].Marks = *upd.Marks
		}
		if upd.Body != nil {
			q.Subparts[i].Body = *upd.Body
		}
		if upd.Options != nil {
			q.Subparts[i].Options = append([]string(nil), (*upd.Options)...)
		}
	}
	return out
}

// DeleteSubpart removes the matching subpart.
func DeleteSubpart(p models.Paper, sectionID, questionID, subpartID string) models.Paper {
	out := p.Clone()
	q := findQuestion(&out, sectionID, questionID)
	if q == nil {
		return out
	}
	kept := q.Subparts[:0]
	for _, sp := range q.Subparts {
		if sp.ID != subpartID {
			kept = append(kept, sp)
		}
	}
	q.Subparts = kept
	return out
}

func findQuestion(p *models.Paper, sectionID, questionID string) *models.Question {
	for i := range p.Sections {
		if p.Sections[i].ID != sectionID {
			continue
		}
		for j := range p.Sections[i].Questions {
			if p.Sections[i].Questions[j].ID == questionID {
				return &p.Sections[i].Questions[j]
			}
		}
	}
	return nil
}

// SectionTotal sums question marks within one section. Subpart marks are not
// added separately; the question's marks field is expected to carry them.
func SectionTotal(s models.Section) int {
	total := 0
	for _, q := range s.Questions {
		total += q.Marks
	}
	return total
}

// ComputeTotal sums question marks across the whole paper.
func ComputeTotal(p models.Paper) int {
	total := 0
	for _, sec := range p.Sections {
		total += SectionTotal(sec)
	}
	return total
}
