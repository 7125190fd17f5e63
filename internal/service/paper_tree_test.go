package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/school-portal-api/internal/models"
)

func collectIDs(p models.Paper) []string {
	var ids []string
	for _, sec := range p.Sections {
		ids = append(ids, sec.ID)
		for _, q := range sec.Questions {
			ids = append(ids, q.ID)
			for _, sp := range q.Subparts {
				ids = append(ids, sp.ID)
			}
		}
	}
	return ids
}

func TestNewDraftPaperDefaults(t *testing.T) {
	p := NewDraftPaper("s1", "t1", "10", "Physics", "Term 1", "3 hours", 20)

	require.Len(t, p.Sections, 1)
	assert.Equal(t, "Section A", p.Sections[0].Name)
	assert.Equal(t, 0, p.Sections[0].DeclaredTotalMarks)
	require.Len(t, p.Sections[0].Questions, 1)
	assert.Equal(t, models.QuestionMCQ, p.Sections[0].Questions[0].Type)
	assert.Equal(t, defaultQuestionMarks, p.Sections[0].Questions[0].Marks)
	assert.Equal(t, models.PaperStatusDraft, p.Status)
}

func TestSectionNaming(t *testing.T) {
	p := NewDraftPaper("s1", "t1", "10", "Physics", "Term 1", "3 hours", 20)
	for i := 0; i < 3; i++ {
		p = AddSection(p)
	}
	require.Len(t, p.Sections, 4)
	assert.Equal(t, "Section B", p.Sections[1].Name)
	assert.Equal(t, "Section C", p.Sections[2].Name)
	assert.Equal(t, "Section D", p.Sections[3].Name)
}

func TestNodeIDUniqueness(t *testing.T) {
	p := NewDraftPaper("s1", "t1", "10", "Physics", "Term 1", "3 hours", 20)
	for i := 0; i < 5; i++ {
		p = AddSection(p)
	}
	for _, sec := range p.Sections {
		p = AddQuestion(p, sec.ID)
		for _, q := range sec.Questions {
			p = AddSubpart(p, sec.ID, q.ID)
		}
	}

	seen := make(map[string]struct{})
	for _, id := range collectIDs(p) {
		_, dup := seen[id]
		require.False(t, dup, "duplicate node id %s", id)
		seen[id] = struct{}{}
	}
}

func TestMutationsDoNotAliasInput(t *testing.T) {
	p := NewDraftPaper("s1", "t1", "10", "Physics", "Term 1", "3 hours", 20)
	secID := p.Sections[0].ID

	next := AddQuestion(p, secID)
	assert.Len(t, p.Sections[0].Questions, 1)
	assert.Len(t, next.Sections[0].Questions, 2)

	name := "Part One"
	renamed := UpdateSection(next, secID, SectionUpdate{Name: &name})
	assert.Equal(t, "Section A", next.Sections[0].Name)
	assert.Equal(t, "Part One", renamed.Sections[0].Name)
}

func TestUpdateQuestionFields(t *testing.T) {
	p := NewDraftPaper("s1", "t1", "10", "History", "Term 1", "3 hours", 80)
	secID := p.Sections[0].ID
	qID := p.Sections[0].Questions[0].ID

	qt := models.QuestionMatchFollowing
	marks := 5
	body := "Match the rulers with their dynasties."
	pairs := []models.MatchPair{{Term: "Akbar", Definition: "Mughal"}}
	p = UpdateQuestion(p, secID, qID, QuestionUpdate{Type: &qt, Marks: &marks, Body: &body, Pairs: &pairs})

	q := p.Sections[0].Questions[0]
	assert.Equal(t, models.QuestionMatchFollowing, q.Type)
	assert.Equal(t, 5, q.Marks)
	assert.Equal(t, body, q.Body)
	require.Len(t, q.Pairs, 1)
	assert.Equal(t, "Akbar", q.Pairs[0].Term)
}

func TestUpdateMissingNodeIsNoop(t *testing.T) {
	p := NewDraftPaper("s1", "t1", "10", "Physics", "Term 1", "3 hours", 20)
	marks := 99
	out := UpdateQuestion(p, "nope", "missing", QuestionUpdate{Marks: &marks})
	assert.Equal(t, p.Sections, out.Sections)

	out = UpdateSection(p, "missing", SectionUpdate{DeclaredTotalMarks: &marks})
	assert.Equal(t, p.Sections, out.Sections)
}

func TestDeleteSectionRemovesSubtree(t *testing.T) {
	p := NewDraftPaper("s1", "t1", "10", "Physics", "Term 1", "3 hours", 20)
	p = AddSection(p)
	doomed := p.Sections[0]
	p = AddQuestion(p, doomed.ID)
	p = AddSubpart(p, doomed.ID, p.Sections[0].Questions[0].ID)

	survivorID := p.Sections[1].ID
	doomedIDs := map[string]struct{}{doomed.ID: {}}
	for _, q := range p.Sections[0].Questions {
		doomedIDs[q.ID] = struct{}{}
		for _, sp := range q.Subparts {
			doomedIDs[sp.ID] = struct{}{}
		}
	}

	p = DeleteSection(p, doomed.ID)
	require.Len(t, p.Sections, 1)
	assert.Equal(t, survivorID, p.Sections[0].ID)
	for _, id := range collectIDs(p) {
		_, gone := doomedIDs[id]
		assert.False(t, gone, "dangling id %s", id)
	}
}

func TestDeleteQuestionAndSubpart(t *testing.T) {
	p := NewDraftPaper("s1", "t1", "10", "Physics", "Term 1", "3 hours", 20)
	secID := p.Sections[0].ID
	qID := p.Sections[0].Questions[0].ID
	p = AddSubpart(p, secID, qID)
	p = AddSubpart(p, secID, qID)
	spID := p.Sections[0].Questions[0].Subparts[0].ID

	p = DeleteSubpart(p, secID, qID, spID)
	require.Len(t, p.Sections[0].Questions[0].Subparts, 1)
	assert.NotEqual(t, spID, p.Sections[0].Questions[0].Subparts[0].ID)

	p = DeleteQuestion(p, secID, qID)
	assert.Empty(t, p.Sections[0].Questions)
}

func TestComputeTotal(t *testing.T) {
	assert.Equal(t, 0, ComputeTotal(models.Paper{}))

	p := NewDraftPaper("s1", "t1", "10", "Physics", "Term 1", "3 hours", 20)
	assert.Equal(t, 2, ComputeTotal(p))

	// addQuestion appends another default question worth 2 marks.
	p = AddQuestion(p, p.Sections[0].ID)
	require.Len(t, p.Sections[0].Questions, 2)
	assert.Equal(t, 4, ComputeTotal(p))
}

func TestComputeTotalIgnoresSubpartMarks(t *testing.T) {
	p := NewDraftPaper("s1", "t1", "10", "Physics", "Term 1", "3 hours", 20)
	secID := p.Sections[0].ID
	qID := p.Sections[0].Questions[0].ID
	p = AddSubpart(p, secID, qID)
	p = AddSubpart(p, secID, qID)

	// Subpart marks ride along inside the question's own marks field.
	assert.Equal(t, 2, ComputeTotal(p))
	assert.Equal(t, 2, SectionTotal(p.Sections[0]))
}

func TestNormalizeQuestionType(t *testing.T) {
	cases := map[string]models.QuestionType{
		"mcq":                 models.QuestionMCQ,
		"Multiple Choice":     models.QuestionMCQ,
		"short answer":        models.QuestionShortAnswer,
		"LONG-ANSWER":         models.QuestionLongAnswer,
		"case study":          models.QuestionCaseStudy,
		"fill in the blanks":  models.QuestionFillInTheBlanks,
		"match the following": models.QuestionMatchFollowing,
	}
	for raw, want := range cases {
		got, ok := models.NormalizeQuestionType(raw)
		require.True(t, ok, raw)
		assert.Equal(t, want, got)
	}

	_, ok := models.NormalizeQuestionType("interpretive dance")
	assert.False(t, ok)
}
