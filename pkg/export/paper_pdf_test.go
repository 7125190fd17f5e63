package export

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/school-portal-api/internal/models"
)

func samplePaper(questions int) models.Paper {
	sec := models.Section{ID: "sec1", Name: "Section A", DeclaredTotalMarks: questions * 2}
	for i := 0; i < questions; i++ {
		sec.Questions = append(sec.Questions, models.Question{
			ID:    fmt.Sprintf("q%d", i),
			Type:  models.QuestionMCQ,
			Marks: 2,
			Body:  fmt.Sprintf("Question body number %d with some reasonably long text to wrap.", i),
			Subparts: []models.Subpart{
				{ID: fmt.Sprintf("q%dsp", i), Marks: 1, Body: "Pick one", Options: []string{"first", "second", "third", "fourth"}},
			},
		})
	}
	return models.Paper{
		ID:                 "p1",
		Class:              "10",
		Subject:            "Physics",
		ExamType:           "Half Yearly",
		Duration:           "3 hours",
		DeclaredTotalMarks: questions * 2,
		Sections:           models.SectionList{sec},
	}
}

func TestPaperPDFRender(t *testing.T) {
	exporter := NewPaperPDFExporter()
	data, err := exporter.Render(samplePaper(3), "Green Valley School")
	require.NoError(t, err)
	assert.True(t, len(data) > 0)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestPaperPDFRenderPaginates(t *testing.T) {
	exporter := NewPaperPDFExporter()
	small, err := exporter.Render(samplePaper(2), "Green Valley School")
	require.NoError(t, err)
	large, err := exporter.Render(samplePaper(60), "Green Valley School")
	require.NoError(t, err)
	assert.Greater(t, len(large), len(small))
}

func TestSubpartLetter(t *testing.T) {
	assert.Equal(t, "a", subpartLetter(0))
	assert.Equal(t, "z", subpartLetter(25))
	assert.Equal(t, "aa", subpartLetter(26))
}
