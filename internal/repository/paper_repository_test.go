package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/edustack/school-portal-api/internal/models"
)

func newPaperRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func paperRows(id string, version int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "school_id", "teacher_id", "class", "subject", "exam_type", "duration", "declared_total_marks", "status", "version", "sections", "created_at", "updated_at"}).
		AddRow(id, "school-1", "teacher-1", "10", "Physics", "Half Yearly", "3 hrs", 80, "DRAFT", version, []byte(`[]`), time.Now(), time.Now())
}

func TestPaperRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newPaperRepoMock(t)
	defer cleanup()

	repo := NewPaperRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO question_papers")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	paper := &models.Paper{
		SchoolID:           "school-1",
		TeacherID:          "teacher-1",
		Class:              "10",
		Subject:            "Physics",
		ExamType:           "Half Yearly",
		Duration:           "3 hrs",
		DeclaredTotalMarks: 80,
		Status:             models.PaperStatusDraft,
	}
	require.NoError(t, repo.Create(context.Background(), paper))
	require.NotEmpty(t, paper.ID)
	require.Equal(t, 1, paper.Version)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, school_id, teacher_id")).
		WithArgs(paper.ID).
		WillReturnRows(paperRows(paper.ID, 1))

	found, err := repo.FindByID(context.Background(), paper.ID)
	require.NoError(t, err)
	require.Equal(t, paper.ID, found.ID)
	require.Equal(t, "Physics", found.Subject)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaperRepositoryUpdateAdvancesVersion(t *testing.T) {
	db, mock, cleanup := newPaperRepoMock(t)
	defer cleanup()

	repo := NewPaperRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE question_papers")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	paper := &models.Paper{ID: "paper-1", Version: 3, Status: models.PaperStatusDraft}
	require.NoError(t, repo.Update(context.Background(), paper))
	require.Equal(t, 4, paper.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaperRepositoryUpdateVersionConflict(t *testing.T) {
	db, mock, cleanup := newPaperRepoMock(t)
	defer cleanup()

	repo := NewPaperRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE question_papers")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	paper := &models.Paper{ID: "paper-1", Version: 2}
	err := repo.Update(context.Background(), paper)
	require.ErrorIs(t, err, ErrVersionConflict)
	require.Equal(t, 2, paper.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaperRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newPaperRepoMock(t)
	defer cleanup()

	repo := NewPaperRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, school_id, teacher_id")).
		WithArgs("school-1", "DRAFT").
		WillReturnRows(paperRows("paper-1", 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM question_papers")).
		WithArgs("school-1", "DRAFT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	papers, total, err := repo.List(context.Background(), models.PaperFilter{
		SchoolID: "school-1",
		Status:   models.PaperStatusDraft,
	})
	require.NoError(t, err)
	require.Len(t, papers, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
