package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/school-portal-api/internal/models"
	"github.com/edustack/school-portal-api/internal/repository"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
	"github.com/edustack/school-portal-api/pkg/jobs"
	"github.com/edustack/school-portal-api/pkg/storage"
)

type mockExportJobs struct {
	jobs map[string]*models.ExportJob
}

func newMockExportJobs() *mockExportJobs {
	return &mockExportJobs{jobs: make(map[string]*models.ExportJob)}
}

func (m *mockExportJobs) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = fmt.Sprintf("job-%d", len(m.jobs)+1)
	}
	job.Status = models.ExportStatusQueued
	job.CreatedAt = time.Now().UTC()
	stored := *job
	m.jobs[job.ID] = &stored
	return nil
}

func (m *mockExportJobs) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *job
	return &out, nil
}

func (m *mockExportJobs) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := m.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.ResultPath != nil {
		job.ResultPath = params.ResultPath
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

type mockSchoolReader struct{}

func (m *mockSchoolReader) FindByID(ctx context.Context, id string) (*models.School, error) {
	return &models.School{ID: id, Name: "Springfield High"}, nil
}

func newExportHarness(t *testing.T) (*ExportService, *mockExportJobs, *mockPaperRepo, *mockLeaveRepo) {
	t.Helper()
	exportJobs := newMockExportJobs()
	papers := newMockPaperRepo()
	leaves := newMockLeaveRepo()
	blobStore, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewExportService(exportJobs, papers, leaves, &mockSchoolReader{}, blobStore, signer, jobs.QueueConfig{}, nil)
	return svc, exportJobs, papers, leaves
}

func TestExportServiceRejectsUnsupportedFormat(t *testing.T) {
	svc, _, papers, _ := newExportHarness(t)
	paper := seedPaper(t, papers)

	_, err := svc.EnqueuePaperExport(context.Background(), paper.SchoolID, "teacher-1", paper.ID, models.ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceEnqueueRejectsOtherSchool(t *testing.T) {
	svc, _, papers, _ := newExportHarness(t)
	paper := seedPaper(t, papers)

	_, err := svc.EnqueuePaperExport(context.Background(), "school-2", "teacher-1", paper.ID, models.ExportFormatJSON)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportServiceProcessRendersJSON(t *testing.T) {
	svc, exportJobs, papers, _ := newExportHarness(t)
	paper := seedPaper(t, papers)

	job := &models.ExportJob{PaperID: paper.ID, Format: models.ExportFormatJSON, CreatedBy: "teacher-1"}
	require.NoError(t, exportJobs.Create(context.Background(), job))

	require.NoError(t, svc.process(context.Background(), jobs.Job{ID: job.ID, Type: "paper_export", Payload: job.ID}))

	stored, err := exportJobs.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, stored.Status)
	require.NotNil(t, stored.ResultPath)
	assert.Equal(t, fmt.Sprintf("papers/%s/%s.json", paper.ID, job.ID), *stored.ResultPath)
	require.NotNil(t, stored.FinishedAt)

	file, _, err := svc.OpenDownload(mustToken(t, svc, stored))
	require.NoError(t, err)
	defer file.Close()
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	var rendered models.Paper
	require.NoError(t, json.Unmarshal(data, &rendered))
	assert.Equal(t, paper.ID, rendered.ID)
}

func TestExportServiceProcessRendersPDF(t *testing.T) {
	svc, exportJobs, papers, _ := newExportHarness(t)
	paper := seedPaper(t, papers)

	job := &models.ExportJob{PaperID: paper.ID, Format: models.ExportFormatPDF, CreatedBy: "teacher-1"}
	require.NoError(t, exportJobs.Create(context.Background(), job))

	require.NoError(t, svc.process(context.Background(), jobs.Job{ID: job.ID, Type: "paper_export", Payload: job.ID}))

	stored, err := exportJobs.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ResultPath)
	assert.True(t, strings.HasSuffix(*stored.ResultPath, ".pdf"))

	file, _, err := svc.OpenDownload(mustToken(t, svc, stored))
	require.NoError(t, err)
	defer file.Close()
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.True(t, len(data) > 0)
}

func TestExportServiceProcessMarksFailedOnMissingPaper(t *testing.T) {
	svc, exportJobs, _, _ := newExportHarness(t)

	job := &models.ExportJob{PaperID: "missing", Format: models.ExportFormatJSON, CreatedBy: "teacher-1"}
	require.NoError(t, exportJobs.Create(context.Background(), job))

	err := svc.process(context.Background(), jobs.Job{ID: job.ID, Type: "paper_export", Payload: job.ID})
	require.Error(t, err)

	stored, err := exportJobs.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
}

func TestExportServiceGetJobSignsDownloadURL(t *testing.T) {
	svc, exportJobs, papers, _ := newExportHarness(t)
	paper := seedPaper(t, papers)

	job := &models.ExportJob{PaperID: paper.ID, Format: models.ExportFormatJSON, CreatedBy: "teacher-1"}
	require.NoError(t, exportJobs.Create(context.Background(), job))
	require.NoError(t, svc.process(context.Background(), jobs.Job{ID: job.ID, Type: "paper_export", Payload: job.ID}))

	got, err := svc.GetJob(context.Background(), "teacher-1", job.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DownloadURL)
	assert.True(t, strings.HasPrefix(*got.DownloadURL, "/api/v1/exports/download/"))

	_, err = svc.GetJob(context.Background(), "teacher-2", job.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportServiceOpenDownloadRejectsBadToken(t *testing.T) {
	svc, _, _, _ := newExportHarness(t)

	_, _, err := svc.OpenDownload("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestExportServiceLeaveCSV(t *testing.T) {
	svc, _, _, leaves := newExportHarness(t)
	require.NoError(t, leaves.Create(context.Background(), &models.LeaveApplication{
		SchoolID:  "school-1",
		TeacherID: "teacher-1",
		FromDate:  time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		ToDate:    time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC),
		Reason:    "medical",
		Status:    models.LeavePending,
	}))

	data, err := svc.LeaveCSV(context.Background(), models.LeaveFilter{SchoolID: "school-1"})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,teacher_id,from_date,to_date,reason,status", lines[0])
	assert.Contains(t, lines[1], "2026-09-07")
	assert.Contains(t, lines[1], "medical")
}

func TestExportServicePapersCSV(t *testing.T) {
	svc, _, papers, _ := newExportHarness(t)
	seedPaper(t, papers)

	data, err := svc.PapersCSV(context.Background(), models.PaperFilter{SchoolID: "school-1"})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,class,subject,exam_type,status,declared_total_marks,updated_at", lines[0])
	assert.Contains(t, lines[1], "Physics")
	assert.Contains(t, lines[1], "80")
}

func mustToken(t *testing.T, svc *ExportService, job *models.ExportJob) string {
	t.Helper()
	require.NotNil(t, job.ResultPath)
	token, _, err := svc.signer.Generate(job.ID, *job.ResultPath)
	require.NoError(t, err)
	return token
}
