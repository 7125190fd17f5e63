package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/edustack/school-portal-api/internal/models"
	"github.com/edustack/school-portal-api/internal/repository"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
	"github.com/edustack/school-portal-api/pkg/export"
	"github.com/edustack/school-portal-api/pkg/jobs"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
}

type exportSchoolReader interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
}

type exportBlobStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type downloadSigner interface {
	Generate(jobID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
}

// ExportService renders paper exports in the background: an enqueue writes a
// job record, a worker renders the artifact into blob storage, and the result
// is downloaded through a signed URL. On-demand CSV listings render inline.
type ExportService struct {
	queue      *jobs.Queue
	exportJobs exportJobStore
	papers     paperRepository
	leaves     leaveRepository
	schools    exportSchoolReader
	storage    exportBlobStore
	signer     downloadSigner
	pdf        *export.PaperPDFExporter
	logger     *zap.Logger
}

// NewExportService constructs an ExportService and its worker queue. Call
// Start before enqueueing and Stop on shutdown.
func NewExportService(exportJobs exportJobStore, papers paperRepository, leaves leaveRepository, schools exportSchoolReader, blobStore exportBlobStore, signer downloadSigner, queueCfg jobs.QueueConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExportService{
		exportJobs: exportJobs,
		papers:     papers,
		leaves:     leaves,
		schools:    schools,
		storage:    blobStore,
		signer:     signer,
		pdf:        export.NewPaperPDFExporter(),
		logger:     logger,
	}
	queueCfg.Logger = logger
	s.queue = jobs.NewQueue("paper-export", s.process, queueCfg)
	return s
}

// Start launches the export workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// EnqueuePaperExport queues a background render of the paper.
func (s *ExportService) EnqueuePaperExport(ctx context.Context, schoolID, userID, paperID string, format models.ExportFormat) (*models.ExportJob, error) {
	if format != models.ExportFormatPDF && format != models.ExportFormatJSON {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	paper, err := s.papers.FindByID(ctx, paperID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "paper not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load paper")
	}
	if paper.SchoolID != schoolID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "paper belongs to another school")
	}

	job := &models.ExportJob{
		PaperID:   paperID,
		Format:    format,
		CreatedBy: userID,
	}
	if err := s.exportJobs.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "paper_export", Payload: job.ID}); err != nil {
		s.markFailed(context.Background(), job.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}
	return job, nil
}

// GetJob returns an export job with a signed download URL when finished.
func (s *ExportService) GetJob(ctx context.Context, userID, jobID string) (*models.ExportJob, error) {
	job, err := s.exportJobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.CreatedBy != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export job belongs to another user")
	}

	if job.Status == models.ExportStatusFinished && job.ResultPath != nil {
		token, _, err := s.signer.Generate(job.ID, *job.ResultPath)
		if err != nil {
			s.logger.Warn("failed to sign download url", zap.Error(err))
		} else {
			url := "/api/v1/exports/download/" + token
			job.DownloadURL = &url
		}
	}
	return job, nil
}

// OpenDownload validates a signed token and opens the stored artifact.
func (s *ExportService) OpenDownload(token string) (*os.File, *models.ExportJob, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link")
	}
	job, err := s.exportJobs.GetByID(context.Background(), jobID)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	if job.ResultPath == nil || *job.ResultPath != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "download link does not match the export")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return file, job, nil
}

// LeaveCSV renders a school's leave applications as CSV.
func (s *ExportService) LeaveCSV(ctx context.Context, filter models.LeaveFilter) ([]byte, error) {
	filter.PageSize = 1000
	leaves, _, err := s.leaves.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leave applications")
	}
	table := export.NewTable("id", "teacher_id", "from_date", "to_date", "reason", "status")
	for _, leave := range leaves {
		table.AddRow(
			leave.ID,
			leave.TeacherID,
			leave.FromDate.Format("2006-01-02"),
			leave.ToDate.Format("2006-01-02"),
			leave.Reason,
			string(leave.Status),
		)
	}
	data, err := table.CSV()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return data, nil
}

// PapersCSV renders a paper listing as CSV.
func (s *ExportService) PapersCSV(ctx context.Context, filter models.PaperFilter) ([]byte, error) {
	filter.PageSize = 1000
	papers, _, err := s.papers.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list papers")
	}
	table := export.NewTable("id", "class", "subject", "exam_type", "status", "declared_total_marks", "updated_at")
	for _, paper := range papers {
		table.AddRow(
			paper.ID,
			paper.Class,
			paper.Subject,
			paper.ExamType,
			string(paper.Status),
			strconv.Itoa(paper.DeclaredTotalMarks),
			paper.UpdatedAt.Format(time.RFC3339),
		)
	}
	data, err := table.CSV()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return data, nil
}

func (s *ExportService) process(ctx context.Context, job jobs.Job) error {
	jobID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("unexpected export payload %T", job.Payload)
	}

	record, err := s.exportJobs.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load export job: %w", err)
	}

	processing := models.ExportStatusProcessing
	if err := s.exportJobs.Update(ctx, jobID, repository.UpdateExportJobParams{Status: &processing}); err != nil {
		s.logger.Warn("failed to mark export processing", zap.Error(err))
	}

	paper, err := s.papers.FindByID(ctx, record.PaperID)
	if err != nil {
		s.markFailed(ctx, jobID, err)
		return fmt.Errorf("load paper: %w", err)
	}

	var data []byte
	var ext string
	switch record.Format {
	case models.ExportFormatJSON:
		data, err = json.MarshalIndent(paper, "", "  ")
		ext = "json"
	default:
		schoolName := ""
		if school, schoolErr := s.schools.FindByID(ctx, paper.SchoolID); schoolErr == nil {
			schoolName = school.Name
		}
		data, err = s.pdf.Render(*paper, schoolName)
		ext = "pdf"
	}
	if err != nil {
		s.markFailed(ctx, jobID, err)
		return fmt.Errorf("render export: %w", err)
	}

	relPath := fmt.Sprintf("papers/%s/%s.%s", paper.ID, jobID, ext)
	if _, err := s.storage.Save(relPath, data); err != nil {
		s.markFailed(ctx, jobID, err)
		return fmt.Errorf("store export: %w", err)
	}

	finished := models.ExportStatusFinished
	now := time.Now().UTC()
	if err := s.exportJobs.Update(ctx, jobID, repository.UpdateExportJobParams{
		Status:     &finished,
		ResultPath: &relPath,
		FinishedAt: &now,
	}); err != nil {
		return fmt.Errorf("finalise export job: %w", err)
	}

	s.logger.Info("export finished",
		zap.String("job_id", jobID),
		zap.String("paper_id", paper.ID),
		zap.String("format", string(record.Format)))
	return nil
}

func (s *ExportService) markFailed(ctx context.Context, jobID string, cause error) {
	failed := models.ExportStatusFailed
	message := cause.Error()
	now := time.Now().UTC()
	if err := s.exportJobs.Update(ctx, jobID, repository.UpdateExportJobParams{
		Status:       &failed,
		ErrorMessage: &message,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Warn("failed to mark export failed", zap.Error(err))
	}
}
