package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/school-portal-api/internal/models"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
)

type mockCurriculumRepo struct {
	entries map[string]*models.CurriculumEntry
	logs    []models.TeachingLog
}

func newMockCurriculumRepo() *mockCurriculumRepo {
	return &mockCurriculumRepo{entries: make(map[string]*models.CurriculumEntry)}
}

func (m *mockCurriculumRepo) CreateEntry(ctx context.Context, entry *models.CurriculumEntry) error {
	if entry.ID == "" {
		entry.ID = "entry-1"
	}
	stored := *entry
	m.entries[entry.ID] = &stored
	return nil
}

func (m *mockCurriculumRepo) FindEntryByID(ctx context.Context, id string) (*models.CurriculumEntry, error) {
	entry, ok := m.entries[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *entry
	return &out, nil
}

func (m *mockCurriculumRepo) ListEntries(ctx context.Context, teacherID, subject, class string) ([]models.CurriculumEntry, error) {
	var out []models.CurriculumEntry
	for _, entry := range m.entries {
		if entry.TeacherID != teacherID {
			continue
		}
		if subject != "" && entry.Subject != subject {
			continue
		}
		out = append(out, *entry)
	}
	return out, nil
}

func (m *mockCurriculumRepo) UpdateEntry(ctx context.Context, entry *models.CurriculumEntry) error {
	stored := *entry
	m.entries[entry.ID] = &stored
	return nil
}

func (m *mockCurriculumRepo) DeleteEntry(ctx context.Context, teacherID, id string) error {
	delete(m.entries, id)
	return nil
}

func (m *mockCurriculumRepo) CreateLog(ctx context.Context, log *models.TeachingLog) error {
	if log.ID == "" {
		log.ID = "log-1"
	}
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockCurriculumRepo) ListLogs(ctx context.Context, teacherID string, from, to *time.Time) ([]models.TeachingLog, error) {
	return m.logs, nil
}

func TestCurriculumServiceCreateEntryStartsPlanned(t *testing.T) {
	repo := newMockCurriculumRepo()
	svc := NewCurriculumService(repo, nil, nil)

	entry, err := svc.CreateEntry(context.Background(), "school-1", "teacher-1", CreateCurriculumEntryRequest{
		Subject: "Physics", Class: "10", Chapter: "Optics",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CurriculumPlanned, entry.Status)
	assert.Nil(t, entry.CompletedAt)
}

func TestCurriculumServiceCompleteStampsTimeOnce(t *testing.T) {
	repo := newMockCurriculumRepo()
	svc := NewCurriculumService(repo, nil, nil)
	entry, err := svc.CreateEntry(context.Background(), "school-1", "teacher-1", CreateCurriculumEntryRequest{
		Subject: "Physics", Class: "10", Chapter: "Optics",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateEntry(context.Background(), "teacher-1", entry.ID, UpdateCurriculumEntryRequest{
		Status: models.CurriculumCompleted,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)
	first := *updated.CompletedAt

	updated, err = svc.UpdateEntry(context.Background(), "teacher-1", entry.ID, UpdateCurriculumEntryRequest{
		Status: models.CurriculumCompleted,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)
	assert.Equal(t, first, *updated.CompletedAt)
}

func TestCurriculumServiceUpdateRejectsOtherTeacher(t *testing.T) {
	repo := newMockCurriculumRepo()
	svc := NewCurriculumService(repo, nil, nil)
	entry, err := svc.CreateEntry(context.Background(), "school-1", "teacher-1", CreateCurriculumEntryRequest{
		Subject: "Physics", Class: "10", Chapter: "Optics",
	})
	require.NoError(t, err)

	_, err = svc.UpdateEntry(context.Background(), "teacher-2", entry.ID, UpdateCurriculumEntryRequest{Topic: "Lenses"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCurriculumServiceUpdateRejectsUnknownStatus(t *testing.T) {
	repo := newMockCurriculumRepo()
	svc := NewCurriculumService(repo, nil, nil)

	_, err := svc.UpdateEntry(context.Background(), "teacher-1", "entry-1", UpdateCurriculumEntryRequest{
		Status: models.CurriculumStatus("DONE"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCurriculumServiceLogDateDefaultsToNow(t *testing.T) {
	repo := newMockCurriculumRepo()
	svc := NewCurriculumService(repo, nil, nil)

	before := time.Now().UTC()
	log, err := svc.CreateLog(context.Background(), "school-1", "teacher-1", CreateTeachingLogRequest{
		Class: "10", Subject: "Physics", Topic: "Refraction",
	})
	require.NoError(t, err)
	assert.False(t, log.LogDate.Before(before))

	explicit := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	log, err = svc.CreateLog(context.Background(), "school-1", "teacher-1", CreateTeachingLogRequest{
		Class: "10", Subject: "Physics", Topic: "Reflection", LogDate: explicit,
	})
	require.NoError(t, err)
	assert.Equal(t, explicit, log.LogDate)
}
