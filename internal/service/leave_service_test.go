package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/school-portal-api/internal/models"
	"github.com/edustack/school-portal-api/internal/repository"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
)

type mockLeaveRepo struct {
	leaves map[string]*models.LeaveApplication
}

func newMockLeaveRepo() *mockLeaveRepo {
	return &mockLeaveRepo{leaves: make(map[string]*models.LeaveApplication)}
}

func (m *mockLeaveRepo) Create(ctx context.Context, leave *models.LeaveApplication) error {
	if leave.ID == "" {
		leave.ID = "leave-1"
	}
	leave.CreatedAt = time.Now().UTC()
	stored := *leave
	m.leaves[leave.ID] = &stored
	return nil
}

func (m *mockLeaveRepo) FindByID(ctx context.Context, id string) (*models.LeaveApplication, error) {
	leave, ok := m.leaves[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *leave
	return &out, nil
}

func (m *mockLeaveRepo) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveApplication, int, error) {
	var out []models.LeaveApplication
	for _, leave := range m.leaves {
		if filter.TeacherID != "" && leave.TeacherID != filter.TeacherID {
			continue
		}
		out = append(out, *leave)
	}
	return out, len(out), nil
}

func (m *mockLeaveRepo) Decide(ctx context.Context, id string, status models.LeaveStatus, decidedBy string, decidedAt time.Time) error {
	leave, ok := m.leaves[id]
	if !ok {
		return sql.ErrNoRows
	}
	if leave.Status != models.LeavePending {
		return repository.ErrVersionConflict
	}
	leave.Status = status
	leave.DecidedBy = &decidedBy
	leave.DecidedAt = &decidedAt
	return nil
}

func applyLeave(t *testing.T, svc *LeaveService) *models.LeaveApplication {
	t.Helper()
	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	leave, err := svc.Apply(context.Background(), "school-1", "teacher-1", ApplyLeaveRequest{
		FromDate: from,
		ToDate:   from.AddDate(0, 0, 2),
		Reason:   "medical",
	})
	require.NoError(t, err)
	return leave
}

func TestLeaveServiceApply(t *testing.T) {
	repo := newMockLeaveRepo()
	svc := NewLeaveService(repo, nil, nil)

	leave := applyLeave(t, svc)

	assert.Equal(t, models.LeavePending, leave.Status)
	assert.Equal(t, "teacher-1", leave.TeacherID)
	assert.Nil(t, leave.DecidedBy)
}

func TestLeaveServiceApplyRejectsInvertedRange(t *testing.T) {
	svc := NewLeaveService(newMockLeaveRepo(), nil, nil)

	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	_, err := svc.Apply(context.Background(), "school-1", "teacher-1", ApplyLeaveRequest{
		FromDate: from,
		ToDate:   from.AddDate(0, 0, -1),
		Reason:   "medical",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "to_date is before from_date")
}

func TestLeaveServiceDecideApprove(t *testing.T) {
	repo := newMockLeaveRepo()
	svc := NewLeaveService(repo, nil, nil)
	leave := applyLeave(t, svc)

	decided, err := svc.Decide(context.Background(), "school-1", "admin-1", leave.ID, DecideLeaveRequest{Approve: true})
	require.NoError(t, err)
	assert.Equal(t, models.LeaveApproved, decided.Status)
	require.NotNil(t, decided.DecidedBy)
	assert.Equal(t, "admin-1", *decided.DecidedBy)
	assert.NotNil(t, decided.DecidedAt)
}

func TestLeaveServiceDecideTwiceConflicts(t *testing.T) {
	repo := newMockLeaveRepo()
	svc := NewLeaveService(repo, nil, nil)
	leave := applyLeave(t, svc)

	_, err := svc.Decide(context.Background(), "school-1", "admin-1", leave.ID, DecideLeaveRequest{Approve: false})
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), "school-1", "admin-1", leave.ID, DecideLeaveRequest{Approve: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already decided")
}

func TestLeaveServiceDecideWrongSchool(t *testing.T) {
	repo := newMockLeaveRepo()
	svc := NewLeaveService(repo, nil, nil)
	leave := applyLeave(t, svc)

	_, err := svc.Decide(context.Background(), "school-2", "admin-1", leave.ID, DecideLeaveRequest{Approve: true})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}
