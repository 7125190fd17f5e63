package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/school-portal-api/internal/middleware"
	"github.com/edustack/school-portal-api/internal/models"
	"github.com/edustack/school-portal-api/internal/service"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
)

type paperServiceMock struct {
	paper   *models.Paper
	summary *service.MarksSummary
	err     error

	savedReq    *service.SavePaperRequest
	confirmReq  *service.ConfirmPaperRequest
	gotSchoolID string
	gotPaperID  string
	gotVersion  int
}

func (m *paperServiceMock) result() (*models.Paper, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.paper, nil
}

func (m *paperServiceMock) CreateDraft(ctx context.Context, schoolID, teacherID string, req service.CreatePaperRequest) (*models.Paper, error) {
	m.gotSchoolID = schoolID
	return m.result()
}

func (m *paperServiceMock) CreateFromPattern(ctx context.Context, schoolID, teacherID, patternID string) (*models.Paper, error) {
	return m.result()
}

func (m *paperServiceMock) Get(ctx context.Context, schoolID, paperID string) (*models.Paper, error) {
	m.gotSchoolID = schoolID
	m.gotPaperID = paperID
	return m.result()
}

func (m *paperServiceMock) List(ctx context.Context, filter models.PaperFilter) ([]models.Paper, int, bool, error) {
	if m.err != nil {
		return nil, 0, false, m.err
	}
	return []models.Paper{*m.paper}, 1, false, nil
}

func (m *paperServiceMock) Save(ctx context.Context, schoolID, paperID string, req service.SavePaperRequest) (*models.Paper, error) {
	m.gotSchoolID = schoolID
	m.gotPaperID = paperID
	m.savedReq = &req
	return m.result()
}

func (m *paperServiceMock) Delete(ctx context.Context, schoolID, paperID string) error {
	return m.err
}

func (m *paperServiceMock) AddSection(ctx context.Context, schoolID, paperID string, version int) (*models.Paper, error) {
	m.gotVersion = version
	return m.result()
}

func (m *paperServiceMock) UpdateSection(ctx context.Context, schoolID, paperID string, version int, sectionID string, upd service.SectionUpdate) (*models.Paper, error) {
	m.gotVersion = version
	return m.result()
}

func (m *paperServiceMock) DeleteSection(ctx context.Context, schoolID, paperID string, version int, sectionID string) (*models.Paper, error) {
	m.gotVersion = version
	return m.result()
}

func (m *paperServiceMock) AddQuestion(ctx context.Context, schoolID, paperID string, version int, sectionID string) (*models.Paper, error) {
	m.gotVersion = version
	return m.result()
}

func (m *paperServiceMock) UpdateQuestion(ctx context.Context, schoolID, paperID string, version int, sectionID, questionID string, upd service.QuestionUpdate) (*models.Paper, error) {
	m.gotVersion = version
	return m.result()
}

func (m *paperServiceMock) DeleteQuestion(ctx context.Context, schoolID, paperID string, version int, sectionID, questionID string) (*models.Paper, error) {
	m.gotVersion = version
	return m.result()
}

func (m *paperServiceMock) AddSubpart(ctx context.Context, schoolID, paperID string, version int, sectionID, questionID string) (*models.Paper, error) {
	m.gotVersion = version
	return m.result()
}

func (m *paperServiceMock) UpdateSubpart(ctx context.Context, schoolID, paperID string, version int, sectionID, questionID, subpartID string, upd service.SubpartUpdate) (*models.Paper, error) {
	m.gotVersion = version
	return m.result()
}

func (m *paperServiceMock) DeleteSubpart(ctx context.Context, schoolID, paperID string, version int, sectionID, questionID, subpartID string) (*models.Paper, error) {
	m.gotVersion = version
	return m.result()
}

func (m *paperServiceMock) Marks(ctx context.Context, schoolID, paperID string) (*service.MarksSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

func (m *paperServiceMock) Confirm(ctx context.Context, schoolID, paperID string, req service.ConfirmPaperRequest) (*models.Paper, error) {
	m.confirmReq = &req
	return m.result()
}

func (m *paperServiceMock) ExportJSON(ctx context.Context, schoolID, paperID string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []byte(`{"id":"paper-1"}`), nil
}

func testPaper() *models.Paper {
	return &models.Paper{ID: "paper-1", SchoolID: "school-1", Version: 3, Status: models.PaperStatusDraft}
}

func paperTestContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-1", SchoolID: "school-1", Role: models.RoleTeacher})
	return c, w
}

func TestPaperHandlerSavePassesVersionedPayload(t *testing.T) {
	mock := &paperServiceMock{paper: testPaper()}
	h := NewPaperHandler(mock)

	body, _ := json.Marshal(service.SavePaperRequest{Version: 3, Class: "10", Subject: "Physics"})
	c, w := paperTestContext(t, http.MethodPut, "/papers/paper-1", body)
	c.Params = gin.Params{{Key: "id", Value: "paper-1"}}

	h.Save(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mock.savedReq)
	assert.Equal(t, 3, mock.savedReq.Version)
	assert.Equal(t, "school-1", mock.gotSchoolID)
	assert.Equal(t, "paper-1", mock.gotPaperID)
}

func TestPaperHandlerSaveVersionConflictReturns409(t *testing.T) {
	mock := &paperServiceMock{err: appErrors.Clone(appErrors.ErrVersionConflict, "paper was modified, reload and retry")}
	h := NewPaperHandler(mock)

	body, _ := json.Marshal(service.SavePaperRequest{Version: 2})
	c, w := paperTestContext(t, http.MethodPut, "/papers/paper-1", body)
	c.Params = gin.Params{{Key: "id", Value: "paper-1"}}

	h.Save(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPaperHandlerStructuralEditRequiresVersion(t *testing.T) {
	mock := &paperServiceMock{paper: testPaper()}
	h := NewPaperHandler(mock)

	c, w := paperTestContext(t, http.MethodPost, "/papers/paper-1/sections", nil)
	c.Params = gin.Params{{Key: "id", Value: "paper-1"}}

	h.AddSection(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = paperTestContext(t, http.MethodPost, "/papers/paper-1/sections?version=3", nil)
	c.Params = gin.Params{{Key: "id", Value: "paper-1"}}

	h.AddSection(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, mock.gotVersion)
}

func TestPaperHandlerConfirmForwardsAcknowledgement(t *testing.T) {
	mock := &paperServiceMock{paper: testPaper()}
	h := NewPaperHandler(mock)

	body, _ := json.Marshal(service.ConfirmPaperRequest{Version: 3, AcknowledgeMismatch: true})
	c, w := paperTestContext(t, http.MethodPost, "/papers/paper-1/confirm", body)
	c.Params = gin.Params{{Key: "id", Value: "paper-1"}}

	h.Confirm(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mock.confirmReq)
	assert.True(t, mock.confirmReq.AcknowledgeMismatch)
}

func TestPaperHandlerRejectsMissingClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewPaperHandler(&paperServiceMock{paper: testPaper()})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/papers/paper-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "paper-1"}}

	h.Get(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaperHandlerNilServiceGuard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewPaperHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/papers/paper-1", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-1", SchoolID: "school-1"})

	h.Get(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
