package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/edustack/school-portal-api/internal/models"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
)

type mockAuthUsers struct {
	userByEmail      *models.User
	userByID         *models.User
	refreshTokens    map[string]*models.RefreshToken
	createdUsers     []*models.User
	lastLoginUpdated bool
	passwordUpdated  string
	revokedAll       bool
}

func (m *mockAuthUsers) Create(ctx context.Context, user *models.User) error {
	m.createdUsers = append(m.createdUsers, user)
	return nil
}

func (m *mockAuthUsers) CreateTx(ctx context.Context, tx *sqlx.Tx, user *models.User) error {
	user.ID = "user-new"
	m.createdUsers = append(m.createdUsers, user)
	return nil
}

func (m *mockAuthUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.userByEmail == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.userByID == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByID, nil
}

func (m *mockAuthUsers) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthUsers) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	m.passwordUpdated = passwordHash
	return nil
}

func (m *mockAuthUsers) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]*models.RefreshToken)
	}
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthUsers) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *mockAuthUsers) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthUsers) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAll = true
	return nil
}

type mockAuthSchools struct {
	db      *sqlx.DB
	created []*models.School
}

func (m *mockAuthSchools) Begin(ctx context.Context) (*sqlx.Tx, error) {
	return m.db.BeginTxx(ctx, nil)
}

func (m *mockAuthSchools) CreateTx(ctx context.Context, tx *sqlx.Tx, school *models.School) error {
	school.ID = "school-new"
	m.created = append(m.created, school)
	return nil
}

type mockActivityTrail struct {
	entries []*models.UserActivity
}

func (m *mockActivityTrail) Create(ctx context.Context, activity *models.UserActivity) error {
	m.entries = append(m.entries, activity)
	return nil
}

func newAuthService(users *mockAuthUsers, schools *mockAuthSchools, trail *mockActivityTrail) *AuthService {
	var schoolRepo authSchoolRepository
	if schools != nil {
		schoolRepo = schools
	}
	var activities authActivityRecorder
	if trail != nil {
		activities = trail
	}
	return NewAuthService(users, schoolRepo, activities, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
	})
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	users := &mockAuthUsers{userByEmail: &models.User{
		ID: "u1", SchoolID: "school-1", Email: "admin@example.com",
		PasswordHash: string(password), Active: true, Role: models.RoleAdmin,
	}}
	trail := &mockActivityTrail{}
	svc := newAuthService(users, nil, trail)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "school-1", res.User.SchoolID)
	assert.True(t, users.lastLoginUpdated)
	require.Len(t, trail.entries, 1)
	assert.Equal(t, models.ActivityLogin, trail.entries[0].Action)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	users := &mockAuthUsers{userByEmail: &models.User{ID: "u1", PasswordHash: string(password), Active: false}}
	svc := newAuthService(users, nil, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "x@example.com", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	users := &mockAuthUsers{userByEmail: &models.User{ID: "u1", PasswordHash: string(password), Active: true}}
	svc := newAuthService(users, nil, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "x@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterSchool(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	users := &mockAuthUsers{}
	schools := &mockAuthSchools{db: sqlx.NewDb(db, "sqlmock")}
	svc := newAuthService(users, schools, nil)

	res, err := svc.RegisterSchool(context.Background(), models.RegisterSchoolRequest{
		SchoolName: "Springfield High",
		AdminName:  "Principal Skinner",
		Email:      "admin@springfield.edu",
		Password:   "password",
	})
	require.NoError(t, err)
	require.Len(t, schools.created, 1)
	require.Len(t, users.createdUsers, 1)
	assert.Equal(t, models.RoleAdmin, users.createdUsers[0].Role)
	assert.Equal(t, "school-new", users.createdUsers[0].SchoolID)
	assert.NotEmpty(t, res.AccessToken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthServiceRegisterSchoolDuplicateEmail(t *testing.T) {
	users := &mockAuthUsers{userByEmail: &models.User{ID: "u1"}}
	svc := newAuthService(users, nil, nil)

	_, err := svc.RegisterSchool(context.Background(), models.RegisterSchoolRequest{
		SchoolName: "Springfield High",
		AdminName:  "Principal Skinner",
		Email:      "admin@springfield.edu",
		Password:   "password",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshTokenRotates(t *testing.T) {
	user := &models.User{ID: "u1", SchoolID: "school-1", Email: "t@example.com", Active: true, Role: models.RoleTeacher}
	users := &mockAuthUsers{userByID: user, refreshTokens: map[string]*models.RefreshToken{
		"token-1": {ID: "rt1", UserID: "u1", Token: "token-1", ExpiresAt: time.Now().Add(time.Hour)},
	}}
	svc := newAuthService(users, nil, nil)

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "token-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEqual(t, "token-1", res.RefreshToken)
	assert.True(t, users.refreshTokens["token-1"].Revoked)
}

func TestAuthServiceRefreshTokenExpired(t *testing.T) {
	users := &mockAuthUsers{refreshTokens: map[string]*models.RefreshToken{
		"token-1": {ID: "rt1", UserID: "u1", Token: "token-1", ExpiresAt: time.Now().Add(-time.Minute)},
	}}
	svc := newAuthService(users, nil, nil)

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "token-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceChangePassword(t *testing.T) {
	oldHash, _ := bcrypt.GenerateFromPassword([]byte("old-pass"), bcrypt.DefaultCost)
	users := &mockAuthUsers{userByID: &models.User{ID: "u1", PasswordHash: string(oldHash), Active: true}}
	svc := newAuthService(users, nil, nil)

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "old-pass", NewPassword: "new-password"})
	require.NoError(t, err)
	assert.NotEmpty(t, users.passwordUpdated)
	assert.True(t, users.revokedAll)
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := newAuthService(&mockAuthUsers{}, nil, nil)
	user := &models.User{ID: "u1", SchoolID: "school-1", Email: "t@example.com", Role: models.RoleTeacher}
	token, _, err := svc.generateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "school-1", claims.SchoolID)
	assert.Equal(t, models.RoleTeacher, claims.Role)

	_, err = svc.ValidateToken(token + "tampered")
	require.Error(t, err)
}
