package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/edustack/school-portal-api/internal/models"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
)

type teacherRepository interface {
	Begin(ctx context.Context) (*sqlx.Tx, error)
	CreateTx(ctx context.Context, tx *sqlx.Tx, teacher *models.Teacher) error
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	Update(ctx context.Context, teacher *models.Teacher) error
	AddSubject(ctx context.Context, subject *models.TeacherSubject) error
	ListSubjects(ctx context.Context, teacherID string) ([]models.TeacherSubject, error)
	DeleteSubject(ctx context.Context, teacherID, subjectID string) error
}

type teacherUserWriter interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// CreateTeacherRequest provisions a teacher account under a school.
type CreateTeacherRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required,min=6"`
}

// UpdateTeacherRequest edits a teacher profile.
type UpdateTeacherRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone"`
	Active   *bool  `json:"active"`
}

// AddTeacherSubjectRequest assigns a subject+class to a teacher.
type AddTeacherSubjectRequest struct {
	Subject string `json:"subject" validate:"required"`
	Class   string `json:"class" validate:"required"`
}

// TeacherService manages teacher accounts. Creating a teacher writes the
// login user and the roster profile in one transaction.
type TeacherService struct {
	teachers  teacherRepository
	users     teacherUserWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService instance.
func NewTeacherService(teachers teacherRepository, users teacherUserWriter, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TeacherService{teachers: teachers, users: users, validator: validate, logger: logger}
}

// Create provisions a teacher: login user plus roster profile.
func (s *TeacherService) Create(ctx context.Context, schoolID string, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	tx, err := s.teachers.Begin(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start teacher creation")
	}

	user := &models.User{
		SchoolID:     schoolID,
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         models.RoleTeacher,
		Active:       true,
	}
	if err := s.users.CreateTx(ctx, tx, user); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher login")
	}

	teacher := &models.Teacher{
		SchoolID: schoolID,
		UserID:   user.ID,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Active:   true,
	}
	if err := s.teachers.CreateTx(ctx, tx, teacher); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher profile")
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit teacher creation")
	}

	s.logger.Info("teacher created",
		zap.String("teacher_id", teacher.ID),
		zap.String("school_id", schoolID))
	return teacher, nil
}

// Get returns one teacher scoped to the school.
func (s *TeacherService) Get(ctx context.Context, schoolID, teacherID string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if teacher.SchoolID != schoolID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "teacher belongs to another school")
	}
	return teacher, nil
}

// GetByUser resolves the teacher profile behind a login user.
func (s *TeacherService) GetByUser(ctx context.Context, userID string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// List returns a school's teachers.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	teachers, total, err := s.teachers.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, total, nil
}

// Update edits a teacher profile.
func (s *TeacherService) Update(ctx context.Context, schoolID, teacherID string, req UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	teacher, err := s.Get(ctx, schoolID, teacherID)
	if err != nil {
		return nil, err
	}
	teacher.FullName = req.FullName
	teacher.Phone = req.Phone
	if req.Active != nil {
		teacher.Active = *req.Active
	}
	teacher.UpdatedAt = time.Now().UTC()
	if err := s.teachers.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return teacher, nil
}

// AddSubject assigns a subject to a teacher.
func (s *TeacherService) AddSubject(ctx context.Context, schoolID, teacherID string, req AddTeacherSubjectRequest) (*models.TeacherSubject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if _, err := s.Get(ctx, schoolID, teacherID); err != nil {
		return nil, err
	}
	subject := &models.TeacherSubject{
		TeacherID: teacherID,
		Subject:   req.Subject,
		Class:     req.Class,
	}
	if err := s.teachers.AddSubject(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add subject")
	}
	return subject, nil
}

// ListSubjects returns a teacher's subject assignments.
func (s *TeacherService) ListSubjects(ctx context.Context, schoolID, teacherID string) ([]models.TeacherSubject, error) {
	if _, err := s.Get(ctx, schoolID, teacherID); err != nil {
		return nil, err
	}
	subjects, err := s.teachers.ListSubjects(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// DeleteSubject removes a subject assignment.
func (s *TeacherService) DeleteSubject(ctx context.Context, schoolID, teacherID, subjectID string) error {
	if _, err := s.Get(ctx, schoolID, teacherID); err != nil {
		return err
	}
	if err := s.teachers.DeleteSubject(ctx, teacherID, subjectID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	return nil
}
