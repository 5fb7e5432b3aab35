package service

import (
	"context"
	"errors"
	"time"

	"stepway/internal/student/models"
	"stepway/pkg/domain"
	dErrors "stepway/pkg/domain-errors"
	"stepway/pkg/platform/sentinel"
)

type Store interface {
	Create(ctx context.Context, student models.Student) error
	FindByID(ctx context.Context, id domain.StudentID) (models.Student, error)
}

// Service owns student CRUD. It translates store sentinels into coded domain
// errors so handlers stay thin.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, fullName, email string) (models.Student, error) {
	student := models.Student{
		ID:        domain.NewStudentID(),
		FullName:  fullName,
		Email:     email,
		CreatedAt: time.Now(),
	}
	if err := student.Validate(); err != nil {
		return models.Student{}, dErrors.New(dErrors.CodeValidation, err.Error())
	}
	if err := s.store.Create(ctx, student); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return models.Student{}, dErrors.New(dErrors.CodeConflict, "a student with this email already exists")
		}
		return models.Student{}, dErrors.Wrap(dErrors.CodeInternal, "failed to create student", err)
	}
	return student, nil
}

func (s *Service) Get(ctx context.Context, id domain.StudentID) (models.Student, error) {
	student, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Student{}, dErrors.New(dErrors.CodeNotFound, "student not found")
		}
		return models.Student{}, dErrors.Wrap(dErrors.CodeInternal, "failed to load student", err)
	}
	return student, nil
}
