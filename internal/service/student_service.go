package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/spec-kit/student-admin-service/internal/domain"
	"github.com/spec-kit/student-admin-service/internal/repository"
	apperrors "github.com/spec-kit/student-admin-service/pkg/util"
)

// StudentInput carries the writable student fields.
type StudentInput struct {
	Name   string
	Email  string
	Course string
	Marks  *float64
}

// StudentService implements CRUD over student records.
type StudentService struct {
	students repository.StudentRepository
	newID    func() string
}

// NewStudentService builds the service.
func NewStudentService(students repository.StudentRepository) *StudentService {
	return &StudentService{students: students, newID: uuid.NewString}
}

// List returns every student.
func (s *StudentService) List(ctx context.Context) ([]domain.Student, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("list students: %w", err))
	}
	return students, nil
}

// Get returns one student by id.
func (s *StudentService) Get(ctx context.Context, id string) (*domain.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, mapStudentError(err, "id", id)
	}
	return student, nil
}

// Create stores a new student under a fresh id. Emails are unique across students.
func (s *StudentService) Create(ctx context.Context, in StudentInput) (*domain.Student, error) {
	if err := s.ensureEmailFree(ctx, in.Email, ""); err != nil {
		return nil, err
	}

	student := &domain.Student{
		ID:     s.newID(),
		Name:   in.Name,
		Email:  in.Email,
		Course: in.Course,
		Marks:  in.Marks,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, mapStudentError(err, "email", in.Email)
	}
	return student, nil
}

// Update replaces every writable field of the student with the given id.
func (s *StudentService) Update(ctx context.Context, id string, in StudentInput) (*domain.Student, error) {
	if _, err := s.students.GetByID(ctx, id); err != nil {
		return nil, mapStudentError(err, "id", id)
	}
	if err := s.ensureEmailFree(ctx, in.Email, id); err != nil {
		return nil, err
	}

	student := &domain.Student{
		ID:     id,
		Name:   in.Name,
		Email:  in.Email,
		Course: in.Course,
		Marks:  in.Marks,
	}
	if err := s.students.Update(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, emailTaken(in.Email)
		}
		return nil, mapStudentError(err, "id", id)
	}
	return student, nil
}

// UpdateMarks sets only the marks of a student.
func (s *StudentService) UpdateMarks(ctx context.Context, id string, marks float64) (*domain.Student, error) {
	student, err := s.students.UpdateMarks(ctx, id, marks)
	if err != nil {
		return nil, mapStudentError(err, "id", id)
	}
	return student, nil
}

// DeleteByEmail removes the student owning email.
func (s *StudentService) DeleteByEmail(ctx context.Context, email string) error {
	if _, err := s.students.DeleteByEmail(ctx, email); err != nil {
		return mapStudentError(err, "email", email)
	}
	return nil
}

func (s *StudentService) ensureEmailFree(ctx context.Context, email, ownerID string) error {
	existing, err := s.students.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return apperrors.NewInternalError(fmt.Errorf("student email lookup: %w", err))
	case existing.ID != ownerID:
		return emailTaken(email)
	}
	return nil
}

func emailTaken(email string) error {
	return apperrors.NewConflict("student email already in use", map[string]any{"email": email})
}

func mapStudentError(err error, key, value string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("student", map[string]any{key: value})
	case errors.Is(err, repository.ErrDuplicate):
		return emailTaken(value)
	default:
		return apperrors.NewInternalError(err)
	}
}
