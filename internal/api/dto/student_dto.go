package dto

import (
	"time"

	"github.com/spec-kit/student-admin-service/internal/domain"
)

// StudentRequest is the body of create and full update calls. Marks may be null.
type StudentRequest struct {
	Name   string   `json:"name" validate:"required"`
	Email  string   `json:"email" validate:"required"`
	Course string   `json:"course" validate:"required"`
	Marks  *float64 `json:"marks"`
}

// MarksRequest is the body of the marks patch; null or missing marks are rejected.
type MarksRequest struct {
	Marks *float64 `json:"marks" validate:"required"`
}

// StudentResponse is the public view of a student.
type StudentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Course    string    `json:"course"`
	Marks     *float64  `json:"marks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewStudentResponse maps a domain student.
func NewStudentResponse(s *domain.Student) StudentResponse {
	return StudentResponse{
		ID:        s.ID,
		Name:      s.Name,
		Email:     s.Email,
		Course:    s.Course,
		Marks:     s.Marks,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// NewStudentListResponse maps a slice, never returning nil so the body is always a JSON array.
func NewStudentListResponse(students []domain.Student) []StudentResponse {
	out := make([]StudentResponse, 0, len(students))
	for i := range students {
		out = append(out, NewStudentResponse(&students[i]))
	}
	return out
}
