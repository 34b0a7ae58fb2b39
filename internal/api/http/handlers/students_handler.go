package handlers

import (
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/student-admin-service/internal/api/dto"
	"github.com/spec-kit/student-admin-service/internal/service"
	apperrors "github.com/spec-kit/student-admin-service/pkg/util"
)

// StudentsHandler exposes student record endpoints.
type StudentsHandler struct {
	students *service.StudentService
}

// NewStudentsHandler constructs handler.
func NewStudentsHandler(students *service.StudentService) *StudentsHandler {
	return &StudentsHandler{students: students}
}

// Ping handles GET /students/ping.
func (h *StudentsHandler) Ping(c *fiber.Ctx) error {
	return c.SendString("Hello World")
}

// List handles GET /students.
func (h *StudentsHandler) List(c *fiber.Ctx) error {
	students, err := h.students.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStudentListResponse(students))
}

// Get handles GET /students/:id.
func (h *StudentsHandler) Get(c *fiber.Ctx) error {
	student, err := h.students.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStudentResponse(student))
}

// Create handles POST /students.
func (h *StudentsHandler) Create(c *fiber.Ctx) error {
	in, err := parseStudentRequest(c)
	if err != nil {
		return err
	}
	student, err := h.students.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(dto.NewStudentResponse(student))
}

// Update handles PUT /students/:id.
func (h *StudentsHandler) Update(c *fiber.Ctx) error {
	in, err := parseStudentRequest(c)
	if err != nil {
		return err
	}
	student, err := h.students.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStudentResponse(student))
}

// UpdateMarks handles PATCH /students/:id/marks.
func (h *StudentsHandler) UpdateMarks(c *fiber.Ctx) error {
	var req dto.MarksRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if err := dto.Validate(&req); err != nil {
		return err
	}

	student, err := h.students.UpdateMarks(c.UserContext(), c.Params("id"), *req.Marks)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStudentResponse(student))
}

// DeleteByEmail handles DELETE /students/email/:email.
func (h *StudentsHandler) DeleteByEmail(c *fiber.Ctx) error {
	email, err := url.PathUnescape(c.Params("email"))
	if err != nil {
		return apperrors.NewBadRequest("invalid email")
	}
	if err := h.students.DeleteByEmail(c.UserContext(), email); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseStudentRequest(c *fiber.Ctx) (service.StudentInput, error) {
	var req dto.StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return service.StudentInput{}, apperrors.NewBadRequest("invalid payload")
	}
	if err := dto.Validate(&req); err != nil {
		return service.StudentInput{}, err
	}
	return service.StudentInput{
		Name:   req.Name,
		Email:  req.Email,
		Course: req.Course,
		Marks:  req.Marks,
	}, nil
}
