package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/student-admin-service/internal/api/dto"
	"github.com/spec-kit/student-admin-service/internal/service"
	apperrors "github.com/spec-kit/student-admin-service/pkg/util"
)

// AuthHandler exposes administrator auth endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if err := dto.Validate(&req); err != nil {
		return err
	}

	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.LoginResponse{
		Token:     session.Token,
		Email:     session.Email,
		Name:      session.Name,
		ExpiresAt: session.ExpiresAt,
	})
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if err := dto.Validate(&req); err != nil {
		return err
	}

	if err := h.auth.Register(c.UserContext(), req.Email, req.Password, req.Name); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.MessageResponse{Message: "admin registered successfully"})
}

// Verify handles GET /api/auth/verify.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	session, err := h.auth.VerifyToken(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}
	return c.JSON(dto.VerifyResponse{Token: session.Token, Email: session.Email, Name: session.Name})
}
