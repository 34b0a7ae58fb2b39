package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/student-admin-service/internal/domain"
)

const principalKey = "auth_principal"

// Principal represents the authenticated administrator.
type Principal struct {
	Email string
	Name  string
	Token string
}

// Verifier resolves an Authorization header to a live administrator session.
type Verifier interface {
	VerifyToken(ctx context.Context, authorization string) (*domain.Session, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	verifier Verifier
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(verifier Verifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	session, err := m.verifier.VerifyToken(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}

	c.Locals(principalKey, &Principal{Email: session.Email, Name: session.Name, Token: session.Token})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// BearerToken strips the Bearer scheme from an Authorization header value.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
