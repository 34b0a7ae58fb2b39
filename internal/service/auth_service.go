package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/spec-kit/student-admin-service/internal/auth"
	"github.com/spec-kit/student-admin-service/internal/domain"
	"github.com/spec-kit/student-admin-service/internal/repository"
	apperrors "github.com/spec-kit/student-admin-service/pkg/util"
)

// AuthService coordinates administrator login, registration and token verification.
// It holds no per-session state; every call stands alone.
type AuthService struct {
	admins   repository.AdminRepository
	hasher   auth.PasswordHasher
	tokenMgr *auth.TokenManager
	newID    func() string
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	AdminRepo    repository.AdminRepository
	Hasher       auth.PasswordHasher
	TokenManager *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		admins:   deps.AdminRepo,
		hasher:   deps.Hasher,
		tokenMgr: deps.TokenManager,
		newID:    uuid.NewString,
	}
}

// TokenManager exposes the token manager.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Login checks credentials and issues a bearer token. Unknown email and wrong password are
// reported identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("login lookup: %w", err))
	}
	if err := s.hasher.Compare(admin.PasswordHash, password); err != nil {
		return nil, apperrors.NewInvalidCredentials()
	}

	token, exp, err := s.tokenMgr.Issue(admin.Email)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("issue token: %w", err))
	}
	return &domain.Session{Token: token, Email: admin.Email, Name: admin.Name, ExpiresAt: exp}, nil
}

// Register creates an administrator. It does not log the caller in.
func (s *AuthService) Register(ctx context.Context, email, password, name string) error {
	if _, err := s.admins.GetByEmail(ctx, email); err == nil {
		return apperrors.NewDuplicateEmail()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewInternalError(fmt.Errorf("register lookup: %w", err))
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return apperrors.NewBadRequest("password too long")
		}
		return apperrors.NewInternalError(fmt.Errorf("hash password: %w", err))
	}

	admin := &domain.Admin{
		ID:           s.newID(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		// a concurrent registration can win the race between lookup and insert
		if errors.Is(err, repository.ErrDuplicate) {
			return apperrors.NewDuplicateEmail()
		}
		return apperrors.NewInternalError(fmt.Errorf("create admin: %w", err))
	}
	return nil
}

// VerifyToken validates an Authorization header value and resolves the administrator it is
// bound to. The token is returned unchanged; it is never refreshed.
func (s *AuthService) VerifyToken(ctx context.Context, authorization string) (*domain.Session, error) {
	token, ok := auth.BearerToken(authorization)
	if !ok {
		return nil, apperrors.NewInvalidToken()
	}

	email, err := s.tokenMgr.ExtractEmail(token)
	if err != nil {
		return nil, apperrors.NewInvalidToken()
	}
	if s.tokenMgr.IsExpired(token) {
		return nil, apperrors.NewInvalidToken()
	}

	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewInvalidToken()
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("verify lookup: %w", err))
	}
	return &domain.Session{Token: token, Email: admin.Email, Name: admin.Name}, nil
}
