package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spec-kit/student-admin-service/internal/domain"
	"github.com/spec-kit/student-admin-service/internal/repository"
)

type adminRepository struct {
	db *DB
}

// NewAdminRepository returns a SQLite-backed credential store.
func NewAdminRepository(db *DB) repository.AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) Create(ctx context.Context, admin *domain.Admin) error {
	createdAt := time.Now().UTC()
	_, err := r.db.Db.ExecContext(ctx,
		"INSERT INTO admins (id, email, password_hash, name, created_at) VALUES (?, ?, ?, ?, ?)",
		admin.ID, admin.Email, admin.PasswordHash, admin.Name, createdAt,
	)
	if err != nil {
		if translated := translateError(err); errors.Is(translated, repository.ErrDuplicate) {
			return translated
		}
		return fmt.Errorf("CreateAdmin: exec: %w", err)
	}
	admin.CreatedAt = createdAt
	return nil
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	var admin domain.Admin
	err := r.db.Db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, name, created_at FROM admins WHERE email = ? LIMIT 1",
		email,
	).Scan(&admin.ID, &admin.Email, &admin.PasswordHash, &admin.Name, &admin.CreatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return &admin, nil
}
