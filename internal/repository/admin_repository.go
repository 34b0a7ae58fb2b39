package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/student-admin-service/internal/domain"
)

// AdminRepository defines persistence access for administrators.
type AdminRepository interface {
	Create(ctx context.Context, admin *domain.Admin) error
	GetByEmail(ctx context.Context, email string) (*domain.Admin, error)
}

type adminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository returns a Postgres-backed implementation.
func NewAdminRepository(pool *pgxpool.Pool) AdminRepository {
	return &adminRepository{pool: pool}
}

func (r *adminRepository) Create(ctx context.Context, admin *domain.Admin) error {
	const query = `
        INSERT INTO admins (id, email, password_hash, name)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		admin.ID,
		admin.Email,
		admin.PasswordHash,
		admin.Name,
	).Scan(&admin.CreatedAt)
	return translatePgError(err)
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	const query = `
        SELECT id, email, password_hash, name, created_at
        FROM admins WHERE email=$1`

	var admin domain.Admin
	if err := r.pool.QueryRow(ctx, query, email).Scan(
		&admin.ID,
		&admin.Email,
		&admin.PasswordHash,
		&admin.Name,
		&admin.CreatedAt,
	); err != nil {
		return nil, translatePgError(err)
	}
	return &admin, nil
}
