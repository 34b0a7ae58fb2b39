package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/student-admin-service/internal/domain"
)

// StudentRepository encapsulates student persistence.
type StudentRepository interface {
	List(ctx context.Context) ([]domain.Student, error)
	GetByID(ctx context.Context, id string) (*domain.Student, error)
	GetByEmail(ctx context.Context, email string) (*domain.Student, error)
	Create(ctx context.Context, student *domain.Student) error
	Update(ctx context.Context, student *domain.Student) error
	UpdateMarks(ctx context.Context, id string, marks float64) (*domain.Student, error)
	DeleteByEmail(ctx context.Context, email string) (*domain.Student, error)
}

type studentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository instantiates repository.
func NewStudentRepository(pool *pgxpool.Pool) StudentRepository {
	return &studentRepository{pool: pool}
}

const studentColumns = `id, name, email, course, marks, created_at, updated_at`

func (r *studentRepository) List(ctx context.Context) ([]domain.Student, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+studentColumns+` FROM students ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := make([]domain.Student, 0)
	for rows.Next() {
		var student domain.Student
		if err := rows.Scan(
			&student.ID,
			&student.Name,
			&student.Email,
			&student.Course,
			&student.Marks,
			&student.CreatedAt,
			&student.UpdatedAt,
		); err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

func (r *studentRepository) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	return r.fetchSingle(ctx, `SELECT `+studentColumns+` FROM students WHERE id=$1`, id)
}

func (r *studentRepository) GetByEmail(ctx context.Context, email string) (*domain.Student, error) {
	return r.fetchSingle(ctx, `SELECT `+studentColumns+` FROM students WHERE email=$1`, email)
}

func (r *studentRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Student, error) {
	var student domain.Student
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&student.ID,
		&student.Name,
		&student.Email,
		&student.Course,
		&student.Marks,
		&student.CreatedAt,
		&student.UpdatedAt,
	); err != nil {
		return nil, translatePgError(err)
	}
	return &student, nil
}

func (r *studentRepository) Create(ctx context.Context, student *domain.Student) error {
	const query = `
        INSERT INTO students (id, name, email, course, marks)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		student.ID,
		student.Name,
		student.Email,
		student.Course,
		student.Marks,
	).Scan(&student.CreatedAt, &student.UpdatedAt)
	return translatePgError(err)
}

func (r *studentRepository) Update(ctx context.Context, student *domain.Student) error {
	const query = `
        UPDATE students SET name=$1, email=$2, course=$3, marks=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		student.Name,
		student.Email,
		student.Course,
		student.Marks,
		student.ID,
	).Scan(&student.CreatedAt, &student.UpdatedAt)
	return translatePgError(err)
}

func (r *studentRepository) UpdateMarks(ctx context.Context, id string, marks float64) (*domain.Student, error) {
	return r.fetchSingle(ctx, `
        UPDATE students SET marks=$2, updated_at=NOW()
        WHERE id=$1
        RETURNING `+studentColumns, id, marks)
}

func (r *studentRepository) DeleteByEmail(ctx context.Context, email string) (*domain.Student, error) {
	return r.fetchSingle(ctx, `DELETE FROM students WHERE email=$1 RETURNING `+studentColumns, email)
}
