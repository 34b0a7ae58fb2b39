package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spec-kit/student-admin-service/internal/domain"
	"github.com/spec-kit/student-admin-service/internal/repository"
)

const studentColumns = "id, name, email, course, marks, created_at, updated_at"

type studentRepository struct {
	db *DB
}

// NewStudentRepository returns a SQLite-backed student store.
func NewStudentRepository(db *DB) repository.StudentRepository {
	return &studentRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (*domain.Student, error) {
	var student domain.Student
	if err := row.Scan(
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
	return &student, nil
}

func (r *studentRepository) List(ctx context.Context) ([]domain.Student, error) {
	rows, err := r.db.Db.QueryContext(ctx, "SELECT "+studentColumns+" FROM students ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("ListStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]domain.Student, 0)
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("ListStudents: scan row: %w", err)
		}
		students = append(students, *student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListStudents: rows iteration: %w", err)
	}
	return students, nil
}

func (r *studentRepository) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	student, err := scanStudent(r.db.Db.QueryRowContext(ctx,
		"SELECT "+studentColumns+" FROM students WHERE id = ? LIMIT 1", id))
	if err != nil {
		return nil, translateError(err)
	}
	return student, nil
}

func (r *studentRepository) GetByEmail(ctx context.Context, email string) (*domain.Student, error) {
	student, err := scanStudent(r.db.Db.QueryRowContext(ctx,
		"SELECT "+studentColumns+" FROM students WHERE email = ? LIMIT 1", email))
	if err != nil {
		return nil, translateError(err)
	}
	return student, nil
}

func (r *studentRepository) Create(ctx context.Context, student *domain.Student) error {
	now := time.Now().UTC()
	_, err := r.db.Db.ExecContext(ctx,
		"INSERT INTO students (id, name, email, course, marks, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		student.ID, student.Name, student.Email, student.Course, student.Marks, now, now,
	)
	if err != nil {
		return translateError(err)
	}
	student.CreatedAt = now
	student.UpdatedAt = now
	return nil
}

func (r *studentRepository) Update(ctx context.Context, student *domain.Student) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE students SET name = ?, email = ?, course = ?, marks = ?, updated_at = ? WHERE id = ?",
			student.Name, student.Email, student.Course, student.Marks, time.Now().UTC(), student.ID,
		)
		if err != nil {
			return translateError(err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return repository.ErrNotFound
		}
		stored, err := scanStudent(tx.QueryRowContext(ctx,
			"SELECT "+studentColumns+" FROM students WHERE id = ?", student.ID))
		if err != nil {
			return translateError(err)
		}
		*student = *stored
		return nil
	})
}

func (r *studentRepository) UpdateMarks(ctx context.Context, id string, marks float64) (*domain.Student, error) {
	var updated *domain.Student
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE students SET marks = ?, updated_at = ? WHERE id = ?",
			marks, time.Now().UTC(), id,
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return repository.ErrNotFound
		}
		updated, err = scanStudent(tx.QueryRowContext(ctx,
			"SELECT "+studentColumns+" FROM students WHERE id = ?", id))
		return translateError(err)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *studentRepository) DeleteByEmail(ctx context.Context, email string) (*domain.Student, error) {
	var deleted *domain.Student
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		deleted, err = scanStudent(tx.QueryRowContext(ctx,
			"SELECT "+studentColumns+" FROM students WHERE email = ? LIMIT 1", email))
		if err != nil {
			return translateError(err)
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM students WHERE id = ?", deleted.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (r *studentRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.Db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
