package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spec-kit/student-admin-service/internal/domain"
	"github.com/spec-kit/student-admin-service/internal/repository"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func floatPtr(v float64) *float64 { return &v }

func TestAdminCreateAndGetByEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewAdminRepository(openTestDB(t))

	admin := &domain.Admin{ID: "a1", Email: "a@x.com", PasswordHash: "hash", Name: "Alice"}
	if err := repo.Create(ctx, admin); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if admin.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}

	got, err := repo.GetByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != "a1" || got.Name != "Alice" || got.PasswordHash != "hash" {
		t.Fatalf("unexpected admin %+v", got)
	}

	if _, err := repo.GetByEmail(ctx, "missing@x.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAdminDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewAdminRepository(openTestDB(t))

	if err := repo.Create(ctx, &domain.Admin{ID: "a1", Email: "a@x.com", PasswordHash: "h", Name: "A"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := repo.Create(ctx, &domain.Admin{ID: "a2", Email: "a@x.com", PasswordHash: "h", Name: "B"})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestStudentLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewStudentRepository(openTestDB(t))

	s := &domain.Student{ID: "s1", Name: "Bob", Email: "bob@x.com", Course: "Math"}
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Marks != nil {
		t.Fatalf("expected nil marks, got %v", *got.Marks)
	}

	updated, err := repo.UpdateMarks(ctx, "s1", 88.5)
	if err != nil {
		t.Fatalf("UpdateMarks: %v", err)
	}
	if updated.Marks == nil || *updated.Marks != 88.5 || updated.Name != "Bob" {
		t.Fatalf("unexpected student %+v", updated)
	}

	full := &domain.Student{ID: "s1", Name: "Robert", Email: "robert@x.com", Course: "Physics"}
	if err := repo.Update(ctx, full); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if full.Marks != nil || full.CreatedAt.IsZero() {
		t.Fatalf("full replace should clear marks and keep created_at: %+v", full)
	}

	byEmail, err := repo.GetByEmail(ctx, "robert@x.com")
	if err != nil || byEmail.ID != "s1" {
		t.Fatalf("GetByEmail: %+v %v", byEmail, err)
	}

	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List: %v %v", list, err)
	}

	deleted, err := repo.DeleteByEmail(ctx, "robert@x.com")
	if err != nil || deleted.ID != "s1" {
		t.Fatalf("DeleteByEmail: %+v %v", deleted, err)
	}
	if _, err := repo.GetByID(ctx, "s1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStudentNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewStudentRepository(openTestDB(t))

	if _, err := repo.GetByID(ctx, "nope"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("GetByID: %v", err)
	}
	if err := repo.Update(ctx, &domain.Student{ID: "nope", Name: "n", Email: "n@x.com", Course: "c"}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Update: %v", err)
	}
	if _, err := repo.UpdateMarks(ctx, "nope", 1); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("UpdateMarks: %v", err)
	}
	if _, err := repo.DeleteByEmail(ctx, "missing@x.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("DeleteByEmail: %v", err)
	}
}

func TestStudentEmailUnique(t *testing.T) {
	ctx := context.Background()
	repo := NewStudentRepository(openTestDB(t))

	if err := repo.Create(ctx, &domain.Student{ID: "s1", Name: "A", Email: "dup@x.com", Course: "c", Marks: floatPtr(1)}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := repo.Create(ctx, &domain.Student{ID: "s2", Name: "B", Email: "dup@x.com", Course: "c"})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestPing(t *testing.T) {
	db := openTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	var nilDB *DB
	if err := nilDB.Ping(context.Background()); err == nil {
		t.Fatal("expected error for nil db")
	}
}
