package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/student-admin-service/internal/auth"
	"github.com/spec-kit/student-admin-service/internal/repository/sqlite"
	"github.com/spec-kit/student-admin-service/internal/service"
	apperrors "github.com/spec-kit/student-admin-service/pkg/util"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

type fixture struct {
	db       *sqlite.DB
	auth     *service.AuthService
	students *service.StudentService
	clock    *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "svc.db"))
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	clk := &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	tm := auth.NewTokenManager("test-secret", time.Hour).WithClock(clk.Now)

	return &fixture{
		db: db,
		auth: service.NewAuthService(service.AuthDependencies{
			AdminRepo:    sqlite.NewAdminRepository(db),
			Hasher:       auth.NewBcryptHasher(bcrypt.MinCost),
			TokenManager: tm,
		}),
		students: service.NewStudentService(sqlite.NewStudentRepository(db)),
		clock:    clk,
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if !apperrors.HasCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}
