package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/spec-kit/student-admin-service/internal/api/http"
	"github.com/spec-kit/student-admin-service/internal/api/http/handlers"
	"github.com/spec-kit/student-admin-service/internal/auth"
	"github.com/spec-kit/student-admin-service/internal/config"
	"github.com/spec-kit/student-admin-service/internal/observability"
	"github.com/spec-kit/student-admin-service/internal/repository/sqlite"
	"github.com/spec-kit/student-admin-service/internal/service"
)

type testServer struct {
	app *fiber.App
	db  *sqlite.DB
}

func newTestServer(t *testing.T, protect bool) *testServer {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	authService := service.NewAuthService(service.AuthDependencies{
		AdminRepo:    sqlite.NewAdminRepository(db),
		Hasher:       auth.NewBcryptHasher(bcrypt.MinCost),
		TokenManager: auth.NewTokenManager("test-secret", time.Hour),
	})
	studentService := service.NewStudentService(sqlite.NewStudentRepository(db))
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:  zap.NewNop(),
		Metrics: metrics,
		Timeout: 5 * time.Second,
		CORS:    config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler("test", "dev", map[string]handlers.Pinger{"sqlite": db}),
		Auth:            handlers.NewAuthHandler(authService),
		Students:        handlers.NewStudentsHandler(studentService),
		AuthMiddleware:  auth.NewAuthMiddleware(authService),
		Metrics:         metrics,
		ProtectStudents: protect,
	})
	return &testServer{app: app, db: db}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp, out
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	resp, _ := s.do(t, "POST", "/api/auth/register", fiber.Map{"email": "admin@x.com", "password": "pw1", "name": "Admin"}, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status %d", resp.StatusCode)
	}
	resp, body := s.do(t, "POST", "/api/auth/login", fiber.Map{"email": "admin@x.com", "password": "pw1"}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status %d: %s", resp.StatusCode, body)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.Token == "" {
		t.Fatalf("login body %s: %v", body, err)
	}
	return out.Token
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, body []byte) errorBody {
	t.Helper()
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		t.Fatalf("decode error body %s: %v", body, err)
	}
	return eb
}

func TestRegisterLoginVerifyFlow(t *testing.T) {
	s := newTestServer(t, true)

	resp, body := s.do(t, "POST", "/api/auth/register", fiber.Map{"email": "a@x.com", "password": "pw1", "name": "Alice"}, "")
	if resp.StatusCode != http.StatusCreated || !strings.Contains(string(body), "message") {
		t.Fatalf("register: %d %s", resp.StatusCode, body)
	}

	resp, body = s.do(t, "POST", "/api/auth/register", fiber.Map{"email": "a@x.com", "password": "other", "name": "B"}, "")
	if resp.StatusCode != http.StatusBadRequest || decodeError(t, body).Error.Code != "DUPLICATE_EMAIL" {
		t.Fatalf("duplicate register: %d %s", resp.StatusCode, body)
	}

	resp, body = s.do(t, "POST", "/api/auth/login", fiber.Map{"email": "a@x.com", "password": "pw1"}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: %d %s", resp.StatusCode, body)
	}
	var login struct {
		Token     string    `json:"token"`
		Email     string    `json:"email"`
		Name      string    `json:"name"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.Unmarshal(body, &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if login.Token == "" || login.Email != "a@x.com" || login.Name != "Alice" || login.ExpiresAt.IsZero() {
		t.Fatalf("unexpected login body %s", body)
	}

	resp, body = s.do(t, "GET", "/api/auth/verify", nil, login.Token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify: %d %s", resp.StatusCode, body)
	}
	var verify map[string]string
	if err := json.Unmarshal(body, &verify); err != nil {
		t.Fatalf("decode verify: %v", err)
	}
	if verify["token"] != login.Token || verify["email"] != "a@x.com" || verify["name"] != "Alice" {
		t.Fatalf("unexpected verify body %s", body)
	}
}

func TestLoginErrors(t *testing.T) {
	s := newTestServer(t, true)
	s.login(t)

	resp, body := s.do(t, "POST", "/api/auth/login", fiber.Map{"email": "admin@x.com", "password": "wrong"}, "")
	if resp.StatusCode != http.StatusUnauthorized || decodeError(t, body).Error.Code != "INVALID_CREDENTIALS" {
		t.Fatalf("wrong password: %d %s", resp.StatusCode, body)
	}

	resp, body = s.do(t, "POST", "/api/auth/login", fiber.Map{"email": "admin@x.com"}, "")
	if resp.StatusCode != http.StatusBadRequest || decodeError(t, body).Error.Code != "VALIDATION_FAILED" {
		t.Fatalf("missing password: %d %s", resp.StatusCode, body)
	}
}

func TestVerifyRejectsBadHeaders(t *testing.T) {
	s := newTestServer(t, true)
	token := s.login(t)

	for _, header := range []string{"", "Token " + token, "Bearer garbage"} {
		req := httptest.NewRequest("GET", "/api/auth/verify", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := s.app.Test(req, -1)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized || decodeError(t, body).Error.Code != "INVALID_TOKEN" {
			t.Fatalf("header %q: %d %s", header, resp.StatusCode, body)
		}
	}
}

func TestStudentRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, true)

	resp, _ := s.do(t, "GET", "/students", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	resp, body := s.do(t, "GET", "/students/ping", nil, "")
	if resp.StatusCode != http.StatusOK || string(body) != "Hello World" {
		t.Fatalf("ping: %d %s", resp.StatusCode, body)
	}

	token := s.login(t)
	resp, body = s.do(t, "GET", "/students", nil, token)
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "[]" {
		t.Fatalf("list: %d %s", resp.StatusCode, body)
	}
}

func TestStudentRoutesOpenWhenUnprotected(t *testing.T) {
	s := newTestServer(t, false)
	resp, _ := s.do(t, "GET", "/students", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

type studentBody struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Course string   `json:"course"`
	Marks  *float64 `json:"marks"`
}

func createStudent(t *testing.T, s *testServer, token string, payload fiber.Map) studentBody {
	t.Helper()
	resp, body := s.do(t, "POST", "/students", payload, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create: %d %s", resp.StatusCode, body)
	}
	var sb studentBody
	if err := json.Unmarshal(body, &sb); err != nil {
		t.Fatalf("decode student: %v", err)
	}
	return sb
}

func TestPatchMarks(t *testing.T) {
	s := newTestServer(t, true)
	token := s.login(t)
	student := createStudent(t, s, token, fiber.Map{"name": "Bob", "email": "bob@x.com", "course": "Math"})
	if student.ID == "" || student.Marks != nil {
		t.Fatalf("unexpected student %+v", student)
	}

	resp, body := s.do(t, "PATCH", "/students/"+student.ID+"/marks", fiber.Map{"marks": nil}, token)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("null marks: %d %s", resp.StatusCode, body)
	}

	resp, body = s.do(t, "PATCH", "/students/"+student.ID+"/marks", fiber.Map{}, token)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing marks: %d %s", resp.StatusCode, body)
	}

	resp, body = s.do(t, "PATCH", "/students/"+student.ID+"/marks", fiber.Map{"marks": 87.5}, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch marks: %d %s", resp.StatusCode, body)
	}
	var patched studentBody
	if err := json.Unmarshal(body, &patched); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if patched.Marks == nil || *patched.Marks != 87.5 || patched.Name != "Bob" {
		t.Fatalf("unexpected patched student %s", body)
	}

	resp, body = s.do(t, "PATCH", "/students/missing/marks", fiber.Map{"marks": 10}, token)
	if resp.StatusCode != http.StatusNotFound || decodeError(t, body).Error.Code != "NOT_FOUND" {
		t.Fatalf("missing id: %d %s", resp.StatusCode, body)
	}
}

func TestDeleteByEmail(t *testing.T) {
	s := newTestServer(t, true)
	token := s.login(t)

	resp, body := s.do(t, "DELETE", "/students/email/nobody@x.com", nil, token)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("delete missing: %d %s", resp.StatusCode, body)
	}

	student := createStudent(t, s, token, fiber.Map{"name": "Bob", "email": "bob@x.com", "course": "Math"})
	resp, body = s.do(t, "DELETE", "/students/email/bob@x.com", nil, token)
	if resp.StatusCode != http.StatusNoContent || len(body) != 0 {
		t.Fatalf("delete: %d %s", resp.StatusCode, body)
	}

	resp, _ = s.do(t, "GET", "/students/"+student.ID, nil, token)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: %d", resp.StatusCode)
	}
}

func TestStudentCreateUpdateAndConflicts(t *testing.T) {
	s := newTestServer(t, true)
	token := s.login(t)

	resp, body := s.do(t, "POST", "/students", fiber.Map{"name": "Bob"}, token)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid body: %d %s", resp.StatusCode, body)
	}

	bob := createStudent(t, s, token, fiber.Map{"name": "Bob", "email": "bob@x.com", "course": "Math", "marks": 50})
	createStudent(t, s, token, fiber.Map{"name": "Eve", "email": "eve@x.com", "course": "Art"})

	resp, body = s.do(t, "POST", "/students", fiber.Map{"name": "Bob2", "email": "bob@x.com", "course": "Math"}, token)
	if resp.StatusCode != http.StatusConflict || decodeError(t, body).Error.Code != "CONFLICT" {
		t.Fatalf("duplicate create: %d %s", resp.StatusCode, body)
	}

	resp, body = s.do(t, "PUT", "/students/"+bob.ID, fiber.Map{"name": "Robert", "email": "bob@x.com", "course": "Physics", "marks": nil}, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: %d %s", resp.StatusCode, body)
	}
	var updated studentBody
	if err := json.Unmarshal(body, &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Name != "Robert" || updated.Course != "Physics" || updated.Marks != nil {
		t.Fatalf("unexpected update %s", body)
	}

	resp, _ = s.do(t, "PUT", "/students/"+bob.ID, fiber.Map{"name": "Robert", "email": "eve@x.com", "course": "Physics"}, token)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("update to taken email: %d", resp.StatusCode)
	}

	resp, _ = s.do(t, "PUT", "/students/missing", fiber.Map{"name": "X", "email": "x@x.com", "course": "Y"}, token)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("update missing: %d", resp.StatusCode)
	}

	resp, body = s.do(t, "GET", "/students", nil, token)
	var list []studentBody
	if err := json.Unmarshal(body, &list); err != nil || resp.StatusCode != http.StatusOK || len(list) != 2 {
		t.Fatalf("list: %d %s %v", resp.StatusCode, body, err)
	}
}

func TestUnknownRouteUsesErrorBody(t *testing.T) {
	s := newTestServer(t, true)
	resp, body := s.do(t, "GET", "/nope", nil, "")
	if resp.StatusCode != http.StatusNotFound || decodeError(t, body).Error.Code != "NOT_FOUND" {
		t.Fatalf("unknown route: %d %s", resp.StatusCode, body)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, true)

	resp, body := s.do(t, "GET", "/health/ready", nil, "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"sqlite":"ok"`) {
		t.Fatalf("ready: %d %s", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("missing security headers")
	}

	resp, body = s.do(t, "GET", "/metrics", nil, "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "http_requests_total") {
		t.Fatalf("metrics: %d %s", resp.StatusCode, body)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, true)
	req := httptest.NewRequest("OPTIONS", "/students", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}
