package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/student-admin-service/internal/api/http"
	"github.com/spec-kit/student-admin-service/internal/api/http/handlers"
	"github.com/spec-kit/student-admin-service/internal/auth"
	"github.com/spec-kit/student-admin-service/internal/config"
	"github.com/spec-kit/student-admin-service/internal/observability"
	"github.com/spec-kit/student-admin-service/internal/persistence"
	"github.com/spec-kit/student-admin-service/internal/repository"
	"github.com/spec-kit/student-admin-service/internal/repository/sqlite"
	"github.com/spec-kit/student-admin-service/internal/service"
)

type stores struct {
	admins   repository.AdminRepository
	students repository.StudentRepository
	db       handlers.Pinger
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer st.close()

	deps := map[string]handlers.Pinger{strings.ToLower(cfg.Storage.Driver): st.db}
	students := st.students
	if cfg.Redis.CacheEnabled {
		redis := persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		students = repository.NewCachedStudentRepository(students, redis.Client, cfg.Redis.CacheTTL(), logger)
		deps["redis"] = redis
	}

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	authService := service.NewAuthService(service.AuthDependencies{
		AdminRepo:    st.admins,
		Hasher:       auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		TokenManager: tokenManager,
	})
	studentService := service.NewStudentService(students)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.App.RequestTimeout(),
		WriteTimeout:          cfg.App.RequestTimeout(),
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:  logger,
		Metrics: metrics,
		Timeout: cfg.App.RequestTimeout(),
		CORS:    cfg.CORS,
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Auth:            handlers.NewAuthHandler(authService),
		Students:        handlers.NewStudentsHandler(studentService),
		AuthMiddleware:  auth.NewAuthMiddleware(authService),
		Metrics:         metrics,
		ProtectStudents: cfg.Auth.ProtectStudents,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	switch strings.ToLower(cfg.Storage.Driver) {
	case config.StorageDriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("using sqlite storage", zap.String("path", cfg.Storage.SQLitePath))
		return &stores{
			admins:   sqlite.NewAdminRepository(db),
			students: sqlite.NewStudentRepository(db),
			db:       db,
			close:    func() { _ = db.Close() },
		}, nil
	default:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				pg.Close()
				return nil, err
			}
		}
		pool := pg.PoolHandle()
		return &stores{
			admins:   repository.NewAdminRepository(pool),
			students: repository.NewStudentRepository(pool),
			db:       pg,
			close:    pg.Close,
		}, nil
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
