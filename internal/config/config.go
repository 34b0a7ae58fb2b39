package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Storage drivers understood by the composition root.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Storage  StorageConfig  `yaml:"storage"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Logger   LoggerConfig   `yaml:"logger"`
	Auth     AuthConfig     `yaml:"auth"`
	CORS     CORSConfig     `yaml:"cors"`
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `yaml:"name" env:"APP_NAME" env-default:"student-admin-service"`
	Env                   string `yaml:"env" env:"APP_ENV" env-default:"development"`
	Host                  string `yaml:"host" env:"APP_HOST" env-default:"0.0.0.0"`
	Port                  string `yaml:"port" env:"APP_PORT" env-default:"8080"`
	Version               string `yaml:"version" env:"APP_VERSION" env-default:"dev"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds" env:"HTTP_REQUEST_TIMEOUT_SECONDS" env-default:"30"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver     string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"students.db"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string `yaml:"dsn" env:"POSTGRES_DSN"`
	MaxConns       int32  `yaml:"max_conns" env:"POSTGRES_MAX_CONNS" env-default:"10"`
	MinConns       int32  `yaml:"min_conns" env:"POSTGRES_MIN_CONNS" env-default:"2"`
	RunMigrations  bool   `yaml:"run_migrations" env:"POSTGRES_RUN_MIGRATIONS" env-default:"true"`
	ConnMaxIdleSec int32  `yaml:"conn_max_idle_seconds" env:"POSTGRES_CONN_MAX_IDLE_SECONDS" env-default:"30"`
	ConnMaxLifeSec int32  `yaml:"conn_max_life_seconds" env:"POSTGRES_CONN_MAX_LIFE_SECONDS" env-default:"300"`
}

// RedisConfig holds Redis connection and student cache values.
type RedisConfig struct {
	Addr            string `yaml:"addr" env:"REDIS_ADDR" env-default:"127.0.0.1:6379"`
	Password        string `yaml:"password" env:"REDIS_PASSWORD"`
	DB              int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	CacheEnabled    bool   `yaml:"cache_enabled" env:"REDIS_CACHE_ENABLED" env-default:"true"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds" env:"REDIS_CACHE_TTL_SECONDS" env-default:"300"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET" env-default:"dev-secret"`
	AccessTokenTTLMinutes int    `yaml:"access_token_ttl_minutes" env:"AUTH_ACCESS_TOKEN_TTL_MINUTES" env-default:"60"`
	BcryptCost            int    `yaml:"bcrypt_cost" env:"AUTH_BCRYPT_COST" env-default:"12"`
	ProtectStudents       bool   `yaml:"protect_students" env:"AUTH_PROTECT_STUDENTS" env-default:"true"`
}

// CORSConfig lists browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:5173"`
}

// Load reads configuration from an optional YAML file (CONFIG_PATH) and environment variables,
// applying defaults where possible. Environment values win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Storage.Driver) {
	case StorageDriverPostgres, StorageDriverSQLite:
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("AUTH_JWT_SECRET must not be empty")
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("AUTH_BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the bearer token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	if a.AccessTokenTTLMinutes <= 0 {
		return 60 * time.Minute
	}
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// CacheTTL returns how long student records stay cached.
func (r RedisConfig) CacheTTL() time.Duration {
	if r.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(r.CacheTTLSeconds) * time.Second
}
