package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// APIConfig describes the remote DocsFlow backend.
// A zero Timeout leaves the transport default in place.
type APIConfig struct {
	BaseURL             string        `env:"DOCSFLOW_API_URL" envDefault:"http://127.0.0.1:8000"`
	Timeout             time.Duration `env:"DOCSFLOW_API_TIMEOUT" envDefault:"0s"`
	UserAgent           string        `env:"DOCSFLOW_USER_AGENT" envDefault:"docsflow/1.0"`
	DefaultDepartmentID int64         `env:"DOCSFLOW_DEFAULT_DEPARTMENT_ID" envDefault:"1"`
	PageSize            int           `env:"DOCSFLOW_PAGE_SIZE" envDefault:"10"`
	SearchLimit         int           `env:"DOCSFLOW_SEARCH_LIMIT" envDefault:"50"`
}

// SessionConfig selects where bearer credentials are persisted.
type SessionConfig struct {
	// Backend is one of memory, file, redis or postgres.
	Backend      string        `env:"SESSION_BACKEND" envDefault:"memory"`
	FilePath     string        `env:"SESSION_FILE"`
	KeyPrefix    string        `env:"SESSION_KEY_PREFIX" envDefault:"docsflow"`
	TTL          time.Duration `env:"SESSION_TTL" envDefault:"0s"`
	IdleTimeout  time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	CookieName   string        `env:"SESSION_COOKIE_NAME" envDefault:"docsflow_sid"`
	CookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
}

// RedisConfig holds connection settings for the redis session backend.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Username string `env:"REDIS_USERNAME"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string `env:"DB_HOST"`
	Port               string `env:"DB_PORT" envDefault:"5432"`
	User               string `env:"DB_USER"`
	Password           string `env:"DB_PASSWORD"`
	Name               string `env:"DB_NAME"`
	SSLMode            string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns       int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns       int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetimeSec int    `env:"DB_CONN_MAX_LIFETIME_SEC" envDefault:"300"`
	// ApplicationName tags session-store connections in pg_stat_activity.
	ApplicationName    string `env:"DB_APPLICATION_NAME" envDefault:"docsflow-gateway"`
}

// MinIOConfig holds object storage settings for bucket imports.
type MinIOConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET"`
	UseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
}

// UploadConfig tunes the upload orchestrator.
type UploadConfig struct {
	// Concurrency caps simultaneous uploads per batch; zero means unlimited.
	Concurrency    int   `env:"UPLOAD_CONCURRENCY" envDefault:"0"`
	MaxMultipartMB int64 `env:"UPLOAD_MAX_MULTIPART_MB" envDefault:"64"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string `env:"APP_HOST" envDefault:"localhost:8080"`
	Port     string `env:"PORT" envDefault:"8080"`
	API      APIConfig
	Session  SessionConfig
	Redis    RedisConfig
	Database DatabaseConfig
	MinIO    MinIOConfig
	Upload   UploadConfig
	Log      LogConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.API.PageSize <= 0 {
		cfg.API.PageSize = 10
	}
	if cfg.API.SearchLimit <= 0 {
		cfg.API.SearchLimit = 50
	}
	if cfg.Upload.Concurrency < 0 {
		cfg.Upload.Concurrency = 0
	}
	return cfg, nil
}
