package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("DOCSFLOW_API_URL", "http://backend:9000")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("SESSION_IDLE_TIMEOUT", "5m")
	t.Setenv("UPLOAD_CONCURRENCY", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "http://backend:9000", cfg.API.BaseURL)
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, 4, cfg.Upload.Concurrency)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.API.BaseURL)
	assert.Equal(t, int64(1), cfg.API.DefaultDepartmentID)
	assert.Equal(t, 10, cfg.API.PageSize)
	assert.Equal(t, 50, cfg.API.SearchLimit)
	assert.Equal(t, time.Duration(0), cfg.API.Timeout)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, "docsflow_sid", cfg.Session.CookieName)
	assert.False(t, cfg.Session.CookieSecure)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "docsflow-gateway", cfg.Database.ApplicationName)
}

func TestLoadClampsInvalidValues(t *testing.T) {
	t.Setenv("DOCSFLOW_PAGE_SIZE", "0")
	t.Setenv("DOCSFLOW_SEARCH_LIMIT", "-3")
	t.Setenv("UPLOAD_CONCURRENCY", "-1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.API.PageSize)
	assert.Equal(t, 50, cfg.API.SearchLimit)
	assert.Equal(t, 0, cfg.Upload.Concurrency)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "many")

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}
