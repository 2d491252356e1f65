package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"docsflow/internal/api"
	"docsflow/internal/config"
	"docsflow/internal/session"
	"docsflow/internal/workspace"
)

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())

	app.Get("/test", func(c *fiber.Ctx) error {
		rid := c.Locals(RequestIDLocalKey)
		return c.SendString(rid.(string))
	})

	t.Run("should generate new request id if not present", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		ridHeader := resp.Header.Get(RequestIDHeader)
		assert.NotEmpty(t, ridHeader)

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, ridHeader, buf.String())
	})

	t.Run("should preserve existing request id", func(t *testing.T) {
		existingID := "test-id-123"
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, existingID)

		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, existingID, resp.Header.Get(RequestIDHeader))

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, existingID, buf.String())
	})

	t.Run("should replace malformed request id", func(t *testing.T) {
		for _, bad := range []string{"has space", strings.Repeat("a", 129), "café-id"} {
			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set(RequestIDHeader, bad)

			resp, err := app.Test(req)
			require.NoError(t, err)
			got := resp.Header.Get(RequestIDHeader)
			assert.NotEqual(t, bad, got)
			assert.Len(t, got, 36)
		}
	})

	t.Run("should expose request id on user context", func(t *testing.T) {
		ctxApp := fiber.New()
		ctxApp.Use(RequestID())
		ctxApp.Get("/ctx", func(c *fiber.Ctx) error {
			return c.SendString(api.RequestIDFromContext(c.UserContext()))
		})

		req := httptest.NewRequest("GET", "/ctx", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		resp, err := ctxApp.Test(req)
		require.NoError(t, err)

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, "abc-123", buf.String())
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	loc := time.UTC

	app.Use(RequestID())
	app.Use(LoggerWithWriter(&buf, loc))

	var handlerRID string
	app.Get("/test", func(c *fiber.Ctx) error {
		// The request logger travels on the user context.
		zerolog.Ctx(c.UserContext()).Debug().Msg("inside handler")
		handlerRID, _ = c.Locals(RequestIDLocalKey).(string)
		return c.SendStatus(fiber.StatusAccepted)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var logData map[string]any
	err := json.Unmarshal([]byte(lines[len(lines)-1]), &logData)
	assert.NoError(t, err)

	assert.Equal(t, handlerRID, logData["request_id"])
	assert.Equal(t, "GET", logData["method"])
	assert.Equal(t, "/test", logData["path"])
	assert.Equal(t, float64(fiber.StatusAccepted), logData["status"])
	assert.NotNil(t, logData["latency"])
	assert.NotEmpty(t, logData["ts"])
	assert.Equal(t, "info", logData["level"])
	assert.NotContains(t, logData, "trace_id")
}

func TestLoggerTraceID(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()

	tid := trace.TraceID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     trace.SpanID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		TraceFlags: trace.FlagsSampled,
	})
	app.Use(func(c *fiber.Ctx) error {
		c.SetUserContext(trace.ContextWithSpanContext(c.UserContext(), sc))
		return c.Next()
	})
	app.Use(LoggerWithWriter(&buf, nil))
	app.Get("/traced", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest("GET", "/traced", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var logData map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &logData))
	assert.Equal(t, tid.String(), logData["trace_id"])
}

func TestLoggerErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(LoggerWithWriter(&buf, nil))
	app.Get("/gone", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadGateway, "upstream down")
	})

	resp, _ := app.Test(httptest.NewRequest("GET", "/gone", nil))
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	var logData map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &logData))
	assert.Equal(t, float64(fiber.StatusBadGateway), logData["status"])
	assert.Equal(t, "error", logData["level"])
	assert.Equal(t, "upstream down", logData["error"])
}

// backendWithUser answers GET /users/me for token "tok".
func backendWithUser(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/me" || r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":7,"role":"admin","email":"ana@example.com"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRegistry(t *testing.T, store session.Store) *workspace.Registry {
	srv := backendWithUser(t)
	return workspace.NewRegistry(store, workspace.Options{
		API: config.APIConfig{BaseURL: srv.URL, PageSize: 10, SearchLimit: 50, DefaultDepartmentID: 1},
	})
}

func TestSession(t *testing.T) {
	reg := newRegistry(t, session.NewMemoryStore())

	app := fiber.New()
	app.Use(Session(reg, SessionOptions{}))
	app.Get("/who", func(c *fiber.Ctx) error {
		return c.SendString(WorkspaceFrom(c).ID)
	})

	t.Run("issues a cookie when missing", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/who", nil))
		require.NoError(t, err)

		cookies := resp.Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "docsflow_sid", cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, cookies[0].Value, buf.String())
	})

	t.Run("reuses a valid cookie", func(t *testing.T) {
		sid := "5b0c8a7e-0d1f-4f55-9b7c-0a4a3f0f2d11"
		req := httptest.NewRequest("GET", "/who", nil)
		req.AddCookie(&http.Cookie{Name: "docsflow_sid", Value: sid})

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Empty(t, resp.Cookies())

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, sid, buf.String())
	})

	t.Run("replaces a malformed cookie", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/who", nil)
		req.AddCookie(&http.Cookie{Name: "docsflow_sid", Value: "../../etc"})

		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Len(t, resp.Cookies(), 1)
		assert.NotEqual(t, "../../etc", resp.Cookies()[0].Value)
	})
}

func TestGuards(t *testing.T) {
	store := session.NewMemoryStore()
	signedIn := "0e6c3f55-96a4-4b8a-8d8c-8a3a1f1d2c33"
	require.NoError(t, store.Set(context.Background(), session.TokenKey+":"+signedIn, "tok"))
	reg := newRegistry(t, store)

	app := fiber.New()
	app.Use(Session(reg, SessionOptions{}))
	app.Get("/private", RequireAuth(), func(c *fiber.Ctx) error { return c.SendString("secret") })
	app.Get("/login", RequireGuest(), func(c *fiber.Ctx) error { return c.SendString("form") })

	call := func(path, sid string) int {
		req := httptest.NewRequest("GET", path, nil)
		if sid != "" {
			req.AddCookie(&http.Cookie{Name: "docsflow_sid", Value: sid})
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusUnauthorized, call("/private", ""))
	assert.Equal(t, fiber.StatusOK, call("/login", ""))
	assert.Equal(t, fiber.StatusOK, call("/private", signedIn))
	assert.Equal(t, fiber.StatusConflict, call("/login", signedIn))
}
