package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsflow/internal/api"
	"docsflow/internal/config"
	"docsflow/internal/http/middleware"
	"docsflow/internal/repository"
	"docsflow/internal/service"
	"docsflow/internal/session"
	"docsflow/internal/workspace"
)

// fakeBackend is the remote DocsFlow API. Token "tok" is the only valid one.
type fakeBackend struct {
	srv     *httptest.Server
	revoked atomic.Bool
	failing atomic.Bool
	deleted atomic.Int32
	// gates hold uploads of the named file until released. Set before use.
	gates map[string]*gate
}

type gate struct {
	reached chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{reached: make(chan struct{}), release: make(chan struct{})}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{}
	mux := http.NewServeMux()

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if b.revoked.Load() || r.Header.Get("Authorization") != "Bearer tok" {
				writeJSON(w, http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`)
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, `{"detail":"Incorrect email or password"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"access_token":"tok","token_type":"bearer"}`)
	})
	mux.HandleFunc("POST /auth/forgot-password", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"message":"If the account exists, an email was sent"}`)
	})
	mux.HandleFunc("POST /auth/reset-password", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"message":"Password updated"}`)
	})
	mux.HandleFunc("GET /users/me", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":7,"role":"admin","email":"ana@example.com"}`)
	}))
	mux.HandleFunc("GET /documents/{$}", authed(func(w http.ResponseWriter, r *http.Request) {
		if b.failing.Load() {
			writeJSON(w, http.StatusInternalServerError, `{}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"items":[
			{"id":1,"filename":"budget.xlsx","status":"published","uploaded_at":"2024-05-01T10:00:00","file_size":2048},
			{"id":2,"title":"Meeting notes","document_type":"memo","updated_at":"2024-05-02T10:00:00"}
		],"total":12}`)
	}))
	mux.HandleFunc("POST /documents/{$}", authed(func(w http.ResponseWriter, r *http.Request) {
		var data struct{ Title string }
		_ = json.NewDecoder(r.Body).Decode(&data)
		writeJSON(w, http.StatusCreated, fmt.Sprintf(`{"id":10,"title":%q,"status":"draft"}`, data.Title))
	}))
	mux.HandleFunc("GET /documents/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "404" {
			writeJSON(w, http.StatusNotFound, `{"detail":"Document not found"}`)
			return
		}
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"id":%s,"title":"Doc %s"}`, r.PathValue("id"), r.PathValue("id")))
	}))
	mux.HandleFunc("PUT /documents/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"id":%s,"title":"Renamed","status":"archived"}`, r.PathValue("id")))
	}))
	mux.HandleFunc("DELETE /documents/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		b.deleted.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("POST /documents/{id}/upload", authed(func(w http.ResponseWriter, r *http.Request) {
		_, fh, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, `{"detail":"file missing"}`)
			return
		}
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"data":{"id":%s,"title":"Doc","filename":%q}}`, r.PathValue("id"), fh.Filename))
	}))
	mux.HandleFunc("POST /documents/upload", authed(func(w http.ResponseWriter, r *http.Request) {
		_, fh, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, `{"detail":"file missing"}`)
			return
		}
		if gt, ok := b.gates[fh.Filename]; ok {
			close(gt.reached)
			<-gt.release
		}
		if fh.Filename == "bad.txt" || fh.Filename == "slow-bad.txt" {
			writeJSON(w, http.StatusInternalServerError, `{"detail":"storage full"}`)
			return
		}
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"id":20,"filename":%q,"department_id":%q}`, fh.Filename, r.FormValue("department_id")))
	}))

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

type gateway struct {
	t       *testing.T
	app     *fiber.App
	backend *fakeBackend
	reg     *workspace.Registry
	store   *session.MemoryStore
	sid     string
}

func newGateway(t *testing.T) *gateway {
	t.Helper()
	backend := newFakeBackend(t)
	store := session.NewMemoryStore()
	reg := workspace.NewRegistry(store, workspace.Options{
		API:        config.APIConfig{BaseURL: backend.srv.URL, PageSize: 10, SearchLimit: 50, DefaultDepartmentID: 1},
		HTTPClient: backend.srv.Client(),
	})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	RegisterRoutes(app, Deps{Registry: reg, Gatherer: prometheus.NewRegistry()})

	return &gateway{t: t, app: app, backend: backend, reg: reg, store: store}
}

// do sends a request carrying the gateway session cookie, capturing it on first use.
func (g *gateway) do(method, path string, body io.Reader, contentType string) *http.Response {
	g.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if g.sid != "" {
		req.AddCookie(&http.Cookie{Name: "docsflow_sid", Value: g.sid})
	}
	resp, err := g.app.Test(req, -1)
	require.NoError(g.t, err)
	for _, c := range resp.Cookies() {
		if c.Name == "docsflow_sid" {
			g.sid = c.Value
		}
	}
	return resp
}

func (g *gateway) doJSON(method, path string, body any) *http.Response {
	g.t.Helper()
	b, err := json.Marshal(body)
	require.NoError(g.t, err)
	return g.do(method, path, bytes.NewReader(b), fiber.MIMEApplicationJSON)
}

func (g *gateway) login() {
	g.t.Helper()
	resp := g.doJSON(http.MethodPost, "/api/auth/login", loginRequest{Email: "ana@example.com", Password: "secret"})
	require.Equal(g.t, http.StatusOK, resp.StatusCode)
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

type pingStore struct {
	*session.MemoryStore
	err error
}

func (p pingStore) Ping(context.Context) error { return p.err }

func TestHealthCheck(t *testing.T) {
	t.Run("healthy without pinger", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(session.NewMemoryStore()))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(pingStore{MemoryStore: session.NewMemoryStore(), err: errors.New("redis down")}))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOpsRoutes(t *testing.T) {
	g := newGateway(t)

	resp := g.do(http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = g.do(http.MethodGet, "/api/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
}

func TestAuthRoutes(t *testing.T) {
	g := newGateway(t)

	t.Run("protected route before login", func(t *testing.T) {
		resp := g.do(http.MethodGet, "/api/documents", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
		assert.Equal(t, LoginPath, body.Redirect)
		assert.NotEmpty(t, body.RequestID)
	})

	t.Run("me while signed out", func(t *testing.T) {
		resp := g.do(http.MethodGet, "/api/auth/me", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "unauthenticated", body["status"])
		assert.Nil(t, body["user"])
	})

	t.Run("missing email", func(t *testing.T) {
		resp := g.doJSON(http.MethodPost, "/api/auth/login", loginRequest{Password: "secret"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
		assert.Equal(t, "email: is required", body.Error.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := g.do(http.MethodPost, "/api/auth/login", strings.NewReader("{"), fiber.MIMEApplicationJSON)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Error.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := g.doJSON(http.MethodPost, "/api/auth/login", loginRequest{Email: "ana@example.com", Password: "nope"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Incorrect email or password", decodeError(t, resp).Error.Message)
	})

	t.Run("login then me", func(t *testing.T) {
		g.login()

		ws, ok := g.reg.Lookup(g.sid)
		require.True(t, ok)
		token, err := ws.Session.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok", token)

		resp := g.do(http.MethodGet, "/api/auth/me", nil, "")
		var body struct {
			Status string
			User   struct {
				ID    int64
				Email string
			}
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "authenticated", body.Status)
		assert.Equal(t, int64(7), body.User.ID)
	})

	t.Run("login again is rejected", func(t *testing.T) {
		resp := g.doJSON(http.MethodPost, "/api/auth/login", loginRequest{Email: "ana@example.com", Password: "secret"})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "CONFLICT", decodeError(t, resp).Error.Code)
	})

	t.Run("logout drops the workspace", func(t *testing.T) {
		before := g.reg.Len()
		resp := g.do(http.MethodPost, "/api/auth/logout", nil, "")
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, before-1, g.reg.Len())

		_, err := g.store.Get(context.Background(), session.TokenKey+":"+g.sid)
		assert.ErrorIs(t, err, session.ErrNotFound)

		resp = g.do(http.MethodGet, "/api/documents", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestPasswordRoutes(t *testing.T) {
	g := newGateway(t)

	resp := g.do(http.MethodGet, "/api/auth/reset-password/validate?token=abcdefghijk", nil, "")
	var valid map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&valid))
	assert.True(t, valid["valid"])

	resp = g.do(http.MethodGet, "/api/auth/reset-password/validate?token=short", nil, "")
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&valid))
	assert.False(t, valid["valid"])

	resp = g.doJSON(http.MethodPost, "/api/auth/forgot-password", forgotPasswordRequest{Email: "ana@example.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var msg map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
	assert.Equal(t, "If the account exists, an email was sent", msg["message"])

	resp = g.doJSON(http.MethodPost, "/api/auth/reset-password", resetPasswordRequest{Token: "abcdefghijk", Password: "a", ConfirmPassword: "b"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "confirm_password: passwords do not match", decodeError(t, resp).Error.Message)

	resp = g.doJSON(http.MethodPost, "/api/auth/reset-password", resetPasswordRequest{Token: "abcdefghijk", Password: "a", ConfirmPassword: "a"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
	assert.Equal(t, "Password updated", msg["message"])
}

func TestDocumentRoutes(t *testing.T) {
	g := newGateway(t)
	g.login()

	t.Run("list", func(t *testing.T) {
		resp := g.do(http.MethodGet, "/api/documents?page=1&limit=10", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body listResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body.Documents, 2)
		assert.Equal(t, "budget.xlsx", body.Documents[0].Title)
		assert.Equal(t, 12, body.Pagination.Total)
		assert.True(t, body.HasNext)
		assert.False(t, body.HasPrev)
	})

	t.Run("search", func(t *testing.T) {
		resp := g.do(http.MethodGet, "/api/documents?q=meeting", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body listResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body.Documents, 1)
		assert.Equal(t, int64(2), body.Documents[0].ID)
		assert.Equal(t, 1, body.Pagination.Total)
	})

	t.Run("invalid paging", func(t *testing.T) {
		resp := g.do(http.MethodGet, "/api/documents?limit=ten", nil, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_LIMIT", decodeError(t, resp).Error.Code)

		resp = g.do(http.MethodGet, "/api/documents?page=-1", nil, "")
		assert.Equal(t, "INVALID_PAGE", decodeError(t, resp).Error.Code)
	})

	t.Run("get", func(t *testing.T) {
		resp := g.do(http.MethodGet, "/api/documents/5", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var doc map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
		assert.Equal(t, "Doc 5", doc["title"])

		resp = g.do(http.MethodGet, "/api/documents/404", nil, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Document not found", decodeError(t, resp).Error.Message)

		resp = g.do(http.MethodGet, "/api/documents/abc", nil, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
	})

	t.Run("create", func(t *testing.T) {
		resp := g.doJSON(http.MethodPost, "/api/documents", map[string]any{"title": ""})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "title: is required", decodeError(t, resp).Error.Message)

		resp = g.doJSON(http.MethodPost, "/api/documents", map[string]any{"title": "Plan"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var doc map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
		assert.Equal(t, "Plan", doc["title"])
	})

	t.Run("update", func(t *testing.T) {
		resp := g.doJSON(http.MethodPut, "/api/documents/2", map[string]any{"status": "archived"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var doc map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
		assert.Equal(t, "archived", doc["status"])

		resp = g.doJSON(http.MethodPut, "/api/documents/2", map[string]any{"status": "shredded"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("attach file", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", "scan.pdf")
		require.NoError(t, err)
		fw.Write([]byte("%PDF-1.4"))
		require.NoError(t, mw.Close())

		resp := g.do(http.MethodPost, "/api/documents/3/file", &buf, mw.FormDataContentType())
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var doc map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
		assert.Equal(t, "scan.pdf", doc["fileName"])

		resp = g.do(http.MethodPost, "/api/documents/3/file", nil, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp).Error.Code)
	})

	t.Run("delete", func(t *testing.T) {
		resp := g.do(http.MethodDelete, "/api/documents/1", nil, "")
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, int32(1), g.backend.deleted.Load())
	})

	t.Run("backend failure", func(t *testing.T) {
		g.backend.failing.Store(true)
		defer g.backend.failing.Store(false)

		resp := g.do(http.MethodGet, "/api/documents", nil, "")
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "UPSTREAM_ERROR", body.Error.Code)
		assert.Equal(t, "HTTP 500", body.Error.Message)
	})
}

func TestSessionExpiry(t *testing.T) {
	g := newGateway(t)
	g.login()
	g.backend.revoked.Store(true)

	resp := g.do(http.MethodGet, "/api/documents", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, LoginPath, body.Redirect)
	assert.Equal(t, "Could not validate credentials", body.Error.Message)

	_, err := g.store.Get(context.Background(), session.TokenKey+":"+g.sid)
	assert.ErrorIs(t, err, session.ErrNotFound)

	ws, ok := g.reg.Lookup(g.sid)
	require.True(t, ok)
	assert.False(t, ws.Auth.IsAuthenticated())
	assert.False(t, ws.TakeLoginRedirect(), "redirect flag is consumed by the response")
}

func TestUploadRoutes(t *testing.T) {
	g := newGateway(t)
	g.login()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range []string{"good.txt", "bad.txt"} {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		fw.Write([]byte("contents of " + name))
	}
	require.NoError(t, mw.WriteField("department_id", "3"))
	require.NoError(t, mw.WriteField("tags", "a, b,,"))
	require.NoError(t, mw.Close())

	resp := g.do(http.MethodPost, "/api/uploads", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var batch struct {
		Documents []map[string]any
		Failed    []map[string]any
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&batch))
	require.Len(t, batch.Documents, 1)
	assert.Equal(t, "good.txt", batch.Documents[0]["fileName"])
	require.Len(t, batch.Failed, 1)
	assert.Equal(t, "bad.txt", batch.Failed[0]["fileName"])
	assert.Equal(t, "storage full", batch.Failed[0]["error"])

	resp = g.do(http.MethodGet, "/api/uploads", nil, "")
	var list uploadsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list.Records, 2)
	assert.False(t, list.Uploading)

	resp = g.do(http.MethodDelete, "/api/uploads/"+list.Records[0].ID, nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = g.do(http.MethodDelete, "/api/uploads/"+list.Records[0].ID, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = g.do(http.MethodDelete, "/api/uploads", nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = g.do(http.MethodGet, "/api/uploads", nil, "")
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Empty(t, list.Records)

	resp = g.do(http.MethodPost, "/api/uploads", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDashboardRoute(t *testing.T) {
	g := newGateway(t)
	g.login()

	resp := g.do(http.MethodGet, "/api/dashboard", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary struct {
		Total        int
		BackendTotal int
		ByStatus     map[string]int
		TotalBytes   int64
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 12, summary.BackendTotal)
	assert.Equal(t, 1, summary.ByStatus["published"])
	assert.Equal(t, int64(2048), summary.TotalBytes)
}

func TestWriteFailure(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", api.Invalid("title", "is required"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"id required", repository.ErrIDRequired, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"not found sentinel", fmt.Errorf("%w: 9", repository.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"not found status", &api.ServerError{StatusCode: 404}, http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", &api.AuthError{}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"network", &api.NetworkError{Method: "GET", URL: "x", Err: errors.New("refused")}, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE"},
		{"client error passes through", &api.ServerError{StatusCode: 413}, http.StatusRequestEntityTooLarge, "UPSTREAM_REJECTED"},
		{"server error", &api.ServerError{StatusCode: 503}, http.StatusBadGateway, "UPSTREAM_ERROR"},
		{"anything else", errors.New("boom"), http.StatusBadGateway, "UPSTREAM_ERROR"},
		{"controller failure", &service.Failure{Message: "failed to load document", Err: errors.New("eof")}, http.StatusBadGateway, "UPSTREAM_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return writeFailure(c, nil, tc.err, "") })

			resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tc.status, resp.StatusCode)
			body := decodeError(t, resp)
			assert.Equal(t, tc.code, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}

	t.Run("failure message wins over fallback", func(t *testing.T) {
		app := fiber.New()
		err := &service.Failure{Message: "Document not found", Err: fmt.Errorf("%w: 9", repository.ErrNotFound)}
		app.Get("/", func(c *fiber.Ctx) error { return writeFailure(c, nil, err, "request failed") })

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Document not found", decodeError(t, resp).Error.Message)
	})
}

func TestOverlappingUploadBatches(t *testing.T) {
	g := newGateway(t)
	g.login()
	first, second := newGate(), newGate()
	g.backend.gates = map[string]*gate{"slow-bad.txt": first, "slow-ok.txt": second}

	upload := func(name string) *http.Request {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, _ = fw.Write([]byte("payload"))
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/uploads", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.AddCookie(&http.Cookie{Name: "docsflow_sid", Value: g.sid})
		return req
	}
	type outcome struct {
		status int
		body   uploadBatchResponse
		err    error
	}
	send := func(req *http.Request, out chan<- outcome) {
		resp, err := g.app.Test(req, -1)
		if err != nil {
			out <- outcome{err: err}
			return
		}
		var body uploadBatchResponse
		err = json.NewDecoder(resp.Body).Decode(&body)
		out <- outcome{status: resp.StatusCode, body: body, err: err}
	}

	firstDone, secondDone := make(chan outcome, 1), make(chan outcome, 1)
	go send(upload("slow-bad.txt"), firstDone)
	<-first.reached
	go send(upload("slow-ok.txt"), secondDone)
	<-second.reached

	// The first batch fails while the second is still running.
	close(first.release)
	a := <-firstDone
	close(second.release)
	b := <-secondDone

	require.NoError(t, a.err)
	require.NoError(t, b.err)
	assert.Equal(t, http.StatusOK, a.status)
	require.Len(t, a.body.Failed, 1)
	assert.Equal(t, "slow-bad.txt", a.body.Failed[0].FileName)
	assert.Empty(t, a.body.Documents)

	assert.Equal(t, http.StatusOK, b.status)
	assert.Empty(t, b.body.Failed)
	require.Len(t, b.body.Documents, 1)
}
