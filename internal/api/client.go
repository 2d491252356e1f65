package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client is the single HTTP gateway to the DocsFlow backend. It attaches the
// stored bearer credential to every request and handles 401 centrally.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new API client with the given options.
func NewClient(options ...ClientOption) *Client {
	config := DefaultConfig()
	for _, option := range options {
		option(config)
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
	}
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.config.BaseURL }

// RequestOption customizes a single request.
type RequestOption func(*http.Request)

// WithBearer sends token instead of the stored credential.
func WithBearer(token string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

// Do sends body as JSON (when non-nil) and decodes a 2xx response into out
// (when non-nil).
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(ctx, req, out, opts)
}

// Upload sends form as multipart/form-data. onProgress, when non-nil, is called
// with the integer percentage of the body sent so far.
func (c *Client) Upload(ctx context.Context, path string, form *Form, onProgress func(int), out any, opts ...RequestOption) error {
	payload, contentType, err := form.encode()
	if err != nil {
		return err
	}

	var reader io.Reader = bytes.NewReader(payload)
	if onProgress != nil {
		reader = newProgressReader(reader, int64(len(payload)), onProgress)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.ContentLength = int64(len(payload))
	req.Header.Set("Content-Type", contentType)

	return c.send(ctx, req, out, opts)
}

func (c *Client) send(ctx context.Context, req *http.Request, out any, opts []RequestOption) error {
	for key, value := range c.config.DefaultHeaders {
		req.Header.Set(key, value)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}
	if c.config.Session != nil {
		token, err := c.config.Session.Token(ctx)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("failed to read session token")
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for _, opt := range opts {
		opt(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Msg("network error, no response received")
		return &NetworkError{Method: req.Method, URL: req.URL.String(), Err: err}
	}

	log.Ctx(ctx).Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status_code", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("api request")

	return c.handleResponse(ctx, resp, out)
}

// handleResponse processes the HTTP response and unmarshals JSON if successful
func (c *Client) handleResponse(ctx context.Context, resp *http.Response, out any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Method: resp.Request.Method, URL: resp.Request.URL.String(), Err: err}
	}

	requestID := resp.Header.Get(RequestIDHeader)

	if resp.StatusCode == http.StatusUnauthorized {
		c.unauthorized(ctx)
		return &AuthError{Message: errorMessage(body), RequestID: requestID}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := errorMessage(body)
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		log.Ctx(ctx).Error().
			Int("status_code", resp.StatusCode).
			Str("body", string(body)).
			Str("request_id", requestID).
			Msg("response error")
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    msg,
			Body:       string(body),
			RequestID:  requestID,
		}
	}

	if out != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

// unauthorized drops the credential and asks the navigator for a login. It
// runs once per 401 response and outlives a cancelled request context.
func (c *Client) unauthorized(ctx context.Context) {
	if c.config.Session != nil {
		if err := c.config.Session.Clear(context.WithoutCancel(ctx)); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("failed to clear session token")
		}
	}
	if c.config.Navigator != nil {
		c.config.Navigator.RedirectToLogin()
	}
}

// errorMessage extracts detail, message or error from a JSON error body.
// FastAPI validation errors carry a list under detail; the first msg wins.
func errorMessage(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	if len(payload.Detail) > 0 {
		var s string
		if json.Unmarshal(payload.Detail, &s) == nil && s != "" {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(payload.Detail, &items) == nil && len(items) > 0 && items[0].Msg != "" {
			return items[0].Msg
		}
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
