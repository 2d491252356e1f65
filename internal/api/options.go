package api

import (
	"net/http"
	"time"

	"docsflow/internal/session"
)

// Navigator is told when the user must sign in again.
type Navigator interface {
	RedirectToLogin()
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func()

func (f NavigatorFunc) RedirectToLogin() { f() }

// ClientConfig holds the configuration for the API client.
type ClientConfig struct {
	BaseURL        string
	HTTPClient     *http.Client
	Timeout        time.Duration
	DefaultHeaders map[string]string
	UserAgent      string
	Session        *session.Session
	Navigator      Navigator
}

// DefaultConfig returns the default configuration
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:        "http://127.0.0.1:8000",
		DefaultHeaders: map[string]string{"Accept": "application/json"},
		UserAgent:      "docsflow/1.0",
	}
}

// ClientOption is a function that modifies ClientConfig
type ClientOption func(*ClientConfig)

// WithBaseURL sets the backend base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *ClientConfig) {
		c.BaseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *ClientConfig) {
		c.HTTPClient = client
	}
}

// WithTimeout sets the request timeout. Zero means no timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithHeaders sets custom default headers
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *ClientConfig) {
		c.DefaultHeaders = headers
	}
}

// WithUserAgent sets the user agent string
func WithUserAgent(userAgent string) ClientOption {
	return func(c *ClientConfig) {
		c.UserAgent = userAgent
	}
}

// WithSession sets the session holding the bearer credential
func WithSession(s *session.Session) ClientOption {
	return func(c *ClientConfig) {
		c.Session = s
	}
}

// WithNavigator sets the receiver of login redirects
func WithNavigator(n Navigator) ClientOption {
	return func(c *ClientConfig) {
		c.Navigator = n
	}
}
