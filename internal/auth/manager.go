package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"docsflow/internal/api"
	"docsflow/internal/model"
	"docsflow/internal/session"
)

// Status is the tri-state consumed by route guards.
type Status string

const (
	StatusLoading         Status = "loading"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// ErrNoToken is returned when the login response carries no access token.
var ErrNoToken = errors.New("no token received from server")

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Manager owns the current user. Nothing else mutates it.
type Manager struct {
	client  *api.Client
	session *session.Session
	now     func() time.Time

	mu     sync.RWMutex
	user   *model.User
	status Status
	err    string
}

// NewManager returns a manager in the loading state. Call Restore to settle it.
func NewManager(client *api.Client, sess *session.Session) *Manager {
	return &Manager{
		client:  client,
		session: sess,
		now:     time.Now,
		status:  StatusLoading,
	}
}

// Restore settles the manager from the stored credential. An expired JWT is
// dropped without a network call; anything else is checked against /users/me.
func (m *Manager) Restore(ctx context.Context) bool {
	m.setStatus(StatusLoading)

	token, err := m.session.Token(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to read session token")
		m.settle(nil)
		return false
	}
	if token == "" {
		m.settle(nil)
		return false
	}

	if m.expired(token) {
		log.Ctx(ctx).Debug().Msg("stored token expired")
		m.dropToken(ctx)
		m.settle(nil)
		return false
	}

	var user model.User
	if err := m.client.Do(ctx, http.MethodGet, "/users/me", nil, &user); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("error checking auth status")
		m.dropToken(ctx)
		m.settle(nil)
		return false
	}

	m.settle(&user)
	return true
}

// Login exchanges credentials for a token, persists it and loads the user.
func (m *Manager) Login(ctx context.Context, email, password string) (*model.User, error) {
	m.mu.Lock()
	m.err = ""
	m.status = StatusLoading
	m.mu.Unlock()

	user, err := m.login(ctx, email, password)
	if err != nil {
		m.mu.Lock()
		m.err = api.Message(err, "login failed")
		m.user = nil
		m.status = StatusUnauthenticated
		m.mu.Unlock()
		return nil, err
	}

	m.settle(user)
	out := *user
	return &out, nil
}

func (m *Manager) login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, api.Invalid("email", "is required")
	}
	if password == "" {
		return nil, api.Invalid("password", "is required")
	}

	var resp loginResponse
	if err := m.client.Do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, ErrNoToken
	}
	if err := m.session.SetToken(ctx, resp.AccessToken); err != nil {
		return nil, err
	}

	var user model.User
	if err := m.client.Do(ctx, http.MethodGet, "/users/me", nil, &user, api.WithBearer(resp.AccessToken)); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout clears the credential, the user and any error.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.session.Clear(ctx)
	m.mu.Lock()
	m.user = nil
	m.err = ""
	m.status = StatusUnauthenticated
	m.mu.Unlock()
	return err
}

// Expire marks the manager unauthenticated after the API client saw a 401.
// The credential has already been removed by then.
func (m *Manager) Expire() {
	m.mu.Lock()
	m.user = nil
	m.status = StatusUnauthenticated
	m.mu.Unlock()
}

// ForgotPassword requests a reset mail and returns the backend message.
func (m *Manager) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", api.Invalid("email", "is required")
	}
	var resp messageResponse
	if err := m.client.Do(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ResetPassword sets a new password using a reset token.
func (m *Manager) ResetPassword(ctx context.Context, token, password, confirm string) (string, error) {
	if !ValidateResetToken(token) {
		return "", api.Invalid("token", "is invalid")
	}
	if password == "" {
		return "", api.Invalid("password", "is required")
	}
	if password != confirm {
		return "", api.Invalid("confirm_password", "passwords do not match")
	}
	var resp messageResponse
	body := map[string]string{"token": token, "new_password": password}
	if err := m.client.Do(ctx, http.MethodPost, "/auth/reset-password", body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ValidateResetToken only checks the shape; the backend validates on reset.
func ValidateResetToken(token string) bool {
	return len(token) > 10
}

// User returns a copy of the current user, or nil.
func (m *Manager) User() *model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) IsAuthenticated() bool { return m.Status() == StatusAuthenticated }

func (m *Manager) IsLoading() bool { return m.Status() == StatusLoading }

// Err returns the last login error message.
func (m *Manager) Err() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

func (m *Manager) ClearError() {
	m.mu.Lock()
	m.err = ""
	m.mu.Unlock()
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}

func (m *Manager) settle(user *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = user
	if user != nil {
		m.status = StatusAuthenticated
	} else {
		m.status = StatusUnauthenticated
	}
}

func (m *Manager) dropToken(ctx context.Context) {
	if err := m.session.Clear(context.WithoutCancel(ctx)); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to clear session token")
	}
}

// expired reports whether token is a JWT whose exp lies in the past. Opaque
// tokens and tokens without exp are left to the backend.
func (m *Manager) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(m.now())
}
