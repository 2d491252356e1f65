package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docsflow/internal/workspace"
)

// WorkspaceLocalKey is the locals key holding the request's *workspace.Workspace.
const WorkspaceLocalKey = "workspace"

// SessionOptions configure the browser session cookie.
type SessionOptions struct {
	CookieName string
	Secure     bool
	// MaxAge of the cookie; zero makes it a browser-session cookie.
	MaxAge time.Duration
}

// Session resolves the browser session cookie to a workspace. Requests
// without a valid cookie get a fresh UUID session id.
func Session(reg *workspace.Registry, opts SessionOptions) fiber.Handler {
	if opts.CookieName == "" {
		opts.CookieName = "docsflow_sid"
	}
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(opts.CookieName)
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
			cookie := &fiber.Cookie{
				Name:     opts.CookieName,
				Value:    sid,
				Path:     "/",
				HTTPOnly: true,
				Secure:   opts.Secure,
				SameSite: fiber.CookieSameSiteLaxMode,
			}
			if opts.MaxAge > 0 {
				cookie.MaxAge = int(opts.MaxAge.Seconds())
			}
			c.Cookie(cookie)
		}

		c.Locals(WorkspaceLocalKey, reg.Get(c.UserContext(), sid))
		return c.Next()
	}
}

// WorkspaceFrom returns the workspace stored by Session, or nil.
func WorkspaceFrom(c *fiber.Ctx) *workspace.Workspace {
	ws, _ := c.Locals(WorkspaceLocalKey).(*workspace.Workspace)
	return ws
}

// RequireAuth rejects requests whose workspace is not signed in with 401.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ws := WorkspaceFrom(c)
		if ws == nil || !ws.Auth.IsAuthenticated() {
			if ws != nil {
				ws.TakeLoginRedirect()
			}
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		return c.Next()
	}
}

// RequireGuest rejects requests from a signed-in workspace with 409.
func RequireGuest() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ws := WorkspaceFrom(c); ws != nil && ws.Auth.IsAuthenticated() {
			return fiber.NewError(fiber.StatusConflict, "already signed in")
		}
		return c.Next()
	}
}
