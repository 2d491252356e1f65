package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"docsflow/internal/api"
	"docsflow/internal/http/middleware"
	"docsflow/internal/repository"
	"docsflow/internal/service"
	"docsflow/internal/workspace"
)

// LoginPath is where the browser is sent when a session is missing or expired.
const LoginPath = "/login"

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
	Redirect  string        `json:"redirect,omitempty"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if s, ok := c.Locals(middleware.RequestIDLocalKey).(string); ok {
		return s
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "UPSTREAM_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error:     errorEnvelope{Code: code, Message: message},
	}
	if status == fiber.StatusUnauthorized {
		res.Redirect = LoginPath
	}
	return c.Status(status).JSON(res)
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", "authentication required")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusConflict:
			return writeError(c, status, "CONFLICT", "already signed in")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}

// writeFailure maps the error of one controller call to a response. The
// message comes from a *service.Failure when err carries one, else from err
// itself, else fallback.
func writeFailure(c *fiber.Ctx, ws *workspace.Workspace, err error, fallback string) error {
	if fallback == "" {
		fallback = "request failed"
	}
	msg := api.Message(err, fallback)
	var f *service.Failure
	if errors.As(err, &f) && f.Message != "" {
		msg = f.Message
	}

	if api.IsUnauthorized(err) {
		// The client already cleared the credential; the flag is spent here.
		if ws != nil {
			ws.TakeLoginRedirect()
		}
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", msg)
	}

	var (
		ve *api.ValidationError
		ne *api.NetworkError
		se *api.ServerError
	)
	switch {
	case errors.As(err, &ve):
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", msg)
	case errors.Is(err, repository.ErrNotFound) || api.IsNotFound(err):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", msg)
	case errors.As(err, &ne):
		return writeError(c, fiber.StatusBadGateway, "UPSTREAM_UNAVAILABLE", msg)
	case errors.As(err, &se) && se.IsClientError():
		return writeError(c, se.StatusCode, "UPSTREAM_REJECTED", msg)
	default:
		return writeError(c, fiber.StatusBadGateway, "UPSTREAM_ERROR", msg)
	}
}
