package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docsflow/internal/api"
)

const (
	// RequestIDHeader is the header used to propagate request IDs.
	RequestIDHeader = api.RequestIDHeader
	// RequestIDLocalKey is the key used to store the request ID in Fiber's context locals.
	RequestIDLocalKey = "request_id"

	maxRequestIDLen = 128
)

// RequestID accepts a well-formed incoming X-Request-ID or mints a UUID. The id
// is echoed on the response, kept in locals, and put on the user context so
// backend calls made for this request forward it.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		c.Locals(RequestIDLocalKey, id)
		c.Set(RequestIDHeader, id)
		c.SetUserContext(api.ContextWithRequestID(c.UserContext(), id))
		return c.Next()
	}
}

// validRequestID keeps ids that end up in log lines and upstream headers to
// short printable ASCII.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
