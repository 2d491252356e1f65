package middleware

import (
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Logger writes one JSON access line per request to stdout.
func Logger() fiber.Handler {
	return LoggerWithWriter(os.Stdout, time.UTC)
}

// LoggerWithWriter is Logger with an explicit sink and timestamp location.
// Fields: request_id, method, path, status, latency (ms), ts, and trace_id
// when a sampled span is active.
// The request logger is also attached to the user context so handlers and the
// client library below them log with the same request_id.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	if loc == nil {
		loc = time.UTC
	}
	base := zerolog.New(w)

	return func(c *fiber.Ctx) error {
		start := time.Now()
		rid, _ := c.Locals(RequestIDLocalKey).(string)

		lc := base.With().Str("request_id", rid)
		if sc := trace.SpanContextFromContext(c.UserContext()); sc.IsValid() {
			lc = lc.Str("trace_id", sc.TraceID().String())
		}
		reqLogger := lc.Logger()
		c.SetUserContext(reqLogger.WithContext(c.UserContext()))

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		ev := reqLogger.Info()
		if status >= fiber.StatusInternalServerError {
			ev = reqLogger.Error().Err(err)
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Float64("latency", float64(time.Since(start).Microseconds())/1000).
			Str("ts", start.In(loc).Format(time.RFC3339Nano)).
			Send()

		return err
	}
}
