package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"docsflow/internal/session"
)

const healthTimeout = 2 * time.Second

// HealthCheck reports healthy when the session store answers a ping. Stores
// without a network dependency are always healthy.
func HealthCheck(store session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if p, ok := store.(session.Pinger); ok {
			ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				log.Ctx(c.UserContext()).Warn().Err(err).Msg("session store ping failed")
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always answers 200.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
