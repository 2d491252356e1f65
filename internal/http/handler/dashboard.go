package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"docsflow/internal/http/middleware"
	"docsflow/internal/service"
)

// Dashboard refreshes and returns the workspace summary. A refresh overtaken
// by a concurrent one still answers with the current summary.
func Dashboard() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ws := middleware.WorkspaceFrom(c)
		summary, err := ws.Dashboard.Load(c.UserContext())
		if err != nil && !errors.Is(err, service.ErrSuperseded) {
			return writeFailure(c, ws, err, "")
		}
		return c.JSON(summary)
	}
}
