package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docsflow/docs"
	"docsflow/internal/http/middleware"
	"docsflow/internal/workspace"
)

// Deps are the collaborators RegisterRoutes wires into the app.
type Deps struct {
	Registry *workspace.Registry
	// Gatherer backs /metrics; nil leaves the route out.
	Gatherer prometheus.Gatherer
	Session  middleware.SessionOptions
}

// RegisterRoutes attaches every gateway route to app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	app.Get("/health", HealthCheck(deps.Registry.Store()))
	app.Get("/healthz", LivenessProbe())
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}
	app.Get("/swagger/*", Swagger())

	apiGroup := app.Group("/api", middleware.Session(deps.Registry, deps.Session))

	authGroup := apiGroup.Group("/auth")
	authGroup.Post("/login", middleware.RequireGuest(), Login())
	authGroup.Post("/logout", Logout(deps.Registry))
	authGroup.Get("/me", Me())
	authGroup.Post("/forgot-password", middleware.RequireGuest(), ForgotPassword())
	authGroup.Post("/reset-password", middleware.RequireGuest(), ResetPassword())
	authGroup.Get("/reset-password/validate", ValidateResetToken())

	docGroup := apiGroup.Group("/documents", middleware.RequireAuth())
	docGroup.Get("/", ListDocuments())
	docGroup.Post("/", CreateDocument())
	docGroup.Get("/:id", GetDocument())
	docGroup.Put("/:id", UpdateDocument())
	docGroup.Delete("/:id", DeleteDocument())
	docGroup.Post("/:id/file", AttachFile())

	uploadGroup := apiGroup.Group("/uploads", middleware.RequireAuth())
	uploadGroup.Post("/", UploadFiles())
	uploadGroup.Get("/", ListUploads())
	uploadGroup.Delete("/", ClearUploads())
	uploadGroup.Delete("/:id", RemoveUpload())

	apiGroup.Get("/dashboard", middleware.RequireAuth(), Dashboard())
}

// Swagger serves the UI with the host and scheme the request came in on.
func Swagger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	}
}
