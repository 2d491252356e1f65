package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"docsflow/internal/config"
	handlers "docsflow/internal/http/handler"
	"docsflow/internal/http/middleware"
	"docsflow/internal/logging"
	tracing "docsflow/internal/otel"
	"docsflow/internal/session"
	"docsflow/internal/workspace"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

// @title DocsFlow Gateway
// @version 1.0
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, "docsflow-gateway")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracing")
	}

	store, closer, err := session.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Session.Backend).Msg("failed to open session store")
	}
	defer closer.Close()

	// One workspace per browser session, evicted after the idle timeout.
	reg := workspace.NewRegistry(store, workspace.Options{API: cfg.API, Upload: cfg.Upload})
	go reg.RunSweeper(ctx, sweepInterval, cfg.Session.IdleTimeout)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := middleware.NewPrometheusMiddleware(promReg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register metrics")
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.Upload.MaxMultipartMB) << 20,
	})

	// RequestID runs first so every later middleware sees the id.
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Logger())
	app.Use(metrics.Handler())

	handlers.RegisterRoutes(app, handlers.Deps{
		Registry: reg,
		Gatherer: promReg,
		Session: middleware.SessionOptions{
			CookieName: cfg.Session.CookieName,
			Secure:     cfg.Session.CookieSecure,
			MaxAge:     cfg.Session.TTL,
		},
	})

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	addr := ":" + cfg.Port
	log.Info().
		Str("addr", addr).
		Str("api_url", cfg.API.BaseURL).
		Str("session_backend", cfg.Session.Backend).
		Msg("gateway listening")
	if err := app.Listen(addr); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("failed to start server")
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.Error().Err(err).Msg("failed to flush traces")
	}
	log.Info().Msg("gateway stopped")
}
