// Package httpserver provides HTTP server and routing.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"youtube-analytics/internal/app/service"
	"youtube-analytics/internal/transport/httpserver/handler"
	"youtube-analytics/internal/transport/httpserver/middleware"
	"youtube-analytics/internal/validator"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port               int
	BodyLimit          int
	Debug              bool
	TemplatesDir       string
	CORSOrigins        string
	Session            middleware.SessionConfig
	PublishedAfterDays int
}

// Deps are the application services the routes call into.
type Deps struct {
	Analytics *service.AnalyticsService
	Sessions  *service.SessionService
	Validator *validator.Validator

	// Readiness checks for /readyz, e.g. the session store ping.
	Readiness []middleware.ReadinessCheck
}

// Server wraps Fiber app with handlers.
type Server struct {
	App    *fiber.App
	Logger *zap.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg ServerConfig, deps Deps, logger *zap.Logger) *Server {
	templatesDir := cfg.TemplatesDir
	if templatesDir == "" {
		templatesDir = "./web/templates"
	}

	// Template engine for dashboard
	engine := html.New(templatesDir, ".html")
	engine.AddFunc("ratio", formatRatio)
	if cfg.Debug {
		engine.Reload(true)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "youtube-analytics",
		BodyLimit:    cfg.BodyLimit,
		ErrorHandler: errorHandler(logger),
		Views:        engine,
	})

	// Health check middleware MUST be registered BEFORE other middleware
	// for Kubernetes probes to work even during high load
	app.Use(middleware.NewHealthCheck(deps.Readiness...))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Global middleware
	app.Use(requestid.New())
	app.Use(middleware.Recover(logger))
	app.Use(middleware.Logger(logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins(cfg.CORSOrigins),
		AllowMethods: "GET,POST,DELETE,OPTIONS",
	}))
	app.Use(compress.New())
	app.Use(middleware.Session(cfg.Session))

	// Static files
	app.Static("/static", "./web/static")

	days := cfg.PublishedAfterDays
	if days < 0 {
		days = 0
	}

	// Create handlers
	analyticsHandler := handler.NewAnalyticsHandler(deps.Analytics, deps.Sessions, deps.Validator, days, logger)
	historyHandler := handler.NewHistoryHandler(deps.Analytics, deps.Validator, logger)
	dashboardHandler := handler.NewDashboardHandler(deps.Analytics, logger)

	// Register routes
	registerRoutes(app, analyticsHandler, historyHandler, dashboardHandler)

	return &Server{
		App:    app,
		Logger: logger,
	}
}

// registerRoutes sets up all routes.
func registerRoutes(
	app *fiber.App,
	analyticsHandler *handler.AnalyticsHandler,
	historyHandler *handler.HistoryHandler,
	dashboardHandler *handler.DashboardHandler,
) {
	// Health checks are handled by middleware (/livez, /readyz)

	// Dashboard (HTML)
	app.Get("/dashboard", dashboardHandler.Render)
	app.Get("/history", dashboardHandler.History)
	app.Get("/saved", dashboardHandler.Saved)
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/dashboard")
	})

	// API v1 routes
	v1 := app.Group("/api/v1")

	// Session-scoped actions
	v1.Post("/search", analyticsHandler.Search)
	v1.Post("/filter", analyticsHandler.Filter)
	v1.Post("/save", analyticsHandler.Save)
	v1.Get("/export", analyticsHandler.Export)
	v1.Get("/session", analyticsHandler.Session)
	v1.Delete("/session", analyticsHandler.Reset)

	// Ledger and catalog
	history := v1.Group("/history")
	history.Get("/", historyHandler.History)
	history.Get("/popular", historyHandler.Popular)
	history.Get("/:id/videos", historyHandler.HistoryVideos)
	v1.Get("/videos", historyHandler.Videos)
	v1.Get("/videos/export", historyHandler.ExportCatalog)
}

// errorHandler returns a custom error handler that logs based on HTTP status code.
// 404s are logged at DEBUG level (expected client behavior), 4xx at WARN, 5xx at ERROR.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}

		switch {
		case code == fiber.StatusNotFound:
			logger.Debug("resource not found",
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
			)
		case code >= 500:
			logger.Error("server error",
				zap.Error(err),
				zap.Int("status", code),
				zap.String("path", c.Path()),
			)
		default:
			logger.Warn("client error",
				zap.Error(err),
				zap.Int("status", code),
				zap.String("path", c.Path()),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "UNHANDLED_ERROR",
		})
	}
}

func corsOrigins(origins string) string {
	if origins == "" {
		return "*"
	}
	return origins
}

// formatRatio renders an optional views-per-subscriber ratio for templates.
func formatRatio(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

// Start starts the HTTP server.
func (s *Server) Start(port int) error {
	s.Logger.Info("starting HTTP server", zap.Int("port", port))

	return s.App.Listen(fmt.Sprintf(":%d", port))
}

// Shutdown gracefully shuts down the server, waiting at most timeout for
// in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.Logger.Info("shutting down HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return s.App.ShutdownWithContext(ctx)
}
