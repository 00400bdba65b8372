package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/YvesMatteo/GapIntel-sub002/internal/handler"
	"github.com/YvesMatteo/GapIntel-sub002/internal/metrics"
	"github.com/YvesMatteo/GapIntel-sub002/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Job    *handler.JobHandler
	Report *handler.ReportHandler
	Stats  *handler.StatsHandler
	Health *handler.HealthHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(corsOrigins))
	app.Use(metrics.Middleware())

	// Health checks and metrics live outside the API group.
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	// Job routes
	api.Post("/jobs", h.Job.Submit, middleware.NewJobSubmitRateLimiter().Handler())
	api.Get("/jobs/:accessKey", h.Job.Status, middleware.NewJobStatusRateLimiter().Handler())
	api.Post("/jobs/:accessKey/reset", h.Job.Reset, middleware.NewJobResetRateLimiter().Handler())

	// Report routes
	api.Get("/jobs/:accessKey/report", h.Report.Get, middleware.NewReportRateLimiter().Handler())

	// Stats routes
	api.Get("/stats", h.Stats.GetStats, middleware.NewStatsRateLimiter().Handler())
}
