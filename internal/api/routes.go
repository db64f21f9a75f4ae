package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/harmonia-labs/canvas-adapter/internal/auth"
	"github.com/harmonia-labs/canvas-adapter/internal/cache"
)

// RegisterRoutes registers all HTTP routes on the Fiber app.
func RegisterRoutes(app *fiber.App, logger *zap.Logger, gw *cache.Gateway, mgr *auth.Manager, canvasHandler *CanvasHandler) {
	app.Use(RequestID())
	app.Use(RequestLogger(logger))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Health check. The cache being down degrades but does not fail requests,
	// so it reports degraded rather than unhealthy on its own.
	app.Get("/health", func(c *fiber.Ctx) error {
		checks := map[string]string{
			"cache":  "ok",
			"secret": "ok",
		}
		status := "ok"
		code := fiber.StatusOK

		if !gw.Connected() {
			checks["cache"] = "disconnected"
			status = "degraded"
		}
		if !mgr.Ready() {
			checks["secret"] = "uninitialized"
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	})

	app.Get("/canvas/:trackID", canvasHandler.GetCanvas)
}
