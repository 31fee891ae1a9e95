package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/monitor"

	"browserless-relay/internal/config"
	"browserless-relay/internal/http/handlers"
	"browserless-relay/internal/http/middleware"
	"browserless-relay/internal/infra/logging"
	"browserless-relay/internal/infra/metrics"
)

const (
	APIPrefix   = "/api/browserless"
	MonitorPath = "/ops/monitor"
	MetricsPath = "/ops/metrics"
)

// Deps bundles what the HTTP layer needs from main.
type Deps struct {
	Config   config.Config
	Renderer handlers.Renderer
}

// New creates and configures a new Fiber app instance.
func New(deps Deps) *fiber.App {
	cfg := deps.Config

	app := fiber.New(fiber.Config{
		Prefork:               cfg.Server.Prefork,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	middleware.Register(app, cfg)
	registerRoutes(app, deps)

	// Ensure all responses, including 404s, return JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

func registerRoutes(app *fiber.App, deps Deps) {
	svc := handlers.NewRenderService(deps.Renderer)

	api := app.Group(APIPrefix)
	api.Get("/screenshot", svc.HandleScreenshot)
	api.Get("/pdf", svc.HandlePDF)

	app.Get(MonitorPath, monitor.New())

	if deps.Config.Metrics.Enabled {
		app.Get(MetricsPath, adaptor.HTTPHandler(metrics.Handler()))
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		msg = e.Message
	}

	logging.Warn("Request failed", "path", c.Path(), "status", code, "message", msg, "request_id", middleware.RequestID(c))

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": msg,
		},
	})
}
