package middleware

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/xid"

	"browserless-relay/internal/config"
	"browserless-relay/internal/domain"
	"browserless-relay/internal/infra/logging"
	"browserless-relay/internal/infra/metrics"
)

const (
	HealthPath    = "/ops/health"
	ReadinessPath = "/ops/ready"

	APIKeyHeader = "X-API-Key"
)

// Register attaches global middleware to the app. Health probes are answered
// before authentication so orchestrators need no key.
func Register(app *fiber.App, cfg config.Config) {
	app.Use(cors.New())

	app.Use(requestid.New(requestid.Config{
		Generator: func() string {
			return xid.New().String()
		},
	}))

	app.Use(healthcheck.New(healthcheck.Config{
		LivenessEndpoint:  HealthPath,
		ReadinessEndpoint: ReadinessPath,
	}))

	app.Use(RequestMetrics())

	if cfg.Server.APIKey != "" {
		app.Use(StaticKeyAuth(cfg.Server.APIKey))
	}

	app.Use(func(c *fiber.Ctx) error {
		logging.Info("Incoming request", "method", c.Method(), "path", c.Path(), "request_id", RequestID(c))
		return c.Next()
	})
}

// StaticKeyAuth accepts requests whose X-API-Key header equals key.
func StaticKeyAuth(key string) fiber.Handler {
	expected := []byte(key)
	return keyauth.New(keyauth.Config{
		KeyLookup: "header:" + APIKeyHeader,
		Validator: func(c *fiber.Ctx, got string) (bool, error) {
			if subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
				return false, domain.ErrInvalidAPIKey
			}
			return true, nil
		},
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// keyauth can call ErrorHandler with a nil error.
			if err == nil {
				err = fiber.ErrUnauthorized
			}
			msg := err.Error()
			if !errors.Is(err, domain.ErrInvalidAPIKey) {
				msg = "missing or malformed API key"
			}
			logging.Warn("Unauthorized request", "path", c.Path(), "request_id", RequestID(c))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    fiber.StatusUnauthorized,
					"message": msg,
				},
			})
		},
	})
}

// RequestMetrics records method, matched route, status and latency per request.
func RequestMetrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		code := c.Response().StatusCode()
		if err != nil {
			code = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
		}
		metrics.ObserveHTTPRequest(c.Method(), c.Route().Path, code, time.Since(start))
		return err
	}
}

// RequestID returns the id assigned by the requestid middleware, if any.
func RequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok && id != "" {
		return id
	}
	if id := c.GetRespHeader(fiber.HeaderXRequestID); id != "" {
		return id
	}
	return c.Get(fiber.HeaderXRequestID)
}
