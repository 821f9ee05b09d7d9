package server

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"signbot/internal/http/handlers"
	"signbot/internal/http/middleware"
	"signbot/internal/infra/logging"
	"signbot/internal/infra/metrics"
)

// Deps are the runtime collaborators behind the HTTP surface. Dedup, Ledger,
// Metrics and RateLimitStore are optional.
type Deps struct {
	Bot            handlers.UpdateHandler
	Dedup          handlers.Deduper
	Ledger         handlers.SubmissionLister
	Metrics        *metrics.Metrics
	RateLimitStore fiber.Storage

	Prefork        bool
	WebhookSecret  string
	RequestTimeout time.Duration
	ChatLimit      int
	LimitInterval  time.Duration
	AdminToken     string
}

// New creates and configures the Fiber app.
func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		Prefork:               d.Prefork,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Internal Server Error"

			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				msg = e.Message
			}

			logging.Warn("Request failed", "path", c.Path(), "status", code, "message", msg)

			return c.Status(code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    code,
					"message": msg,
				},
			})
		},
	})

	middleware.Register(app)
	registerRoutes(app, d)

	// Ensure all responses, including 404s, return JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

func registerRoutes(app *fiber.App, d Deps) {
	app.Get("/", handlers.Index)

	app.Post("/webhook",
		middleware.WebhookSecret(d.WebhookSecret),
		middleware.ChatRateLimit(middleware.ChatRateLimitConfig{
			Limit:    d.ChatLimit,
			Interval: d.LimitInterval,
		}, d.RateLimitStore),
		handlers.Webhook(handlers.WebhookConfig{Timeout: d.RequestTimeout}, d.Bot, d.Dedup, d.Metrics),
	)

	if d.Metrics != nil {
		app.Get("/metrics", handlers.Metrics(d.Metrics.Registry))
	}

	if d.AdminToken != "" {
		v1 := app.Group("/v1", middleware.AdminAuth(d.AdminToken))
		v1.Get("/submissions", handlers.Submissions(d.Ledger))
	}
}
