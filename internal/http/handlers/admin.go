package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"signbot/internal/domain"
	"signbot/internal/infra/logging"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// SubmissionLister reads the submission ledger.
type SubmissionLister interface {
	ListRecent(ctx context.Context, limit int) ([]domain.Submission, error)
}

// Submissions lists recent ledger entries, newest first. ?limit= defaults to
// 50 and is capped at 500.
func Submissions(ledger SubmissionLister) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ledger == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "submission ledger is not configured")
		}
		limit := c.QueryInt("limit", defaultListLimit)
		if limit <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be positive")
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}

		items, err := ledger.ListRecent(c.UserContext(), limit)
		if err != nil {
			logging.Error("Failed to list submissions", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list submissions")
		}
		return c.JSON(fiber.Map{
			"count": len(items),
			"items": items,
		})
	}
}

// Metrics exposes the registry in Prometheus text format.
func Metrics(reg *prometheus.Registry) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
}
