package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"signbot/internal/domain"
	"signbot/internal/infra/logging"
	"signbot/internal/infra/metrics"
)

// UpdateHandler processes one Telegram update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, u domain.Update)
}

// Deduper reports whether an update id was already handled.
type Deduper interface {
	Seen(ctx context.Context, updateID int64) bool
}

// WebhookConfig bounds how long one update may be processed.
type WebhookConfig struct {
	Timeout time.Duration
}

// Index answers the root health probe with plain "ok".
func Index(c *fiber.Ctx) error {
	return c.SendString("ok")
}

// Webhook receives Telegram updates. Every authenticated call is answered with
// {"ok":true}, including malformed bodies and duplicates, so Telegram never
// redelivers. Processing errors are logged by the bot itself.
func Webhook(cfg WebhookConfig, bot UpdateHandler, dedup Deduper, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var u domain.Update
		if err := json.Unmarshal(c.Body(), &u); err != nil {
			logging.Warn("Failed to parse update", "error", err, "bytes", len(c.Body()))
			return ok(c)
		}

		ctx := c.UserContext()
		if dedup != nil && u.UpdateID != 0 && dedup.Seen(ctx, u.UpdateID) {
			logging.Info("Skipping duplicate update", "update_id", u.UpdateID)
			if m != nil {
				m.DuplicateUpdates.Inc()
			}
			return ok(c)
		}

		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}
		bot.HandleUpdate(ctx, u)
		return ok(c)
	}
}

func ok(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}
