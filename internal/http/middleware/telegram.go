package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"signbot/internal/infra/logging"
)

// SecretHeader carries the secret_token registered with setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

const chatIDLocal = "chat_id"

// WebhookSecret rejects webhook calls without the configured secret.
// An empty secret disables the check.
func WebhookSecret(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}
		got := c.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			logging.Warn("Webhook secret mismatch", "ip", c.IP())
			return fiber.NewError(fiber.StatusUnauthorized, "invalid webhook secret")
		}
		return c.Next()
	}
}

// ChatRateLimitConfig bounds how many updates one chat may push per interval.
type ChatRateLimitConfig struct {
	Limit    int
	Interval time.Duration
}

// ChatRateLimit applies a sliding-window limit per Telegram chat. Updates over
// the limit are acknowledged with {"ok":true} and dropped so Telegram does not
// redeliver them. Bodies without a chat are not limited. A zero limit disables it.
func ChatRateLimit(cfg ChatRateLimitConfig, store fiber.Storage) fiber.Handler {
	if cfg.Limit <= 0 {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}
	chatLimiter := limiter.New(limiter.Config{
		Max:               cfg.Limit,
		Expiration:        cfg.Interval,
		LimiterMiddleware: limiter.SlidingWindow{},
		Storage:           store,
		Next: func(c *fiber.Ctx) bool {
			_, ok := c.Locals(chatIDLocal).(int64)
			return !ok
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			id, _ := c.Locals(chatIDLocal).(int64)
			return "chat:" + strconv.FormatInt(id, 10)
		},
		LimitReached: func(c *fiber.Ctx) error {
			id, _ := c.Locals(chatIDLocal).(int64)
			logging.Warn("Rate limit exceeded", "chat_id", id, "path", c.Path())
			return c.JSON(fiber.Map{"ok": true})
		},
	})
	return func(c *fiber.Ctx) error {
		if id, ok := chatID(c.Body()); ok {
			c.Locals(chatIDLocal, id)
		}
		return chatLimiter(c)
	}
}

func chatID(body []byte) (int64, bool) {
	var probe struct {
		Message *struct {
			Chat struct {
				ID int64 `json:"id"`
			} `json:"chat"`
		} `json:"message"`
	}
	if err := json.Unmarshal(body, &probe); err != nil || probe.Message == nil {
		return 0, false
	}
	return probe.Message.Chat.ID, true
}
