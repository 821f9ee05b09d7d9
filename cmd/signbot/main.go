package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"signbot/internal/bot"
	"signbot/internal/config"
	"signbot/internal/http/handlers"
	"signbot/internal/http/server"
	"signbot/internal/infra/chrome"
	"signbot/internal/infra/dedup"
	"signbot/internal/infra/drive"
	"signbot/internal/infra/logging"
	"signbot/internal/infra/metrics"
	"signbot/internal/infra/postgres"
	"signbot/internal/infra/ratelimit"
	"signbot/internal/infra/telegram"
)

func main() {
	cfg := config.Load()
	logging.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)

	if cfg.Telegram.Token == "" {
		logging.Warn("TELEGRAM_TOKEN is not set, Bot API calls will fail")
	}
	if !cfg.DriveConfigured() {
		logging.Warn("Google Drive is not configured, submissions cannot be stored")
	}

	rt := build(cfg)
	defer rt.close()

	if cfg.Telegram.WebhookURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := rt.tg.SetWebhook(ctx, cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret); err != nil {
			logging.Error("Failed to set webhook", "error", err)
		} else {
			logging.Info("Webhook registered", "url", cfg.Telegram.WebhookURL)
		}
		cancel()
	}

	idleConnsClosed := make(chan struct{})
	startServer(rt.app, cfg, idleConnsClosed)
	<-idleConnsClosed
}

// runtime is the wired service and everything that needs closing.
type runtime struct {
	app    *fiber.App
	tg     *telegram.Client
	redis  *redis.Client
	pgPool *postgres.DB
}

func build(cfg config.Config) *runtime {
	rt := &runtime{}

	var dedupRedis *redis.Client
	if cfg.Cache.RedisHost != "" {
		rt.redis = redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisHost,
			DB:   cfg.Cache.DedupDB,
		})
		dedupRedis = rt.redis
	}

	rt.tg = telegram.New(telegram.Options{
		Token:       cfg.Telegram.Token,
		APIBaseURL:  cfg.Telegram.APIBaseURL,
		FileBaseURL: cfg.Telegram.FileBaseURL,
		Timeout:     cfg.Telegram.Timeout,
		MaxRetries:  cfg.Telegram.MaxRetries,
	})

	m := metrics.New()
	deps := bot.Deps{
		Messenger: rt.tg,
		Uploader: drive.New(drive.Options{
			FolderID:           cfg.Drive.FolderID,
			ServiceAccountJSON: cfg.Drive.ServiceAccountJSON,
			ClientID:           cfg.Drive.ClientID,
			ClientSecret:       cfg.Drive.ClientSecret,
			RefreshToken:       cfg.Drive.RefreshToken,
		}),
		Metrics: m,
	}
	if cfg.PDF.ConvertPhotos {
		deps.Converter = chrome.NewConverter(chrome.Options{
			ChromePath: cfg.PDF.ChromePath,
			NoSandbox:  cfg.PDF.ChromeNoSandbox,
			Timeout:    time.Duration(cfg.PDF.TimeoutSecs) * time.Second,
		})
	}

	var lister handlers.SubmissionLister
	if repo := openLedger(cfg, rt); repo != nil {
		deps.Ledger = repo
		lister = repo
	}

	b := bot.New(bot.Config{
		TemplatePath: cfg.Document.TemplatePath,
		Suffix:       cfg.Document.Suffix,
		MaxFileBytes: cfg.Document.MaxFileBytes,
	}, deps)

	rt.app = server.New(server.Deps{
		Bot:     b,
		Dedup:   dedup.New(dedupRedis, cfg.Cache.DedupTTL),
		Ledger:  lister,
		Metrics: m,
		RateLimitStore: ratelimit.NewStore(ratelimit.RedisConfig{
			Addr: cfg.Cache.RedisHost,
			DB:   cfg.Cache.RateLimitDB,
		}),
		Prefork:        cfg.Server.Prefork,
		WebhookSecret:  cfg.Telegram.WebhookSecret,
		RequestTimeout: cfg.Server.RequestTimeout,
		ChatLimit:      cfg.RateLimiter.ChatLimit,
		LimitInterval:  cfg.RateLimiter.Interval,
		AdminToken:     cfg.Admin.Token,
	})
	return rt
}

// openLedger returns nil when Postgres is not configured. Schema problems are
// logged and retried on first use.
func openLedger(cfg config.Config, rt *runtime) *postgres.SubmissionRepository {
	pgCfg := postgres.Config{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
	}
	if !pgCfg.Enabled() {
		return nil
	}
	dsn, err := postgres.BuildDSN(pgCfg)
	if err != nil {
		logging.Error("Invalid postgres configuration, ledger disabled", "error", err)
		return nil
	}

	rt.pgPool = postgres.NewDB()
	repo := postgres.NewSubmissionRepository(rt.pgPool, dsn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := repo.EnsureSchema(ctx); err != nil {
		logging.Warn("Submission ledger not ready", "error", err)
	}
	return repo
}

func (rt *runtime) close() {
	if rt.pgPool != nil {
		if err := rt.pgPool.Close(); err != nil {
			logging.Warn("Failed to close postgres", "error", err)
		}
	}
	if rt.redis != nil {
		if err := rt.redis.Close(); err != nil {
			logging.Warn("Failed to close redis", "error", err)
		}
	}
}

// startServer starts the Fiber app and listens for shutdown signals
func startServer(app *fiber.App, cfg config.Config, idleConnsClosed chan struct{}) {
	go func() {
		logging.Info("Listening", "addr", cfg.Addr())
		if err := app.Listen(cfg.Addr()); err != nil {
			logging.Error("Server error", "error", err)
		}
	}()

	// Listen for OS termination signals
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	<-sigint
	signal.Stop(sigint)

	logging.Warn("Shutdown signal received, closing server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
	}

	close(idleConnsClosed)
	logging.Info("Server stopped cleanly")
}
