package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration of the bot service.
type Config struct {
	Server struct {
		Host           string        `yaml:"host"`
		Port           string        `yaml:"port"`
		Prefork        bool          `yaml:"prefork"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
	} `yaml:"server"`

	Telegram struct {
		Token         string        `yaml:"token"`
		APIBaseURL    string        `yaml:"api_base_url"`
		FileBaseURL   string        `yaml:"file_base_url"`
		WebhookURL    string        `yaml:"webhook_url"`
		WebhookSecret string        `yaml:"webhook_secret"`
		Timeout       time.Duration `yaml:"timeout"`
		MaxRetries    int           `yaml:"max_retries"`
	} `yaml:"telegram"`

	Document struct {
		TemplatePath string `yaml:"template_path"`
		Suffix       string `yaml:"suffix"`
		MaxFileBytes int64  `yaml:"max_file_bytes"`
	} `yaml:"document"`

	Drive struct {
		FolderID           string `yaml:"folder_id"`
		ServiceAccountJSON string `yaml:"service_account_json"`
		ClientID           string `yaml:"client_id"`
		ClientSecret       string `yaml:"client_secret"`
		RefreshToken       string `yaml:"refresh_token"`
	} `yaml:"drive"`

	Cache struct {
		RedisHost   string        `yaml:"redis_host"`
		DedupDB     int           `yaml:"redis_dedup_db"`
		RateLimitDB int           `yaml:"redis_rate_db"`
		DedupTTL    time.Duration `yaml:"dedup_ttl"`
	} `yaml:"cache"`

	RateLimiter struct {
		ChatLimit int           `yaml:"chat_limit"`
		Interval  time.Duration `yaml:"interval"`
	} `yaml:"rate_limiter"`

	Postgres struct {
		DSN      string `yaml:"dsn"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Database string `yaml:"database"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"postgres"`

	Admin struct {
		Token string `yaml:"token"`
	} `yaml:"admin"`

	PDF struct {
		ConvertPhotos   bool   `yaml:"convert_photos"`
		ChromePath      string `yaml:"chrome_path"`
		ChromeNoSandbox bool   `yaml:"chrome_no_sandbox"`
		TimeoutSecs     int    `yaml:"timeout_secs"`
	} `yaml:"pdf"`

	Logger struct {
		File       string `yaml:"file"`
		Level      string `yaml:"level"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logger"`
}

// Addr returns the listen address built from host and port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

// DriveConfigured reports whether a folder and at least one credential kind are set.
func (c Config) DriveConfigured() bool {
	if c.Drive.FolderID == "" {
		return false
	}
	return c.Drive.ServiceAccountJSON != "" || c.Drive.RefreshToken != ""
}

// Load reads the file named by CONFIG_PATH (default config.yaml).
func Load() Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	return LoadFrom(path)
}

// LoadFrom reads a YAML file, applies defaults and environment overrides and
// validates the result. A missing file is allowed; invalid values panic.
func LoadFrom(path string) Config {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			panic(fmt.Sprintf("config: parse %s: %v", path, err))
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		panic(fmt.Sprintf("config: read %s: %v", path, err))
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)
	if err := validate(cfg); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Telegram.APIBaseURL == "" {
		cfg.Telegram.APIBaseURL = "https://api.telegram.org"
	}
	if cfg.Telegram.FileBaseURL == "" {
		cfg.Telegram.FileBaseURL = cfg.Telegram.APIBaseURL + "/file"
	}
	if cfg.Telegram.Timeout == 0 {
		cfg.Telegram.Timeout = 30 * time.Second
	}
	if cfg.Telegram.MaxRetries == 0 {
		cfg.Telegram.MaxRetries = 3
	}
	if cfg.Document.TemplatePath == "" {
		cfg.Document.TemplatePath = "template.pdf"
	}
	if cfg.Document.Suffix == "" {
		cfg.Document.Suffix = "document"
	}
	if cfg.Document.MaxFileBytes == 0 {
		// Bot API getFile refuses files above 20 MB.
		cfg.Document.MaxFileBytes = 20 << 20
	}
	if cfg.Cache.DedupTTL == 0 {
		cfg.Cache.DedupTTL = 24 * time.Hour
	}
	if cfg.RateLimiter.Interval == 0 {
		cfg.RateLimiter.Interval = time.Minute
	}
	if cfg.PDF.TimeoutSecs == 0 {
		cfg.PDF.TimeoutSecs = 30
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
}

func applyEnv(cfg *Config) {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Telegram.Token, "TELEGRAM_TOKEN")
	setString(&cfg.Telegram.WebhookURL, "WEBHOOK_URL")
	setString(&cfg.Telegram.WebhookSecret, "WEBHOOK_SECRET")
	setString(&cfg.Document.TemplatePath, "TEMPLATE_PATH")
	setString(&cfg.Document.Suffix, "DOCUMENT_SUFFIX")
	setString(&cfg.Drive.FolderID, "DRIVE_FOLDER_ID")
	setString(&cfg.Drive.ServiceAccountJSON, "GOOGLE_SERVICE_ACCOUNT_JSON")
	setString(&cfg.Drive.ClientID, "GOOGLE_CLIENT_ID")
	setString(&cfg.Drive.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&cfg.Drive.RefreshToken, "GOOGLE_REFRESH_TOKEN")
	setString(&cfg.Cache.RedisHost, "REDIS_ADDR")
	setString(&cfg.Postgres.DSN, "POSTGRES_DSN")
	setString(&cfg.Admin.Token, "ADMIN_TOKEN")
	setString(&cfg.Logger.Level, "LOG_LEVEL")
	if cfg.PDF.ChromePath == "" {
		setString(&cfg.PDF.ChromePath, "CHROME_BIN")
	}
}

func validate(cfg Config) error {
	if p, err := strconv.Atoi(cfg.Server.Port); err != nil || p < 0 || p > 65535 {
		return fmt.Errorf("invalid port %q", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout < 0 {
		return errors.New("server.request_timeout must not be negative")
	}
	if cfg.Telegram.MaxRetries < 0 {
		return errors.New("telegram.max_retries must not be negative")
	}
	if cfg.Document.MaxFileBytes < 0 {
		return errors.New("document.max_file_bytes must not be negative")
	}
	if cfg.RateLimiter.ChatLimit < 0 {
		return errors.New("rate_limiter.chat_limit must not be negative")
	}
	if cfg.RateLimiter.ChatLimit > 0 && cfg.RateLimiter.Interval <= 0 {
		return errors.New("rate_limiter.interval must be positive")
	}
	if cfg.Cache.DedupTTL < 0 {
		return errors.New("cache.dedup_ttl must not be negative")
	}
	if cfg.PDF.TimeoutSecs < 0 {
		return errors.New("pdf.timeout_secs must not be negative")
	}
	if (cfg.Drive.RefreshToken != "") && (cfg.Drive.ClientID == "" || cfg.Drive.ClientSecret == "") {
		return errors.New("drive.refresh_token requires client_id and client_secret")
	}
	return nil
}
