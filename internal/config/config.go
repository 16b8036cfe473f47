// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the complete server configuration.
type Config struct {
	HTTPAddr      string `env:"HTTP_ADDR"       envDefault:":8080"`
	DBPath        string `env:"DB_PATH"         envDefault:"./data/portal.db"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	ClubsFile     string `env:"CLUBS_FILE"`

	JWTSecret   string        `env:"JWT_SECRET,required"`
	JWTTokenTTL time.Duration `env:"JWT_TOKEN_TTL" envDefault:"24h"`

	// PaymentProvider is "stub" or "stripe".
	PaymentProvider      string `env:"PAYMENT_PROVIDER"       envDefault:"stub"`
	PaymentWebhookSecret string `env:"PAYMENT_WEBHOOK_SECRET" envDefault:"dev-secret"`
	StripeSecretKey      string `env:"STRIPE_SECRET_KEY"`
	Currency             string `env:"CURRENCY"               envDefault:"usd"`

	ResendAPIKey   string `env:"RESEND_API_KEY"`
	EmailFrom      string `env:"EMAIL_FROM"       envDefault:"registrations@localhost"`
	TelegramToken  string `env:"TELEGRAM_TOKEN"`
	TelegramChatID int64  `env:"TELEGRAM_CHAT_ID"`

	NotifyInterval time.Duration `env:"NOTIFY_INTERVAL" envDefault:"500ms"`
	NotifyBurst    int           `env:"NOTIFY_BURST"    envDefault:"5"`

	SessionTTL    time.Duration `env:"SESSION_TTL"    envDefault:"30m"`
	AutosaveDelay time.Duration `env:"AUTOSAVE_DELAY" envDefault:"2s"`

	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks combinations env tags cannot express.
func (c *Config) Validate() error {
	c.PaymentProvider = strings.ToLower(strings.TrimSpace(c.PaymentProvider))
	switch c.PaymentProvider {
	case "stub":
		if c.PaymentWebhookSecret == "" {
			return fmt.Errorf("PAYMENT_WEBHOOK_SECRET is required for the stub provider")
		}
	case "stripe":
		if c.StripeSecretKey == "" || c.PaymentWebhookSecret == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY and PAYMENT_WEBHOOK_SECRET are required for stripe")
		}
	default:
		return fmt.Errorf("unknown PAYMENT_PROVIDER %q", c.PaymentProvider)
	}
	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

// LogValue keeps secrets out of the startup log.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("http_addr", c.HTTPAddr),
		slog.String("db_path", c.DBPath),
		slog.String("public_base_url", c.PublicBaseURL),
		slog.String("payment_provider", c.PaymentProvider),
		slog.Bool("email", c.ResendAPIKey != ""),
		slog.Bool("telegram", c.TelegramToken != ""),
		slog.Duration("session_ttl", c.SessionTTL),
		slog.Duration("autosave_delay", c.AutosaveDelay),
	)
}
