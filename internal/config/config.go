package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	DefaultOrgID int64

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Slack     SlackConfig
	Email     EmailConfig
	Webhook   WebhookConfig
	Poller    PollerConfig
	RateLimit RateLimitConfig

	// PlatformWebhookSecret signs inbound push notifications from ad platforms.
	PlatformWebhookSecret string
}

// SlackConfig configures the Slack Web API client used for chat delivery.
type SlackConfig struct {
	APIBaseURL string
	BotToken   string
}

// EmailConfig configures the SMTP sender.
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// WebhookConfig configures outbound webhook delivery.
type WebhookConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// RateLimitConfig bounds inbound platform webhook traffic.
type RateLimitConfig struct {
	Enabled      bool
	WebhookRate  float64
	WebhookBurst int
}

// PollerConfig configures the detection poll loop.
type PollerConfig struct {
	Enabled      bool
	Interval     time.Duration
	AccountBatch int
	LockTTL      time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "adwatch"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  getenv("ENVIRONMENT", "development"),
		DefaultOrgID: getenvInt64("DEFAULT_ORG", 0),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "adwatch"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 1800),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 300),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("REDIS_DB", 0),

		Slack: SlackConfig{
			APIBaseURL: getenv("SLACK_API_BASE_URL", "https://slack.com/api"),
			BotToken:   strings.TrimSpace(getenv("SLACK_BOT_TOKEN", "")),
		},
		Email: EmailConfig{
			SMTPHost:     getenv("SMTP_HOST", ""),
			SMTPPort:     getenvInt("SMTP_PORT", 587),
			SMTPUsername: getenv("SMTP_USERNAME", ""),
			SMTPPassword: getenv("SMTP_PASSWORD", ""),
			SMTPFrom:     getenv("SMTP_FROM", "alerts@adwatch.dev"),
		},
		Webhook: WebhookConfig{
			Timeout:   getenvDuration("WEBHOOK_TIMEOUT", 10*time.Second),
			UserAgent: getenv("WEBHOOK_USER_AGENT", "AdWatch-Notifications/1.0"),
		},
		RateLimit: RateLimitConfig{
			Enabled:      getenvBool("RATE_LIMIT_ENABLED", true),
			WebhookRate:  getenvFloat("RATE_LIMIT_WEBHOOK_RATE", 10),
			WebhookBurst: getenvInt("RATE_LIMIT_WEBHOOK_BURST", 30),
		},
		Poller: PollerConfig{
			Enabled:      getenvBool("POLLER_ENABLED", true),
			Interval:     getenvDuration("POLLER_INTERVAL", 5*time.Minute),
			AccountBatch: getenvInt("POLLER_ACCOUNT_BATCH", 50),
			LockTTL:      getenvDuration("POLLER_LOCK_TTL", 4*time.Minute),
		},

		PlatformWebhookSecret: strings.TrimSpace(getenv("PLATFORM_WEBHOOK_SECRET", "")),
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
