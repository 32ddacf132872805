// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
// An optional .env file in the working directory is read first; variables
// already present in the environment win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata" // SCHEDULE_TIMEZONE must resolve on hosts without zoneinfo

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/quotecast/quotecast/internal/scheduler"
)

// Storage backends for the address lists.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

// Mail transports.
const (
	TransportSMTP   = "smtp"
	TransportSES    = "ses"
	TransportResend = "resend"
	TransportLog    = "log"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"3001"`

	// Public site URL, used for the unsubscribe link in emails.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:3001"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// List storage
	ListBackend           string `env:"LIST_BACKEND" envDefault:"file"`
	DataDir               string `env:"DATA_DIR" envDefault:"data"`
	SubscribedFile        string `env:"SUBSCRIBED_FILE" envDefault:"emails.txt"`
	UnsubscribedFile      string `env:"UNSUBSCRIBED_FILE" envDefault:"unsubscribed.txt"`
	FailedFile            string `env:"FAILED_FILE" envDefault:"failed.txt"`
	SettingsFile          string `env:"SETTINGS_FILE" envDefault:"settings.json"`
	FeedbackFile          string `env:"FEEDBACK_FILE" envDefault:"feedback.jsonl"`
	FeedbackBackend       string `env:"FEEDBACK_BACKEND" envDefault:"file"`
	DatabaseURL           string `env:"DATABASE_URL"`
	RedisURL              string `env:"REDIS_URL"`
	RedisKeyPrefix        string `env:"REDIS_KEY_PREFIX" envDefault:"quotecast:list:"`
	S3Bucket              string `env:"S3_BUCKET"`
	S3Prefix              string `env:"S3_PREFIX" envDefault:"lists/"`
	S3Endpoint            string `env:"S3_ENDPOINT"`
	AWSRegion             string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSAccessKeyID        string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey    string `env:"AWS_SECRET_ACCESS_KEY"`
	SubscriberCountOffset int    `env:"SUBSCRIBER_COUNT_OFFSET" envDefault:"10"`

	// Quote provider
	QuoteAPIURL  string        `env:"QUOTE_API_URL" envDefault:"https://zenquotes.io/api/random"`
	QuoteTimeout time.Duration `env:"QUOTE_TIMEOUT" envDefault:"10s"`

	// Mail
	MailTransport string `env:"MAIL_TRANSPORT" envDefault:"smtp"`
	MailFrom      string `env:"MAIL_FROM"`
	MailFromName  string `env:"MAIL_FROM_NAME" envDefault:"Daily Motivation"`
	SMTPHost      string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort      int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername  string `env:"SMTP_USERNAME"`
	SMTPPassword  string `env:"SMTP_PASSWORD"`
	ResendAPIKey  string `env:"RESEND_API_KEY"`

	// Daily schedule
	ScheduleEnabled     bool   `env:"SCHEDULE_ENABLED" envDefault:"true"`
	ScheduleTime        string `env:"SCHEDULE_TIME" envDefault:"08:00"`
	ScheduleTimezone    string `env:"SCHEDULE_TIMEZONE" envDefault:"Asia/Kolkata"`
	ScheduleSharedQuote bool   `env:"SCHEDULE_SHARED_QUOTE" envDefault:"false"`

	// Dashboard
	DashboardPassword     string        `env:"DASHBOARD_PASSWORD"`
	DashboardPasswordHash string        `env:"DASHBOARD_PASSWORD_HASH"`
	SessionSecret         string        `env:"SESSION_SECRET"`
	SessionTTL            time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionCookieName     string        `env:"SESSION_COOKIE_NAME" envDefault:"quotecast_session"`

	// Rate limiting
	RateLimitEnabled    bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitAPIRPM     int  `env:"RATE_LIMIT_API_RPM" envDefault:"30"`
	RateLimitAPIBurst   int  `env:"RATE_LIMIT_API_BURST" envDefault:"10"`
	RateLimitLoginRPM   int  `env:"RATE_LIMIT_LOGIN_RPM" envDefault:"5"`
	RateLimitLoginBurst int  `env:"RATE_LIMIT_LOGIN_BURST" envDefault:"5"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,*.example.org")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Honour X-Forwarded-For / X-Real-IP. Enable only behind a proxy that
	// overwrites them; otherwise clients pick their own rate-limit key.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`

	// Serve public assets from this directory instead of the embedded copy.
	StaticDir string `env:"STATIC_DIR"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// ScheduleLocation loads the timezone the daily run is anchored to.
func (c *Config) ScheduleLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.ScheduleTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULE_TIMEZONE %q: %w", c.ScheduleTimezone, err)
	}
	return loc, nil
}

// ScheduleClock parses SCHEDULE_TIME.
func (c *Config) ScheduleClock() (scheduler.Clock, error) {
	clock, err := scheduler.ParseClock(c.ScheduleTime)
	if err != nil {
		return scheduler.Clock{}, fmt.Errorf("invalid SCHEDULE_TIME: %w", err)
	}
	return clock, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	switch c.ListBackend {
	case BackendFile:
	case BackendRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when LIST_BACKEND=redis")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when LIST_BACKEND=postgres")
		}
	case BackendS3:
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when LIST_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unknown LIST_BACKEND %q", c.ListBackend)
	}

	switch c.FeedbackBackend {
	case BackendFile:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when FEEDBACK_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown FEEDBACK_BACKEND %q", c.FeedbackBackend)
	}

	switch c.MailTransport {
	case TransportSMTP, TransportSES, TransportLog:
	case TransportResend:
		if c.ResendAPIKey == "" {
			return errors.New("RESEND_API_KEY is required when MAIL_TRANSPORT=resend")
		}
	default:
		return fmt.Errorf("unknown MAIL_TRANSPORT %q", c.MailTransport)
	}

	if _, err := c.ScheduleLocation(); err != nil {
		return err
	}
	if _, err := c.ScheduleClock(); err != nil {
		return err
	}
	return nil
}

// Load reads an optional .env file, parses environment variables and
// validates the result.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is ignored.
func LoadFile(dotenv string) (*Config, error) {
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", dotenv, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
