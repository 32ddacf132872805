// Package main is the entrypoint for the Quotecast server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/quotecast/quotecast/internal/config"
	"github.com/quotecast/quotecast/internal/handler"
	"github.com/quotecast/quotecast/internal/middleware"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL, cfg.RedisURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
		"list_backend", cfg.ListBackend,
		"mail_transport", cfg.MailTransport,
	)

	if err := a.server.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// routes bundles what setupRouter mounts.
type routes struct {
	h         *handler.Handler
	health    *handler.HealthHandler
	metrics   *handler.MetricsHandler
	pages     *handler.Pages
	api       *handler.APIHandler
	auth      *handler.AuthHandler
	dashboard *handler.DashboardHandler

	// requireSession guards the dashboard.
	requireSession func(http.Handler) http.Handler
	apiLimiter     middleware.Limiter
	loginLimiter   middleware.Limiter
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(rt routes, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	// Probes and metrics
	r.Get("/healthz", rt.health.Healthz)
	r.Get("/readyz", rt.health.Readyz)
	r.Get("/metrics", rt.metrics.Metrics)

	// Public page
	r.Get("/", rt.pages.Index)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	apiLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Logger:  logger,
		Limiter: rt.apiLimiter,
		Scope:   "api",
	})

	// Public JSON API
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS(corsCfg))
		r.Use(middleware.NoStore)

		r.Get("/hello", rt.h.Hello)
		r.Get("/quote", rt.api.Quote)
		r.Get("/subscriber-count", rt.api.SubscriberCount)
		r.Get("/settings", rt.api.Settings)

		// Mutations are rate limited per client IP
		r.Group(func(r chi.Router) {
			r.Use(apiLimit)
			r.Post("/subscribe", rt.api.Subscribe)
			r.Post("/unsubscribe", rt.api.Unsubscribe)
			r.Post("/send-to-email", rt.api.SendToEmail)
			r.Post("/feedback", rt.api.Feedback)
		})
	})

	// Dashboard login
	r.Get(middleware.LoginPath, rt.auth.LoginForm)
	r.With(middleware.RateLimit(middleware.RateLimitConfig{
		Logger:    logger,
		Limiter:   rt.loginLimiter,
		Scope:     "login",
		OnLimited: handler.LoginRateLimited,
	})).Post(middleware.LoginPath, rt.auth.Login)
	r.Post("/logout", rt.auth.Logout)

	// Dashboard (session required)
	r.Route("/dashboard", func(r chi.Router) {
		r.Use(rt.requireSession)
		r.Use(middleware.NoStore)

		r.Get("/", rt.dashboard.Show)
		r.Post("/add", rt.dashboard.Add)
		r.Post("/delete", rt.dashboard.Delete)
		r.Post("/bulkadd", rt.dashboard.BulkAdd)
		r.Post("/bulkdelete", rt.dashboard.BulkDelete)
		r.Post("/toggle-send-to-email", rt.dashboard.ToggleSendToEmail)
		r.Post("/run-now", rt.dashboard.RunNow)
	})

	// Bundled assets, then 404 and 405 handlers
	r.NotFound(rt.pages.Static)
	r.MethodNotAllowed(rt.h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
