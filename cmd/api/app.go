package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/quotecast/quotecast/internal/auth"
	"github.com/quotecast/quotecast/internal/cache"
	"github.com/quotecast/quotecast/internal/config"
	"github.com/quotecast/quotecast/internal/feedback"
	"github.com/quotecast/quotecast/internal/handler"
	"github.com/quotecast/quotecast/internal/liststore"
	"github.com/quotecast/quotecast/internal/metrics"
	"github.com/quotecast/quotecast/internal/middleware"
	"github.com/quotecast/quotecast/internal/notifier"
	"github.com/quotecast/quotecast/internal/quote"
	"github.com/quotecast/quotecast/internal/scheduler"
	"github.com/quotecast/quotecast/internal/server"
	"github.com/quotecast/quotecast/internal/service"
	"github.com/quotecast/quotecast/internal/settings"
	"github.com/quotecast/quotecast/web"
)

// app is the fully wired service.
type app struct {
	router http.Handler
	server *server.Server
}

// newApp connects every configured backend and builds the router and
// server. Background jobs and shutdown hooks are registered on the server
// but nothing runs until server.Run.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	recorder := metrics.NewInMemory()
	var shutdowns []namedShutdown
	var checks []handler.HealthCheck

	// Shared Redis: list/settings backend and rate limiting
	var redisCache *cache.Cache
	if cfg.RedisURL != "" {
		c, err := cache.New(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		redisCache = c
		shutdowns = append(shutdowns, namedShutdown{"redis", func(context.Context) error { return c.Close() }})
		checks = append(checks, handler.HealthCheck{Name: "redis", Checker: c})
		logger.Info("connected to Redis")
	}

	// Address lists and operator settings
	backend, listChecks, listShutdowns, err := openListBackend(ctx, cfg, redisCache)
	if err != nil {
		return nil, err
	}
	checks = append(checks, listChecks...)
	shutdowns = append(shutdowns, listShutdowns...)
	lists := liststore.New(backend, logger)

	var settingsStore settings.Store = settings.NewFileStore(filepath.Join(cfg.DataDir, cfg.SettingsFile))
	if cfg.ListBackend == config.BackendRedis {
		settingsStore = settings.NewRedisStore(redisCache.Client(), settings.DefaultRedisKey)
	}

	// Feedback
	var feedbackStore feedback.Store = feedback.NewFileStore(filepath.Join(cfg.DataDir, cfg.FeedbackFile))
	if cfg.FeedbackBackend == config.BackendPostgres {
		db, err := feedback.OpenDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect feedback database: %w", err)
		}
		store := feedback.NewPostgresStore(db)
		feedbackStore = store
		shutdowns = append(shutdowns, namedShutdown{"feedback database", func(context.Context) error { return db.Close() }})
		checks = append(checks, handler.HealthCheck{Name: "feedback_db", Checker: store})
	}

	// Mail and quotes
	mailer, err := newMailer(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	notify := notifier.New(mailer, logger, recorder, unsubscribeURL(cfg.BaseURL))
	quotes := quote.NewProvider(quote.NewHTTPClient(cfg.QuoteTimeout), cfg.QuoteAPIURL)

	// Daily run
	clock, err := cfg.ScheduleClock()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.ScheduleLocation()
	if err != nil {
		return nil, err
	}
	sched := scheduler.New(lists, quotes, notify, scheduler.Config{
		At:          clock,
		Location:    loc,
		SharedQuote: cfg.ScheduleSharedQuote,
	}, logger, recorder)

	// Services
	subs := service.NewSubscriptionService(service.SubscriptionConfig{
		Lists:       lists,
		Quotes:      quotes,
		Sender:      notify,
		Settings:    settingsStore,
		CountOffset: cfg.SubscriberCountOffset,
		Metrics:     recorder,
		Logger:      logger,
	})
	feedbackSvc := service.NewFeedbackService(feedbackStore, recorder, logger)
	dashboardSvc := service.NewDashboardService(lists, settingsStore, feedbackSvc, sched, logger)

	// Dashboard authentication
	secret := cfg.SessionSecret
	if secret == "" {
		secret, err = auth.GenerateSecret()
		if err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		logger.Warn("SESSION_SECRET not set, dashboard sessions will not survive a restart")
	}
	sessions, err := auth.NewSessions(secret, cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	cookies := auth.NewCookieAuth(auth.CookieSettings{
		Name:   cfg.SessionCookieName,
		Secure: !cfg.IsDevelopment(),
	})
	authenticator := auth.NewAuthenticator(cfg.DashboardPassword, cfg.DashboardPasswordHash)
	if !authenticator.Configured() {
		logger.Warn("dashboard password not configured, every login will be rejected")
	}

	// Pages
	static := web.Static()
	if cfg.StaticDir != "" {
		static = os.DirFS(cfg.StaticDir)
		if _, err := fs.Stat(static, "index.html"); err != nil {
			return nil, fmt.Errorf("STATIC_DIR %q has no index.html: %w", cfg.StaticDir, err)
		}
	}
	h := handler.New()
	pages, err := handler.NewPages(web.Templates(), static, h.NotFound, logger)
	if err != nil {
		return nil, err
	}

	// Run-now jobs outlive their request; cancel them when shutting down.
	runCtx, cancelRuns := context.WithCancel(ctx)

	apiLimiter, apiLocal := newLimiter(cfg, redisCache, "api", cfg.RateLimitAPIRPM, cfg.RateLimitAPIBurst, logger)
	loginLimiter, loginLocal := newLimiter(cfg, redisCache, "login", cfg.RateLimitLoginRPM, cfg.RateLimitLoginBurst, logger)

	dashboardH := handler.NewDashboardHandler(runCtx, pages, dashboardSvc, logger)

	r := setupRouter(routes{
		h:              h,
		health:         handler.NewHealthHandler(checks...),
		metrics:        handler.NewMetricsHandler(recorder),
		pages:          pages,
		api:            handler.NewAPIHandler(subs, feedbackSvc, logger),
		auth:           handler.NewAuthHandler(pages, authenticator, sessions, cookies, recorder, logger),
		dashboard:      dashboardH,
		requireSession: middleware.RequireSession(sessions, cookies, logger),
		apiLimiter:     apiLimiter,
		loginLimiter:   loginLimiter,
	}, cfg, logger)

	srv := server.New(r, cfg.AppPort, cfg.ReadTimeout, cfg.WriteTimeout, cfg.ShutdownTimeout, logger)

	// Stores close last, so they are registered first. Dashboard runs are
	// drained before any store closes.
	for _, s := range shutdowns {
		srv.OnShutdown(s.name, s.fn)
	}
	srv.OnShutdown("dashboard runs", func(ctx context.Context) error {
		cancelRuns()
		return dashboardH.Wait(ctx)
	})

	if cfg.ScheduleEnabled {
		srv.Background("scheduler", sched.Run)
	} else {
		logger.Info("daily schedule disabled")
	}
	for _, l := range []*middleware.LocalLimiter{apiLocal, loginLocal} {
		if l != nil {
			srv.Background("rate limit sweeper", l.Run)
		}
	}

	return &app{router: r, server: srv}, nil
}

type namedShutdown struct {
	name string
	fn   server.ShutdownFunc
}

// openListBackend builds the configured list backend with its readiness
// checks and shutdown hooks.
func openListBackend(ctx context.Context, cfg *config.Config, redisCache *cache.Cache) (liststore.Backend, []handler.HealthCheck, []namedShutdown, error) {
	switch cfg.ListBackend {
	case config.BackendRedis:
		b := liststore.NewRedisBackend(redisCache.Client(), cfg.RedisKeyPrefix)
		return b, nil, nil, nil

	case config.BackendPostgres:
		pool, err := liststore.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect list database: %w", err)
		}
		b := liststore.NewPostgresBackend(pool)
		return b,
			[]handler.HealthCheck{{Name: "list_db", Checker: b}},
			[]namedShutdown{{"list database", func(context.Context) error { pool.Close(); return nil }}},
			nil

	case config.BackendS3:
		client, err := liststore.NewS3Client(ctx, cfg.AWSRegion, cfg.S3Endpoint)
		if err != nil {
			return nil, nil, nil, err
		}
		return liststore.NewS3Backend(client, cfg.S3Bucket, cfg.S3Prefix), nil, nil, nil

	default:
		b, err := liststore.NewFileBackend(cfg.DataDir, liststore.FileNames{
			Subscribed:   cfg.SubscribedFile,
			Unsubscribed: cfg.UnsubscribedFile,
			Failed:       cfg.FailedFile,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open data dir: %w", err)
		}
		return b, nil, nil, nil
	}
}

// newMailer builds the configured mail transport.
func newMailer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (notifier.Mailer, error) {
	from := cfg.MailFrom
	if from == "" {
		from = cfg.SMTPUsername
	}

	switch cfg.MailTransport {
	case config.TransportSES:
		sesCfg := notifier.SESConfig{
			Region:    cfg.AWSRegion,
			AccessKey: cfg.AWSAccessKeyID,
			SecretKey: cfg.AWSSecretAccessKey,
			From:      from,
			FromName:  cfg.MailFromName,
		}
		client, err := notifier.NewSESClient(ctx, sesCfg)
		if err != nil {
			return nil, err
		}
		return notifier.NewSESMailer(client, sesCfg), nil

	case config.TransportResend:
		return notifier.NewResendMailer(cfg.ResendAPIKey, from, cfg.MailFromName), nil

	case config.TransportLog:
		logger.Warn("MAIL_TRANSPORT=log, emails are logged and not delivered")
		return notifier.NewLogMailer(logger), nil

	default:
		if cfg.SMTPUsername == "" {
			logger.Warn("SMTP_USERNAME not set, relay authentication is disabled")
		}
		return notifier.NewSMTPMailer(notifier.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     from,
			FromName: cfg.MailFromName,
		}), nil
	}
}

// newLimiter picks the Redis token bucket when Redis is configured and a
// per-process limiter otherwise. The second result is non-nil only for the
// local limiter, which needs its sweeper running.
func newLimiter(cfg *config.Config, redisCache *cache.Cache, scope string, rpm, burst int, logger *slog.Logger) (middleware.Limiter, *middleware.LocalLimiter) {
	if !cfg.RateLimitEnabled {
		return nil, nil
	}
	if redisCache != nil {
		return cache.NewLimiter(redisCache, scope, rpm, burst, logger), nil
	}
	local := middleware.NewLocalLimiter(rpm, burst)
	return local, local
}

// unsubscribeURL is linked from every email; the public page carries the
// unsubscribe form.
func unsubscribeURL(baseURL string) string {
	if baseURL == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/#subscribe-form"
}
