package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"geopresence/internal/admission"
	"geopresence/internal/attendance"
	"geopresence/internal/auth"
	"geopresence/internal/config"
	"geopresence/internal/event"
	"geopresence/internal/handler"
	"geopresence/internal/httpmiddleware"
	"geopresence/internal/i18n"
	"geopresence/internal/metrics"
	"geopresence/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))

	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		slog.Error("http server failed", "err", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.App) *slog.Logger {
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func openTable(ctx context.Context, cfg config.App) (store.Table, error) {
	if cfg.StoreBackend == config.BackendMemory {
		slog.Warn("using in-memory table store; data is lost on restart")
		return store.NewMemory(), nil
	}
	creds, err := store.ServiceAccount(ctx, cfg.CredentialsFile, cfg.CredentialsJSON)
	if err != nil {
		return nil, err
	}
	return store.NewSheets(ctx, cfg.SpreadsheetID, creds)
}

func runHTTP(cfg config.App) error {
	ctx := context.Background()
	m := metrics.New(prometheus.DefaultRegisterer)

	raw, err := openTable(ctx, cfg)
	if err != nil {
		return err
	}
	table := store.Instrument(raw, m, cfg.StoreTimeout)

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer func() { _ = redisClient.Close() }()

	var locker store.Locker = store.NewLocalLocker()
	if redisClient != nil {
		locker = store.NewRedisLocker(redisClient.Client, 10*time.Second, 5*time.Second)
		slog.Info("redis configured", "addr", cfg.RedisAddr)
	} else {
		slog.Info("redis not configured (REDIS_ADDR not set), using local lock and rate limiter")
	}

	loc := cfg.Location()
	events := event.NewDirectory(table, cfg.EventsSheet, locker, loc)
	repo := attendance.NewRepository(table, cfg.AttendanceSheet)

	initCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	if err := events.EnsureHeader(initCtx); err != nil {
		slog.Warn("events sheet not initialised", "err", err)
	}
	if err := repo.EnsureHeader(initCtx); err != nil {
		slog.Warn("attendance sheet not initialised", "err", err)
	}
	cancel()

	checkins := attendance.NewService(repo, admission.NewValidator(events, loc), loc)

	checks := map[string]handler.HealthCheck{"store": events.Ping}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			if !redisClient.Healthy(ctx) {
				return errors.New("redis ping failed")
			}
			return nil
		}
	}

	h := handler.New(
		events,
		checkins,
		auth.NewIssuer(cfg.AdminPassword, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AdminTokenTTL),
		i18n.NewTranslator(cfg.DefaultLocale),
		m,
		checks,
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization"},
		MaxAge:       24 * time.Hour,
	}))
	r.Use(securityHeaders())

	if cfg.RateLimitPerMin > 0 {
		var limiter httpmiddleware.Limiter = httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
		if redisClient != nil {
			limiter = httpmiddleware.NewRedisWindow(redisClient.Client, cfg.RateLimitPerMin, limiter)
		}
		r.Use(httpmiddleware.GinMiddleware(limiter, h.TooManyRequests))
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	h.Register(r, auth.AdminAuth(cfg.JWTSigningKey, cfg.JWTIssuer, h.Unauthorized))

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "port", cfg.HTTPPort, "store", cfg.StoreBackend, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	slog.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "err", err)
	}

	slog.Info("server exited")
	return nil
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
