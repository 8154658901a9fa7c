package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tokosepatu/backend/internal/cache"
	"tokosepatu/backend/internal/config"
	"tokosepatu/backend/internal/events"
	"tokosepatu/backend/internal/httpapi"
	"tokosepatu/backend/internal/observability"
	"tokosepatu/backend/internal/service"
	"tokosepatu/backend/internal/store"
	"tokosepatu/backend/internal/store/memory"
	pgstore "tokosepatu/backend/internal/store/postgres"
)

func main() {
	cfg := config.Load()

	logger, err := observability.NewLogger(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := validateSecurityConfig(cfg); err != nil {
		logger.Fatal("invalid security configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 4)

	if cfg.JaegerEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(cfg.ServiceName, cfg.JaegerEndpoint)
		if err != nil {
			logger.Warn("tracing disabled", zap.Error(err))
		} else {
			closers = append(closers, func() error {
				flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer flushCancel()
				return shutdownTracer(flushCtx)
			})
			logger.Info("tracing: jaeger", zap.String("endpoint", cfg.JaegerEndpoint))
		}
	}

	var repo store.Repository
	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback", zap.Error(err))
		}
		if err := pg.Migrate(ctx); err != nil {
			logger.Fatal("apply schema", zap.Error(err))
		}
		repo = pg
		closers = append(closers, pg.Close)
		logger.Info("repository: postgres")
	} else {
		repo = memory.NewSeeded()
		logger.Info("repository: in-memory")
	}

	saleCache := cache.SaleCache(cache.NoopSaleCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisSaleCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, using noop cache", zap.Error(err))
		} else {
			saleCache = redisCache
			closers = append(closers, redisCache.Close)
			logger.Info("cache: redis", zap.String("addr", cfg.RedisAddr))
		}
	} else {
		logger.Info("cache: noop")
	}

	publisher := events.Publisher(events.NoopPublisher{})
	if len(cfg.KafkaBrokers) > 0 {
		kafka := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		publisher = kafka
		closers = append(closers, kafka.Close)
		logger.Info("events: kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	} else {
		logger.Info("events: noop")
	}

	svc := service.New(repo,
		service.WithLogger(logger),
		service.WithSaleCache(saleCache, time.Duration(cfg.SaleCacheTTLSeconds)*time.Second),
		service.WithPublisher(publisher),
		service.WithRefundWindowDays(cfg.RefundWindowDays),
	)
	auth := httpapi.NewAuthManager(ctx, cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, repo, logger)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, logger)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("POS backend listening", zap.String("addr", cfg.Address()), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Warn("close error", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.Env == "production" && cfg.AllowedOrigin == "*" {
		return fmt.Errorf("ALLOWED_ORIGIN must not be * in production")
	}
	return nil
}
