package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"jobtracker/internal/caching"
	"jobtracker/internal/config"
	"jobtracker/internal/handlers"
	"jobtracker/internal/jobs/background"
	"jobtracker/internal/logging"
	"jobtracker/internal/observability/tracing"
	"jobtracker/internal/pipeline"
	"jobtracker/internal/repositories"
	"jobtracker/internal/services"
	"jobtracker/internal/tenancy"
	"jobtracker/pkg/database"

	"github.com/benbjohnson/clock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "jobtracker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.JWTSecretGenerated {
		logger.Warn("JWT_SECRET not set, using a generated secret; tokens will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, logger, cfg.OTLPEndpoint, "jobtracker", cfg.Environment)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.DBApplySchema {
		if err := database.ApplySchema(ctx, pool); err != nil {
			return err
		}
		logger.Info("database schema applied")
	}

	clk := clock.New()
	store := repositories.NewStore(pool, clk)

	var (
		redisClient *redis.Client
		throttle    services.LoginThrottle
		redisHealth handlers.RedisPinger
	)
	if cfg.RedisAddr != "" {
		redisClient = caching.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
		defer func() { _ = redisClient.Close() }()
		redisHealth = redisClient
		if cfg.LoginMaxAttempts > 0 {
			throttle = caching.NewLoginLimiter(redisClient, cfg.LoginMaxAttempts, cfg.LoginAttemptWindow)
		}
	}

	credentials := services.NewCredentialService(services.CredentialConfig{
		Secret:          cfg.JWTSecret,
		Issuer:          cfg.JWTIssuer,
		Audience:        cfg.JWTAudience,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		BcryptCost:      cfg.BcryptCost,
	}, clk)

	p := pipeline.New(pipeline.Config{
		Logger:        logger.Named("pipeline"),
		SlowThreshold: cfg.SlowOperationThreshold,
		Clock:         clk,
	})
	ops := services.NewOperations(p,
		services.NewAuthService(store, credentials, throttle, clk, logger.Named("auth")),
		services.NewJobService(store, clk),
		clk,
	)

	e := handlers.NewRouter(handlers.RouterConfig{
		Logger:       logger,
		Operations:   ops,
		Tokens:       credentials,
		Resolver:     tenancy.NewResolver(store, logger.Named("tenancy")),
		Health:       handlers.NewHealthHandlers(pool, redisHealth, clk, version),
		AllowOrigins: cfg.AllowOrigins,
	})

	scheduler, err := background.NewJobScheduler(store, clk, logger, background.Config{
		CloseInterval: cfg.JobCloseInterval,
		PurgeInterval: cfg.TokenPurgeInterval,
	})
	if err != nil {
		return err
	}
	scheduler.Start()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("jobtracker server starting", zap.String("version", version), zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case runErr = <-serverErr:
		if runErr != nil {
			logger.Error("server stopped unexpectedly", zap.Error(runErr))
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}
	if err := scheduler.Stop(); err != nil {
		logger.Error("scheduler shutdown failed", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracer shutdown failed", zap.Error(err))
	}
	logger.Info("jobtracker stopped")
	return runErr
}
