package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/tally/internal/adapter/http"
	"github.com/iho/tally/internal/adapter/http/handler"
	"github.com/iho/tally/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/tally/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/tally/internal/adapter/repository/redis"
	"github.com/iho/tally/internal/infrastructure/config"
	"github.com/iho/tally/internal/infrastructure/logger"
	"github.com/iho/tally/internal/infrastructure/metrics"
	"github.com/iho/tally/internal/infrastructure/postgres"
	"github.com/iho/tally/internal/infrastructure/redis"
	"github.com/iho/tally/internal/usecase"
)

// limiterSweepInterval is how often idle per-IP rate limiters are evicted.
const limiterSweepInterval = time.Hour

func main() {
	// Setup a fallback logger so config errors are visible
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup the configured logger
	log.Logger = logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	ctx := context.Background()

	// Connect to PostgreSQL
	connectCtx, connectCancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	pool, err := postgres.NewPool(connectCtx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	connectCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Run migrations; an empty path means the schema is managed elsewhere
	if cfg.MigrationsPath != "" {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier()
	accountCache := redisRepo.NewCache(redisClient)

	// Initialize use cases
	m := metrics.New(prometheus.DefaultRegisterer)
	accountUC := usecase.NewAccountUseCase(txManager, accountRepo, idGen, accountCache, cfg.AccountCacheTTL, m)
	transferUC := usecase.NewTransferUseCase(txManager, accountRepo, m)

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountUC)
	transferHandler := handler.NewTransferHandler(transferUC, retrier, accountUC)
	healthHandler := handler.NewHealthHandler(pool, handler.PingerFunc(redis.Pinger(redisClient)))

	// Rate limiting, one limiter per client IP with idle entries swept hourly
	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		go func() {
			ticker := time.NewTicker(limiterSweepInterval)
			defer ticker.Stop()
			for range ticker.C {
				rateLimiter.CleanupLimiters(limiterSweepInterval)
			}
		}()
	}

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:  accountHandler,
		TransferHandler: transferHandler,
		HealthHandler:   healthHandler,
		Logger:          log.Logger,
		RateLimiter:     rateLimiter,
	})

	// Create server
	server := newServer(cfg, router)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func newServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}
