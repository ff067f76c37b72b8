// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carterperez-dev/streamflix/internal/admin"
	"github.com/carterperez-dev/streamflix/internal/auth"
	"github.com/carterperez-dev/streamflix/internal/config"
	"github.com/carterperez-dev/streamflix/internal/core"
	"github.com/carterperez-dev/streamflix/internal/dashboard"
	"github.com/carterperez-dev/streamflix/internal/health"
	"github.com/carterperez-dev/streamflix/internal/middleware"
	"github.com/carterperez-dev/streamflix/internal/movie"
	"github.com/carterperez-dev/streamflix/internal/plan"
	"github.com/carterperez-dev/streamflix/internal/rating"
	"github.com/carterperez-dev/streamflix/internal/scheduler"
	"github.com/carterperez-dev/streamflix/internal/schema"
	"github.com/carterperez-dev/streamflix/internal/server"
	"github.com/carterperez-dev/streamflix/internal/subscription"
	"github.com/carterperez-dev/streamflix/internal/tables"
	"github.com/carterperez-dev/streamflix/internal/user"
	"github.com/carterperez-dev/streamflix/internal/watch"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := core.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		logger.Warn("failed to initialize telemetry", "error", err)
	} else if cfg.Otel.Enabled {
		logger.Info("OpenTelemetry tracer initialized",
			"endpoint", cfg.Otel.Endpoint,
		)
	}

	cardKey, err := core.ParseCardKey(cfg.Security.CardEncryptionKey)
	if err != nil {
		return err
	}
	cipher, err := core.NewCardCipher(cardKey)
	if err != nil {
		return err
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if err := schema.Migrate(ctx, db.DB, true); err != nil {
		return err
	}
	logger.Info("schema ready", "tables", len(schema.Dependencies.InsertOrder()))

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	var (
		listCache  core.JSONCache
		cacheState func() string
	)
	if cfg.Cache.Enabled {
		cache := core.NewCache(redis.Client, cfg.Cache, logger)
		listCache = cache
		cacheState = func() string { return cache.State().String() }
	}

	guard := middleware.NewGuard(nil, false)
	var jwtManager *auth.JWTManager
	if cfg.Auth.Enabled {
		jwtManager, err = auth.NewJWTManager(cfg.Auth)
		if err != nil {
			return err
		}
		guard = middleware.NewGuard(jwtManager, true)
		logger.Info("operator auth enabled",
			"algorithm", "ES256",
			"key_id", jwtManager.KeyID(),
		)
	}

	userSvc := user.NewService(db, listCache, logger)
	movieSvc := movie.NewService(db, listCache, logger)
	ratingSvc := rating.NewService(db, listCache, logger)
	subscriptionSvc := subscription.NewService(db, cipher, logger)
	watchSvc := watch.NewService(db, logger)
	plans := plan.NewRepository(db.DB)
	tableReader := tables.NewReader(db.DB)

	dashboardSvc := dashboard.NewService(dashboard.Sources{
		Users:         userSvc,
		Movies:        movieSvc,
		Subscriptions: subscriptionSvc,
		Ratings:       ratingSvc,
		Plans:         plans,
		Watches:       watchSvc,
	})

	sched := scheduler.New(cfg.Scheduler, subscriptionSvc, logger)

	healthHandler := health.NewHandler(
		health.Check{Name: "database", Checker: db},
		health.Check{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:     db.Stats,
		RedisStats:  redis.PoolStats,
		DBPing:      db.Ping,
		RedisPing:   redis.Ping,
		TableCounts: tableReader.Counts,
		CacheState:  cacheState,
		Sweeper:     subscriptionSvc,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(guard.Identify)
	if cfg.RateLimit.Enabled {
		router.Use(
			middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
				Limit:      middleware.LimitFromConfig(cfg.RateLimit),
				FailOpen:   true,
				BypassFunc: middleware.BypassProbes,
			}).Handler,
		)
	}
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	if jwtManager != nil {
		router.Get("/.well-known/jwks.json", jwtManager.JWKSHandler())
	}

	srv.Mount(guard,
		user.NewHandler(userSvc),
		movie.NewHandler(movieSvc),
		subscription.NewHandler(subscriptionSvc),
		rating.NewHandler(ratingSvc),
		plan.NewHandler(db.DB),
		watch.NewHandler(watchSvc),
		tables.NewHandler(tableReader),
		dashboard.NewHandler(dashboardSvc),
		adminHandler,
	)

	if err := sched.Start(ctx); err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+cfg.Server.DrainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, cfg.Server.DrainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	sched.Stop(shutdownCtx)

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}
