package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classifieds/internal/config"
	"classifieds/internal/delivery/router"
	"classifieds/internal/delivery/schema"
	"classifieds/internal/infrastructure/cache"
	"classifieds/internal/infrastructure/metrics"
	"classifieds/internal/repository"
	"classifieds/internal/service"
	"classifieds/pkg/database"
	"classifieds/pkg/logger"
	"classifieds/pkg/utils"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func main() {
	configDir := pflag.String("config-dir", ".", "directory holding config.yaml")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Could not load configuration: %v", err)
	}

	loggers, err := logger.SetupLogger(cfg.Logger.Level)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}
	loggers.InfoLogger.Info("Logger initialized", "storage", cfg.Storage.Driver)

	tracerProvider := setupTracer(cfg, loggers)
	defer shutdownTracer(tracerProvider, loggers)

	handlerMetrics := metrics.NewHandlerMetrics(prometheus.DefaultRegisterer)
	serviceMetrics := metrics.NewServiceMetrics(prometheus.DefaultRegisterer)
	repositoryMetrics := metrics.NewRepositoryMetrics(prometheus.DefaultRegisterer)
	loggers.InfoLogger.Info("Prometheus metrics initialized")

	adRepo, userRepo, cleanup := setupRepositories(cfg, loggers, repositoryMetrics)
	defer cleanup()

	userService := service.NewUserService(userRepo, serviceMetrics)
	adService := service.NewAdService(adRepo, userService, serviceMetrics)
	loggers.InfoLogger.Info("Service and repository layers initialized")

	schemas, err := schema.New()
	if err != nil {
		loggers.ErrorLogger.Error("Failed to compile request schemas", utils.Err(err))
		os.Exit(1)
	}

	r := router.NewRouter(loggers, cfg.CORS.AllowedOrigins, cfg.HTTP.Timeout)
	router.SetupAdRoutes(r, adService, schemas, loggers, handlerMetrics)
	router.SetupUserRoutes(r, userService, loggers, handlerMetrics)
	router.SetupMetricsRoute(r, prometheus.DefaultGatherer)
	loggers.InfoLogger.Info("Router and routes initialized")

	server := startServer(cfg, r, loggers)

	waitForShutdown(server, loggers)
}

func setupRepositories(cfg *config.Config, loggers *logger.Loggers, m *metrics.RepositoryMetrics) (repository.AdRepository, repository.UserRepository, func()) {
	if cfg.Storage.Driver == config.StorageMemory {
		loggers.InfoLogger.Info("Using in-memory storage")
		return repository.NewMemoryAdRepository(m), repository.NewMemoryUserRepository(m), func() {}
	}

	db, cleanupDB := setupDatabase(cfg, loggers)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repository.EnsureSchema(ctx, db); err != nil {
		loggers.ErrorLogger.Error("Failed to prepare database schema", utils.Err(err))
		os.Exit(1)
	}

	var adCache cache.Cache
	cleanupRedis := func() {}
	if cfg.Redis.Enabled {
		adCache, cleanupRedis = setupRedis(cfg, loggers)
	}

	cleanup := func() {
		cleanupRedis()
		cleanupDB()
	}

	return repository.NewMysqlAdRepository(db, adCache, cfg.Redis.TTL, m), repository.NewMysqlUserRepository(db, m), cleanup
}

func setupDatabase(cfg *config.Config, loggers *logger.Loggers) (*sql.DB, func()) {
	db, err := database.NewDatabase(cfg.Database.DSN())
	if err != nil {
		loggers.ErrorLogger.Error("Failed to connect to database", utils.Err(err))
		os.Exit(1)
	}
	loggers.InfoLogger.Info("Connected to database", "host", cfg.Database.Host, "name", cfg.Database.Name)

	cleanup := func() {
		if err := db.Close(); err != nil {
			loggers.ErrorLogger.Error("Failed to close database connection", utils.Err(err))
		}
	}

	return db, cleanup
}

func setupRedis(cfg *config.Config, loggers *logger.Loggers) (cache.Cache, func()) {
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		loggers.ErrorLogger.Error("Failed to connect to Redis", utils.Err(err))
		os.Exit(1)
	}
	loggers.InfoLogger.Info("Connected to Redis", "addr", cfg.Redis.Addr)

	cleanup := func() {
		if err := rdb.Close(); err != nil {
			loggers.ErrorLogger.Error("Failed to close Redis client", utils.Err(err))
		}
	}

	return cache.NewRedisCache(rdb), cleanup
}

func setupTracer(cfg *config.Config, loggers *logger.Loggers) *sdktrace.TracerProvider {
	if !cfg.Tracing.Enabled {
		return nil
	}

	tracerProvider, err := metrics.InitTracer(
		cfg.Tracing.ServiceName,
		cfg.Tracing.Environment,
		cfg.Tracing.Version,
		cfg.Tracing.Endpoint,
	)
	if err != nil {
		loggers.ErrorLogger.Error("Failed to initialize tracer, continuing without tracing", utils.Err(err))
		return nil
	}
	loggers.InfoLogger.Info("OpenTelemetry Tracer initialized", "endpoint", cfg.Tracing.Endpoint)
	return tracerProvider
}

func shutdownTracer(tp *sdktrace.TracerProvider, loggers *logger.Loggers) {
	if tp == nil {
		return
	}
	if err := tp.Shutdown(context.Background()); err != nil {
		loggers.ErrorLogger.Error("Failed to shut down tracer provider", utils.Err(err))
	}
}

func startServer(cfg *config.Config, handler http.Handler, loggers *logger.Loggers) *http.Server {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.Timeout,
		WriteTimeout: cfg.HTTP.Timeout + time.Second,
	}

	go func() {
		loggers.InfoLogger.Info("Starting server", "port", cfg.HTTP.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			loggers.ErrorLogger.Error("Failed to start server", utils.Err(err))
			os.Exit(1)
		}
	}()

	return server
}

func waitForShutdown(server *http.Server, loggers *logger.Loggers) {
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	<-shutdownCh
	loggers.InfoLogger.Info("Shutdown signal received, shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		loggers.ErrorLogger.Error("Server forced to shutdown", utils.Err(err))
	} else {
		loggers.InfoLogger.Info("Server shutdown gracefully")
	}
}
