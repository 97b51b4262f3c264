package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"userapi/docs"
	"userapi/internal/config"
	"userapi/internal/database"
	"userapi/internal/database/migration"
	handlers "userapi/internal/http/handler"
	"userapi/internal/http/middleware"
	"userapi/internal/logging"
	appotel "userapi/internal/otel"
	"userapi/internal/repository"
	"userapi/internal/repository/memory"
	"userapi/internal/repository/postgres"
	"userapi/internal/service"
	"userapi/internal/storage"
)

// @title User API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	logger := logging.New(os.Stdout, cfg.Location())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server_exit", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) error {
	shutdownTracing, err := appotel.Init(ctx, logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout())
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Error("tracing_shutdown_failed", "error", err.Error())
		}
	}()

	repo, db, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	userSvc := service.NewUserService(repo)
	deps := handlers.Dependencies{Users: userSvc}
	if db != nil {
		deps.DB = db
	}

	// Snapshots are only offered when an S3-compatible bucket is configured
	if cfg.MinIO.Enabled() {
		objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			return fmt.Errorf("failed to initialize object storage: %w", err)
		}
		expiry := time.Duration(cfg.MinIO.URLExpirySec) * time.Second
		deps.Snapshots = service.NewSnapshotService(userSvc, objStore, expiry)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if db != nil {
		reg.MustRegister(collectors.NewDBStatsCollector(db, cfg.Database.Name))
	}
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	deps.Metrics = reg

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		ReadTimeout:           cfg.HTTP.ReadTimeout(),
		WriteTimeout:          cfg.HTTP.WriteTimeout(),
		IdleTimeout:           cfg.HTTP.IdleTimeout(),
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(logger))
	app.Use(promMiddleware.Handler())

	handlers.RegisterRoutes(app, deps)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server_starting", "addr", addr, "storage_backend", cfg.StorageBackend)
		if err := app.Listen(addr); err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server_stopping", "timeout_sec", cfg.HTTP.ShutdownTimeoutSec)
		return app.ShutdownWithTimeout(cfg.HTTP.ShutdownTimeout())
	})

	return g.Wait()
}

// openRepository builds the configured storage backend. The returned *sql.DB is nil
// for the in-memory backend.
func openRepository(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (repository.UserRepository, *sql.DB, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		logger.Warn("storage_backend_memory", "detail", "users are kept in process memory and lost on restart")
		return memory.NewUserMemory(), nil, nil

	case config.BackendPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if cfg.Database.Migrate {
			if err := migration.EnsureMigrated(ctx, db, logger, cfg.Database.Host); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		return postgres.NewUserPostgres(db), db, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
