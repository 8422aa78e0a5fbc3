package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/repair-report-service/internal/api/http"
	"github.com/spec-kit/repair-report-service/internal/api/http/handlers"
	"github.com/spec-kit/repair-report-service/internal/auth"
	"github.com/spec-kit/repair-report-service/internal/config"
	"github.com/spec-kit/repair-report-service/internal/events"
	"github.com/spec-kit/repair-report-service/internal/observability"
	"github.com/spec-kit/repair-report-service/internal/persistence"
	"github.com/spec-kit/repair-report-service/internal/repository"
	"github.com/spec-kit/repair-report-service/internal/service"
	"github.com/spec-kit/repair-report-service/internal/storage"
	"github.com/spec-kit/repair-report-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	reportRepo := repository.NewReportRepository(pool)

	hub := events.NewHub()
	var broadcaster events.Broadcaster = hub
	if redis != nil {
		bridge := events.NewRedisBridge(hub, redis.Client, cfg.Redis.EventChannel, logger)
		go bridge.Run(ctx)
		broadcaster = bridge
	}

	blobStore, err := storage.NewDiskStore(cfg.Upload, logger)
	if err != nil {
		logger.Fatal("failed to init upload storage", zap.Error(err))
	}

	authService := service.NewAuthService(cfg.Auth, userRepo)
	reportService := service.NewReportService(service.ReportDependencies{
		ReportRepo:  reportRepo,
		BlobStore:   blobStore,
		Broadcaster: broadcaster,
		Logger:      logger,
	})

	notificationService := service.NewNotificationService(broadcaster, logger, cfg.Notification)
	worker.StartNotificationWorker(ctx, notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Upload.MaxSizeBytes) + 1<<20,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Reports:        handlers.NewReportsHandler(reportService),
		WS:             handlers.NewWSHandler(broadcaster, logger),
		AuthMiddleware: authMiddleware,
		UploadDir:      cfg.Upload.Dir,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
