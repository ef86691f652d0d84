package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/OliveaSegaram/EC-sub001/internal/api/http"
	"github.com/OliveaSegaram/EC-sub001/internal/api/http/handlers"
	"github.com/OliveaSegaram/EC-sub001/internal/auth"
	"github.com/OliveaSegaram/EC-sub001/internal/config"
	"github.com/OliveaSegaram/EC-sub001/internal/events"
	"github.com/OliveaSegaram/EC-sub001/internal/observability"
	"github.com/OliveaSegaram/EC-sub001/internal/persistence"
	"github.com/OliveaSegaram/EC-sub001/internal/repository"
	"github.com/OliveaSegaram/EC-sub001/internal/service"
	"github.com/OliveaSegaram/EC-sub001/internal/worker"
	"github.com/OliveaSegaram/EC-sub001/internal/workflow"
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
	issueRepo := repository.NewIssueRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	districtRepo := repository.NewDistrictRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		PasswordResetRepo: resetRepo,
	})
	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:      issueRepo,
		UserRepo:       userRepo,
		DistrictRepo:   districtRepo,
		AttachmentRepo: attachmentRepo,
		Engine:         workflow.NewEngine(),
		ReviewGate:     workflow.NewReviewGate(),
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	lookupService := service.NewLookupService(districtRepo, redis,
		time.Duration(cfg.Redis.LookupTTLMinutes)*time.Minute, logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Users:          handlers.NewUsersHandler(authService),
		Issues:         handlers.NewIssuesHandler(issueService),
		Lookups:        handlers.NewLookupsHandler(lookupService, attachmentRepo),
		AuthMiddleware: authMiddleware,
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
