package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/bytevantagees-gif/janasamparka-engine/internal/api/http"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/api/http/handlers"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/auth"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/config"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/engine"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/events"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/observability"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/persistence"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/service"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/store"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/worker"
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

	var ticketStore store.TicketStore
	if pool := pg.PoolHandle(); pool != nil {
		ticketStore = store.NewPostgresStore(pool)
	} else {
		ticketStore = store.NewMemoryStore()
	}

	var idempotency engine.IdempotencyStore
	if redis.Ping(ctx) == nil {
		idempotency = engine.NewRedisIdempotencyStore(redis.Client, cfg.Engine.IdempotencyTTL())
	} else {
		idempotency = engine.NewMemoryIdempotencyStore(cfg.Engine.IdempotencyTTL())
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	grievanceEngine := engine.New(engine.Dependencies{
		Store:       ticketStore,
		Policy:      cfg.Policy,
		Engine:      cfg.Engine,
		Dispatcher:  dispatcher,
		Idempotency: idempotency,
		Logger:      logger,
		Metrics:     metrics,
	})

	notifier := service.NewNotifier(dispatcher, service.NewLogSender(logger, cfg.Notification), logger)
	worker.StartNotificationWorker(notifier)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret)
	authMiddleware := auth.NewMiddleware(tokenManager)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Grievances:     handlers.NewGrievancesHandler(grievanceEngine),
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
