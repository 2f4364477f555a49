package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/spec-kit/support-chat/internal/api/http"
	"github.com/spec-kit/support-chat/internal/api/http/handlers"
	"github.com/spec-kit/support-chat/internal/auth"
	"github.com/spec-kit/support-chat/internal/config"
	"github.com/spec-kit/support-chat/internal/events"
	"github.com/spec-kit/support-chat/internal/gateway"
	"github.com/spec-kit/support-chat/internal/keywords"
	"github.com/spec-kit/support-chat/internal/normalize"
	"github.com/spec-kit/support-chat/internal/observability"
	"github.com/spec-kit/support-chat/internal/persistence"
	"github.com/spec-kit/support-chat/internal/repository"
	"github.com/spec-kit/support-chat/internal/service"
	"github.com/spec-kit/support-chat/internal/session"
	"github.com/spec-kit/support-chat/internal/web"
	"github.com/spec-kit/support-chat/internal/worker"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	tables := keywords.MustLoad()
	metrics := observability.NewMetrics()

	completer := gateway.NewClient(gateway.Config{
		BaseURL:     cfg.Completion.BaseURL,
		APIKey:      cfg.Completion.APIKey,
		Model:       cfg.Completion.Model,
		Hosted:      cfg.Completion.Hosted,
		Temperature: cfg.Completion.Temperature,
		Timeout:     cfg.Completion.Timeout(),
	}, logger, gateway.WithObserver(metrics.ObserveCompletion))

	dispatcher := events.NewInMemoryDispatcher()
	archive := repository.NewTicketArchive(pg.PoolHandle())

	notificationService := service.NewNotificationService(dispatcher, archive, redis, cfg.Redis, logger)
	worker.StartNotificationWorker(notificationService)

	chatService := service.NewChatService(service.ChatDependencies{
		Tables:     tables,
		Completer:  completer,
		Normalizer: normalize.New(),
		Archive:    archive,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Support:    cfg.Support,
		Logger:     logger,
	})

	sessions := session.NewStore(tables, cfg.Session.IdleTTL(), logger, session.WithEvictHook(chatService.SessionClosed))
	tokens := auth.NewTokenManager(cfg.Session.TokenSecret, cfg.Session.TokenTTL())
	sessionMiddleware := auth.NewSessionMiddleware(tokens, logger)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
		BodyLimit:             16 * 1024 * 1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, sessions.Len),
		Page:     handlers.NewPageHandler(web.NewRenderer(cfg.App.TemplatesDir, logger), "Nova | Novarsis Support"),
		Chat:     handlers.NewChatHandler(chatService, sessions),
		Tickets:  handlers.NewTicketsHandler(chatService, sessions),
		Sessions: sessionMiddleware,
		Metrics:  metrics,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		return app.Listen(cfg.App.Addr())
	})
	janitor := worker.SessionJanitor(sessions, cfg.Session.JanitorInterval(), logger)
	g.Go(func() error { return janitor(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", zap.Error(err))
	}
}
