package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"stream-notify/internal/config"
	"stream-notify/internal/domain/entity"
	"stream-notify/internal/infra/adapter/cache"
	pgRepo "stream-notify/internal/infra/adapter/persistence/postgres"
	"stream-notify/internal/infra/db"
	"stream-notify/internal/infra/mailer"
	"stream-notify/internal/infra/queue"
	"stream-notify/internal/infra/webhook"
	"stream-notify/internal/observability/logging"
	"stream-notify/internal/observability/tracing"
	"stream-notify/internal/render"
	"stream-notify/internal/resilience/circuitbreaker"
	"stream-notify/internal/usecase/notify"
	"stream-notify/internal/utils/text"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the configuration file")
	migrate := flag.Bool("migrate", false, "apply schema migrations and exit")
	flag.Parse()

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	database, err := db.Open(cfg.Database.URL)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	if *migrate {
		if err := db.MigrateUp(database); err != nil {
			logger.Error("migration failed", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("migrations applied")
		return
	}

	stopTracing, err := tracing.Setup("stream-notify")
	if err != nil {
		logger.Error("failed to set up tracing", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := stopTracing(flushCtx); err != nil {
			logger.Error("tracing shutdown incomplete", slog.Any("error", err))
		}
	}()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = redisClient.Close() }()

	svc, workQueue := setupNotifyService(cfg, database, redisClient, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := newServer(cfg.Metrics.Port, svc, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		workQueue.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("http server starting", slog.Int("port", cfg.Metrics.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	logger.Info("notifier started",
		slog.Int("max_concurrent", cfg.Dispatch.MaxConcurrent),
		slog.Int("queue_capacity", cfg.Queue.Capacity))

	if err := g.Wait(); err != nil {
		logger.Error("server error", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := svc.Shutdown(shutdownCtx); err != nil {
		logger.Error("dispatcher shutdown incomplete", slog.Any("error", err))
		return
	}
	logger.Info("notifier stopped")
}

// setupNotifyService builds the dispatcher and its collaborators: protected
// repositories, the render engine with the configured template tables, the
// mail work queue, and the three channel notifiers.
func setupNotifyService(cfg *config.Config, database *sql.DB, redisClient *redis.Client, logger *slog.Logger) (notify.Service, *queue.Queue) {
	protected := circuitbreaker.NewDBCircuitBreaker(database)
	alertRepo := pgRepo.NewNotificationRepo(protected)
	peopleRepo := pgRepo.NewPersonRepo(protected)
	unreadCache := cache.NewUnreadCountCache(redisClient, alertRepo, cfg.Redis.UnreadTTL.Std())

	resolver := text.NewMarkdownResolver(cfg.App.BaseURL)
	engine := render.NewEngine(render.ContentFuncs(resolver))
	if err := cfg.RegisterTemplates(engine); err != nil {
		logger.Error("failed to register templates", slog.Any("error", err))
		os.Exit(1)
	}

	workQueue := queue.NewQueue(cfg.Queue.Capacity, queue.NewMetrics(), logger)
	sender := mailer.NewMailer(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, logger)
	workQueue.RegisterHandler(entity.ChannelKeySendMail, queue.NewMailHandler(sender))

	webhookClient := webhook.NewClient(webhook.Config{
		Username:          cfg.Webhook.Username,
		Password:          cfg.Webhook.Password,
		Timeout:           cfg.Webhook.Timeout.Std(),
		RequestsPerSecond: cfg.Webhook.RequestsPerSecond,
		Burst:             cfg.Webhook.Burst,
	}, logger)

	notifiers := []notify.Notifier{
		notify.NewMailNotifier(engine, cfg.MailTemplates(), cfg.App.Globals,
			cfg.App.SubjectPrefix, notify.NewTokenAddressBuilder(cfg.App.ReplyDomain), logger),
		notify.NewInAppNotifier(alertRepo, peopleRepo, unreadCache, engine,
			cfg.InAppTemplates(), cfg.InAppAggregateTemplates(), cfg.App.Globals, logger),
		notify.NewWebhookNotifier(webhookClient, peopleRepo, engine,
			cfg.WebhookTemplates(), cfg.WebhookEndpoints(), cfg.App.Globals, logger),
	}
	logger.Info("notifiers initialized", slog.Int("count", len(notifiers)))

	return notify.NewService(notifiers, peopleRepo, workQueue, cfg.Dispatch.MaxConcurrent, logger), workQueue
}
