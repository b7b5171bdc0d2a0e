package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/mentor_sessions/internal/config"
	"github.com/Freeeeeet/mentor_sessions/internal/controller"
	"github.com/Freeeeeet/mentor_sessions/internal/httpapi"
	"github.com/Freeeeeet/mentor_sessions/internal/httpapi/handlers"
	"github.com/Freeeeeet/mentor_sessions/internal/httpapi/middleware"
	"github.com/Freeeeeet/mentor_sessions/internal/lock"
	"github.com/Freeeeeet/mentor_sessions/internal/notify"
	"github.com/Freeeeeet/mentor_sessions/internal/payment"
	"github.com/Freeeeeet/mentor_sessions/internal/repository"
	"github.com/Freeeeeet/mentor_sessions/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	dbConnectTimeout = 10 * time.Second
	dbMaxConns       = 20
)

// App собирает зависимости сервиса
type App struct {
	cfg       *config.Config
	pool      *pgxpool.Pool
	redis     *redis.Client
	server    *httpapi.Server
	bot       *controller.BotController
	scheduler *Scheduler
	logger    *zap.Logger
}

// New подключается к хранилищам, применяет миграции и строит граф зависимостей
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	pool, err := connectPostgres(ctx, cfg.DBDSN)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, pool: pool, logger: logger}

	if err := a.migrate(ctx); err != nil {
		a.Close()
		return nil, err
	}

	var locker service.Locker
	if cfg.Redis.Addr != "" {
		client, err := lock.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = client
		locker = lock.NewRedisLocker(client)
	} else {
		logger.Warn("REDIS_ADDR not set, running without distributed locks")
	}

	var gateway service.CheckoutGateway
	if cfg.PaymentsEnabled() {
		gateway = payment.NewMidtransGateway(cfg.Midtrans.ServerKey, cfg.Midtrans.Production, logger)
	} else {
		logger.Warn("MIDTRANS_SERVER_KEY not set, checkout disabled")
	}

	store := service.NewPgStore(pool)
	projector := service.NewStatusProjector(logger)
	engineCfg := service.EngineConfig{
		DependencyTimeout: cfg.Engine.DependencyTimeout,
		Currency:          cfg.Currency,
	}

	var telegram *bot.Bot
	notifier := service.NoopNotifier
	if cfg.TelegramToken != "" {
		telegram, err = bot.New(cfg.TelegramToken)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create telegram bot: %w", err)
		}
		notifier = notify.NewTelegramNotifier(telegram, repository.NewUserRepository(pool), logger)
	} else {
		logger.Warn("TELEGRAM_TOKEN not set, notifications disabled")
	}

	lifecycle := service.NewLifecycleService(store, projector, gateway, locker, notifier, engineCfg, logger)
	requests := service.NewRequestService(store, lifecycle, projector, notifier, logger)
	queries := service.NewBookingQueryService(store, projector, engineCfg, logger)

	router := httpapi.NewRouter(httpapi.RouterDeps{
		Requests: handlers.NewRequestHandlers(requests, logger),
		Sessions: handlers.NewSessionHandlers(lifecycle, logger),
		Bookings: handlers.NewBookingHandlers(queries, logger),
		Payments: handlers.NewPaymentHandlers(lifecycle, cfg.Midtrans.ServerKey, logger),
		Health:   handlers.NewHealthHandler(),
	}, middleware.Auth(cfg.JWTSecret))

	a.server = httpapi.NewServer(cfg.HTTPPort, router, logger,
		middleware.Recovery(logger),
		middleware.Logging(logger),
	)
	a.scheduler = NewScheduler(lifecycle, cfg.Engine.UnpaidSessionTTL, cfg.Engine.SweepInterval, logger)
	if telegram != nil {
		a.bot = controller.NewBotController(telegram, queries, cfg.Currency, logger)
	}

	return a, nil
}

// Run обслуживает HTTP, бота и фоновые задачи до отмены ctx
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	a.scheduler.Start(ctx)
	defer a.scheduler.Stop()

	g.Go(func() error {
		return a.server.Run(ctx)
	})

	if a.bot != nil {
		if err := a.bot.RegisterHandlers(ctx); err != nil {
			a.logger.Warn("Failed to register bot commands", zap.Error(err))
		}
		g.Go(func() error {
			return a.bot.Start(ctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Close освобождает соединения
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func (a *App) migrate(ctx context.Context) error {
	migrator, err := NewMigrator(a.pool, a.cfg.MigrationsDir, a.logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	return migrator.Run(ctx)
}

func connectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse db dsn: %w", err)
	}
	poolCfg.MaxConns = dbMaxConns

	connectCtx, cancel := context.WithTimeout(ctx, dbConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}
