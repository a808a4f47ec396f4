package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pkaravayeu/paylater/internal/config"
	tginfra "github.com/pkaravayeu/paylater/internal/infra/telegram"
	"github.com/pkaravayeu/paylater/internal/jobs/overdue"
	pgrepo "github.com/pkaravayeu/paylater/internal/repo/postgres"
	redrepo "github.com/pkaravayeu/paylater/internal/repo/redis"
	authsvc "github.com/pkaravayeu/paylater/internal/services/auth"
	catalogsvc "github.com/pkaravayeu/paylater/internal/services/catalog"
	ledgersvc "github.com/pkaravayeu/paylater/internal/services/ledger"
	notifysvc "github.com/pkaravayeu/paylater/internal/services/notifications"
	reportsvc "github.com/pkaravayeu/paylater/internal/services/reports"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	overdueJob *overdue.Job
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	statsCacheRepo := redrepo.NewStatsCacheRepo(redisClient)

	userRepo := pgrepo.NewUserRepo(pool)
	categoryRepo := pgrepo.NewCategoryRepo(pool)
	productRepo := pgrepo.NewProductRepo(pool)
	purchaseRepo := pgrepo.NewPurchaseRepo(pool)
	installmentRepo := pgrepo.NewInstallmentRepo(pool)
	notificationRepo := pgrepo.NewNotificationRepo(pool)
	statsRepo := pgrepo.NewStatsRepo(pool)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(authsvc.Dependencies{
		JWT:        jwtManager,
		Users:      userRepo,
		Sessions:   sessionRepo,
		SessionTTL: cfg.Auth.SessionTTL,
	})

	catalogService := catalogsvc.NewService(catalogsvc.Dependencies{
		Categories: categoryRepo,
		Products:   productRepo,
	})

	notificationService := notifysvc.NewService(notifysvc.Dependencies{
		Store:  notificationRepo,
		Users:  userRepo,
		Logger: log,
	})
	if cfg.Notify.TelegramToken != "" {
		if notifier, err := tginfra.NewNotifier(cfg.Notify.TelegramToken); err != nil {
			log.Warn("telegram init failed, continuing without telegram delivery", zap.Error(err))
		} else {
			notificationService = notifysvc.NewService(notifysvc.Dependencies{
				Store:    notificationRepo,
				Users:    userRepo,
				Telegram: notifier,
				Logger:   log,
			})
		}
	}

	ledgerService := ledgersvc.NewService(ledgersvc.Dependencies{
		Products:     productRepo,
		Purchases:    purchaseRepo,
		Installments: installmentRepo,
	})
	ledgerService.AttachNotifier(notificationService)

	reportService := reportsvc.NewService(reportsvc.Dependencies{
		Stats:    statsRepo,
		Sums:     purchaseRepo,
		Cache:    statsCacheRepo,
		CacheTTL: cfg.Reports.StatsCacheTTL,
		Logger:   log,
	})

	RegisterRoutes(r, Dependencies{
		AuthService:         authService,
		CatalogService:      catalogService,
		LedgerService:       ledgerService,
		ReportService:       reportService,
		NotificationService: notificationService,
		Logger:              log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		overdueJob: overdue.New(installmentRepo, log),
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// RunOverdueSweep marks past-due installments on a fixed interval until the
// context is cancelled. It runs once immediately so a restart does not delay
// the sweep.
func (a *App) RunOverdueSweep(ctx context.Context) error {
	if a.overdueJob == nil || a.postgres == nil {
		return nil
	}

	interval := a.cfg.Ledger.OverdueSweepInterval
	if interval <= 0 {
		interval = time.Hour
	}

	if err := a.overdueJob.Run(ctx); err != nil {
		a.logger.Warn("overdue sweep failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := a.overdueJob.Run(ctx); err != nil {
				a.logger.Warn("overdue sweep failed", zap.Error(err))
			}
		}
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
