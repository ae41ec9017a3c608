package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/hermannafesehbuma/khalifa-auto/internal/cart"
	"github.com/hermannafesehbuma/khalifa-auto/internal/checkout"
	"github.com/hermannafesehbuma/khalifa-auto/internal/config"
	"github.com/hermannafesehbuma/khalifa-auto/internal/event"
	handler "github.com/hermannafesehbuma/khalifa-auto/internal/handler/http"
	"github.com/hermannafesehbuma/khalifa-auto/internal/mailer"
	"github.com/hermannafesehbuma/khalifa-auto/internal/mailer/logsender"
	"github.com/hermannafesehbuma/khalifa-auto/internal/mailer/resend"
	pgrepo "github.com/hermannafesehbuma/khalifa-auto/internal/repository/postgres"
	redisrepo "github.com/hermannafesehbuma/khalifa-auto/internal/repository/redis"
	"github.com/hermannafesehbuma/khalifa-auto/internal/service"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/database"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/health"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/httpclient"
	pkgkafka "github.com/hermannafesehbuma/khalifa-auto/pkg/kafka"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/middleware"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/tracing"
)

const serviceName = "storefront"

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	tracerShutdown func(context.Context) error
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	if err := a.init(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	// Tracing.
	traceCfg := tracing.DefaultConfig(serviceName)
	traceCfg.Environment = cfg.Environment
	traceCfg.OTLPEndpoint = cfg.OTELEndpoint
	traceCfg.SampleRate = cfg.OTELSampleRate
	traceCfg.Enabled = cfg.OTELEnabled
	shutdown, err := tracing.InitTracer(ctx, traceCfg)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.tracerShutdown = shutdown
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold(), logger)

	// PostgreSQL holds the catalog and the order records.
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		logger.Warn("failed to register pool metrics", slog.String("error", err.Error()))
	}

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	// Carts and checkout idempotency keys.
	var (
		cartStorage cart.Storage
		idempotency checkout.IdempotencyStore
	)
	if cfg.RedisEnabled {
		rdb, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		a.rdb = rdb
		logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))

		cartStorage = redisrepo.NewCartStorage(rdb, cfg.CartTTL(), logger)
		idempotency = redisrepo.NewIdempotencyStore(rdb, cfg.IdempotencyTTL())
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	} else {
		logger.Warn("redis disabled, carts are kept in process memory")
		cartStorage = cart.NewMemoryStorage()
		idempotency = checkout.NewMemoryIdempotencyStore(cfg.IdempotencyTTL())
	}

	// Events.
	var publisher event.Publisher = event.Discard{Logger: logger}
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = a.producer
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}
	events := event.NewProducer(publisher, logger)

	// Email.
	templates, err := mailer.NewTemplates(mailer.Dealership{
		Name:    cfg.DealershipName,
		Phone:   cfg.DealershipPhone,
		Website: cfg.DealershipWebsite,
	})
	if err != nil {
		return fmt.Errorf("load email templates: %w", err)
	}
	var sender mailer.Sender
	if cfg.ResendAPIKey != "" {
		cb := httpclient.NewCircuitBreakerClient(httpclient.New(httpclient.DefaultConfig()), cfg.CircuitBreaker("resend"), logger)
		sender = resend.NewClient(cb, cfg.ResendBaseURL, cfg.ResendAPIKey)
	} else {
		logger.Warn("RESEND_API_KEY not set, emails are logged instead of sent")
		sender = logsender.New(logger)
	}
	email := service.EmailConfig{From: cfg.EmailFrom, AdminAddress: cfg.AdminEmail}

	// Build the dependency graph.
	vehicleRepo := pgrepo.NewVehicleRepository(pool)
	orderRepo := pgrepo.NewOrderRepository(pool)

	orderService := service.NewOrderService(orderRepo, sender, templates, events, email, logger)
	cartService := service.NewCartService(cartStorage, vehicleRepo, logger)

	trustedProxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		return fmt.Errorf("parse trusted proxies: %w", err)
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.AllowCredentials = true
	corsCfg.Environment = cfg.Environment

	router := handler.NewRouter(handler.RouterConfig{
		Vehicles: service.NewVehicleService(vehicleRepo, logger),
		Carts:    cartService,
		Checkout: checkout.NewAdapter(orderService, idempotency, logger),
		Leads:    service.NewLeadService(vehicleRepo, sender, templates, events, email, logger),
		Orders:   orderService,
		Health:   healthHandler,
		Logger:   logger,
		Session: handler.SessionConfig{
			Secret: []byte(cfg.SessionSecret),
			TTL:    cfg.SessionTTL(),
			Secure: cfg.SessionCookieSecure,
		},
		CORS: corsCfg,
		FormLimit: middleware.RateLimitConfig{
			PerMinute:      cfg.FormRatePerMinute,
			Burst:          cfg.FormRateBurst,
			TrustedProxies: trustedProxies,
		},
		AdminAuth:   middleware.JWTValidator([]byte(cfg.AdminJWTSecret), cfg.AdminJWTIssuer),
		AdminUserID: cfg.AdminUserID,
	})

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.close()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.close()
	a.logger.Info("application shutdown complete")
	return nil
}

// close releases every connection opened so far. It is safe on a partially
// initialized App.
func (a *App) close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
}
